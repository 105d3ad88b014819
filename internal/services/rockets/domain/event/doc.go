// Package event defines the rocket telemetry event envelope and its closed set
// of payload variants.
//
// Events are immutable facts reported by a rocket. Each one is identified by
// its rocket id and the sequence number the rocket assigned to it; sequence
// numbers are unique per rocket but may arrive out of order or more than once.
// The package also owns the two JSON shapes an event takes: the wire envelope
// delivered through the queue and the document stored in the event log.
package event
