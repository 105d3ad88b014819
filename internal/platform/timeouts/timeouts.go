// Package timeouts defines shared timeout constants used across rocketwatch
// processes.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single client call made by command-line tools.
const GRPCRequest = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// QueueReceiveWait is the long-poll wait for one queue receive call.
const QueueReceiveWait = 20 * time.Second

// Ingest bounds one end-to-end reconciliation of a delivered event.
const Ingest = 30 * time.Second
