package app

import (
	"context"
	"log"
	"net/http"

	cmdentry "github.com/louisbranch/rocketwatch/internal/platform/cmd"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/api/httpapi"
)

// MessagesConfig configures the ingress process.
type MessagesConfig struct {
	GRPCPort int
	HTTPAddr string
	// MaxConns caps concurrent ingress connections; zero uses the default.
	MaxConns int
	Queue    QueueConfig
}

// NewMessagesServer opens the queue publisher and wires POST /messages.
func NewMessagesServer(ctx context.Context, cfg MessagesConfig) (*Server, error) {
	server, err := newServer(cmdentry.ServiceMessages, cfg.GRPCPort)
	if err != nil {
		return nil, err
	}
	publisher, err := OpenPublisher(ctx, cfg.Queue)
	if err != nil {
		server.abort()
		return nil, err
	}
	server.onClose(publisher.Close)

	mux := http.NewServeMux()
	httpapi.NewMessagesHandler(publisher, log.Printf).RegisterRoutes(mux)
	if err := server.listenHTTP(cfg.HTTPAddr, cfg.MaxConns, mux); err != nil {
		server.abort()
		return nil, err
	}
	server.registerHealth("messages.ingress")
	return server, nil
}

// RunMessages serves the ingress process until ctx ends.
func RunMessages(ctx context.Context, cfg MessagesConfig) error {
	server, err := NewMessagesServer(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}
