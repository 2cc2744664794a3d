package server

import (
	"context"
	"fmt"

	"github.com/dirops/freeipa-mcp/internal/ipa"
)

type connectArgs struct {
	Server    string `json:"server"`               // directory server hostname or URL
	Username  string `json:"username"`             // bind principal
	Password  string `json:"password"`             // bind password
	VerifySSL *bool  `json:"verify_ssl,omitempty"` // verify the server certificate (default true)
}

// handleConnect establishes a session with caller-supplied parameters. The
// static process configuration is left untouched, so automatic reconnects
// keep using the environment credentials.
func (s *Server) handleConnect(ctx context.Context, args connectArgs) Outcome {
	if args.Server == "" || args.Username == "" || args.Password == "" {
		return invalid("server, username and password are required")
	}

	cfg := s.cfg.IPA.Clone()
	cfg.Server = args.Server
	cfg.Username = args.Username
	cfg.Password = args.Password
	cfg.AuthMethod = ipa.AuthMethodPassword
	if args.VerifySSL != nil {
		cfg.VerifySSL = *args.VerifySSL
	} else {
		cfg.VerifySSL = true
	}

	if err := s.session.ConnectWith(ctx, cfg); err != nil {
		return failure("connection failed", err)
	}
	return success(fmt.Sprintf("connected to directory service at %s", args.Server))
}

type disconnectArgs struct{}

func (s *Server) handleDisconnect(ctx context.Context, _ disconnectArgs) Outcome {
	if err := s.session.Disconnect(ctx); err != nil {
		return failure("disconnect failed", err)
	}
	return success("disconnected from directory service")
}

type statusArgs struct{}

// handleStatus pings the backend over the current session. Unlike the other
// read tools the full ping response is returned without unwrapping, since
// the envelope itself carries the server summary.
func (s *Server) handleStatus(ctx context.Context, _ statusArgs) Outcome {
	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}
	res, err := client.Ping(ctx)
	if err != nil {
		return failure("failed to check status", err)
	}
	return success(res)
}
