package ipa

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
)

// DialFunc constructs a backend client from a configuration. The session
// manager uses it for every connect and reconnect.
type DialFunc func(cfg *Config, logger Logger) (Client, error)

// SessionManager owns the single shared authenticated backend handle. It is
// the only way handlers reach the backend: EnsureConnected is the admission
// gate that either hands out a verifiably live client or reports failure.
//
// All state transitions happen under one mutex, so concurrent callers that
// observe a dropped connection trigger exactly one reconnect between them.
type SessionManager struct {
	cfg  *Config
	log  Logger
	dial DialFunc

	mu             sync.Mutex
	client         Client
	connected      bool
	connectedSince time.Time

	connects     atomic.Int64
	reconnects   atomic.Int64
	disconnects  atomic.Int64
	pingFailures atomic.Int64
}

// SessionStats provides counters about the session lifecycle.
type SessionStats struct {
	Connects     int64         // Successful connects (including reconnects)
	Reconnects   int64         // Reconnect attempts after a failed probe
	Disconnects  int64         // Explicit disconnects
	PingFailures int64         // Liveness probes that failed
	Uptime       time.Duration // Time since the current session was established
}

// NewSessionManager creates a session manager bound to the given static
// configuration. No connection is attempted until Connect or
// EnsureConnected is called.
func NewSessionManager(cfg *Config, logger Logger) *SessionManager {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &SessionManager{
		cfg:  cfg,
		log:  logger,
		dial: NewClient,
	}
}

// WithDialer overrides how backend clients are constructed.
func (s *SessionManager) WithDialer(dial DialFunc) *SessionManager {
	s.dial = dial
	return s
}

// Connect establishes a session using the stored static configuration,
// replacing any existing session.
func (s *SessionManager) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx, s.cfg)
}

// ConnectWith establishes a session from caller-supplied connection
// parameters. The stored static configuration is not changed; later
// reconnects still use it.
func (s *SessionManager) ConnectWith(ctx context.Context, cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx, cfg)
}

// connectLocked performs the connect. Callers hold the mutex. On failure the
// attempted handle is discarded and the session is marked disconnected; the
// previous handle, if any, is only replaced on success.
func (s *SessionManager) connectLocked(ctx context.Context, cfg *Config) error {
	client, err := s.dial(cfg, s.log)
	if err != nil {
		s.connected = false
		s.log.Error("Client setup failed", map[string]any{
			"server": cfg.Server,
			"error":  err.Error(),
		})
		return err
	}

	if err := client.Login(ctx); err != nil {
		_ = client.Close()
		s.connected = false
		s.log.Error("Connection failed", map[string]any{
			"server": cfg.Server,
			"error":  err.Error(),
		})
		return err
	}

	if s.client != nil {
		_ = s.client.Close()
	}
	s.client = client
	s.connected = true
	s.connectedSince = time.Now()
	s.connects.Add(1)

	s.log.Info("Connected to directory service", map[string]any{
		"server":    cfg.Server,
		"principal": client.Principal(),
	})
	return nil
}

// Disconnect logs out and clears the session. Logout and close failures are
// aggregated and reported, but the session is cleared regardless.
func (s *SessionManager) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		s.connected = false
		return nil
	}

	var result *multierror.Error
	if err := s.client.Logout(ctx); err != nil {
		s.log.Warn("Logout failed", map[string]any{"error": err.Error()})
		result = multierror.Append(result, err)
	}
	if err := s.client.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	s.client = nil
	s.connected = false
	s.connectedSince = time.Time{}
	s.disconnects.Add(1)

	s.log.Info("Disconnected from directory service", map[string]any{
		"server": s.cfg.Server,
	})
	return result.ErrorOrNil()
}

// EnsureConnected is the single admission gate for directory operations.
// Without a session it connects; with one it probes the backend and, on
// probe failure, attempts exactly one reconnect using the stored
// configuration. It returns a live client or an error, never both.
func (s *SessionManager) EnsureConnected(ctx context.Context) (Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected || s.client == nil {
		if err := s.connectLocked(ctx, s.cfg); err != nil {
			return nil, err
		}
		return s.client, nil
	}

	if _, err := s.client.Ping(ctx); err != nil {
		s.pingFailures.Add(1)
		s.log.Warn("Connection lost, reconnecting", map[string]any{
			"server": s.cfg.Server,
			"error":  err.Error(),
		})

		s.reconnects.Add(1)
		if err := s.connectLocked(ctx, s.cfg); err != nil {
			return nil, err
		}
	}

	return s.client, nil
}

// Connected reports the advisory connection flag. It can be stale between a
// backend-side failure and the next probe.
func (s *SessionManager) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Server returns the configured backend endpoint.
func (s *SessionManager) Server() string {
	return s.cfg.Server
}

// Principal returns the authenticated principal of the current session, or
// an empty string without one.
func (s *SessionManager) Principal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return ""
	}
	return s.client.Principal()
}

// Stats returns a snapshot of the session lifecycle counters.
func (s *SessionManager) Stats() SessionStats {
	stats := SessionStats{
		Connects:     s.connects.Load(),
		Reconnects:   s.reconnects.Load(),
		Disconnects:  s.disconnects.Load(),
		PingFailures: s.pingFailures.Load(),
	}

	s.mu.Lock()
	if s.connected && !s.connectedSince.IsZero() {
		stats.Uptime = time.Since(s.connectedSince)
	}
	s.mu.Unlock()

	return stats
}
