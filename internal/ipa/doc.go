/*
Package ipa provides FreeIPA directory operations for the MCP adapter.

This package implements the client layer between the tool handlers and a
FreeIPA server's JSON-RPC session API, with focus on:

# Session Management

The SessionManager owns the single shared authenticated session:

  - Connect, Disconnect, and the EnsureConnected admission gate
  - Liveness probing with exactly one transparent reconnect on failure
  - Mutex-serialized connects, so concurrent callers cannot race a reconnect
  - Lifecycle counters for observability

# Backend Client

The Client interface wraps the FreeIPA session API:

  - Form login (login_password) and SPNEGO login (login_kerberos)
  - JSON-RPC command execution with bounded retry on transport failures
  - Typed user, group, and password operations
  - Structured error categorization with the backend message preserved

# Result Normalization

Normalize converts arbitrary backend payloads into trees of primitives,
slices, and string-keyed maps, bounded by a recursion depth limit. It never
panics; unrepresentable values degrade to placeholder strings.

# Error Handling

All failures surface as *Error with a closed category set (not_connected,
transport_failure, authentication, backend_rejected, not_found, conflict,
validation, server, unknown) and retryability classification.

# Thread Safety

The SessionManager and the client are safe for concurrent use. Normalization
and phone matching are pure functions.

# Example Usage

	cfg := ipa.DefaultConfig()
	cfg.Server = "ipa.example.test"
	cfg.Username = "admin"
	cfg.Password = "secret"

	session := ipa.NewSessionManager(cfg, logger)
	client, err := session.EnsureConnected(ctx)
	if err != nil {
		return err
	}

	res, err := client.UserFind(ctx, 100)
	if err != nil {
		return err
	}
	payload := ipa.Normalize(ipa.InnerResult(res))
*/
package ipa
