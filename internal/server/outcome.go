package server

import (
	"encoding/json"
	"fmt"

	"github.com/dirops/freeipa-mcp/internal/ipa"
)

// NotConnectedMessage is returned when a tool cannot obtain a live session.
const NotConnectedMessage = "not connected to directory service"

// Outcome is the payload every tool returns: either a result or an error
// message, never both. Failures are reported as data rather than protocol
// errors so that callers always receive a well-formed payload.
type Outcome struct {
	Result any
	Error  string
}

// MarshalJSON renders the outcome as exactly one of {"result": ...} or
// {"error": "..."}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: o.Error})
	}
	return json.Marshal(struct {
		Result any `json:"result"`
	}{Result: o.Result})
}

// UnmarshalJSON accepts either envelope shape. Used by tests and by clients
// that round-trip outcomes.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Result any    `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	o.Result = envelope.Result
	o.Error = envelope.Error
	return nil
}

// success normalizes v and wraps it as a result outcome.
func success(v any) Outcome {
	return Outcome{Result: ipa.Normalize(v)}
}

// failure wraps err under a short operation context, mirroring the
// "<context>: <cause>" shape used throughout the backend client.
func failure(context string, err error) Outcome {
	return Outcome{Error: fmt.Sprintf("%s: %s", context, err.Error())}
}

// invalid reports an argument validation failure.
func invalid(msg string) Outcome {
	return Outcome{Error: msg}
}

// notConnected is the fixed outcome for tools that require a session when
// none can be established.
func notConnected() Outcome {
	return Outcome{Error: NotConnectedMessage}
}
