package ipa

import (
	"errors"
	"reflect"
	"testing"
)

func TestSanitizeFields(t *testing.T) {
	fields := map[string]any{
		"username":     "admin",
		"password":     "hunter2",
		"new_password": "NewPass1",
		"OLD_PASSWORD": "OldPass1",
		"server":       "ipa.example.test",
		"query":        "filter=uid&password=leaky",
		"sizelimit":    100,
	}

	got := SanitizeFields(fields)

	want := map[string]any{
		"username":     "admin",
		"password":     "[REDACTED]",
		"new_password": "[REDACTED]",
		"OLD_PASSWORD": "[REDACTED]",
		"server":       "ipa.example.test",
		"query":        "[REDACTED]",
		"sizelimit":    100,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeFields() = %v, want %v", got, want)
	}

	// The input map is left untouched.
	if fields["password"] != "hunter2" {
		t.Error("SanitizeFields() mutated its input")
	}
}

func TestFlattenFieldsSorted(t *testing.T) {
	got := flattenFields(map[string]any{"b": 2, "a": 1, "c": 3})

	want := []any{"a", 1, "b", 2, "c", 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("flattenFields() = %v, want %v", got, want)
	}

	if flattenFields(nil) != nil {
		t.Error("flattenFields(nil) should be nil")
	}
}

func TestLogOperationPassesThroughError(t *testing.T) {
	logger := NewNopLogger()

	wantErr := errors.New("backend unavailable")
	err := LogOperation(logger, "ping", nil, func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("LogOperation() error = %v, want %v", err, wantErr)
	}

	if err := LogOperation(logger, "ping", map[string]any{"server": "x"}, func() error { return nil }); err != nil {
		t.Errorf("LogOperation() error = %v, want nil", err)
	}
}
