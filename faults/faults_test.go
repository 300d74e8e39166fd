package faults

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
)

func TestFromClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   Code
		wantStatus int
	}{
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantCode:   CodeTimeout,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "cancelled",
			err:        context.Canceled,
			wantCode:   CodeTimeout,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "net timeout",
			err:        &net.DNSError{IsTimeout: true},
			wantCode:   CodeTimeout,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "connection failure",
			err:        &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			wantCode:   CodeNetwork,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unclassified",
			err:        errors.New("boom"),
			wantCode:   CodeService,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := From(tt.err)
			if f.Code != tt.wantCode {
				t.Fatalf("code = %s, want %s", f.Code, tt.wantCode)
			}
			if f.Status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", f.Status, tt.wantStatus)
			}
		})
	}
}

func TestFromPassesFaultsThrough(t *testing.T) {
	original := NoResults("no match for 'Rosa'")

	if got := From(original); got != original {
		t.Fatalf("From should pass faults through unchanged, got %v", got)
	}

	wrapped := fmt.Errorf("lookup: %w", original)
	if got := From(wrapped); got != original {
		t.Fatalf("From should unwrap to the original fault, got %v", got)
	}
}

func TestFromNil(t *testing.T) {
	if got := From(nil); got != nil {
		t.Fatalf("From(nil) = %v, want nil", got)
	}
}

func TestWrappedCauseInDetails(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	f := Network("search endpoint unreachable", cause)

	if f.Details["error"] != cause.Error() {
		t.Fatalf("details[error] = %q, want %q", f.Details["error"], cause.Error())
	}
	if !errors.Is(f, cause) {
		t.Fatalf("fault should wrap its cause")
	}
}

func TestValidationStatusOverride(t *testing.T) {
	f := New(CodeValidation, http.StatusUnprocessableEntity, "reply missing required fields")
	if f.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", f.Status)
	}
	if f.Code != CodeValidation {
		t.Fatalf("code = %s, want %s", f.Code, CodeValidation)
	}
}
