package dfe

import (
	"errors"
	"fmt"
	"testing"
)

func TestDistError_Codes(t *testing.T) {
	cause := fmt.Errorf("underlying")

	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"validation", NewValidationError("bad input"), ErrCodeValidation},
		{"identity", WrapIdentityError(cause, "no identity"), ErrCodeIdentity},
		{"transport", WrapTransportError(cause, "request failed"), ErrCodeTransport},
		{"protocol", NewProtocolError("656", "Consumo indevido"), ErrCodeProtocol},
		{"decode", NewDecodeError("bad payload"), ErrCodeDecode},
		{"extraction", WrapExtractionError(cause, "bad document"), ErrCodeExtraction},
		{"storage", WrapStorageError(cause, "disk full"), ErrCodeStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var distErr *DistError
			if !errors.As(tt.err, &distErr) {
				t.Fatalf("error %v is not a *DistError", tt.err)
			}
			if distErr.Code() != tt.code {
				t.Errorf("Code() = %s, want %s", distErr.Code(), tt.code)
			}
		})
	}
}

func TestDistError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := WrapTransportError(cause, "request failed")

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable through errors.Is")
	}
}

func TestNewProtocolError_CarriesUpstreamStatus(t *testing.T) {
	err := NewProtocolError("137", "Nenhum documento localizado")

	var distErr *DistError
	if !errors.As(err, &distErr) {
		t.Fatalf("error %v is not a *DistError", err)
	}
	if distErr.StatusCode() != "137" {
		t.Errorf("StatusCode() = %q, want 137", distErr.StatusCode())
	}
	if distErr.StatusMessage() != "Nenhum documento localizado" {
		t.Errorf("StatusMessage() = %q", distErr.StatusMessage())
	}
	if got := err.Error(); got != "authority returned status 137: Nenhum documento localizado" {
		t.Errorf("Error() = %q, want the upstream status verbatim", got)
	}
}
