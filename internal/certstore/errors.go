package certstore

import "fmt"

// Error represents a structured error from the certstore package
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	// ErrCodeStoreUnavailable is used when the certificate store itself cannot be opened or read.
	ErrCodeStoreUnavailable ErrorCode = "store_unavailable"

	// ErrCodeNotFound is used when no certificate matches the requested fingerprint.
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeKeyNotExportable is used when the matching certificate has no exportable
	// private key. This is reported distinctly because such a certificate can never
	// be used as a TLS client identity.
	ErrCodeKeyNotExportable ErrorCode = "key_not_exportable"

	// ErrCodeExport is used when building the PKCS#12 bundle fails.
	ErrCodeExport ErrorCode = "export"
)

// StoreError represents a structured error from the certstore package
type StoreError struct {

	// code is the certstore error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *StoreError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *StoreError) Code() ErrorCode { return e.code }
func (e *StoreError) Unwrap() error   { return e.wrapped }

// NewStoreUnavailableError creates an error for an inaccessible certificate store.
func NewStoreUnavailableError(msg string) error {
	return &StoreError{code: ErrCodeStoreUnavailable, message: msg}
}

// WrapStoreUnavailableError wraps an existing error as a store-unavailable error.
func WrapStoreUnavailableError(err error, msg string) error {
	return &StoreError{code: ErrCodeStoreUnavailable, message: msg, wrapped: err}
}

// NewNotFoundError creates an error for a fingerprint with no matching certificate.
func NewNotFoundError(msg string) error {
	return &StoreError{code: ErrCodeNotFound, message: msg}
}

// NewKeyNotExportableError creates an error for a certificate whose private key
// cannot be exported from the store.
func NewKeyNotExportableError(msg string) error {
	return &StoreError{code: ErrCodeKeyNotExportable, message: msg}
}

// WrapExportError wraps an existing error as a PKCS#12 export failure.
func WrapExportError(err error, msg string) error {
	return &StoreError{code: ErrCodeExport, message: msg, wrapped: err}
}
