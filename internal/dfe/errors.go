package dfe

import "fmt"

// Error represents a structured error from the document distribution pipeline
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	// ErrCodeValidation is used when the query input fails shape validation
	// before anything else runs.
	ErrCodeValidation ErrorCode = "validation"

	// ErrCodeIdentity is used when the client identity cannot be produced,
	// either because certificate acquisition fails or because the certificate
	// subject carries no tax identifier.
	ErrCodeIdentity ErrorCode = "identity"

	// ErrCodeTransport is used for network-level failures: TLS handshake,
	// timeouts, and non-success HTTP statuses.
	ErrCodeTransport ErrorCode = "transport"

	// ErrCodeProtocol is used when the authority answers with a status code
	// other than the document-located status. The upstream status code and
	// message are carried verbatim.
	ErrCodeProtocol ErrorCode = "protocol"

	// ErrCodeDecode is used when the response envelope or the compressed
	// payload cannot be decoded.
	ErrCodeDecode ErrorCode = "decode"

	// ErrCodeExtraction is used when the decoded document cannot be turned
	// into the document model or rendered.
	ErrCodeExtraction ErrorCode = "extraction"

	// ErrCodeStorage is used when writing query artifacts to disk fails.
	ErrCodeStorage ErrorCode = "storage"
)

// DistError represents a structured error from the document distribution pipeline
type DistError struct {

	// code is the pipeline stage error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error

	// statusCode and statusMessage carry the upstream authority status for
	// protocol errors; empty for every other code
	statusCode    string
	statusMessage string
}

func (e *DistError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *DistError) Code() ErrorCode { return e.code }
func (e *DistError) Unwrap() error   { return e.wrapped }

// StatusCode returns the upstream authority status code for protocol errors.
func (e *DistError) StatusCode() string { return e.statusCode }

// StatusMessage returns the upstream authority status message for protocol errors.
func (e *DistError) StatusMessage() string { return e.statusMessage }

// NewValidationError creates an error for invalid query input.
func NewValidationError(msg string) error {
	return &DistError{code: ErrCodeValidation, message: msg}
}

// NewIdentityError creates an error for a certificate that cannot serve as a
// client identity.
func NewIdentityError(msg string) error {
	return &DistError{code: ErrCodeIdentity, message: msg}
}

// WrapIdentityError wraps an existing error as an identity failure.
func WrapIdentityError(err error, msg string) error {
	return &DistError{code: ErrCodeIdentity, message: msg, wrapped: err}
}

// WrapTransportError wraps an existing error as a transport failure.
func WrapTransportError(err error, msg string) error {
	return &DistError{code: ErrCodeTransport, message: msg, wrapped: err}
}

// NewTransportError creates a transport error without an underlying cause.
func NewTransportError(msg string) error {
	return &DistError{code: ErrCodeTransport, message: msg}
}

// NewProtocolError creates an error carrying the authority's own status code
// and message, verbatim.
func NewProtocolError(statusCode, statusMessage string) error {
	return &DistError{
		code:          ErrCodeProtocol,
		message:       fmt.Sprintf("authority returned status %s: %s", statusCode, statusMessage),
		statusCode:    statusCode,
		statusMessage: statusMessage,
	}
}

// NewDecodeError creates an error for an undecodable response.
func NewDecodeError(msg string) error {
	return &DistError{code: ErrCodeDecode, message: msg}
}

// WrapDecodeError wraps an existing error as a decode failure.
func WrapDecodeError(err error, msg string) error {
	return &DistError{code: ErrCodeDecode, message: msg, wrapped: err}
}

// WrapExtractionError wraps an existing error as an extraction failure.
func WrapExtractionError(err error, msg string) error {
	return &DistError{code: ErrCodeExtraction, message: msg, wrapped: err}
}

// WrapStorageError wraps an existing error as an artifact storage failure.
func WrapStorageError(err error, msg string) error {
	return &DistError{code: ErrCodeStorage, message: msg, wrapped: err}
}
