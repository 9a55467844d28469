package provider

import (
	"fmt"
)

// UpdateError is the closed set of user-facing failures of an update flow.
// Implementations: NetworkError, ServiceUnavailable, UnknownError,
// BusinessError, EntitlementRequired, ExtractionError, InstallError.
type UpdateError interface {
	error
	// Message returns the user-facing message.
	Message() string
	isUpdateError()
}

// BusinessKind is a gated-mirror business error code with a known meaning.
type BusinessKind int

// Business codes returned by the gated mirror.
const (
	KeyExpired             BusinessKind = 7001
	KeyInvalid             BusinessKind = 7002
	ResourceQuotaExhausted BusinessKind = 7003
	KeyMismatched          BusinessKind = 7004
	KeyBlocked             BusinessKind = 7005
	ResourceNotFound       BusinessKind = 8001
	InvalidOS              BusinessKind = 8002
	InvalidArch            BusinessKind = 8003
	InvalidChannel         BusinessKind = 8004
)

var businessMessages = map[BusinessKind]string{
	KeyExpired:             "CDK expired",
	KeyInvalid:             "CDK invalid",
	ResourceQuotaExhausted: "CDK daily download quota exhausted",
	KeyMismatched:          "CDK type does not match the requested resource",
	KeyBlocked:             "CDK blocked",
	ResourceNotFound:       "no resource for this OS and architecture",
	InvalidOS:              "invalid OS parameter",
	InvalidArch:            "invalid architecture parameter",
	InvalidChannel:         "invalid update channel parameter",
}

// NetworkError is a transport failure: connection, timeout or stream I/O.
type NetworkError struct {
	Detail string
	Cause  error
}

// ServiceUnavailable is HTTP 500 from the gated mirror.
type ServiceUnavailable struct{}

// UnknownError is any failure without a more specific kind. Code keeps the
// raw provider code or HTTP status for diagnostics (-1 when there is none).
type UnknownError struct {
	Code   int
	Detail string
	Cause  error
}

// BusinessError is a known non-zero business code.
type BusinessError struct {
	Kind BusinessKind
}

// EntitlementRequired means the gated mirror accepted the request but
// produced no usable URL because no valid CDK was supplied.
type EntitlementRequired struct{}

// ExtractionError is an I/O failure while unpacking a resource archive.
type ExtractionError struct {
	Cause error
}

// InstallError is a failure of the install collaborator.
type InstallError struct {
	Cause error
}

func (NetworkError) isUpdateError()        {}
func (ServiceUnavailable) isUpdateError()  {}
func (UnknownError) isUpdateError()        {}
func (BusinessError) isUpdateError()       {}
func (EntitlementRequired) isUpdateError() {}
func (ExtractionError) isUpdateError()     {}
func (InstallError) isUpdateError()        {}

func (e NetworkError) Message() string {
	if e.Detail == "" {
		return "network error"
	}
	return "network error: " + e.Detail
}

func (e NetworkError) Error() string { return e.Message() }
func (e NetworkError) Unwrap() error { return e.Cause }

func (ServiceUnavailable) Message() string { return "update service unavailable" }
func (e ServiceUnavailable) Error() string { return e.Message() }

func (e UnknownError) Message() string {
	detail := e.Detail
	if detail == "" {
		detail = "unknown error"
	}
	if e.Code == -1 || e.Code == 0 {
		return detail
	}
	return fmt.Sprintf("%s (code %d)", detail, e.Code)
}

func (e UnknownError) Error() string { return e.Message() }
func (e UnknownError) Unwrap() error { return e.Cause }

// Code returns the numeric business code.
func (e BusinessError) Code() int { return int(e.Kind) }

func (e BusinessError) Message() string { return businessMessages[e.Kind] }
func (e BusinessError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message(), e.Code())
}

func (EntitlementRequired) Message() string { return "a valid CDK is required to download this update" }
func (e EntitlementRequired) Error() string { return e.Message() }

func (e ExtractionError) Message() string { return "failed to extract update" }
func (e ExtractionError) Error() string {
	if e.Cause == nil {
		return e.Message()
	}
	return e.Message() + ": " + e.Cause.Error()
}
func (e ExtractionError) Unwrap() error { return e.Cause }

func (e InstallError) Message() string {
	if e.Cause == nil {
		return "failed to install update"
	}
	return "failed to install update: " + e.Cause.Error()
}
func (e InstallError) Error() string { return e.Message() }
func (e InstallError) Unwrap() error { return e.Cause }

// FromCode maps a gated-mirror business code to an UpdateError.
// Unknown codes fall back to UnknownError retaining the code.
func FromCode(code int, message string) UpdateError {
	kind := BusinessKind(code)
	if _, ok := businessMessages[kind]; ok {
		return BusinessError{Kind: kind}
	}
	if message == "" {
		message = "unknown error"
	}
	return UnknownError{Code: code, Detail: message}
}

// FromCheckError maps a failed resolution to an UpdateError.
func FromCheckError(e CheckError) UpdateError {
	switch e.Kind {
	case KindTransport:
		return NetworkError{Detail: e.Message}
	case KindServiceUnavailable:
		return ServiceUnavailable{}
	case KindBusiness:
		return FromCode(e.Code, e.Message)
	default:
		return UnknownError{Code: e.Code, Detail: e.Message}
	}
}
