// Package provider queries upstream release sources and normalizes their
// answers into a uniform Result.
//
// Two provider contracts exist. The open-release provider (GitHub) lists
// public releases and never needs credentials. The gated mirror (MirrorChyan)
// answers version queries for everyone but only hands out a download URL when
// the caller supplies an entitlement key (CDK). Callers therefore check first
// and resolve again with the key when the user confirms the download.
//
// Resolvers never return Go errors: transport failures, bad statuses,
// undecodable payloads and business errors all come back as a CheckError.
package provider

import (
	"context"
	"fmt"
	"net/http"
)

// Doer is the transport used by resolvers. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request carries the per-call inputs of a resolution.
// The CDK is passed by value on each call and never cached.
type Request struct {
	CurrentVersion string
	CDK            string
}

// Resolver queries one upstream source for one artifact class.
type Resolver interface {
	// Resolve checks the upstream source against req.CurrentVersion.
	Resolve(ctx context.Context, req Request) Result
	// RequiresEntitlement reports whether a download URL is only handed out
	// when a CDK is supplied.
	RequiresEntitlement() bool
}

// Result is the outcome of a resolution: exactly one of UpdateAvailable,
// NoUpdate or CheckError.
type Result interface {
	isResult()
}

// UpdateAvailable reports a newer remote version.
// DownloadURL is empty when the gated provider was queried without a CDK.
type UpdateAvailable struct {
	Version     string `json:"version" yaml:"version"`
	DownloadURL string `json:"download_url,omitempty" yaml:"download_url,omitempty"`
	ReleaseNote string `json:"release_note,omitempty" yaml:"release_note,omitempty"`
	SHA256      string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Size        int64  `json:"size,omitempty" yaml:"size,omitempty"`
}

// NoUpdate reports that the current version is the latest one.
type NoUpdate struct {
	CurrentVersion string `json:"current_version" yaml:"current_version"`
}

// ErrorKind classifies a CheckError.
type ErrorKind int

const (
	// KindTransport is a connection, timeout or stream failure.
	KindTransport ErrorKind = iota
	// KindStatus is a non-success HTTP status from a provider without an envelope.
	KindStatus
	// KindServiceUnavailable is HTTP 500 from the gated mirror.
	KindServiceUnavailable
	// KindMalformed is an undecodable or incomplete payload.
	KindMalformed
	// KindBusiness is a non-zero code inside a decoded envelope.
	KindBusiness
)

// String returns the string representation of the ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindServiceUnavailable:
		return "service-unavailable"
	case KindMalformed:
		return "malformed"
	case KindBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// CheckError reports a failed resolution.
type CheckError struct {
	Code    int       `json:"code" yaml:"code"`
	Message string    `json:"message,omitempty" yaml:"message,omitempty"`
	Kind    ErrorKind `json:"-" yaml:"-"`
}

func (UpdateAvailable) isResult() {}
func (NoUpdate) isResult()        {}
func (CheckError) isResult()      {}

func (r UpdateAvailable) String() string {
	if r.DownloadURL == "" {
		return fmt.Sprintf("update available: %s (download URL pending)", r.Version)
	}
	return fmt.Sprintf("update available: %s", r.Version)
}

func (r NoUpdate) String() string {
	return fmt.Sprintf("up to date: %s", r.CurrentVersion)
}

func (r CheckError) String() string {
	return fmt.Sprintf("check failed (%s, code %d): %s", r.Kind, r.Code, r.Message)
}

func transportError(err error) CheckError {
	return CheckError{Code: -1, Message: err.Error(), Kind: KindTransport}
}

// unknownError is returned when a payload cannot be decoded.
var unknownError = CheckError{Code: -1, Message: "unknown error", Kind: KindMalformed}
