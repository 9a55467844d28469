// Package types provides type-safe constants for the updsync configuration system.
//
// This package centralizes the enumerated types used throughout the codebase,
// replacing magic strings with typed constants that provide compile-time safety
// and validation methods.
//
// SYNC REQUIREMENT: These types must stay in sync with internal/config/validate.go.
package types

import (
	"fmt"
	"strings"
)

// Provider identifies an upstream source of release metadata and download URLs.
type Provider string

const (
	// ProviderGitHub is the open-release provider (public release listings, no key).
	ProviderGitHub Provider = "github"
	// ProviderMirrorChyan is the gated-mirror provider (entitlement key for download URLs).
	ProviderMirrorChyan Provider = "mirrorchyan"
)

// AllProviders returns all valid providers.
func AllProviders() []Provider {
	return []Provider{ProviderGitHub, ProviderMirrorChyan}
}

// Validate checks if the Provider is a valid value.
func (p Provider) Validate() error {
	switch p {
	case ProviderGitHub, ProviderMirrorChyan:
		return nil
	case "":
		return fmt.Errorf("provider is required")
	default:
		return fmt.Errorf("invalid provider '%s' (must be github or mirrorchyan)", p)
	}
}

// String returns the string representation of the Provider.
func (p Provider) String() string {
	return string(p)
}

// IsGitHub returns true if the provider is the open-release provider.
func (p Provider) IsGitHub() bool {
	return p == ProviderGitHub
}

// IsMirrorChyan returns true if the provider is the gated mirror.
func (p Provider) IsMirrorChyan() bool {
	return p == ProviderMirrorChyan
}

// ParseProvider parses a string into a Provider.
// Returns an error if the string is not a valid provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// Track is one of the two independent update flows.
type Track string

const (
	// TrackApp is the application package track.
	TrackApp Track = "app"
	// TrackResource is the resource bundle track.
	TrackResource Track = "resource"
)

// AllTracks returns all valid tracks.
func AllTracks() []Track {
	return []Track{TrackApp, TrackResource}
}

// Validate checks if the Track is a valid value.
func (t Track) Validate() error {
	switch t {
	case TrackApp, TrackResource:
		return nil
	case "":
		return fmt.Errorf("track is required")
	default:
		return fmt.Errorf("invalid track '%s' (must be app or resource)", t)
	}
}

// String returns the string representation of the Track.
func (t Track) String() string {
	return string(t)
}

// IsApp returns true if the track is the application track.
func (t Track) IsApp() bool {
	return t == TrackApp
}

// IsResource returns true if the track is the resource track.
func (t Track) IsResource() bool {
	return t == TrackResource
}

// ParseTrack parses a string into a Track.
// Returns an error if the string is not a valid track.
func ParseTrack(s string) (Track, error) {
	t := Track(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// ParseTracks expands a track argument into the tracks it names.
// "all" (or an empty string) selects every track.
func ParseTracks(s string) ([]Track, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return AllTracks(), nil
	}
	t, err := ParseTrack(s)
	if err != nil {
		return nil, err
	}
	return []Track{t}, nil
}
