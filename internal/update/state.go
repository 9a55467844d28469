// Package update drives a check, confirm, download and finalize cycle for one
// update track and exposes its progress as an observable State.
package update

import (
	"fmt"

	"github.com/adamancini/updsync/internal/archive"
	"github.com/adamancini/updsync/internal/download"
	"github.com/adamancini/updsync/internal/provider"
	"github.com/adamancini/updsync/internal/types"
)

// StateKind identifies a State variant.
type StateKind int

const (
	StateIdle StateKind = iota
	StateChecking
	StateNoUpdate
	StateAvailable
	StateDownloading
	StateExtracting
	StateInstalling
	StateSuccess
	StateFailed
)

var stateNames = map[StateKind]string{
	StateIdle:        "idle",
	StateChecking:    "checking",
	StateNoUpdate:    "no-update",
	StateAvailable:   "available",
	StateDownloading: "downloading",
	StateExtracting:  "extracting",
	StateInstalling:  "installing",
	StateSuccess:     "success",
	StateFailed:      "failed",
}

// String returns the string representation of the StateKind.
func (k StateKind) String() string {
	if name, ok := stateNames[k]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(k))
}

// Busy reports whether an operation is in flight in this state.
func (k StateKind) Busy() bool {
	switch k {
	case StateChecking, StateDownloading, StateExtracting, StateInstalling:
		return true
	default:
		return false
	}
}

// State is the observable state of one track.
type State interface {
	Kind() StateKind
	isState()
}

// Idle is the initial state.
type Idle struct{}

// Checking means a resolver call is in flight.
type Checking struct {
	Message string
}

// NoUpdate means the current version is the latest.
type NoUpdate struct {
	CurrentVersion string
}

// Available holds a newer version waiting for confirmation.
type Available struct {
	Info     provider.UpdateAvailable
	Provider types.Provider
}

// Downloading reports download progress.
type Downloading struct {
	Progress download.Progress
}

// Extracting reports archive extraction progress.
type Extracting struct {
	Progress archive.Progress
}

// Installing means the install collaborator is running.
type Installing struct{}

// Success holds the finished artifact: the app file or the resource directory.
type Success struct {
	Artifact string
	Version  string
}

// Failed holds the user-facing error of the last operation.
type Failed struct {
	Err provider.UpdateError
}

func (Idle) Kind() StateKind        { return StateIdle }
func (Checking) Kind() StateKind    { return StateChecking }
func (NoUpdate) Kind() StateKind    { return StateNoUpdate }
func (Available) Kind() StateKind   { return StateAvailable }
func (Downloading) Kind() StateKind { return StateDownloading }
func (Extracting) Kind() StateKind  { return StateExtracting }
func (Installing) Kind() StateKind  { return StateInstalling }
func (Success) Kind() StateKind     { return StateSuccess }
func (Failed) Kind() StateKind      { return StateFailed }

func (Idle) isState()        {}
func (Checking) isState()    {}
func (NoUpdate) isState()    {}
func (Available) isState()   {}
func (Downloading) isState() {}
func (Extracting) isState()  {}
func (Installing) isState()  {}
func (Success) isState()     {}
func (Failed) isState()      {}

// Describe renders a one-line human readable summary of s.
func Describe(s State) string {
	switch st := s.(type) {
	case Idle:
		return "idle"
	case Checking:
		return st.Message
	case NoUpdate:
		return fmt.Sprintf("up to date (%s)", st.CurrentVersion)
	case Available:
		return fmt.Sprintf("version %s available from %s", st.Info.Version, st.Provider)
	case Downloading:
		if st.Progress.Total > 0 {
			return fmt.Sprintf("downloading %d%% (%s)", st.Progress.Percent, st.Progress.Speed)
		}
		return fmt.Sprintf("downloading %d bytes (%s)", st.Progress.Downloaded, st.Progress.Speed)
	case Extracting:
		return fmt.Sprintf("extracting %d/%d", st.Progress.Current, st.Progress.Total)
	case Installing:
		return "installing"
	case Success:
		return fmt.Sprintf("updated to %s: %s", st.Version, st.Artifact)
	case Failed:
		if st.Err == nil {
			return "failed"
		}
		return "failed: " + st.Err.Message()
	default:
		return s.Kind().String()
	}
}
