package component

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Info describes a component bundle's identity.
type Info struct {
	ID          string
	Name        string
	Description string
	Version     string

	// RequiredKeys are definition keys a definition file must carry. Keys
	// the host fills in, such as the data directory, are not listed.
	RequiredKeys []string
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("component: id is required")
	}
	if i.Name == "" {
		return fmt.Errorf("component: name is required for %s", i.ID)
	}
	if i.Version == "" {
		return fmt.Errorf("component: version is required for %s", i.ID)
	}
	return nil
}

// Component is the bundle-loading contract every component implements. All
// methods are invoked by the host; none of them panic or return errors across
// the boundary. Failures are reported through IsClearedToBegin and ErrorLog.
type Component interface {
	Info() Info

	// SetDefinition accepts the host-supplied configuration.
	SetDefinition(def Definition)
	// SetDelegate accepts the host back reference. The component never owns it.
	SetDelegate(d Delegate)

	// Setup performs one-time initialization.
	Setup()
	// IsClearedToBegin runs every configuration check and reports whether
	// Begin may be called.
	IsClearedToBegin() bool
	// Begin starts the session.
	Begin()
	// ShouldRecover reports whether raw data from an interrupted run exists.
	ShouldRecover() bool
	// Recover resumes an interrupted run from its raw data file.
	Recover()
	// TearDown releases all resources.
	TearDown()

	DataDirectory() string
	RawDataFile() string
	TaskName() string
	MainView() tea.Model
	ErrorLog() string

	// RegisterError appends a line to the error log.
	RegisterError(message string)
}

// RunHeaderProvider is implemented by components that want a custom column
// header written ahead of their raw data.
type RunHeaderProvider interface {
	RunHeader() string
}

// SessionHeaderProvider is implemented by components that describe the
// session in the data file.
type SessionHeaderProvider interface {
	SessionHeader() string
}

// SummaryProvider is implemented by components that produce summary data
// once a run has finished.
type SummaryProvider interface {
	Summary() string
}
