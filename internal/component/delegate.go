package component

// Delegate is the capability set a host offers to the components it loads.
type Delegate interface {
	// ComponentDidFinish is called once when the component has nothing left
	// to present.
	ComponentDidFinish(c Component)
}

// ErrorObserver is an optional delegate capability. Hosts implementing it are
// told about every error a component registers.
type ErrorObserver interface {
	ComponentDidRegisterError(c Component, message string)
}

// ProgressObserver is an optional delegate capability reporting each
// presented item as a 1-based position out of total.
type ProgressObserver interface {
	ComponentDidPresent(c Component, position, total int)
}

// Capabilities records which optional interfaces a delegate satisfies. It is
// resolved once when the delegate is assigned.
type Capabilities struct {
	Delegate Delegate
	Errors   ErrorObserver
	Progress ProgressObserver
}

// ResolveCapabilities inspects d for optional capabilities.
func ResolveCapabilities(d Delegate) Capabilities {
	caps := Capabilities{Delegate: d}
	if d == nil {
		return caps
	}
	if obs, ok := d.(ErrorObserver); ok {
		caps.Errors = obs
	}
	if obs, ok := d.(ProgressObserver); ok {
		caps.Progress = obs
	}
	return caps
}

// Ready reports whether a delegate has been assigned.
func (c Capabilities) Ready() bool {
	return c.Delegate != nil
}
