package core

import "strings"

// ModuleID identifies a module, namespaced with dots
// (e.g. "gateway.http", "store.sqlite").
type ModuleID string

// Namespace returns the part of the ID before the last dot.
func (id ModuleID) Namespace() string {
	if i := strings.LastIndex(string(id), "."); i >= 0 {
		return string(id)[:i]
	}
	return ""
}

// Name returns the part of the ID after the last dot.
func (id ModuleID) Name() string {
	if i := strings.LastIndex(string(id), "."); i >= 0 {
		return string(id)[i+1:]
	}
	return string(id)
}

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	// ID is the unique module identifier used in configuration.
	ID ModuleID

	// New returns a fresh, unconfigured instance of the module.
	New func() Module
}

// Module is the minimal interface all modules implement. Lifecycle
// behaviour is added through the optional interfaces in lifecycle.go.
type Module interface {
	ModuleInfo() ModuleInfo
}
