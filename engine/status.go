package engine

import "strconv"

// Status is the closed set of outcomes an Engine reports.
type Status int

const (
	// StatusUnknown should never be returned by a well behaved engine.
	StatusUnknown Status = iota - 1
	StatusOK
	StatusAlreadyInitialized
	StatusNotInitialized
	StatusAlreadyCreated
	StatusNotCreated
	// StatusEnabled means the hook is already enabled.
	StatusEnabled
	// StatusDisabled means the hook is not enabled yet, or already disabled.
	StatusDisabled
	// StatusNotExecutable means the address does not point to code.
	StatusNotExecutable
	StatusUnsupportedFunction
	StatusMemoryAlloc
	StatusMemoryProtect
	StatusModuleNotFound
	StatusFunctionNotFound
)

var statusNames = map[Status]string{
	StatusUnknown:             "unknown error",
	StatusOK:                  "ok",
	StatusAlreadyInitialized:  "already initialized",
	StatusNotInitialized:      "not initialized",
	StatusAlreadyCreated:      "hook already created",
	StatusNotCreated:          "hook not created",
	StatusEnabled:             "hook already enabled",
	StatusDisabled:            "hook already disabled",
	StatusNotExecutable:       "address is not executable",
	StatusUnsupportedFunction: "target function cannot be hooked",
	StatusMemoryAlloc:         "memory allocation failed",
	StatusMemoryProtect:       "memory protection change failed",
	StatusModuleNotFound:      "module not found",
	StatusFunctionNotFound:    "function not found",
}

// OK reports whether s is StatusOK.
func (s Status) OK() bool {
	return s == StatusOK
}

// Known reports whether s belongs to the enumeration.
func (s Status) Known() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}
