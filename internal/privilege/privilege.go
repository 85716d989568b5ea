// Package privilege reports whether the current process may run
// administrator-only maintenance tools.
package privilege

import (
	"fmt"
	"runtime"
)

// Status describes the privilege level of the running process.
type Status struct {
	Elevated bool
	// Name is what the platform calls the required privilege.
	Name string
}

func (s Status) String() string {
	if s.Elevated {
		return fmt.Sprintf("running with %s privileges", s.Name)
	}
	return fmt.Sprintf("running without %s privileges", s.Name)
}

// Detect inspects the current process.
func Detect() Status {
	return Status{Elevated: elevated(), Name: Name(runtime.GOOS)}
}

// Name returns the privilege name used in messages for goos.
func Name(goos string) string {
	if goos == "windows" {
		return "administrator"
	}
	return "root"
}
