//go:build unix

package sysinfo

import (
	"strings"

	"golang.org/x/sys/unix"
)

func osVersion() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	sys := unix.ByteSliceToString(uts.Sysname[:])
	rel := unix.ByteSliceToString(uts.Release[:])
	return strings.TrimSpace(sys + " " + rel)
}
