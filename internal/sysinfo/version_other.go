//go:build !unix && !windows

package sysinfo

func osVersion() string { return "" }
