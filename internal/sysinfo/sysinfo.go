// Package sysinfo collects the host facts printed in reports.
package sysinfo

import (
	"os"
	"runtime"
	"strconv"

	"github.com/bgricker/vitalboost/internal/privilege"
)

// Field is one labelled fact. Reports keep fields in collection order.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Collect gathers host information. Facts that cannot be read are omitted.
func Collect() []Field {
	fields := []Field{
		{Key: "OS", Value: runtime.GOOS},
		{Key: "Architecture", Value: runtime.GOARCH},
	}
	if v := osVersion(); v != "" {
		fields = append(fields, Field{Key: "OS version", Value: v})
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		fields = append(fields, Field{Key: "Hostname", Value: host})
	}
	st := privilege.Detect()
	fields = append(fields,
		Field{Key: "CPUs", Value: strconv.Itoa(runtime.NumCPU())},
		Field{Key: "Elevated", Value: strconv.FormatBool(st.Elevated)},
		Field{Key: "Go runtime", Value: runtime.Version()},
	)
	return fields
}

// Lookup returns the value for key.
func Lookup(fields []Field, key string) (string, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}
