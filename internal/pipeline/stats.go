package pipeline

// Stats aggregates what one pipeline run accomplished. Every mutator only
// grows the counters; Reset is reserved for the start of a top-level run.
type Stats struct {
	FilesCleaned    int      `json:"files_cleaned"`
	SpaceFreedBytes int64    `json:"space_freed_bytes"`
	ErrorsFixed     int      `json:"errors_fixed"`
	DriversChecked  int      `json:"drivers_checked"`
	SoftwareUpdated []string `json:"software_updated,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// AddCleaned records one cleanup location that freed bytes.
func (s *Stats) AddCleaned(freed int64) {
	s.FilesCleaned++
	s.AddSpaceFreed(freed)
}

// AddSpaceFreed adds reclaimed bytes without counting a location.
func (s *Stats) AddSpaceFreed(freed int64) {
	if freed > 0 {
		s.SpaceFreedBytes += freed
	}
}

// AddFix records a repair that reported an actual fix.
func (s *Stats) AddFix() {
	s.ErrorsFixed++
}

// AddDrivers records inspected drivers.
func (s *Stats) AddDrivers(n int) {
	if n > 0 {
		s.DriversChecked += n
	}
}

// AddSoftware records a software update summary line.
func (s *Stats) AddSoftware(summary string) {
	s.SoftwareUpdated = append(s.SoftwareUpdated, summary)
}

// Warn appends a warning description.
func (s *Stats) Warn(message string) {
	s.Warnings = append(s.Warnings, message)
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	*s = Stats{}
}

// Snapshot returns a deep copy safe to hand to another goroutine.
func (s *Stats) Snapshot() Stats {
	out := *s
	out.SoftwareUpdated = append([]string(nil), s.SoftwareUpdated...)
	out.Warnings = append([]string(nil), s.Warnings...)
	return out
}
