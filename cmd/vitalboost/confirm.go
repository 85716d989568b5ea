package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// promptConfirmer asks on the terminal before a pipeline starts.
type promptConfirmer struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func newPromptConfirmer(in io.Reader, out io.Writer, assumeYes bool) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

// Confirm accepts "y" or "yes" in any case. End of input declines.
func (c *promptConfirmer) Confirm(title, message string) bool {
	if c.assumeYes {
		return true
	}
	fmt.Fprintf(c.out, "%s\n%s\nContinue? [y/N] ", title, message)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "s", "sim":
		return true
	}
	return false
}
