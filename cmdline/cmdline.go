// Package cmdline normalizes command lines for execution and for display.
//
// A command line arrives either as free text or as an already tokenized
// argument vector. Direct execution needs the vector form, shell
// execution needs the single string form; Display always collapses
// insignificant whitespace so logs stay stable.
package cmdline

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Command is one command line in free-text or argument-vector form.
// The zero value is empty and not runnable.
type Command struct {
	text  string
	argv  []string
	shell bool
}

// Text builds a Command from a free-form string. For direct execution the
// string is tokenized with shell-like quoting rules, so quoted substrings
// with embedded spaces survive as one token.
func Text(s string) Command {
	return Command{text: s}
}

// Args builds a Command from an already tokenized argument vector.
func Args(args ...string) Command {
	return Command{argv: append([]string(nil), args...)}
}

// Shell marks the command for execution through the system shell. An
// argument vector is joined with single spaces into one shell line.
func (c Command) Shell() Command {
	c.shell = true
	return c
}

// IsShell reports whether the command executes through the shell.
func (c Command) IsShell() bool {
	return c.shell
}

// ExecForm returns the argv to hand to process creation. Shell commands
// wrap the single command string in sh -c.
func (c Command) ExecForm() ([]string, error) {
	if c.shell {
		s := c.text
		if c.argv != nil {
			s = strings.Join(c.argv, " ")
		}
		return []string{"/bin/sh", "-c", s}, nil
	}
	if c.argv != nil {
		return append([]string(nil), c.argv...), nil
	}
	argv, err := shlex.Split(c.text)
	if err != nil {
		return nil, fmt.Errorf("tokenizing %q: %w", c.text, err)
	}
	return argv, nil
}

// Display returns the command for logging. Free text is re-tokenized and
// re-joined so whitespace differences do not leak into logs.
func (c Command) Display() string {
	if c.argv != nil {
		return strings.Join(c.argv, " ")
	}
	argv, err := shlex.Split(c.text)
	if err != nil {
		return c.text
	}
	return strings.Join(argv, " ")
}
