/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package arguments

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

type FlagKind int

const (
	Workers FlagKind = iota
	Inconclusive
	Suppress
	Include
	Define
	File
)

// Flag is one typed element of a cppcheck command line.
type Flag struct {
	Kind  FlagKind
	Value string
}

// String renders the flag the way it is written on a shell command line.
func (f Flag) String() string {
	switch f.Kind {
	case Workers:
		return "-j " + f.Value
	case Inconclusive:
		return "--inconclusive"
	case Suppress:
		return "--suppress=" + f.Value
	case Include:
		return `-I"` + f.Value + `"`
	case Define:
		return "-D" + f.Value
	case File:
		return `"` + f.Value + `"`
	}
	return f.Value
}

// Argv renders the flag as exec arguments, without any shell quoting.
func (f Flag) Argv() []string {
	switch f.Kind {
	case Workers:
		return []string{"-j", f.Value}
	case Inconclusive:
		return []string{"--inconclusive"}
	case Suppress:
		return []string{"--suppress=" + f.Value}
	case Include:
		return []string{"-I" + f.Value}
	case Define:
		return []string{"-D" + f.Value}
	}
	return []string{f.Value}
}

// CommandLine accumulates flags and renders them once. Option flags are
// always rendered before file paths.
type CommandLine struct {
	baseline     string
	flags        []Flag
	files        []Flag
	projectPaths []string
}

func NewCommandLine(baseline string) *CommandLine {
	return &CommandLine{baseline: baseline}
}

func (c *CommandLine) Append(kind FlagKind, value string) {
	if kind == File {
		c.files = append(c.files, Flag{Kind: kind, Value: value})
		return
	}
	c.flags = append(c.flags, Flag{Kind: kind, Value: value})
}

func (c *CommandLine) AppendWorkers(n int) {
	c.Append(Workers, strconv.Itoa(n))
}

func (c *CommandLine) Baseline() string {
	return c.baseline
}

// Flags returns the option flags followed by the files.
func (c *CommandLine) Flags() []Flag {
	out := make([]Flag, 0, len(c.flags)+len(c.files))
	out = append(out, c.flags...)
	return append(out, c.files...)
}

func (c *CommandLine) values(kind FlagKind) []string {
	out := []string{}
	for _, f := range c.Flags() {
		if f.Kind == kind {
			out = append(out, f.Value)
		}
	}
	return out
}

func (c *CommandLine) Suppressions() []string { return c.values(Suppress) }
func (c *CommandLine) IncludePaths() []string { return c.values(Include) }
func (c *CommandLine) Macros() []string       { return c.values(Define) }
func (c *CommandLine) Files() []string        { return c.values(File) }

// ProjectPaths returns the distinct project paths whose suppressions were read.
func (c *CommandLine) ProjectPaths() []string {
	return append([]string{}, c.projectPaths...)
}

// String renders the baseline arguments untouched, then " " plus each flag.
func (c *CommandLine) String() string {
	var sb strings.Builder
	sb.WriteString(c.baseline)
	for _, f := range c.Flags() {
		sb.WriteString(" ")
		sb.WriteString(f.String())
	}
	return sb.String()
}

// Args renders the command line as exec arguments. The baseline is split
// with shell rules.
func (c *CommandLine) Args() ([]string, error) {
	args, err := shlex.Split(c.baseline)
	if err != nil {
		return nil, fmt.Errorf("invalid baseline arguments %q: %v", c.baseline, err)
	}
	if args == nil {
		args = []string{}
	}
	for _, f := range c.Flags() {
		args = append(args, f.Argv()...)
	}
	return args, nil
}
