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

/*
Package arguments merges the include paths, macros and suppressions of a set
of source files into a single cppcheck invocation.
*/
package arguments

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"naive.systems/cppcheckplugin/cppcheck/suppression"
	"naive.systems/cppcheckplugin/sourcefile"
	"naive.systems/cppcheckplugin/utils"
)

// Defaults holds the identifiers that are always passed regardless of the
// project configuration.
type Defaults struct {
	Suppressions []string
	// CompilerMacros describe the MSVC style compiler for multi-file analysis.
	CompilerMacros []string
	Macros64Bit    []string
	Macros32Bit    []string
	DebugMacros    []string
}

func DefaultDefaults() Defaults {
	return Defaults{
		Suppressions: []string{
			"passedByValue",
			"cstyleCast",
			"missingIncludeSystem",
			"unusedStructMember",
			"unmatchedSuppression",
			"class_X_Y",
			"missingInclude",
			"constStatement",
			"unusedPrivateFunction",
		},
		CompilerMacros: []string{"_MSC_VER", "WIN32", "_WIN32", "__cplusplus"},
		Macros64Bit:    []string{"_M_X64", "_WIN64"},
		Macros32Bit:    []string{"_M_IX86"},
		DebugMacros:    []string{"_DEBUG"},
	}
}

// withFallback replaces every nil list with the built-in one. An empty
// non-nil list is kept, which disables that group.
func (d Defaults) withFallback() Defaults {
	builtin := DefaultDefaults()
	if d.Suppressions == nil {
		d.Suppressions = builtin.Suppressions
	}
	if d.CompilerMacros == nil {
		d.CompilerMacros = builtin.CompilerMacros
	}
	if d.Macros64Bit == nil {
		d.Macros64Bit = builtin.Macros64Bit
	}
	if d.Macros32Bit == nil {
		d.Macros32Bit = builtin.Macros32Bit
	}
	if d.DebugMacros == nil {
		d.DebugMacros = builtin.DebugMacros
	}
	return d
}

type SuppressionReader func(projectBasePath string) (*utils.OrderedSet[string], error)

type Options struct {
	BaselineArgs string
	Is64Bit      bool
	IsDebug      bool
	NumWorkers   int
	Inconclusive bool
	// Defaults falls back to DefaultDefaults() for every nil list.
	Defaults         Defaults
	ReadSuppressions SuppressionReader
}

// ConfigurationError reports options that cannot produce a valid invocation.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Synthesize builds the cppcheck command line for files. Suppressions,
// include paths and macros are deduplicated across all files; the files
// keep the order given. Macros are only computed when more than one file is
// analyzed, since macro configurations make a single-file check slow.
func Synthesize(files []sourcefile.SourceFile, opts Options) (*CommandLine, error) {
	if opts.NumWorkers < 1 {
		return nil, &ConfigurationError{Field: "number of workers", Reason: fmt.Sprintf("%d is less than 1", opts.NumWorkers)}
	}
	defaults := opts.Defaults.withFallback()
	readSuppressions := opts.ReadSuppressions
	if readSuppressions == nil {
		readSuppressions = suppression.ReadSuppressions
	}

	cmdline := NewCommandLine(opts.BaselineArgs)

	projectPaths := utils.NewOrderedSet[string]()
	for _, file := range files {
		projectPaths.Add(file.BaseProjectPath)
	}
	cmdline.projectPaths = projectPaths.Values()

	suppressions := utils.NewOrderedSet(defaults.Suppressions...)
	for _, path := range projectPaths.Values() {
		projectSuppressions, err := readSuppressions(path)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", path, err)
		}
		suppressions.Union(projectSuppressions)
	}

	cmdline.AppendWorkers(opts.NumWorkers)
	if opts.Inconclusive {
		cmdline.Append(Inconclusive, "")
	}
	for _, s := range suppressions.Values() {
		cmdline.Append(Suppress, s)
	}

	includePaths := utils.NewOrderedSet[string]()
	for _, file := range files {
		includePaths.Add(file.IncludePaths...)
	}
	for _, path := range includePaths.Values() {
		// Qt ships its own stub headers for the analyzer
		if strings.Contains(strings.ToLower(path), "qt") {
			glog.V(1).Infof("include path %s skipped", path)
			continue
		}
		cmdline.Append(Include, path)
	}

	for _, file := range files {
		cmdline.Append(File, file.FilePath)
	}

	if len(files) > 1 {
		macros := utils.NewOrderedSet[string]()
		for _, file := range files {
			macros.Add(file.Macros...)
		}
		macros.Add(defaults.CompilerMacros...)
		if opts.Is64Bit {
			macros.Add(defaults.Macros64Bit...)
		} else {
			macros.Add(defaults.Macros32Bit...)
		}
		if opts.IsDebug {
			macros.Add(defaults.DebugMacros...)
		}
		for _, macro := range macros.Values() {
			cmdline.Append(Define, macro)
		}
	}

	glog.Infof("synthesized cppcheck arguments for %d files in %d projects: %d suppressions, %d include paths, %d macros",
		len(files), projectPaths.Len(), suppressions.Len(), len(cmdline.IncludePaths()), len(cmdline.Macros()))
	return cmdline, nil
}
