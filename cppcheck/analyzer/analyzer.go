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

package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/golang/glog"
	"naive.systems/cppcheckplugin/cppcheck/arguments"
	"naive.systems/cppcheckplugin/cppcheck/discovery"
	"naive.systems/cppcheckplugin/cppcheck/report"
	"naive.systems/cppcheckplugin/cppcheck/runner"
	"naive.systems/cppcheckplugin/settings"
	"naive.systems/cppcheckplugin/sourcefile"
)

const xmlArguments = "--xml --xml-version=2"

var ErrNothingToAnalyze = errors.New("nothing to analyze")

type ExecutableResolver interface {
	ResolveExecutablePath() (string, error)
}

type RunFunc func(ctx context.Context, executablePath string, args []string, opts runner.Options) (*runner.Result, error)

type Options struct {
	// Settings falls back to settings.Default() when nil.
	Settings *settings.Settings
	// Resolver defaults to a non-interactive discovery.Resolver over Settings.
	Resolver          ExecutableResolver
	Run               RunFunc
	Is64Bit           bool
	IsDebug           bool
	XML               bool
	IgnoreDirPatterns []string
	// Dir is the working directory of cppcheck.
	Dir    string
	Stream io.Writer
}

type Outcome struct {
	CommandLine *arguments.CommandLine
	Result      *runner.Result
	// Findings is only filled when XML reporting is on.
	Findings []*report.Finding
}

func NumWorkers(s *settings.Settings) int {
	if s.NumWorkers > 0 {
		return s.NumWorkers
	}
	return runtime.NumCPU()
}

// Prepare synthesizes the command line Analyze would run.
func Prepare(files []sourcefile.SourceFile, opts Options) (*arguments.CommandLine, error) {
	if len(files) == 0 {
		return nil, ErrNothingToAnalyze
	}
	s := opts.Settings
	if s == nil {
		s = settings.Default()
	}
	baseline := strings.TrimSpace(s.DefaultArguments)
	if opts.XML {
		baseline = strings.TrimSpace(baseline + " " + xmlArguments)
	}
	return arguments.Synthesize(files, arguments.Options{
		BaselineArgs: baseline,
		Is64Bit:      opts.Is64Bit,
		IsDebug:      opts.IsDebug,
		NumWorkers:   NumWorkers(s),
		Inconclusive: s.InconclusiveChecksEnabled,
	})
}

// Analyze runs cppcheck once over all files.
func Analyze(ctx context.Context, files []sourcefile.SourceFile, opts Options) (*Outcome, error) {
	if opts.Settings == nil {
		opts.Settings = settings.Default()
	}
	cmdline, err := Prepare(files, opts)
	if err != nil {
		return nil, err
	}
	args, err := cmdline.Args()
	if err != nil {
		return nil, err
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = &discovery.Resolver{Settings: opts.Settings}
	}
	executablePath, err := resolver.ResolveExecutablePath()
	if err != nil {
		return nil, err
	}

	run := opts.Run
	if run == nil {
		run = runner.Run
	}
	result, err := run(ctx, executablePath, args, runner.Options{
		Dir:     opts.Dir,
		Stream:  opts.Stream,
		Timeout: time.Duration(opts.Settings.TimeoutMinutes) * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run cppcheck: %w", err)
	}
	outcome := &Outcome{CommandLine: cmdline, Result: result}
	if !opts.XML {
		return outcome, nil
	}

	// cppcheck writes its XML report to stderr
	xmlReport, err := report.ParseXML(result.Stderr)
	if err != nil {
		return outcome, err
	}
	findings := report.Findings(xmlReport)
	report.AddID(findings)
	outcome.Findings = report.FilterIgnored(findings, opts.IgnoreDirPatterns)
	glog.Infof("%d findings, %d after filtering", len(findings), len(outcome.Findings))
	return outcome, nil
}
