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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/golang/glog"
	"naive.systems/cppcheckplugin/cppcheck/analyzer"
	"naive.systems/cppcheckplugin/cppcheck/discovery"
	"naive.systems/cppcheckplugin/cppcheck/report"
	"naive.systems/cppcheckplugin/cppcheck/suppression"
	"naive.systems/cppcheckplugin/i18n"
	"naive.systems/cppcheckplugin/settings"
	"naive.systems/cppcheckplugin/sourcefile"
	"naive.systems/cppcheckplugin/stats"
	"naive.systems/cppcheckplugin/utils"
)

var (
	compileCommandsPath = flag.String("compile_commands_path", "", "JSON compilation database to take the files from")
	projectDir          = flag.String("project_dir", "", "project base path where suppressions.cfg is looked up")
	settingsPath        = flag.String("settings", "", "settings YAML file (default <UserConfigDir>/cppcheck_plugin/settings.yaml)")
	is64Bit             = flag.Bool("x64", false, "analyze the 64-bit configuration")
	isDebug             = flag.Bool("debug", false, "analyze the debug configuration")
	numWorkers          = flag.Int("num_workers", -1, "number of cppcheck jobs, overrides the settings file when not negative")
	inconclusive        = flag.Bool("inconclusive", false, "enable inconclusive checks")
	xmlReport           = flag.Bool("xml", false, "parse the cppcheck XML report and print findings")
	dryRun              = flag.Bool("dry_run", false, "print the cppcheck command line and exit")
	printCounts         = flag.Bool("print_counts", false, "print the number of findings per message")
	showCode            = flag.Bool("show_code", false, "print the code around each finding")
	lang                = flag.String("lang", "", "en or zh, overrides the settings file")
)

var ignoreDirPatterns, includePaths, macros utils.ArrayFlags

func main() {
	flag.Var(&ignoreDirPatterns, "ignore_dir", "doublestar pattern of files to skip, may be repeated")
	flag.Var(&includePaths, "include", "include path for the files given as arguments, may be repeated")
	flag.Var(&macros, "define", "macro for the files given as arguments, may be repeated")
	flag.Parse()
	defer glog.Flush()

	path := *settingsPath
	if path == "" {
		var err error
		path, err = settings.DefaultPath()
		if err != nil {
			glog.Fatal(err)
		}
	}
	s, err := settings.Load(path)
	if err != nil {
		glog.Fatalf("settings.Load: %v", err)
	}
	if *numWorkers >= 0 {
		s.NumWorkers = *numWorkers
	}
	if *inconclusive {
		s.InconclusiveChecksEnabled = true
	}
	if *lang != "" {
		s.Lang = *lang
	}
	printer := i18n.GetPrinter(s.Lang)

	files, err := loadSourceFiles()
	if err != nil {
		glog.Fatal(err)
	}
	if len(files) == 0 {
		fmt.Println(printer.Sprintf(i18n.MsgNothingToAnalyze))
		return
	}

	opts := analyzer.Options{
		Settings:          s,
		Is64Bit:           *is64Bit,
		IsDebug:           *isDebug,
		XML:               *xmlReport,
		IgnoreDirPatterns: ignoreDirPatterns,
	}
	if *dryRun {
		cmdline, err := analyzer.Prepare(files, opts)
		if err != nil {
			glog.Fatalf("analyzer.Prepare: %v", err)
		}
		fmt.Println(cmdline.String())
		return
	}

	progress := stats.NewProgress(os.Stdout, printer)
	paths := make([]string, 0, len(files))
	for _, file := range files {
		paths = append(paths, file.FilePath)
	}
	if lines, err := stats.CountLines(paths); err != nil {
		glog.Warningf("stats.CountLines: %v", err)
	} else {
		progress.Report(i18n.MsgLinesOfCode, lines)
	}

	opts.Resolver = &discovery.Resolver{
		Settings:     s,
		SettingsPath: path,
		In:           os.Stdin,
		Out:          os.Stdout,
		Printer:      printer,
	}
	if !*xmlReport {
		opts.Stream = os.Stdout
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	progress.Report(i18n.MsgStartAnalysis, len(files), analyzer.NumWorkers(s))
	outcome, err := analyzer.Analyze(ctx, files, opts)
	if errors.Is(err, discovery.ErrNotFound) {
		fmt.Fprintln(os.Stderr, err)
		glog.Flush()
		os.Exit(2)
	}
	var readErr *suppression.SuppressionReadError
	if errors.As(err, &readErr) {
		fmt.Fprintln(os.Stderr, printer.Sprintf(i18n.MsgSuppressionWarning, readErr))
		glog.Flush()
		os.Exit(1)
	}
	if err != nil {
		glog.Fatalf("analyzer.Analyze: %v", err)
	}
	progress.Report(i18n.MsgAnalysisCompleted,
		stats.FormatTimeDuration(outcome.Result.Elapsed), outcome.Result.ExitCode)

	if *xmlReport {
		report.Print(os.Stdout, outcome.Findings, *printCounts)
		if *showCode {
			for _, finding := range outcome.Findings {
				if finding.Path == "" {
					continue
				}
				code, err := report.GetCode(finding.Path, finding.LineNumber, s.Charset)
				if err != nil {
					glog.Warningf("report.GetCode: %v", err)
					continue
				}
				fmt.Printf("%s:%d:\n%s\n", finding.Path, finding.LineNumber, code)
			}
		}
		fmt.Println(printer.Sprintf(i18n.MsgFindingsFound, len(outcome.Findings)))
	}
}

func loadSourceFiles() ([]sourcefile.SourceFile, error) {
	files := []sourcefile.SourceFile{}
	if *compileCommandsPath != "" {
		loaded, err := sourcefile.LoadCompileCommands(*compileCommandsPath, sourcefile.LoadOptions{
			ProjectDir:        *projectDir,
			IgnoreDirPatterns: ignoreDirPatterns,
		})
		if err != nil {
			return nil, fmt.Errorf("sourcefile.LoadCompileCommands: %v", err)
		}
		files = append(files, loaded...)
	}
	baseProjectPath := *projectDir
	if baseProjectPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("os.Getwd: %v", err)
		}
		baseProjectPath = wd
	}
	plain := []string{}
	for _, arg := range flag.Args() {
		matched, err := sourcefile.MatchIgnoreDirPatterns(ignoreDirPatterns, arg)
		if err != nil {
			return nil, err
		}
		if !matched {
			plain = append(plain, arg)
		}
	}
	return append(files, sourcefile.FromPaths(plain, baseProjectPath, includePaths, macros)...), nil
}
