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
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/golang/glog"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/slices"
	"naive.systems/cppcheckplugin/cppcheck/suppression"
	"naive.systems/cppcheckplugin/sourcefile"
	"naive.systems/cppcheckplugin/utils"
)

var testDir = "./simple_test"

func TestMain(m *testing.M) {
	err := os.MkdirAll(testDir, os.ModePerm)
	if err != nil {
		glog.Errorf("test setUp: %v", err)
	}
	code := m.Run()
	err = os.RemoveAll(testDir)
	if err != nil {
		glog.Errorf("test tearDown: %v", err)
	}
	os.Exit(code)
}

func noSuppressions(string) (*utils.OrderedSet[string], error) {
	return utils.NewOrderedSet[string](), nil
}

func fakeSuppressions(byProject map[string][]string, calls *[]string) SuppressionReader {
	return func(path string) (*utils.OrderedSet[string], error) {
		*calls = append(*calls, path)
		return utils.NewOrderedSet(byProject[path]...), nil
	}
}

var twoFiles = []sourcefile.SourceFile{
	{
		FilePath:        "/proj/src/a.cpp",
		BaseProjectPath: "/proj",
		IncludePaths:    []string{"/proj/include", "/opt/Qt5/include"},
		Macros:          []string{"FOO"},
	},
	{
		FilePath:        "/proj/src/b.cpp",
		BaseProjectPath: "/proj",
		IncludePaths:    []string{"/proj/include", "/proj/third_party"},
		Macros:          []string{"BAR=1", "FOO"},
	},
}

func TestSynthesizeMultiFile(t *testing.T) {
	cmdline, err := Synthesize(twoFiles, Options{
		BaselineArgs:     "--enable=style",
		Is64Bit:          true,
		IsDebug:          false,
		NumWorkers:       4,
		ReadSuppressions: noSuppressions,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := cmdline.String()
	for _, expected := range []string{" -j 4", "-D_M_X64", "-D_WIN64", "-D_MSC_VER", "-DWIN32", "-D_WIN32", "-D__cplusplus", "-DFOO", "-DBAR=1"} {
		if !strings.Contains(s, expected) {
			t.Errorf("expected %q in %q", expected, s)
		}
	}
	for _, unexpected := range []string{"-D_M_IX86", "-D_DEBUG", "--inconclusive"} {
		if strings.Contains(s, unexpected) {
			t.Errorf("unexpected %q in %q", unexpected, s)
		}
	}
	if !strings.HasPrefix(s, "--enable=style ") {
		t.Errorf("baseline arguments must come first: %q", s)
	}
	if strings.Index(s, `"/proj/src/a.cpp"`) > strings.Index(s, `"/proj/src/b.cpp"`) {
		t.Errorf("files must keep the given order: %q", s)
	}
	if diff := cmp.Diff([]string{"/proj/src/a.cpp", "/proj/src/b.cpp"}, cmdline.Files()); diff != "" {
		t.Errorf("Files(): diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/proj/include", "/proj/third_party"}, cmdline.IncludePaths()); diff != "" {
		t.Errorf("IncludePaths(): diff -want +got:\n%s", diff)
	}
	expectedMacros := []string{"FOO", "BAR=1", "_MSC_VER", "WIN32", "_WIN32", "__cplusplus", "_M_X64", "_WIN64"}
	if diff := cmp.Diff(expectedMacros, cmdline.Macros()); diff != "" {
		t.Errorf("Macros(): diff -want +got:\n%s", diff)
	}
}

func TestSynthesizeMacros(t *testing.T) {
	for _, testCase := range [...]struct {
		name       string
		files      []sourcefile.SourceFile
		is64Bit    bool
		isDebug    bool
		expected   []string
		unexpected []string
	}{
		{
			name:       "single file never gets macros",
			files:      twoFiles[:1],
			is64Bit:    true,
			isDebug:    true,
			expected:   []string{},
			unexpected: []string{"FOO", "_MSC_VER", "_DEBUG"},
		},
		{
			name:       "32 bit debug",
			files:      twoFiles,
			is64Bit:    false,
			isDebug:    true,
			expected:   []string{"_MSC_VER", "WIN32", "_WIN32", "__cplusplus", "_M_IX86", "_DEBUG"},
			unexpected: []string{"_M_X64", "_WIN64"},
		},
		{
			name:       "64 bit release",
			files:      twoFiles,
			is64Bit:    true,
			isDebug:    false,
			expected:   []string{"_MSC_VER", "WIN32", "_WIN32", "__cplusplus", "_M_X64", "_WIN64"},
			unexpected: []string{"_M_IX86", "_DEBUG"},
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			cmdline, err := Synthesize(testCase.files, Options{
				Is64Bit:          testCase.is64Bit,
				IsDebug:          testCase.isDebug,
				NumWorkers:       1,
				ReadSuppressions: noSuppressions,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			macros := cmdline.Macros()
			if len(testCase.files) == 1 {
				if len(macros) != 0 || strings.Contains(cmdline.String(), " -D") {
					t.Errorf("unexpected macros for a single file: %q", cmdline.String())
				}
			}
			for _, m := range testCase.expected {
				if !slices.Contains(macros, m) {
					t.Errorf("expected macro %v in %v", m, macros)
				}
			}
			for _, m := range testCase.unexpected {
				if slices.Contains(macros, m) {
					t.Errorf("unexpected macro %v in %v", m, macros)
				}
			}
		})
	}
}

func TestSynthesizeSuppressions(t *testing.T) {
	files := []sourcefile.SourceFile{
		{FilePath: "a.cpp", BaseProjectPath: "/p1"},
		{FilePath: "b.cpp", BaseProjectPath: "/p2"},
		{FilePath: "c.cpp", BaseProjectPath: "/p1"},
	}
	var calls []string
	reader := fakeSuppressions(map[string][]string{
		"/p1": {"nullPointer", "passedByValue"},
		"/p2": {"unusedFunction:*src/foo.cpp", "nullPointer"},
	}, &calls)
	cmdline, err := Synthesize(files, Options{NumWorkers: 2, Inconclusive: true, ReadSuppressions: reader})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(calls, []string{"/p1", "/p2"}) {
		t.Errorf("each project must be read once. got: %v", calls)
	}
	if !reflect.DeepEqual(cmdline.ProjectPaths(), []string{"/p1", "/p2"}) {
		t.Errorf("unexpected project paths: %v", cmdline.ProjectPaths())
	}
	expected := append(DefaultDefaults().Suppressions, "nullPointer", "unusedFunction:*src/foo.cpp")
	if diff := cmp.Diff(expected, cmdline.Suppressions()); diff != "" {
		t.Errorf("Suppressions(): diff -want +got:\n%s", diff)
	}
	if !strings.Contains(cmdline.String(), " --inconclusive") {
		t.Errorf("expected --inconclusive in %q", cmdline.String())
	}
	for _, s := range DefaultDefaults().Suppressions {
		if !strings.Contains(cmdline.String(), " --suppress="+s) {
			t.Errorf("default suppression %v missing in %q", s, cmdline.String())
		}
	}
}

func TestSynthesizeQtFilter(t *testing.T) {
	files := []sourcefile.SourceFile{{
		FilePath:        "a.cpp",
		BaseProjectPath: "/p",
		IncludePaths:    []string{"/opt/QT/include", "/opt/qt5", "C:\\Libs\\QtCore", "/usr/include/libsqtools", "/proj/include"},
	}}
	cmdline, err := Synthesize(files, Options{NumWorkers: 1, ReadSuppressions: noSuppressions})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"/proj/include"}, cmdline.IncludePaths()); diff != "" {
		t.Errorf("IncludePaths(): diff -want +got:\n%s", diff)
	}
	if !strings.Contains(cmdline.String(), ` -I"/proj/include"`) {
		t.Errorf("expected quoted include flag in %q", cmdline.String())
	}
}

func TestSynthesizeInvalidWorkers(t *testing.T) {
	for _, n := range []int{0, -1} {
		called := false
		_, err := Synthesize(twoFiles, Options{NumWorkers: n, ReadSuppressions: func(string) (*utils.OrderedSet[string], error) {
			called = true
			return utils.NewOrderedSet[string](), nil
		}})
		var configErr *ConfigurationError
		if !errors.As(err, &configErr) {
			t.Errorf("expected *ConfigurationError for %d workers, got: %v", n, err)
		}
		if called {
			t.Errorf("suppressions must not be read when the worker count is invalid")
		}
	}
}

func TestSynthesizeSuppressionReadError(t *testing.T) {
	readErr := &suppression.SuppressionReadError{Path: "/p/suppressions.cfg", Err: os.ErrPermission}
	_, err := Synthesize(twoFiles[:1], Options{NumWorkers: 1, ReadSuppressions: func(string) (*utils.OrderedSet[string], error) {
		return nil, readErr
	}})
	var got *suppression.SuppressionReadError
	if !errors.As(err, &got) || got != readErr {
		t.Errorf("expected the read error to be propagated, got: %v", err)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Errorf("expected the cause to be reachable, got: %v", err)
	}
}

func TestSynthesizeCustomDefaults(t *testing.T) {
	for _, testCase := range [...]struct {
		name                 string
		defaults             Defaults
		expectedSuppressions []string
		expectedMacros       []string
	}{
		{
			name: "all groups replaced",
			defaults: Defaults{
				Suppressions:   []string{"toomanyconfigs"},
				CompilerMacros: []string{"__GNUC__"},
				Macros64Bit:    []string{},
				Macros32Bit:    []string{},
				DebugMacros:    []string{},
			},
			expectedSuppressions: []string{"toomanyconfigs"},
			expectedMacros:       []string{"FOO", "BAR=1", "__GNUC__"},
		},
		{
			name:                 "unset groups keep the built-in lists",
			defaults:             Defaults{CompilerMacros: []string{"__GNUC__"}},
			expectedSuppressions: DefaultDefaults().Suppressions,
			expectedMacros:       []string{"FOO", "BAR=1", "__GNUC__", "_M_IX86"},
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			cmdline, err := Synthesize(twoFiles, Options{
				NumWorkers:       1,
				ReadSuppressions: noSuppressions,
				Defaults:         testCase.defaults,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(testCase.expectedSuppressions, cmdline.Suppressions()); diff != "" {
				t.Errorf("Suppressions(): diff -want +got:\n%s", diff)
			}
			if diff := cmp.Diff(testCase.expectedMacros, cmdline.Macros()); diff != "" {
				t.Errorf("Macros(): diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestSynthesizeEndToEnd(t *testing.T) {
	projectDir := filepath.Join(testDir, "proj")
	err := os.MkdirAll(projectDir, os.ModePerm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := "[cppcheck]\nunusedFunction:src/foo.cpp\nnullPointer\n"
	err = os.WriteFile(filepath.Join(projectDir, suppression.FileName), []byte(content), os.ModePerm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	files := []sourcefile.SourceFile{{FilePath: "src/foo.cpp", BaseProjectPath: projectDir}}
	cmdline, err := Synthesize(files, Options{NumWorkers: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := cmdline.String()
	for _, expected := range []string{" -j 4", " --suppress=unusedFunction:*src/foo.cpp", " --suppress=nullPointer", ` "src/foo.cpp"`} {
		if !strings.Contains(s, expected) {
			t.Errorf("expected %q in %q", expected, s)
		}
	}
	if strings.Contains(s, "-D") {
		t.Errorf("unexpected macro flag in %q", s)
	}
}
