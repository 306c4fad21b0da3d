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

package sourcefile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
	"golang.org/x/exp/slices"
)

// SourceFile is one input of an analysis. It is not modified after it has
// been built.
type SourceFile struct {
	FilePath string
	// BaseProjectPath is where the project's suppressions.cfg lives.
	BaseProjectPath string
	IncludePaths    []string
	Macros          []string
}

var KSupportImplementationSuffixs = []string{".c", ".cpp", ".cc", ".cxx", ".c++", ".cp"}

func IsCCFile(path string) bool {
	return slices.Contains(KSupportImplementationSuffixs, strings.ToLower(filepath.Ext(path)))
}

type LoadOptions struct {
	// ProjectDir overrides the BaseProjectPath of every entry. When empty
	// the directory field of the entry is used.
	ProjectDir        string
	IgnoreDirPatterns []string
}

// LoadCompileCommands builds one SourceFile per distinct file of a
// compilation database.
func LoadCompileCommands(compileCommandsPath string, opts LoadOptions) ([]SourceFile, error) {
	commands, err := ReadCompileCommandsFromFile(compileCommandsPath)
	if err != nil {
		return nil, err
	}
	files := []SourceFile{}
	fileEntrances := map[string]bool{}
	for _, command := range commands {
		filePath := command.File
		if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(command.Directory, filePath)
		}
		if fileEntrances[filePath] {
			continue
		}
		if !IsCCFile(filePath) {
			glog.V(1).Infof("skipped non C/C++ entry %s", filePath)
			continue
		}
		matched, err := MatchIgnoreDirPatterns(opts.IgnoreDirPatterns, filePath)
		if err != nil {
			return nil, err
		}
		if matched {
			continue
		}
		argv, err := command.Argv()
		if err != nil {
			glog.Warningf("failed to parse command of %s: %v", filePath, err)
			continue
		}
		includes, macros := ParseCompilerFlags(argv, command.Directory)
		projectPath := opts.ProjectDir
		if projectPath == "" {
			projectPath = command.Directory
		}
		fileEntrances[filePath] = true
		files = append(files, SourceFile{
			FilePath:        filePath,
			BaseProjectPath: projectPath,
			IncludePaths:    includes,
			Macros:          macros,
		})
	}
	glog.Infof("%d source files loaded from %s", len(files), compileCommandsPath)
	return files, nil
}

// FromPaths builds SourceFiles for files given directly by the user. They
// all share projectDir and the given include paths and macros.
func FromPaths(paths []string, projectDir string, includes, macros []string) []SourceFile {
	files := make([]SourceFile, 0, len(paths))
	for _, path := range paths {
		files = append(files, SourceFile{
			FilePath:        path,
			BaseProjectPath: projectDir,
			IncludePaths:    slices.Clone(includes),
			Macros:          slices.Clone(macros),
		})
	}
	return files
}

var includeFlagsWithParam = []string{"-I", "-isystem", "-iquote"}

// isMSVC reports whether the compiler accepts /I and /D style options.
func isMSVC(compiler string) bool {
	name := strings.ToLower(filepath.Base(strings.ReplaceAll(compiler, `\`, "/")))
	name = strings.TrimSuffix(name, ".exe")
	return name == "cl" || name == "clang-cl"
}

// ParseCompilerFlags picks include paths and macro definitions out of a
// compiler command line whose first element is the compiler. Relative
// include paths are resolved against dir.
func ParseCompilerFlags(argv []string, dir string) (includes []string, macros []string) {
	includes = []string{}
	macros = []string{}
	if len(argv) == 0 {
		return includes, macros
	}
	msvc := isMSVC(argv[0])
	addInclude := func(path string) {
		if path == "" {
			return
		}
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		includes = append(includes, path)
	}
	for i := 1; i < len(argv); i++ {
		arg := argv[i]
		if msvc && (strings.HasPrefix(arg, "/I") || strings.HasPrefix(arg, "/D")) {
			arg = "-" + arg[1:]
		}
		switch {
		case slices.Contains(includeFlagsWithParam, arg):
			if i+1 < len(argv) {
				addInclude(argv[i+1])
				i++
			}
		case arg == "-D":
			if i+1 < len(argv) {
				macros = append(macros, argv[i+1])
				i++
			}
		case strings.HasPrefix(arg, "-isystem"):
			addInclude(arg[len("-isystem"):])
		case strings.HasPrefix(arg, "-iquote"):
			addInclude(arg[len("-iquote"):])
		case strings.HasPrefix(arg, "-I"):
			addInclude(arg[2:])
		case strings.HasPrefix(arg, "-D"):
			macros = append(macros, arg[2:])
		}
	}
	return includes, macros
}

func MatchIgnoreDirPatterns(ignoreDirPatterns []string, filePath string) (bool, error) {
	for _, ignoreDirPattern := range ignoreDirPatterns {
		matched, err := doublestar.Match(ignoreDirPattern, filePath)
		if err != nil {
			return false, fmt.Errorf("malformed ignore_dir pattern %s", ignoreDirPattern)
		}
		if matched {
			glog.Infof("Source file %s ignored due to pattern %s", filePath, ignoreDirPattern)
			return true, nil
		}
	}
	return false, nil
}
