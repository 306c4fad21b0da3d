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
Package suppression reads the per-project suppressions.cfg file.

The file is INI-like. Only lines of the [cppcheck] section are suppression
records, written as id[:pathPattern[:lineNumber]]:

	[cppcheck]
	unusedFunction:src/foo.cpp
	nullPointer
*/
package suppression

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"naive.systems/cppcheckplugin/utils"
)

const (
	FileName      = "suppressions.cfg"
	TargetSection = "cppcheck"
)

// SuppressionReadError is returned when suppressions.cfg exists but cannot be read.
type SuppressionReadError struct {
	Path string
	Err  error
}

func (e *SuppressionReadError) Error() string {
	return fmt.Sprintf("failed to read suppressions from %s: %v", e.Path, e.Err)
}

func (e *SuppressionReadError) Unwrap() error {
	return e.Err
}

type sectionState int

const (
	outsideTargetSection sectionState = iota
	insideTargetSection
)

// ReadSuppressions returns the normalized records of
// <projectBasePath>/suppressions.cfg. A missing file is an empty set.
func ReadSuppressions(projectBasePath string) (*utils.OrderedSet[string], error) {
	path := filepath.Join(projectBasePath, FileName)
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		glog.V(1).Infof("no %s in %s", FileName, projectBasePath)
		return utils.NewOrderedSet[string](), nil
	}
	if err != nil {
		glog.Errorf("os.Open: %v", err)
		return nil, &SuppressionReadError{Path: path, Err: err}
	}
	defer file.Close()

	suppressions, err := Parse(file)
	if err != nil {
		return nil, &SuppressionReadError{Path: path, Err: err}
	}
	glog.V(1).Infof("%d suppressions read from %s", suppressions.Len(), path)
	return suppressions, nil
}

// Parse scans suppression declarations. A leading byte order mark is
// honored and lines have no length limit. Malformed lines are accepted as
// well as possible; only I/O errors of r are returned.
func Parse(r io.Reader) (*utils.OrderedSet[string], error) {
	suppressions := utils.NewOrderedSet[string]()
	state := outsideTargetSection
	reader := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read line: %v", err)
		}
		if line != "" {
			state = parseLine(strings.TrimRight(line, "\r\n"), state, suppressions)
		}
		if err != nil {
			break
		}
	}
	return suppressions, nil
}

func parseLine(line string, state sectionState, suppressions *utils.OrderedSet[string]) sectionState {
	if strings.Contains(line, "[") {
		section := strings.ReplaceAll(strings.ReplaceAll(line, "[", ""), "]", "")
		if section == TargetSection {
			return insideTargetSection
		}
		return outsideTargetSection
	}
	if state != insideTargetSection {
		return state
	}
	if record := NormalizeRecord(line); record != "" {
		suppressions.Add(record)
	}
	return state
}

// NormalizeRecord turns one declaration line into the form passed to
// --suppress. A path not starting with "*" gets a "*" prefix so that it
// matches under any root. Fields after the line number are dropped.
func NormalizeRecord(line string) string {
	components := strings.Split(line, ":")
	if len(components) >= 2 && !strings.HasPrefix(components[1], "*") {
		components[1] = "*" + components[1]
	}
	if len(components) > 3 {
		components = components[:3]
	}
	return strings.ReplaceAll(strings.Join(components, ":"), `\\`, `\`)
}
