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

package discovery

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/text/message"
	"naive.systems/cppcheckplugin/i18n"
	"naive.systems/cppcheckplugin/settings"
)

// ErrNotFound is returned when no usable cppcheck executable was given.
var ErrNotFound = errors.New("cppcheck executable not found")

func ResolveBinaryPath(binPath string) (string, error) {
	if binPath == "" {
		return "", errors.New("empty executable path")
	}
	if filepath.IsAbs(binPath) {
		if _, err := os.Stat(binPath); err != nil {
			return binPath, fmt.Errorf("when resolving %s, os.Stat failed: %v", binPath, err)
		}
		return binPath, nil
	}
	// exec.LookPath will silently allow relative path, so we manually check it.
	if strings.ContainsRune(binPath, filepath.Separator) || strings.ContainsRune(binPath, '/') {
		absBinPath, err := filepath.Abs(binPath)
		if err != nil {
			return binPath, fmt.Errorf("when resolving %s, failed to convert to abs path: %v", binPath, err)
		}
		if _, err := os.Stat(absBinPath); err != nil {
			return absBinPath, fmt.Errorf("when resolving %s, os.Stat failed: %v", binPath, err)
		}
		return absBinPath, nil
	}
	if _, err := exec.LookPath(binPath); err != nil {
		return binPath, fmt.Errorf("when resolving %s, not found in $PATH: %v", binPath, err)
	}
	return binPath, nil
}

// Resolver finds the cppcheck executable named by Settings, asking on Out
// for another path as long as the current one cannot be resolved.
type Resolver struct {
	Settings *settings.Settings
	// SettingsPath is where a newly entered path is saved. Empty means not saved.
	SettingsPath string
	// In is read for replacement paths. Nil means never prompt.
	In      io.Reader
	Out     io.Writer
	Printer *message.Printer
}

func (r *Resolver) ResolveExecutablePath() (string, error) {
	printer := r.Printer
	if printer == nil {
		printer = i18n.GetPrinter("en")
	}
	out := r.Out
	if out == nil {
		out = io.Discard
	}
	var reader *bufio.Reader
	if r.In != nil {
		reader = bufio.NewReader(r.In)
	}

	path := r.Settings.CppcheckPath
	changed := false
	for {
		resolved, err := ResolveBinaryPath(path)
		if err == nil {
			if changed {
				r.persist(path)
			}
			return resolved, nil
		}
		glog.Warning(err)
		if reader == nil {
			return "", fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		printer.Fprintf(out, i18n.MsgExecutableNotFound, path)
		line, readErr := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if readErr != nil && !errors.Is(readErr, io.EOF) {
				return "", fmt.Errorf("%w: %v", ErrNotFound, readErr)
			}
			return "", ErrNotFound
		}
		path = line
		changed = true
	}
}

func (r *Resolver) persist(path string) {
	r.Settings.CppcheckPath = path
	if r.SettingsPath == "" {
		return
	}
	if err := r.Settings.Save(r.SettingsPath); err != nil {
		glog.Warningf("failed to save cppcheck path: %v", err)
	}
}
