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

package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"gopkg.in/yaml.v2"
	"naive.systems/cppcheckplugin/atomic"
)

const FileName = "settings.yaml"

type Settings struct {
	// CppcheckPath is either an absolute path, a relative path, or a name looked up in $PATH.
	CppcheckPath string `yaml:"cppcheck_path"`
	// DefaultArguments is put in front of every synthesized command line as it is.
	DefaultArguments          string `yaml:"default_arguments"`
	InconclusiveChecksEnabled bool   `yaml:"inconclusive_checks_enabled"`
	// NumWorkers is passed as -j. 0 means runtime.NumCPU().
	NumWorkers     int    `yaml:"num_workers"`
	TimeoutMinutes int    `yaml:"timeout_minutes"`
	Lang           string `yaml:"lang"`
	// Charset of the analyzed sources, used when printing code snippets.
	Charset string `yaml:"charset"`
}

func Default() *Settings {
	return &Settings{
		CppcheckPath:     "cppcheck",
		DefaultArguments: "--enable=style --quiet",
		NumWorkers:       0,
		TimeoutMinutes:   90,
		Lang:             "en",
		Charset:          "utf8",
	}
}

// DefaultPath returns <UserConfigDir>/cppcheck_plugin/settings.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("os.UserConfigDir: %v", err)
	}
	return filepath.Join(dir, "cppcheck_plugin", FileName), nil
}

// Load reads the settings file at path. A missing file yields the defaults.
// Keys absent from the file keep their default values.
func Load(path string) (*Settings, error) {
	s := Default()
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		glog.Infof("settings file %s not found, using defaults", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings %s: %v", path, err)
	}
	if err := yaml.Unmarshal(content, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %v", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %v", path, err)
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if s.NumWorkers < 0 {
		return fmt.Errorf("num_workers must not be negative: %d", s.NumWorkers)
	}
	if s.TimeoutMinutes < 0 {
		return fmt.Errorf("timeout_minutes must not be negative: %d", s.TimeoutMinutes)
	}
	return nil
}

func (s *Settings) Save(path string) error {
	content, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("yaml.Marshal: %v", err)
	}
	if err := atomic.Write(path, content, 0644); err != nil {
		return err
	}
	glog.Infof("settings saved to %s", path)
	return nil
}
