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
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/google/shlex"
)

const CCJson string = "compile_commands.json"

// CompileCommand is one entry of a JSON compilation database.
type CompileCommand struct {
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
	File      string   `json:"file"`
	Directory string   `json:"directory"`
	Output    string   `json:"output,omitempty"`
}

// Argv returns the arguments, splitting the command field when no
// arguments field is given.
func (cc CompileCommand) Argv() ([]string, error) {
	if len(cc.Arguments) > 0 {
		return cc.Arguments, nil
	}
	if cc.Command == "" {
		return nil, nil
	}
	argv, err := shlex.Split(cc.Command)
	if err != nil {
		return nil, fmt.Errorf("shlex.Split: %v", err)
	}
	return argv, nil
}

func ReadCompileCommandsFromFile(compileCommandsPath string) ([]CompileCommand, error) {
	content, err := os.ReadFile(compileCommandsPath)
	if err != nil {
		glog.Error(err)
		return nil, err
	}
	commands := []CompileCommand{}
	err = json.Unmarshal(content, &commands)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", compileCommandsPath, err)
	}
	return commands, nil
}
