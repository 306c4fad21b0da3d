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

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/golang/glog"
)

// RunnerError is returned when the executable cannot be located or started.
type RunnerError struct {
	Executable string
	Err        error
}

func (e *RunnerError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Executable, e.Err)
}

func (e *RunnerError) Unwrap() error {
	return e.Err
}

type Options struct {
	// Dir is the working directory. Empty means the current one.
	Dir string
	// Stream receives stdout and stderr while the process runs.
	Stream  io.Writer
	Timeout time.Duration
}

type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Elapsed  time.Duration
}

// lockedWriter serializes writes coming from the stdout and stderr copiers.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Run executes the analyzer and waits for it. A non-zero exit code is not an
// error: cppcheck uses it to signal findings when --error-exitcode is set.
func Run(ctx context.Context, executablePath string, args []string, opts Options) (*Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, executablePath, args...)
	cmd.Dir = opts.Dir
	var stdout, stderr bytes.Buffer
	if opts.Stream != nil {
		stream := lockedWriter{mu: &sync.Mutex{}, w: opts.Stream}
		cmd.Stdout = io.MultiWriter(&stdout, stream)
		cmd.Stderr = io.MultiWriter(&stderr, stream)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	glog.Info("executing: ", cmd.String())
	start := time.Now()
	if err := cmd.Start(); err != nil {
		glog.Errorf("cmd.Start: %v", err)
		return nil, &RunnerError{Executable: executablePath, Err: err}
	}
	err := cmd.Wait()
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Elapsed:  time.Since(start),
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return result, fmt.Errorf("%s timed out: over %v", executablePath, opts.Timeout)
		}
		return result, ctxErr
	}
	var exitError *exec.ExitError
	if err != nil && !errors.As(err, &exitError) {
		return result, fmt.Errorf("cmd.Wait: %v", err)
	}
	if result.ExitCode != 0 {
		glog.Infof("%s exited with code %d", executablePath, result.ExitCode)
	}
	return result, nil
}
