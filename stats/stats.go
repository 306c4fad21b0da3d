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

package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/hhatto/gocloc"
	"golang.org/x/text/message"
)

var CountLangs = []string{"C", "C Header", "C++", "C++ Header"}

// CountLines returns the number of code lines, without blanks and comments,
// of the given files and directories.
func CountLines(paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	clocOpts := gocloc.NewClocOptions()
	languages := gocloc.NewDefinedLanguages()
	for _, lang := range CountLangs {
		if _, exists := languages.Langs[lang]; exists {
			clocOpts.IncludeLangs[lang] = struct{}{}
		}
	}
	processor := gocloc.NewProcessor(languages, clocOpts)
	result, err := processor.Analyze(paths)
	if err != nil {
		glog.Errorf("gocloc fail: %v", err)
		return 0, err
	}
	sum := 0
	for _, file := range result.Files {
		sum += int(file.Code)
	}
	return sum, nil
}

const timeStampLayout = "2006-01-02 15:04:05"

// Progress writes localized, timestamped status lines for the user and
// mirrors them to the log.
type Progress struct {
	out     io.Writer
	printer *message.Printer
	now     func() time.Time
}

func NewProgress(out io.Writer, printer *message.Printer) *Progress {
	return &Progress{out: out, printer: printer, now: time.Now}
}

// Report translates key and formats args once. The result is written as is,
// so a % in a path or a translation is printed literally.
func (p *Progress) Report(key message.Reference, args ...any) {
	text := p.printer.Sprintf(key, args...)
	var line strings.Builder
	line.WriteString(p.now().Format(timeStampLayout))
	line.WriteByte(' ')
	line.WriteString(text)
	line.WriteByte('\n')
	if _, err := io.WriteString(p.out, line.String()); err != nil {
		glog.Warningf("failed to print progress: %v", err)
	}
	glog.Info(text)
}

// FormatTimeDuration prints d in seconds with at most millisecond precision
// and no trailing zeros, e.g. 1.5s.
func FormatTimeDuration(d time.Duration) string {
	s := d / time.Second
	ms := (d - s*time.Second) / time.Millisecond
	if ms == 0 {
		return fmt.Sprintf("%ds", s)
	}
	frac := fmt.Sprintf("%03d", ms)
	for frac[len(frac)-1] == '0' {
		frac = frac[:len(frac)-1]
	}
	return fmt.Sprintf("%d.%ss", s, frac)
}
