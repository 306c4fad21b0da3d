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

package report

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/ianaindex"
)

type XMLLocation struct {
	File   string `xml:"file,attr"`
	Line   int32  `xml:"line,attr"`
	Column int32  `xml:"column,attr"`
	Info   string `xml:"info,attr"`
}

type XMLError struct {
	Id        string        `xml:"id,attr"`
	Severity  string        `xml:"severity,attr"`
	Msg       string        `xml:"msg,attr"`
	Verbose   string        `xml:"verbose,attr"`
	CWE       int           `xml:"cwe,attr"`
	Locations []XMLLocation `xml:"location"`
}

type XMLCppcheck struct {
	Version string `xml:"version,attr"`
}

// XMLReport is the document written by cppcheck --xml --xml-version=2.
type XMLReport struct {
	XMLName  xml.Name    `xml:"results"`
	Version  int         `xml:"version,attr"`
	Cppcheck XMLCppcheck `xml:"cppcheck"`
	Errors   []XMLError  `xml:"errors>error"`
}

type Finding struct {
	Id           string
	Path         string
	LineNumber   int32
	Column       int32
	Severity     string
	ErrorId      string
	ErrorMessage string
	CWE          int
}

func ParseXML(data []byte) (*XMLReport, error) {
	report := &XMLReport{}
	if err := xml.Unmarshal(data, report); err != nil {
		glog.Errorf("xml.Unmarshal: %v", err)
		return nil, fmt.Errorf("failed to parse cppcheck XML report: %v", err)
	}
	if report.Version != 0 && report.Version != 2 {
		return nil, fmt.Errorf("unsupported cppcheck XML version %d", report.Version)
	}
	glog.V(1).Infof("cppcheck %s reported %d errors", report.Cppcheck.Version, len(report.Errors))
	return report, nil
}

// Findings flattens the report. The first location of an error is its
// primary one; errors without a location get an empty path.
func Findings(report *XMLReport) []*Finding {
	findings := []*Finding{}
	if report == nil {
		return findings
	}
	for _, e := range report.Errors {
		finding := &Finding{
			Severity:     e.Severity,
			ErrorId:      e.Id,
			ErrorMessage: e.Msg,
			CWE:          e.CWE,
		}
		if len(e.Locations) > 0 {
			finding.Path = e.Locations[0].File
			finding.LineNumber = e.Locations[0].Line
			finding.Column = e.Locations[0].Column
		}
		findings = append(findings, finding)
	}
	return findings
}

func AddID(findings []*Finding) {
	for _, finding := range findings {
		id, err := uuid.NewRandom()
		if err != nil {
			glog.Warningf("uuid.NewRandom: %v", err)
			continue
		}
		finding.Id = id.String()
	}
}

// FilterIgnored drops findings whose path matches one of the doublestar
// patterns. A malformed pattern is skipped.
func FilterIgnored(findings []*Finding, ignoreDirPatterns []string) []*Finding {
	for _, ignoreDirPattern := range ignoreDirPatterns {
		kept := []*Finding{}
		malformed := false
		for _, finding := range findings {
			matched, err := doublestar.Match(ignoreDirPattern, finding.Path)
			if err != nil {
				glog.Error("malformed ignore_dir pattern ", ignoreDirPattern)
				malformed = true
				break
			}
			if matched {
				glog.Infof("Result in path %s ignored due to pattern %s", finding.Path, ignoreDirPattern)
				continue
			}
			kept = append(kept, finding)
		}
		if !malformed {
			findings = kept
		}
	}
	return findings
}

// Sort orders findings by path, line and message.
func Sort(findings []*Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		x := findings[i]
		y := findings[j]
		if x.Path != y.Path {
			return x.Path < y.Path
		}
		if x.LineNumber != y.LineNumber {
			return x.LineNumber < y.LineNumber
		}
		return x.ErrorMessage < y.ErrorMessage
	})
}

func Print(w io.Writer, findings []*Finding, printCounts bool) {
	Sort(findings)
	countByMessage := map[string]int{}
	for _, finding := range findings {
		fmt.Fprintf(w, "%s:%d: %s: %s [%s]\n\n", finding.Path, finding.LineNumber, finding.Severity, finding.ErrorMessage, finding.ErrorId)
		countByMessage[finding.ErrorMessage]++
	}
	if !printCounts {
		return
	}
	messages := make([]string, 0, len(countByMessage))
	for errorMessage := range countByMessage {
		messages = append(messages, errorMessage)
	}
	sort.Strings(messages)
	for _, errorMessage := range messages {
		fmt.Fprintf(w, "count: %d error message: %s\n", countByMessage[errorMessage], errorMessage)
	}
}

// snippetContext is the number of lines shown on each side of a finding.
const snippetContext = 2

// lineDecoder returns a conversion of raw source lines in charset to UTF-8.
// Unknown charsets are read as UTF-8.
func lineDecoder(charset string) func([]byte) string {
	asUTF8 := func(b []byte) string { return string(b) }
	if charset == "" || strings.EqualFold(charset, "utf8") || strings.EqualFold(charset, "utf-8") {
		return asUTF8
	}
	e, err := ianaindex.MIME.Encoding(charset)
	if err != nil || e == nil {
		glog.Warningf("charset %q not found, the source is considered as UTF-8", charset)
		return asUTF8
	}
	decoder := e.NewDecoder()
	return func(b []byte) string {
		decoded, err := decoder.Bytes(b)
		if err != nil {
			glog.Warningf("failed to decode %s line: %v", charset, err)
			return string(b)
		}
		return string(decoded)
	}
}

// GetCode returns the lines around lineNumber, the reported one marked
// with "> ".
func GetCode(path string, lineNumber int32, charset string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	decode := lineDecoder(charset)
	reader := bufio.NewReader(file)
	var snippet strings.Builder
	for current := int32(1); current <= lineNumber+snippetContext; current++ {
		raw, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read %s: %v", path, err)
		}
		if len(raw) == 0 && err != nil {
			break
		}
		if current >= lineNumber-snippetContext {
			marker := ""
			if current == lineNumber {
				marker = "> "
			}
			fmt.Fprintf(&snippet, "%s%d| %s\n", marker, current, decode(bytes.TrimRight(raw, "\r\n")))
		}
		if err != nil {
			break
		}
	}
	return snippet.String(), nil
}
