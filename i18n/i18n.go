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

package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var languageMap = map[string]language.Tag{"en": language.English, "zh": language.Chinese}

// Message keys shared by the command line tool and the analyzer.
const (
	MsgLinesOfCode        = "%d lines of C/C++ code"
	MsgStartAnalysis      = "Start analyzing %d files with %d workers"
	MsgAnalysisCompleted  = "Analysis completed in %s, exit code %d"
	MsgFindingsFound      = "%d findings reported"
	MsgNothingToAnalyze   = "Nothing to analyze"
	MsgExecutableNotFound = "cppcheck executable not found at %q. Enter the path to cppcheck (empty to cancel): "
	MsgSuppressionWarning = "Warning: cannot read suppressions: %v"
)

var zhMessages = map[string]string{
	MsgLinesOfCode:        "%d 行 C/C++ 代码",
	MsgStartAnalysis:      "开始分析 %d 个文件，使用 %d 个工作线程",
	MsgAnalysisCompleted:  "分析完成，耗时 %s，退出码 %d",
	MsgFindingsFound:      "共报告 %d 个问题",
	MsgNothingToAnalyze:   "没有需要分析的文件",
	MsgExecutableNotFound: "未在 %q 找到 cppcheck 可执行文件。请输入 cppcheck 路径（留空取消）：",
	MsgSuppressionWarning: "警告：无法读取抑制规则：%v",
}

func init() {
	for key, msg := range zhMessages {
		if err := message.SetString(language.Chinese, key, msg); err != nil {
			panic(err)
		}
	}
}

// GetPrinter falls back to English for unknown languages.
func GetPrinter(lang string) *message.Printer {
	langTag, exist := languageMap[lang]
	if !exist {
		langTag = languageMap["en"]
	}
	return message.NewPrinter(langTag)
}
