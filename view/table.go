// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package view

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang = language.English

// Money formats an amount with thousands separators and two decimals.
func Money(v float64) string {
	return message.NewPrinter(lang).Sprintf("%.2f", v)
}

// Table renders rows as a boxed text table. Column widths follow display width,
// so Thai and CJK names line up.
func Table(title string, header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i := 0; i < len(r) && i < len(widths); i++ {
			if w := runewidth.StringWidth(r[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	divider := "+"
	inner := -1
	for _, w := range widths {
		divider += strings.Repeat("-", w+2) + "+"
		inner += w + 3
	}
	divider += "\n"

	if title != "" {
		tw := runewidth.StringWidth(title)
		left := (inner - tw) / 2
		b.WriteString("+" + strings.Repeat("-", max(inner, 0)) + "+\n")
		b.WriteString("|" + blank(left) + title + blank(inner-tw-left) + "|\n")
	}
	b.WriteString(divider)
	writeRow(&b, header, widths)
	b.WriteString(divider)
	for _, r := range rows {
		writeRow(&b, r, widths)
	}
	b.WriteString(divider)
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	b.WriteString("|")
	for i, w := range widths {
		c := ""
		if i < len(cells) {
			c = cells[i]
		}
		b.WriteString(" " + c + blank(w-runewidth.StringWidth(c)) + " |")
	}
	b.WriteString("\n")
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
