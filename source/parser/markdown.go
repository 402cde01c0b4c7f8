// Package parser turns spec, scenario and contract documents into typed
// structures. Every function here is a pure function of the document text.
package parser

import (
	"regexp"
	"strings"
)

// Pre-compiled regex patterns for performance
var (
	// headingRe matches ATX headings (# through ######).
	headingRe = regexp.MustCompile(`^(#{1,6})[ \t]+(.*?)(?:[ \t]+#+)?[ \t]*$`)
	// fenceRe matches the opening or closing line of a fenced code block.
	fenceRe = regexp.MustCompile("^[ \t]{0,3}(```|~~~)")
)

// Heading is one markdown heading.
type Heading struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	Line  int    `json:"line"` // 1-based
}

// Section is the body of one H2 section.
type Section struct {
	Title     string `json:"title"`
	StartLine int    `json:"start_line"` // first body line, 1-based
	EndLine   int    `json:"end_line"`   // last body line, 1-based
	Body      string `json:"body"`
}

// Lines returns the section body split into lines.
func (s Section) Lines() []string {
	if s.EndLine < s.StartLine {
		return nil
	}
	return strings.Split(s.Body, "\n")
}

// splitLines splits a document into lines without the trailing newline.
func splitLines(doc string) []string {
	return strings.Split(strings.TrimSuffix(doc, "\n"), "\n")
}

// ParseHeadings returns every heading outside fenced code blocks in document order.
func ParseHeadings(doc string) []Heading {
	var headings []Heading
	inFence := false
	for i, line := range splitLines(doc) {
		if fenceRe.MatchString(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headingRe.FindStringSubmatch(line)
		if m == nil || strings.TrimSpace(m[2]) == "" {
			continue
		}
		headings = append(headings, Heading{
			Level: len(m[1]),
			Title: strings.TrimSpace(m[2]),
			Line:  i + 1,
		})
	}
	return headings
}

// ExtractH2Sections slices the document by H2 headings. A section spans from
// the line after its heading to the line before the next H2 or the end of the
// document; H1 and H3+ headings do not end a section. When a title repeats,
// the first section wins.
func ExtractH2Sections(doc string) map[string]Section {
	lines := splitLines(doc)
	var h2 []Heading
	for _, h := range ParseHeadings(doc) {
		if h.Level == 2 {
			h2 = append(h2, h)
		}
	}

	sections := make(map[string]Section, len(h2))
	for i, h := range h2 {
		end := len(lines)
		if i+1 < len(h2) {
			end = h2[i+1].Line - 1
		}
		if _, exists := sections[h.Title]; exists {
			continue
		}
		start := h.Line + 1
		body := ""
		if start <= end {
			body = strings.Join(lines[start-1:end], "\n")
		}
		sections[h.Title] = Section{
			Title:     h.Title,
			StartLine: start,
			EndLine:   end,
			Body:      body,
		}
	}
	return sections
}

// FirstH1 returns the first level-1 heading, if any.
func FirstH1(doc string) (Heading, bool) {
	for _, h := range ParseHeadings(doc) {
		if h.Level == 1 {
			return h, true
		}
	}
	return Heading{}, false
}
