package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `# SPEC-0001: Login

Intro text.

## Purpose

Users sign in.

### Details

Nested heading stays inside Purpose.

` + "```markdown" + `
## Not a heading
` + "```" + `

## Business Rules

- [BR-0001] (P1) Users must sign in with email.

## C#
`

func TestParseHeadings(t *testing.T) {
	headings := ParseHeadings(sampleDoc)

	require.Len(t, headings, 5)
	assert.Equal(t, Heading{Level: 1, Title: "SPEC-0001: Login", Line: 1}, headings[0])
	assert.Equal(t, Heading{Level: 2, Title: "Purpose", Line: 5}, headings[1])
	assert.Equal(t, Heading{Level: 3, Title: "Details", Line: 9}, headings[2])
	assert.Equal(t, "Business Rules", headings[3].Title)
	assert.Equal(t, "C#", headings[4].Title)
}

func TestParseHeadings_ClosingHashes(t *testing.T) {
	headings := ParseHeadings("## Scope ##\n####### too deep\n#nospace\n")

	require.Len(t, headings, 1)
	assert.Equal(t, "Scope", headings[0].Title)
}

func TestExtractH2Sections(t *testing.T) {
	sections := ExtractH2Sections(sampleDoc)

	require.Contains(t, sections, "Purpose")
	purpose := sections["Purpose"]
	assert.Equal(t, 6, purpose.StartLine)
	assert.Contains(t, purpose.Body, "Nested heading stays inside Purpose.")
	assert.Contains(t, purpose.Body, "## Not a heading")
	assert.NotContains(t, purpose.Body, "BR-0001")

	rules := sections["Business Rules"]
	assert.Contains(t, rules.Body, "- [BR-0001] (P1)")

	last := sections["C#"]
	assert.Empty(t, last.Body)
	assert.Nil(t, last.Lines())
}

func TestExtractH2Sections_FirstTitleWins(t *testing.T) {
	doc := "## Scope\nfirst\n## Scope\nsecond\n"

	sections := ExtractH2Sections(doc)
	require.Len(t, sections, 1)
	assert.Equal(t, "first", sections["Scope"].Body)
	assert.Equal(t, 2, sections["Scope"].StartLine)
	assert.Equal(t, 2, sections["Scope"].EndLine)
}

func TestFirstH1(t *testing.T) {
	_, ok := FirstH1("## only h2\n")
	assert.False(t, ok)

	h, ok := FirstH1("text\n# First\n# Second\n")
	require.True(t, ok)
	assert.Equal(t, "First", h.Title)
	assert.Equal(t, 2, h.Line)
}
