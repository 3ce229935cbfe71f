// Package brief extracts the short summary shown next to a declaration in
// member tables.
//
// Javadoc briefs are the first sentence of the description. KDoc briefs are
// the whole first paragraph. Either way only description blocks are consulted;
// tag sections never contribute.
package brief

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"git.home.luguber.info/inful/apidoc/internal/comment"
)

// Text is a brief: a short run of inline spans.
type Text []comment.Span

// Plain joins the span texts, markup included.
func (t Text) Plain() string {
	var sb strings.Builder
	for _, s := range t {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// IsEmpty reports whether the brief has no visible content.
func (t Text) IsEmpty() bool {
	return strings.TrimSpace(t.Plain()) == ""
}

// abbreviations never end a sentence. Matching is case-sensitive.
var abbreviations = map[string]bool{
	"e.g": true, "i.e": true, "etc": true, "vs": true, "cf": true, "al": true, "approx": true,
	"Prof": true, "Dr": true, "Mr": true, "Mrs": true, "Ms": true, "Jr": true, "Sr": true, "St": true,
	"Inc": true, "Ltd": true, "No": true, "Fig": true,
}

// IsAbbreviation reports whether token (without its trailing period) is a known abbreviation.
func IsAbbreviation(token string) bool {
	return abbreviations[token]
}

// Extract returns the brief of a parsed comment according to its dialect.
func Extract(c *comment.Comment) Text {
	if c == nil || len(c.Description) == 0 {
		return nil
	}
	first := c.Description[0]
	if c.Dialect == comment.Javadoc {
		return FirstSentence(first)
	}
	return Text(append(comment.Block(nil), first...))
}

// Of parses raw comment text and extracts its brief.
func Of(raw string, d comment.Dialect) Text {
	c, _ := comment.Parse(raw, d)
	return Extract(c)
}

// FirstSentence returns the spans up to and including the first period that
// ends a sentence. Markup spans are opaque. A period only ends a sentence when
// it is followed by whitespace or closes the description, and when the word in
// front of it is not an abbreviation. A period directly followed by a markup
// span does not end the sentence. Without a terminator the whole input is returned.
func FirstSentence(spans []comment.Span) Text {
	var out Text
	for i, s := range spans {
		if s.Kind != comment.SpanText {
			out = append(out, s)
			continue
		}
		last := i == len(spans)-1
		for j := 0; j < len(s.Text); j++ {
			if s.Text[j] != '.' || !terminates(s.Text, j, last) {
				continue
			}
			return append(out, comment.Span{Kind: s.Kind, Text: s.Text[:j+1]})
		}
		out = append(out, s)
	}
	return out
}

func terminates(text string, dot int, lastSpan bool) bool {
	if dot+1 < len(text) {
		r, _ := utf8.DecodeRuneInString(text[dot+1:])
		if !unicode.IsSpace(r) {
			return false
		}
	} else if !lastSpan {
		// Something non-textual follows directly, e.g. `Prof.<!-- -->`.
		return false
	}
	return !abbreviations[precedingToken(text[:dot])]
}

// precedingToken returns the run of letters and inner dots right before the
// period, so that "i.e" and "e.g" are seen as one token.
func precedingToken(before string) string {
	start := len(before)
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(before[:start])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		start -= size
	}
	return strings.Trim(before[start:], ".")
}
