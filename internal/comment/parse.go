package comment

import (
	"strings"
	"unicode"

	"git.home.luguber.info/inful/apidoc/internal/diag"
)

// Parse turns raw comment text into a Comment. It never fails: absent input yields
// an empty comment, and tags it cannot make sense of are kept in Custom together
// with a MalformedCommentSyntax diagnostic.
func Parse(raw string, d Dialect) (*Comment, []diag.Diagnostic) {
	c := newComment(d)
	if strings.TrimSpace(raw) == "" {
		return c, nil
	}

	desc, tags := splitSections(stripDelimiters(raw))
	c.Description = ParseDescription(desc, d)

	var problems []diag.Diagnostic
	for _, t := range tags {
		if p, ok := c.applyTag(t); !ok {
			problems = append(problems, p)
		}
	}
	return c, problems
}

// ParseDescription parses free text in the dialect's inline syntax. It is also
// used for tag texts that are rendered as documentation, e.g. `@constructor`.
func ParseDescription(text string, d Dialect) []Block {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if d == Javadoc {
		return parseHTML(text)
	}
	return parseMarkdown(text)
}

// stripDelimiters removes `/**`, `*/` and the leading asterisks of each line.
// Text without an opening delimiter is returned as is.
func stripDelimiters(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "/**") {
		return raw
	}
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimSuffix(s, "*/")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		t := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(t, "*") {
			t = strings.TrimPrefix(t, "*")
			t = strings.TrimPrefix(t, " ")
		}
		lines[i] = strings.TrimRight(t, " \t\r")
	}
	return strings.Join(lines, "\n")
}

type rawTag struct {
	head  string // text after '@' on the tag line
	lines []string
}

// splitSections separates the leading description from block tags. A tag starts
// on a line whose first non-blank character is '@' and runs until the next tag.
// Lines inside fenced code blocks are never tags.
func splitSections(text string) (string, []rawTag) {
	var desc []string
	var tags []rawTag
	inFence := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(trimmed, "@") {
			tags = append(tags, rawTag{head: trimmed[1:]})
			continue
		}
		if len(tags) > 0 {
			last := &tags[len(tags)-1]
			last.lines = append(last.lines, line)
			continue
		}
		desc = append(desc, line)
	}
	return strings.Join(desc, "\n"), tags
}

func (t rawTag) split() (name, text string) {
	i := strings.IndexFunc(t.head, func(r rune) bool { return !unicode.IsLetter(r) })
	if i < 0 {
		i = len(t.head)
	}
	name = t.head[:i]
	rest := t.head[i:]
	if len(t.lines) > 0 {
		rest += "\n" + strings.Join(t.lines, "\n")
	}
	return name, strings.TrimSpace(rest)
}

// subject splits "name text" as used by @param, @property and @throws. KDoc also
// accepts the bracketed form "[name] text".
func subject(text string) (string, string) {
	if strings.HasPrefix(text, "[") {
		if end := strings.IndexByte(text, ']'); end > 1 {
			return text[1:end], strings.TrimSpace(text[end+1:])
		}
	}
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

func (c *Comment) applyTag(t rawTag) (diag.Diagnostic, bool) {
	name, text := t.split()
	if name == "" {
		c.Custom = append(c.Custom, Tag{Text: text})
		return diag.New(diag.MalformedCommentSyntax, "tag without a name: %q", "@"+t.head), false
	}

	switch strings.ToLower(name) {
	case "param":
		return c.applySubject(name, text, c.Params)
	case "property":
		return c.applySubject(name, text, c.Properties)
	case "throws", "exception":
		return c.applySubject(name, text, c.Throws)
	case "constructor":
		c.Constructor = text
	case "return", "returns":
		c.Return = text
	case "receiver":
		c.Receiver = text
	case "since":
		c.Since = text
	case "author":
		c.Author = text
	case "deprecated":
		c.Deprecated = text
	case "see":
		c.See = append(c.See, text)
	case "sample":
		c.Samples = append(c.Samples, text)
	case "suppress":
		c.Suppress = true
	default:
		c.Custom = append(c.Custom, Tag{Name: name, Text: text})
	}
	return diag.Diagnostic{}, true
}

func (c *Comment) applySubject(tag, text string, into map[string]string) (diag.Diagnostic, bool) {
	key, body := subject(text)
	if key == "" {
		c.Custom = append(c.Custom, Tag{Name: tag, Text: text})
		return diag.New(diag.MalformedCommentSyntax, "@%s without a subject", tag), false
	}
	if _, dup := into[key]; !dup {
		into[key] = body
	}
	return diag.Diagnostic{}, true
}
