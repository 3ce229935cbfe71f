// Package comment parses raw documentation comments into a structured model.
//
// Two dialects are supported. KDoc descriptions are Markdown and are parsed with
// goldmark; Javadoc descriptions are HTML and are tokenized with x/net/html. Both
// share the block tag syntax (`@tag value`), which is split off before the
// description is parsed, so tag text never ends up in a description block.
package comment

import "strings"

// Dialect selects the comment syntax.
type Dialect string

const (
	KDoc    Dialect = "kdoc"
	Javadoc Dialect = "javadoc"
)

// DialectFor returns the dialect used by comments written in a source language.
// Java sources use Javadoc, everything else KDoc.
func DialectFor(language string) Dialect {
	if strings.EqualFold(language, "java") {
		return Javadoc
	}
	return KDoc
}

// SpanKind classifies an inline span of a description block.
type SpanKind string

const (
	SpanText   SpanKind = "text"
	SpanMarkup SpanKind = "markup" // opaque: HTML comments and tags
	SpanCode   SpanKind = "code"
	SpanLink   SpanKind = "link"
)

// Span is a run of inline content.
type Span struct {
	Kind   SpanKind `json:"kind"`
	Text   string   `json:"text"`
	Target string   `json:"target,omitempty"`
}

// Block is one description paragraph.
type Block []Span

// Text joins the span texts.
func (b Block) Text() string {
	var sb strings.Builder
	for _, s := range b {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// add appends a span, merging adjacent text spans.
func (b *Block) add(kind SpanKind, text string) {
	if text == "" {
		return
	}
	if kind == SpanText && len(*b) > 0 {
		last := &(*b)[len(*b)-1]
		if last.Kind == SpanText {
			last.Text += text
			return
		}
	}
	*b = append(*b, Span{Kind: kind, Text: text})
}

// compact trims surrounding whitespace of the block and drops empty text spans.
func (b Block) compact() Block {
	out := make(Block, 0, len(b))
	for _, s := range b {
		if s.Kind == SpanText && s.Text == "" {
			continue
		}
		out = append(out, s)
	}
	for len(out) > 0 && out[0].Kind == SpanText {
		out[0].Text = strings.TrimLeft(out[0].Text, " \t\n")
		if out[0].Text != "" {
			break
		}
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1].Kind == SpanText {
		last := &out[len(out)-1]
		last.Text = strings.TrimRight(last.Text, " \t\n")
		if last.Text != "" {
			break
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Tag is a block tag kept verbatim because it is unknown or malformed.
type Tag struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Comment is the structured form of a raw comment.
//
// Params, Properties and Constructor are distinct slots: text written for a
// parameter is never visible as constructor documentation and vice versa.
type Comment struct {
	Dialect     Dialect
	Description []Block

	Params      map[string]string
	Properties  map[string]string
	Throws      map[string]string
	Constructor string
	Return      string
	Receiver    string
	Since       string
	Author      string
	Deprecated  string
	See         []string
	Samples     []string
	Suppress    bool

	// Custom holds unknown and malformed tags in source order.
	Custom []Tag
}

func newComment(d Dialect) *Comment {
	return &Comment{
		Dialect:    d,
		Params:     map[string]string{},
		Properties: map[string]string{},
		Throws:     map[string]string{},
	}
}

// Empty returns an empty comment of the dialect.
func Empty(d Dialect) *Comment {
	return newComment(d)
}

// IsEmpty reports whether the comment carries neither description nor tags.
func (c *Comment) IsEmpty() bool {
	return len(c.Description) == 0 && !c.HasTags()
}

// HasTags reports whether any block tag was parsed.
func (c *Comment) HasTags() bool {
	return len(c.Params) > 0 || len(c.Properties) > 0 || len(c.Throws) > 0 ||
		c.Constructor != "" || c.Return != "" || c.Receiver != "" || c.Since != "" ||
		c.Author != "" || c.Deprecated != "" || len(c.See) > 0 || len(c.Samples) > 0 ||
		c.Suppress || len(c.Custom) > 0
}

// HasDescription reports whether the description has any content. Members
// without a description inherit documentation from their ancestors.
func (c *Comment) HasDescription() bool {
	return len(c.Description) > 0
}

// DescriptionText joins the description blocks with blank lines.
func (c *Comment) DescriptionText() string {
	parts := make([]string, len(c.Description))
	for i, b := range c.Description {
		parts[i] = b.Text()
	}
	return strings.Join(parts, "\n\n")
}
