package comment

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// kdocLink matches KDoc declaration links such as [Foo] or [kotlin.String].
var kdocLink = regexp.MustCompile(`\[([A-Za-z_][\w.]*)\]`)

// parseMarkdown parses a KDoc description into paragraph blocks.
func parseMarkdown(src string) []Block {
	source := []byte(src)
	root := goldmark.New().Parser().Parse(gmtext.NewReader(source))

	var blocks []Block
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if b := markdownBlock(n, source); len(b) > 0 {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func markdownBlock(n gmast.Node, source []byte) Block {
	switch node := n.(type) {
	case *gmast.Paragraph, *gmast.Heading, *gmast.TextBlock:
		var b Block
		appendInlines(&b, n, source)
		return linkDeclarations(b.compact())
	case *gmast.FencedCodeBlock, *gmast.CodeBlock:
		return Block{{Kind: SpanCode, Text: strings.TrimRight(linesText(n, source), "\n")}}
	case *gmast.HTMLBlock:
		raw := linesText(n, source)
		if node.HasClosure() {
			raw += string(node.ClosureLine.Value(source))
		}
		return Block{{Kind: SpanMarkup, Text: strings.TrimRight(raw, "\n")}}
	default:
		// Lists and block quotes flatten into one block.
		var b Block
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			sub := markdownBlock(c, source)
			if len(sub) == 0 {
				continue
			}
			if len(b) > 0 {
				b.add(SpanText, " ")
			}
			for _, s := range sub {
				if s.Kind == SpanText {
					b.add(SpanText, s.Text)
					continue
				}
				b = append(b, s)
			}
		}
		return b.compact()
	}
}

func appendInlines(b *Block, parent gmast.Node, source []byte) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *gmast.Text:
			b.add(SpanText, normalizeText(string(node.Segment.Value(source))))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.add(SpanText, " ")
			}
		case *gmast.String:
			b.add(SpanText, normalizeText(string(node.Value)))
		case *gmast.CodeSpan:
			*b = append(*b, Span{Kind: SpanCode, Text: inlineText(node, source)})
		case *gmast.RawHTML:
			var sb strings.Builder
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				sb.Write(seg.Value(source))
			}
			*b = append(*b, Span{Kind: SpanMarkup, Text: sb.String()})
		case *gmast.Link:
			*b = append(*b, Span{Kind: SpanLink, Text: inlineText(node, source), Target: string(node.Destination)})
		case *gmast.AutoLink:
			url := string(node.URL(source))
			*b = append(*b, Span{Kind: SpanLink, Text: url, Target: url})
		default:
			appendInlines(b, c, source)
		}
	}
}

// inlineText flattens the text of an inline subtree.
func inlineText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return sb.String()
}

func linesText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(source))
	}
	return sb.String()
}

// linkDeclarations splits [Name] references out of text spans. Goldmark leaves
// them as text because they have no link definition.
func linkDeclarations(b Block) Block {
	var out Block
	for _, s := range b {
		if s.Kind != SpanText || !kdocLink.MatchString(s.Text) {
			out = append(out, s)
			continue
		}
		rest := s.Text
		for _, m := range kdocLink.FindAllStringSubmatchIndex(s.Text, -1) {
			offset := len(s.Text) - len(rest)
			out.add(SpanText, rest[:m[0]-offset])
			target := s.Text[m[2]:m[3]]
			out = append(out, Span{Kind: SpanLink, Text: target, Target: target})
			rest = s.Text[m[1]:]
		}
		out.add(SpanText, rest)
	}
	return out
}
