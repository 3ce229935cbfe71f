package comment

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Inline tags are swapped for private-use slots before tokenizing, so type
// arguments such as {@code List<T>} never reach the HTML tokenizer.
const (
	slotOpen  = "\uE000"
	slotClose = "\uE001"
)

var (
	inlineSlot    = regexp.MustCompile(slotOpen + `(\d+)` + slotClose)
	inlineTag     = regexp.MustCompile(`(?s)^\{@(\w+)\s*(.*)\}$`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// parseHTML tokenizes a Javadoc description. Paragraph tags start new blocks,
// other tags and HTML comments become opaque markup spans.
func parseHTML(src string) []Block {
	src, tags := extractInlineTags(src)
	z := html.NewTokenizer(strings.NewReader(src))

	var blocks []Block
	var cur Block
	flush := func() {
		if b := cur.compact(); len(b) > 0 {
			blocks = append(blocks, b)
		}
		cur = nil
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			flush()
			return blocks
		case html.TextToken:
			text := whitespaceRun.ReplaceAllString(normalizeText(string(z.Text())), " ")
			cur = appendText(cur, text, tags)
		case html.CommentToken, html.DoctypeToken:
			cur = append(cur, Span{Kind: SpanMarkup, Text: restoreSlots(string(z.Raw()), tags)})
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// TagName lowercases the token buffer in place, so Raw goes first.
			raw := string(z.Raw())
			name, _ := z.TagName()
			if string(name) == "p" {
				if tt != html.EndTagToken {
					flush()
				}
				continue
			}
			cur = append(cur, Span{Kind: SpanMarkup, Text: restoreSlots(raw, tags)})
		}
	}
}

// extractInlineTags replaces every {@tag ...} with a numbered slot and returns
// the tags in slot order. Braces inside a tag nest; an unterminated tag is left
// as plain text.
func extractInlineTags(src string) (string, []string) {
	if !strings.Contains(src, "{@") {
		return src, nil
	}
	var sb strings.Builder
	var tags []string
	for {
		i := strings.Index(src, "{@")
		if i < 0 {
			break
		}
		end := closingBrace(src[i:])
		if end < 0 {
			break
		}
		sb.WriteString(src[:i])
		sb.WriteString(slotOpen + strconv.Itoa(len(tags)) + slotClose)
		tags = append(tags, src[i:i+end+1])
		src = src[i+end+1:]
	}
	sb.WriteString(src)
	return sb.String(), tags
}

func closingBrace(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func restoreSlots(s string, tags []string) string {
	if len(tags) == 0 {
		return s
	}
	return inlineSlot.ReplaceAllStringFunc(s, func(m string) string {
		return tags[slotIndex(m)]
	})
}

func slotIndex(slot string) int {
	n, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(slot, slotOpen), slotClose))
	return n
}

// appendText adds a text token to the block, turning slots back into code,
// link or opaque markup spans.
func appendText(b Block, text string, tags []string) Block {
	if len(tags) == 0 {
		b.add(SpanText, text)
		return b
	}
	last := 0
	for _, m := range inlineSlot.FindAllStringIndex(text, -1) {
		b.add(SpanText, text[last:m[0]])
		b = append(b, inlineSpan(tags[slotIndex(text[m[0]:m[1]])]))
		last = m[1]
	}
	b.add(SpanText, text[last:])
	return b
}

// inlineSpan converts {@code}, {@literal} and {@link} into code and link
// spans. Unknown inline tags stay opaque.
func inlineSpan(tag string) Span {
	m := inlineTag.FindStringSubmatch(tag)
	if m == nil {
		return Span{Kind: SpanMarkup, Text: tag}
	}
	arg := strings.TrimSpace(whitespaceRun.ReplaceAllString(normalizeText(m[2]), " "))
	switch m[1] {
	case "code", "literal":
		return Span{Kind: SpanCode, Text: arg}
	case "link", "linkplain":
		target, label := splitLink(arg)
		return Span{Kind: SpanLink, Text: label, Target: target}
	default:
		return Span{Kind: SpanMarkup, Text: tag}
	}
}

// splitLink separates a link reference from its label at the first space that
// is outside parentheses and type arguments, as in `#put(K, V) put`.
func splitLink(arg string) (target, label string) {
	depth := 0
	for i := 0; i < len(arg); i++ {
		switch arg[i] {
		case '(', '<':
			depth++
		case ')', '>':
			if depth > 0 {
				depth--
			}
		case ' ':
			if depth == 0 && i > 0 {
				if label = strings.TrimSpace(arg[i+1:]); label != "" {
					return arg[:i], label
				}
				return arg[:i], arg[:i]
			}
		}
	}
	return arg, arg
}

// normalizeText applies NFC and maps no-break spaces to plain spaces so sentence
// detection sees `e.g.&nbsp;x` the same way as `e.g. x`.
func normalizeText(s string) string {
	t := transform.Chain(norm.NFC, runes.Map(func(r rune) rune {
		if r == '\u00a0' {
			return ' '
		}
		return r
	}))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
