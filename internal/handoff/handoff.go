// Package handoff delivers a finished page tree to its consumers: a JSON file
// for local renderers and, optionally, one JetStream message per page.
package handoff

import (
	"context"

	"git.home.luguber.info/inful/apidoc/internal/content"
)

// Publisher hands a page tree over to a consumer.
type Publisher interface {
	// Publish delivers the tree and returns how many pages were handed off.
	Publish(ctx context.Context, buildID string, root *content.Page) (int, error)
	Close() error
}

// PageMessage is one page without its children, addressed by the names of
// the pages leading to it.
type PageMessage struct {
	BuildID string        `json:"build_id"`
	Path    []string      `json:"path"`
	Page    *content.Page `json:"page"`
}

// Flatten lists every page of the tree in depth-first order.
func Flatten(buildID string, root *content.Page) []PageMessage {
	var out []PageMessage
	var walk func(p *content.Page, parent []string)
	walk = func(p *content.Page, parent []string) {
		path := append(append([]string(nil), parent...), p.Name)
		out = append(out, PageMessage{
			BuildID: buildID,
			Path:    path,
			Page: &content.Page{
				Name:          p.Name,
				Documentables: p.Documentables,
				Content:       p.Content,
			},
		})
		for _, c := range p.Children {
			walk(c, path)
		}
	}
	if root != nil {
		walk(root, nil)
	}
	return out
}

// Multi publishes to every publisher in order and stops at the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, buildID string, root *content.Page) (int, error) {
	total := 0
	for _, p := range m {
		n, err := p.Publish(ctx, buildID, root)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (m Multi) Close() error {
	var first error
	for _, p := range m {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
