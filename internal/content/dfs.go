package content

// Walk visits n and its descendants depth-first, pre-order. Returning false
// from fn skips the children of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// DFS returns the first node, in depth-first pre-order, that satisfies pred.
func DFS(n *Node, pred func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	if pred(n) {
		return n
	}
	for _, c := range n.Children {
		if found := DFS(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node satisfying pred in depth-first pre-order.
func FindAll(n *Node, pred func(*Node) bool) []*Node {
	var out []*Node
	Walk(n, func(c *Node) bool {
		if pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// PageDFS returns the first page, in depth-first pre-order, that satisfies pred.
func PageDFS(p *Page, pred func(*Page) bool) *Page {
	if p == nil {
		return nil
	}
	if pred(p) {
		return p
	}
	for _, c := range p.Children {
		if found := PageDFS(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// Pages returns p and all its descendants in depth-first pre-order.
func Pages(p *Page) []*Page {
	if p == nil {
		return nil
	}
	out := []*Page{p}
	for _, c := range p.Children {
		out = append(out, Pages(c)...)
	}
	return out
}

// Kinds returns a predicate matching nodes of type t and kind k.
func Kinds(t Type, k Kind) func(*Node) bool {
	return func(n *Node) bool { return n.Type == t && n.DCI.Kind == k }
}
