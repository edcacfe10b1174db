package vnode

import "testing"

// label names a node for assertions: its "id" attribute if set, else Name.
func label(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	if id, ok := n.Attr("id"); ok {
		return id
	}
	return n.Name()
}

func labels(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, label(n))
	}
	return out
}

func named(k *Kind, id string) *Node {
	n := New(k)
	n.SetAttr("id", id)
	return n
}

func char(t *testing.T, s string) *Node {
	t.Helper()
	n, err := NewChar(s)
	if err != nil {
		t.Fatalf("NewChar(%q): %v", s, err)
	}
	return n
}

func mustAppend(t *testing.T, parent *Node, children ...*Node) {
	t.Helper()
	if err := parent.Append(children...); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

// checkLinks verifies parent/child symmetry over the whole subtree.
func checkLinks(t *testing.T, n *Node) {
	t.Helper()
	for _, c := range n.children {
		if c.parent != n {
			t.Errorf("%s: child %s has parent %s", label(n), label(c), label(c.parent))
		}
		count := 0
		for _, o := range n.children {
			if o == c {
				count++
			}
		}
		if count != 1 {
			t.Errorf("%s: child %s appears %d times", label(n), label(c), count)
		}
		checkLinks(t, c)
	}
}
