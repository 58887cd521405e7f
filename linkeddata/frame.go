package linkeddata

// Frame projects a merged graph into one nested JSON tree rooted at the
// given subject. For every subject, at most one value per predicate survives:
// when two merged sources contributed the same predicate, the later-merged
// statement wins. References are followed and embedded in place; a reference
// that participates in a cycle degrades to a bare id object.
func Frame(g *Graph, root string) map[string]interface{} {
	f := &framer{index: map[string]*node{}}
	for _, s := range g.statements {
		n, ok := f.index[s.Subject]
		if !ok {
			n = &node{predicates: map[string]Object{}}
			f.index[s.Subject] = n
		}
		if _, seen := n.predicates[s.Predicate]; !seen {
			n.order = append(n.order, s.Predicate)
		}
		n.predicates[s.Predicate] = s.Object
	}
	return f.frame(root, map[string]bool{})
}

type node struct {
	predicates map[string]Object
	order      []string
}

type framer struct {
	index map[string]*node
}

func (f *framer) frame(subject string, active map[string]bool) map[string]interface{} {
	if active[subject] {
		return map[string]interface{}{"id": subject}
	}
	n, ok := f.index[subject]
	if !ok {
		// A subject without statements is an empty object in the source.
		return map[string]interface{}{}
	}
	active[subject] = true
	defer delete(active, subject)

	out := make(map[string]interface{}, len(n.order))
	for _, predicate := range n.order {
		out[predicate] = f.value(n.predicates[predicate], active)
	}
	return out
}

func (f *framer) value(o Object, active map[string]bool) interface{} {
	switch {
	case o.List != nil:
		items := make([]interface{}, len(o.List))
		for i, item := range o.List {
			items[i] = f.value(item, active)
		}
		return items
	case o.Ref != "":
		return f.frame(o.Ref, active)
	default:
		return o.Literal
	}
}
