package linkeddata

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"

	"github.com/openarchive/repository-index-adapter/document"
)

// Object is the object position of a statement. Exactly one of the members
// is meaningful: Ref points at another subject in the graph, List holds an
// ordered sequence of objects, and Literal carries a scalar JSON value
// (including null).
type Object struct {
	Literal interface{}
	Ref     string
	List    []Object
}

// Statement is a single subject-predicate-object triple.
type Statement struct {
	Subject   string
	Predicate string
	Object    Object
}

// Graph is an ordered list of statements merged from one or more JSON
// sources. Statement order is the merge order, which framing relies on to
// resolve duplicate predicates ("last merged wins").
type Graph struct {
	statements []Statement
	blanks     int
}

// Add appends a single statement to the graph.
func (g *Graph) Add(s Statement) {
	g.statements = append(g.statements, s)
}

// AddDocument decomposes a JSON document into statements and merges them into
// the graph. Nested objects become their own subjects: the value of their
// "id" field when they carry one, a blank node otherwise. Objects that share
// an "id" therefore collapse into a single subject, which is how externally
// fetched fragments attach to the references that point at them. The subject
// of the document's root node is returned.
func (g *Graph) AddDocument(d document.Document) string {
	return g.addNode(d)
}

func (g *Graph) addNode(m map[string]interface{}) string {
	subject := cast.ToString(m["id"])
	if subject == "" {
		subject = fmt.Sprintf("_:b%d", g.blanks)
		g.blanks++
	}
	// Key order is not significant in JSON; sort for a deterministic
	// statement list.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		g.Add(Statement{Subject: subject, Predicate: k, Object: g.object(m[k])})
	}
	return subject
}

func (g *Graph) object(v interface{}) Object {
	switch value := v.(type) {
	case map[string]interface{}:
		return Object{Ref: g.addNode(value)}
	case []interface{}:
		list := make([]Object, len(value))
		for i, item := range value {
			list[i] = g.object(item)
		}
		return Object{List: list}
	default:
		return Object{Literal: v}
	}
}
