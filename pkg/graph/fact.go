package graph

import "fmt"

// DefaultGraph is the partition used when a fact names no graph.
const DefaultGraph = "default"

// Fact is a single quad (subject, predicate, object, graph). The graph
// identifier partitions the store so independent extraction runs and
// projects can coexist in one database.
type Fact struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    any    `json:"object"`
	Graph     string `json:"graph"`
}

// String returns a human-readable representation of the fact.
func (f Fact) String() string {
	g := f.Graph
	if g == "" {
		g = DefaultGraph
	}
	return fmt.Sprintf("<%s, %s, %v> @%s", f.Subject, f.Predicate, f.Object, g)
}

// IsValid reports whether the fact has all required fields.
func (f Fact) IsValid() bool {
	return f.Subject != "" && f.Predicate != "" && f.Object != nil
}

// NewFact creates a fact in the default graph.
func NewFact(subject, predicate string, object any) Fact {
	return Fact{Subject: subject, Predicate: predicate, Object: object, Graph: DefaultGraph}
}

// NewFactInGraph creates a fact in a specific graph. An empty graph name
// falls back to the default graph.
func NewFactInGraph(subject, predicate string, object any, graph string) Fact {
	if graph == "" {
		graph = DefaultGraph
	}
	return Fact{Subject: subject, Predicate: predicate, Object: object, Graph: graph}
}
