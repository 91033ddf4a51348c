// Package resource models the knowledge-graph description an extractor
// module produces for a file. A resource has an identifier, rdf types,
// literal properties and named relations to other resources (equipment,
// creator contacts, logical sub-resources of the same file).
package resource

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"fsminer/pkg/graph"
)

// Resource is one described entity. The zero value is not usable; create
// resources with New.
type Resource struct {
	identifier string
	types      []string
	props      map[string][]any
	relations  map[string][]*Resource
}

// New creates a resource with the given identifier. An empty identifier
// makes a blank node; Facts assigns it a local label on flattening.
func New(identifier string) *Resource {
	return &Resource{
		identifier: identifier,
		props:      make(map[string][]any),
		relations:  make(map[string][]*Resource),
	}
}

// Identifier returns the resource identifier; empty for blank nodes.
func (r *Resource) Identifier() string {
	return r.identifier
}

// AddType adds an rdf:type. Duplicates are ignored.
func (r *Resource) AddType(uri string) {
	for _, t := range r.types {
		if t == uri {
			return
		}
	}
	r.types = append(r.types, uri)
}

// Types returns the rdf types in insertion order.
func (r *Resource) Types() []string {
	return r.types
}

// SetString sets a single-valued string property, replacing any prior value.
func (r *Resource) SetString(prop, value string) {
	r.props[prop] = []any{value}
}

// SetInt64 sets a single-valued integer property.
func (r *Resource) SetInt64(prop string, value int64) {
	r.props[prop] = []any{value}
}

// SetFloat64 sets a single-valued float property.
func (r *Resource) SetFloat64(prop string, value float64) {
	r.props[prop] = []any{value}
}

// SetTime sets a date property in ISO 8601 form.
func (r *Resource) SetTime(prop string, t time.Time) {
	r.props[prop] = []any{t.Format(time.RFC3339)}
}

// AddURI appends a URI value to a multi-valued property.
func (r *Resource) AddURI(prop, uri string) {
	r.props[prop] = append(r.props[prop], uri)
}

// First returns the first value of a property.
func (r *Resource) First(prop string) (any, bool) {
	vs := r.props[prop]
	if len(vs) == 0 {
		return nil, false
	}
	return vs[0], true
}

// Has reports whether the property carries at least one value.
func (r *Resource) Has(prop string) bool {
	return len(r.props[prop]) > 0
}

// SetRelation sets a single-valued relation to another resource, replacing
// any prior value.
func (r *Resource) SetRelation(prop string, rel *Resource) {
	r.relations[prop] = []*Resource{rel}
}

// AddRelation appends to a multi-valued relation.
func (r *Resource) AddRelation(prop string, rel *Resource) {
	r.relations[prop] = append(r.relations[prop], rel)
}

// FirstRelation returns the first related resource for a relation, or nil.
func (r *Resource) FirstRelation(prop string) *Resource {
	rels := r.relations[prop]
	if len(rels) == 0 {
		return nil
	}
	return rels[0]
}

// Facts flattens the resource and everything it relates to into quads for
// the given graph. Related resources contribute their own facts plus one
// linking fact from this resource. Shared or cyclic relations are emitted
// once.
func (r *Resource) Facts(graphName string) []graph.Fact {
	var out []graph.Fact
	blank := 0
	visited := make(map[*Resource]string)
	r.flatten(graphName, visited, &blank, &out)
	return out
}

func (r *Resource) flatten(graphName string, visited map[*Resource]string, blank *int, out *[]graph.Fact) string {
	if id, ok := visited[r]; ok {
		return id
	}
	id := r.identifier
	if id == "" {
		*blank++
		id = fmt.Sprintf("_:b%d", *blank)
	}
	visited[r] = id

	for _, t := range r.types {
		*out = append(*out, graph.NewFactInGraph(id, "rdf:type", t, graphName))
	}
	for _, prop := range sortedKeys(r.props) {
		for _, v := range r.props[prop] {
			*out = append(*out, graph.NewFactInGraph(id, prop, v, graphName))
		}
	}
	for _, prop := range sortedRelKeys(r.relations) {
		for _, rel := range r.relations[prop] {
			relID := rel.flatten(graphName, visited, blank, out)
			*out = append(*out, graph.NewFactInGraph(id, prop, relID, graphName))
		}
	}
	return id
}

// MarshalJSON renders the resource as a nested object, relations included.
// Used by the one-shot extract CLI.
func (r *Resource) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any)
	if r.identifier != "" {
		obj["@id"] = r.identifier
	}
	if len(r.types) > 0 {
		obj["rdf:type"] = r.types
	}
	for prop, vs := range r.props {
		if len(vs) == 1 {
			obj[prop] = vs[0]
		} else {
			obj[prop] = vs
		}
	}
	for prop, rels := range r.relations {
		if len(rels) == 1 {
			obj[prop] = rels[0]
		} else {
			obj[prop] = rels
		}
	}
	return json.Marshal(obj)
}

func sortedKeys(m map[string][]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedRelKeys(m map[string][]*Resource) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
