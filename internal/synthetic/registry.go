// Package synthetic exposes synthetic-data generators as a tree of dotted paths
// such as "faker.person.firstName". Templates invoke them by path.
package synthetic

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrPathNotFound = errors.New("synthetic path not found")
	ErrNotInvocable = errors.New("synthetic path is a namespace")
	ErrInvalidArgs  = errors.New("invalid synthetic function arguments")
)

// Func produces a value from decoded JSON arguments.
type Func func(args []interface{}) (interface{}, error)

type node struct {
	fn       Func
	children map[string]*node
}

// Registry is an immutable-after-construction tree of generators. Lookups are
// safe for concurrent use once registration is done.
type Registry struct {
	root *node
}

func NewRegistry() *Registry {
	return &Registry{root: &node{children: make(map[string]*node)}}
}

// Register binds fn at path, creating intermediate namespaces.
func (r *Registry) Register(path string, fn Func) {
	cur := r.root
	for _, seg := range strings.Split(path, ".") {
		next, ok := cur.children[seg]
		if !ok {
			next = &node{children: make(map[string]*node)}
			cur.children[seg] = next
		}
		cur = next
	}
	cur.fn = fn
}

// Lookup walks path one segment at a time.
func (r *Registry) Lookup(path string) (Func, error) {
	if path == "" {
		return nil, ErrPathNotFound
	}
	cur := r.root
	for _, seg := range strings.Split(path, ".") {
		next, ok := cur.children[seg]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		cur = next
	}
	if cur.fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInvocable, path)
	}
	return cur.fn, nil
}

// Paths returns every invocable path, sorted.
func (r *Registry) Paths() []string {
	var out []string
	var walk func(prefix string, n *node)
	walk = func(prefix string, n *node) {
		if n.fn != nil {
			out = append(out, prefix)
		}
		for seg, child := range n.children {
			p := seg
			if prefix != "" {
				p = prefix + "." + seg
			}
			walk(p, child)
		}
	}
	walk("", r.root)
	sort.Strings(out)
	return out
}
