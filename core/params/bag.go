// Package params provides the per-statement registry that turns literal values
// into uniquely named placeholders. A single Bag is shared by every clause of a
// statement so that placeholder names never collide, no matter how many clauses
// were built independently before being merged.
package params

import (
	"maps"
	"strconv"
	"strings"
	"sync"
)

// DefaultHint is the base name used when a value is registered without a hint.
const DefaultHint = "p"

// Parameter is a value registered in a Bag under a unique name.
type Parameter struct {
	Name  string
	Value any
}

// String renders the placeholder as it appears in statement text, e.g. "$name".
func (p *Parameter) String() string {
	return "$" + p.Name
}

// Bag maps generated placeholder names to bound values. Names are unique for
// the lifetime of the bag and a registered value is never renamed or removed.
type Bag struct {
	mu     sync.RWMutex
	values map[string]any
	next   map[string]int
}

// NewBag creates an empty parameter bag.
func NewBag() *Bag {
	return &Bag{
		values: make(map[string]any),
		next:   make(map[string]int),
	}
}

// Register binds value under a fresh name derived from DefaultHint.
func (b *Bag) Register(value any) *Parameter {
	return b.RegisterAs(DefaultHint, value)
}

// RegisterAs binds value under a fresh name derived from hint. The hint is
// sanitized to [A-Za-z0-9_]; if the result is already taken a numeric suffix
// is appended ("years", "years_2", "years_3", ...).
func (b *Bag) RegisterAs(hint string, value any) *Parameter {
	b.mu.Lock()
	defer b.mu.Unlock()

	name := b.uniqueName(sanitize(hint))
	b.values[name] = value
	return &Parameter{Name: name, Value: value}
}

// uniqueName must be called with the lock held.
func (b *Bag) uniqueName(base string) string {
	if _, taken := b.values[base]; !taken {
		return base
	}
	n := b.next[base]
	if n < 2 {
		n = 2
	}
	for {
		candidate := base + "_" + strconv.Itoa(n)
		n++
		if _, taken := b.values[candidate]; !taken {
			b.next[base] = n
			return candidate
		}
	}
}

// Get returns the value registered under name.
func (b *Bag) Get(name string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[name]
	return v, ok
}

// Len returns the number of registered parameters.
func (b *Bag) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}

// Params returns a copy of every registered name and value.
func (b *Bag) Params() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.values)
}

// Scope returns a registration view over the bag that remembers which
// parameters were registered through it.
func (b *Bag) Scope() *Scope {
	return &Scope{bag: b}
}

// sanitize reduces a hint to characters that are safe to splice into
// statement text after a "$".
func sanitize(hint string) string {
	var sb strings.Builder
	for _, r := range hint {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	name := strings.Trim(sb.String(), "_")
	if name == "" {
		return DefaultHint
	}
	if name[0] >= '0' && name[0] <= '9' {
		return DefaultHint + name
	}
	return name
}
