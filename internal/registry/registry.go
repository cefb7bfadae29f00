// Package registry holds the static name -> probe table the harness runs from.
package registry

import (
	"errors"
	"fmt"
	"iter"
)

// ProbeFn runs one probe. A nil error means the probe passed; otherwise the
// error text is the failure message shown to the user.
type ProbeFn func() error

var (
	ErrDuplicate = errors.New("duplicate probe name")
	ErrEmptyName = errors.New("empty probe name")
	ErrNilProbe  = errors.New("nil probe func")
)

type entry struct {
	name string
	fn   ProbeFn
}

// Builder collects registrations in definition order. It is not safe for
// concurrent use; registration happens once at startup.
type Builder struct {
	entries []entry
	seen    map[string]struct{}
	err     error
}

func NewBuilder() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// Register adds a probe. The first bad registration is remembered and
// returned by Build; later calls are ignored.
func (b *Builder) Register(name string, fn ProbeFn) *Builder {
	if b.err != nil {
		return b
	}
	switch {
	case name == "":
		b.err = ErrEmptyName
	case fn == nil:
		b.err = fmt.Errorf("%w: %q", ErrNilProbe, name)
	default:
		if _, dup := b.seen[name]; dup {
			b.err = fmt.Errorf("%w: %q", ErrDuplicate, name)
			return b
		}
		b.seen[name] = struct{}{}
		b.entries = append(b.entries, entry{name: name, fn: fn})
	}
	return b
}

// Build freezes the table. The builder must not be reused afterwards.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := &Registry{
		order: make([]string, 0, len(b.entries)),
		byKey: make(map[string]ProbeFn, len(b.entries)),
	}
	for _, e := range b.entries {
		r.order = append(r.order, e.name)
		r.byKey[e.name] = e.fn
	}
	return r, nil
}

// MustBuild is Build for tables known at compile time.
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

// Registry is an immutable name -> probe table.
type Registry struct {
	order []string
	byKey map[string]ProbeFn
}

// Lookup is an exact, case-sensitive match.
func (r *Registry) Lookup(name string) (ProbeFn, bool) {
	fn, ok := r.byKey[name]
	return fn, ok
}

// All yields every registered name in definition order. The sequence can be
// ranged over any number of times.
func (r *Registry) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range r.order {
			if !yield(name) {
				return
			}
		}
	}
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

