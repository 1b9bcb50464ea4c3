// Package arena provides single-lifetime bulk allocation helpers for the
// evaluator pipeline. Go's runtime already garbage collects, so Arena does
// not manage raw memory; instead it gives every AST node, event payload and
// interned string a single owning lifetime tied to one evaluation run, and
// gives the rest of the pipeline one contagious out-of-memory flag instead
// of scattered allocation error checks, matching the C original's contract.
package arena

import "sync"

// Arena owns interned strings and scratch values for one evaluation run.
// The zero value is ready to use.
type Arena struct {
	mu      sync.Mutex
	strings map[string]string
	oom     bool
}

// New creates an empty Arena.
func New() *Arena {
	return &Arena{strings: make(map[string]string)}
}

// Intern returns a canonical copy of s owned by the arena. Repeated calls
// with an equal string return the same backing value, mirroring the
// original's strndup-into-arena dedup behavior for identifiers.
func (a *Arena) Intern(s string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if v, ok := a.strings[s]; ok {
		return v
	}
	a.strings[s] = s
	return s
}

// SetOOM marks the arena as out of memory. The flag is sticky: once set it
// never clears for the lifetime of the arena.
func (a *Arena) SetOOM() {
	a.mu.Lock()
	a.oom = true
	a.mu.Unlock()
}

// OOM reports whether SetOOM has been called on this arena.
func (a *Arena) OOM() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.oom
}

// Reset clears interned strings, as happens to the evaluator's temp arena
// between top-level commands. It does not clear the OOM flag: OOM is
// contagious for the whole run, not just one temp-arena generation.
func (a *Arena) Reset() {
	a.mu.Lock()
	a.strings = make(map[string]string)
	a.mu.Unlock()
}

// DynArray is a growable, arena-owned slice wrapper providing amortized
// O(1) append semantics with explicit, inspectable growth. Append keeps
// insertion order and does not deduplicate.
type DynArray[T any] struct {
	items []T
}

// Append adds v to the array.
func (d *DynArray[T]) Append(v T) {
	d.items = append(d.items, v)
}

// Reserve grows the backing slice to at least n elements of capacity,
// doubling like the original da_reserve, without touching existing values.
func (d *DynArray[T]) Reserve(n int) {
	if cap(d.items) >= n {
		return
	}
	newCap := cap(d.items)
	if newCap == 0 {
		newCap = 1
	}
	for newCap < n {
		newCap *= 2
	}
	grown := make([]T, len(d.items), newCap)
	copy(grown, d.items)
	d.items = grown
}

// Items returns the backing slice. Callers must not retain it past a Reset.
func (d *DynArray[T]) Items() []T { return d.items }

// Len returns the number of elements.
func (d *DynArray[T]) Len() int { return len(d.items) }
