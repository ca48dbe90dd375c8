// Package handles keeps foreign handles behind opaque tokens, so that
// a handle whose owner has been closed is detected instead of reused.
package handles

import "sync"

// Token refers to an entry of a Table.
// The zero Token never refers to anything.
type Token struct {
	id  uint32
	gen uint32
}

// IsZero reports whether t is the zero Token.
func (t Token) IsZero() bool {
	return t.id == 0
}

// Table maps tokens to values. Reset invalidates every token issued so far.
type Table[T any] struct {
	mu    sync.Mutex
	gen   uint32
	next  uint32
	items map[uint32]T
}

// Put stores v and returns a token for it.
func (t *Table[T]) Put(v T) Token {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.items == nil {
		t.items = make(map[uint32]T)
	}
	t.next++
	t.items[t.next] = v
	return Token{id: t.next, gen: t.gen}
}

// Get returns the value for tok, or false if tok is stale or unknown.
func (t *Table[T]) Get(tok Token) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	if tok.id == 0 || tok.gen != t.gen {
		return zero, false
	}
	v, ok := t.items[tok.id]
	return v, ok
}

// Delete removes the entry for tok, if any.
func (t *Table[T]) Delete(tok Token) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tok.gen == t.gen {
		delete(t.items, tok.id)
	}
}

// Values returns the live values in the order they were stored.
func (t *Table[T]) Values() []T {
	t.mu.Lock()
	defer t.mu.Unlock()

	values := make([]T, 0, len(t.items))
	for id := uint32(1); id <= t.next; id++ {
		if v, ok := t.items[id]; ok {
			values = append(values, v)
		}
	}
	return values
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// Reset drops every entry and invalidates all outstanding tokens.
func (t *Table[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	t.next = 0
	clear(t.items)
}
