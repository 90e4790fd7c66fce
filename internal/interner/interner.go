// Package interner provides process-wide symbol interning for identifiers
// and string literals, turning repeated string comparisons into O(1)
// integer comparisons for the lexer, parser, compiler and VM.
package interner

import "sync"

// Sym is an opaque 32-bit handle for an interned string. Sym values are
// stable for the lifetime of the Interner that produced them and compare
// equal iff the underlying strings are equal.
type Sym uint32

// Invalid is the zero value, never returned by Intern.
const Invalid Sym = 0

// Interner interns strings to Sym handles. It is append-only: once a
// string has been interned its Sym never changes and is never reused.
// Reads (Lookup, String) take the read side of an RWMutex, so they run
// concurrently with each other; writes take the write side and are
// serialized, because multiple compiler instances may share one
// Interner within a single engine.
type Interner struct {
	mu      sync.RWMutex
	byValue map[string]Sym
	byID    []string
}

// New creates an empty Interner. The zero Sym is reserved, so the first
// interned string receives Sym(1).
func New() *Interner {
	return &Interner{
		byValue: make(map[string]Sym),
		byID:    []string{""}, // index 0 unused, keeps Invalid == 0 meaningless
	}
}

// Intern returns the Sym for s, allocating a new one if s has not been
// seen before.
func (in *Interner) Intern(s string) Sym {
	in.mu.RLock()
	if id, ok := in.byValue[s]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.byValue[s]; ok {
		return id
	}
	id := Sym(len(in.byID))
	in.byID = append(in.byID, s)
	in.byValue[s] = id
	return id
}

// String resolves a Sym back to its string. Returns "" for Invalid or an
// unknown Sym.
func (in *Interner) String(id Sym) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) <= 0 || int(id) >= len(in.byID) {
		return ""
	}
	return in.byID[id]
}

// Lookup returns the Sym already assigned to s, if any, without
// allocating a new one.
func (in *Interner) Lookup(s string) (Sym, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.byValue[s]
	return id, ok
}

// Len returns the number of distinct interned strings.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.byID) - 1
}
