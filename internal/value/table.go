package value

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Table implements spec.md §3's Table: a mapping from non-Nil keys to
// values, reference-shared across copies of a Table Value.
//
// Entries are boxed (map to *Value, not Value) so that TABLE_ACCESS
// (spec §4.3, §6) can hand back a stable pointer into the table for an
// LValue RValue to alias — a bare Go map does not let you take the
// address of a value stored in it.
type Table struct {
	entries map[tableKey]*Value
	// insertion order of live keys, so StringKeys lists keys in a stable
	// order; the spec leaves iteration order unspecified, but a stable
	// dump is worth the bookkeeping for debuggability.
	order []tableKey
}

func NewTable() *Table {
	return &Table{entries: make(map[tableKey]*Value)}
}

// Get returns the value stored at key, or Nil if key is absent or Nil
// itself (spec §3: "Lookup of a missing key returns Nil").
func (t *Table) Get(key Value) Value {
	if key.IsNil() {
		return NilValue()
	}
	if slot, ok := t.entries[key.key()]; ok {
		return *slot
	}
	return NilValue()
}

// Slot returns a stable pointer to key's entry, creating a Nil-valued one
// if absent. This is what TABLE_ACCESS hands the lowering pass/runtime so
// the resulting RValue can alias the entry as an LValue (spec §4.3).
func (t *Table) Slot(key Value) *Value {
	k := key.key()
	if slot, ok := t.entries[k]; ok {
		return slot
	}
	slot := new(Value)
	*slot = NilValue()
	t.entries[k] = slot
	t.order = append(t.order, k)
	return slot
}

// Set stores value at key, deleting the entry when value is Nil (spec §3,
// §8 invariant 6). Setting a Nil key is rejected by the caller via
// diagnostics.InvalidTableKey before Set is ever reached.
func (t *Table) Set(key, val Value) {
	k := key.key()
	if val.IsNil() {
		if _, ok := t.entries[k]; ok {
			delete(t.entries, k)
			t.removeOrder(k)
		}
		return
	}
	if slot, ok := t.entries[k]; ok {
		*slot = val
		return
	}
	slot := new(Value)
	*slot = val
	t.entries[k] = slot
	t.order = append(t.order, k)
}

func (t *Table) removeOrder(k tableKey) {
	for i, o := range t.order {
		if o == k {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

// Len reports the number of live entries, used by --stats; it is not the
// source language's `#` operator (see SPEC_FULL: Length is rejected).
func (t *Table) Len() int { return len(t.entries) }

// StringKeys returns table keys that are of Kind String, in insertion
// order. Neither print() nor --stats calls it; print() renders a table as
// its address.
func (t *Table) StringKeys() []string {
	out := make([]string, 0, len(t.order))
	for _, k := range t.order {
		if k.kind == String {
			out = append(out, k.str)
		}
	}
	return out
}

// Snapshot returns a defensive copy of the table's live entries, rendered
// value, keyed by each key's label(). Nothing in cmd/luagen, the lowering
// pass or the runtime calls it; they only ever go through Get/Slot/Set.
func (t *Table) Snapshot() map[string]Value {
	raw := make(map[tableKey]*Value, len(t.entries))
	for k, v := range t.entries {
		raw[k] = v
	}
	out := make(map[string]Value, len(raw))
	for _, k := range maps.Keys(raw) {
		out[k.label()] = *raw[k]
	}
	return out
}

// SortedLabels returns every live key's label(), sorted, so a table's
// field list reads the same way on every run regardless of Go's
// randomized map iteration order. cmd/luagen's --stats does not call it.
func (t *Table) SortedLabels() []string {
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k.label())
	}
	slices.Sort(out)
	return out
}

func (k tableKey) label() string {
	switch k.kind {
	case String:
		return k.str
	case Boolean:
		if k.num != 0 {
			return "true"
		}
		return "false"
	case Real:
		return RealValue(k.num).String()
	case Table:
		return "table"
	default:
		return k.kind.String()
	}
}
