package value

import "golang.org/x/exp/slices"

// Variable is a named storage cell (spec.md §3): (name, Value). It is
// always referenced through a pointer so its address stays stable for the
// lifetime of the owning Scope, letting an LValue RValue alias it.
type Variable struct {
	Name  string
	Value Value
}

// Scope is a mapping from variable name to Variable (spec.md §3/§4.8).
// Lookup order within a scope does not matter; only the stack of scopes
// (see Stack below) has an order.
type Scope struct {
	vars map[string]*Variable
}

func NewScope() *Scope {
	return &Scope{vars: make(map[string]*Variable)}
}

// Get returns the binding for name in this scope only, or nil.
func (s *Scope) Get(name string) *Variable {
	return s.vars[name]
}

// SetOrInsert overwrites name's value if bound in this scope, or creates
// a fresh binding otherwise, returning the (possibly new) Variable.
func (s *Scope) SetOrInsert(name string, v Value) *Variable {
	if existing, ok := s.vars[name]; ok {
		existing.Value = v
		return existing
	}
	created := &Variable{Name: name, Value: v}
	s.vars[name] = created
	return created
}

// Remove erases name's binding, reporting whether one existed.
func (s *Scope) Remove(name string) bool {
	if _, ok := s.vars[name]; !ok {
		return false
	}
	delete(s.vars, name)
	return true
}

// Stack is the runtime's scope stack (spec.md §4.8): SCOPE_PUSH appends,
// SCOPE_POP drops the top, and name resolution scans top-to-bottom,
// returning the nearest binding.
type Stack struct {
	scopes []*Scope
}

func NewStack() *Stack {
	return &Stack{}
}

func (s *Stack) Push() {
	s.scopes = append(s.scopes, NewScope())
}

// Pop drops the innermost scope. It panics on an empty stack: popping a
// scope that was never pushed is an InternalInvariant condition, caught
// by the runtime's opcode-dispatch recover (see internal/runtime).
func (s *Stack) Pop() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

func (s *Stack) Depth() int { return len(s.scopes) }

// Innermost returns the top-of-stack scope, where new bindings are
// created (spec.md §4.8: "A set without an existing binding creates it
// in the innermost scope").
func (s *Stack) Innermost() *Scope {
	return s.scopes[len(s.scopes)-1]
}

// RootNames returns the bottom-of-stack scope's variable names, sorted —
// used by --stats to print that scope's bindings deterministically. Under
// internal/runtime the bottom scope holds the builtins; the chunk's own
// bindings live in the scope its SCOPE_PUSH adds above it.
func (s *Stack) RootNames() []string {
	if len(s.scopes) == 0 {
		return nil
	}
	root := s.scopes[0]
	out := make([]string, 0, len(root.vars))
	for name := range root.vars {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Resolve walks the stack top-to-bottom looking for name, returning the
// nearest binding or nil.
func (s *Stack) Resolve(name string) *Variable {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v := s.scopes[i].Get(name); v != nil {
			return v
		}
	}
	return nil
}

// ResolveOrCreate implements RESOLVE_NAME's auto-creating lookup (spec
// §4.3): an absent name is bound to Nil in the innermost scope rather
// than failing.
func (s *Stack) ResolveOrCreate(name string) *Variable {
	if v := s.Resolve(name); v != nil {
		return v
	}
	return s.Innermost().SetOrInsert(name, NilValue())
}

// Unset clears the nearest binding of name, scanning top-to-bottom like
// Resolve. No runcall opcode calls it: an assignment with no matching
// expression stores Nil through ASSIGN instead (see internal/lower).
func (s *Stack) Unset(name string) bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].Remove(name) {
			return true
		}
	}
	return false
}
