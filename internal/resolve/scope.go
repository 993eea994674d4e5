package resolve

// scope is the per-function symbol table: parameter and let-bound variable
// names mapped to inferred base type names, plus the enclosing self type
// inside an impl block. It lives only for the duration of one function's
// Pass 2 walk.
type scope struct {
	vars     map[string]string
	selfType string
}

func newScope(selfType string) *scope {
	return &scope{vars: make(map[string]string), selfType: selfType}
}

// bind records a variable's inferred type. An empty type is a valid
// binding: the name is in scope but its type could not be inferred.
func (s *scope) bind(name, typ string) {
	s.vars[name] = typ
}

// lookup returns the recorded type for a variable name. The second return
// distinguishes "never bound" from "bound with unknown type".
func (s *scope) lookup(name string) (string, bool) {
	t, ok := s.vars[name]
	return t, ok
}
