package internal

// ScriptScope holds the properties and top-level globals declared by a
// script. Properties are visible, and shadow everything else, in every
// handler of the script; globals declared here by a top-level `global`
// are visible in every handler, while a `global` inside a handler is
// visible only in that handler.
type ScriptScope struct {
	PropOrder []string
	props     map[string]bool

	globalNames map[string]bool
}

// NewScriptScope creates an empty script scope.
func NewScriptScope() *ScriptScope {
	return &ScriptScope{props: make(map[string]bool), globalNames: make(map[string]bool)}
}

// DeclareProperty adds name to the script's property list. Returns false if
// name was already declared (a duplicate-declaration parse error).
func (s *ScriptScope) DeclareProperty(name string) bool {
	if s.props[name] {
		return false
	}
	s.props[name] = true
	s.PropOrder = append(s.PropOrder, name)
	return true
}

// DeclareGlobal records name as a script-wide global binding name. Returns
// false if already declared.
func (s *ScriptScope) DeclareGlobal(name string) bool {
	if s.globalNames[name] {
		return false
	}
	s.globalNames[name] = true
	return true
}

func (s *ScriptScope) HasProperty(name string) bool {
	return s.props[name]
}

func (s *ScriptScope) HasGlobal(name string) bool {
	return s.globalNames[name]
}

// HandlerScope holds the parameters, locals, and handler-local `global`
// declarations of a single handler, chained to the enclosing ScriptScope.
type HandlerScope struct {
	Script *ScriptScope

	ParamOrder []string
	params     map[string]bool

	LocalOrder []string
	locals     map[string]bool

	handlerGlobals map[string]bool
}

// NewHandlerScope creates an empty handler scope chained to script.
func NewHandlerScope(script *ScriptScope) *HandlerScope {
	return &HandlerScope{
		Script:         script,
		params:         make(map[string]bool),
		locals:         make(map[string]bool),
		handlerGlobals: make(map[string]bool),
	}
}

// DeclareParam adds a parameter name. Returns false if name is already a
// parameter of this handler (a duplicate-declaration parse error).
func (h *HandlerScope) DeclareParam(name string) bool {
	if h.params[name] {
		return false
	}
	h.params[name] = true
	h.ParamOrder = append(h.ParamOrder, name)
	return true
}

// DeclareGlobal records that this handler re-declares a global binding.
// Returns false if already declared within this handler.
func (h *HandlerScope) DeclareGlobal(name string) bool {
	if h.handlerGlobals[name] {
		return false
	}
	h.handlerGlobals[name] = true
	return true
}

// DeclareLocal introduces name as a local if it is not already a parameter,
// property, or known local. It is a no-op (returning false) in those three
// cases; global names are not checked.
func (h *HandlerScope) DeclareLocal(name string) bool {
	if h.Script.HasProperty(name) || h.params[name] || h.locals[name] {
		return false
	}
	h.locals[name] = true
	h.LocalOrder = append(h.LocalOrder, name)
	return true
}

// Resolve looks up name: property (highest) -> local -> parameter ->
// handler-global -> script-global. The second return value is false if
// name is undeclared.
func (h *HandlerScope) Resolve(name string) (Scope, bool) {
	switch {
	case h.Script.HasProperty(name):
		return ScopeProperty, true
	case h.locals[name]:
		return ScopeLocal, true
	case h.params[name]:
		return ScopeLocal, true
	case h.handlerGlobals[name]:
		return ScopeGlobal, true
	case h.Script.HasGlobal(name):
		return ScopeGlobal, true
	}
	return ScopeLocal, false
}
