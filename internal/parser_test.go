package internal

import (
	"strings"
	"testing"
)

func parseSource(t *testing.T, src string) *Root {
	t.Helper()
	toks, err := Tokenize(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	root, err := Parse(toks)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return root
}

// TestParseScopes tests that every identifier resolves to the scope the
// declaration rules mandate: property over local over parameter over
// global.
func TestParseScopes(t *testing.T) {
	src := `property hue, size
on paint shade
  global tally
  x = 1
  tally = tally + x
  hue = shade
  return size
end
`
	root := parseSource(t, src)
	if len(root.Properties) != 2 || root.Properties[0] != "hue" || root.Properties[1] != "size" {
		t.Fatalf("wrong properties: %v", root.Properties)
	}
	if len(root.Handlers) != 1 {
		t.Fatalf("wrong handler count: %d", len(root.Handlers))
	}
	h := root.Handlers[0]
	if h.Name != "paint" {
		t.Errorf("handler name %q, want %q", h.Name, "paint")
	}
	if len(h.Params) != 1 || h.Params[0] != "shade" {
		t.Errorf("wrong params: %v", h.Params)
	}
	if len(h.Locals) != 1 || h.Locals[0] != "x" {
		t.Errorf("wrong locals: %v", h.Locals)
	}

	scopes := map[string]Scope{}
	var walkExpr func(e Expr)
	var walkStmts func(ss []Stmt)
	walkExpr = func(e Expr) {
		switch x := e.(type) {
		case *IdentExpr:
			scopes[x.Name] = x.Scope
		case *BinaryExpr:
			walkExpr(x.Left)
			walkExpr(x.Right)
		}
	}
	walkStmts = func(ss []Stmt) {
		for _, s := range ss {
			switch st := s.(type) {
			case *AssignStmt:
				walkExpr(st.LHS)
				walkExpr(st.RHS)
			case *ReturnStmt:
				if st.Value != nil {
					walkExpr(st.Value)
				}
			case *ExprStmt:
				walkExpr(st.X)
			}
		}
	}
	walkStmts(h.Body)

	want := map[string]Scope{
		"x":     ScopeLocal,
		"shade": ScopeLocal,
		"tally": ScopeGlobal,
		"hue":   ScopeProperty,
		"size":  ScopeProperty,
	}
	for name, sc := range want {
		if got, ok := scopes[name]; !ok || got != sc {
			t.Errorf("identifier %q resolved to %v (seen %v), want %v", name, got, ok, sc)
		}
	}
}

// TestParseAssignIntroducesLocal tests that assignment to an unseen bare
// name adds it to the handler's locals.
func TestParseAssignIntroducesLocal(t *testing.T) {
	root := parseSource(t, "on main\n  tally = 0\n  tally = tally + 1\nend\n")
	h := root.Handlers[0]
	if len(h.Locals) != 1 || h.Locals[0] != "tally" {
		t.Fatalf("wrong locals: %v", h.Locals)
	}
}

// TestParseBareCall tests the handler-invocation statement form, including
// the optional leading comma.
func TestParseBareCall(t *testing.T) {
	cases := map[string]struct {
		line string
		n    int
	}{
		"NoArgs":       {"greet", 0},
		"OneString":    {`greet "hi"`, 1},
		"TwoArgs":      {`greet "hi", 2`, 2},
		"LeadingComma": {`greet , "hi", 2`, 2},
		"SymbolArg":    {"greet #loud", 1},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			root := parseSource(t, "on main\n  "+c.line+"\nend\n")
			body := root.Handlers[0].Body
			if len(body) != 1 {
				t.Fatalf("wrong statement count: %d", len(body))
			}
			es, ok := body[0].(*ExprStmt)
			if !ok {
				t.Fatalf("statement is %T, want *ExprStmt", body[0])
			}
			call, ok := es.X.(*CallExpr)
			if !ok {
				t.Fatalf("expression is %T, want *CallExpr", es.X)
			}
			if call.Name != "greet" {
				t.Errorf("call name %q, want %q", call.Name, "greet")
			}
			if len(call.Args) != c.n {
				t.Errorf("wrong argument count: want %d, have %d", c.n, len(call.Args))
			}
		})
	}
}

// TestParseIfShapes tests the inline and block if forms and else-if
// chaining.
func TestParseIfShapes(t *testing.T) {
	t.Run("Inline", func(t *testing.T) {
		root := parseSource(t, "on main\n  if 1 then put 2 else put 3\nend\n")
		st, ok := root.Handlers[0].Body[0].(*IfStmt)
		if !ok {
			t.Fatalf("statement is %T, want *IfStmt", root.Handlers[0].Body[0])
		}
		if len(st.Branches) != 1 || !st.HasElse {
			t.Errorf("wrong shape: %d branches, else %v", len(st.Branches), st.HasElse)
		}
	})
	t.Run("Chain", func(t *testing.T) {
		src := `on main
  x = 1
  if x = 1 then
    put 1
  else if x = 2 then
    put 2
  else if x = 3 then
    put 3
  else
    put 4
  end if
end
`
		root := parseSource(t, src)
		st, ok := root.Handlers[0].Body[1].(*IfStmt)
		if !ok {
			t.Fatalf("statement is %T, want *IfStmt", root.Handlers[0].Body[1])
		}
		if len(st.Branches) != 3 {
			t.Errorf("wrong branch count: want 3, have %d", len(st.Branches))
		}
		if !st.HasElse {
			t.Error("else branch missing")
		}
	})
	t.Run("NoElse", func(t *testing.T) {
		root := parseSource(t, "on main\n  if 1 then\n    put 1\n  end if\nend\n")
		st := root.Handlers[0].Body[0].(*IfStmt)
		if st.HasElse {
			t.Error("has_else set on an if without else")
		}
	})
}

// TestParseRepeatForms tests the three repeat headers, including the
// discarded trailing tokens on the opening line.
func TestParseRepeatForms(t *testing.T) {
	t.Run("While", func(t *testing.T) {
		root := parseSource(t, "on main\n  repeat while 1\n    exit repeat\n  end repeat\nend\n")
		if _, ok := root.Handlers[0].Body[0].(*RepeatWhileStmt); !ok {
			t.Fatalf("statement is %T, want *RepeatWhileStmt", root.Handlers[0].Body[0])
		}
	})
	t.Run("To", func(t *testing.T) {
		root := parseSource(t, "on main\n  repeat with i = 1 to 5\n    put i\n  end repeat\nend\n")
		st, ok := root.Handlers[0].Body[0].(*RepeatToStmt)
		if !ok {
			t.Fatalf("statement is %T, want *RepeatToStmt", root.Handlers[0].Body[0])
		}
		if st.Iterator != "i" || st.Down {
			t.Errorf("wrong iterator %q or down flag %v", st.Iterator, st.Down)
		}
	})
	t.Run("DownTo", func(t *testing.T) {
		root := parseSource(t, "on main\n  repeat with i = 5 down to 1\n    put i\n  end repeat\nend\n")
		st := root.Handlers[0].Body[0].(*RepeatToStmt)
		if !st.Down {
			t.Error("down flag not set")
		}
	})
	t.Run("In", func(t *testing.T) {
		root := parseSource(t, "on main\n  repeat with x in [1, 2]\n    put x\n  end repeat\nend\n")
		if _, ok := root.Handlers[0].Body[0].(*RepeatInStmt); !ok {
			t.Fatalf("statement is %T, want *RepeatInStmt", root.Handlers[0].Body[0])
		}
	})
	t.Run("TrailingJunk", func(t *testing.T) {
		// Anything after the header tail on the opening line is discarded.
		root := parseSource(t, "on main\n  repeat with i = 1 to 5 then some junk\n    put i\n  end repeat\nend\n")
		if _, ok := root.Handlers[0].Body[0].(*RepeatToStmt); !ok {
			t.Fatalf("statement is %T, want *RepeatToStmt", root.Handlers[0].Body[0])
		}
	})
}

// TestParsePutOn tests the put-on insertion-side flag.
func TestParsePutOn(t *testing.T) {
	root := parseSource(t, "on main\n  x = \"b\"\n  put \"a\" before x\n  put \"c\" after x\nend\n")
	before := root.Handlers[0].Body[1].(*PutStmt)
	after := root.Handlers[0].Body[2].(*PutStmt)
	if before.Target == nil || !before.Before {
		t.Error("put-before did not set the before flag")
	}
	if after.Target == nil || after.Before {
		t.Error("put-after set the before flag")
	}
}

// TestParseCase tests clause literal lists and the otherwise arm.
func TestParseCase(t *testing.T) {
	src := `on main
  x = 2
  case x of
    1: put "one"
    2, 3: put "few"
    otherwise: put "many"
  end case
end
`
	root := parseSource(t, src)
	st, ok := root.Handlers[0].Body[1].(*CaseStmt)
	if !ok {
		t.Fatalf("statement is %T, want *CaseStmt", root.Handlers[0].Body[1])
	}
	if len(st.Clauses) != 2 {
		t.Fatalf("wrong clause count: want 2, have %d", len(st.Clauses))
	}
	if len(st.Clauses[1].Literals) != 2 {
		t.Errorf("second clause has %d literals, want 2", len(st.Clauses[1].Literals))
	}
	if !st.HasOtherwise {
		t.Error("otherwise arm missing")
	}
}

// TestParseBuiltinLiterals tests the atom-position constant words.
func TestParseBuiltinLiterals(t *testing.T) {
	root := parseSource(t, "on main\n  x = true\n  y = empty\n  z = void\nend\n")
	body := root.Handlers[0].Body
	x := body[0].(*AssignStmt).RHS.(*LiteralExpr)
	if x.Kind != LitInt || x.Int != 1 {
		t.Errorf("true parsed to %v %d, want Int 1", x.Kind, x.Int)
	}
	y := body[1].(*AssignStmt).RHS.(*LiteralExpr)
	if y.Kind != LitString || y.Str != "" {
		t.Errorf("empty parsed to %v %q, want String \"\"", y.Kind, y.Str)
	}
	z := body[2].(*AssignStmt).RHS.(*LiteralExpr)
	if z.Kind != LitVoid {
		t.Errorf("void parsed to %v, want Void", z.Kind)
	}
}

// TestParseNegativeLiteralFold tests that unary minus folds into a
// directly following numeric literal.
func TestParseNegativeLiteralFold(t *testing.T) {
	root := parseSource(t, "on main\n  x = -3\n  y = -2.5\nend\n")
	body := root.Handlers[0].Body
	x := body[0].(*AssignStmt).RHS.(*LiteralExpr)
	if x.Kind != LitInt || x.Int != -3 {
		t.Errorf("-3 parsed to %v %d, want Int -3", x.Kind, x.Int)
	}
	y := body[1].(*AssignStmt).RHS.(*LiteralExpr)
	if y.Kind != LitFloat || y.Flt != -2.5 {
		t.Errorf("-2.5 parsed to %v %g, want Float -2.5", y.Kind, y.Flt)
	}
}

// TestParseErrors tests that illegal phrasings reject with *ParseError.
func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"UndeclaredRead":  "on main\n  put mystery\nend\n",
		"DupProperty":     "property a, a\non main\nend\n",
		"DupGlobal":       "on main\n  global g, g\nend\n",
		"DupParam":        "on f x, x\nend\n",
		"BadAssignTarget": "on main\n  1 + 2 = 3\nend\n",
		"MissingThen":     "on main\n  if 1\n    put 1\n  end if\nend\n",
		"TopLevelStmt":    "put 1\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			toks, err := Tokenize(strings.NewReader(src))
			if err != nil {
				t.Fatalf("Tokenize error: %v", err)
			}
			if _, err := Parse(toks); err == nil {
				t.Fatalf("%q parsed without error", src)
			} else if _, ok := err.(*ParseError); !ok {
				t.Errorf("%q produced %T, want *ParseError", src, err)
			}
		})
	}
}

// TestParseBareComparisonStmt tests that a statement built around a plain
// comparison parses as an expression statement: only a '=' directly after
// the first operand reads as assignment, never the other comparison
// operators.
func TestParseBareComparisonStmt(t *testing.T) {
	cases := map[string]struct {
		line string
		op   BinOp
	}{
		"Lt":      {"x < 5", OpLt},
		"Gte":     {"x >= 5", OpGe},
		"Neq":     {"x <> 5", OpNeq},
		"EqAfter": {"x < 5 = 0", OpEq},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			root := parseSource(t, "on main\n  x = 1\n  "+c.line+"\nend\n")
			es, ok := root.Handlers[0].Body[1].(*ExprStmt)
			if !ok {
				t.Fatalf("statement is %T, want *ExprStmt", root.Handlers[0].Body[1])
			}
			bin, ok := es.X.(*BinaryExpr)
			if !ok {
				t.Fatalf("expression is %T, want *BinaryExpr", es.X)
			}
			if bin.Op != c.op {
				t.Errorf("operator %v, want %v", bin.Op, c.op)
			}
		})
	}
	t.Run("IndexAssign", func(t *testing.T) {
		// A trailing '=' after the first operand is still an assignment.
		root := parseSource(t, "on main\n  xs = [1, 2]\n  xs[1] = 9\nend\n")
		st, ok := root.Handlers[0].Body[1].(*AssignStmt)
		if !ok {
			t.Fatalf("statement is %T, want *AssignStmt", root.Handlers[0].Body[1])
		}
		if _, ok := st.LHS.(*IndexExpr); !ok {
			t.Errorf("assignment target is %T, want *IndexExpr", st.LHS)
		}
	})
}

// TestParseDynamicCallTarget tests that an undeclared word directly before
// a parenthesised argument list is accepted as a call target.
func TestParseDynamicCallTarget(t *testing.T) {
	root := parseSource(t, "on main\n  x = helper(1, 2)\nend\non helper a, b\n  return a + b\nend\n")
	rhs := root.Handlers[0].Body[0].(*AssignStmt).RHS
	call, ok := rhs.(*CallExpr)
	if !ok {
		t.Fatalf("expression is %T, want *CallExpr", rhs)
	}
	if call.Name != "helper" || len(call.Args) != 2 {
		t.Errorf("wrong call: %q with %d args", call.Name, len(call.Args))
	}
}
