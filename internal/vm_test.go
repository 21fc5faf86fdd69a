package internal

import (
	"bytes"
	"strings"
	"testing"
)

func runSource(t *testing.T, src string) (string, Value) {
	t.Helper()
	chunks := compileSource(t, src)
	vm := NewVM()
	vm.Register(chunks...)
	var out bytes.Buffer
	vm.Out = &out
	ret, err := vm.Call("main")
	if err != nil {
		t.Fatalf("Call(main) error: %v", err)
	}
	return out.String(), ret
}

func runError(t *testing.T, src string) error {
	t.Helper()
	chunks := compileSource(t, src)
	vm := NewVM()
	vm.Register(chunks...)
	vm.Out = &bytes.Buffer{}
	_, err := vm.Call("main")
	if err == nil {
		t.Fatalf("Call(main) succeeded, want an error")
	}
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("Call(main) produced %T, want *RuntimeError", err)
	}
	return err
}

// TestVMScenarios runs the six end-to-end scenarios against their expected
// output.
func TestVMScenarios(t *testing.T) {
	cases := map[string]struct {
		src string
		out string
	}{
		"Echo": {"on main\n  put \"hello\"\nend\n", "hello\n"},
		"Arithmetic": {`on main
  x = 3 + 4 * 2
  put x
end
`, "11\n"},
		"Conditional": {`on main
  if 1 then
    put "y"
  else
    put "n"
  end if
end
`, "y\n"},
		"WhileLoop": {`on main
  i = 1
  repeat while i <= 3
    put i
    i = i + 1
  end repeat
end
`, "1\n2\n3\n"},
		"Invocation": {`on main
  greet "world", 2
end
on greet who, times
  repeat with i = 1 to times
    put who
  end repeat
end
`, "world\nworld\n"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			out, _ := runSource(t, c.src)
			if out != c.out {
				t.Errorf("output %q, want %q", out, c.out)
			}
		})
	}
}

// TestVMScopePromotion tests that a property is stored on the
// script instance and read back through the implicit receiver.
func TestVMScopePromotion(t *testing.T) {
	src := `property name
on main
  name = "abc"
  put getName()
end
on getName
  return name
end
`
	out, _ := runSource(t, src)
	if out != "abc\n" {
		t.Errorf("output %q, want %q", out, "abc\n")
	}
}

// TestVMArithmetic tests promotion, wrap, truncation, and division faults.
func TestVMArithmetic(t *testing.T) {
	cases := map[string]struct {
		expr string
		want Value
	}{
		"IntAdd":      {"1 + 2", IntVal(3)},
		"IntDivTrunc": {"7 / 2", IntVal(3)},
		"NegDivTrunc": {"-7 / 2", IntVal(-3)},
		"Mod":         {"7 mod 3", IntVal(1)},
		"FloatMod":    {"5.5 mod 2", FloatVal(1.5)},
		"IntFloatMod": {"7 mod 2.5", FloatVal(2)},
		"Wrap":        {"2147483647 + 1", IntVal(-2147483648)},
		"Promote":     {"1 + 2.5", FloatVal(3.5)},
		"FloatDiv":    {"5.0 / 2", FloatVal(2.5)},
		"UnaryNeg":    {"-(3)", IntVal(-3)},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, ret := runSource(t, "on main\n  return "+c.expr+"\nend\n")
			if ret.Kind != c.want.Kind || ret.I != c.want.I || ret.F != c.want.F {
				t.Errorf("%s = %+v, want %+v", c.expr, ret, c.want)
			}
		})
	}
	t.Run("DivZero", func(t *testing.T) {
		runError(t, "on main\n  return 1 / 0\nend\n")
	})
	t.Run("ModZero", func(t *testing.T) {
		runError(t, "on main\n  return 1 mod 0\nend\n")
	})
	t.Run("TypeError", func(t *testing.T) {
		runError(t, "on main\n  return \"a\" + 1\nend\n")
	})
}

// TestVMEquality tests EQ's reflexivity, symmetry, and cross-type rules.
func TestVMEquality(t *testing.T) {
	cases := map[string]struct {
		expr string
		want int32
	}{
		"IntInt":        {"3 = 3", 1},
		"IntFloat":      {"3 = 3.0", 1},
		"FloatInt":      {"3.0 = 3", 1},
		"VoidVoid":      {"void = void", 1},
		"VoidInt":       {"void = 0", 0},
		"StrStr":        {`"ab" = "ab"`, 1},
		"StrStrNo":      {`"ab" = "ba"`, 0},
		"StrNum":        {`"12" = 12`, 1},
		"StrNumNo":      {`"x" = 12`, 0},
		"SymSym":        {"#red = #red", 1},
		"SymSymNo":      {"#red = #blue", 0},
		"SymStr":        {`#red = "red"`, 0},
		"Neq":           {"3 <> 4", 1},
		"NeqNo":         {"3 <> 3", 0},
		"StrOrder":      {`"abc" < "abd"`, 1},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, ret := runSource(t, "on main\n  return "+c.expr+"\nend\n")
			if ret.Kind != KInt || ret.I != c.want {
				t.Errorf("%s = %+v, want Int %d", c.expr, ret, c.want)
			}
		})
	}
}

// TestVMTruthiness tests the Int/Void truthiness domain and its runtime
// error outside it.
func TestVMTruthiness(t *testing.T) {
	out, _ := runSource(t, `on main
  if 2 then put "t"
  if 0 then put "f0"
  if void then put "fv"
  if not 0 then put "n"
  if 1 and 2 then put "a"
  if 0 or 1 then put "o"
end
`)
	if out != "t\nn\na\no\n" {
		t.Errorf("output %q, want %q", out, "t\nn\na\no\n")
	}
	runError(t, "on main\n  if \"yes\" then put 1\nend\n")
}

// TestVMSymbolInterning tests that two occurrences of the same symbol
// literal share one heap handle.
func TestVMSymbolInterning(t *testing.T) {
	chunks := compileSource(t, "on a\n  return #thing\nend\non b\n  return #thing\nend\n")
	vm := NewVM()
	vm.Register(chunks...)
	x, err := vm.Call("a")
	if err != nil {
		t.Fatalf("Call(a) error: %v", err)
	}
	y, err := vm.Call("b")
	if err != nil {
		t.Fatalf("Call(b) error: %v", err)
	}
	if x.Kind != KSymbol || y.Kind != KSymbol {
		t.Fatalf("kinds %v/%v, want symbols", x.Kind, y.Kind)
	}
	if x.Ref != y.Ref {
		t.Errorf("symbol handles differ: %d vs %d", x.Ref, y.Ref)
	}
	if !vm.eq(x, y) {
		t.Error("interned symbols do not compare equal")
	}
}

// TestVMGlobals tests cross-handler global bindings.
func TestVMGlobals(t *testing.T) {
	src := `on main
  global tally
  tally = 5
  bump
  put tally
end
on bump
  global tally
  tally = tally + 1
end
`
	out, _ := runSource(t, src)
	if out != "6\n" {
		t.Errorf("output %q, want %q", out, "6\n")
	}
}

// TestVMLists tests list literals, indexing, mutation, count, and
// repeat-in iteration.
func TestVMLists(t *testing.T) {
	src := `on main
  xs = [10, 20, 30]
  put xs[2]
  xs[2] = 25
  put xs.count
  total = 0
  repeat with x in xs
    total = total + x
  end repeat
  put total
  put xs[1..2]
end
`
	out, _ := runSource(t, src)
	want := "20\n3\n65\n[10, 25]\n"
	if out != want {
		t.Errorf("output %q, want %q", out, want)
	}
}

// TestVMPropLists tests property-list literals and keyed access.
func TestVMPropLists(t *testing.T) {
	src := `on main
  d = [#a: 1, #b: 2]
  put d[#b]
  d[#c] = 3
  put d.count
  put d[#missing]
end
`
	out, _ := runSource(t, src)
	want := "2\n3\n\n"
	if out != want {
		t.Errorf("output %q, want %q", out, want)
	}
}

// TestVMPutOn tests in-place string append on both sides.
func TestVMPutOn(t *testing.T) {
	src := `property buf
on main
  buf = "b"
  put "c" after buf
  put "a" before buf
  put buf
end
`
	out, _ := runSource(t, src)
	if out != "abc\n" {
		t.Errorf("output %q, want %q", out, "abc\n")
	}
}

// TestVMConcat tests & and && string building.
func TestVMConcat(t *testing.T) {
	src := `on main
  put "ab" & "cd"
  put "ab" && "cd"
  put 1 & 2
end
`
	out, _ := runSource(t, src)
	want := "abcd\nab cd\n12\n"
	if out != want {
		t.Errorf("output %q, want %q", out, want)
	}
}

// TestVMCase tests the case statement's clause matching and otherwise arm.
func TestVMCase(t *testing.T) {
	src := `on main
  classify 1
  classify 3
  classify 9
end
on classify x
  case x of
    1: put "one"
    2, 3: put "few"
    otherwise: put "many"
  end case
end
`
	out, _ := runSource(t, src)
	want := "one\nfew\nmany\n"
	if out != want {
		t.Errorf("output %q, want %q", out, want)
	}
}

// TestVMRepeatControl tests exit repeat and next repeat in both loop
// shapes.
func TestVMRepeatControl(t *testing.T) {
	src := `on main
  repeat with i = 1 to 10
    if i = 3 then
      exit repeat
    end if
    put i
  end repeat
  repeat with i = 1 to 4
    if i mod 2 = 0 then
      next repeat
    end if
    put i
  end repeat
end
`
	out, _ := runSource(t, src)
	want := "1\n2\n1\n3\n"
	if out != want {
		t.Errorf("output %q, want %q", out, want)
	}
}

// TestVMDownTo tests the decrementing repeat form.
func TestVMDownTo(t *testing.T) {
	out, _ := runSource(t, "on main\n  repeat with i = 3 down to 1\n    put i\n  end repeat\nend\n")
	if out != "3\n2\n1\n" {
		t.Errorf("output %q, want %q", out, "3\n2\n1\n")
	}
}

// TestVMStringChunks tests the char/word chunk-access forms.
func TestVMStringChunks(t *testing.T) {
	src := `on main
  s = "the quick fox"
  put s.char[5]
  put s.word[2]
  put s.char[1..3]
  put s.word[2..3]
  put s[1..3]
end
`
	out, _ := runSource(t, src)
	want := "q\nquick\nthe\nquick fox\nthe\n"
	if out != want {
		t.Errorf("output %q, want %q", out, want)
	}
}

// TestVMUnknownHandler tests the undefined-handler runtime error.
func TestVMUnknownHandler(t *testing.T) {
	err := runError(t, "on main\n  vanish()\nend\n")
	if !strings.Contains(err.Error(), "vanish") {
		t.Errorf("error %q does not name the missing handler", err)
	}
}

// TestVMCancel tests the cooperative cancel flag: a pre-set flag stops an
// otherwise infinite loop at its back-edge.
func TestVMCancel(t *testing.T) {
	chunks := compileSource(t, "on main\n  repeat while 1\n    x = 1\n  end repeat\nend\n")
	vm := NewVM()
	vm.Register(chunks...)
	vm.Out = &bytes.Buffer{}
	vm.Cancel()
	if _, err := vm.Call("main"); err == nil {
		t.Fatal("cancelled VM ran to completion")
	} else if !strings.Contains(err.Error(), "cancel") {
		t.Errorf("error %q does not mention cancellation", err)
	}
}

// TestVMBuiltinFunctions tests the point constructor fallback for dynamic
// calls.
func TestVMBuiltinFunctions(t *testing.T) {
	src := `on main
  p = point(3, 4)
  put p.locH
  put p
end
`
	out, _ := runSource(t, src)
	want := "3\npoint(3, 4)\n"
	if out != want {
		t.Errorf("output %q, want %q", out, want)
	}
}

// TestVMTheBuiltins tests that intrinsics resolve and can be overridden.
func TestVMTheBuiltins(t *testing.T) {
	chunks := compileSource(t, "on main\n  return the dirSeparator\nend\n")
	vm := NewVM()
	vm.Register(chunks...)
	vm.Out = &bytes.Buffer{}
	ret, err := vm.Call("main")
	if err != nil {
		t.Fatalf("Call(main) error: %v", err)
	}
	if ret.Kind != KString || vm.Heap.String(ret) == "" {
		t.Errorf("the dirSeparator = %+v, want a nonempty string", ret)
	}

	chunks = compileSource(t, "on main\n  return the randomSeed\nend\n")
	vm = NewVM()
	vm.RandomSeed = 99
	vm.Register(chunks...)
	ret, err = vm.Call("main")
	if err != nil {
		t.Fatalf("Call(main) error: %v", err)
	}
	if ret.Kind != KInt || ret.I != 99 {
		t.Errorf("the randomSeed = %+v, want Int 99", ret)
	}
}

// TestVMReturnValue tests explicit and implicit returns.
func TestVMReturnValue(t *testing.T) {
	_, ret := runSource(t, "on main\n  return 5 * 8\nend\n")
	if ret.Kind != KInt || ret.I != 40 {
		t.Errorf("return = %+v, want Int 40", ret)
	}
	_, ret = runSource(t, "on main\n  x = 1\nend\n")
	if ret.Kind != KVoid {
		t.Errorf("implicit return = %+v, want Void", ret)
	}
}

// TestVMListMethods tests the intrinsic list method surface.
func TestVMListMethods(t *testing.T) {
	src := `on main
  xs = []
  xs.add(5)
  xs.add(7)
  xs.addAt(1, 3)
  put xs
  xs.deleteAt(2)
  put xs
  put xs.getLast()
  put xs.getPos(7)
end
`
	out, _ := runSource(t, src)
	want := "[3, 5, 7]\n[3, 7]\n7\n2\n"
	if out != want {
		t.Errorf("output %q, want %q", out, want)
	}
}
