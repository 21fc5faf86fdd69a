package internal

// chunkBuilder accumulates one handler's instruction stream, constant
// pool, string pool, and local-name table while the generator walks the
// handler's body. It is discarded once Chunk is called; a Chunk itself is
// immutable thereafter.
type chunkBuilder struct {
	name string

	code   []Instr
	consts []Const
	// constSeen is a fast membership pre-check before falling back to the
	// linear scan that finds a duplicate constant's index.
	constSeen map[string]bool

	pool    []byte
	strOff  map[string]uint32

	// localNames is slot order: index 0 is always "me", the implicit
	// receiver; indices 1..nparams-1 are the declared parameters (nparams
	// counts me), the rest
	// are body locals followed by any generator-introduced temporaries
	// (e.g. the hidden iterable slot of repeat-in).
	localNames []string
	localIndex map[string]int

	nparams int
}

func newChunkBuilder(name string) *chunkBuilder {
	return &chunkBuilder{
		name:       name,
		constSeen:  make(map[string]bool),
		strOff:     make(map[string]uint32),
		localIndex: make(map[string]int),
	}
}

// addString interns s into the chunk's shared string pool, returning its
// byte offset. Records with identical text share one pool entry.
func (b *chunkBuilder) addString(s string) uint32 {
	if off, ok := b.strOff[s]; ok {
		return off
	}
	off := uint32(len(b.pool))
	size := uint32(len(s))
	rec := make([]byte, 0, 8+size+1)
	rec = append(rec, byte(size), byte(size>>8), byte(size>>16), byte(size>>24))
	rec = append(rec, s...)
	rec = append(rec, 0)
	for len(rec)%4 != 0 {
		rec = append(rec, 0)
	}
	b.pool = append(b.pool, rec...)
	b.strOff[s] = off
	return off
}

// addConst de-duplicates constants by a linear search, using constSeen as
// a fast membership pre-check before the scan.
func (b *chunkBuilder) addConst(k Const) uint16 {
	key := constKey(k)
	if b.constSeen[key] {
		for i, existing := range b.consts {
			if existing == k {
				return uint16(i)
			}
		}
	}
	b.constSeen[key] = true
	b.consts = append(b.consts, k)
	if len(b.consts) > 1<<16 {
		panic(genPanic{newGenErrorf(Pos{}, "constant pool overflow in handler %q: more than 65536 constants", b.name)})
	}
	return uint16(len(b.consts) - 1)
}

func constKey(k Const) string {
	switch k.Tag {
	case ConstVoid:
		return "v"
	case ConstInt:
		return "i" + itoa(int(k.I))
	case ConstFloat:
		return "f" + itoa(int(k.F*1e6))
	case ConstString:
		return "s" + itoa(int(k.StrOff))
	case ConstSymbol:
		return "y" + itoa(int(k.StrOff))
	default:
		return "?"
	}
}

func (b *chunkBuilder) constInt(i int32) uint16     { return b.addConst(Const{Tag: ConstInt, I: i}) }
func (b *chunkBuilder) constFloat(f float64) uint16 { return b.addConst(Const{Tag: ConstFloat, F: f}) }
func (b *chunkBuilder) constString(s string) uint16 {
	return b.addConst(Const{Tag: ConstString, StrOff: b.addString(s)})
}
func (b *chunkBuilder) constSymbol(s string) uint16 {
	return b.addConst(Const{Tag: ConstSymbol, StrOff: b.addString(s)})
}

// declareSlot appends name as the next local slot (used for "me", params,
// body locals, and generator-introduced temporaries) and returns its
// index.
func (b *chunkBuilder) declareSlot(name string) int {
	idx := len(b.localNames)
	b.localNames = append(b.localNames, name)
	if name != "" {
		b.localIndex[name] = idx
	}
	return idx
}

// newTemp allocates an unnamed local slot for generator-internal use, such
// as repeat-in's hidden iterable holder.
func (b *chunkBuilder) newTemp() int {
	return b.declareSlot("")
}

func (b *chunkBuilder) slot(name string) (int, bool) {
	i, ok := b.localIndex[name]
	return i, ok
}

// emit appends an instruction and returns its code index.
func (b *chunkBuilder) emit(i Instr) int {
	b.code = append(b.code, i)
	if len(b.code) > 1<<32-1 {
		panic(genPanic{newGenErrorf(Pos{}, "instruction count overflow in handler %q", b.name)})
	}
	return len(b.code) - 1
}

// emitJump emits a placeholder branch/jump instruction and returns its
// code index so that patchJump can later fill in the offset.
func (b *chunkBuilder) emitJump(op Op) int {
	return b.emit(EncodeI16(op, 0))
}

// patchJump rewrites the instruction at idx, an earlier emitJump result,
// so that it branches to target. The offset is relative to the
// instruction following the jump.
func (b *chunkBuilder) patchJump(idx, target int) {
	op := b.code[idx].Op()
	offset := int32(target - (idx + 1))
	b.code[idx] = EncodeI16(op, int16(offset))
}

func (b *chunkBuilder) here() int { return len(b.code) }

// Chunk finalizes the builder into an immutable Chunk.
func (b *chunkBuilder) Chunk() *Chunk {
	nlocals := len(b.localNames) - b.nparams
	localOffs := make([]uint32, len(b.localNames))
	for i, n := range b.localNames {
		if n == "" {
			n = "$t"
		}
		localOffs[i] = b.addString(n)
	}
	return &Chunk{
		Name:       b.name,
		NArgs:      b.nparams,
		NLocals:    nlocals,
		Code:       b.code,
		Consts:     b.consts,
		StringPool: b.pool,
		LocalNames: localOffs,
	}
}

// genPanic carries a *GenError out of the recursive lowering helpers, in
// the same non-threaded-error-return style the parser uses for
// *ParseError (internal/parser.go).
type genPanic struct{ err error }

// loopCtx tracks the exit-repeat and next-repeat targets of one enclosing
// repeat statement.
type loopCtx struct {
	// continueTarget is the code index next-repeat jumps to directly, or
	// -1 if it is not known until the increment code is emitted (repeat-to
	// and repeat-in), in which case continuePatches records placeholder
	// JMPs to patch once it is.
	continueTarget  int
	continuePatches []int
	breakPatches    []int
}

// gen holds generation state shared across the handlers of one script:
// the script scope (identifiers arrive already scope-resolved by the
// parser, so lowering does not consult it), and the per-handler
// builder and loop-context stack that parseHandler-equivalent lowering
// pushes and pops.
type gen struct {
	script *ScriptScope
	b      *chunkBuilder
	loops  []*loopCtx
}

// GenerateBytecode walks a scope-resolved AST and emits one Chunk per
// handler.
func GenerateBytecode(root *Root) (chunks []*Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			if gp, ok := r.(genPanic); ok {
				err = gp.err
				return
			}
			panic(r)
		}
	}()
	script := NewScriptScope()
	for _, p := range root.Properties {
		script.DeclareProperty(p)
	}
	for _, h := range root.Handlers {
		chunks = append(chunks, genHandler(script, h))
	}
	return chunks, nil
}

// genHandler lowers one HandlerDecl to a Chunk. Local slot layout follows
// the uniform convention documented in DESIGN.md: slot 0 is always "me"
// (for a receiverless CALL the generator pushes a Void placeholder and the
// VM replaces it with the caller's own receiver), slots
// 1..len(Params) are the declared parameters, and the remaining slots are
// the handler's body locals followed by any generator-introduced
// temporaries.
func genHandler(script *ScriptScope, h HandlerDecl) *Chunk {
	b := newChunkBuilder(h.Name)
	b.declareSlot("me")
	for _, p := range h.Params {
		b.declareSlot(p)
	}
	b.nparams = 1 + len(h.Params)
	for _, l := range h.Locals {
		b.declareSlot(l)
	}

	g := &gen{script: script, b: b}
	g.genStmts(h.Body)

	// An empty handler body compiles to LOADVOID; RET; a body that falls
	// off the end without an explicit return needs the same trailing
	// sequence.
	if len(b.code) == 0 || b.code[len(b.code)-1].Op() != OpRET {
		b.emit(EncodeNone(OpLOADVOID))
		b.emit(EncodeNone(OpRET))
	}
	return b.Chunk()
}

func (g *gen) genStmts(stmts []Stmt) {
	for _, s := range stmts {
		g.genStmt(s)
	}
}

func (g *gen) genStmt(s Stmt) {
	switch st := s.(type) {
	case *AssignStmt:
		g.genAssign(st)
	case *ExprStmt:
		g.genExpr(st.X)
		// Every statement leaves the stack balanced: a bare expression
		// statement's value is discarded. The `global` no-op Void literal
		// folded in by the parser still pushes, so POP applies uniformly
		// here.
		g.b.emit(EncodeNone(OpPOP))
	case *ReturnStmt:
		if st.Value != nil {
			g.genExpr(st.Value)
		} else {
			g.b.emit(EncodeNone(OpLOADVOID))
		}
		g.b.emit(EncodeNone(OpRET))
	case *PutStmt:
		g.genPut(st)
	case *IfStmt:
		g.genIf(st)
	case *RepeatWhileStmt:
		g.genRepeatWhile(st)
	case *RepeatToStmt:
		g.genRepeatTo(st)
	case *RepeatInStmt:
		g.genRepeatIn(st)
	case *ExitRepeatStmt:
		g.genExitRepeat(st)
	case *NextRepeatStmt:
		g.genNextRepeat(st)
	case *CaseStmt:
		g.genCase(st)
	default:
		panic(genPanic{newGenErrorf(s.Position(), "unreachable statement shape %T", s)})
	}
}

// --- assignment & lvalues ---

func (g *gen) genAssign(st *AssignStmt) {
	switch lhs := st.LHS.(type) {
	case *IdentExpr:
		if lhs.Scope == ScopeProperty {
			g.genPropertyAssign(lhs, st.RHS)
			return
		}
		g.genExpr(st.RHS)
		g.storeIdent(lhs)
	case *DotExpr:
		g.genExpr(lhs.Recv)
		key := g.b.constSymbol(lhs.Name)
		g.b.emit(EncodeU16(OpLOADC, key))
		g.genExpr(st.RHS)
		g.b.emit(EncodeNone(OpOIDXS))
	case *IndexExpr:
		g.genExpr(lhs.Recv)
		g.genExpr(lhs.From)
		g.genExpr(st.RHS)
		g.b.emit(EncodeNone(OpOIDXS))
	default:
		panic(genPanic{newGenErrorf(st.Position(), "unreachable lvalue shape %T", lhs)})
	}
}

// storeIdent stores TOS to a Local or Global identifier. Property targets
// are handled separately by genPropertyAssign: a property store needs its
// value pushed after the receiver and key, unlike Local/Global which just
// pop TOS directly.
func (g *gen) storeIdent(id *IdentExpr) {
	switch id.Scope {
	case ScopeLocal:
		n, ok := g.b.slot(id.Name)
		if !ok {
			panic(genPanic{newGenErrorf(id.Position(), "internal error: local %q has no slot", id.Name)})
		}
		g.b.emit(EncodeU16(OpSTOREL, uint16(n)))
	case ScopeGlobal:
		k := g.b.constSymbol(id.Name)
		g.b.emit(EncodeU16(OpSTOREG, k))
	case ScopeProperty:
		panic(genPanic{newGenErrorf(id.Position(), "internal error: property store must go through genPropertyAssign")})
	}
}

// genPropertyAssign lowers "name = rhs" where name resolves to a Property:
// push local 0 (the receiver), push the name as a symbol constant, lower
// rhs, then OIDXS.
func (g *gen) genPropertyAssign(id *IdentExpr, rhs Expr) {
	g.b.emit(EncodeNone(OpLOADL0))
	key := g.b.constSymbol(id.Name)
	g.b.emit(EncodeU16(OpLOADC, key))
	g.genExpr(rhs)
	g.b.emit(EncodeNone(OpOIDXS))
}

// --- put / put-on ---

func (g *gen) genPut(st *PutStmt) {
	if st.Target == nil {
		g.genExpr(st.Value)
		g.b.emit(EncodeNone(OpPUT))
		return
	}
	// put-on: read the target's current string, concatenate the new
	// value on the requested side, and write the result back. The
	// chunk-access opcodes have no set counterpart (OIDXG/OIDXS are the
	// only get/set pair), so put-on targets lower through plain indexed
	// get/set regardless of whether the target expression is a dot or
	// an index form; see DESIGN.md.
	if st.Before {
		g.genExpr(st.Value)
		g.genLvalueGet(st.Target)
	} else {
		g.genLvalueGet(st.Target)
		g.genExpr(st.Value)
	}
	g.b.emit(EncodeNone(OpCONCAT))
	g.genLvalueSet(st.Target)
}

// genLvalueGet pushes the current value of an Identifier, Dot, or Index
// lvalue.
func (g *gen) genLvalueGet(target Expr) {
	switch t := target.(type) {
	case *IdentExpr:
		g.genIdentRead(t)
	case *DotExpr:
		g.genExpr(t.Recv)
		key := g.b.constSymbol(t.Name)
		g.b.emit(EncodeU16(OpLOADC, key))
		g.b.emit(EncodeNone(OpOIDXG))
	case *IndexExpr:
		g.genExpr(t.Recv)
		g.genExpr(t.From)
		g.b.emit(EncodeNone(OpOIDXG))
	default:
		panic(genPanic{newGenErrorf(target.Position(), "put-on target must be an identifier, dot, or index expression")})
	}
}

// genLvalueSet pops TOS and stores it through a Dot or Index lvalue,
// re-lowering the receiver/index operands (they are cheap and
// side-effect-free in this language's grammar).
func (g *gen) genLvalueSet(target Expr) {
	switch t := target.(type) {
	case *IdentExpr:
		if t.Scope == ScopeProperty {
			tmp := g.b.newTemp()
			g.b.emit(EncodeU16(OpSTOREL, uint16(tmp)))
			g.b.emit(EncodeNone(OpLOADL0))
			key := g.b.constSymbol(t.Name)
			g.b.emit(EncodeU16(OpLOADC, key))
			g.b.emit(EncodeU16(OpLOADL, uint16(tmp)))
			g.b.emit(EncodeNone(OpOIDXS))
			return
		}
		g.storeIdent(t)
	case *DotExpr:
		tmp := g.b.newTemp()
		g.b.emit(EncodeU16(OpSTOREL, uint16(tmp)))
		g.genExpr(t.Recv)
		key := g.b.constSymbol(t.Name)
		g.b.emit(EncodeU16(OpLOADC, key))
		g.b.emit(EncodeU16(OpLOADL, uint16(tmp)))
		g.b.emit(EncodeNone(OpOIDXS))
	case *IndexExpr:
		tmp := g.b.newTemp()
		g.b.emit(EncodeU16(OpSTOREL, uint16(tmp)))
		g.genExpr(t.Recv)
		g.genExpr(t.From)
		g.b.emit(EncodeU16(OpLOADL, uint16(tmp)))
		g.b.emit(EncodeNone(OpOIDXS))
	default:
		panic(genPanic{newGenErrorf(target.Position(), "put-on target must be an identifier, dot, or index expression")})
	}
}

// --- control flow ---

func (g *gen) genIf(st *IfStmt) {
	var endPatches []int
	for i, br := range st.Branches {
		g.genExpr(br.Cond)
		brf := g.b.emitJump(OpBRF)
		g.genStmts(br.Body)
		if i < len(st.Branches)-1 || st.HasElse {
			endPatches = append(endPatches, g.b.emitJump(OpJMP))
		}
		g.b.patchJump(brf, g.b.here())
	}
	if st.HasElse {
		g.genStmts(st.Else)
	}
	end := g.b.here()
	for _, p := range endPatches {
		g.b.patchJump(p, end)
	}
}

func (g *gen) pushLoop() *loopCtx {
	lc := &loopCtx{continueTarget: -1}
	g.loops = append(g.loops, lc)
	return lc
}

func (g *gen) popLoop() *loopCtx {
	lc := g.loops[len(g.loops)-1]
	g.loops = g.loops[:len(g.loops)-1]
	return lc
}

func (g *gen) curLoop() *loopCtx {
	if len(g.loops) == 0 {
		return nil
	}
	return g.loops[len(g.loops)-1]
}

func (g *gen) genRepeatWhile(st *RepeatWhileStmt) {
	lc := g.pushLoop()
	top := g.b.here()
	lc.continueTarget = top
	g.genExpr(st.Cond)
	brf := g.b.emitJump(OpBRF)
	g.genStmts(st.Body)
	g.b.emit(EncodeI16(OpJMP, int16(top-(g.b.here()+1))))
	end := g.b.here()
	g.b.patchJump(brf, end)
	for _, p := range lc.breakPatches {
		g.b.patchJump(p, end)
	}
	g.popLoop()
}

func (g *gen) genRepeatTo(st *RepeatToStmt) {
	it, ok := g.b.slot(st.Iterator)
	if !ok {
		it = g.b.declareSlot(st.Iterator)
	}
	g.genExpr(st.From)
	g.b.emit(EncodeU16(OpSTOREL, uint16(it)))

	lc := g.pushLoop()
	top := g.b.here()
	g.b.emit(EncodeU16(OpLOADL, uint16(it)))
	g.genExpr(st.To)
	if st.Down {
		g.b.emit(EncodeNone(OpGTE))
	} else {
		g.b.emit(EncodeNone(OpLTE))
	}
	brf := g.b.emitJump(OpBRF)
	g.genStmts(st.Body)

	incr := g.b.here()
	lc.continueTarget = incr
	for _, p := range lc.continuePatches {
		g.b.patchJump(p, incr)
	}
	g.b.emit(EncodeU16(OpLOADL, uint16(it)))
	g.b.emit(EncodeNone(OpLOADI1))
	if st.Down {
		g.b.emit(EncodeNone(OpSUB))
	} else {
		g.b.emit(EncodeNone(OpADD))
	}
	g.b.emit(EncodeU16(OpSTOREL, uint16(it)))
	g.b.emit(EncodeI16(OpJMP, int16(top-(g.b.here()+1))))

	end := g.b.here()
	g.b.patchJump(brf, end)
	for _, p := range lc.breakPatches {
		g.b.patchJump(p, end)
	}
	g.popLoop()
}

// genRepeatIn lowers "repeat with i in iterable": i is a real,
// re-assignable local driven by an integer index from 1 to
// iterable.count, never a host iterator protocol.
func (g *gen) genRepeatIn(st *RepeatInStmt) {
	it, ok := g.b.slot(st.Iterator)
	if !ok {
		it = g.b.declareSlot(st.Iterator)
	}
	iterableSlot := g.b.newTemp()
	idxSlot := g.b.newTemp()

	g.genExpr(st.Iterable)
	g.b.emit(EncodeU16(OpSTOREL, uint16(iterableSlot)))
	g.b.emit(EncodeNone(OpLOADI1))
	g.b.emit(EncodeU16(OpSTOREL, uint16(idxSlot)))

	lc := g.pushLoop()
	top := g.b.here()
	// i <= iterable.count: iterable.count is a dotted read on the cached
	// iterable slot, lowered directly as OIDXG rather than through
	// genExpr's DotExpr path (which would re-evaluate st.Iterable).
	g.b.emit(EncodeU16(OpLOADL, uint16(idxSlot)))
	g.b.emit(EncodeU16(OpLOADL, uint16(iterableSlot)))
	g.b.emit(EncodeU16(OpLOADC, g.b.constSymbol("count")))
	g.b.emit(EncodeNone(OpOIDXG))
	g.b.emit(EncodeNone(OpLTE))
	brf := g.b.emitJump(OpBRF)

	g.b.emit(EncodeU16(OpLOADL, uint16(iterableSlot)))
	g.b.emit(EncodeU16(OpLOADL, uint16(idxSlot)))
	g.b.emit(EncodeNone(OpOIDXG))
	g.b.emit(EncodeU16(OpSTOREL, uint16(it)))

	g.genStmts(st.Body)

	incr := g.b.here()
	lc.continueTarget = incr
	for _, p := range lc.continuePatches {
		g.b.patchJump(p, incr)
	}
	g.b.emit(EncodeU16(OpLOADL, uint16(idxSlot)))
	g.b.emit(EncodeNone(OpLOADI1))
	g.b.emit(EncodeNone(OpADD))
	g.b.emit(EncodeU16(OpSTOREL, uint16(idxSlot)))
	g.b.emit(EncodeI16(OpJMP, int16(top-(g.b.here()+1))))

	end := g.b.here()
	g.b.patchJump(brf, end)
	for _, p := range lc.breakPatches {
		g.b.patchJump(p, end)
	}
	g.popLoop()
}

func (g *gen) genExitRepeat(st *ExitRepeatStmt) {
	lc := g.curLoop()
	if lc == nil {
		panic(genPanic{newGenErrorf(st.Position(), "exit repeat outside of a repeat statement")})
	}
	lc.breakPatches = append(lc.breakPatches, g.b.emitJump(OpJMP))
}

func (g *gen) genNextRepeat(st *NextRepeatStmt) {
	lc := g.curLoop()
	if lc == nil {
		panic(genPanic{newGenErrorf(st.Position(), "next repeat outside of a repeat statement")})
	}
	if lc.continueTarget >= 0 {
		g.b.emit(EncodeI16(OpJMP, int16(lc.continueTarget-(g.b.here()+1))))
		return
	}
	lc.continuePatches = append(lc.continuePatches, g.b.emitJump(OpJMP))
}

// genCase lowers a case statement as an EQ-against-literal plus BRT
// sequence per clause, not the CASE opcode (see DESIGN.md for why CASE is
// defined but unused by the generator).
func (g *gen) genCase(st *CaseStmt) {
	scrutTmp := g.b.newTemp()
	g.genExpr(st.Scrutinee)
	g.b.emit(EncodeU16(OpSTOREL, uint16(scrutTmp)))

	var endPatches []int
	for _, cl := range st.Clauses {
		var bodyPatches []int
		for _, lit := range cl.Literals {
			g.b.emit(EncodeU16(OpLOADL, uint16(scrutTmp)))
			g.genExpr(lit)
			g.b.emit(EncodeNone(OpEQ))
			bodyPatches = append(bodyPatches, g.b.emitJump(OpBRT))
		}
		skip := g.b.emitJump(OpJMP)
		bodyStart := g.b.here()
		for _, p := range bodyPatches {
			g.b.patchJump(p, bodyStart)
		}
		g.genStmts(cl.Body)
		endPatches = append(endPatches, g.b.emitJump(OpJMP))
		g.b.patchJump(skip, g.b.here())
	}
	if st.HasOtherwise {
		g.genStmts(st.Otherwise)
	}
	end := g.b.here()
	for _, p := range endPatches {
		g.b.patchJump(p, end)
	}
}

// --- expressions ---

func (g *gen) genExpr(e Expr) {
	switch x := e.(type) {
	case *LiteralExpr:
		g.genLiteral(x)
	case *IdentExpr:
		g.genIdentRead(x)
	case *TheExpr:
		g.b.emit(EncodeU8(OpTHE, uint8(x.Builtin)))
	case *ListExpr:
		g.genList(x)
	case *PropListExpr:
		g.genPropList(x)
	case *BinaryExpr:
		g.genBinary(x)
	case *UnaryExpr:
		g.genUnary(x)
	case *DotExpr:
		g.genExpr(x.Recv)
		key := g.b.constSymbol(x.Name)
		g.b.emit(EncodeU16(OpLOADC, key))
		g.b.emit(EncodeNone(OpOIDXG))
	case *IndexExpr:
		g.genIndexGet(x)
	case *CallExpr:
		g.genCall(x)
	default:
		panic(genPanic{newGenErrorf(e.Position(), "unreachable expression shape %T", e)})
	}
}

func (g *gen) genLiteral(lit *LiteralExpr) {
	switch lit.Kind {
	case LitVoid:
		g.b.emit(EncodeNone(OpLOADVOID))
	case LitInt:
		switch lit.Int {
		case 0:
			g.b.emit(EncodeNone(OpLOADI0))
		case 1:
			g.b.emit(EncodeNone(OpLOADI1))
		default:
			g.b.emit(EncodeU16(OpLOADC, g.b.constInt(lit.Int)))
		}
	case LitFloat:
		g.b.emit(EncodeU16(OpLOADC, g.b.constFloat(lit.Flt)))
	case LitString:
		g.b.emit(EncodeU16(OpLOADC, g.b.constString(lit.Str)))
	case LitSymbol:
		g.b.emit(EncodeU16(OpLOADC, g.b.constSymbol(lit.Str)))
	}
}

func (g *gen) genIdentRead(id *IdentExpr) {
	switch id.Scope {
	case ScopeLocal:
		n, ok := g.b.slot(id.Name)
		if !ok {
			panic(genPanic{newGenErrorf(id.Position(), "internal error: local %q has no slot", id.Name)})
		}
		if n == 0 {
			g.b.emit(EncodeNone(OpLOADL0))
		} else {
			g.b.emit(EncodeU16(OpLOADL, uint16(n)))
		}
	case ScopeGlobal:
		g.b.emit(EncodeU16(OpLOADG, g.b.constSymbol(id.Name)))
	case ScopeProperty:
		g.b.emit(EncodeNone(OpLOADL0))
		g.b.emit(EncodeU16(OpLOADC, g.b.constSymbol(id.Name)))
		g.b.emit(EncodeNone(OpOIDXG))
	}
}

// genList lowers a linear-list literal: NEWLLIST n, then for each element
// DUP; <e>; OCALL "add",1; POP.
func (g *gen) genList(x *ListExpr) {
	g.b.emit(EncodeU16(OpNEWLLIST, uint16(len(x.Elems))))
	addKey := g.b.constSymbol("add")
	for _, e := range x.Elems {
		g.b.emit(EncodeNone(OpDUP))
		g.genExpr(e)
		g.b.emit(EncodeU16U8(OpOCALL, addKey, 1))
		g.b.emit(EncodeNone(OpPOP))
	}
}

// genPropList lowers a property-list literal: NEWPLIST, then for each
// entry DUP; <key>; <value>; OIDXS. Unlike genList this needs no trailing
// POP: OIDXS pops its three operands and pushes nothing.
func (g *gen) genPropList(x *PropListExpr) {
	g.b.emit(EncodeNone(OpNEWPLIST))
	for _, ent := range x.Entries {
		g.b.emit(EncodeNone(OpDUP))
		g.genExpr(ent.Key)
		g.genExpr(ent.Value)
		g.b.emit(EncodeNone(OpOIDXS))
	}
}

var binOps = map[BinOp]Op{
	OpAdd: OpADD, OpSub: OpSUB, OpMul: OpMUL, OpDiv: OpDIV, OpMod: OpMOD,
	OpLt: OpLT, OpGt: OpGT, OpLe: OpLTE, OpGe: OpGTE,
	OpAnd: OpAND, OpOr: OpOR,
	OpConcat: OpCONCAT, OpConcatSp: OpCONCATSP,
}

func (g *gen) genBinary(x *BinaryExpr) {
	g.genExpr(x.Left)
	g.genExpr(x.Right)
	switch x.Op {
	case OpEq:
		g.b.emit(EncodeNone(OpEQ))
	case OpNeq:
		// EQ / NEQ share the EQ opcode with a NOT suffix.
		g.b.emit(EncodeNone(OpEQ))
		g.b.emit(EncodeNone(OpNOT))
	default:
		op, ok := binOps[x.Op]
		if !ok {
			panic(genPanic{newGenErrorf(x.Position(), "unreachable binary operator %v", x.Op)})
		}
		g.b.emit(EncodeNone(op))
	}
}

func (g *gen) genUnary(x *UnaryExpr) {
	g.genExpr(x.Operand)
	switch x.Op {
	case OpNeg:
		g.b.emit(EncodeNone(OpUNM))
	case OpNot:
		g.b.emit(EncodeNone(OpNOT))
	}
}

// genIndexGet lowers a read of e[i] or e[a..b]. A range index whose
// receiver is itself a dot access is the chunk-access form o.k[a..b],
// lowered to OIDXK/OIDXKR. A standalone range with no preceding dot is
// lowered to OIDXKR with an empty-symbol key, which the VM reads as a
// plain slice of a list or string.
func (g *gen) genIndexGet(x *IndexExpr) {
	if dot, ok := x.Recv.(*DotExpr); ok {
		g.genExpr(dot.Recv)
		g.b.emit(EncodeU16(OpLOADC, g.b.constSymbol(dot.Name)))
		g.genExpr(x.From)
		if x.To != nil {
			g.genExpr(x.To)
			g.b.emit(EncodeNone(OpOIDXKR))
		} else {
			g.b.emit(EncodeNone(OpOIDXK))
		}
		return
	}
	if x.To != nil {
		g.genExpr(x.Recv)
		g.b.emit(EncodeU16(OpLOADC, g.b.constSymbol("")))
		g.genExpr(x.From)
		g.genExpr(x.To)
		g.b.emit(EncodeNone(OpOIDXKR))
		return
	}
	g.genExpr(x.Recv)
	g.genExpr(x.From)
	g.b.emit(EncodeNone(OpOIDXG))
}

// genCall lowers f(args...) (dynamic CALL by name) or recv.m(args...)
// (OCALL). Per DESIGN.md's uniform frame-layout decision, both opcodes
// consume exactly n+1 stack values: a receiver slot (the real receiver for
// OCALL, an explicit Void placeholder for CALL) followed by n arguments.
func (g *gen) genCall(x *CallExpr) {
	nameKey := g.b.constSymbol(x.Name)
	if x.Recv != nil {
		g.genExpr(x.Recv)
		for _, a := range x.Args {
			g.genExpr(a)
		}
		g.b.emit(EncodeU16U8(OpOCALL, nameKey, uint8(len(x.Args))))
		return
	}
	g.b.emit(EncodeNone(OpLOADVOID))
	for _, a := range x.Args {
		g.genExpr(a)
	}
	g.b.emit(EncodeU16U8(OpCALL, nameKey, uint8(len(x.Args))))
}
