package internal

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// Pos is a 1-indexed source position, attached to every token, expression,
// and statement for diagnostics.
type Pos struct {
	Line, Col int
}

func (p Pos) String() string {
	return itoa(p.Line) + ":" + itoa(p.Col)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}

// TokenKind discriminates the tagged-variant token produced by the lexer.
type TokenKind int

const (
	InvalidToken TokenKind = iota
	KeywordToken
	WordToken
	SymbolToken
	IntegerToken
	FloatToken
	StringToken
	SymbolLiteralToken
	LineEndToken
	EOFToken
)

// Keyword enumerates the operator-like reserved words that the lexer
// classifies as Keywords rather than Words: on, else, then, and, or, not,
// mod. Everything else syntax-driving (if, repeat, put, the, ...) is a
// recognised Word, not a Keyword.
type Keyword int

const (
	KwOn Keyword = iota
	KwElse
	KwThen
	KwAnd
	KwOr
	KwNot
	KwMod
)

var keywordTable = map[string]Keyword{
	"on":   KwOn,
	"else": KwElse,
	"then": KwThen,
	"and":  KwAnd,
	"or":   KwOr,
	"not":  KwNot,
	"mod":  KwMod,
}

// RecognisedWord enumerates the non-keyword words that drive statement and
// clause syntax. A Word whose lower-cased spelling is not in this table is
// WordUnknown and carries its original text for use as an identifier or a
// dynamic handler-call name.
type RecognisedWord int

const (
	WordUnknown RecognisedWord = iota
	WordIf
	WordRepeat
	WordPut
	WordThe
	WordWith
	WordTo
	WordDown
	WordIn
	WordWhile
	WordCase
	WordOf
	WordOtherwise
	WordProperty
	WordGlobal
	WordReturn
	WordAfter
	WordBefore
	WordExit
	WordNext
	WordEnd
)

var recognisedWordTable = map[string]RecognisedWord{
	"if":        WordIf,
	"repeat":    WordRepeat,
	"put":       WordPut,
	"the":       WordThe,
	"with":      WordWith,
	"to":        WordTo,
	"down":      WordDown,
	"in":        WordIn,
	"while":     WordWhile,
	"case":      WordCase,
	"of":        WordOf,
	"otherwise": WordOtherwise,
	"property":  WordProperty,
	"global":    WordGlobal,
	"return":    WordReturn,
	"after":     WordAfter,
	"before":    WordBefore,
	"exit":      WordExit,
	"next":      WordNext,
	"end":       WordEnd,
}

// Symbol enumerates punctuation tokens, including the multi-character forms.
type Symbol int

const (
	SymComma     Symbol = iota // ,
	SymDot                     // .
	SymRange                   // ..
	SymHash                    // #
	SymMinus                   // -
	SymPlus                    // +
	SymStar                    // *
	SymSlash                   // /
	SymAmp                     // &
	SymAmpAmp                  // &&
	SymLParen                  // (
	SymRParen                  // )
	SymLBracket                // [
	SymRBracket                // ]
	SymEq                      // =
	SymNeq                     // <>
	SymLt                      // <
	SymGt                      // >
	SymLe                      // <=
	SymGe                      // >=
	SymBackslash               // \ (line continuation)
	SymColon                   // :
)

// symbolTable is searched longest-match-first by the lexer; entries are
// grouped by length so that e.g. ".." is preferred over ".".
var symbolTable = []struct {
	text string
	sym  Symbol
}{
	{"..", SymRange},
	{"&&", SymAmpAmp},
	{"<=", SymLe},
	{">=", SymGe},
	{"<>", SymNeq},
	{",", SymComma},
	{".", SymDot},
	{"#", SymHash},
	{"-", SymMinus},
	{"+", SymPlus},
	{"*", SymStar},
	{"/", SymSlash},
	{"&", SymAmp},
	{"(", SymLParen},
	{")", SymRParen},
	{"[", SymLBracket},
	{"]", SymRBracket},
	{"=", SymEq},
	{"<", SymLt},
	{">", SymGt},
	{"\\", SymBackslash},
	{":", SymColon},
}

// Token is a tagged-variant lexical element.
type Token struct {
	Kind TokenKind
	Pos  Pos

	Keyword Keyword
	Word    RecognisedWord
	Text    string // spelling for WordToken/StringToken/SymbolLiteralToken; lower-cased for recognised words and keywords
	Sym     Symbol
	Int     int32
	Float   float64
}

// IsWord reports whether the token is a Word matching the given recognised
// identifier.
func (t Token) IsWord(w RecognisedWord) bool {
	return t.Kind == WordToken && t.Word == w
}

// IsKeyword reports whether the token is the given Keyword.
func (t Token) IsKeyword(k Keyword) bool {
	return t.Kind == KeywordToken && t.Keyword == k
}

// IsSymbol reports whether the token is the given Symbol.
func (t Token) IsSymbol(s Symbol) bool {
	return t.Kind == SymbolToken && t.Sym == s
}

// builtinLiteral is the atom-position built-in identifier table: bare
// words that denote a constant value rather than an identifier lookup.
type builtinLiteral struct {
	isFloat bool
	isVoid  bool
	i       int32
	f       float64
	s       string
}

var builtinLiteralTable = map[string]builtinLiteral{
	"true":      {i: 1},
	"false":     {i: 0},
	"pi":        {isFloat: true, f: 3.14159265358979},
	"quote":     {s: "\""},
	"empty":     {s: ""},
	"return":    {s: "\r"},
	"space":     {s: " "},
	"tab":       {s: "\t"},
	"backspace": {s: "\b"},
	"enter":     {s: "\x03"},
	"void":      {isVoid: true},
}

func lowerASCII(s string) string {
	return lowerCaser.String(s)
}
