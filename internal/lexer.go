package internal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// LexError is raised by the lexer on an unrecognised symbol sequence or a
// malformed numeric literal. Recovery is absent: the stage aborts on the
// first error.
type LexError struct {
	Pos Pos
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("cast: lex error at %s: %s", e.Pos, e.Msg)
}

// lexFn lexes the next token (if any) from src, sending it on tokens, and
// returns the lexFn to resume with. A nil lexFn indicates that lexing has
// ended, either cleanly (io.EOF) or with a bad token already sent.
type lexFn func(src *bufio.Reader, tokens chan<- Token, pos Pos, armSymbolLiteral bool) (lexFn, Pos, bool)

// Tokenize converts a source byte stream into an ordered token sequence. It
// is stateless across invocations: each call owns its own scratch buffer
// and position tracker. Internally it runs a goroutine-plus-channel state
// machine, but the public surface is a synchronous, ordered slice.
func Tokenize(r io.Reader) ([]Token, error) {
	src := bufio.NewReader(r)
	ch := make(chan Token)
	go lex(src, ch)

	var toks []Token
	var lastWasLineEnd = true // suppress a LineEnd as the very first token
	for tok := range ch {
		if tok.Kind == InvalidToken {
			return nil, &LexError{Pos: tok.Pos, Msg: tok.Text}
		}
		if tok.Kind == LineEndToken {
			if lastWasLineEnd {
				continue
			}
			lastWasLineEnd = true
		} else {
			lastWasLineEnd = false
		}
		toks = append(toks, tok)
	}
	// Fold a trailing line-continuation symbol followed immediately by a
	// LineEnd: the continuation symbol is retracted and the LineEnd erased.
	toks = foldLineContinuations(toks)
	return toks, nil
}

func foldLineContinuations(toks []Token) []Token {
	out := toks[:0:0]
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.IsSymbol(SymBackslash) && i+1 < len(toks) && toks[i+1].Kind == LineEndToken {
			i++ // drop both the backslash and the LineEnd
			continue
		}
		out = append(out, t)
	}
	return out
}

// lex drives the state machine to completion and closes tokens.
func lex(src *bufio.Reader, tokens chan<- Token) {
	state := lexNone
	pos := Pos{Line: 1, Col: 1}
	armed := false
	for state != nil {
		state, pos, armed = state(src, tokens, pos, armed)
	}
	close(tokens)
}

func lexNone(src *bufio.Reader, tokens chan<- Token, pos Pos, armed bool) (lexFn, Pos, bool) {
	r, _, err := src.ReadRune()
	if err != nil {
		if err != io.EOF {
			tokens <- Token{Kind: InvalidToken, Pos: pos, Text: err.Error()}
		}
		return nil, pos, false
	}
	switch {
	case r == '\n':
		tokens <- Token{Kind: LineEndToken, Pos: pos}
		return lexNone, Pos{Line: pos.Line + 1, Col: 1}, false
	case r == ' ' || r == '\t' || r == '\r':
		return lexNone, Pos{pos.Line, pos.Col + 1}, armed
	case r == '"':
		src.UnreadRune()
		return lexString, pos, armed
	case '0' <= r && r <= '9':
		src.UnreadRune()
		return lexNumber, pos, armed
	case isWordStart(r):
		src.UnreadRune()
		return lexWord, pos, armed
	default:
		src.UnreadRune()
		return lexSymbol, pos, armed
	}
}

func isWordStart(r rune) bool {
	return 'A' <= r && r <= 'Z' || 'a' <= r && r <= 'z' || r == '_'
}

func isWordRune(r rune) bool {
	return isWordStart(r) || '0' <= r && r <= '9'
}

func lexWord(src *bufio.Reader, tokens chan<- Token, pos Pos, armed bool) (lexFn, Pos, bool) {
	var buf []rune
	for {
		r, _, err := src.ReadRune()
		if err != nil {
			break
		}
		if !isWordRune(r) {
			src.UnreadRune()
			break
		}
		buf = append(buf, r)
	}
	text := string(buf)
	lower := lowerASCII(text)
	npos := Pos{pos.Line, pos.Col + len(buf)}

	if armed {
		tokens <- Token{Kind: SymbolLiteralToken, Pos: pos, Text: text}
		return lexNone, npos, false
	}
	if kw, ok := keywordTable[lower]; ok {
		tokens <- Token{Kind: KeywordToken, Pos: pos, Keyword: kw, Text: lower}
		return lexNone, npos, false
	}
	if w, ok := recognisedWordTable[lower]; ok {
		tokens <- Token{Kind: WordToken, Pos: pos, Word: w, Text: lower}
		return lexNone, npos, false
	}
	tokens <- Token{Kind: WordToken, Pos: pos, Word: WordUnknown, Text: text}
	return lexNone, npos, false
}

func lexNumber(src *bufio.Reader, tokens chan<- Token, pos Pos, armed bool) (lexFn, Pos, bool) {
	var buf []rune
	isFloat := false
	for {
		r, _, err := src.ReadRune()
		if err != nil {
			break
		}
		if '0' <= r && r <= '9' {
			buf = append(buf, r)
			continue
		}
		if r == '.' && !isFloat {
			// Only consume the dot if it is followed by a digit; otherwise
			// it belongs to the next token (e.g. a range or dot-access).
			// The dot is unread before peeking because bufio cannot unread
			// a rune once Peek has been called.
			src.UnreadRune()
			peek, _ := src.Peek(2)
			if len(peek) == 2 && '0' <= peek[1] && peek[1] <= '9' {
				src.ReadRune()
				isFloat = true
				buf = append(buf, r)
				continue
			}
			break
		}
		src.UnreadRune()
		break
	}
	text := string(buf)
	npos := Pos{pos.Line, pos.Col + len(buf)}
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			tokens <- Token{Kind: InvalidToken, Pos: pos, Text: "malformed float literal " + strconv.Quote(text)}
			return nil, npos, false
		}
		tokens <- Token{Kind: FloatToken, Pos: pos, Float: f, Text: text}
		return lexNone, npos, false
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		tokens <- Token{Kind: InvalidToken, Pos: pos, Text: "malformed integer literal " + strconv.Quote(text)}
		return nil, npos, false
	}
	tokens <- Token{Kind: IntegerToken, Pos: pos, Int: int32(n), Text: text}
	return lexNone, npos, false
}

func lexString(src *bufio.Reader, tokens chan<- Token, pos Pos, armed bool) (lexFn, Pos, bool) {
	src.ReadRune() // consume opening quote
	var buf []rune
	col := pos.Col + 1
	for {
		r, _, err := src.ReadRune()
		if err != nil {
			tokens <- Token{Kind: InvalidToken, Pos: pos, Text: "unterminated string literal"}
			return nil, pos, false
		}
		col++
		if r == '"' {
			break
		}
		if r == '\n' {
			tokens <- Token{Kind: InvalidToken, Pos: pos, Text: "unterminated string literal"}
			return nil, pos, false
		}
		buf = append(buf, r)
	}
	tokens <- Token{Kind: StringToken, Pos: pos, Text: string(buf)}
	return lexNone, Pos{pos.Line, col}, false
}

func lexSymbol(src *bufio.Reader, tokens chan<- Token, pos Pos, armed bool) (lexFn, Pos, bool) {
	// "--" starts a line comment.
	peek, _ := src.Peek(2)
	if len(peek) == 2 && peek[0] == '-' && peek[1] == '-' {
		src.Read(make([]byte, 2))
		n := 2
		for {
			r, _, err := src.ReadRune()
			if err != nil || r == '\n' {
				if err == nil {
					src.UnreadRune()
				}
				break
			}
			n++
		}
		return lexNone, Pos{pos.Line, pos.Col + n}, false
	}

	r, _, err := src.ReadRune()
	if err != nil {
		return nil, pos, false
	}
	if r == '#' {
		// Arms the "next word is a symbol literal" flag; # itself is not a
		// token.
		return lexNone, Pos{pos.Line, pos.Col + 1}, true
	}
	// Greedy longest match against the symbol table.
	two := string(r)
	r2, _, err2 := src.ReadRune()
	if err2 == nil {
		two += string(r2)
	}
	for _, e := range symbolTable {
		if len(e.text) == 2 && e.text == two {
			tokens <- Token{Kind: SymbolToken, Pos: pos, Sym: e.sym, Text: e.text}
			return lexNone, Pos{pos.Line, pos.Col + 2}, false
		}
	}
	if err2 == nil {
		src.UnreadRune()
	}
	one := string(r)
	for _, e := range symbolTable {
		if len(e.text) == 1 && e.text == one {
			tokens <- Token{Kind: SymbolToken, Pos: pos, Sym: e.sym, Text: e.text}
			return lexNone, Pos{pos.Line, pos.Col + 1}, false
		}
	}
	tokens <- Token{Kind: InvalidToken, Pos: pos, Text: fmt.Sprintf("unrecognised symbol %q", one)}
	return nil, pos, false
}
