// Package lexer tokenizes EFI C source (the EDK2 dialect of C) and provides
// a seekable token stream for the backtracking parser.
package lexer

// TriviaKind classifies hidden-channel text that does not reach the parser
type TriviaKind int

const (
	TriviaComment TriviaKind = iota
	TriviaDirective
)

func (k TriviaKind) String() string {
	if k == TriviaDirective {
		return "directive"
	}
	return "comment"
}

// Trivia is a comment or preprocessor line skipped by the lexer
type Trivia struct {
	Kind   TriviaKind
	Text   string
	Line   int
	Column int
}

// Lexer tokenizes EFI C source code
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // next reading position
	ch      byte // current character
	line    int
	column  int
	trivia  []Trivia
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos > 0 && l.pos < len(l.input) {
		if l.ch == '\n' {
			l.line++
			l.column = 0
		} else if l.readPos >= len(l.input) || !isContinuation(l.input[l.readPos]) {
			l.column++
		}
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) peekCharAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// Trivia returns the comments and directive lines skipped so far
func (l *Lexer) Trivia() []Trivia {
	return l.trivia
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipHidden()

	tok := Token{Line: l.line, Column: l.column, Offset: l.pos}
	if l.atEOF() {
		tok.Type = TokenEOF
		tok.Offset = len(l.input)
		tok.End = len(l.input)
		return tok
	}

	switch l.ch {
	case '+':
		tok.Type = l.pick(TokenPlus, alt{'+', TokenIncrement}, alt{'=', TokenPlusAssign})
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			tok.Type = TokenArrow
		} else {
			tok.Type = l.pick(TokenMinus, alt{'-', TokenDecrement}, alt{'=', TokenMinusAssign})
		}
	case '*':
		tok.Type = l.pick(TokenStar, alt{'=', TokenStarAssign})
	case '/':
		tok.Type = l.pick(TokenSlash, alt{'=', TokenSlashAssign})
	case '%':
		tok.Type = l.pick(TokenPercent, alt{'=', TokenPercentAssign})
	case '=':
		tok.Type = l.pick(TokenAssign, alt{'=', TokenEq})
	case '!':
		tok.Type = l.pick(TokenNot, alt{'=', TokenNe})
	case '^':
		tok.Type = l.pick(TokenCaret, alt{'=', TokenXorAssign})
	case '&':
		tok.Type = l.pick(TokenAmpersand, alt{'&', TokenAnd}, alt{'=', TokenAndAssign})
	case '|':
		tok.Type = l.pick(TokenPipe, alt{'|', TokenOr}, alt{'=', TokenOrAssign})
	case '<':
		if l.peekChar() == '<' {
			l.readChar()
			tok.Type = l.pick(TokenShl, alt{'=', TokenShlAssign})
		} else {
			tok.Type = l.pick(TokenLt, alt{'=', TokenLe})
		}
	case '>':
		if l.peekChar() == '>' {
			l.readChar()
			tok.Type = l.pick(TokenShr, alt{'=', TokenShrAssign})
		} else {
			tok.Type = l.pick(TokenGt, alt{'=', TokenGe})
		}
	case '~':
		tok.Type = TokenTilde
	case '?':
		tok.Type = TokenQuestion
	case ':':
		tok.Type = TokenColon
	case '(':
		tok.Type = TokenLParen
	case ')':
		tok.Type = TokenRParen
	case '{':
		tok.Type = TokenLBrace
	case '}':
		tok.Type = TokenRBrace
	case '[':
		tok.Type = TokenLBracket
	case ']':
		tok.Type = TokenRBracket
	case ';':
		tok.Type = TokenSemicolon
	case ',':
		tok.Type = TokenComma
	case '.':
		if isDigit(l.peekChar()) {
			tok.Type = l.readNumber()
			return l.finish(tok)
		}
		if l.peekChar() == '.' && l.peekCharAt(2) == '.' {
			l.readChar()
			l.readChar()
			tok.Type = TokenEllipsis
		} else {
			tok.Type = TokenDot
		}
	case '"':
		l.readQuoted('"')
		tok.Type = TokenString
		return l.finish(tok)
	case '\'':
		l.readQuoted('\'')
		tok.Type = TokenChar
		return l.finish(tok)
	default:
		if l.ch == 'L' && (l.peekChar() == '"' || l.peekChar() == '\'') {
			l.readChar() // consume L
			if l.ch == '"' {
				tok.Type = TokenString
			} else {
				tok.Type = TokenChar
			}
			l.readQuoted(l.ch)
			return l.finish(tok)
		}
		if isLetter(l.ch) {
			l.readIdentifier()
			tok = l.finish(tok)
			tok.Type = LookupIdent(tok.Literal)
			return tok
		}
		if isDigit(l.ch) {
			tok.Type = l.readNumber()
			return l.finish(tok)
		}
		tok.Type = TokenIllegal
		// consume the whole rune so columns stay aligned
		for l.readPos < len(l.input) && isContinuation(l.input[l.readPos]) {
			l.readChar()
		}
	}

	l.readChar()
	return l.finish(tok)
}

// alt is a candidate second character for a two-character operator
type alt struct {
	ch  byte
	typ TokenType
}

// pick consumes an optional second character, returning def when none of
// the alternatives matches.
func (l *Lexer) pick(def TokenType, alts ...alt) TokenType {
	for _, a := range alts {
		if l.peekChar() == a.ch {
			l.readChar()
			return a.typ
		}
	}
	return def
}

func (l *Lexer) finish(tok Token) Token {
	tok.End = l.pos
	if tok.End > len(l.input) {
		tok.End = len(l.input)
	}
	tok.Literal = l.input[tok.Offset:tok.End]
	return tok
}

func (l *Lexer) skipHidden() {
	for !l.atEOF() {
		switch {
		case isSpace(l.ch) || l.ch == '\\':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			l.skipLineComment()
		case l.ch == '/' && l.peekChar() == '*':
			l.skipBlockComment()
		case l.ch == '#':
			l.skipDirective()
		default:
			return
		}
	}
}

func (l *Lexer) skipLineComment() {
	start, line, col := l.pos, l.line, l.column
	for !l.atEOF() && l.ch != '\n' {
		l.readChar()
	}
	l.addTrivia(TriviaComment, start, line, col)
}

func (l *Lexer) skipBlockComment() {
	start, line, col := l.pos, l.line, l.column
	l.readChar() // consume /
	l.readChar() // consume *
	for !l.atEOF() {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			break
		}
		l.readChar()
	}
	l.addTrivia(TriviaComment, start, line, col)
}

// skipDirective drops a preprocessor line, following backslash continuations
func (l *Lexer) skipDirective() {
	start, line, col := l.pos, l.line, l.column
	for !l.atEOF() && l.ch != '\n' {
		if l.ch == '\\' && (l.peekChar() == '\n' || (l.peekChar() == '\r' && l.peekCharAt(2) == '\n')) {
			for l.ch != '\n' {
				l.readChar()
			}
		}
		l.readChar()
	}
	l.addTrivia(TriviaDirective, start, line, col)
}

func (l *Lexer) addTrivia(kind TriviaKind, start, line, col int) {
	end := l.pos
	if end > len(l.input) {
		end = len(l.input)
	}
	l.trivia = append(l.trivia, Trivia{Kind: kind, Text: l.input[start:end], Line: line, Column: col})
}

func (l *Lexer) readIdentifier() {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) readNumber() TokenType {
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		l.readIntSuffix()
		return TokenHex
	}

	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	digits := l.pos - start

	isFloat := false
	if l.ch == '.' {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekCharAt(2))) {
			isFloat = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	if isFloat {
		switch l.ch {
		case 'f', 'F', 'd', 'D', 'l', 'L':
			l.readChar()
		}
		return TokenFloat
	}

	l.readIntSuffix()
	if digits > 1 && l.input[start] == '0' {
		return TokenOctal
	}
	return TokenDecimal
}

func (l *Lexer) readIntSuffix() {
	for l.ch == 'u' || l.ch == 'U' || l.ch == 'l' || l.ch == 'L' {
		l.readChar()
	}
}

// readQuoted consumes a string or character literal starting at the
// opening quote. An unterminated literal stops at the end of the line.
func (l *Lexer) readQuoted(quote byte) {
	l.readChar() // consume opening quote
	for !l.atEOF() && l.ch != quote && l.ch != '\n' {
		if l.ch == '\\' {
			l.readChar() // skip escape char
		}
		l.readChar()
	}
	if l.ch == quote {
		l.readChar()
	}
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_' || ch == '$'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isContinuation(b byte) bool {
	return b&0xC0 == 0x80
}
