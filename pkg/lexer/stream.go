package lexer

// Stream is a fully tokenized, seekable view of one source file. It is the
// cursor the parser pulls from: lookahead never consumes, and Mark/Rewind
// restore the position in constant time so speculative parses can be undone.
type Stream struct {
	src    string
	tokens []Token
	p      int // index of the next unconsumed token
	trivia []Trivia
}

// Marker is a saved stream position returned by Mark
type Marker int

// NewStream tokenizes src eagerly and positions the cursor at the first token
func NewStream(src string) *Stream {
	l := New(src)
	s := &Stream{src: src}
	for {
		tok := l.NextToken()
		tok.Index = len(s.tokens)
		s.tokens = append(s.tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	s.trivia = l.Trivia()
	return s
}

// Source returns the text the stream was built from
func (s *Stream) Source() string {
	return s.src
}

// Tokens returns every token including the trailing EOF
func (s *Stream) Tokens() []Token {
	return s.tokens
}

// Trivia returns the comments and directive lines skipped by the lexer
func (s *Stream) Trivia() []Trivia {
	return s.trivia
}

// Len returns the number of tokens including EOF
func (s *Stream) Len() int {
	return len(s.tokens)
}

// LT returns the k-th lookahead token. LT(1) is the next unconsumed token,
// LT(-1) the most recently consumed one. Positions past the end yield EOF.
func (s *Stream) LT(k int) Token {
	var i int
	switch {
	case k > 0:
		i = s.p + k - 1
	case k < 0:
		i = s.p + k
	default:
		return Token{Type: TokenIllegal, Index: -1}
	}
	if i < 0 {
		return Token{Type: TokenIllegal, Index: -1}
	}
	if i >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1]
	}
	return s.tokens[i]
}

// LA returns the type of the k-th lookahead token
func (s *Stream) LA(k int) TokenType {
	return s.LT(k).Type
}

// Consume returns the current token and advances. EOF is never consumed past.
func (s *Stream) Consume() Token {
	tok := s.tokens[s.p]
	if tok.Type != TokenEOF {
		s.p++
	}
	return tok
}

// Index returns the index of the next unconsumed token
func (s *Stream) Index() int {
	return s.p
}

// Seek moves the cursor to token index i
func (s *Stream) Seek(i int) {
	if i < 0 {
		i = 0
	}
	if i >= len(s.tokens) {
		i = len(s.tokens) - 1
	}
	s.p = i
}

// Mark saves the current position. Marks nest freely; rewinding to any
// enclosing mark is always valid.
func (s *Stream) Mark() Marker {
	return Marker(s.p)
}

// Rewind restores the position saved by m
func (s *Stream) Rewind(m Marker) {
	s.Seek(int(m))
}

// TextBetween returns the verbatim source from the start of a to the end of
// b, including any whitespace and comments in between. It returns "" when b
// precedes a.
func (s *Stream) TextBetween(a, b Token) string {
	if b.End < a.Offset {
		return ""
	}
	return s.src[a.Offset:b.End]
}
