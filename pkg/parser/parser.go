// Package parser implements a backtracking recursive descent parser for
// EFI C. Instead of building an AST it reports code fragments (function
// definitions, declarations, typedefs, aggregate definitions, predicates and
// call sites) to a fragment.Sink.
package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/raymyers/ralph-ecc/pkg/fragment"
	"github.com/raymyers/ralph-ecc/pkg/lexer"
)

var (
	// ErrSyntax is wrapped by errors describing recovered syntax errors
	ErrSyntax = errors.New("syntax error")
	// ErrUnexpectedEOF is wrapped when input ran out inside a rule
	ErrUnexpectedEOF = errors.New("unexpected end of input")
	// ErrUnknownRule is returned by Attempt for a rule it cannot run
	ErrUnknownRule = errors.New("unknown rule")
)

// ParseError is a committed parse failure: how the rule failed, the rule
// it happened in, what was expected there and the token found instead.
type ParseError struct {
	Kind     FailureKind
	Rule     Rule
	Expected string
	Found    lexer.Token
	Pos      fragment.Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s: expected %s, found %s",
		e.Pos.Line, e.Pos.Column, e.Rule, e.Expected, describe(e.Found))
}

func (e *ParseError) Unwrap() error {
	if e.Found.Type == lexer.TokenEOF {
		return ErrUnexpectedEOF
	}
	return ErrSyntax
}

// SyntaxError is returned by ParseTranslationUnit when committed errors were
// reported. Truncated is set when input ran out inside a rule, in which case
// the rest of the translation unit was abandoned.
type SyntaxError struct {
	Errors    []*ParseError
	Truncated bool
}

func (e *SyntaxError) Error() string {
	var sb strings.Builder
	if e.Truncated {
		sb.WriteString("unexpected end of input")
	} else {
		fmt.Fprintf(&sb, "%d syntax error(s)", len(e.Errors))
	}
	if len(e.Errors) > 0 {
		sb.WriteString(": ")
		sb.WriteString(e.Errors[0].Error())
	}
	return sb.String()
}

func (e *SyntaxError) Unwrap() []error {
	errs := []error{ErrSyntax}
	if e.Truncated {
		errs = append(errs, ErrUnexpectedEOF)
	}
	return errs
}

// Stats counts backtracking work done by a parser
type Stats struct {
	Speculations int
	MemoHits     int
	// RuleCalls counts rule bodies actually run, memo hits excluded
	RuleCalls map[Rule]int
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger used for debug output. A nil logger discards.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithErrorHandler registers a callback invoked for every reported error
func WithErrorHandler(fn func(*ParseError)) Option {
	return func(p *Parser) {
		p.onError = fn
	}
}

// WithMemoization enables or disables the speculation memo table
func WithMemoization(on bool) Option {
	return func(p *Parser) {
		p.memoize = on
	}
}

// WithMaxErrors caps the number of errors recorded. Zero means unlimited.
// Recovery continues past the cap.
func WithMaxErrors(n int) Option {
	return func(p *Parser) {
		p.maxErrors = n
	}
}

// Parser parses one token stream. A Parser must not be reused for another
// stream since its memo table is keyed by token index.
type Parser struct {
	ts      *lexer.Stream
	sink    fragment.Sink
	logger  *slog.Logger
	onError func(*ParseError)

	memoize   bool
	maxErrors int

	backtracking   int // nesting depth of speculate
	memo           map[memoKey]memoEntry
	stack          []Rule
	pending        []fragment.Fragment
	errors         []*ParseError
	errorRecovery  bool // suppress reports until a token matches
	lastErrorIndex int  // token index of the last recovery, -1 before any
	halted         bool // input ran out inside a rule
	stats          Stats
}

// New creates a Parser reading from ts and emitting into sink
func New(ts *lexer.Stream, sink fragment.Sink, opts ...Option) *Parser {
	p := &Parser{
		ts:      ts,
		sink:    sink,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		memoize: true,
		memo:    make(map[memoKey]memoEntry),
		stats:   Stats{RuleCalls: make(map[Rule]int)},

		lastErrorIndex: -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(slog.String("component", "parser"))
	return p
}

// ParseTranslationUnit parses the whole stream. It returns nil for clean
// input and a *SyntaxError when errors were reported.
func (p *Parser) ParseTranslationUnit() error {
	p.logger.Debug("parse start", slog.Int("tokens", p.ts.Len()))

	err := p.translationUnit()
	p.flush()

	p.logger.Debug("parse finished",
		slog.Int("errors", len(p.errors)),
		slog.Int("speculations", p.stats.Speculations),
		slog.Int("memo_hits", p.stats.MemoHits),
		slog.Bool("truncated", p.halted))

	if err != nil && !p.halted {
		return err
	}
	if len(p.errors) > 0 || p.halted {
		return &SyntaxError{Errors: p.errors, Truncated: p.halted}
	}
	return nil
}

// Speculate reports whether rule r matches at the current position. The
// cursor is left where it was and nothing is emitted or reported.
func (p *Parser) Speculate(r Rule) bool {
	fn := p.rule(r)
	if fn == nil {
		return false
	}
	return p.speculate(fn)
}

// Attempt runs rule r for real at the current position, emitting its
// fragments. It returns the first error reported while doing so.
func (p *Parser) Attempt(r Rule) error {
	fn := p.rule(r)
	if fn == nil {
		return fmt.Errorf("%w: %d", ErrUnknownRule, int(r))
	}
	before := len(p.errors)
	err := fn()
	p.flush()
	if len(p.errors) > before {
		return p.errors[before]
	}
	if err != nil {
		return err
	}
	if p.halted {
		return ErrUnexpectedEOF
	}
	return nil
}

// Errors returns the errors reported so far
func (p *Parser) Errors() []*ParseError {
	return p.errors
}

// Stats returns a snapshot of the backtracking counters
func (p *Parser) Stats() Stats {
	calls := make(map[Rule]int, len(p.stats.RuleCalls))
	for r, n := range p.stats.RuleCalls {
		calls[r] = n
	}
	return Stats{
		Speculations: p.stats.Speculations,
		MemoHits:     p.stats.MemoHits,
		RuleCalls:    calls,
	}
}

// ParseSource tokenizes and parses src, collecting fragments into a new
// profile named name. The profile is returned even when err is non-nil.
func ParseSource(name, src string, opts ...Option) (*fragment.Profile, error) {
	prof := fragment.NewProfile(name)
	p := New(lexer.NewStream(src), prof, opts...)
	return prof, p.ParseTranslationUnit()
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokenEOF {
		return "<EOF>"
	}
	return fmt.Sprintf("%q", tok.Literal)
}
