package parser

import (
	"errors"
	"fmt"

	"github.com/raymyers/ralph-ecc/pkg/lexer"
)

// FailureKind classifies why a rule attempt failed
type FailureKind int

const (
	// Mismatch: an expected token was absent
	Mismatch FailureKind = iota
	// EarlyExit: a one-or-more loop matched nothing
	EarlyExit
	// NoViableAlt: no alternative of a decision applies
	NoViableAlt
)

func (k FailureKind) String() string {
	switch k {
	case Mismatch:
		return "mismatch"
	case EarlyExit:
		return "early exit"
	case NoViableAlt:
		return "no viable alternative"
	}
	return "unknown failure"
}

// Failure is the result of a rule that did not match
type Failure struct {
	Kind     FailureKind
	Rule     Rule
	Expected string
	Found    lexer.Token
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s in %s: expected %s, found %s", f.Kind, f.Rule, f.Expected, describe(f.Found))
}

type memoKey struct {
	rule  Rule
	index int
}

// memoEntry records how a rule ended when started at a token index: the
// index after the match, or the failure.
type memoEntry struct {
	stop    int
	failure error
}

// invoke runs body as rule r. While speculating, results are memoized by
// (rule, start index). In a committed parse a failure is reported and the
// rule resynchronizes, returning as if it had matched.
func (p *Parser) invoke(r Rule, body func() error) error {
	start := p.ts.Index()
	key := memoKey{r, start}
	if p.backtracking > 0 && p.memoize {
		if e, ok := p.memo[key]; ok {
			p.stats.MemoHits++
			if e.failure != nil {
				return e.failure
			}
			p.ts.Seek(e.stop)
			return nil
		}
	}

	p.stats.RuleCalls[r]++
	p.stack = append(p.stack, r)
	err := body()

	if p.backtracking > 0 {
		p.stack = p.stack[:len(p.stack)-1]
		if p.memoize {
			p.memo[key] = memoEntry{stop: p.ts.Index(), failure: err}
		}
		return err
	}

	if err != nil && !p.halted {
		err = p.recover(r, start, err)
	}
	p.stack = p.stack[:len(p.stack)-1]
	return err
}

// speculate runs fn silently and rewinds, reporting whether it matched
func (p *Parser) speculate(fn func() error) bool {
	m := p.ts.Mark()
	p.backtracking++
	p.stats.Speculations++
	err := fn()
	p.backtracking--
	p.ts.Rewind(m)
	return err == nil
}

func (p *Parser) current() Rule {
	if len(p.stack) == 0 {
		return RuleTranslationUnit
	}
	return p.stack[len(p.stack)-1]
}

func (p *Parser) la(k int) lexer.TokenType {
	return p.ts.LA(k)
}

func (p *Parser) lt(k int) lexer.Token {
	return p.ts.LT(k)
}

// at reports whether the next token is one of types
func (p *Parser) at(types ...lexer.TokenType) bool {
	t := p.la(1)
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// match consumes the next token if it has type t
func (p *Parser) match(t lexer.TokenType) (lexer.Token, error) {
	tok := p.lt(1)
	if tok.Type != t {
		return tok, p.fail(Mismatch, t.String())
	}
	p.ts.Consume()
	if p.backtracking == 0 {
		p.errorRecovery = false
	}
	return tok, nil
}

// matchAny consumes the next token if it is in set
func (p *Parser) matchAny(set tokenSet, expected string) (lexer.Token, error) {
	tok := p.lt(1)
	if !set.has(tok.Type) {
		return tok, p.fail(Mismatch, expected)
	}
	p.ts.Consume()
	if p.backtracking == 0 {
		p.errorRecovery = false
	}
	return tok, nil
}

func (p *Parser) fail(kind FailureKind, expected string) *Failure {
	return &Failure{Kind: kind, Rule: p.current(), Expected: expected, Found: p.lt(1)}
}

// optional runs body when guard holds
func (p *Parser) optional(guard func() bool, body func() error) error {
	if guard() {
		return body()
	}
	return nil
}

// zeroOrMore runs body while guard holds. A pass that consumes nothing
// ends the loop.
func (p *Parser) zeroOrMore(guard func() bool, body func() error) error {
	_, err := p.loop(guard, body)
	return err
}

// oneOrMore is zeroOrMore that fails with EarlyExit when body never ran
func (p *Parser) oneOrMore(expected string, guard func() bool, body func() error) error {
	n, err := p.loop(guard, body)
	if err != nil {
		return err
	}
	if n == 0 {
		return p.fail(EarlyExit, expected)
	}
	return nil
}

// loop runs body while guard holds and returns the number of passes. A
// pass that recovered from an error without consuming is retried once, so
// the second recovery at that index skips the offending token.
func (p *Parser) loop(guard func() bool, body func() error) (int, error) {
	n := 0
	retried := -1
	for !p.halted && guard() {
		before := p.ts.Index()
		if err := body(); err != nil {
			return n, err
		}
		n++
		if p.ts.Index() == before {
			if p.backtracking == 0 && p.lastErrorIndex == before && retried != before {
				retried = before
				continue
			}
			break
		}
	}
	return n, nil
}

// alternative is one branch of a decision: body runs when guard holds
type alternative struct {
	guard func() bool
	body  func() error
}

// choose runs the first alternative whose guard holds
func (p *Parser) choose(expected string, alts ...alternative) error {
	for _, alt := range alts {
		if alt.guard == nil || alt.guard() {
			return alt.body()
		}
	}
	return p.fail(NoViableAlt, expected)
}

func asFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return nil
}
