package parser

import (
	"log/slog"

	"github.com/raymyers/ralph-ecc/pkg/fragment"
	"github.com/raymyers/ralph-ecc/pkg/lexer"
)

// tokenSet is a bitset over token types
type tokenSet [2]uint64

func newTokenSet(types ...lexer.TokenType) tokenSet {
	var s tokenSet
	for _, t := range types {
		s[t/64] |= 1 << (uint(t) % 64)
	}
	return s
}

func (s tokenSet) has(t lexer.TokenType) bool {
	if t < 0 || int(t) >= len(s)*64 {
		return false
	}
	return s[t/64]&(1<<(uint(t)%64)) != 0
}

func (s tokenSet) union(o tokenSet) tokenSet {
	return tokenSet{s[0] | o[0], s[1] | o[1]}
}

var (
	semicolon = newTokenSet(lexer.TokenSemicolon)
	rbrace    = newTokenSet(lexer.TokenRBrace)
)

// terminated rules end in ';' which recovery consumes
var terminated = map[Rule]bool{
	RuleDeclaration:         true,
	RuleExpressionStatement: true,
	RuleJumpStatement:       true,
	RuleStructDeclaration:   true,
	RuleAsm2Statement:       true,
}

// recoverySets lists the tokens each rule resynchronizes on
var recoverySets = map[Rule]tokenSet{
	RuleExternalDeclaration:    semicolon.union(rbrace),
	RuleDeclaration:            semicolon,
	RuleExpressionStatement:    semicolon,
	RuleJumpStatement:          semicolon,
	RuleStructDeclaration:      semicolon,
	RuleAsm2Statement:          semicolon,
	RuleStatement:              semicolon,
	RuleCompoundStatement:      rbrace,
	RuleStructDeclarationList:  rbrace,
	RuleStructOrUnionSpecifier: rbrace,
	RuleEnumSpecifier:          rbrace,
	RuleInitializer:            rbrace,
}

// followSet is the union of the recovery sets of the active rules
func (p *Parser) followSet() tokenSet {
	var s tokenSet
	for _, r := range p.stack {
		s = s.union(recoverySets[r])
	}
	return s
}

// report records a committed error unless one was reported since the last
// successful match.
func (p *Parser) report(f *Failure) {
	if p.errorRecovery {
		return
	}
	p.errorRecovery = true
	if p.maxErrors > 0 && len(p.errors) >= p.maxErrors {
		return
	}
	e := &ParseError{
		Kind:     f.Kind,
		Rule:     f.Rule,
		Expected: f.Expected,
		Found:    f.Found,
		Pos:      fragment.Position{Line: f.Found.Line, Column: f.Found.Column},
	}
	p.errors = append(p.errors, e)
	p.logger.Debug("syntax error",
		slog.String("rule", e.Rule.String()),
		slog.String("kind", e.Kind.String()),
		slog.String("expected", e.Expected),
		slog.String("found", describe(e.Found)),
		slog.Int("line", e.Pos.Line),
		slog.Int("col", e.Pos.Column))
	if p.onError != nil {
		p.onError(e)
	}
}

// recover reports err for rule r, which started at token index start, and
// skips ahead to a token the active rules can resume from. A follow token
// is left for the caller to match; when recovery runs again at the same
// index that token is dropped instead. Running out of input halts the parse.
func (p *Parser) recover(r Rule, start int, err error) error {
	f := asFailure(err)
	if f == nil {
		return err
	}
	p.report(f)

	if f.Found.Type == lexer.TokenEOF {
		p.halted = true
		return err
	}

	if p.ts.Index() == p.lastErrorIndex {
		p.ts.Consume()
		p.lastErrorIndex = p.ts.Index()
	} else {
		p.lastErrorIndex = p.ts.Index()
		follow := p.followSet()
		for !p.at(lexer.TokenEOF) && !follow.has(p.la(1)) {
			p.ts.Consume()
		}
		if terminated[r] && p.at(lexer.TokenSemicolon) {
			p.ts.Consume()
		}
	}
	p.logger.Debug("resynchronized",
		slog.String("rule", r.String()),
		slog.Int("skipped", p.ts.Index()-start),
		slog.String("at", describe(p.lt(1))))
	return nil
}
