package parser

import (
	"sort"

	"github.com/raymyers/ralph-ecc/pkg/fragment"
	"github.com/raymyers/ralph-ecc/pkg/lexer"
)

// emit queues a fragment from a committed parse. Speculative parses never
// emit.
func (p *Parser) emit(f fragment.Fragment) {
	if p.backtracking > 0 {
		return
	}
	p.pending = append(p.pending, f)
}

// flush hands queued fragments to the sink ordered by span start. Nested
// constructs complete before the ones enclosing them, so emission order
// alone would break source order within a kind.
func (p *Parser) flush() {
	if len(p.pending) == 0 {
		return
	}
	sort.SliceStable(p.pending, func(i, j int) bool {
		return p.pending[i].Location().Start.Before(p.pending[j].Location().Start)
	})
	for _, f := range p.pending {
		fragment.Deliver(p.sink, f)
	}
	p.pending = p.pending[:0]
}

func position(tok lexer.Token) fragment.Position {
	return fragment.Position{Line: tok.Line, Column: tok.Column}
}

// spanOf covers start through the start of stop
func spanOf(start, stop lexer.Token) fragment.Span {
	s := fragment.Span{Start: position(start), End: position(stop)}
	if !s.Valid() {
		s.End = s.Start
	}
	return s
}

// text returns the source from start to the end of stop
func (p *Parser) text(start, stop lexer.Token) string {
	return p.ts.TextBetween(start, stop)
}

// last returns the most recently consumed token
func (p *Parser) last() lexer.Token {
	return p.ts.LT(-1)
}
