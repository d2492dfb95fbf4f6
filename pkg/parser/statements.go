package parser

import (
	"github.com/raymyers/ralph-ecc/pkg/fragment"
	"github.com/raymyers/ralph-ecc/pkg/lexer"
)

var (
	statementKeywords = newTokenSet(
		lexer.TokenIf, lexer.TokenElse, lexer.TokenSwitch, lexer.TokenCase, lexer.TokenDefault,
		lexer.TokenWhile, lexer.TokenDo, lexer.TokenFor, lexer.TokenGoto, lexer.TokenContinue,
		lexer.TokenBreak, lexer.TokenReturn, lexer.TokenAsmGNU, lexer.TokenAsm1, lexer.TokenAsmMSVC)

	// statementBoundaries may start the statement after a macro invocation
	// written without a trailing ';'
	statementBoundaries = statementKeywords.union(declarationKeywords).union(newTokenSet(
		lexer.TokenLBrace, lexer.TokenRBrace, lexer.TokenIdent, lexer.TokenEOF))
)

// asm2Spellings are identifiers that introduce GNU style inline assembly
var asm2Spellings = map[string]bool{
	"asm":          true,
	"__volatile__": true,
	"__volatile":   true,
}

func (p *Parser) translationUnit() error {
	return p.invoke(RuleTranslationUnit, func() error {
		return p.zeroOrMore(
			func() bool { return !p.at(lexer.TokenEOF) },
			func() error {
				err := p.externalDeclaration()
				p.flush()
				return err
			})
	})
}

// externalDeclaration tries a function definition first, since it shares an
// arbitrarily long prefix with a declaration, then a declaration, then a
// macro invocation.
func (p *Parser) externalDeclaration() error {
	return p.invoke(RuleExternalDeclaration, func() error {
		return p.choose("declaration or function definition",
			alternative{
				guard: func() bool { return p.speculate(p.functionHead) },
				body:  p.functionDefinition,
			},
			alternative{
				guard: func() bool { return p.speculate(p.declaration) },
				body:  p.declaration,
			},
			alternative{
				guard: func() bool { return p.at(lexer.TokenIdent) && p.la(2) == lexer.TokenLParen },
				body: func() error {
					if err := p.macroStatement(); err != nil {
						return err
					}
					if p.at(lexer.TokenSemicolon) {
						p.ts.Consume()
					}
					return nil
				},
			},
			alternative{
				guard: func() bool { return p.at(lexer.TokenIdent) || declarationKeywords.has(p.la(1)) },
				body:  p.declaration,
			},
		)
	})
}

func (p *Parser) statement() error {
	return p.invoke(RuleStatement, func() error {
		switch p.la(1) {
		case lexer.TokenIdent:
			switch {
			case p.la(2) == lexer.TokenColon:
				return p.labeledStatement()
			case p.atAsm2():
				return p.asm2Statement()
			case p.la(2) == lexer.TokenLParen:
				return p.callLikeStatement()
			}
		case lexer.TokenCase, lexer.TokenDefault:
			return p.labeledStatement()
		case lexer.TokenLBrace:
			return p.compoundStatement()
		case lexer.TokenIf, lexer.TokenSwitch:
			return p.selectionStatement()
		case lexer.TokenWhile, lexer.TokenDo, lexer.TokenFor:
			return p.iterationStatement()
		case lexer.TokenGoto, lexer.TokenContinue, lexer.TokenBreak, lexer.TokenReturn:
			return p.jumpStatement()
		case lexer.TokenAsm1:
			return p.asm1Statement()
		case lexer.TokenAsmMSVC:
			return p.asmStatement()
		case lexer.TokenAsmGNU:
			return p.asm2Statement()
		case lexer.TokenSemicolon:
			return p.expressionStatement()
		}

		t := p.la(1)
		if (t == lexer.TokenIdent || declarationKeywords.has(t)) && p.speculate(p.declaration) {
			return p.declaration()
		}
		switch {
		case declarationKeywords.has(t):
			return p.declaration()
		case expressionStarts.has(t):
			return p.expressionStatement()
		}
		return p.fail(NoViableAlt, "statement")
	})
}

// callLikeStatement handles a statement starting with IDENTIFIER '('. What
// follows the balanced parenthesized group decides the order in which the
// macro and expression readings are tried: a ';' favours a call, a token
// that can start another statement favours a macro used as a statement.
func (p *Parser) callLikeStatement() error {
	var order []func() error
	switch next := p.la(p.afterGroup(2)); {
	case next == lexer.TokenSemicolon:
		order = []func() error{p.expressionStatement, p.macroStatement}
	case statementBoundaries.has(next):
		order = []func() error{p.macroStatement, p.expressionStatement}
	default:
		order = []func() error{p.expressionStatement}
	}
	for _, alt := range order {
		if p.speculate(alt) {
			return alt()
		}
	}
	if p.speculate(p.declaration) {
		return p.declaration()
	}
	return p.expressionStatement()
}

// afterGroup returns the lookahead depth just past the parenthesized group
// opening at depth k
func (p *Parser) afterGroup(k int) int {
	depth := 0
	for ; ; k++ {
		switch p.la(k) {
		case lexer.TokenLParen:
			depth++
		case lexer.TokenRParen:
			depth--
			if depth == 0 {
				return k + 1
			}
		case lexer.TokenEOF:
			return k
		}
	}
}

func (p *Parser) atAsm2() bool {
	return p.at(lexer.TokenAsmGNU) ||
		(p.at(lexer.TokenIdent) && asm2Spellings[p.lt(1).Literal])
}

// asm2Statement: '__asm__'? (IDENTIFIER | type_qualifier)* '(' (~';')* ')' ';'
func (p *Parser) asm2Statement() error {
	return p.invoke(RuleAsm2Statement, func() error {
		if p.at(lexer.TokenAsmGNU) {
			p.ts.Consume()
		}
		for p.at(lexer.TokenIdent) || typeQualifiers.has(p.la(1)) {
			p.ts.Consume()
		}
		if _, err := p.match(lexer.TokenLParen); err != nil {
			return err
		}
		for !p.at(lexer.TokenSemicolon, lexer.TokenEOF) &&
			!(p.at(lexer.TokenRParen) && p.la(2) == lexer.TokenSemicolon) {
			p.ts.Consume()
		}
		if _, err := p.match(lexer.TokenRParen); err != nil {
			return err
		}
		_, err := p.match(lexer.TokenSemicolon)
		return err
	})
}

func (p *Parser) asm1Statement() error {
	return p.invoke(RuleAsm1Statement, func() error {
		return p.rawBlock(lexer.TokenAsm1)
	})
}

func (p *Parser) asmStatement() error {
	return p.invoke(RuleAsmStatement, func() error {
		return p.rawBlock(lexer.TokenAsmMSVC)
	})
}

// rawBlock matches kw '{' (~'}')* '}' without looking at the contents
func (p *Parser) rawBlock(kw lexer.TokenType) error {
	if _, err := p.match(kw); err != nil {
		return err
	}
	if _, err := p.match(lexer.TokenLBrace); err != nil {
		return err
	}
	for !p.at(lexer.TokenRBrace, lexer.TokenEOF) {
		p.ts.Consume()
	}
	_, err := p.match(lexer.TokenRBrace)
	return err
}

// macroStatement: IDENTIFIER '(' declaration* statement_list? expression? ')'
func (p *Parser) macroStatement() error {
	return p.invoke(RuleMacroStatement, func() error {
		if _, err := p.match(lexer.TokenIdent); err != nil {
			return err
		}
		if _, err := p.match(lexer.TokenLParen); err != nil {
			return err
		}
		if err := p.zeroOrMore(p.atMacroDeclaration, p.declaration); err != nil {
			return err
		}
		if err := p.zeroOrMore(p.atMacroStatement, p.statement); err != nil {
			return err
		}
		if !p.at(lexer.TokenRParen) {
			if err := p.expression(); err != nil {
				return err
			}
		}
		_, err := p.match(lexer.TokenRParen)
		return err
	})
}

func (p *Parser) atMacroDeclaration() bool {
	return !p.at(lexer.TokenRParen) && p.atDeclaration()
}

func (p *Parser) atMacroStatement() bool {
	return !p.at(lexer.TokenRParen, lexer.TokenEOF) && p.speculate(p.statement)
}

func (p *Parser) labeledStatement() error {
	return p.invoke(RuleLabeledStatement, func() error {
		switch p.la(1) {
		case lexer.TokenIdent, lexer.TokenDefault:
			p.ts.Consume()
		case lexer.TokenCase:
			p.ts.Consume()
			if err := p.constantExpression(); err != nil {
				return err
			}
		default:
			return p.fail(NoViableAlt, "label")
		}
		if _, err := p.match(lexer.TokenColon); err != nil {
			return err
		}
		return p.statement()
	})
}

// compoundStatement: '{' declaration* statement_list? '}'
func (p *Parser) compoundStatement() error {
	return p.invoke(RuleCompoundStatement, func() error {
		if _, err := p.match(lexer.TokenLBrace); err != nil {
			return err
		}
		if err := p.zeroOrMore(p.atDeclaration, p.declaration); err != nil {
			return err
		}
		if !p.at(lexer.TokenRBrace, lexer.TokenEOF) {
			if err := p.statementList(); err != nil {
				return err
			}
		}
		_, err := p.match(lexer.TokenRBrace)
		return err
	})
}

func (p *Parser) statementList() error {
	return p.invoke(RuleStatementList, func() error {
		return p.oneOrMore("statement",
			func() bool { return !p.at(lexer.TokenRBrace, lexer.TokenEOF) },
			p.statement)
	})
}

// expressionStatement: ';' | expression ';'
func (p *Parser) expressionStatement() error {
	return p.invoke(RuleExpressionStatement, func() error {
		if !p.at(lexer.TokenSemicolon) {
			if err := p.expression(); err != nil {
				return err
			}
		}
		_, err := p.match(lexer.TokenSemicolon)
		return err
	})
}

// condition parses '(' expression ')' and returns the predicate fragment
// for the expression
func (p *Parser) condition() (fragment.PredicateExpression, error) {
	if _, err := p.match(lexer.TokenLParen); err != nil {
		return fragment.PredicateExpression{}, err
	}
	start := p.lt(1)
	if err := p.expression(); err != nil {
		return fragment.PredicateExpression{}, err
	}
	stop := p.last()
	if _, err := p.match(lexer.TokenRParen); err != nil {
		return fragment.PredicateExpression{}, err
	}
	return fragment.PredicateExpression{Text: p.text(start, stop), Span: spanOf(start, stop)}, nil
}

func (p *Parser) selectionStatement() error {
	return p.invoke(RuleSelectionStatement, func() error {
		if p.at(lexer.TokenSwitch) {
			p.ts.Consume()
			if _, err := p.condition(); err != nil {
				return err
			}
			return p.statement()
		}

		if _, err := p.match(lexer.TokenIf); err != nil {
			return err
		}
		pred, err := p.condition()
		if err != nil {
			return err
		}
		p.emit(pred)
		if err := p.statement(); err != nil {
			return err
		}
		if !p.at(lexer.TokenElse) {
			return nil
		}
		p.ts.Consume()
		return p.statement()
	})
}

func (p *Parser) iterationStatement() error {
	return p.invoke(RuleIterationStatement, func() error {
		switch p.la(1) {
		case lexer.TokenWhile:
			p.ts.Consume()
			pred, err := p.condition()
			if err != nil {
				return err
			}
			if err := p.statement(); err != nil {
				return err
			}
			p.emit(pred)
			return nil

		case lexer.TokenDo:
			p.ts.Consume()
			if err := p.statement(); err != nil {
				return err
			}
			if _, err := p.match(lexer.TokenWhile); err != nil {
				return err
			}
			pred, err := p.condition()
			if err != nil {
				return err
			}
			if _, err := p.match(lexer.TokenSemicolon); err != nil {
				return err
			}
			p.emit(pred)
			return nil
		}

		if _, err := p.match(lexer.TokenFor); err != nil {
			return err
		}
		return p.forClauses()
	})
}

// forClauses parses '(' init ';' cond ';' step? ')' statement. Only a
// non-empty cond is reported as a predicate.
func (p *Parser) forClauses() error {
	if _, err := p.match(lexer.TokenLParen); err != nil {
		return err
	}
	if err := p.expressionStatement(); err != nil {
		return err
	}

	var pred *fragment.PredicateExpression
	if !p.at(lexer.TokenSemicolon) {
		start := p.lt(1)
		if err := p.expression(); err != nil {
			return err
		}
		stop := p.last()
		pred = &fragment.PredicateExpression{Text: p.text(start, stop), Span: spanOf(start, stop)}
	}
	if _, err := p.match(lexer.TokenSemicolon); err != nil {
		return err
	}

	if !p.at(lexer.TokenRParen) {
		if err := p.expression(); err != nil {
			return err
		}
	}
	if _, err := p.match(lexer.TokenRParen); err != nil {
		return err
	}
	if err := p.statement(); err != nil {
		return err
	}
	if pred != nil {
		p.emit(*pred)
	}
	return nil
}

func (p *Parser) jumpStatement() error {
	return p.invoke(RuleJumpStatement, func() error {
		switch p.la(1) {
		case lexer.TokenGoto:
			p.ts.Consume()
			if _, err := p.match(lexer.TokenIdent); err != nil {
				return err
			}
		case lexer.TokenContinue, lexer.TokenBreak:
			p.ts.Consume()
		case lexer.TokenReturn:
			p.ts.Consume()
			if !p.at(lexer.TokenSemicolon) {
				if err := p.expression(); err != nil {
					return err
				}
			}
		default:
			return p.fail(NoViableAlt, "jump statement")
		}
		_, err := p.match(lexer.TokenSemicolon)
		return err
	})
}
