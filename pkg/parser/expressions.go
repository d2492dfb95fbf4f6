package parser

import (
	"github.com/raymyers/ralph-ecc/pkg/fragment"
	"github.com/raymyers/ralph-ecc/pkg/lexer"
)

var (
	assignmentOperators = newTokenSet(
		lexer.TokenAssign, lexer.TokenStarAssign, lexer.TokenSlashAssign, lexer.TokenPercentAssign,
		lexer.TokenPlusAssign, lexer.TokenMinusAssign, lexer.TokenShlAssign, lexer.TokenShrAssign,
		lexer.TokenAndAssign, lexer.TokenXorAssign, lexer.TokenOrAssign)

	unaryOperators = newTokenSet(
		lexer.TokenAmpersand, lexer.TokenStar, lexer.TokenPlus, lexer.TokenMinus, lexer.TokenTilde, lexer.TokenNot)

	// numeric and character literals; strings go through stringConstant
	literals = newTokenSet(
		lexer.TokenHex, lexer.TokenOctal, lexer.TokenDecimal, lexer.TokenChar, lexer.TokenFloat)

	expressionStarts = literals.union(unaryOperators).union(newTokenSet(
		lexer.TokenIdent, lexer.TokenString, lexer.TokenLParen,
		lexer.TokenIncrement, lexer.TokenDecrement, lexer.TokenSizeof))
)

// expression: assignment_expression (',' assignment_expression)*
func (p *Parser) expression() error {
	return p.invoke(RuleExpression, func() error {
		if err := p.assignmentExpression(); err != nil {
			return err
		}
		return p.zeroOrMore(p.atComma, func() error {
			p.ts.Consume()
			return p.assignmentExpression()
		})
	})
}

func (p *Parser) constantExpression() error {
	return p.invoke(RuleConstantExpression, p.conditionalExpression)
}

// assignmentExpression: lvalue assignment_operator assignment_expression
// | conditional_expression
func (p *Parser) assignmentExpression() error {
	return p.invoke(RuleAssignmentExpression, func() error {
		if !p.speculate(p.assignmentHead) {
			return p.conditionalExpression()
		}
		if err := p.lvalue(); err != nil {
			return err
		}
		if err := p.assignmentOperator(); err != nil {
			return err
		}
		return p.assignmentExpression()
	})
}

func (p *Parser) assignmentHead() error {
	if err := p.lvalue(); err != nil {
		return err
	}
	return p.assignmentOperator()
}

func (p *Parser) lvalue() error {
	return p.invoke(RuleLvalue, p.unaryExpression)
}

func (p *Parser) assignmentOperator() error {
	return p.invoke(RuleAssignmentOperator, func() error {
		_, err := p.matchAny(assignmentOperators, "assignment operator")
		return err
	})
}

// conditionalExpression reports the condition of a ternary as a predicate
func (p *Parser) conditionalExpression() error {
	return p.invoke(RuleConditionalExpression, func() error {
		start := p.lt(1)
		if err := p.logicalOrExpression(); err != nil {
			return err
		}
		stop := p.last()
		if !p.at(lexer.TokenQuestion) {
			return nil
		}

		p.ts.Consume()
		if err := p.expression(); err != nil {
			return err
		}
		if _, err := p.match(lexer.TokenColon); err != nil {
			return err
		}
		if err := p.conditionalExpression(); err != nil {
			return err
		}

		p.emit(fragment.PredicateExpression{
			Text: p.text(start, stop),
			Span: spanOf(start, stop),
		})
		return nil
	})
}

// binary parses operand (op operand)* as rule r
func (p *Parser) binary(r Rule, ops tokenSet, operand func() error) error {
	return p.invoke(r, func() error {
		if err := operand(); err != nil {
			return err
		}
		return p.zeroOrMore(
			func() bool { return ops.has(p.la(1)) },
			func() error {
				p.ts.Consume()
				return operand()
			})
	})
}

func (p *Parser) logicalOrExpression() error {
	return p.binary(RuleLogicalOrExpression, newTokenSet(lexer.TokenOr), p.logicalAndExpression)
}

func (p *Parser) logicalAndExpression() error {
	return p.binary(RuleLogicalAndExpression, newTokenSet(lexer.TokenAnd), p.inclusiveOrExpression)
}

func (p *Parser) inclusiveOrExpression() error {
	return p.binary(RuleInclusiveOrExpression, newTokenSet(lexer.TokenPipe), p.exclusiveOrExpression)
}

func (p *Parser) exclusiveOrExpression() error {
	return p.binary(RuleExclusiveOrExpression, newTokenSet(lexer.TokenCaret), p.andExpression)
}

func (p *Parser) andExpression() error {
	return p.binary(RuleAndExpression, newTokenSet(lexer.TokenAmpersand), p.equalityExpression)
}

func (p *Parser) equalityExpression() error {
	return p.binary(RuleEqualityExpression,
		newTokenSet(lexer.TokenEq, lexer.TokenNe), p.relationalExpression)
}

func (p *Parser) relationalExpression() error {
	return p.binary(RuleRelationalExpression,
		newTokenSet(lexer.TokenLt, lexer.TokenGt, lexer.TokenLe, lexer.TokenGe), p.shiftExpression)
}

func (p *Parser) shiftExpression() error {
	return p.binary(RuleShiftExpression,
		newTokenSet(lexer.TokenShl, lexer.TokenShr), p.additiveExpression)
}

func (p *Parser) additiveExpression() error {
	return p.binary(RuleAdditiveExpression,
		newTokenSet(lexer.TokenPlus, lexer.TokenMinus), p.multiplicativeExpression)
}

func (p *Parser) multiplicativeExpression() error {
	return p.binary(RuleMultiplicativeExpression,
		newTokenSet(lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent), p.castExpression)
}

// castExpression: '(' type_name ')' cast_expression | unary_expression
func (p *Parser) castExpression() error {
	return p.invoke(RuleCastExpression, func() error {
		if p.at(lexer.TokenLParen) && p.speculate(p.cast) {
			return p.cast()
		}
		return p.unaryExpression()
	})
}

func (p *Parser) cast() error {
	if _, err := p.match(lexer.TokenLParen); err != nil {
		return err
	}
	if err := p.typeName(); err != nil {
		return err
	}
	if _, err := p.match(lexer.TokenRParen); err != nil {
		return err
	}
	return p.castExpression()
}

func (p *Parser) unaryExpression() error {
	return p.invoke(RuleUnaryExpression, func() error {
		switch t := p.la(1); {
		case t == lexer.TokenIncrement || t == lexer.TokenDecrement:
			p.ts.Consume()
			return p.unaryExpression()
		case unaryOperators.has(t):
			if err := p.unaryOperator(); err != nil {
				return err
			}
			return p.castExpression()
		case t == lexer.TokenSizeof:
			if p.speculate(p.sizeofExpression) {
				return p.sizeofExpression()
			}
			return p.sizeofType()
		}
		return p.postfixExpression()
	})
}

// sizeofExpression: 'sizeof' unary_expression
func (p *Parser) sizeofExpression() error {
	if _, err := p.match(lexer.TokenSizeof); err != nil {
		return err
	}
	return p.unaryExpression()
}

// sizeofType: 'sizeof' '(' type_name ')'
func (p *Parser) sizeofType() error {
	if _, err := p.match(lexer.TokenSizeof); err != nil {
		return err
	}
	if _, err := p.match(lexer.TokenLParen); err != nil {
		return err
	}
	if err := p.typeName(); err != nil {
		return err
	}
	_, err := p.match(lexer.TokenRParen)
	return err
}

func (p *Parser) unaryOperator() error {
	return p.invoke(RuleUnaryOperator, func() error {
		_, err := p.matchAny(unaryOperators, "unary operator")
		return err
	})
}

// postfixExpression parses a primary expression and its suffixes, reporting
// each call whose arguments parse as an argument list. The callee text grows
// with member selections; the `*ident` suffix replaces it.
func (p *Parser) postfixExpression() error {
	return p.invoke(RulePostfixExpression, func() error {
		start := p.lt(1)
		if err := p.primaryExpression(); err != nil {
			return err
		}
		callee := p.text(start, p.last())

		for !p.halted {
			switch p.la(1) {
			case lexer.TokenLBracket:
				p.ts.Consume()
				if err := p.expression(); err != nil {
					return err
				}
				if _, err := p.match(lexer.TokenRBracket); err != nil {
					return err
				}

			case lexer.TokenLParen:
				if err := p.callSuffix(start, callee); err != nil {
					return err
				}

			case lexer.TokenDot, lexer.TokenArrow:
				op := p.ts.Consume()
				id, err := p.match(lexer.TokenIdent)
				if err != nil {
					return err
				}
				callee += op.Literal + id.Literal

			case lexer.TokenStar:
				if p.la(2) != lexer.TokenIdent {
					return nil
				}
				p.ts.Consume()
				callee = p.ts.Consume().Literal

			case lexer.TokenIncrement, lexer.TokenDecrement:
				p.ts.Consume()

			default:
				return nil
			}
		}
		return nil
	})
}

// callSuffix parses '(' ... ')' after a callee. The argument list form is
// preferred; a macro parameter list is accepted but not reported.
func (p *Parser) callSuffix(start lexer.Token, callee string) error {
	if _, err := p.match(lexer.TokenLParen); err != nil {
		return err
	}

	if p.at(lexer.TokenRParen) {
		rp := p.ts.Consume()
		p.emit(fragment.FunctionCalling{Name: callee, Span: spanOf(start, rp)})
		return nil
	}

	if p.speculate(p.argumentsThenParen) {
		argStart := p.lt(1)
		if err := p.argumentExpressionList(); err != nil {
			return err
		}
		args := p.text(argStart, p.last())
		rp, err := p.match(lexer.TokenRParen)
		if err != nil {
			return err
		}
		p.emit(fragment.FunctionCalling{Name: callee, Args: args, Span: spanOf(start, rp)})
		return nil
	}

	if err := p.macroParameterList(); err != nil {
		return err
	}
	_, err := p.match(lexer.TokenRParen)
	return err
}

func (p *Parser) argumentsThenParen() error {
	if err := p.argumentExpressionList(); err != nil {
		return err
	}
	_, err := p.match(lexer.TokenRParen)
	return err
}

func (p *Parser) macroParameterList() error {
	return p.invoke(RuleMacroParameterList, func() error {
		if err := p.parameterDeclaration(); err != nil {
			return err
		}
		return p.zeroOrMore(p.atComma, func() error {
			p.ts.Consume()
			return p.parameterDeclaration()
		})
	})
}

// argumentExpressionList: assignment_expression OPTIONAL? (',' assignment_expression OPTIONAL?)*
func (p *Parser) argumentExpressionList() error {
	return p.invoke(RuleArgumentExpressionList, func() error {
		arg := func() error {
			if err := p.assignmentExpression(); err != nil {
				return err
			}
			if p.at(lexer.TokenOptional) {
				p.ts.Consume()
			}
			return nil
		}
		if err := arg(); err != nil {
			return err
		}
		return p.zeroOrMore(p.atComma, func() error {
			p.ts.Consume()
			return arg()
		})
	})
}

func (p *Parser) primaryExpression() error {
	return p.invoke(RulePrimaryExpression, func() error {
		switch {
		case p.at(lexer.TokenIdent) && !p.atStringConstant():
			p.ts.Consume()
			return nil
		case p.at(lexer.TokenLParen):
			p.ts.Consume()
			if err := p.expression(); err != nil {
				return err
			}
			_, err := p.match(lexer.TokenRParen)
			return err
		case literals.has(p.la(1)) || p.atStringConstant():
			return p.constant()
		}
		return p.fail(NoViableAlt, "expression")
	})
}

// atStringConstant reports whether IDENTIFIER* STRING_LITERAL follows
func (p *Parser) atStringConstant() bool {
	k := 1
	for p.la(k) == lexer.TokenIdent {
		k++
	}
	return p.la(k) == lexer.TokenString
}

// constant accepts a numeric or character literal, or adjacent string
// literals interleaved with macro names: (IDENTIFIER* STRING_LITERAL+)+ IDENTIFIER*
func (p *Parser) constant() error {
	return p.invoke(RuleConstant, func() error {
		if literals.has(p.la(1)) {
			p.ts.Consume()
			return nil
		}
		err := p.oneOrMore("string literal", p.atStringConstant, func() error {
			for p.at(lexer.TokenIdent) {
				p.ts.Consume()
			}
			for p.at(lexer.TokenString) {
				p.ts.Consume()
			}
			return nil
		})
		if err != nil {
			return err
		}
		for p.at(lexer.TokenIdent) {
			p.ts.Consume()
		}
		return nil
	})
}
