package parser

import (
	"github.com/raymyers/ralph-ecc/pkg/fragment"
	"github.com/raymyers/ralph-ecc/pkg/lexer"
)

var (
	storageClasses = newTokenSet(
		lexer.TokenExtern, lexer.TokenStatic, lexer.TokenAuto, lexer.TokenRegister, lexer.TokenStaticEDK)

	typeQualifiers = newTokenSet(
		lexer.TokenConst, lexer.TokenVolatile, lexer.TokenIn, lexer.TokenOut, lexer.TokenOptional,
		lexer.TokenConstEDK, lexer.TokenUnaligned, lexer.TokenVolatileEDK, lexer.TokenGlobalRemove,
		lexer.TokenEfiapi, lexer.TokenEfiBootService, lexer.TokenEfiRuntimeService, lexer.TokenPacked)

	scalarTypes = newTokenSet(
		lexer.TokenVoid, lexer.TokenChar_, lexer.TokenShort, lexer.TokenInt_, lexer.TokenLong,
		lexer.TokenFloat_, lexer.TokenDouble, lexer.TokenSigned, lexer.TokenUnsigned)

	aggregateTypes = newTokenSet(lexer.TokenStruct, lexer.TokenUnion, lexer.TokenEnum)

	// declarationKeywords can only start a declaration
	declarationKeywords = storageClasses.union(typeQualifiers).union(scalarTypes).union(aggregateTypes).union(newTokenSet(lexer.TokenTypedef))

	declaratorStarts = newTokenSet(
		lexer.TokenIdent, lexer.TokenStar, lexer.TokenLParen, lexer.TokenLBracket,
		lexer.TokenEfiapi, lexer.TokenEfiBootService, lexer.TokenEfiRuntimeService)
)

// atDeclarationSpecifier decides whether declaration_specifiers continues.
// An identifier counts as a type name when it is followed by something
// shaped like a declarator.
func (p *Parser) atDeclarationSpecifier() bool {
	t := p.la(1)
	if storageClasses.has(t) {
		return true
	}
	return p.atSpecifierQualifier()
}

func (p *Parser) atSpecifierQualifier() bool {
	t := p.la(1)
	if typeQualifiers.has(t) || scalarTypes.has(t) || aggregateTypes.has(t) {
		return true
	}
	return t == lexer.TokenIdent && p.speculate(p.typeIDHead)
}

func (p *Parser) atDeclaration() bool {
	if p.at(lexer.TokenLBrace, lexer.TokenRBrace, lexer.TokenEOF) {
		return false
	}
	return p.speculate(p.declaration)
}

// functionHead recognizes the start of a function definition:
// declaration_specifiers? declarator declaration* '{'
func (p *Parser) functionHead() error {
	return p.invoke(RuleFunctionHead, func() error {
		if p.atDeclarationSpecifier() {
			if err := p.declarationSpecifiers(); err != nil {
				return err
			}
		}
		if err := p.declarator(); err != nil {
			return err
		}
		if err := p.zeroOrMore(p.atDeclaration, p.declaration); err != nil {
			return err
		}
		_, err := p.match(lexer.TokenLBrace)
		return err
	})
}

// typeIDHead: IDENTIFIER type_qualifier* declarator
func (p *Parser) typeIDHead() error {
	return p.invoke(RuleTypeIDHead, func() error {
		if _, err := p.match(lexer.TokenIdent); err != nil {
			return err
		}
		if err := p.zeroOrMore(p.atTypeQualifier, p.typeQualifier); err != nil {
			return err
		}
		return p.declarator()
	})
}

func (p *Parser) atTypeQualifier() bool {
	return typeQualifiers.has(p.la(1))
}

func (p *Parser) functionDefinition() error {
	return p.invoke(RuleFunctionDefinition, func() error {
		start := p.lt(1)
		var modifier string
		if p.atDeclarationSpecifier() {
			if err := p.declarationSpecifiers(); err != nil {
				return err
			}
			modifier = p.text(start, p.last())
		}

		declStart := p.lt(1)
		if err := p.declarator(); err != nil {
			return err
		}
		decl := p.text(declStart, p.last())

		// K&R parameter declarations
		if !p.at(lexer.TokenLBrace) {
			if err := p.oneOrMore("declaration", p.atDeclaration, p.declaration); err != nil {
				return err
			}
		}

		brace := p.lt(1)
		if err := p.compoundStatement(); err != nil {
			return err
		}

		p.emit(fragment.FunctionDefinition{
			ModifierText:    modifier,
			DeclText:        decl,
			Span:            spanOf(start, p.last()),
			LeftBraceLine:   brace.Line,
			LeftBraceColumn: brace.Column,
			DeclLine:        declStart.Line,
			DeclColumn:      declStart.Column,
		})
		return nil
	})
}

func (p *Parser) declaration() error {
	return p.invoke(RuleDeclaration, func() error {
		if p.at(lexer.TokenTypedef) {
			return p.typedefDeclaration()
		}

		start := p.lt(1)
		if err := p.declarationSpecifiers(); err != nil {
			return err
		}
		modifier := p.text(start, p.last())

		if p.at(lexer.TokenSemicolon) {
			_, err := p.match(lexer.TokenSemicolon)
			return err
		}

		declStart := p.lt(1)
		if err := p.initDeclaratorList(); err != nil {
			return err
		}
		declStop := p.last()
		if _, err := p.match(lexer.TokenSemicolon); err != nil {
			return err
		}

		p.emit(fragment.VariableDeclaration{
			ModifierText: modifier,
			DeclText:     p.text(declStart, declStop),
			Span:         spanOf(start, declStop),
		})
		return nil
	})
}

// typedefDeclaration: 'typedef' declaration_specifiers? init_declarator_list ';'
func (p *Parser) typedefDeclaration() error {
	kw, err := p.match(lexer.TokenTypedef)
	if err != nil {
		return err
	}

	var from string
	if p.atDeclarationSpecifier() {
		specStart := p.lt(1)
		if err := p.declarationSpecifiers(); err != nil {
			return err
		}
		from = p.text(specStart, p.last())
	}

	toStart := p.lt(1)
	if err := p.initDeclaratorList(); err != nil {
		return err
	}
	to := p.text(toStart, p.last())

	semi, err := p.match(lexer.TokenSemicolon)
	if err != nil {
		return err
	}

	p.emit(fragment.TypedefDefinition{
		FromText: from,
		ToText:   to,
		Span:     spanOf(kw, semi),
	})
	return nil
}

func (p *Parser) declarationSpecifiers() error {
	return p.invoke(RuleDeclarationSpecifiers, func() error {
		return p.oneOrMore("declaration specifier", p.atDeclarationSpecifier, func() error {
			switch t := p.la(1); {
			case storageClasses.has(t):
				return p.storageClassSpecifier()
			case typeQualifiers.has(t):
				return p.typeQualifier()
			default:
				return p.typeSpecifier()
			}
		})
	})
}

func (p *Parser) initDeclaratorList() error {
	return p.invoke(RuleInitDeclaratorList, func() error {
		if err := p.initDeclarator(); err != nil {
			return err
		}
		return p.zeroOrMore(p.atComma, func() error {
			if _, err := p.match(lexer.TokenComma); err != nil {
				return err
			}
			return p.initDeclarator()
		})
	})
}

func (p *Parser) initDeclarator() error {
	return p.invoke(RuleInitDeclarator, func() error {
		if err := p.declarator(); err != nil {
			return err
		}
		return p.optional(p.atAssign, func() error {
			p.ts.Consume()
			return p.initializer()
		})
	})
}

func (p *Parser) storageClassSpecifier() error {
	return p.invoke(RuleStorageClassSpecifier, func() error {
		_, err := p.matchAny(storageClasses, "storage class")
		return err
	})
}

func (p *Parser) typeQualifier() error {
	return p.invoke(RuleTypeQualifier, func() error {
		_, err := p.matchAny(typeQualifiers, "type qualifier")
		return err
	})
}

func (p *Parser) typeSpecifier() error {
	return p.invoke(RuleTypeSpecifier, func() error {
		return p.choose("type specifier",
			alternative{
				guard: func() bool { return scalarTypes.has(p.la(1)) },
				body: func() error {
					_, err := p.matchAny(scalarTypes, "type")
					return err
				},
			},
			alternative{
				guard: func() bool { return p.at(lexer.TokenStruct, lexer.TokenUnion) },
				body:  p.structOrUnionSpecifier,
			},
			alternative{
				guard: func() bool { return p.at(lexer.TokenEnum) },
				body:  p.enumSpecifier,
			},
			alternative{
				guard: func() bool { return p.at(lexer.TokenIdent) && p.speculate(p.typeIDHead) },
				body:  p.typeID,
			},
		)
	})
}

func (p *Parser) typeID() error {
	return p.invoke(RuleTypeID, func() error {
		_, err := p.match(lexer.TokenIdent)
		return err
	})
}

func (p *Parser) structOrUnionSpecifier() error {
	return p.invoke(RuleStructOrUnionSpecifier, func() error {
		start := p.lt(1)
		hasBody := p.la(2) == lexer.TokenLBrace ||
			(p.la(2) == lexer.TokenIdent && p.la(3) == lexer.TokenLBrace)

		if err := p.structOrUnion(); err != nil {
			return err
		}
		if !hasBody {
			_, err := p.match(lexer.TokenIdent)
			return err
		}
		if p.at(lexer.TokenIdent) {
			p.ts.Consume()
		}
		if _, err := p.match(lexer.TokenLBrace); err != nil {
			return err
		}
		if err := p.structDeclarationList(); err != nil {
			return err
		}
		stop, err := p.match(lexer.TokenRBrace)
		if err != nil {
			return err
		}

		p.emit(fragment.StructUnionDefinition{
			Text: p.text(start, stop),
			Span: spanOf(start, stop),
		})
		return nil
	})
}

func (p *Parser) structOrUnion() error {
	return p.invoke(RuleStructOrUnion, func() error {
		_, err := p.matchAny(newTokenSet(lexer.TokenStruct, lexer.TokenUnion), "struct or union")
		return err
	})
}

func (p *Parser) structDeclarationList() error {
	return p.invoke(RuleStructDeclarationList, func() error {
		return p.oneOrMore("struct declaration",
			func() bool { return !p.at(lexer.TokenRBrace, lexer.TokenEOF) },
			p.structDeclaration)
	})
}

// structDeclaration tolerates a missing declarator list so that anonymous
// struct and union members parse.
func (p *Parser) structDeclaration() error {
	return p.invoke(RuleStructDeclaration, func() error {
		if err := p.specifierQualifierList(); err != nil {
			return err
		}
		if !p.at(lexer.TokenSemicolon) {
			if err := p.structDeclaratorList(); err != nil {
				return err
			}
		}
		_, err := p.match(lexer.TokenSemicolon)
		return err
	})
}

func (p *Parser) specifierQualifierList() error {
	return p.invoke(RuleSpecifierQualifierList, func() error {
		return p.oneOrMore("type specifier or qualifier", p.atSpecifierQualifier, func() error {
			if p.atTypeQualifier() {
				return p.typeQualifier()
			}
			return p.typeSpecifier()
		})
	})
}

func (p *Parser) structDeclaratorList() error {
	return p.invoke(RuleStructDeclaratorList, func() error {
		if err := p.structDeclarator(); err != nil {
			return err
		}
		return p.zeroOrMore(p.atComma, func() error {
			if _, err := p.match(lexer.TokenComma); err != nil {
				return err
			}
			return p.structDeclarator()
		})
	})
}

func (p *Parser) structDeclarator() error {
	return p.invoke(RuleStructDeclarator, func() error {
		if !p.at(lexer.TokenColon) {
			if err := p.declarator(); err != nil {
				return err
			}
			if !p.at(lexer.TokenColon) {
				return nil
			}
		}
		p.ts.Consume()
		return p.constantExpression()
	})
}

func (p *Parser) enumSpecifier() error {
	return p.invoke(RuleEnumSpecifier, func() error {
		start, err := p.match(lexer.TokenEnum)
		if err != nil {
			return err
		}
		hasBody := p.at(lexer.TokenLBrace) ||
			(p.at(lexer.TokenIdent) && p.la(2) == lexer.TokenLBrace)
		if !hasBody {
			_, err := p.match(lexer.TokenIdent)
			return err
		}
		if p.at(lexer.TokenIdent) {
			p.ts.Consume()
		}
		if _, err := p.match(lexer.TokenLBrace); err != nil {
			return err
		}
		if err := p.enumeratorList(); err != nil {
			return err
		}
		if p.at(lexer.TokenComma) {
			p.ts.Consume()
		}
		stop, err := p.match(lexer.TokenRBrace)
		if err != nil {
			return err
		}

		p.emit(fragment.EnumerationDefinition{
			Text: p.text(start, stop),
			Span: spanOf(start, stop),
		})
		return nil
	})
}

func (p *Parser) enumeratorList() error {
	return p.invoke(RuleEnumeratorList, func() error {
		if err := p.enumerator(); err != nil {
			return err
		}
		return p.zeroOrMore(
			func() bool { return p.at(lexer.TokenComma) && p.la(2) == lexer.TokenIdent },
			func() error {
				p.ts.Consume()
				return p.enumerator()
			})
	})
}

func (p *Parser) enumerator() error {
	return p.invoke(RuleEnumerator, func() error {
		if _, err := p.match(lexer.TokenIdent); err != nil {
			return err
		}
		return p.optional(p.atAssign, func() error {
			p.ts.Consume()
			return p.constantExpression()
		})
	})
}

func (p *Parser) declarator() error {
	return p.invoke(RuleDeclarator, func() error {
		if p.at(lexer.TokenStar) && !p.speculate(p.pointerDeclarator) {
			return p.pointer()
		}
		return p.pointerDeclarator()
	})
}

// pointerDeclarator: pointer? EFIAPI? EFI_BOOTSERVICE? EFI_RUNTIMESERVICE? direct_declarator
func (p *Parser) pointerDeclarator() error {
	if p.at(lexer.TokenStar) {
		if err := p.pointer(); err != nil {
			return err
		}
	}
	for _, t := range []lexer.TokenType{lexer.TokenEfiapi, lexer.TokenEfiBootService, lexer.TokenEfiRuntimeService} {
		if p.at(t) {
			p.ts.Consume()
		}
	}
	return p.directDeclarator()
}

func (p *Parser) directDeclarator() error {
	return p.invoke(RuleDirectDeclarator, func() error {
		if !p.at(lexer.TokenLParen) {
			if _, err := p.match(lexer.TokenIdent); err != nil {
				return err
			}
			return p.zeroOrMore(p.atDeclaratorSuffix, p.declaratorSuffix)
		}

		// '(' EFIAPI? declarator ')' declarator_suffix+
		p.ts.Consume()
		if p.at(lexer.TokenEfiapi) {
			p.ts.Consume()
		}
		if err := p.declarator(); err != nil {
			return err
		}
		if _, err := p.match(lexer.TokenRParen); err != nil {
			return err
		}
		return p.oneOrMore("declarator suffix", p.atDeclaratorSuffix, p.declaratorSuffix)
	})
}

func (p *Parser) atDeclaratorSuffix() bool {
	switch p.la(1) {
	case lexer.TokenLBracket:
		return true
	case lexer.TokenLParen:
		return p.speculate(p.declaratorSuffix)
	}
	return false
}

func (p *Parser) declaratorSuffix() error {
	return p.invoke(RuleDeclaratorSuffix, func() error {
		if p.at(lexer.TokenLBracket) {
			p.ts.Consume()
			if !p.at(lexer.TokenRBracket) {
				if err := p.constantExpression(); err != nil {
					return err
				}
			}
			_, err := p.match(lexer.TokenRBracket)
			return err
		}

		if _, err := p.match(lexer.TokenLParen); err != nil {
			return err
		}
		switch {
		case p.at(lexer.TokenRParen):
		case declarationKeywords.has(p.la(1)) || p.speculate(p.parameterTypeListThenParen):
			if err := p.parameterTypeList(); err != nil {
				return err
			}
		default:
			if err := p.identifierList(); err != nil {
				return err
			}
		}
		_, err := p.match(lexer.TokenRParen)
		return err
	})
}

func (p *Parser) parameterTypeListThenParen() error {
	if err := p.parameterTypeList(); err != nil {
		return err
	}
	_, err := p.match(lexer.TokenRParen)
	return err
}

// pointer: '*' type_qualifier* pointer?
func (p *Parser) pointer() error {
	return p.invoke(RulePointer, func() error {
		if _, err := p.match(lexer.TokenStar); err != nil {
			return err
		}
		if err := p.zeroOrMore(p.atTypeQualifier, p.typeQualifier); err != nil {
			return err
		}
		if p.at(lexer.TokenStar) {
			return p.pointer()
		}
		return nil
	})
}

// parameterTypeList: parameter_list (',' OPTIONAL? '...')?
func (p *Parser) parameterTypeList() error {
	return p.invoke(RuleParameterTypeList, func() error {
		if err := p.parameterList(); err != nil {
			return err
		}
		if !p.at(lexer.TokenComma) {
			return nil
		}
		p.ts.Consume()
		if p.at(lexer.TokenOptional) {
			p.ts.Consume()
		}
		_, err := p.match(lexer.TokenEllipsis)
		return err
	})
}

func (p *Parser) atVariadic() bool {
	return p.la(2) == lexer.TokenEllipsis ||
		(p.la(2) == lexer.TokenOptional && p.la(3) == lexer.TokenEllipsis)
}

func (p *Parser) parameterList() error {
	return p.invoke(RuleParameterList, func() error {
		if err := p.parameterDeclaration(); err != nil {
			return err
		}
		return p.zeroOrMore(
			func() bool { return p.at(lexer.TokenComma) && !p.atVariadic() },
			func() error {
				p.ts.Consume()
				return p.parameterDeclaration()
			})
	})
}

// parameterDeclaration:
//
//	declaration_specifiers (declarator | abstract_declarator)* OPTIONAL?
//	| pointer* IDENTIFIER
func (p *Parser) parameterDeclaration() error {
	return p.invoke(RuleParameterDeclaration, func() error {
		if !p.atDeclarationSpecifier() {
			if err := p.zeroOrMore(func() bool { return p.at(lexer.TokenStar) }, p.pointer); err != nil {
				return err
			}
			_, err := p.match(lexer.TokenIdent)
			return err
		}

		if err := p.declarationSpecifiers(); err != nil {
			return err
		}
		err := p.zeroOrMore(
			func() bool { return declaratorStarts.has(p.la(1)) },
			func() error {
				if p.speculate(p.declarator) {
					return p.declarator()
				}
				return p.abstractDeclarator()
			})
		if err != nil {
			return err
		}
		if p.at(lexer.TokenOptional) {
			p.ts.Consume()
		}
		return nil
	})
}

func (p *Parser) identifierList() error {
	return p.invoke(RuleIdentifierList, func() error {
		if _, err := p.match(lexer.TokenIdent); err != nil {
			return err
		}
		return p.zeroOrMore(p.atComma, func() error {
			p.ts.Consume()
			_, err := p.match(lexer.TokenIdent)
			return err
		})
	})
}

// typeName: specifier_qualifier_list abstract_declarator? | type_id
func (p *Parser) typeName() error {
	return p.invoke(RuleTypeName, func() error {
		if !p.atSpecifierQualifier() {
			return p.typeID()
		}
		if err := p.specifierQualifierList(); err != nil {
			return err
		}
		switch p.la(1) {
		case lexer.TokenStar, lexer.TokenLBracket:
			return p.abstractDeclarator()
		case lexer.TokenLParen:
			if p.speculate(p.abstractDeclarator) {
				return p.abstractDeclarator()
			}
		}
		return nil
	})
}

func (p *Parser) abstractDeclarator() error {
	return p.invoke(RuleAbstractDeclarator, func() error {
		if !p.at(lexer.TokenStar) {
			return p.directAbstractDeclarator()
		}
		if err := p.pointer(); err != nil {
			return err
		}
		if p.at(lexer.TokenLBracket) ||
			(p.at(lexer.TokenLParen) && p.speculate(p.directAbstractDeclarator)) {
			return p.directAbstractDeclarator()
		}
		return nil
	})
}

// directAbstractDeclarator:
// ('(' abstract_declarator ')' | abstract_declarator_suffix) abstract_declarator_suffix*
func (p *Parser) directAbstractDeclarator() error {
	return p.invoke(RuleDirectAbstractDeclarator, func() error {
		nested := p.at(lexer.TokenLParen) && (p.la(2) == lexer.TokenStar ||
			p.la(2) == lexer.TokenLParen || p.la(2) == lexer.TokenLBracket)
		if nested {
			p.ts.Consume()
			if err := p.abstractDeclarator(); err != nil {
				return err
			}
			if _, err := p.match(lexer.TokenRParen); err != nil {
				return err
			}
		} else if err := p.abstractDeclaratorSuffix(); err != nil {
			return err
		}
		return p.zeroOrMore(p.atAbstractDeclaratorSuffix, p.abstractDeclaratorSuffix)
	})
}

func (p *Parser) atAbstractDeclaratorSuffix() bool {
	switch p.la(1) {
	case lexer.TokenLBracket:
		return true
	case lexer.TokenLParen:
		return p.speculate(p.abstractDeclaratorSuffix)
	}
	return false
}

func (p *Parser) abstractDeclaratorSuffix() error {
	return p.invoke(RuleAbstractDeclaratorSuffix, func() error {
		if p.at(lexer.TokenLBracket) {
			p.ts.Consume()
			if !p.at(lexer.TokenRBracket) {
				if err := p.constantExpression(); err != nil {
					return err
				}
			}
			_, err := p.match(lexer.TokenRBracket)
			return err
		}
		if _, err := p.match(lexer.TokenLParen); err != nil {
			return err
		}
		if !p.at(lexer.TokenRParen) {
			if err := p.parameterTypeList(); err != nil {
				return err
			}
		}
		_, err := p.match(lexer.TokenRParen)
		return err
	})
}

// initializer: assignment_expression | '{' initializer_list ','? '}'
func (p *Parser) initializer() error {
	return p.invoke(RuleInitializer, func() error {
		if !p.at(lexer.TokenLBrace) {
			return p.assignmentExpression()
		}
		p.ts.Consume()
		if !p.at(lexer.TokenRBrace) {
			if err := p.initializerList(); err != nil {
				return err
			}
			if p.at(lexer.TokenComma) {
				p.ts.Consume()
			}
		}
		_, err := p.match(lexer.TokenRBrace)
		return err
	})
}

func (p *Parser) initializerList() error {
	return p.invoke(RuleInitializerList, func() error {
		if err := p.initializer(); err != nil {
			return err
		}
		return p.zeroOrMore(
			func() bool { return p.at(lexer.TokenComma) && p.la(2) != lexer.TokenRBrace },
			func() error {
				p.ts.Consume()
				return p.initializer()
			})
	})
}

func (p *Parser) atComma() bool {
	return p.at(lexer.TokenComma)
}

func (p *Parser) atAssign() bool {
	return p.at(lexer.TokenAssign)
}
