package parser

// Rule identifies a grammar production. Rules key the memo table, name the
// context of parse errors and select entry points for Speculate and Attempt.
type Rule int

const (
	RuleTranslationUnit Rule = iota
	RuleExternalDeclaration
	RuleFunctionDefinition
	RuleDeclaration
	RuleDeclarationSpecifiers
	RuleInitDeclaratorList
	RuleInitDeclarator
	RuleStorageClassSpecifier
	RuleTypeSpecifier
	RuleTypeID
	RuleStructOrUnionSpecifier
	RuleStructOrUnion
	RuleStructDeclarationList
	RuleStructDeclaration
	RuleSpecifierQualifierList
	RuleStructDeclaratorList
	RuleStructDeclarator
	RuleEnumSpecifier
	RuleEnumeratorList
	RuleEnumerator
	RuleTypeQualifier
	RuleDeclarator
	RuleDirectDeclarator
	RuleDeclaratorSuffix
	RulePointer
	RuleParameterTypeList
	RuleParameterList
	RuleParameterDeclaration
	RuleIdentifierList
	RuleTypeName
	RuleAbstractDeclarator
	RuleDirectAbstractDeclarator
	RuleAbstractDeclaratorSuffix
	RuleInitializer
	RuleInitializerList
	RuleArgumentExpressionList
	RuleAdditiveExpression
	RuleMultiplicativeExpression
	RuleCastExpression
	RuleUnaryExpression
	RulePostfixExpression
	RuleMacroParameterList
	RuleUnaryOperator
	RulePrimaryExpression
	RuleConstant
	RuleExpression
	RuleConstantExpression
	RuleAssignmentExpression
	RuleLvalue
	RuleAssignmentOperator
	RuleConditionalExpression
	RuleLogicalOrExpression
	RuleLogicalAndExpression
	RuleInclusiveOrExpression
	RuleExclusiveOrExpression
	RuleAndExpression
	RuleEqualityExpression
	RuleRelationalExpression
	RuleShiftExpression
	RuleStatement
	RuleAsm2Statement
	RuleAsm1Statement
	RuleAsmStatement
	RuleMacroStatement
	RuleLabeledStatement
	RuleCompoundStatement
	RuleStatementList
	RuleExpressionStatement
	RuleSelectionStatement
	RuleIterationStatement
	RuleJumpStatement

	// Syntactic predicates. They only ever run speculatively.
	RuleFunctionHead // declaration_specifiers? declarator declaration* '{'
	RuleTypeIDHead   // IDENTIFIER type_qualifier* declarator

	numRules
)

var ruleNames = [numRules]string{
	RuleTranslationUnit:          "translation_unit",
	RuleExternalDeclaration:      "external_declaration",
	RuleFunctionDefinition:       "function_definition",
	RuleDeclaration:              "declaration",
	RuleDeclarationSpecifiers:    "declaration_specifiers",
	RuleInitDeclaratorList:       "init_declarator_list",
	RuleInitDeclarator:           "init_declarator",
	RuleStorageClassSpecifier:    "storage_class_specifier",
	RuleTypeSpecifier:            "type_specifier",
	RuleTypeID:                   "type_id",
	RuleStructOrUnionSpecifier:   "struct_or_union_specifier",
	RuleStructOrUnion:            "struct_or_union",
	RuleStructDeclarationList:    "struct_declaration_list",
	RuleStructDeclaration:        "struct_declaration",
	RuleSpecifierQualifierList:   "specifier_qualifier_list",
	RuleStructDeclaratorList:     "struct_declarator_list",
	RuleStructDeclarator:         "struct_declarator",
	RuleEnumSpecifier:            "enum_specifier",
	RuleEnumeratorList:           "enumerator_list",
	RuleEnumerator:               "enumerator",
	RuleTypeQualifier:            "type_qualifier",
	RuleDeclarator:               "declarator",
	RuleDirectDeclarator:         "direct_declarator",
	RuleDeclaratorSuffix:         "declarator_suffix",
	RulePointer:                  "pointer",
	RuleParameterTypeList:        "parameter_type_list",
	RuleParameterList:            "parameter_list",
	RuleParameterDeclaration:     "parameter_declaration",
	RuleIdentifierList:           "identifier_list",
	RuleTypeName:                 "type_name",
	RuleAbstractDeclarator:       "abstract_declarator",
	RuleDirectAbstractDeclarator: "direct_abstract_declarator",
	RuleAbstractDeclaratorSuffix: "abstract_declarator_suffix",
	RuleInitializer:              "initializer",
	RuleInitializerList:          "initializer_list",
	RuleArgumentExpressionList:   "argument_expression_list",
	RuleAdditiveExpression:       "additive_expression",
	RuleMultiplicativeExpression: "multiplicative_expression",
	RuleCastExpression:           "cast_expression",
	RuleUnaryExpression:          "unary_expression",
	RulePostfixExpression:        "postfix_expression",
	RuleMacroParameterList:       "macro_parameter_list",
	RuleUnaryOperator:            "unary_operator",
	RulePrimaryExpression:        "primary_expression",
	RuleConstant:                 "constant",
	RuleExpression:               "expression",
	RuleConstantExpression:       "constant_expression",
	RuleAssignmentExpression:     "assignment_expression",
	RuleLvalue:                   "lvalue",
	RuleAssignmentOperator:       "assignment_operator",
	RuleConditionalExpression:    "conditional_expression",
	RuleLogicalOrExpression:      "logical_or_expression",
	RuleLogicalAndExpression:     "logical_and_expression",
	RuleInclusiveOrExpression:    "inclusive_or_expression",
	RuleExclusiveOrExpression:    "exclusive_or_expression",
	RuleAndExpression:            "and_expression",
	RuleEqualityExpression:       "equality_expression",
	RuleRelationalExpression:     "relational_expression",
	RuleShiftExpression:          "shift_expression",
	RuleStatement:                "statement",
	RuleAsm2Statement:            "asm2_statement",
	RuleAsm1Statement:            "asm1_statement",
	RuleAsmStatement:             "asm_statement",
	RuleMacroStatement:           "macro_statement",
	RuleLabeledStatement:         "labeled_statement",
	RuleCompoundStatement:        "compound_statement",
	RuleStatementList:            "statement_list",
	RuleExpressionStatement:      "expression_statement",
	RuleSelectionStatement:       "selection_statement",
	RuleIterationStatement:       "iteration_statement",
	RuleJumpStatement:            "jump_statement",
	RuleFunctionHead:             "function_head",
	RuleTypeIDHead:               "type_id_head",
}

func (r Rule) String() string {
	if r >= 0 && r < numRules {
		return ruleNames[r]
	}
	return "unknown_rule"
}

// RuleByName looks a rule up by its grammar name, e.g. "expression_statement"
func RuleByName(name string) (Rule, bool) {
	for r, n := range ruleNames {
		if n == name {
			return Rule(r), true
		}
	}
	return 0, false
}

// rule returns the entry point for r, or nil for an unknown rule
func (p *Parser) rule(r Rule) func() error {
	switch r {
	case RuleTranslationUnit:
		return p.translationUnit
	case RuleExternalDeclaration:
		return p.externalDeclaration
	case RuleFunctionDefinition:
		return p.functionDefinition
	case RuleDeclaration:
		return p.declaration
	case RuleDeclarationSpecifiers:
		return p.declarationSpecifiers
	case RuleInitDeclaratorList:
		return p.initDeclaratorList
	case RuleInitDeclarator:
		return p.initDeclarator
	case RuleStorageClassSpecifier:
		return p.storageClassSpecifier
	case RuleTypeSpecifier:
		return p.typeSpecifier
	case RuleTypeID:
		return p.typeID
	case RuleStructOrUnionSpecifier:
		return p.structOrUnionSpecifier
	case RuleStructOrUnion:
		return p.structOrUnion
	case RuleStructDeclarationList:
		return p.structDeclarationList
	case RuleStructDeclaration:
		return p.structDeclaration
	case RuleSpecifierQualifierList:
		return p.specifierQualifierList
	case RuleStructDeclaratorList:
		return p.structDeclaratorList
	case RuleStructDeclarator:
		return p.structDeclarator
	case RuleEnumSpecifier:
		return p.enumSpecifier
	case RuleEnumeratorList:
		return p.enumeratorList
	case RuleEnumerator:
		return p.enumerator
	case RuleTypeQualifier:
		return p.typeQualifier
	case RuleDeclarator:
		return p.declarator
	case RuleDirectDeclarator:
		return p.directDeclarator
	case RuleDeclaratorSuffix:
		return p.declaratorSuffix
	case RulePointer:
		return p.pointer
	case RuleParameterTypeList:
		return p.parameterTypeList
	case RuleParameterList:
		return p.parameterList
	case RuleParameterDeclaration:
		return p.parameterDeclaration
	case RuleIdentifierList:
		return p.identifierList
	case RuleTypeName:
		return p.typeName
	case RuleAbstractDeclarator:
		return p.abstractDeclarator
	case RuleDirectAbstractDeclarator:
		return p.directAbstractDeclarator
	case RuleAbstractDeclaratorSuffix:
		return p.abstractDeclaratorSuffix
	case RuleInitializer:
		return p.initializer
	case RuleInitializerList:
		return p.initializerList
	case RuleArgumentExpressionList:
		return p.argumentExpressionList
	case RuleAdditiveExpression:
		return p.additiveExpression
	case RuleMultiplicativeExpression:
		return p.multiplicativeExpression
	case RuleCastExpression:
		return p.castExpression
	case RuleUnaryExpression:
		return p.unaryExpression
	case RulePostfixExpression:
		return p.postfixExpression
	case RuleMacroParameterList:
		return p.macroParameterList
	case RuleUnaryOperator:
		return p.unaryOperator
	case RulePrimaryExpression:
		return p.primaryExpression
	case RuleConstant:
		return p.constant
	case RuleExpression:
		return p.expression
	case RuleConstantExpression:
		return p.constantExpression
	case RuleAssignmentExpression:
		return p.assignmentExpression
	case RuleLvalue:
		return p.lvalue
	case RuleAssignmentOperator:
		return p.assignmentOperator
	case RuleConditionalExpression:
		return p.conditionalExpression
	case RuleLogicalOrExpression:
		return p.logicalOrExpression
	case RuleLogicalAndExpression:
		return p.logicalAndExpression
	case RuleInclusiveOrExpression:
		return p.inclusiveOrExpression
	case RuleExclusiveOrExpression:
		return p.exclusiveOrExpression
	case RuleAndExpression:
		return p.andExpression
	case RuleEqualityExpression:
		return p.equalityExpression
	case RuleRelationalExpression:
		return p.relationalExpression
	case RuleShiftExpression:
		return p.shiftExpression
	case RuleStatement:
		return p.statement
	case RuleAsm2Statement:
		return p.asm2Statement
	case RuleAsm1Statement:
		return p.asm1Statement
	case RuleAsmStatement:
		return p.asmStatement
	case RuleMacroStatement:
		return p.macroStatement
	case RuleLabeledStatement:
		return p.labeledStatement
	case RuleCompoundStatement:
		return p.compoundStatement
	case RuleStatementList:
		return p.statementList
	case RuleExpressionStatement:
		return p.expressionStatement
	case RuleSelectionStatement:
		return p.selectionStatement
	case RuleIterationStatement:
		return p.iterationStatement
	case RuleJumpStatement:
		return p.jumpStatement
	case RuleFunctionHead:
		return p.functionHead
	case RuleTypeIDHead:
		return p.typeIDHead
	}
	return nil
}
