package lexer

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal

	// Identifiers and literals
	TokenIdent   // Foo, mImageHandle
	TokenHex     // 0x1F
	TokenOctal   // 017
	TokenDecimal // 42, 42ULL
	TokenFloat   // 3.14, 1e10f
	TokenChar    // 'a', L'a'
	TokenString  // "hello", L"hello"

	// C keywords
	TokenTypedef  // typedef
	TokenExtern   // extern
	TokenStatic   // static
	TokenAuto     // auto
	TokenRegister // register
	TokenVoid     // void
	TokenChar_    // char
	TokenShort    // short
	TokenInt_     // int
	TokenLong     // long
	TokenFloat_   // float
	TokenDouble   // double
	TokenSigned   // signed
	TokenUnsigned // unsigned
	TokenStruct   // struct
	TokenUnion    // union
	TokenEnum     // enum
	TokenConst    // const
	TokenVolatile // volatile
	TokenSizeof   // sizeof
	TokenIf       // if
	TokenElse     // else
	TokenSwitch   // switch
	TokenCase     // case
	TokenDefault  // default
	TokenWhile    // while
	TokenDo       // do
	TokenFor      // for
	TokenGoto     // goto
	TokenContinue // continue
	TokenBreak    // break
	TokenReturn   // return

	// EDK2 vendor keywords
	TokenStaticEDK         // STATIC
	TokenConstEDK          // CONST
	TokenVolatileEDK       // VOLATILE
	TokenUnaligned         // UNALIGNED
	TokenPacked            // PACKED
	TokenIn                // IN
	TokenOut               // OUT
	TokenOptional          // OPTIONAL
	TokenGlobalRemove      // GLOBAL_REMOVE_IF_UNREFERENCED
	TokenEfiapi            // EFIAPI
	TokenEfiBootService    // EFI_BOOTSERVICE
	TokenEfiRuntimeService // EFI_RUNTIMESERVICE

	// Inline assembly
	TokenAsmGNU  // __asm__
	TokenAsm1    // _asm
	TokenAsmMSVC // __asm

	// Operators
	TokenPlus      // +
	TokenMinus     // -
	TokenStar      // *
	TokenSlash     // /
	TokenPercent   // %
	TokenAssign    // =
	TokenEq        // ==
	TokenNe        // !=
	TokenLt        // <
	TokenLe        // <=
	TokenGt        // >
	TokenGe        // >=
	TokenAnd       // &&
	TokenOr        // ||
	TokenNot       // !
	TokenAmpersand // &
	TokenPipe      // |
	TokenCaret     // ^
	TokenTilde     // ~
	TokenShl       // <<
	TokenShr       // >>
	TokenQuestion  // ?
	TokenColon     // :

	// Compound assignment operators
	TokenPlusAssign    // +=
	TokenMinusAssign   // -=
	TokenStarAssign    // *=
	TokenSlashAssign   // /=
	TokenPercentAssign // %=
	TokenAndAssign     // &=
	TokenOrAssign      // |=
	TokenXorAssign     // ^=
	TokenShlAssign     // <<=
	TokenShrAssign     // >>=

	// Increment/decrement
	TokenIncrement // ++
	TokenDecrement // --

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenSemicolon // ;
	TokenComma     // ,
	TokenDot       // .
	TokenArrow     // ->
	TokenEllipsis  // ...

	// NumTokenTypes is the number of distinct token types
	NumTokenTypes
)

var tokenNames = map[TokenType]string{
	TokenEOF:               "EOF",
	TokenIllegal:           "ILLEGAL",
	TokenIdent:             "IDENTIFIER",
	TokenHex:               "HEX_LITERAL",
	TokenOctal:             "OCTAL_LITERAL",
	TokenDecimal:           "DECIMAL_LITERAL",
	TokenFloat:             "FLOATING_POINT_LITERAL",
	TokenChar:              "CHARACTER_LITERAL",
	TokenString:            "STRING_LITERAL",
	TokenTypedef:           "typedef",
	TokenExtern:            "extern",
	TokenStatic:            "static",
	TokenAuto:              "auto",
	TokenRegister:          "register",
	TokenVoid:              "void",
	TokenChar_:             "char",
	TokenShort:             "short",
	TokenInt_:              "int",
	TokenLong:              "long",
	TokenFloat_:            "float",
	TokenDouble:            "double",
	TokenSigned:            "signed",
	TokenUnsigned:          "unsigned",
	TokenStruct:            "struct",
	TokenUnion:             "union",
	TokenEnum:              "enum",
	TokenConst:             "const",
	TokenVolatile:          "volatile",
	TokenSizeof:            "sizeof",
	TokenIf:                "if",
	TokenElse:              "else",
	TokenSwitch:            "switch",
	TokenCase:              "case",
	TokenDefault:           "default",
	TokenWhile:             "while",
	TokenDo:                "do",
	TokenFor:               "for",
	TokenGoto:              "goto",
	TokenContinue:          "continue",
	TokenBreak:             "break",
	TokenReturn:            "return",
	TokenStaticEDK:         "STATIC",
	TokenConstEDK:          "CONST",
	TokenVolatileEDK:       "VOLATILE",
	TokenUnaligned:         "UNALIGNED",
	TokenPacked:            "PACKED",
	TokenIn:                "IN",
	TokenOut:               "OUT",
	TokenOptional:          "OPTIONAL",
	TokenGlobalRemove:      "GLOBAL_REMOVE_IF_UNREFERENCED",
	TokenEfiapi:            "EFIAPI",
	TokenEfiBootService:    "EFI_BOOTSERVICE",
	TokenEfiRuntimeService: "EFI_RUNTIMESERVICE",
	TokenAsmGNU:            "__asm__",
	TokenAsm1:              "_asm",
	TokenAsmMSVC:           "__asm",
	TokenPlus:              "+",
	TokenMinus:             "-",
	TokenStar:              "*",
	TokenSlash:             "/",
	TokenPercent:           "%",
	TokenAssign:            "=",
	TokenEq:                "==",
	TokenNe:                "!=",
	TokenLt:                "<",
	TokenLe:                "<=",
	TokenGt:                ">",
	TokenGe:                ">=",
	TokenAnd:               "&&",
	TokenOr:                "||",
	TokenNot:               "!",
	TokenAmpersand:         "&",
	TokenPipe:              "|",
	TokenCaret:             "^",
	TokenTilde:             "~",
	TokenShl:               "<<",
	TokenShr:               ">>",
	TokenQuestion:          "?",
	TokenColon:             ":",
	TokenPlusAssign:        "+=",
	TokenMinusAssign:       "-=",
	TokenStarAssign:        "*=",
	TokenSlashAssign:       "/=",
	TokenPercentAssign:     "%=",
	TokenAndAssign:         "&=",
	TokenOrAssign:          "|=",
	TokenXorAssign:         "^=",
	TokenShlAssign:         "<<=",
	TokenShrAssign:         ">>=",
	TokenIncrement:         "++",
	TokenDecrement:         "--",
	TokenLParen:            "(",
	TokenRParen:            ")",
	TokenLBrace:            "{",
	TokenRBrace:            "}",
	TokenLBracket:          "[",
	TokenRBracket:          "]",
	TokenSemicolon:         ";",
	TokenComma:             ",",
	TokenDot:               ".",
	TokenArrow:             "->",
	TokenEllipsis:          "...",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsLiteral reports whether t is one of the six literal kinds
func (t TokenType) IsLiteral() bool {
	return t >= TokenHex && t <= TokenString
}

// IsKeyword reports whether t is a reserved word (C, EDK2 or assembly)
func (t TokenType) IsKeyword() bool {
	return t >= TokenTypedef && t <= TokenAsmMSVC
}

// Token represents a lexical token.
// Line is 1-based, Column is 0-based and counts runes.
// Offset and End delimit the token's bytes in the source.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
	Offset  int
	End     int
	Index   int // position in the token stream
}

// keywords maps keyword strings to token types
var keywords = map[string]TokenType{
	"typedef":                       TokenTypedef,
	"extern":                        TokenExtern,
	"static":                        TokenStatic,
	"auto":                          TokenAuto,
	"register":                      TokenRegister,
	"void":                          TokenVoid,
	"char":                          TokenChar_,
	"short":                         TokenShort,
	"int":                           TokenInt_,
	"long":                          TokenLong,
	"float":                         TokenFloat_,
	"double":                        TokenDouble,
	"signed":                        TokenSigned,
	"unsigned":                      TokenUnsigned,
	"struct":                        TokenStruct,
	"union":                         TokenUnion,
	"enum":                          TokenEnum,
	"const":                         TokenConst,
	"volatile":                      TokenVolatile,
	"sizeof":                        TokenSizeof,
	"if":                            TokenIf,
	"else":                          TokenElse,
	"switch":                        TokenSwitch,
	"case":                          TokenCase,
	"default":                       TokenDefault,
	"while":                         TokenWhile,
	"do":                            TokenDo,
	"for":                           TokenFor,
	"goto":                          TokenGoto,
	"continue":                      TokenContinue,
	"break":                         TokenBreak,
	"return":                        TokenReturn,
	"STATIC":                        TokenStaticEDK,
	"CONST":                         TokenConstEDK,
	"VOLATILE":                      TokenVolatileEDK,
	"UNALIGNED":                     TokenUnaligned,
	"PACKED":                        TokenPacked,
	"IN":                            TokenIn,
	"OUT":                           TokenOut,
	"OPTIONAL":                      TokenOptional,
	"GLOBAL_REMOVE_IF_UNREFERENCED": TokenGlobalRemove,
	"EFIAPI":                        TokenEfiapi,
	"EFI_BOOTSERVICE":               TokenEfiBootService,
	"EFI_RUNTIMESERVICE":            TokenEfiRuntimeService,
	"__asm__":                       TokenAsmGNU,
	"_asm":                          TokenAsm1,
	"__asm":                         TokenAsmMSVC,
}

// LookupIdent returns the token type for an identifier (keyword or IDENT)
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
