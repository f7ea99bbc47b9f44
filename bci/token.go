package bci

// TokenType identifies the lexical category of a token.
type TokenType string

const (
	tokenIllegal TokenType = "ILLEGAL"
	tokenEOF     TokenType = "EOF"

	tokenIdent    TokenType = "IDENT"
	tokenConstant TokenType = "CONSTANT"
	tokenInt      TokenType = "INT"
	tokenFloat    TokenType = "FLOAT"
	tokenString   TokenType = "STRING"
	tokenSymbol   TokenType = "SYMBOL"
	tokenIvar     TokenType = "IVAR"

	tokenAssign   TokenType = "="
	tokenPlus     TokenType = "+"
	tokenMinus    TokenType = "-"
	tokenAsterisk TokenType = "*"
	tokenSlash    TokenType = "/"
	tokenPercent  TokenType = "%"
	tokenLT       TokenType = "<"
	tokenGT       TokenType = ">"
	tokenLTE      TokenType = "<="
	tokenGTE      TokenType = ">="
	tokenEQ       TokenType = "=="
	tokenNotEQ    TokenType = "!="

	tokenComma     TokenType = ","
	tokenSemicolon TokenType = ";"
	tokenDot       TokenType = "."
	tokenScope     TokenType = "::"
	tokenLParen    TokenType = "("
	tokenRParen    TokenType = ")"

	tokenDef   TokenType = "DEF"
	tokenClass TokenType = "CLASS"
	tokenSelf  TokenType = "SELF"
	tokenEnd   TokenType = "END"
	tokenTrue  TokenType = "TRUE"
	tokenFalse TokenType = "FALSE"
	tokenNil   TokenType = "NIL"
)

// Token captures lexical information for the parser.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// Position identifies a line and column in the source file.
type Position struct {
	Line   int
	Column int
}
