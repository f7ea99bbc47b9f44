package bci

import (
	"errors"
	"strconv"
)

type (
	prefixParseFn func() *Node
	infixParseFn  func(*Node) *Node
)

type parser struct {
	l *lexer

	curToken  Token
	peekToken Token

	errors []error

	prefixFns map[TokenType]prefixParseFn
	infixFns  map[TokenType]infixParseFn

	// scopes tracks declared local names. Program, class bodies and method
	// bodies each open a fresh scope; inner scopes never see outer locals.
	scopes []map[string]struct{}
}

// Parse turns source text into a syntax tree. An empty program yields a nil
// tree, which evaluates to nil.
func Parse(source string) (*Node, error) {
	return ParseWithLocals(source, nil)
}

// ParseWithLocals parses source as if locals had already been assigned at
// toplevel, so bare references to them become lvar nodes.
func ParseWithLocals(source string, locals []string) (*Node, error) {
	p := newParser(source)
	for _, name := range locals {
		p.declare(name)
	}
	program, parseErrors := p.ParseProgram()
	if len(parseErrors) > 0 {
		return nil, combineErrors(parseErrors)
	}
	return program, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

func newParser(input string) *parser {
	l := newLexer(input)
	p := &parser{l: l}

	p.prefixFns = make(map[TokenType]prefixParseFn)
	p.infixFns = make(map[TokenType]infixParseFn)

	p.registerPrefix(tokenIdent, p.parseIdentifier)
	p.registerPrefix(tokenConstant, p.parseConstant)
	p.registerPrefix(tokenInt, p.parseIntegerLiteral)
	p.registerPrefix(tokenFloat, p.parseFloatLiteral)
	p.registerPrefix(tokenString, p.parseStringLiteral)
	p.registerPrefix(tokenSymbol, p.parseSymbolLiteral)
	p.registerPrefix(tokenTrue, p.parseKeywordLiteral)
	p.registerPrefix(tokenFalse, p.parseKeywordLiteral)
	p.registerPrefix(tokenNil, p.parseKeywordLiteral)
	p.registerPrefix(tokenSelf, p.parseKeywordLiteral)
	p.registerPrefix(tokenIvar, p.parseIvar)
	p.registerPrefix(tokenLParen, p.parseGroupedExpression)

	for _, tt := range []TokenType{
		tokenPlus, tokenMinus, tokenAsterisk, tokenSlash, tokenPercent,
		tokenEQ, tokenNotEQ, tokenLT, tokenLTE, tokenGT, tokenGTE,
	} {
		p.infixFns[tt] = p.parseInfixExpression
	}
	p.infixFns[tokenDot] = p.parseMemberExpression
	p.infixFns[tokenScope] = p.parseScopedConstant

	p.pushScope()
	p.nextToken()
	p.nextToken()

	return p
}

func (p *parser) registerPrefix(tt TokenType, fn prefixParseFn) {
	p.prefixFns[tt] = fn
}

func (p *parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *parser) node(pos Position, tt NodeType, children ...any) *Node {
	return &Node{Type: tt, Children: children, Pos: pos}
}

// ParseProgram parses the whole input. A single toplevel statement is
// returned as is, several are wrapped in a begin node.
func (p *parser) ParseProgram() (*Node, []error) {
	stmts := p.parseStatements()
	return wrapBody(stmts), p.errors
}

// parseStatements parses statements until EOF or one of the stop tokens,
// leaving curToken on the token that ended the list.
func (p *parser) parseStatements(stop ...TokenType) []*Node {
	stmts := []*Node{}
	prevLine := 0
	for {
		for p.curToken.Type == tokenSemicolon {
			prevLine = 0
			p.nextToken()
		}
		if p.curToken.Type == tokenEOF || isStopToken(p.curToken.Type, stop) {
			return stmts
		}
		if prevLine != 0 && p.curToken.Pos.Line == prevLine {
			p.addParseError(p.curToken.Pos, "expected newline or ';' between statements")
		}
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		prevLine = p.curToken.Pos.Line
		p.nextToken()
	}
}

func isStopToken(tt TokenType, stop []TokenType) bool {
	for _, s := range stop {
		if tt == s {
			return true
		}
	}
	return false
}

func wrapBody(stmts []*Node) *Node {
	switch len(stmts) {
	case 0:
		return nil
	case 1:
		return stmts[0]
	default:
		children := make([]any, len(stmts))
		for i, stmt := range stmts {
			children[i] = stmt
		}
		return &Node{Type: NodeBegin, Children: children, Pos: stmts[0].Pos}
	}
}

func (p *parser) parseStatement() *Node {
	switch p.curToken.Type {
	case tokenClass:
		return p.parseClassStatement()
	case tokenDef:
		return p.parseDefStatement()
	default:
		return p.parseExpression(lowestPrec)
	}
}

const (
	lowestPrec = iota
	precEquality
	precComparison
	precSum
	precProduct
	precCall
)

var precedences = map[TokenType]int{
	tokenEQ:       precEquality,
	tokenNotEQ:    precEquality,
	tokenLT:       precComparison,
	tokenLTE:      precComparison,
	tokenGT:       precComparison,
	tokenGTE:      precComparison,
	tokenPlus:     precSum,
	tokenMinus:    precSum,
	tokenSlash:    precProduct,
	tokenAsterisk: precProduct,
	tokenPercent:  precProduct,
	tokenDot:      precCall,
	tokenScope:    precCall,
}

func (p *parser) parseExpression(precedence int) *Node {
	prefix := p.prefixFns[p.curToken.Type]
	if prefix == nil {
		p.errorUnexpected(p.curToken)
		return nil
	}

	left := prefix()

	for p.peekToken.Type != tokenEOF && precedence < p.peekPrecedence() {
		// A line break ends the expression unless the next line continues
		// a method chain.
		if p.peekToken.Pos.Line != p.curToken.Pos.Line && p.peekToken.Type != tokenDot {
			return left
		}
		infix := p.infixFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}

	return left
}

func (p *parser) parseIdentifier() *Node {
	tok := p.curToken
	name := tok.Literal

	if p.peekToken.Type == tokenAssign {
		p.nextToken()
		p.nextToken()
		value := p.parseExpression(lowestPrec)
		p.declare(name)
		return p.node(tok.Pos, NodeLvasgn, Symbol(name), value)
	}

	if p.isLocal(name) && !p.peekIsCallParen() {
		return p.node(tok.Pos, NodeLvar, Symbol(name))
	}

	args := p.parseOptionalCallArgs()
	return p.sendNode(tok.Pos, nil, name, args)
}

func (p *parser) parseConstant() *Node {
	tok := p.curToken
	if p.peekToken.Type == tokenAssign {
		p.nextToken()
		p.nextToken()
		value := p.parseExpression(lowestPrec)
		return p.node(tok.Pos, NodeCasgn, nil, Symbol(tok.Literal), value)
	}
	return p.node(tok.Pos, NodeConst, nil, Symbol(tok.Literal))
}

func (p *parser) parseScopedConstant(scope *Node) *Node {
	pos := p.curToken.Pos
	if !p.expectPeek(tokenConstant) {
		return nil
	}
	return p.node(pos, NodeConst, scope, Symbol(p.curToken.Literal))
}

func (p *parser) parseIntegerLiteral() *Node {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.addParseError(p.curToken.Pos, "invalid integer literal")
		return nil
	}
	return p.node(p.curToken.Pos, NodeInt, value)
}

func (p *parser) parseFloatLiteral() *Node {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addParseError(p.curToken.Pos, "invalid float literal")
		return nil
	}
	return p.node(p.curToken.Pos, NodeFloat, value)
}

func (p *parser) parseStringLiteral() *Node {
	return p.node(p.curToken.Pos, NodeStr, p.curToken.Literal)
}

func (p *parser) parseSymbolLiteral() *Node {
	return p.node(p.curToken.Pos, NodeSym, Symbol(p.curToken.Literal))
}

func (p *parser) parseKeywordLiteral() *Node {
	switch p.curToken.Type {
	case tokenTrue:
		return p.node(p.curToken.Pos, NodeTrue)
	case tokenFalse:
		return p.node(p.curToken.Pos, NodeFalse)
	case tokenSelf:
		return p.node(p.curToken.Pos, NodeSelf)
	default:
		return p.node(p.curToken.Pos, NodeNil)
	}
}

func (p *parser) parseIvar() *Node {
	tok := p.curToken
	if p.peekToken.Type == tokenAssign {
		p.nextToken()
		p.nextToken()
		value := p.parseExpression(lowestPrec)
		return p.node(tok.Pos, NodeIvasgn, Symbol(tok.Literal), value)
	}
	return p.node(tok.Pos, NodeIvar, Symbol(tok.Literal))
}

func (p *parser) parseGroupedExpression() *Node {
	pos := p.curToken.Pos
	p.nextToken()
	stmts := p.parseStatements(tokenRParen)
	if p.curToken.Type != tokenRParen {
		p.errorExpected(p.curToken, "')'")
		return nil
	}
	children := make([]any, len(stmts))
	for i, stmt := range stmts {
		children[i] = stmt
	}
	return p.node(pos, NodeBegin, children...)
}

func (p *parser) parseInfixExpression(left *Node) *Node {
	tok := p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	return p.sendNode(tok.Pos, left, tok.Literal, []*Node{right})
}

func (p *parser) parseMemberExpression(receiver *Node) *Node {
	p.nextToken()
	tok := p.curToken
	if !isMethodNameToken(tok.Type) {
		p.errorExpected(tok, "method name")
		return nil
	}
	name := tok.Literal

	if p.peekToken.Type == tokenAssign {
		p.nextToken()
		p.nextToken()
		value := p.parseExpression(lowestPrec)
		return p.sendNode(tok.Pos, receiver, name+"=", []*Node{value})
	}

	args := p.parseOptionalCallArgs()
	return p.sendNode(tok.Pos, receiver, name, args)
}

func isMethodNameToken(tt TokenType) bool {
	switch tt {
	case tokenIdent, tokenConstant, tokenClass, tokenDef, tokenEnd, tokenSelf, tokenNil, tokenTrue, tokenFalse:
		return true
	default:
		return false
	}
}

func (p *parser) sendNode(pos Position, receiver *Node, name string, args []*Node) *Node {
	children := make([]any, 0, len(args)+2)
	if receiver == nil {
		children = append(children, nil)
	} else {
		children = append(children, receiver)
	}
	children = append(children, Symbol(name))
	for _, arg := range args {
		children = append(children, arg)
	}
	return p.node(pos, NodeSend, children...)
}

// parseOptionalCallArgs reads a parenthesised argument list or a command
// style list (`puts "abc"`) following a method name on the same line.
func (p *parser) parseOptionalCallArgs() []*Node {
	switch {
	case p.peekIsCallParen():
		p.nextToken()
		if p.peekToken.Type == tokenRParen {
			p.nextToken()
			return nil
		}
		p.nextToken()
		args := p.parseArgList()
		p.expectPeek(tokenRParen)
		return args
	case p.peekStartsCommandArg():
		p.nextToken()
		return p.parseArgList()
	default:
		return nil
	}
}

func (p *parser) parseArgList() []*Node {
	args := []*Node{p.parseExpression(lowestPrec)}
	for p.peekToken.Type == tokenComma {
		p.nextToken()
		p.nextToken()
		args = append(args, p.parseExpression(lowestPrec))
	}
	return args
}

func (p *parser) peekIsCallParen() bool {
	return p.peekToken.Type == tokenLParen && p.peekToken.Pos.Line == p.curToken.Pos.Line
}

func (p *parser) peekStartsCommandArg() bool {
	if p.peekToken.Pos.Line != p.curToken.Pos.Line {
		return false
	}
	switch p.peekToken.Type {
	case tokenString, tokenInt, tokenFloat, tokenSymbol, tokenIdent, tokenConstant,
		tokenIvar, tokenSelf, tokenNil, tokenTrue, tokenFalse:
		return true
	default:
		return false
	}
}

func (p *parser) pushScope() {
	p.scopes = append(p.scopes, make(map[string]struct{}))
}

func (p *parser) popScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

func (p *parser) declare(name string) {
	p.scopes[len(p.scopes)-1][name] = struct{}{}
}

func (p *parser) isLocal(name string) bool {
	_, ok := p.scopes[len(p.scopes)-1][name]
	return ok
}

func (p *parser) expectPeek(tt TokenType) bool {
	if p.peekToken.Type == tt {
		p.nextToken()
		return true
	}
	p.errorExpected(p.peekToken, tokenLabel(tt))
	return false
}

func (p *parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return lowestPrec
}

func (p *parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return lowestPrec
}
