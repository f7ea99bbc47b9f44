package bci

func (p *parser) parseClassStatement() *Node {
	pos := p.curToken.Pos
	if !p.expectPeek(tokenConstant) {
		return nil
	}
	name := p.node(p.curToken.Pos, NodeConst, nil, Symbol(p.curToken.Literal))
	for p.peekToken.Type == tokenScope {
		p.nextToken()
		if !p.expectPeek(tokenConstant) {
			return nil
		}
		name = p.node(p.curToken.Pos, NodeConst, name, Symbol(p.curToken.Literal))
	}

	var superclass *Node
	if p.peekToken.Type == tokenLT {
		p.nextToken()
		p.nextToken()
		superclass = p.parseExpression(lowestPrec)
	}

	p.nextToken()
	p.pushScope()
	stmts := p.parseStatements(tokenEnd)
	p.popScope()

	if p.curToken.Type != tokenEnd {
		p.errorExpected(p.curToken, "'end'")
		return nil
	}

	return p.node(pos, NodeClass, name, superclass, wrapBody(stmts))
}

// parseDefStatement handles `def name`, `def name(a, b)`, `def name a, b`,
// `def name=(v)` and the singleton form `def self.name`, which becomes a
// defs node.
func (p *parser) parseDefStatement() *Node {
	pos := p.curToken.Pos
	p.nextToken()

	var singleton *Node
	if p.curToken.Type == tokenSelf && p.peekToken.Type == tokenDot {
		singleton = p.node(p.curToken.Pos, NodeSelf)
		p.nextToken()
		p.nextToken()
	}

	if !isMethodNameToken(p.curToken.Type) {
		p.errorExpected(p.curToken, "method name")
		return nil
	}
	name := p.curToken.Literal
	if p.peekToken.Type == tokenAssign && p.peekToken.Pos.Line == p.curToken.Pos.Line {
		name += "="
		p.nextToken()
	}

	argsPos := p.peekToken.Pos
	params, ok := p.parseParams()
	if !ok {
		return nil
	}
	args := make([]any, len(params))
	for i, param := range params {
		args[i] = param
	}

	p.nextToken()
	p.pushScope()
	for _, param := range params {
		sym, _ := param.SymbolChild(0)
		p.declare(string(sym))
	}
	stmts := p.parseStatements(tokenEnd)
	p.popScope()

	if p.curToken.Type != tokenEnd {
		p.errorExpected(p.curToken, "'end'")
		return nil
	}

	argsNode := p.node(argsPos, NodeArgs, args...)
	if singleton != nil {
		return p.node(pos, NodeDefs, singleton, Symbol(name), argsNode, wrapBody(stmts))
	}
	return p.node(pos, NodeDef, Symbol(name), argsNode, wrapBody(stmts))
}

// parseParams reads the parameter list after a method name, leaving
// curToken on its last token.
func (p *parser) parseParams() ([]*Node, bool) {
	sameLine := p.peekToken.Pos.Line == p.curToken.Pos.Line
	switch {
	case p.peekToken.Type == tokenLParen && sameLine:
		p.nextToken()
		if p.peekToken.Type == tokenRParen {
			p.nextToken()
			return nil, true
		}
		params, ok := p.parseParamNames()
		if !ok {
			return nil, false
		}
		if !p.expectPeek(tokenRParen) {
			return nil, false
		}
		return params, true
	case p.peekToken.Type == tokenIdent && sameLine:
		return p.parseParamNames()
	default:
		return nil, true
	}
}

func (p *parser) parseParamNames() ([]*Node, bool) {
	params := []*Node{}
	for {
		if !p.expectPeek(tokenIdent) {
			return nil, false
		}
		params = append(params, p.node(p.curToken.Pos, NodeArg, Symbol(p.curToken.Literal)))
		if p.peekToken.Type != tokenComma {
			return params, true
		}
		p.nextToken()
	}
}
