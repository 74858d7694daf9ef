package cc

// decl.go holds the declaration parser for variables, arrays and functions.

// parsePrimitiveType consumes a type keyword plus any number of '*' tokens,
// widening to the pointer type each time.
func (c *Compiler) parsePrimitiveType() Primitive {
	var t Primitive

	switch c.token.Kind {
	case TokVoid:
		t = Void
	case TokChar:
		t = Char
	case TokInt:
		t = Int
	case TokLong:
		t = Long
	default:
		c.fatalf("expected a type, got %s", c.token.Kind)
	}

	for {
		c.scan(&c.token)
		if c.token.Kind != TokStar {
			break
		}
		t = PointerTo(t)
	}

	return t
}

// variableDeclaration parses the remainder of a variable declaration after
// the type and first identifier, handling array bounds and comma-separated
// declarator lists that share the type.
func (c *Compiler) variableDeclaration(name string, t Primitive, class StorageClass) {
	for {
		if c.token.Kind == TokLeftBracket {
			c.declareArray(name, t, class)
		} else {
			c.declareScalar(name, t, class)
		}

		switch c.token.Kind {
		case TokComma:
			c.scan(&c.token)
			name = c.matchIdentifier()
		case TokSemicolon:
			c.scan(&c.token)
			return
		default:
			c.fatalf("expected , or ; after %q, got %s", name, c.token.Kind)
		}
	}
}

func (c *Compiler) declareScalar(name string, t Primitive, class StorageClass) {
	if t == Void {
		c.fatalf("variable %q declared void", name)
	}

	if class == ClassGlobal {
		id := c.addGlobal(name, t, SymVariable, 0, 1)
		c.be.DeclareGlobalSymbol(id)
		return
	}
	c.addLocal(name, t, SymVariable, 0, 1)
}

func (c *Compiler) declareArray(name string, t Primitive, class StorageClass) {
	if class == ClassLocal {
		c.fatalf("local arrays are not supported")
	}
	if t == Void {
		c.fatalf("array %q of void elements", name)
	}

	c.scan(&c.token)
	if c.token.Kind != TokIntLit {
		c.fatalf("array size must be an integer literal")
	}
	size := c.token.IntValue
	if size <= 0 {
		c.fatalf("array %q has invalid size %d", name, size)
	}

	id := c.addGlobal(name, t, SymArray, 0, size)
	c.be.DeclareGlobalSymbol(id)

	c.scan(&c.token)
	c.match(TokRightBracket)
}

// functionDeclaration parses a parameterless function body after the return
// type and name have been read, and wraps it in a Function node.
func (c *Compiler) functionDeclaration(name string, t Primitive) *Node {
	endLabel := c.newLabel()
	id := c.addGlobal(name, t, SymFunction, endLabel, 0)

	c.currentFunction = id
	c.syms.ResetLocals()
	c.be.ResetLocalOffset()

	c.match(TokLeftParen)
	c.match(TokRightParen)

	body := c.compoundStatement()

	if t != Void && !returnsAtEnd(body) {
		c.fatalf("function %q with return type %s has no final return", name, t)
	}

	return NewUnary(OpFunction, None, body, id)
}

// returnsAtEnd reports whether a statement tree is guaranteed to end in a
// return: a Return itself, a Glue chain whose last statement does, or an
// if/else where both branches do.
func returnsAtEnd(n *Node) bool {
	if n == nil {
		return false
	}

	switch n.Op {
	case OpReturn:
		return true
	case OpGlue:
		return returnsAtEnd(n.Right)
	case OpIf:
		return n.Right != nil && returnsAtEnd(n.Middle) && returnsAtEnd(n.Right)
	}

	return false
}

// globalDeclarations is the top-level loop: one variable or function
// declaration per iteration until end of input. Each function is emitted as
// soon as it has been parsed.
func (c *Compiler) globalDeclarations() {
	for c.token.Kind != TokEOF {
		t := c.parsePrimitiveType()
		name := c.matchIdentifier()

		if c.token.Kind == TokLeftParen {
			tree := c.functionDeclaration(name, t)

			if c.cfg.DumpAST || c.cfg.DumpASTCompacted {
				c.dumpTree(tree)
			}

			c.genAST(tree, NoLabel, OpNothing)
			c.be.ResetRegisters()

			c.log.Debug("compiled function", "name", name, "type", t.String())
		} else {
			c.variableDeclaration(name, t, ClassGlobal)
		}
	}
}
