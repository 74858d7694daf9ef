package cc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseExpr parses a single expression from src after seeding the symbol
// table via seed.
func parseExpr(t *testing.T, src string, seed func(c *Compiler)) *Node {
	t.Helper()

	c := testCompiler(t, src)
	if seed != nil {
		seed(c)
	}

	c.scan(&c.token)
	return c.binexpr(0)
}

// parseExprFatal parses src expecting a fatal diagnostic.
func parseExprFatal(t *testing.T, src string, seed func(c *Compiler)) *Error {
	t.Helper()

	c := testCompiler(t, src)
	if seed != nil {
		seed(c)
	}

	cerr := catchFatal(func() {
		c.scan(&c.token)
		c.binexpr(0)
	})
	require.NotNil(t, cerr)

	return cerr
}

func globals(vars map[string]Primitive) func(c *Compiler) {
	return func(c *Compiler) {
		for name, typ := range vars {
			c.addGlobal(name, typ, SymVariable, 0, 1)
		}
	}
}

func TestLiteralTyping(t *testing.T) {
	// Literals that fit a byte are char; larger ones are int.
	n := parseExpr(t, "200;", nil)
	assert.Equal(t, OpIntLit, n.Op)
	assert.Equal(t, Char, n.Type)

	n = parseExpr(t, "256;", nil)
	assert.Equal(t, Int, n.Type)

	n = parseExpr(t, "0;", nil)
	assert.Equal(t, Char, n.Type)
}

// For operators of increasing precedence, a op1 b op2 c must parse as
// a op1 (b op2 c).
func TestPrecedenceLaw(t *testing.T) {
	tests := []struct {
		src      string
		root     Op
		rightOp  Op
		rightNil bool
	}{
		{"1 + 2 * 3;", OpAdd, OpMultiply, false},
		{"1 - 2 / 3;", OpSubtract, OpDivide, false},
		{"1 == 2 + 3;", OpEqual, OpAdd, false},
		{"1 < 2 << 3;", OpLess, OpShiftLeft, false},
		{"1 & 2 == 3;", OpBitAnd, OpEqual, false},
		{"1 | 2 ^ 3;", OpBitOr, OpBitXor, false},
		{"1 ^ 2 & 3;", OpBitXor, OpBitAnd, false},
	}

	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			n := parseExpr(t, tc.src, nil)
			require.NotNil(t, n)
			assert.Equal(t, tc.root, n.Op)
			require.NotNil(t, n.Right)
			assert.Equal(t, tc.rightOp, n.Right.Op)
		})
	}
}

func TestLeftAssociativity(t *testing.T) {
	// 1 - 2 - 3 is (1 - 2) - 3.
	n := parseExpr(t, "1 - 2 - 3;", nil)

	require.Equal(t, OpSubtract, n.Op)
	require.NotNil(t, n.Left)
	assert.Equal(t, OpSubtract, n.Left.Op)
	assert.Equal(t, OpIntLit, n.Right.Op)
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	seed := globals(map[string]Primitive{"a": Int, "b": Int, "c": Int})

	// a = b = c: the inner assignment is the value of the outer one. After
	// the child swap the value subtree is on the left.
	n := parseExpr(t, "a = b = c;", seed)

	require.Equal(t, OpAssign, n.Op)
	assert.Equal(t, OpAssign, n.Left.Op)
	assert.Equal(t, OpIdentifier, n.Right.Op)
}

func TestAssignmentSwapsChildren(t *testing.T) {
	seed := globals(map[string]Primitive{"x": Int})

	n := parseExpr(t, "x = 256;", seed)

	require.Equal(t, OpAssign, n.Op)

	// Value on the left, marked r-value; destination on the right, an
	// l-value.
	assert.Equal(t, OpIntLit, n.Left.Op)
	assert.True(t, n.Left.RValue)
	assert.Equal(t, OpIdentifier, n.Right.Op)
	assert.False(t, n.Right.RValue)
}

// Assigning a char r-value to an int l-value inserts exactly one Widen node
// of type int.
func TestWideningLaw(t *testing.T) {
	seed := globals(map[string]Primitive{"x": Int, "c": Char})

	n := parseExpr(t, "x = c;", seed)

	require.Equal(t, OpAssign, n.Op)
	require.Equal(t, OpWiden, n.Left.Op)
	assert.Equal(t, Int, n.Left.Type)
	assert.Equal(t, OpIdentifier, n.Left.Left.Op)
	assert.Equal(t, Char, n.Left.Left.Type)
}

// Assigning an int r-value to a char l-value is rejected.
func TestNarrowingLaw(t *testing.T) {
	seed := globals(map[string]Primitive{"x": Int, "c": Char})

	cerr := parseExprFatal(t, "c = x;", seed)
	assert.Contains(t, cerr.Msg, "incompatible types")
}

// ptr + i scales i by the pointee size.
func TestScalingLaw(t *testing.T) {
	seed := globals(map[string]Primitive{"p": IntPtr, "i": Int})

	n := parseExpr(t, "p + i;", seed)

	require.Equal(t, OpAdd, n.Op)
	require.Equal(t, OpScale, n.Right.Op)
	assert.Equal(t, 4, n.Right.Value)
	assert.Equal(t, IntPtr, n.Right.Type)
}

func TestAddressOf(t *testing.T) {
	seed := globals(map[string]Primitive{"x": Int})

	n := parseExpr(t, "&x;", seed)

	assert.Equal(t, OpAddressOf, n.Op)
	assert.Equal(t, IntPtr, n.Type)
}

func TestAddressOfNonIdentifierFatal(t *testing.T) {
	cerr := parseExprFatal(t, "&7;", nil)
	assert.Contains(t, cerr.Msg, "identifier")
}

func TestAddressOfArrayFatal(t *testing.T) {
	seed := func(c *Compiler) {
		c.addGlobal("arr", Int, SymArray, 0, 3)
	}

	// A bare array name decays to a pointer; its address cannot be taken.
	cerr := parseExprFatal(t, "&arr;", seed)
	assert.Contains(t, cerr.Msg, `address of array "arr"`)
	assert.Positive(t, cerr.Line)
}

func TestDereference(t *testing.T) {
	seed := globals(map[string]Primitive{"p": IntPtr})

	n := parseExpr(t, "*p;", seed)

	require.Equal(t, OpDereference, n.Op)
	assert.Equal(t, Int, n.Type)
	assert.Equal(t, OpIdentifier, n.Left.Op)
}

func TestDereferenceNonPointerFatal(t *testing.T) {
	seed := globals(map[string]Primitive{"x": Int})

	cerr := parseExprFatal(t, "*x;", seed)
	assert.Contains(t, cerr.Msg, "non-pointer")
}

func TestUnaryMinusCoercesToInt(t *testing.T) {
	n := parseExpr(t, "-5;", nil)

	require.Equal(t, OpNegate, n.Op)
	assert.Equal(t, Int, n.Type)
	assert.Equal(t, OpWiden, n.Left.Op)
}

func TestPrefixAndPostfixIncDec(t *testing.T) {
	seed := globals(map[string]Primitive{"x": Int})

	n := parseExpr(t, "++x;", seed)
	assert.Equal(t, OpPreIncrement, n.Op)

	n = parseExpr(t, "--x;", seed)
	assert.Equal(t, OpPreDecrement, n.Op)

	n = parseExpr(t, "x++;", seed)
	assert.Equal(t, OpPostIncrement, n.Op)

	n = parseExpr(t, "x--;", seed)
	assert.Equal(t, OpPostDecrement, n.Op)
}

func TestIncDecOnArrayFatal(t *testing.T) {
	seed := func(c *Compiler) {
		c.addGlobal("arr", Int, SymArray, 0, 3)
	}

	for _, src := range []string{"++arr;", "--arr;", "arr++;", "arr--;"} {
		t.Run(src, func(t *testing.T) {
			cerr := parseExprFatal(t, src, seed)
			assert.Contains(t, cerr.Msg, `array "arr"`)
			assert.Positive(t, cerr.Line)
		})
	}
}

func TestUndeclaredIdentifierFatal(t *testing.T) {
	cerr := parseExprFatal(t, "nope + 1;", nil)
	assert.Contains(t, cerr.Msg, "undeclared identifier")
}

func TestCallOfNonFunctionFatal(t *testing.T) {
	seed := globals(map[string]Primitive{"x": Int})

	cerr := parseExprFatal(t, "x(1);", seed)
	assert.Contains(t, cerr.Msg, "non-function")
}

func TestIndexOfNonArrayFatal(t *testing.T) {
	seed := globals(map[string]Primitive{"x": Int})

	cerr := parseExprFatal(t, "x[0];", seed)
	assert.Contains(t, cerr.Msg, "not an array")
}

func TestArrayAccessShape(t *testing.T) {
	seed := func(c *Compiler) {
		c.addGlobal("arr", Int, SymArray, 0, 3)
	}

	n := parseExpr(t, "arr[1];", seed)

	// Dereference(Add(base, Scale(index)))
	require.Equal(t, OpDereference, n.Op)
	assert.Equal(t, Int, n.Type)

	sum := n.Left
	require.Equal(t, OpAdd, sum.Op)
	assert.Equal(t, IntPtr, sum.Type)
	assert.Equal(t, OpIdentifier, sum.Left.Op)
	assert.Equal(t, OpScale, sum.Right.Op)
	assert.Equal(t, 4, sum.Right.Value)
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	n := parseExpr(t, "(1 + 2) * 3;", nil)

	require.Equal(t, OpMultiply, n.Op)
	assert.Equal(t, OpAdd, n.Left.Op)
}

func TestFunctionCallExpression(t *testing.T) {
	seed := func(c *Compiler) {
		c.addGlobal("f", Int, SymFunction, 1, 0)
	}

	n := parseExpr(t, "f(41 + 1);", seed)

	require.Equal(t, OpFunctionCall, n.Op)
	assert.Equal(t, Int, n.Type)
	assert.Equal(t, OpAdd, n.Left.Op)
}
