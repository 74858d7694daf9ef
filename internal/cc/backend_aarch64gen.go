package cc

import "fmt"

// backend_aarch64gen.go is the AArch64 backend. It emits GNU as syntax assembly:
//
//	as out.asm -o out.o
//	gcc out.o rt/*.o -o out

// Scratch registers x9-x16 are caller-saved under AAPCS64, so nothing has
// to be preserved across calls; the codegen assumes only x0 survives as the
// return value. There are no byte registers: ldrb/strb take the 32-bit view.
var (
	arm64Xreg = []string{"x9", "x10", "x11", "x12", "x13", "x14", "x15", "x16"}
	arm64Wreg = []string{"w9", "w10", "w11", "w12", "w13", "w14", "w15", "w16"}
)

type arm64Backend struct {
	cc   *Compiler
	regs regPool

	localOffset int
	stackOffset int
}

func newARM64Backend(c *Compiler) *arm64Backend {
	return &arm64Backend{cc: c, regs: newRegPool(len(arm64Xreg))}
}

func (b *arm64Backend) emitf(format string, args ...any) {
	b.cc.emitf(format, args...)
}

func (b *arm64Backend) sym(id int) *Symbol {
	return b.cc.syms.At(id)
}

// wide reports whether the type occupies a full x register; narrower values
// use the w view.
func wide(t Primitive) bool {
	return t == Long || t.IsPointer()
}

// reg returns the register name for pool slot r at the width of t.
func (b *arm64Backend) reg(r int, t Primitive) string {
	if wide(t) {
		return arm64Xreg[r]
	}
	return arm64Wreg[r]
}

// loadStoreInstr returns the load and store mnemonics for a value of type t.
func loadStoreInstr(t Primitive) (load, store string) {
	if t == Char {
		return "ldrb", "strb"
	}
	return "ldr", "str"
}

func (b *arm64Backend) ResetRegisters() {
	b.regs.reset()
}

func (b *arm64Backend) Preamble() {
	b.regs.reset()

	b.emitf("\t.text\n")
	b.emitf("\t.extern\tprintint\n")
	b.emitf("\t.extern\tprintchar\n")
	b.emitf("\t.extern\tprintstring\n")
}

func (b *arm64Backend) Postamble() {}

func (b *arm64Backend) FunctionCall(reg, funcID int) int {
	out := b.regs.allocate()

	if reg != NoReg {
		b.emitf("\tmov\tx0, %s\n", arm64Xreg[reg])
	}
	b.emitf("\tbl\t%s\n", b.sym(funcID).Name)
	b.emitf("\tmov\t%s, x0\n", arm64Xreg[out])

	if reg != NoReg {
		b.regs.free(reg)
	}

	return out
}

func (b *arm64Backend) FunctionPreamble(funcID int) {
	name := b.sym(funcID).Name
	b.stackOffset = (b.localOffset + 15) &^ 15

	b.emitf("\t.text\n")
	b.emitf("\t.global\t%s\n", name)
	b.emitf("%s:\n", name)
	b.emitf("\tstp\tx29, x30, [sp, -16]!\n")
	b.emitf("\tmov\tx29, sp\n")

	if b.stackOffset > 0 {
		b.emitf("\tsub\tsp, sp, #%d\n", b.stackOffset)
	}
}

func (b *arm64Backend) ReturnFromFunction(reg, funcID int) {
	fn := b.sym(funcID)

	switch fn.Type {
	case Char, Int:
		b.emitf("\tmov\tw0, %s\n", arm64Wreg[reg])
	case Long, VoidPtr, CharPtr, IntPtr, LongPtr:
		b.emitf("\tmov\tx0, %s\n", arm64Xreg[reg])
	default:
		internalf("bad return type %s for function %s", fn.Type, fn.Name)
	}

	b.Jump(fn.EndLabel)
}

func (b *arm64Backend) FunctionPostamble(funcID int) {
	b.Label(b.sym(funcID).EndLabel)
	b.emitf("\tmov\tsp, x29\n")
	b.emitf("\tldp\tx29, x30, [sp], 16\n")
	b.emitf("\tret\n")
}

func (b *arm64Backend) DeclareGlobalSymbol(symID int) {
	sym := b.sym(symID)

	elemSize := sym.Type.Size()
	if elemSize <= 0 {
		internalf("bad element size %d for symbol %s", elemSize, sym.Name)
	}

	count := 1
	if sym.Kind == SymArray {
		count = sym.Size
	}
	if count <= 0 || count > (1<<31)/elemSize {
		b.cc.fatalf("bad storage size %d for symbol %q", count, sym.Name)
	}

	// log2 of the natural alignment for .p2align.
	p2 := map[int]int{1: 0, 2: 1, 4: 2, 8: 3}[alignPow2(elemSize)]

	b.emitf("\t.bss\n")
	b.emitf("\t.p2align\t%d\n", p2)
	b.emitf("\t.global\t%s\n", sym.Name)
	b.emitf("%s:\n", sym.Name)
	b.emitf("\t.zero\t%d\n", elemSize*count)
}

func (b *arm64Backend) DeclareGlobalString(label int, text string) {
	b.emitf("\t.section\t.rodata\n")
	b.Label(label)

	// .string appends the NUL terminator; non-printable bytes become octal
	// escapes.
	b.emitf("\t.string\t\"")
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '"':
			b.emitf("\\\"")
		case ch == '\\':
			b.emitf("\\\\")
		case ch >= 32 && ch <= 126:
			b.emitf("%c", ch)
		default:
			b.emitf("\\%03o", ch)
		}
	}
	b.emitf("\"\n")
}

func (b *arm64Backend) LoadImmediateInt(value int, t Primitive) int {
	r := b.regs.allocate()
	b.emitf("\tmov\t%s, #%d\n", arm64Xreg[r], value)
	return r
}

// loadGlobalAddress forms a PC-relative address in x0, which the pool never
// hands out.
func (b *arm64Backend) loadGlobalAddress(name string) {
	b.emitf("\tadrp\tx0, %s\n", name)
	b.emitf("\tadd\tx0, x0, :lo12:%s\n", name)
}

// localRef names a local's frame slot; offsets are negative.
func (b *arm64Backend) localRef(sym *Symbol) string {
	return fmt.Sprintf("[x29, #%d]", sym.Offset)
}

// arm64LoadRef loads a value of sym's type from ref, folding pre/post
// increment or decrement around the load.
func (b *arm64Backend) arm64LoadRef(sym *Symbol, ref string, op Op) int {
	r := b.regs.allocate()
	load, store := loadStoreInstr(sym.Type)
	val := b.reg(r, sym.Type)

	step := ""
	switch op {
	case OpPreIncrement, OpPostIncrement:
		step = "add"
	case OpPreDecrement, OpPostDecrement:
		step = "sub"
	}

	b.emitf("\t%s\t%s, %s\n", load, val, ref)

	switch op {
	case OpPreIncrement, OpPreDecrement:
		// Adjust in place: the register keeps the new value.
		b.emitf("\t%s\t%s, %s, #1\n", step, val, val)
		b.emitf("\t%s\t%s, %s\n", store, val, ref)
	case OpPostIncrement, OpPostDecrement:
		// The loaded value survives; the adjustment goes through a
		// temporary.
		tmp := b.regs.allocate()
		b.emitf("\t%s\t%s, %s, #1\n", step, b.reg(tmp, sym.Type), val)
		b.emitf("\t%s\t%s, %s\n", store, b.reg(tmp, sym.Type), ref)
		b.regs.free(tmp)
	}

	return r
}

func (b *arm64Backend) LoadGlobalSymbol(symID int, op Op) int {
	sym := b.sym(symID)
	b.loadGlobalAddress(sym.Name)
	return b.arm64LoadRef(sym, "[x0]", op)
}

func (b *arm64Backend) LoadLocalSymbol(symID int, op Op) int {
	sym := b.sym(symID)
	return b.arm64LoadRef(sym, b.localRef(sym), op)
}

func (b *arm64Backend) LoadGlobalString(label int) int {
	r := b.regs.allocate()
	b.emitf("\tadrp\t%s, L%d\n", arm64Xreg[r], label)
	b.emitf("\tadd\t%s, %s, :lo12:L%d\n", arm64Xreg[r], arm64Xreg[r], label)
	return r
}

func (b *arm64Backend) StoreGlobalSymbol(reg, symID int) int {
	sym := b.sym(symID)
	_, store := loadStoreInstr(sym.Type)

	b.loadGlobalAddress(sym.Name)
	b.emitf("\t%s\t%s, [x0]\n", store, b.reg(reg, sym.Type))

	return reg
}

func (b *arm64Backend) StoreLocalSymbol(reg, symID int) int {
	sym := b.sym(symID)
	_, store := loadStoreInstr(sym.Type)

	b.emitf("\t%s\t%s, %s\n", store, b.reg(reg, sym.Type), b.localRef(sym))

	return reg
}

func (b *arm64Backend) Add(r1, r2 int) int {
	b.emitf("\tadd\t%s, %s, %s\n", arm64Xreg[r2], arm64Xreg[r2], arm64Xreg[r1])
	b.regs.free(r1)
	return r2
}

func (b *arm64Backend) Sub(r1, r2 int) int {
	b.emitf("\tsub\t%s, %s, %s\n", arm64Xreg[r1], arm64Xreg[r1], arm64Xreg[r2])
	b.regs.free(r2)
	return r1
}

func (b *arm64Backend) Mul(r1, r2 int) int {
	b.emitf("\tmul\t%s, %s, %s\n", arm64Xreg[r2], arm64Xreg[r2], arm64Xreg[r1])
	b.regs.free(r1)
	return r2
}

func (b *arm64Backend) Div(r1, r2 int) int {
	b.emitf("\tsdiv\t%s, %s, %s\n", arm64Xreg[r1], arm64Xreg[r1], arm64Xreg[r2])
	b.regs.free(r2)
	return r1
}

func (b *arm64Backend) ShiftLeft(r1, r2 int) int {
	b.emitf("\tlsl\t%s, %s, %s\n", arm64Xreg[r1], arm64Xreg[r1], arm64Xreg[r2])
	b.regs.free(r2)
	return r1
}

func (b *arm64Backend) ShiftRight(r1, r2 int) int {
	b.emitf("\tlsr\t%s, %s, %s\n", arm64Xreg[r1], arm64Xreg[r1], arm64Xreg[r2])
	b.regs.free(r2)
	return r1
}

func (b *arm64Backend) ShiftLeftConst(reg, amount int) int {
	b.emitf("\tlsl\t%s, %s, #%d\n", arm64Xreg[reg], arm64Xreg[reg], amount)
	return reg
}

func (b *arm64Backend) Negate(reg int) int {
	b.emitf("\tneg\t%s, %s\n", arm64Xreg[reg], arm64Xreg[reg])
	return reg
}

func (b *arm64Backend) Invert(reg int) int {
	b.emitf("\tmvn\t%s, %s\n", arm64Xreg[reg], arm64Xreg[reg])
	return reg
}

func (b *arm64Backend) LogicalNot(reg int) int {
	b.emitf("\tcmp\t%s, #0\n", arm64Xreg[reg])
	b.emitf("\tcset\t%s, eq\n", arm64Wreg[reg])
	return reg
}

func (b *arm64Backend) BitAnd(r1, r2 int) int {
	b.emitf("\tand\t%s, %s, %s\n", arm64Xreg[r1], arm64Xreg[r1], arm64Xreg[r2])
	b.regs.free(r2)
	return r1
}

func (b *arm64Backend) BitOr(r1, r2 int) int {
	b.emitf("\torr\t%s, %s, %s\n", arm64Xreg[r1], arm64Xreg[r1], arm64Xreg[r2])
	b.regs.free(r2)
	return r1
}

func (b *arm64Backend) BitXor(r1, r2 int) int {
	b.emitf("\teor\t%s, %s, %s\n", arm64Xreg[r1], arm64Xreg[r1], arm64Xreg[r2])
	b.regs.free(r2)
	return r1
}

func (b *arm64Backend) ToBoolean(reg int, parentOp Op, label int) int {
	b.emitf("\tcmp\t%s, #0\n", arm64Xreg[reg])

	if parentOp == OpIf || parentOp == OpWhile {
		b.emitf("\tbeq\tL%d\n", label)
	} else {
		// cset of the w view zeroes the upper half of the x register.
		b.emitf("\tcset\t%s, ne\n", arm64Wreg[reg])
	}

	return reg
}

// arm64Cond maps a comparison to its condition code.
var arm64Cond = map[Op]string{
	OpEqual:        "eq",
	OpNotEqual:     "ne",
	OpLess:         "lt",
	OpLessEqual:    "le",
	OpGreater:      "gt",
	OpGreaterEqual: "ge",
}

// arm64InvBranch maps a comparison to the branch taken when it is FALSE.
var arm64InvBranch = map[Op]string{
	OpEqual:        "bne",
	OpNotEqual:     "beq",
	OpLess:         "bge",
	OpLessEqual:    "bgt",
	OpGreater:      "ble",
	OpGreaterEqual: "blt",
}

func (b *arm64Backend) CompareAndSet(op Op, r1, r2 int) int {
	cond, ok := arm64Cond[op]
	if !ok {
		internalf("bad comparison operator %s", op)
	}

	b.emitf("\tcmp\t%s, %s\n", arm64Xreg[r1], arm64Xreg[r2])
	b.emitf("\tcset\t%s, %s\n", arm64Wreg[r2], cond)

	b.regs.free(r1)
	return r2
}

func (b *arm64Backend) CompareAndJump(op Op, r1, r2, label int) int {
	branch, ok := arm64InvBranch[op]
	if !ok {
		internalf("bad comparison operator %s", op)
	}

	b.emitf("\tcmp\t%s, %s\n", arm64Xreg[r1], arm64Xreg[r2])
	b.emitf("\t%s\tL%d\n", branch, label)

	b.regs.reset()
	return NoReg
}

func (b *arm64Backend) Label(label int) {
	b.emitf("L%d:\n", label)
}

func (b *arm64Backend) Jump(label int) {
	b.emitf("\tb\tL%d\n", label)
}

func (b *arm64Backend) Widen(reg int, from, to Primitive) int {
	// Narrow loads already zero-extended into the 64-bit register.
	return reg
}

func (b *arm64Backend) AddressOfGlobalSymbol(symID int) int {
	r := b.regs.allocate()
	name := b.sym(symID).Name

	b.emitf("\tadrp\t%s, %s\n", arm64Xreg[r], name)
	b.emitf("\tadd\t%s, %s, :lo12:%s\n", arm64Xreg[r], arm64Xreg[r], name)

	return r
}

func (b *arm64Backend) AddressOfLocalSymbol(symID int) int {
	r := b.regs.allocate()
	sym := b.sym(symID)

	b.emitf("\tsub\t%s, x29, #%d\n", arm64Xreg[r], -sym.Offset)

	return r
}

func (b *arm64Backend) DereferencePointer(reg int, ptrType Primitive) int {
	switch ptrType {
	case CharPtr:
		b.emitf("\tldrb\t%s, [%s]\n", arm64Wreg[reg], arm64Xreg[reg])
	case IntPtr:
		b.emitf("\tldr\t%s, [%s]\n", arm64Wreg[reg], arm64Xreg[reg])
	case VoidPtr, LongPtr:
		b.emitf("\tldr\t%s, [%s]\n", arm64Xreg[reg], arm64Xreg[reg])
	default:
		internalf("cannot dereference type %s", ptrType)
	}
	return reg
}

func (b *arm64Backend) StoreDereferencedPointer(valueReg, addrReg int, t Primitive) int {
	_, store := loadStoreInstr(t)
	b.emitf("\t%s\t%s, [%s]\n", store, b.reg(valueReg, t), arm64Xreg[addrReg])
	return valueReg
}

func (b *arm64Backend) GetLocalOffset(t Primitive) int {
	size := t.Size()
	if size <= 0 {
		internalf("bad type %s for local", t)
	}

	if size < 4 {
		size = 4
	}
	b.localOffset += size

	return -b.localOffset
}

func (b *arm64Backend) ResetLocalOffset() {
	b.localOffset = 0
}
