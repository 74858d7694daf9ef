package cc

// NSymbols is the capacity of the symbol table: the maximum number of
// distinct global plus local symbols in one compilation.
const NSymbols = 1024

// SymbolKind is the structural kind of a symbol.
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymFunction
	SymArray
)

func (k SymbolKind) String() string {
	switch k {
	case SymVariable:
		return "variable"
	case SymFunction:
		return "function"
	case SymArray:
		return "array"
	}
	return "unknown"
}

// StorageClass distinguishes file-scope symbols from function locals.
// Parameters use ClassLocal and are distinguished by context.
type StorageClass int

const (
	ClassGlobal StorageClass = iota
	ClassLocal
)

// Symbol is one slot of the symbol table.
type Symbol struct {
	Name     string
	Type     Primitive
	Kind     SymbolKind
	Class    StorageClass
	Size     int // array element count; 1 for scalars
	EndLabel int // function end label, for SymFunction
	Offset   int // frame offset relative to the frame pointer, for locals
}

// SymbolTable is a single flat arena grown from both ends: globals occupy
// ascending slots from index 0, locals descending slots from index
// NSymbols-1. The two frontiers must never cross. Slot indices are handed
// out once and baked into AST nodes, so entries are never moved.
type SymbolTable struct {
	syms       [NSymbols]Symbol
	nextGlobal int // next free global slot, grows up
	nextLocal  int // next free local slot, grows down
}

// NewSymbolTable returns an empty table with both frontiers at their ends.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{nextLocal: NSymbols - 1}
}

// At returns the symbol stored at index id.
func (st *SymbolTable) At(id int) *Symbol {
	if id < 0 || id >= NSymbols {
		internalf("symbol index %d out of range", id)
	}
	return &st.syms[id]
}

// FindGlobal scans the global region for name.
func (st *SymbolTable) FindGlobal(name string) (int, bool) {
	for i := 0; i < st.nextGlobal; i++ {
		if st.syms[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// FindLocal scans the local region for name.
func (st *SymbolTable) FindLocal(name string) (int, bool) {
	for i := NSymbols - 1; i > st.nextLocal; i-- {
		if st.syms[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// Find resolves name, trying locals before globals.
func (st *SymbolTable) Find(name string) (int, bool) {
	if id, ok := st.FindLocal(name); ok {
		return id, true
	}
	return st.FindGlobal(name)
}

// AddGlobal inserts a global symbol and returns its index. Inserting a name
// that already exists returns the existing index. The boolean is false when
// the global frontier would cross the local one.
func (st *SymbolTable) AddGlobal(name string, t Primitive, kind SymbolKind, endLabel, size int) (int, bool) {
	if id, ok := st.FindGlobal(name); ok {
		return id, true
	}
	if st.nextGlobal > st.nextLocal {
		return 0, false
	}

	id := st.nextGlobal
	st.nextGlobal++
	st.syms[id] = Symbol{
		Name:     name,
		Type:     t,
		Kind:     kind,
		Class:    ClassGlobal,
		Size:     size,
		EndLabel: endLabel,
	}

	return id, true
}

// AddLocal inserts a local symbol and returns its index. The caller records
// the frame offset afterwards; the table only manages slots.
func (st *SymbolTable) AddLocal(name string, t Primitive, kind SymbolKind, endLabel, size int) (int, bool) {
	if id, ok := st.FindLocal(name); ok {
		return id, true
	}
	if st.nextLocal < st.nextGlobal {
		return 0, false
	}

	id := st.nextLocal
	st.nextLocal--
	st.syms[id] = Symbol{
		Name:     name,
		Type:     t,
		Kind:     kind,
		Class:    ClassLocal,
		Size:     size,
		EndLabel: endLabel,
	}

	return id, true
}

// ResetLocals discards the local region. Called on function entry; the
// previous function's locals are dead by then.
func (st *SymbolTable) ResetLocals() {
	for i := NSymbols - 1; i > st.nextLocal; i-- {
		st.syms[i] = Symbol{}
	}
	st.nextLocal = NSymbols - 1
}

// Globals returns the number of global symbols defined so far.
func (st *SymbolTable) Globals() int {
	return st.nextGlobal
}

// Locals returns the number of local symbols defined so far.
func (st *SymbolTable) Locals() int {
	return NSymbols - 1 - st.nextLocal
}

// addGlobal is the parser-facing wrapper that converts table overflow into a
// fatal diagnostic.
func (c *Compiler) addGlobal(name string, t Primitive, kind SymbolKind, endLabel, size int) int {
	id, ok := c.syms.AddGlobal(name, t, kind, endLabel, size)
	if !ok {
		c.fatalf("too many symbols: symbol table is full")
	}
	return id
}

// addLocal inserts a local and assigns its frame offset from the backend.
func (c *Compiler) addLocal(name string, t Primitive, kind SymbolKind, endLabel, size int) int {
	if id, ok := c.syms.FindLocal(name); ok {
		return id
	}
	id, ok := c.syms.AddLocal(name, t, kind, endLabel, size)
	if !ok {
		c.fatalf("too many symbols: symbol table is full")
	}
	c.syms.At(id).Offset = c.be.GetLocalOffset(t)
	return id
}
