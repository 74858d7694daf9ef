package cc

import (
	"bufio"
	"io"
	"os"

	"github.com/knightc/kcc/internal/log"
)

// Config selects the target, output options and diagnostics for one
// compilation.
type Config struct {
	Target           Target
	Filename         string // input path used in diagnostics
	DumpAST          bool
	DumpASTCompacted bool
	DumpWriter       io.Writer // AST dump destination; defaults to stdout
	Log              *log.Logger
}

// Compiler compiles one source stream to assembly in a single pass: as each
// top-level declaration finishes parsing, its tree is emitted and dropped.
// All process-wide state of the compilation (scanner position, token,
// symbol table, label counter) lives here and nowhere else.
type Compiler struct {
	cfg Config
	log *log.Logger

	in  *bufio.Reader
	out *bufio.Writer

	// Scanner state
	line     int    // current source line
	putback  int    // one character of pushed-back lookahead
	text     string // spelling of the last identifier or string literal
	token    Token  // most recently scanned token
	rejected *Token // one-token reject buffer

	// Parser and generator state
	syms            *SymbolTable
	be              backend
	nextLabel       int
	currentFunction int // symbol id of the function being compiled
	dumpLabel       int
	dumpOut         io.Writer
}

// New prepares a compiler that reads source from in and writes assembly to
// out.
func New(in io.Reader, out io.Writer, cfg Config) *Compiler {
	if cfg.Target == 0 {
		cfg.Target = TargetNASM
	}
	if cfg.Log == nil {
		cfg.Log = log.DefaultLogger()
	}
	if cfg.DumpWriter == nil {
		cfg.DumpWriter = os.Stdout
	}

	c := &Compiler{
		cfg:     cfg,
		log:     cfg.Log,
		in:      bufio.NewReader(in),
		out:     bufio.NewWriter(out),
		line:    1,
		syms:    NewSymbolTable(),
		dumpOut: cfg.DumpWriter,
	}
	c.be = c.newBackend(cfg.Target)

	return c
}

// runtimeFunctions are the print helpers provided by the hand-written
// runtime the output links against. They return in the first return
// register; char is the narrowest type, so a result assigns anywhere.
var runtimeFunctions = []string{"printint", "printchar", "printstring"}

// Compile runs the whole compilation. The first fatal error aborts and is
// returned; on success the output stream has been flushed.
func (c *Compiler) Compile() (err error) {
	defer func() {
		if r := recover(); r != nil {
			cerr, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			if cerr.File == "" {
				cerr.File = c.cfg.Filename
			}
			err = cerr
		}
	}()

	for _, name := range runtimeFunctions {
		c.addGlobal(name, Char, SymFunction, 0, 0)
	}

	// Prime the token pipeline, then emit one declaration at a time.
	c.scan(&c.token)
	c.be.Preamble()
	c.globalDeclarations()
	c.be.Postamble()

	if err := c.out.Flush(); err != nil {
		return err
	}

	c.log.Debug("compilation finished",
		"file", c.cfg.Filename,
		"target", c.cfg.Target.String(),
		"globals", c.syms.Globals(),
		"labels", c.nextLabel,
	)

	return nil
}
