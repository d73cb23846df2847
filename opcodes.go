package forth

// Opcode is the primitive operation a dispatched cell names: the low 7 bits
// of a MISC cell, or of any other cell a dispatch pc happens to point at.
type Opcode uint64

// The full primitive set: 5 internal wrappers a word never names directly
// (PUSH, COMPILE, RUN, DEFINE, IMMEDIATE — the last two are installed by
// hand as ":" and "immediate"), followed by the 37 names bootstrap installs
// from namedPrimitives.
const (
	OpPush Opcode = iota
	OpCompile
	OpRun
	OpDefine
	OpImmediate

	OpRead
	OpLoad
	OpStore
	OpSub
	OpAdd
	OpAnd
	OpOr
	OpXor
	OpInvert
	OpLshift
	OpRshift
	OpMul
	OpDiv
	OpLess
	OpMore
	OpEqual
	OpExit
	OpBranch
	OpQBranch
	OpEmit
	OpKey
	OpToR
	OpFromR
	OpPNum
	OpQuote
	OpComma
	OpSwap
	OpDup
	OpDrop
	OpOver
	OpTail
	OpBSave
	OpBLoad
	OpFind
	OpPrint
	OpDepth
	OpClock

	opcodeCount
)

// opcodeNames gives every opcode a lowercase debug name, for tracing and
// the text dumper; it is not the Forth-visible name table (see
// namedPrimitives for that).
var opcodeNames = [opcodeCount]string{
	OpPush:      "push",
	OpCompile:   "compile",
	OpRun:       "run",
	OpDefine:    "define",
	OpImmediate: "immediate",
	OpRead:      "read",
	OpLoad:      "@",
	OpStore:     "!",
	OpSub:       "-",
	OpAdd:       "+",
	OpAnd:       "and",
	OpOr:        "or",
	OpXor:       "xor",
	OpInvert:    "invert",
	OpLshift:    "lshift",
	OpRshift:    "rshift",
	OpMul:       "*",
	OpDiv:       "/",
	OpLess:      "u<",
	OpMore:      "u>",
	OpEqual:     "=",
	OpExit:      "exit",
	OpBranch:    "branch",
	OpQBranch:   "?branch",
	OpEmit:      "emit",
	OpKey:       "key",
	OpToR:       ">r",
	OpFromR:     "r>",
	OpPNum:      "pnum",
	OpQuote:     "'",
	OpComma:     ",",
	OpSwap:      "swap",
	OpDup:       "dup",
	OpDrop:      "drop",
	OpOver:      "over",
	OpTail:      "tail",
	OpBSave:     "bsave",
	OpBLoad:     "bload",
	OpFind:      "find",
	OpPrint:     "print",
	OpDepth:     "depth",
	OpClock:     "clock",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return "illegal-op"
}

// namedPrimitives is the bootstrap's primitive name table: every
// entry here gets a COMPILE-wrapped dictionary header during bootstrap step
// 4, making it a compile-time visible Forth word.
var namedPrimitives = []struct {
	Name string
	Op   Opcode
}{
	{"READ", OpRead},
	{"@", OpLoad},
	{"!", OpStore},
	{"-", OpSub},
	{"+", OpAdd},
	{"and", OpAnd},
	{"or", OpOr},
	{"xor", OpXor},
	{"invert", OpInvert},
	{"lshift", OpLshift},
	{"rshift", OpRshift},
	{"*", OpMul},
	{"/", OpDiv},
	{"u<", OpLess},
	{"u>", OpMore},
	{"exit", OpExit},
	{"emit", OpEmit},
	{"key", OpKey},
	{"r>", OpFromR},
	{">r", OpToR},
	{"branch", OpBranch},
	{"?branch", OpQBranch},
	{"pnum", OpPNum},
	{"'", OpQuote},
	{",", OpComma},
	{"=", OpEqual},
	{"swap", OpSwap},
	{"dup", OpDup},
	{"drop", OpDrop},
	{"over", OpOver},
	{"tail", OpTail},
	{"bsave", OpBSave},
	{"bload", OpBLoad},
	{"find", OpFind},
	{"print", OpPrint},
	{"depth", OpDepth},
	{"clock", OpClock},
}
