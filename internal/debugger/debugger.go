// Package debugger implements the single-step debugger controller:
// breakpoints, watchpoints, an expression evaluator, and the command
// dispatch table. It consumes a whitespace-delimited argument vector per
// command and returns text for the host shell to print; the shell's own
// line-editing, history recall keystrokes, and terminal handling are an
// external collaborator's job, not this package's.
package debugger

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/burst-vm/burst/internal/asm"
	"github.com/burst-vm/burst/internal/config"
	"github.com/burst-vm/burst/internal/disasm"
	"github.com/burst-vm/burst/internal/vm"
)

// Debugger is the command controller wrapping a VM instance. It mutates
// its own breakpoint/watchpoint sets only in response to command calls,
// never during a step.
type Debugger struct {
	VM *vm.VM

	Breakpoints *BreakpointSet
	Watchpoints *WatchpointSet
	History     *CommandHistory
	Evaluator   *ExpressionEvaluator

	Symbols map[string]uint32

	Running     bool
	LastCommand string

	// Config is optional; when nil, info mem/disasm fall back to the
	// historical hardcoded defaults (16 bytes/line, 10 instructions).
	Config *config.Config
}

// NewDebugger wraps machine in a fresh controller with empty breakpoint,
// watchpoint, and symbol state.
func NewDebugger(machine *vm.VM, historySize int) *Debugger {
	return &Debugger{
		VM:          machine,
		Breakpoints: newBreakpointSet(),
		Watchpoints: newWatchpointSet(),
		History:     NewCommandHistory(historySize),
		Evaluator:   newExpressionEvaluator(),
		Symbols:     make(map[string]uint32),
	}
}

// Configure attaches cfg so info mem/disasm and register display honor
// Display.BytesPerLine, Display.DisasmCount, and Display.NumberFormat.
func (d *Debugger) Configure(cfg *config.Config) {
	d.Config = cfg
}

func (d *Debugger) bytesPerLine() int {
	if d.Config != nil && d.Config.Display.BytesPerLine > 0 {
		return d.Config.Display.BytesPerLine
	}
	return 16
}

func (d *Debugger) disasmCount() int {
	if d.Config != nil && d.Config.Display.DisasmCount > 0 {
		return d.Config.Display.DisasmCount
	}
	return 10
}

// numberFormat formats v per Display.NumberFormat ("dec" or, by default,
// "hex").
func (d *Debugger) numberFormat(v uint32) string {
	if d.Config != nil && d.Config.Display.NumberFormat == "dec" {
		return strconv.FormatUint(uint64(v), 10)
	}
	return fmt.Sprintf("0x%08X", v)
}

// LoadSymbols installs the symbol table produced by an assemble command so
// print/set/break/disasm can resolve labels by name.
func (d *Debugger) LoadSymbols(symtab *asm.SymbolTable) {
	d.Symbols = symtab.AsMap()
}

// Execute parses one command line and dispatches it, returning the text to
// display. An empty line repeats LastCommand, matching interactive shells
// that let the user hold Enter to continue stepping.
func (d *Debugger) Execute(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		line = d.LastCommand
	}
	if line == "" {
		return "", nil
	}
	d.History.Add(line)
	d.LastCommand = line

	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "run":
		return d.cmdRun(args)
	case "step", "s":
		return d.cmdStep(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "break", "b":
		return d.cmdBreak(args)
	case "watch", "w":
		return d.cmdWatch(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "print", "p":
		return d.cmdPrint(args)
	case "set":
		return d.cmdSet(args)
	case "disasm", "d":
		return d.cmdDisasm(args)
	case "load":
		return d.cmdLoad(args)
	case "save":
		return d.cmdSave(args)
	case "reset":
		return d.cmdReset(args)
	case "assemble", "a":
		return d.cmdAssemble(args)
	case "quit", "q":
		return "", ErrQuit
	}
	return "", fmt.Errorf("unknown command: %s", cmd)
}

// ErrQuit is returned by Execute for the quit command; the host loop
// checks for it to stop reading commands.
var ErrQuit = fmt.Errorf("quit")

func (d *Debugger) cmdRun(args []string) (string, error) {
	if len(args) > 0 {
		if _, err := d.cmdLoad(args); err != nil {
			return "", err
		}
	}
	d.Running = true
	return d.run(true)
}

func (d *Debugger) cmdContinue(args []string) (string, error) {
	if !d.Running {
		return "", fmt.Errorf("program is not running")
	}
	return d.run(false)
}

// run is the shared loop behind run() and continue(). Ordering guarantee:
// breakpoint check precedes watchpoint check, which precedes the step.
// checkBreakpointFirst is false for continue(), so the
// breakpoint the program is currently sitting on does not immediately
// re-trip.
func (d *Debugger) run(checkBreakpointFirst bool) (string, error) {
	var out strings.Builder
	first := true
	for {
		if d.VM.Halted {
			fmt.Fprintf(&out, "halted (exit code %d)\n", d.VM.ExitCode)
			d.Running = false
			return out.String(), nil
		}

		pc := d.VM.CPU.PC
		if (checkBreakpointFirst || !first) && d.Breakpoints.Has(pc) {
			fmt.Fprintf(&out, "breakpoint hit at 0x%08X\n", pc)
			return out.String(), nil
		}

		if hit := d.checkWatchpoints(&out); hit {
			return out.String(), nil
		}

		if err := d.VM.Step(); err != nil {
			fmt.Fprintf(&out, "trap: %s\n", err)
			d.Running = false
			return out.String(), nil
		}
		first = false
	}
}

// checkWatchpoints re-reads every watched address and reports the first
// one whose value changed since the last check.
func (d *Debugger) checkWatchpoints(out *strings.Builder) bool {
	for _, addr := range d.Watchpoints.Addrs() {
		current, err := d.VM.Memory.ReadWord(addr)
		if err != nil {
			continue
		}
		if old, changed := d.Watchpoints.Check(addr, current); changed {
			fmt.Fprintf(out, "watchpoint hit at 0x%08X: %d -> %d\n", addr, old, current)
			return true
		}
	}
	return false
}

func (d *Debugger) cmdStep(args []string) (string, error) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("usage: step [n]")
		}
		n = v
	}

	var out strings.Builder
	for i := 0; i < n; i++ {
		if d.VM.Halted {
			fmt.Fprintf(&out, "halted (exit code %d)\n", d.VM.ExitCode)
			break
		}
		pc := d.VM.CPU.PC
		word, err := d.VM.Memory.ReadWord(pc)
		if err != nil {
			return out.String(), err
		}
		fmt.Fprintf(&out, "0x%08X: %s\n", pc, disasm.Instruction(pc, word))
		if err := d.VM.Step(); err != nil {
			fmt.Fprintf(&out, "trap: %s\n", err)
			break
		}
	}
	return out.String(), nil
}

func (d *Debugger) cmdBreak(args []string) (string, error) {
	if len(args) == 0 {
		bps := d.Breakpoints.List()
		if len(bps) == 0 {
			return "no breakpoints set\n", nil
		}
		var out strings.Builder
		for _, a := range bps {
			fmt.Fprintf(&out, "0x%08X\n", a)
		}
		return out.String(), nil
	}
	addr, err := d.resolveAddress(args[0])
	if err != nil {
		return "", err
	}
	if d.Breakpoints.Toggle(addr) {
		return fmt.Sprintf("breakpoint set at 0x%08X\n", addr), nil
	}
	return fmt.Sprintf("breakpoint cleared at 0x%08X\n", addr), nil
}

func (d *Debugger) cmdWatch(args []string) (string, error) {
	if len(args) == 0 {
		addrs := d.Watchpoints.Addrs()
		if len(addrs) == 0 {
			return "no watchpoints set\n", nil
		}
		var out strings.Builder
		for _, a := range addrs {
			v, _ := d.Watchpoints.LastValue(a)
			fmt.Fprintf(&out, "0x%08X = %d\n", a, v)
		}
		return out.String(), nil
	}
	addr, err := d.resolveAddress(args[0])
	if err != nil {
		return "", err
	}
	if d.Watchpoints.Has(addr) {
		d.Watchpoints.Toggle(addr, 0)
		return fmt.Sprintf("watchpoint cleared at 0x%08X\n", addr), nil
	}
	baseline, err := d.VM.Memory.ReadWord(addr)
	if err != nil {
		return "", err
	}
	d.Watchpoints.Toggle(addr, baseline)
	return fmt.Sprintf("watchpoint set at 0x%08X (baseline %d)\n", addr, baseline), nil
}

func (d *Debugger) cmdInfo(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: info regs|mem [addr] [len]|breaks")
	}
	switch strings.ToLower(args[0]) {
	case "regs":
		return d.showRegisters(), nil
	case "mem":
		return d.showMemory(args[1:])
	case "breaks":
		return d.cmdBreak(nil)
	}
	return "", fmt.Errorf("unknown info subcommand: %s", args[0])
}

func (d *Debugger) showRegisters() string {
	var out strings.Builder
	for i := 0; i < vm.NumRegisters; i += 4 {
		for j := i; j < i+4 && j < vm.NumRegisters; j++ {
			fmt.Fprintf(&out, "r%-2d=%s ", j, d.numberFormat(d.VM.CPU.R[j]))
		}
		out.WriteByte('\n')
	}
	fmt.Fprintf(&out, "pc =%s sp =%s flags=%04b\n", d.numberFormat(d.VM.CPU.PC), d.numberFormat(d.VM.CPU.SP), d.VM.CPU.Flags)
	return out.String()
}

// showMemory renders a hex dump with an ASCII gutter, BytesPerLine columns
// per row per Display.BytesPerLine.
func (d *Debugger) showMemory(args []string) (string, error) {
	addr := d.VM.CPU.PC
	length := 64
	if len(args) > 0 {
		v, err := d.resolveAddress(args[0])
		if err != nil {
			return "", err
		}
		addr = v
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("invalid length: %s", args[1])
		}
		length = n
	}

	perLine := d.bytesPerLine()
	var out strings.Builder
	for i := 0; i < length; i += perLine {
		fmt.Fprintf(&out, "0x%08X: ", addr+uint32(i))
		row := make([]byte, 0, perLine)
		end := i + perLine
		if end > length {
			end = length
		}
		for j := i; j < end; j++ {
			b, err := d.VM.Memory.ReadByte(addr + uint32(j))
			if err != nil {
				return out.String(), err
			}
			fmt.Fprintf(&out, "%02X ", b)
			row = append(row, b)
		}
		for j := end; j < i+perLine; j++ {
			out.WriteString("   ")
		}
		out.WriteString(" |")
		for _, b := range row {
			if b >= 0x20 && b < 0x7F {
				out.WriteByte(b)
			} else {
				out.WriteByte('.')
			}
		}
		out.WriteString("|\n")
	}
	return out.String(), nil
}

func (d *Debugger) cmdPrint(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: print <expr>")
	}
	expr := strings.Join(args, " ")
	val, err := d.Evaluator.Evaluate(expr, d.VM, d.Symbols)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("$%d = %d (0x%08X)\n", len(d.Evaluator.valueHistory), val, val), nil
}

func (d *Debugger) cmdSet(args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("usage: set <reg> <value>")
	}
	val, err := d.Evaluator.Evaluate(args[1], d.VM, d.Symbols)
	if err != nil {
		return "", err
	}
	name := strings.ToLower(args[0])
	switch name {
	case "pc":
		d.VM.CPU.PC = val
	case "sp":
		d.VM.CPU.SP = val
	default:
		if !strings.HasPrefix(name, "r") {
			return "", fmt.Errorf("not a register: %s", args[0])
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil || n < 0 || n >= vm.NumRegisters {
			return "", fmt.Errorf("not a register: %s", args[0])
		}
		d.VM.CPU.R[n] = val
	}
	return fmt.Sprintf("%s = 0x%08X\n", name, val), nil
}

func (d *Debugger) cmdDisasm(args []string) (string, error) {
	addr := d.VM.CPU.PC
	n := d.disasmCount()
	if len(args) > 0 {
		v, err := d.resolveAddress(args[0])
		if err != nil {
			return "", err
		}
		addr = v
	}
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("invalid count: %s", args[1])
		}
		n = v
	}
	lines, err := disasm.Range(d.VM.Memory, addr, n)
	if err != nil {
		return "", err
	}
	return disasm.FormatRange(lines), nil
}

func (d *Debugger) cmdLoad(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: load <file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	if err := d.VM.LoadProgram(data, 0); err != nil {
		return "", err
	}
	return fmt.Sprintf("loaded %d bytes at 0x00000000\n", len(data)), nil
}

func (d *Debugger) cmdSave(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: save <file>")
	}
	data, err := d.VM.Memory.GetBytes(0, d.VM.Memory.Size())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(args[0], data, 0644); err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %d bytes to %s\n", len(data), args[0]), nil
}

func (d *Debugger) cmdReset(args []string) (string, error) {
	d.VM.Reset()
	d.Breakpoints = newBreakpointSet()
	d.Watchpoints = newWatchpointSet()
	d.Running = false
	return "reset\n", nil
}

func (d *Debugger) cmdAssemble(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: assemble <file> [-l|--load]")
	}
	load := false
	file := args[0]
	for _, a := range args[1:] {
		if a == "-l" || a == "--load" {
			load = true
		}
	}

	source, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	result, err := asm.Assemble(string(source))
	if err != nil {
		return "", err
	}

	outFile := strings.TrimSuffix(file, filepathExt(file)) + ".bin"
	if err := os.WriteFile(outFile, result.Bytes, 0644); err != nil {
		return "", err
	}

	d.LoadSymbols(result.Symbols)

	var out strings.Builder
	fmt.Fprintf(&out, "assembled %d bytes to %s\n", len(result.Bytes), outFile)
	if d.Config != nil && d.Config.Assembler.WarnUnusedLabels {
		for _, name := range result.Symbols.UnusedLabels() {
			fmt.Fprintf(&out, "warning: label %q is never referenced\n", name)
		}
	}
	if load {
		if err := d.VM.LoadProgram(result.Bytes, 0); err != nil {
			return out.String(), err
		}
		fmt.Fprintf(&out, "loaded at 0x00000000\n")
	}
	return out.String(), nil
}

func filepathExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

// resolveAddress accepts a 0x-hex or decimal literal, a register name, or a
// symbol and returns the corresponding address. Unlike print/set, this does
// not grow the $N value history: it is a plumbing lookup, not a user query.
func (d *Debugger) resolveAddress(tok string) (uint32, error) {
	return d.Evaluator.evaluate(tok, d.VM, d.Symbols)
}
