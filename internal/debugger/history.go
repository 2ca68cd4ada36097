package debugger

// CommandHistory keeps the last maxSize commands entered at the prompt,
// oldest first. Repeating the previous command on an empty line uses
// Debugger.LastCommand, not this history.
type CommandHistory struct {
	commands []string
	maxSize  int
}

// NewCommandHistory returns a history capped at maxSize entries.
func NewCommandHistory(maxSize int) *CommandHistory {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &CommandHistory{maxSize: maxSize}
}

// Add appends cmd unless it is empty or a repeat of the last entry.
func (h *CommandHistory) Add(cmd string) {
	if cmd == "" {
		return
	}
	if len(h.commands) > 0 && h.commands[len(h.commands)-1] == cmd {
		return
	}
	h.commands = append(h.commands, cmd)
	if len(h.commands) > h.maxSize {
		h.commands = h.commands[len(h.commands)-h.maxSize:]
	}
}

// All returns the full command history, oldest first.
func (h *CommandHistory) All() []string {
	out := make([]string, len(h.commands))
	copy(out, h.commands)
	return out
}
