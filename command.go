package lmbridge

// Command enumerates the wire commands a worker answers. Dispatch
// switches over this enumeration; anything else is rejected with the
// supported command list.
type Command string

const (
	CommandPing           Command = "ping"
	CommandConfigureLM    Command = "configure_lm"
	CommandCreateProgram  Command = "create_program"
	CommandExecuteProgram Command = "execute_program"
	CommandGetProgram     Command = "get_program"
	CommandListPrograms   Command = "list_programs"
	CommandDeleteProgram  Command = "delete_program"
	CommandClearSession   Command = "clear_session"
)

// commands lists every supported command in dispatch order.
var commands = []Command{
	CommandPing,
	CommandConfigureLM,
	CommandCreateProgram,
	CommandExecuteProgram,
	CommandGetProgram,
	CommandListPrograms,
	CommandDeleteProgram,
	CommandClearSession,
}

// SupportedCommands returns the wire names of every command, in the
// order they are documented.
func SupportedCommands() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = string(c)
	}
	return names
}

// ParseCommand maps a wire string onto a Command. The second return is
// false for unknown commands.
func ParseCommand(s string) (Command, bool) {
	switch Command(s) {
	case CommandPing, CommandConfigureLM, CommandCreateProgram,
		CommandExecuteProgram, CommandGetProgram, CommandListPrograms,
		CommandDeleteProgram, CommandClearSession:
		return Command(s), true
	}
	return "", false
}
