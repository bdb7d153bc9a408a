package models

import "strings"

// CommandType enumerates the batch commands accepted over WhatsApp.
type CommandType string

const (
	CommandBatch    CommandType = "batch"
	CommandExpiring CommandType = "expiring"
	CommandRecall   CommandType = "recall"
	CommandHelp     CommandType = "help"
	CommandUnknown  CommandType = "unknown"
)

// Command represents a parsed operator instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. The command word is matched
// case-insensitively; arguments keep their case so recall reasons read as typed.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(strings.TrimSpace(message))
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch CommandType(head) {
	case CommandBatch, CommandExpiring, CommandRecall, CommandHelp:
		cmd.Type = CommandType(head)
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
