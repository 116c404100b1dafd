package models

import "strings"

// CommandType enumerates supported field-worker command categories.
type CommandType string

const (
	CommandAnimals CommandType = "animales"
	CommandSale    CommandType = "venta"
	CommandExpense CommandType = "gasto"
	CommandLoad    CommandType = "carga"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed worker instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	normalized := strings.TrimSpace(strings.ToLower(message))

	if normalized == "" {
		return Command{Type: CommandUnknown, Raw: message}
	}

	tokens := strings.Fields(normalized)
	cmd := Command{Raw: message}

	if len(tokens) == 0 {
		cmd.Type = CommandUnknown
		return cmd
	}

	head := strings.TrimPrefix(tokens[0], "/")
	switch head {
	case string(CommandAnimals):
		cmd.Type = CommandAnimals
	case string(CommandSale):
		cmd.Type = CommandSale
	case string(CommandExpense):
		cmd.Type = CommandExpense
	case string(CommandLoad):
		cmd.Type = CommandLoad
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
