package tui

import "strings"

// Command is a parsed command-bar entry.
type Command struct {
	Name string
	Args []string
}

// knownCommands are the actions the command bar accepts.
var knownCommands = map[string]bool{
	"replicate": true,
	"init":      true,
	"cleanup":   true,
	"arm":       true,
	"disarm":    true,
	"status":    true,
	"quit":      true,
}

// ParseCommand parses a command-bar string. The leading slash is optional.
// Returns nil for empty or unknown input.
func ParseCommand(input string) *Command {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "/")
	if input == "" {
		return nil
	}

	parts := strings.Fields(input)
	if !knownCommands[parts[0]] {
		return nil
	}
	return &Command{
		Name: parts[0],
		Args: parts[1:],
	}
}
