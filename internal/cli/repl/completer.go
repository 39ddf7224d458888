package repl

import (
	"sort"
	"strings"
)

// Completer suggests commands for a typed prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the given command paths, e.g.
// "property list". Built-ins are always included.
func NewCompleter(commands ...string) *Completer {
	seen := make(map[string]bool)
	all := make([]string, 0, len(commands)+len(builtins))
	for _, cmd := range append(commands, builtins...) {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" || seen[cmd] {
			continue
		}
		seen[cmd] = true
		all = append(all, cmd)
	}
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns the commands starting with prefix. An empty prefix
// matches nothing.
func (c *Completer) Complete(prefix string) []string {
	if prefix == "" {
		return nil
	}
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Known reports whether name is a top-level command or built-in.
func (c *Completer) Known(name string) bool {
	for _, cmd := range c.commands {
		if cmd == name || strings.HasPrefix(cmd, name+" ") {
			return true
		}
	}
	return false
}

// Commands returns every known command path in sorted order.
func (c *Completer) Commands() []string {
	return append([]string(nil), c.commands...)
}
