package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/itohio/capdance/pkg/config"
)

const consoleHelp = `commands:
  list              show all values
  get <name>        show one value
  <name>=<value>    set a value
  set <name> <value>
  save              write the values to the config file
  reset             restore factory values
`

// runConsole serves config commands read line by line from r until r is exhausted.
func runConsole(r io.Reader, w io.Writer, store *config.Store, cfg *config.Config, path string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if out := execCommand(scanner.Text(), store, cfg, path); out != "" {
			fmt.Fprintln(w, out)
		}
	}
}

// execCommand runs one console line. A failed command leaves every value unchanged.
func execCommand(line string, store *config.Store, cfg *config.Config, path string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}

	if name, value, ok := strings.Cut(line, "="); ok {
		return setValue(store, strings.TrimSpace(name), strings.TrimSpace(value))
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "list":
		return strings.Join(store.List(), "\n")
	case "get":
		if len(fields) != 2 {
			return "usage: get <name>"
		}
		v, err := store.Get(fields[1])
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return fmt.Sprintf("%s = %s", fields[1], v)
	case "set":
		if len(fields) != 3 {
			return "usage: set <name> <value>"
		}
		return setValue(store, fields[1], fields[2])
	case "save":
		cfg.Tunables = *store.Snapshot()
		if err := cfg.Save(path); err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return "saved " + path
	case "reset":
		store.Reset()
		return "reset to defaults"
	case "help", "?":
		return strings.TrimRight(consoleHelp, "\n")
	default:
		return fmt.Sprintf("unknown command %q, try help", fields[0])
	}
}

func setValue(store *config.Store, name, value string) string {
	if err := store.Set(name, value); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	v, _ := store.Get(name)
	return fmt.Sprintf("%s = %s", name, v)
}
