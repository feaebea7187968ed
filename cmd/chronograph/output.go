package main

import (
	"encoding/json"
	"os"
)

// printJSON writes v to stdout as indented JSON, the shared output path
// every subcommand's --json flag uses.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
