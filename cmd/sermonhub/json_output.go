package main

import (
	"encoding/json"
	"io"
)

// writeJSON encodes v as indented JSON followed by a trailing newline.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
