package gui

import "strings"

var tclEscaper = strings.NewReplacer(`\`, `\\`, "{", `\{`, "}", `\}`)

func escapeTclString(s string) string {
	return tclEscaper.Replace(s)
}

// tclList renders items as a Tcl list literal, one braced word per item.
func tclList(items ...string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = "{" + escapeTclString(item) + "}"
	}
	return strings.Join(parts, " ")
}
