// Package tkutil wraps raw Tcl evaluation for the few treeview operations the
// tk9.0 bindings do not expose directly.
package tkutil

import (
	"fmt"
	"log/slog"

	evalext "modernc.org/tk9.0/extensions/eval"
)

// Eval formats a Tcl script and evaluates it, returning the interpreter
// result. The formatted script is included in the error to keep failures
// diagnosable.
func Eval(format string, a ...any) (string, error) {
	script := fmt.Sprintf(format, a...)
	out, err := evalext.Eval(script)
	if err != nil {
		return "", fmt.Errorf("tk eval=%s; err=%w", script, err)
	}
	return out, nil
}

// EvalOrEmpty is Eval for queries where a failure is as good as an empty
// answer; the error is only logged at debug level.
func EvalOrEmpty(format string, a ...any) string {
	out, err := Eval(format, a...)
	if err != nil {
		slog.Debug("tk eval or empty", slog.Any("error", err))
		return ""
	}
	return out
}
