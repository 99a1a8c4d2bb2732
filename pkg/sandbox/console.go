package sandbox

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"
)

// newConsole returns the script's console object. Only the four leveled
// methods exist; nothing else of the logger is reachable.
func newConsole(rt *goja.Runtime, logger *log.Logger) *goja.Object {
	console := rt.NewObject()
	methods := map[string]func(msg any, keyvals ...any){
		"error": logger.Error,
		"info":  logger.Info,
		"log":   logger.Print,
		"warn":  logger.Warn,
	}
	for name, emit := range methods {
		_ = console.Set(name, func(call goja.FunctionCall) goja.Value {
			emit(format(call.Arguments))
			return goja.Undefined()
		})
	}
	return console
}

func format(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
