// Package builtins implements the native functions spec §4.5's "only
// builtins are callable" core ships with, grounded on
// original_source/Generator/Builtins.cpp.
package builtins

import (
	"fmt"
	"io"
	"strings"

	"luagen/internal/value"
)

// Registry builds the name -> NativeFunc table internal/runtime.New
// binds into the root scope. w is where print()/__ping write; tests pass
// a strings.Builder, cmd/luagen passes os.Stdout.
func Registry(w io.Writer) map[string]value.NativeFunc {
	return map[string]value.NativeFunc{
		"print":  printFn(w),
		"__ping": pingFn(w),
	}
}

// pingFn mirrors Builtins.cpp's __ping(): writes "pong" and returns Nil,
// not a string — it is a liveness probe, not a value producer.
func pingFn(w io.Writer) value.NativeFunc {
	return func(args []value.Value) value.Value {
		fmt.Fprintln(w, "pong")
		return value.NilValue()
	}
}

// printFn mirrors Builtins.cpp's print(): the first argument bare, every
// subsequent one preceded by ", ", one trailing newline, returning Nil.
func printFn(w io.Writer) value.NativeFunc {
	return func(args []value.Value) value.Value {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		fmt.Fprintln(w, strings.Join(parts, ", "))
		return value.NilValue()
	}
}
