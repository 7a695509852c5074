// log/stack.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const modulePrefix = "github.com/scribehq/scribe"

// StackFrame identifies a single frame of a captured call stack.
type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) String() string {
	return f.File + ":" + strconv.Itoa(f.Line) + ":" + f.Function
}

// StackFrames is a captured call stack, outermost caller last.
type StackFrames []StackFrame

// Callstack captures the current call stack, reusing the storage in fr
// when possible to avoid an allocation on the common path of acquiring
// and releasing an uncontended LoggingMutex.
func Callstack(fr StackFrames) StackFrames {
	var callers [16]uintptr
	n := runtime.Callers(3, callers[:]) // skip up to the function doing the logging
	frames := runtime.CallersFrames(callers[:n])

	fr = fr[:0]
	if cap(fr) < n {
		fr = make(StackFrames, n)
	}
	fr = fr[:n]

	for i := 0; i < n; i++ {
		frame, more := frames.Next()
		fn := strings.TrimPrefix(frame.Function, modulePrefix)
		fn = strings.TrimPrefix(fn, "main.")

		fr[i] = StackFrame{
			File:     filepath.Base(frame.File),
			Line:     frame.Line,
			Function: fn,
		}

		if !more || frame.Function == "main.main" {
			fr = fr[:i+1]
			break
		}
	}
	return fr
}

func (fr StackFrames) Strings() []string {
	s := make([]string, len(fr))
	for i, f := range fr {
		s[i] = f.String()
	}
	return s
}

func (fr StackFrames) String() string {
	return strings.Join(fr.Strings(), "\n")
}
