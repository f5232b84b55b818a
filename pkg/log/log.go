// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent object entries
	nameWidth   = 45 // Base width for local path
	kindWidth   = 10 // Width for object kind
	statusWidth = 15 // Width for status text
)

// Object kinds as printed in the kind column
const (
	KindFolder   = "folder"
	KindDocument = "document"
	KindMetadata = "metadata"
)

// 🎯 ObjectOperation is one materialized filesystem entry
type ObjectOperation struct {
	Path          string // Local path written
	SourcePath    string // Repository path it came from
	Kind          string // folder/document/metadata
	Status        string // Short status text
	Bytes         int64  // Bytes written, -1 when unknown
	IsNew         bool   // Whether the entry did not exist before
	IsPlaceholder bool   // Whether an empty placeholder was created
	IsSkipped     bool   // Whether an ignore pattern skipped the entry
}

// 📦 ExportOperation describes one export run
type ExportOperation struct {
	RunID       string
	Source      string // Starting repository path
	Destination string // Local root
}

// 🎯 Logger prints one console line per materialized object and mirrors it to zerolog
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	currentOp *ExportOperation
	count     int // objects logged in the current run
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatObjectOperation formats an object operation for display
func (l *Logger) formatObjectOperation(op ObjectOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsSkipped:
		symbol = '-'
		symbolColor = color.FgYellow
	case op.IsPlaceholder:
		symbol = '○'
		symbolColor = color.FgBlue
	case op.IsNew:
		symbol = '✓'
		symbolColor = color.FgGreen
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	var kindColor color.Attribute
	switch op.Kind {
	case KindFolder:
		kindColor = color.FgMagenta
	case KindMetadata:
		kindColor = color.FgYellow
	default:
		kindColor = color.FgBlue
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(kindColor).Sprint(fmt.Sprintf("%-*s", kindWidth, op.Kind)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
}

// 📝 LogObjectOperation logs one materialized object
func (l *Logger) LogObjectOperation(ctx context.Context, op ObjectOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++

	fmt.Fprintln(l.console, l.formatObjectOperation(op))

	l.zlog.Info().
		Str("path", op.Path).
		Str("source", op.SourcePath).
		Str("kind", op.Kind).
		Str("status", op.Status).
		Int64("bytes", op.Bytes).
		Bool("is_new", op.IsNew).
		Bool("is_placeholder", op.IsPlaceholder).
		Bool("is_skipped", op.IsSkipped).
		Msg("object operation")
}

// 📝 StartExport starts a new export run
func (l *Logger) StartExport(ctx context.Context, op ExportOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.count = 0

	fmt.Fprintf(l.console, "[exporting to %s]\n",
		color.New(color.FgCyan).Sprint(op.Destination))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Source),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.RunID))

	l.zlog.Info().
		Str("run_id", op.RunID).
		Str("source", op.Source).
		Str("destination", op.Destination).
		Msg("starting export")
}

// 📝 EndExport ends the current export run
func (l *Logger) EndExport(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	l.zlog.Info().
		Str("run_id", l.currentOp.RunID).
		Int("objects", l.count).
		Msg("export complete")

	l.currentOp = nil
	l.count = 0
}

// Count returns how many objects were logged in the current run
func (l *Logger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}
