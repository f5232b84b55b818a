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
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_object_operation",
			op: func(t *testing.T, logger *Logger) {
				logger.LogObjectOperation(context.Background(), ObjectOperation{
					Path:   "out/report.pdf",
					Kind:   KindDocument,
					Status: "10 bytes",
					IsNew:  true,
				})
			},
			wantLogs: []string{
				"✓ out/report.pdf                                document   10 bytes",
			},
		},
		{
			name: "start_export",
			op: func(t *testing.T, logger *Logger) {
				logger.StartExport(context.Background(), ExportOperation{
					RunID:       "run-1",
					Source:      "/site/docs",
					Destination: "/tmp/out",
				})
			},
			wantLogs: []string{
				"[exporting to /tmp/out]",
				"◆ /site/docs • run-1",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %d", 2)
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning 2",
			},
		},
		{
			name: "log_newline",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("first")
				logger.LogNewline()
				logger.Info("second")
			},
			wantLogs: []string{
				"ℹ️  first",
				"",
				"ℹ️  second",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.New(zerolog.NewTestWriter(t)))

			tt.op(t, logger)

			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, zerolog.Nop())

	ctx := NewContext(context.Background(), logger)

	got := FromContext(ctx)
	assert.Same(t, logger, got, "logger from context should be the same instance")

	assert.Panics(t, func() {
		FromContext(context.Background())
	}, "FromContext should panic when logger is missing")
}

func TestExportLifecycle(t *testing.T) {
	logger := New(io.Discard, zerolog.Nop())
	ctx := context.Background()

	logger.StartExport(ctx, ExportOperation{RunID: "r", Source: "/", Destination: "out"})
	logger.LogObjectOperation(ctx, ObjectOperation{Path: "out/a", Kind: KindFolder})
	logger.LogObjectOperation(ctx, ObjectOperation{Path: "out/b", Kind: KindDocument})
	assert.Equal(t, 2, logger.Count(), "operations should be counted during a run")

	logger.EndExport(ctx)
	assert.Zero(t, logger.Count(), "count should reset after a run")

	// Ending twice is harmless
	logger.EndExport(ctx)
}

// Logging objects must not retain them, otherwise memory grows with the tree.
func TestLogObjectOperationMemoryIsFlat(t *testing.T) {
	logger := New(io.Discard, zerolog.Nop())
	ctx := context.Background()

	const objects = 100_000

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	logger.StartExport(ctx, ExportOperation{RunID: "r", Source: "/", Destination: "out"})
	for i := 0; i < objects; i++ {
		logger.LogObjectOperation(ctx, ObjectOperation{
			Path:       fmt.Sprintf("out/folder/document-%06d.txt", i),
			SourcePath: fmt.Sprintf("/folder/document-%06d.txt", i),
			Kind:       KindDocument,
			Status:     "1 bytes",
			Bytes:      1,
		})
	}

	runtime.GC()
	runtime.ReadMemStats(&after)

	assert.Equal(t, objects, logger.Count())
	grown := int64(after.HeapAlloc) - int64(before.HeapAlloc)
	assert.Less(t, grown, int64(1<<20), "retained heap should not grow with the number of logged objects")
}

func TestObjectOperationFormatting(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		op   ObjectOperation
		want string
	}{
		{
			name: "new_folder",
			op:   ObjectOperation{Path: "out/sub", Kind: KindFolder, Status: "created", IsNew: true},
			want: "    ✓ out/sub                                       folder     created        ",
		},
		{
			name: "placeholder_document",
			op:   ObjectOperation{Path: "out/empty.txt", Kind: KindDocument, Status: "placeholder", IsPlaceholder: true},
			want: "    ○ out/empty.txt                                 document   placeholder    ",
		},
		{
			name: "existing_metadata",
			op:   ObjectOperation{Path: "out/a_metadata.xml", Kind: KindMetadata, Status: "written"},
			want: "    • out/a_metadata.xml                            metadata   written        ",
		},
		{
			name: "skipped_document",
			op:   ObjectOperation{Path: "out/x.tmp", Kind: KindDocument, Status: "ignored", IsSkipped: true},
			want: "    - out/x.tmp                                     document   ignored        ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(io.Discard, zerolog.Nop())
			assert.Equal(t, tt.want, logger.formatObjectOperation(tt.op), "formatted output should match")
		})
	}
}
