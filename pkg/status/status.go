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

package status

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// copyBufferSize bounds the memory used while streaming content to disk
const copyBufferSize = 32 << 10

// 📊 FileStatus represents what happened to a local entry
type FileStatus int

const (
	StatusUnknown     FileStatus = iota
	StatusNew                    // Entry did not exist before
	StatusModified               // Existing file was overwritten
	StatusUnchanged              // Existing directory was reused
	StatusPlaceholder            // Empty file created for a document without content
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	case StatusPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// 📁 FileKind is the role of a local entry in the export
type FileKind int

const (
	KindFolder FileKind = iota
	KindDocument
	KindMetadata
)

// String returns a string representation of FileKind
func (k FileKind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindDocument:
		return "document"
	case KindMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// 📄 FileInfo contains metadata about a local entry
type FileInfo struct {
	Path   string     // Local path as written
	Kind   FileKind   // Folder, document or metadata
	Status FileStatus // What happened to it
	Size   int64      // Bytes written
	IsDir  bool       // Whether this is a directory
	Error  error      // Any error associated with this entry
}

// 🧮 Summary counts what an export run wrote
type Summary struct {
	Folders       int
	Documents     int
	Placeholders  int
	MetadataFiles int
	Bytes         int64
}

// 💾 FileManager handles all file system operations
type FileManager interface {
	// Directory operations
	CreateDir(ctx context.Context, path string) (bool, error)

	// Core operations
	FileExists(ctx context.Context, path string) (bool, error)
	CreateEmpty(ctx context.Context, path string) error
	WriteStream(ctx context.Context, path string, r io.Reader) (int64, error)
	WriteFile(ctx context.Context, path string, content []byte) error
}

// 📈 StatusReporter counts exported entries and reports progress.
// Entries are counted, not kept, so memory stays flat however large the tree.
type StatusReporter interface {
	// Status tracking
	TrackFile(ctx context.Context, path string, info FileInfo)
	Summary(ctx context.Context) Summary

	// Progress reporting
	StartOperation(ctx context.Context, phase string)
	UpdateProgress(ctx context.Context, processed int)
	FinishOperation(ctx context.Context)
}

var (
	_ FileManager    = (*Manager)(nil)
	_ StatusReporter = (*Manager)(nil)
)

// 🔧 Manager implements both FileManager and StatusReporter
type Manager struct {
	baseDir   string          // Export root, used to shorten reported paths
	logger    *zerolog.Logger // Logger for status updates
	formatter FileFormatter   // Formatter for status messages

	// Status tracking
	mu      sync.RWMutex
	summary Summary

	// Progress tracking
	phase     string
	processed int

	// Streaming
	bufMu sync.Mutex
	buf   []byte
}

// 🏭 New creates a new status manager rooted at baseDir
func New(baseDir string, logger *zerolog.Logger) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Manager{
		baseDir:   filepath.Clean(baseDir),
		logger:    logger,
		formatter: NewDefaultFileFormatter(),
		buf:       make([]byte, copyBufferSize),
	}
}

// 🔍 relPath shortens path for reporting when it lies under the base directory
func (m *Manager) relPath(path string) string {
	rel, err := filepath.Rel(m.baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// FileManager interface implementation

// CreateDir creates path and any missing parents. It reports whether the
// directory was newly created. An existing directory is not an error.
func (m *Manager) CreateDir(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	existed := false
	if fi, err := os.Stat(path); err == nil {
		if !fi.IsDir() {
			return false, errors.Errorf("creating directory %s: not a directory", path)
		}
		existed = true
	} else if !os.IsNotExist(err) {
		return false, errors.Errorf("checking directory %s: %w", path, err)
	}

	if !existed {
		if err := os.MkdirAll(path, 0755); err != nil {
			return false, errors.Errorf("creating directory %s: %w", path, err)
		}
	}

	return !existed, nil
}

func (m *Manager) FileExists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

// CreateEmpty creates an empty file at path without truncating an existing one
func (m *Manager) CreateEmpty(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Errorf("creating placeholder %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.Errorf("closing placeholder %s: %w", path, err)
	}

	return nil
}

// WriteStream copies r into path, truncating any existing file. Content is
// moved through a fixed-size buffer so memory use does not grow with the
// stream length.
func (m *Manager) WriteStream(ctx context.Context, path string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Errorf("creating file %s: %w", path, err)
	}

	m.bufMu.Lock()
	// wrapping both ends keeps io.CopyBuffer on our buffer instead of ReadFrom/WriteTo
	n, err := io.CopyBuffer(struct{ io.Writer }{f}, struct{ io.Reader }{r}, m.buf)
	m.bufMu.Unlock()
	if err != nil {
		f.Close()
		return n, errors.Errorf("writing file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return n, errors.Errorf("closing file %s: %w", path, err)
	}

	return n, nil
}

// WriteFile writes a small metadata file, replacing any previous one
func (m *Manager) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return m.writeFileAtomic(path, content)
}

func (m *Manager) writeFileAtomic(path string, content []byte) error {
	tempPath := path + ".tmp"

	// Write to temp file
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// StatusReporter interface implementation

// TrackFile counts one exported entry and logs it
func (m *Manager) TrackFile(ctx context.Context, path string, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch info.Kind {
	case KindFolder:
		m.summary.Folders++
	case KindDocument:
		m.summary.Documents++
		if info.Status == StatusPlaceholder {
			m.summary.Placeholders++
		}
		m.summary.Bytes += info.Size
	case KindMetadata:
		m.summary.MetadataFiles++
	}

	msg := m.formatter.FormatFileOperation(m.relPath(path), info.Kind, info.Status)
	if info.Error != nil {
		msg = m.formatter.FormatError(info.Error)
	}
	m.logger.Debug().
		Str("path", path).
		Str("kind", info.Kind.String()).
		Str("status", info.Status.String()).
		Int64("size", info.Size).
		Msg(msg)
}

// Summary returns the counts of everything tracked so far
func (m *Manager) Summary(ctx context.Context) Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summary
}

func (m *Manager) StartOperation(ctx context.Context, phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.phase = phase
	m.processed = 0
	msg := m.formatter.FormatProgress(phase, 0, false)
	m.logger.Info().Str("phase", phase).Msg(msg)
}

func (m *Manager) UpdateProgress(ctx context.Context, processed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed = processed
	msg := m.formatter.FormatProgress(m.phase, processed, false)
	m.logger.Debug().
		Str("phase", m.phase).
		Int("processed", processed).
		Msg(msg)
}

func (m *Manager) FinishOperation(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := m.formatter.FormatProgress(m.phase, m.processed, true)
	m.logger.Info().
		Str("phase", m.phase).
		Int("processed", m.processed).
		Msg(msg)
}
