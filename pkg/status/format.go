package status

import (
	"fmt"
)

// FileFormatter defines how file operations and status should be formatted
type FileFormatter interface {
	// FormatFileOperation formats a file operation status message
	FormatFileOperation(path string, kind FileKind, status FileStatus) string

	// FormatProgress formats a progress message for a phase of unknown length
	FormatProgress(phase string, current int, done bool) string

	// FormatSummary formats the totals of a run
	FormatSummary(s Summary) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatFileOperation formats a file operation status message with emojis
func (f *DefaultFileFormatter) FormatFileOperation(path string, kind FileKind, status FileStatus) string {
	switch status {
	case StatusNew:
		return fmt.Sprintf("✨ Created %s %s", kind, path)
	case StatusModified:
		return fmt.Sprintf("📝 Overwrote %s %s", kind, path)
	case StatusPlaceholder:
		return fmt.Sprintf("📭 Placeholder %s", path)
	default:
		return fmt.Sprintf("👍 Unchanged %s %s", kind, path)
	}
}

// FormatProgress formats a progress message
func (f *DefaultFileFormatter) FormatProgress(phase string, current int, done bool) string {
	if done {
		return fmt.Sprintf("✅ %s: %d processed", phase, current)
	}
	return fmt.Sprintf("⏳ %s: %d processed", phase, current)
}

// FormatSummary formats the totals of a run
func (f *DefaultFileFormatter) FormatSummary(s Summary) string {
	return fmt.Sprintf("📦 %d folders, %d documents (%d placeholders), %d metadata files, %d bytes",
		s.Folders, s.Documents, s.Placeholders, s.MetadataFiles, s.Bytes)
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
