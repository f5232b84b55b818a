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

package operation

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// metadataSuffix is appended to a document file name for its sidecar
const metadataSuffix = "_metadata.xml"

// ErrUnsafePath marks repository paths or names that would land outside the destination
var ErrUnsafePath = errors.Base("path escapes destination")

// 🗺️ Layout maps repository paths onto the destination root
type Layout struct {
	root      string // destination with exactly one trailing separator
	start     string // starting repository folder
	fullPaths bool
	ignore    []string
}

// 🏭 NewLayout creates a layout for an export of start into destination
func NewLayout(destination, start string, fullPaths bool, ignore []string) *Layout {
	return &Layout{
		root:      normalizeRoot(destination),
		start:     start,
		fullPaths: fullPaths,
		ignore:    ignore,
	}
}

// normalizeRoot makes destination end in exactly one separator
func normalizeRoot(destination string) string {
	sep := string(filepath.Separator)
	return strings.TrimRight(destination, "/"+sep) + sep
}

// Root returns the normalized destination root
func (l *Layout) Root() string {
	return l.root
}

// relative strips the starting folder from a repository path. Paths outside
// the starting folder keep their full repository path.
func (l *Layout) relative(repoPath string) string {
	if l.fullPaths || l.start == "/" {
		return repoPath
	}
	if repoPath == l.start {
		return ""
	}
	if strings.HasPrefix(repoPath, l.start+"/") {
		return strings.TrimPrefix(repoPath, l.start)
	}
	return repoPath
}

// LocalPath returns root + separator + the mapped repository path. A path
// that resolves outside the root is rejected with ErrUnsafePath.
func (l *Layout) LocalPath(repoPath string) (string, error) {
	rel := strings.TrimLeft(filepath.FromSlash(l.relative(repoPath)), string(filepath.Separator))
	local := l.root + rel
	if err := l.contains(local); err != nil {
		return "", errors.Errorf("repository path %s: %w", repoPath, err)
	}
	return local, nil
}

// contains checks that local stays at or below the root
func (l *Layout) contains(local string) error {
	rel, err := filepath.Rel(filepath.Clean(l.root), filepath.Clean(local))
	if err != nil {
		return errors.Errorf("%s: %v: %w", local, err, ErrUnsafePath)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.Errorf("%s: %w", local, ErrUnsafePath)
	}
	return nil
}

// validName rejects names that are not a single path element
func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return errors.Errorf("document name %q: %w", name, ErrUnsafePath)
	case strings.ContainsAny(name, "/"+string(filepath.Separator)):
		return errors.Errorf("document name %q contains a separator: %w", name, ErrUnsafePath)
	}
	return nil
}

// 📄 DocumentTarget is where one filing of a document lands
type DocumentTarget struct {
	SourcePath   string // repository folder path without the file name
	Dir          string // local parent directory
	File         string // local export file
	MetadataFile string // local metadata sidecar
}

// DocumentTarget derives the local files for a document filed at repoPath.
// Names that are not a single path element, and targets outside the root,
// fail with ErrUnsafePath.
func (l *Layout) DocumentTarget(repoPath, name string) (DocumentTarget, error) {
	source := repoPath
	if i := strings.LastIndex(repoPath, "/"); i >= 0 {
		source = repoPath[:i]
	}
	if name == "" {
		name = repoPath[strings.LastIndex(repoPath, "/")+1:]
	}
	if err := validName(name); err != nil {
		return DocumentTarget{}, err
	}

	dir, err := l.LocalPath(source)
	if err != nil {
		return DocumentTarget{}, err
	}
	file := filepath.Join(dir, name)
	if err := l.contains(file); err != nil {
		return DocumentTarget{}, err
	}
	return DocumentTarget{
		SourcePath:   source,
		Dir:          filepath.Clean(dir),
		File:         file,
		MetadataFile: file + metadataSuffix,
	}, nil
}

// 🚫 Ignored reports whether repoPath matches an ignore pattern. Patterns are
// matched against the path without its leading slash.
func (l *Layout) Ignored(ctx context.Context, repoPath string) bool {
	if len(l.ignore) == 0 {
		return false
	}

	name := strings.TrimPrefix(repoPath, "/")
	for _, pattern := range l.ignore {
		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Str("pattern", pattern).Str("path", repoPath).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			zerolog.Ctx(ctx).Debug().Str("path", repoPath).Str("pattern", pattern).Msg("path ignored by pattern")
			return true
		}
	}
	return false
}
