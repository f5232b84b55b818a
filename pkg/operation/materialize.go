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
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/cmisexport/pkg/log"
	"github.com/walteh/cmisexport/pkg/repository"
	"github.com/walteh/cmisexport/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 📁 exportFolder ensures the directory of one folder exists
func (op *ExportOperation) exportFolder(ctx context.Context, folder *repository.Object) error {
	logger := zerolog.Ctx(ctx)

	if op.layout.Ignored(ctx, folder.Path) {
		op.Console.LogObjectOperation(ctx, log.ObjectOperation{
			Path:       folder.Path,
			SourcePath: folder.Path,
			Kind:       log.KindFolder,
			Status:     "ignored",
			IsSkipped:  true,
		})
		return nil
	}

	local, err := op.layout.LocalPath(folder.Path)
	if err != nil {
		op.skipUnsafe(ctx, folder.Path, err)
		return nil
	}
	dir := filepath.Clean(local)
	logger.Info().
		Str("name", folder.Name).
		Str("from", folder.Path).
		Str("to", dir).
		Msg("exporting folder")

	created, err := op.Files.CreateDir(ctx, dir)
	if err != nil {
		return fsError("creating folder", dir, err)
	}

	st, tracked := "exists", status.StatusUnchanged
	if created {
		st, tracked = "created", status.StatusNew
	}
	op.Files.TrackFile(ctx, dir, status.FileInfo{Path: dir, Kind: status.KindFolder, Status: tracked, IsDir: true})
	op.Console.LogObjectOperation(ctx, log.ObjectOperation{
		Path:       dir,
		SourcePath: folder.Path,
		Kind:       log.KindFolder,
		Status:     st,
		Bytes:      -1,
		IsNew:      created,
	})
	return nil
}

// 📄 exportDocument writes one content file and one metadata file per filing
func (op *ExportOperation) exportDocument(ctx context.Context, doc *repository.Object) error {
	if len(doc.Paths) == 0 {
		zerolog.Ctx(ctx).Debug().Str("id", doc.ID).Str("name", doc.Name).Msg("document is unfiled, nothing to export")
		return nil
	}

	for _, p := range doc.Paths {
		if err := op.exportDocumentPath(ctx, doc, p); err != nil {
			return err
		}
	}
	return nil
}

func (op *ExportOperation) exportDocumentPath(ctx context.Context, doc *repository.Object, repoPath string) error {
	logger := zerolog.Ctx(ctx)

	if op.layout.Ignored(ctx, repoPath) {
		op.Console.LogObjectOperation(ctx, log.ObjectOperation{
			Path:       repoPath,
			SourcePath: repoPath,
			Kind:       log.KindDocument,
			Status:     "ignored",
			IsSkipped:  true,
		})
		return nil
	}

	target, err := op.layout.DocumentTarget(repoPath, doc.Name)
	if err != nil {
		op.skipUnsafe(ctx, repoPath, err)
		return nil
	}

	if _, err := op.Files.CreateDir(ctx, target.Dir); err != nil {
		return fsError("creating parent folder", target.Dir, err)
	}

	exists, err := op.Files.FileExists(ctx, target.File)
	if err != nil {
		return fsError("checking document", target.File, err)
	}
	placeholder := false
	if !exists {
		logger.Info().
			Str("name", doc.Name).
			Str("from", target.SourcePath).
			Str("to", target.File).
			Msg("creating empty document")
		if err := op.Files.CreateEmpty(ctx, target.File); err != nil {
			return fsError("creating empty document", target.File, err)
		}
		placeholder = true
	}

	var written int64 = -1
	if doc.Content != nil {
		logger.Info().
			Str("name", doc.Name).
			Int64("bytes", doc.Content.Length).
			Str("from", target.SourcePath).
			Str("to", target.File).
			Msg("exporting document")

		written, err = op.copyContent(ctx, doc, target.File)
		if err != nil {
			return err
		}
		placeholder = false
	}

	docOp := log.ObjectOperation{
		Path:          target.File,
		SourcePath:    repoPath,
		Kind:          log.KindDocument,
		Bytes:         written,
		IsNew:         !exists,
		IsPlaceholder: placeholder,
	}
	switch {
	case placeholder:
		docOp.Status = "placeholder"
	case written >= 0:
		docOp.Status = fmt.Sprintf("%d bytes", written)
	default:
		docOp.Status = "no content"
	}
	op.Files.TrackFile(ctx, target.File, documentInfo(target.File, exists, placeholder, written))
	op.Console.LogObjectOperation(ctx, docOp)

	if !hasValues(doc.Properties) {
		return nil
	}

	metaExists, err := op.Files.FileExists(ctx, target.MetadataFile)
	if err != nil {
		return fsError("checking metadata", target.MetadataFile, err)
	}

	logger.Info().
		Str("name", filepath.Base(target.MetadataFile)).
		Str("from", target.SourcePath).
		Str("to", target.MetadataFile).
		Msg("exporting metadata")

	content := BuildMetadata(target.SourcePath, doc.Properties, op.Export.WellFormedXML)
	if err := op.Files.WriteFile(ctx, target.MetadataFile, content); err != nil {
		return fsError("writing metadata", target.MetadataFile, err)
	}

	metaStatus := status.StatusNew
	if metaExists {
		metaStatus = status.StatusModified
	}
	op.Files.TrackFile(ctx, target.MetadataFile, status.FileInfo{
		Path:   target.MetadataFile,
		Kind:   status.KindMetadata,
		Status: metaStatus,
		Size:   int64(len(content)),
	})
	op.Console.LogObjectOperation(ctx, log.ObjectOperation{
		Path:       target.MetadataFile,
		SourcePath: repoPath,
		Kind:       log.KindMetadata,
		Status:     "written",
		Bytes:      int64(len(content)),
		IsNew:      !metaExists,
	})
	return nil
}

// documentInfo describes what happened to one document file
func documentInfo(file string, existed, placeholder bool, written int64) status.FileInfo {
	info := status.FileInfo{Path: file, Kind: status.KindDocument}
	switch {
	case placeholder:
		info.Status = status.StatusPlaceholder
	case written < 0:
		info.Status = status.StatusUnchanged
	case existed:
		info.Status, info.Size = status.StatusModified, written
	default:
		info.Status, info.Size = status.StatusNew, written
	}
	return info
}

// hasValues reports whether at least one property is non-null
func hasValues(props []repository.Property) bool {
	for _, p := range props {
		if !p.IsNull() {
			return true
		}
	}
	return false
}

// skipUnsafe reports a repository path that cannot be written below the destination
func (op *ExportOperation) skipUnsafe(ctx context.Context, repoPath string, err error) {
	zerolog.Ctx(ctx).Warn().Err(err).Str("path", repoPath).Msg("skipping path outside destination")
	op.Console.Warningf("skipping %s: %v", repoPath, err)
}

// copyContent streams the content of doc into file. The stream is closed on every path.
func (op *ExportOperation) copyContent(ctx context.Context, doc *repository.Object, file string) (int64, error) {
	stream, err := op.Session.ContentStream(ctx, doc.ID)
	if err != nil {
		return 0, repoError("fetching content", doc.ID, err)
	}
	defer stream.Close()

	n, err := op.Files.WriteStream(ctx, file, sourceReader{stream})
	if err != nil {
		if errors.Is(err, repository.ErrCommunication) {
			return n, repoError("reading content", doc.ID, err)
		}
		return n, fsError("writing document", file, err)
	}
	return n, nil
}

// sourceReader tags read failures of a content stream as repository failures
type sourceReader struct {
	r io.Reader
}

func (s sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		err = errors.Errorf("reading content stream: %v: %w", err, repository.ErrCommunication)
	}
	return n, err
}
