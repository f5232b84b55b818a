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

	"github.com/rs/zerolog"
	"github.com/walteh/cmisexport/pkg/repository"
	"gitlab.com/tozd/go/errors"
)

// 🚦 State is a step of an export run
type State int

const (
	StateResolveRoot State = iota
	StateExportFolders
	StateExportDocuments
	StateDone
)

// String returns a string representation of State
func (s State) String() string {
	switch s {
	case StateResolveRoot:
		return "resolve_root"
	case StateExportFolders:
		return "export_folders"
	case StateExportDocuments:
		return "export_documents"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// 📦 NewExportOperation creates an export of opts.Export.Path into opts.Export.Destination
func NewExportOperation(opts Options) (*ExportOperation, error) {
	base, err := NewBaseOperation(opts)
	if err != nil {
		return nil, err
	}
	return &ExportOperation{
		BaseOperation: base,
		layout:        NewLayout(base.Export.Destination, base.Export.Path, base.Export.FullPaths, base.Export.Ignore),
	}, nil
}

// 📦 ExportOperation walks the repository below a starting folder and
// writes folders, documents and metadata files to the destination.
type ExportOperation struct {
	BaseOperation

	layout *Layout
	state  State
	root   *repository.Object
}

var _ Operation = (*ExportOperation)(nil)

// Name implements Operation
func (op *ExportOperation) Name() string {
	return "export"
}

// State returns the step the run reached
func (op *ExportOperation) State() State {
	return op.state
}

// Root returns the resolved starting folder, nil before ResolveRoot succeeds
func (op *ExportOperation) Root() *repository.Object {
	return op.root
}

func (op *ExportOperation) enter(ctx context.Context, s State) {
	zerolog.Ctx(ctx).Debug().Str("from", op.state.String()).Str("to", s.String()).Msg("export state")
	op.state = s
}

// 🏃 Execute runs ResolveRoot, ExportFolders and ExportDocuments in order and
// stops at the first failure. Files written before a failure stay on disk.
func (op *ExportOperation) Execute(ctx context.Context) error {
	op.state = StateResolveRoot
	if err := op.resolveRoot(ctx); err != nil {
		return err
	}

	op.enter(ctx, StateExportFolders)
	if err := op.exportAll(ctx, repository.KindFolder, op.exportFolder); err != nil {
		return err
	}

	op.enter(ctx, StateExportDocuments)
	if err := op.exportAll(ctx, repository.KindDocument, op.exportDocument); err != nil {
		return err
	}

	op.enter(ctx, StateDone)
	return nil
}

// resolveRoot looks up the starting folder. Nothing is written before it succeeds.
func (op *ExportOperation) resolveRoot(ctx context.Context) error {
	start := op.Export.Path

	obj, err := op.Session.GetObjectByPath(ctx, start)
	if err != nil {
		return repoError("resolving starting folder", start, err)
	}
	if !obj.IsFolder() {
		return &Error{
			Kind: repository.ErrNotFolder,
			Op:   "resolving starting folder",
			Path: start,
			Err:  errors.Errorf("%s is a %s: %w", start, obj.Kind, repository.ErrNotFolder),
		}
	}

	zerolog.Ctx(ctx).Info().Str("path", start).Str("id", obj.ID).Msg("resolved starting folder")
	op.Console.Infof("resolved starting folder %s (%s)", start, obj.ID)
	op.root = obj
	return nil
}

// exportAll enumerates descendants of kind, resolves each one and hands it to materialize
func (op *ExportOperation) exportAll(ctx context.Context, kind repository.Kind, materialize func(context.Context, *repository.Object) error) error {
	phase := kind.String() + "s"
	op.Files.StartOperation(ctx, phase)
	defer op.Files.FinishOperation(ctx)

	processed := 0
	err := op.Enumerator.Enumerate(ctx, op.root.ID, kind, func(ctx context.Context, ref Ref) error {
		obj, err := op.Session.GetObject(ctx, ref.ID)
		if err != nil {
			return repoError("resolving "+kind.String(), ref.ID, err)
		}
		if obj.Kind != kind {
			zerolog.Ctx(ctx).Debug().Str("id", ref.ID).Str("kind", obj.Kind.String()).Msg("skipping object of unexpected kind")
			op.Console.Warningf("skipping %s: expected a %s, got a %s", ref.ID, kind, obj.Kind)
			return nil
		}
		if err := materialize(ctx, obj); err != nil {
			return err
		}
		processed++
		op.Files.UpdateProgress(ctx, processed)
		return nil
	})
	if err != nil {
		return repoError("enumerating "+phase, op.root.Path, err)
	}
	return nil
}
