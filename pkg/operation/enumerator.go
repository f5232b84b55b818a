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

// 🔖 Ref is an object identifier yielded by an enumeration
type Ref struct {
	ID   string
	Kind repository.Kind
}

// 🌲 Enumerator yields every descendant of a folder of one kind.
// Refs arrive in no particular order and fn errors stop the enumeration.
type Enumerator interface {
	Enumerate(ctx context.Context, ancestorID string, kind repository.Kind, fn func(context.Context, Ref) error) error
}

// 🔍 QueryEnumerator enumerates with a repository-side IN_TREE query, so
// memory stays bounded by the query page size whatever the tree depth.
type QueryEnumerator struct {
	session repository.Session

	// maxDepth is accepted but not enforced: IN_TREE covers all depths.
	// TODO: filter rows by depth below the ancestor once a depth-aware query is available.
	maxDepth int

	idColumn string
}

// 🏭 NewQueryEnumerator creates an enumerator over session
func NewQueryEnumerator(session repository.Session, maxDepth int) *QueryEnumerator {
	return &QueryEnumerator{
		session:  session,
		maxDepth: maxDepth,
	}
}

// MaxDepth returns the accepted, unenforced depth limit
func (e *QueryEnumerator) MaxDepth() int {
	return e.maxDepth
}

// objectIDColumn looks up the query name of cmis:objectId once
func (e *QueryEnumerator) objectIDColumn(ctx context.Context) (string, error) {
	if e.idColumn != "" {
		return e.idColumn, nil
	}

	def, err := e.session.TypeDefinition(ctx, repository.BaseTypeDocument)
	if err != nil {
		return "", errors.Errorf("fetching type definition %s: %w", repository.BaseTypeDocument, err)
	}

	prop, ok := def.PropertyDefinitions[repository.PropertyObjectID]
	if !ok || prop.QueryName == "" {
		return "", errors.Errorf("type %s has no %s definition: %w", def.ID, repository.PropertyObjectID, repository.ErrCommunication)
	}

	e.idColumn = prop.QueryName
	return e.idColumn, nil
}

// Enumerate runs one IN_TREE query and calls fn with the id of each row
func (e *QueryEnumerator) Enumerate(ctx context.Context, ancestorID string, kind repository.Kind, fn func(context.Context, Ref) error) error {
	logger := zerolog.Ctx(ctx)

	if ancestorID == "" {
		return errors.Errorf("enumerating %ss: empty ancestor id: %w", kind, repository.ErrNotFound)
	}

	col, err := e.objectIDColumn(ctx)
	if err != nil {
		return err
	}

	if e.maxDepth > 0 {
		logger.Debug().Int("max_depth", e.maxDepth).Msg("max depth is accepted but not enforced")
	}

	q := repository.Query{
		Kind:       kind,
		AncestorID: ancestorID,
		Select:     []string{col},
	}
	logger.Debug().Str("query", q.Statement()).Msg("enumerating descendants")

	return e.session.Query(ctx, q, func(ctx context.Context, row repository.QueryRow) error {
		id, ok := row.Value(col)
		if !ok || id == "" {
			return errors.Errorf("query row without %s: %w", col, repository.ErrCommunication)
		}
		return fn(ctx, Ref{ID: id, Kind: kind})
	})
}
