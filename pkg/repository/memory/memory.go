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

// Package memory is an in-memory repository.Session for tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/walteh/cmisexport/pkg/repository"
	"gitlab.com/tozd/go/errors"
)

type entry struct {
	obj     repository.Object
	content []byte
}

// 🗄️ Repository holds folders and documents keyed by id
type Repository struct {
	mu      sync.Mutex
	order   []string
	objects map[string]*entry
	nextID  int

	// Reverse makes queries return rows in reverse insertion order
	Reverse bool
	// FailQuery, when set, is returned by Query after FailAfterRows rows
	FailQuery     error
	FailAfterRows int
	// FailGet, when set, is returned by GetObject for the ids it names
	FailGet map[string]error

	// Queries records every executed statement
	Queries []string
}

var _ repository.Session = (*Repository)(nil)

// 🏭 New creates a repository with a root folder at "/"
func New() *Repository {
	r := &Repository{objects: map[string]*entry{}}
	r.add(repository.Object{
		Kind: repository.KindFolder,
		Name: "",
		Path: "/",
	}, nil)
	return r
}

func (r *Repository) add(obj repository.Object, content []byte) *repository.Object {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	obj.ID = fmt.Sprintf("obj-%d", r.nextID)
	e := &entry{obj: obj, content: content}
	r.objects[obj.ID] = e
	r.order = append(r.order, obj.ID)
	return &e.obj
}

// 📁 AddFolder adds a folder at an absolute path
func (r *Repository) AddFolder(p string, props ...repository.Property) *repository.Object {
	p = path.Clean(p)
	return r.add(repository.Object{
		Kind:       repository.KindFolder,
		Name:       path.Base(p),
		Path:       p,
		Properties: props,
	}, nil)
}

// 📄 AddDocument adds a document filed under each of folders.
// A nil content means the document has no content stream.
func (r *Repository) AddDocument(name string, content []byte, props []repository.Property, folders ...string) *repository.Object {
	obj := repository.Object{
		Kind:       repository.KindDocument,
		Name:       name,
		Properties: props,
	}
	for _, f := range folders {
		obj.Paths = append(obj.Paths, path.Join(f, name))
	}
	if content != nil {
		obj.Content = &repository.ContentInfo{Length: int64(len(content)), MimeType: "application/octet-stream"}
	}
	return r.add(obj, content)
}

func clone(o repository.Object) *repository.Object {
	o.Paths = append([]string(nil), o.Paths...)
	o.Properties = append([]repository.Property(nil), o.Properties...)
	if o.Content != nil {
		c := *o.Content
		o.Content = &c
	}
	return &o
}

// GetObjectByPath resolves folders by their path and documents by any of their paths
func (r *Repository) GetObjectByPath(ctx context.Context, p string) (*repository.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p = path.Clean(p)
	for _, id := range r.order {
		e := r.objects[id]
		if e.obj.IsFolder() && e.obj.Path == p {
			return clone(e.obj), nil
		}
		for _, dp := range e.obj.Paths {
			if dp == p {
				return clone(e.obj), nil
			}
		}
	}
	return nil, errors.Errorf("path %s: %w", p, repository.ErrNotFound)
}

// GetObject resolves an object id
func (r *Repository) GetObject(ctx context.Context, id string) (*repository.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.FailGet[id]; ok {
		return nil, err
	}
	e, ok := r.objects[id]
	if !ok {
		return nil, errors.Errorf("object %s: %w", id, repository.ErrNotFound)
	}
	return clone(e.obj), nil
}

func isDescendant(p, ancestor string) bool {
	if ancestor == "/" {
		return p != "/"
	}
	return strings.HasPrefix(p, ancestor+"/")
}

// Query evaluates IN_TREE against stored paths
func (r *Repository) Query(ctx context.Context, q repository.Query, fn func(context.Context, repository.QueryRow) error) error {
	r.mu.Lock()
	r.Queries = append(r.Queries, q.Statement())
	ancestor, ok := r.objects[q.AncestorID]
	if !ok || !ancestor.obj.IsFolder() {
		r.mu.Unlock()
		return errors.Errorf("ancestor %s: %w", q.AncestorID, repository.ErrNotFound)
	}

	var rows []repository.QueryRow
	for _, id := range r.order {
		e := r.objects[id]
		if e.obj.Kind != q.Kind {
			continue
		}
		paths := e.obj.Paths
		if e.obj.IsFolder() {
			paths = []string{e.obj.Path}
		}
		for _, p := range paths {
			if isDescendant(p, ancestor.obj.Path) {
				row := repository.QueryRow{}
				for _, col := range q.Select {
					if col == repository.PropertyObjectID {
						row[col] = e.obj.ID
						continue
					}
					for _, prop := range e.obj.Properties {
						if prop.QueryName == col {
							row[col] = prop.String()
						}
					}
				}
				rows = append(rows, row)
				break
			}
		}
	}
	failQuery, failAfter := r.FailQuery, r.FailAfterRows
	r.mu.Unlock()

	if r.Reverse {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	for i, row := range rows {
		if failQuery != nil && i >= failAfter {
			return failQuery
		}
		if err := fn(ctx, row); err != nil {
			return err
		}
	}
	if failQuery != nil && len(rows) <= failAfter {
		return failQuery
	}
	return nil
}

// ContentStream returns the stored bytes of a document
func (r *Repository) ContentStream(ctx context.Context, id string) (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.objects[id]
	if !ok {
		return nil, errors.Errorf("object %s: %w", id, repository.ErrNotFound)
	}
	if e.content == nil {
		return nil, errors.Errorf("object %s has no content stream: %w", id, repository.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(e.content)), nil
}

// TypeDefinition returns a definition carrying only cmis:objectId
func (r *Repository) TypeDefinition(ctx context.Context, typeID string) (*repository.TypeDefinition, error) {
	if repository.KindFromBaseType(typeID) == repository.KindUnknown {
		return nil, errors.Errorf("type %s: %w", typeID, repository.ErrNotFound)
	}
	return &repository.TypeDefinition{
		ID:        typeID,
		BaseID:    typeID,
		QueryName: typeID,
		PropertyDefinitions: map[string]repository.PropertyDefinition{
			repository.PropertyObjectID: {
				ID:          repository.PropertyObjectID,
				QueryName:   repository.PropertyObjectID,
				DisplayName: "Object Id",
				Type:        "id",
				Cardinality: "single",
			},
		},
	}, nil
}
