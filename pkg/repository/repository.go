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

package repository

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotFound is returned when a path or object id does not resolve
	ErrNotFound = errors.Base("object not found")
	// ErrNotFolder is returned when a path resolves to something other than a folder
	ErrNotFolder = errors.Base("object is not a folder")
	// ErrCommunication wraps every transport or protocol failure
	ErrCommunication = errors.Base("repository communication failure")
)

// Well-known CMIS identifiers.
const (
	PropertyObjectID     = "cmis:objectId"
	PropertyName         = "cmis:name"
	PropertyPath         = "cmis:path"
	PropertyBaseTypeID   = "cmis:baseTypeId"
	PropertyStreamLength = "cmis:contentStreamLength"
	PropertyStreamMime   = "cmis:contentStreamMimeType"
	PropertyStreamID     = "cmis:contentStreamId"

	BaseTypeFolder   = "cmis:folder"
	BaseTypeDocument = "cmis:document"
)

// 📁 Kind discriminates folders from documents
type Kind int

const (
	KindUnknown Kind = iota
	KindFolder
	KindDocument
)

// String returns the kind as used in log fields
func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindDocument:
		return "document"
	default:
		return "unknown"
	}
}

// BaseTypeID returns the CMIS base type queried for this kind
func (k Kind) BaseTypeID() string {
	switch k {
	case KindFolder:
		return BaseTypeFolder
	case KindDocument:
		return BaseTypeDocument
	default:
		return ""
	}
}

// KindFromBaseType maps a cmis:baseTypeId value to a Kind
func KindFromBaseType(baseTypeID string) Kind {
	switch baseTypeID {
	case BaseTypeFolder:
		return KindFolder
	case BaseTypeDocument:
		return KindDocument
	default:
		return KindUnknown
	}
}

// 🏷️ Property is a single object property with its value already serialized.
// A property with no values is null.
type Property struct {
	ID        string
	QueryName string
	Multi     bool
	Values    []string
}

// IsNull reports whether the property carries no value
func (p Property) IsNull() bool {
	return len(p.Values) == 0
}

// String joins the values into the single string written to metadata files
func (p Property) String() string {
	if !p.Multi && len(p.Values) == 1 {
		return p.Values[0]
	}
	return strings.Join(p.Values, ", ")
}

// 📄 ContentInfo describes a document content stream
type ContentInfo struct {
	Length   int64
	MimeType string
}

// 📦 Object is a resolved folder or document handle
type Object struct {
	ID   string
	Name string
	Kind Kind

	// Path is the canonical path of a folder
	Path string
	// Paths lists every folder path a document is filed under, including its name
	Paths []string

	// Content is nil when the document has no content stream
	Content *ContentInfo

	Properties []Property
}

// IsFolder reports whether the object is a folder
func (o *Object) IsFolder() bool {
	return o.Kind == KindFolder
}

// IsDocument reports whether the object is a document
func (o *Object) IsDocument() bool {
	return o.Kind == KindDocument
}

// PropertyDefinition describes one property of an object type
type PropertyDefinition struct {
	ID          string
	QueryName   string
	DisplayName string
	Type        string
	Cardinality string
}

// TypeDefinition describes an object type
type TypeDefinition struct {
	ID                  string
	BaseID              string
	QueryName           string
	PropertyDefinitions map[string]PropertyDefinition
}

// 🔍 Query is a hierarchical query for descendants of a folder
type Query struct {
	Kind       Kind
	AncestorID string
	Select     []string
}

// Statement renders the query in CMIS-QL
func (q Query) Statement() string {
	sel := "*"
	if len(q.Select) > 0 {
		sel = strings.Join(q.Select, ", ")
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE IN_TREE('%s')", sel, q.Kind.BaseTypeID(), escapeQueryString(q.AncestorID))
}

func escapeQueryString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// QueryRow is one query result keyed by property query name
type QueryRow map[string]string

// Value returns the value of a selected column
func (r QueryRow) Value(queryName string) (string, bool) {
	v, ok := r[queryName]
	return v, ok
}

// Columns returns the column names in a stable order
func (r QueryRow) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// 🔌 Session is the capability surface the exporter needs from a repository
type Session interface {
	// GetObjectByPath resolves a repository path to an object
	GetObjectByPath(ctx context.Context, path string) (*Object, error)
	// GetObject resolves an object id to an object
	GetObject(ctx context.Context, id string) (*Object, error)
	// Query runs a hierarchical query and calls fn for each row until fn errors or rows run out
	Query(ctx context.Context, q Query, fn func(context.Context, QueryRow) error) error
	// ContentStream opens the content stream of a document
	ContentStream(ctx context.Context, id string) (io.ReadCloser, error)
	// TypeDefinition fetches the definition of an object type
	TypeDefinition(ctx context.Context, typeID string) (*TypeDefinition, error)
}
