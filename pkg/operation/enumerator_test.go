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
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/cmisexport/pkg/config"
	"github.com/walteh/cmisexport/pkg/log"
	"github.com/walteh/cmisexport/pkg/repository"
	"github.com/walteh/cmisexport/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🔧 MockSession is a mock implementation of the repository.Session interface
type MockSession struct {
	mock.Mock
}

func (m *MockSession) GetObjectByPath(ctx context.Context, path string) (*repository.Object, error) {
	result := m.Called(ctx, path)
	obj, _ := result.Get(0).(*repository.Object)
	return obj, result.Error(1)
}

func (m *MockSession) GetObject(ctx context.Context, id string) (*repository.Object, error) {
	result := m.Called(ctx, id)
	obj, _ := result.Get(0).(*repository.Object)
	return obj, result.Error(1)
}

// Query feeds the rows given to Return through fn, then returns the error given to Return
func (m *MockSession) Query(ctx context.Context, q repository.Query, fn func(context.Context, repository.QueryRow) error) error {
	result := m.Called(ctx, q)
	rows, _ := result.Get(0).([]repository.QueryRow)
	for _, row := range rows {
		if err := fn(ctx, row); err != nil {
			return err
		}
	}
	return result.Error(1)
}

func (m *MockSession) ContentStream(ctx context.Context, id string) (io.ReadCloser, error) {
	result := m.Called(ctx, id)
	rc, _ := result.Get(0).(io.ReadCloser)
	return rc, result.Error(1)
}

func (m *MockSession) TypeDefinition(ctx context.Context, typeID string) (*repository.TypeDefinition, error) {
	result := m.Called(ctx, typeID)
	def, _ := result.Get(0).(*repository.TypeDefinition)
	return def, result.Error(1)
}

func documentType(queryName string) *repository.TypeDefinition {
	return &repository.TypeDefinition{
		ID:     repository.BaseTypeDocument,
		BaseID: repository.BaseTypeDocument,
		PropertyDefinitions: map[string]repository.PropertyDefinition{
			repository.PropertyObjectID: {ID: repository.PropertyObjectID, QueryName: queryName},
		},
	}
}

func kindIs(kind repository.Kind) interface{} {
	return mock.MatchedBy(func(q repository.Query) bool { return q.Kind == kind })
}

// closeTracker records whether a content stream was closed
type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

type brokenReader struct{}

func (brokenReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestQueryEnumerator(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	s := &MockSession{}
	s.On("TypeDefinition", mock.Anything, repository.BaseTypeDocument).Return(documentType("d.cmis:objectId"), nil).Once()
	s.On("Query", mock.Anything, repository.Query{
		Kind:       repository.KindFolder,
		AncestorID: "root",
		Select:     []string{"d.cmis:objectId"},
	}).Return([]repository.QueryRow{{"d.cmis:objectId": "f1"}, {"d.cmis:objectId": "f2"}}, nil)
	s.On("Query", mock.Anything, kindIs(repository.KindDocument)).Return([]repository.QueryRow{{"d.cmis:objectId": "d1"}}, nil)

	enum := NewQueryEnumerator(s, 3)
	assert.Equal(t, 3, enum.MaxDepth(), "max depth should be kept")

	var refs []Ref
	collect := func(ctx context.Context, ref Ref) error {
		refs = append(refs, ref)
		return nil
	}

	require.NoError(t, enum.Enumerate(ctx, "root", repository.KindFolder, collect))
	require.NoError(t, enum.Enumerate(ctx, "root", repository.KindDocument, collect))

	assert.Equal(t, []Ref{
		{ID: "f1", Kind: repository.KindFolder},
		{ID: "f2", Kind: repository.KindFolder},
		{ID: "d1", Kind: repository.KindDocument},
	}, refs)

	// type definition is fetched once per enumerator
	s.AssertExpectations(t)
}

func TestQueryEnumeratorErrors(t *testing.T) {
	ctx := context.Background()
	stop := errors.New("stop")

	tests := []struct {
		name    string
		setup   func(s *MockSession)
		fn      func(context.Context, Ref) error
		ancest  string
		wantErr error
	}{
		{
			name:    "empty_ancestor",
			setup:   func(s *MockSession) {},
			ancest:  "",
			wantErr: repository.ErrNotFound,
		},
		{
			name: "type_definition_failure",
			setup: func(s *MockSession) {
				s.On("TypeDefinition", mock.Anything, repository.BaseTypeDocument).Return(nil, errors.Errorf("down: %w", repository.ErrCommunication))
			},
			ancest:  "root",
			wantErr: repository.ErrCommunication,
		},
		{
			name: "type_without_object_id",
			setup: func(s *MockSession) {
				s.On("TypeDefinition", mock.Anything, repository.BaseTypeDocument).Return(&repository.TypeDefinition{ID: repository.BaseTypeDocument}, nil)
			},
			ancest:  "root",
			wantErr: repository.ErrCommunication,
		},
		{
			name: "row_without_id",
			setup: func(s *MockSession) {
				s.On("TypeDefinition", mock.Anything, repository.BaseTypeDocument).Return(documentType(repository.PropertyObjectID), nil)
				s.On("Query", mock.Anything, kindIs(repository.KindFolder)).Return([]repository.QueryRow{{"other": "x"}}, nil)
			},
			ancest:  "root",
			wantErr: repository.ErrCommunication,
		},
		{
			name: "callback_error_stops",
			setup: func(s *MockSession) {
				s.On("TypeDefinition", mock.Anything, repository.BaseTypeDocument).Return(documentType(repository.PropertyObjectID), nil)
				s.On("Query", mock.Anything, kindIs(repository.KindFolder)).Return([]repository.QueryRow{
					{repository.PropertyObjectID: "a"},
					{repository.PropertyObjectID: "b"},
				}, nil)
			},
			fn:      func(context.Context, Ref) error { return stop },
			ancest:  "root",
			wantErr: stop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &MockSession{}
			tt.setup(s)

			fn := tt.fn
			if fn == nil {
				fn = func(context.Context, Ref) error { return nil }
			}

			err := NewQueryEnumerator(s, -1).Enumerate(ctx, tt.ancest, repository.KindFolder, fn)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			s.AssertExpectations(t)
		})
	}
}

func TestExportContentStreamFailure(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	out := filepath.Join(t.TempDir(), "out")

	stream := &closeTracker{Reader: brokenReader{}}

	s := &MockSession{}
	s.On("GetObjectByPath", mock.Anything, "/docs").Return(&repository.Object{ID: "root", Kind: repository.KindFolder, Path: "/docs"}, nil)
	s.On("TypeDefinition", mock.Anything, repository.BaseTypeDocument).Return(documentType(repository.PropertyObjectID), nil).Once()
	s.On("Query", mock.Anything, kindIs(repository.KindFolder)).Return(nil, nil)
	s.On("Query", mock.Anything, kindIs(repository.KindDocument)).Return([]repository.QueryRow{{repository.PropertyObjectID: "d1"}}, nil)
	s.On("GetObject", mock.Anything, "d1").Return(&repository.Object{
		ID:      "d1",
		Name:    "a.txt",
		Kind:    repository.KindDocument,
		Paths:   []string{"/docs/a.txt"},
		Content: &repository.ContentInfo{Length: 5},
	}, nil)
	s.On("ContentStream", mock.Anything, "d1").Return(stream, nil)

	op, err := NewExportOperation(Options{
		Export:  config.ExportConfig{Path: "/docs", Destination: out},
		Session: s,
		Files:   status.New(out, nil),
	})
	require.NoError(t, err)

	err = op.Execute(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrCommunication, "a broken stream is a repository failure")
	assert.NotErrorIs(t, err, ErrFilesystem)
	assert.True(t, stream.closed, "content stream should be closed on failure")
	assert.FileExists(t, filepath.Join(out, "a.txt"), "placeholder stays on disk")

	s.AssertExpectations(t)
}

func TestExportContentStreamOpenFailure(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "out")

	s := &MockSession{}
	s.On("GetObjectByPath", mock.Anything, "/docs").Return(&repository.Object{ID: "root", Kind: repository.KindFolder, Path: "/docs"}, nil)
	s.On("TypeDefinition", mock.Anything, repository.BaseTypeDocument).Return(documentType(repository.PropertyObjectID), nil)
	s.On("Query", mock.Anything, kindIs(repository.KindFolder)).Return(nil, nil)
	s.On("Query", mock.Anything, kindIs(repository.KindDocument)).Return([]repository.QueryRow{{repository.PropertyObjectID: "d1"}}, nil)
	s.On("GetObject", mock.Anything, "d1").Return(&repository.Object{
		ID:      "d1",
		Name:    "a.txt",
		Kind:    repository.KindDocument,
		Paths:   []string{"/docs/a.txt"},
		Content: &repository.ContentInfo{Length: 5},
	}, nil)
	s.On("ContentStream", mock.Anything, "d1").Return(nil, errors.Errorf("unexpected status code 500: %w", repository.ErrCommunication))

	op, err := NewExportOperation(Options{
		Export:  config.ExportConfig{Path: "/docs", Destination: out},
		Session: s,
		Files:   status.New(out, nil),
	})
	require.NoError(t, err)

	err = op.Execute(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrCommunication)

	var opErr *Error
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "fetching content", opErr.Op)
	assert.Equal(t, "d1", opErr.Path)
}

func TestExportSkipsUnexpectedKind(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	out := filepath.Join(t.TempDir(), "out")
	var console bytes.Buffer

	s := &MockSession{}
	s.On("GetObjectByPath", mock.Anything, "/docs").Return(&repository.Object{ID: "root", Kind: repository.KindFolder, Path: "/docs"}, nil)
	s.On("TypeDefinition", mock.Anything, repository.BaseTypeDocument).Return(documentType(repository.PropertyObjectID), nil).Once()
	s.On("Query", mock.Anything, kindIs(repository.KindFolder)).Return(nil, nil)
	s.On("Query", mock.Anything, kindIs(repository.KindDocument)).Return([]repository.QueryRow{{repository.PropertyObjectID: "f9"}}, nil)
	s.On("GetObject", mock.Anything, "f9").Return(&repository.Object{ID: "f9", Name: "odd", Kind: repository.KindFolder, Path: "/docs/odd"}, nil)

	files := status.New(out, nil)
	op, err := NewExportOperation(Options{
		Export:  config.ExportConfig{Path: "/docs", Destination: out},
		Session: s,
		Files:   files,
		Console: log.New(&console, zerolog.Nop()),
	})
	require.NoError(t, err)

	require.NoError(t, op.Execute(ctx))
	assert.Contains(t, console.String(), "resolved starting folder /docs (root)")
	assert.Contains(t, console.String(), "skipping f9: expected a document, got a folder")
	assert.Equal(t, status.Summary{}, files.Summary(ctx), "nothing should be exported")
	assert.NoDirExists(t, filepath.Join(out, "odd"))

	s.AssertExpectations(t)
}
