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
	"fmt"

	"github.com/walteh/cmisexport/pkg/repository"
	"gitlab.com/tozd/go/errors"
)

// ErrFilesystem marks failures to write the local tree
var ErrFilesystem = errors.Base("filesystem failure")

// ❌ Error is a fatal export failure. Kind is one of repository.ErrNotFound,
// repository.ErrNotFolder, repository.ErrCommunication or ErrFilesystem.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// kindOf classifies a repository error
func kindOf(err error) error {
	switch {
	case errors.Is(err, ErrFilesystem):
		return ErrFilesystem
	case errors.Is(err, repository.ErrNotFound):
		return repository.ErrNotFound
	case errors.Is(err, repository.ErrNotFolder):
		return repository.ErrNotFolder
	default:
		return repository.ErrCommunication
	}
}

// repoError wraps a repository failure, leaving errors that are already classified alone
func repoError(op, path string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kindOf(err), Op: op, Path: path, Err: err}
}

// fsError wraps a failure of the local tree
func fsError(op, path string, err error) error {
	return &Error{Kind: ErrFilesystem, Op: op, Path: path, Err: err}
}
