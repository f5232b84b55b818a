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
	"io"

	"github.com/rs/zerolog"
	"github.com/walteh/cmisexport/pkg/config"
	"github.com/walteh/cmisexport/pkg/log"
	"github.com/walteh/cmisexport/pkg/repository"
	"github.com/walteh/cmisexport/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Operation is a unit of work run by an OperationRunner
type Operation interface {
	// Name identifies the operation in logs
	Name() string
	// Execute runs the operation to completion or first fatal error
	Execute(ctx context.Context) error
}

// 💾 Files is the local side of an export
type Files interface {
	status.FileManager
	status.StatusReporter
}

// 🔧 Options contains everything an export needs
type Options struct {
	// Export holds the starting path, destination and layout switches
	Export config.ExportConfig
	// Session is the source repository
	Session repository.Session
	// Enumerator lists descendants of a folder, defaults to a query enumerator over Session
	Enumerator Enumerator
	// Files writes the local tree
	Files Files
	// Console renders one line per materialized object, optional
	Console *log.Logger
}

// 🧱 BaseOperation carries the dependencies shared by operations
type BaseOperation struct {
	Export     config.ExportConfig
	Session    repository.Session
	Enumerator Enumerator
	Files      Files
	Console    *log.Logger
}

// 🏭 NewBaseOperation checks opts and fills defaults
func NewBaseOperation(opts Options) (BaseOperation, error) {
	if opts.Session == nil {
		return BaseOperation{}, errors.Errorf("session is required")
	}
	if opts.Files == nil {
		return BaseOperation{}, errors.Errorf("files are required")
	}
	if opts.Export.Path == "" {
		return BaseOperation{}, errors.Errorf("export path is required")
	}
	if opts.Export.Destination == "" {
		return BaseOperation{}, errors.Errorf("export destination is required")
	}

	enum := opts.Enumerator
	if enum == nil {
		enum = NewQueryEnumerator(opts.Session, opts.Export.MaxDepth)
	}

	console := opts.Console
	if console == nil {
		console = log.New(io.Discard, zerolog.Nop())
	}

	return BaseOperation{
		Export:     opts.Export,
		Session:    opts.Session,
		Enumerator: enum,
		Files:      opts.Files,
		Console:    console,
	}, nil
}
