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
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🏃 OperationRunner executes operations one at a time under a run id
type OperationRunner struct {
	runID string
}

// 🏗️ NewRunner creates a new runner
func NewRunner(runID string) *OperationRunner {
	return &OperationRunner{
		runID: runID,
	}
}

// RunID returns the id attached to every log line of a run
func (r *OperationRunner) RunID() string {
	return r.runID
}

// 🏃 Run executes an operation, tagging its logs with the run id
func (r *OperationRunner) Run(ctx context.Context, op Operation) error {
	logger := zerolog.Ctx(ctx).With().
		Str("run_id", r.runID).
		Str("operation", op.Name()).
		Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	logger.Debug().Msg("operation started")

	if err := op.Execute(ctx); err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("operation failed")
		return errors.Errorf("running %s: %w", op.Name(), err)
	}

	logger.Info().Dur("elapsed", time.Since(start)).Msg("operation finished")
	return nil
}
