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
	"sort"
	"strings"

	"github.com/walteh/cmisexport/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// 🏭 Factory opens a session from repository configuration
type Factory func(ctx context.Context, cfg config.RepositoryConfig) (Session, error)

var (
	// 🗺️ factories is a map of binding names to factories
	factories = make(map[string]Factory)
)

// 📝 Register registers a session factory
func Register(name string, factory Factory) {
	factories[name] = factory
}

// 🎯 Open opens a session with the factory named by cfg.Binding
func Open(ctx context.Context, cfg config.RepositoryConfig) (Session, error) {
	factory, ok := factories[cfg.Binding]
	if !ok {
		options := make([]string, 0, len(factories))
		for k := range factories {
			options = append(options, k)
		}
		sort.Strings(options)
		return nil, errors.Errorf("binding %q not registered, options: %s", cfg.Binding, strings.Join(options, ", "))
	}

	session, err := factory(ctx, cfg)
	if err != nil {
		return nil, errors.Errorf("opening %s session: %w", cfg.Binding, err)
	}
	return session, nil
}
