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

package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 🧪 TestParserRegistration tests the parser registration system
func TestParserRegistration(t *testing.T) {
	originalParsers := parsers
	defer func() {
		parsers = originalParsers
	}()

	parsers = nil

	p := &YAMLParser{}
	Register(p)
	assert.Len(t, parsers, 1, "should have 1 parser registered")
	assert.Same(t, p, GetParser("x.yml"), "registered parser should be returned")
	assert.Nil(t, GetParser("x.hcl"), "unregistered format should have no parser")
}

// 🧪 TestParserSelection tests parser selection by file extension
func TestParserSelection(t *testing.T) {
	tests := []struct {
		filename string
		want     Parser
	}{
		{filename: "export.yaml", want: &YAMLParser{}},
		{filename: "export.yml", want: &YAMLParser{}},
		{filename: "export.json", want: &JSONParser{}},
		{filename: "EXPORT.JSON", want: &JSONParser{}},
		{filename: "export.hcl", want: &HCLParser{}},
		{filename: "export.txt", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := GetParser(tt.filename)
			if tt.want == nil {
				assert.Nil(t, got, "no parser expected")
				return
			}
			require.NotNil(t, got, "parser expected")
			assert.IsType(t, tt.want, got, "parser type should match")
		})
	}
}

// 🧪 TestParsersAgree checks that every format decodes to the same config
func TestParsersAgree(t *testing.T) {
	ctx := context.Background()

	inputs := map[Parser]string{
		&YAMLParser{}: `
repository:
  url: http://cms/cmis
  username: admin
  page_size: 10
export:
  path: /site
  destination: out
  max_depth: 2
  well_formed_xml: true
`,
		&JSONParser{}: `{
  "repository": {"url": "http://cms/cmis", "username": "admin", "page_size": 10},
  "export": {"path": "/site", "destination": "out", "max_depth": 2, "well_formed_xml": true}
}`,
		&HCLParser{}: `
repository {
  url       = "http://cms/cmis"
  username  = "admin"
  page_size = 10
}
export {
  path            = "/site"
  destination     = "out"
  max_depth       = 2
  well_formed_xml = true
}
`,
	}

	want := Config{
		Repository: RepositoryConfig{URL: "http://cms/cmis", Username: "admin", PageSize: 10},
		Export:     ExportConfig{Path: "/site", Destination: "out", MaxDepth: 2, WellFormedXML: true},
	}

	for p, data := range inputs {
		cfg, err := p.Parse(ctx, []byte(data))
		require.NoError(t, err, "%T should parse", p)
		assert.Equal(t, want.Repository, cfg.Repository, "%T repository should match", p)
		assert.Equal(t, want.Export.Path, cfg.Export.Path, "%T path should match", p)
		assert.Equal(t, want.Export.MaxDepth, cfg.Export.MaxDepth, "%T max depth should match", p)
		assert.True(t, cfg.Export.WellFormedXML, "%T well formed xml should match", p)
	}
}
