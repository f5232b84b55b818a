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
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// envFunc exposes env("NAME") so secrets can stay out of the file
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"env": envFunc,
		},
	}

	type hclConfig struct {
		Repository struct {
			Binding      string  `hcl:"binding,optional"`
			URL          string  `hcl:"url"`
			RepositoryID string  `hcl:"repository_id,optional"`
			Username     string  `hcl:"username,optional"`
			Password     string  `hcl:"password,optional"`
			Token        string  `hcl:"token,optional"`
			PageSize     int     `hcl:"page_size,optional"`
			RateLimit    float64 `hcl:"rate_limit,optional"`
		} `hcl:"repository,block"`
		Export struct {
			Path          string   `hcl:"path"`
			Destination   string   `hcl:"destination"`
			MaxDepth      int      `hcl:"max_depth,optional"`
			FullPaths     bool     `hcl:"full_paths,optional"`
			WellFormedXML bool     `hcl:"well_formed_xml,optional"`
			Ignore        []string `hcl:"ignore,optional"`
		} `hcl:"export,block"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &Config{
		Repository: RepositoryConfig(hclCfg.Repository),
		Export:     ExportConfig(hclCfg.Export),
	}, nil
}
