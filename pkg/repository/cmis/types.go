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

package cmis

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/walteh/cmisexport/pkg/repository"
	"gitlab.com/tozd/go/errors"
)

// repositoryInfo is one entry of the service document
type repositoryInfo struct {
	RepositoryID   string `json:"repositoryId"`
	RepositoryName string `json:"repositoryName"`
	RepositoryURL  string `json:"repositoryUrl"`
	RootFolderURL  string `json:"rootFolderUrl"`
	RootFolderID   string `json:"rootFolderId"`
}

// rawObject is an object in non-succinct form. Properties stay raw so
// their document order survives decoding.
type rawObject struct {
	Properties json.RawMessage `json:"properties"`
}

type rawParent struct {
	Object              rawObject `json:"object"`
	RelativePathSegment string    `json:"relativePathSegment"`
}

type rawQueryResults struct {
	Results      []rawObject `json:"results"`
	HasMoreItems bool        `json:"hasMoreItems"`
	NumItems     json.Number `json:"numItems"`
}

type rawPropertyDefinition struct {
	ID           string `json:"id"`
	QueryName    string `json:"queryName"`
	DisplayName  string `json:"displayName"`
	PropertyType string `json:"propertyType"`
	Cardinality  string `json:"cardinality"`
}

type rawTypeDefinition struct {
	ID                  string                           `json:"id"`
	BaseID              string                           `json:"baseId"`
	QueryName           string                           `json:"queryName"`
	PropertyDefinitions map[string]rawPropertyDefinition `json:"propertyDefinitions"`
}

type rawProperty struct {
	ID          string `json:"id"`
	QueryName   string `json:"queryName"`
	Type        string `json:"type"`
	Cardinality string `json:"cardinality"`
	Value       any    `json:"value"`
}

// properties decodes the properties object in document order
func (o *rawObject) properties() ([]repository.Property, error) {
	if len(o.Properties) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(o.Properties))
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		return nil, errors.Errorf("reading properties: %v: %w", err, repository.ErrCommunication)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.Errorf("properties is not an object: %w", repository.ErrCommunication)
	}

	var props []repository.Property
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, errors.Errorf("reading property name: %v: %w", err, repository.ErrCommunication)
		}
		key, _ := tok.(string)

		var raw rawProperty
		if err := decoder.Decode(&raw); err != nil {
			return nil, errors.Errorf("decoding property %s: %v: %w", key, err, repository.ErrCommunication)
		}
		if raw.ID == "" {
			raw.ID = key
		}
		if raw.QueryName == "" {
			raw.QueryName = key
		}
		props = append(props, raw.toProperty())
	}
	return props, nil
}

func (p rawProperty) toProperty() repository.Property {
	prop := repository.Property{
		ID:        p.ID,
		QueryName: p.QueryName,
		Multi:     p.Cardinality == "multi",
	}

	switch v := p.Value.(type) {
	case nil:
	case []any:
		prop.Multi = true
		for _, item := range v {
			if item == nil {
				continue
			}
			prop.Values = append(prop.Values, formatValue(p.Type, item))
		}
	default:
		prop.Values = []string{formatValue(p.Type, v)}
	}
	return prop
}

// formatValue renders one property value as text
func formatValue(propertyType string, v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		if propertyType == "datetime" {
			if ms, err := val.Int64(); err == nil {
				return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z07:00")
			}
		}
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// toObject builds a repository object from its properties
func (o *rawObject) toObject() (*repository.Object, error) {
	props, err := o.properties()
	if err != nil {
		return nil, err
	}

	obj := &repository.Object{Properties: props}
	var (
		hasLength bool
		length    int64
		mimeType  string
		streamID  string
	)
	for _, prop := range props {
		if prop.IsNull() {
			continue
		}
		switch prop.ID {
		case repository.PropertyObjectID:
			obj.ID = prop.String()
		case repository.PropertyName:
			obj.Name = prop.String()
		case repository.PropertyPath:
			obj.Path = prop.String()
		case repository.PropertyBaseTypeID:
			obj.Kind = repository.KindFromBaseType(prop.String())
		case repository.PropertyStreamLength:
			n, err := strconv.ParseInt(prop.String(), 10, 64)
			if err == nil {
				hasLength = true
				length = n
			}
		case repository.PropertyStreamMime:
			mimeType = prop.String()
		case repository.PropertyStreamID:
			streamID = prop.String()
		}
	}

	if obj.ID == "" {
		return nil, errors.Errorf("object without %s: %w", repository.PropertyObjectID, repository.ErrCommunication)
	}
	if obj.IsDocument() && (hasLength || streamID != "") {
		obj.Content = &repository.ContentInfo{Length: length, MimeType: mimeType}
	}
	if !obj.IsFolder() {
		obj.Path = ""
	}
	return obj, nil
}
