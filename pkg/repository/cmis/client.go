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
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/cmisexport/pkg/config"
	"github.com/walteh/cmisexport/pkg/repository"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

func init() {
	repository.Register(config.DefaultBinding, func(ctx context.Context, cfg config.RepositoryConfig) (repository.Session, error) {
		return Open(ctx, OptionsFromConfig(cfg))
	})
}

// 🔧 Options configures a browser binding client
type Options struct {
	URL          string
	RepositoryID string
	Username     string
	Password     string
	Token        string
	PageSize     int
	RateLimit    float64

	// HTTPClient defaults to http.DefaultClient
	HTTPClient *http.Client
}

// OptionsFromConfig maps repository configuration to client options
func OptionsFromConfig(cfg config.RepositoryConfig) Options {
	return Options{
		URL:          cfg.URL,
		RepositoryID: cfg.RepositoryID,
		Username:     cfg.Username,
		Password:     cfg.Password,
		Token:        cfg.Token,
		PageSize:     cfg.PageSize,
		RateLimit:    cfg.RateLimit,
	}
}

// 🎯 Client talks to one repository through the CMIS browser binding
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter

	repositoryID  string
	repositoryURL string
	rootFolderURL string
}

var _ repository.Session = (*Client)(nil)

// 🏭 Open fetches the service document and binds to a repository
func Open(ctx context.Context, opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.Errorf("service url is required")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = config.DefaultPageSize
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.Token != "" {
		ctx := context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}

	c := &Client{
		http: httpClient,
		opts: opts,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	var infos map[string]repositoryInfo
	if err := c.getJSON(ctx, opts.URL, nil, &infos); err != nil {
		return nil, errors.Errorf("fetching service document: %w", err)
	}

	info, err := selectRepository(infos, opts.RepositoryID)
	if err != nil {
		return nil, err
	}
	c.repositoryID = info.RepositoryID
	c.repositoryURL = info.RepositoryURL
	c.rootFolderURL = info.RootFolderURL

	zerolog.Ctx(ctx).Debug().
		Str("repository_id", c.repositoryID).
		Str("repository_name", info.RepositoryName).
		Str("root_folder_url", c.rootFolderURL).
		Msg("bound to repository")

	return c, nil
}

func selectRepository(infos map[string]repositoryInfo, id string) (repositoryInfo, error) {
	if len(infos) == 0 {
		return repositoryInfo{}, errors.Errorf("service document lists no repositories: %w", repository.ErrCommunication)
	}
	if id != "" {
		for key, info := range infos {
			if key == id || info.RepositoryID == id {
				return info, nil
			}
		}
		return repositoryInfo{}, errors.Errorf("repository %q: %w", id, repository.ErrNotFound)
	}

	// Map order is random, the first repository by id keeps runs repeatable
	keys := make([]string, 0, len(infos))
	for k := range infos {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return infos[keys[0]], nil
}

// RepositoryID returns the id of the bound repository
func (c *Client) RepositoryID() string {
	return c.repositoryID
}

// 🔍 GetObjectByPath resolves a repository path
func (c *Client) GetObjectByPath(ctx context.Context, p string) (*repository.Object, error) {
	u := strings.TrimSuffix(c.rootFolderURL, "/") + escapePath(p)

	var raw rawObject
	if err := c.getJSON(ctx, u, url.Values{
		"cmisselector": {"object"},
		"succinct":     {"false"},
	}, &raw); err != nil {
		return nil, errors.Errorf("getting object by path %s: %w", p, err)
	}
	return c.resolve(ctx, &raw)
}

// 🔍 GetObject resolves an object id
func (c *Client) GetObject(ctx context.Context, id string) (*repository.Object, error) {
	var raw rawObject
	if err := c.getJSON(ctx, c.rootFolderURL, url.Values{
		"objectId":     {id},
		"cmisselector": {"object"},
		"succinct":     {"false"},
	}, &raw); err != nil {
		return nil, errors.Errorf("getting object %s: %w", id, err)
	}
	return c.resolve(ctx, &raw)
}

func (c *Client) resolve(ctx context.Context, raw *rawObject) (*repository.Object, error) {
	obj, err := raw.toObject()
	if err != nil {
		return nil, err
	}
	if obj.IsDocument() {
		paths, err := c.documentPaths(ctx, obj.ID)
		if err != nil {
			return nil, err
		}
		obj.Paths = paths
	}
	return obj, nil
}

// documentPaths lists every path a document is filed under
func (c *Client) documentPaths(ctx context.Context, id string) ([]string, error) {
	var parents []rawParent
	if err := c.getJSON(ctx, c.rootFolderURL, url.Values{
		"objectId":                   {id},
		"cmisselector":               {"parents"},
		"includeRelativePathSegment": {"true"},
		"succinct":                   {"false"},
		"filter":                     {repository.PropertyPath},
	}, &parents); err != nil {
		return nil, errors.Errorf("getting parents of %s: %w", id, err)
	}

	paths := make([]string, 0, len(parents))
	for _, parent := range parents {
		props, err := parent.Object.properties()
		if err != nil {
			return nil, err
		}
		folderPath := ""
		for _, prop := range props {
			if prop.ID == repository.PropertyPath {
				folderPath = prop.String()
			}
		}
		paths = append(paths, strings.TrimSuffix(folderPath, "/")+"/"+parent.RelativePathSegment)
	}
	return paths, nil
}

// 📥 ContentStream opens the content stream of a document
func (c *Client) ContentStream(ctx context.Context, id string) (io.ReadCloser, error) {
	resp, err := c.get(ctx, c.rootFolderURL, url.Values{
		"objectId":     {id},
		"cmisselector": {"content"},
	})
	if err != nil {
		return nil, errors.Errorf("getting content of %s: %w", id, err)
	}
	return resp.Body, nil
}

// 📋 TypeDefinition fetches an object type definition
func (c *Client) TypeDefinition(ctx context.Context, typeID string) (*repository.TypeDefinition, error) {
	var raw rawTypeDefinition
	if err := c.getJSON(ctx, c.repositoryURL, url.Values{
		"cmisselector": {"typeDefinition"},
		"typeId":       {typeID},
	}, &raw); err != nil {
		return nil, errors.Errorf("getting type definition %s: %w", typeID, err)
	}

	def := &repository.TypeDefinition{
		ID:                  raw.ID,
		BaseID:              raw.BaseID,
		QueryName:           raw.QueryName,
		PropertyDefinitions: make(map[string]repository.PropertyDefinition, len(raw.PropertyDefinitions)),
	}
	for key, pd := range raw.PropertyDefinitions {
		def.PropertyDefinitions[key] = repository.PropertyDefinition{
			ID:          pd.ID,
			QueryName:   pd.QueryName,
			DisplayName: pd.DisplayName,
			Type:        pd.PropertyType,
			Cardinality: pd.Cardinality,
		}
	}
	return def, nil
}

// 🔄 Query pages through a query, calling fn for each row.
// Only one page is held in memory at a time.
func (c *Client) Query(ctx context.Context, q repository.Query, fn func(context.Context, repository.QueryRow) error) error {
	logger := zerolog.Ctx(ctx)
	statement := q.Statement()

	skip := 0
	for {
		var page rawQueryResults
		if err := c.getJSON(ctx, c.repositoryURL, url.Values{
			"cmisselector":      {"query"},
			"q":                 {statement},
			"searchAllVersions": {"false"},
			"succinct":          {"false"},
			"maxItems":          {fmt.Sprint(c.opts.PageSize)},
			"skipCount":         {fmt.Sprint(skip)},
		}, &page); err != nil {
			return errors.Errorf("running query %q at offset %d: %w", statement, skip, err)
		}

		logger.Debug().
			Str("statement", statement).
			Int("skip", skip).
			Int("rows", len(page.Results)).
			Bool("has_more", page.HasMoreItems).
			Msg("got query page")

		for _, result := range page.Results {
			props, err := result.properties()
			if err != nil {
				return err
			}
			row := make(repository.QueryRow, len(props))
			for _, prop := range props {
				row[prop.QueryName] = prop.String()
			}
			if err := fn(ctx, row); err != nil {
				return err
			}
		}

		skip += len(page.Results)
		if !page.HasMoreItems || len(page.Results) == 0 {
			return nil
		}
	}
}

func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	var b strings.Builder
	for _, s := range segments {
		if s == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}
