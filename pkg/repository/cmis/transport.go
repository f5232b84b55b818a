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
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/walteh/cmisexport/pkg/repository"
	"gitlab.com/tozd/go/errors"
)

// maximum bytes of an error body kept for the error message
const maxErrorBody = 4 << 10

// cmisException is the JSON error body of the browser binding
type cmisException struct {
	Exception string `json:"exception"`
	Message   string `json:"message"`
}

// get issues a GET and returns the response when the status is 2xx.
// The caller closes the body.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Errorf("waiting for rate limiter: %v: %w", err, repository.ErrCommunication)
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Errorf("parsing url %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}
	if c.opts.Token == "" && c.opts.Username != "" {
		req.SetBasicAuth(c.opts.Username, c.opts.Password)
	}

	zerolog.Ctx(ctx).Trace().Str("url", u.String()).Msg("cmis request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Errorf("making request: %v: %w", err, repository.ErrCommunication)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var exc cmisException
	_ = json.Unmarshal(body, &exc)

	msg := exc.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusNotFound || exc.Exception == "objectNotFound" {
		return errors.Errorf("%s: %w", msg, repository.ErrNotFound)
	}
	return errors.Errorf("unexpected status code %d (%s): %s: %w", resp.StatusCode, exc.Exception, msg, repository.ErrCommunication)
}

// getJSON issues a GET and decodes the JSON body into v
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	resp, err := c.get(ctx, rawURL, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return errors.Errorf("decoding response: %v: %w", err, repository.ErrCommunication)
	}
	return nil
}
