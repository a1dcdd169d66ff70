/*
 * Copyright 2023 nebuly.com.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cyborg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/nebuly-ai/accelbind/pkg/accelerator"
	"github.com/nebuly-ai/accelbind/pkg/constant"
	"github.com/nebuly-ai/accelbind/pkg/errdefs"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

const maxErrorBodyBytes = 1024

const (
	opListDeviceProfiles = "list_device_profiles"
	opCreateARQs         = "create_arqs"
	opBindARQs           = "bind_arqs"
	opListARQs           = "list_arqs"
)

// TokenSource provides the credential sent with every request
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource always returning the same token
type StaticToken string

func (t StaticToken) Token(_ context.Context) (string, error) {
	return string(t), nil
}

type Option func(*clientImpl)

// WithHTTPClient sets the HTTP client used for sending the requests.
// Request timeouts are the ones of the provided client.
func WithHTTPClient(c *http.Client) Option {
	return func(impl *clientImpl) {
		impl.httpClient = c
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(impl *clientImpl) {
		impl.tokenSource = ts
	}
}

// WithMicroversion sets the API microversion requested through the OpenStack-API-Version header
func WithMicroversion(version string) Option {
	return func(impl *clientImpl) {
		impl.microversion = version
	}
}

type clientImpl struct {
	endpoint     *url.URL
	httpClient   *http.Client
	tokenSource  TokenSource
	microversion string
}

// NewClient returns a client of the accelerator-management service exposed at the given endpoint
func NewClient(endpoint string, opts ...Option) (accelerator.Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errdefs.InvalidArgumentErr.Errorf("invalid endpoint %q: %v", endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errdefs.InvalidArgumentErr.Errorf("invalid endpoint %q: an absolute http(s) URL is required", endpoint)
	}
	c := &clientImpl{
		endpoint:    u,
		httpClient:  &http.Client{Timeout: constant.DefaultRequestTimeout},
		tokenSource: StaticToken(""),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type deviceProfileList struct {
	DeviceProfiles []accelerator.DeviceProfile `json:"device_profiles"`
}

type arqList struct {
	ARQs []accelerator.ARQ `json:"arqs"`
}

type createARQsRequest struct {
	DeviceProfileName string `json:"device_profile_name"`
}

func (c *clientImpl) ListDeviceProfiles(ctx context.Context, name string) ([]accelerator.DeviceProfile, error) {
	var res deviceProfileList
	query := url.Values{"name": []string{name}}
	if err := c.do(ctx, opListDeviceProfiles, http.MethodGet, constant.DeviceProfilesPath, query, nil, &res); err != nil {
		return nil, err
	}
	return res.DeviceProfiles, nil
}

func (c *clientImpl) CreateARQs(ctx context.Context, deviceProfileName string) ([]accelerator.ARQ, error) {
	var res arqList
	body := createARQsRequest{DeviceProfileName: deviceProfileName}
	if err := c.do(ctx, opCreateARQs, http.MethodPost, constant.AcceleratorRequestsPath, nil, body, &res); err != nil {
		return nil, err
	}
	return res.ARQs, nil
}

func (c *clientImpl) BindARQs(ctx context.Context, patch accelerator.BindingPatch) error {
	if err := c.do(ctx, opBindARQs, http.MethodPatch, constant.AcceleratorRequestsPath, nil, patch, nil); err != nil {
		return errdefs.BindingSubmissionErr.Wrap(err)
	}
	return nil
}

func (c *clientImpl) ListARQs(ctx context.Context, instanceUUID string) ([]accelerator.ARQ, error) {
	var res arqList
	query := url.Values{"instance": []string{instanceUUID}}
	if err := c.do(ctx, opListARQs, http.MethodGet, constant.AcceleratorRequestsPath, query, nil, &res); err != nil {
		return nil, err
	}
	return res.ARQs, nil
}

// do sends a single request and decodes the JSON response into out, if not nil.
// Transport failures and unexpected statuses are returned as upstream-unavailable
// errors, except 404 which is returned as not-found.
func (c *clientImpl) do(ctx context.Context, operation, method, path string, query url.Values, body, out any) (err error) {
	logger := requestLogger(ctx, operation)
	start := time.Now()
	defer func() {
		observeRequest(operation, err, time.Since(start))
	}()

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	logger.V(1).Info("sending request", "method", method, "url", req.URL.String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errdefs.UpstreamUnavailableErr.Errorf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		logger.V(1).Info("request failed", "status", resp.Status, "responseBody", string(respBody))
		msg := fmt.Sprintf("%s %s: unexpected status %s: %s", method, path, resp.Status, strings.TrimSpace(string(respBody)))
		if resp.StatusCode == http.StatusNotFound {
			return errdefs.NotFoundErr.Errorf("%s", msg)
		}
		return errdefs.UpstreamUnavailableErr.Errorf("%s", msg)
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errdefs.UpstreamUnavailableErr.Errorf("%s %s: invalid response body: %v", method, path, err)
	}
	return nil
}

func requestLogger(ctx context.Context, operation string) logr.Logger {
	return log.FromContext(ctx).WithName("cyborg").WithValues("operation", operation)
}

func (c *clientImpl) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.endpoint.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errdefs.InvalidArgumentErr.Errorf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, errdefs.InvalidArgumentErr.Errorf("failed to create request: %v", err)
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, errdefs.UpstreamUnavailableErr.Errorf("failed to get auth token: %v", err)
	}
	if token != "" {
		req.Header.Set(constant.HeaderAuthToken, token)
	}
	if c.microversion != "" {
		req.Header.Set(constant.HeaderAPIVersion, fmt.Sprintf("%s %s", constant.AcceleratorServiceType, c.microversion))
	}
	req.Header.Set("Accept", constant.MediaTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", constant.MediaTypeJSON)
	}
	return req, nil
}
