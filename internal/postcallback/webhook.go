// Package postcallback implements the one PostCallbackFactory shipped with
// this repo: a thin HTTP adapter that hands the actual post attempt off to
// an external browser-automation service per platform. The browser
// automation itself is out of scope (§6.4 names only the contract); any
// other implementation of domain.PostCallbackFactory can be substituted at
// wiring time.
package postcallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rezkam/mono/internal/domain"
)

// Endpoints maps a platform to the base URL of the automation service that
// performs posts on its behalf.
type Endpoints map[domain.Platform]string

type request struct {
	AccountID string `json:"accountID"`
	Content   string `json:"content"`
}

type response struct {
	OK         bool   `json:"ok"`
	ThreadID   string `json:"threadID"`
	Error      string `json:"error"`
	ShadowFail bool   `json:"shadowFail"`
}

// NewFactory returns a PostCallbackFactory that POSTs {accountID, content}
// to endpoints[platform] and decodes the response into a PostResult. A
// platform with no configured endpoint always fails closed.
func NewFactory(client *http.Client, endpoints Endpoints, timeout time.Duration) domain.PostCallbackFactory {
	if client == nil {
		client = http.DefaultClient
	}
	return func(platform domain.Platform) domain.PostCallback {
		url, ok := endpoints[platform]
		if !ok {
			return func(accountID, content string) (domain.PostResult, error) {
				return domain.PostResult{}, fmt.Errorf("postcallback: no endpoint configured for platform %s", platform)
			}
		}
		return func(accountID, content string) (domain.PostResult, error) {
			return post(client, url, timeout, accountID, content)
		}
	}
}

func post(client *http.Client, url string, timeout time.Duration, accountID, content string) (domain.PostResult, error) {
	body, err := json.Marshal(request{AccountID: accountID, Content: content})
	if err != nil {
		return domain.PostResult{}, fmt.Errorf("postcallback: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.PostResult{}, fmt.Errorf("postcallback: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return domain.PostResult{}, fmt.Errorf("postcallback: request failed: %w", err)
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.PostResult{}, fmt.Errorf("postcallback: decode response: %w", err)
	}

	return domain.PostResult{
		OK:         out.OK,
		ThreadID:   out.ThreadID,
		Error:      out.Error,
		ShadowFail: out.ShadowFail,
	}, nil
}
