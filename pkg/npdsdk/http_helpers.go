package npdsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Referrer paths of the web client pages each request originates from.
const (
	referrerLogin  = ""
	referrerSales  = "sales"
	referrerCreate = "sales/create"
)

// url builds a complete URL by appending the endpoint to the base URL.
func (c *Client) url(endpoint string) string {
	return c.cfg.BaseURL + "/" + endpoint
}

// newRequest builds a request carrying the fixed browser-like headers. A nil
// payload produces a request without a body.
func (c *Client) newRequest(
	ctx context.Context,
	method, rawURL, referrerPath string,
	payload any,
) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", c.cfg.AcceptLanguage)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", c.cfg.Referrer+referrerPath)

	return req, nil
}

// do sends the request and returns the status and the full body.
func (c *Client) do(req *http.Request, op string) (int, []byte, error) {
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return resp.StatusCode, bodyBytes, nil
}

// postJSON performs an unauthenticated POST, used by the login protocols.
func (c *Client) postJSON(
	ctx context.Context,
	op, endpoint, referrerPath string,
	payload any,
) (int, []byte, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.url(endpoint), referrerPath, payload)
	if err != nil {
		return 0, nil, err
	}
	return c.do(req, op)
}

// decodeAuthBody decodes an auth endpoint response. The body is interpreted
// whatever the status, since the service reports failures as JSON with a
// message. A body that is not JSON is a transport failure, or an HTTP error
// when the status was not 2xx either.
func decodeAuthBody(op string, status int, body []byte, target any) error {
	if err := json.Unmarshal(body, target); err != nil {
		if !isSuccess(status) {
			return &HTTPError{StatusCode: status, Body: body}
		}
		return &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
