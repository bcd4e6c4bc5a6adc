package client

import (
	"context"
	"fmt"
)

// Response is what the validator answered to a submission.
type Response struct {
	StatusCode int
	Body       string
}

// Submit posts body as JSON to url. A non-2xx answer is returned together
// with a *StatusError.
func (c *Client) Submit(ctx context.Context, url string, body any) (*Response, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post(url)
	if err != nil {
		return nil, fmt.Errorf("failed to submit transaction: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode(), Body: resp.String()}
	if !resp.IsSuccess() {
		return out, &StatusError{URL: url, StatusCode: out.StatusCode, Body: out.Body}
	}
	return out, nil
}
