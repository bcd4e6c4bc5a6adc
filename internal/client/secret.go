package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/synnq/sendtx/internal/models"
)

// GenerateSecret creates a random secret and registers it with the
// generation endpoint. Only HTTP 200 counts as success.
func (c *Client) GenerateSecret(ctx context.Context, secretURL string) (string, error) {
	secret := uuid.NewString()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.SecretRequest{Secret: secret}).
		Post(secretURL)
	if err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &StatusError{URL: secretURL, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return secret, nil
}
