package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/synnq/sendtx/internal/models"
	"github.com/synnq/sendtx/internal/utils"
)

// ErrNodeNotFound is returned when no directory entry matches the validator.
var ErrNodeNotFound = errors.New("no node matches the validator address")

// ListNodes fetches the validator directory.
func (c *Client) ListNodes(ctx context.Context, nodesURL string) ([]models.Node, error) {
	resp, err := c.http.R().SetContext(ctx).Get(nodesURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{URL: nodesURL, StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var nodes []models.Node
	if err := json.Unmarshal(resp.Body(), &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode node list: %w", err)
	}
	return nodes, nil
}

// MatchNode returns the node whose address equals the host:port of baseURL.
func MatchNode(nodes []models.Node, baseURL string) (models.Node, error) {
	want, err := utils.HostPort(baseURL)
	if err != nil {
		return models.Node{}, err
	}
	for _, n := range nodes {
		if utils.NormalizeAddress(n.Address) == want {
			return n, nil
		}
	}
	return models.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, want)
}

// ResolveNodeID looks up the id of the validator at baseURL.
func (c *Client) ResolveNodeID(ctx context.Context, nodesURL, baseURL string) (string, error) {
	nodes, err := c.ListNodes(ctx, nodesURL)
	if err != nil {
		return "", err
	}
	node, err := MatchNode(nodes, baseURL)
	if err != nil {
		return "", err
	}
	return node.ID, nil
}
