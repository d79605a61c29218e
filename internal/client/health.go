package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Health checks that the service answers on /health with {"status": "ok"}.
func (c *Client) Health(ctx context.Context) error {
	data, err := c.doJSON(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return err
	}
	if status := gjson.GetBytes(data, "status").String(); status != "ok" {
		return fmt.Errorf("unexpected health status %q", status)
	}
	return nil
}
