package vmanage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/doridoridoriand/upsman-go/internal/probe"
)

type bfdResponse struct {
	Data []probe.Record `json:"data"`
}

// BFDState queries the BFD sessions of one device. Any failure here is
// recoverable for the caller; the monitor maps it to an UNKNOWN sample.
func (c *Client) BFDState(ctx context.Context, deviceID, color string) ([]probe.Record, error) {
	query := url.Values{}
	query.Set("deviceId", deviceID)
	query.Set("local-color", color)

	resp, err := c.get(ctx, "/dataservice/device/bfd/state/device?"+query.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	var payload bfdResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}
