package vmanage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// controllers are excluded from monitoring; power-cycling the fabric's own
// control plane would be counterproductive.
var controllerPersonalities = map[string]bool{
	"vmanage": true,
	"vbond":   true,
	"vsmart":  true,
}

type deviceRecord struct {
	SystemIP     string  `json:"system-ip"`
	SiteID       flexInt `json:"site-id"`
	Personality  string  `json:"personality"`
	Reachability string  `json:"reachability"`
}

type deviceResponse struct {
	Data []deviceRecord `json:"data"`
}

// Devices fetches the inventory and returns reachable edge devices grouped
// by site ID, restricted to the given sites.
func (c *Client) Devices(ctx context.Context, siteIDs []int) (map[int][]string, error) {
	c.log.Info().Msg("collecting device inventory")

	resp, err := c.get(ctx, "/dataservice/device")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	var payload deviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	wanted := make(map[int]bool, len(siteIDs))
	for _, id := range siteIDs {
		wanted[id] = true
	}

	devices := make(map[int][]string, len(siteIDs))
	for _, device := range payload.Data {
		siteID := int(device.SiteID)
		switch {
		case controllerPersonalities[device.Personality]:
			c.log.Debug().Str("personality", device.Personality).Msg("skipping controller")
		case !wanted[siteID]:
			c.log.Debug().Int("site", siteID).Msg("skipping unconfigured site")
		case device.Reachability != "reachable":
			c.log.Debug().Str("device", device.SystemIP).Msg("skipping unreachable device")
		default:
			c.log.Debug().Str("device", device.SystemIP).Int("site", siteID).Msg("adding device")
			devices[siteID] = append(devices[siteID], device.SystemIP)
		}
	}
	return devices, nil
}

// flexInt accepts both `"site-id": 101` and `"site-id": "101"`; vManage
// emits either depending on version.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		*f = 0
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*f = flexInt(parsed)
	return nil
}
