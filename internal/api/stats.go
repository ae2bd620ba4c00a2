package api

import (
	"context"
	"fmt"
)

// Authority says which side of the connection may write a stat or
// unlock an achievement. The wire encodes it as a small integer.
type Authority int

const (
	AuthorityClient Authority = 0
	AuthorityServer Authority = 1
)

// ParseAuthority maps the flag value onto the wire number.
func ParseAuthority(value string) (Authority, error) {
	switch value {
	case "client":
		return AuthorityClient, nil
	case "server":
		return AuthorityServer, nil
	default:
		return 0, fmt.Errorf("invalid authority %q: must be client or server", value)
	}
}

func (a Authority) String() string {
	switch a {
	case AuthorityClient:
		return "client"
	case AuthorityServer:
		return "server"
	default:
		return "unknown"
	}
}

// StatType is the value kind a stat tracks.
type StatType int

const (
	StatInteger StatType = 0
	StatFloat   StatType = 1
	StatAvgRate StatType = 2
)

// ParseStatType maps the flag value onto the wire number.
func ParseStatType(value string) (StatType, error) {
	switch value {
	case "integer":
		return StatInteger, nil
	case "float":
		return StatFloat, nil
	case "avg-rate":
		return StatAvgRate, nil
	default:
		return 0, fmt.Errorf("invalid stat type %q: must be integer, float, or avg-rate", value)
	}
}

func (t StatType) String() string {
	switch t {
	case StatInteger:
		return "integer"
	case StatFloat:
		return "float"
	case StatAvgRate:
		return "avg-rate"
	default:
		return "unknown"
	}
}

// Stat is one tracked game statistic.
type Stat struct {
	Identifier  string    `json:"identifier"`
	DisplayName string    `json:"displayName"`
	Authority   Authority `json:"authority"`
	Type        StatType  `json:"type"`
}

// CreateStatRequest defines a new stat. Identifiers are letters,
// numbers, and underscores, starting with a letter; the server
// enforces that.
type CreateStatRequest struct {
	Identifier  string    `json:"identifier"`
	DisplayName string    `json:"displayName"`
	Authority   Authority `json:"authority"`
	Type        StatType  `json:"type"`
}

// StatUpdate is a partial update; nil fields are left unchanged.
type StatUpdate struct {
	DisplayName *string    `json:"displayName,omitempty"`
	Authority   *Authority `json:"authority,omitempty"`
	Type        *StatType  `json:"type,omitempty"`
}

// Empty reports whether the update carries no changes.
func (u StatUpdate) Empty() bool {
	return u.DisplayName == nil && u.Authority == nil && u.Type == nil
}

// ListStats fetches every stat defined for the game.
func (c *Client) ListStats(ctx context.Context, game string) ([]Stat, error) {
	var resp struct {
		Stats []Stat `json:"stats"`
	}
	if err := c.get(ctx, fmt.Sprintf("/games/%s/stats", game), &resp); err != nil {
		return nil, err
	}
	return resp.Stats, nil
}

// CreateStat registers a new stat for the game.
func (c *Client) CreateStat(ctx context.Context, game string, req CreateStatRequest) error {
	return c.post(ctx, fmt.Sprintf("/games/%s/stats", game), req, nil)
}

// UpdateStat applies a partial update to an existing stat.
func (c *Client) UpdateStat(ctx context.Context, game, identifier string, update StatUpdate) error {
	return c.put(ctx, fmt.Sprintf("/games/%s/stats/%s", game, identifier), update, nil)
}

// DeleteStat removes a stat.
func (c *Client) DeleteStat(ctx context.Context, game, identifier string) error {
	return c.delete(ctx, fmt.Sprintf("/games/%s/stats/%s", game, identifier))
}
