package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// Achievement is one earnable achievement, optionally linked to a stat
// for automatic unlocking.
type Achievement struct {
	Identifier     string    `json:"identifier"`
	DisplayName    string    `json:"displayName"`
	Description    string    `json:"description"`
	Authority      Authority `json:"authority"`
	Points         *int64    `json:"points"`
	StatIdentifier *string   `json:"statIdentifier"`
	StatThreshold  *float64  `json:"statThreshold"`
}

// CreateAchievementRequest defines a new achievement. Points and the
// stat link are optional.
type CreateAchievementRequest struct {
	Identifier     string    `json:"identifier"`
	DisplayName    string    `json:"displayName"`
	Description    string    `json:"description"`
	Image          string    `json:"image"`
	Authority      Authority `json:"authority"`
	Points         *int64    `json:"points,omitempty"`
	StatIdentifier *string   `json:"statIdentifier,omitempty"`
	StatThreshold  *float64  `json:"statThreshold,omitempty"`
}

// AchievementUpdate is a partial update; nil fields are left
// unchanged. UnlinkStat sends an explicit null statIdentifier, which
// clears the stat link server-side.
type AchievementUpdate struct {
	DisplayName    *string
	Description    *string
	Image          *string
	Authority      *Authority
	Points         *int64
	StatIdentifier *string
	UnlinkStat     bool
	StatThreshold  *float64
}

// Empty reports whether the update carries no changes.
func (u AchievementUpdate) Empty() bool {
	return u.DisplayName == nil && u.Description == nil && u.Image == nil &&
		u.Authority == nil && u.Points == nil && u.StatIdentifier == nil &&
		!u.UnlinkStat && u.StatThreshold == nil
}

// MarshalJSON emits only the fields being changed. The unlink case
// needs a literal null, which omitempty tags cannot express.
func (u AchievementUpdate) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if u.DisplayName != nil {
		body["displayName"] = *u.DisplayName
	}
	if u.Description != nil {
		body["description"] = *u.Description
	}
	if u.Image != nil {
		body["image"] = *u.Image
	}
	if u.Authority != nil {
		body["authority"] = *u.Authority
	}
	if u.Points != nil {
		body["points"] = *u.Points
	}
	if u.UnlinkStat {
		body["statIdentifier"] = nil
	} else if u.StatIdentifier != nil {
		body["statIdentifier"] = *u.StatIdentifier
	}
	if u.StatThreshold != nil {
		body["statThreshold"] = *u.StatThreshold
	}
	return json.Marshal(body)
}

// ListAchievements fetches every achievement defined for the game.
func (c *Client) ListAchievements(ctx context.Context, game string) ([]Achievement, error) {
	var resp struct {
		Achievements []Achievement `json:"achievements"`
	}
	if err := c.get(ctx, fmt.Sprintf("/games/%s/achievements", game), &resp); err != nil {
		return nil, err
	}
	return resp.Achievements, nil
}

// CreateAchievement registers a new achievement for the game.
func (c *Client) CreateAchievement(ctx context.Context, game string, req CreateAchievementRequest) error {
	return c.post(ctx, fmt.Sprintf("/games/%s/achievements", game), req, nil)
}

// UpdateAchievement applies a partial update to an existing
// achievement.
func (c *Client) UpdateAchievement(ctx context.Context, game, identifier string, update AchievementUpdate) error {
	return c.put(ctx, fmt.Sprintf("/games/%s/achievements/%s", game, identifier), update, nil)
}

// DeleteAchievement removes an achievement.
func (c *Client) DeleteAchievement(ctx context.Context, game, identifier string) error {
	return c.delete(ctx, fmt.Sprintf("/games/%s/achievements/%s", game, identifier))
}
