package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

func TestListAchievements(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"achievements": [
			{"identifier": "first_win", "displayName": "First Win", "description": "Win a match",
			 "authority": 1, "points": 10, "statIdentifier": "wins", "statThreshold": 1},
			{"identifier": "veteran", "displayName": "Veteran", "description": "Keep playing",
			 "authority": 0, "points": null, "statIdentifier": null, "statThreshold": null}
		]}`))
	})

	achievements, err := client.ListAchievements(context.Background(), "rocketball")
	if err != nil {
		t.Fatalf("list achievements: %v", err)
	}
	if gotPath != "/api/games/rocketball/achievements" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if len(achievements) != 2 {
		t.Fatalf("expected 2 achievements, got %d", len(achievements))
	}
	first := achievements[0]
	if first.Points == nil || *first.Points != 10 {
		t.Fatalf("unexpected points: %v", first.Points)
	}
	if first.StatIdentifier == nil || *first.StatIdentifier != "wins" {
		t.Fatalf("unexpected stat link: %v", first.StatIdentifier)
	}
	second := achievements[1]
	if second.Points != nil || second.StatIdentifier != nil || second.StatThreshold != nil {
		t.Fatalf("null fields should decode as nil: %+v", second)
	}
}

func TestCreateAchievementOptionalFields(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Write([]byte(`{"success": true}`))
	})

	req := CreateAchievementRequest{
		Identifier:  "first_win",
		DisplayName: "First Win",
		Description: "Win a match",
		Image:       "https://cdn.example.com/first_win.png",
		Authority:   AuthorityServer,
	}
	if err := client.CreateAchievement(context.Background(), "rocketball", req); err != nil {
		t.Fatalf("create achievement: %v", err)
	}
	if gotBody["authority"] != float64(1) || gotBody["image"] != "https://cdn.example.com/first_win.png" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
	for _, key := range []string{"points", "statIdentifier", "statThreshold"} {
		if _, present := gotBody[key]; present {
			t.Fatalf("unset %s must be omitted", key)
		}
	}
}

func TestUpdateAchievementPartialBody(t *testing.T) {
	var gotBody map[string]any
	var gotPath, gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Write([]byte(`{"success": true}`))
	})

	points := int64(25)
	upd := AchievementUpdate{Points: &points}
	if err := client.UpdateAchievement(context.Background(), "rocketball", "first_win", upd); err != nil {
		t.Fatalf("update achievement: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/games/rocketball/achievements/first_win" {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotPath)
	}
	if gotBody["points"] != float64(25) {
		t.Fatalf("unexpected body: %v", gotBody)
	}
	if len(gotBody) != 1 {
		t.Fatalf("unset fields must be omitted: %v", gotBody)
	}
}

func TestUpdateAchievementUnlinkSendsNull(t *testing.T) {
	data, err := json.Marshal(AchievementUpdate{UnlinkStat: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	value, present := body["statIdentifier"]
	if !present {
		t.Fatal("unlink must send statIdentifier")
	}
	if value != nil {
		t.Fatalf("unlink must send null, got %v", value)
	}
}

func TestAchievementUpdateEmpty(t *testing.T) {
	if !(AchievementUpdate{}).Empty() {
		t.Fatal("zero update should be empty")
	}
	if (AchievementUpdate{UnlinkStat: true}).Empty() {
		t.Fatal("unlink alone is a change")
	}
	desc := "Updated"
	if (AchievementUpdate{Description: &desc}).Empty() {
		t.Fatal("update with a field should not be empty")
	}
}

func TestDeleteAchievement(t *testing.T) {
	var gotPath, gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Write([]byte(`{"success": true}`))
	})

	if err := client.DeleteAchievement(context.Background(), "rocketball", "first_win"); err != nil {
		t.Fatalf("delete achievement: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/games/rocketball/achievements/first_win" {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotPath)
	}
}
