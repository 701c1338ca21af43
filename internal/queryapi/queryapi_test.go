package queryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/townforge/townforge/internal/bus"
	"github.com/townforge/townforge/internal/catalogue"
	"github.com/townforge/townforge/internal/worldgen"
)

func intPtr(n int) *int { return &n }

func testGeo() worldgen.Geometry {
	return worldgen.Geometry{
		VillageSpacing: 175, BaseY: -60, CrossroadsPlazaRadius: 30,
		CrossroadsStationSlots: 16, CrossroadsStationRadius: 35,
		VillageStationOffset: 17, FenceRadius: 150, BuildingFootprint: 21,
		GridColumns: 10, BuildingSpacing: 24,
	}
}

func newTestServer(t *testing.T) (*Server, *catalogue.Store) {
	t.Helper()
	store, err := catalogue.Open(":memory:", testGeo())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	queue := bus.NewQueue(client, bus.QueueWorldgen)
	codes := bus.NewLinkCodeStore(client)
	return New(store, queue, codes, testGeo(), "https://map.example.com"), store
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthReturnsOK(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestStatusCountsOnlyNonArchived(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	g, _, err := store.UpsertGroup(ctx, "G-1", "guild-1", "Alpha", 0)
	if err != nil {
		t.Fatalf("UpsertGroup: %v", err)
	}
	if _, _, err := store.UpsertChannel(ctx, "C-1", g, "general", nil, intPtr(5), 0); err != nil {
		t.Fatalf("UpsertChannel: %v", err)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/status", nil)
	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["villageCount"] != 1 || got["buildingCount"] != 1 {
		t.Fatalf("status = %+v, want villageCount=1 buildingCount=1", got)
	}
}

func TestVillageBuildingsReturns404ForUnknownID(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/villages/999/buildings", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestNavigateReturnsMappingForKnownChannel(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	g, _, _ := store.UpsertGroup(ctx, "G-1", "guild-1", "Alpha", 0)
	store.UpsertChannel(ctx, "C-1", g, "general", nil, intPtr(5), 0)

	rec := doJSON(t, s, http.MethodGet, "/api/navigate/C-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var got navigateView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.VillageName != "Alpha" || got.IsArchived {
		t.Fatalf("navigate = %+v", got)
	}
}

func TestNavigateReturns404ForUnmappedChannel(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/navigate/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestBuildingSpawnDerivesEntranceFromPlacement(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	g, _, _ := store.UpsertGroup(ctx, "G-1", "guild-1", "Alpha", 0)
	c, _, _ := store.UpsertChannel(ctx, "C-1", g, "general", nil, intPtr(5), 0)
	if err := store.SetChannelBuildCoords(ctx, c.ID, 200, 50); err != nil {
		t.Fatalf("SetChannelBuildCoords: %v", err)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/buildings/1/spawn", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rec.Code, rec.Body.String())
	}
	var got map[string]int
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got["x"] != 200 || got["y"] != -59 {
		t.Fatalf("spawn = %+v, want x=200 y=-59", got)
	}
}

func TestBuildingSpawnReturns404WhenNotYetPlaced(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	g, _, _ := store.UpsertGroup(ctx, "G-1", "guild-1", "Alpha", 0)
	store.UpsertChannel(ctx, "C-1", g, "general", nil, intPtr(5), 0)

	rec := doJSON(t, s, http.MethodGet, "/api/buildings/1/spawn", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestBuildingPinEnqueuesUpdateBuildingJob(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	g, _, _ := store.UpsertGroup(ctx, "G-1", "guild-1", "Alpha", 0)
	store.UpsertChannel(ctx, "C-1", g, "general", nil, intPtr(5), 0)

	rec := doJSON(t, s, http.MethodPost, "/api/buildings/1/pin", pinRequest{
		Author: "alice", Content: "hello world",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body=%s", rec.Code, rec.Body.String())
	}

	ids, err := s.queue.List(ctx)
	if err != nil || len(ids) != 1 {
		t.Fatalf("queue = %v, %v, want one job", ids, err)
	}
	job, err := store.GetJob(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Type != catalogue.JobUpdateBuilding {
		t.Fatalf("job type = %q, want %q", job.Type, catalogue.JobUpdateBuilding)
	}
}

func TestMappingsSyncCreatesAndEnqueuesOnlyNewRows(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	topic := "patch notes"
	req := syncRequest{
		GuildID: "guild-1",
		Groups: []syncGroup{{
			ExternalID: "G-1", Name: "Alpha", Position: 0,
			Channels: []syncChannel{{ExternalID: "C-1", Name: "general", Topic: &topic, MemberCount: intPtr(5), Position: 0}},
		}},
	}
	rec := doJSON(t, s, http.MethodPost, "/api/mappings/sync", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rec.Code, rec.Body.String())
	}
	var got map[string]int
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got["groupsCreated"] != 1 || got["channelsCreated"] != 1 {
		t.Fatalf("sync result = %+v, want 1/1", got)
	}
	ids, _ := s.queue.List(ctx)
	if len(ids) != 2 {
		t.Fatalf("expected CreateVillage + CreateBuilding queued, got %d", len(ids))
	}

	// Replaying the same request must not create duplicate rows or jobs.
	rec2 := doJSON(t, s, http.MethodPost, "/api/mappings/sync", req)
	var got2 map[string]int
	json.Unmarshal(rec2.Body.Bytes(), &got2)
	if got2["groupsCreated"] != 0 || got2["channelsCreated"] != 0 {
		t.Fatalf("replay sync result = %+v, want 0/0", got2)
	}
	ids2, _ := s.queue.List(ctx)
	if len(ids2) != 2 {
		t.Fatalf("expected no new jobs from replay, queue = %d", len(ids2))
	}

	c, err := store.GetChannelByExternalID(ctx, "C-1")
	if err != nil {
		t.Fatalf("GetChannelByExternalID: %v", err)
	}
	if c.Topic == nil || *c.Topic != topic {
		t.Fatalf("topic = %v, want %q", c.Topic, topic)
	}
}

func TestPlayersLinkReturnsRedeemableCode(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/players/link", linkRequest{ExternalUserID: "discord-user-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rec.Code, rec.Body.String())
	}
	var got map[string]string
	json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got["code"]) != 6 {
		t.Fatalf("code = %q, want length 6", got["code"])
	}

	resolved, ok, err := s.codes.Resolve(context.Background(), got["code"])
	if err != nil || !ok || resolved != "discord-user-1" {
		t.Fatalf("Resolve(%q) = %q, %v, %v", got["code"], resolved, ok, err)
	}
}
