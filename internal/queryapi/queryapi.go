// Package queryapi implements the query API (C11, spec.md §4.11): the
// read surface over internal/catalogue plus the handful of write
// endpoints (bulk sync, pin, player-link code issuance) that enqueue jobs
// rather than touch the game server directly. Grounded on the teacher's
// internal/cli.gateway dashboard server: a stdlib http.ServeMux, one
// HandleFunc per route, CORS header plus JSON encoder on every response.
package queryapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/townforge/townforge/internal/bus"
	"github.com/townforge/townforge/internal/catalogue"
	"github.com/townforge/townforge/internal/jobs"
	"github.com/townforge/townforge/internal/worldgen"
)

// Server wires the catalogue, the worldgen queue, and the link-code store
// into an http.Handler.
type Server struct {
	store     *catalogue.Store
	queue     *bus.Queue
	codes     *bus.LinkCodeStore
	geo       worldgen.Geometry
	blueMapURL string
	mux       *http.ServeMux
}

// New builds a Server and registers every route from spec.md §4.11's table.
func New(store *catalogue.Store, queue *bus.Queue, codes *bus.LinkCodeStore, geo worldgen.Geometry, blueMapURL string) *Server {
	s := &Server{store: store, queue: queue, codes: codes, geo: geo, blueMapURL: blueMapURL, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/villages", s.handleVillages)
	s.mux.HandleFunc("/api/villages/", s.handleVillageBuildings)
	s.mux.HandleFunc("/api/navigate/", s.handleNavigate)
	s.mux.HandleFunc("/api/buildings/search", s.handleBuildingsSearch)
	s.mux.HandleFunc("/api/buildings/", s.handleBuildingsSubpath)
	s.mux.HandleFunc("/api/crossroads", s.handleCrossroads)
	s.mux.HandleFunc("/api/mappings/sync", s.handleMappingsSync)
	s.mux.HandleFunc("/api/players/link", s.handlePlayersLink)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	villageCount, err := s.store.CountVillages(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "count villages")
		return
	}
	buildingCount, err := s.store.CountBuildings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "count buildings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"villageCount": villageCount, "buildingCount": buildingCount})
}

type villageView struct {
	ID            int64  `json:"id"`
	ExternalID    string `json:"externalId"`
	Name          string `json:"name"`
	CenterX       int    `json:"centerX"`
	CenterZ       int    `json:"centerZ"`
	BuildingCount int    `json:"buildingCount"`
}

func (s *Server) handleVillages(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroups(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list villages")
		return
	}
	out := make([]villageView, 0, len(groups))
	for _, g := range groups {
		channels, err := s.store.ListChannelsByGroup(r.Context(), g.ID, false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "count village buildings")
			return
		}
		out = append(out, villageView{
			ID: g.ID, ExternalID: g.ExternalID, Name: g.Name,
			CenterX: g.CenterX, CenterZ: g.CenterZ, BuildingCount: len(channels),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleVillageBuildings serves GET /api/villages/{id}/buildings.
func (s *Server) handleVillageBuildings(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/villages/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "buildings" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid village id")
		return
	}
	if _, err := s.store.GetGroup(r.Context(), id); err != nil {
		if errors.Is(err, catalogue.ErrNotFound) {
			writeError(w, http.StatusNotFound, "village not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup village")
		return
	}
	channels, err := s.store.ListChannelsByGroup(r.Context(), id, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list buildings")
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

type navigateView struct {
	ExternalID    string `json:"externalId"`
	Name          string `json:"name"`
	IsArchived    bool   `json:"isArchived"`
	BuildingX     *int   `json:"buildingX"`
	BuildingZ     *int   `json:"buildingZ"`
	VillageID     int64  `json:"villageId"`
	VillageName   string `json:"villageName"`
	VillageCenterX int   `json:"villageCenterX"`
	VillageCenterZ int   `json:"villageCenterZ"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	externalID := strings.TrimPrefix(r.URL.Path, "/api/navigate/")
	if externalID == "" {
		writeError(w, http.StatusNotFound, "missing channel id")
		return
	}
	c, err := s.store.GetChannelByExternalID(r.Context(), externalID)
	if err != nil {
		if errors.Is(err, catalogue.ErrNotFound) {
			writeError(w, http.StatusNotFound, "channel not mapped")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup channel")
		return
	}
	g, err := s.store.GetGroup(r.Context(), c.GroupID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup village")
		return
	}
	writeJSON(w, http.StatusOK, navigateView{
		ExternalID: c.ExternalID, Name: c.Name, IsArchived: c.IsArchived,
		BuildingX: c.BuildingX, BuildingZ: c.BuildingZ,
		VillageID: g.ID, VillageName: g.Name, VillageCenterX: g.CenterX, VillageCenterZ: g.CenterZ,
	})
}

func (s *Server) handleBuildingsSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results, err := s.store.SearchBuildings(r.Context(), q, 10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search buildings")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleBuildingsSubpath dispatches /api/buildings/{id}/spawn and
// /api/buildings/{id}/pin; both share the {id} prefix the stdlib mux
// can't pattern-match on its own.
func (s *Server) handleBuildingsSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/buildings/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid building id")
		return
	}
	switch parts[1] {
	case "spawn":
		s.handleBuildingSpawn(w, r, id)
	case "pin":
		s.handleBuildingPin(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleBuildingSpawn(w http.ResponseWriter, r *http.Request, id int64) {
	c, err := s.store.GetChannel(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalogue.ErrNotFound) {
			writeError(w, http.StatusNotFound, "building not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup building")
		return
	}
	if c.BuildingX == nil || c.BuildingZ == nil {
		writeError(w, http.StatusNotFound, "building not yet placed")
		return
	}
	spawn := s.geo.BuildingSpawn(worldgen.Point{X: *c.BuildingX, Z: *c.BuildingZ}, c.MemberCount)
	writeJSON(w, http.StatusOK, map[string]int{"x": spawn.X, "y": s.geo.BaseY + 1, "z": spawn.Z})
}

type pinRequest struct {
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleBuildingPin(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.store.GetChannel(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalogue.ErrNotFound) {
			writeError(w, http.StatusNotFound, "building not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup building")
		return
	}
	g, err := s.store.GetGroup(r.Context(), c.GroupID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup village")
		return
	}

	raw, err := jobs.Encode(jobs.UpdateBuildingPayload{
		ChannelID: c.ID, ExternalID: c.ExternalID,
		GroupCenterX: g.CenterX, GroupCenterZ: g.CenterZ,
		BuildingIndex: c.BuildingIndex, MemberCount: c.MemberCount,
		PinAuthor: req.Author, PinContent: req.Content, PinTimestamp: req.Timestamp,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode pin payload")
		return
	}
	job, err := s.store.CreateJob(r.Context(), catalogue.JobUpdateBuilding, raw)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create pin job")
		return
	}
	if err := s.queue.Push(r.Context(), job.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "enqueue pin job")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int64{"jobId": job.ID})
}

func (s *Server) handleCrossroads(w http.ResponseWriter, r *http.Request) {
	done, err := s.store.HasCompletedJobOfType(r.Context(), catalogue.JobCreateCrossroads)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "check crossroads status")
		return
	}
	deepLink := ""
	if s.blueMapURL != "" {
		deepLink = strings.TrimRight(s.blueMapURL, "/") + "/#world:0:" + strconv.Itoa(s.geo.BaseY) + ":0"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ready":   done,
		"centerX": 0, "centerZ": 0,
		"deepLink": deepLink,
	})
}

type syncGroup struct {
	ExternalID string      `json:"externalId"`
	Name       string      `json:"name"`
	Position   int         `json:"position"`
	Channels   []syncChannel `json:"channels"`
}

type syncChannel struct {
	ExternalID string  `json:"externalId"`
	Name       string  `json:"name"`
	Topic      *string `json:"topic"`
	// MemberCount is a pointer: an omitted field must default to the
	// Medium building tier (spec.md §4.7), which catalogue.UpsertChannel
	// resolves, not a zero-valued int indistinguishable from an explicit 0.
	MemberCount *int `json:"memberCount"`
	Position    int  `json:"position"`
}

type syncRequest struct {
	GuildID string      `json:"guildId"`
	Groups  []syncGroup `json:"groups"`
}

// handleMappingsSync implements POST /api/mappings/sync: for every group
// and channel in the payload, upsert via the same catalogue calls the
// event consumer (C4) uses, and enqueue a job only for rows this call
// actually created (spec.md §4.11's "enqueues jobs for newly created rows
// only" idempotence rule).
func (s *Server) handleMappingsSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	groupsCreated, channelsCreated := 0, 0
	for _, sg := range req.Groups {
		g, created, err := s.store.UpsertGroup(ctx, sg.ExternalID, req.GuildID, sg.Name, sg.Position)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "upsert group "+sg.ExternalID)
			return
		}
		if created {
			groupsCreated++
			if err := s.enqueueVillage(ctx, g); err != nil {
				slog.Error("queryapi: enqueue CreateVillage during sync", "groupId", g.ID, "error", err)
			}
		} else if g.Name != sg.Name {
			if err := s.store.UpdateGroupName(ctx, g.ExternalID, sg.Name); err != nil {
				writeError(w, http.StatusInternalServerError, "update group "+sg.ExternalID)
				return
			}
		}

		for _, sc := range sg.Channels {
			c, created, err := s.store.UpsertChannel(ctx, sc.ExternalID, g, sc.Name, sc.Topic, sc.MemberCount, sc.Position)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "upsert channel "+sc.ExternalID)
				return
			}
			if created {
				channelsCreated++
				if err := s.enqueueBuilding(ctx, g, c); err != nil {
					slog.Error("queryapi: enqueue CreateBuilding during sync", "channelId", c.ID, "error", err)
				}
			} else if c.Name != sc.Name || !topicEqual(c.Topic, sc.Topic) {
				if err := s.store.UpdateChannelNameTopic(ctx, c.ExternalID, sc.Name, sc.Topic); err != nil {
					writeError(w, http.StatusInternalServerError, "update channel "+sc.ExternalID)
					return
				}
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"groupsCreated": groupsCreated, "channelsCreated": channelsCreated})
}

// enqueueVillage and enqueueBuilding mirror internal/consumer's
// write-audit-row-then-push pattern: a lost push after a successful
// CreateJob leaves a Pending row that the processor's startup
// reconciliation pass does not re-queue (it re-pushes only InProgress rows).
func (s *Server) enqueueVillage(ctx context.Context, g *catalogue.Group) error {
	raw, err := jobs.Encode(jobs.VillagePayload{
		GroupID: g.ID, ExternalID: g.ExternalID, Name: g.Name,
		VillageIndex: g.VillageIndex, CenterX: g.CenterX, CenterZ: g.CenterZ,
	})
	if err != nil {
		return err
	}
	job, err := s.store.CreateJob(ctx, catalogue.JobCreateVillage, raw)
	if err != nil {
		return err
	}
	return s.queue.Push(ctx, job.ID)
}

func (s *Server) enqueueBuilding(ctx context.Context, g *catalogue.Group, c *catalogue.Channel) error {
	raw, err := jobs.Encode(jobs.BuildingPayload{
		ChannelID: c.ID, ExternalID: c.ExternalID, GroupID: g.ID,
		GroupCenterX: g.CenterX, GroupCenterZ: g.CenterZ, BuildingIndex: c.BuildingIndex,
		ChannelName: c.Name, Topic: c.Topic, MemberCount: c.MemberCount,
	})
	if err != nil {
		return err
	}
	job, err := s.store.CreateJob(ctx, catalogue.JobCreateBuilding, raw)
	if err != nil {
		return err
	}
	return s.queue.Push(ctx, job.ID)
}

type linkRequest struct {
	ExternalUserID string `json:"externalUserId"`
}

func topicEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Server) handlePlayersLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExternalUserID == "" {
		writeError(w, http.StatusBadRequest, "externalUserId required")
		return
	}
	code, err := s.codes.Generate(r.Context(), req.ExternalUserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generate link code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}
