package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/townforge/townforge/internal/bus"
	"github.com/townforge/townforge/internal/catalogue"
	"github.com/townforge/townforge/internal/jobs"
	"github.com/townforge/townforge/internal/plugin"
	"github.com/townforge/townforge/internal/worldgen"
)

func testGeo() worldgen.Geometry {
	return worldgen.Geometry{
		VillageSpacing: 175, BaseY: -60, CrossroadsPlazaRadius: 30,
		CrossroadsStationSlots: 16, CrossroadsStationRadius: 35,
		VillageStationOffset: 17, FenceRadius: 150, BuildingFootprint: 21,
		GridColumns: 10, BuildingSpacing: 24,
	}
}

func openTestStore(t *testing.T) *catalogue.Store {
	t.Helper()
	s, err := catalogue.Open(":memory:", testGeo())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func openTestQueue(t *testing.T) *bus.Queue {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return bus.NewQueue(client, bus.QueueWorldgen)
}

// fakeRCON records every batch it is handed and can be told to fail a fixed
// number of times before succeeding, standing in for internal/rcon.Client
// the way the teacher's scheduler tests stub its model-provider interface.
type fakeRCON struct {
	batches   [][]string
	failUntil int // number of calls (1-indexed) that should return an error
	calls     int
}

func (f *fakeRCON) Batch(ctx context.Context, lines []string) ([]string, error) {
	f.calls++
	f.batches = append(f.batches, lines)
	if f.calls <= f.failUntil {
		return nil, errors.New("fake rcon: connection reset")
	}
	return make([]string, len(lines)), nil
}

type fakeMarkers struct {
	upserts  []plugin.Marker
	archived []string
}

func (f *fakeMarkers) UpsertMarker(ctx context.Context, m plugin.Marker) error {
	f.upserts = append(f.upserts, m)
	return nil
}

func (f *fakeMarkers) ArchiveMarker(ctx context.Context, id string) error {
	f.archived = append(f.archived, id)
	return nil
}

// fakeClock records requested sleep durations without blocking, so retry
// tests run instantly instead of waiting out spec.md §4.3's 2/4/8s schedule.
type fakeClock struct {
	slept []time.Duration
}

func (f *fakeClock) Sleep(d time.Duration) { f.slept = append(f.slept, d) }

func pushJob(t *testing.T, store *catalogue.Store, queue *bus.Queue, jobType string, payload any) *catalogue.GenerationJob {
	t.Helper()
	raw, err := jobs.Encode(payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	job, err := store.CreateJob(context.Background(), jobType, raw)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := queue.Push(context.Background(), job.ID); err != nil {
		t.Fatalf("Push: %v", err)
	}
	return job
}

func TestTickDispatchesCreateVillageAndEnqueuesTrackFollowUp(t *testing.T) {
	store := openTestStore(t)
	queue := openTestQueue(t)
	ctx := context.Background()
	rcon := &fakeRCON{}
	markers := &fakeMarkers{}
	p := New(store, queue, rcon, markers, testGeo(), WithClock(&fakeClock{}))

	pushJob(t, store, queue, catalogue.JobCreateVillage, jobs.VillagePayload{
		GroupID: 1, ExternalID: "G-1", Name: "Alpha", CenterX: 175, CenterZ: 0,
	})

	processed, err := p.Tick(ctx)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !processed {
		t.Fatalf("expected Tick to find work")
	}
	if rcon.calls != 2 {
		t.Fatalf("expected two rcon batches (village generation, then the tellraw broadcast), got %d", rcon.calls)
	}
	if len(markers.upserts) != 1 || markers.upserts[0].Label != "Alpha" {
		t.Fatalf("expected a village marker upsert, got %+v", markers.upserts)
	}

	ids, err := queue.List(ctx)
	if err != nil || len(ids) != 1 {
		t.Fatalf("queue = %v, %v, want one follow-up job", ids, err)
	}
	job, err := store.GetJob(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Type != catalogue.JobCreateTrack {
		t.Fatalf("follow-up job type = %q, want %q", job.Type, catalogue.JobCreateTrack)
	}
	env := jobs.FromJob(job)
	track, err := env.DecodeTrack()
	if err != nil {
		t.Fatalf("DecodeTrack: %v", err)
	}
	if track.DestCenterX != 0 || track.DestCenterZ != 0 || track.DestName != "Crossroads" {
		t.Fatalf("follow-up track payload = %+v, want a hub-bound track", track)
	}
}

func TestTickOrdersByProximityToHub(t *testing.T) {
	store := openTestStore(t)
	queue := openTestQueue(t)
	ctx := context.Background()
	rcon := &fakeRCON{}
	p := New(store, queue, rcon, nil, testGeo(), WithClock(&fakeClock{}))

	// Push the far village first, crossroads last: priority order must
	// still put crossroads first, then the nearer village. The near
	// village's CreateTrack follow-up scores by its midpoint (88,0), so it
	// is dispatched before the far village.
	pushJob(t, store, queue, catalogue.JobCreateVillage, jobs.VillagePayload{GroupID: 2, ExternalID: "G-far", Name: "Far", CenterX: 700, CenterZ: 0})
	pushJob(t, store, queue, catalogue.JobCreateVillage, jobs.VillagePayload{GroupID: 1, ExternalID: "G-near", Name: "Near", CenterX: 175, CenterZ: 0})
	pushJob(t, store, queue, catalogue.JobCreateCrossroads, jobs.CrossroadsPayload{})

	var order []string
	for i := 0; i < 4; i++ {
		before := len(rcon.batches)
		processed, err := p.Tick(ctx)
		if err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
		if !processed {
			t.Fatalf("Tick %d: expected work", i)
		}
		// The first batch of a tick is the generator's; a tellraw
		// broadcast post-hook may follow it.
		batch := rcon.batches[before]
		order = append(order, describeBatch(batch))
	}

	if order[0] != "crossroads" {
		t.Fatalf("first dispatched batch = %q, want crossroads", order[0])
	}
	if order[1] != "near" || order[2] != "track" || order[3] != "far" {
		t.Fatalf("order = %v, want [crossroads near track far]", order)
	}
}

// describeBatch distinguishes which job a generator batch came from by a
// landmark each one alone produces.
func describeBatch(cmds []string) string {
	for _, c := range cmds {
		if contains(c, "rail[shape=") {
			return "track"
		}
	}
	for _, c := range cmds {
		if contains(c, "175") {
			return "near"
		}
		if contains(c, "700") {
			return "far"
		}
	}
	return "crossroads"
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestDispatchRetriesRetryableFailureThenSucceeds(t *testing.T) {
	store := openTestStore(t)
	queue := openTestQueue(t)
	ctx := context.Background()
	rcon := &fakeRCON{failUntil: 1}
	clock := &fakeClock{}
	p := New(store, queue, rcon, nil, testGeo(), WithClock(clock))

	job := pushJob(t, store, queue, catalogue.JobCreateVillage, jobs.VillagePayload{
		GroupID: 1, ExternalID: "G-1", Name: "Alpha", CenterX: 175, CenterZ: 0,
	})

	if _, err := p.Tick(ctx); err != nil {
		t.Fatalf("Tick 1: %v", err)
	}
	reloaded, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if reloaded.Status != catalogue.StatusPending {
		t.Fatalf("status after first failure = %q, want %q", reloaded.Status, catalogue.StatusPending)
	}
	if len(clock.slept) != 1 || clock.slept[0] != 2*time.Second {
		t.Fatalf("expected a single 2s backoff sleep, got %v", clock.slept)
	}

	if _, err := p.Tick(ctx); err != nil {
		t.Fatalf("Tick 2: %v", err)
	}
	reloaded, err = store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if reloaded.Status != catalogue.StatusCompleted {
		t.Fatalf("status after retry success = %q, want %q", reloaded.Status, catalogue.StatusCompleted)
	}
	if reloaded.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", reloaded.Attempts)
	}
}

func TestDispatchMarksFailedAfterMaxAttempts(t *testing.T) {
	store := openTestStore(t)
	queue := openTestQueue(t)
	ctx := context.Background()
	rcon := &fakeRCON{failUntil: jobs.MaxAttempts}
	p := New(store, queue, rcon, nil, testGeo(), WithClock(&fakeClock{}))

	job := pushJob(t, store, queue, catalogue.JobCreateVillage, jobs.VillagePayload{
		GroupID: 1, ExternalID: "G-1", Name: "Alpha", CenterX: 175, CenterZ: 0,
	})

	for i := 0; i < jobs.MaxAttempts; i++ {
		if _, err := p.Tick(ctx); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
	}

	reloaded, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if reloaded.Status != catalogue.StatusFailed {
		t.Fatalf("status = %q, want %q after %d attempts", reloaded.Status, catalogue.StatusFailed, jobs.MaxAttempts)
	}

	ids, _ := queue.List(ctx)
	if len(ids) != 0 {
		t.Fatalf("expected the permanently-failed job removed from the queue, got %v", ids)
	}
}

func TestArchiveVillageIsACatalogueNoOpThatArchivesItsMarker(t *testing.T) {
	store := openTestStore(t)
	queue := openTestQueue(t)
	ctx := context.Background()
	rcon := &fakeRCON{}
	markers := &fakeMarkers{}
	p := New(store, queue, rcon, markers, testGeo(), WithClock(&fakeClock{}))

	pushJob(t, store, queue, catalogue.JobArchiveVillage, jobs.VillagePayload{
		GroupID: 9, ExternalID: "G-9", Name: "Gone", CenterX: 175, CenterZ: 0,
	})

	if _, err := p.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if rcon.calls != 0 {
		t.Fatalf("expected no rcon batch for ArchiveVillage (cascaded ArchiveBuilding jobs do the work), got %d", rcon.calls)
	}
	if len(markers.archived) != 1 || markers.archived[0] != "village-9" {
		t.Fatalf("archived markers = %v, want [village-9]", markers.archived)
	}
}

func TestTickReturnsFalseOnEmptyQueue(t *testing.T) {
	store := openTestStore(t)
	queue := openTestQueue(t)
	p := New(store, queue, &fakeRCON{}, nil, testGeo(), WithClock(&fakeClock{}))

	processed, err := p.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if processed {
		t.Fatalf("expected no work on an empty queue")
	}
}

func TestReconcileRePushesDanglingInProgressJobs(t *testing.T) {
	store := openTestStore(t)
	queue := openTestQueue(t)
	ctx := context.Background()

	raw, err := jobs.Encode(jobs.VillagePayload{GroupID: 1, ExternalID: "G-1", Name: "Alpha", CenterX: 175, CenterZ: 0})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	job, err := store.CreateJob(ctx, catalogue.JobCreateVillage, raw)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := store.MarkJobInProgress(ctx, job.ID); err != nil {
		t.Fatalf("MarkJobInProgress: %v", err)
	}
	// Simulate a crash: the job is InProgress but was never pushed back onto
	// the queue by whatever worker died mid-dispatch.

	p := New(store, queue, &fakeRCON{}, nil, testGeo(), WithClock(&fakeClock{}))
	if err := p.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	ids, err := queue.List(ctx)
	if err != nil || len(ids) != 1 || ids[0] != job.ID {
		t.Fatalf("queue after Reconcile = %v, %v, want [%d]", ids, err, job.ID)
	}
	reloaded, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if reloaded.Status != catalogue.StatusPending {
		t.Fatalf("status after Reconcile = %q, want %q", reloaded.Status, catalogue.StatusPending)
	}
}

func TestEnsureCrossroadsSkipsWhenAlreadyCompleted(t *testing.T) {
	store := openTestStore(t)
	queue := openTestQueue(t)
	ctx := context.Background()
	p := New(store, queue, &fakeRCON{}, nil, testGeo(), WithClock(&fakeClock{}))

	if err := p.EnsureCrossroads(ctx); err != nil {
		t.Fatalf("EnsureCrossroads (first): %v", err)
	}
	if _, err := p.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if err := p.EnsureCrossroads(ctx); err != nil {
		t.Fatalf("EnsureCrossroads (second): %v", err)
	}
	ids, _ := queue.List(ctx)
	if len(ids) != 0 {
		t.Fatalf("expected no second CreateCrossroads job once one has completed, got %v", ids)
	}
}
