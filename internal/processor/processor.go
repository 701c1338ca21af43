// Package processor implements the job processor (C5, spec.md §4.3): it
// drains queue:worldgen by spawn-proximity priority, dispatches each
// envelope to the matching generator (internal/worldgen/{village,building,
// hub,track}, internal/archiver), updates the catalogue audit row, retries
// transient failures with backoff, and runs the CreateVillage -> CreateTrack
// follow-up. It is the single caller of internal/rcon's command channel,
// matching the teacher's internal/scheduler.Scheduler shape — a polling
// loop owning one external connection — generalized from LLM-task
// scheduling to world-gen job dispatch.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/townforge/townforge/internal/archiver"
	"github.com/townforge/townforge/internal/bus"
	"github.com/townforge/townforge/internal/catalogue"
	"github.com/townforge/townforge/internal/jobs"
	"github.com/townforge/townforge/internal/plugin"
	"github.com/townforge/townforge/internal/worldgen"
	"github.com/townforge/townforge/internal/worldgen/build"
	"github.com/townforge/townforge/internal/worldgen/building"
	"github.com/townforge/townforge/internal/worldgen/hub"
	"github.com/townforge/townforge/internal/worldgen/track"
	"github.com/townforge/townforge/internal/worldgen/village"
)

// RCON is the single-owner command channel (C3) the processor drives.
// internal/rcon.Client satisfies this.
type RCON interface {
	Batch(ctx context.Context, lines []string) ([]string, error)
}

// Markers is the subset of internal/plugin.Client the processor needs for
// its marker-upsert and marker-archive post-hooks.
type Markers interface {
	UpsertMarker(ctx context.Context, m plugin.Marker) error
	ArchiveMarker(ctx context.Context, id string) error
}

// Clock abstracts the retry backoff sleep so tests can exercise the
// retry path without actually waiting out spec.md §4.3's 2/4/8s schedule.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Processor drains queue:worldgen and dispatches to the §4.6-4.10
// generators.
type Processor struct {
	store        *catalogue.Store
	queue        *bus.Queue
	rcon         RCON
	markers      Markers
	geo          worldgen.Geometry
	clock        Clock
	pollInterval time.Duration
}

// Option configures optional Processor behavior.
type Option func(*Processor)

// WithClock overrides the retry-backoff clock (tests only).
func WithClock(c Clock) Option { return func(p *Processor) { p.clock = c } }

// WithPollInterval overrides the empty-queue poll interval (spec.md §4.3
// default ~500ms).
func WithPollInterval(d time.Duration) Option {
	return func(p *Processor) { p.pollInterval = d }
}

// New builds a Processor. markers may be nil, in which case marker
// upsert/archive post-hooks are skipped (useful for a plugin-less deploy).
func New(store *catalogue.Store, queue *bus.Queue, rcon RCON, markers Markers, geo worldgen.Geometry, opts ...Option) *Processor {
	p := &Processor{
		store: store, queue: queue, rcon: rcon, markers: markers, geo: geo,
		clock: realClock{}, pollInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reconcile resets any job left InProgress by an unclean prior shutdown
// back to Pending and re-pushes it onto the queue (spec.md §7 startup
// reconciliation).
func (p *Processor) Reconcile(ctx context.Context) error {
	dangling, err := p.store.ResetDanglingInProgress(ctx)
	if err != nil {
		return fmt.Errorf("processor: reset dangling jobs: %w", err)
	}
	for _, j := range dangling {
		if err := p.queue.Push(ctx, j.ID); err != nil {
			slog.Error("processor: re-push dangling job", "jobId", j.ID, "error", err)
		}
	}
	return nil
}

// EnsureCrossroads enqueues the singleton CreateCrossroads job if it has
// never completed (spec.md §4.8's hub initializer).
func (p *Processor) EnsureCrossroads(ctx context.Context) error {
	done, err := p.store.HasCompletedJobOfType(ctx, catalogue.JobCreateCrossroads)
	if err != nil {
		return fmt.Errorf("processor: check crossroads status: %w", err)
	}
	if done {
		return nil
	}
	raw, err := jobs.Encode(jobs.CrossroadsPayload{})
	if err != nil {
		return fmt.Errorf("processor: encode crossroads payload: %w", err)
	}
	job, err := p.store.CreateJob(ctx, catalogue.JobCreateCrossroads, raw)
	if err != nil {
		return fmt.Errorf("processor: create crossroads audit row: %w", err)
	}
	return p.queue.Push(ctx, job.ID)
}

// Run drains the queue until ctx is cancelled, observing the shutdown
// signal between envelopes (spec.md §4.3 cancellation semantics). A job
// already in flight finishes its current command batch before Run checks
// ctx again.
func (p *Processor) Run(ctx context.Context) error {
	idleTicks := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		processed, err := p.Tick(ctx)
		if err != nil {
			return err
		}
		if processed {
			idleTicks = 0
		} else {
			idleTicks++
			if idleTicks%20 == 0 {
				slog.Info("processor: queue idle", "idleTicks", idleTicks)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.pollInterval):
			}
		}
	}
}

// Tick drains and dispatches at most one envelope, reporting whether it
// found work. Exported so the CLI and tests can single-step the processor.
func (p *Processor) Tick(ctx context.Context) (bool, error) {
	env, index, ok, err := p.selectNext(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	removed, err := p.queue.Remove(ctx, index, env.JobID)
	if err != nil {
		return false, fmt.Errorf("processor: remove job %d from queue: %w", env.JobID, err)
	}
	if !removed {
		// Another worker (or a concurrent push) shifted the list underneath
		// us; abandon this pass and let the next Tick re-read fresh
		// positions (spec.md §4.3 step 4).
		return true, nil
	}

	p.dispatch(ctx, env)
	return true, nil
}

// selectNext reads the full queue, decodes every envelope, and returns the
// one with the smallest spawn-proximity distance along with the list index
// it was observed at (spec.md §4.3 steps 1-3).
func (p *Processor) selectNext(ctx context.Context) (jobs.Envelope, int64, bool, error) {
	ids, err := p.queue.List(ctx)
	if err != nil {
		return jobs.Envelope{}, 0, false, fmt.Errorf("processor: list queue: %w", err)
	}
	if len(ids) == 0 {
		return jobs.Envelope{}, 0, false, nil
	}

	envelopes := make([]jobs.Envelope, 0, len(ids))
	indexByJobID := make(map[int64]int64, len(ids))
	for i, id := range ids {
		job, err := p.store.GetJob(ctx, id)
		if err != nil {
			slog.Warn("processor: queued job id missing from catalogue", "jobId", id, "error", err)
			continue
		}
		env := jobs.FromJob(job)
		envelopes = append(envelopes, env)
		indexByJobID[id] = int64(i)
	}
	if len(envelopes) == 0 {
		return jobs.Envelope{}, 0, false, nil
	}

	ordered := jobs.Drain(envelopes, p.geo)
	best := ordered[0]
	return best, indexByJobID[best.JobID], true, nil
}

// dispatch runs one envelope end to end: InProgress -> handler ->
// Completed/retry/Failed, plus post-hooks on success (spec.md §4.3 dispatch).
func (p *Processor) dispatch(ctx context.Context, env jobs.Envelope) {
	if err := p.store.MarkJobInProgress(ctx, env.JobID); err != nil {
		slog.Error("processor: mark in progress", "jobId", env.JobID, "error", err)
		return
	}
	job, err := p.store.GetJob(ctx, env.JobID)
	if err != nil {
		slog.Error("processor: reload job after marking in progress", "jobId", env.JobID, "error", err)
		return
	}

	handlerErr := p.handle(ctx, env)
	if handlerErr == nil {
		if err := p.store.MarkJobCompleted(ctx, env.JobID); err != nil {
			slog.Error("processor: mark completed", "jobId", env.JobID, "error", err)
		}
		p.postHooks(ctx, env)
		return
	}

	if !jobs.IsRetryable(handlerErr) || job.Attempts >= jobs.MaxAttempts {
		if err := p.store.MarkJobFailed(ctx, env.JobID, handlerErr.Error()); err != nil {
			slog.Error("processor: mark failed", "jobId", env.JobID, "error", err)
		}
		return
	}

	slog.Warn("processor: job failed, scheduling retry", "jobId", env.JobID, "type", env.Type, "attempt", job.Attempts, "error", handlerErr)
	p.clock.Sleep(time.Duration(jobs.Backoff(job.Attempts)) * time.Second)
	if err := p.store.SetJobPendingForRetry(ctx, env.JobID, handlerErr.Error()); err != nil {
		slog.Error("processor: set pending for retry", "jobId", env.JobID, "error", err)
		return
	}
	if err := p.queue.Push(ctx, env.JobID); err != nil {
		slog.Error("processor: re-push job for retry", "jobId", env.JobID, "error", err)
	}
}

func (p *Processor) handle(ctx context.Context, env jobs.Envelope) error {
	switch env.Type {
	case catalogue.JobCreateVillage:
		return p.handleCreateVillage(ctx, env)
	case catalogue.JobArchiveVillage:
		return nil // cascaded ArchiveBuilding jobs do the actual world-gen work
	case catalogue.JobCreateBuilding:
		return p.handleCreateBuilding(ctx, env)
	case catalogue.JobUpdateBuilding:
		return p.handleUpdateBuilding(ctx, env)
	case catalogue.JobArchiveBuilding:
		return p.handleArchiveBuilding(ctx, env)
	case catalogue.JobCreateTrack:
		return p.handleCreateTrack(ctx, env)
	case catalogue.JobCreateCrossroads:
		return p.handleCreateCrossroads(ctx, env)
	default:
		return fmt.Errorf("processor: unknown job type %q", env.Type)
	}
}

func (p *Processor) handleCreateVillage(ctx context.Context, env jobs.Envelope) error {
	payload, err := env.DecodeVillage()
	if err != nil {
		return err
	}
	channels, err := p.store.ListChannelsByGroup(ctx, payload.GroupID, false)
	if err != nil {
		return jobs.Retryable(fmt.Errorf("list channels for village %d: %w", payload.GroupID, err))
	}
	cmds := village.Generate(p.geo, worldgen.Point{X: payload.CenterX, Z: payload.CenterZ}, payload.Name, len(channels))
	if _, err := p.rcon.Batch(ctx, cmds); err != nil {
		return jobs.Retryable(fmt.Errorf("village batch: %w", err))
	}
	return nil
}

func (p *Processor) handleCreateBuilding(ctx context.Context, env jobs.Envelope) error {
	payload, err := env.DecodeBuilding()
	if err != nil {
		return err
	}
	center := worldgen.Point{X: payload.GroupCenterX, Z: payload.GroupCenterZ}
	bpt := p.geo.BuildingPlace(center, payload.BuildingIndex)
	cmds := building.Generate(building.Params{
		Geo: p.geo, Center: center, Building: bpt,
		ChannelID: payload.ChannelID, ChannelName: payload.ChannelName,
		Topic: payload.Topic, MemberCount: payload.MemberCount,
	})
	if _, err := p.rcon.Batch(ctx, cmds); err != nil {
		return jobs.Retryable(fmt.Errorf("building batch: %w", err))
	}
	if err := p.store.SetChannelBuildCoords(ctx, payload.ChannelID, bpt.X, bpt.Z); err != nil {
		return fmt.Errorf("persist building coords: %w", err)
	}
	return nil
}

func (p *Processor) handleUpdateBuilding(ctx context.Context, env jobs.Envelope) error {
	payload, err := env.DecodeUpdateBuilding()
	if err != nil {
		return err
	}
	center := worldgen.Point{X: payload.GroupCenterX, Z: payload.GroupCenterZ}
	bpt := p.geo.BuildingPlace(center, payload.BuildingIndex)
	dims := building.DimsFor(p.geo, payload.MemberCount)

	b := build.New()
	b.Lectern(bpt.X, p.geo.BaseY+1, bpt.Z+dims.Half-1, "Pinned Message", payload.PinAuthor, pinPages(payload.PinAuthor, payload.PinContent, payload.PinTimestamp))
	if _, err := p.rcon.Batch(ctx, b.Commands()); err != nil {
		return jobs.Retryable(fmt.Errorf("update building batch: %w", err))
	}
	return nil
}

func (p *Processor) handleArchiveBuilding(ctx context.Context, env jobs.Envelope) error {
	payload, err := env.DecodeArchiveBuilding()
	if err != nil {
		return err
	}
	center := worldgen.Point{X: payload.GroupCenterX, Z: payload.GroupCenterZ}
	// memberCount isn't carried on ArchiveBuildingPayload, and the sign and
	// doorway positions (Half) and the floor count all depend on its tier,
	// so it is read from the channel row. If the row cannot be read, a
	// mid-size member count and the external ID stand in.
	memberCount, name := 15, payload.ExternalID
	if ch, err := p.store.GetChannel(ctx, payload.ChannelID); err == nil {
		memberCount, name = ch.MemberCount, ch.Name
	}
	cmds := archiver.Generate(archiver.Params{
		Geo: p.geo, Center: center, BuildingIndex: payload.BuildingIndex,
		ChannelName: name, MemberCount: memberCount,
	})
	if _, err := p.rcon.Batch(ctx, cmds); err != nil {
		return jobs.Retryable(fmt.Errorf("archive building batch: %w", err))
	}
	return nil
}

func (p *Processor) handleCreateTrack(ctx context.Context, env jobs.Envelope) error {
	payload, err := env.DecodeTrack()
	if err != nil {
		return err
	}
	src := worldgen.Point{X: payload.SourceCenterX, Z: payload.SourceCenterZ}
	dst := worldgen.Point{X: payload.DestCenterX, Z: payload.DestCenterZ}
	destIsHub := dst.X == 0 && dst.Z == 0
	cmds := track.Generate(p.geo, src, dst, destIsHub, payload.DestName)
	if _, err := p.rcon.Batch(ctx, cmds); err != nil {
		return jobs.Retryable(fmt.Errorf("track batch: %w", err))
	}
	return nil
}

func (p *Processor) handleCreateCrossroads(ctx context.Context, env jobs.Envelope) error {
	cmds := hub.Generate(p.geo)
	if _, err := p.rcon.Batch(ctx, cmds); err != nil {
		return jobs.Retryable(fmt.Errorf("hub batch: %w", err))
	}
	return nil
}

// postHooks runs the best-effort side effects spec.md §4.3 attaches to a
// successful dispatch: marker upserts/archives, a tellraw broadcast, and
// (CreateVillage only) enqueuing the hub-and-spoke CreateTrack follow-up.
func (p *Processor) postHooks(ctx context.Context, env jobs.Envelope) {
	switch env.Type {
	case catalogue.JobCreateVillage:
		payload, err := env.DecodeVillage()
		if err != nil {
			return
		}
		p.upsertMarker(ctx, villageMarkerID(payload.GroupID), payload.Name, payload.CenterX, p.geo.BaseY, payload.CenterZ, "village")
		p.broadcast(ctx, fmt.Sprintf("%s has been founded!", payload.Name))
		p.enqueueTrackToHub(ctx, payload)

	case catalogue.JobCreateBuilding:
		payload, err := env.DecodeBuilding()
		if err != nil {
			return
		}
		center := worldgen.Point{X: payload.GroupCenterX, Z: payload.GroupCenterZ}
		bpt := p.geo.BuildingPlace(center, payload.BuildingIndex)
		p.upsertMarker(ctx, buildingMarkerID(payload.ChannelID), payload.ChannelName, bpt.X, p.geo.BaseY, bpt.Z, "building")
		p.broadcast(ctx, fmt.Sprintf("%s has been built!", payload.ChannelName))

	case catalogue.JobArchiveBuilding:
		payload, err := env.DecodeArchiveBuilding()
		if err != nil {
			return
		}
		p.archiveMarker(ctx, buildingMarkerID(payload.ChannelID))

	case catalogue.JobArchiveVillage:
		payload, err := env.DecodeArchiveVillage()
		if err != nil {
			return
		}
		p.archiveMarker(ctx, villageMarkerID(payload.GroupID))

	case catalogue.JobCreateCrossroads:
		p.broadcast(ctx, "The Crossroads are open!")
	}
}

func villageMarkerID(groupID int64) string    { return fmt.Sprintf("village-%d", groupID) }
func buildingMarkerID(channelID int64) string { return fmt.Sprintf("building-%d", channelID) }

func (p *Processor) enqueueTrackToHub(ctx context.Context, v jobs.VillagePayload) {
	payload := jobs.TrackPayload{
		SourceExternalID: v.ExternalID,
		SourceCenterX:    v.CenterX,
		SourceCenterZ:    v.CenterZ,
		DestCenterX:      0,
		DestCenterZ:      0,
		DestName:         "Crossroads",
	}
	raw, err := jobs.Encode(payload)
	if err != nil {
		slog.Error("processor: encode CreateTrack payload", "error", err)
		return
	}
	job, err := p.store.CreateJob(ctx, catalogue.JobCreateTrack, raw)
	if err != nil {
		slog.Error("processor: create CreateTrack audit row", "error", err)
		return
	}
	if err := p.queue.Push(ctx, job.ID); err != nil {
		slog.Error("processor: push CreateTrack job", "jobId", job.ID, "error", err)
	}
}

func (p *Processor) upsertMarker(ctx context.Context, id, label string, x, y, z int, icon string) {
	if p.markers == nil {
		return
	}
	if err := p.markers.UpsertMarker(ctx, plugin.Marker{ID: id, Label: label, X: x, Y: y, Z: z, Icon: icon}); err != nil {
		slog.Warn("processor: marker upsert failed", "id", id, "error", err)
	}
}

func (p *Processor) archiveMarker(ctx context.Context, id string) {
	if p.markers == nil {
		return
	}
	if err := p.markers.ArchiveMarker(ctx, id); err != nil {
		slog.Warn("processor: marker archive failed", "id", id, "error", err)
	}
}

func (p *Processor) broadcast(ctx context.Context, message string) {
	cmds := build.New().Tellraw("@a", message).Commands()
	if _, err := p.rcon.Batch(ctx, cmds); err != nil {
		slog.Warn("processor: tellraw broadcast failed", "error", err)
	}
}

func pinPages(author, content string, ts time.Time) []build.BookPage {
	page := build.BookPage{Lines: []build.BookLine{{Text: fmt.Sprintf("Pinned by %s", author), Bold: true}}}
	for _, line := range wrapPinContent(content) {
		page.Lines = append(page.Lines, build.BookLine{Text: line})
	}
	page.Lines = append(page.Lines, build.BookLine{Text: ts.Format("2006-01-02 15:04"), Color: "gray"})
	return []build.BookPage{page}
}

// wrapPinContent wraps at the written-book page's default line width.
func wrapPinContent(content string) []string {
	const width = 19
	var lines []string
	for len(content) > 0 {
		if len(content) <= width {
			lines = append(lines, content)
			break
		}
		lines = append(lines, content[:width])
		content = content[width:]
	}
	return lines
}
