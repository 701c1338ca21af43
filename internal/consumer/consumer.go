// Package consumer implements the event consumer (C4, spec.md §4.2): it
// turns chat-platform category/channel lifecycle events into catalogue
// mutations and job-queue enqueues. It follows the teacher's
// internal/group.GroupRouter shape — a Run loop that drains a Kafka
// consumer's Messages channel and dispatches by topic/eventType — but
// targets internal/catalogue and internal/jobs instead of the teacher's
// agent message bus.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/townforge/townforge/internal/bus"
	"github.com/townforge/townforge/internal/catalogue"
	"github.com/townforge/townforge/internal/jobs"
)

// Transport is the subset of bus.Consumer the router depends on; tests
// substitute a fake.
type Transport interface {
	Start(ctx context.Context) error
	Messages() <-chan bus.Message
	Close() error
}

// Router drains Transport and reconciles catalogue state (spec.md §4.2).
type Router struct {
	store     *catalogue.Store
	queue     *bus.Queue
	transport Transport
}

// NewRouter builds a Router against the given catalogue store, worldgen
// queue, and message transport.
func NewRouter(store *catalogue.Store, queue *bus.Queue, transport Transport) *Router {
	return &Router{store: store, queue: queue, transport: transport}
}

// Run starts the transport and dispatches messages until ctx is cancelled.
func (r *Router) Run(ctx context.Context) error {
	if err := r.transport.Start(ctx); err != nil {
		return fmt.Errorf("consumer: start transport: %w", err)
	}
	defer r.transport.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-r.transport.Messages():
			if !ok {
				return nil
			}
			r.handle(ctx, msg)
		}
	}
}

// handle processes one message. Per spec.md §4.2's failure semantics, any
// error is caught and logged; the consumer always continues to the next
// message.
func (r *Router) handle(ctx context.Context, msg bus.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("consumer: handler panicked", "topic", msg.Topic, "panic", rec)
		}
	}()

	switch msg.Topic {
	case bus.TopicDiscordChannel:
		r.handleChannelEvent(ctx, msg.Value)
	case bus.TopicMinecraftPlayer:
		r.handlePlayerEvent(msg.Value)
	default:
		slog.Debug("consumer: unhandled topic", "topic", msg.Topic)
	}
}

func (r *Router) handlePlayerEvent(raw []byte) {
	var ev bus.PlayerEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		slog.Warn("consumer: unmarshal player event", "error", err)
		return
	}
	slog.Debug("consumer: player presence", "eventType", ev.EventType, "player", ev.Username)
}

func (r *Router) handleChannelEvent(ctx context.Context, raw []byte) {
	var ev bus.ChannelEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		slog.Warn("consumer: unmarshal channel event", "error", err)
		return
	}

	var err error
	switch ev.EventType {
	case bus.EventGroupCreated:
		err = r.groupCreated(ctx, ev)
	case bus.EventGroupDeleted:
		err = r.groupArchived(ctx, ev)
	case bus.EventChannelCreated:
		err = r.channelCreated(ctx, ev)
	case bus.EventChannelDeleted:
		err = r.channelDeleted(ctx, ev)
	case bus.EventChannelUpdated:
		err = r.channelUpdated(ctx, ev)
	default:
		slog.Warn("consumer: unknown event type", "eventType", ev.EventType)
		return
	}
	if err != nil {
		slog.Error("consumer: handle channel event failed", "eventType", ev.EventType, "externalId", ev.ExternalID, "error", err)
	}
}

// groupCreated implements GroupCreated: upsert the group; on first sight,
// write the CreateVillage audit row and enqueue it.
func (r *Router) groupCreated(ctx context.Context, ev bus.ChannelEvent) error {
	g, created, err := r.store.UpsertGroup(ctx, ev.ExternalID, ev.GuildID, ev.Name, ev.Position)
	if err != nil {
		return fmt.Errorf("upsert group: %w", err)
	}
	if !created {
		return nil
	}
	return r.enqueueVillage(ctx, catalogue.JobCreateVillage, g)
}

// groupArchived implements GroupDeleted: archive the group and every one
// of its non-archived channels, writing an ArchiveVillage audit row and an
// ArchiveBuilding row per archived channel.
func (r *Router) groupArchived(ctx context.Context, ev bus.ChannelEvent) error {
	g, archived, err := r.store.ArchiveGroup(ctx, ev.ExternalID)
	if err != nil {
		if errors.Is(err, catalogue.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("archive group: %w", err)
	}
	if err := r.enqueueVillage(ctx, catalogue.JobArchiveVillage, g); err != nil {
		return err
	}
	for _, c := range archived {
		if err := r.enqueueArchiveBuilding(ctx, g, c); err != nil {
			return err
		}
	}
	return nil
}

// channelCreated implements ChannelCreated: resolve the owning group,
// auto-creating a minimal one to absorb out-of-order delivery, then upsert
// the channel and enqueue CreateBuilding on first sight.
func (r *Router) channelCreated(ctx context.Context, ev bus.ChannelEvent) error {
	g, err := r.store.GetGroupByExternalID(ctx, ev.ParentID)
	if errors.Is(err, catalogue.ErrNotFound) {
		g, _, err = r.store.UpsertGroup(ctx, ev.ParentID, ev.GuildID, ev.ParentID, 0)
	}
	if err != nil {
		return fmt.Errorf("resolve owning group %q: %w", ev.ParentID, err)
	}

	c, created, err := r.store.UpsertChannel(ctx, ev.ExternalID, g, ev.Name, ev.Topic, ev.MemberCount, ev.Position)
	if err != nil {
		return fmt.Errorf("upsert channel: %w", err)
	}
	if !created {
		return nil
	}

	payload := jobs.BuildingPayload{
		ChannelID:     c.ID,
		ExternalID:    c.ExternalID,
		GroupID:       g.ID,
		GroupCenterX:  g.CenterX,
		GroupCenterZ:  g.CenterZ,
		BuildingIndex: c.BuildingIndex,
		ChannelName:   c.Name,
		Topic:         c.Topic,
		MemberCount:   c.MemberCount,
	}
	return r.enqueue(ctx, catalogue.JobCreateBuilding, payload)
}

// channelDeleted implements ChannelDeleted: archive if present and enqueue
// ArchiveBuilding.
func (r *Router) channelDeleted(ctx context.Context, ev bus.ChannelEvent) error {
	c, err := r.store.ArchiveChannel(ctx, ev.ExternalID)
	if errors.Is(err, catalogue.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("archive channel: %w", err)
	}
	g, err := r.store.GetGroup(ctx, c.GroupID)
	if err != nil {
		return fmt.Errorf("resolve channel's group: %w", err)
	}
	return r.enqueueArchiveBuilding(ctx, g, c)
}

// channelUpdated implements ChannelUpdated: only name and topic changes
// propagate to live state; buildingIndex never re-shuffles on a position
// change (spec.md §4.2).
func (r *Router) channelUpdated(ctx context.Context, ev bus.ChannelEvent) error {
	existing, err := r.store.GetChannelByExternalID(ctx, ev.ExternalID)
	if errors.Is(err, catalogue.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve channel: %w", err)
	}

	nameChanged := ev.Name != "" && ev.Name != existing.Name
	topicChanged := !topicEqual(existing.Topic, ev.Topic)
	if !nameChanged && !topicChanged {
		return nil
	}

	name := existing.Name
	if nameChanged {
		name = ev.Name
	}
	topic := existing.Topic
	if topicChanged {
		topic = ev.Topic
	}
	return r.store.UpdateChannelNameTopic(ctx, ev.ExternalID, name, topic)
}

func (r *Router) enqueueVillage(ctx context.Context, jobType string, g *catalogue.Group) error {
	payload := jobs.VillagePayload{
		GroupID:      g.ID,
		ExternalID:   g.ExternalID,
		Name:         g.Name,
		VillageIndex: g.VillageIndex,
		CenterX:      g.CenterX,
		CenterZ:      g.CenterZ,
	}
	return r.enqueue(ctx, jobType, payload)
}

func (r *Router) enqueueArchiveBuilding(ctx context.Context, g *catalogue.Group, c *catalogue.Channel) error {
	payload := jobs.ArchiveBuildingPayload{
		ChannelID:     c.ID,
		ExternalID:    c.ExternalID,
		GroupCenterX:  g.CenterX,
		GroupCenterZ:  g.CenterZ,
		BuildingIndex: c.BuildingIndex,
	}
	return r.enqueue(ctx, catalogue.JobArchiveBuilding, payload)
}

// enqueue writes the audit row then pushes its ID onto the worldgen queue,
// in that order: a lost push leaves a Pending row in the catalogue, which
// the startup reconciliation pass does not re-queue (it re-pushes only
// InProgress rows).
func (r *Router) enqueue(ctx context.Context, jobType string, payload any) error {
	raw, err := jobs.Encode(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", jobType, err)
	}
	job, err := r.store.CreateJob(ctx, jobType, raw)
	if err != nil {
		return fmt.Errorf("create %s audit row: %w", jobType, err)
	}
	if err := r.queue.Push(ctx, job.ID); err != nil {
		return fmt.Errorf("push %s job %d onto queue: %w", jobType, job.ID, err)
	}
	return nil
}

func topicEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
