// Package jobs defines the job-queue envelope and its per-type payloads
// (spec.md §3 "Job envelope", §4.3). Payloads are a tagged variant on
// Envelope.Type with an opaque JSON blob per spec.md §9's "polymorphic job
// payloads" design note: the processor switches on the tag and each handler
// owns parsing its own payload shape.
package jobs

import "time"

// VillagePayload carries everything a CreateVillage/ArchiveVillage handler
// needs without re-querying the catalogue mid-job.
type VillagePayload struct {
	GroupID      int64  `json:"groupId"`
	ExternalID   string `json:"externalId"`
	Name         string `json:"name"`
	VillageIndex int    `json:"villageIndex"`
	CenterX      int    `json:"centerX"`
	CenterZ      int    `json:"centerZ"`
}

// BuildingPayload carries everything a CreateBuilding handler needs
// (spec.md §4.2's ChannelCreated audit payload: group.center, buildingIndex,
// channelName, channelId, topic?, memberCount?).
type BuildingPayload struct {
	ChannelID     int64   `json:"channelId"`
	ExternalID    string  `json:"externalId"`
	GroupID       int64   `json:"groupId"`
	GroupCenterX  int     `json:"groupCenterX"`
	GroupCenterZ  int     `json:"groupCenterZ"`
	BuildingIndex int     `json:"buildingIndex"`
	ChannelName   string  `json:"channelName"`
	Topic         *string `json:"topic,omitempty"`
	MemberCount   int     `json:"memberCount"`
}

// ArchiveBuildingPayload carries the coordinates needed to recompute
// (bx, bz) via BuildingPlace without a catalogue round trip (spec.md §4.10).
type ArchiveBuildingPayload struct {
	ChannelID     int64  `json:"channelId"`
	ExternalID    string `json:"externalId"`
	GroupCenterX  int    `json:"groupCenterX"`
	GroupCenterZ  int    `json:"groupCenterZ"`
	BuildingIndex int    `json:"buildingIndex"`
}

// UpdateBuildingPayload carries a pinned-message update for a building's
// signage (spec.md §4.11 POST /api/buildings/{id}/pin).
type UpdateBuildingPayload struct {
	ChannelID     int64     `json:"channelId"`
	ExternalID    string    `json:"externalId"`
	GroupCenterX  int       `json:"groupCenterX"`
	GroupCenterZ  int       `json:"groupCenterZ"`
	BuildingIndex int       `json:"buildingIndex"`
	MemberCount   int       `json:"memberCount"`
	PinAuthor     string    `json:"pinAuthor"`
	PinContent    string    `json:"pinContent"`
	PinTimestamp  time.Time `json:"pinTimestamp"`
}

// TrackPayload carries the source/destination centers for the rail corridor
// generator (spec.md §4.9). DestName is "Crossroads" for the hub-and-spoke
// follow-up the processor enqueues after CreateVillage completes.
type TrackPayload struct {
	SourceExternalID string `json:"sourceExternalId"`
	SourceCenterX    int    `json:"sourceCenterX"`
	SourceCenterZ    int    `json:"sourceCenterZ"`
	DestCenterX      int    `json:"destCenterX"`
	DestCenterZ      int    `json:"destCenterZ"`
	DestName         string `json:"destName"`
}

// CrossroadsPayload is intentionally empty: the hub is a singleton at (0,0).
type CrossroadsPayload struct{}
