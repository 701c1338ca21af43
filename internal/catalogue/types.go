package catalogue

import "time"

// Group is the durable representation of a chat category (spec.md §3).
type Group struct {
	ID           int64     `json:"id"`
	ExternalID   string    `json:"externalId"`
	GuildID      string    `json:"guildId"`
	Name         string    `json:"name"`
	Position     int       `json:"position"`
	VillageIndex int       `json:"villageIndex"`
	CenterX      int       `json:"centerX"`
	CenterZ      int       `json:"centerZ"`
	IsArchived   bool      `json:"isArchived"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Channel is the durable representation of a text channel (spec.md §3).
type Channel struct {
	ID            int64     `json:"id"`
	ExternalID    string    `json:"externalId"`
	GroupID       int64     `json:"groupId"`
	Name          string    `json:"name"`
	Topic         *string   `json:"topic,omitempty"`
	MemberCount   int       `json:"memberCount"`
	Position      int       `json:"position"`
	BuildingIndex int       `json:"buildingIndex"`
	BuildingX     *int      `json:"buildingX"`
	BuildingZ     *int      `json:"buildingZ"`
	IsArchived    bool      `json:"isArchived"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Job type and status tags (spec.md §3, GenerationJob).
const (
	JobCreateVillage    = "CreateVillage"
	JobCreateBuilding   = "CreateBuilding"
	JobUpdateBuilding   = "UpdateBuilding"
	JobArchiveBuilding  = "ArchiveBuilding"
	JobArchiveVillage   = "ArchiveVillage"
	JobCreateTrack      = "CreateTrack"
	JobCreateCrossroads = "CreateCrossroads"

	StatusPending    = "Pending"
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
)

// GenerationJob is the audit row for every dispatched world-gen operation
// (spec.md §3, invariant J1).
type GenerationJob struct {
	ID          int64      `json:"id"`
	Type        string     `json:"type"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"lastError,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
