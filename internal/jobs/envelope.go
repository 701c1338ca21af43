package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/townforge/townforge/internal/catalogue"
)

// Envelope decodes a catalogue.GenerationJob's opaque payload into the
// concrete type matching its Type tag. Handlers in internal/processor call
// the Decode* helper for their own type and ignore the rest.
type Envelope struct {
	JobID int64
	Type  string
	Raw   json.RawMessage
}

// FromJob wraps a catalogue row for decoding. The row's Payload column is
// already a JSON string; Raw just aliases its bytes.
func FromJob(j *catalogue.GenerationJob) Envelope {
	return Envelope{JobID: j.ID, Type: j.Type, Raw: json.RawMessage(j.Payload)}
}

func (e Envelope) DecodeVillage() (VillagePayload, error) {
	var p VillagePayload
	err := e.decode(catalogue.JobCreateVillage, &p)
	return p, err
}

func (e Envelope) DecodeArchiveVillage() (VillagePayload, error) {
	var p VillagePayload
	err := e.decode(catalogue.JobArchiveVillage, &p)
	return p, err
}

func (e Envelope) DecodeBuilding() (BuildingPayload, error) {
	var p BuildingPayload
	err := e.decode(catalogue.JobCreateBuilding, &p)
	return p, err
}

func (e Envelope) DecodeUpdateBuilding() (UpdateBuildingPayload, error) {
	var p UpdateBuildingPayload
	err := e.decode(catalogue.JobUpdateBuilding, &p)
	return p, err
}

func (e Envelope) DecodeArchiveBuilding() (ArchiveBuildingPayload, error) {
	var p ArchiveBuildingPayload
	err := e.decode(catalogue.JobArchiveBuilding, &p)
	return p, err
}

func (e Envelope) DecodeTrack() (TrackPayload, error) {
	var p TrackPayload
	err := e.decode(catalogue.JobCreateTrack, &p)
	return p, err
}

func (e Envelope) decode(want string, dst any) error {
	if e.Type != want {
		return fmt.Errorf("jobs: envelope type %q does not match expected %q", e.Type, want)
	}
	if err := json.Unmarshal(e.Raw, dst); err != nil {
		return fmt.Errorf("jobs: decode %s payload for job %d: %w", e.Type, e.JobID, err)
	}
	return nil
}

// Encode marshals a payload for CreateJob/catalogue storage. Callers pass
// the matching catalogue.Job* type constant alongside the result.
func Encode(payload any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("jobs: encode payload: %w", err)
	}
	return string(b), nil
}
