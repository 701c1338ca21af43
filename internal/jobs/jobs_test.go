package jobs

import (
	"errors"
	"testing"

	"github.com/townforge/townforge/internal/catalogue"
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

func envelopeFor(t *testing.T, jobType string, payload any) Envelope {
	t.Helper()
	raw, err := Encode(payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return FromJob(&catalogue.GenerationJob{ID: 1, Type: jobType, Payload: raw})
}

func TestEnvelopeRoundTripsVillagePayload(t *testing.T) {
	want := VillagePayload{GroupID: 7, ExternalID: "G-1", VillageIndex: 2, CenterX: 175, CenterZ: 0}
	e := envelopeFor(t, catalogue.JobCreateVillage, want)

	got, err := e.DecodeVillage()
	if err != nil {
		t.Fatalf("DecodeVillage: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestEnvelopeDecodeRejectsWrongType(t *testing.T) {
	e := envelopeFor(t, catalogue.JobCreateVillage, VillagePayload{})
	if _, err := e.DecodeBuilding(); err == nil {
		t.Fatalf("expected error decoding building payload from a village envelope")
	}
}

func TestRetryableErrorWraps(t *testing.T) {
	base := errors.New("connection reset")
	err := Retryable(base)
	if !IsRetryable(err) {
		t.Fatalf("expected IsRetryable(err) to be true")
	}
	if !errors.Is(err, err) {
		t.Fatalf("expected errors.Is to see itself")
	}
	var re *RetryableError
	if !errors.As(err, &re) || re.Err != base {
		t.Fatalf("expected unwrap to reach the base error")
	}
}

func TestRetryableNilPassesThrough(t *testing.T) {
	if Retryable(nil) != nil {
		t.Fatalf("Retryable(nil) must return nil")
	}
}

func TestBackoffSchedule(t *testing.T) {
	cases := map[int]int{1: 2, 2: 4, 3: 8, 4: 8, 0: 2}
	for attempt, want := range cases {
		if got := Backoff(attempt); got != want {
			t.Fatalf("Backoff(%d) = %d, want %d", attempt, got, want)
		}
	}
}

func TestPriorityOrdersCrossroadsFirstThenByDistance(t *testing.T) {
	near := envelopeFor(t, catalogue.JobCreateVillage, VillagePayload{CenterX: 175, CenterZ: 0})
	far := envelopeFor(t, catalogue.JobCreateVillage, VillagePayload{CenterX: 1750, CenterZ: 1750})
	hub := envelopeFor(t, catalogue.JobCreateCrossroads, CrossroadsPayload{})

	ordered := Drain([]Envelope{far, near, hub}, testGeo())
	if ordered[0].Type != catalogue.JobCreateCrossroads {
		t.Fatalf("expected crossroads job first, got %q", ordered[0].Type)
	}
	nearP, _ := ordered[1].DecodeVillage()
	if nearP.CenterX != 175 {
		t.Fatalf("expected nearest village second, got center %+v", nearP)
	}
}

func TestPriorityScoresBuildingJobsByPlacedCoordinateNotGroupCenter(t *testing.T) {
	geo := testGeo()

	// Two buildings in the same group: index 0 places at (-72,-20), index 14
	// places further out at (96,-20). Scoring on GroupCenterX/Z alone would
	// tie these; scoring on BuildingPlace must not.
	near := envelopeFor(t, catalogue.JobCreateBuilding, BuildingPayload{GroupCenterX: 0, GroupCenterZ: 0, BuildingIndex: 0})
	far := envelopeFor(t, catalogue.JobCreateBuilding, BuildingPayload{GroupCenterX: 0, GroupCenterZ: 0, BuildingIndex: 14})

	nearPlaced := geo.BuildingPlace(worldgen.Point{X: 0, Z: 0}, 0)
	farPlaced := geo.BuildingPlace(worldgen.Point{X: 0, Z: 0}, 14)
	if worldgen.Distance(nearPlaced) == worldgen.Distance(farPlaced) {
		t.Fatalf("test fixture invalid: expected placed coordinates to differ in distance")
	}

	ordered := Drain([]Envelope{far, near}, geo)
	gotFirst, _ := ordered[0].DecodeBuilding()
	if gotFirst.BuildingIndex != 0 {
		t.Fatalf("expected the closer-placed building (index 0) to dequeue first, got index %d", gotFirst.BuildingIndex)
	}
}

func TestPriorityScoresCreateTrackByMidpoint(t *testing.T) {
	geo := testGeo()

	// A track whose source is far from spawn but destination is the hub
	// (0,0) should score near the midpoint, not the far source alone.
	farSourceNearDest := envelopeFor(t, catalogue.JobCreateTrack, TrackPayload{
		SourceCenterX: 1750, SourceCenterZ: 0, DestCenterX: 0, DestCenterZ: 0,
	})
	nearSourceFarDest := envelopeFor(t, catalogue.JobCreateTrack, TrackPayload{
		SourceCenterX: 175, SourceCenterZ: 0, DestCenterX: 1750, DestCenterZ: 1750,
	})

	gotScore := Priority(farSourceNearDest, geo)
	wantScore := worldgen.Distance(worldgen.Midpoint(worldgen.Point{X: 1750, Z: 0}, worldgen.Point{}))
	if gotScore != wantScore {
		t.Fatalf("Priority(CreateTrack) = %v, want midpoint distance %v", gotScore, wantScore)
	}

	otherScore := Priority(nearSourceFarDest, geo)
	if gotScore >= otherScore {
		t.Fatalf("expected far-source/near-dest track (midpoint close to hub) to score lower than near-source/far-dest track")
	}
}
