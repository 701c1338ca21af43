package jobs

import (
	"github.com/townforge/townforge/internal/catalogue"
	"github.com/townforge/townforge/internal/worldgen"
)

// Priority scores a job envelope by its distance from the hub origin
// (spec.md §4.3: "the processor drains the queue nearest-to-spawn-first, so
// that players who are already exploring see new construction before
// far-flung, unvisited villages"). Lower scores sort first. Crossroads jobs
// have no coordinate of their own and are always highest priority, since the
// hub is what every spawn-point path crosses.
//
// Building jobs score on their own placed coordinate
// (geo.BuildingPlace(groupCenter, buildingIndex)), not the group's center,
// so that a village with several buildings at different offsets from its
// center dequeues in true spawn-proximity order rather than all buildings
// in a group tying on the same score. CreateTrack scores on the midpoint of
// its source and destination, since the corridor itself spans both.
func Priority(e Envelope, geo worldgen.Geometry) float64 {
	switch e.Type {
	case catalogue.JobCreateCrossroads:
		return -1

	case catalogue.JobCreateVillage:
		p, err := e.DecodeVillage()
		if err != nil {
			return worldgen.Distance(worldgen.Point{})
		}
		return worldgen.Distance(worldgen.Point{X: p.CenterX, Z: p.CenterZ})

	case catalogue.JobArchiveVillage:
		p, err := e.DecodeArchiveVillage()
		if err != nil {
			return worldgen.Distance(worldgen.Point{})
		}
		return worldgen.Distance(worldgen.Point{X: p.CenterX, Z: p.CenterZ})

	case catalogue.JobCreateBuilding:
		p, err := e.DecodeBuilding()
		if err != nil {
			return worldgen.Distance(worldgen.Point{})
		}
		placed := geo.BuildingPlace(worldgen.Point{X: p.GroupCenterX, Z: p.GroupCenterZ}, p.BuildingIndex)
		return worldgen.Distance(placed)

	case catalogue.JobUpdateBuilding:
		p, err := e.DecodeUpdateBuilding()
		if err != nil {
			return worldgen.Distance(worldgen.Point{})
		}
		placed := geo.BuildingPlace(worldgen.Point{X: p.GroupCenterX, Z: p.GroupCenterZ}, p.BuildingIndex)
		return worldgen.Distance(placed)

	case catalogue.JobArchiveBuilding:
		p, err := e.DecodeArchiveBuilding()
		if err != nil {
			return worldgen.Distance(worldgen.Point{})
		}
		placed := geo.BuildingPlace(worldgen.Point{X: p.GroupCenterX, Z: p.GroupCenterZ}, p.BuildingIndex)
		return worldgen.Distance(placed)

	case catalogue.JobCreateTrack:
		p, err := e.DecodeTrack()
		if err != nil {
			return worldgen.Distance(worldgen.Point{})
		}
		mid := worldgen.Midpoint(worldgen.Point{X: p.SourceCenterX, Z: p.SourceCenterZ}, worldgen.Point{X: p.DestCenterX, Z: p.DestCenterZ})
		return worldgen.Distance(mid)

	default:
		return worldgen.Distance(worldgen.Point{})
	}
}
