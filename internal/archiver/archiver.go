// Package archiver implements the archiver (C10, spec.md §4.10): given a
// building's village center and index, it recomputes the building's
// placement and emits the command batch that marks it archived in place —
// it does not touch the catalogue or the plugin marker endpoint, both of
// which the job processor (C5) already owns for every job type.
package archiver

import (
	"github.com/townforge/townforge/internal/worldgen"
	"github.com/townforge/townforge/internal/worldgen/build"
	"github.com/townforge/townforge/internal/worldgen/building"
)

// Params bundles what Generate needs to archive a single building.
type Params struct {
	Geo           worldgen.Geometry
	Center        worldgen.Point // the owning village's center
	BuildingIndex int
	ChannelName   string
	MemberCount   int
}

// Generate recomputes (bx, bz) via the same placement formula the building
// generator (C8) used, then re-signs the building with a leading red
// [Archived] line on every sign and seals its south doorway with barrier
// blocks (spec.md §4.10 steps 1-2; step 3, the marker POST, is the caller's
// responsibility since it is best-effort catalogue/plugin I/O, not a
// command batch).
func Generate(p Params) []string {
	bpt := p.Geo.BuildingPlace(p.Center, p.BuildingIndex)
	dims := building.DimsFor(p.Geo, p.MemberCount)
	y := p.Geo.BaseY
	b := build.New()

	b.ArchivedSign(bpt.X, y+dims.FloorH, bpt.Z+dims.Half, build.South, [3]string{p.ChannelName, "", ""})
	for floor := 0; floor < dims.Floors; floor++ {
		fy := y + floor*dims.FloorH + 1
		label := archivedFloorLabel(floor)
		b.ArchivedSign(bpt.X, fy, bpt.Z+dims.Half-1, build.South, [3]string{label, "", ""})
	}

	b.Fill(bpt.X-1, y, bpt.Z+dims.Half-1, bpt.X+1, y+2, bpt.Z+dims.Half, "minecraft:barrier")
	return b.Commands()
}

func archivedFloorLabel(floor int) string {
	switch floor {
	case 0:
		return "Ground Floor"
	default:
		return "Floor"
	}
}
