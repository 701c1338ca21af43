// Package track implements the rail corridor generator (C9, spec.md §4.9):
// an L-shaped powered-rail corridor between a village and its destination
// (almost always the hub), with a station pad at each end.
package track

import (
	"github.com/townforge/townforge/internal/worldgen"
	"github.com/townforge/townforge/internal/worldgen/build"
)

const (
	trackY      = -59
	trackbedY   = -60
	railSpacing = 8
)

// Generate emits the full command batch for a track corridor from
// src to dst. If dst is the hub origin (0,0), the destination station sits
// on one of the hub's 16 radial slots rather than a plain south offset.
func Generate(geo worldgen.Geometry, src, dst worldgen.Point, destIsHub bool, destName string) []string {
	b := build.New()

	srcStation := worldgen.Point{X: src.X, Z: src.Z + geo.VillageStationOffset}

	var dstStation worldgen.Point
	if destIsHub {
		_, dstStation = geo.StationSlot(src)
	} else {
		dstStation = worldgen.Point{X: dst.X, Z: dst.Z + geo.VillageStationOffset}
	}

	corner := worldgen.Point{X: dstStation.X, Z: srcStation.Z}

	forceloadCorridor(b, srcStation, dstStation)
	layTrackbed(b, srcStation, corner)
	layTrackbed(b, corner, dstStation)
	layRails(b, srcStation, corner, false)
	layRails(b, corner, dstStation, true)
	placeCornerRail(b, corner)
	stationPad(b, srcStation, destName, false)
	stationPad(b, dstStation, destName, true)

	return b.Commands()
}

func forceloadCorridor(b *build.Builder, a, bPt worldgen.Point) {
	x1, x2 := minMax(a.X, bPt.X)
	z1, z2 := minMax(a.Z, bPt.Z)
	b.Forceload("add", x1-2, z1-2, x2+2, z2+2)
}

// layTrackbed fills a single-block-wide stone-brick bed along the X-first
// or Z-first leg between a and bPt, then clears two blocks of air above it.
func layTrackbed(b *build.Builder, a, bPt worldgen.Point) {
	if a.Z == bPt.Z {
		x1, x2 := minMax(a.X, bPt.X)
		b.Fill(x1, trackbedY, a.Z, x2, trackbedY, a.Z, "minecraft:stone_bricks")
		b.Fill(x1, trackY, a.Z, x2, trackY+1, a.Z, "minecraft:air")
	} else {
		z1, z2 := minMax(a.Z, bPt.Z)
		b.Fill(a.X, trackbedY, z1, a.X, trackbedY, z2, "minecraft:stone_bricks")
		b.Fill(a.X, trackY, z1, a.X, trackY+1, z2, "minecraft:air")
	}
}

// layRails places powered rail every railSpacing blocks (with a redstone
// block beneath) and ordinary rail elsewhere, skipping the corner block —
// that is placed last by placeCornerRail once both neighbors exist.
func layRails(b *build.Builder, a, bPt worldgen.Point, excludeStart bool) {
	if a.Z == bPt.Z {
		x1, x2 := minMax(a.X, bPt.X)
		shape := "east_west"
		for x := x1; x <= x2; x++ {
			if (x == a.X && excludeStart) || x == bPt.X {
				continue
			}
			placeRail(b, x, a.Z, x-x1, shape)
		}
		return
	}
	z1, z2 := minMax(a.Z, bPt.Z)
	shape := "north_south"
	for z := z1; z <= z2; z++ {
		if (z == a.Z && excludeStart) || z == bPt.Z {
			continue
		}
		placeRail(b, a.X, z, z-z1, shape)
	}
}

func placeRail(b *build.Builder, x, z, offsetFromStart int, shape string) {
	if offsetFromStart%railSpacing == 0 {
		b.SetBlock(x, trackbedY, z, "minecraft:redstone_block")
		b.SetBlock(x, trackY, z, "minecraft:powered_rail[shape="+shape+",powered=true]")
		return
	}
	b.SetBlock(x, trackY, z, "minecraft:rail[shape="+shape+"]")
}

// placeCornerRail places the corner block last so the engine's auto-curve
// detection sees both neighboring rails already in place.
func placeCornerRail(b *build.Builder, corner worldgen.Point) {
	b.SetBlock(corner.X, trackY, corner.Z, "minecraft:rail[shape=south_east]")
}

// stationPad lays the 9-long x 5-wide platform oriented along Z, with a
// minecart dispenser, button, and signage at the appropriate ends.
func stationPad(b *build.Builder, center worldgen.Point, destName string, isDestination bool) {
	cx, cz := center.X, center.Z
	b.Fill(cx-2, trackY, cz-4, cx+2, trackY, cz+4, "minecraft:stone_brick_slab")
	b.Fill(cx, trackY+1, cz-4, cx, trackY+1, cz+4, "minecraft:rail")

	b.SetBlock(cx-2, trackY+1, cz+4, "minecraft:dispenser[facing=up]")
	b.SetBlock(cx-2, trackY+1, cz+3, "minecraft:oak_button")

	if isDestination {
		b.WallSign(cx, trackY+2, cz+4, build.South, [4]string{"Arrivals", destName, "", ""})
	} else {
		b.WallSign(cx, trackY+2, cz+4, build.South, [4]string{"Departures", "to " + destName, "", ""})
	}
}

func minMax(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
