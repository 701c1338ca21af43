// Package village implements the village generator (C7, spec.md §4.6): a
// village's plaza, perimeter wall, fountain, walkway, lighting, signage,
// welcome paths, fence, and station pad.
package village

import (
	"github.com/townforge/townforge/internal/worldgen"
	"github.com/townforge/townforge/internal/worldgen/build"
)

const (
	plazaHalf    = 15 // 31x31 plaza
	wallHeight   = 3
	gateWidth    = 3
	walkwayInset = 5 // FenceRadius - 5
	lightSpacing = 4
)

// Generate emits the full command batch for a village centered at center.
// buildingCount selects the fountain variant (7x7 multi-tier at >=4
// buildings, small 3x3 otherwise — spec.md leaves the choice to the
// implementation).
func Generate(geo worldgen.Geometry, center worldgen.Point, name string, buildingCount int) []string {
	b := build.New()
	cx, cz := center.X, center.Z
	y := geo.BaseY

	plaza(b, cx, cz, y)
	perimeterWall(b, cx, cz, y)
	fountain(b, cx, cz, y, buildingCount)
	walkway(b, cx, cz, y, geo.FenceRadius)
	lighting(b, cx, cz, y, geo.FenceRadius)
	nameSigns(b, cx, cz, y, name)
	welcomePaths(b, cx, cz, y, geo.FenceRadius)
	fence(b, cx, cz, y, geo.FenceRadius)
	stationPad(b, cx, cz, y, geo.VillageStationOffset)

	return b.Commands()
}

// plaza lays the 31x31 stone-brick surface (step 1).
func plaza(b *build.Builder, cx, cz, y int) {
	b.Fill(cx-plazaHalf, y, cz-plazaHalf, cx+plazaHalf, y, cz+plazaHalf, "minecraft:stone_bricks")
}

// perimeterWall builds a 3-high ring with 3-wide cardinal gaps (step 2).
func perimeterWall(b *build.Builder, cx, cz, y int) {
	half := plazaHalf
	top := y + wallHeight - 1

	// Four full walls, then carve the cardinal gates.
	b.Fill(cx-half, y, cz-half, cx+half, top, cz-half, "minecraft:cobblestone") // north
	b.Fill(cx-half, y, cz+half, cx+half, top, cz+half, "minecraft:cobblestone") // south
	b.Fill(cx-half, y, cz-half, cx-half, top, cz+half, "minecraft:cobblestone") // west
	b.Fill(cx+half, y, cz-half, cx+half, top, cz+half, "minecraft:cobblestone") // east

	gateHalf := gateWidth / 2
	b.Fill(cx-gateHalf, y, cz-half, cx+gateHalf, top, cz-half, "minecraft:air") // north gate
	b.Fill(cx-gateHalf, y, cz+half, cx+gateHalf, top, cz+half, "minecraft:air") // south gate
	b.Fill(cx-half, y, cz-gateHalf, cx-half, top, cz+gateHalf, "minecraft:air") // west gate
	b.Fill(cx+half, y, cz-gateHalf, cx+half, top, cz+gateHalf, "minecraft:air") // east gate
}

// fountain builds either the small single-tier or the multi-tier basin
// (step 3).
func fountain(b *build.Builder, cx, cz, y, buildingCount int) {
	if buildingCount >= 4 {
		multiTierFountain(b, cx, cz, y)
		return
	}
	b.Fill(cx-1, y, cz-1, cx+1, y, cz+1, "minecraft:quartz_block")
	b.Fill(cx-1, y+1, cz-1, cx+1, y+1, cz+1, "minecraft:water")
}

func multiTierFountain(b *build.Builder, cx, cz, y int) {
	b.Fill(cx-3, y, cz-3, cx+3, y, cz+3, "minecraft:quartz_block")
	b.Fill(cx-3, y+1, cz-3, cx+3, y+1, cz+3, "minecraft:water")
	b.Fill(cx-2, y+1, cz-2, cx+2, y+1, cz+2, "minecraft:quartz_block")
	b.Fill(cx-2, y+2, cz-2, cx+2, y+2, cz+2, "minecraft:water")
	b.Fill(cx-1, y+2, cz-1, cx+1, y+2, cz+1, "minecraft:quartz_block")
	b.SetBlock(cx, y+3, cz, "minecraft:sea_lantern")
}

// walkway rings the plaza at radius FenceRadius-5 with cobblestone
// (step 4).
func walkway(b *build.Builder, cx, cz, y, fenceRadius int) {
	r := fenceRadius - walkwayInset
	b.Fill(cx-r, y, cz-r, cx+r, y, cz-r+1, "minecraft:cobblestone")
	b.Fill(cx-r, y, cz+r-1, cx+r, y, cz+r, "minecraft:cobblestone")
	b.Fill(cx-r, y, cz-r, cx-r+1, y, cz+r, "minecraft:cobblestone")
	b.Fill(cx+r-1, y, cz-r, cx+r, y, cz+r, "minecraft:cobblestone")
}

// lighting places glow blocks at wall corners and every 4 blocks along the
// cardinal paths (step 5).
func lighting(b *build.Builder, cx, cz, y, fenceRadius int) {
	half := plazaHalf
	corners := [][2]int{
		{cx - half, cz - half}, {cx + half, cz - half},
		{cx - half, cz + half}, {cx + half, cz + half},
	}
	for _, c := range corners {
		b.SetBlock(c[0], y+2, c[1], "minecraft:glowstone")
	}
	for d := half; d <= fenceRadius; d += lightSpacing {
		b.SetBlock(cx, y+1, cz-d, "minecraft:glowstone")
		b.SetBlock(cx, y+1, cz+d, "minecraft:glowstone")
		b.SetBlock(cx-d, y+1, cz, "minecraft:glowstone")
		b.SetBlock(cx+d, y+1, cz, "minecraft:glowstone")
	}
}

// nameSigns places the village name on the four faces of the fountain
// basin (step 6).
func nameSigns(b *build.Builder, cx, cz, y int, name string) {
	lines := [4]string{name, "", "", ""}
	b.WallSign(cx, y+1, cz-2, build.South, lines)
	b.WallSign(cx, y+1, cz+2, build.North, lines)
	b.WallSign(cx-2, y+1, cz, build.East, lines)
	b.WallSign(cx+2, y+1, cz, build.West, lines)
}

// welcomePaths extends a path from each cardinal gate out to the fence
// line (step 7).
func welcomePaths(b *build.Builder, cx, cz, y, fenceRadius int) {
	half := plazaHalf
	b.Fill(cx-1, y, cz-fenceRadius, cx+1, y, cz-half, "minecraft:gravel")
	b.Fill(cx-1, y, cz+half, cx+1, y, cz+fenceRadius, "minecraft:gravel")
	b.Fill(cx-fenceRadius, y, cz-1, cx-half, y, cz+1, "minecraft:gravel")
	b.Fill(cx+half, y, cz-1, cx+fenceRadius, y, cz+1, "minecraft:gravel")
}

// fence rings the village at FenceRadius with 3-wide cardinal gates
// (step 8).
func fence(b *build.Builder, cx, cz, y, fenceRadius int) {
	r := fenceRadius
	b.Fill(cx-r, y+1, cz-r, cx+r, y+1, cz-r, "minecraft:oak_fence")
	b.Fill(cx-r, y+1, cz+r, cx+r, y+1, cz+r, "minecraft:oak_fence")
	b.Fill(cx-r, y+1, cz-r, cx-r, y+1, cz+r, "minecraft:oak_fence")
	b.Fill(cx+r, y+1, cz-r, cx+r, y+1, cz+r, "minecraft:oak_fence")

	gateHalf := gateWidth / 2
	b.Fill(cx-gateHalf, y+1, cz-r, cx+gateHalf, y+1, cz-r, "minecraft:air")
	b.Fill(cx-gateHalf, y+1, cz+r, cx+gateHalf, y+1, cz+r, "minecraft:air")
	b.Fill(cx-r, y+1, cz-gateHalf, cx-r, y+1, cz+gateHalf, "minecraft:air")
	b.Fill(cx+r, y+1, cz-gateHalf, cx+r, y+1, cz+gateHalf, "minecraft:air")
}

// stationPad lays the 9x5 pad at the south plaza edge (step 9).
func stationPad(b *build.Builder, cx, cz, y, stationOffset int) {
	sz := cz + stationOffset
	b.Fill(cx-4, y, sz-2, cx+4, y, sz+2, "minecraft:stone_brick_slab")
	b.Fill(cx-1, y, sz-2, cx+1, y, sz+2, "minecraft:powered_rail")
	b.WallSign(cx, y+1, sz+2, build.South, [4]string{"Station", "", "", ""})
}
