// Package hub implements the Crossroads hub generator (C6, spec.md §4.8):
// the one-shot central plaza every village's track connects to.
package hub

import (
	"fmt"
	"math"

	"github.com/townforge/townforge/internal/worldgen"
	"github.com/townforge/townforge/internal/worldgen/build"
)

const (
	avenueLength = 30
	avenueWidth  = 5
	treeSpacing  = 8
)

// Generate emits the full command batch for the hub. There is exactly one
// hub, always centered at world origin.
func Generate(geo worldgen.Geometry) []string {
	b := build.New()
	y := geo.BaseY
	plazaRadius := geo.CrossroadsPlazaRadius // 61x61 plaza: half-width 30 each side of origin

	forceloadRadius := plazaRadius + avenueLength + 5
	b.Forceload("add", -forceloadRadius, -forceloadRadius, forceloadRadius, forceloadRadius)

	plaza(b, y, plazaRadius)
	fountain(b, y)
	avenues(b, y, plazaRadius)
	stationSlots(b, geo, y)
	welcomeSigns(b, y, plazaRadius)
	tourTrigger(b, y)
	b.SetWorldSpawn(0, y+1, 0)

	b.Forceload("remove", -forceloadRadius, -forceloadRadius, forceloadRadius, forceloadRadius)
	return b.Commands()
}

// plaza lays the 61x61 surface in alternating stone-brick / polished
// andesite row stripes (step 2) — row-aligned fills, never per-block.
func plaza(b *build.Builder, y, half int) {
	for row := -half; row <= half; row++ {
		block := "minecraft:stone_bricks"
		if row%2 != 0 {
			block = "minecraft:polished_andesite"
		}
		b.Fill(-half, y, row, half, y, row, block)
	}
}

// fountain builds the 15x15 three-tier fountain at origin (step 3).
func fountain(b *build.Builder, y int) {
	b.Fill(-7, y, -7, 7, y, 7, "minecraft:quartz_block")
	b.Fill(-5, y+1, -5, 5, y+1, 5, "minecraft:water")
	b.Fill(-3, y+1, -3, 3, y+1, 3, "minecraft:quartz_block")
	b.Fill(-3, y+2, -3, 3, y+2, 3, "minecraft:water")
	b.Fill(-1, y+2, -1, 1, y+2, 1, "minecraft:quartz_block")
	b.Fill(-1, y+3, -1, 1, y+3, 1, "minecraft:sea_lantern")
	b.SetBlock(0, y+4, 0, "minecraft:glowstone")
}

// avenues extends tree-lined paths from each cardinal plaza edge
// outward (step 4).
func avenues(b *build.Builder, y, plazaHalf int) {
	half := avenueWidth / 2

	// South avenue is fully laid out; the other three follow the same
	// shape rotated, just swapping which axis the avenue runs along.
	layAvenue(b, y, plazaHalf, half, 0, 1)  // south (+Z)
	layAvenue(b, y, plazaHalf, half, 0, -1) // north (-Z)
	layAvenue(b, y, plazaHalf, half, 1, 0)  // east (+X)
	layAvenue(b, y, plazaHalf, half, -1, 0) // west (-X)
}

// layAvenue lays one avenue running in direction (dx, dz) from the plaza
// edge outward for avenueLength blocks, decorated every treeSpacing
// blocks with a tree, a lantern post, a bench, and a flower bed.
func layAvenue(b *build.Builder, y, plazaHalf, half, dx, dz int) {
	start := plazaHalf + 1
	end := plazaHalf + avenueLength

	if dz != 0 {
		z1, z2 := start*dz, end*dz
		if z1 > z2 {
			z1, z2 = z2, z1
		}
		b.Fill(-half, y, z1, half, y, z2, "minecraft:gravel")
	} else {
		x1, x2 := start*dx, end*dx
		if x1 > x2 {
			x1, x2 = x2, x1
		}
		b.Fill(x1, y, -half, x2, y, half, "minecraft:gravel")
	}

	for d := start; d <= end; d += treeSpacing {
		x, z := d*dx, d*dz
		side := half + 1
		if dz != 0 {
			plantTree(b, y, x+side, z)
			plantTree(b, y, x-side, z)
			lanternPost(b, y, x+side+1, z)
			bench(b, y, x-side-1, z)
			flowerBed(b, y, x+side, z+2)
		} else {
			plantTree(b, y, x, z+side)
			plantTree(b, y, x, z-side)
			lanternPost(b, y, x, z+side+1)
			bench(b, y, x, z-side-1)
			flowerBed(b, y, x+2, z+side)
		}
	}
}

func plantTree(b *build.Builder, y, x, z int) {
	b.Fill(x, y+1, z, x, y+4, z, "minecraft:oak_log")
	b.Fill(x-1, y+4, z-1, x+1, y+5, z+1, "minecraft:oak_leaves")
	b.SetBlock(x, y+6, z, "minecraft:oak_leaves")
}

func lanternPost(b *build.Builder, y, x, z int) {
	b.SetBlock(x, y+1, z, "minecraft:oak_fence")
	b.SetBlock(x, y+2, z, "minecraft:lantern[hanging=false]")
}

func bench(b *build.Builder, y, x, z int) {
	b.SetBlock(x, y+1, z, "minecraft:stone_stairs[facing=north]")
}

func flowerBed(b *build.Builder, y, x, z int) {
	b.Fill(x, y+1, z, x+1, y+1, z+1, "minecraft:poppy")
}

// stationSlots generates the 16 evenly-angled radial platforms
// (step 5).
func stationSlots(b *build.Builder, geo worldgen.Geometry, y int) {
	slotWidth := 2 * math.Pi / float64(geo.CrossroadsStationSlots)
	for i := 0; i < geo.CrossroadsStationSlots; i++ {
		angle := float64(i) * slotWidth
		cx := int(math.Round(float64(geo.CrossroadsStationRadius) * math.Cos(angle)))
		cz := int(math.Round(float64(geo.CrossroadsStationRadius) * math.Sin(angle)))
		b.Fill(cx-2, y, cz-1, cx+2, y, cz+1, "minecraft:stone_brick_slab")
		b.WallSign(cx, y+1, cz+1, build.South, [4]string{fmt.Sprintf("Platform %d", i), "", "", ""})
	}
}

// welcomeSigns places signs on fence posts at each avenue entrance
// (step 6).
func welcomeSigns(b *build.Builder, y, plazaHalf int) {
	b.SetBlock(0, y+1, plazaHalf+1, "minecraft:oak_fence")
	b.WallSign(0, y+2, plazaHalf+1, build.South, [4]string{"Welcome to", "the Crossroads", "", ""})
	b.SetBlock(0, y+1, -plazaHalf-1, "minecraft:oak_fence")
	b.WallSign(0, y+2, -plazaHalf-1, build.North, [4]string{"Welcome to", "the Crossroads", "", ""})
	b.SetBlock(plazaHalf+1, y+1, 0, "minecraft:oak_fence")
	b.WallSign(plazaHalf+1, y+2, 0, build.East, [4]string{"Welcome to", "the Crossroads", "", ""})
	b.SetBlock(-plazaHalf-1, y+1, 0, "minecraft:oak_fence")
	b.WallSign(-plazaHalf-1, y+2, 0, build.West, [4]string{"Welcome to", "the Crossroads", "", ""})
}

// tourTrigger places the pressure-plate tour trigger and the lectern
// info-kiosk (step 7).
func tourTrigger(b *build.Builder, y int) {
	b.SetBlock(0, y, 8, "minecraft:gold_block")
	b.SetBlock(0, y+1, 8, "minecraft:light_weighted_pressure_plate")

	b.SetBlock(8, y, 0, "minecraft:oak_planks")
	b.SetBlock(8, y+1, 0, "minecraft:lectern")
	b.Lectern(8, y+1, 0, "Townforge Guide", "Crossroads", []build.BookPage{
		{Lines: []build.BookLine{{Text: "Welcome to the Crossroads", Bold: true, Color: "gold"}}},
		{Lines: []build.BookLine{{Text: "Every village connects here by rail."}}},
		{Lines: []build.BookLine{{Text: "Use /goto <building> to travel instantly."}}},
	})
}
