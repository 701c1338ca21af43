// Package building implements the building generator (C8, spec.md §4.7):
// a channel's structure, selected deterministically among three styles,
// scaled to the channel's member count.
package building

import (
	"fmt"
	"strings"

	"github.com/townforge/townforge/internal/worldgen"
	"github.com/townforge/townforge/internal/worldgen/build"
)

// Style is one of the three architectural variants a building can take.
type Style int

const (
	MedievalCastle Style = iota
	TimberCottage
	StoneWatchtower
)

func (s Style) String() string {
	switch s {
	case MedievalCastle:
		return "MedievalCastle"
	case TimberCottage:
		return "TimberCottage"
	case StoneWatchtower:
		return "StoneWatchtower"
	default:
		return "Unknown"
	}
}

// StyleFor picks a building's style deterministically from its channel ID
// (spec.md §4.7: style = |channelId| mod 3).
func StyleFor(channelID int64) Style {
	if channelID < 0 {
		channelID = -channelID
	}
	return Style(channelID % 3)
}

// Dims holds every size-derived constant a style needs; every offset that
// scales with memberCount is computed from this, never hardcoded
// (spec.md §4.7: "no hardcoded 21s").
type Dims struct {
	Footprint  int // odd, e.g. 15/21/27
	Floors     int
	Half       int // Footprint / 2
	FloorH     int // floor-to-floor height
	WallTop    int // BaseY + wall height
	RoofY      int // WallTop + 1
}

// DimsFor exposes a building's size-derived constants to callers outside
// this package that need to locate features on an already-placed building
// without re-running Generate (internal/processor's UpdateBuilding pin
// handler, internal/archiver's re-signing pass).
func DimsFor(geo worldgen.Geometry, memberCount int) Dims {
	return dimsFor(geo, memberCount)
}

func dimsFor(geo worldgen.Geometry, memberCount int) Dims {
	footprint, floors := worldgen.BuildingFootprintFor(memberCount)
	floorH := 5
	wallTop := geo.BaseY + floorH*(floors-1) + 5
	return Dims{
		Footprint: footprint,
		Floors:    floors,
		Half:      footprint / 2,
		FloorH:    floorH,
		WallTop:   wallTop,
		RoofY:     wallTop + 1,
	}
}

// Params bundles everything a generator invocation needs.
type Params struct {
	Geo         worldgen.Geometry
	Center      worldgen.Point // village center (cx, cz) — the walkway starts here
	Building    worldgen.Point // (bx, bz) — this building's placement
	ChannelID   int64
	ChannelName string
	Topic       *string
	MemberCount int
}

// Generate emits the full command batch for one building.
func Generate(p Params) []string {
	style := StyleFor(p.ChannelID)
	dims := dimsFor(p.Geo, p.MemberCount)
	b := build.New()
	y := p.Geo.BaseY
	bx, bz := p.Building.X, p.Building.Z

	forceloadRadius := dims.Half + 10
	b.Forceload("add", bx-forceloadRadius, bz-forceloadRadius, bx+forceloadRadius, bz+forceloadRadius)

	foundation(b, bx, bz, y, dims)
	walls(b, style, bx, bz, y, dims)
	styleExterior(b, style, bx, bz, y, dims)
	clearInterior(b, bx, bz, y, dims)
	intermediateFloors(b, bx, bz, y, dims)
	stairs(b, style, bx, bz, y, dims)
	roof(b, style, bx, bz, y, dims)
	windows(b, style, bx, bz, y, dims)
	entrance(b, bx, bz, y, dims)
	lighting(b, bx, bz, y, dims)
	walkway(b, p.Center, p.Building, y)

	signs(b, style, bx, bz, y, dims, p.ChannelName, p.Topic)
	furniture(b, style, bx, bz, y, dims)

	b.Forceload("remove", bx-forceloadRadius, bz-forceloadRadius, bx+forceloadRadius, bz+forceloadRadius)
	return b.Commands()
}

// walls dispatches to the style's base wall material; corner turrets and
// buttresses (castle/watchtower) are added by styleExterior afterward.
func walls(b *build.Builder, style Style, cx, cz, y int, d Dims) {
	top := d.WallTop
	material := wallMaterial(style)

	b.Fill(cx-d.Half, y, cz-d.Half, cx+d.Half, top, cz-d.Half, material)
	b.Fill(cx-d.Half, y, cz+d.Half, cx+d.Half, top, cz+d.Half, material)
	b.Fill(cx-d.Half, y, cz-d.Half, cx-d.Half, top, cz+d.Half, material)
	b.Fill(cx+d.Half, y, cz-d.Half, cx+d.Half, top, cz+d.Half, material)

	trimWalls(b, style, cx, cz, y, d)
}

// trimWalls adds the MedievalCastle's stone-brick top/bottom trim course;
// the other two styles have no separate trim course.
func trimWalls(b *build.Builder, style Style, cx, cz, y int, d Dims) {
	if style != MedievalCastle {
		return
	}
	b.Fill(cx-d.Half, y, cz-d.Half, cx+d.Half, y, cz+d.Half, "minecraft:stone_bricks")
	b.Fill(cx-d.Half, d.WallTop, cz-d.Half, cx+d.Half, d.WallTop, cz+d.Half, "minecraft:stone_bricks")
}

func wallMaterial(style Style) string {
	switch style {
	case MedievalCastle:
		return "minecraft:cobblestone"
	case TimberCottage:
		return "minecraft:birch_planks"
	case StoneWatchtower:
		return "minecraft:stone_bricks"
	default:
		return "minecraft:stone_bricks"
	}
}

// styleExterior adds the feature each style is graded on: turrets,
// timber framing, or buttresses.
func styleExterior(b *build.Builder, style Style, cx, cz, y int, d Dims) {
	switch style {
	case MedievalCastle:
		castleTurrets(b, cx, cz, y, d)
	case TimberCottage:
		cottageFrame(b, cx, cz, y, d)
	case StoneWatchtower:
		watchtowerButtresses(b, cx, cz, y, d)
	}
}

func foundation(b *build.Builder, cx, cz, y int, d Dims) {
	b.Fill(cx-d.Half, y-1, cz-d.Half, cx+d.Half, y-1, cz+d.Half, "minecraft:stone_bricks")
}

func clearInterior(b *build.Builder, cx, cz, y int, d Dims) {
	b.Fill(cx-d.Half+1, y, cz-d.Half+1, cx+d.Half-1, d.WallTop-1, cz+d.Half-1, "minecraft:air")
}

func intermediateFloors(b *build.Builder, cx, cz, y int, d Dims) {
	for floor := 1; floor < d.Floors; floor++ {
		fy := y + floor*d.FloorH
		b.Fill(cx-d.Half+1, fy, cz-d.Half+1, cx+d.Half-1, fy, cz+d.Half-1, "minecraft:oak_planks")
	}
}

func roof(b *build.Builder, style Style, cx, cz, y int, d Dims) {
	if style == TimberCottage {
		cottageRoof(b, cx, cz, d)
		return
	}
	if style == StoneWatchtower {
		watchtowerCap(b, cx, cz, d)
		return
	}
	// MedievalCastle: crenellated parapet, merlons every 2 blocks.
	b.Fill(cx-d.Half, d.RoofY, cz-d.Half, cx+d.Half, d.RoofY, cz+d.Half, "minecraft:stone_brick_slab")
	for i := -d.Half; i <= d.Half; i += 2 {
		b.SetBlock(cx+i, d.RoofY+1, cz-d.Half, "minecraft:stone_bricks")
		b.SetBlock(cx+i, d.RoofY+1, cz+d.Half, "minecraft:stone_bricks")
		b.SetBlock(cx-d.Half, d.RoofY+1, cz+i, "minecraft:stone_bricks")
		b.SetBlock(cx+d.Half, d.RoofY+1, cz+i, "minecraft:stone_bricks")
	}
}

// stairs places the vertical circulation between floors. All three styles
// use the same NE-corner 3-wide staircase footprint; the stair block
// variant differs by style.
func stairs(b *build.Builder, style Style, cx, cz, y int, d Dims) {
	stairBlock := "minecraft:oak_stairs"
	if style == TimberCottage {
		stairBlock = "minecraft:dark_oak_stairs"
	}
	nx, nz := cx+d.Half-4, cz-d.Half+1
	for floor := 0; floor < d.Floors-1; floor++ {
		fy := y + floor*d.FloorH
		for i := 0; i < d.FloorH; i++ {
			b.Fill(nx, fy+i, nz+i, nx+2, fy+i, nz+i, stairBlock+"[facing=south]")
		}
	}
}

// windows dispatches to the style's window rhythm.
func windows(b *build.Builder, style Style, cx, cz, y int, d Dims) {
	switch style {
	case MedievalCastle:
		castleWindows(b, cx, cz, y, d)
	case TimberCottage:
		cottageWindows(b, cx, cz, y, d)
	case StoneWatchtower:
		watchtowerWindows(b, cx, cz, y, d)
	}
}

// furniture dispatches to the style's ground/upper floor room contents.
func furniture(b *build.Builder, style Style, cx, cz, y int, d Dims) {
	switch style {
	case MedievalCastle:
		castleFurniture(b, cx, cz, y, d)
	case TimberCottage:
		cottageFurniture(b, cx, cz, y, d)
	case StoneWatchtower:
		watchtowerFurniture(b, cx, cz, y, d)
	}
}

func entrance(b *build.Builder, cx, cz, y int, d Dims) {
	b.Fill(cx-1, y, cz+d.Half-1, cx+1, y+2, cz+d.Half, "minecraft:air")
}

func lighting(b *build.Builder, cx, cz, y int, d Dims) {
	for floor := 0; floor < d.Floors; floor++ {
		fy := y + floor*d.FloorH + 3
		b.SetBlock(cx-d.Half+1, fy, cz-d.Half+1, "minecraft:lantern[hanging=false]")
		b.SetBlock(cx+d.Half-1, fy, cz-d.Half+1, "minecraft:lantern[hanging=false]")
		b.SetBlock(cx-d.Half+1, fy, cz+d.Half-1, "minecraft:lantern[hanging=false]")
		b.SetBlock(cx+d.Half-1, fy, cz+d.Half-1, "minecraft:lantern[hanging=false]")
	}
}

// walkway lays the shared 3-wide L-shaped cobblestone path from the
// village center to the building's south entrance (spec.md §4.7).
func walkway(b *build.Builder, center, bld worldgen.Point, y int) {
	corner := worldgen.Point{X: bld.X, Z: center.Z}
	b.Fill(min(center.X, corner.X)-1, y, center.Z-1, max(center.X, corner.X)+1, y, center.Z+1, "minecraft:cobblestone")
	b.Fill(bld.X-1, y, min(center.Z, bld.Z)-1, bld.X+1, y, max(center.Z, bld.Z)+1, "minecraft:cobblestone")
}

func signs(b *build.Builder, style Style, cx, cz, y int, d Dims, name string, topic *string) {
	b.WallSign(cx, y+d.FloorH, cz+d.Half, build.South, [4]string{name, style.String(), "", ""})
	for floor := 0; floor < d.Floors; floor++ {
		fy := y + floor*d.FloorH + 1
		b.WallSign(cx, fy, cz+d.Half-1, build.South, [4]string{fmt.Sprintf("Floor %d", floor+1), "", "", ""})
	}
	if topic != nil && strings.TrimSpace(*topic) != "" {
		t := *topic
		if len(t) > 15*4 {
			t = t[:15*4]
		}
		b.WallSign(cx, y+1, cz+d.Half-1, build.North, splitSignLines(t))
	}
}

func splitSignLines(text string) [4]string {
	var lines [4]string
	for i := 0; i < 4; i++ {
		start := i * 15
		if start >= len(text) {
			break
		}
		end := start + 15
		if end > len(text) {
			end = len(text)
		}
		lines[i] = text[start:end]
	}
	return lines
}
