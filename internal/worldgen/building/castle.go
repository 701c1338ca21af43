package building

import "github.com/townforge/townforge/internal/worldgen/build"

// castleTurrets places oak-log corner turrets with slab caps
// (spec.md §4.7 MedievalCastle).
func castleTurrets(b *build.Builder, cx, cz, y int, d Dims) {
	corners := [][2]int{
		{cx - d.Half, cz - d.Half}, {cx + d.Half, cz - d.Half},
		{cx - d.Half, cz + d.Half}, {cx + d.Half, cz + d.Half},
	}
	for _, c := range corners {
		b.Fill(c[0]-1, y, c[1]-1, c[0]+1, d.RoofY+2, c[1]+1, "minecraft:oak_log")
		b.Fill(c[0]-1, d.RoofY+3, c[1]-1, c[0]+1, d.RoofY+3, c[1]+1, "minecraft:oak_slab")
	}
}

// castleWindows places 1x2 arrow-slit gaps at offsets {-6,-3,3,6} per wall
// per floor, reserving the south-face center for the ground-floor entrance.
func castleWindows(b *build.Builder, cx, cz, y int, d Dims) {
	offsets := arrowSlitOffsets(d.Half)
	for floor := 0; floor < d.Floors; floor++ {
		fy := y + floor*d.FloorH + 2
		for _, o := range offsets {
			if floor == 0 && o == 0 {
				continue // ground floor south center reserved for the entrance
			}
			b.Fill(cx+o, fy, cz-d.Half, cx+o, fy+1, cz-d.Half, "minecraft:air")
			if floor != 0 || o != 0 {
				b.Fill(cx+o, fy, cz+d.Half, cx+o, fy+1, cz+d.Half, "minecraft:air")
			}
			b.Fill(cx-d.Half, fy, cz+o, cx-d.Half, fy+1, cz+o, "minecraft:air")
			b.Fill(cx+d.Half, fy, cz+o, cx+d.Half, fy+1, cz+o, "minecraft:air")
		}
	}
}

// arrowSlitOffsets scales the fixed {-6,-3,3,6} offsets from the spec's
// 21-wide reference building to whatever footprint this building uses.
func arrowSlitOffsets(half int) []int {
	const refHalf = 10 // 21-wide reference building's half-width
	base := []int{-6, -3, 3, 6}
	out := make([]int, len(base))
	for i, o := range base {
		out[i] = o * half / refHalf
	}
	return out
}

// castleFurniture builds the throne-room ground floor and the armory
// second floor.
func castleFurniture(b *build.Builder, cx, cz, y int, d Dims) {
	b.Fill(cx-1, y+1, cz-d.Half+2, cx+1, y+1, cz+2, "minecraft:red_carpet")
	b.Fill(cx-1, y+1, cz-d.Half+2, cx+1, y+2, cz-d.Half+2, "minecraft:stone_brick_stairs[facing=south]")
	b.SetBlock(cx, y+2, cz-d.Half+3, "minecraft:oak_stairs[facing=south]")
	b.Fill(cx-3, y+1, cz+d.Half-3, cx+3, y+1, cz+d.Half-3, "minecraft:oak_planks")
	b.Fill(cx-3, y+2, cz+d.Half-4, cx+3, y+2, cz+d.Half-4, "minecraft:oak_slab")

	if d.Floors > 1 {
		fy := y + d.FloorH
		b.SetBlock(cx-2, fy+1, cz-2, "minecraft:anvil")
		b.SetBlock(cx-2, fy+1, cz, "minecraft:smithing_table")
		b.SetBlock(cx-2, fy+1, cz+2, "minecraft:grindstone")
		b.SetBlock(cx+2, fy+1, cz-2, "minecraft:armor_stand")
		b.SetBlock(cx+2, fy+1, cz+2, "minecraft:armor_stand")
	}
}
