package building

import "github.com/townforge/townforge/internal/worldgen/build"

// cottageFrame places oak-log frame posts at the corners and wall
// midpoints, the birch-plank infill having already been laid by walls().
func cottageFrame(b *build.Builder, cx, cz, y int, d Dims) {
	corners := [][2]int{
		{cx - d.Half, cz - d.Half}, {cx + d.Half, cz - d.Half},
		{cx - d.Half, cz + d.Half}, {cx + d.Half, cz + d.Half},
	}
	for _, c := range corners {
		b.Fill(c[0], y, c[1], c[0], d.WallTop, c[1], "minecraft:oak_log")
	}
	mids := [][2]int{{cx, cz - d.Half}, {cx, cz + d.Half}, {cx - d.Half, cz}, {cx + d.Half, cz}}
	for _, m := range mids {
		b.Fill(m[0], y, m[1], m[0], d.WallTop, m[1], "minecraft:oak_log")
	}
}

// cottageRoof builds a peaked A-frame dark-oak stair roof, ridge running
// east-west with a 1-block overhang.
func cottageRoof(b *build.Builder, cx, cz int, d Dims) {
	overhang := d.Half + 1
	peak := d.RoofY + d.Half
	for i := 0; i <= d.Half; i++ {
		ry := d.RoofY + i
		zNorth := cz - d.Half - overhang + i
		zSouth := cz + d.Half + overhang - i
		b.Fill(cx-overhang, ry, zNorth, cx+overhang, ry, zNorth, "minecraft:dark_oak_stairs[facing=south]")
		b.Fill(cx-overhang, ry, zSouth, cx+overhang, ry, zSouth, "minecraft:dark_oak_stairs[facing=north]")
	}
	b.Fill(cx-overhang, peak, cz-1, cx+overhang, peak, cz+1, "minecraft:dark_oak_planks")
}

// cottageWindows places 2x2 glass-pane windows (3 per wall per floor) with
// trapdoor flower-box shelves under ground-floor windows.
func cottageWindows(b *build.Builder, cx, cz, y int, d Dims) {
	spacing := d.Half * 2 / 4
	offsets := []int{-spacing, 0, spacing}
	for floor := 0; floor < d.Floors; floor++ {
		fy := y + floor*d.FloorH + 2
		for _, o := range offsets {
			b.Fill(cx+o, fy, cz-d.Half, cx+o+1, fy+1, cz-d.Half, "minecraft:glass_pane")
			b.Fill(cx+o, fy, cz+d.Half, cx+o+1, fy+1, cz+d.Half, "minecraft:glass_pane")
			b.Fill(cx-d.Half, fy, cz+o, cx-d.Half, fy+1, cz+o+1, "minecraft:glass_pane")
			b.Fill(cx+d.Half, fy, cz+o, cx+d.Half, fy+1, cz+o+1, "minecraft:glass_pane")
			if floor == 0 {
				b.SetBlock(cx+o, y+1, cz-d.Half, "minecraft:oak_trapdoor[facing=north,open=true]")
				b.SetBlock(cx+o, y+2, cz-d.Half+1, "minecraft:flower_pot")
			}
		}
	}
}

// cottageFurniture builds the hearth/kitchen ground floor and the
// study/bookshelf second floor.
func cottageFurniture(b *build.Builder, cx, cz, y int, d Dims) {
	b.SetBlock(cx-d.Half+2, y+1, cz, "minecraft:campfire")
	b.Fill(cx-d.Half+2, y+2, cz, cx-d.Half+2, d.WallTop, cz, "minecraft:chain")
	b.SetBlock(cx-d.Half+2, y+1, cz+1, "minecraft:cauldron")
	b.SetBlock(cx-d.Half+3, y+1, cz, "minecraft:crafting_table")
	b.SetBlock(cx-d.Half+3, y+1, cz+1, "minecraft:smoker")
	b.SetBlock(cx-d.Half+3, y+1, cz+2, "minecraft:barrel")
	b.Fill(cx, y+1, cz+d.Half-2, cx+2, y+1, cz+d.Half-2, "minecraft:oak_planks")

	if d.Floors > 1 {
		fy := y + d.FloorH
		b.Fill(cx-d.Half+1, fy+1, cz-d.Half+1, cx-d.Half+1, fy+2, cz+d.Half-3, "minecraft:bookshelf")
		b.Fill(cx-d.Half+1, fy+1, cz-d.Half+1, cx+d.Half-3, fy+2, cz-d.Half+1, "minecraft:bookshelf")
		b.SetBlock(cx, fy+1, cz, "minecraft:lectern")
		b.SetBlock(cx+1, fy+1, cz, "minecraft:oak_planks")
	}
}
