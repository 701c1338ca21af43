package building

import "github.com/townforge/townforge/internal/worldgen/build"

// watchtowerButtresses adds stepped corner buttresses extending 3 blocks
// outward, decreasing by layer, with a mossy base course.
func watchtowerButtresses(b *build.Builder, cx, cz, y int, d Dims) {
	b.Fill(cx-d.Half, y, cz-d.Half, cx+d.Half, y, cz+d.Half, "minecraft:mossy_stone_bricks")

	corners := [][2]int{
		{cx - d.Half, cz - d.Half}, {cx + d.Half, cz - d.Half},
		{cx - d.Half, cz + d.Half}, {cx + d.Half, cz + d.Half},
	}
	for _, c := range corners {
		dx, dz := sign(c[0]-cx), sign(c[1]-cz)
		for layer, extent := 0, 3; extent > 0; layer, extent = layer+1, extent-1 {
			ly := y + layer*d.FloorH
			topLy := ly + d.FloorH - 1
			x1, x2 := c[0], c[0]+dx*extent
			z1, z2 := c[1], c[1]+dz*extent
			b.Fill(minI(x1, x2), ly, minI(z1, z2), maxI(x1, x2), topLy, maxI(z1, z2), "minecraft:stone_bricks")
		}
	}
}

// watchtowerWindows places 1x3 lancet windows at offsets {-5, 5}.
func watchtowerWindows(b *build.Builder, cx, cz, y int, d Dims) {
	const refHalf = 10
	offsets := []int{-5 * d.Half / refHalf, 5 * d.Half / refHalf}
	for floor := 0; floor < d.Floors; floor++ {
		fy := y + floor*d.FloorH + 1
		for _, o := range offsets {
			b.Fill(cx+o, fy, cz-d.Half, cx+o, fy+2, cz-d.Half, "minecraft:glass_pane")
			b.Fill(cx+o, fy, cz+d.Half, cx+o, fy+2, cz+d.Half, "minecraft:glass_pane")
			b.Fill(cx-d.Half, fy, cz+o, cx-d.Half, fy+2, cz+o, "minecraft:glass_pane")
			b.Fill(cx+d.Half, fy, cz+o, cx+d.Half, fy+2, cz+o, "minecraft:glass_pane")
		}
	}
}

// watchtowerCap builds a stepped pyramid cap (3 inset layers) with a
// glass-pane observation railing.
func watchtowerCap(b *build.Builder, cx, cz int, d Dims) {
	for layer := 0; layer < 3; layer++ {
		inset := d.Half - layer*2
		if inset < 1 {
			break
		}
		ly := d.RoofY + layer
		b.Fill(cx-inset, ly, cz-inset, cx+inset, ly, cz+inset, "minecraft:stone_brick_slab")
	}
	railInset := d.Half - 4
	if railInset < 1 {
		railInset = 1
	}
	ry := d.RoofY + 3
	b.Fill(cx-railInset, ry, cz-railInset, cx+railInset, ry, cz-railInset, "minecraft:glass_pane")
	b.Fill(cx-railInset, ry, cz+railInset, cx+railInset, ry, cz+railInset, "minecraft:glass_pane")
	b.Fill(cx-railInset, ry, cz-railInset, cx-railInset, ry, cz+railInset, "minecraft:glass_pane")
	b.Fill(cx+railInset, ry, cz-railInset, cx+railInset, ry, cz+railInset, "minecraft:glass_pane")
}

// watchtowerFurniture builds the planning-room ground floor and the
// brewing second floor.
func watchtowerFurniture(b *build.Builder, cx, cz, y int, d Dims) {
	b.SetBlock(cx, y+1, cz, "minecraft:oak_slab")
	b.Fill(cx-1, y+1, cz-1, cx+1, y+1, cz+1, "minecraft:oak_slab")
	b.SetBlock(cx-2, y+1, cz, "minecraft:cartography_table")
	b.SetBlock(cx+2, y+1, cz, "minecraft:lectern")
	b.Fill(cx-2, y+1, cz-2, cx-2, y+2, cz-2, "minecraft:chiseled_bookshelf")

	if d.Floors > 1 {
		fy := y + d.FloorH
		b.SetBlock(cx-1, fy+1, cz, "minecraft:brewing_stand")
		b.SetBlock(cx+1, fy+1, cz, "minecraft:cauldron")
		b.SetBlock(cx, fy+1, cz+1, "minecraft:soul_campfire")
	}
}

func sign(n int) int {
	if n < 0 {
		return -1
	}
	if n > 0 {
		return 1
	}
	return 0
}

func minI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}
