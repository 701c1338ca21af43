package hub

import (
	"strings"
	"testing"

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

func TestGenerateStartsAndEndsWithForceload(t *testing.T) {
	cmds := Generate(testGeo())
	if !strings.HasPrefix(cmds[0], "forceload add") {
		t.Fatalf("first command = %q", cmds[0])
	}
	if !strings.HasPrefix(cmds[len(cmds)-1], "forceload remove") {
		t.Fatalf("last command = %q", cmds[len(cmds)-1])
	}
}

func TestGeneratePlazaSpans61Rows(t *testing.T) {
	cmds := Generate(testGeo())
	rows := 0
	for _, c := range cmds {
		if strings.HasPrefix(c, "fill -30 -60 ") {
			rows++
		}
	}
	if rows != 61 {
		t.Fatalf("expected 61 plaza row fills, got %d", rows)
	}
}

func TestGenerateAlternatesStripeBlocks(t *testing.T) {
	cmds := Generate(testGeo())
	sawStone, sawAndesite := false, false
	for _, c := range cmds {
		if strings.HasPrefix(c, "fill -30 -60 0 30 -60 0") {
			sawStone = strings.Contains(c, "stone_bricks")
		}
		if strings.HasPrefix(c, "fill -30 -60 1 30 -60 1") {
			sawAndesite = strings.Contains(c, "polished_andesite")
		}
	}
	if !sawStone || !sawAndesite {
		t.Fatalf("expected alternating stripes, stone=%v andesite=%v", sawStone, sawAndesite)
	}
}

func TestGenerateSetsWorldSpawn(t *testing.T) {
	cmds := Generate(testGeo())
	found := false
	for _, c := range cmds {
		if c == "setworldspawn 0 -59 0" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected setworldspawn 0 -59 0 in command batch")
	}
}

func TestGenerateProduces16StationSlots(t *testing.T) {
	cmds := Generate(testGeo())
	n := 0
	for _, c := range cmds {
		if strings.Contains(c, "Platform ") {
			n++
		}
	}
	if n != 16 {
		t.Fatalf("expected 16 platform signs, got %d", n)
	}
}

func TestGenerateSlotZeroAtRadius35East(t *testing.T) {
	cmds := Generate(testGeo())
	found := false
	for _, c := range cmds {
		if strings.HasPrefix(c, "fill 33 -60 -1 37 -60 1 minecraft:stone_brick_slab") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected slot 0 platform centered at (35,0)")
	}
}
