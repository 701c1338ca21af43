package building

import (
	"fmt"
	"strings"
	"testing"

	"github.com/townforge/townforge/internal/worldgen"

	"github.com/townforge/townforge/internal/worldgen/build"
)

func testGeo() worldgen.Geometry {
	return worldgen.Geometry{
		VillageSpacing: 175, BaseY: -60, CrossroadsPlazaRadius: 30,
		CrossroadsStationSlots: 16, CrossroadsStationRadius: 35,
		VillageStationOffset: 17, FenceRadius: 150, BuildingFootprint: 21,
		GridColumns: 10, BuildingSpacing: 24,
	}
}

func TestStyleForIsDeterministicModThree(t *testing.T) {
	cases := map[int64]Style{
		0: MedievalCastle, 1: TimberCottage, 2: StoneWatchtower,
		3: MedievalCastle, -1: TimberCottage, -2: StoneWatchtower,
	}
	for id, want := range cases {
		if got := StyleFor(id); got != want {
			t.Errorf("StyleFor(%d) = %v, want %v", id, got, want)
		}
	}
}

func TestDimsScaleWithMemberCount(t *testing.T) {
	geo := testGeo()
	small := dimsFor(geo, 3)
	medium := dimsFor(geo, 12)
	large := dimsFor(geo, 30)

	if small.Footprint >= medium.Footprint || medium.Footprint >= large.Footprint {
		t.Fatalf("expected increasing footprints, got small=%d medium=%d large=%d", small.Footprint, medium.Footprint, large.Footprint)
	}
	if small.Floors >= large.Floors {
		t.Fatalf("expected large to have more floors than small, got small=%d large=%d", small.Floors, large.Floors)
	}
	if small.Half != small.Footprint/2 {
		t.Fatalf("Half must be derived from Footprint, got %d for footprint %d", small.Half, small.Footprint)
	}
}

func TestGenerateProducesNoHardcodedTwentyOneOffsetsWhenFootprintDiffers(t *testing.T) {
	geo := testGeo()
	p := Params{
		Geo: geo, Center: worldgen.Point{X: 0, Z: 0}, Building: worldgen.Point{X: 100, Z: 100},
		ChannelID: 0, ChannelName: "Large Hall", MemberCount: 30,
	}
	cmds := Generate(p)
	dims := dimsFor(geo, 30)
	if dims.Half == 10 {
		t.Fatalf("test requires a large-tier footprint different from the 21-wide reference, got half=%d", dims.Half)
	}
	wantWall := fmt.Sprintf("fill %d -60 %d %d", 100-dims.Half, 100-dims.Half, 100+dims.Half)
	found := false
	for _, c := range cmds {
		if strings.HasPrefix(c, wantWall) {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected wall fill scaled to half=%d (x range %d..%d), commands: %v", dims.Half, 100-dims.Half, 100+dims.Half, cmds)
	}
}

func TestGenerateEachStyleProducesDistinctExteriorFeature(t *testing.T) {
	geo := testGeo()
	signatures := map[Style]string{
		MedievalCastle:  "oak_log",
		TimberCottage:   "oak_log",
		StoneWatchtower: "mossy_stone_bricks",
	}
	channelIDs := map[Style]int64{MedievalCastle: 0, TimberCottage: 1, StoneWatchtower: 2}

	for style, want := range signatures {
		p := Params{
			Geo: geo, Center: worldgen.Point{X: 0, Z: 0}, Building: worldgen.Point{X: 100, Z: 100},
			ChannelID: channelIDs[style], ChannelName: "Test Hall", MemberCount: 10,
		}
		cmds := Generate(p)
		found := false
		for _, c := range cmds {
			if strings.Contains(c, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("style %v: expected exterior signature %q, commands: %v", style, want, cmds)
		}
	}
}

func TestGenerateStepOrderSignsBeforeFurniture(t *testing.T) {
	geo := testGeo()
	p := Params{
		Geo: geo, Center: worldgen.Point{X: 0, Z: 0}, Building: worldgen.Point{X: 100, Z: 100},
		ChannelID: 0, ChannelName: "Order Hall", MemberCount: 10,
	}
	cmds := Generate(p)
	signIdx, furnitureIdx := -1, -1
	for i, c := range cmds {
		if strings.Contains(c, "wall_sign") && signIdx == -1 {
			signIdx = i
		}
		if strings.Contains(c, "red_carpet") {
			furnitureIdx = i
		}
	}
	if signIdx == -1 || furnitureIdx == -1 {
		t.Fatalf("expected both a sign and furniture command, signIdx=%d furnitureIdx=%d", signIdx, furnitureIdx)
	}
	if signIdx > furnitureIdx {
		t.Fatalf("expected signs before furniture, signIdx=%d furnitureIdx=%d", signIdx, furnitureIdx)
	}
}

func TestGenerateStartsAndEndsWithForceload(t *testing.T) {
	geo := testGeo()
	p := Params{
		Geo: geo, Center: worldgen.Point{X: 0, Z: 0}, Building: worldgen.Point{X: 100, Z: 100},
		ChannelID: 1, ChannelName: "Cozy Cottage", MemberCount: 5,
	}
	cmds := Generate(p)
	if len(cmds) < 2 {
		t.Fatalf("expected multiple commands, got %d", len(cmds))
	}
	if !strings.HasPrefix(cmds[0], "forceload add") {
		t.Fatalf("expected first command to be forceload add, got %q", cmds[0])
	}
	if !strings.HasPrefix(cmds[len(cmds)-1], "forceload remove") {
		t.Fatalf("expected last command to be forceload remove, got %q", cmds[len(cmds)-1])
	}
}

func TestGenerateOmitsTopicSignWhenNil(t *testing.T) {
	geo := testGeo()
	p := Params{
		Geo: geo, Center: worldgen.Point{X: 0, Z: 0}, Building: worldgen.Point{X: 100, Z: 100},
		ChannelID: 2, ChannelName: "Watch Post", MemberCount: 5, Topic: nil,
	}
	cmds := Generate(p)
	northFacingSigns := 0
	for _, c := range cmds {
		if strings.Contains(c, "wall_sign[facing=north]") {
			northFacingSigns++
		}
	}
	if northFacingSigns != 0 {
		t.Fatalf("expected no topic sign when Topic is nil, found %d north-facing signs", northFacingSigns)
	}
}

func TestGenerateIncludesTopicSignWhenSet(t *testing.T) {
	geo := testGeo()
	topic := "weekly builds"
	p := Params{
		Geo: geo, Center: worldgen.Point{X: 0, Z: 0}, Building: worldgen.Point{X: 100, Z: 100},
		ChannelID: 2, ChannelName: "Watch Post", MemberCount: 5, Topic: &topic,
	}
	cmds := Generate(p)
	found := false
	for _, c := range cmds {
		if strings.Contains(c, "weekly builds") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected topic text in sign commands, commands: %v", cmds)
	}
}

func TestSplitSignLinesWrapsAtFifteenChars(t *testing.T) {
	lines := splitSignLines("abcdefghijklmnopqrstuvwxyz0123")
	if lines[0] != "abcdefghijklmno" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "pqrstuvwxyz0123" {
		t.Errorf("line 1 = %q", lines[1])
	}
	if lines[2] != "" {
		t.Errorf("line 2 = %q, want empty", lines[2])
	}
}

func TestFurnitureUpperFloorGatedOnFloorCount(t *testing.T) {
	oneFloor := Dims{Footprint: 15, Floors: 1, Half: 7, FloorH: 5, WallTop: -55, RoofY: -54}
	twoFloors := oneFloor
	twoFloors.Floors = 2

	b1 := build.New()
	castleFurniture(b1, 100, 100, -60, oneFloor)
	for _, c := range b1.Commands() {
		if strings.Contains(c, "armor_stand") {
			t.Fatalf("did not expect second-floor armory furniture when Floors=1, commands: %v", b1.Commands())
		}
	}

	b2 := build.New()
	castleFurniture(b2, 100, 100, -60, twoFloors)
	found := false
	for _, c := range b2.Commands() {
		if strings.Contains(c, "armor_stand") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected second-floor armory furniture when Floors=2, commands: %v", b2.Commands())
	}
}
