// Package worldgen holds the deterministic placement geometry shared by the
// catalogue, the job processor's spawn-proximity scoring, the query API's
// spawn-coordinate derivation, and the block generators themselves
// (spec.md §4.4, §4.5).
package worldgen

import "math"

// Geometry bundles the world constants that every placement formula needs.
// Construct one from config.WorldConfig at process startup.
type Geometry struct {
	VillageSpacing          int
	BaseY                   int
	CrossroadsPlazaRadius   int
	CrossroadsStationSlots  int
	CrossroadsStationRadius int
	VillageStationOffset    int
	FenceRadius             int
	BuildingFootprint       int
	GridColumns             int
	BuildingSpacing         int
}

// Point is a signed block-coordinate pair on the X/Z plane.
type Point struct {
	X int
	Z int
}

// GridAssign implements spec.md §4.4: villageIndex -> (centerX, centerZ).
//
// villageIndex starts at 1 so that cell (0,0), reserved for the hub, is
// never produced by this formula — the open question in spec.md §9 is
// resolved in favor of "starts at 1 outright" rather than a skip-on-collision
// scheme, because it keeps the mapping a pure function of villageIndex with
// no dependence on which cells are already taken.
func (g Geometry) GridAssign(villageIndex int) Point {
	col := villageIndex % g.GridColumns
	row := villageIndex / g.GridColumns
	return Point{X: col * g.VillageSpacing, Z: row * g.VillageSpacing}
}

// NextVillageIndex returns the smallest villageIndex greater than every
// existing index that also keeps the mapping off of (0,0). Since indices
// start at 1, this is just max+1 (or 1 if there are none yet) — spec.md
// invariant G3.
func NextVillageIndex(maxExisting int) int {
	if maxExisting < 1 {
		return 1
	}
	return maxExisting + 1
}

// BuildingPlace implements spec.md §4.5: (groupCenter, buildingIndex) ->
// (buildingX, buildingZ), the main-street layout of two facing rows.
func (g Geometry) BuildingPlace(center Point, buildingIndex int) Point {
	row := buildingIndex % 2
	posInRow := buildingIndex / 2
	bx := center.X + (posInRow-3)*g.BuildingSpacing
	bz := center.Z - 20
	if row != 0 {
		bz = center.Z + 20
	}
	return Point{X: bx, Z: bz}
}

// BuildingFootprintFor returns the footprint and floor count for a given
// member count tier (spec.md §4.7's scaling rule).
func BuildingFootprintFor(memberCount int) (footprint, floors int) {
	switch {
	case memberCount < 10:
		return 15, 2
	case memberCount < 30:
		return 21, 3
	default:
		return 27, 4
	}
}

// Distance is the Euclidean distance from the hub origin (0,0), used by the
// job processor's spawn-proximity scoring (spec.md §4.3).
func Distance(p Point) float64 {
	return math.Hypot(float64(p.X), float64(p.Z))
}

// Midpoint returns the integer midpoint of two points, rounding to the
// nearest block (spec.md §9: angles computed in float, snapped to int).
func Midpoint(a, b Point) Point {
	return Point{
		X: int(math.Round(float64(a.X+b.X) / 2)),
		Z: int(math.Round(float64(a.Z+b.Z) / 2)),
	}
}

// StationSlot maps an angle (atan2 of the village center, i.e. its bearing
// as seen from the hub origin) onto one of CrossroadsStationSlots evenly-spaced radial slots,
// returning the slot index and its world coordinate (spec.md §4.9).
func (g Geometry) StationSlot(srcCenter Point) (index int, coord Point) {
	angle := math.Atan2(float64(srcCenter.Z), float64(srcCenter.X))
	if angle < 0 {
		angle += 2 * math.Pi
	}
	slotWidth := 2 * math.Pi / float64(g.CrossroadsStationSlots)
	index = int(math.Round(angle/slotWidth)) % g.CrossroadsStationSlots
	slotAngle := float64(index) * slotWidth
	x := int(math.Round(float64(g.CrossroadsStationRadius) * math.Cos(slotAngle)))
	z := int(math.Round(float64(g.CrossroadsStationRadius) * math.Sin(slotAngle)))
	return index, Point{X: x, Z: z}
}

// VillageStationPad returns the south-plaza station pad coordinate for a
// village (spec.md §4.6 step 9 and §4.9's "matches the village generator's
// station pad exactly" requirement).
func (g Geometry) VillageStationPad(center Point) Point {
	return Point{X: center.X, Z: center.Z + g.VillageStationOffset}
}

// BuildingSpawn returns the derived entrance coordinate for a building,
// consumed by the query API's /api/buildings/{id}/spawn (spec.md §4.11).
func (g Geometry) BuildingSpawn(b Point, memberCount int) Point {
	footprint, _ := BuildingFootprintFor(memberCount)
	half := footprint / 2
	return Point{X: b.X, Z: b.Z + half + 1}
}
