package world

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/core/ecs"
)

// DefaultCellSize covers a typical hearing radius with a 3x3 neighbourhood.
const DefaultCellSize = 512.0

type cellKey struct {
	cx int32
	cy int32
}

// AOIGrid is a uniform cell grid over the XY plane used as the sight broad
// phase. Height is ignored. Accessed only from the simulation goroutine.
type AOIGrid struct {
	size  float64
	cells map[cellKey]map[ecs.EntityID]struct{}
}

func NewAOIGrid(cellSize float64) *AOIGrid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &AOIGrid{
		size:  cellSize,
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
	}
}

func (g *AOIGrid) coord(v float64) int32 {
	return int32(math.Floor(v / g.size))
}

func (g *AOIGrid) key(p r3.Vec) cellKey {
	return cellKey{cx: g.coord(p.X), cy: g.coord(p.Y)}
}

// Add places an entity into the grid.
func (g *AOIGrid) Add(id ecs.EntityID, p r3.Vec) {
	k := g.key(p)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove takes an entity out of the grid. p must be its last known position.
func (g *AOIGrid) Remove(id ecs.EntityID, p r3.Vec) {
	k := g.key(p)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move 位置變動時更新實體所在格子（同格不動）。
func (g *AOIGrid) Move(id ecs.EntityID, from, to r3.Vec) {
	if g.key(from) == g.key(to) {
		return
	}
	g.Remove(id, from)
	g.Add(id, to)
}

// NearbyInto appends to buf every entity in a cell that intersects the
// square of half-width radius around p, sorted by slot index so that scans
// are reproducible. Caller does the exact distance check.
func (g *AOIGrid) NearbyInto(p r3.Vec, radius float64, buf []ecs.EntityID) []ecs.EntityID {
	buf = buf[:0]
	x0, x1 := g.coord(p.X-radius), g.coord(p.X+radius)
	y0, y1 := g.coord(p.Y-radius), g.coord(p.Y+radius)
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			for id := range g.cells[cellKey{cx: cx, cy: cy}] {
				buf = append(buf, id)
			}
		}
	}
	slices.SortFunc(buf, func(a, b ecs.EntityID) int {
		return cmp.Compare(a.Index(), b.Index())
	})
	return buf
}

// Len is the number of occupied cells.
func (g *AOIGrid) Len() int { return len(g.cells) }
