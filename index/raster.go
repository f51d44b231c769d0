/*
 * Copyright 2014 Florian Benz, Steven Schäfer, Bernhard Schommer
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package index

import (
	"math"
)

// A CellVisitor receives the grid cells a segment passes through.
type CellVisitor interface {
	VisitCell(x, y int64)
}

type CellVisitorFunc func(x, y int64)

func (f CellVisitorFunc) VisitCell(x, y int64) {
	f(x, y)
}

// Grid is the uniform Parts x Parts grid formed by the leaf cells of a
// tree. Cell (0, 0) has its south west corner at (MinLat, MinLng).
type Grid struct {
	MinLat   float64
	MinLng   float64
	DeltaLat float64
	DeltaLng float64
	Parts    int64
}

// Cell returns the column and row of the cell containing the point.
// Points outside the grid map to the nearest border cell.
func (g Grid) Cell(lat, lng float64) (x, y int64) {
	return int64(g.gridX(lng)), int64(g.gridY(lat))
}

// Contains reports whether (x, y) addresses a cell of the grid.
func (g Grid) Contains(x, y int64) bool {
	return x >= 0 && y >= 0 && x < g.Parts && y < g.Parts
}

func (g Grid) gridX(lng float64) float64 {
	return g.clamp((lng - g.MinLng) / g.DeltaLng)
}

func (g Grid) gridY(lat float64) float64 {
	return g.clamp((lat - g.MinLat) / g.DeltaLat)
}

func (g Grid) clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	// stay below Parts so that the floor is a valid cell
	if limit := math.Nextafter(float64(g.Parts), 0); v > limit {
		return limit
	}
	return v
}

// Traverse calls v for every cell the segment from (lat1, lng1) to
// (lat2, lng2) intersects, in order from the start cell to the end cell.
// Consecutive cells share a side.
func (g Grid) Traverse(lat1, lng1, lat2, lng2 float64, v CellVisitor) {
	x1, y1 := g.gridX(lng1), g.gridY(lat1)
	x2, y2 := g.gridX(lng2), g.gridY(lat2)

	cx, cy := int64(x1), int64(y1)
	ex, ey := int64(x2), int64(y2)

	stepX, tDeltaX, tMaxX := traverseAxis(x1, x2)
	stepY, tDeltaY, tMaxY := traverseAxis(y1, y2)

	v.VisitCell(cx, cy)

	// Every step moves one cell closer to the end cell on exactly one
	// axis, so the Manhattan distance bounds the walk.
	n := abs(ex-cx) + abs(ey-cy)
	for i := int64(0); i < n; i++ {
		if cy == ey || (cx != ex && tMaxX <= tMaxY) {
			cx += stepX
			tMaxX += tDeltaX
		} else {
			cy += stepY
			tMaxY += tDeltaY
		}
		v.VisitCell(cx, cy)
	}
}

// traverseAxis returns the step direction along one axis, the segment
// parameter needed to cross one cell and the parameter at which the first
// cell boundary is reached. The segment runs from t = 0 to t = 1.
func traverseAxis(from, to float64) (step int64, tDelta, tMax float64) {
	d := to - from
	switch {
	case d > 0:
		return 1, 1 / d, (math.Floor(from) + 1 - from) / d
	case d < 0:
		return -1, -1 / d, (from - math.Floor(from)) / -d
	}
	return 0, math.Inf(1), math.Inf(1)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
