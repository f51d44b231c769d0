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
	"context"
	"sort"

	"github.com/fbenz/locationindex/alg"
	"github.com/fbenz/locationindex/geo"
	"github.com/fbenz/locationindex/graph"
)

const (
	// Queries stop once an element is closer than this, in meters.
	stopDistanceInMeters = 0.1
	// Nodes expanded between two context checks.
	ctxCheckInterval = 64
)

// A cellSource looks up the ids stored for the cell addressed by the top
// bits of keyPart.
type cellSource interface {
	fillIDs(keyPart uint64, sink idSink)
}

type idSink interface {
	addID(id int32)
}

// queryState is the scratch state of a single query.
type queryState struct {
	g      graph.Graph
	calc   geo.DistanceCalc
	filter graph.EdgeFilter
	snap   *Snap

	visited  alg.BitVector
	queue    *alg.IntQueue
	seeds    []int32
	adjNodes []graph.Node
	stopDist float64
}

func newQueryState(g graph.Graph, calc geo.DistanceCalc, filter graph.EdgeFilter, snap *Snap) *queryState {
	return &queryState{
		g:        g,
		calc:     calc,
		filter:   filter,
		snap:     snap,
		visited:  alg.NewVisitedSet(g.NodeCount()),
		queue:    alg.NewIntQueue(64),
		stopDist: calc.NormalizeDist(stopDistanceInMeters),
	}
}

// addID collects a seed. Ids seen before and ids outside of the graph are
// ignored.
func (q *queryState) addID(id int32) {
	if id < 0 || int(id) >= q.g.NodeCount() || q.visited.Get(int64(id)) {
		return
	}
	q.visited.Set(int64(id), true)
	q.seeds = append(q.seeds, id)
}

func (q *queryState) done() bool {
	return q.snap.QueryDistance <= q.stopDist
}

// collectSeeds gathers the ids of the query cell and, with region search,
// of the rings of cells around it. Rings beyond the first are only
// searched while no id was found.
func (idx *LocationIndex) collectSeeds(src cellSource, q *queryState) {
	grid := idx.shape.Grid()
	lat, lng := q.snap.QueryPoint.Lat, q.snap.QueryPoint.Lng
	x, y := grid.Cell(lat, lng)
	idx.fillCell(src, grid, x, y, q)

	if idx.cfg.RegionSearch {
		for r := int64(1); r <= int64(idx.cfg.MaxRegionSearch); r++ {
			if r > 1 && len(q.seeds) > 0 {
				break
			}
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					if abs(dx) == r || abs(dy) == r {
						idx.fillCell(src, grid, x+dx, y+dy, q)
					}
				}
			}
		}
	}

	sort.Slice(q.seeds, func(i, j int) bool { return q.seeds[i] < q.seeds[j] })
}

func (idx *LocationIndex) fillCell(src cellSource, grid Grid, x, y int64, sink idSink) {
	if !grid.Contains(x, y) {
		return
	}
	src.fillIDs(idx.algo.EncodeXY(x, y)<<(64-idx.shape.Bits), sink)
}

// walk expands the graph breadth first from the seeds. The neighbours of a
// node are only queued if one of its edges improved the best match.
func (q *queryState) walk(ctx context.Context, maxVisitedNodes int) error {
	for _, id := range q.seeds {
		q.queue.Push(id)
	}

	for !q.queue.Empty() {
		if maxVisitedNodes > 0 && q.snap.VisitedNodes >= maxVisitedNodes {
			return nil
		}
		if q.snap.VisitedNodes%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		n := graph.Node(q.queue.Pop())
		q.snap.VisitedNodes++

		improved := false
		q.adjNodes = q.adjNodes[:0]
		it := q.g.Edges(n)
		for e, ok := it.Next(); ok; e, ok = it.Next() {
			if !q.filter.Accept(e) {
				continue
			}
			if q.checkEdge(e) {
				improved = true
			}
			if q.done() {
				return nil
			}
			q.adjNodes = append(q.adjNodes, e.Adj)
		}
		if !improved {
			continue
		}

		for _, adj := range q.adjNodes {
			if !q.visited.Get(int64(adj)) {
				q.visited.Set(int64(adj), true)
				q.queue.Push(int32(adj))
			}
		}
	}
	return nil
}

// checkEdge compares every geometry point and segment of e with the best
// match so far and reports whether any of them was closer.
func (q *queryState) checkEdge(e graph.EdgeState) bool {
	improved := false
	query := q.snap.QueryPoint
	base := q.g.Coordinate(e.Base)
	adj := q.g.Coordinate(e.Adj)

	baseDist := q.calc.NormalizedDist(query, base)
	if baseDist < q.snap.QueryDistance {
		q.record(e, baseDist, e.Base, Tower, 0)
		improved = true
	}

	// pillars and edge segments belong to the closer tower node
	closer := e.Base
	if q.calc.NormalizedDist(query, adj) < baseDist {
		closer = e.Adj
	}

	prev := base
	pillars := e.Pillars.Len()
	for i := 0; i <= pillars; i++ {
		p := adj
		if i < pillars {
			p = e.Pillars.At(i)
		}

		if q.calc.ValidEdgeDistance(query, prev, p) {
			if d := q.calc.NormalizedEdgeDist(query, prev, p); d < q.snap.QueryDistance {
				q.record(e, d, closer, Edge, i)
				improved = true
			}
		}

		if d := q.calc.NormalizedDist(query, p); d < q.snap.QueryDistance {
			if i < pillars {
				q.record(e, d, closer, Pillar, i+1)
			} else {
				q.record(e, d, e.Adj, Tower, i+1)
			}
			improved = true
		}
		prev = p
	}
	return improved
}

func (q *queryState) record(e graph.EdgeState, dist float64, node graph.Node, pos Position, wayIndex int) {
	q.snap.QueryDistance = dist
	q.snap.ClosestNode = node
	q.snap.ClosestEdge = e
	q.snap.Position = pos
	q.snap.WayIndex = wayIndex
}

// findClosestIn runs a query against src and materializes the result.
func (idx *LocationIndex) findClosestIn(ctx context.Context, src cellSource, lat, lng float64, filter graph.EdgeFilter) (*Snap, error) {
	snap := NewSnap(lat, lng)
	q := newQueryState(idx.g, idx.calc, filter, snap)

	idx.collectSeeds(src, q)
	if err := q.walk(ctx, idx.cfg.MaxVisitedNodes); err != nil {
		return nil, err
	}

	if snap.IsValid() {
		snap.QueryDistance = idx.calc.DenormalizeDist(snap.QueryDistance)
		if err := snap.CalcSnappedPoint(idx.g, idx.calc); err != nil {
			return nil, err
		}
	}
	instrumentQuery(snap)
	return snap, nil
}
