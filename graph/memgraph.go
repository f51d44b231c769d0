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

package graph

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/fbenz/locationindex/alg"
	"github.com/fbenz/locationindex/geo"
)

type memEdge struct {
	base    Node
	adj     Node
	pillars geo.PointList
}

// MemGraph is an immutable-after-Freeze graph held in memory. Incident
// edges are kept in a compressed adjacency array: the edges of node v are
// Incident[FirstOut[v]:FirstOut[v+1]].
//
// Nodes and edges are added first, then Freeze builds the adjacency
// arrays. Iterating edges before Freeze panics. A frozen graph is safe for
// concurrent readers.
type MemGraph struct {
	coords    []geo.Coordinate
	ele       []float64
	levels    []int32
	edges     []memEdge
	shortcuts []byte
	bounds    geo.BBox
	is3D      bool

	FirstOut []int32
	Incident []int32
}

func NewMemGraph(is3D bool) *MemGraph {
	return &MemGraph{
		bounds: geo.EmptyBBox(),
		is3D:   is3D,
	}
}

func (g *MemGraph) AddNode(c geo.Coordinate) Node {
	if g.is3D {
		return g.AddNode3D(c, 0)
	}
	return g.addNode(c)
}

func (g *MemGraph) AddNode3D(c geo.Coordinate, ele float64) Node {
	if !g.is3D {
		panic("graph: AddNode3D on a 2D graph")
	}
	g.ele = append(g.ele, ele)
	return g.addNode(c)
}

func (g *MemGraph) addNode(c geo.Coordinate) Node {
	g.thaw()
	g.coords = append(g.coords, c)
	g.levels = append(g.levels, 0)
	g.bounds = g.bounds.Extend(c)
	return Node(len(g.coords) - 1)
}

// AddEdge connects base and adj through the given pillar coordinates.
func (g *MemGraph) AddEdge(base, adj Node, pillars ...geo.Coordinate) Edge {
	pl := geo.NewPointList(pillars...)
	if g.is3D && len(pillars) > 0 {
		pl.Ele = make([]float64, len(pillars))
		for i := range pl.Ele {
			pl.Ele[i] = math.NaN()
		}
	}
	return g.AddEdgeGeometry(base, adj, pl)
}

func (g *MemGraph) AddEdgeGeometry(base, adj Node, pillars geo.PointList) Edge {
	g.checkNode(base)
	g.checkNode(adj)
	g.thaw()
	for _, c := range pillars.Coords {
		g.bounds = g.bounds.Extend(c)
	}
	g.edges = append(g.edges, memEdge{base: base, adj: adj, pillars: pillars})
	return Edge(len(g.edges) - 1)
}

// AddWay adds an edge whose full geometry is ls. The first and last point
// belong to base and adj; the points in between become pillars.
func (g *MemGraph) AddWay(base, adj Node, ls orb.LineString) Edge {
	if len(ls) < 2 {
		return g.AddEdge(base, adj)
	}
	return g.AddEdge(base, adj, geo.PointListFromLineString(ls[1:len(ls)-1]).Coords...)
}

// AddShortcut adds a geometry-less edge that bypasses contracted nodes.
func (g *MemGraph) AddShortcut(base, adj Node) Edge {
	e := g.AddEdge(base, adj)
	for len(g.shortcuts) < alg.BitBytes(len(g.edges)) {
		g.shortcuts = append(g.shortcuts, 0)
	}
	alg.SetBit(g.shortcuts, uint(e))
	return e
}

func (g *MemGraph) SetLevel(n Node, level int) {
	g.checkNode(n)
	g.levels[n] = int32(level)
}

func (g *MemGraph) checkNode(n Node) {
	if n < 0 || int(n) >= len(g.coords) {
		panic(fmt.Sprintf("graph: node %d out of range [0, %d)", n, len(g.coords)))
	}
}

func (g *MemGraph) thaw() {
	g.FirstOut = nil
	g.Incident = nil
}

// Freeze builds the adjacency arrays.
func (g *MemGraph) Freeze() {
	n := len(g.coords)
	firstOut := make([]int32, n+1)
	for _, e := range g.edges {
		firstOut[e.base+1]++
		if e.adj != e.base {
			firstOut[e.adj+1]++
		}
	}
	for v := 0; v < n; v++ {
		firstOut[v+1] += firstOut[v]
	}

	incident := make([]int32, firstOut[n])
	current := make([]int32, n)
	copy(current, firstOut[:n])
	for id, e := range g.edges {
		incident[current[e.base]] = int32(id)
		current[e.base]++
		if e.adj != e.base {
			incident[current[e.adj]] = int32(id)
			current[e.adj]++
		}
	}
	g.FirstOut = firstOut
	g.Incident = incident
}

func (g *MemGraph) NodeCount() int {
	return len(g.coords)
}

func (g *MemGraph) EdgeCount() int {
	return len(g.edges)
}

func (g *MemGraph) Bounds() geo.BBox {
	return g.bounds
}

func (g *MemGraph) Coordinate(n Node) geo.Coordinate {
	return g.coords[n]
}

func (g *MemGraph) Elevation(n Node) float64 {
	if !g.is3D {
		return math.NaN()
	}
	return g.ele[n]
}

func (g *MemGraph) Is3D() bool {
	return g.is3D
}

func (g *MemGraph) Level(n Node) int {
	return int(g.levels[n])
}

func (g *MemGraph) IsShortcut(e Edge) bool {
	if int(e)/8 >= len(g.shortcuts) {
		return false
	}
	return alg.GetBit(g.shortcuts, uint(e))
}

func (g *MemGraph) state(id int32, from Node) EdgeState {
	e := g.edges[id]
	if e.base == from {
		return EdgeState{Edge: Edge(id), Base: e.base, Adj: e.adj, Pillars: e.pillars}
	}
	return EdgeState{Edge: Edge(id), Base: e.adj, Adj: e.base, Pillars: e.pillars.Reverse()}
}

type memEdgeIterator struct {
	graph   *MemGraph
	node    Node
	current int32
	end     int32
}

func (i *memEdgeIterator) Next() (EdgeState, bool) {
	if i.current >= i.end {
		return EdgeState{}, false
	}
	id := i.graph.Incident[i.current]
	i.current++
	return i.graph.state(id, i.node), true
}

func (g *MemGraph) Edges(n Node) EdgeIterator {
	if g.FirstOut == nil {
		panic("graph: Freeze must be called before iterating edges")
	}
	return &memEdgeIterator{
		graph:   g,
		node:    n,
		current: g.FirstOut[n],
		end:     g.FirstOut[n+1],
	}
}

type allEdgesIterator struct {
	graph   *MemGraph
	current int
}

func (i *allEdgesIterator) Next() (EdgeState, bool) {
	if i.current >= len(i.graph.edges) {
		return EdgeState{}, false
	}
	id := int32(i.current)
	i.current++
	return i.graph.state(id, i.graph.edges[id].base), true
}

func (g *MemGraph) AllEdges() EdgeIterator {
	return &allEdgesIterator{graph: g}
}
