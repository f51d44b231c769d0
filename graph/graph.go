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

// Package graph describes the road graph the location index is built on.
//
// Nodes are tower nodes: junctions and way end points. Each edge connects
// two tower nodes and carries the pillar nodes, the intermediate shape
// points, in between.
package graph

import (
	"github.com/fbenz/locationindex/geo"
)

type Node int32

type Edge int32

const (
	InvalidNode Node = -1
	InvalidEdge Edge = -1
)

// An EdgeState is an edge as seen from one of its end points. Pillars are
// ordered from Base to Adj.
type EdgeState struct {
	Edge    Edge
	Base    Node
	Adj     Node
	Pillars geo.PointList
}

type EdgeIterator interface {
	Next() (EdgeState, bool)
}

type Graph interface {
	NodeCount() int
	EdgeCount() int
	// Bounds covers all node coordinates. It is invalid for an empty graph.
	Bounds() geo.BBox
	Coordinate(n Node) geo.Coordinate
	// Elevation is NaN unless the graph is 3D.
	Elevation(n Node) float64
	Is3D() bool
	// Edges iterates the edges incident to n, with n as their base node.
	Edges(n Node) EdgeIterator
	AllEdges() EdgeIterator
}

// A LevelGraph is a graph prepared for contraction hierarchies. Shortcut
// edges bypass contracted nodes and have no geometry of their own.
type LevelGraph interface {
	Graph
	Level(n Node) int
	IsShortcut(e Edge) bool
}

type FetchMode int

const (
	TowerOnly FetchMode = iota
	PillarOnly
	BaseAndPillar
	PillarAndAdj
	All
)

// FetchGeometry assembles the geometry of e for the given mode. The result
// is 3D if g is.
func FetchGeometry(g Graph, e EdgeState, mode FetchMode) geo.PointList {
	var pl geo.PointList
	add := func(n Node) {
		if g.Is3D() {
			pl.Add3D(g.Coordinate(n), g.Elevation(n))
		} else {
			pl.Add(g.Coordinate(n))
		}
	}

	if mode == TowerOnly || mode == BaseAndPillar || mode == All {
		add(e.Base)
	}
	if mode != TowerOnly {
		for i := 0; i < e.Pillars.Len(); i++ {
			if g.Is3D() {
				pl.Add3D(e.Pillars.At(i), e.Pillars.Elevation(i))
			} else {
				pl.Add(e.Pillars.At(i))
			}
		}
	}
	if mode == TowerOnly || mode == PillarAndAdj || mode == All {
		add(e.Adj)
	}
	return pl
}
