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
	"fmt"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"

	"github.com/fbenz/locationindex/geo"
	"github.com/fbenz/locationindex/graph"
)

// Position tells which part of an edge a query point snapped to.
type Position int

const (
	// Somewhere between two geometry points of the edge.
	Edge Position = iota
	// One of the two end points of the edge.
	Tower
	// An intermediate geometry point of the edge.
	Pillar
)

func (p Position) String() string {
	switch p {
	case Edge:
		return "edge"
	case Tower:
		return "tower"
	case Pillar:
		return "pillar"
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// Two coordinates closer than this are treated as the same point when
// classifying a snapped point.
const snapEpsilon = 1e-6

// A Snap is the result of projecting a query point onto the graph.
type Snap struct {
	QueryPoint geo.Coordinate
	// ClosestNode is graph.InvalidNode if nothing was found.
	ClosestNode graph.Node
	// ClosestEdge is oriented so that WayIndex counts from its base node.
	ClosestEdge graph.EdgeState
	// Index into the full edge geometry, base node included. For Edge
	// positions the snapped point lies between WayIndex and WayIndex+1.
	WayIndex int
	Position Position
	// Distance to the closest element. Normalized while the query runs,
	// in meters once the query returns.
	QueryDistance float64
	// Number of graph nodes the query expanded.
	VisitedNodes int

	snappedPoint     geo.Coordinate
	snappedElevation float64
	calculated       bool
}

func NewSnap(lat, lng float64) *Snap {
	return &Snap{
		QueryPoint:       geo.Coordinate{Lat: lat, Lng: lng},
		ClosestNode:      graph.InvalidNode,
		QueryDistance:    math.MaxFloat64,
		snappedElevation: math.NaN(),
	}
}

func (s *Snap) IsValid() bool {
	return s.ClosestNode >= 0
}

// SnappedPoint is only set after CalcSnappedPoint succeeded.
func (s *Snap) SnappedPoint() geo.Coordinate {
	return s.snappedPoint
}

// SnappedElevation is NaN for 2D graphs.
func (s *Snap) SnappedElevation() float64 {
	return s.snappedElevation
}

// CalcSnappedPoint computes the point on the closest edge nearest to the
// query point. When that point coincides with a geometry point of the edge
// the snap is reclassified as Tower or Pillar. It must be called at most
// once.
func (s *Snap) CalcSnappedPoint(g graph.Graph, calc geo.DistanceCalc) error {
	if !s.IsValid() {
		return errors.New("no closest edge").
			WithType(ErrTypeNoClosestEdge).
			WithTag("query_point", s.QueryPoint)
	}
	if s.calculated {
		return errors.New("snapped point already calculated").
			WithType(ErrTypeSnappedPointCalculated).
			WithTag("query_point", s.QueryPoint)
	}
	s.calculated = true

	full := graph.FetchGeometry(g, s.ClosestEdge, graph.All)
	if s.WayIndex < 0 || s.WayIndex >= full.Len() {
		return errors.New("way index outside of edge geometry").
			WithType(ErrTypeNoClosestEdge).
			WithTag("edge", s.ClosestEdge.Edge).
			WithTag("way_index", s.WayIndex)
	}

	tmp, tmpEle := full.At(s.WayIndex), full.Elevation(s.WayIndex)
	if s.Position != Edge || s.WayIndex+1 >= full.Len() {
		s.snappedPoint, s.snappedElevation = tmp, tmpEle
		return nil
	}

	adj, adjEle := full.At(s.WayIndex+1), full.Elevation(s.WayIndex+1)
	if !calc.ValidEdgeDistance(s.QueryPoint, tmp, adj) {
		s.snappedPoint, s.snappedElevation = tmp, tmpEle
		return nil
	}

	cp := calc.CrossingPoint(s.QueryPoint, tmp, adj)
	switch {
	case nearlyEqual(cp, tmp):
		if s.WayIndex == 0 {
			s.Position = Tower
		} else {
			s.Position = Pillar
		}
		s.snappedPoint, s.snappedElevation = tmp, tmpEle

	case nearlyEqual(cp, adj):
		s.WayIndex++
		if s.WayIndex == full.Len()-1 {
			s.Position = Tower
		} else {
			s.Position = Pillar
		}
		s.snappedPoint, s.snappedElevation = adj, adjEle

	default:
		s.snappedPoint = cp
		s.snappedElevation = (tmpEle + adjEle) / 2
	}
	return nil
}

func nearlyEqual(a, b geo.Coordinate) bool {
	return math.Abs(a.Lat-b.Lat) < snapEpsilon && math.Abs(a.Lng-b.Lng) < snapEpsilon
}

func (s *Snap) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("%v: no match", s.QueryPoint)
	}
	return fmt.Sprintf("%v: node %d, edge %d, %v at %d, %.3fm",
		s.QueryPoint, s.ClosestNode, s.ClosestEdge.Edge, s.Position, s.WayIndex, s.QueryDistance)
}
