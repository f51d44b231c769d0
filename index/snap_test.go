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
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/fbenz/locationindex/geo"
	"github.com/fbenz/locationindex/graph"
)

// pillarGraph has a single edge from (0, 0) over the pillar (0, 0.5) to
// (0, 1).
func pillarGraph(is3D bool) *graph.MemGraph {
	g := graph.NewMemGraph(is3D)
	if is3D {
		a := g.AddNode3D(geo.Coordinate{Lat: 0, Lng: 0}, 100)
		b := g.AddNode3D(geo.Coordinate{Lat: 0, Lng: 1}, 300)
		g.AddEdge(a, b)
	} else {
		a := g.AddNode(geo.Coordinate{Lat: 0, Lng: 0})
		b := g.AddNode(geo.Coordinate{Lat: 0, Lng: 1})
		g.AddEdge(a, b, geo.Coordinate{Lat: 0, Lng: 0.5})
	}
	g.Freeze()
	return g
}

func edgeSnap(g graph.Graph, lat, lng float64, wayIndex int) *Snap {
	e, _ := g.Edges(0).Next()
	s := NewSnap(lat, lng)
	s.ClosestNode = e.Base
	s.ClosestEdge = e
	s.WayIndex = wayIndex
	s.Position = Edge
	return s
}

func TestCalcSnappedPoint(t *testing.T) {
	calc := geo.PlaneProjection{}
	g := pillarGraph(false)

	tests := []struct {
		name     string
		lat, lng float64
		wayIndex int
		position Position
		snapped  geo.Coordinate
		newIndex int
	}{
		{
			name:     "between base and pillar",
			lat:      0.001,
			lng:      0.25,
			position: Edge,
			snapped:  geo.Coordinate{Lat: 0, Lng: 0.25},
		},
		{
			name:     "close to base",
			lat:      0.001,
			lng:      1e-8,
			position: Tower,
			snapped:  geo.Coordinate{Lat: 0, Lng: 0},
		},
		{
			name:     "close to pillar",
			lat:      0.001,
			lng:      0.4999999995,
			position: Pillar,
			snapped:  geo.Coordinate{Lat: 0, Lng: 0.5},
			newIndex: 1,
		},
		{
			name:     "close to pillar from behind",
			lat:      0.001,
			lng:      0.5000000005,
			wayIndex: 1,
			position: Pillar,
			snapped:  geo.Coordinate{Lat: 0, Lng: 0.5},
			newIndex: 1,
		},
		{
			name:     "close to adj",
			lat:      -0.001,
			lng:      0.9999999995,
			wayIndex: 1,
			position: Tower,
			snapped:  geo.Coordinate{Lat: 0, Lng: 1},
			newIndex: 2,
		},
		{
			name:     "projection outside of segment",
			lat:      0.001,
			lng:      -0.1,
			position: Edge,
			snapped:  geo.Coordinate{Lat: 0, Lng: 0},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := edgeSnap(g, test.lat, test.lng, test.wayIndex)
			require.NoError(t, s.CalcSnappedPoint(g, calc))
			require.Equal(t, test.position, s.Position)
			require.InDelta(t, test.snapped.Lat, s.SnappedPoint().Lat, 1e-9)
			require.InDelta(t, test.snapped.Lng, s.SnappedPoint().Lng, 1e-9)
			require.True(t, math.IsNaN(s.SnappedElevation()))
			if test.newIndex != 0 {
				require.Equal(t, test.newIndex, s.WayIndex)
			} else {
				require.Equal(t, test.wayIndex, s.WayIndex)
			}
		})
	}
}

func TestCalcSnappedPointTowerAndPillar(t *testing.T) {
	g := pillarGraph(false)

	s := edgeSnap(g, 0.3, 0.5, 1)
	s.Position = Pillar
	require.NoError(t, s.CalcSnappedPoint(g, geo.PlaneProjection{}))
	require.Equal(t, geo.Coordinate{Lat: 0, Lng: 0.5}, s.SnappedPoint())

	s = edgeSnap(g, 0.3, 1.2, 2)
	s.Position = Tower
	require.NoError(t, s.CalcSnappedPoint(g, geo.PlaneProjection{}))
	require.Equal(t, geo.Coordinate{Lat: 0, Lng: 1}, s.SnappedPoint())
}

func TestCalcSnappedPointElevation(t *testing.T) {
	g := pillarGraph(true)
	s := edgeSnap(g, 0.001, 0.25, 0)
	require.NoError(t, s.CalcSnappedPoint(g, geo.PlaneProjection{}))
	require.Equal(t, Edge, s.Position)
	require.Equal(t, 200.0, s.SnappedElevation())

	s = edgeSnap(g, 0.001, 1e-9, 0)
	require.NoError(t, s.CalcSnappedPoint(g, geo.PlaneProjection{}))
	require.Equal(t, Tower, s.Position)
	require.Equal(t, 100.0, s.SnappedElevation())
}

func TestCalcSnappedPointErrors(t *testing.T) {
	g := pillarGraph(false)

	s := NewSnap(0, 0)
	require.False(t, s.IsValid())
	err := s.CalcSnappedPoint(g, geo.PlaneProjection{})
	require.Equal(t, ErrTypeNoClosestEdge, errors.Type(err))

	s = edgeSnap(g, 0.001, 0.25, 0)
	require.NoError(t, s.CalcSnappedPoint(g, geo.PlaneProjection{}))
	err = s.CalcSnappedPoint(g, geo.PlaneProjection{})
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeSnappedPointCalculated))
}

func TestPositionString(t *testing.T) {
	require.Equal(t, "edge", Edge.String())
	require.Equal(t, "tower", Tower.String())
	require.Equal(t, "pillar", Pillar.String())
	require.Equal(t, "Position(7)", Position(7).String())
}
