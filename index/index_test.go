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
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/fbenz/locationindex/geo"
	"github.com/fbenz/locationindex/graph"
	"github.com/fbenz/locationindex/storage"
)

// gridGraph connects n x n nodes spaced step degrees apart. Node i*n+j is
// at (i*step, j*step) and is the base of the edges to its east and north
// neighbours.
func gridGraph(n int, step float64) *graph.MemGraph {
	g := graph.NewMemGraph(false)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g.AddNode(geo.Coordinate{Lat: float64(i) * step, Lng: float64(j) * step})
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			id := graph.Node(i*n + j)
			if j+1 < n {
				g.AddEdge(id, id+1)
			}
			if i+1 < n {
				g.AddEdge(id, id+graph.Node(n))
			}
		}
	}
	g.Freeze()
	return g
}

// diagonalGraph has one edge from (0.1, 0.1) to (0.9, 0.9) and two
// isolated nodes stretching the bounds to the unit box.
func diagonalGraph() *graph.MemGraph {
	g := graph.NewMemGraph(false)
	a := g.AddNode(geo.Coordinate{Lat: 0.1, Lng: 0.1})
	b := g.AddNode(geo.Coordinate{Lat: 0.9, Lng: 0.9})
	g.AddNode(geo.Coordinate{Lat: 0, Lng: 0})
	g.AddNode(geo.Coordinate{Lat: 1, Lng: 1})
	g.AddEdge(a, b)
	g.Freeze()
	return g
}

func newTestIndex(t *testing.T, g graph.Graph, cfg Config) *LocationIndex {
	idx := New(g, storage.NewRAM(""), cfg)
	require.NoError(t, idx.Build())
	t.Cleanup(func() { idx.Close() })
	return idx
}

func resolution(res int) Config {
	cfg := DefaultConfig()
	cfg.MinResolutionInMeters = res
	return cfg
}

func TestFindClosestOnEdge(t *testing.T) {
	g := diagonalGraph()
	idx := newTestIndex(t, g, resolution(500))
	require.Equal(t, []int{64, 64, 4}, idx.Shape().Entries)

	s, err := idx.FindClosest(context.Background(), 0.5, 0.50001, nil)
	require.NoError(t, err)
	require.True(t, s.IsValid())
	require.Equal(t, Edge, s.Position)
	require.Equal(t, graph.Edge(0), s.ClosestEdge.Edge)
	require.Equal(t, graph.Node(1), s.ClosestNode)
	require.InDelta(t, 0.786, s.QueryDistance, 0.01)
	require.InDelta(t, 0.500005, s.SnappedPoint().Lat, 1e-6)
	require.InDelta(t, 0.500005, s.SnappedPoint().Lng, 1e-6)
	require.Greater(t, s.VisitedNodes, 0)
}

func TestFindClosestTower(t *testing.T) {
	g := diagonalGraph()
	idx := newTestIndex(t, g, resolution(500))

	s, err := idx.FindClosest(context.Background(), 0.09, 0.095, nil)
	require.NoError(t, err)
	require.True(t, s.IsValid())
	require.Equal(t, Tower, s.Position)
	require.Equal(t, graph.Node(0), s.ClosestNode)
	require.Equal(t, g.Coordinate(0), s.SnappedPoint())
	require.InDelta(t, geo.PlaneProjection{}.Dist(g.Coordinate(0), s.QueryPoint), s.QueryDistance, 1e-6)
}

func TestFindClosestPrecisions(t *testing.T) {
	for _, p := range []geo.Precision{geo.PrecisionPlane, geo.PrecisionEarth, geo.PrecisionEllipsoid} {
		t.Run(p.String(), func(t *testing.T) {
			cfg := resolution(500)
			cfg.Precision = p
			idx := newTestIndex(t, diagonalGraph(), cfg)

			s, err := idx.FindClosest(context.Background(), 0.5, 0.50001, nil)
			require.NoError(t, err)
			require.True(t, s.IsValid())
			require.Equal(t, Edge, s.Position)
			require.InDelta(t, 0.786, s.QueryDistance, 0.01)
		})
	}
}

func TestEmptyGraph(t *testing.T) {
	g := graph.NewMemGraph(false)
	g.Freeze()
	idx := newTestIndex(t, g, DefaultConfig())
	require.Equal(t, defaultBounds, idx.Shape().Bounds)

	s, err := idx.FindClosest(context.Background(), 1, 1, nil)
	require.NoError(t, err)
	require.False(t, s.IsValid())
	require.Equal(t, graph.InvalidNode, s.ClosestNode)

	n, err := idx.FindID(1, 1)
	require.NoError(t, err)
	require.Equal(t, graph.InvalidNode, n)

	require.NoError(t, idx.Query(defaultBounds, NodeVisitorFunc(func(n graph.Node) {
		t.Errorf("unexpected node %d", n)
	})))
}

func TestCoincidentEdgesAreDeterministic(t *testing.T) {
	g := graph.NewMemGraph(false)
	a := g.AddNode(geo.Coordinate{Lat: 0, Lng: 0})
	b := g.AddNode(geo.Coordinate{Lat: 0.01, Lng: 0.01})
	c := g.AddNode(geo.Coordinate{Lat: 0, Lng: 0})
	d := g.AddNode(geo.Coordinate{Lat: 0.01, Lng: 0.01})
	g.AddEdge(c, d)
	g.AddEdge(a, b)
	g.Freeze()
	idx := newTestIndex(t, g, resolution(50))

	first, err := idx.FindClosest(context.Background(), 0.005, 0.0051, nil)
	require.NoError(t, err)
	require.True(t, first.IsValid())
	require.Equal(t, Edge, first.Position)

	for i := 0; i < 10; i++ {
		s, err := idx.FindClosest(context.Background(), 0.005, 0.0051, nil)
		require.NoError(t, err)
		require.Equal(t, first.ClosestEdge.Edge, s.ClosestEdge.Edge)
		require.Equal(t, first.ClosestNode, s.ClosestNode)
		require.Equal(t, first.QueryDistance, s.QueryDistance)
	}
}

func TestEarlyTermination(t *testing.T) {
	g := gridGraph(40, 0.001)
	idx := newTestIndex(t, g, resolution(50))

	// 5cm north of the edge between nodes 820 and 821
	lat := 0.02 + 0.05/geo.MetersPerDegree
	s, err := idx.FindClosest(context.Background(), lat, 0.0205, nil)
	require.NoError(t, err)
	require.True(t, s.IsValid())
	require.Equal(t, Edge, s.Position)
	require.ElementsMatch(t, []graph.Node{820, 821}, []graph.Node{s.ClosestEdge.Base, s.ClosestEdge.Adj})
	require.InDelta(t, 0.05, s.QueryDistance, 0.005)
	require.Less(t, s.VisitedNodes, 50)
	require.Less(t, s.VisitedNodes, g.NodeCount())
}

func TestVisitedNodesBudget(t *testing.T) {
	g := gridGraph(40, 0.001)
	cfg := resolution(50)
	cfg.MaxVisitedNodes = 1
	idx := newTestIndex(t, g, cfg)

	s, err := idx.FindClosest(context.Background(), 0.0203, 0.0205, nil)
	require.NoError(t, err)
	require.True(t, s.IsValid())
	require.Equal(t, 1, s.VisitedNodes)
}

func TestFilterRejectingAllEdges(t *testing.T) {
	idx := newTestIndex(t, diagonalGraph(), resolution(500))
	none := graph.EdgeFilterFunc(func(graph.EdgeState) bool { return false })

	s, err := idx.FindClosest(context.Background(), 0.5, 0.50001, none)
	require.NoError(t, err)
	require.False(t, s.IsValid())
}

func TestFindClosestCanceled(t *testing.T) {
	idx := newTestIndex(t, diagonalGraph(), resolution(500))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.FindClosest(ctx, 0.5, 0.50001, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLifecycleErrors(t *testing.T) {
	idx := New(diagonalGraph(), storage.NewRAM(""), DefaultConfig())

	_, err := idx.FindClosest(context.Background(), 0, 0, nil)
	require.True(t, errors.IsType(err, ErrTypeNotInitialized))
	_, err = idx.FindID(0, 0)
	require.True(t, errors.IsType(err, ErrTypeNotInitialized))
	require.True(t, errors.IsType(idx.Flush(), ErrTypeNotInitialized))
	require.Nil(t, idx.Shape())

	require.NoError(t, idx.Build())
	require.True(t, errors.IsType(idx.Build(), ErrTypeAlreadyInitialized))
	_, err = idx.LoadExisting()
	require.True(t, errors.IsType(err, ErrTypeAlreadyInitialized))

	require.NoError(t, idx.Close())
	require.True(t, idx.IsClosed())
	require.NoError(t, idx.Close())
	_, err = idx.FindClosest(context.Background(), 0, 0, nil)
	require.Equal(t, ErrTypeClosed, errors.Type(err))
}

func TestInvalidResolution(t *testing.T) {
	da := storage.NewRAM("")
	idx := New(diagonalGraph(), da, resolution(-1))
	err := idx.Build()
	require.True(t, errors.IsType(err, ErrTypeInvalidShape))
	// nothing was allocated
	require.Equal(t, 0, da.Capacity())
}

func TestStoreAndLoad(t *testing.T) {
	for _, typ := range []storage.Type{storage.RAM, storage.MMap} {
		t.Run(typ.String(), func(t *testing.T) {
			g := gridGraph(20, 0.002)
			path := filepath.Join(t.TempDir(), "location_index")

			built := New(g, storage.New(typ, path), resolution(80))
			require.NoError(t, built.Build())
			require.NoError(t, built.Flush())

			// the file holds the header and the used words only
			words := built.da.GetHeader(headerWords)
			require.Equal(t, int(words), built.da.Capacity())
			info, err := os.Stat(path)
			require.NoError(t, err)
			require.Equal(t, int64(4*(storage.HeaderWords+int(words))), info.Size())

			// loaded indexes restore the resolution they were built with
			loaded := New(g, storage.New(typ, path), DefaultConfig())
			ok, err := loaded.LoadExisting()
			require.NoError(t, err)
			require.True(t, ok)
			defer loaded.Close()
			require.Equal(t, built.Shape(), loaded.Shape())
			require.NoError(t, loaded.Flush())

			r := rand.New(rand.NewSource(42))
			for i := 0; i < 100; i++ {
				lat, lng := r.Float64()*0.038, r.Float64()*0.038
				want, err := built.FindClosest(context.Background(), lat, lng, nil)
				require.NoError(t, err)
				got, err := loaded.FindClosest(context.Background(), lat, lng, nil)
				require.NoError(t, err)
				requireSameSnap(t, want, got)
			}
			require.NoError(t, built.Close())
		})
	}
}

func TestLoadMissing(t *testing.T) {
	idx := New(diagonalGraph(), storage.NewRAM(filepath.Join(t.TempDir(), "missing")), DefaultConfig())
	ok, err := idx.LoadExisting()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoadStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "location_index")
	built := New(diagonalGraph(), storage.NewRAM(path), DefaultConfig())
	require.NoError(t, built.Build())
	require.NoError(t, built.Flush())
	require.NoError(t, built.Close())

	// another graph
	g := diagonalGraph()
	g.AddNode(geo.Coordinate{Lat: 0.5, Lng: 0.5})
	g.Freeze()
	idx := New(g, storage.NewRAM(path), DefaultConfig())
	_, err := idx.LoadExisting()
	require.Error(t, err)
	require.Equal(t, ErrTypeIndexStale, errors.Type(err))

	// another format
	da := storage.NewRAM(path)
	require.NoError(t, da.Create(8))
	da.SetHeader(headerMagic, MagicInt+1)
	da.SetHeader(headerChecksum, 4)
	require.NoError(t, da.Flush())
	idx = New(diagonalGraph(), storage.NewRAM(path), DefaultConfig())
	_, err = idx.LoadExisting()
	require.True(t, errors.IsType(err, ErrTypeIndexStale))
}

func requireSameSnap(t *testing.T, want, got *Snap) {
	t.Helper()
	require.Equal(t, want.IsValid(), got.IsValid())
	require.Equal(t, want.ClosestNode, got.ClosestNode)
	require.Equal(t, want.ClosestEdge.Edge, got.ClosestEdge.Edge)
	require.Equal(t, want.WayIndex, got.WayIndex)
	require.Equal(t, want.Position, got.Position)
	require.Equal(t, want.QueryDistance, got.QueryDistance)
	require.Equal(t, want.SnappedPoint(), got.SnappedPoint())
}

func TestCompactMatchesMemIndexQueries(t *testing.T) {
	g := gridGraph(15, 0.002)
	idx := newTestIndex(t, g, resolution(50))
	mem := newMemIndex(idx.shape, idx.algo)
	mem.prepare(g, graph.AcceptAll, BaseNodePicker{})

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		lat, lng := r.Float64()*0.028, r.Float64()*0.028
		want, err := idx.findClosestIn(context.Background(), mem, lat, lng, graph.AcceptAll)
		require.NoError(t, err)
		got, err := idx.FindClosest(context.Background(), lat, lng, nil)
		require.NoError(t, err)
		requireSameSnap(t, want, got)
	}
}

// bruteForce returns the distance in meters from q to the closest edge.
func bruteForce(g graph.Graph, calc geo.DistanceCalc, q geo.Coordinate) float64 {
	best := math.MaxFloat64
	it := g.AllEdges()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		pl := graph.FetchGeometry(g, e, graph.All)
		for i := 0; i < pl.Len(); i++ {
			best = math.Min(best, calc.NormalizedDist(q, pl.At(i)))
			if i > 0 && calc.ValidEdgeDistance(q, pl.At(i-1), pl.At(i)) {
				best = math.Min(best, calc.NormalizedEdgeDist(q, pl.At(i-1), pl.At(i)))
			}
		}
	}
	return calc.DenormalizeDist(best)
}

func TestFindClosestNearStoredEdges(t *testing.T) {
	g := gridGraph(15, 0.002)
	idx := newTestIndex(t, g, resolution(50))
	calc := geo.PlaneProjection{}
	cellDiagonal := math.Sqrt2 * geo.MetersPerDegree * idx.Shape().DeltaLat

	var edges []graph.EdgeState
	it := g.AllEdges()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		edges = append(edges, e)
	}

	r := rand.New(rand.NewSource(3))
	for i := 0; i < 300; i++ {
		e := edges[r.Intn(len(edges))]
		a, b := g.Coordinate(e.Base), g.Coordinate(e.Adj)
		f := r.Float64()
		q := geo.Coordinate{
			Lat: a.Lat + f*(b.Lat-a.Lat) + (r.Float64()-0.5)*1e-4,
			Lng: a.Lng + f*(b.Lng-a.Lng) + (r.Float64()-0.5)*1e-4,
		}

		s, err := idx.FindClosest(context.Background(), q.Lat, q.Lng, nil)
		require.NoError(t, err)
		require.True(t, s.IsValid(), "%v", q)
		require.LessOrEqual(t, s.QueryDistance, bruteForce(g, calc, q)+cellDiagonal, "%v", q)
	}
}

func TestFindID(t *testing.T) {
	g := gridGraph(10, 0.01)
	idx := newTestIndex(t, g, resolution(100))

	n, err := idx.FindID(0.0501, 0.0502)
	require.NoError(t, err)
	require.Equal(t, graph.Node(55), n)
}

func TestQuery(t *testing.T) {
	g := gridGraph(10, 0.01)
	idx := newTestIndex(t, g, resolution(100))

	var nodes []graph.Node
	require.NoError(t, idx.Query(g.Bounds(), NodeVisitorFunc(func(n graph.Node) {
		nodes = append(nodes, n)
	})))
	// every node but the north east corner is a base node, each reported once
	require.Len(t, nodes, g.NodeCount()-1)
	require.Len(t, unique(nodes), len(nodes))
	require.NotContains(t, nodes, graph.Node(99))
}

func TestPickersAndBuildFilter(t *testing.T) {
	g := graph.NewMemGraph(false)
	a := g.AddNode(geo.Coordinate{Lat: 0, Lng: 0})
	b := g.AddNode(geo.Coordinate{Lat: 0, Lng: 0.01})
	c := g.AddNode(geo.Coordinate{Lat: 0.01, Lng: 0.01})
	g.AddEdge(a, b)
	g.AddEdge(b, c)
	shortcut := g.AddShortcut(a, c)
	g.SetLevel(a, 3)
	g.SetLevel(b, 0)
	g.SetLevel(c, 5)
	g.Freeze()

	require.Equal(t, a, BaseNodePicker{}.PickBestNode(a, b))
	require.Equal(t, b, LowerLevelPicker{Graph: g}.PickBestNode(a, b))
	require.Equal(t, b, LowerLevelPicker{Graph: g}.PickBestNode(b, c))

	stored := func(idx *LocationIndex) []graph.Node {
		var nodes []graph.Node
		require.NoError(t, idx.Query(g.Bounds(), NodeVisitorFunc(func(n graph.Node) {
			nodes = append(nodes, n)
		})))
		return unique(nodes)
	}

	cfg := resolution(50)
	require.Equal(t, []graph.Node{a, b}, stored(newTestIndex(t, g, cfg)))

	cfg.Picker = LowerLevelPicker{Graph: g}
	cfg.BuildFilter = graph.NoShortcuts(g)
	idx := newTestIndex(t, g, cfg)
	require.Equal(t, []graph.Node{b}, stored(idx))

	// closer to the shortcut than to the road from a to b
	s, err := idx.FindClosest(context.Background(), 0.0004, 0.0006, graph.NoShortcuts(g))
	require.NoError(t, err)
	require.True(t, s.IsValid())
	require.Equal(t, graph.Edge(0), s.ClosestEdge.Edge)

	// edges left out of the index stay out of queries
	s, err = idx.FindClosest(context.Background(), 0.0004, 0.0006, nil)
	require.NoError(t, err)
	require.Equal(t, graph.Edge(0), s.ClosestEdge.Edge)

	s, err = newTestIndex(t, g, resolution(50)).FindClosest(context.Background(), 0.0004, 0.0006, nil)
	require.NoError(t, err)
	require.Equal(t, shortcut, s.ClosestEdge.Edge)
}

func TestShortcutsAreNotSnappedTo(t *testing.T) {
	g := graph.NewMemGraph(false)
	a := g.AddNode(geo.Coordinate{Lat: 0, Lng: 0})
	m := g.AddNode(geo.Coordinate{Lat: 0.0002, Lng: 0.005})
	b := g.AddNode(geo.Coordinate{Lat: 0, Lng: 0.01})
	g.AddEdge(a, m)
	g.AddEdge(m, b)
	g.AddShortcut(a, b)
	g.SetLevel(a, 5)
	g.SetLevel(b, 5)
	g.Freeze()

	cfg := resolution(50)
	cfg.MaxRegionSearch = 16
	cfg.Picker = LowerLevelPicker{Graph: g}
	cfg.BuildFilter = graph.NoShortcuts(g)
	idx := newTestIndex(t, g, cfg)

	// the shortcut passes about 5.6m from the query point, the roads
	// through m about 16.7m
	for _, filter := range []graph.EdgeFilter{nil, graph.AcceptAll} {
		s, err := idx.FindClosest(context.Background(), 0.00005, 0.005, filter)
		require.NoError(t, err)
		require.True(t, s.IsValid())
		require.False(t, g.IsShortcut(s.ClosestEdge.Edge))
		require.Equal(t, Edge, s.Position)
		require.InDelta(t, 16.7, s.QueryDistance, 0.3)
	}
}

func TestZeroConfig(t *testing.T) {
	idx := New(diagonalGraph(), storage.NewRAM(""), Config{})
	require.NoError(t, idx.Build())
	defer idx.Close()
	require.Equal(t, DefaultConfig().MinResolutionInMeters, idx.Shape().MinResolutionInMeters)

	// no region search, the query cell lies on the edge
	s, err := idx.FindClosest(context.Background(), 0.3, 0.3, nil)
	require.NoError(t, err)
	require.True(t, s.IsValid())
}

func TestBuildLogs(t *testing.T) {
	var b strings.Builder
	logs.SetInlineEncoder()
	logs.SetLogger(func(e logs.Entry) {
		fmt.Fprint(&b, e)
	})

	newTestIndex(t, diagonalGraph(), resolution(500))

	out := b.String()
	require.Contains(t, out, "location index built")
	require.Contains(t, out, `"resolution":500`)
	require.Contains(t, out, `"checksum":4`)
	t.Log(out)
}

func TestQueryMetrics(t *testing.T) {
	idx := newTestIndex(t, diagonalGraph(), resolution(500))
	valid := queries.With(prometheus.Labels{resultLabel: "valid", positionLabel: "edge"})
	invalid := queries.With(prometheus.Labels{resultLabel: "invalid", positionLabel: "none"})
	validBefore := testutil.ToFloat64(valid)
	invalidBefore := testutil.ToFloat64(invalid)

	_, err := idx.FindClosest(context.Background(), 0.5, 0.50001, nil)
	require.NoError(t, err)
	_, err = idx.FindClosest(context.Background(), 0.5, 0.50001, graph.EdgeFilterFunc(func(graph.EdgeState) bool { return false }))
	require.NoError(t, err)

	require.Equal(t, validBefore+1, testutil.ToFloat64(valid))
	require.Equal(t, invalidBefore+1, testutil.ToFloat64(invalid))
}
