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

// Package index finds the road graph element closest to a coordinate.
//
// The bounding box of the graph is covered by a tree whose levels split a
// cell into 4, 16 or 64 squares. Building rasterizes every edge into the
// leaf cells it crosses and stores one of its end points there. The tree
// is then frozen into a flat array of int32 words, which can be kept in
// memory or memory mapped from disk.
//
// A query looks up the node ids stored in the cell of the query point and
// the cells around it, then walks the graph from these nodes as long as
// edges get closer, and finally projects the query point onto the closest
// edge.
package index

import (
	"context"
	"math"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"

	"github.com/fbenz/locationindex/alg"
	"github.com/fbenz/locationindex/geo"
	"github.com/fbenz/locationindex/graph"
	"github.com/fbenz/locationindex/spatialkey"
	"github.com/fbenz/locationindex/storage"
)

const formatVersion = 1

// MagicInt marks stored location indexes of the current format.
const MagicInt = math.MaxInt32/22318 + formatVersion

// header slots
const (
	headerMagic = iota
	headerChecksum
	headerResolution
	headerWords
)

type LocationIndex struct {
	g     graph.Graph
	da    storage.DataAccess
	cfg   Config
	calc  geo.DistanceCalc
	shape *Shape
	algo  *spatialkey.Algo
	tree  compactTree

	initialized bool
	built       bool
	closed      bool
}

// New returns an index over g stored in da. Call Build or LoadExisting
// before querying.
func New(g graph.Graph, da storage.DataAccess, cfg Config) *LocationIndex {
	cfg = cfg.withDefaults()
	return &LocationIndex{
		g:    g,
		da:   da,
		cfg:  cfg,
		calc: geo.NewDistanceCalc(cfg.Precision),
	}
}

func (idx *LocationIndex) checkUninitialized() error {
	if idx.closed {
		return errors.New("location index is closed").WithType(ErrTypeClosed)
	}
	if idx.initialized {
		return errors.New("location index already initialized").WithType(ErrTypeAlreadyInitialized)
	}
	return nil
}

func (idx *LocationIndex) checkInitialized() error {
	if idx.closed {
		return errors.New("location index is closed").WithType(ErrTypeClosed)
	}
	if !idx.initialized {
		return errors.New("location index is neither built nor loaded").WithType(ErrTypeNotInitialized)
	}
	return nil
}

func (idx *LocationIndex) setShape(shape *Shape) error {
	algo, err := spatialkey.New(shape.Bits, shape.Bounds)
	if err != nil {
		return errors.New("creating spatial key codec failed").
			WithType(ErrTypeInvalidShape).
			WithTag("bits", shape.Bits).
			Wrap(err)
	}
	idx.shape = shape
	idx.algo = algo
	idx.tree = compactTree{da: idx.da, shape: shape}
	return nil
}

// Build indexes every edge accepted by the configured build filter.
func (idx *LocationIndex) Build() error {
	return instrumentError(idx.build())
}

func (idx *LocationIndex) build() error {
	if err := idx.checkUninitialized(); err != nil {
		return err
	}
	start := time.Now()

	shape, err := PlanShape(idx.g.Bounds(), idx.cfg.MinResolutionInMeters)
	if err != nil {
		return err
	}
	if err := idx.setShape(shape); err != nil {
		return err
	}

	mem := newMemIndex(shape, idx.algo)
	mem.prepare(idx.g, idx.cfg.BuildFilter, idx.cfg.Picker)

	if err := idx.da.Create(StartPointer + shape.Entries[0]); err != nil {
		return errors.New("creating index storage failed").
			WithType(ErrTypeStorage).
			WithTag("name", idx.da.Name()).
			Wrap(err)
	}
	words, err := freeze(idx.da, mem.root)
	if err != nil {
		return err
	}
	if err := idx.da.Trim(words); err != nil {
		return errors.New("trimming index storage failed").
			WithType(ErrTypeStorage).
			WithTag("name", idx.da.Name()).
			WithTag("words", words).
			Wrap(err)
	}

	idx.da.SetHeader(headerMagic, MagicInt)
	idx.da.SetHeader(headerChecksum, int32(idx.g.NodeCount()))
	idx.da.SetHeader(headerResolution, int32(shape.MinResolutionInMeters))
	idx.da.SetHeader(headerWords, int32(words))
	idx.initialized = true
	idx.built = true

	entriesPerLeaf := 0.0
	if mem.leafs > 0 {
		entriesPerLeaf = float64(mem.size) / float64(mem.leafs)
	}
	logs.WithTag("duration", time.Since(start)).
		WithTag("size", mem.size).
		WithTag("leafs", mem.leafs).
		WithTag("entries_per_leaf", entriesPerLeaf).
		WithTag("words", words).
		WithTag("entries", shape.Entries).
		WithTag("resolution", shape.MinResolutionInMeters).
		WithTag("checksum", idx.g.NodeCount()).
		WithTag("skipped_segments", mem.skipped).
		Info("location index built")
	logs.WithTag("leaf_sizes", mem.leafSizes().String()).
		Debug("location index leaf sizes")
	instrumentBuild(start)
	return nil
}

// LoadExisting loads a previously flushed index. It returns false when the
// storage holds no index. An index built for another graph or format
// fails with ErrTypeIndexStale.
func (idx *LocationIndex) LoadExisting() (bool, error) {
	ok, err := idx.loadExisting()
	return ok, instrumentError(err)
}

func (idx *LocationIndex) loadExisting() (bool, error) {
	if err := idx.checkUninitialized(); err != nil {
		return false, err
	}

	ok, err := idx.da.LoadExisting()
	if err != nil {
		return false, errors.New("loading index storage failed").
			WithType(ErrTypeStorage).
			WithTag("name", idx.da.Name()).
			Wrap(err)
	}
	if !ok {
		return false, nil
	}

	if magic := idx.da.GetHeader(headerMagic); magic != MagicInt {
		return false, errors.New("incompatible location index format, rebuild required").
			WithType(ErrTypeIndexStale).
			WithTag("name", idx.da.Name()).
			WithTag("expected", MagicInt).
			WithTag("actual", magic)
	}
	if checksum := idx.da.GetHeader(headerChecksum); int(checksum) != idx.g.NodeCount() {
		return false, errors.New("location index belongs to another graph, rebuild required").
			WithType(ErrTypeIndexStale).
			WithTag("name", idx.da.Name()).
			WithTag("expected", idx.g.NodeCount()).
			WithTag("actual", checksum)
	}
	words := int(idx.da.GetHeader(headerWords))
	if words < StartPointer || words > idx.da.Capacity() {
		return false, errors.New("location index is truncated, rebuild required").
			WithType(ErrTypeIndexStale).
			WithTag("name", idx.da.Name()).
			WithTag("words", words).
			WithTag("capacity", idx.da.Capacity())
	}

	minRes := int(idx.da.GetHeader(headerResolution))
	shape, err := PlanShape(idx.g.Bounds(), minRes)
	if err != nil {
		return false, errors.New("stored resolution is invalid, rebuild required").
			WithType(ErrTypeIndexStale).
			WithTag("resolution", minRes).
			Wrap(err)
	}
	if err := idx.setShape(shape); err != nil {
		return false, err
	}
	idx.cfg.MinResolutionInMeters = minRes
	idx.initialized = true

	logs.WithTag("name", idx.da.Name()).
		WithTag("words", words).
		WithTag("entries", shape.Entries).
		WithTag("resolution", minRes).
		Info("location index loaded")
	return true, nil
}

// Flush persists a built index. Loaded indexes are read only and are left
// untouched.
func (idx *LocationIndex) Flush() error {
	if err := idx.checkInitialized(); err != nil {
		return instrumentError(err)
	}
	if !idx.built {
		return nil
	}
	if err := idx.da.Flush(); err != nil {
		return instrumentError(errors.New("flushing location index failed").
			WithType(ErrTypeStorage).
			WithTag("name", idx.da.Name()).
			Wrap(err))
	}
	return nil
}

func (idx *LocationIndex) Close() error {
	if idx.closed {
		return nil
	}
	idx.closed = true
	if err := idx.da.Close(); err != nil {
		return instrumentError(errors.New("closing location index failed").
			WithType(ErrTypeStorage).
			WithTag("name", idx.da.Name()).
			Wrap(err))
	}
	return nil
}

func (idx *LocationIndex) IsClosed() bool {
	return idx.closed
}

// Shape is nil until the index is built or loaded.
func (idx *LocationIndex) Shape() *Shape {
	return idx.shape
}

// FindClosest returns the graph element closest to (lat, lng) over the
// edges accepted by both the build filter and filter, which may be nil. When nothing is found the
// returned Snap is invalid; errors are reserved for unusable indexes and
// context cancellation.
func (idx *LocationIndex) FindClosest(ctx context.Context, lat, lng float64, filter graph.EdgeFilter) (*Snap, error) {
	if err := idx.checkInitialized(); err != nil {
		return nil, instrumentError(err)
	}
	// edges left out of the index are never snapped to
	filter = graph.AllOf(idx.cfg.BuildFilter, filter)
	snap, err := idx.findClosestIn(ctx, idx.tree, lat, lng, filter)
	return snap, instrumentError(err)
}

// FindID returns the stored node closest to (lat, lng) without walking
// the graph, or graph.InvalidNode.
func (idx *LocationIndex) FindID(lat, lng float64) (graph.Node, error) {
	if err := idx.checkInitialized(); err != nil {
		return graph.InvalidNode, instrumentError(err)
	}

	q := newQueryState(idx.g, idx.calc, graph.AcceptAll, NewSnap(lat, lng))
	idx.collectSeeds(idx.tree, q)

	best, bestDist := graph.InvalidNode, math.MaxFloat64
	for _, id := range q.seeds {
		n := graph.Node(id)
		if d := idx.calc.NormalizedDist(q.snap.QueryPoint, idx.g.Coordinate(n)); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best, nil
}

// Query calls v once for every node stored in a cell intersecting bbox.
func (idx *LocationIndex) Query(bbox geo.BBox, v NodeVisitor) error {
	if err := idx.checkInitialized(); err != nil {
		return instrumentError(err)
	}
	idx.tree.query(bbox, &uniqueNodes{
		nodeCount: idx.g.NodeCount(),
		visited:   alg.NewVisitedSet(idx.g.NodeCount()),
		next:      v,
	})
	return nil
}

type uniqueNodes struct {
	nodeCount int
	visited   alg.BitVector
	next      NodeVisitor
}

func (u *uniqueNodes) VisitNode(n graph.Node) {
	if n < 0 || int(n) >= u.nodeCount || u.visited.Get(int64(n)) {
		return
	}
	u.visited.Set(int64(n), true)
	u.next.VisitNode(n)
}
