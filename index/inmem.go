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

	"github.com/aukilabs/go-tooling/pkg/logs"

	"github.com/fbenz/locationindex/alg"
	"github.com/fbenz/locationindex/geo"
	"github.com/fbenz/locationindex/graph"
	"github.com/fbenz/locationindex/spatialkey"
)

// memEntry is either a *memBranch or a *memLeaf.
type memEntry interface {
	isLeaf() bool
}

type memBranch struct {
	children []memEntry
}

func newMemBranch(entries int) *memBranch {
	return &memBranch{children: make([]memEntry, entries)}
}

func (*memBranch) isLeaf() bool { return false }

type memLeaf struct {
	ids []int32
}

func (*memLeaf) isLeaf() bool { return true }

// memIndex is the mutable tree filled while building. Only branches on the
// path to a non-empty leaf are allocated.
type memIndex struct {
	shape *Shape
	algo  *spatialkey.Algo
	grid  Grid
	root  *memBranch

	// number of ids over all leafs
	size  int
	leafs int
	// segments skipped for wrapping around the anti-meridian
	skipped int
}

func newMemIndex(shape *Shape, algo *spatialkey.Algo) *memIndex {
	return &memIndex{
		shape: shape,
		algo:  algo,
		grid:  shape.Grid(),
		root:  newMemBranch(shape.Entries[0]),
	}
}

// prepare adds every edge of g accepted by filter. The id stored for an
// edge is chosen by picker.
func (m *memIndex) prepare(g graph.Graph, filter graph.EdgeFilter, picker NodePicker) {
	it := g.AllEdges()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		if !filter.Accept(e) {
			continue
		}
		m.addEdge(g, e, int32(picker.PickBestNode(e.Base, e.Adj)))
	}
}

func (m *memIndex) addEdge(g graph.Graph, e graph.EdgeState, id int32) {
	pl := graph.FetchGeometry(g, e, graph.All)
	ins := cellInserter{idx: m, id: id}

	prev := pl.At(0)
	for i := 1; i < pl.Len(); i++ {
		p := pl.At(i)
		if geo.IsCrossBoundary(prev.Lng, p.Lng) {
			m.skipped++
			logs.WithTag("edge", e.Edge).
				WithTag("from", prev).
				WithTag("to", p).
				Debug("skipping segment crossing the anti-meridian")
		} else {
			m.grid.Traverse(prev.Lat, prev.Lng, p.Lat, p.Lng, &ins)
		}
		prev = p
	}
}

// cellInserter stores one id in every cell it visits.
type cellInserter struct {
	idx *memIndex
	id  int32
}

func (c *cellInserter) VisitCell(x, y int64) {
	c.idx.insert(c.idx.algo.EncodeXY(x, y), c.id)
}

func (m *memIndex) insert(key uint64, id int32) {
	keyPart := key << (64 - m.shape.Bits)
	b := m.root
	last := len(m.shape.Shifts) - 1
	for d, shift := range m.shape.Shifts {
		i := keyPart >> (64 - shift)
		keyPart <<= shift

		if d == last {
			l, _ := b.children[i].(*memLeaf)
			if l == nil {
				l = &memLeaf{}
				b.children[i] = l
				m.leafs++
			}
			// edges passing several times through a cell are stored once
			if n := len(l.ids); n == 0 || l.ids[n-1] != id {
				l.ids = append(l.ids, id)
				m.size++
			}
			return
		}

		next, _ := b.children[i].(*memBranch)
		if next == nil {
			next = newMemBranch(m.shape.Entries[d+1])
			b.children[i] = next
		}
		b = next
	}
}

func (m *memIndex) fillIDs(keyPart uint64, sink idSink) {
	var e memEntry = m.root
	for _, shift := range m.shape.Shifts {
		b, ok := e.(*memBranch)
		if !ok {
			break
		}
		i := keyPart >> (64 - shift)
		keyPart <<= shift
		if e = b.children[i]; e == nil {
			return
		}
	}
	if l, ok := e.(*memLeaf); ok {
		for _, id := range l.ids {
			sink.addID(id)
		}
	}
}

// leafSizes counts the leafs by the number of ids they hold, in power of
// two buckets.
func (m *memIndex) leafSizes() *alg.Histogram {
	h := alg.NewHistogram("leaf sizes")
	m.countLeafs(m.root, h)
	return h
}

func (m *memIndex) countLeafs(e memEntry, h *alg.Histogram) {
	switch e := e.(type) {
	case *memBranch:
		for _, c := range e.children {
			if c != nil {
				m.countLeafs(c, h)
			}
		}
	case *memLeaf:
		h.Add(leafSizeBucket(len(e.ids)))
	}
}

func leafSizeBucket(n int) string {
	if n <= 2 {
		return fmt.Sprint(n)
	}
	for limit := 4; limit <= 64; limit *= 2 {
		if n <= limit {
			return fmt.Sprintf("<=%d", limit)
		}
	}
	return ">64"
}
