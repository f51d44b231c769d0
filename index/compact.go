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

	"github.com/aukilabs/go-tooling/pkg/errors"

	"github.com/fbenz/locationindex/geo"
	"github.com/fbenz/locationindex/graph"
	"github.com/fbenz/locationindex/spatialkey"
	"github.com/fbenz/locationindex/storage"
)

// The frozen tree is a flat array of int32 words. A branch with F children
// takes F consecutive words, one slot per child:
//
//	 0       empty child
//	-(id+1)  leaf holding the single id
//	 p > 0   word offset of the child
//
// Below the last branch level p points to a leaf header holding the offset
// just past its ids, which follow the header. Offsets only grow in
// allocation order and the root always starts at StartPointer.
const StartPointer = 1

// A NodeVisitor receives the nodes found by a bounding box query.
type NodeVisitor interface {
	VisitNode(n graph.Node)
}

type NodeVisitorFunc func(n graph.Node)

func (f NodeVisitorFunc) VisitNode(n graph.Node) {
	f(n)
}

type freezer struct {
	da storage.DataAccess
}

// freeze writes the tree rooted at root into da and returns the number of
// words used.
func freeze(da storage.DataAccess, root *memBranch) (int, error) {
	f := freezer{da: da}
	_, next, err := f.store(root, StartPointer)
	return next, err
}

// store writes e starting at word at. It returns the value of the parent
// slot for e and the next free word.
func (f *freezer) store(e memEntry, at int) (int32, int, error) {
	switch e := e.(type) {
	case *memLeaf:
		switch len(e.ids) {
		case 0:
			return 0, at, nil
		case 1:
			return -(e.ids[0] + 1), at, nil
		}
		end := at + 1 + len(e.ids)
		if err := f.ensure(end); err != nil {
			return 0, at, err
		}
		f.da.SetInt(at, int32(end))
		for i, id := range e.ids {
			f.da.SetInt(at+1+i, id)
		}
		return int32(at), end, nil

	case *memBranch:
		next := at + len(e.children)
		if err := f.ensure(next); err != nil {
			return 0, at, err
		}
		for i, c := range e.children {
			var ref int32
			if c != nil {
				var err error
				if ref, next, err = f.store(c, next); err != nil {
					return 0, at, err
				}
			}
			f.da.SetInt(at+i, ref)
		}
		return int32(at), next, nil
	}
	return 0, at, nil
}

func (f *freezer) ensure(words int) error {
	if words > math.MaxInt32 {
		return errors.New("index exceeds the addressable word range").
			WithType(ErrTypeStorage).
			WithTag("words", words)
	}
	if err := f.da.EnsureCapacity(words); err != nil {
		return errors.New("growing index storage failed").
			WithType(ErrTypeStorage).
			WithTag("words", words).
			Wrap(err)
	}
	return nil
}

// compactTree reads a frozen tree.
type compactTree struct {
	da    storage.DataAccess
	shape *Shape
}

func (t compactTree) fillIDs(keyPart uint64, sink idSink) {
	ptr := StartPointer
	for _, shift := range t.shape.Shifts {
		v := t.da.GetInt(ptr + int(keyPart>>(64-shift)))
		if v == 0 {
			return
		}
		if v < 0 {
			sink.addID(-(v + 1))
			return
		}
		keyPart <<= shift
		ptr = int(v)
	}

	end := int(t.da.GetInt(ptr))
	for i := ptr + 1; i < end; i++ {
		sink.addID(t.da.GetInt(i))
	}
}

// cellRange is an inclusive range of grid cells.
type cellRange struct {
	minX, minY, maxX, maxY int64
}

func (r cellRange) intersects(x, y, width int64) bool {
	return x <= r.maxX && x+width > r.minX && y <= r.maxY && y+width > r.minY
}

// query reports the ids of all leafs whose cells intersect bbox. Ids may
// be reported more than once.
func (t compactTree) query(bbox geo.BBox, v NodeVisitor) {
	if !bbox.IsValid() || !bbox.Intersects(t.shape.Bounds) {
		return
	}
	g := t.shape.Grid()
	minX, minY := g.Cell(bbox.Min.Lat, bbox.Min.Lng)
	maxX, maxY := g.Cell(bbox.Max.Lat, bbox.Max.Lng)
	r := cellRange{minX: minX, minY: minY, maxX: maxX, maxY: maxY}
	t.queryBranch(StartPointer, 0, 0, 0, t.shape.Parts, r, v)
}

// queryBranch walks the branch at ptr covering the square of width cells
// with its south west cell at (x, y).
func (t compactTree) queryBranch(ptr, depth int, x, y, width int64, r cellRange, v NodeVisitor) {
	shift := t.shape.Shifts[depth]
	childWidth := width >> (shift / 2)
	for i := 0; i < t.shape.Entries[depth]; i++ {
		cx, cy := spatialkey.DecodeChildIndex(uint64(i))
		childX, childY := x+cx*childWidth, y+cy*childWidth
		if !r.intersects(childX, childY, childWidth) {
			continue
		}

		ref := t.da.GetInt(ptr + i)
		switch {
		case ref == 0:
		case ref < 0:
			v.VisitNode(graph.Node(-(ref + 1)))
		case depth+1 == t.shape.Depth():
			end := int(t.da.GetInt(int(ref)))
			for j := int(ref) + 1; j < end; j++ {
				v.VisitNode(graph.Node(t.da.GetInt(j)))
			}
		default:
			t.queryBranch(int(ref), depth+1, childX, childY, childWidth, r, v)
		}
	}
}
