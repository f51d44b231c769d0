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

/*
 * Package alg holds the small set and queue types the location index needs
 * for its searches.
 *
 * Every nearest neighbour query keeps a visited set over node ids. A query
 * touches a few dozen nodes out of possibly hundreds of millions, so a flat
 * bit vector over all nodes would be allocated and cleared per query for
 * nothing. Sets over large universes are therefore van Emde Boas style trees
 * that only allocate the 16 bit blocks that are actually hit, shifting to
 * flat bit vectors for 16 bits or fewer.
 */

package alg

import (
	"fmt"
	"math/bits"
)

type BitVector interface {
	Get(key int64) bool
	Set(key int64, value bool)
}

type FlatBitVector []byte

func (v FlatBitVector) Get(key int64) bool {
	i := key / 8
	if key < 0 || i >= int64(len(v)) {
		return false
	}
	return GetBit(v, uint(key))
}

func (v FlatBitVector) Set(key int64, value bool) {
	i := key / 8
	if key < 0 || i >= int64(len(v)) {
		panic(fmt.Sprintf("index out of range: %d, len: %d", i, len(v)))
	}
	if value {
		SetBit(v, uint(key))
	} else {
		ClearBit(v, uint(key))
	}
}

// Pointers to the next level are kept in a map, so only non-empty
// subtrees cost memory.
type VebTree struct {
	bits uint
	data map[int64]BitVector
}

func (t *VebTree) Get(key int64) bool {
	msb := key >> t.bits
	if subtable, ok := t.data[msb]; ok {
		lsb := key & ((1 << t.bits) - 1)
		return subtable.Get(lsb)
	}
	return false
}

func (t *VebTree) Set(key int64, value bool) {
	msb := key >> t.bits
	lsb := key & ((1 << t.bits) - 1)
	subtable, ok := t.data[msb]
	if !ok {
		if !value {
			return
		}
		subtable = NewBitVector(t.bits)
		t.data[msb] = subtable
	}
	subtable.Set(lsb, value)
}

func nextPowerOf2(v uint64) uint64 {
	if v == 0 {
		return 1
	} else if v&(v-1) == 0 {
		return v
	}
	return 1 << bits.Len64(v)
}

// NewBitVector returns a set over the keys [0, 2^bits).
func NewBitVector(bits uint) BitVector {
	if bits <= 16 {
		size := (1 << bits) / 8
		if size == 0 {
			size = 1
		}
		return make(FlatBitVector, size)
	}

	// In order to use a VebTree the word size needs to be
	// a power of two. Also, we pass around pointers to VebTrees,
	// instead of copying them everytime.
	bits = uint(nextPowerOf2(uint64(bits)))
	return &VebTree{
		bits: bits / 2,
		data: map[int64]BitVector{},
	}
}

// NewVisitedSet returns a set sized for n keys. Small universes get a flat
// vector, larger ones a sparse tree.
func NewVisitedSet(n int) BitVector {
	if n <= 1<<16 {
		return NewBitVector(16)
	}
	return NewBitVector(uint(bits.Len64(uint64(n - 1))))
}
