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

// Package spatialkey maps coordinates inside a bounding box to Z-order
// (Morton) keys.
//
// The box is split into parts x parts cells with parts = 2^(bits/2). A key
// interleaves the bits of the cell's row y and column x, y taking the
// higher bit of every pair:
//
//	key = ... y2 x2 y1 x1 y0 x0
//
// Reading the key from its most significant end, every pair of bits halves
// the remaining square along both axes. The top 2k bits therefore always
// address the same nested square, whatever the remaining bits are, which is
// what a tree consuming the key 2, 4 or 6 bits per level relies on.
package spatialkey

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"

	"github.com/fbenz/locationindex/geo"
)

const ErrTypeInvalidBits = "spatialkey_invalid_bits"

type Algo struct {
	bits     uint
	parts    int64
	bounds   geo.BBox
	deltaLat float64
	deltaLng float64
}

// New returns a codec with keys of the given even bit width over bounds.
func New(bits uint, bounds geo.BBox) (*Algo, error) {
	if bits < 2 || bits > 64 || bits%2 != 0 {
		return nil, errors.New("key width must be even and between 2 and 64").
			WithType(ErrTypeInvalidBits).
			WithTag("bits", bits)
	}
	if !bounds.HasExtent() {
		return nil, errors.New("bounds have no extent").
			WithType(ErrTypeInvalidBits).
			WithTag("bounds", bounds)
	}

	parts := int64(1) << (bits / 2)
	return &Algo{
		bits:     bits,
		parts:    parts,
		bounds:   bounds,
		deltaLat: bounds.LatExtent() / float64(parts),
		deltaLng: bounds.LngExtent() / float64(parts),
	}, nil
}

func (a *Algo) Bits() uint {
	return a.bits
}

// Parts is the number of cells along each axis.
func (a *Algo) Parts() int64 {
	return a.parts
}

func (a *Algo) Bounds() geo.BBox {
	return a.bounds
}

// X is the clamped cell column of lng.
func (a *Algo) X(lng float64) int64 {
	return a.clamp((lng - a.bounds.Min.Lng) / a.deltaLng)
}

// Y is the clamped cell row of lat.
func (a *Algo) Y(lat float64) int64 {
	return a.clamp((lat - a.bounds.Min.Lat) / a.deltaLat)
}

func (a *Algo) clamp(v float64) int64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v >= float64(a.parts) {
		return a.parts - 1
	}
	return int64(v)
}

func (a *Algo) Encode(lat, lng float64) uint64 {
	return a.EncodeXY(a.X(lng), a.Y(lat))
}

func (a *Algo) EncodeXY(x, y int64) uint64 {
	return spread(uint64(y))<<1 | spread(uint64(x))
}

func (a *Algo) DecodeXY(key uint64) (x, y int64) {
	return int64(compact(key)), int64(compact(key >> 1))
}

// Decode returns the center of the cell addressed by key.
func (a *Algo) Decode(key uint64) (lat, lng float64) {
	c := a.CellBounds(a.DecodeXY(key)).Center()
	return c.Lat, c.Lng
}

// DecodeChildIndex splits the index of a child inside its parent square,
// as read from the top bits of a key, into column and row offsets.
func DecodeChildIndex(index uint64) (x, y int64) {
	return int64(compact(index)), int64(compact(index >> 1))
}

func (a *Algo) CellBounds(x, y int64) geo.BBox {
	minLat := a.bounds.Min.Lat + float64(y)*a.deltaLat
	minLng := a.bounds.Min.Lng + float64(x)*a.deltaLng
	return geo.BBox{
		Min: geo.Coordinate{Lat: minLat, Lng: minLng},
		Max: geo.Coordinate{Lat: minLat + a.deltaLat, Lng: minLng + a.deltaLng},
	}
}

// spread moves the lower 32 bits of v to the even bit positions.
func spread(v uint64) uint64 {
	v &= 0x00000000FFFFFFFF
	v = (v | v<<16) & 0x0000FFFF0000FFFF
	v = (v | v<<8) & 0x00FF00FF00FF00FF
	v = (v | v<<4) & 0x0F0F0F0F0F0F0F0F
	v = (v | v<<2) & 0x3333333333333333
	v = (v | v<<1) & 0x5555555555555555
	return v
}

// compact is the inverse of spread.
func compact(v uint64) uint64 {
	v &= 0x5555555555555555
	v = (v | v>>1) & 0x3333333333333333
	v = (v | v>>2) & 0x0F0F0F0F0F0F0F0F
	v = (v | v>>4) & 0x00FF00FF00FF00FF
	v = (v | v>>8) & 0x0000FFFF0000FFFF
	v = (v | v>>16) & 0x00000000FFFFFFFF
	return v
}
