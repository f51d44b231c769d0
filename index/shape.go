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
	"math/bits"

	"github.com/aukilabs/go-tooling/pkg/errors"

	"github.com/fbenz/locationindex/geo"
)

var (
	// Used when the graph has no usable bounding box.
	defaultBounds = geo.NewBBox(geo.Coordinate{Lat: -10, Lng: -10}, geo.Coordinate{Lat: 10, Lng: 10})
	// Added around boxes collapsed to a line or point, in degrees.
	degeneratePadding = 1e-3
	// Branching factors tried per level, largest first.
	branchingFactors = [...]int{64, 16, 4}
)

// A Shape fixes the branching factor of every tree level. Level d
// consumes Shifts[d] bits of a spatial key; the leaves form a uniform grid
// of Parts x Parts cells over Bounds.
type Shape struct {
	Bounds                geo.BBox
	MinResolutionInMeters int
	Entries               []int
	Shifts                []uint8
	Bits                  uint
	Parts                 int64
	DeltaLat              float64
	DeltaLng              float64
}

// NormalizeBounds substitutes a fixed box for invalid bounds and pads
// bounds without extent.
func NormalizeBounds(b geo.BBox) geo.BBox {
	if !b.IsValid() {
		return defaultBounds
	}
	if !b.HasExtent() {
		return b.Pad(degeneratePadding)
	}
	return b
}

// PlanShape picks branching factors so that leaf cells are about
// minResolutionInMeters wide.
func PlanShape(bounds geo.BBox, minResolutionInMeters int) (*Shape, error) {
	if minResolutionInMeters <= 0 {
		return nil, errors.New("resolution must be positive").
			WithType(ErrTypeInvalidShape).
			WithTag("resolution", minResolutionInMeters)
	}
	bounds = NormalizeBounds(bounds)

	// The latitude closest to the equator has the widest longitude extent.
	lat := math.Min(math.Abs(bounds.Max.Lat), math.Abs(bounds.Min.Lat))
	maxDistInMeters := math.Max(
		bounds.LatExtent()/360*geo.EarthCircumference,
		bounds.LngExtent()/360*geo.Circumference(lat))

	ratio := maxDistInMeters / float64(minResolutionInMeters)
	// the last level is always 4
	ratio = ratio * ratio / 4

	var entries []int
	for ratio > 1 {
		factor := 0
		for _, f := range branchingFactors {
			if float64(f) <= ratio {
				factor = f
				break
			}
		}
		if factor == 0 {
			break
		}
		entries = append(entries, factor)
		ratio /= float64(factor)
	}
	entries = append(entries, 4)

	return NewShape(bounds, minResolutionInMeters, entries)
}

// NewShape builds a shape with explicit branching factors.
func NewShape(bounds geo.BBox, minResolutionInMeters int, entries []int) (*Shape, error) {
	shifts, err := validateEntries(entries)
	if err != nil {
		return nil, err
	}

	var sum uint
	for _, s := range shifts {
		sum += uint(s)
	}
	bounds = NormalizeBounds(bounds)
	parts := int64(1) << (sum / 2)
	return &Shape{
		Bounds:                bounds,
		MinResolutionInMeters: minResolutionInMeters,
		Entries:               append([]int(nil), entries...),
		Shifts:                shifts,
		Bits:                  sum,
		Parts:                 parts,
		DeltaLat:              bounds.LatExtent() / float64(parts),
		DeltaLng:              bounds.LngExtent() / float64(parts),
	}, nil
}

func validateEntries(entries []int) ([]uint8, error) {
	if len(entries) == 0 {
		return nil, errors.New("tree needs at least one level").WithType(ErrTypeInvalidShape)
	}

	shifts := make([]uint8, len(entries))
	sum := 0
	for i, e := range entries {
		if e < 4 || e&(e-1) != 0 {
			return nil, errors.New("branching factor is not a power of two").
				WithType(ErrTypeInvalidShape).
				WithTag("depth", i).
				WithTag("entries", e)
		}
		if e > branchingFactors[0] {
			return nil, errors.New("branching factor is too large").
				WithType(ErrTypeInvalidShape).
				WithTag("depth", i).
				WithTag("entries", e).
				WithTag("max", branchingFactors[0])
		}
		shift := bits.TrailingZeros(uint(e))
		if shift%2 != 0 {
			// cells must stay square
			return nil, errors.New("branching factor is not a power of four").
				WithType(ErrTypeInvalidShape).
				WithTag("depth", i).
				WithTag("entries", e)
		}
		if i > 0 && e > entries[i-1] {
			return nil, errors.New("branching factors must not increase").
				WithType(ErrTypeInvalidShape).
				WithTag("depth", i).
				WithTag("entries", entries)
		}
		shifts[i] = uint8(shift)
		sum += shift
	}
	if sum > 64 {
		return nil, errors.New("spatial key exceeds 64 bits").
			WithType(ErrTypeInvalidShape).
			WithTag("bits", sum).
			WithTag("entries", entries)
	}
	return shifts, nil
}

func (s *Shape) Depth() int {
	return len(s.Entries)
}

func (s *Shape) Grid() Grid {
	return Grid{
		MinLat:   s.Bounds.Min.Lat,
		MinLng:   s.Bounds.Min.Lng,
		DeltaLat: s.DeltaLat,
		DeltaLng: s.DeltaLng,
		Parts:    s.Parts,
	}
}
