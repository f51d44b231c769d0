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

package geo

import (
	"math"

	"github.com/paulmach/orb"
)

type BBox struct {
	Min Coordinate
	Max Coordinate
}

func NewBBox(a, b Coordinate) BBox {
	minLat := math.Min(a.Lat, b.Lat)
	minLng := math.Min(a.Lng, b.Lng)
	maxLat := math.Max(a.Lat, b.Lat)
	maxLng := math.Max(a.Lng, b.Lng)
	return BBox{Coordinate{minLat, minLng}, Coordinate{maxLat, maxLng}}
}

func NewBBoxPoint(a Coordinate) BBox {
	return BBox{a, a}
}

// EmptyBBox returns an inverted box, which any Extend call replaces.
func EmptyBBox() BBox {
	return BBox{Coordinate{1, 1}, Coordinate{-1, -1}}
}

func FromBound(b orb.Bound) BBox {
	return BBox{FromPoint(b.Min), FromPoint(b.Max)}
}

func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: b.Min.Point(), Max: b.Max.Point()}
}

// IsValid reports whether the box spans a non-negative, finite area.
func (b BBox) IsValid() bool {
	for _, v := range [...]float64{b.Min.Lat, b.Min.Lng, b.Max.Lat, b.Max.Lng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Min.Lat <= b.Max.Lat && b.Min.Lng <= b.Max.Lng
}

// HasExtent reports whether the box is valid and not collapsed on either axis.
func (b BBox) HasExtent() bool {
	return b.IsValid() && b.Max.Lat > b.Min.Lat && b.Max.Lng > b.Min.Lng
}

func (b BBox) Extend(c Coordinate) BBox {
	if !b.IsValid() {
		return NewBBoxPoint(c)
	}
	return FromBound(b.Bound().Extend(c.Point()))
}

func (b BBox) Union(a BBox) BBox {
	minLat := math.Min(a.Min.Lat, b.Min.Lat)
	minLng := math.Min(a.Min.Lng, b.Min.Lng)
	maxLat := math.Max(a.Max.Lat, b.Max.Lat)
	maxLng := math.Max(a.Max.Lng, b.Max.Lng)
	return BBox{Coordinate{minLat, minLng}, Coordinate{maxLat, maxLng}}
}

// Pad grows the box by deg degrees on every side.
func (b BBox) Pad(deg float64) BBox {
	return FromBound(b.Bound().Pad(deg))
}

func (b BBox) Center() Coordinate {
	return Coordinate{
		Lat: (b.Min.Lat + b.Max.Lat) / 2.0,
		Lng: (b.Min.Lng + b.Max.Lng) / 2.0,
	}
}

func (b BBox) Contains(p Coordinate) bool {
	return b.Bound().Contains(p.Point())
}

func (b BBox) Intersects(a BBox) bool {
	return b.Bound().Intersects(a.Bound())
}

func (b BBox) LatExtent() float64 {
	return b.Max.Lat - b.Min.Lat
}

func (b BBox) LngExtent() float64 {
	return b.Max.Lng - b.Min.Lng
}
