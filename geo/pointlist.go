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

// A PointList is an ordered edge geometry. Elevations are optional; a
// list is either entirely 2D (Ele == nil) or carries one elevation per
// coordinate.
type PointList struct {
	Coords []Coordinate
	Ele    []float64
}

func NewPointList(coords ...Coordinate) PointList {
	return PointList{Coords: coords}
}

// PointListFromLineString converts an orb line string. The result is 2D.
func PointListFromLineString(ls orb.LineString) PointList {
	coords := make([]Coordinate, len(ls))
	for i, p := range ls {
		coords[i] = FromPoint(p)
	}
	return PointList{Coords: coords}
}

func (p PointList) Len() int {
	return len(p.Coords)
}

func (p PointList) Is3D() bool {
	return p.Ele != nil
}

func (p PointList) At(i int) Coordinate {
	return p.Coords[i]
}

// Elevation returns the elevation of point i, or NaN for 2D lists.
func (p PointList) Elevation(i int) float64 {
	if p.Ele == nil {
		return math.NaN()
	}
	return p.Ele[i]
}

func (p *PointList) Add(c Coordinate) {
	if p.Ele != nil {
		panic("geo: Add on a 3D point list, use Add3D")
	}
	p.Coords = append(p.Coords, c)
}

func (p *PointList) Add3D(c Coordinate, ele float64) {
	if p.Ele == nil && len(p.Coords) > 0 {
		panic("geo: Add3D on a 2D point list, use Add")
	}
	if p.Ele == nil {
		p.Ele = make([]float64, 0, cap(p.Coords))
	}
	p.Coords = append(p.Coords, c)
	p.Ele = append(p.Ele, ele)
}

// Append adds all points of q. Mixing dimensions drops the elevations.
func (p *PointList) Append(q PointList) {
	switch {
	case len(p.Coords) == 0 && q.Is3D():
		p.Ele = append([]float64{}, q.Ele...)
	case p.Is3D() && q.Is3D():
		p.Ele = append(p.Ele, q.Ele...)
	default:
		p.Ele = nil
	}
	p.Coords = append(p.Coords, q.Coords...)
}

// Reverse returns a reversed copy of p.
func (p PointList) Reverse() PointList {
	r := PointList{Coords: make([]Coordinate, len(p.Coords))}
	for i, c := range p.Coords {
		r.Coords[len(p.Coords)-1-i] = c
	}
	if p.Ele != nil {
		r.Ele = make([]float64, len(p.Ele))
		for i, e := range p.Ele {
			r.Ele[len(p.Ele)-1-i] = e
		}
	}
	return r
}

func (p PointList) Bounds() BBox {
	b := EmptyBBox()
	for _, c := range p.Coords {
		b = b.Extend(c)
	}
	return b
}

func (p PointList) LineString() orb.LineString {
	ls := make(orb.LineString, len(p.Coords))
	for i, c := range p.Coords {
		ls[i] = c.Point()
	}
	return ls
}

// Length is the length of the geometry on the WGS84 ellipsoid in meter.
// Elevation differences are not taken into account.
func (p PointList) Length() float64 {
	if len(p.Coords) < 2 {
		return 0
	}

	prev := p.Coords[0]
	total := 0.0
	for _, c := range p.Coords[1:] {
		distance, _ := wgs84.To(prev.Lat, prev.Lng, c.Lat, c.Lng)
		total += distance
		prev = c
	}
	return total
}
