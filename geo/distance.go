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

// Distances come in two flavours. Normalized distances are monotone in the
// real distance but skip the expensive final conversion (square roots,
// arc sines), so comparisons during a search stay cheap. Only the final
// answer is converted back to meters.

import (
	"fmt"
	"math"

	"github.com/StefanSchroeder/Golang-Ellipsoid/ellipsoid"
)

var wgs84 = ellipsoid.Init("WGS84", ellipsoid.Degrees, ellipsoid.Meter,
	ellipsoid.Longitude_is_symmetric, ellipsoid.Bearing_is_symmetric)

type DistanceCalc interface {
	// Dist is the distance between a and b in meter.
	Dist(a, b Coordinate) float64
	NormalizedDist(a, b Coordinate) float64
	// NormalizeDist converts meters into the normalized unit.
	NormalizeDist(meters float64) float64
	// DenormalizeDist converts a normalized distance into meters.
	DenormalizeDist(normed float64) float64
	// NormalizedEdgeDist is the normalized distance from r to its
	// projection onto the line through a and b.
	NormalizedEdgeDist(r, a, b Coordinate) float64
	// ValidEdgeDistance reports whether the projection of r falls strictly
	// between a and b.
	ValidEdgeDistance(r, a, b Coordinate) bool
	// CrossingPoint is the projection of r onto the line through a and b.
	CrossingPoint(r, a, b Coordinate) Coordinate
}

type Precision int

const (
	// Flat projection around the points; fast and accurate for the short
	// distances a nearest neighbour search deals with.
	PrecisionPlane Precision = iota
	// Great circle distances on a sphere.
	PrecisionEarth
	// Geodesic distances on the WGS84 ellipsoid.
	PrecisionEllipsoid
)

func (p Precision) String() string {
	switch p {
	case PrecisionPlane:
		return "plane"
	case PrecisionEarth:
		return "earth"
	case PrecisionEllipsoid:
		return "ellipsoid"
	}
	return fmt.Sprintf("Precision(%d)", int(p))
}

func NewDistanceCalc(p Precision) DistanceCalc {
	switch p {
	case PrecisionEarth:
		return Haversine{}
	case PrecisionEllipsoid:
		return Ellipsoid{}
	}
	return PlaneProjection{}
}

// PlaneProjection approximates distances on the tangent plane.
type PlaneProjection struct{}

func (PlaneProjection) Dist(a, b Coordinate) float64 {
	return EarthRadius * math.Sqrt(PlaneProjection{}.NormalizedDist(a, b))
}

func (PlaneProjection) NormalizedDist(a, b Coordinate) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)
	left := math.Cos(toRadians((a.Lat+b.Lat)/2)) * dLng
	return dLat*dLat + left*left
}

func (PlaneProjection) NormalizeDist(meters float64) float64 {
	tmp := meters / EarthRadius
	return tmp * tmp
}

func (PlaneProjection) DenormalizeDist(normed float64) float64 {
	return EarthRadius * math.Sqrt(normed)
}

func (c PlaneProjection) NormalizedEdgeDist(r, a, b Coordinate) float64 {
	return normalizedEdgeDist(c, r, a, b)
}

func (PlaneProjection) ValidEdgeDistance(r, a, b Coordinate) bool {
	return validEdgeDistance(r, a, b)
}

func (PlaneProjection) CrossingPoint(r, a, b Coordinate) Coordinate {
	return crossingPoint(r, a, b)
}

// Haversine computes great circle distances.
type Haversine struct{}

func (Haversine) Dist(a, b Coordinate) float64 {
	return Haversine{}.DenormalizeDist(Haversine{}.NormalizedDist(a, b))
}

func (Haversine) NormalizedDist(a, b Coordinate) float64 {
	sinDeltaLat := math.Sin(toRadians(b.Lat-a.Lat) / 2)
	sinDeltaLng := math.Sin(toRadians(b.Lng-a.Lng) / 2)
	return sinDeltaLat*sinDeltaLat +
		sinDeltaLng*sinDeltaLng*math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))
}

func (Haversine) NormalizeDist(meters float64) float64 {
	tmp := math.Sin(meters / 2 / EarthRadius)
	return tmp * tmp
}

func (Haversine) DenormalizeDist(normed float64) float64 {
	return EarthRadius * 2 * math.Asin(math.Sqrt(normed))
}

func (c Haversine) NormalizedEdgeDist(r, a, b Coordinate) float64 {
	return normalizedEdgeDist(c, r, a, b)
}

func (Haversine) ValidEdgeDistance(r, a, b Coordinate) bool {
	return validEdgeDistance(r, a, b)
}

func (Haversine) CrossingPoint(r, a, b Coordinate) Coordinate {
	return crossingPoint(r, a, b)
}

// Ellipsoid measures geodesics on WGS84. Its normalized unit is the meter.
type Ellipsoid struct{}

func (Ellipsoid) Dist(a, b Coordinate) float64 {
	if a == b {
		return 0
	}
	distance, _ := wgs84.To(a.Lat, a.Lng, b.Lat, b.Lng)
	return distance
}

func (e Ellipsoid) NormalizedDist(a, b Coordinate) float64 {
	return e.Dist(a, b)
}

func (Ellipsoid) NormalizeDist(meters float64) float64 {
	return meters
}

func (Ellipsoid) DenormalizeDist(normed float64) float64 {
	return normed
}

func (e Ellipsoid) NormalizedEdgeDist(r, a, b Coordinate) float64 {
	return normalizedEdgeDist(e, r, a, b)
}

func (Ellipsoid) ValidEdgeDistance(r, a, b Coordinate) bool {
	return validEdgeDistance(r, a, b)
}

func (Ellipsoid) CrossingPoint(r, a, b Coordinate) Coordinate {
	return crossingPoint(r, a, b)
}

// The projection helpers work on an equirectangular plane whose
// longitudes are shrunk by the cosine of the segment's mean latitude.

func shrinkFactor(a, b Coordinate) float64 {
	return math.Cos(toRadians((a.Lat + b.Lat) / 2))
}

func normalizedEdgeDist(c DistanceCalc, r, a, b Coordinate) float64 {
	if a == b {
		return c.NormalizedDist(r, a)
	}
	return c.NormalizedDist(crossingPoint(r, a, b), r)
}

func crossingPoint(r, a, b Coordinate) Coordinate {
	if a == b {
		return a
	}
	shrink := shrinkFactor(a, b)
	aLng := a.Lng * shrink
	bLng := b.Lng * shrink
	rLng := r.Lng * shrink

	deltaLng := bLng - aLng
	deltaLat := b.Lat - a.Lat
	if deltaLat == 0 {
		// horizontal edge
		return Coordinate{a.Lat, r.Lng}
	}
	if deltaLng == 0 {
		// vertical edge
		return Coordinate{r.Lat, a.Lng}
	}

	norm := deltaLng*deltaLng + deltaLat*deltaLat
	factor := ((rLng-aLng)*deltaLng + (r.Lat-a.Lat)*deltaLat) / norm
	cLng := aLng + factor*deltaLng
	cLat := a.Lat + factor*deltaLat
	return Coordinate{cLat, cLng / shrink}
}

func validEdgeDistance(r, a, b Coordinate) bool {
	shrink := shrinkFactor(a, b)
	aLng := a.Lng * shrink
	bLng := b.Lng * shrink
	rLng := r.Lng * shrink

	arX := rLng - aLng
	arY := r.Lat - a.Lat
	abX := bLng - aLng
	abY := b.Lat - a.Lat
	abAr := arX*abX + arY*abY

	rbX := bLng - rLng
	rbY := b.Lat - r.Lat
	abRb := rbX*abX + rbY*abY

	// both angles at a and b are acute
	return abAr > 0 && abRb > 0
}
