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

// Coordinates are latitude/longitude pairs referencing the WGS84 datum.
// Road network data carries 7 decimal digits of precision, which fits
// comfortably into an int32 per component. All computations are done on
// float64 values, whose 52 bit mantissa holds these without loss.

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	// Mean earth radius in meter.
	EarthRadius = 6371000.0
	// Circumference of the earth along a great circle in meter.
	EarthCircumference = 2 * math.Pi * EarthRadius
	// Meters per degree along a great circle.
	MetersPerDegree = EarthCircumference / 360.0
	// OsmEpsilon is the smallest difference between two osm coordinates.
	OsmEpsilon = 1e-7
	// The inverse of OsmEpsilon
	OsmPrecision = 1e7
)

type Coordinate struct {
	Lat float64
	Lng float64
}

// Decode a coordinate given its fixed point representation.
func DecodeCoordinate(lat, lng int32) Coordinate {
	return Coordinate{
		Lat: float64(lat) / OsmPrecision,
		Lng: float64(lng) / OsmPrecision,
	}
}

// Represent a coordinate in fixed point format.
func (a Coordinate) Encode() (lat, lng int32) {
	lat = int32(math.Floor(a.Lat*OsmPrecision + 0.5))
	lng = int32(math.Floor(a.Lng*OsmPrecision + 0.5))
	return
}

// Round a Coordinate to osm precision.
func (a Coordinate) Round() Coordinate {
	return Coordinate{
		Lat: math.Floor(a.Lat*OsmPrecision+0.5) / OsmPrecision,
		Lng: math.Floor(a.Lng*OsmPrecision+0.5) / OsmPrecision,
	}
}

func (a Coordinate) String() string {
	return fmt.Sprintf("(%.7f, %.7f)", a.Lat, a.Lng)
}

// Point converts a to an orb point, which orders longitude first.
func (a Coordinate) Point() orb.Point {
	return orb.Point{a.Lng, a.Lat}
}

func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

// Test if two components differ by less than epsilon.
func EqualTolerance(a, b float64) bool {
	return math.Abs(a-b) <= OsmEpsilon/2.0
}

// Test if two Coordinates differ by less than epsilon.
func (a Coordinate) Equal(b Coordinate) bool {
	return EqualTolerance(a.Lat, b.Lat) && EqualTolerance(a.Lng, b.Lng)
}

// Circumference of the latitude circle at lat in meter.
func Circumference(lat float64) float64 {
	return EarthCircumference * math.Cos(toRadians(lat))
}

// IsCrossBoundary reports whether a segment between the two longitudes
// most likely wraps around the anti-meridian.
func IsCrossBoundary(lng1, lng2 float64) bool {
	return math.Abs(lng1-lng2) > 300
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
