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
	"github.com/fbenz/locationindex/geo"
	"github.com/fbenz/locationindex/graph"
)

type Config struct {
	// Edge length of a leaf cell. Smaller values give a deeper tree with
	// fewer seeds per cell. Only used by Build; a loaded index restores
	// the value it was built with. Zero selects the default.
	MinResolutionInMeters int

	// Also search the cells around the query cell. An edge closest to
	// the query point may only be stored in a neighbouring cell.
	RegionSearch bool
	// Number of cell rings searched at most when the inner rings hold no
	// seeds.
	MaxRegionSearch int

	Precision geo.Precision

	// Upper bound on the nodes a single query expands. Zero means no limit.
	MaxVisitedNodes int

	// Picks the node stored for an edge. Defaults to BaseNodePicker.
	Picker NodePicker
	// Edges rejected by this filter are not indexed. Defaults to all edges.
	BuildFilter graph.EdgeFilter
}

func DefaultConfig() Config {
	return Config{
		MinResolutionInMeters: 300,
		RegionSearch:          true,
		MaxRegionSearch:       2,
		Precision:             geo.PrecisionPlane,
		MaxVisitedNodes:       5000,
		Picker:                BaseNodePicker{},
		BuildFilter:           graph.AcceptAll,
	}
}

func (c Config) withDefaults() Config {
	if c.MinResolutionInMeters == 0 {
		c.MinResolutionInMeters = DefaultConfig().MinResolutionInMeters
	}
	if c.Picker == nil {
		c.Picker = BaseNodePicker{}
	}
	if c.BuildFilter == nil {
		c.BuildFilter = graph.AcceptAll
	}
	if c.MaxRegionSearch < 1 {
		c.MaxRegionSearch = 1
	}
	return c
}
