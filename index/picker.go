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
	"github.com/fbenz/locationindex/graph"
)

// A NodePicker chooses which end point of an edge is stored in the cells
// the edge passes through. Queries start their graph walk from it.
type NodePicker interface {
	PickBestNode(base, adj graph.Node) graph.Node
}

type BaseNodePicker struct{}

func (BaseNodePicker) PickBestNode(base, adj graph.Node) graph.Node {
	return base
}

// LowerLevelPicker prefers the end point with the lower contraction level.
// Walks over a graph without shortcuts can only leave such nodes upwards,
// so the stored node stays reachable.
type LowerLevelPicker struct {
	Graph graph.LevelGraph
}

func (p LowerLevelPicker) PickBestNode(base, adj graph.Node) graph.Node {
	if p.Graph.Level(adj) < p.Graph.Level(base) {
		return adj
	}
	return base
}
