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

package graph

// An EdgeFilter decides which edges a routing mode may use.
type EdgeFilter interface {
	Accept(e EdgeState) bool
}

type EdgeFilterFunc func(e EdgeState) bool

func (f EdgeFilterFunc) Accept(e EdgeState) bool {
	return f(e)
}

var AcceptAll EdgeFilter = EdgeFilterFunc(func(EdgeState) bool { return true })

type noShortcuts struct {
	g LevelGraph
}

func (f noShortcuts) Accept(e EdgeState) bool {
	return !f.g.IsShortcut(e.Edge)
}

// NoShortcuts rejects the shortcut edges of g.
func NoShortcuts(g LevelGraph) EdgeFilter {
	return noShortcuts{g}
}

type allOf []EdgeFilter

func (fs allOf) Accept(e EdgeState) bool {
	for _, f := range fs {
		if !f.Accept(e) {
			return false
		}
	}
	return true
}

// AllOf accepts an edge if every filter does. Nil filters are skipped.
func AllOf(filters ...EdgeFilter) EdgeFilter {
	var fs allOf
	for _, f := range filters {
		if f != nil {
			fs = append(fs, f)
		}
	}
	if len(fs) == 1 {
		return fs[0]
	}
	return fs
}
