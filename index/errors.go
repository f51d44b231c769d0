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

const (
	// The tree shape cannot be encoded in a 64 bit key.
	ErrTypeInvalidShape = "location_index_invalid_shape"
	// The stored index was built with another format or graph.
	ErrTypeIndexStale   = "location_index_stale"

	ErrTypeNotInitialized     = "location_index_not_initialized"
	ErrTypeAlreadyInitialized = "location_index_already_initialized"
	ErrTypeClosed             = "location_index_closed"
	ErrTypeStorage            = "location_index_storage"

	ErrTypeSnappedPointCalculated = "snap_point_already_calculated"
	ErrTypeNoClosestEdge          = "snap_no_closest_edge"
)
