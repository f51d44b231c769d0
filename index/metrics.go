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
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel  = "error_type"
	resultLabel   = "result"
	positionLabel = "position"
)

var (
	buildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "location_index_build_seconds",
		Help:    "The time to build a location index.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	})

	queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "location_index_queries",
		Help: "The number of closest element queries.",
	}, []string{
		resultLabel,
		positionLabel,
	})

	queryVisitedNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "location_index_query_visited_nodes",
		Help:    "The number of graph nodes expanded by a query.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	})

	indexErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "location_index_errors",
		Help: "The errors that occurred while building, loading or querying a location index.",
	}, []string{
		errTypeLabel,
	})
)

func instrumentBuild(start time.Time) {
	buildLatency.Observe(time.Since(start).Seconds())
}

func instrumentQuery(s *Snap) {
	result := "invalid"
	position := "none"
	if s.IsValid() {
		result = "valid"
		position = s.Position.String()
	}
	queries.With(prometheus.Labels{
		resultLabel:   result,
		positionLabel: position,
	}).Inc()
	queryVisitedNodes.Observe(float64(s.VisitedNodes))
}

func instrumentError(err error) error {
	if err != nil {
		indexErrors.With(prometheus.Labels{
			errTypeLabel: errors.Type(err),
		}).Inc()
	}
	return err
}
