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

package alg

// Histogram handling for quick statistics.

import (
	"fmt"
	"sort"
	"strings"
)

type Histogram struct {
	Name string
	Data map[string]int
}

type Sample struct {
	Name      string
	Frequency int
}

func NewHistogram(name string) *Histogram {
	return &Histogram{
		Name: name,
		Data: map[string]int{},
	}
}

func (h *Histogram) Add(sample string) {
	h.Data[sample]++
}

func (h *Histogram) Total() int {
	total := 0
	for _, frequency := range h.Data {
		total += frequency
	}
	return total
}

// Samples returns the samples in descending order of frequency. Equally
// frequent samples are ordered by name.
func (h *Histogram) Samples() []Sample {
	s := make([]Sample, 0, len(h.Data))
	for name, frequency := range h.Data {
		s = append(s, Sample{Name: name, Frequency: frequency})
	}
	sort.Slice(s, func(i, j int) bool {
		if s[i].Frequency != s[j].Frequency {
			return s[i].Frequency > s[j].Frequency
		}
		return s[i].Name < s[j].Name
	})
	return s
}

func (h *Histogram) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):", h.Name, h.Total())
	for _, sample := range h.Samples() {
		fmt.Fprintf(&b, " %s=%d", sample.Name, sample.Frequency)
	}
	return b.String()
}
