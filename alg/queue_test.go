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

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestIntQueueOrder(t *testing.T) {
	q := NewIntQueue(2)
	require.True(t, q.Empty())

	// interleave pushes and pops so the ring wraps before growing
	q.Push(1)
	q.Push(2)
	require.Equal(t, int32(1), q.Pop())
	q.Push(3)
	q.Push(4)
	q.Push(5)
	require.Equal(t, 4, q.Len())

	for _, want := range []int32{2, 3, 4, 5} {
		require.Equal(t, want, q.Pop())
	}
	require.True(t, q.Empty())
	require.Panics(t, func() { q.Pop() })
}

// The queue behaves like a slice used as FIFO.
func TestIntQueueModel(t *testing.T) {
	fifo := func(ops []int16) bool {
		q := NewIntQueue(0)
		var model []int32
		for _, op := range ops {
			if op >= 0 {
				q.Push(int32(op))
				model = append(model, int32(op))
				continue
			}
			if len(model) == 0 {
				continue
			}
			if q.Pop() != model[0] {
				return false
			}
			model = model[1:]
		}
		return q.Len() == len(model)
	}
	if err := quick.Check(fifo, nil); err != nil {
		t.Error(err)
	}
}
