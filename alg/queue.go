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

// An IntQueue is a FIFO queue of node ids backed by a ring buffer.
type IntQueue struct {
	items []int32
	head  int
	size  int
}

func NewIntQueue(initialCapacity int) *IntQueue {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &IntQueue{items: make([]int32, initialCapacity)}
}

func (q *IntQueue) Len() int { return q.size }

func (q *IntQueue) Empty() bool { return q.size == 0 }

func (q *IntQueue) Push(v int32) {
	if q.size == len(q.items) {
		q.grow()
	}
	q.items[(q.head+q.size)%len(q.items)] = v
	q.size++
}

// Pop removes the oldest element. It panics on an empty queue.
func (q *IntQueue) Pop() int32 {
	if q.size == 0 {
		panic("alg: Pop on empty queue")
	}
	v := q.items[q.head]
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return v
}

func (q *IntQueue) Clear() {
	q.head = 0
	q.size = 0
}

func (q *IntQueue) grow() {
	items := make([]int32, 2*len(q.items))
	n := copy(items, q.items[q.head:])
	copy(items[n:], q.items[:q.head])
	q.items = items
	q.head = 0
}
