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

// Package storage provides flat, growable arrays of int32 words with a
// small fixed header, kept in memory or in a memory mapped file.
//
// Both implementations share one file layout: HeaderWords little endian
// int32 header slots followed by the words, also little endian.
package storage

import (
	"encoding/binary"
	"fmt"
)

const (
	ErrTypeClosed     = "storage_closed"
	ErrTypeCorrupt    = "storage_corrupt"
	ErrTypeNotCreated = "storage_not_created"
	ErrTypeReadOnly   = "storage_read_only"
)

// HeaderWords is the number of int32 header slots in front of the data.
const HeaderWords = 16

const headerBytes = HeaderWords * 4

type DataAccess interface {
	// Name is the backing file path, or empty for pure in-memory storage.
	Name() string
	// Create allocates room for words zero-initialized data words.
	Create(words int) error
	// LoadExisting loads previously flushed data. It returns false when
	// there is nothing to load.
	LoadExisting() (bool, error)
	// EnsureCapacity grows the data area to hold at least words words.
	EnsureCapacity(words int) error
	// Trim drops the data words from words on.
	Trim(words int) error
	SetInt(index int, value int32)
	GetInt(index int) int32
	SetHeader(index int, value int32)
	GetHeader(index int) int32
	// Capacity is the number of data words available.
	Capacity() int
	Flush() error
	Close() error
	IsClosed() bool
}

type Type int

const (
	RAM Type = iota
	MMap
)

func (t Type) String() string {
	switch t {
	case RAM:
		return "ram"
	case MMap:
		return "mmap"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// New returns a DataAccess of type t backed by path. A RAM store with an
// empty path is never persisted.
func New(t Type, path string) DataAccess {
	if t == MMap {
		return NewMMap(path)
	}
	return NewRAM(path)
}

func growCapacity(current, needed int) int {
	n := current
	if n < 1024 {
		n = 1024
	}
	for n < needed {
		n *= 2
	}
	return n
}

func checkHeaderIndex(index int) {
	if index < 0 || index >= HeaderWords {
		panic(fmt.Sprintf("storage: header index out of range: %d", index))
	}
}

func getWord(b []byte, index int) int32 {
	return int32(binary.LittleEndian.Uint32(b[4*index:]))
}

func putWord(b []byte, index int, value int32) {
	binary.LittleEndian.PutUint32(b[4*index:], uint32(value))
}
