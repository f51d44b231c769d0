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

package storage

import (
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// RAMDataAccess keeps all words on the heap and writes them to its file
// on Flush.
type RAMDataAccess struct {
	path    string
	header  [HeaderWords]int32
	words   []int32
	created bool
	closed  bool
}

func NewRAM(path string) *RAMDataAccess {
	return &RAMDataAccess{path: path}
}

func (d *RAMDataAccess) Name() string {
	return d.path
}

func (d *RAMDataAccess) Create(words int) error {
	if d.closed {
		return errors.New("storage is closed").WithType(ErrTypeClosed).WithTag("path", d.path)
	}
	d.words = make([]int32, words)
	d.header = [HeaderWords]int32{}
	d.created = true
	return nil
}

func (d *RAMDataAccess) LoadExisting() (bool, error) {
	if d.closed {
		return false, errors.New("storage is closed").WithType(ErrTypeClosed).WithTag("path", d.path)
	}
	if d.path == "" {
		return false, nil
	}
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.New("reading storage failed").WithTag("path", d.path).Wrap(err)
	}
	if len(data) < headerBytes || len(data)%4 != 0 {
		return false, errors.New("storage file is truncated").
			WithType(ErrTypeCorrupt).
			WithTag("path", d.path).
			WithTag("size", len(data))
	}

	for i := range d.header {
		d.header[i] = getWord(data, i)
	}
	body := data[headerBytes:]
	d.words = make([]int32, len(body)/4)
	for i := range d.words {
		d.words[i] = getWord(body, i)
	}
	d.created = true
	return true, nil
}

func (d *RAMDataAccess) EnsureCapacity(words int) error {
	if !d.created {
		return errors.New("storage not created").WithType(ErrTypeNotCreated).WithTag("path", d.path)
	}
	if words <= len(d.words) {
		return nil
	}
	grown := make([]int32, growCapacity(len(d.words), words))
	copy(grown, d.words)
	d.words = grown
	return nil
}

func (d *RAMDataAccess) Trim(words int) error {
	if !d.created {
		return errors.New("storage not created").WithType(ErrTypeNotCreated).WithTag("path", d.path)
	}
	if words < len(d.words) {
		d.words = append([]int32(nil), d.words[:words]...)
	}
	return nil
}

func (d *RAMDataAccess) SetInt(index int, value int32) {
	d.words[index] = value
}

func (d *RAMDataAccess) GetInt(index int) int32 {
	return d.words[index]
}

func (d *RAMDataAccess) SetHeader(index int, value int32) {
	checkHeaderIndex(index)
	d.header[index] = value
}

func (d *RAMDataAccess) GetHeader(index int) int32 {
	checkHeaderIndex(index)
	return d.header[index]
}

func (d *RAMDataAccess) Capacity() int {
	return len(d.words)
}

// Flush writes header and words to the file. The file is replaced
// atomically so readers never see a partial store.
func (d *RAMDataAccess) Flush() error {
	if d.closed {
		return errors.New("storage is closed").WithType(ErrTypeClosed).WithTag("path", d.path)
	}
	if d.path == "" || !d.created {
		return nil
	}

	data := make([]byte, headerBytes+4*len(d.words))
	for i, v := range d.header {
		putWord(data, i, v)
	}
	body := data[headerBytes:]
	for i, v := range d.words {
		putWord(body, i, v)
	}

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.New("writing storage failed").WithTag("path", d.path).Wrap(err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		return errors.New("renaming storage failed").WithTag("path", d.path).Wrap(err)
	}
	return nil
}

func (d *RAMDataAccess) Close() error {
	d.closed = true
	d.words = nil
	return nil
}

func (d *RAMDataAccess) IsClosed() bool {
	return d.closed
}
