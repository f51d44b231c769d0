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

	"github.com/fbenz/locationindex/mm"
)

// MMapDataAccess keeps the words in a memory mapped file. Created stores
// are writable; loaded stores are mapped read-only.
type MMapDataAccess struct {
	path   string
	region *mm.Region
	closed bool
}

func NewMMap(path string) *MMapDataAccess {
	return &MMapDataAccess{path: path}
}

func (d *MMapDataAccess) Name() string {
	return d.path
}

func (d *MMapDataAccess) Create(words int) error {
	if d.closed {
		return errors.New("storage is closed").WithType(ErrTypeClosed).WithTag("path", d.path)
	}
	if err := d.release(); err != nil {
		return err
	}
	region, err := mm.Create(d.path, headerBytes+4*words)
	if err != nil {
		return errors.New("creating storage failed").WithTag("path", d.path).Wrap(err)
	}
	d.region = region
	return nil
}

func (d *MMapDataAccess) LoadExisting() (bool, error) {
	if d.closed {
		return false, errors.New("storage is closed").WithType(ErrTypeClosed).WithTag("path", d.path)
	}
	region, err := mm.Open(d.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.New("loading storage failed").WithTag("path", d.path).Wrap(err)
	}
	if region.Len() < headerBytes || region.Len()%4 != 0 {
		region.Close()
		return false, errors.New("storage file is truncated").
			WithType(ErrTypeCorrupt).
			WithTag("path", d.path).
			WithTag("size", region.Len())
	}
	if err := d.release(); err != nil {
		region.Close()
		return false, err
	}
	d.region = region
	return true, nil
}

func (d *MMapDataAccess) EnsureCapacity(words int) error {
	if d.region == nil {
		return errors.New("storage not created").WithType(ErrTypeNotCreated).WithTag("path", d.path)
	}
	if words <= d.Capacity() {
		return nil
	}
	if !d.region.Writable() {
		return errors.New("storage is read-only").WithType(ErrTypeReadOnly).WithTag("path", d.path)
	}
	size := headerBytes + 4*growCapacity(d.Capacity(), words)
	if err := d.region.Grow(size); err != nil {
		return errors.New("growing storage failed").WithTag("path", d.path).Wrap(err)
	}
	return nil
}

func (d *MMapDataAccess) Trim(words int) error {
	if d.region == nil {
		return errors.New("storage not created").WithType(ErrTypeNotCreated).WithTag("path", d.path)
	}
	if words >= d.Capacity() {
		return nil
	}
	if !d.region.Writable() {
		return errors.New("storage is read-only").WithType(ErrTypeReadOnly).WithTag("path", d.path)
	}
	if err := d.region.Truncate(headerBytes + 4*words); err != nil {
		return errors.New("trimming storage failed").WithTag("path", d.path).Wrap(err)
	}
	return nil
}

func (d *MMapDataAccess) body() []byte {
	return d.region.Bytes()[headerBytes:]
}

func (d *MMapDataAccess) checkWritable() {
	if !d.region.Writable() {
		panic("storage: write to read-only store " + d.path)
	}
}

func (d *MMapDataAccess) SetInt(index int, value int32) {
	d.checkWritable()
	putWord(d.body(), index, value)
}

func (d *MMapDataAccess) GetInt(index int) int32 {
	return getWord(d.body(), index)
}

func (d *MMapDataAccess) SetHeader(index int, value int32) {
	checkHeaderIndex(index)
	d.checkWritable()
	putWord(d.region.Bytes(), index, value)
}

func (d *MMapDataAccess) GetHeader(index int) int32 {
	checkHeaderIndex(index)
	return getWord(d.region.Bytes(), index)
}

func (d *MMapDataAccess) Capacity() int {
	if d.region == nil || d.region.Len() < headerBytes {
		return 0
	}
	return (d.region.Len() - headerBytes) / 4
}

func (d *MMapDataAccess) Flush() error {
	if d.closed {
		return errors.New("storage is closed").WithType(ErrTypeClosed).WithTag("path", d.path)
	}
	if d.region == nil {
		return nil
	}
	return d.region.Sync()
}

func (d *MMapDataAccess) release() error {
	if d.region == nil {
		return nil
	}
	err := d.region.Close()
	d.region = nil
	return err
}

func (d *MMapDataAccess) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.release()
}

func (d *MMapDataAccess) IsClosed() bool {
	return d.closed
}
