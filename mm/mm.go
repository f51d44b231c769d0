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

// Package mm maps files into memory.
package mm

import (
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	ErrTypeTooLarge = "mm_too_large"
	ErrTypeReadOnly = "mm_read_only"
)

// If int is 64 bits we have no problems, as we can map files whose size
// in bytes fits in an int.
const maxInt = int(^uint(0) >> 1)

// A Region is a file mapped into memory. Read-only regions are private
// copies, writable regions are shared with the file.
type Region struct {
	path     string
	data     []byte
	writable bool
}

// Open maps an existing file read-only.
func Open(path string) (*Region, error) {
	// Open the file and call stat to determine its size.
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, errors.New("stat failed").WithTag("path", path).Wrap(err)
	}
	if info.Size() > int64(maxInt) {
		return nil, errors.New("file does not fit into memory").
			WithType(ErrTypeTooLarge).
			WithTag("path", path).
			WithTag("size", info.Size())
	}

	r := &Region{path: path}
	if info.Size() == 0 {
		return r, nil
	}
	r.data, err = sysMmapOpen(int(file.Fd()), int(info.Size()))
	if err != nil {
		return nil, errors.New("mmap failed").WithTag("path", path).Wrap(err)
	}
	return r, nil
}

// Create creates or truncates path to size bytes and maps it writable.
func Create(path string, size int) (*Region, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := &Region{path: path, writable: true}
	if err := r.mapFile(file, size); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Region) mapFile(file *os.File, size int) error {
	// Ensure that the file is large enough
	if err := file.Truncate(int64(size)); err != nil {
		return errors.New("truncate failed").WithTag("path", r.path).Wrap(err)
	}
	if size == 0 {
		r.data = nil
		return nil
	}
	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return errors.New("mmap failed").WithTag("path", r.path).Wrap(err)
	}
	r.data = data
	return nil
}

func (r *Region) Bytes() []byte {
	return r.data
}

func (r *Region) Len() int {
	return len(r.data)
}

func (r *Region) Writable() bool {
	return r.writable
}

func (r *Region) Path() string {
	return r.path
}

// Grow remaps a writable region to size bytes. The old contents are kept.
func (r *Region) Grow(size int) error {
	if size <= len(r.data) && r.writable {
		return nil
	}
	return r.Truncate(size)
}

// Truncate resizes a writable region and its file to size bytes. Contents
// up to size are kept.
func (r *Region) Truncate(size int) error {
	if !r.writable {
		return errors.New("region is read-only").WithType(ErrTypeReadOnly).WithTag("path", r.path)
	}
	if size == len(r.data) {
		return nil
	}
	if err := r.unmap(); err != nil {
		return err
	}
	file, err := os.OpenFile(r.path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer file.Close()
	return r.mapFile(file, size)
}

// Sync flushes a writable region to disk.
func (r *Region) Sync() error {
	if !r.writable || r.data == nil {
		return nil
	}
	if err := unix.Msync(r.data, unix.MS_SYNC); err != nil {
		return errors.New("msync failed").WithTag("path", r.path).Wrap(err)
	}
	return nil
}

func (r *Region) unmap() error {
	if err := r.Sync(); err != nil {
		return err
	}
	if r.data == nil {
		return nil
	}
	if err := unix.Munmap(r.data); err != nil {
		return errors.New("munmap failed").WithTag("path", r.path).Wrap(err)
	}
	r.data = nil
	return nil
}

func (r *Region) Close() error {
	return r.unmap()
}
