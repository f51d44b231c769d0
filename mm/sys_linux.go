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

package mm

import "golang.org/x/sys/unix"

// Read-only maps are populated up front, queries should not fault pages in.
func sysMmapOpen(fd, size int) ([]byte, error) {
	flag := unix.MAP_POPULATE | unix.MAP_PRIVATE
	return unix.Mmap(fd, 0, size, unix.PROT_READ, flag)
}
