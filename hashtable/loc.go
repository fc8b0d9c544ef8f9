// Copyright © 2021 AMIS Technologies
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hashtable implements the simple-hash (server) and cuckoo-hash
// (client) indexing layers: both place PRF-ed items into the
// same m-bin structure via the murmur32-based loc function, so that a
// stored (item_left ∥ index) pair can later be reconstructed from only
// the bin position and the hash seed that placed it there.
package hashtable

import (
	"errors"
	"strconv"

	"github.com/twmb/murmur3"
)

// ErrHashOverflow is returned when a simple-hash bin exceeds its capacity or
// a cuckoo insertion exceeds its recursion depth. Fatal: the chosen
// parameters don't fit the data.
var ErrHashOverflow = errors.New("hashing failed: bin full")

// location computes loc(seed, item) = (murmur32(item_left, seed) >> (32 -
// outputBits)) XOR item_right, where item_left = item >> outputBits and
// item_right = item & (2^outputBits - 1).
func location(seed uint32, item uint64, outputBits int) uint64 {
	itemLeft := item >> uint(outputBits)
	itemRight := item & ((uint64(1) << uint(outputBits)) - 1)
	h := murmur3.SeedSum32(seed, []byte(strconv.FormatUint(itemLeft, 10)))
	return (uint64(h) >> uint(32-outputBits)) ^ itemRight
}

// leftAndIndex packs (item_left, index) as item_left || index, the value
// actually stored in a bin slot instead of the raw item.
func leftAndIndex(item uint64, index int, outputBits, logNumHashes int) uint64 {
	itemLeft := item >> uint(outputBits)
	return (itemLeft << uint(logNumHashes)) + uint64(index)
}

// extractIndex recovers the hash-seed index from a stored (item_left ∥
// index) value.
func extractIndex(itemLeftAndIndex uint64, logNumHashes int) int {
	mask := (uint64(1) << uint(logNumHashes)) - 1
	return int(itemLeftAndIndex & mask)
}

// reconstruct recovers the original PRF-ed item from a stored (item_left ∥
// index) value, the bin location it occupies, and the seed that produced
// that location.
func reconstruct(itemLeftAndIndex uint64, loc uint64, seed uint32, outputBits, logNumHashes int) uint64 {
	itemLeft := itemLeftAndIndex >> uint(logNumHashes)
	h := murmur3.SeedSum32(seed, []byte(strconv.FormatUint(itemLeft, 10)))
	hashedLeft := uint64(h) >> uint(32-outputBits)
	itemRight := hashedLeft ^ loc
	return (itemLeft << uint(outputBits)) + itemRight
}
