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

package hashtable

import "github.com/getamis/psi/params"

// Location exposes loc(seed, item) for callers outside this package,
// without building a whole table.
func Location(prm *params.Parameters, seed uint32, item uint64) uint64 {
	return location(seed, item, prm.OutputBits)
}

// LeftAndIndex exposes left_and_index(item, index).
func LeftAndIndex(prm *params.Parameters, item uint64, index int) uint64 {
	return leftAndIndex(item, index, prm.OutputBits, prm.LogNumHashes)
}

// ExtractIndex exposes extract_index(stored).
func ExtractIndex(prm *params.Parameters, stored uint64) int {
	return extractIndex(stored, prm.LogNumHashes)
}

// Reconstruct exposes reconstruct(stored, loc, seed): recovering the
// original item from a stored (item_left ∥ index) value, the bin it
// occupies, and the seed that placed it there.
func Reconstruct(prm *params.Parameters, stored uint64, loc uint64, seed uint32) uint64 {
	return reconstruct(stored, loc, seed, prm.OutputBits, prm.LogNumHashes)
}
