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

// SimpleTable is the server-side simple-hash table: each PRF-ed
// server item is placed into every one of the h seeds' bins, so lookups
// never miss. It has a single mutating build method (InsertAll, then Pad)
// followed by a frozen read-only view (Bins).
type SimpleTable struct {
	prm    *params.Parameters
	bins   [][]uint64
	counts []int
}

// NewSimpleTable allocates an empty table of prm.NumBins bins, each of
// capacity prm.BinCapacity.
func NewSimpleTable(prm *params.Parameters) *SimpleTable {
	bins := make([][]uint64, prm.NumBins)
	for i := range bins {
		bins[i] = make([]uint64, prm.BinCapacity)
	}
	return &SimpleTable{
		prm:    prm,
		bins:   bins,
		counts: make([]int, prm.NumBins),
	}
}

// InsertAll inserts every item under each of the NumHashes seeds.
func (t *SimpleTable) InsertAll(items []uint64) error {
	for _, item := range items {
		for seedIndex, seed := range t.prm.HashSeeds {
			if err := t.insert(item, seed, seedIndex); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *SimpleTable) insert(item uint64, seed uint32, seedIndex int) error {
	loc := location(seed, item, t.prm.OutputBits)
	if t.counts[loc] >= t.prm.BinCapacity {
		return ErrHashOverflow
	}
	t.bins[loc][t.counts[loc]] = leftAndIndex(item, seedIndex, t.prm.OutputBits, t.prm.LogNumHashes)
	t.counts[loc]++
	return nil
}

// Pad fills every unused slot with the dummy_server sentinel. Call after
// all items have been inserted and before reading Bins.
func (t *SimpleTable) Pad() {
	for i, count := range t.counts {
		for j := count; j < t.prm.BinCapacity; j++ {
			t.bins[i][j] = t.prm.DummyServer
		}
	}
}

// Bins returns the frozen table: NumBins rows, each BinCapacity wide,
// holding (item_left ∥ index) values or the dummy_server sentinel.
func (t *SimpleTable) Bins() [][]uint64 {
	return t.bins
}
