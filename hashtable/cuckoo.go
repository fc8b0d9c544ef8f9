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

import (
	"math/big"

	"github.com/getamis/psi/crypto/utils"
	"github.com/getamis/psi/params"
)

// CuckooTable is the client-side cuckoo-hash table: every PRF-ed
// client item is placed into exactly one of m bins, displacing and
// re-inserting any prior occupant up to a bounded recursion depth.
type CuckooTable struct {
	prm      *params.Parameters
	bins     []uint64
	occupied []bool
}

// NewCuckooTable allocates an empty table of prm.NumBins bins.
func NewCuckooTable(prm *params.Parameters) *CuckooTable {
	return &CuckooTable{
		prm:      prm,
		bins:     make([]uint64, prm.NumBins),
		occupied: make([]bool, prm.NumBins),
	}
}

// Insert places item into the table, displacing and re-inserting any prior
// occupant under a different hash index.
func (t *CuckooTable) Insert(item uint64) error {
	index, err := t.randomIndex(-1)
	if err != nil {
		return err
	}
	return t.insert(item, index, 0)
}

func (t *CuckooTable) insert(item uint64, index int, depth int) error {
	loc := location(t.prm.HashSeeds[index], item, t.prm.OutputBits)
	stored := leftAndIndex(item, index, t.prm.OutputBits, t.prm.LogNumHashes)

	if !t.occupied[loc] {
		t.bins[loc] = stored
		t.occupied[loc] = true
		return nil
	}

	evicted := t.bins[loc]
	t.bins[loc] = stored

	if depth >= t.prm.CuckooDepth {
		return ErrHashOverflow
	}
	evictedIndex := extractIndex(evicted, t.prm.LogNumHashes)
	evictedItem := reconstruct(evicted, loc, t.prm.HashSeeds[evictedIndex], t.prm.OutputBits, t.prm.LogNumHashes)

	nextIndex, err := t.randomIndex(evictedIndex)
	if err != nil {
		return err
	}
	return t.insert(evictedItem, nextIndex, depth+1)
}

// randomIndex picks a uniform index in [0, NumHashes), optionally excluding
// exclude (pass -1 to allow any index).
func (t *CuckooTable) randomIndex(exclude int) (int, error) {
	for {
		n, err := utils.RandomInt(big.NewInt(int64(t.prm.NumHashes)))
		if err != nil {
			return 0, err
		}
		idx := int(n.Int64())
		if idx != exclude {
			return idx, nil
		}
	}
}

// Pad fills every unused bin with the dummy_client sentinel. Call after all
// items have been inserted and before reading Bins.
func (t *CuckooTable) Pad() {
	for i, occ := range t.occupied {
		if !occ {
			t.bins[i] = t.prm.DummyClient
		}
	}
}

// Bins returns the frozen table: one (item_left ∥ index) value, or the
// dummy_client sentinel, per bin.
func (t *CuckooTable) Bins() []uint64 {
	return t.bins
}
