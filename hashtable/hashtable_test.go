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
	"testing"

	pt "github.com/getamis/psi/crypto/ecpointgrouplaw"
	"github.com/getamis/psi/params"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

func TestHashtable(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Hashtable Suite")
}

func smallParams() *params.Parameters {
	p, err := params.NewParameters(params.Config{
		ServerSize:        1 << 20,
		Curve:             pt.CurveS256,
		HashSeeds:         params.DefaultHashSeeds,
		Alpha:             16,
		Ell:               2,
		PlainModulus:      536903681,
		PolyModulusDegree: 1 << 13,
	})
	Expect(err).Should(BeNil())
	return p
}

var _ = Describe("loc helpers", func() {
	It("reconstruct() inverts left_and_index()+location()", func() {
		prm := smallParams()
		for _, item := range []uint64{0, 1, 42, 123456789, 987654321} {
			for index, seed := range prm.HashSeeds {
				loc := location(seed, item, prm.OutputBits)
				stored := leftAndIndex(item, index, prm.OutputBits, prm.LogNumHashes)
				Expect(extractIndex(stored, prm.LogNumHashes)).Should(Equal(index))
				got := reconstruct(stored, loc, seed, prm.OutputBits, prm.LogNumHashes)
				Expect(got).Should(Equal(item))
			}
		}
	})
})

var _ = Describe("SimpleTable", func() {
	It("places every item under all NumHashes seeds", func() {
		prm := smallParams()
		table := NewSimpleTable(prm)
		items := []uint64{11, 22, 33, 44}
		Expect(table.InsertAll(items)).Should(Succeed())
		table.Pad()

		found := map[uint64]int{}
		for loc, bin := range table.Bins() {
			for _, slot := range bin {
				if slot == prm.DummyServer {
					continue
				}
				index := extractIndex(slot, prm.LogNumHashes)
				found[reconstruct(slot, uint64(loc), prm.HashSeeds[index], prm.OutputBits, prm.LogNumHashes)]++
			}
		}
		for _, item := range items {
			Expect(found[item]).Should(Equal(prm.NumHashes))
		}
	})

	It("fails with ErrHashOverflow once a bin exceeds capacity", func() {
		prm := smallParams()
		table := NewSimpleTable(prm)
		// Swap in a substitute parameter set whose BinCapacity is 0, so the
		// very first insertion already finds its bin full.
		table.prm = &params.Parameters{
			HashSeeds:    prm.HashSeeds,
			OutputBits:   prm.OutputBits,
			NumBins:      prm.NumBins,
			BinCapacity:  0,
			LogNumHashes: prm.LogNumHashes,
			DummyServer:  prm.DummyServer,
		}
		err := table.InsertAll([]uint64{1})
		Expect(err).Should(Equal(ErrHashOverflow))
	})
})

var _ = Describe("CuckooTable", func() {
	It("every inserted item is reconstructible from its bin", func() {
		prm := smallParams()
		table := NewCuckooTable(prm)
		items := []uint64{11, 22, 33, 44, 55, 66}
		for _, item := range items {
			Expect(table.Insert(item)).Should(Succeed())
		}
		table.Pad()

		bins := table.Bins()
		recovered := map[uint64]bool{}
		for loc, stored := range bins {
			if stored == prm.DummyClient {
				continue
			}
			index := extractIndex(stored, prm.LogNumHashes)
			item := reconstruct(stored, uint64(loc), prm.HashSeeds[index], prm.OutputBits, prm.LogNumHashes)
			recovered[item] = true
		}
		for _, item := range items {
			Expect(recovered[item]).Should(BeTrue())
		}
	})

	DescribeTable("pads empty bins with dummy_client", func(items []uint64) {
		prm := smallParams()
		table := NewCuckooTable(prm)
		for _, item := range items {
			Expect(table.Insert(item)).Should(Succeed())
		}
		table.Pad()
		dummyCount := 0
		for _, v := range table.Bins() {
			if v == prm.DummyClient {
				dummyCount++
			}
		}
		Expect(dummyCount).Should(Equal(prm.NumBins - len(items)))
	},
		Entry("empty", []uint64{}),
		Entry("a few items", []uint64{1, 2, 3}),
	)
})
