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
package windowing

import (
	"math/big"
	"testing"

	pt "github.com/getamis/psi/crypto/ecpointgrouplaw"
	"github.com/getamis/psi/params"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

func TestWindowing(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "windowing Test")
}

func testParams() *params.Parameters {
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

var _ = Describe("Digits()/DirectExponent()", func() {
	It("round-trips: Σ d_j·base^j == e", func() {
		base, logBEll := 4, 6
		for e := 0; e < 500; e++ {
			digits := Digits(e, base, logBEll)
			sum := 0
			for j, d := range digits {
				sum += d * DirectExponent(1, j, base) // base^j
			}
			Expect(sum).Should(Equal(e))
		}
	})
})

var _ = Describe("Matrix/ReconstructPowers", func() {
	DescribeTable("reconstructs every power y^1..y^bound", func(y uint64) {
		prm := testParams()
		m := NewMatrix(prm, y)
		powers, err := ReconstructPowers(m, prm.MinibinCapacity, prm.PlainModulus)
		Expect(err).Should(BeNil())
		Expect(powers).Should(HaveLen(prm.MinibinCapacity))

		for e := 1; e <= prm.MinibinCapacity; e++ {
			expected := new(big.Int).Exp(
				new(big.Int).SetUint64(y),
				big.NewInt(int64(e)),
				new(big.Int).SetUint64(prm.PlainModulus),
			).Uint64()
			Expect(powers[e-1]).Should(Equal(expected), "e=%d", e)
		}
	},
		Entry("y=2", uint64(2)),
		Entry("y=7", uint64(7)),
		Entry("y=12345", uint64(12345)),
	)

	It("direct matrix cells hold W[i-1][j] = y^(i*base^j)", func() {
		prm := testParams()
		y := uint64(9)
		m := NewMatrix(prm, y)
		for i := 1; i < prm.Base; i++ {
			for j := 0; j < prm.LogBEll; j++ {
				e := DirectExponent(i, j, prm.Base)
				v, ok := m.Get(i, j)
				if e < 1 || e > prm.MinibinCapacity {
					Expect(ok).Should(BeFalse())
					continue
				}
				Expect(ok).Should(BeTrue())
				expected := new(big.Int).Exp(
					new(big.Int).SetUint64(y),
					big.NewInt(int64(e)),
					new(big.Int).SetUint64(prm.PlainModulus),
				).Uint64()
				Expect(v).Should(Equal(expected))
			}
		}
	})
})

var _ = Describe("LowDepthMultiply()", func() {
	It("matches the plain product mod t for any factor-list length", func() {
		t := uint64(536903681)
		for n := 1; n <= 9; n++ {
			factors := make([]uint64, n)
			expected := big.NewInt(1)
			for i := range factors {
				factors[i] = uint64(3 + i*17)
				expected.Mul(expected, big.NewInt(int64(factors[i])))
				expected.Mod(expected, new(big.Int).SetUint64(t))
			}
			Expect(LowDepthMultiply(factors, t)).Should(Equal(expected.Uint64()))
		}
	})

	It("returns 1 for an empty factor list", func() {
		Expect(LowDepthMultiply(nil, 536903681)).Should(Equal(uint64(1)))
	})
})
