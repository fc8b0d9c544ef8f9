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
package persistence

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	pt "github.com/getamis/psi/crypto/ecpointgrouplaw"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestPersistence(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "persistence Test")
}

var _ = Describe("Item sets", func() {
	It("round-trips a set through WriteItemSet/ReadItemSet", func() {
		dir, err := os.MkdirTemp("", "psi-persistence-")
		Expect(err).Should(BeNil())
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "server_set")
		items := []uint64{0, 1, 42, 1 << 62}

		Expect(WriteItemSet(path, items)).Should(Succeed())
		got, err := ReadItemSet(path)
		Expect(err).Should(BeNil())
		Expect(got).Should(Equal(items))
	})

	It("round-trips an empty set", func() {
		dir, err := os.MkdirTemp("", "psi-persistence-")
		Expect(err).Should(BeNil())
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "empty_set")
		Expect(WriteItemSet(path, nil)).Should(Succeed())
		got, err := ReadItemSet(path)
		Expect(err).Should(BeNil())
		Expect(got).Should(HaveLen(0))
	})

	It("fails to parse a malformed line", func() {
		dir, err := os.MkdirTemp("", "psi-persistence-")
		Expect(err).Should(BeNil())
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "bad_set")
		Expect(WriteItemSet(path, []uint64{1, 2})).Should(Succeed())

		// Append a non-numeric line.
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		Expect(err).Should(BeNil())
		_, err = f.WriteString("not-a-number\n")
		Expect(err).Should(BeNil())
		Expect(f.Close()).Should(Succeed())

		_, err = ReadItemSet(path)
		Expect(err).ShouldNot(BeNil())
	})
})

var _ = Describe("Preprocessed artifacts", func() {
	It("round-trips client_preprocessed", func() {
		dir, err := os.MkdirTemp("", "psi-persistence-")
		Expect(err).Should(BeNil())
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "client_preprocessed")

		curve, err := pt.CurveS256.GetEllipticCurve()
		Expect(err).Should(BeNil())
		p1, err := pt.ScalarBaseMult(curve, big.NewInt(7)).ToEncodedPoint()
		Expect(err).Should(BeNil())
		p2, err := pt.ScalarBaseMult(curve, big.NewInt(99)).ToEncodedPoint()
		Expect(err).Should(BeNil())
		points := []*pt.EncodedPoint{p1, p2}

		Expect(WriteClientPreprocessed(path, points)).Should(Succeed())
		got, err := ReadClientPreprocessed(path)
		Expect(err).Should(BeNil())
		Expect(got).Should(HaveLen(2))
		Expect(got[0].X).Should(Equal(points[0].X))
		Expect(got[1].X).Should(Equal(points[1].X))
	})

	It("round-trips server_preprocessed", func() {
		dir, err := os.MkdirTemp("", "psi-persistence-")
		Expect(err).Should(BeNil())
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "server_preprocessed")
		table := [][]uint64{{1, 2, 3}, {4, 5, 6}}

		Expect(WriteServerPreprocessed(path, table)).Should(Succeed())
		got, err := ReadServerPreprocessed(path)
		Expect(err).Should(BeNil())
		Expect(got).Should(Equal(table))
	})
})
