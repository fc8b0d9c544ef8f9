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

// Package windowing encodes the powers y, y², …, y^{B/α} of a bin value y
// as a compact (base-1) x log_B_ell matrix, and supports
// reconstructing any power in that range from the matrix entries by
// low-depth pairwise multiplication. The client builds its query matrices
// with NewMatrix during its online phase; the fhe package
// mirrors the same digit decomposition and pairing shape over ciphertexts
// for the server's online power reconstruction.
package windowing

import (
	"errors"
	"math/big"

	"github.com/getamis/psi/params"
)

// ErrExponentOutOfRange is returned when an exponent falls outside [1, bound].
var ErrExponentOutOfRange = errors.New("exponent out of range")

// Digits returns the base-`base` digit expansion of e, d_0..d_{logBEll-1},
// least-significant first, so that e = Σ d_j·base^j.
func Digits(e int, base int, logBEll int) []int {
	digits := make([]int, logBEll)
	for j := 0; j < logBEll; j++ {
		digits[j] = e % base
		e /= base
	}
	return digits
}

// DirectExponent returns i·base^j, the exponent that matrix entry W[i-1][j]
// directly encodes. i ranges over [1, base).
func DirectExponent(i, j, base int) int {
	e := 1
	for k := 0; k < j; k++ {
		e *= base
	}
	return i * e
}

// Matrix is the windowed-powers matrix: rows index i-1 for i∈[1,base),
// columns index j∈[0,logBEll). Valid[i-1][j] is false where i·base^j
// exceeds the bound.
type Matrix struct {
	Base    int
	LogBEll int
	Data    [][]uint64
	Valid   [][]bool
}

// NewMatrix builds W for bin value y, modulus t, and exponent bound B/α:
// W[i-1][j] = y^{i·base^j} mod t when that exponent is in [1,bound].
func NewMatrix(prm *params.Parameters, y uint64) *Matrix {
	rows := prm.Base - 1
	cols := prm.LogBEll
	m := &Matrix{
		Base:    prm.Base,
		LogBEll: cols,
		Data:    make([][]uint64, rows),
		Valid:   make([][]bool, rows),
	}
	for i := 0; i < rows; i++ {
		m.Data[i] = make([]uint64, cols)
		m.Valid[i] = make([]bool, cols)
		for j := 0; j < cols; j++ {
			e := DirectExponent(i+1, j, prm.Base)
			if e < 1 || e > prm.MinibinCapacity {
				continue
			}
			m.Data[i][j] = powMod(y, e, prm.PlainModulus)
			m.Valid[i][j] = true
		}
	}
	return m
}

// Get returns W[i-1][j] and whether that cell is valid.
func (m *Matrix) Get(i, j int) (uint64, bool) {
	if i < 1 || i > m.Base-1 {
		return 0, false
	}
	return m.Data[i-1][j], m.Valid[i-1][j]
}

// powMod computes base^exp mod m for moderate-sized uint64 values.
func powMod(base uint64, exp int, m uint64) uint64 {
	r := new(big.Int).Exp(big.NewInt(0).SetUint64(base), big.NewInt(int64(exp)), big.NewInt(0).SetUint64(m))
	return r.Uint64()
}

// LowDepthMultiply reduces factors to a single value by repeatedly replacing
// [v0,v1,v2,...] with [v0*v1, v2*v3, ...] (appending any unpaired tail)
// until one element remains. Depth is ⌈log2 len(factors)⌉.
func LowDepthMultiply(factors []uint64, t uint64) uint64 {
	if len(factors) == 0 {
		return 1
	}
	list := append([]uint64(nil), factors...)
	for len(list) > 1 {
		next := make([]uint64, 0, (len(list)+1)/2)
		i := 0
		for ; i+1 < len(list); i += 2 {
			next = append(next, mulMod(list[i], list[i+1], t))
		}
		if i < len(list) {
			next = append(next, list[i])
		}
		list = next
	}
	return list[0]
}

func mulMod(a, b, m uint64) uint64 {
	r := new(big.Int).Mul(big.NewInt(0).SetUint64(a), big.NewInt(0).SetUint64(b))
	r.Mod(r, big.NewInt(0).SetUint64(m))
	return r.Uint64()
}

// ReconstructPowers produces y^1 .. y^bound from a windowed matrix: any
// exponent not directly present in W is written in base `base` and
// recombined via LowDepthMultiply over the digits' matrix entries.
// The returned slice is indexed by e-1.
func ReconstructPowers(m *Matrix, bound int, t uint64) ([]uint64, error) {
	powers := make([]uint64, bound)
	for e := 1; e <= bound; e++ {
		digits := Digits(e, m.Base, m.LogBEll)
		factors := make([]uint64, 0, m.LogBEll)
		for j, d := range digits {
			if d == 0 {
				continue
			}
			v, ok := m.Get(d, j)
			if !ok {
				return nil, ErrExponentOutOfRange
			}
			factors = append(factors, v)
		}
		powers[e-1] = LowDepthMultiply(factors, t)
	}
	return powers, nil
}
