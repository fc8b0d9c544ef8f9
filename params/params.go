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

// Package params consolidates the protocol's derived constants into one
// immutable configuration value, computed once at startup and validated
// there rather than scattered across the pipeline.
package params

import (
	"errors"
	"math/big"

	pt "github.com/getamis/psi/crypto/ecpointgrouplaw"
	"github.com/getamis/psi/crypto/utils"
)

var (
	// ErrUnsupportedServerSize is returned when log2(serverSize) has no entry
	// in the bin-capacity table.
	ErrUnsupportedServerSize = errors.New("unsupported server size")
	// ErrParameterMismatch is returned when the derived constants fail a
	// consistency check (e.g. the number of hash bins does not equal the
	// FHE polynomial modulus degree).
	ErrParameterMismatch = errors.New("parameter mismatch")
)

// binCapacityTable maps log2(|S|) to the simple-hash bin capacity B.
var binCapacityTable = map[int]int{
	16: 68,
	18: 176,
	20: 536,
	22: 1832,
	24: 6727,
}

// Parameters is the single immutable configuration value the rest of the
// pipeline is built around. Every derived field is computed once, in
// NewParameters, and checked for internal consistency before use.
type Parameters struct {
	// Curve is the elliptic curve both parties share for the EC-OPRF layer.
	Curve pt.CurveID

	// HashSeeds are the murmur32 seeds used by both simple and cuckoo
	// hashing; their count fixes NumHashes.
	HashSeeds []uint32

	// OutputBits (ob) is log2 of the number of simple/cuckoo hash bins.
	OutputBits int
	// NumBins (m) is 2^OutputBits; must equal PolyModulusDegree so each
	// bin occupies exactly one BFV plaintext slot.
	NumBins int

	// PlainModulus (t) is the BFV plaintext modulus.
	PlainModulus uint64
	// PolyModulusDegree (N) is the BFV polynomial modulus degree.
	PolyModulusDegree int

	// NumHashes (h) is len(HashSeeds).
	NumHashes int
	// LogNumHashes is ceil(log2(h)) + 1, used in the dummy-item sentinels.
	LogNumHashes int

	// SigmaMax is the truncated PRF output width in bits.
	SigmaMax int

	// BinCapacity (B) is the simple-hash bin capacity for this server size;
	// a cuckoo bin always holds at most one entry.
	BinCapacity int
	// Alpha is the number of minibins a bin is split into.
	Alpha int
	// Ell is the windowing parameter; Base = 2^Ell.
	Ell int
	// Base is the windowing base.
	Base int
	// MinibinCapacity is BinCapacity / Alpha.
	MinibinCapacity int
	// LogBEll is floor(log2(MinibinCapacity)) + 1, the number of windowing
	// columns.
	LogBEll int

	// DummyServer and DummyClient are the out-of-range sentinels used to
	// pad simple-hash and cuckoo-hash bins respectively.
	DummyServer uint64
	DummyClient uint64

	// CuckooDepth (d) is the maximum cuckoo-insertion recursion depth.
	CuckooDepth int

	// extractShift is the precomputed right-shift amount used by Extract.
	extractShift uint
	extractMask  *big.Int
}

// Config is the small set of independently-chosen inputs from which
// NewParameters derives everything else.
type Config struct {
	ServerSize int
	Curve      pt.CurveID
	HashSeeds  []uint32
	Alpha      int
	Ell        int

	// PlainModulus and PolyModulusDegree are normally supplied by the FHE
	// package's chosen parameter literal; Parameters only needs their
	// numeric value to derive SigmaMax and validate NumBins.
	PlainModulus      uint64
	PolyModulusDegree int
}

// DefaultHashSeeds are the three murmur32 seeds used throughout the test
// vectors and the CLI's default configuration.
var DefaultHashSeeds = []uint32{123456789, 1011121314, 1718192021}

// NewParameters derives a full Parameters value from cfg, validating every
// cross-field invariant before returning.
func NewParameters(cfg Config) (*Parameters, error) {
	logServerSize := utils.CeilLog2(uint64(cfg.ServerSize))
	bin, ok := binCapacityTable[logServerSize]
	if !ok {
		return nil, ErrUnsupportedServerSize
	}
	if cfg.Alpha <= 0 || cfg.Ell <= 0 {
		return nil, ErrParameterMismatch
	}

	numHashes := len(cfg.HashSeeds)
	if numHashes == 0 {
		return nil, ErrParameterMismatch
	}
	logNumHashes := utils.BitLen(uint64(numHashes - 1)) + 1

	outputBits := utils.CeilLog2(uint64(cfg.PolyModulusDegree))
	numBins := 1 << outputBits
	if numBins != cfg.PolyModulusDegree {
		return nil, ErrParameterMismatch
	}

	// floor(log2(t)): BitLen(t) counts ceil(log2(t+1)), i.e. BitLen(t)-1 for
	// any t >= 1.
	sigmaMax := (utils.BitLen(cfg.PlainModulus) - 1) + outputBits - logNumHashes
	if sigmaMax <= 0 {
		return nil, ErrParameterMismatch
	}

	minibinCapacity := bin / cfg.Alpha
	base := 1 << cfg.Ell
	// floor(log2(minibinCapacity))+1 == BitLen(minibinCapacity).
	logBEll := utils.BitLen(uint64(minibinCapacity))

	curve, err := cfg.Curve.GetEllipticCurve()
	if err != nil {
		return nil, err
	}

	p := &Parameters{
		Curve:             cfg.Curve,
		HashSeeds:         cfg.HashSeeds,
		OutputBits:        outputBits,
		NumBins:           numBins,
		PlainModulus:      cfg.PlainModulus,
		PolyModulusDegree: cfg.PolyModulusDegree,
		NumHashes:         numHashes,
		LogNumHashes:      logNumHashes,
		SigmaMax:          sigmaMax,
		BinCapacity:       bin,
		Alpha:             cfg.Alpha,
		Ell:               cfg.Ell,
		Base:              base,
		MinibinCapacity:   minibinCapacity,
		LogBEll:           logBEll,
		DummyServer:       (uint64(1) << uint(sigmaMax-outputBits+logNumHashes)) + 1,
		DummyClient:       uint64(1) << uint(sigmaMax-outputBits+logNumHashes-1),
		CuckooDepth:       8 * outputBits,
	}
	p.extractMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(sigmaMax)), big.NewInt(1))
	// ceil(log2 p): the curve's field modulus, not the BFV plaintext modulus.
	bitLenP := curve.Params().P.BitLen()
	shift := bitLenP - sigmaMax - 10
	if shift < 0 {
		return nil, ErrParameterMismatch
	}
	p.extractShift = uint(shift)

	return p, nil
}

// Extract truncates a PRF point to its numeric output: the SigmaMax low
// bits taken after shifting Q.x right by (bitlen(p) − SigmaMax − 10). The
// extra 10-bit shift discards the least uniform high bits of the
// x-coordinate and is a fixed protocol constant.
func (p *Parameters) Extract(q *pt.ECPoint) (uint64, error) {
	if q == nil || q.IsIdentity() {
		return 0, pt.ErrInvalidPoint
	}
	x := q.GetX()
	shifted := new(big.Int).Rsh(x, p.extractShift)
	shifted.And(shifted, p.extractMask)
	return shifted.Uint64(), nil
}
