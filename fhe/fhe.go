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

// Package fhe wraps the BFV somewhat-homomorphic scheme that the
// server uses to evaluate the client's encrypted windowed-powers query
// against its preprocessed minibin polynomials without ever seeing the
// client's query in the clear.
package fhe

import (
	"errors"

	"github.com/tuneinsight/lattigo/v3/bfv"
	"github.com/tuneinsight/lattigo/v3/rlwe"

	"github.com/getamis/psi/params"
	"github.com/getamis/psi/windowing"
)

// ErrDegreeMismatch is returned when the BFV polynomial modulus degree
// resolved from a literal parameter set does not match Parameters.NumBins.
var ErrDegreeMismatch = errors.New("fhe: polynomial modulus degree mismatch")

// Scheme is the shared BFV context: a fixed plaintext modulus, and a
// polynomial degree pinned to the hash table's bin count.
type Scheme struct {
	bfvParams bfv.Parameters
	encoder   bfv.Encoder
}

// NewScheme derives a BFV parameter set matching prm's plaintext modulus
// and polynomial degree, validating that N equals the bin count so each
// bin maps to one plaintext slot.
func NewScheme(prm *params.Parameters) (*Scheme, error) {
	lit := literalFor(prm.PolyModulusDegree)
	lit.T = prm.PlainModulus
	bfvParams, err := bfv.NewParametersFromLiteral(lit)
	if err != nil {
		return nil, err
	}
	if bfvParams.N() != prm.NumBins {
		return nil, ErrDegreeMismatch
	}
	return &Scheme{
		bfvParams: bfvParams,
		encoder:   bfv.NewEncoder(bfvParams),
	}, nil
}

// literalFor picks the default lattigo ring-dimension/modulus-chain literal
// matching a given polynomial degree; PN13QP218 is the one exercised by
// the reference parameters (N = 2^13).
func literalFor(n int) bfv.ParametersLiteral {
	switch n {
	case 1 << 14:
		return bfv.PN14QP438
	case 1 << 15:
		return bfv.PN15QP880
	default:
		return bfv.PN13QP218
	}
}

// NewCiphertext allocates an empty degree-`degree` ciphertext under the
// scheme's parameters, ready for UnmarshalBinary.
func (s *Scheme) NewCiphertext(degree int) *bfv.Ciphertext {
	return bfv.NewCiphertext(s.bfvParams, degree)
}

// KeyPair is the client's BFV key material: the secret key stays with the
// client, the public and relinearization keys are sent to the server.
type KeyPair struct {
	SecretKey          *rlwe.SecretKey
	PublicKey          *rlwe.PublicKey
	RelinearizationKey *rlwe.RelinearizationKey
}

// GenerateKeys runs the client-side BFV key generation. No rotation keys
// are produced: the evaluation never rotates slots.
func (s *Scheme) GenerateKeys() *KeyPair {
	kgen := bfv.NewKeyGenerator(s.bfvParams)
	sk, pk := kgen.GenKeyPair()
	rlk := kgen.GenRelinearizationKey(sk, 1)
	return &KeyPair{SecretKey: sk, PublicKey: pk, RelinearizationKey: rlk}
}

// Encryptor is the client-side half of the query phase: it packs per-bin
// values into BFV plaintext slots and encrypts them under the client's
// public key.
type Encryptor struct {
	scheme    *Scheme
	encryptor bfv.Encryptor
}

// NewEncryptor builds an Encryptor bound to pk.
func (s *Scheme) NewEncryptor(pk *rlwe.PublicKey) *Encryptor {
	return &Encryptor{scheme: s, encryptor: bfv.NewEncryptor(s.bfvParams, pk)}
}

// Encrypt packs slots (one value per bin, length <= NumBins) into a single
// ciphertext.
func (e *Encryptor) Encrypt(slots []uint64) *bfv.Ciphertext {
	pt := bfv.NewPlaintext(e.scheme.bfvParams)
	e.scheme.encoder.Encode(slots, pt)
	return e.encryptor.EncryptNew(pt)
}

// EncryptQuery encrypts every bin's windowed-powers matrix into the query
// ciphertexts Q[i-1][j]: for each valid (i,j) cell, one ciphertext
// packs that cell's value from every bin's matrix into the matching slot.
func (e *Encryptor) EncryptQuery(matrices []*windowing.Matrix) [][]*bfv.Ciphertext {
	if len(matrices) == 0 {
		return nil
	}
	base := matrices[0].Base
	logBEll := matrices[0].LogBEll
	query := make([][]*bfv.Ciphertext, base-1)
	for i := range query {
		query[i] = make([]*bfv.Ciphertext, logBEll)
	}
	for i := 1; i < base; i++ {
		for j := 0; j < logBEll; j++ {
			if _, ok := matrices[0].Get(i, j); !ok {
				continue
			}
			slots := make([]uint64, len(matrices))
			for b, m := range matrices {
				if v, ok := m.Get(i, j); ok {
					slots[b] = v
				}
			}
			query[i-1][j] = e.Encrypt(slots)
		}
	}
	return query
}

// Decryptor is the client-side half of recovery: it decrypts the server's
// replies and unpacks BFV plaintext slots back into uint64 values.
type Decryptor struct {
	scheme    *Scheme
	decryptor bfv.Decryptor
}

// NewDecryptor builds a Decryptor bound to sk.
func (s *Scheme) NewDecryptor(sk *rlwe.SecretKey) *Decryptor {
	return &Decryptor{scheme: s, decryptor: bfv.NewDecryptor(s.bfvParams, sk)}
}

// Decrypt returns the NumBins plaintext slots of ct.
func (d *Decryptor) Decrypt(ct *bfv.Ciphertext) []uint64 {
	pt := d.decryptor.DecryptNew(ct)
	return d.scheme.encoder.DecodeUintNew(pt)
}

// Recover is the client recovery step: bin b is present in the
// intersection iff some reply decrypts to zero in slot b.
func Recover(decryptor *Decryptor, replies []*bfv.Ciphertext, numBins int) []bool {
	present := make([]bool, numBins)
	for _, reply := range replies {
		slots := decryptor.Decrypt(reply)
		for b := 0; b < numBins && b < len(slots); b++ {
			if slots[b] == 0 {
				present[b] = true
			}
		}
	}
	return present
}

// Evaluator is the server-side half: it reconstructs powers from the
// client's query and homomorphically evaluates the preprocessed minibin
// polynomials against them, never decrypting anything.
type Evaluator struct {
	scheme    *Scheme
	evaluator bfv.Evaluator
}

// NewEvaluator builds an Evaluator around the client's relinearization key.
func (s *Scheme) NewEvaluator(rlk *rlwe.RelinearizationKey) *Evaluator {
	return &Evaluator{
		scheme:    s,
		evaluator: bfv.NewEvaluator(s.bfvParams, rlwe.EvaluationKey{Rlk: rlk}),
	}
}

// ReconstructPowers rebuilds ciphertexts for y^1..y^bound from the client's
// query matrix: any exponent not directly present in the query
// is recombined via low-depth pairwise ciphertext multiplication,
// relinearizing after every ciphertext-ciphertext product.
func (e *Evaluator) ReconstructPowers(query [][]*bfv.Ciphertext, base, logBEll, bound int) ([]*bfv.Ciphertext, error) {
	powers := make([]*bfv.Ciphertext, bound)
	for exp := 1; exp <= bound; exp++ {
		digits := windowing.Digits(exp, base, logBEll)
		var factors []*bfv.Ciphertext
		for j, d := range digits {
			if d == 0 {
				continue
			}
			ct := query[d-1][j]
			if ct == nil {
				return nil, windowing.ErrExponentOutOfRange
			}
			factors = append(factors, ct)
		}
		power, err := e.lowDepthMultiply(factors)
		if err != nil {
			return nil, err
		}
		powers[exp-1] = power
	}
	return powers, nil
}

func (e *Evaluator) lowDepthMultiply(factors []*bfv.Ciphertext) (*bfv.Ciphertext, error) {
	if len(factors) == 0 {
		return nil, windowing.ErrExponentOutOfRange
	}
	list := factors
	for len(list) > 1 {
		next := make([]*bfv.Ciphertext, 0, (len(list)+1)/2)
		i := 0
		for ; i+1 < len(list); i += 2 {
			res := bfv.NewCiphertext(e.scheme.bfvParams, 2)
			e.evaluator.Mul(list[i], list[i+1], res)
			e.evaluator.Relinearize(res, res)
			next = append(next, res)
		}
		if i < len(list) {
			next = append(next, list[i])
		}
		list = next
	}
	return list[0], nil
}

// EvaluateMinibin computes the homomorphic dot product for one
// minibin: Σ coeffs[k]·powers[k] + constant, where coeffs[k] packs the k-th
// coefficient across all bins as a plaintext and constant packs the
// minibin's constant term. Every multiplication is ciphertext×plaintext,
// so relinearization is unnecessary and noise grows only additively.
func (e *Evaluator) EvaluateMinibin(powers []*bfv.Ciphertext, coeffs [][]uint64, constant []uint64) (*bfv.Ciphertext, error) {
	if len(coeffs) != len(powers) {
		return nil, ErrDegreeMismatch
	}
	acc := bfv.NewCiphertext(e.scheme.bfvParams, 1)
	for k, power := range powers {
		pt := bfv.NewPlaintext(e.scheme.bfvParams)
		e.scheme.encoder.Encode(coeffs[k], pt)
		tmp := bfv.NewCiphertext(e.scheme.bfvParams, 1)
		e.evaluator.Mul(power, pt, tmp)
		e.evaluator.Add(acc, tmp, acc)
	}
	constPt := bfv.NewPlaintext(e.scheme.bfvParams)
	e.scheme.encoder.Encode(constant, constPt)
	e.evaluator.Add(acc, constPt, acc)
	return acc, nil
}
