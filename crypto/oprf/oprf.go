// Copyright © 2020 AMIS Technologies
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

// Package oprf implements a Diffie-Hellman style oblivious PRF over an
// elliptic curve, where items are encoded as curve points via scalar base
// multiplication (item·G) rather than hashed onto the curve.
package oprf

import (
	"crypto/elliptic"
	"errors"
	"math/big"

	pt "github.com/getamis/psi/crypto/ecpointgrouplaw"
	"github.com/getamis/psi/crypto/utils"
	"github.com/getamis/psi/params"
)

var (
	big1 = big.NewInt(1)

	// ErrItemTooLarge is returned if an item is not less than the curve's
	// group order, so it cannot be faithfully encoded as a scalar.
	ErrItemTooLarge = errors.New("item exceeds curve order")
	// ErrIdentityPoint is returned if a point involved in the round trip is
	// the identity element, which never happens for a correctly encoded
	// nonzero item and a valid key.
	ErrIdentityPoint = errors.New("identity point")
)

// Request is the wire message a Requester sends: the client's blinded item
// point A = k_c·item·G.
type Request struct {
	Alpha *pt.EncodedPoint
}

// Response is the wire message a Responser answers with: B = k_s·A.
type Response struct {
	Beta *pt.EncodedPoint
}

// Encode computes P = item·G. Fails if item ≥ the curve's group order, or
// if item is zero (0·G is the identity, which the PRF cannot use).
func Encode(curve elliptic.Curve, item *big.Int) (*pt.ECPoint, error) {
	if item.Cmp(curve.Params().N) >= 0 {
		return nil, ErrItemTooLarge
	}
	if item.Sign() == 0 {
		return nil, ErrIdentityPoint
	}
	return pt.ScalarBaseMult(curve, item), nil
}

// Requester is the client side of one EC-OPRF item exchange: it blinds an
// item with a scalar (a fresh random one from NewRequester, or the client's
// persistent key from NewRequesterWithKey), sends the result, and later
// unblinds the server's reply.
type Requester struct {
	item    *big.Int
	r       *big.Int
	alpha   *pt.ECPoint
	request *Request
}

// NewRequester blinds item with a fresh random scalar r and prepares the
// request message A = r·item·G.
func NewRequester(curve elliptic.Curve, item *big.Int) (*Requester, error) {
	p, err := Encode(curve, item)
	if err != nil {
		return nil, err
	}
	fieldOrder := curve.Params().N
	r, err := utils.RandomPositiveInt(fieldOrder)
	if err != nil {
		return nil, err
	}
	alpha := p.ScalarMult(r)
	alphaMsg, err := alpha.ToEncodedPoint()
	if err != nil {
		return nil, err
	}
	return &Requester{
		item:  item,
		r:     r,
		alpha: alpha,
		request: &Request{
			Alpha: alphaMsg,
		},
	}, nil
}

// NewRequesterWithKey blinds item with the client's persistent OPRF key kc
// instead of a fresh per-call scalar, mirroring Responser's shared-secret
// shape: the same kc is reused across every item and across repeated runs,
// so client-side blinding is idempotent.
func NewRequesterWithKey(curve elliptic.Curve, kc *big.Int, item *big.Int) (*Requester, error) {
	p, err := Encode(curve, item)
	if err != nil {
		return nil, err
	}
	alpha := p.ScalarMult(kc)
	alphaMsg, err := alpha.ToEncodedPoint()
	if err != nil {
		return nil, err
	}
	return &Requester{
		item:  item,
		r:     kc,
		alpha: alpha,
		request: &Request{
			Alpha: alphaMsg,
		},
	}, nil
}

// GetRequest returns the message to send to the Responser.
func (req *Requester) GetRequest() *Request {
	return req.request
}

// Compute unblinds the Responser's reply and returns Q = k_s·item·G, ready
// for params.Parameters.Extract.
func (req *Requester) Compute(resp *Response) (*pt.ECPoint, error) {
	beta, err := resp.Beta.ToPoint()
	if err != nil {
		return nil, err
	}
	if beta.IsIdentity() {
		return nil, ErrIdentityPoint
	}
	fieldOrder := beta.GetCurve().Params().N
	rInverse := new(big.Int).ModInverse(req.r, fieldOrder)
	if rInverse == nil {
		return nil, ErrItemTooLarge
	}
	return beta.ScalarMult(rInverse), nil
}

// Responser is the server side: it holds the long-lived OPRF key k_s and
// applies it to every request it receives.
type Responser struct {
	k *big.Int
}

// NewResponser generates a fresh random key k_s in [1, q).
func NewResponser(curve elliptic.Curve) (*Responser, error) {
	k, err := utils.RandomPositiveInt(curve.Params().N)
	if err != nil {
		return nil, err
	}
	return NewResponserWithKey(curve, k)
}

// NewResponserWithKey builds a Responser around an existing key, validating
// it lies in [1, q).
func NewResponserWithKey(curve elliptic.Curve, k *big.Int) (*Responser, error) {
	if err := utils.InRange(k, big1, curve.Params().N); err != nil {
		return nil, err
	}
	return &Responser{k: k}, nil
}

// GetKey returns a copy of the server's key.
func (resp *Responser) GetKey() *big.Int {
	return new(big.Int).Set(resp.k)
}

// Handle applies the server's key to a client request: B = k_s·A.
func (resp *Responser) Handle(req *Request) (*Response, error) {
	alpha, err := req.Alpha.ToPoint()
	if err != nil {
		return nil, err
	}
	if alpha.IsIdentity() {
		return nil, ErrIdentityPoint
	}
	beta := alpha.ScalarMult(resp.k)
	betaMsg, err := beta.ToEncodedPoint()
	if err != nil {
		return nil, err
	}
	return &Response{Beta: betaMsg}, nil
}

// Evaluate computes F_k(item) = extract(k·item·G) directly, without the
// blind/unblind round trip. This is what the server runs offline over its
// own set S, and what tests use as the round-trip oracle.
func Evaluate(curve elliptic.Curve, prm *params.Parameters, k *big.Int, item *big.Int) (uint64, error) {
	p, err := Encode(curve, item)
	if err != nil {
		return 0, err
	}
	q := p.ScalarMult(k)
	return prm.Extract(q)
}
