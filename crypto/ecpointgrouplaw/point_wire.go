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

package ecpointgrouplaw

import (
	"encoding/binary"
	"errors"
	"io"
)

// CurveID identifies one of the fixed curves this package can serialize a
// point for. The wire format below is a plain length-prefixed encoding; it
// round-trips across languages without a protobuf toolchain.
type CurveID int32

const (
	CurveP224 CurveID = iota
	CurveP256
	CurveP384
	CurveS256
)

// EncodedPoint is the wire representation of an ECPoint: a curve tag plus
// big-endian-magnitude X/Y byte strings (empty X and Y mean the identity
// element, matching ECPoint's own (nil, nil) convention).
type EncodedPoint struct {
	Curve CurveID
	X     []byte
	Y     []byte
}

// ErrShortRead is returned when a frame ends before an expected field.
var ErrShortRead = errors.New("short read while decoding point")

// WriteTo encodes the point as curve(4) || len(X)(4) || X || len(Y)(4) || Y,
// all integers big-endian.
func (p *EncodedPoint) WriteTo(w io.Writer) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(p.Curve))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	for _, b := range [][]byte{p.X, p.Y} {
		binary.BigEndian.PutUint32(hdr[:], uint32(len(b)))
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		if len(b) > 0 {
			if _, err := w.Write(b); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadEncodedPoint decodes a point previously written by WriteTo.
func ReadEncodedPoint(r io.Reader) (*EncodedPoint, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, ErrShortRead
	}
	p := &EncodedPoint{Curve: CurveID(binary.BigEndian.Uint32(hdr[:]))}
	for _, dst := range []*[]byte{&p.X, &p.Y} {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, ErrShortRead
		}
		n := binary.BigEndian.Uint32(hdr[:])
		if n == 0 {
			continue
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, ErrShortRead
		}
		*dst = b
	}
	return p, nil
}
