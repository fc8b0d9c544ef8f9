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

package protocol

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/tuneinsight/lattigo/v3/bfv"

	"github.com/getamis/psi/fhe"
	"github.com/getamis/psi/wire"
)

// encodeQuery serializes the client's windowed-query ciphertext grid:
// a (base-1) x logBEll matrix where entries outside [1,B/α] are nil.
// The grid's row and column counts come first as big-endian uint32s;
// each cell follows as a presence flag byte and, when present, the
// ciphertext's uint32 length and bytes.
func encodeQuery(query [][]*bfv.Ciphertext) ([]byte, error) {
	var buf bytes.Buffer
	rows := uint32(len(query))
	cols := uint32(0)
	if rows > 0 {
		cols = uint32(len(query[0]))
	}
	if err := binary.Write(&buf, binary.BigEndian, rows); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, cols); err != nil {
		return nil, err
	}
	for _, row := range query {
		for _, ct := range row {
			if ct == nil {
				buf.WriteByte(0)
				continue
			}
			buf.WriteByte(1)
			raw, err := ct.MarshalBinary()
			if err != nil {
				return nil, err
			}
			if err := binary.Write(&buf, binary.BigEndian, uint32(len(raw))); err != nil {
				return nil, err
			}
			if _, err := buf.Write(raw); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

// decodeQuery is the inverse of encodeQuery. Ciphertexts are allocated
// through scheme so UnmarshalBinary fills an already-sized target.
func decodeQuery(scheme *fhe.Scheme, payload []byte) ([][]*bfv.Ciphertext, error) {
	r := bytes.NewReader(payload)
	var rows, cols uint32
	if err := binary.Read(r, binary.BigEndian, &rows); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &cols); err != nil {
		return nil, err
	}
	query := make([][]*bfv.Ciphertext, rows)
	for i := range query {
		query[i] = make([]*bfv.Ciphertext, cols)
		for j := range query[i] {
			flag, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			if flag == 0 {
				continue
			}
			var n uint32
			if err := binary.Read(r, binary.BigEndian, &n); err != nil {
				return nil, err
			}
			raw := make([]byte, n)
			if _, err := io.ReadFull(r, raw); err != nil {
				return nil, err
			}
			ct := scheme.NewCiphertext(1)
			if err := ct.UnmarshalBinary(raw); err != nil {
				return nil, err
			}
			query[i][j] = ct
		}
	}
	return query, nil
}

// fheQueryMessage is the third wire message: the client's BFV public key,
// relinearization key, and windowed encrypted query. No rotation key is
// ever sent; the evaluation never rotates slots.
type fheQueryMessage struct {
	PublicKey          []byte
	RelinearizationKey []byte
	Query              []byte
}

func encodeFHEQuery(msg *fheQueryMessage) ([]byte, error) {
	items := []wire.BinaryMarshaler{
		blob(msg.PublicKey),
		blob(msg.RelinearizationKey),
		blob(msg.Query),
	}
	return wire.EncodeBlobs(items)
}

func decodeFHEQuery(payload []byte) (*fheQueryMessage, error) {
	blobs, err := wire.DecodeBlobs(payload)
	if err != nil {
		return nil, err
	}
	if len(blobs) != 3 {
		return nil, ErrOutOfOrder
	}
	return &fheQueryMessage{
		PublicKey:          blobs[0],
		RelinearizationKey: blobs[1],
		Query:              blobs[2],
	}, nil
}

// blob adapts a raw byte slice to wire.BinaryMarshaler so it can travel
// through EncodeBlobs alongside the FHE key material.
type blob []byte

func (b blob) MarshalBinary() ([]byte, error) { return b, nil }

// encodeCiphertextList serializes the server's α-ciphertext reply as a
// sequence of self-describing binary blobs.
func encodeCiphertextList(cts []*bfv.Ciphertext) ([]byte, error) {
	items := make([]wire.BinaryMarshaler, len(cts))
	for i, ct := range cts {
		items[i] = ct
	}
	return wire.EncodeBlobs(items)
}

func decodeCiphertextList(scheme *fhe.Scheme, payload []byte) ([]*bfv.Ciphertext, error) {
	blobs, err := wire.DecodeBlobs(payload)
	if err != nil {
		return nil, err
	}
	cts := make([]*bfv.Ciphertext, len(blobs))
	for i, raw := range blobs {
		ct := scheme.NewCiphertext(1)
		if err := ct.UnmarshalBinary(raw); err != nil {
			return nil, err
		}
		cts[i] = ct
	}
	return cts, nil
}
