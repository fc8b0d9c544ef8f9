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

package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	pt "github.com/getamis/psi/crypto/ecpointgrouplaw"
)

// EncodePointList serializes a list of curve points as a big-endian
// uint32 count followed by each point's
// length-prefixed encoding (point_wire.go's EncodedPoint.WriteTo).
func EncodePointList(points []*pt.EncodedPoint) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(points))); err != nil {
		return nil, err
	}
	for _, p := range points {
		if err := p.WriteTo(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodePointList is the inverse of EncodePointList.
func DecodePointList(payload []byte) ([]*pt.EncodedPoint, error) {
	r := bytes.NewReader(payload)
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	points := make([]*pt.EncodedPoint, count)
	for i := range points {
		p, err := pt.ReadEncodedPoint(r)
		if err != nil {
			return nil, err
		}
		points[i] = p
	}
	return points, nil
}

// EncodeUint64Table serializes the server's preprocessed coefficient table
// C[b][k] as big-endian uint32 row and column counts, followed by the
// flattened row-major uint64 values.
func EncodeUint64Table(table [][]uint64) ([]byte, error) {
	rows := uint32(len(table))
	cols := uint32(0)
	if rows > 0 {
		cols = uint32(len(table[0]))
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, rows); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, cols); err != nil {
		return nil, err
	}
	for _, row := range table {
		if uint32(len(row)) != cols {
			return nil, io.ErrShortWrite
		}
		if err := binary.Write(&buf, binary.BigEndian, row); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeUint64Table is the inverse of EncodeUint64Table.
func DecodeUint64Table(payload []byte) ([][]uint64, error) {
	r := bytes.NewReader(payload)
	var rows, cols uint32
	if err := binary.Read(r, binary.BigEndian, &rows); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &cols); err != nil {
		return nil, err
	}
	table := make([][]uint64, rows)
	for i := range table {
		row := make([]uint64, cols)
		if err := binary.Read(r, binary.BigEndian, row); err != nil {
			return nil, err
		}
		table[i] = row
	}
	return table, nil
}

// BinaryMarshaler is satisfied by lattigo's bfv.Ciphertext (and
// rlwe.PublicKey / rlwe.RelinearizationKey), letting EncodeBlobs stay
// generic over whatever FHE object the caller needs to frame.
type BinaryMarshaler interface {
	MarshalBinary() ([]byte, error)
}

// EncodeBlobs serializes a list of self-describing binary blobs (ciphertexts,
// public keys, relinearization keys) as a big-endian uint32 count followed
// by each blob's own big-endian uint32 length and bytes.
func EncodeBlobs(items []BinaryMarshaler) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(items))); err != nil {
		return nil, err
	}
	for _, item := range items {
		raw, err := item.MarshalBinary()
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
	return buf.Bytes(), nil
}

// DecodeBlobs splits payload back into its individual length-prefixed
// blobs; the caller is responsible for unmarshaling each one into the
// concrete FHE type it expects.
func DecodeBlobs(payload []byte) ([][]byte, error) {
	r := bytes.NewReader(payload)
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	blobs := make([][]byte, count)
	for i := range blobs {
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		blob := make([]byte, n)
		if _, err := io.ReadFull(r, blob); err != nil {
			return nil, err
		}
		blobs[i] = blob
	}
	return blobs, nil
}
