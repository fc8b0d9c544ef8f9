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
	"errors"
	"math/big"
	"os"

	"golang.org/x/crypto/blake2b"

	pt "github.com/getamis/psi/crypto/ecpointgrouplaw"
	"github.com/getamis/psi/wire"
)

var errMalformedKey = errors.New("persistence: malformed key file")

// WriteClientPreprocessed writes the client's offline artifact: the
// sequence of (x,y) curve points encoding its own blinded item set.
func WriteClientPreprocessed(path string, points []*pt.EncodedPoint) error {
	payload, err := wire.EncodePointList(points)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0644)
}

// ReadClientPreprocessed is the inverse of WriteClientPreprocessed.
func ReadClientPreprocessed(path string) ([]*pt.EncodedPoint, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return wire.DecodePointList(payload)
}

// WriteServerPreprocessed writes the server's offline artifact: the 2D
// table of minibin-polynomial coefficients mod t, dimensions m x α·(B/α+1).
func WriteServerPreprocessed(path string, table [][]uint64) error {
	payload, err := wire.EncodeUint64Table(table)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0644)
}

// ReadServerPreprocessed is the inverse of WriteServerPreprocessed.
func ReadServerPreprocessed(path string) ([][]uint64, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return wire.DecodeUint64Table(payload)
}

// WriteKey persists an OPRF secret (the client's k_c or the server's k_s)
// as decimal text, letting the offline and online halves of either party
// run as separate processes with the same key.
func WriteKey(path string, key *big.Int) error {
	return os.WriteFile(path, []byte(key.String()), 0600)
}

// ReadKey is the inverse of WriteKey.
func ReadKey(path string) (*big.Int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, errMalformedKey
	}
	return key, nil
}

// Digest hashes a persisted artifact with blake2b-256, letting a caller
// confirm that repeated client-offline runs write byte-identical
// client_preprocessed content without comparing whole files.
func Digest(path string) ([blake2b.Size256]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return [blake2b.Size256]byte{}, err
	}
	return blake2b.Sum256(raw), nil
}
