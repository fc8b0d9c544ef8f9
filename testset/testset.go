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

// Package testset generates synthetic server/client item sets with a
// chosen intersection size, for exercising the protocol end to end without
// a real-world data source: a disjoint random union is split into the
// shared intersection plus each party's own exclusive remainder.
package testset

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// maxItem is the exclusive upper bound on generated items, 2^63 - 1, so the
// largest generatable item is 2^63 - 2. Items must also fit the curve's scalar range, which the caller's chosen Parameters
// enforce separately.
var maxItem = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 63), big.NewInt(1))

// ErrSizeMismatch is returned when the requested intersection size exceeds
// either set's total size.
var ErrSizeMismatch = errors.New("testset: intersection size exceeds a set size")

// Sets is the output of Generate: the server's set, the client's set, and
// the list of items both sets share, in the random order they were drawn.
type Sets struct {
	Server       []uint64
	Client       []uint64
	Intersection []uint64
}

// Generate builds server and client sets of the requested sizes sharing
// exactly intersectionSize items, by rejection-sampling distinct values
// from [0, 2^63 - 1).
func Generate(serverSize, clientSize, intersectionSize int) (*Sets, error) {
	if intersectionSize > serverSize || intersectionSize > clientSize {
		return nil, ErrSizeMismatch
	}
	total := serverSize + clientSize - intersectionSize
	pool, err := distinctRandomItems(total)
	if err != nil {
		return nil, err
	}

	intersection := pool[:intersectionSize]
	serverOnly := pool[intersectionSize : intersectionSize+(serverSize-intersectionSize)]
	clientOnly := pool[intersectionSize+(serverSize-intersectionSize):]

	server := make([]uint64, 0, serverSize)
	server = append(server, intersection...)
	server = append(server, serverOnly...)

	client := make([]uint64, 0, clientSize)
	client = append(client, intersection...)
	client = append(client, clientOnly...)

	return &Sets{
		Server:       server,
		Client:       client,
		Intersection: append([]uint64(nil), intersection...),
	}, nil
}

// distinctRandomItems draws n distinct uniform values from [0, maxItem) by
// rejection sampling: with n at most a few million against a ~2^63 range,
// collisions are negligible, so a simple seen-set suffices without the
// bookkeeping a Fisher-Yates shuffle over the full range would need.
func distinctRandomItems(n int) ([]uint64, error) {
	seen := make(map[uint64]struct{}, n)
	items := make([]uint64, 0, n)
	for len(items) < n {
		v, err := rand.Int(rand.Reader, maxItem)
		if err != nil {
			return nil, err
		}
		u := v.Uint64()
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		items = append(items, u)
	}
	return items, nil
}
