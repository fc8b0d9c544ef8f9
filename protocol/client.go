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
	"math/big"
	"net"

	pt "github.com/getamis/psi/crypto/ecpointgrouplaw"
	"github.com/getamis/psi/crypto/oprf"
	"github.com/getamis/psi/crypto/utils"
	"github.com/getamis/psi/fhe"
	"github.com/getamis/psi/hashtable"
	"github.com/getamis/psi/logger"
	"github.com/getamis/psi/params"
	"github.com/getamis/psi/windowing"
	"github.com/getamis/psi/wire"
)

// Client drives the client side of the protocol: Offline blinds every
// client item under the client's own persistent OPRF key k_c; Online runs
// the OPRF exchange, cuckoo-hashes the unblinded PRF values, builds the
// windowed FHE query, and recovers the intersection from the server's
// reply.
type Client struct {
	prm *params.Parameters
	key *big.Int

	items      []uint64
	requesters []*oprf.Requester

	state ClientState
}

// NewClient builds a Client around prm with a fresh random OPRF key k_c.
func NewClient(prm *params.Parameters) (*Client, error) {
	curve, err := prm.Curve.GetEllipticCurve()
	if err != nil {
		return nil, err
	}
	key, err := utils.RandomPositiveInt(curve.Params().N)
	if err != nil {
		return nil, err
	}
	return NewClientWithKey(prm, key), nil
}

// NewClientWithKey builds a Client around an existing k_c, letting
// client-offline and client-online run as separate processes while keeping
// blinding idempotent: the same k_c always blinds a given item to the same
// point.
func NewClientWithKey(prm *params.Parameters, key *big.Int) *Client {
	return &Client{prm: prm, key: new(big.Int).Set(key), state: ClientIdle}
}

// Key returns a copy of the client's persistent OPRF key, for persistence
// alongside client_preprocessed.
func (c *Client) Key() *big.Int {
	return new(big.Int).Set(c.key)
}

// Offline blinds every item with the client's persistent key k_c, retaining
// the Requesters so Online can later unblind the server's reply. Duplicate
// items are dropped first; a duplicate would otherwise occupy two cuckoo
// bins during Online.
func (c *Client) Offline(clientItems []uint64) error {
	curve, err := c.prm.Curve.GetEllipticCurve()
	if err != nil {
		return err
	}
	seen := make(map[uint64]struct{}, len(clientItems))
	items := make([]uint64, 0, len(clientItems))
	for _, item := range clientItems {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		items = append(items, item)
	}
	requesters := make([]*oprf.Requester, len(items))
	for i, item := range items {
		req, err := oprf.NewRequesterWithKey(curve, c.key, new(big.Int).SetUint64(item))
		if err != nil {
			return err
		}
		requesters[i] = req
	}
	c.items = items
	c.requesters = requesters
	logger.Logger().Info("client offline finished", "items", len(items))
	return nil
}

// Requests exposes the blinded alpha points for persistence as
// client_preprocessed.
func (c *Client) Requests() ([]*pt.EncodedPoint, error) {
	points := make([]*pt.EncodedPoint, len(c.requesters))
	for i, req := range c.requesters {
		points[i] = req.GetRequest().Alpha
	}
	return points, nil
}

// Online drives one full four-message exchange against a single server
// connection,
// returning the subset of the client's own items found in the intersection.
func (c *Client) Online(conn net.Conn) ([]uint64, error) {
	if c.state != ClientIdle {
		return nil, ErrOutOfOrder
	}
	if len(c.requesters) != len(c.items) {
		return nil, ErrOutOfOrder
	}

	// Step 1: send every blinded request point.
	requests := make([]*pt.EncodedPoint, len(c.requesters))
	for i, req := range c.requesters {
		requests[i] = req.GetRequest().Alpha
	}
	payload, err := wire.EncodePointList(requests)
	if err != nil {
		c.state = ClientFailed
		return nil, err
	}
	if err := wire.WriteFrame(conn, payload); err != nil {
		c.state = ClientFailed
		return nil, err
	}
	c.state = ClientSentOPRFQuery

	// Step 2: receive the server's replies and unblind them into PRF values.
	payload, err = wire.ReadFrame(conn)
	if err != nil {
		c.state = ClientFailed
		return nil, err
	}
	responses, err := wire.DecodePointList(payload)
	if err != nil {
		c.state = ClientFailed
		return nil, err
	}
	if len(responses) != len(c.requesters) {
		c.state = ClientFailed
		return nil, ErrOutOfOrder
	}
	c.state = ClientReceivedOPRFReply

	prfItems := make([]uint64, len(c.requesters))
	prfToItem := make(map[uint64]uint64, len(c.requesters))
	for i, req := range c.requesters {
		q, err := req.Compute(&oprf.Response{Beta: responses[i]})
		if err != nil {
			c.state = ClientFailed
			return nil, err
		}
		v, err := c.prm.Extract(q)
		if err != nil {
			c.state = ClientFailed
			return nil, err
		}
		prfItems[i] = v
		prfToItem[v] = c.items[i]
	}

	// Cuckoo-hash the PRF values, padding every empty bin with the
	// dummy_client sentinel.
	table := hashtable.NewCuckooTable(c.prm)
	for _, v := range prfItems {
		if err := table.Insert(v); err != nil {
			c.state = ClientFailed
			return nil, err
		}
	}
	table.Pad()
	bins := table.Bins()

	// Build one windowed-powers matrix per bin.
	matrices := make([]*windowing.Matrix, len(bins))
	for b, y := range bins {
		matrices[b] = windowing.NewMatrix(c.prm, y)
	}

	// Generate fresh BFV keys, encrypt the query, and send the
	// client's FHE public key, relinearization key, and query.
	scheme, err := fhe.NewScheme(c.prm)
	if err != nil {
		c.state = ClientFailed
		return nil, err
	}
	keys := scheme.GenerateKeys()
	encryptor := scheme.NewEncryptor(keys.PublicKey)
	query := encryptor.EncryptQuery(matrices)

	pkBytes, err := keys.PublicKey.MarshalBinary()
	if err != nil {
		c.state = ClientFailed
		return nil, err
	}
	rlkBytes, err := keys.RelinearizationKey.MarshalBinary()
	if err != nil {
		c.state = ClientFailed
		return nil, err
	}
	queryBytes, err := encodeQuery(query)
	if err != nil {
		c.state = ClientFailed
		return nil, err
	}
	msgPayload, err := encodeFHEQuery(&fheQueryMessage{
		PublicKey:          pkBytes,
		RelinearizationKey: rlkBytes,
		Query:              queryBytes,
	})
	if err != nil {
		c.state = ClientFailed
		return nil, err
	}
	if err := wire.WriteFrame(conn, msgPayload); err != nil {
		c.state = ClientFailed
		return nil, err
	}
	c.state = ClientSentFHEQuery

	// Step 4: receive the server's α ciphertext replies and recover presence
	// per bin.
	payload, err = wire.ReadFrame(conn)
	if err != nil {
		c.state = ClientFailed
		return nil, err
	}
	replies, err := decodeCiphertextList(scheme, payload)
	if err != nil {
		c.state = ClientFailed
		return nil, err
	}
	c.state = ClientReceivedReply

	decryptor := scheme.NewDecryptor(keys.SecretKey)
	present := fhe.Recover(decryptor, replies, c.prm.NumBins)

	var intersection []uint64
	for b, ok := range present {
		if !ok {
			continue
		}
		stored := bins[b]
		if stored == c.prm.DummyClient {
			continue
		}
		index := hashtable.ExtractIndex(c.prm, stored)
		seed := c.prm.HashSeeds[index]
		prfItem := hashtable.Reconstruct(c.prm, stored, uint64(b), seed)
		if original, ok := prfToItem[prfItem]; ok {
			intersection = append(intersection, original)
		}
	}

	c.state = ClientDone
	logger.Logger().Info("client online finished", "intersection", len(intersection))
	return intersection, nil
}
