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

	"github.com/tuneinsight/lattigo/v3/bfv"
	"github.com/tuneinsight/lattigo/v3/rlwe"

	pt "github.com/getamis/psi/crypto/ecpointgrouplaw"
	"github.com/getamis/psi/crypto/oprf"
	"github.com/getamis/psi/crypto/polynomial"
	"github.com/getamis/psi/fhe"
	"github.com/getamis/psi/hashtable"
	"github.com/getamis/psi/logger"
	"github.com/getamis/psi/params"
	"github.com/getamis/psi/wire"
	"github.com/getamis/psi/workerpool"
)

// Server drives the server side of the protocol: Offline builds the
// per-bin minibin-polynomial table over the server's own set; Online
// runs the single four-message exchange with one client.
type Server struct {
	prm       *params.Parameters
	pool      *workerpool.Pool
	responser *oprf.Responser

	// table is the server_preprocessed artifact: NumBins rows, each
	// Alpha*(MinibinCapacity+1) coefficients wide (not yet transposed).
	table [][]uint64

	state ServerState
}

// NewServer builds a Server around a fresh random OPRF key and the given
// worker-pool width (0 or negative defaults to a single worker).
func NewServer(prm *params.Parameters, workers int) (*Server, error) {
	curve, err := prm.Curve.GetEllipticCurve()
	if err != nil {
		return nil, err
	}
	responser, err := oprf.NewResponser(curve)
	if err != nil {
		return nil, err
	}
	return &Server{
		prm:       prm,
		pool:      workerpool.New(workers),
		responser: responser,
		state:     ServerIdle,
	}, nil
}

// NewServerWithKey builds a Server around an existing OPRF key k_s,
// letting server-offline and server-online run as separate processes: the
// same k_s must apply the PRF to the server's own set offline (Offline) and
// to the client's blinded requests online (Online).
func NewServerWithKey(prm *params.Parameters, workers int, key *big.Int) (*Server, error) {
	curve, err := prm.Curve.GetEllipticCurve()
	if err != nil {
		return nil, err
	}
	responser, err := oprf.NewResponserWithKey(curve, key)
	if err != nil {
		return nil, err
	}
	return &Server{
		prm:       prm,
		pool:      workerpool.New(workers),
		responser: responser,
		state:     ServerIdle,
	}, nil
}

// Key returns a copy of the server's persistent OPRF key, for persistence
// alongside server_preprocessed.
func (s *Server) Key() *big.Int {
	return s.responser.GetKey()
}

// Offline preprocesses the server's own item set: OPRF-evaluate every
// item with the server's own key, simple-hash the results, pad, and
// compute the per-bin minibin vanishing-polynomial coefficients.
func (s *Server) Offline(serverItems []uint64) error {
	curve, err := s.prm.Curve.GetEllipticCurve()
	if err != nil {
		return err
	}
	key := s.responser.GetKey()

	prfItems := make([]uint64, len(serverItems))
	ranges := workerpool.Chunks(len(serverItems), s.pool.Size())
	tasks := make([]func(), len(ranges))
	errs := make([]error, len(ranges))
	for i, rg := range ranges {
		i, rg := i, rg
		tasks[i] = func() {
			for k := rg.Start; k < rg.End; k++ {
				v, err := oprf.Evaluate(curve, s.prm, key, new(big.Int).SetUint64(serverItems[k]))
				if err != nil {
					errs[i] = err
					return
				}
				prfItems[k] = v
			}
		}
	}
	s.pool.Run(tasks)
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	table := hashtable.NewSimpleTable(s.prm)
	if err := table.InsertAll(prfItems); err != nil {
		return err
	}
	table.Pad()

	coeffTable, err := s.buildCoefficientTable(table.Bins())
	if err != nil {
		return err
	}
	s.table = coeffTable
	logger.Logger().Info("server offline finished", "items", len(serverItems), "bins", s.prm.NumBins)
	return nil
}

// Table exposes the server_preprocessed artifact for persistence.
func (s *Server) Table() [][]uint64 {
	return s.table
}

// LoadTable installs a previously persisted server_preprocessed table,
// letting Online run as a separate process from Offline.
func (s *Server) LoadTable(table [][]uint64) {
	s.table = table
}

// buildCoefficientTable splits each bin's BinCapacity
// stored values into Alpha minibins of MinibinCapacity items (any
// remainder past Alpha*MinibinCapacity is unreachable by any client query
// and is dropped, matching the reference parameters' own floor division),
// and compute each minibin's vanishing-polynomial coefficients mod t.
func (s *Server) buildCoefficientTable(bins [][]uint64) ([][]uint64, error) {
	fieldOrder := new(big.Int).SetUint64(s.prm.PlainModulus)
	width := s.prm.Alpha * (s.prm.MinibinCapacity + 1)
	table := make([][]uint64, len(bins))

	ranges := workerpool.Chunks(len(bins), s.pool.Size())
	tasks := make([]func(), len(ranges))
	errs := make([]error, len(ranges))
	for ti, rg := range ranges {
		ti, rg := ti, rg
		tasks[ti] = func() {
			for b := rg.Start; b < rg.End; b++ {
				row := make([]uint64, width)
				bin := bins[b]
				for a := 0; a < s.prm.Alpha; a++ {
					start := a * s.prm.MinibinCapacity
					roots := make([]*big.Int, s.prm.MinibinCapacity)
					for k := 0; k < s.prm.MinibinCapacity; k++ {
						roots[k] = new(big.Int).SetUint64(bin[start+k])
					}
					poly, err := polynomial.VanishingPolynomial(fieldOrder, roots)
					if err != nil {
						errs[ti] = err
						return
					}
					for k := 0; k <= s.prm.MinibinCapacity; k++ {
						row[a*(s.prm.MinibinCapacity+1)+k] = poly.Get(k).Uint64()
					}
				}
				table[b] = row
			}
		}
	}
	s.pool.Run(tasks)
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return table, nil
}

// transpose builds C^T[k][b] from the stored C[b][k] table: one row per
// coefficient index, Alpha*(MinibinCapacity+1) rows total, each NumBins
// wide.
func (s *Server) transpose() [][]uint64 {
	width := s.prm.Alpha * (s.prm.MinibinCapacity + 1)
	t := make([][]uint64, width)
	for k := range t {
		t[k] = make([]uint64, len(s.table))
	}
	for b, row := range s.table {
		for k, v := range row {
			t[k][b] = v
		}
	}
	return t
}

// Online drives one full four-message exchange with a single client
// connection. The
// server must be in ServerIdle and its Offline table must already be set.
func (s *Server) Online(conn net.Conn) error {
	if s.state != ServerIdle {
		return ErrOutOfOrder
	}

	// Step 1: receive the client's (blinded) encoded item points.
	payload, err := wire.ReadFrame(conn)
	if err != nil {
		s.state = ServerFailed
		return err
	}
	requests, err := wire.DecodePointList(payload)
	if err != nil {
		s.state = ServerFailed
		return err
	}
	s.state = ServerReceivedOPRFQuery

	// Step 2: apply the server's OPRF key to every request and reply.
	responses := make([]*pt.EncodedPoint, len(requests))
	for i, reqPoint := range requests {
		resp, err := s.responser.Handle(&oprf.Request{Alpha: reqPoint})
		if err != nil {
			s.state = ServerFailed
			return err
		}
		responses[i] = resp.Beta
	}
	respPayload, err := wire.EncodePointList(responses)
	if err != nil {
		s.state = ServerFailed
		return err
	}
	if err := wire.WriteFrame(conn, respPayload); err != nil {
		s.state = ServerFailed
		return err
	}
	s.state = ServerSentOPRFReply

	// Step 3: receive the client's FHE public key, relin key, and query.
	payload, err = wire.ReadFrame(conn)
	if err != nil {
		s.state = ServerFailed
		return err
	}
	msg, err := decodeFHEQuery(payload)
	if err != nil {
		s.state = ServerFailed
		return err
	}
	s.state = ServerReceivedFHEQuery

	scheme, err := fhe.NewScheme(s.prm)
	if err != nil {
		s.state = ServerFailed
		return err
	}
	rlk := new(rlwe.RelinearizationKey)
	if err := rlk.UnmarshalBinary(msg.RelinearizationKey); err != nil {
		s.state = ServerFailed
		return err
	}
	query, err := decodeQuery(scheme, msg.Query)
	if err != nil {
		s.state = ServerFailed
		return err
	}

	evaluator := scheme.NewEvaluator(rlk)
	powers, err := evaluator.ReconstructPowers(query, s.prm.Base, s.prm.LogBEll, s.prm.MinibinCapacity)
	if err != nil {
		s.state = ServerFailed
		return err
	}

	transposed := s.transpose()
	replies := make([]*bfv.Ciphertext, s.prm.Alpha)
	for a := 0; a < s.prm.Alpha; a++ {
		coeffs := make([][]uint64, s.prm.MinibinCapacity)
		for k := 0; k < s.prm.MinibinCapacity; k++ {
			coeffs[k] = transposed[a*(s.prm.MinibinCapacity+1)+(k+1)]
		}
		constant := transposed[a*(s.prm.MinibinCapacity+1)+0]
		reply, err := evaluator.EvaluateMinibin(powers, coeffs, constant)
		if err != nil {
			s.state = ServerFailed
			return err
		}
		replies[a] = reply
	}

	replyPayload, err := encodeCiphertextList(replies)
	if err != nil {
		s.state = ServerFailed
		return err
	}
	if err := wire.WriteFrame(conn, replyPayload); err != nil {
		s.state = ServerFailed
		return err
	}
	s.state = ServerSentReply
	s.state = ServerDone
	logger.Logger().Info("server online finished")
	return nil
}
