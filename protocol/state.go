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

// Package protocol drives the two-party PSI state machine over the wire
// framing: an offline phase local to each party, and an online phase that
// alternates client→server, server→client exactly once per step. Any
// message received out of turn is fatal.
package protocol

import "errors"

// ErrOutOfOrder is returned when a message arrives while the receiving
// party is not in the state that expects it.
var ErrOutOfOrder = errors.New("protocol: message received out of order")

// ServerState is the server's position in the protocol state machine.
type ServerState uint32

const (
	ServerIdle ServerState = iota
	ServerReceivedOPRFQuery
	ServerSentOPRFReply
	ServerReceivedFHEQuery
	ServerSentReply
	ServerDone
	ServerFailed
)

func (s ServerState) String() string {
	switch s {
	case ServerIdle:
		return "Idle"
	case ServerReceivedOPRFQuery:
		return "ReceivedOPRFQuery"
	case ServerSentOPRFReply:
		return "SentOPRFReply"
	case ServerReceivedFHEQuery:
		return "ReceivedFHEContextAndQuery"
	case ServerSentReply:
		return "SentReply"
	case ServerDone:
		return "Done"
	case ServerFailed:
		return "Failed"
	}
	return "Unknown"
}

// ClientState is the client's position in the protocol state machine.
type ClientState uint32

const (
	ClientIdle ClientState = iota
	ClientSentOPRFQuery
	ClientReceivedOPRFReply
	ClientSentFHEQuery
	ClientReceivedReply
	ClientDone
	ClientFailed
)

func (c ClientState) String() string {
	switch c {
	case ClientIdle:
		return "Idle"
	case ClientSentOPRFQuery:
		return "SentOPRFQuery"
	case ClientReceivedOPRFReply:
		return "ReceivedOPRFReply"
	case ClientSentFHEQuery:
		return "SentFHEQuery"
	case ClientReceivedReply:
		return "ReceivedReply"
	case ClientDone:
		return "Done"
	case ClientFailed:
		return "Failed"
	}
	return "Unknown"
}
