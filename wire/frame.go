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

// Package wire implements the transport framing: every message is a
// 10-byte ASCII decimal length, right-padded with spaces, followed by that
// many payload bytes. A short read at any point is a fatal transport error;
// there is no retry.
package wire

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const lengthFieldSize = 10

// ErrMalformedLength is returned when the 10-byte length prefix does not
// parse as a non-negative decimal integer.
var ErrMalformedLength = errors.New("wire: malformed length prefix")

// WriteFrame writes payload as one length-prefixed message.
func WriteFrame(w io.Writer, payload []byte) error {
	header := fmt.Sprintf("%-*d", lengthFieldSize, len(payload))
	if len(header) != lengthFieldSize {
		return fmt.Errorf("wire: payload too large to frame (%d bytes)", len(payload))
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed message, returning its payload. Any
// short read is a fatal transport error.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, lengthFieldSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(header)))
	if err != nil || n < 0 {
		return nil, ErrMalformedLength
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
