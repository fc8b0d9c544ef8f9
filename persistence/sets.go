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

// Package persistence implements the on-disk formats: the line-oriented
// server_set/client_set/intersection files, and the binary
// client_preprocessed/server_preprocessed artifacts.
package persistence

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// ReadItemSet reads a UTF-8 file of one decimal integer per line (the
// server_set/client_set/intersection format) into a slice.
func ReadItemSet(path string) ([]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []uint64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		v, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("persistence: %s: %w", path, err)
		}
		items = append(items, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// WriteItemSet writes items as one decimal integer per line.
func WriteItemSet(path string, items []uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, item := range items {
		if _, err := fmt.Fprintln(w, item); err != nil {
			return err
		}
	}
	return w.Flush()
}
