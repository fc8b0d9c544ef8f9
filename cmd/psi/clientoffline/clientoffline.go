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

// Package clientoffline implements the client-offline subcommand: blind
// every client item under the client's persistent OPRF key k_c and persist
// both the blinded points and the key, so repeated runs are idempotent
// and client-online can run as a separate process.
package clientoffline

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/getamis/sirius/log"

	"github.com/getamis/psi/params"
	"github.com/getamis/psi/persistence"
	"github.com/getamis/psi/protocol"
)

var Cmd = &cobra.Command{
	Use:   "client-offline",
	Short: "Blind the client's set under its persistent OPRF key",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := params.ReadProfile(viper.GetString("params"))
		if err != nil {
			return err
		}
		cfg, err := profile.ToConfig()
		if err != nil {
			return err
		}
		prm, err := params.NewParameters(cfg)
		if err != nil {
			return err
		}

		clientItems, err := persistence.ReadItemSet(viper.GetString("client-set"))
		if err != nil {
			return err
		}

		keyPath := viper.GetString("client-key")
		client, err := loadOrCreateClient(prm, keyPath)
		if err != nil {
			return err
		}
		if err := client.Offline(clientItems); err != nil {
			return err
		}

		points, err := client.Requests()
		if err != nil {
			return err
		}
		preprocessedPath := viper.GetString("client-preprocessed")
		if err := persistence.WriteClientPreprocessed(preprocessedPath, points); err != nil {
			return err
		}
		if err := persistence.WriteKey(keyPath, client.Key()); err != nil {
			return err
		}

		digest, err := persistence.Digest(preprocessedPath)
		if err != nil {
			return err
		}
		log.New().Info("client offline finished", "items", len(clientItems), "digest", digest)
		return nil
	},
}

// loadOrCreateClient restores the client's persistent OPRF key from disk if
// one already exists (a prior client-offline run), or generates a fresh
// one on first use.
func loadOrCreateClient(prm *params.Parameters, keyPath string) (*protocol.Client, error) {
	if key, err := persistence.ReadKey(keyPath); err == nil {
		return protocol.NewClientWithKey(prm, key), nil
	}
	return protocol.NewClient(prm)
}

func init() {
	Cmd.Flags().String("params", "", "optional YAML parameter profile")
	Cmd.Flags().String("client-set", "client_set", "path to the client's item set")
	Cmd.Flags().String("client-preprocessed", "client_preprocessed", "output path for the blinded query points")
	Cmd.Flags().String("client-key", "client_key", "path to the client's persistent OPRF key")
}
