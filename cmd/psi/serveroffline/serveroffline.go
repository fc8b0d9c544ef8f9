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

// Package serveroffline implements the server-offline subcommand: OPRF the
// server's set with a fresh key, simple-hash and pad it, and persist both
// the coefficient table and the key so server-online can run as a separate
// process.
package serveroffline

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/getamis/sirius/log"

	"github.com/getamis/psi/params"
	"github.com/getamis/psi/persistence"
	"github.com/getamis/psi/protocol"
)

var Cmd = &cobra.Command{
	Use:   "server-offline",
	Short: "Preprocess the server's set into a minibin-polynomial table",
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

		serverSetPath := viper.GetString("server-set")
		serverItems, err := persistence.ReadItemSet(serverSetPath)
		if err != nil {
			return err
		}

		server, err := protocol.NewServer(prm, viper.GetInt("workers"))
		if err != nil {
			return err
		}
		if err := server.Offline(serverItems); err != nil {
			return err
		}

		if err := persistence.WriteServerPreprocessed(viper.GetString("server-preprocessed"), server.Table()); err != nil {
			return err
		}
		if err := persistence.WriteKey(viper.GetString("server-key"), server.Key()); err != nil {
			return err
		}

		log.New().Info("server offline finished", "items", len(serverItems))
		return nil
	},
}

func init() {
	Cmd.Flags().String("params", "", "optional YAML parameter profile")
	Cmd.Flags().String("server-set", "server_set", "path to the server's item set")
	Cmd.Flags().String("server-preprocessed", "server_preprocessed", "output path for the minibin coefficient table")
	Cmd.Flags().String("server-key", "server_key", "output path for the server's OPRF key")
	Cmd.Flags().Int("workers", 4, "worker-pool width")
}
