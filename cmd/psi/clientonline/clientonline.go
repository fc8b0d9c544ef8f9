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

// Package clientonline implements the client-online subcommand: dial the
// server, run the four-message exchange, and persist the recovered
// intersection.
package clientonline

import (
	"net"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/getamis/sirius/log"

	"github.com/getamis/psi/params"
	"github.com/getamis/psi/persistence"
	"github.com/getamis/psi/protocol"
)

var Cmd = &cobra.Command{
	Use:   "client-online",
	Short: "Run the online-phase PSI exchange against a server",
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
		key, err := persistence.ReadKey(viper.GetString("client-key"))
		if err != nil {
			return err
		}

		client := protocol.NewClientWithKey(prm, key)
		if err := client.Offline(clientItems); err != nil {
			return err
		}

		addr := viper.GetString("host") + ":" + viper.GetString("port")
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return err
		}
		defer conn.Close()

		intersection, err := client.Online(conn)
		if err != nil {
			return err
		}

		if err := persistence.WriteItemSet(viper.GetString("intersection"), intersection); err != nil {
			return err
		}
		log.New().Info("client online finished", "intersection", len(intersection))
		return nil
	},
}

func init() {
	Cmd.Flags().String("params", "", "optional YAML parameter profile")
	Cmd.Flags().String("client-set", "client_set", "path to the client's item set")
	Cmd.Flags().String("client-key", "client_key", "path to the client's persistent OPRF key")
	Cmd.Flags().String("intersection", "intersection", "output path for the recovered intersection")
	Cmd.Flags().String("host", "127.0.0.1", "server address to dial")
	Cmd.Flags().String("port", "4470", "server port to dial")
}
