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

// Package serveronline implements the server-online subcommand: listen for
// one client connection and run the four-message exchange against the
// server_preprocessed table from server-offline.
package serveronline

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
	Use:   "server-online",
	Short: "Serve one client's online-phase PSI exchange",
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

		key, err := persistence.ReadKey(viper.GetString("server-key"))
		if err != nil {
			return err
		}
		table, err := persistence.ReadServerPreprocessed(viper.GetString("server-preprocessed"))
		if err != nil {
			return err
		}

		server, err := protocol.NewServerWithKey(prm, viper.GetInt("workers"), key)
		if err != nil {
			return err
		}
		server.LoadTable(table)

		addr := viper.GetString("host") + ":" + viper.GetString("port")
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		defer listener.Close()

		logger := log.New()
		logger.Info("server listening", "addr", addr)

		conn, err := listener.Accept()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := server.Online(conn); err != nil {
			return err
		}
		logger.Info("server online finished")
		return nil
	},
}

func init() {
	Cmd.Flags().String("params", "", "optional YAML parameter profile")
	Cmd.Flags().String("server-preprocessed", "server_preprocessed", "path to the minibin coefficient table")
	Cmd.Flags().String("server-key", "server_key", "path to the server's OPRF key")
	Cmd.Flags().String("host", "0.0.0.0", "address to listen on")
	Cmd.Flags().String("port", "4470", "port to listen on")
	Cmd.Flags().Int("workers", 4, "worker-pool width")
}
