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

// Package generatesets implements the generate-sets subcommand: it writes
// server_set, client_set, and intersection fixtures for the other
// subcommands to consume.
package generatesets

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/getamis/sirius/log"

	"github.com/getamis/psi/persistence"
	"github.com/getamis/psi/testset"
)

var Cmd = &cobra.Command{
	Use:   "generate-sets",
	Short: "Generate synthetic server/client/intersection fixtures",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverSize := viper.GetInt("server-size")
		clientSize := viper.GetInt("client-size")
		intersectionSize := viper.GetInt("intersection-size")
		outDir := viper.GetString("out")

		sets, err := testset.Generate(serverSize, clientSize, intersectionSize)
		if err != nil {
			return err
		}

		logger := log.New()
		if err := persistence.WriteItemSet(outDir+"/server_set", sets.Server); err != nil {
			return err
		}
		if err := persistence.WriteItemSet(outDir+"/client_set", sets.Client); err != nil {
			return err
		}
		if err := persistence.WriteItemSet(outDir+"/intersection", sets.Intersection); err != nil {
			return err
		}
		logger.Info("generated fixtures", "server", len(sets.Server), "client", len(sets.Client), "intersection", len(sets.Intersection))
		return nil
	},
}

func init() {
	Cmd.Flags().Int("server-size", 1<<20, "number of items in the server's set")
	Cmd.Flags().Int("client-size", 4000, "number of items in the client's set")
	Cmd.Flags().Int("intersection-size", 3500, "number of items shared between the two sets")
	Cmd.Flags().String("out", ".", "directory to write server_set/client_set/intersection into")
}
