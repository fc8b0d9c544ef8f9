// Copyright © 2021 AMIS Technologies
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/getamis/psi/cmd/psi/clientoffline"
	"github.com/getamis/psi/cmd/psi/clientonline"
	"github.com/getamis/psi/cmd/psi/generatesets"
	"github.com/getamis/psi/cmd/psi/serveroffline"
	"github.com/getamis/psi/cmd/psi/serveronline"
	pt "github.com/getamis/psi/crypto/ecpointgrouplaw"
	"github.com/getamis/psi/crypto/oprf"
	"github.com/getamis/psi/fhe"
	"github.com/getamis/psi/hashtable"
	"github.com/getamis/psi/params"
	"github.com/getamis/psi/protocol"
	"github.com/getamis/psi/wire"
)

var cmd = &cobra.Command{
	Use:   "psi",
	Short: `This is an unbalanced Private Set Intersection example`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		return nil
	},
}

func init() {
	cmd.PersistentFlags().String("config", "", "config file path")

	cmd.AddCommand(generatesets.Cmd)
	cmd.AddCommand(serveroffline.Cmd)
	cmd.AddCommand(serveronline.Cmd)
	cmd.AddCommand(clientoffline.Cmd)
	cmd.AddCommand(clientonline.Cmd)
}

// Exit codes, one per failure kind, so operators and scripts can tell a
// bad parameter file from a torn connection without parsing log output.
const (
	exitGeneric           = 1
	exitParameterMismatch = 2
	exitHashOverflow      = 3
	exitCurveError        = 4
	exitFHEError          = 5
	exitTransportError    = 6
)

func exitCode(err error) int {
	switch {
	case errors.Is(err, params.ErrParameterMismatch),
		errors.Is(err, params.ErrUnsupportedServerSize):
		return exitParameterMismatch
	case errors.Is(err, hashtable.ErrHashOverflow):
		return exitHashOverflow
	case errors.Is(err, pt.ErrInvalidPoint),
		errors.Is(err, pt.ErrInvalidCurve),
		errors.Is(err, oprf.ErrItemTooLarge),
		errors.Is(err, oprf.ErrIdentityPoint):
		return exitCurveError
	case errors.Is(err, fhe.ErrDegreeMismatch):
		return exitFHEError
	case errors.Is(err, wire.ErrMalformedLength),
		errors.Is(err, protocol.ErrOutOfOrder):
		return exitTransportError
	}
	return exitGeneric
}

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(exitCode(err))
	}
}
