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

package params

import (
	"os"

	pt "github.com/getamis/psi/crypto/ecpointgrouplaw"
	"gopkg.in/yaml.v2"
)

// Profile is the on-disk, human-editable shape of a Config: the handful of
// knobs an operator is expected to tune, as opposed to the full derived
// Parameters value.
type Profile struct {
	ServerSize        int      `yaml:"server_size"`
	Curve             string   `yaml:"curve"`
	HashSeeds         []uint32 `yaml:"hash_seeds"`
	Alpha             int      `yaml:"alpha"`
	Ell               int      `yaml:"ell"`
	PlainModulus      uint64   `yaml:"plain_modulus"`
	PolyModulusDegree int      `yaml:"poly_modulus_degree"`
}

// curveByName resolves the profile's curve name to the internal CurveID enum.
func curveByName(name string) (pt.CurveID, error) {
	switch name {
	case "p224":
		return pt.CurveP224, nil
	case "p256":
		return pt.CurveP256, nil
	case "p384":
		return pt.CurveP384, nil
	case "secp256k1", "s256":
		return pt.CurveS256, nil
	}
	return 0, ErrParameterMismatch
}

// DefaultProfile is the profile the CLI falls back to when no --params file
// is given: an unbalanced PSI instance sized for a ~2^20 server set against
// a client in the low thousands.
func DefaultProfile() *Profile {
	return &Profile{
		ServerSize:        1 << 20,
		Curve:             "secp256k1",
		HashSeeds:         DefaultHashSeeds,
		Alpha:             16,
		Ell:               2,
		PlainModulus:      536903681,
		PolyModulusDegree: 1 << 13,
	}
}

// ReadProfile reads and parses a YAML parameter profile from path. An empty
// path returns DefaultProfile unchanged.
func ReadProfile(path string) (*Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	profile := DefaultProfile()
	if err := yaml.Unmarshal(raw, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// WriteProfile serializes profile as YAML to path.
func WriteProfile(path string, profile *Profile) error {
	raw, err := yaml.Marshal(profile)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// ToConfig converts the YAML profile into a Config ready for NewParameters.
func (p *Profile) ToConfig() (Config, error) {
	curveID, err := curveByName(p.Curve)
	if err != nil {
		return Config{}, err
	}
	return Config{
		ServerSize:        p.ServerSize,
		Curve:             curveID,
		HashSeeds:         p.HashSeeds,
		Alpha:             p.Alpha,
		Ell:               p.Ell,
		PlainModulus:      p.PlainModulus,
		PolyModulusDegree: p.PolyModulusDegree,
	}, nil
}
