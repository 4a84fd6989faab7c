/*
Copyright © 2026 the carbsim authors.
This file is part of carbsim.

carbsim is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

carbsim is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with carbsim.  If not, see <http://www.gnu.org/licenses/>.
*/

package carbsimutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/brinemodel/carbsim"
	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// systemConfig unmarshals a viper configuration for the reactor system.
// When a preset is named, it is loaded first and individual System.* keys
// that were explicitly set override its values.
func systemConfig(cfg *viper.Viper) (carbsim.SystemConfig, error) {
	c := carbsim.SystemConfig{
		WaterMilliliters: cfg.GetFloat64("System.WaterML"),
		NaOHGrams:        cfg.GetFloat64("System.NaOHGrams"),
		TemperatureC:     cfg.GetFloat64("System.TempC"),
		HeadspaceLiters:  cfg.GetFloat64("System.HeadspaceL"),
		HighPressurePsig: cfg.GetFloat64("System.PHighPsig"),
		PressureDropPsi:  cfg.GetFloat64("System.PressureDropPsi"),
		HenryMolalPerAtm: cfg.GetFloat64("System.HenryMolalPerAtm"),
	}

	if name := cfg.GetString("Preset"); name != "" {
		presetFile := os.ExpandEnv(cfg.GetString("PresetFile"))
		if presetFile == "" {
			return c, fmt.Errorf("carbsim: preset %q requested but PresetFile is not set", name)
		}
		preset, err := LoadPreset(presetFile, name)
		if err != nil {
			return c, err
		}
		c = applyPreset(preset, c, cfg)
	}

	vars := []float64{c.WaterMilliliters, c.NaOHGrams, c.HeadspaceLiters, c.HighPressurePsig, c.PressureDropPsi}
	varNames := []string{"System.WaterML", "System.NaOHGrams", "System.HeadspaceL", "System.PHighPsig", "System.PressureDropPsi"}
	for i, v := range vars {
		if !(v > 0) {
			return c, fmt.Errorf("carbsim: parsing system configuration: %s=%g but should be >0", varNames[i], v)
		}
	}
	if c.PressureDropPsi > c.HighPressurePsig {
		return c, fmt.Errorf("carbsim: parsing system configuration: System.PressureDropPsi=%g exceeds System.PHighPsig=%g",
			c.PressureDropPsi, c.HighPressurePsig)
	}
	return c, nil
}

// loadParams returns the interaction parameter set: the built-in defaults
// when path is empty, otherwise the named PHREEQC-format database.
func loadParams(path string) (*carbsim.ParamSet, error) {
	if path == "" {
		return carbsim.DefaultParams(), nil
	}
	return carbsim.LoadParams(os.ExpandEnv(path))
}

// GetStringMapString returns a map[string]string from a viper configuration.
// Map-valued options (OutputVariables) are declared as string pflags holding
// a JSON object, because pflag has no map flag type; a value set on the
// command line therefore arrives as a JSON string while one set in a
// configuration file arrives as a real map, and both forms decode here.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := bytes.NewBuffer(([]byte)(i.(string)))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		d.Decode(&o)
		return o
	default:
		panic(fmt.Errorf("carbsim: invalid type %T for variable %s", i, varName))
	}
}
