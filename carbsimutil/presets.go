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
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/brinemodel/carbsim"
	"github.com/lnashier/viper"
)

// presetFileContents is the layout of a TOML preset file: a table of named
// reactor configurations, for example
//
//	[presets.bench]
//	water_ml = 2200
//	naoh_g = 700
type presetFileContents struct {
	Presets map[string]carbsim.SystemConfig `toml:"presets"`
}

// LoadPresets reads every named reactor preset from a TOML file.
func LoadPresets(filename string) (map[string]carbsim.SystemConfig, error) {
	var contents presetFileContents
	if _, err := toml.DecodeFile(filename, &contents); err != nil {
		return nil, fmt.Errorf("carbsim: reading preset file %s: %v", filename, err)
	}
	if len(contents.Presets) == 0 {
		return nil, fmt.Errorf("carbsim: preset file %s defines no presets", filename)
	}
	return contents.Presets, nil
}

// LoadPreset reads one named preset from a TOML preset file.
func LoadPreset(filename, name string) (carbsim.SystemConfig, error) {
	presets, err := LoadPresets(filename)
	if err != nil {
		return carbsim.SystemConfig{}, err
	}
	p, ok := presets[name]
	if !ok {
		names := make([]string, 0, len(presets))
		for n := range presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return carbsim.SystemConfig{}, fmt.Errorf("carbsim: preset file %s has no preset %q (available: %v)",
			filename, name, names)
	}
	return p, nil
}

// applyPreset overlays a preset onto the flag-derived configuration. The
// preset supplies the base values; System.* keys the user set explicitly on
// the command line or in the configuration file still win.
func applyPreset(preset, flags carbsim.SystemConfig, cfg *viper.Viper) carbsim.SystemConfig {
	set := func(key string) bool {
		if f := runCmd.PersistentFlags().Lookup(key); f != nil && f.Changed {
			return true
		}
		return cfg.InConfig(key)
	}
	out := preset
	if set("System.WaterML") {
		out.WaterMilliliters = flags.WaterMilliliters
	}
	if set("System.NaOHGrams") {
		out.NaOHGrams = flags.NaOHGrams
	}
	if set("System.TempC") {
		out.TemperatureC = flags.TemperatureC
	}
	if set("System.HeadspaceL") {
		out.HeadspaceLiters = flags.HeadspaceLiters
	}
	if set("System.PHighPsig") {
		out.HighPressurePsig = flags.HighPressurePsig
	}
	if set("System.PressureDropPsi") {
		out.PressureDropPsi = flags.PressureDropPsi
	}
	if set("System.HenryMolalPerAtm") {
		out.HenryMolalPerAtm = flags.HenryMolalPerAtm
	}
	return out
}
