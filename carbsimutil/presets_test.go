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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testPresetFile = `
[presets.bench]
water_ml = 2200
naoh_g = 700
temp_c = 25
headspace_l = 10
p_high_psig = 750
dp_psig = 75
kh_molal_per_atm = 0.034

[presets.pilot]
water_ml = 50000
naoh_g = 16000
temp_c = 30
headspace_l = 200
p_high_psig = 600
dp_psig = 50
kh_molal_per_atm = 0.030
`

func writeTestPresets(t *testing.T) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "presets.toml")
	if err := os.WriteFile(fname, []byte(testPresetFile), 0o644); err != nil {
		t.Fatal(err)
	}
	return fname
}

func TestLoadPresets(t *testing.T) {
	presets, err := LoadPresets(writeTestPresets(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(presets) != 2 {
		t.Fatalf("got %d presets, want 2", len(presets))
	}
	bench := presets["bench"]
	if bench.NaOHGrams != 700 || bench.WaterMilliliters != 2200 {
		t.Errorf("bench preset = %+v", bench)
	}
	pilot := presets["pilot"]
	if pilot.TemperatureC != 30 || pilot.HenryMolalPerAtm != 0.030 {
		t.Errorf("pilot preset = %+v", pilot)
	}
}

func TestLoadPresetUnknown(t *testing.T) {
	_, err := LoadPreset(writeTestPresets(t), "garage")
	if err == nil {
		t.Fatal("expected an error for an unknown preset")
	}
	// The error names the presets that do exist.
	if !strings.Contains(err.Error(), "bench") || !strings.Contains(err.Error(), "pilot") {
		t.Errorf("error does not list available presets: %v", err)
	}
}

func TestLoadPresetsMissingFile(t *testing.T) {
	if _, err := LoadPresets(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected an error for a missing preset file")
	}
}
