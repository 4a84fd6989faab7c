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
	"testing"

	"github.com/lnashier/viper"
)

func TestSystemConfigDefaults(t *testing.T) {
	c, err := systemConfig(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.WaterMilliliters != 2200 || c.NaOHGrams != 700 {
		t.Errorf("default system config = %+v", c)
	}
	if c.HighPressurePsig != 750 || c.PressureDropPsi != 75 {
		t.Errorf("default pressure protocol = %+v", c)
	}
}

func TestSystemConfigValidation(t *testing.T) {
	cfg := viper.New()
	cfg.Set("System.WaterML", 2200.0)
	cfg.Set("System.NaOHGrams", 700.0)
	cfg.Set("System.HeadspaceL", 10.0)
	cfg.Set("System.PHighPsig", 100.0)
	cfg.Set("System.PressureDropPsi", 200.0)
	if _, err := systemConfig(cfg); err == nil {
		t.Error("expected an error when the pressure drop exceeds the charge pressure")
	}

	cfg.Set("System.PressureDropPsi", 50.0)
	cfg.Set("System.NaOHGrams", 0.0)
	if _, err := systemConfig(cfg); err == nil {
		t.Error("expected an error for a zero NaOH charge")
	}
}

func TestGetStringMapString(t *testing.T) {
	cfg := viper.New()

	cfg.Set("OutputVariables", map[string]interface{}{"pOH": "14 - pH"})
	got := GetStringMapString("OutputVariables", cfg)
	if got["pOH"] != "14 - pH" {
		t.Errorf("map form: %v", got)
	}

	// Command-line arguments arrive as a JSON string.
	cfg.Set("OutputVariables", `{"pOH": "14 - pH", "logH": "log10(m_H)"}`)
	got = GetStringMapString("OutputVariables", cfg)
	if got["pOH"] != "14 - pH" || got["logH"] != "log10(m_H)" {
		t.Errorf("json form: %v", got)
	}
}

func TestLoadParamsDefault(t *testing.T) {
	p, err := loadParams("")
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.Kw != 1e-14 {
		t.Error("default parameter set not returned")
	}
}
