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

package carbsim

import (
	"math"
	"testing"
)

func TestModelRegistry(t *testing.T) {
	r := NewModelRegistry(DefaultParams())

	m, err := r.Get("")
	if err != nil {
		t.Fatal(err)
	}
	if m.Key() != "pitzer" {
		t.Errorf("default model = %q, want pitzer", m.Key())
	}

	if _, err := r.Get("dilute"); err != nil {
		t.Errorf("dilute model not registered: %v", err)
	}
	if _, err := r.Get("nope"); err == nil {
		t.Error("expected an error for an unknown model key")
	}

	models := r.List()
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].Key() != "pitzer" || models[1].Key() != "dilute" {
		t.Errorf("registration order = %q, %q", models[0].Key(), models[1].Key())
	}
}

func TestDiluteModelSolveCarbon(t *testing.T) {
	m := DiluteModel{Params: DefaultParams()}
	res, err := m.SolveCarbon(1e-3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.PH < 4 || res.PH > 6 {
		t.Errorf("pH = %g, want between 4 and 6", res.PH)
	}
	for sp, g := range res.Gamma {
		if g != 1 {
			t.Errorf("γ(%s) = %g, want 1 in the ideal model", sp, g)
		}
	}
	if res.Molality[SpeciesCO2] <= 0 {
		t.Error("no un-ionized carbon in acidic carbonated water")
	}
}

func TestCrossCheckDilute(t *testing.T) {
	pitzerPH, dilutePH, err := CrossCheckDilute(DefaultParams(), 1e-3)
	if err != nil {
		t.Fatal(err)
	}
	// At 1 mmol/kg with no sodium the ionic strength is ~2e-5, so the
	// activity corrections are negligible and the two engines should agree
	// to well under 0.05 pH units.
	if math.Abs(pitzerPH-dilutePH) > 0.05 {
		t.Errorf("pitzer pH %g vs dilute pH %g", pitzerPH, dilutePH)
	}
	if pitzerPH < 4 || pitzerPH > 6 {
		t.Errorf("pitzer pH = %g, want between 4 and 6", pitzerPH)
	}
}
