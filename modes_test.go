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

func TestPsigToAtm(t *testing.T) {
	if got := PsigToAtm(0); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("PsigToAtm(0) = %g, want 1", got)
	}
	if got := PsigToAtm(750); math.Abs(got-52.0346) > 1e-3 {
		t.Errorf("PsigToAtm(750) = %g, want about 52.03", got)
	}
}

func TestSystemConfigDerived(t *testing.T) {
	cfg := DefaultSystemConfig()
	if got := cfg.WaterKg(); math.Abs(got-2.2) > 1e-12 {
		t.Errorf("water mass = %g kg, want 2.2", got)
	}
	if got := cfg.TemperatureK(); math.Abs(got-298.15) > 1e-12 {
		t.Errorf("temperature = %g K, want 298.15", got)
	}
	// 700 g / 39.997 g/mol / 2.2 kg.
	if got := cfg.SodiumMolality(); math.Abs(got-7.9551) > 1e-3 {
		t.Errorf("sodium molality = %g, want 7.955", got)
	}
	if cfg.LowPressureAtm() >= cfg.HighPressureAtm() {
		t.Error("vent-down pressure not below charge pressure")
	}
}

func TestMolesPerCycle(t *testing.T) {
	cfg := DefaultSystemConfig()
	dn, err := cfg.MolesPerCycle()
	if err != nil {
		t.Fatal(err)
	}
	// 75 psi over 10 L at 298.15 K: ΔP·V/(R·T) ≈ 2.086 mol.
	if math.Abs(dn-2.086) > 2e-3 {
		t.Errorf("moles per cycle = %g, want about 2.086", dn)
	}
}

func TestCyclesToReach(t *testing.T) {
	cfg := DefaultSystemConfig()
	n, err := cfg.CyclesToReach(900)
	if err != nil {
		t.Fatal(err)
	}
	// 900 g / 44.0095 g/mol / 2.086 mol per cycle rounds up to 10.
	if n != 10 {
		t.Errorf("cycles to reach 900 g = %d, want 10", n)
	}
}

func TestSimulateAbsorbed(t *testing.T) {
	cfg := DefaultSystemConfig()
	s := NewSolver(DefaultParams())
	rows, err := s.SimulateAbsorbed(cfg, 385, 35)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 12 {
		t.Fatalf("got %d rows, want 12", len(rows))
	}
	for i, row := range rows {
		if row.Step != i {
			t.Errorf("row %d has step %d", i, row.Step)
		}
		if i > 0 && row.PH >= rows[i-1].PH {
			t.Errorf("pH not decreasing at step %d: %g -> %g", i, rows[i-1].PH, row.PH)
		}
	}
	first, last := rows[0], rows[len(rows)-1]
	if first.PH <= 14 {
		t.Errorf("initial pH = %g, want > 14 for the uncarbonated charge", first.PH)
	}
	if last.CumulativeCO2Grams != 385 {
		t.Errorf("final mass = %g g, want 385", last.CumulativeCO2Grams)
	}
	// 385 g CO2 nearly exhausts the hydroxide; the pH has fallen hard but
	// has not yet reached the bicarbonate plateau.
	if last.PH < 10 || last.PH > 13 {
		t.Errorf("final pH = %g, want between 10 and 13", last.PH)
	}
}

func TestSimulateAbsorbedBadStep(t *testing.T) {
	s := NewSolver(DefaultParams())
	if _, err := s.SimulateAbsorbed(DefaultSystemConfig(), 100, 0); err == nil {
		t.Error("expected an error for a zero step size")
	}
}

func TestSimulateCycles(t *testing.T) {
	cfg := DefaultSystemConfig()
	s := NewSolver(DefaultParams())
	rows, err := s.SimulateCycles(cfg, 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 30 {
		t.Fatalf("got %d rows, want 30", len(rows))
	}
	for i, row := range rows {
		if row.Cycle != i+1 {
			t.Errorf("row %d has cycle %d", i, row.Cycle)
		}
		if i > 0 && row.CumulativeCO2Grams <= rows[i-1].CumulativeCO2Grams {
			t.Errorf("charged mass not increasing at cycle %d", row.Cycle)
		}
		if row.LowPressurePsig != 675 {
			t.Errorf("vent pressure = %g psig, want 675", row.LowPressurePsig)
		}
	}

	// 30 cycles charge well past the ~900 g uptake capacity, so the tail
	// must sit on the bicarbonate plateau rather than trending acidic.
	last := rows[len(rows)-1]
	if last.CumulativeCO2Grams < 900 {
		t.Fatalf("only %g g charged over 30 cycles", last.CumulativeCO2Grams)
	}
	for _, row := range rows[20:] {
		if row.PH < 7.7 || row.PH > 8.7 {
			t.Errorf("cycle %d pH = %g, want plateau within [7.7, 8.7]", row.Cycle, row.PH)
		}
	}
	spread := rows[20].PH - last.PH
	if math.Abs(spread) > 0.1 {
		t.Errorf("plateau drifts by %g pH units over the last 10 cycles", spread)
	}
}
