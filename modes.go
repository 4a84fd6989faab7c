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
	"fmt"
	"math"

	"github.com/ctessum/unit"
)

// SystemConfig holds the per-run reactor settings. It is constructed once
// from user input and read-only thereafter.
type SystemConfig struct {
	WaterMilliliters float64 `toml:"water_ml"`
	NaOHGrams        float64 `toml:"naoh_g"`
	TemperatureC     float64 `toml:"temp_c"`
	HeadspaceLiters  float64 `toml:"headspace_l"`

	// Headspace pressure protocol: charge to HighPressurePsig, let the
	// system absorb, vent down by PressureDropPsi, repeat.
	HighPressurePsig float64 `toml:"p_high_psig"`
	PressureDropPsi  float64 `toml:"dp_psig"`

	// Henry constant for CO2 [mol/(kg water·atm)]. ~0.033–0.035 at 25 °C
	// in pure water; lower in very salty solutions (salting out), so it is
	// surfaced as a parameter rather than hardcoded.
	HenryMolalPerAtm float64 `toml:"kh_molal_per_atm"`
}

// DefaultSystemConfig returns the reference operating protocol: 700 g NaOH
// in 2.2 L water under a 10 L headspace cycled between 750 and 675 psig.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		WaterMilliliters: 2200,
		NaOHGrams:        700,
		TemperatureC:     25,
		HeadspaceLiters:  10,
		HighPressurePsig: 750,
		PressureDropPsi:  75,
		HenryMolalPerAtm: 0.034,
	}
}

// WaterKg approximates the solvent water mass from the configured volume
// (kg ≈ L for water).
func (c SystemConfig) WaterKg() float64 { return c.WaterMilliliters / 1000.0 }

// TemperatureK returns the absolute temperature.
func (c SystemConfig) TemperatureK() float64 { return c.TemperatureC + 273.15 }

// SodiumMolality returns the total sodium from the NaOH charge [mol/kg].
func (c SystemConfig) SodiumMolality() float64 {
	return (c.NaOHGrams / MolarMassNaOH) / c.WaterKg()
}

// HighPressureAtm returns the absolute charge pressure.
func (c SystemConfig) HighPressureAtm() float64 { return PsigToAtm(c.HighPressurePsig) }

// LowPressureAtm returns the absolute vent-down pressure.
func (c SystemConfig) LowPressureAtm() float64 {
	return PsigToAtm(c.HighPressurePsig - c.PressureDropPsi)
}

// joulePerKelvin is the dimension set of the molar gas constant. Amount of
// substance is not a base dimension in the unit package, so mole counts
// come out dimensionless.
var joulePerKelvin = unit.Dimensions{
	unit.MassDim:        1,
	unit.LengthDim:      2,
	unit.TimeDim:        -2,
	unit.TemperatureDim: -1,
}

// MolesPerCycle converts the per-cycle headspace pressure drop into the
// moles of CO2 transferred to the liquid, via the ideal gas law
// Δn = ΔP·V/(R·T). The arithmetic is dimension-checked.
func (c SystemConfig) MolesPerCycle() (float64, error) {
	dPAtm := c.HighPressureAtm() - c.LowPressureAtm()
	dP := unit.New(dPAtm*pascalPerAtm, unit.Pascal)
	vol := unit.New(c.HeadspaceLiters/1000.0, unit.Meter3)
	gasConst := unit.New(rJoule, joulePerKelvin)
	temp := unit.New(c.TemperatureK(), unit.Kelvin)

	dn := unit.Div(unit.Mul(dP, vol), unit.Mul(gasConst, temp))
	if err := dn.Check(unit.Dimless); err != nil {
		return 0, fmt.Errorf("carbsim: cycle transfer dimensions: %w", err)
	}
	return math.Max(0, dn.Value()), nil
}

// CyclesToReach returns the number of pressure cycles needed for the
// cumulative charged CO2 to reach the given mass.
func (c SystemConfig) CyclesToReach(targetGrams float64) (int, error) {
	dn, err := c.MolesPerCycle()
	if err != nil {
		return 0, err
	}
	if dn <= 0 {
		return 0, fmt.Errorf("carbsim: invalid cycle parameters (no CO2 charged per cycle)")
	}
	return int(math.Max(1, math.Ceil(targetGrams/MolarMassCO2/dn))), nil
}

// TrajectoryRow is one record of a simulation trajectory: the converged
// equilibrium snapshot after a CO2-addition step or pressure cycle.
type TrajectoryRow struct {
	Step  int // absorbed mode: 0-based step index
	Cycle int // cycles mode: 1-based cycle number

	CumulativeCO2Grams float64
	LowPressurePsig    float64 // cycles mode only
	TotalCarbon        float64 // running aqueous CT ledger [mol/kg]

	PH            float64
	Molality      map[string]float64
	IonicStrength float64

	// Solver diagnostics, surfaced rather than hidden.
	Converged  bool
	Iterations int
}

// SimulateAbsorbed steps cumulative CO2 mass from zero to totalGrams in
// stepGrams increments, treating all added CO2 as entering the aqueous
// carbon inventory, and solves the equilibrium at each step.
func (s *Solver) SimulateAbsorbed(cfg SystemConfig, totalGrams, stepGrams float64) ([]TrajectoryRow, error) {
	if stepGrams <= 0 {
		return nil, fmt.Errorf("carbsim: absorbed-mode step must be positive, got %g g", stepGrams)
	}
	waterKg := cfg.WaterKg()
	sodium := cfg.SodiumMolality()

	var rows []TrajectoryRow
	step := 0
	for g := 0.0; g <= totalGrams+1e-9; g += stepGrams {
		ct := (g / MolarMassCO2) / waterKg
		res, err := s.SolveTotalCarbon(ct, sodium)
		if err != nil {
			return nil, fmt.Errorf("carbsim: absorbed step %d (%.1f g CO2): %w", step, g, err)
		}
		rows = append(rows, TrajectoryRow{
			Step:               step,
			CumulativeCO2Grams: g,
			TotalCarbon:        ct,
			PH:                 res.PH,
			Molality:           res.Molality,
			IonicStrength:      res.IonicStrength,
			Converged:          res.Converged,
			Iterations:         res.Iterations,
		})
		step++
	}
	return rows, nil
}

// SimulateCycles runs the pressure-cycling protocol: each cycle transfers a
// fixed number of moles from headspace to liquid corresponding to the
// configured pressure drop and accumulates them into the reactive aqueous
// carbon ledger, subject to the solver's capacity policy. OH- is consumed
// to CO3-2 first, then CO3-2 converts to HCO3-; once the ledger saturates,
// additional charged CO2 mostly remains in the gas phase and the pH
// plateaus in the bicarbonate-buffered regime.
func (s *Solver) SimulateCycles(cfg SystemConfig, cycles int) ([]TrajectoryRow, error) {
	dn, err := cfg.MolesPerCycle()
	if err != nil {
		return nil, err
	}
	waterKg := cfg.WaterKg()
	sodium := cfg.SodiumMolality()
	lowPsig := cfg.HighPressurePsig - cfg.PressureDropPsi

	var rows []TrajectoryRow
	chargedMol := 0.0
	ct := 0.0
	for k := 1; k <= cycles; k++ {
		chargedMol += dn
		ct += dn / waterKg

		res, err := s.SolveTotalCarbon(ct, sodium)
		if err != nil {
			return nil, fmt.Errorf("carbsim: cycle %d: %w", k, err)
		}
		rows = append(rows, TrajectoryRow{
			Cycle:              k,
			CumulativeCO2Grams: chargedMol * MolarMassCO2,
			LowPressurePsig:    lowPsig,
			TotalCarbon:        ct,
			PH:                 res.PH,
			Molality:           res.Molality,
			IonicStrength:      res.IonicStrength,
			Converged:          res.Converged,
			Iterations:         res.Iterations,
		})
	}
	return rows, nil
}
