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

// Package carbsim models the pH and speciation of concentrated
// NaOH/Na2CO3/NaHCO3 brines as they absorb CO2 in a closed or
// pressure-cycled reactor.
//
// The solution is simulated on a molality basis (mol per kg water) with a
// targeted Pitzer (HMW) ion-interaction activity model covering the
// Na+–(OH-, HCO3-, CO3-2) system, so that the spurious pH plateau produced
// by ideal-dilute models at high ionic strength does not appear. An
// independent ideal-dilute closed-carbonate solver is included as a
// low-ionic-strength cross-check.
package carbsim

// Version gives the version number.
const Version = "1.2.0"

// Species labels used by the Pitzer engine. The dilute cross-check solver
// in dilute.go uses its own labels ("CO3^2-", "H2CO3") on a molarity basis.
const (
	SpeciesNa   = "Na+"
	SpeciesH    = "H+"
	SpeciesOH   = "OH-"
	SpeciesHCO3 = "HCO3-"
	SpeciesCO3  = "CO3-2"
	SpeciesCO2  = "CO2"
)

// physical constants
const (
	// rLAtm is the gas constant in L·atm/(mol·K).
	rLAtm = 0.082057366080960

	// rJoule is the gas constant in J/(mol·K).
	rJoule = 8.31446261815324

	// Molar masses [grams per mole]
	MolarMassNaOH = 39.997
	MolarMassCO2  = 44.0095

	// atmPerPsi converts pounds per square inch to atmospheres.
	atmPerPsi = 1.0 / 14.6959

	pascalPerAtm = 101325.0
)

// speciesCharge holds the signed charge of every tracked aqueous species.
var speciesCharge = map[string]int{
	SpeciesNa:   1,
	SpeciesH:    1,
	SpeciesOH:   -1,
	SpeciesHCO3: -1,
	SpeciesCO3:  -2,
	SpeciesCO2:  0,
}

// MolarMass lists molar masses [g/mol] for reporting.
var MolarMass = map[string]float64{
	SpeciesNa:   22.989769,
	SpeciesH:    1.00784,
	SpeciesOH:   17.007,
	SpeciesHCO3: 61.01684,
	SpeciesCO3:  60.0089,
	SpeciesCO2:  MolarMassCO2,
}

// cations and anions are the charged species the activity model iterates
// over. CO2(aq) is neutral and contributes nothing to ionic strength.
var (
	cations = []string{SpeciesNa, SpeciesH}
	anions  = []string{SpeciesOH, SpeciesHCO3, SpeciesCO3}
)

// ions lists all charged species in a fixed order.
var ions = []string{SpeciesNa, SpeciesH, SpeciesOH, SpeciesHCO3, SpeciesCO3}

// Charge returns the signed charge of the given species label, or 0 for
// unknown or neutral species.
func Charge(species string) int { return speciesCharge[species] }

// PsigToAtm converts a gauge pressure in psig to an absolute pressure
// in atmospheres.
func PsigToAtm(psig float64) float64 {
	return (psig + 14.6959) * atmPerPsi
}
