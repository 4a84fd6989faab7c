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
	"errors"
	"math"
	"strings"
	"testing"
)

const testDatabase = `SOLUTION_MASTER_SPECIES
Na Na+ 0 Na 22.9898

PITZER
-B0
  Na+ OH-   0.0864
  Na+ OH-   9.9
  Na+ HCO3- 0.0277 # Peiper and Pitzer 1982
  Na+ CO3-2 0.0399 1.0e-3 annotation
-B1
  Na+ OH-   0.253
  Na+ HCO3- 0.0411
  Na+ CO3-2 1.389
-C0
  Na+ OH-   0.0044
  Na+ CO3-2 0.0044
-THETA
  CO3-2 OH- 0.1
-PSI
  CO3-2 OH-   Na+ -0.017
  CO3-2 HCO3- Na+ 2.0E-3
GAS_BINARY_PARAMETERS
CO2 H2O 0.5
`

func TestReadParams(t *testing.T) {
	p, err := ReadParams(strings.NewReader(testDatabase))
	if err != nil {
		t.Fatal(err)
	}

	b, err := p.Binary(SpeciesNa, SpeciesOH)
	if err != nil {
		t.Fatal(err)
	}
	// The duplicate Na+/OH- row must not override the first entry.
	if b.Beta0 != 0.0864 || b.Beta1 != 0.253 || b.CPhi != 0.0044 {
		t.Errorf("Na-OH coefficients = %+v", b)
	}

	// Lookup must be symmetric in the argument order.
	b2, err := p.Binary(SpeciesOH, SpeciesNa)
	if err != nil {
		t.Fatal(err)
	}
	if b != b2 {
		t.Errorf("asymmetric binary lookup: %+v != %+v", b, b2)
	}

	// Cφ is optional and defaults to zero.
	b, err = p.Binary(SpeciesNa, SpeciesHCO3)
	if err != nil {
		t.Fatal(err)
	}
	if b.CPhi != 0 {
		t.Errorf("Na-HCO3 Cφ = %g, want 0", b.CPhi)
	}

	// Only the first numeric token of a row counts; annotations are ignored.
	b, err = p.Binary(SpeciesNa, SpeciesCO3)
	if err != nil {
		t.Fatal(err)
	}
	if b.Beta0 != 0.0399 {
		t.Errorf("Na-CO3 β0 = %g, want 0.0399", b.Beta0)
	}

	th, err := p.Theta(SpeciesOH, SpeciesCO3)
	if err != nil {
		t.Fatal(err)
	}
	if th != 0.1 {
		t.Errorf("Θ(CO3,OH) = %g, want 0.1", th)
	}

	// Upper-case exponents parse, and Ψ lookup is order-independent.
	psi, err := p.Psi(SpeciesHCO3, SpeciesCO3, SpeciesNa)
	if err != nil {
		t.Fatal(err)
	}
	if psi != 2.0e-3 {
		t.Errorf("Ψ(CO3,HCO3,Na) = %g, want 0.002", psi)
	}
	psi2, err := p.Psi(SpeciesCO3, SpeciesHCO3, SpeciesNa)
	if err != nil {
		t.Fatal(err)
	}
	if psi != psi2 {
		t.Errorf("order-dependent Ψ lookup: %g != %g", psi, psi2)
	}
}

func TestReadParamsMissingSection(t *testing.T) {
	_, err := ReadParams(strings.NewReader("SOLUTION_MASTER_SPECIES\nNa Na+ 0 Na 23\n"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
	if pe.Section != "PITZER" {
		t.Errorf("section = %q, want PITZER", pe.Section)
	}
}

func TestReadParamsMissingMarker(t *testing.T) {
	db := strings.Replace(testDatabase, "-PSI", "-OMITTED", 1)
	_, err := ReadParams(strings.NewReader(db))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
}

func TestReadParamsMissingCoefficient(t *testing.T) {
	db := strings.Replace(testDatabase, "Na+ CO3-2 0.0399 1.0e-3 annotation", "", 1)
	_, err := ReadParams(strings.NewReader(db))
	var me *MissingParameterError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want MissingParameterError", err)
	}
	if me.Kind != "B0" {
		t.Errorf("kind = %q, want B0", me.Kind)
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	for _, pair := range requiredBinaryPairs {
		if _, err := p.Binary(pair[0], pair[1]); err != nil {
			t.Errorf("default params missing %v: %v", pair, err)
		}
	}
	if _, err := p.Binary(SpeciesH, SpeciesOH); err == nil {
		t.Error("expected no tabulated coefficients for the H-OH pair")
	}
	if got := -math.Log10(p.Ka1); math.Abs(got-6.3374) > 1e-12 {
		t.Errorf("pKa1 = %g, want 6.3374", got)
	}
	if got := -math.Log10(p.Ka2); math.Abs(got-10.3393) > 1e-12 {
		t.Errorf("pKa2 = %g, want 10.3393", got)
	}
	if p.Kw != 1e-14 {
		t.Errorf("Kw = %g, want 1e-14", p.Kw)
	}
}
