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

	"gonum.org/v1/gonum/mat"
)

// Thermodynamic equilibrium constants at 25 °C for the ideal-dilute
// closed-carbonate solver, which works in mol/L with activity =
// concentration. It cross-checks the Pitzer engine's low-ionic-strength
// limit and doubles as a fast fallback.
const (
	DiluteKa1 = 4.45e-7
	DiluteKa2 = 4.69e-11
	DiluteKw  = 1.0e-14
)

// Solving-path provenance labels reported by SolveDilute.
const (
	SolverBracketBound = "bracket-bound"
	SolverBisection    = "bisection-charge-balance"
	SolverQuartic      = "quartic-fallback"
)

// Dilute-model species labels (molarity basis).
const (
	DiluteSpeciesH     = "H+"
	DiluteSpeciesH2CO3 = "H2CO3"
	DiluteSpeciesHCO3  = "HCO3-"
	DiluteSpeciesCO3   = "CO3^2-"
	DiluteSpeciesOH    = "OH-"
)

var diluteCharge = map[string]int{
	DiluteSpeciesH:    1,
	DiluteSpeciesHCO3: -1,
	DiluteSpeciesCO3:  -2,
	DiluteSpeciesOH:   -1,
}

// DiluteInputs configures a closed ideal-dilute carbonate solve.
type DiluteInputs struct {
	TotalCarbon  float64 // dissolved inorganic carbon CT [mol/L]
	Ka1, Ka2, Kw float64 // zero values use the 25 °C defaults

	// Bracket is the pH search interval; the zero value uses [2, 12.5].
	Bracket [2]float64
}

func (in DiluteInputs) normalized() DiluteInputs {
	if in.Ka1 == 0 {
		in.Ka1 = DiluteKa1
	}
	if in.Ka2 == 0 {
		in.Ka2 = DiluteKa2
	}
	if in.Kw == 0 {
		in.Kw = DiluteKw
	}
	if in.Bracket == [2]float64{} {
		in.Bracket = [2]float64{2.0, 12.5}
	}
	in.TotalCarbon = math.Max(in.TotalCarbon, 0)
	return in
}

// DiluteResult holds the speciation of a closed ideal-dilute carbonate
// system.
type DiluteResult struct {
	PH      float64
	H, OH   float64
	Species map[string]float64
	// Alpha holds the carbonate ionization fractions a0 (H2CO3),
	// a1 (HCO3-), a2 (CO3^2-).
	Alpha                 map[string]float64
	IonicStrength         float64
	ChargeBalanceResidual float64

	// Solver names the path that produced PH: SolverBracketBound,
	// SolverBisection, or SolverQuartic. It is a diagnostic, not an error.
	Solver string

	// QuarticPH is the independently derived quartic-root pH, or NaN when
	// no physically plausible real root exists.
	QuarticPH float64
}

// alphaFractions returns the carbonate ionization fractions at the given
// H+ concentration. The denominator is guarded so CT = 0 and extreme pH do
// not divide by zero.
func alphaFractions(h, ka1, ka2 float64) (a0, a1, a2 float64) {
	denom := h*h + ka1*h + ka1*ka2
	if denom <= 0 {
		denom = 1e-30
	}
	return h * h / denom, ka1 * h / denom, ka1 * ka2 / denom
}

// diluteSpecies computes the full species map at a given pH.
func diluteSpecies(ct, ph, ka1, ka2, kw float64) (species map[string]float64, a0, a1, a2, h, oh float64) {
	h = math.Pow(10, -ph)
	a0, a1, a2 = alphaFractions(h, ka1, ka2)
	oh = kw / math.Max(h, 1e-30)
	species = map[string]float64{
		DiluteSpeciesH:     h,
		DiluteSpeciesH2CO3: ct * a0,
		DiluteSpeciesHCO3:  ct * a1,
		DiluteSpeciesCO3:   ct * a2,
		DiluteSpeciesOH:    oh,
	}
	return species, a0, a1, a2, h, oh
}

// diluteChargeBalance is the residual [H+] − [HCO3-] − 2[CO3^2-] − [OH-].
func diluteChargeBalance(ct, h, ka1, ka2, kw float64) float64 {
	if h <= 0 {
		return math.Inf(1)
	}
	_, a1, a2 := alphaFractions(h, ka1, ka2)
	return h - ct*a1 - 2.0*ct*a2 - kw/h
}

// quarticCoefficients returns the monic quartic in [H+] equivalent to the
// charge/mass balance:
// x⁴ + K1·x³ + (K1K2 − Kw − CT·K1)·x² − K1(Kw + 2CT·K2)·x − Kw·K1K2 = 0.
func quarticCoefficients(ct, ka1, ka2, kw float64) [5]float64 {
	return [5]float64{
		1.0,
		ka1,
		ka1*ka2 - kw - ct*ka1,
		-ka1 * (kw + 2.0*ct*ka2),
		-kw * ka1 * ka2,
	}
}

// solveQuarticRoot finds the physically plausible real root (0 < h < 1) of
// the charge-balance quartic via the eigenvalues of its companion matrix,
// picking the root that minimizes the charge-balance residual magnitude.
func solveQuarticRoot(ct, ka1, ka2, kw float64) (float64, bool) {
	const imagTol = 1e-14
	c := quarticCoefficients(ct, ka1, ka2, kw)

	companion := mat.NewDense(4, 4, nil)
	companion.Set(0, 3, -c[4])
	companion.Set(1, 3, -c[3])
	companion.Set(2, 3, -c[2])
	companion.Set(3, 3, -c[1])
	companion.Set(1, 0, 1)
	companion.Set(2, 1, 1)
	companion.Set(3, 2, 1)

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return 0, false
	}

	best := math.NaN()
	bestResid := math.Inf(1)
	for _, r := range eig.Values(nil) {
		if math.Abs(imag(r)) >= imagTol {
			continue
		}
		h := real(r)
		if h <= 1e-16 || h >= 1.0 {
			continue
		}
		resid := math.Abs(diluteChargeBalance(ct, h, ka1, ka2, kw))
		if resid < bestResid {
			best, bestResid = h, resid
		}
	}
	if math.IsNaN(best) {
		return 0, false
	}
	return best, true
}

// SolveDilute solves the closed ideal-dilute carbonate system: pH from the
// charge balance by bisection within the configured bracket, with the
// equivalent quartic in [H+] evaluated as an independent cross-check. When
// the bracket fails to bound a root it falls back to the quartic root
// exclusively; the Solver field of the result records which path was used.
func SolveDilute(inputs DiluteInputs) (*DiluteResult, error) {
	in := inputs.normalized()
	ct, ka1, ka2, kw := in.TotalCarbon, in.Ka1, in.Ka2, in.Kw

	cb := func(ph float64) float64 {
		return diluteChargeBalance(ct, math.Pow(10, -ph), ka1, ka2, kw)
	}

	lowPH, highPH := in.Bracket[0], in.Bracket[1]
	fLow, fHigh := cb(lowPH), cb(highPH)

	var phRoot float64
	var solverUsed string
	switch {
	case fLow == 0:
		phRoot, solverUsed = lowPH, SolverBracketBound
	case fHigh == 0:
		phRoot, solverUsed = highPH, SolverBracketBound
	case fLow*fHigh > 0:
		// Bracket failure should be rare; the quartic is the only
		// remaining path.
		h, ok := solveQuarticRoot(ct, ka1, ka2, kw)
		if !ok {
			return nil, fmt.Errorf("carbsim: unable to bracket the closed-system pH root in [%g, %g]", lowPH, highPH)
		}
		phRoot, solverUsed = -math.Log10(h), SolverQuartic
	default:
		lo, hi := lowPH, highPH
		solverUsed = SolverBisection
		phRoot = 0.5 * (lo + hi)
		for i := 0; i < 200; i++ {
			mid := 0.5 * (lo + hi)
			fMid := cb(mid)
			if math.Abs(fMid) < 1e-14 || math.Abs(hi-lo) < 1e-6 {
				phRoot = mid
				break
			}
			if fLow*fMid <= 0 {
				hi = mid
			} else {
				lo = mid
				fLow = fMid
			}
			phRoot = 0.5 * (lo + hi)
		}
	}

	quarticPH := math.NaN()
	if h, ok := solveQuarticRoot(ct, ka1, ka2, kw); ok {
		quarticPH = -math.Log10(h)
	}

	species, a0, a1, a2, h, oh := diluteSpecies(ct, phRoot, ka1, ka2, kw)
	ionic := 0.0
	for label, conc := range species {
		z := float64(diluteCharge[label])
		ionic += 0.5 * conc * z * z
	}

	return &DiluteResult{
		PH:                    phRoot,
		H:                     h,
		OH:                    oh,
		Species:               species,
		Alpha:                 map[string]float64{"a0": a0, "a1": a1, "a2": a2},
		IonicStrength:         ionic,
		ChargeBalanceResidual: diluteChargeBalance(ct, h, ka1, ka2, kw),
		Solver:                solverUsed,
		QuarticPH:             quarticPH,
	}, nil
}

// DiluteSweepRow is one point of a pH sweep of the dilute model.
type DiluteSweepRow struct {
	PH      float64
	Species map[string]float64
	Alpha   map[string]float64
}

// SweepDilutePH evaluates the dilute speciation across a pH range,
// producing the data behind a closed-system speciation diagram.
func SweepDilutePH(inputs DiluteInputs, lowPH, highPH float64, steps int) []DiluteSweepRow {
	in := inputs.normalized()
	if steps < 2 {
		steps = 2
	}
	rows := make([]DiluteSweepRow, steps)
	for i := 0; i < steps; i++ {
		ph := lowPH + (highPH-lowPH)*float64(i)/float64(steps-1)
		species, a0, a1, a2, _, _ := diluteSpecies(in.TotalCarbon, ph, in.Ka1, in.Ka2, in.Kw)
		rows[i] = DiluteSweepRow{
			PH:      ph,
			Species: species,
			Alpha:   map[string]float64{"a0": a0, "a1": a1, "a2": a2},
		}
	}
	return rows
}
