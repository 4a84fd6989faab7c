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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Default carbonate equilibrium constants at 25 °C, derived from the HMW
// reaction logKs in PHREEQC's pitzer.dat:
// CO3-2 + H+ = HCO3-, logK = 10.3393; CO3-2 + 2H+ = CO2 + H2O,
// logK = 16.6767, so Ka1(diss) = 10^-6.3374.
var (
	DefaultKa1 = math.Pow(10, -6.3374)
	DefaultKa2 = math.Pow(10, -10.3393)
	DefaultKw  = 1.0e-14
)

// ParseError is returned when a parameter database is structurally invalid,
// for example when a required marker section is absent.
type ParseError struct {
	Section string
	Msg     string
}

func (e *ParseError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("carbsim: parsing parameter database: %s", e.Msg)
	}
	return fmt.Sprintf("carbsim: parsing parameter database section %s: %s", e.Section, e.Msg)
}

// MissingParameterError is returned when a coefficient that the activity
// model requires is not present in the database. Required coefficients are
// never silently defaulted; only Cφ falls back to zero.
type MissingParameterError struct {
	Kind    string // "B0", "B1", "THETA", or "PSI"
	Species []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("carbsim: missing %s coefficient for (%s)",
		e.Kind, strings.Join(e.Species, ", "))
}

// pairKey is a canonically ordered species pair, so lookups do not depend
// on argument order.
type pairKey [2]string

func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// tripleKey is a canonically ordered species triple.
type tripleKey [3]string

func newTripleKey(a, b, c string) tripleKey {
	s := []string{a, b, c}
	sort.Strings(s)
	return tripleKey{s[0], s[1], s[2]}
}

// BinaryCoeffs holds the Pitzer binary interaction coefficients for one
// cation–anion pair.
type BinaryCoeffs struct {
	Beta0, Beta1, CPhi float64
}

// ParamSet holds the ion-interaction coefficients and equilibrium constants
// for the Na–(OH, HCO3, CO3) system. It is immutable after construction.
type ParamSet struct {
	beta0 map[pairKey]float64
	beta1 map[pairKey]float64
	cphi  map[pairKey]float64
	theta map[pairKey]float64
	psi   map[tripleKey]float64

	// Equilibrium constants: first and second carbonate dissociation and
	// water autoionization.
	Ka1, Ka2, Kw float64
}

// The coefficients the activity model cannot run without. H+ pairs carry no
// tabulated HMW coefficients and are skipped by the model, so they are not
// required here.
var (
	requiredBinaryPairs = [][2]string{
		{SpeciesNa, SpeciesOH},
		{SpeciesNa, SpeciesHCO3},
		{SpeciesNa, SpeciesCO3},
	}
	requiredThetaPairs = [][2]string{
		{SpeciesCO3, SpeciesOH},
	}
	requiredPsiTriples = [][3]string{
		{SpeciesCO3, SpeciesNa, SpeciesOH},
		{SpeciesCO3, SpeciesHCO3, SpeciesNa},
	}
)

// DefaultParams returns a ParamSet populated with the built-in HMW
// coefficients at 25 °C, for use when no parameter database file is given.
func DefaultParams() *ParamSet {
	p := &ParamSet{
		beta0: map[pairKey]float64{
			newPairKey(SpeciesNa, SpeciesOH):   0.0864,
			newPairKey(SpeciesNa, SpeciesHCO3): 0.0277,
			newPairKey(SpeciesNa, SpeciesCO3):  0.0399,
		},
		beta1: map[pairKey]float64{
			newPairKey(SpeciesNa, SpeciesOH):   0.253,
			newPairKey(SpeciesNa, SpeciesHCO3): 0.0411,
			newPairKey(SpeciesNa, SpeciesCO3):  1.389,
		},
		cphi: map[pairKey]float64{
			newPairKey(SpeciesNa, SpeciesOH):  0.0044,
			newPairKey(SpeciesNa, SpeciesCO3): 0.0044,
		},
		theta: map[pairKey]float64{
			newPairKey(SpeciesCO3, SpeciesOH): 0.1,
		},
		psi: map[tripleKey]float64{
			newTripleKey(SpeciesCO3, SpeciesNa, SpeciesOH):   -0.017,
			newTripleKey(SpeciesCO3, SpeciesHCO3, SpeciesNa): 0.002,
		},
		Ka1: DefaultKa1,
		Ka2: DefaultKa2,
		Kw:  DefaultKw,
	}
	return p
}

// LoadParams reads a PHREEQC-style Pitzer parameter database from the given
// file. See ReadParams.
func LoadParams(filename string) (*ParamSet, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("carbsim: opening parameter database: %w", err)
	}
	defer f.Close()
	return ReadParams(f)
}

// ReadParams parses a PHREEQC-style Pitzer parameter database (pitzer.dat).
// The PITZER section must contain -B0, -B1, -C0, -THETA and -PSI marker
// blocks. Only the first numeric token of each data row is used; trailing
// annotation tokens are ignored. Construction fails with
// MissingParameterError if any coefficient required by the activity model
// is absent.
func ReadParams(r io.Reader) (*ParamSet, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("carbsim: reading parameter database: %w", err)
	}

	start := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == "PITZER" {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, &ParseError{Section: "PITZER", Msg: "section not found"}
	}

	// Marker lines begin with '-' and introduce coefficient sub-blocks.
	markers := make(map[string]int)
	for i := start; i < len(lines); i++ {
		s := strings.TrimSpace(lines[i])
		if strings.HasPrefix(s, "-") {
			if _, ok := markers[s]; !ok {
				markers[s] = i
			}
		}
	}
	for _, req := range []string{"-B0", "-B1", "-C0", "-THETA", "-PSI"} {
		if _, ok := markers[req]; !ok {
			return nil, &ParseError{Section: req, Msg: "required marker not found"}
		}
	}

	blockEnd := func(names ...string) int {
		for _, n := range names {
			if i, ok := markers[n]; ok {
				return i
			}
		}
		return len(lines)
	}
	psiEnd := len(lines)
	for i := markers["-PSI"] + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "GAS_BINARY_PARAMETERS") {
			psiEnd = i
			break
		}
	}

	p := &ParamSet{
		beta0: make(map[pairKey]float64),
		beta1: make(map[pairKey]float64),
		cphi:  make(map[pairKey]float64),
		theta: make(map[pairKey]float64),
		psi:   make(map[tripleKey]float64),
		Ka1:   DefaultKa1,
		Ka2:   DefaultKa2,
		Kw:    DefaultKw,
	}

	parsePairBlock := func(dst map[pairKey]float64, from, to int) {
		for _, row := range dataRows(lines, from, to) {
			if len(row) < 3 {
				continue
			}
			nums := parseNumericFields(row[2:])
			if len(nums) == 0 {
				continue
			}
			k := newPairKey(row[0], row[1])
			if _, ok := dst[k]; !ok {
				dst[k] = nums[0]
			}
		}
	}

	parsePairBlock(p.beta0, markers["-B0"]+1, blockEnd("-B1"))
	parsePairBlock(p.beta1, markers["-B1"]+1, blockEnd("-B2", "-C0"))
	parsePairBlock(p.cphi, markers["-C0"]+1, blockEnd("-THETA"))
	parsePairBlock(p.theta, markers["-THETA"]+1, blockEnd("-LAMBDA", "-PSI"))

	for _, row := range dataRows(lines, markers["-PSI"]+1, psiEnd) {
		if len(row) < 4 {
			continue
		}
		nums := parseNumericFields(row[3:])
		if len(nums) == 0 {
			continue
		}
		k := newTripleKey(row[0], row[1], row[2])
		if _, ok := p.psi[k]; !ok {
			p.psi[k] = nums[0]
		}
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// dataRows returns the whitespace-split fields of each non-empty,
// non-comment, non-marker line in lines[from:to].
func dataRows(lines []string, from, to int) [][]string {
	if from < 0 {
		from = 0
	}
	if to > len(lines) {
		to = len(lines)
	}
	var rows [][]string
	for _, l := range lines[from:to] {
		s := strings.TrimSpace(l)
		if s == "" || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "-") {
			continue
		}
		rows = append(rows, strings.Fields(l))
	}
	return rows
}

// parseNumericFields converts tokens to floats, stopping at the first token
// that does not parse. Scientific notation with either exponent case is
// accepted, so rows may carry trailing annotation tokens.
func parseNumericFields(tokens []string) []float64 {
	var out []float64
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			break
		}
		out = append(out, v)
	}
	return out
}

// validate fails fast when a required coefficient is absent.
func (p *ParamSet) validate() error {
	for _, pair := range requiredBinaryPairs {
		k := newPairKey(pair[0], pair[1])
		if _, ok := p.beta0[k]; !ok {
			return &MissingParameterError{Kind: "B0", Species: pair[:]}
		}
		if _, ok := p.beta1[k]; !ok {
			return &MissingParameterError{Kind: "B1", Species: pair[:]}
		}
	}
	for _, pair := range requiredThetaPairs {
		if _, ok := p.theta[newPairKey(pair[0], pair[1])]; !ok {
			return &MissingParameterError{Kind: "THETA", Species: pair[:]}
		}
	}
	for _, tr := range requiredPsiTriples {
		if _, ok := p.psi[newTripleKey(tr[0], tr[1], tr[2])]; !ok {
			return &MissingParameterError{Kind: "PSI", Species: tr[:]}
		}
	}
	return nil
}

// Binary returns the binary interaction coefficients for a cation–anion
// pair. Lookup is symmetric in its arguments. Cφ defaults to zero when not
// tabulated; a missing β0 or β1 is an error.
func (p *ParamSet) Binary(cation, anion string) (BinaryCoeffs, error) {
	k := newPairKey(cation, anion)
	b0, ok0 := p.beta0[k]
	if !ok0 {
		return BinaryCoeffs{}, &MissingParameterError{Kind: "B0", Species: []string{cation, anion}}
	}
	b1, ok1 := p.beta1[k]
	if !ok1 {
		return BinaryCoeffs{}, &MissingParameterError{Kind: "B1", Species: []string{cation, anion}}
	}
	return BinaryCoeffs{Beta0: b0, Beta1: b1, CPhi: p.cphi[k]}, nil
}

// binary is the non-failing lookup used inside the activity model: pairs
// with no tabulated coefficients (the H+ pairs) are simply skipped.
func (p *ParamSet) binary(cation, anion string) (BinaryCoeffs, bool) {
	k := newPairKey(cation, anion)
	b0, ok0 := p.beta0[k]
	b1, ok1 := p.beta1[k]
	if !ok0 || !ok1 {
		return BinaryCoeffs{}, false
	}
	return BinaryCoeffs{Beta0: b0, Beta1: b1, CPhi: p.cphi[k]}, true
}

// Theta returns the anion–anion mixing coefficient Θ. Lookup is symmetric.
func (p *ParamSet) Theta(anionA, anionB string) (float64, error) {
	v, ok := p.theta[newPairKey(anionA, anionB)]
	if !ok {
		return 0, &MissingParameterError{Kind: "THETA", Species: []string{anionA, anionB}}
	}
	return v, nil
}

// Psi returns the ternary mixing coefficient Ψ for an anion–anion–cation
// triple. Lookup does not depend on argument order.
func (p *ParamSet) Psi(anionA, anionB, cation string) (float64, error) {
	v, ok := p.psi[newTripleKey(anionA, anionB, cation)]
	if !ok {
		return 0, &MissingParameterError{Kind: "PSI", Species: []string{anionA, anionB, cation}}
	}
	return v, nil
}
