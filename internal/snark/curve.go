package snark

import (
	"fmt"
	"sort"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
)

const DefaultCurve = "bn254"

var curves = map[string]ecc.ID{
	"bn254":     ecc.BN254,
	"bls12-381": ecc.BLS12_381,
}

// ParseCurve resolves a curve name to its gnark identifier.
func ParseCurve(name string) (ecc.ID, error) {
	id, ok := curves[name]
	if !ok {
		return ecc.UNKNOWN, fmt.Errorf("invalid `curve`; expected one of: %v, given: %q", strings.Join(SupportedCurves(), ", "), name)
	}
	return id, nil
}

func SupportedCurves() []string {
	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
