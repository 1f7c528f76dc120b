// Package submission holds the AlphaFold 3 job description model: the ordered
// set of chemical entities a user builds in the portal form, their
// completeness rules, chain labelling, and rendering into the alphafold3 input
// document.  The package is pure: it performs no I/O and holds no global state.
package submission

import (
	"strconv"
	"strings"
)

// Kind identifies the chemical category of an entity.
type Kind string

const (
	KindProtein Kind = "protein"
	KindRNA     Kind = "rna"
	KindDNA     Kind = "dna"
	KindLigand  Kind = "ligand"
	KindIon     Kind = "ion"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{KindProtein, KindRNA, KindDNA, KindLigand, KindIon}

func (k Kind) String() string { return string(k) }

// IsValid reports whether k belongs to the closed kind set.
func (k Kind) IsValid() bool {
	switch k {
	case KindProtein, KindRNA, KindDNA, KindLigand, KindIon:
		return true
	}
	return false
}

// IsPolymer reports whether k is a sequence-bearing chain kind.
func (k Kind) IsPolymer() bool {
	return k == KindProtein || k == KindRNA || k == KindDNA
}

// ParseKind converts free-form input into a Kind.  Matching ignores case and
// surrounding whitespace.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", false
	}
	return k, true
}

// NormalizeCopies coerces a copy count to a positive integer.
func NormalizeCopies(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// ParseCopies reads a copy count typed into the form.  Empty, non-numeric and
// non-positive input yields 1.
func ParseCopies(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 1
	}
	return NormalizeCopies(n)
}
