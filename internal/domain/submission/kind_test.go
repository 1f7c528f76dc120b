package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"protein", KindProtein, true},
		{" RNA ", KindRNA, true},
		{"Dna", KindDNA, true},
		{"ligand", KindLigand, true},
		{"ion", KindIon, true},
		{"", "", false},
		{"peptide", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestKind_IsPolymer(t *testing.T) {
	assert.True(t, KindProtein.IsPolymer())
	assert.True(t, KindRNA.IsPolymer())
	assert.True(t, KindDNA.IsPolymer())
	assert.False(t, KindLigand.IsPolymer())
	assert.False(t, KindIon.IsPolymer())
	assert.Len(t, Kinds, 5)
}

func TestParseCopies(t *testing.T) {
	tests := map[string]int{
		"":    1,
		"1":   1,
		"3":   3,
		" 2 ": 2,
		"0":   1,
		"-4":  1,
		"abc": 1,
		"2.5": 1,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseCopies(in), "ParseCopies(%q)", in)
	}
}

func TestNormalizeCopies(t *testing.T) {
	assert.Equal(t, 1, NormalizeCopies(0))
	assert.Equal(t, 1, NormalizeCopies(-1))
	assert.Equal(t, 7, NormalizeCopies(7))
}
