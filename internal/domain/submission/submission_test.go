package submission

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/af3-portal/pkg/errors"
)

func marshalRecord(t *testing.T, r SequenceRecord) string {
	t.Helper()
	b, err := json.Marshal(r)
	require.NoError(t, err)
	return string(b)
}

func TestAddEntity_Variants(t *testing.T) {
	s := New("job1")

	p, ok := s.AddEntity(KindRNA, 2).(*Polymer)
	require.True(t, ok)
	assert.Equal(t, KindRNA, p.Kind())
	assert.Equal(t, 2, p.Copies())

	_, ok = s.AddEntity(KindLigand, 1).(*Ligand)
	assert.True(t, ok)

	ion, ok := s.AddEntity(KindIon, 0).(*Ion)
	require.True(t, ok)
	assert.Equal(t, 1, ion.Copies(), "non-positive copies coerced to 1")

	assert.Nil(t, s.AddEntity(Kind("peptide"), 1))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 4, s.ChainCount())
}

func TestAddPolymer_NonPolymerKindFallsBackToProtein(t *testing.T) {
	s := New("job1")
	p := s.AddPolymer(KindLigand, 1)
	assert.Equal(t, KindProtein, p.Kind())
}

func TestEntities_InsertionOrderAndCopy(t *testing.T) {
	s := New("job1")
	s.AddIon(1)
	s.AddPolymer(KindDNA, 1)
	s.AddLigand(1)

	got := s.Entities()
	require.Len(t, got, 3)
	assert.Equal(t, KindIon, got[0].Kind())
	assert.Equal(t, KindDNA, got[1].Kind())
	assert.Equal(t, KindLigand, got[2].Kind())

	got[0] = nil
	assert.NotNil(t, s.Entities()[0])
}

func TestSetCopies(t *testing.T) {
	s := New("job1")
	l := s.AddLigand(1)
	l.SetCopies(-3)
	assert.Equal(t, 1, l.Copies())
	l.SetCopies(4)
	assert.Equal(t, 4, l.Copies())
}

func TestValidate_EmptySubmissionReportsJobNameFirst(t *testing.T) {
	err := New("").Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingJobName))
	assert.Equal(t, "Job name is required.", errors.MessageOf(err))
}

func TestValidate_BlankJobName(t *testing.T) {
	s := New("   ")
	s.AddPolymer(KindProtein, 1).Sequence = "MATT"
	assert.True(t, errors.IsCode(s.Validate(), errors.ErrCodeMissingJobName))
}

func TestValidate_NoEntities(t *testing.T) {
	err := New("job1").Validate()
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoEntities))
}

func TestValidate_ProteinSequence(t *testing.T) {
	s := New("job1")
	p := s.AddPolymer(KindProtein, 1)

	err := s.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingSequence))
	assert.Equal(t, "Sequence required for protein.", errors.MessageOf(err))

	p.Sequence = "  \t"
	assert.Error(t, s.Validate())

	p.Sequence = "MATT"
	assert.NoError(t, s.Validate())
}

func TestValidate_SequenceMessageNamesKind(t *testing.T) {
	s := New("job1")
	s.AddPolymer(KindDNA, 1)
	assert.Equal(t, "Sequence required for dna.", errors.MessageOf(s.Validate()))
}

func TestValidate_LigandIdentity(t *testing.T) {
	s := New("job1")
	l := s.AddLigand(1)

	assert.True(t, errors.IsCode(s.Validate(), errors.ErrCodeMissingLigandIdentity))

	l.CCDCodes = []string{" ", ""}
	assert.True(t, errors.IsCode(s.Validate(), errors.ErrCodeMissingLigandIdentity))

	l.SMILES = "CCO"
	assert.NoError(t, s.Validate())

	l.SMILES = ""
	l.CCDCodes = []string{"ATP"}
	assert.NoError(t, s.Validate())
}

func TestValidate_IonName(t *testing.T) {
	s := New("job1")
	i := s.AddIon(1)
	assert.True(t, errors.IsCode(s.Validate(), errors.ErrCodeMissingIonName))
	i.Name = "MG"
	assert.NoError(t, s.Validate())
}

func TestValidate_FirstFailingEntityWins(t *testing.T) {
	s := New("job1")
	s.AddPolymer(KindProtein, 1).Sequence = "MATT"
	s.AddIon(1)
	s.AddLigand(1)

	err := s.Validate()
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingIonName))
	assert.True(t, errors.IsValidation(err))
}

func buildJob1() *Submission {
	s := New("job1")
	s.AddPolymer(KindProtein, 1).Sequence = "MATT"
	s.AddLigand(2).SMILES = "CCO"
	s.AddIon(1).Name = "NA"
	return s
}

func TestRender_EndToEnd(t *testing.T) {
	s := buildJob1()
	require.NoError(t, s.Validate())

	doc := s.ToDocument()
	require.Len(t, doc.Sequences, 3)
	assert.Equal(t, `{"protein":{"id":"A","sequence":"MATT"}}`, marshalRecord(t, doc.Sequences[0]))
	assert.Equal(t, `{"ligand":{"id":["B","C"],"smiles":"CCO"}}`, marshalRecord(t, doc.Sequences[1]))
	assert.Equal(t, `{"ligand":{"id":"D","ccdCodes":["NA"]}}`, marshalRecord(t, doc.Sequences[2]))
	assert.Equal(t, "job1", doc.Name)
	assert.Equal(t, "alphafold3", doc.Dialect)
	assert.Equal(t, 2, doc.Version)
	require.Len(t, doc.ModelSeeds, 1)
	assert.GreaterOrEqual(t, doc.ModelSeeds[0], MinModelSeed)
	assert.LessOrEqual(t, doc.ModelSeeds[0], MaxModelSeed)
}

func TestRender_TopLevelJSONShape(t *testing.T) {
	doc, _ := buildJob1().Render(0, 42)
	b, err := json.Marshal(doc)
	require.NoError(t, err)

	want := `{"name":"job1","modelSeeds":[42],` +
		`"sequences":[{"protein":{"id":"A","sequence":"MATT"}},` +
		`{"ligand":{"id":["B","C"],"smiles":"CCO"}},` +
		`{"ligand":{"id":"D","ccdCodes":["NA"]}}],` +
		`"dialect":"alphafold3","version":2}`
	assert.JSONEq(t, want, string(b))
}

func TestRender_CopiesAdvanceCounter(t *testing.T) {
	s := New("job1")
	s.AddPolymer(KindProtein, 3).Sequence = "MATT"
	s.AddPolymer(KindRNA, 1).Sequence = "ACGU"

	doc, next := s.Render(0, 1)
	assert.Equal(t, ChainID{"A", "B", "C"}, doc.Sequences[0].IDs())
	assert.Equal(t, ChainID{"D"}, doc.Sequences[1].IDs())
	assert.Equal(t, LabelCounter(4), next)
	assert.Equal(t, KindRNA, doc.Sequences[1].WireKind())
}

func TestRender_StartOffset(t *testing.T) {
	s := New("job1")
	s.AddLigand(2).CCDCodes = []string{"ATP"}

	doc, next := s.Render(25, 1)
	assert.Equal(t, ChainID{"Z", "AA"}, doc.Sequences[0].IDs())
	assert.Equal(t, LabelCounter(27), next)
}

func TestRender_Reproducible(t *testing.T) {
	s := buildJob1()
	first, _ := s.Render(0, 7)
	second, _ := s.Render(0, 7)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("renders differ (-first +second):\n%s", diff)
	}
}

func TestRender_ChainedRendersContinueLabels(t *testing.T) {
	s := buildJob1()
	_, c := s.Render(0, 7)
	doc, c := s.Render(c, 7)
	assert.Equal(t, ChainID{"E"}, doc.Sequences[0].IDs())
	assert.Equal(t, ChainID{"F", "G"}, doc.Sequences[1].IDs())
	assert.Equal(t, LabelCounter(8), c)
}

func TestRender_OmitsEmptyBondedAtomPairs(t *testing.T) {
	s := New("job1")
	s.AddPolymer(KindProtein, 1).Sequence = "MATT"
	l := s.AddLigand(1)
	l.SMILES = "CCO"
	l.BondedAtomPairs = []string{}
	ion := s.AddIon(1)
	ion.Name = "MG"
	ion.BondedAtomPairs = []string{"", "  "}

	doc, _ := s.Render(0, 1)
	for _, r := range doc.Sequences {
		assert.NotContains(t, marshalRecord(t, r), "bondedAtomPairs")
	}
}

func TestRender_EmitsBondedAtomPairs(t *testing.T) {
	s := New("job1")
	p := s.AddPolymer(KindProtein, 1)
	p.Sequence = "MATT"
	p.BondedAtomPairs = []string{"A:1:CA-B:1:C1"}

	doc, _ := s.Render(0, 1)
	assert.Equal(t,
		`{"protein":{"id":"A","sequence":"MATT","bondedAtomPairs":["A:1:CA-B:1:C1"]}}`,
		marshalRecord(t, doc.Sequences[0]))
}

func TestRender_LigandWithSMILESAndCCD(t *testing.T) {
	s := New("job1")
	l := s.AddLigand(1)
	l.SMILES = "CCO"
	l.CCDCodes = []string{"ATP", "", "MG"}

	doc, _ := s.Render(0, 1)
	assert.Equal(t, `{"ligand":{"id":"A","smiles":"CCO","ccdCodes":["ATP","MG"]}}`,
		marshalRecord(t, doc.Sequences[0]))
}

func TestRender_DoesNotValidate(t *testing.T) {
	s := New("")
	s.AddPolymer(KindDNA, 1)

	doc, _ := s.Render(0, 5)
	assert.Equal(t, "", doc.Name)
	assert.Equal(t, `{"dna":{"id":"A","sequence":""}}`, marshalRecord(t, doc.Sequences[0]))
}

func TestRender_EmptySubmissionHasEmptySequencesArray(t *testing.T) {
	doc, next := New("job1").Render(0, 1)
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"sequences":[]`)
	assert.Equal(t, LabelCounter(0), next)
}

func TestRandomSeed_InRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		seed := RandomSeed()
		if seed < MinModelSeed || seed > MaxModelSeed {
			t.Fatalf("seed %d out of range", seed)
		}
	}
}
