package submission

import (
	"math/rand/v2"
)

// Model seed bounds for ToDocument.
const (
	MinModelSeed = 1
	MaxModelSeed = 100
)

// Submission is a job description under construction.  It is not safe for
// concurrent use; build and render one per request.
type Submission struct {
	JobName  string
	entities []Entity
}

// New returns an empty submission for the given job name.
func New(jobName string) *Submission {
	return &Submission{JobName: jobName}
}

// AddEntity appends an empty entity of the variant matching kind and returns
// it for population.  A kind outside the closed set appends nothing and
// returns nil.
func (s *Submission) AddEntity(kind Kind, copies int) Entity {
	switch {
	case kind.IsPolymer():
		return s.AddPolymer(kind, copies)
	case kind == KindLigand:
		return s.AddLigand(copies)
	case kind == KindIon:
		return s.AddIon(copies)
	}
	return nil
}

// AddPolymer appends a protein, RNA or DNA chain.  Non-polymer kinds fall back
// to protein.
func (s *Submission) AddPolymer(kind Kind, copies int) *Polymer {
	if !kind.IsPolymer() {
		kind = KindProtein
	}
	p := &Polymer{base: newBase(copies), kind: kind}
	s.entities = append(s.entities, p)
	return p
}

// AddLigand appends a ligand.
func (s *Submission) AddLigand(copies int) *Ligand {
	l := &Ligand{base: newBase(copies)}
	s.entities = append(s.entities, l)
	return l
}

// AddIon appends an ion.
func (s *Submission) AddIon(copies int) *Ion {
	i := &Ion{base: newBase(copies)}
	s.entities = append(s.entities, i)
	return i
}

// Entities returns the entities in insertion order.  The slice is a copy; the
// entities themselves are shared.
func (s *Submission) Entities() []Entity {
	out := make([]Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Len returns the number of entities.
func (s *Submission) Len() int { return len(s.entities) }

// ChainCount returns the total number of chain labels a render consumes.
func (s *Submission) ChainCount() int {
	n := 0
	for _, e := range s.entities {
		n += e.Copies()
	}
	return n
}

// Render builds the wire document starting at the given label position and
// returns the counter positioned after the last issued label.  Rendering does
// not validate and does not modify the submission, so equal inputs give equal
// documents.
func (s *Submission) Render(start LabelCounter, seed int) (*Document, LabelCounter) {
	doc := &Document{
		Name:       s.JobName,
		ModelSeeds: []int{seed},
		Sequences:  make([]SequenceRecord, 0, len(s.entities)),
		Dialect:    Dialect,
		Version:    Version,
	}
	c := start
	for _, e := range s.entities {
		var labels []string
		labels, c = c.Take(e.Copies())
		doc.Sequences = append(doc.Sequences, e.record(ChainID(labels)))
	}
	return doc, c
}

// ToDocument renders from label A with a fresh random model seed.
func (s *Submission) ToDocument() *Document {
	doc, _ := s.Render(0, RandomSeed())
	return doc
}

// RandomSeed returns a uniformly random model seed in [MinModelSeed, MaxModelSeed].
func RandomSeed() int {
	return MinModelSeed + rand.IntN(MaxModelSeed-MinModelSeed+1)
}
