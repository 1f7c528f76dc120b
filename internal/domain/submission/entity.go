package submission

// Entity is one chemical component of a job.  The concrete variants are
// *Polymer, *Ligand and *Ion; each carries only the fields its kind uses.
type Entity interface {
	Kind() Kind
	Copies() int
	Bonds() []string

	// record builds the wire record for the given chain labels.
	record(ids ChainID) SequenceRecord
	// check returns the first completeness failure of the entity, if any.
	check() error
}

// base holds the fields every variant shares.
type base struct {
	copies int

	// BondedAtomPairs are free-form bond constraints, emitted only when present.
	BondedAtomPairs []string
}

func newBase(copies int) base {
	return base{copies: NormalizeCopies(copies)}
}

// Copies returns the number of physical copies, always at least 1.
func (b *base) Copies() int { return NormalizeCopies(b.copies) }

// SetCopies replaces the copy count, coercing non-positive values to 1.
func (b *base) SetCopies(n int) { b.copies = NormalizeCopies(n) }

// Bonds returns the bonded atom pairs in insertion order.
func (b *base) Bonds() []string { return b.BondedAtomPairs }

// Polymer is a protein, RNA or DNA chain.
type Polymer struct {
	base
	kind     Kind
	Sequence string
}

func (p *Polymer) Kind() Kind { return p.kind }

func (p *Polymer) record(ids ChainID) SequenceRecord {
	rec := &PolymerRecord{
		ID:              ids,
		Sequence:        p.Sequence,
		BondedAtomPairs: nonEmpty(p.BondedAtomPairs),
	}
	switch p.kind {
	case KindRNA:
		return SequenceRecord{RNA: rec}
	case KindDNA:
		return SequenceRecord{DNA: rec}
	default:
		return SequenceRecord{Protein: rec}
	}
}

func (p *Polymer) check() error {
	if isBlank(p.Sequence) {
		return MissingSequence(p.kind)
	}
	return nil
}

// Ligand is a small molecule given by SMILES, CCD codes, or both.
type Ligand struct {
	base
	SMILES   string
	CCDCodes []string
}

func (l *Ligand) Kind() Kind { return KindLigand }

func (l *Ligand) record(ids ChainID) SequenceRecord {
	rec := &LigandRecord{
		ID:              ids,
		CCDCodes:        nonEmpty(l.CCDCodes),
		BondedAtomPairs: nonEmpty(l.BondedAtomPairs),
	}
	if !isBlank(l.SMILES) {
		rec.SMILES = l.SMILES
	}
	return SequenceRecord{Ligand: rec}
}

func (l *Ligand) check() error {
	if isBlank(l.SMILES) && len(nonEmpty(l.CCDCodes)) == 0 {
		return MissingLigandIdentity()
	}
	return nil
}

// Ion is a single-atom ligand named by its CCD code.  On the wire it is a
// ligand record whose only CCD code is Name.
type Ion struct {
	base
	Name string
}

func (i *Ion) Kind() Kind { return KindIon }

func (i *Ion) record(ids ChainID) SequenceRecord {
	rec := &LigandRecord{
		ID:              ids,
		BondedAtomPairs: nonEmpty(i.BondedAtomPairs),
	}
	if !isBlank(i.Name) {
		rec.CCDCodes = []string{i.Name}
	}
	return SequenceRecord{Ligand: rec}
}

func (i *Ion) check() error {
	if isBlank(i.Name) {
		return MissingIonName()
	}
	return nil
}

// nonEmpty drops blank items and returns nil when nothing is left, so the
// JSON encoder omits the field.
func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if !isBlank(s) {
			out = append(out, s)
		}
	}
	return out
}
