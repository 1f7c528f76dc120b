package submission

import (
	"encoding/json"
	"fmt"
)

// Wire format identifiers of the alphafold3 input document.
const (
	Dialect = "alphafold3"
	Version = 2
)

// Document is the alphafold3 input document.
type Document struct {
	Name       string           `json:"name"`
	ModelSeeds []int            `json:"modelSeeds"`
	Sequences  []SequenceRecord `json:"sequences"`
	Dialect    string           `json:"dialect"`
	Version    int              `json:"version"`
}

// MarshalIndent returns the document as two-space indented JSON.
func (d *Document) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ParseDocument decodes an alphafold3 input document.
func ParseDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &d, nil
}

// SequenceRecord is one entry of Document.Sequences.  Exactly one field is set;
// the key names the kind on the wire.
type SequenceRecord struct {
	Protein *PolymerRecord `json:"protein,omitempty"`
	RNA     *PolymerRecord `json:"rna,omitempty"`
	DNA     *PolymerRecord `json:"dna,omitempty"`
	Ligand  *LigandRecord  `json:"ligand,omitempty"`
}

// WireKind returns the record's key: protein, rna, dna or ligand.
func (r SequenceRecord) WireKind() Kind {
	switch {
	case r.Protein != nil:
		return KindProtein
	case r.RNA != nil:
		return KindRNA
	case r.DNA != nil:
		return KindDNA
	case r.Ligand != nil:
		return KindLigand
	}
	return ""
}

// IDs returns the chain labels of whichever record is set.
func (r SequenceRecord) IDs() ChainID {
	switch {
	case r.Protein != nil:
		return r.Protein.ID
	case r.RNA != nil:
		return r.RNA.ID
	case r.DNA != nil:
		return r.DNA.ID
	case r.Ligand != nil:
		return r.Ligand.ID
	}
	return nil
}

// PolymerRecord is the body of a protein, rna or dna record.
type PolymerRecord struct {
	ID              ChainID  `json:"id"`
	Sequence        string   `json:"sequence"`
	BondedAtomPairs []string `json:"bondedAtomPairs,omitempty"`
}

// LigandRecord is the body of a ligand record; ions use it too.
type LigandRecord struct {
	ID              ChainID  `json:"id"`
	SMILES          string   `json:"smiles,omitempty"`
	CCDCodes        []string `json:"ccdCodes,omitempty"`
	BondedAtomPairs []string `json:"bondedAtomPairs,omitempty"`
}

// ChainID is the set of labels assigned to an entity's copies.  A single label
// is encoded as a JSON string, anything else as an array.
type ChainID []string

// MarshalJSON implements json.Marshaler.
func (c ChainID) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(c))
}

// UnmarshalJSON accepts either a string or an array of strings.
func (c *ChainID) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = ChainID{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("chain id must be a string or an array of strings: %w", err)
	}
	*c = ChainID(many)
	return nil
}
