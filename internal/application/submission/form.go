package submission

import (
	"html"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	domainSub "github.com/turtacn/af3-portal/internal/domain/submission"
	"github.com/turtacn/af3-portal/pkg/errors"
)

// EntityForm is one entity card as the UI sends it: every field is raw text.
type EntityForm struct {
	CardID          string `json:"cardId"`
	Type            string `json:"type"`
	Copies          string `json:"copies"`
	Sequence        string `json:"sequence,omitempty"`
	SMILES          string `json:"smiles,omitempty"`
	CCDCodes        string `json:"ccdCodes,omitempty"`
	IonName         string `json:"ionName,omitempty"`
	BondedAtomPairs string `json:"bondedAtomPairs,omitempty"`
}

// Form is the Submit tab.
type Form struct {
	JobName  string       `json:"jobName"`
	Email    string       `json:"email,omitempty"`
	Entities []EntityForm `json:"entities"`
}

// Card is what the UI needs to draw a fresh entity card.
type Card struct {
	EntityForm
	Kinds []domainSub.Kind `json:"kinds"`
}

// NewCard returns an empty protein card with a fresh id.
func NewCard() Card {
	return Card{
		EntityForm: EntityForm{
			CardID: uuid.New().String(),
			Type:   string(domainSub.KindProtein),
			Copies: "1",
		},
		Kinds: domainSub.Kinds,
	}
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func policy() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// PlainText strips markup from a single-line value and trims it.  The job
// name becomes a directory stem and the email a notification address, so
// neither may carry tags.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(policy().Sanitize(s)))
}

// SplitList splits a comma-separated field, trimming items and dropping
// empty ones.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BuildSubmission converts the form into a submission model.  Cards with no
// type are skipped; an unrecognised type is rejected.  The result is not
// validated.
func BuildSubmission(f Form) (*domainSub.Submission, error) {
	sub := domainSub.New(PlainText(f.JobName))

	for i, card := range f.Entities {
		if strings.TrimSpace(card.Type) == "" {
			continue
		}
		kind, ok := domainSub.ParseKind(card.Type)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnknownEntityKind, "Unknown entity type: "+strings.TrimSpace(card.Type)).
				WithDetail("card=" + cardRef(card, i))
		}

		copies := domainSub.ParseCopies(card.Copies)
		bonds := SplitList(card.BondedAtomPairs)
		switch e := sub.AddEntity(kind, copies).(type) {
		case *domainSub.Polymer:
			e.Sequence = strings.TrimSpace(card.Sequence)
			e.BondedAtomPairs = bonds
		case *domainSub.Ligand:
			e.SMILES = strings.TrimSpace(card.SMILES)
			e.CCDCodes = SplitList(card.CCDCodes)
			e.BondedAtomPairs = bonds
		case *domainSub.Ion:
			e.Name = strings.TrimSpace(card.IonName)
			e.BondedAtomPairs = bonds
		}
	}
	return sub, nil
}

func cardRef(card EntityForm, i int) string {
	if card.CardID != "" {
		return card.CardID
	}
	return "#" + strconv.Itoa(i+1)
}
