package submission

import (
	"fmt"
	"strings"

	"github.com/turtacn/af3-portal/pkg/errors"
)

// MissingJobName is returned when the submission has no job name.
func MissingJobName() *errors.AppError {
	return errors.New(errors.ErrCodeMissingJobName, "Job name is required.")
}

// NoEntities is returned when the submission has no entities.
func NoEntities() *errors.AppError {
	return errors.New(errors.ErrCodeNoEntities, "At least one entity is required.")
}

// MissingSequence is returned for a polymer entity with a blank sequence.
func MissingSequence(kind Kind) *errors.AppError {
	return errors.New(errors.ErrCodeMissingSequence, fmt.Sprintf("Sequence required for %s.", kind)).
		WithDetail("kind=" + kind.String())
}

// MissingLigandIdentity is returned for a ligand with neither SMILES nor CCD codes.
func MissingLigandIdentity() *errors.AppError {
	return errors.New(errors.ErrCodeMissingLigandIdentity, "Ligand must have SMILES or CCD codes.")
}

// MissingIonName is returned for an ion entity with a blank name.
func MissingIonName() *errors.AppError {
	return errors.New(errors.ErrCodeMissingIonName, "Ion name is required for ion entities.")
}

// Validate reports the first completeness problem of the submission, or nil.
// Checks run in a fixed order: job name, presence of entities, then each
// entity in insertion order.  Only the first failure is returned.
func (s *Submission) Validate() error {
	if isBlank(s.JobName) {
		return MissingJobName()
	}
	if len(s.entities) == 0 {
		return NoEntities()
	}
	for _, e := range s.entities {
		if err := e.check(); err != nil {
			return err
		}
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
