// Package submission turns the Submit tab form into an alphafold3 input
// document.
package submission

import (
	"context"
	"strings"

	domainSub "github.com/turtacn/af3-portal/internal/domain/submission"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/af3-portal/pkg/errors"
)

// DefaultExportName is the download name used when the job name is blank.
const DefaultExportName = "af3_input.json"

type Service interface {
	// Preview validates the form and renders it with a fresh label counter
	// and random seed.  The first validation failure is returned as is.
	Preview(ctx context.Context, form Form) (*Preview, error)
	// Export returns the download name and body for a generated document.
	Export(jobName string, doc *domainSub.Document) (*Export, error)
}

// Preview is a rendered document and its indented JSON text.
type Preview struct {
	Document *domainSub.Document `json:"document"`
	JSON     string              `json:"json"`
}

// Export is a document ready for download.
type Export struct {
	FileName string
	Body     []byte
}

type serviceImpl struct {
	metrics *prometheus.AppMetrics
	logger  logging.Logger
	seed    func() int
}

func NewService(metrics *prometheus.AppMetrics, logger logging.Logger) Service {
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		metrics: metrics,
		logger:  logger,
		seed:    domainSub.RandomSeed,
	}
}

func (s *serviceImpl) Preview(ctx context.Context, form Form) (*Preview, error) {
	sub, err := BuildSubmission(form)
	if err != nil {
		prometheus.RecordValidation(s.metrics, string(errors.GetCode(err)))
		return nil, err
	}
	if err := sub.Validate(); err != nil {
		prometheus.RecordValidation(s.metrics, string(errors.GetCode(err)))
		s.logger.Debug("submission incomplete",
			logging.String("job", sub.JobName),
			logging.String("code", string(errors.GetCode(err))))
		return nil, err
	}
	prometheus.RecordValidation(s.metrics, "")

	doc, next := sub.Render(0, s.seed())
	for _, e := range sub.Entities() {
		prometheus.RecordEntity(s.metrics, e.Kind().String())
	}
	body, err := doc.MarshalIndent()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode document")
	}

	s.logger.Info("submission rendered",
		logging.String("job", sub.JobName),
		logging.Int("entities", sub.Len()),
		logging.Int("chains", int(next)),
		logging.Int("seed", doc.ModelSeeds[0]))
	return &Preview{Document: doc, JSON: string(body)}, nil
}

func (s *serviceImpl) Export(jobName string, doc *domainSub.Document) (*Export, error) {
	if doc == nil {
		return nil, errors.New(errors.ErrCodeDocumentRequired, errors.DefaultMessageForCode(errors.ErrCodeDocumentRequired))
	}
	body, err := doc.MarshalIndent()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode document")
	}
	return &Export{FileName: ExportFileName(jobName), Body: body}, nil
}

// ExportFileName returns "<jobName>.json", or DefaultExportName when the
// name is blank.
func ExportFileName(jobName string) string {
	name := strings.TrimSpace(PlainText(jobName))
	if name == "" {
		return DefaultExportName
	}
	return name + ".json"
}
