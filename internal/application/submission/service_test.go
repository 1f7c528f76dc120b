package submission

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainSub "github.com/turtacn/af3-portal/internal/domain/submission"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/af3-portal/internal/testutil"
	"github.com/turtacn/af3-portal/pkg/errors"
)

func newTestService(t *testing.T) (*serviceImpl, prometheus.MetricsCollector, *testutil.MockLogger) {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "af3portal"}, nil)
	require.NoError(t, err)
	log := testutil.NewMockLogger()
	svc := NewService(prometheus.NewAppMetrics(collector), log).(*serviceImpl)
	svc.seed = func() int { return 42 }
	return svc, collector, log
}

func TestService_Preview(t *testing.T) {
	svc, collector, log := newTestService(t)

	got, err := svc.Preview(context.Background(), Form{
		JobName: "job1",
		Entities: []EntityForm{
			{Type: "protein", Copies: "2", Sequence: "MVLS"},
			{Type: "ion", IonName: "MG"},
		},
	})
	require.NoError(t, err)

	want := `{
  "name": "job1",
  "modelSeeds": [
    42
  ],
  "sequences": [
    {
      "protein": {
        "id": [
          "A",
          "B"
        ],
        "sequence": "MVLS"
      }
    },
    {
      "ligand": {
        "id": "C",
        "ccdCodes": [
          "MG"
        ]
      }
    }
  ],
  "dialect": "alphafold3",
  "version": 2
}`
	assert.Equal(t, want, got.JSON)
	assert.Equal(t, "job1", got.Document.Name)

	out := testutil.ScrapeMetrics(t, collector.Handler())
	assert.Contains(t, out, `af3portal_submission_validations_total{result="ok"} 1`)
	assert.Contains(t, out, `af3portal_submission_entities_total{kind="protein"} 1`)
	assert.Contains(t, out, `af3portal_submission_entities_total{kind="ion"} 1`)

	msg, ok := log.Find("info", "submission rendered")
	require.True(t, ok)
	chains, _ := msg.Field("chains")
	assert.Equal(t, 3, chains)
}

func TestNewService_NilCollaborators(t *testing.T) {
	svc := NewService(nil, nil)

	var got *Preview
	require.NotPanics(t, func() {
		var err error
		got, err = svc.Preview(context.Background(), Form{
			JobName:  "job1",
			Entities: []EntityForm{{Type: "dna", Copies: "1", Sequence: "ACGT"}},
		})
		require.NoError(t, err)
	})
	assert.Contains(t, got.JSON, `"ACGT"`)
}

func TestService_PreviewFreshCounterEachCall(t *testing.T) {
	svc, _, _ := newTestService(t)
	form := Form{JobName: "j", Entities: []EntityForm{{Type: "protein", Sequence: "M"}}}

	for i := 0; i < 2; i++ {
		got, err := svc.Preview(context.Background(), form)
		require.NoError(t, err)
		assert.Equal(t, domainSub.ChainID{"A"}, got.Document.Sequences[0].IDs())
	}
}

func TestService_PreviewValidationFailure(t *testing.T) {
	svc, collector, _ := newTestService(t)

	_, err := svc.Preview(context.Background(), Form{
		JobName:  "j",
		Entities: []EntityForm{{Type: "rna"}, {Type: "ligand"}},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingSequence))
	assert.Equal(t, "Sequence required for rna.", errors.MessageOf(err))

	out := testutil.ScrapeMetrics(t, collector.Handler())
	assert.Contains(t, out, `af3portal_submission_validations_total{result="SUB_003"} 1`)
	assert.NotContains(t, out, `result="ok"`)
}

func TestService_PreviewMissingJobName(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Preview(context.Background(), Form{JobName: "<b></b>"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingJobName))
}

func TestService_Export(t *testing.T) {
	svc, _, _ := newTestService(t)
	doc, _ := domainSub.New("job1").Render(0, 7)

	exp, err := svc.Export("job1", doc)
	require.NoError(t, err)
	assert.Equal(t, "job1.json", exp.FileName)
	assert.True(t, strings.HasPrefix(string(exp.Body), "{\n  \"name\": \"job1\""))

	exp, err = svc.Export("  ", doc)
	require.NoError(t, err)
	assert.Equal(t, DefaultExportName, exp.FileName)

	_, err = svc.Export("job1", nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentRequired))
}
