package submission

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainID_Marshal(t *testing.T) {
	b, err := json.Marshal(ChainID{"A"})
	require.NoError(t, err)
	assert.Equal(t, `"A"`, string(b))

	b, err = json.Marshal(ChainID{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, `["A","B"]`, string(b))

	b, err = json.Marshal(ChainID(nil))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(b))
}

func TestChainID_Unmarshal(t *testing.T) {
	var c ChainID
	require.NoError(t, json.Unmarshal([]byte(`"Q"`), &c))
	assert.Equal(t, ChainID{"Q"}, c)

	require.NoError(t, json.Unmarshal([]byte(`["B","C"]`), &c))
	assert.Equal(t, ChainID{"B", "C"}, c)

	assert.Error(t, json.Unmarshal([]byte(`7`), &c))
}

func TestParseDocument_RoundTrip(t *testing.T) {
	doc, _ := buildJob1().Render(0, 9)
	b, err := doc.MarshalIndent()
	require.NoError(t, err)
	assert.Contains(t, string(b), "\n  \"name\": \"job1\"")

	parsed, err := ParseDocument(b)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, parsed); diff != "" {
		t.Fatalf("document changed after round trip (-want +got):\n%s", diff)
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	_, err := ParseDocument([]byte(`{"name":`))
	assert.Error(t, err)
}

func TestSequenceRecord_EmptyRecord(t *testing.T) {
	var r SequenceRecord
	assert.Equal(t, Kind(""), r.WireKind())
	assert.Nil(t, r.IDs())
}
