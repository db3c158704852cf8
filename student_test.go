package scorecore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStudentDoc() studentModelDoc {
	weights := make([]float64, FeatureCount)
	names := make([]string, FeatureCount)
	copy(names, FeatureNames)
	return studentModelDoc{
		Version:      "v1",
		FeatureNames: names,
		Weights:      weights,
		Bias:         0,
	}
}

func TestParseStudentModel_ZeroWeightsGivesHalf(t *testing.T) {
	doc := validStudentDoc()
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	m, err := ParseStudentModel(data)
	require.NoError(t, err)

	var fv FeatureVector
	assert.InDelta(t, 0.5, m.Score(fv), 1e-9)
}

func TestParseStudentModel_RejectsSchemaMismatch(t *testing.T) {
	doc := validStudentDoc()
	doc.FeatureNames[0] = "not_a_real_feature"
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = ParseStudentModel(data)
	require.Error(t, err)
}

func TestParseStudentModel_RejectsWrongWeightCount(t *testing.T) {
	doc := validStudentDoc()
	doc.Weights = doc.Weights[:FeatureCount-1]
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = ParseStudentModel(data)
	require.Error(t, err)
}

func TestStudentModel_PlattCalibration(t *testing.T) {
	doc := validStudentDoc()
	doc.Platt = &PlattCalibration{A: 1, C: 0}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	m, err := ParseStudentModel(data)
	require.NoError(t, err)

	var fv FeatureVector
	assert.InDelta(t, 0.5, m.Score(fv), 1e-9)
}

func TestStudentModelRegistry_SwapReturnsPrevious(t *testing.T) {
	doc := validStudentDoc()
	data, _ := json.Marshal(doc)
	first, err := ParseStudentModel(data)
	require.NoError(t, err)

	doc2 := validStudentDoc()
	doc2.Version = "v2"
	data2, _ := json.Marshal(doc2)
	second, err := ParseStudentModel(data2)
	require.NoError(t, err)

	reg := NewStudentModelRegistry(first)
	assert.Equal(t, "v1", reg.Current().Version())

	old := reg.Swap(second)
	assert.Equal(t, "v1", old.Version())
	assert.Equal(t, "v2", reg.Current().Version())
}
