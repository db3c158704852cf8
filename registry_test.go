package scorecore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelRegistry_SwapStudentKeepsOldOnInvalidCandidate(t *testing.T) {
	doc := validStudentDoc()
	data, _ := json.Marshal(doc)
	initial, err := ParseStudentModel(data)
	require.NoError(t, err)

	reg := NewModelRegistry(initial, NewBandit(1.0, 1.0))

	bad := validStudentDoc()
	bad.FeatureNames[0] = "bogus"
	badData, _ := json.Marshal(bad)

	_, err = reg.SwapStudent(badData)
	assert.Error(t, err)
	assert.Equal(t, "v1", reg.CurrentStudent().Version())
}

func TestModelRegistry_SwapStudentPublishesValidCandidate(t *testing.T) {
	doc := validStudentDoc()
	data, _ := json.Marshal(doc)
	initial, err := ParseStudentModel(data)
	require.NoError(t, err)

	reg := NewModelRegistry(initial, NewBandit(1.0, 1.0))

	next := validStudentDoc()
	next.Version = "v2"
	nextData, _ := json.Marshal(next)

	old, err := reg.SwapStudent(nextData)
	require.NoError(t, err)
	assert.Equal(t, "v1", old.Version())
	assert.Equal(t, "v2", reg.CurrentStudent().Version())
}
