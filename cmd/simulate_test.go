package cmd

import (
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wgangyiii/Scenario-Generation/rollout"
)

func TestMergePredictionsDisjoint(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	dst := rollout.Prediction{"a": {1: nil}}
	mergePredictions(dst, rollout.Prediction{"b": {2: nil}})

	assert.Len(t, dst, 2)
	assert.Empty(t, hook.Entries)
}

func TestMergePredictionsWarnsOnDuplicate(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	dst := rollout.Prediction{"a": {1: nil}}
	mergePredictions(dst, rollout.Prediction{"a": {2: nil}, "b": {3: nil}})

	assert.Len(t, dst, 2)
	// The later file wins the collision.
	_, hasNew := dst["a"][2]
	_, hasOld := dst["a"][1]
	assert.True(t, hasNew)
	assert.False(t, hasOld)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.Entries[0].Level)
	assert.Equal(t, "a", hook.Entries[0].Data["scenario"])
}
