package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeTierMultiplier(t *testing.T) {
	assert.Equal(t, "1", FeeTierFull.Multiplier().String())
	assert.Equal(t, "0.5", FeeTierHalf.Multiplier().String())
	assert.Equal(t, "0", FeeTierFree.Multiplier().String())
}

func TestParseFeeTier(t *testing.T) {
	tier, err := ParseFeeTier("No Fee (Free)")
	require.NoError(t, err)
	assert.Equal(t, FeeTierFree, tier)

	_, err = ParseFeeTier("Quarter Fee")
	assert.Error(t, err)
}

func TestFeeTierScan(t *testing.T) {
	var tier FeeTier
	require.NoError(t, tier.Scan([]byte("Half Fee")))
	assert.Equal(t, FeeTierHalf, tier)
	assert.Error(t, tier.Scan(42))
	assert.Error(t, tier.Scan("half"))
}

func TestFeeTierUnmarshalJSON(t *testing.T) {
	var payload struct {
		Tier FeeTier `json:"tier"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tier":"Full Fee"}`), &payload))
	assert.Equal(t, FeeTierFull, payload.Tier)
	assert.Error(t, json.Unmarshal([]byte(`{"tier":"free"}`), &payload))
}
