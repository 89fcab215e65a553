package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDamage(t *testing.T) {
	tests := []struct {
		in   string
		want Damage
	}{
		{"1000000", 1_000_000},
		{"1,080,000", 1_080_000},
		{" 50 000 ", 50_000},
		{"1_000", 1000},
		{"12.9", 12},
		{"", 0},
		{"abc", 0},
		{"12k", 0},
		{"-500", 0},
		{"NaN", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDamage(tt.in))
		})
	}
}

func TestDamageAddSaturates(t *testing.T) {
	assert.Equal(t, Damage(1_080_000), Damage(1_000_000).Add(80_000))
	assert.Equal(t, Damage(math.MaxInt64), Damage(math.MaxInt64).Add(1))
	assert.Equal(t, Damage(math.MaxInt64), Damage(math.MaxInt64-10).Add(math.MaxInt64))
	assert.Equal(t, Damage(7), Damage(7).Add(0))
}

func TestDamageUnmarshalLenient(t *testing.T) {
	var row struct {
		Total  Damage `json:"total_damage"`
		Ticket Damage `json:"ticket_damage"`
		Other  Damage `json:"other"`
		Nested Damage `json:"nested"`
	}
	err := json.Unmarshal([]byte(`{"total_damage":"1,000","ticket_damage":"not a number","other":null,"nested":{"x":1}}`), &row)
	require.NoError(t, err)
	assert.Equal(t, Damage(1000), row.Total)
	assert.Equal(t, Damage(0), row.Ticket)
	assert.Equal(t, Damage(0), row.Other)
	assert.Equal(t, Damage(0), row.Nested)

	var n Damage
	require.NoError(t, json.Unmarshal([]byte(`42.7`), &n))
	assert.Equal(t, Damage(42), n)
}

func TestIdentityAvatarURL(t *testing.T) {
	assert.Equal(t, "https://cdn.discordapp.com/avatars/1/abc.png", Identity{ID: "1", Avatar: "abc"}.AvatarURL())
	assert.Empty(t, Identity{ID: "1"}.AvatarURL())
}
