package survey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsRangeBounds(t *testing.T) {
	err := Validate(
		Response{Q1: 1, Q2: 0},
		Response{Q1: 100, Q2: 1000},
		Response{Q1: 54, Q2: 54, RespondentID: "browser-1"},
	)
	assert.NoError(t, err)
}

func TestValidate_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		resp  Response
		field string
		rule  string
	}{
		{"anchor below", Response{Q1: 0, Q2: 10}, "q1", "gte=1"},
		{"anchor above", Response{Q1: 101, Q2: 10}, "q1", "lte=100"},
		{"estimate below", Response{Q1: 5, Q2: -1}, "q2", "gte=0"},
		{"estimate above", Response{Q1: 5, Q2: 1001}, "q2", "lte=1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Response{Q1: 10, Q2: 10}, tt.resp)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
			assert.Equal(t, 1, verr.Index)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.rule, verr.Rule)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_Empty(t *testing.T) {
	assert.NoError(t, Validate())
}

func TestObservations_PreservesOrder(t *testing.T) {
	obs := Observations([]Response{{Q1: 3, Q2: 30}, {Q1: 1, Q2: 10}, {Q1: 2, Q2: 20}})

	require.Len(t, obs, 3)
	assert.Equal(t, 3.0, obs[0].X)
	assert.Equal(t, 30.0, obs[0].Y)
	assert.Equal(t, 1.0, obs[1].X)
	assert.Equal(t, 20.0, obs[2].Y)
}
