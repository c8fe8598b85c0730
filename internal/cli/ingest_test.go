package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObservations(t *testing.T) {
	input := `resource_id,date,cost
vm-1,2024-01-01,100.50
vm-1,2024-01-02,98.25
vm-2,2024-01-01,12
`
	observations, err := parseObservations(strings.NewReader(input), "sub-1")
	require.NoError(t, err)
	require.Len(t, observations, 3)

	assert.Equal(t, "vm-1", observations[0].ResourceID)
	assert.Equal(t, "sub-1", observations[0].SubscriptionID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), observations[0].Date)
	assert.Equal(t, 100.50, observations[0].Cost)
	assert.Equal(t, 12.0, observations[2].Cost)
}

func TestParseObservations_NoHeader(t *testing.T) {
	observations, err := parseObservations(strings.NewReader("vm-1,2024-01-01,50\n"), "sub-1")
	require.NoError(t, err)
	assert.Len(t, observations, 1)
}

func TestParseObservations_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad date", "vm-1,01/02/2024,50\n"},
		{"bad cost", "vm-1,2024-01-01,lots\n"},
		{"negative cost", "vm-1,2024-01-01,-5\n"},
		{"wrong field count", "vm-1,2024-01-01\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseObservations(strings.NewReader(tt.input), "sub-1")
			assert.Error(t, err)
		})
	}
}

func TestParseObservations_Empty(t *testing.T) {
	observations, err := parseObservations(strings.NewReader(""), "sub-1")
	require.NoError(t, err)
	assert.Empty(t, observations)
}
