package naming

import (
	"testing"

	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuffix_Format(t *testing.T) {
	tests := []struct {
		template string
		n        int
		want     string
	}{
		{template: " {n:03d}", n: 1, want: " 001"},
		{template: " {n:03d}", n: 1234, want: " 1234"},
		{template: "-{n:03d}", n: 42, want: "-042"},
		{template: ".{n}", n: 7, want: ".7"},
		{template: "_{num:02d}", n: 3, want: "_03"},
		{template: " ({n})", n: 12, want: " (12)"},
		{template: "#{n:3d}", n: 5, want: "#  5"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			policy, err := ParseSuffix(tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.want, policy.Format(tt.n))
			assert.Equal(t, "Box"+tt.want, policy.Candidate("Box", tt.n))
			assert.Equal(t, tt.template, policy.String())
		})
	}
}

func TestParseSuffix_Errors(t *testing.T) {
	for _, template := range []string{"", "-copy", "{n}{n}", " {x}{n}", "{n:03x}"} {
		t.Run(template, func(t *testing.T) {
			_, err := ParseSuffix(template)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeValidationFormat))
		})
	}
}

func TestMustParseSuffix_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseSuffix("nope") })
	assert.NotPanics(t, func() { MustParseSuffix(".{n}") })
}
