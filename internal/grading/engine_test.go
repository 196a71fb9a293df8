package grading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGrader_ExactMatch(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Type: "multiple_choice", AnswerKey: []string{"Mercury"}}

	tests := []struct {
		resp string
		want bool
	}{
		{"Mercury", true},
		{"mercury", false},
		{" Mercury", false},
		{"Mercury ", false},
		{"Venus", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.resp, func(t *testing.T) {
			res, err := g.Grade(context.Background(), q, tt.resp)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Correct)
		})
	}
}

func TestDefaultGrader_UnknownTypeFallsBackToExact(t *testing.T) {
	g := NewDefaultGrader()
	res, err := g.Grade(context.Background(), Q{Type: "drag_drop", AnswerKey: []string{"Switch"}}, "Switch")
	require.NoError(t, err)
	assert.True(t, res.Correct)
}

func TestDefaultGrader_EmptyKeys(t *testing.T) {
	g := NewDefaultGrader()

	res, err := g.Grade(context.Background(), Q{Type: "multiple_choice"}, "x")
	require.NoError(t, err)
	assert.False(t, res.Correct)

	// A stored empty answer is compared like any other string.
	blank := Q{Type: "short_answer", AnswerKey: []string{""}}
	res, err = g.Grade(context.Background(), blank, "")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	res, err = g.Grade(context.Background(), blank, " ")
	require.NoError(t, err)
	assert.False(t, res.Correct)
}

type alwaysRight struct{}

func (alwaysRight) Grade(context.Context, Q, string) (Result, error) {
	return Result{Correct: true}, nil
}

func TestWithStrategy_Overrides(t *testing.T) {
	g := NewDefaultGrader(WithStrategy("true_false", alwaysRight{}))
	res, err := g.Grade(context.Background(), Q{Type: "true_false", AnswerKey: []string{"True"}}, "False")
	require.NoError(t, err)
	assert.True(t, res.Correct)
}
