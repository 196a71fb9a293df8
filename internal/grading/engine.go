package grading

import "context"

// Q is a minimal view of a question needed for grading.
type Q struct {
	Type      string
	AnswerKey []string
}

// Result is the outcome of grading a single response.
type Result struct {
	Correct bool
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, response string) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, response string) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
	fallback   Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response string) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		s = g.fallback
	}
	return s.Grade(ctx, q, response)
}

type Option func(*defaultGrader)

// WithStrategy installs or replaces the strategy for a question type.
func WithStrategy(qType string, s Strategy) Option {
	return func(g *defaultGrader) { g.strategies[qType] = s }
}

// NewDefaultGrader installs built-in strategies. Every built-in type, and any
// type without a strategy, is graded by exact, case-sensitive equality.
func NewDefaultGrader(opts ...Option) Grader {
	g := &defaultGrader{
		strategies: map[string]Strategy{
			"multiple_choice": exactStrategy{},
			"true_false":      exactStrategy{},
			"short_answer":    exactStrategy{},
		},
		fallback: exactStrategy{},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// exactStrategy: no trimming, no case folding. An empty key matches nothing.
type exactStrategy struct{}

func (exactStrategy) Grade(_ context.Context, q Q, response string) (Result, error) {
	for _, k := range q.AnswerKey {
		if response == k {
			return Result{Correct: true}, nil
		}
	}
	return Result{}, nil
}
