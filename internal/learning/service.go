package learning

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/mind-engage/edukid/internal/grading"
	"github.com/mind-engage/edukid/internal/logger"
	"github.com/mind-engage/edukid/internal/mastery"
)

const (
	CoinsPerCorrect = 10

	FeedbackCorrect = "Great job!"
	FeedbackRetry   = "Keep trying!"

	DefaultEventLimit = 50
	MaxEventLimit     = 500
)

// Service holds the question selector and the mastery updater.
type Service struct {
	store  Store
	grader grading.Grader
	policy mastery.Policy
	intn   func(n int) int
	log    *logger.Logger
}

type Option func(*Service)

func WithPolicy(p mastery.Policy) Option { return func(s *Service) { s.policy = p } }
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l.With("service", "learning") }
}

// WithRand replaces the uniform index picker. intn(n) must return a value
// in [0, n).
func WithRand(intn func(n int) int) Option { return func(s *Service) { s.intn = intn } }

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		grader: grading.NewDefaultGrader(),
		policy: mastery.Overwrite,
		intn:   rand.IntN,
		log:    logger.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Topics(ctx context.Context, stage string) ([]Topic, error) {
	return s.store.ListTopics(ctx, stage)
}

func (s *Service) TopicsForLearner(ctx context.Context, stage string, userID int64) ([]TopicWithMastery, error) {
	return s.store.ListTopicsWithMastery(ctx, stage, userID)
}

// NextQuestion picks uniformly at random among every question of the topic.
// Calls are independent; the same question may come back twice in a row.
func (s *Service) NextQuestion(ctx context.Context, topicID int64) (Question, error) {
	qs, err := s.store.QuestionsByTopic(ctx, topicID)
	if err != nil {
		return Question{}, err
	}
	if len(qs) == 0 {
		return Question{}, ErrNoQuestions
	}
	return qs[s.intn(len(qs))], nil
}

// Submit grades an answer, logs the learning event, overwrites the learner's
// mastery for the question's topic and reads it back.
func (s *Service) Submit(ctx context.Context, sub Submission) (SubmitResult, error) {
	q, err := s.store.GetQuestion(ctx, sub.QuestionID)
	if err != nil {
		return SubmitResult{}, err
	}

	graded, err := s.grader.Grade(ctx, grading.Q{Type: q.Type, AnswerKey: []string{q.CorrectAnswer}}, sub.Answer)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("grade question %d: %w", q.ID, err)
	}

	prior, _, err := s.store.GetMastery(ctx, sub.UserID, q.TopicID)
	if err != nil {
		return SubmitResult{}, err
	}
	score := mastery.Next(s.policy, prior.Score, graded.Correct, mastery.Meta{
		TimeTaken:  sub.TimeTaken,
		Difficulty: q.Difficulty,
	})

	ev, err := s.store.RecordAnswer(ctx,
		LearningEvent{UserID: sub.UserID, QuestionID: q.ID, Correct: graded.Correct, TimeTaken: sub.TimeTaken},
		Mastery{UserID: sub.UserID, TopicID: q.TopicID, Score: score},
	)
	if err != nil {
		return SubmitResult{}, err
	}

	current, _, err := s.store.GetMastery(ctx, sub.UserID, q.TopicID)
	if err != nil {
		return SubmitResult{}, err
	}

	s.log.Debug("answer recorded",
		"event_id", ev.ID,
		"user_id", sub.UserID,
		"question_id", q.ID,
		"topic_id", q.TopicID,
		"correct", graded.Correct,
		"mastery", current.Score,
	)

	res := SubmitResult{
		Correct:       graded.Correct,
		CorrectAnswer: q.CorrectAnswer,
		NewMastery:    current.Score,
		Feedback:      feedbackFor(q, graded.Correct),
	}
	if graded.Correct {
		res.CoinsEarned = CoinsPerCorrect
	}
	return res, nil
}

func feedbackFor(q Question, correct bool) string {
	switch {
	case correct:
		return FeedbackCorrect
	case q.Explanation != nil && *q.Explanation != "":
		return *q.Explanation
	default:
		return FeedbackRetry
	}
}

func (s *Service) LearnerMastery(ctx context.Context, userID int64) ([]Mastery, error) {
	return s.store.ListMastery(ctx, userID)
}

// LearnerEvents returns the newest events first. limit<=0 means
// DefaultEventLimit; larger than MaxEventLimit is capped.
func (s *Service) LearnerEvents(ctx context.Context, userID int64, limit int) ([]LearningEvent, error) {
	switch {
	case limit <= 0:
		limit = DefaultEventLimit
	case limit > MaxEventLimit:
		limit = MaxEventLimit
	}
	return s.store.ListEvents(ctx, userID, limit)
}
