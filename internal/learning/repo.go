package learning

import (
	"context"
	"errors"
)

var (
	ErrNoQuestions      = errors.New("no questions found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrTopicNotFound    = errors.New("topic not found")
)

type Store interface {
	ListTopics(ctx context.Context, stage string) ([]Topic, error)
	ListTopicsWithMastery(ctx context.Context, stage string, userID int64) ([]TopicWithMastery, error)
	QuestionsByTopic(ctx context.Context, topicID int64) ([]Question, error)
	GetQuestion(ctx context.Context, id int64) (Question, error)

	// GetMastery reports found=false when the learner has no score yet.
	GetMastery(ctx context.Context, userID, topicID int64) (m Mastery, found bool, err error)
	// RecordAnswer appends ev and overwrites the mastery row in one transaction.
	RecordAnswer(ctx context.Context, ev LearningEvent, m Mastery) (LearningEvent, error)

	ListMastery(ctx context.Context, userID int64) ([]Mastery, error)
	ListEvents(ctx context.Context, userID int64, limit int) ([]LearningEvent, error)
}
