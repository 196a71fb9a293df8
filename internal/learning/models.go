package learning

import (
	"sort"
	"time"
)

type Topic struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Stage       string `json:"stage"`
	SubjectID   int64  `json:"subjectId"`
	Description string `json:"description"`
}

// TopicWithMastery is a topic as seen by a student: their score rides along,
// 0 when they have never answered in it.
type TopicWithMastery struct {
	Topic
	Mastery float64 `json:"mastery"`
}

type Question struct {
	ID            int64    `json:"id"`
	TopicID       int64    `json:"topicId"`
	Content       string   `json:"content"`
	CorrectAnswer string   `json:"correctAnswer"`
	Distractors   []string `json:"distractors"`
	Difficulty    int      `json:"difficulty"`
	Type          string   `json:"type"`
	Explanation   *string  `json:"explanation"`
}

// QuestionView is the student-safe projection of a Question: the correct
// answer is mixed into Options and the explanation is withheld.
type QuestionView struct {
	ID         int64    `json:"id"`
	TopicID    int64    `json:"topicId"`
	Content    string   `json:"content"`
	Options    []string `json:"options"`
	Difficulty int      `json:"difficulty"`
	Type       string   `json:"type"`
}

// View builds the student-safe projection. Options are sorted so their order
// says nothing about which one is correct.
func (q Question) View() QuestionView {
	opts := make([]string, 0, len(q.Distractors)+1)
	opts = append(opts, q.CorrectAnswer)
	opts = append(opts, q.Distractors...)
	sort.Strings(opts)
	return QuestionView{
		ID:         q.ID,
		TopicID:    q.TopicID,
		Content:    q.Content,
		Options:    opts,
		Difficulty: q.Difficulty,
		Type:       q.Type,
	}
}

// LearningEvent is written once per submission and never updated.
type LearningEvent struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	QuestionID int64     `json:"questionId"`
	Correct    bool      `json:"correct"`
	TimeTaken  int       `json:"timeTaken"` // seconds
	CreatedAt  time.Time `json:"createdAt"`
}

type Mastery struct {
	UserID    int64     `json:"userId"`
	TopicID   int64     `json:"topicId"`
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Submission struct {
	UserID     int64
	QuestionID int64
	Answer     string
	TimeTaken  int
}

type SubmitResult struct {
	Correct       bool    `json:"correct"`
	CorrectAnswer string  `json:"correctAnswer"`
	CoinsEarned   int     `json:"coinsEarned"`
	NewMastery    float64 `json:"newMastery"`
	Feedback      string  `json:"feedback"`
}
