package learning

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) ListTopics(ctx context.Context, stage string) ([]Topic, error) {
	q := `SELECT id,name,slug,stage,subject_id,description FROM topics`
	var args []any
	if stage != "" {
		q += ` WHERE stage=$1`
		args = append(args, stage)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	out := []Topic{}
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Stage, &t.SubjectID, &t.Description); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListTopicsWithMastery(ctx context.Context, stage string, userID int64) ([]TopicWithMastery, error) {
	q := `SELECT t.id,t.name,t.slug,t.stage,t.subject_id,t.description,COALESCE(m.score,0)
		FROM topics t
		LEFT JOIN mastery m ON m.topic_id=t.id AND m.user_id=$1`
	args := []any{userID}
	if stage != "" {
		q += ` WHERE t.stage=$2`
		args = append(args, stage)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY t.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list topics for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := []TopicWithMastery{}
	for rows.Next() {
		var t TopicWithMastery
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Stage, &t.SubjectID, &t.Description, &t.Mastery); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const questionColumns = `id,topic_id,content,correct_answer,distractors,difficulty,type,explanation`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(r rowScanner) (Question, error) {
	var (
		q           Question
		distractors string
		explanation sql.NullString
	)
	if err := r.Scan(&q.ID, &q.TopicID, &q.Content, &q.CorrectAnswer, &distractors, &q.Difficulty, &q.Type, &explanation); err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(distractors), &q.Distractors); err != nil {
		return Question{}, fmt.Errorf("decode distractors for question %d: %w", q.ID, err)
	}
	if q.Distractors == nil {
		q.Distractors = []string{}
	}
	if explanation.Valid {
		e := explanation.String
		q.Explanation = &e
	}
	return q, nil
}

func (s *SQLStore) QuestionsByTopic(ctx context.Context, topicID int64) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE topic_id=$1 ORDER BY id`, topicID)
	if err != nil {
		return nil, fmt.Errorf("questions for topic %d: %w", topicID, err)
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrQuestionNotFound
	}
	return q, err
}

func (s *SQLStore) GetMastery(ctx context.Context, userID, topicID int64) (Mastery, bool, error) {
	m := Mastery{UserID: userID, TopicID: topicID}
	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT score,updated_at FROM mastery WHERE user_id=$1 AND topic_id=$2`,
		userID, topicID).Scan(&m.Score, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return m, false, nil
	}
	if err != nil {
		return Mastery{}, false, fmt.Errorf("get mastery: %w", err)
	}
	m.UpdatedAt = time.Unix(updated, 0).UTC()
	return m, true, nil
}

func (s *SQLStore) RecordAnswer(ctx context.Context, ev LearningEvent, m Mastery) (out LearningEvent, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LearningEvent{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else if err = tx.Commit(); err != nil {
			out = LearningEvent{}
		}
	}()

	now := time.Now()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO learning_events (user_id,question_id,correct,time_taken,created_at)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING id`,
		ev.UserID, ev.QuestionID, ev.Correct, ev.TimeTaken, ev.CreatedAt.Unix(),
	).Scan(&ev.ID)
	if err != nil {
		return LearningEvent{}, fmt.Errorf("append learning event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO mastery (user_id,topic_id,score,updated_at)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (user_id,topic_id) DO UPDATE SET score=EXCLUDED.score, updated_at=EXCLUDED.updated_at`,
		m.UserID, m.TopicID, m.Score, now.Unix())
	if err != nil {
		return LearningEvent{}, fmt.Errorf("overwrite mastery: %w", err)
	}
	ev.CreatedAt = time.Unix(ev.CreatedAt.Unix(), 0).UTC()
	return ev, nil
}

func (s *SQLStore) ListMastery(ctx context.Context, userID int64) ([]Mastery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT topic_id,score,updated_at FROM mastery WHERE user_id=$1 ORDER BY topic_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	defer rows.Close()

	out := []Mastery{}
	for rows.Next() {
		m := Mastery{UserID: userID}
		var updated int64
		if err := rows.Scan(&m.TopicID, &m.Score, &updated); err != nil {
			return nil, err
		}
		m.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListEvents(ctx context.Context, userID int64, limit int) ([]LearningEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,question_id,correct,time_taken,created_at FROM learning_events
		 WHERE user_id=$1 ORDER BY id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []LearningEvent{}
	for rows.Next() {
		ev := LearningEvent{UserID: userID}
		var created int64
		if err := rows.Scan(&ev.ID, &ev.QuestionID, &ev.Correct, &ev.TimeTaken, &created); err != nil {
			return nil, err
		}
		ev.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ---- catalog writes (seeding) ----

func (s *SQLStore) CreateTopic(ctx context.Context, t Topic) (Topic, error) {
	if t.SubjectID == 0 {
		t.SubjectID = 1
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO topics (name,slug,stage,subject_id,description) VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		t.Name, t.Slug, t.Stage, t.SubjectID, t.Description).Scan(&t.ID)
	if err != nil {
		return Topic{}, fmt.Errorf("insert topic %q: %w", t.Slug, err)
	}
	return t, nil
}

func (s *SQLStore) TopicBySlug(ctx context.Context, slug string) (Topic, error) {
	var t Topic
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,slug,stage,subject_id,description FROM topics WHERE slug=$1`, slug).
		Scan(&t.ID, &t.Name, &t.Slug, &t.Stage, &t.SubjectID, &t.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Topic{}, ErrTopicNotFound
	}
	return t, err
}

func (s *SQLStore) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	if q.Distractors == nil {
		q.Distractors = []string{}
	}
	if q.Type == "" {
		q.Type = "multiple_choice"
	}
	dj, err := json.Marshal(q.Distractors)
	if err != nil {
		return Question{}, err
	}
	var explanation sql.NullString
	if q.Explanation != nil {
		explanation = sql.NullString{String: *q.Explanation, Valid: true}
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO questions (topic_id,content,correct_answer,distractors,difficulty,type,explanation)
		 VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		q.TopicID, q.Content, q.CorrectAnswer, string(dj), q.Difficulty, q.Type, explanation).Scan(&q.ID)
	if err != nil {
		return Question{}, fmt.Errorf("insert question for topic %d: %w", q.TopicID, err)
	}
	return q, nil
}
