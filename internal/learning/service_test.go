package learning

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/edukid/internal/account"
	"github.com/mind-engage/edukid/internal/db"
	"github.com/mind-engage/edukid/internal/mastery"
)

type fixture struct {
	store   *SQLStore
	learner int64
	space   Topic
	elec    Topic
	empty   Topic
	mercury Question
	copper  Question
	sw      Question
}

func strPtr(s string) *string { return &s }

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, db.SQLiteDSN(filepath.Join(t.TempDir(), "learning.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })

	u, err := account.NewSQLStore(dbh).Create(ctx, account.NewUser{
		Username: "student1", Role: account.RoleStudent, PicturePassword: []string{"cat"},
	})
	require.NoError(t, err)

	s := NewSQLStore(dbh)
	f := fixture{store: s, learner: u.ID}

	f.elec, err = s.CreateTopic(ctx, Topic{Name: "Electricity", Slug: "electricity", Stage: "KS2"})
	require.NoError(t, err)
	f.space, err = s.CreateTopic(ctx, Topic{Name: "Space", Slug: "space", Stage: "KS2"})
	require.NoError(t, err)
	f.empty, err = s.CreateTopic(ctx, Topic{Name: "Fractions", Slug: "fractions", Stage: "KS3"})
	require.NoError(t, err)

	f.mercury, err = s.CreateQuestion(ctx, Question{
		TopicID: f.space.ID, Content: "Which planet is closest to the Sun?", CorrectAnswer: "Mercury",
		Distractors: []string{"Venus", "Earth", "Mars"}, Difficulty: 2, Explanation: strPtr("Mercury is the first planet."),
	})
	require.NoError(t, err)
	f.copper, err = s.CreateQuestion(ctx, Question{
		TopicID: f.elec.ID, Content: "Which of these is a good conductor of electricity?", CorrectAnswer: "Copper",
		Distractors: []string{"Wood", "Plastic", "Rubber"}, Difficulty: 2,
	})
	require.NoError(t, err)
	f.sw, err = s.CreateQuestion(ctx, Question{
		TopicID: f.elec.ID, Content: "What component breaks a circuit to stop the flow?", CorrectAnswer: "Switch",
		Distractors: []string{"Battery", "Bulb", "Wire"}, Difficulty: 3,
	})
	require.NoError(t, err)
	return f
}

func TestNextQuestion_OnlyFromTopic(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)
	want := map[int64]bool{f.copper.ID: true, f.sw.ID: true}

	for i := 0; i < 50; i++ {
		q, err := svc.NextQuestion(context.Background(), f.elec.ID)
		require.NoError(t, err)
		assert.True(t, want[q.ID], "question %d is not in topic %d", q.ID, f.elec.ID)
		assert.Equal(t, f.elec.ID, q.TopicID)
	}
}

func TestNextQuestion_UsesInjectedPicker(t *testing.T) {
	f := newFixture(t)
	var sizes []int
	svc := NewService(f.store, WithRand(func(n int) int { sizes = append(sizes, n); return n - 1 }))

	q, err := svc.NextQuestion(context.Background(), f.elec.ID)
	require.NoError(t, err)
	assert.Equal(t, f.sw.ID, q.ID)
	assert.Equal(t, []int{2}, sizes)

	// independent calls may repeat
	again, err := svc.NextQuestion(context.Background(), f.elec.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, again.ID)
}

func TestNextQuestion_EmptyTopic(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	_, err := svc.NextQuestion(context.Background(), f.empty.ID)
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = svc.NextQuestion(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestSubmit_CorrectAnswer(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	res, err := svc.Submit(context.Background(), Submission{UserID: f.learner, QuestionID: f.mercury.ID, Answer: "Mercury", TimeTaken: 4})
	require.NoError(t, err)
	assert.Equal(t, SubmitResult{
		Correct:       true,
		CorrectAnswer: "Mercury",
		CoinsEarned:   10,
		NewMastery:    1,
		Feedback:      FeedbackCorrect,
	}, res)
}

func TestSubmit_WrongAnswerUsesExplanation(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	res, err := svc.Submit(context.Background(), Submission{UserID: f.learner, QuestionID: f.mercury.ID, Answer: "Venus"})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, 0, res.CoinsEarned)
	assert.Equal(t, 0.0, res.NewMastery)
	assert.Equal(t, "Mercury is the first planet.", res.Feedback)
	assert.Equal(t, "Mercury", res.CorrectAnswer)
}

func TestSubmit_WrongAnswerWithoutExplanation(t *testing.T) {
	f := newFixture(t)
	res, err := NewService(f.store).Submit(context.Background(), Submission{UserID: f.learner, QuestionID: f.copper.ID, Answer: "Wood"})
	require.NoError(t, err)
	assert.Equal(t, FeedbackRetry, res.Feedback)
}

func TestSubmit_CaseSensitive(t *testing.T) {
	f := newFixture(t)
	res, err := NewService(f.store).Submit(context.Background(), Submission{UserID: f.learner, QuestionID: f.mercury.ID, Answer: "mercury"})
	require.NoError(t, err)
	assert.False(t, res.Correct)
}

func TestSubmit_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.store)

	_, err := svc.Submit(ctx, Submission{UserID: f.learner, QuestionID: f.copper.ID, Answer: "Wood"})
	require.NoError(t, err)
	res, err := svc.Submit(ctx, Submission{UserID: f.learner, QuestionID: f.sw.ID, Answer: "Switch"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.NewMastery)

	res, err = svc.Submit(ctx, Submission{UserID: f.learner, QuestionID: f.copper.ID, Answer: "Plastic"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.NewMastery)

	events, err := svc.LearnerEvents(ctx, f.learner, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.False(t, events[0].Correct, "newest first")
	assert.True(t, events[1].Correct)
}

func TestSubmit_MasteryIsPerTopic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.store)

	_, err := svc.Submit(ctx, Submission{UserID: f.learner, QuestionID: f.mercury.ID, Answer: "Mercury"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, Submission{UserID: f.learner, QuestionID: f.copper.ID, Answer: "Rubber"})
	require.NoError(t, err)

	topics, err := svc.TopicsForLearner(ctx, "KS2", f.learner)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	got := map[string]float64{}
	for _, tp := range topics {
		got[tp.Slug] = tp.Mastery
	}
	assert.Equal(t, map[string]float64{"electricity": 0, "space": 1}, got)

	all, err := svc.LearnerMastery(ctx, f.learner)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSubmit_PolicyReceivesPriorAndMeta(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var gotPrior []float64
	var gotMeta mastery.Meta
	halfway := func(prior float64, correct bool, meta mastery.Meta) float64 {
		gotPrior = append(gotPrior, prior)
		gotMeta = meta
		if correct {
			return prior + (1-prior)/2
		}
		return prior / 2
	}
	svc := NewService(f.store, WithPolicy(halfway))

	res, err := svc.Submit(ctx, Submission{UserID: f.learner, QuestionID: f.mercury.ID, Answer: "Mercury", TimeTaken: 7})
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.NewMastery)
	res, err = svc.Submit(ctx, Submission{UserID: f.learner, QuestionID: f.mercury.ID, Answer: "Mercury", TimeTaken: 7})
	require.NoError(t, err)
	assert.Equal(t, 0.75, res.NewMastery)

	assert.Equal(t, []float64{0, 0.5}, gotPrior)
	assert.Equal(t, mastery.Meta{TimeTaken: 7, Difficulty: 2}, gotMeta)
}

func TestSubmit_UnknownQuestion(t *testing.T) {
	f := newFixture(t)
	_, err := NewService(f.store).Submit(context.Background(), Submission{UserID: f.learner, QuestionID: 424242, Answer: "x"})
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	events, err := f.store.ListEvents(context.Background(), f.learner, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

// failingStore breaks RecordAnswer so the service must not report success.
type failingStore struct {
	*SQLStore
}

func (failingStore) RecordAnswer(context.Context, LearningEvent, Mastery) (LearningEvent, error) {
	return LearningEvent{}, errors.New("disk full")
}

func TestSubmit_RecordFailureIsReturned(t *testing.T) {
	f := newFixture(t)
	_, err := NewService(failingStore{f.store}).Submit(context.Background(), Submission{UserID: f.learner, QuestionID: f.mercury.ID, Answer: "Mercury"})
	assert.EqualError(t, err, "disk full")
}

func TestTopics_StageFilter(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	all, err := svc.Topics(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ks3, err := svc.Topics(context.Background(), "KS3")
	require.NoError(t, err)
	require.Len(t, ks3, 1)
	assert.Equal(t, "fractions", ks3[0].Slug)
}

func TestLearnerEvents_LimitBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.store)
	for i := 0; i < 3; i++ {
		_, err := svc.Submit(ctx, Submission{UserID: f.learner, QuestionID: f.mercury.ID, Answer: "Mercury"})
		require.NoError(t, err)
	}

	two, err := svc.LearnerEvents(ctx, f.learner, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	capped, err := svc.LearnerEvents(ctx, f.learner, MaxEventLimit+100)
	require.NoError(t, err)
	assert.Len(t, capped, 3)
}

func TestQuestionView_HidesAnswer(t *testing.T) {
	q := Question{ID: 1, TopicID: 2, Content: "c", CorrectAnswer: "Mercury",
		Distractors: []string{"Venus", "Earth", "Mars"}, Explanation: strPtr("e")}
	v := q.View()
	assert.Equal(t, []string{"Earth", "Mars", "Mercury", "Venus"}, v.Options)
	assert.Equal(t, int64(1), v.ID)
}
