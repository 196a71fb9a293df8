package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/edukid/internal/account"
	"github.com/mind-engage/edukid/internal/apierr"
	authmw "github.com/mind-engage/edukid/internal/auth/middleware"
	"github.com/mind-engage/edukid/internal/learning"
	"github.com/mind-engage/edukid/internal/logger"
	"github.com/mind-engage/edukid/internal/schema"
)

// GET /topics?stage=KS2
// Students see their mastery per topic; everyone else gets the bare list.
func ListTopicsHandler(svc *learning.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stage := r.URL.Query().Get("stage")
		if id, ok := authmw.IdentityFromContext(r.Context()); ok && id.Role == account.RoleStudent {
			topics, err := svc.TopicsForLearner(r.Context(), stage, id.UserID)
			if err != nil {
				respondError(w, r, log, err)
				return
			}
			respondJSON(w, http.StatusOK, topics)
			return
		}
		topics, err := svc.Topics(r.Context(), stage)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, topics)
	}
}

// GET /next-question?topicId=3
func NextQuestionHandler(svc *learning.Service, reveal bool, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topicID, err := strconv.ParseInt(r.URL.Query().Get("topicId"), 10, 64)
		if err != nil || topicID <= 0 {
			apierr.Write(w, apierr.BadRequest("Invalid topic ID"))
			return
		}
		q, err := svc.NextQuestion(r.Context(), topicID)
		if errors.Is(err, learning.ErrNoQuestions) {
			apierr.Write(w, apierr.NotFound("No questions found"))
			return
		}
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		if reveal {
			respondJSON(w, http.StatusOK, q)
			return
		}
		respondJSON(w, http.StatusOK, q.View())
	}
}

type submitRequest struct {
	QuestionID int64  `json:"questionId"`
	Answer     string `json:"answer"`
	TimeTaken  int    `json:"timeTaken"`
}

var submitSchema = &schema.Schema{
	Name: "submit-answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questionId": map[string]any{"type": "integer", "minimum": 1},
			"answer":     map[string]any{"type": "string"},
			"timeTaken":  map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []any{"questionId", "answer"},
	},
}

// POST /submit-answer  { "questionId": 3, "answer": "Mercury", "timeTaken": 12 }
func SubmitAnswerHandler(svc *learning.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authmw.IdentityFromContext(r.Context())
		if !ok {
			apierr.Write(w, apierr.Unauthorized("Unauthorized"))
			return
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
		if err != nil {
			apierr.Write(w, apierr.BadRequest("Validation error"))
			return
		}
		if err := schema.Validate(submitSchema, raw); err != nil {
			apierr.Write(w, apierr.BadRequest("Validation error"))
			return
		}
		var req submitRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			apierr.Write(w, apierr.BadRequest("Validation error"))
			return
		}

		res, err := svc.Submit(r.Context(), learning.Submission{
			UserID:     id.UserID,
			QuestionID: req.QuestionID,
			Answer:     req.Answer,
			TimeTaken:  req.TimeTaken,
		})
		if errors.Is(err, learning.ErrQuestionNotFound) {
			apierr.Write(w, apierr.NotFound("Question not found"))
			return
		}
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

func learnerID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	return id
}

// GET /learners/{userID}/mastery
func LearnerMasteryHandler(svc *learning.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ms, err := svc.LearnerMastery(r.Context(), learnerID(r))
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, ms)
	}
}

// GET /learners/{userID}/events?limit=20
func LearnerEventsHandler(svc *learning.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				apierr.Write(w, apierr.BadRequest("Invalid limit"))
				return
			}
			limit = n
		}
		evs, err := svc.LearnerEvents(r.Context(), learnerID(r), limit)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, evs)
	}
}
