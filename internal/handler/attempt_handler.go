package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fluentia/exam-engine/internal/auth"
	"github.com/fluentia/exam-engine/internal/engine"
	"github.com/fluentia/exam-engine/internal/middleware"
	"github.com/fluentia/exam-engine/internal/model"
	"github.com/fluentia/exam-engine/internal/repository"
	"github.com/fluentia/exam-engine/internal/response"
	"github.com/fluentia/exam-engine/internal/validator"
)

// AttemptHandler handles the candidate-facing attempt lifecycle endpoints.
type AttemptHandler struct {
	manager  *engine.Manager
	attempts *repository.AttemptRepository
	log      zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler. attempts may be nil when no
// durable record store is configured.
func NewAttemptHandler(manager *engine.Manager, attempts *repository.AttemptRepository, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		manager:  manager,
		attempts: attempts,
		log:      log.With().Str("component", "attempt_handler").Logger(),
	}
}

// Open godoc
// POST /api/v1/attempts/exams/:exam_id/open
// Opens (or resumes) the attempt for this exam on this device. If a snapshot
// exists the session comes back mid-attempt; the response state says where.
func (h *AttemptHandler) Open(c *gin.Context) {
	claims, examID, ok := h.identify(c)
	if !ok {
		return
	}

	var req model.OpenAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	// A finished attempt cannot be reopened on the same device.
	if h.attempts != nil {
		finished, err := h.attempts.HasFinished(c.Request.Context(), examID, claims.Namespace())
		if err != nil {
			h.log.Error().Err(err).Msg("Finished-attempt lookup failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		if finished {
			response.Fail(c, http.StatusConflict, response.ErrAttemptFinished)
			return
		}
	}

	sess, err := h.manager.Open(c.Request.Context(), examID, claims.Namespace(), req.Mode)
	if err != nil {
		if errors.Is(err, engine.ErrExamUnavailable) {
			response.Fail(c, http.StatusBadGateway, response.ErrExamUnavailable)
			return
		}
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Open attempt failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": sess.State()})
}

// Start godoc
// POST /api/v1/attempts/exams/:exam_id/start
// The explicit user transition out of NOT_STARTED. Idempotent on a running
// attempt.
func (h *AttemptHandler) Start(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := sess.Start(c.Request.Context()); err != nil {
		h.failEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": sess.State()})
}

// GetState godoc
// GET /api/v1/attempts/exams/:exam_id/state
func (h *AttemptHandler) GetState(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"state": sess.State(),
		"guard": sess.GuardState(),
	})
}

// GetPaper godoc
// GET /api/v1/attempts/exams/:exam_id/paper
// Returns the render model: parts, gap-fill segments and questions with
// display sequence numbers and current answers.
func (h *AttemptHandler) GetPaper(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"parts": sess.Paper()})
}

// SetAnswer godoc
// PUT /api/v1/attempts/exams/:exam_id/answers
func (h *AttemptHandler) SetAnswer(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req model.SetAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := sess.SetAnswer(c.Request.Context(), req.QuestionID, req.Value); err != nil {
		h.failEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// Skip godoc
// POST /api/v1/attempts/exams/:exam_id/skip
// Jumps to the next listening part; reading attempts have no parts to skip.
func (h *AttemptHandler) Skip(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := sess.Skip(c.Request.Context()); err != nil {
		h.failEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": sess.State()})
}

// FinishPreview godoc
// GET /api/v1/attempts/exams/:exam_id/finish-preview
// Advisory unanswered-question list shown on the confirmation dialog.
func (h *AttemptHandler) FinishPreview(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	unanswered := sess.Unanswered()
	if unanswered == nil {
		unanswered = []int{}
	}
	response.Success(c, http.StatusOK, gin.H{
		"unanswered": unanswered,
		"total":      sess.Mapper().Count(),
	})
}

// Finish godoc
// POST /api/v1/attempts/exams/:exam_id/finish
// The user-confirmed submission. Requires confirm=true; never blocked by
// unanswered questions.
func (h *AttemptHandler) Finish(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req model.FinishAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if !req.Confirm {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"confirm": "confirm must be true"})
		return
	}

	result, err := sess.Finish(c.Request.Context())
	if err != nil {
		h.failEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"result_id": result.ResultID,
		"view_path": result.ViewPath(sess.Mode()),
	})
}

// Abandon godoc
// DELETE /api/v1/attempts/exams/:exam_id
// Tears down the session and deletes the recovery snapshot.
func (h *AttemptHandler) Abandon(c *gin.Context) {
	claims, examID, ok := h.identify(c)
	if !ok {
		return
	}

	if err := h.manager.Abandon(c.Request.Context(), examID, claims.Namespace()); err != nil {
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Abandon failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "abandoned"})
}

// GetResult godoc
// GET /api/v1/attempts/exams/:exam_id/result
// Returns the durable record of a finished attempt on this device.
func (h *AttemptHandler) GetResult(c *gin.Context) {
	claims, examID, ok := h.identify(c)
	if !ok {
		return
	}

	if h.attempts == nil {
		response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
		return
	}

	rec, err := h.attempts.GetByExamAndNamespace(c.Request.Context(), examID, claims.Namespace())
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Result lookup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	result := model.SubmissionResult{ResultID: rec.ResultID}
	response.Success(c, http.StatusOK, gin.H{
		"record":    rec,
		"view_path": result.ViewPath(rec.Mode),
	})
}

// ─── helpers ─────────────────────────────────────────────────────────

func (h *AttemptHandler) identify(c *gin.Context) (*auth.Claims, uuid.UUID, bool) {
	cl := middleware.GetClaims(c)
	if cl == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return cl, examID, true
}

func (h *AttemptHandler) session(c *gin.Context) (*engine.Session, bool) {
	claims, examID, ok := h.identify(c)
	if !ok {
		return nil, false
	}

	sess, found := h.manager.Get(examID, claims.Namespace())
	if !found {
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotOpen)
		return nil, false
	}
	return sess, true
}

// failEngine maps engine sentinel errors to API error codes.
func (h *AttemptHandler) failEngine(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrAttemptFinished), errors.Is(err, engine.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptFinished)
	case errors.Is(err, engine.ErrAttemptNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotStarted)
	case errors.Is(err, engine.ErrUnknownQuestion):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownQuestion)
	case errors.Is(err, engine.ErrFinishNotAllowed):
		response.Fail(c, http.StatusConflict, response.ErrFinishNotAllowed)
	case errors.Is(err, engine.ErrSkipUnavailable):
		response.Fail(c, http.StatusConflict, response.ErrSkipUnavailable)
	case errors.Is(err, engine.ErrSubmissionInFlight):
		response.Fail(c, http.StatusConflict, response.ErrSubmissionInFlight)
	default:
		h.log.Error().Err(err).Msg("Attempt operation failed")
		response.Fail(c, http.StatusBadGateway, response.ErrSubmissionFailed)
	}
}
