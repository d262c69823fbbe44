// Package catalog is the read-only adapter to the exam catalog service. The
// wire format uses camelCase field names; translation to the internal model
// happens entirely at this boundary.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrExamNotFound is returned for a 404 from the catalog.
var ErrExamNotFound = errors.New("exam not found")

// Client fetches exam definitions.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a catalog client against baseURL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("component", "catalog_client").Logger(),
	}
}

// ─── Wire DTOs (catalog casing) ─────────────────────────────────────

type examDTO struct {
	ExamID          string    `json:"examId"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"durationMinutes"`
	Parts           []partDTO `json:"parts"`
}

type partDTO struct {
	TaskType    string        `json:"taskType"`
	PassageText string        `json:"passageText"`
	AudioURL    string        `json:"audioUrl"`
	Questions   []questionDTO `json:"questions"`
}

type questionDTO struct {
	QuestionID    string      `json:"questionId"`
	QuestionType  string      `json:"questionType"`
	QuestionText  string      `json:"questionText"`
	Options       []optionDTO `json:"options"`
	CorrectAnswer string      `json:"correctAnswer"`
}

type optionDTO struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// GetExam fetches and translates one exam definition.
func (c *Client) GetExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	url := fmt.Sprintf("%s/exam/%s", c.baseURL, examID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch exam: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrExamNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch exam: unexpected status %d", resp.StatusCode)
	}

	var dto examDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("decode exam: %w", err)
	}

	exam, err := dto.translate()
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("exam_id", exam.ID.String()).
		Int("parts", len(exam.Parts)).
		Int("questions", exam.QuestionCount()).
		Msg("Exam fetched")
	return exam, nil
}

func (d *examDTO) translate() (*model.Exam, error) {
	id, err := uuid.Parse(d.ExamID)
	if err != nil {
		return nil, fmt.Errorf("invalid exam id %q: %w", d.ExamID, err)
	}

	exam := &model.Exam{
		ID:              id,
		Title:           d.Title,
		DurationMinutes: d.DurationMinutes,
		Parts:           make([]model.Part, 0, len(d.Parts)),
	}

	for _, p := range d.Parts {
		part := model.Part{
			TaskType:  model.TaskType(p.TaskType),
			Passage:   p.PassageText,
			AudioURL:  p.AudioURL,
			Questions: make([]model.Question, 0, len(p.Questions)),
		}
		for _, q := range p.Questions {
			qType := model.TaskType(q.QuestionType)
			if q.QuestionType == "" {
				qType = part.TaskType
			}
			question := model.Question{
				NativeID:      q.QuestionID,
				Type:          qType,
				Prompt:        q.QuestionText,
				CorrectAnswer: q.CorrectAnswer,
			}
			for _, o := range q.Options {
				question.Options = append(question.Options, model.Option{Key: o.Key, Label: o.Label})
			}
			part.Questions = append(part.Questions, question)
		}
		exam.Parts = append(exam.Parts, part)
	}

	return exam, nil
}
