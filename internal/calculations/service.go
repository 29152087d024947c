// Package calculations stores the solved problems of each user and serves
// them back as JSON or PDF.
package calculations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"ai-calculator/internal/models"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrTitleTooLong  = errors.New("title is too long")
)

const defaultTitleLayout = "2006-01-02 15:04"

// SaveRequest is the body of POST /api/calculations.
type SaveRequest struct {
	LatexInput    string          `json:"latex_input" validate:"required"`
	OperationType string          `json:"operation_type" validate:"required,oneof=solve laplace fourier"`
	Solution      models.Solution `json:"solution"`
	AIExplanation string          `json:"ai_explanation,omitempty"`
	Title         string          `json:"title,omitempty" validate:"max=200"`
}

type Service struct {
	repo     *Repository
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo, validate: validator.New(), now: time.Now}
}

// Save stores a solved problem for userID. A blank title becomes
// "<Operation> - YYYY-MM-DD HH:MM" in UTC.
func (s *Service) Save(ctx context.Context, userID string, req SaveRequest) (*models.Calculation, error) {
	req.LatexInput = strings.TrimSpace(req.LatexInput)
	req.OperationType = strings.ToLower(strings.TrimSpace(req.OperationType))
	req.Title = strings.TrimSpace(req.Title)
	if err := s.check(req); err != nil {
		return nil, err
	}

	op := models.OperationType(req.OperationType)
	now := s.now().UTC()
	title := req.Title
	if title == "" {
		title = op.Label() + " - " + now.Format(defaultTitleLayout)
	}
	calc := &models.Calculation{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         title,
		OperationType: op,
		LatexInput:    req.LatexInput,
		Solution:      req.Solution,
		AIExplanation: req.AIExplanation,
		CreatedAt:     now,
	}
	if err := s.repo.Create(ctx, calc); err != nil {
		return nil, err
	}
	return calc, nil
}

func (s *Service) check(req SaveRequest) error {
	if req.Solution.IsEmpty() {
		return ErrMissingFields
	}
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate calculation: %w", err)
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "oneof":
			return fmt.Errorf("%w: %q", models.ErrUnsupportedOperation, req.OperationType)
		case "max":
			return ErrTitleTooLong
		}
	}
	return ErrMissingFields
}

func (s *Service) List(ctx context.Context, userID string) ([]models.Calculation, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*models.Calculation, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
