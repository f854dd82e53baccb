package services

import (
	"context"
	"errors"
	"time"

	"leetclone/internal/apperrors"
	"leetclone/internal/logger"
	"leetclone/internal/models"

	"go.uber.org/zap"
)

const questionCacheTTL = time.Hour

// QuestionSource fetches problem metadata.
type QuestionSource interface {
	QuestionDetail(ctx context.Context, titleSlug string) (*models.QuestionDetail, error)
}

type ProblemService struct {
	questions QuestionSource
	cache     Cache
	fixtures  *FixtureSet
}

// NewProblemService accepts a nil cache.
func NewProblemService(questions QuestionSource, cache Cache, fixtures *FixtureSet) *ProblemService {
	if fixtures == nil {
		fixtures = NewFixtureSet(nil)
	}
	return &ProblemService{questions: questions, cache: cache, fixtures: fixtures}
}

func questionCacheKey(titleSlug string) string {
	return "question:" + titleSlug
}

func (s *ProblemService) Question(ctx context.Context, titleSlug string) (*models.QuestionDetail, error) {
	log := logger.FromContext(ctx)

	if s.cache != nil {
		var cached models.QuestionDetail
		err := s.cache.Get(ctx, questionCacheKey(titleSlug), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Warn("Question cache read failed", zap.String("title_slug", titleSlug), zap.Error(err))
		}
	}

	q, err := s.questions.QuestionDetail(ctx, titleSlug)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, questionCacheKey(titleSlug), q, questionCacheTTL); err != nil {
			log.Warn("Question cache write failed", zap.String("title_slug", titleSlug), zap.Error(err))
		}
	}
	return q, nil
}

// GetProblem returns the question and the public view of its fixture cases.
func (s *ProblemService) GetProblem(ctx context.Context, titleSlug string) (*models.ProblemDetail, error) {
	q, err := s.Question(ctx, titleSlug)
	if err != nil {
		return nil, err
	}
	cases, _ := s.fixtures.Cases(titleSlug)
	if cases == nil {
		cases = []models.TestCase{}
	}
	return &models.ProblemDetail{Question: q, TestCases: cases}, nil
}

// Snippet returns the starter code for language.
func (s *ProblemService) Snippet(ctx context.Context, titleSlug, language string) (string, error) {
	cfg, err := GetLanguageConfig(language)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.InvalidParams, "unsupported language")
	}
	q, err := s.Question(ctx, titleSlug)
	if err != nil {
		return "", err
	}
	if cfg.SnippetIndex >= len(q.CodeSnippets) {
		return "", apperrors.Newf(apperrors.NotFound, "no %s snippet for %s", language, titleSlug)
	}
	return q.CodeSnippets[cfg.SnippetIndex].Code, nil
}

// CasesForRun returns the fixture cases, or the caller's cases with harness
// templates taken from the first fixture case.
func (s *ProblemService) CasesForRun(titleSlug string, custom []models.TestCase) ([]models.TestCase, error) {
	fixtures, ok := s.fixtures.Cases(titleSlug)
	if !ok || len(fixtures) == 0 {
		return nil, apperrors.Newf(apperrors.NotFound, "no test cases for %s", titleSlug)
	}
	if len(custom) == 0 {
		return fixtures, nil
	}
	out := make([]models.TestCase, len(custom))
	for i, tc := range custom {
		tc.Status = ""
		tc.Output = nil
		out[i] = tc.InheritHarness(fixtures[0])
	}
	return out, nil
}

// CasesForSubmit returns the fixture cases. An empty set is an error since
// the verdict over no cases would be Accepted.
func (s *ProblemService) CasesForSubmit(titleSlug string) ([]models.TestCase, error) {
	fixtures, ok := s.fixtures.Cases(titleSlug)
	if !ok || len(fixtures) == 0 {
		return nil, apperrors.Newf(apperrors.NotFound, "no test cases for %s", titleSlug)
	}
	return fixtures, nil
}
