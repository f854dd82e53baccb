package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"leetclone/internal/logger"
	"leetclone/internal/models"

	"go.uber.org/zap"
)

const msgUnexpectedError = "An unexpected error occurred"

type SubmissionStore interface {
	SaveSubmission(ctx context.Context, rec *models.SubmissionRecord) error
}

// ProgressPublisher hands a solved-flag update to whatever applies it.
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, p models.QuestionProgress) error
}

type Evaluator struct {
	runner      TestCaseRunner
	submissions SubmissionStore
	progress    ProgressPublisher

	now            func() time.Time
	intn           func(n int) int
	publishTimeout time.Duration

	pending sync.WaitGroup
}

type EvaluatorOption func(*Evaluator)

func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) { e.now = now }
}

// WithRandom replaces the source of the placeholder runtime and memory figures.
func WithRandom(intn func(n int) int) EvaluatorOption {
	return func(e *Evaluator) { e.intn = intn }
}

func NewEvaluator(runner TestCaseRunner, submissions SubmissionStore, progress ProgressPublisher, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		runner:         runner,
		submissions:    submissions,
		progress:       progress,
		now:            time.Now,
		intn:           rand.IntN,
		publishTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes every test case in order, one at a time. A failing case is
// recorded as Error and the loop carries on.
func (e *Evaluator) Run(ctx context.Context, cases []models.TestCase, language, code string) []models.TestCase {
	results := make([]models.TestCase, len(cases))
	for i, tc := range cases {
		results[i] = e.runOne(ctx, i, tc, language, code)
	}
	return results
}

func (e *Evaluator) runOne(ctx context.Context, index int, tc models.TestCase, language, code string) (result models.TestCase) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("Test case run panicked",
				zap.Int("index", index),
				zap.Any("panic", r))
			msg := fmt.Sprint(r)
			if err, ok := r.(error); ok {
				msg = err.Error()
			}
			if msg == "" {
				msg = msgUnexpectedError
			}
			result = tc.WithResult(models.StatusError, msg)
		}
	}()
	return e.runner.RunTestCase(ctx, tc, language, code)
}

// Verdict is Accepted iff every case is Accepted.
func Verdict(results []models.TestCase) string {
	for _, tc := range results {
		if tc.Status != models.StatusAccepted {
			return models.StatusFailed
		}
	}
	return models.StatusAccepted
}

// SubmissionID is the composite key of a submission record.
func SubmissionID(uid, titleSlug string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", uid, titleSlug, at.UnixMilli())
}

// Submit runs all cases, computes the verdict, then persists the record and
// publishes the solved flag. Neither side effect can change the verdict.
func (e *Evaluator) Submit(ctx context.Context, session models.Session, titleSlug string, cases []models.TestCase, language, code string) ([]models.TestCase, models.SubmissionResult) {
	log := logger.FromContext(ctx)

	results := e.Run(ctx, cases, language, code)
	verdict := Verdict(results)

	// runtime and memory are placeholders, not measurements
	result := models.SubmissionResult{
		Status:   verdict,
		Language: language,
		Runtime:  fmt.Sprintf("%dms", e.intn(500)+50),
		Memory:   fmt.Sprintf("%dMB", e.intn(50)+10),
	}

	now := e.now()
	rec := &models.SubmissionRecord{
		ID:        SubmissionID(session.UserID, titleSlug, now),
		Code:      code,
		Language:  language,
		Timestamp: now,
		UID:       session.UserID,
		TitleSlug: titleSlug,
		Status:    result.Status,
		Runtime:   result.Runtime,
		Memory:    result.Memory,
	}
	if err := e.submissions.SaveSubmission(ctx, rec); err != nil {
		log.Error("Failed to save submission",
			zap.String("submission_id", rec.ID),
			zap.Error(err))
	} else {
		log.Info("Submission saved",
			zap.String("submission_id", rec.ID),
			zap.String("status", rec.Status))
	}

	points := 0
	if verdict == models.StatusAccepted {
		points = 100
	}
	e.publishProgress(ctx, models.QuestionProgress{
		UID:           session.UserID,
		TitleSlug:     titleSlug,
		Solved:        verdict == models.StatusAccepted,
		Points:        points,
		SubmittedDate: now,
	})

	return results, result
}

func (e *Evaluator) publishProgress(ctx context.Context, p models.QuestionProgress) {
	if e.progress == nil {
		return
	}
	log := logger.FromContext(ctx)
	bg := context.WithoutCancel(ctx)

	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		pctx, cancel := context.WithTimeout(bg, e.publishTimeout)
		defer cancel()
		if err := e.progress.PublishProgress(pctx, p); err != nil {
			log.Error("Failed to publish question progress",
				zap.String("uid", p.UID),
				zap.String("title_slug", p.TitleSlug),
				zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight progress publishes finish.
func (e *Evaluator) Wait() {
	e.pending.Wait()
}
