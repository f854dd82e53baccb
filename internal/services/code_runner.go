package services

import (
	"context"
	"strings"

	"leetclone/internal/logger"
	"leetclone/internal/models"

	"go.uber.org/zap"
)

const (
	msgUnexpectedResponse = "Unexpected API response structure"
	msgSubmitFailed       = "Error submitting code"
	msgNoOutput           = "No output"
)

// TestCaseRunner executes one solution against one test case.
type TestCaseRunner interface {
	RunTestCase(ctx context.Context, tc models.TestCase, language, sourceCode string) models.TestCase
}

type CodeRunnerService struct {
	executor Executor
}

func NewCodeRunnerService(executor Executor) *CodeRunnerService {
	return &CodeRunnerService{executor: executor}
}

// RunTestCase never fails: transport and execution problems come back as a
// test case with status Error.
func (s *CodeRunnerService) RunTestCase(ctx context.Context, tc models.TestCase, language, sourceCode string) models.TestCase {
	log := logger.FromContext(ctx)

	program, err := ComposeProgram(language, tc, sourceCode)
	if err != nil {
		return tc.WithResult(models.StatusError, err.Error())
	}

	log.Debug("Executing test case",
		zap.String("test_case", tc.Name),
		zap.String("language", language),
	)

	resp, err := s.executor.Execute(ctx, language, program, tc.Input)
	if err != nil {
		log.Warn("Execution request failed",
			zap.String("test_case", tc.Name),
			zap.Error(err))
		msg := err.Error()
		if msg == "" {
			msg = msgSubmitFailed
		}
		return tc.WithResult(models.StatusError, msg)
	}

	return mapExecution(tc, resp)
}

func mapExecution(tc models.TestCase, resp *ExecuteResponse) models.TestCase {
	if resp == nil || resp.Run == nil {
		return tc.WithResult(models.StatusError, msgUnexpectedResponse)
	}

	run := resp.Run
	if run.Stderr != "" || run.CompileOutput != "" {
		if run.Stderr != "" {
			return tc.WithResult(models.StatusError, run.Stderr)
		}
		return tc.WithResult(models.StatusError, run.CompileOutput)
	}

	output := run.Stdout
	if output == "" {
		output = msgNoOutput
	}
	if strings.TrimSpace(output) == strings.TrimSpace(tc.ExpectedOutput) {
		return tc.WithResult(models.StatusAccepted, output)
	}
	return tc.WithResult(models.StatusWrongAnswer, output)
}
