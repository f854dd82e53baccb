package models

import (
	"errors"
	"strings"
	"time"
)

// SubmissionResult is the verdict snapshot shown after a submit.
type SubmissionResult struct {
	Status   string `json:"status"`
	Language string `json:"language"`
	Runtime  string `json:"runtime"`
	Memory   string `json:"memory"`
}

// SubmissionRecord is persisted once per submit and never updated.
type SubmissionRecord struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
	UID       string    `json:"uid"`
	TitleSlug string    `json:"titleSlug"`
	Status    string    `json:"status"`
	Runtime   string    `json:"runtime"`
	Memory    string    `json:"memory"`
}

// QuestionProgress is the per-user solved flag of one problem.
type QuestionProgress struct {
	UID           string    `json:"uid"`
	TitleSlug     string    `json:"titleSlug"`
	Solved        bool      `json:"solved"`
	Points        int       `json:"points"`
	SubmittedDate time.Time `json:"submittedDate"`
}

type RunRequest struct {
	TitleSlug string     `json:"titleSlug" binding:"required"`
	Language  string     `json:"language" binding:"required"`
	Code      string     `json:"code" binding:"required"`
	TestCases []TestCase `json:"testCases"`
}

type SubmitRequest struct {
	TitleSlug string `json:"titleSlug" binding:"required"`
	Language  string `json:"language" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

type AnalyzeRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language"`
	Mode     string `json:"mode"`
}

func (r *RunRequest) ValidateRequest() error {
	return validateSource(r.TitleSlug, r.Code)
}

func (r *SubmitRequest) ValidateRequest() error {
	return validateSource(r.TitleSlug, r.Code)
}

func validateSource(titleSlug, code string) error {
	if strings.TrimSpace(titleSlug) == "" {
		return errors.New("titleSlug cannot be empty")
	}
	if strings.TrimSpace(code) == "" {
		return errors.New("source code cannot be empty")
	}
	return nil
}
