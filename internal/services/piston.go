package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leetclone/internal/apperrors"
)

type ExecuteFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ExecuteRequest is the body accepted by the Piston /execute endpoint.
type ExecuteRequest struct {
	Language           string        `json:"language"`
	Version            string        `json:"version"`
	Files              []ExecuteFile `json:"files"`
	Stdin              string        `json:"stdin"`
	Args               []string      `json:"args"`
	CompileTimeout     int           `json:"compile_timeout"`
	RunTimeout         int           `json:"run_timeout"`
	CompileMemoryLimit int           `json:"compile_memory_limit"`
	RunMemoryLimit     int           `json:"run_memory_limit"`
}

type RunOutput struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Output        string `json:"output,omitempty"`
	Code          *int   `json:"code,omitempty"`
	Signal        string `json:"signal,omitempty"`
}

// ExecuteResponse keeps Run nil when the upstream body has no "run" object.
type ExecuteResponse struct {
	Language string     `json:"language,omitempty"`
	Version  string     `json:"version,omitempty"`
	Run      *RunOutput `json:"run"`
	Compile  *RunOutput `json:"compile,omitempty"`
	Message  string     `json:"message,omitempty"`
}

type Runtime struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Aliases  []string `json:"aliases"`
}

// Executor runs a composed program against stdin.
type Executor interface {
	Execute(ctx context.Context, language, source, stdin string) (*ExecuteResponse, error)
}

type PistonConfig struct {
	BaseURL        string
	CompileTimeout int
	RunTimeout     int
	HTTPTimeout    time.Duration
}

type PistonClient struct {
	cfg  PistonConfig
	http *http.Client
}

func NewPistonClient(cfg PistonConfig) *PistonClient {
	if cfg.CompileTimeout == 0 {
		cfg.CompileTimeout = 10000
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = 3000
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PistonClient{cfg: cfg, http: &http.Client{Timeout: cfg.HTTPTimeout}}
}

// BuildRequest fills the fixed execution parameters around one program.
func (p *PistonClient) BuildRequest(language, source, stdin string) ExecuteRequest {
	return ExecuteRequest{
		Language:           language,
		Version:            "*",
		Files:              []ExecuteFile{{Name: "main." + language, Content: source}},
		Stdin:              stdin,
		Args:               []string{},
		CompileTimeout:     p.cfg.CompileTimeout,
		RunTimeout:         p.cfg.RunTimeout,
		CompileMemoryLimit: -1,
		RunMemoryLimit:     -1,
	}
}

func (p *PistonClient) Execute(ctx context.Context, language, source, stdin string) (*ExecuteResponse, error) {
	raw, err := p.ExecuteRaw(ctx, p.BuildRequest(language, source, stdin))
	if err != nil {
		return nil, err
	}
	var resp ExecuteResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.Wrap(err, apperrors.TransportFailure, "decode execution response")
	}
	return &resp, nil
}

// ExecuteRaw posts req and returns the upstream body untouched.
func (p *PistonClient) ExecuteRaw(ctx context.Context, req ExecuteRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode execution request: %w", err)
	}
	return p.do(ctx, http.MethodPost, "/execute", bytes.NewReader(body))
}

func (p *PistonClient) Runtimes(ctx context.Context) (json.RawMessage, error) {
	return p.do(ctx, http.MethodGet, "/runtimes", nil)
}

// UpstreamError carries a non-2xx answer from an upstream API.
type UpstreamError struct {
	Status int
	Body   json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.Status)
}

func (p *PistonClient) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.TransportFailure, "execution service unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.TransportFailure, "read execution response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Wrap(&UpstreamError{Status: resp.StatusCode, Body: rawOrString(data)},
			apperrors.TransportFailure, "execution service error")
	}
	return data, nil
}

func rawOrString(data []byte) json.RawMessage {
	if json.Valid(data) {
		return data
	}
	quoted, _ := json.Marshal(string(data))
	return quoted
}
