package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"leetclone/internal/apperrors"

	"github.com/sashabaranov/go-openai"
)

var ErrChatUnauthed = errors.New("no API key configured for the chat completion endpoint")

// Completer turns one user message into the model's reply.
type Completer interface {
	Complete(ctx context.Context, content string) (string, error)
}

type ChatConfig struct {
	BaseURL string
	Token   string
	Model   string
}

type ChatService struct {
	client *openai.Client
	model  string
	authed bool
}

func NewChatService(cfg ChatConfig) *ChatService {
	oc := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &ChatService{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
		authed: len(cfg.Token) >= 2,
	}
}

func (s *ChatService) Complete(ctx context.Context, content string) (string, error) {
	if !s.authed {
		return "", apperrors.Wrap(ErrChatUnauthed, apperrors.TransportFailure, "chat completion unavailable")
	}
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.TransportFailure, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.TransportFailure, "chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

const (
	AnalyzeModeAnalysis = "analysis"
	AnalyzeModeReview   = "review"
)

const analysisPrompt = "Provide the time and space complexity of this code with a brief 1-2 line explanation for each"

const reviewPrompt = `Review the following code for a competitive programming problem (e.g., LeetCode). Provide improvement suggestions focusing on:

1. First, repeat the entire original code without modifications.
2. After the code, list improvement suggestions as numbered comments.
3. Each comment should:
   a. Start with the line number or range it refers to.
   b. Clearly indicate what could be optimized or improved.
   c. Briefly explain how the change would enhance performance or solve edge cases.
4. Focus exclusively on:
   - Time complexity optimizations
   - Space complexity improvements
   - Handling of edge cases
   - More efficient data structures or algorithms for that question only
   - Potential integer overflow issues for that question only
   - Opportunities to reduce redundant calculations
   - Naming conventions of variables
5. Do not suggest stylistic changes or language-specific features unless they significantly impact runtime or memory usage.
6. Keep comments concise but informative.
7. Do not repeat words and comments.

Your response should contain only the original code followed by the numbered list of improvement suggestions. Do not include any other text or explanations.`

// AnalyzePrompt builds the chat message for a code analysis request.
// Any mode other than review gets the complexity analysis prompt.
func AnalyzePrompt(mode, code string) string {
	prompt := analysisPrompt
	if mode == AnalyzeModeReview {
		prompt = reviewPrompt
	}
	return prompt + "\n" + code
}

var (
	htmlTagRe     = regexp.MustCompile(`<[^>]*>`)
	chatMarkersRe = regexp.MustCompile(`<\|im_start\|>user|<\|im_end\|>`)
)

// CleanContent strips markup from editor content and drops repeated lines,
// keeping the first occurrence of each.
func CleanContent(content string) string {
	cleaned := chatMarkersRe.ReplaceAllString(content, "")
	cleaned = htmlTagRe.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")

	seen := make(map[string]struct{})
	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
