package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"leetclone/internal/apperrors"
	"leetclone/internal/models"
)

const questionDetailQuery = `query getQuestionDetail($titleSlug: String!) { question(titleSlug: $titleSlug) { questionId title difficulty content exampleTestcases codeSnippets { lang langSlug code } topicTags { name slug } hints } }`

const profileQuery = `query GetLeetCodeProfileData($username: String!) { allQuestionsCount { difficulty count } matchedUser(username: $username) { username profile { realName userAvatar ranking reputation solutionCount contestCount postViewCount categoryDiscussCount } submissionCalendar submitStats { acSubmissionNum { difficulty count submissions } totalSubmissionNum { difficulty count submissions } } badges { displayName icon } languageProblemCount { languageName problemsSolved } tagProblemCounts { advanced { tagName tagSlug problemsSolved } intermediate { tagName tagSlug problemsSolved } fundamental { tagName tagSlug problemsSolved } } userCalendar { activeYears streak totalActiveDays submissionCalendar } } recentAcSubmissionList(username: $username) { id title titleSlug timestamp lang statusDisplay } }`

type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// LeetCodeClient queries the public LeetCode GraphQL endpoint.
type LeetCodeClient struct {
	endpoint string
	origin   string
	http     *http.Client
}

func NewLeetCodeClient(endpoint string, timeout time.Duration) *LeetCodeClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &LeetCodeClient{
		endpoint: endpoint,
		origin:   OriginOf(endpoint),
		http:     &http.Client{Timeout: timeout},
	}
}

// OriginOf returns scheme://host of rawURL, or rawURL when it does not parse.
func OriginOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}

// Query returns the "data" member of a GraphQL answer. The first entry of
// "errors" becomes a TransportFailure carrying the upstream message.
func (c *LeetCodeClient) Query(ctx context.Context, req GraphQLRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode graphql request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build graphql request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Origin", c.origin)
	httpReq.Header.Set("Referer", c.origin)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.TransportFailure, "graphql endpoint unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.TransportFailure, "read graphql response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Wrap(&UpstreamError{Status: resp.StatusCode, Body: rawOrString(data)},
			apperrors.TransportFailure, "graphql endpoint error")
	}

	var out graphQLResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, apperrors.Wrap(err, apperrors.TransportFailure, "decode graphql response")
	}
	if len(out.Errors) > 0 {
		return nil, apperrors.New(apperrors.TransportFailure, out.Errors[0].Message)
	}
	return out.Data, nil
}

func (c *LeetCodeClient) QuestionDetail(ctx context.Context, titleSlug string) (*models.QuestionDetail, error) {
	data, err := c.Query(ctx, GraphQLRequest{
		Query:     questionDetailQuery,
		Variables: map[string]any{"titleSlug": titleSlug},
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Question *models.QuestionDetail `json:"question"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, apperrors.Wrap(err, apperrors.TransportFailure, "decode question detail")
	}
	if out.Question == nil {
		return nil, apperrors.Newf(apperrors.NotFound, "question %q not found", titleSlug)
	}
	return out.Question, nil
}

// Profile returns the raw statistics document of a LeetCode user.
func (c *LeetCodeClient) Profile(ctx context.Context, username string) (json.RawMessage, error) {
	return c.Query(ctx, GraphQLRequest{
		Query:     profileQuery,
		Variables: map[string]any{"username": username},
	})
}
