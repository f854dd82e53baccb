package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"leetclone/internal/handlers"
	"leetclone/internal/middlewares"
	"leetclone/internal/models"
	"leetclone/internal/repositories"
	"leetclone/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const fixturesYAML = `
- slugName: two-sum
  testCases:
    - name: Case 1
      input: "1 2"
      expectedOutput: "3"
      isPermanent: true
      pythonProgram: "print(add())"
`

// sumExecutor prints the sum of the integers on stdin.
type sumExecutor struct{}

func (sumExecutor) Execute(_ context.Context, _, _, stdin string) (*services.ExecuteResponse, error) {
	total := 0
	for _, f := range strings.Fields(stdin) {
		n, _ := strconv.Atoi(f)
		total += n
	}
	return &services.ExecuteResponse{Run: &services.RunOutput{Stdout: strconv.Itoa(total) + "\n"}}, nil
}

type staticSource struct{}

func (staticSource) QuestionDetail(_ context.Context, titleSlug string) (*models.QuestionDetail, error) {
	return &models.QuestionDetail{Title: titleSlug, CodeSnippets: make([]models.CodeSnippet, 7)}, nil
}

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, content string) (string, error) {
	return "answer", nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := repositories.NewRedisDocStore(rdb, "")
	cache := services.NewRedisCache(rdb, "")
	fixtures, err := services.ParseFixtures(strings.NewReader(fixturesYAML))
	if err != nil {
		t.Fatalf("parse fixtures: %v", err)
	}

	tokens := services.NewTokenService("test-secret")
	auth := services.NewAuthService(repositories.NewUserRepository(store), tokens, cache)
	problems := services.NewProblemService(staticSource{}, cache, fixtures)
	submissions := repositories.NewSubmissionRepository(store)
	progress := repositories.NewProgressRepository(store)
	evaluator := services.NewEvaluator(services.NewCodeRunnerService(sumExecutor{}), submissions, nil)

	requireAuth := middlewares.AuthMiddleware(tokens)
	optionalAuth := middlewares.OptionalAuthMiddleware(tokens)

	router := gin.New()
	router.Use(middlewares.TraceMiddleware(), middlewares.ErrorHandlerMiddleware())
	handlers.NewAuthHandler(auth).RegisterRoutes(router, requireAuth)
	handlers.NewProblemHandler(problems).RegisterRoutes(router)
	handlers.NewSubmissionHandler(problems, evaluator, submissions, progress, echoCompleter{}).RegisterRoutes(router, requireAuth)
	handlers.NewForumHandler(services.NewForumService(repositories.NewPostRepository(store)), auth).RegisterRoutes(router, optionalAuth)
	handlers.NewNoteHandler(services.NewNoteService(repositories.NewNoteRepository(store))).RegisterRoutes(router, requireAuth)
	handlers.NewDoubtHandler(services.NewDoubtService(repositories.NewDoubtRepository(store), repositories.NewThreadRepository(store), echoCompleter{}), auth).RegisterRoutes(router, requireAuth)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router *gin.Engine) string {
	t.Helper()
	rec := doJSON(router, http.MethodPost, "/auth/register", gin.H{"username": "alice", "email": "Alice@Example.com", "password": "password123"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(router, http.MethodPost, "/auth/login", gin.H{"email": "alice@example.com", "password": "password123"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.AccessToken == "" {
		t.Fatalf("missing access token: %v", err)
	}
	return resp.AccessToken
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router)

	rec := doJSON(router, http.MethodGet, "/auth/me", nil, token)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Fatalf("unexpected me response: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(router, http.MethodPost, "/auth/register", gin.H{"username": "alice", "email": "alice@example.com", "password": "password123"}, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected conflict, got %d", rec.Code)
	}

	rec = doJSON(router, http.MethodPost, "/auth/login", gin.H{"email": "alice@example.com", "password": "wrong-password"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", rec.Code)
	}
}

func TestRunAndSubmit(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/submissions/run", gin.H{
		"titleSlug": "two-sum",
		"language":  "python",
		"code":      "def add(): ...",
		"testCases": []gin.H{
			{"name": "Case 1", "input": "1 2", "expectedOutput": "3", "isPermanent": true},
			{"name": "Custom", "input": "5 5", "expectedOutput": "11"},
		},
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("run failed: %d %s", rec.Code, rec.Body.String())
	}
	var run struct {
		TestCases []models.TestCase `json:"testCases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if len(run.TestCases) != 2 || run.TestCases[0].Status != models.StatusAccepted || run.TestCases[1].Status != models.StatusWrongAnswer {
		t.Fatalf("unexpected run results: %+v", run.TestCases)
	}

	body := gin.H{"titleSlug": "two-sum", "language": "python", "code": "def add(): ..."}
	if rec := doJSON(router, http.MethodPost, "/submissions", body, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized submit, got %d", rec.Code)
	}

	token := login(t, router)
	rec = doJSON(router, http.MethodPost, "/submissions", body, token)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"Accepted"`) {
		t.Fatalf("unexpected submit response: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(router, http.MethodGet, "/submissions?titleSlug=two-sum", nil, token)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":1`) {
		t.Fatalf("unexpected history: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRunUnknownProblem(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(router, http.MethodPost, "/submissions/run", gin.H{"titleSlug": "nope", "language": "python", "code": "x"}, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", rec.Code)
	}
}

func TestSnippetRequiresLanguage(t *testing.T) {
	router := newTestRouter(t)
	if rec := doJSON(router, http.MethodGet, "/problems/two-sum/snippet", nil, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodGet, "/problems/two-sum/snippet?language=cobol", nil, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request for unsupported language, got %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodGet, "/problems/two-sum/snippet?language=python", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected snippet, got %d", rec.Code)
	}
}

func TestForumAnonymousAuthor(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/posts?username=bob", gin.H{"title": "Hi", "content": "first"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post failed: %d %s", rec.Code, rec.Body.String())
	}
	var post models.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &post); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	if post.User.Name != "bob" {
		t.Fatalf("unexpected author: %+v", post.User)
	}

	rec = doJSON(router, http.MethodPost, "/api/posts/comments/"+post.ID, gin.H{"content": "root"}, "")
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"name":"Anonymous"`) {
		t.Fatalf("unexpected comment response: %d %s", rec.Code, rec.Body.String())
	}
	var comment models.Comment
	_ = json.Unmarshal(rec.Body.Bytes(), &comment)

	rec = doJSON(router, http.MethodPost, "/api/posts/comments/"+comment.ID+"/reply", gin.H{"content": "nested"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("reply failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(router, http.MethodPost, "/api/posts/"+post.ID+"/comments/"+comment.ID+"/like?username=bob", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"likes":["bob"]`) {
		t.Fatalf("unexpected like response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestNotesRequireAuth(t *testing.T) {
	router := newTestRouter(t)
	if rec := doJSON(router, http.MethodGet, "/notes/two-sum", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", rec.Code)
	}

	token := login(t, router)
	if rec := doJSON(router, http.MethodPut, "/notes/two-sum", gin.H{"content": "use a map"}, token); rec.Code != http.StatusOK {
		t.Fatalf("save note failed: %d %s", rec.Code, rec.Body.String())
	}
	rec := doJSON(router, http.MethodGet, "/notes/two-sum", nil, token)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "use a map") {
		t.Fatalf("unexpected note: %d %s", rec.Code, rec.Body.String())
	}
}

func TestDoubtsListRequiresTitleSlug(t *testing.T) {
	router := newTestRouter(t)
	if rec := doJSON(router, http.MethodGet, "/doubts", nil, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", rec.Code)
	}

	token := login(t, router)
	rec := doJSON(router, http.MethodPost, "/doubts", gin.H{"titleSlug": "two-sum", "content": "<p>why TLE?</p>"}, token)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"response":"answer"`) {
		t.Fatalf("unexpected doubt response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestPistonExecuteRelay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	piston := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req services.ExecuteRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Language == "cobol" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"cobol-* runtime is unknown"}`))
			return
		}
		_, _ = w.Write([]byte(`{"run":{"stdout":"hi\n","stderr":"","compile_output":""}}`))
	}))
	defer piston.Close()

	router := gin.New()
	handlers.NewUpstreamHandler(
		services.NewPistonClient(services.PistonConfig{BaseURL: piston.URL}),
		echoCompleter{},
		services.NewLeetCodeClient(piston.URL, 0),
	).RegisterRoutes(router)

	rec := doJSON(router, http.MethodPost, "/piston/execute", gin.H{"code": "print('hi')", "language": "python"}, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"stdout":"hi\n"`) {
		t.Fatalf("unexpected execute response: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(router, http.MethodPost, "/piston/execute", gin.H{"code": "x", "language": "cobol"}, "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "runtime is unknown") {
		t.Fatalf("expected relayed upstream error: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(router, http.MethodPost, "/ai-completion", gin.H{"content": "hello"}, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"content":"answer"`) {
		t.Fatalf("unexpected completion: %d %s", rec.Code, rec.Body.String())
	}
}
