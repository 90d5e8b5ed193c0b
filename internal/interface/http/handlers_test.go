package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "github.com/haitrvn/gutcare/internal/application"
	"github.com/haitrvn/gutcare/internal/domain/entity"
	repo "github.com/haitrvn/gutcare/internal/domain/repository"
	"github.com/haitrvn/gutcare/internal/infrastructure/gemini"
	"github.com/haitrvn/gutcare/internal/interface/middleware"
	"github.com/haitrvn/gutcare/pkg/helpers"
	"github.com/haitrvn/gutcare/pkg/secrets"
	"github.com/haitrvn/gutcare/pkg/validation"
)

type memUserRepo struct {
	users map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*entity.User)}
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	if _, ok := r.users[u.Email]; ok {
		return repo.ErrDuplicateEmail
	}
	cp := *u
	r.users[u.Email] = &cp
	return nil
}

func (r *memUserRepo) UpdateProfile(_ context.Context, email string, profile json.RawMessage) (json.RawMessage, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, repo.ErrNotFound
	}
	u.Profile = append(json.RawMessage(nil), profile...)
	return u.Profile, nil
}

func (r *memUserRepo) UpdateEncryptedKey(_ context.Context, email string, blob string) error {
	u, ok := r.users[email]
	if !ok {
		return repo.ErrNotFound
	}
	u.EncryptedGeminiKey = &blob
	return nil
}

type memSymptomRepo struct {
	logs map[string][]json.RawMessage
}

func newMemSymptomRepo() *memSymptomRepo {
	return &memSymptomRepo{logs: make(map[string][]json.RawMessage)}
}

func (r *memSymptomRepo) Add(_ context.Context, s *entity.Symptom) error {
	r.logs[s.UserEmail] = append(r.logs[s.UserEmail], append(json.RawMessage(nil), s.LogData...))
	return nil
}

func (r *memSymptomRepo) ListByUser(_ context.Context, email string) ([]json.RawMessage, error) {
	return r.logs[email], nil
}

// stubGenerator returns canned text and records the key it was built with.
type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) GenerateContent(_ context.Context, _ []gemini.Part, _ *gemini.Schema) (string, error) {
	return g.text, g.err
}

type testEnv struct {
	router  *gin.Engine
	users   *memUserRepo
	svc     *userapp.Service
	jwt     *helpers.JWTManager
	lastKey string
}

// newTestEnv wires the full HTTP surface with in-memory storage, a real
// cipher, and real token verification, mirroring the route layout of the
// production modules minus rate limiting.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	cphr, err := secrets.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	jwtMgr := helpers.NewJWTManager("handlers-test-secret", time.Hour)

	env := &testEnv{users: newMemUserRepo(), jwt: jwtMgr}
	env.svc = userapp.NewService(env.users, newMemSymptomRepo(), jwtMgr, cphr, nil, "test-model")
	env.svc.NewAI = func(apiKey string) userapp.Generator {
		env.lastKey = apiKey
		return &stubGenerator{text: `{"analysis":"ok"}`}
	}

	authH := NewAuthHandler(env.svc, nil)
	userH := NewUserHandler(env.svc, nil)
	geminiH := NewGeminiHandler(env.svc, nil)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/register", authH.Register)
	api.POST("/login", authH.Login)

	private := api.Group("")
	private.Use(middleware.JWTAuth(jwtMgr))
	private.POST("/api-key", userH.SetAPIKey)
	private.POST("/profile", userH.UpdateProfile)
	private.POST("/symptoms", userH.AddSymptom)
	private.POST("/gemini/analyze-triggers", geminiH.AnalyzeTriggers)
	private.POST("/gemini/suggest-recipe", geminiH.SuggestRecipe)

	env.router = r
	return env
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envl struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envl))
	return envl.Data
}

func TestRegisterAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	creds := gin.H{"email": "amy@example.com", "password": "hunter22"}

	w := env.do(http.MethodPost, "/api/register", "", creds)
	assert.Equal(t, http.StatusCreated, w.Code)

	// duplicate email conflicts
	w = env.do(http.MethodPost, "/api/register", "", creds)
	assert.Equal(t, http.StatusConflict, w.Code)

	// missing fields rejected before touching storage
	w = env.do(http.MethodPost, "/api/register", "", gin.H{"email": "amy@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// wrong password and unknown email answer identically
	w = env.do(http.MethodPost, "/api/login", "", gin.H{"email": "amy@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/api/login", "", gin.H{"email": "nobody@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	user, _ := data["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, "amy@example.com", user["email"])
	assert.Equal(t, false, user["hasApiKey"])

	// the token from login opens the gate
	w = env.do(http.MethodPost, "/api/profile", token, gin.H{"profile": gin.H{"condition": "IBS"}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthGateOnProtectedRoutes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/profile", "", gin.H{"profile": gin.H{}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/profile", "not.a.token", gin.H{"profile": gin.H{}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	expired := helpers.NewJWTManager("handlers-test-secret", -time.Hour)
	tok, _, err := expired.GenerateToken("amy@example.com")
	require.NoError(t, err)
	w = env.do(http.MethodPost, "/api/profile", tok, gin.H{"profile": gin.H{}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSetAPIKeyStoresOnlyCiphertext(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env, "bob@example.com", "secretpw")

	const plaintextKey = "AIzaSy-plain-gemini-key"
	w := env.do(http.MethodPost, "/api/api-key", token, gin.H{"apiKey": plaintextKey})
	require.Equal(t, http.StatusOK, w.Code)

	stored := env.users.users["bob@example.com"].EncryptedGeminiKey
	require.NotNil(t, stored)
	assert.NotContains(t, *stored, plaintextKey)
	assert.Contains(t, *stored, ":")

	// and login now reports the flag without ever exposing the key
	w = env.do(http.MethodPost, "/api/login", "", gin.H{"email": "bob@example.com", "password": "secretpw"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	user := data["user"].(map[string]any)
	assert.Equal(t, true, user["hasApiKey"])
	assert.NotContains(t, w.Body.String(), plaintextKey)
}

func TestGeminiProxyUsesDecryptedKey(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env, "cara@example.com", "secretpw")

	payload := gin.H{
		"profile": gin.H{"condition": "IBS", "triggerFoods": "dairy", "dietaryGoal": "low FODMAP"},
		"request": "a soothing soup",
	}

	// without a stored key the proxy refuses before any upstream call
	w := env.do(http.MethodPost, "/api/gemini/suggest-recipe", token, payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/api-key", token, gin.H{"apiKey": "user-owned-key"})
	require.Equal(t, http.StatusOK, w.Code)

	env.svc.NewAI = func(apiKey string) userapp.Generator {
		env.lastKey = apiKey
		return &stubGenerator{text: `{"title":"Soup","description":"d","cookTime":"20m","ingredients":["rice"],"instructions":"simmer"}`}
	}
	w = env.do(http.MethodPost, "/api/gemini/suggest-recipe", token, payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-owned-key", env.lastKey)
	data := decodeData(t, w)
	assert.Equal(t, "AI Custom", data["category"])
	assert.Equal(t, "Soup", data["title"])
}

func TestAnalyzeTriggersNeedsThreeEntries(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env, "dan@example.com", "secretpw")

	// short-circuits without consulting the AI, so no key needed
	w := env.do(http.MethodPost, "/api/gemini/analyze-triggers", token, gin.H{
		"profile":  gin.H{"condition": "IBS"},
		"symptoms": []gin.H{{"timestamp": 1, "eatenFoods": "toast", "painLevel": 2}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	analysis, _ := data["analysis"].(string)
	assert.True(t, strings.Contains(analysis, "Not enough data"))
}

func TestSymptomDiaryReturnsOrderedHistory(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env, "eve@example.com", "secretpw")

	for i := 1; i <= 3; i++ {
		w := env.do(http.MethodPost, "/api/symptoms", token, gin.H{
			"symptom": gin.H{"id": fmt.Sprintf("s-%d", i), "eatenFoods": fmt.Sprintf("meal-%d", i)},
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	var envl struct {
		Data []json.RawMessage `json:"data"`
	}
	w := env.do(http.MethodPost, "/api/symptoms", token, gin.H{
		"symptom": gin.H{"id": "s-4", "eatenFoods": "meal-4"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envl))
	require.Len(t, envl.Data, 4)
	assert.Contains(t, string(envl.Data[0]), "meal-1")
	assert.Contains(t, string(envl.Data[3]), "meal-4")
}

func registerAndLogin(t *testing.T, env *testEnv, email, password string) string {
	t.Helper()
	creds := gin.H{"email": email, "password": password}
	w := env.do(http.MethodPost, "/api/register", "", creds)
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(http.MethodPost, "/api/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decodeData(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}
