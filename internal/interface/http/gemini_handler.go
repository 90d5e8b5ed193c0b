package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/haitrvn/gutcare/internal/application"
	"github.com/haitrvn/gutcare/internal/infrastructure/gemini"
	"github.com/haitrvn/gutcare/internal/interface/middleware"
	"github.com/haitrvn/gutcare/pkg/response"
	"github.com/haitrvn/gutcare/pkg/secrets"
	"github.com/haitrvn/gutcare/pkg/validation"
)

// GeminiHandler proxies AI requests using the caller's own stored API key.
// Every endpoint resolves the key through the service first; requests never
// reach Gemini for users without one.
type GeminiHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewGeminiHandler(svc *userapp.Service, logger *logrus.Logger) *GeminiHandler {
	return &GeminiHandler{Svc: svc, Logger: logger}
}

// healthProfile is the subset of the stored profile the prompts use.
type healthProfile struct {
	Condition    string `json:"condition"`
	PainLevel    int    `json:"painLevel"`
	TriggerFoods string `json:"triggerFoods"`
	DietaryGoal  string `json:"dietaryGoal"`
}

// symptomLog is one diary entry as the frontend sends it. Timestamp is epoch
// milliseconds.
type symptomLog struct {
	Timestamp        int64  `json:"timestamp"`
	EatenFoods       string `json:"eatenFoods"`
	PainLevel        int    `json:"painLevel"`
	PainLocation     string `json:"painLocation"`
	PhysicalActivity string `json:"physicalActivity"`
}

func (s symptomLog) date() string {
	return time.UnixMilli(s.Timestamp).Format("2006-01-02 15:04")
}

// generate resolves the per-user AI client and runs one call, mapping every
// failure mode to its HTTP class. Returns the model text and true on success.
func (h *GeminiHandler) generate(c *gin.Context, parts []gemini.Part, schema *gemini.Schema) (string, bool) {
	email := c.GetString(middleware.CtxUserEmailKey)
	ai, err := h.Svc.AIClientFor(c.Request.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrNoAPIKey):
			response.Error(c, http.StatusBadRequest, "no Gemini API key configured for this account", nil)
		case errors.Is(err, secrets.ErrDecrypt):
			response.Error(c, http.StatusInternalServerError, "stored API key is unusable, please re-enter it", nil)
		default:
			response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		}
		return "", false
	}
	text, err := ai.GenerateContent(c.Request.Context(), parts, schema)
	if err != nil {
		h.logUpstream(c.Request.Context(), email, err)
		response.Error(c, http.StatusBadGateway, "AI request failed, check your API key", nil)
		return "", false
	}
	return text, true
}

func (h *GeminiHandler) logUpstream(_ context.Context, email string, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.WithError(err).WithField("email", email).Warn("gemini upstream failed")
}

// respondJSON relays the model's JSON text as the response body.
func respondJSON(c *gin.Context, text string) {
	var doc json.RawMessage
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		response.Error(c, http.StatusBadGateway, "AI returned malformed data", nil)
		return
	}
	response.Success(c, http.StatusOK, doc, "generated")
}

type mealPlanRequest struct {
	Profile  healthProfile `json:"profile" binding:"required"`
	Symptoms []symptomLog  `json:"symptoms"`
}

// MealPlan POST /api/gemini/meal-plan
func (h *GeminiHandler) MealPlan(c *gin.Context) {
	var req mealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	var history strings.Builder
	for _, s := range req.Symptoms {
		fmt.Fprintf(&history, "- On %s, ate '%s' and had pain level %d/10 at %s.\n", s.date(), s.EatenFoods, s.PainLevel, s.PainLocation)
	}
	if history.Len() == 0 {
		history.WriteString("No symptom history yet.")
	}

	prompt := fmt.Sprintf(`Based on the following user's health information, create a detailed meal plan for the next 7 days.
USER PROFILE:
- Medical condition: %s
- Current pain level: %d/10
- Known trigger foods: %s
- Dietary goal: %s
RECENT SYMPTOM HISTORY:
%s
REQUIREMENTS:
- Plan 7 days, each with 3 main meals (breakfast, lunch, dinner) and 2 snacks.
- Dishes must be easy to digest and fit the user's condition and goal.
- Strictly avoid all known trigger foods.
- Give each dish a name, a suggested time, and a sensible portion.
- Add a short note per dish explaining why it suits the user's condition.
- Keep the plan varied and nutritionally complete.`,
		req.Profile.Condition, req.Profile.PainLevel, req.Profile.TriggerFoods, req.Profile.DietaryGoal, history.String())

	schema := &gemini.Schema{
		Type: "ARRAY",
		Items: &gemini.Schema{
			Type: "OBJECT",
			Properties: map[string]*gemini.Schema{
				"day": {Type: "STRING", Description: "Day label (e.g. Day 1, Monday)"},
				"meals": {
					Type: "ARRAY",
					Items: &gemini.Schema{
						Type: "OBJECT",
						Properties: map[string]*gemini.Schema{
							"name":    {Type: "STRING", Description: "Dish name"},
							"time":    {Type: "STRING", Description: "Suggested time (e.g. 7:00 AM)"},
							"portion": {Type: "STRING", Description: "Suggested portion (e.g. 1 small bowl)"},
							"note":    {Type: "STRING", Description: "Short note on why the dish helps"},
						},
						Required: []string{"name", "time", "portion", "note"},
					},
				},
			},
			Required: []string{"day", "meals"},
		},
	}

	if text, ok := h.generate(c, []gemini.Part{{Text: prompt}}, schema); ok {
		respondJSON(c, text)
	}
}

type checkFoodRequest struct {
	Profile   healthProfile `json:"profile" binding:"required"`
	FoodName  string        `json:"foodName" binding:"required"`
	FoodImage *gemini.Blob  `json:"foodImage"`
}

// CheckFood POST /api/gemini/check-food
func (h *GeminiHandler) CheckFood(c *gin.Context) {
	var req checkFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	prompt := fmt.Sprintf(`Analyze this food for a user with the following health information:
- Medical condition: %s
- Known trigger foods: %s
Food to check: "%s"
REQUIREMENTS:
1. Rate the food's safety on 3 levels: "Safe", "Limit", "Avoid".
2. Briefly explain the reasoning.
3. Provide short scientific evidence for the verdict, citing a source when possible; otherwise explain from general nutrition principles.`,
		req.Profile.Condition, req.Profile.TriggerFoods, req.FoodName)

	parts := []gemini.Part{{Text: prompt}}
	if req.FoodImage != nil {
		parts = append([]gemini.Part{{InlineData: req.FoodImage}}, parts...)
	}

	schema := &gemini.Schema{
		Type: "OBJECT",
		Properties: map[string]*gemini.Schema{
			"safetyLevel":        {Type: "STRING", Enum: []string{"Safe", "Limit", "Avoid"}},
			"reason":             {Type: "STRING", Description: "Reasoning behind the verdict"},
			"scientificEvidence": {Type: "STRING", Description: "Evidence and citation if available"},
		},
		Required: []string{"safetyLevel", "reason"},
	}

	if text, ok := h.generate(c, parts, schema); ok {
		respondJSON(c, text)
	}
}

type analyzeTriggersRequest struct {
	Profile  healthProfile `json:"profile" binding:"required"`
	Symptoms []symptomLog  `json:"symptoms"`
}

// AnalyzeTriggers POST /api/gemini/analyze-triggers
func (h *GeminiHandler) AnalyzeTriggers(c *gin.Context) {
	var req analyzeTriggersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if len(req.Symptoms) < 3 {
		response.Success(c, http.StatusOK, gin.H{
			"analysis": "Not enough data to analyze yet. Keep logging your symptoms, including days you feel well (pain level 0).",
		}, "analysis")
		return
	}

	var diary strings.Builder
	for _, s := range req.Symptoms {
		activity := "No physical activity"
		if s.PhysicalActivity != "" {
			activity = fmt.Sprintf("Activity: %q", s.PhysicalActivity)
		}
		pain := "No pain"
		if s.PainLevel > 0 {
			pain = fmt.Sprintf("Pain level %d/10 at %s", s.PainLevel, s.PainLocation)
		}
		fmt.Fprintf(&diary, "- %s: Ate %q. %s. Result: %s.\n", s.date(), s.EatenFoods, activity, pain)
	}

	prompt := fmt.Sprintf(`Based on the user profile and health diary below, run a detailed comparative analysis of what affects their condition.
USER PROFILE:
- Medical condition: %s
- Known trigger foods: %s
HEALTH DIARY:
%s
ANALYSIS REQUIREMENTS:
1. Pain triggers: identify foods, drinks, or activities that tend to precede painful entries (pain level > 0) and hypothesize likely culprits.
2. Positive factors: identify what tends to appear on pain-free days (pain level 0) and name protective habits.
3. Compare both groups and give actionable suggestions in 3 sections: AVOID, KEEP DOING, TRY ADDING.
Present the result as a clear report in markdown with bold headings.`,
		req.Profile.Condition, req.Profile.TriggerFoods, diary.String())

	if text, ok := h.generate(c, []gemini.Part{{Text: prompt}}, nil); ok {
		response.Success(c, http.StatusOK, gin.H{"analysis": text}, "analysis")
	}
}

type suggestRecipeRequest struct {
	Profile healthProfile `json:"profile" binding:"required"`
	Request string        `json:"request" binding:"required"`
}

// SuggestRecipe POST /api/gemini/suggest-recipe
func (h *GeminiHandler) SuggestRecipe(c *gin.Context) {
	var req suggestRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	prompt := fmt.Sprintf(`As a nutrition expert for people with digestive conditions, create a new recipe from the user's request and health profile.
USER PROFILE:
- Medical condition: %s
- Known trigger foods: %s
- Dietary goal: %s
USER REQUEST:
"%s"
RECIPE REQUIREMENTS:
- Absolutely safe, easy to digest, and suited to the profile.
- Avoid all known trigger foods.
- Provide title, a short description, cookTime, ingredients and detailed instructions.`,
		req.Profile.Condition, req.Profile.TriggerFoods, req.Profile.DietaryGoal, req.Request)

	schema := &gemini.Schema{
		Type: "OBJECT",
		Properties: map[string]*gemini.Schema{
			"title":        {Type: "STRING"},
			"description":  {Type: "STRING"},
			"cookTime":     {Type: "STRING"},
			"ingredients":  {Type: "ARRAY", Items: &gemini.Schema{Type: "STRING"}},
			"instructions": {Type: "STRING"},
		},
		Required: []string{"title", "description", "cookTime", "ingredients", "instructions"},
	}

	text, ok := h.generate(c, []gemini.Part{{Text: prompt}}, schema)
	if !ok {
		return
	}
	var recipe map[string]any
	if err := json.Unmarshal([]byte(text), &recipe); err != nil {
		response.Error(c, http.StatusBadGateway, "AI returned malformed data", nil)
		return
	}
	recipe["category"] = "AI Custom"
	response.Success(c, http.StatusOK, recipe, "generated")
}
