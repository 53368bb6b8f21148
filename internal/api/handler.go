// Package api exposes the HTTP surface of the service: the table-processing
// endpoint, the token exchange, and the liveness probes. It composes the key
// validator, the rate limiter and the LLM gateway, and maps every failure
// onto the error taxonomy exactly once.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/tableflow/llm-backend/internal/auth"
	"github.com/tableflow/llm-backend/internal/llm"
	"github.com/tableflow/llm-backend/internal/models"
	"github.com/tableflow/llm-backend/internal/ratelimit"
)

const (
	serviceName    = "llm-backend"
	serviceVersion = "1.0.0"

	maxPromptLen = 1000
)

// Gateway performs the classification+processing round trip to the hosted model.
type Gateway interface {
	Process(ctx context.Context, userPrompt string, rows []models.TableRow) (llm.Result, error)
}

// AccessLogger persists one record per handled request. A nil AccessLogger
// disables persistence.
type AccessLogger interface {
	LogAccess(ctx context.Context, entry *models.AccessLog) error
}

// ResponseCache short-circuits repeat requests with an identical prompt and
// table. A nil ResponseCache disables caching.
type ResponseCache interface {
	Get(ctx context.Context, prompt string, rows []models.TableRow) (*models.ProcessResponse, bool)
	Set(ctx context.Context, prompt string, rows []models.TableRow, resp *models.ProcessResponse) error
}

type Handler struct {
	auth      *auth.Authenticator
	limiter   ratelimit.Limiter
	gateway   Gateway
	store     AccessLogger
	cache     ResponseCache
	jwtSecret string
}

func NewHandler(a *auth.Authenticator, limiter ratelimit.Limiter, gateway Gateway, store AccessLogger, cache ResponseCache, jwtSecret string) *Handler {
	return &Handler{
		auth:      a,
		limiter:   limiter,
		gateway:   gateway,
		store:     store,
		cache:     cache,
		jwtSecret: jwtSecret,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Root).Methods("GET")
	router.HandleFunc("/api/v1/health", h.Health).Methods("GET")
	router.HandleFunc("/api/v1/auth/token", h.Token).Methods("POST")
	router.HandleFunc("/api/v1/process", h.Process).Methods("POST")
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": serviceName,
		"version": serviceVersion,
		"status":  "running",
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

// Token exchanges a valid API key for a signed bearer token, which /process
// accepts in the Authorization header instead of the raw key.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, newError(CodeValidation, "malformed request body", err))
		return
	}

	key := strings.TrimSpace(req.APIKey)
	if !h.auth.Validator().Validate(key) {
		h.writeError(w, r, newError(CodeAuthentication, "invalid or missing API key", auth.ErrInvalidKey))
		return
	}

	token, err := auth.GenerateToken(key, h.jwtSecret)
	if err != nil {
		h.writeError(w, r, newError(CodeInternal, "failed to generate token", err))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Process validates the request shape, authenticates the client, checks the
// rate limit and invokes the gateway, in that order. A ProcessResponse is
// only ever produced for a request that passed both the key and limit checks.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req models.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, newError(CodeValidation, "malformed request body", err))
		return
	}
	prompt := strings.TrimSpace(req.UserPrompt)
	if prompt == "" {
		h.writeError(w, r, newError(CodeValidation, "user_prompt must not be empty", nil))
		return
	}
	if len(prompt) > maxPromptLen {
		h.writeError(w, r, newError(CodeValidation, fmt.Sprintf("user_prompt exceeds %d characters", maxPromptLen), nil))
		return
	}
	rows := req.RequestData.TableData
	for i, row := range rows {
		if row.Data == nil {
			h.writeError(w, r, newError(CodeValidation, fmt.Sprintf("table_data[%d] is missing its data object", i), nil))
			return
		}
	}

	key, err := h.auth.Authenticate(r)
	if err != nil {
		h.writeError(w, r, newError(CodeAuthentication, "invalid or missing API key", err))
		return
	}

	allowed, info, err := h.limiter.Allow(ctx, key)
	if err != nil {
		h.writeError(w, r, newError(CodeInternal, "rate limit check failed", err))
		return
	}
	setRateLimitHeaders(w, info)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(info)))
		h.writeError(w, r, newError(CodeRateLimit, "rate limit exceeded, please back off", nil))
		h.logAccess(r, key, "", http.StatusTooManyRequests, start, 0)
		return
	}

	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, prompt, rows); ok {
			w.Header().Set("X-Cache-Status", "HIT")
			size := h.writeJSON(w, http.StatusOK, cached)
			h.logAccess(r, key, "", http.StatusOK, start, size)
			return
		}
	}

	result, err := h.gateway.Process(ctx, prompt, rows)
	if err != nil {
		h.writeError(w, r, newError(CodeUpstream, "the language model request failed", err))
		h.logAccess(r, key, "", http.StatusBadGateway, start, 0)
		return
	}

	outRows := result.Rows
	if outRows == nil {
		outRows = []models.TableRow{}
	}
	resp := &models.ProcessResponse{
		AIMessage:    result.Message,
		ResponseData: models.ResponseData{TableData: outRows},
	}

	size := h.writeJSON(w, http.StatusOK, resp)

	if h.cache != nil {
		go func() {
			if err := h.cache.Set(context.Background(), prompt, rows, resp); err != nil {
				log.Printf("cache: store failed: %v", err)
			}
		}()
	}
	h.logAccess(r, key, string(result.Intent), http.StatusOK, start, size)
}

// writeError produces exactly one log line and one ErrorResponse per failure.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, apiErr *Error) {
	reqID := requestIDFrom(r.Context())
	log.Printf("[%s] %s %s: %v", reqID, r.Method, r.URL.Path, apiErr)

	resp := models.ErrorResponse{
		ErrorCode: string(apiErr.Code),
		Message:   apiErr.Message,
	}
	if reqID != "" {
		resp.Details = map[string]any{"request_id": reqID}
	}
	h.writeJSON(w, statusFor(apiErr.Code), resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) int64 {
	buf, err := json.Marshal(payload)
	if err != nil {
		log.Printf("api: encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return 0
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	n, _ := w.Write(buf)
	return int64(n)
}

func (h *Handler) logAccess(r *http.Request, key, intent string, statusCode int, start time.Time, respSize int64) {
	if h.store == nil {
		return
	}
	entry := &models.AccessLog{
		KeyHash:        auth.KeyFingerprint(key),
		Endpoint:       r.URL.Path,
		Method:         r.Method,
		StatusCode:     statusCode,
		ResponseTimeMs: int(time.Since(start).Milliseconds()),
		RequestSize:    r.ContentLength,
		ResponseSize:   respSize,
		Intent:         intent,
	}
	go func() {
		if err := h.store.LogAccess(context.Background(), entry); err != nil {
			log.Printf("db: access log failed: %v", err)
		}
	}()
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))
}

func retryAfterSeconds(info ratelimit.Info) int {
	secs := int(math.Ceil(info.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
