package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/internal/screening"
	"github.com/wonny/alphaforge/pkg/logger"
	"github.com/wonny/alphaforge/pkg/redis"
)

// ResultCache caches stored results (implemented by *redis.Cache)
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// BatchScreener runs a full batch (implemented by *screening.BatchRunner)
type BatchScreener interface {
	RunAll(ctx context.Context) (*screening.BatchSummary, error)
}

// ScreeningHandler handles quality screening API endpoints
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreeningHandler struct {
	screener screening.CompanyScreener
	batch    BatchScreener
	results  contracts.ResultRepository
	cache    ResultCache
	logger   *logger.Logger

	batchTimeout time.Duration // 0 = 요청 context 만 따름
}

// NewScreeningHandler creates a new screening handler
func NewScreeningHandler(
	screener screening.CompanyScreener,
	batch BatchScreener,
	results contracts.ResultRepository,
	cache ResultCache,
	log *logger.Logger,
) *ScreeningHandler {
	return &ScreeningHandler{
		screener: screener,
		batch:    batch,
		results:  results,
		cache:    cache,
		logger:   log.WithField("module", "api"),
	}
}

// WithBatchTimeout bounds one POST /api/screening/run
func (h *ScreeningHandler) WithBatchTimeout(d time.Duration) *ScreeningHandler {
	h.batchTimeout = d
	return h
}

// GetResult returns the stored screening result of one company
// GET /api/companies/{id}/screening
func (h *ScreeningHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := companyID(w, r)
	if !ok {
		return
	}

	key := redis.ScreeningResultKey(id)
	var cached contracts.StoredResult
	if found, err := h.cache.Get(ctx, key, &cached); err == nil && found {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    cached,
			"cached":  true,
		})
		return
	}

	result, err := h.results.LoadResult(ctx, id)
	if errors.Is(err, contracts.ErrCompanyNotFound) {
		respondError(w, http.StatusNotFound, "no screening result for company")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("company_id", id).Error("Failed to load screening result")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve screening result")
		return
	}

	if err := h.cache.Set(ctx, key, result, redis.TTLMedium); err != nil {
		h.logger.WithError(err).Warn("Failed to cache screening result")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// ScreenCompany screens one company now
// POST /api/companies/{id}/screening
func (h *ScreeningHandler) ScreenCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := companyID(w, r)
	if !ok {
		return
	}

	result, err := h.screener.Screen(ctx, id)

	// 결과가 바뀌었을 수 있으므로 캐시 무효화
	if delErr := h.cache.Delete(ctx, redis.ScreeningResultKey(id)); delErr != nil {
		h.logger.WithError(delErr).Warn("Failed to invalidate screening cache")
	}

	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    result,
		})
	case errors.Is(err, contracts.ErrCompanyNotFound):
		respondError(w, http.StatusNotFound, "company not found")
	case errors.Is(err, screening.ErrPersist) && result != nil:
		// 계산은 됐지만 저장 실패
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "screening result could not be saved",
			"data":    result,
		})
	default:
		h.logger.WithError(err).WithField("company_id", id).Error("Failed to screen company")
		respondError(w, http.StatusInternalServerError, "Failed to screen company")
	}
}

// RunBatch screens every known company
// POST /api/screening/run
func (h *ScreeningHandler) RunBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.batchTimeout)
		defer cancel()
	}

	summary, err := h.batch.RunAll(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to run screening batch")
		respondError(w, http.StatusInternalServerError, "Failed to run screening batch")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    summary,
	})
}

// ListResults returns stored results, highest score first
// GET /api/screening/results?disqualified=true&min_score=80
func (h *ScreeningHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var filter contracts.ResultFilter
	disqualifiedKey := "any"
	minScoreKey := -1

	if v := query.Get("disqualified"); v != "" {
		d, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "disqualified must be true or false")
			return
		}
		filter.Disqualified = &d
		disqualifiedKey = strconv.FormatBool(d)
	}

	if v := query.Get("min_score"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil || s < 0 || s > 100 {
			respondError(w, http.StatusBadRequest, "min_score must be an integer between 0 and 100")
			return
		}
		filter.MinScore = &s
		minScoreKey = s
	}

	key := redis.ScreeningListKey(disqualifiedKey, minScoreKey)
	var results []contracts.StoredResult
	found, err := h.cache.Get(ctx, key, &results)
	if err != nil || !found {
		results, err = h.results.ListResults(ctx, filter)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list screening results")
			respondError(w, http.StatusInternalServerError, "Failed to list screening results")
			return
		}
		if err := h.cache.Set(ctx, key, results, redis.TTLShort); err != nil {
			h.logger.WithError(err).Warn("Failed to cache screening results")
		}
	}

	if results == nil {
		results = []contracts.StoredResult{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    results,
		"count":   len(results),
	})
}

// companyID parses the {id} path variable, writing 400 on failure
func companyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "company id must be a positive integer")
		return 0, false
	}
	return id, true
}
