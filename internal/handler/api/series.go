package api

import (
	"encoding/json"
	"net/http"
	"time"

	domrepo "PowerCast/internal/domain/repository"
	icache "PowerCast/internal/service/cache"
	"PowerCast/internal/service/metrics"
	"PowerCast/internal/service/ratelimit"
	"PowerCast/internal/usecase"
	pkgcache "PowerCast/pkg/cache"
	applogger "PowerCast/pkg/logger"
	"PowerCast/pkg/util"
)

// SeriesHandler serves raw stored series over plain net/http, used by the
// ops server alongside /metrics. Responses are short-lived cached.
type SeriesHandler struct {
	uc    *usecase.SeriesUseCase
	cache icache.BytesCache
	rl    *ratelimit.Limiter
	l     *applogger.Logger
}

func NewSeriesHandler(uc *usecase.SeriesUseCase) *SeriesHandler {
	metrics.Register()
	return &SeriesHandler{uc: uc, rl: ratelimit.New()}
}

func (h *SeriesHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *SeriesHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *SeriesHandler) Series() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "series"
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		source := r.URL.Query().Get("source")
		metric := r.URL.Query().Get("metric")
		if source == "" || metric == "" {
			if h.l != nil {
				h.l.Warn("series missing source/metric")
			}
			http.Error(w, "source and metric required", http.StatusBadRequest)
			return
		}
		res := domrepo.NormalizeResolution(r.URL.Query().Get("res"))
		limit := util.ParseIntDefault(r.URL.Query().Get("limit"), 10000)
		to := util.ParseTimeDefault(r.URL.Query().Get("to"), time.Now().UTC())
		from := util.ParseTimeDefault(r.URL.Query().Get("from"), to.AddDate(0, 0, -7))
		from, to = util.AlignFromTo(from, to, string(res))

		if !h.rl.Allow(r.RemoteAddr+":series", 5, 2) {
			if h.l != nil {
				h.l.Warn("series rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}

		// Key on every parameter that shapes the response, or a cached
		// default window would answer explicit historical ranges.
		cacheKey := pkgcache.GenerateKeyWithParams("series",
			source, metric, string(res), from.Unix(), to.Unix(), limit)
		if h.cache != nil {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn("series cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if h.l != nil {
					h.l.Debug("series cache_hit", applogger.String("key", cacheKey))
				}
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn("series write_error", applogger.Error(err))
				}
				return
			}
			if h.l != nil {
				h.l.Debug("series cache_miss", applogger.String("key", cacheKey))
			}
		}

		out, err := h.uc.GetSeries(r.Context(), usecase.GetSeriesParams{
			Source:     source,
			Metric:     metric,
			From:       from,
			To:         to,
			Resolution: res,
			Limit:      limit,
		})
		if err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("series error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(out)
		if err != nil {
			if h.l != nil {
				h.l.Error("series marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, 30*time.Second); err != nil && h.l != nil {
				h.l.Warn("series cache_set_error", applogger.Error(err))
			}
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("series write_error", applogger.Error(err))
		}
	}
}

