package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL = time.Hour
	MaxTTL     = 24 * time.Hour
)

// ResultCache memoises computed report results. Any store failure degrades to
// computing the value directly; callers only ever see compute errors.
type ResultCache struct {
	store      Store
	defaultTTL time.Duration
	logger     *zap.Logger
	group      singleflight.Group
}

func New(store Store, defaultTTL time.Duration, logger *zap.Logger) *ResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &ResultCache{store: store, logger: logger.Named("cache")}
	c.defaultTTL = DefaultTTL
	c.defaultTTL = c.ClampTTL(defaultTTL)
	return c
}

// ClampTTL maps non-positive durations to the default and caps the rest at
// MaxTTL.
func (c *ResultCache) ClampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return c.defaultTTL
	}
	if ttl > MaxTTL {
		return MaxTTL
	}
	return ttl
}

// KeyParts are the inputs that distinguish one cached result from another.
type KeyParts struct {
	ReportID string
	Kind     string
	Filters  []models.Filter
	Sorting  *models.Sorting
	Page     int
	PerPage  int
	Columns  []string
	// UserID is set only for reports whose filters depend on the caller.
	UserID string
}

type canonicalFilter struct {
	Field    string `json:"f"`
	Operator string `json:"o"`
	Value    string `json:"v"`
}

// Key derives a stable cache key. Filters are hashed in canonical order, so
// the same set supplied in a different order shares an entry.
func Key(p KeyParts) string {
	filters := make([]canonicalFilter, len(p.Filters))
	for i, f := range p.Filters {
		v, err := json.Marshal(f.Value)
		if err != nil {
			v = []byte(fmt.Sprint(f.Value))
		}
		filters[i] = canonicalFilter{Field: f.Field, Operator: strings.ToLower(f.Operator), Value: string(v)}
	}
	sort.Slice(filters, func(i, j int) bool {
		a, b := filters[i], filters[j]
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		if a.Operator != b.Operator {
			return a.Operator < b.Operator
		}
		return a.Value < b.Value
	})

	var sorting any
	if p.Sorting != nil {
		sorting = []string{p.Sorting.Field, strings.ToLower(string(p.Sorting.Direction))}
	}

	payload, _ := json.Marshal(struct {
		Kind    string            `json:"k"`
		Filters []canonicalFilter `json:"f"`
		Sorting any               `json:"s"`
		Page    int               `json:"p"`
		PerPage int               `json:"pp"`
		Columns []string          `json:"c,omitempty"`
		UserID  string            `json:"u,omitempty"`
	}{p.Kind, filters, sorting, p.Page, p.PerPage, p.Columns, p.UserID})

	sum := sha256.Sum256(payload)
	return indexName(p.ReportID) + ":" + hex.EncodeToString(sum[:])
}

func indexName(reportID string) string {
	return "report:" + reportID
}

// Entry addresses one cached value.
type Entry struct {
	ReportID string
	Key      string
	TTL      time.Duration
	Bypass   bool
}

// GetOrCompute returns the cached value for e.Key or computes, stores and
// returns a fresh one. The boolean reports a cache hit. Concurrent misses on
// the same key share a single compute.
func GetOrCompute[T any](ctx context.Context, c *ResultCache, e Entry, compute func(context.Context) (T, error)) (T, bool, error) {
	log := c.logger.With(zap.String("report_id", e.ReportID), zap.String("key", e.Key))

	if e.Bypass {
		if err := c.store.Delete(ctx, e.Key); err != nil {
			log.Warn("cache delete failed", zap.Error(errs.CacheUnavailableError{Op: "delete", Err: err}))
		}
	} else {
		raw, ok, err := c.store.Get(ctx, e.Key)
		switch {
		case err != nil:
			log.Warn("cache read failed", zap.Error(errs.CacheUnavailableError{Op: "get", Err: err}))
		case ok:
			var v T
			decodeErr := json.Unmarshal(raw, &v)
			if decodeErr == nil {
				return v, true, nil
			}
			log.Warn("discarding undecodable cache entry", zap.Error(decodeErr))
		}
	}

	shared, err, _ := c.group.Do(e.Key, func() (any, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.put(ctx, log, e, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	if v, ok := shared.(T); ok {
		return v, false, nil
	}

	v, err := compute(ctx)
	return v, false, err
}

func (c *ResultCache) put(ctx context.Context, log *zap.Logger, e Entry, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, indexName(e.ReportID), e.Key, raw, c.ClampTTL(e.TTL)); err != nil {
		log.Warn("cache write failed", zap.Error(errs.CacheUnavailableError{Op: "set", Err: err}))
	}
}

// Invalidate drops every key issued for reportID. It returns the number of
// live entries removed.
func (c *ResultCache) Invalidate(ctx context.Context, reportID string) (int, error) {
	n, err := c.store.DeleteIndex(ctx, indexName(reportID))
	if err != nil {
		return 0, errs.CacheUnavailableError{Op: "invalidate", Err: err}
	}

	c.logger.Info("cache invalidated", zap.String("report_id", reportID), zap.Int("keys", n))
	return n, nil
}
