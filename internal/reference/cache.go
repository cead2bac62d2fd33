// internal/reference/cache.go
// Package reference caches the portal's state and district commission lists
// and resolves human-readable names to the portal's opaque ids.
package reference

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/lexi-legal/jagriti-proxy/internal/jagriti"
	"github.com/lexi-legal/jagriti-proxy/internal/metrics"
	"github.com/lexi-legal/jagriti-proxy/internal/model"
	"github.com/lexi-legal/jagriti-proxy/internal/normalize"
)

// Upstream is the subset of the portal client the cache needs.
type Upstream interface {
	States(ctx context.Context) ([]jagriti.ReferenceEntry, error)
	DistrictCommissions(ctx context.Context, stateID string) ([]jagriti.ReferenceEntry, error)
}

const (
	statesKey          = "states"
	commissionsPrefix  = "commissions:"
	maxCachedStateSets = 128 // Distinct states whose commission lists are held
)

// Cache holds reference lists for a fixed TTL. Concurrent misses on the same
// key share a single upstream fetch. Failed or empty fetches are not cached.
type Cache struct {
	upstream    Upstream
	states      *expirable.LRU[string, []model.StateRef]
	commissions *expirable.LRU[string, []model.CommissionRef]
	group       singleflight.Group
	metrics     *metrics.Metrics
}

// New creates a Cache over upstream whose entries live for ttl.
func New(upstream Upstream, ttl time.Duration) *Cache {
	return &Cache{
		upstream:    upstream,
		states:      expirable.NewLRU[string, []model.StateRef](1, nil, ttl),
		commissions: expirable.NewLRU[string, []model.CommissionRef](maxCachedStateSets, nil, ttl),
		metrics:     metrics.NewMetrics(),
	}
}

// States returns the active, non circuit bench states, one per name.
// An upstream failure yields an empty list.
func (c *Cache) States(ctx context.Context) []model.StateRef {
	if refs, ok := c.states.Get(statesKey); ok {
		c.metrics.ReferenceCacheTotal.WithLabelValues("states", "hit").Inc()
		return slices.Clone(refs)
	}
	c.metrics.ReferenceCacheTotal.WithLabelValues("states", "miss").Inc()

	v, err, _ := c.group.Do(statesKey, func() (any, error) {
		if refs, ok := c.states.Get(statesKey); ok {
			return refs, nil
		}
		entries, err := c.upstream.States(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		refs := filterStates(entries)
		if len(refs) == 0 {
			slog.Error("no states returned from portal")
			return refs, nil
		}
		c.states.Add(statesKey, refs)
		slog.Info("cached states", "count", len(refs))
		return refs, nil
	})
	if err != nil {
		slog.Error("failed to fetch states", "error", err)
		return []model.StateRef{}
	}
	return slices.Clone(v.([]model.StateRef))
}

// Commissions returns the active district commissions of stateID.
// An upstream failure yields an empty list.
func (c *Cache) Commissions(ctx context.Context, stateID string) []model.CommissionRef {
	key := commissionsPrefix + stateID
	if refs, ok := c.commissions.Get(key); ok {
		c.metrics.ReferenceCacheTotal.WithLabelValues("commissions", "hit").Inc()
		return slices.Clone(refs)
	}
	c.metrics.ReferenceCacheTotal.WithLabelValues("commissions", "miss").Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		if refs, ok := c.commissions.Get(key); ok {
			return refs, nil
		}
		entries, err := c.upstream.DistrictCommissions(context.WithoutCancel(ctx), stateID)
		if err != nil {
			return nil, err
		}
		refs := filterCommissions(entries, stateID)
		if len(refs) == 0 {
			slog.Error("no commissions returned from portal", "state_id", stateID)
			return refs, nil
		}
		c.commissions.Add(key, refs)
		slog.Info("cached commissions", "state_id", stateID, "count", len(refs))
		return refs, nil
	})
	if err != nil {
		slog.Error("failed to fetch commissions", "state_id", stateID, "error", err)
		return []model.CommissionRef{}
	}
	return slices.Clone(v.([]model.CommissionRef))
}

// ResolveStateID finds the id of the state called name.
func (c *Cache) ResolveStateID(ctx context.Context, name string) (string, bool) {
	want := normalize.StateName(name)
	for _, s := range c.States(ctx) {
		if s.StateName == want {
			return s.StateID, true
		}
	}
	slog.Warn("state not found", "state", name)
	return "", false
}

// ResolveCommissionID finds the id of the commission called name within
// stateID. Names compare case-insensitively.
func (c *Cache) ResolveCommissionID(ctx context.Context, stateID, name string) (string, bool) {
	want := normalize.CommissionName(name)
	for _, cm := range c.Commissions(ctx, stateID) {
		if strings.EqualFold(normalize.CommissionName(cm.CommissionName), want) {
			return cm.CommissionID, true
		}
	}
	slog.Warn("commission not found", "state_id", stateID, "commission", name)
	return "", false
}

func filterStates(entries []jagriti.ReferenceEntry) []model.StateRef {
	refs := make([]model.StateRef, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.Active || e.CircuitBench {
			continue
		}
		name := normalize.StateName(e.CommissionName)
		id := strings.TrimSpace(e.CommissionID)
		if name == "" || id == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		refs = append(refs, model.StateRef{StateID: id, StateName: name})
	}
	return refs
}

func filterCommissions(entries []jagriti.ReferenceEntry, stateID string) []model.CommissionRef {
	refs := make([]model.CommissionRef, 0, len(entries))
	for _, e := range entries {
		if !e.Active {
			continue
		}
		refs = append(refs, model.CommissionRef{
			CommissionID:   strings.TrimSpace(e.CommissionID),
			CommissionName: e.CommissionName,
			StateID:        stateID,
		})
	}
	return refs
}
