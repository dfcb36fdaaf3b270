package gateway

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/homeroomhq/homeroom/pkg/schema"
)

// ProbeAgentID is the reserved synthetic agent identity used for capability
// probes, so probe traffic is distinguishable in logs and the audit trail.
const ProbeAgentID = "config-check"

// AvailabilityObserver receives probe outcomes for metrics.
type AvailabilityObserver interface {
	SetAvailability(provider string, available bool)
	ProbeRoundCompleted()
}

// Prober derives a per-provider availability snapshot by issuing one benign
// probe per provider through the Router, concurrently and independently.
// The snapshot is memoized until Invalidate is called; there is no time-based
// expiry.
type Prober struct {
	router   *Router
	logger   *slog.Logger
	observer AvailabilityObserver

	// probeMu serializes probing rounds so concurrent first queries don't
	// double-probe. cacheMu guards only the snapshot pointer.
	probeMu  sync.Mutex
	cacheMu  sync.Mutex
	snapshot schema.Snapshot
}

// NewProber creates a Prober over the Router's registered providers.
func NewProber(router *Router, logger *slog.Logger, observer AvailabilityObserver) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{router: router, logger: logger, observer: observer}
}

// Cached returns the memoized snapshot, or false if none has been computed
// since startup or the last Invalidate.
func (p *Prober) Cached() (schema.Snapshot, bool) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	if p.snapshot == nil {
		return nil, false
	}
	return p.snapshot.Clone(), true
}

// Invalidate clears the cached snapshot unconditionally. The next CheckAll
// re-probes every provider from scratch.
func (p *Prober) Invalidate() {
	p.cacheMu.Lock()
	p.snapshot = nil
	p.cacheMu.Unlock()
}

// CheckAll returns the cached snapshot if present; otherwise it probes every
// registered provider concurrently, waits for all probes to settle, and
// memoizes the result. One probe's failure or panic never affects another:
// each degrades only its own entry.
func (p *Prober) CheckAll(ctx context.Context) schema.Snapshot {
	if snap, ok := p.Cached(); ok {
		return snap
	}

	p.probeMu.Lock()
	defer p.probeMu.Unlock()

	// Another caller may have finished a round while we waited.
	if snap, ok := p.Cached(); ok {
		return snap
	}

	// A round that starts runs to completion. Probes are detached from the
	// caller's cancellation so a disconnecting client cannot abort in-flight
	// probes and memoize an all-failed snapshot.
	ctx = context.WithoutCancel(ctx)

	providers := p.router.ProviderList()
	results := make([]bool, len(providers))

	var wg sync.WaitGroup
	for i, prov := range providers {
		wg.Add(1)
		go func(i int, prov Provider) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					p.logger.Error("probe panic",
						slog.String("provider", string(prov.Name())),
						slog.Any("panic", rec),
					)
					results[i] = false
				}
			}()
			results[i] = p.probe(ctx, prov)
		}(i, prov)
	}
	wg.Wait()

	snap := make(schema.Snapshot, len(providers))
	for i, prov := range providers {
		snap[prov.Name()] = results[i]
		if p.observer != nil {
			p.observer.SetAvailability(string(prov.Name()), results[i])
		}
	}
	if p.observer != nil {
		p.observer.ProbeRoundCompleted()
	}

	p.cacheMu.Lock()
	p.snapshot = snap
	p.cacheMu.Unlock()

	return snap.Clone()
}

// probe issues one provider's benign call and classifies the outcome.
func (p *Prober) probe(ctx context.Context, prov Provider) bool {
	spec := prov.Probe()
	res := p.router.Dispatch(ctx, schema.ActionRequest{
		Provider: prov.Name(),
		Action:   spec.Action,
		AgentID:  ProbeAgentID,
		Payload:  spec.Payload,
	})

	available := classify(spec.Mode, res)
	p.logger.Info("probe settled",
		slog.String("provider", string(prov.Name())),
		slog.Bool("available", available),
		slog.Bool("probe_success", res.Success),
		slog.String("probe_error", res.Error),
	)
	return available
}

// classify maps a probe envelope to an availability flag.
//
// In ProbeTolerateDomainError mode the probe payload is a placeholder that
// valid credentials are expected to reject, so any domain error that does not
// mention credentials counts as positive evidence. The substring match on the
// provider's error wording is a known fragility, preserved as-is.
func classify(mode ProbeMode, res schema.ActionResult) bool {
	switch mode {
	case ProbeTolerateDomainError:
		if res.Success {
			return true
		}
		return !strings.Contains(strings.ToLower(res.Error), "credentials")
	default:
		return res.Success
	}
}
