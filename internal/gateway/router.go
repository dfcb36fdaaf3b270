package gateway

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/homeroomhq/homeroom/internal/logging"
	"github.com/homeroomhq/homeroom/pkg/schema"
)

// Observer receives dispatch outcomes for metrics.
type Observer interface {
	ObserveDispatch(provider, action string, success bool, duration time.Duration)
}

// AuditSink records one entry per dispatch. Implemented by the store.
type AuditSink interface {
	RecordDispatch(ctx context.Context, audit DispatchAudit)
}

// DispatchAudit is the audit-log view of a single dispatch.
type DispatchAudit struct {
	AgentID  string
	Provider string
	Action   string
	Success  bool
	Error    string
	Duration time.Duration
}

// RouterDeps holds the optional collaborators of a Router.
type RouterDeps struct {
	Logger    *slog.Logger
	Validator *InputValidator
	Observer  Observer
	Audit     AuditSink
}

// Router validates action requests and dispatches them to the registered
// provider handlers, converting every outcome into the normalized envelope.
// Registration happens once at startup; afterwards the tables are read-only
// and Dispatch is safe for concurrent use.
type Router struct {
	providers map[schema.ProviderName]Provider
	tables    map[schema.ProviderName]map[string]Action
	order     []Provider

	logger    *slog.Logger
	validator *InputValidator
	observer  Observer
	audit     AuditSink
}

// NewRouter creates an empty Router.
func NewRouter(deps RouterDeps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	validator := deps.Validator
	if validator == nil {
		validator = NewInputValidator()
	}
	return &Router{
		providers: make(map[schema.ProviderName]Provider),
		tables:    make(map[schema.ProviderName]map[string]Action),
		logger:    logger,
		validator: validator,
		observer:  deps.Observer,
		audit:     deps.Audit,
	}
}

// Register adds a provider and its action table. Returns an error on a
// duplicate provider name or a duplicate action within the provider.
func (r *Router) Register(p Provider) error {
	if p == nil {
		return schema.NewError(schema.ErrCodeValidation, "provider is nil")
	}
	name := p.Name()
	if name == "" {
		return schema.NewError(schema.ErrCodeValidation, "provider name is empty")
	}
	if _, exists := r.providers[name]; exists {
		return schema.NewErrorf(schema.ErrCodeConflict, "provider %q already registered", name)
	}

	table := make(map[string]Action)
	for _, action := range p.Actions() {
		if action.Name == "" {
			return schema.NewErrorf(schema.ErrCodeValidation, "provider %q has an unnamed action", name)
		}
		if action.Handler == nil {
			return schema.NewErrorf(schema.ErrCodeValidation, "action %s.%s has no handler", name, action.Name)
		}
		if _, exists := table[action.Name]; exists {
			return schema.NewErrorf(schema.ErrCodeConflict, "action %s.%s already registered", name, action.Name)
		}
		table[action.Name] = action
	}

	r.providers[name] = p
	r.tables[name] = table
	r.order = append(r.order, p)
	return nil
}

// Providers returns provider and action summaries in registration order.
func (r *Router) Providers() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(r.order))
	for _, p := range r.order {
		actions := p.Actions()
		actionInfos := make([]ActionInfo, 0, len(actions))
		for _, a := range actions {
			actionInfos = append(actionInfos, ActionInfo{
				Name:        a.Name,
				Description: a.Description,
				Required:    a.Required,
			})
		}
		infos = append(infos, ProviderInfo{Name: p.Name(), Actions: actionInfos})
	}
	return infos
}

// ProviderList returns the registered providers in registration order.
func (r *Router) ProviderList() []Provider {
	return r.order
}

// Dispatch validates the request and invokes the resolved handler. Every
// path, including handler panics, produces exactly one ActionResult; nothing
// escapes past this boundary.
func (r *Router) Dispatch(ctx context.Context, req schema.ActionRequest) (result schema.ActionResult) {
	ctx = logging.WithDispatch(ctx, req.AgentID, string(req.Provider), req.Action)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "handler panic", slog.Any("panic", rec))
			result = schema.Fail(schema.NewErrorf(schema.ErrCodeUnexpectedFailure,
				"handler panic: %v", rec))
		}
		r.finish(ctx, req, result, time.Since(start))
	}()

	table, ok := r.tables[req.Provider]
	if !ok {
		return schema.Fail(schema.NewErrorf(schema.ErrCodeUnknownProvider,
			"unknown provider %q", req.Provider))
	}

	action, ok := table[req.Action]
	if !ok {
		return schema.Fail(schema.NewErrorf(schema.ErrCodeUnknownAction,
			"unknown action %q for provider %q", req.Action, req.Provider).
			WithProvider(req.Provider))
	}

	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	if missing := missingFields(payload, action.Required); len(missing) > 0 {
		return schema.Fail(schema.NewErrorf(schema.ErrCodeInvalidPayload,
			"missing required field(s): %s", strings.Join(missing, ", ")).
			WithProvider(req.Provider))
	}

	if err := r.validator.Validate(payload, action.InputSchema); err != nil {
		return schema.Fail(err)
	}

	// Validation is complete before the network call starts.
	data, err := action.Handler(ctx, req.AgentID, payload)
	if err != nil {
		return schema.Fail(err)
	}
	return schema.Succeed(data)
}

// finish emits logging, metrics, and the audit record for one dispatch.
func (r *Router) finish(ctx context.Context, req schema.ActionRequest, res schema.ActionResult, d time.Duration) {
	if res.Success {
		r.logger.InfoContext(ctx, "dispatch succeeded", slog.Duration("duration", d))
	} else {
		r.logger.WarnContext(ctx, "dispatch failed",
			slog.String("code", res.Code),
			slog.String("error", res.Error),
			slog.Duration("duration", d),
		)
	}
	if r.observer != nil {
		r.observer.ObserveDispatch(string(req.Provider), req.Action, res.Success, d)
	}
	if r.audit != nil {
		r.audit.RecordDispatch(ctx, DispatchAudit{
			AgentID:  req.AgentID,
			Provider: string(req.Provider),
			Action:   req.Action,
			Success:  res.Success,
			Error:    res.Error,
			Duration: d,
		})
	}
}
