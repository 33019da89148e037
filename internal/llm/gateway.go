package llm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/plara718/rekishi/internal/store"
)

// overrideTTL bounds how long a resolved model tier is reused before the
// intervention document is consulted again.
const overrideTTL = 5 * time.Minute

// ModelTierSource resolves the model tier ("production" or "test")
// configured for a user. Implementations may fail; the gateway treats
// lookup failure as "use the default tier".
type ModelTierSource interface {
	ModelTier(ctx context.Context, userID string) (string, error)
}

// Gateway is the single entry point for model invocations. It resolves
// the model tier, sends the prompt through the (retry-wrapped) provider,
// and sanitizes the completion into a parsed JSON object.
type Gateway struct {
	provider Provider
	models   ModelSet
	tiers    ModelTierSource
	userID   string
	cache    *gocache.Cache
	log      *zap.Logger
}

// GatewayOption configures optional Gateway collaborators.
type GatewayOption func(*Gateway)

// WithModelTierSource wires per-user model tier lookup.
func WithModelTierSource(src ModelTierSource, userID string) GatewayOption {
	return func(g *Gateway) {
		g.tiers = src
		g.userID = userID
	}
}

// NewGateway creates a Gateway over an already-wrapped provider.
func NewGateway(p Provider, models ModelSet, log *zap.Logger, opts ...GatewayOption) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gateway{
		provider: p,
		models:   models,
		cache:    gocache.New(overrideTTL, 2*overrideTTL),
		log:      log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Invoke sends the prompt and returns the completion as a JSON object.
// action labels the call in logs. schema, when non-nil, requests
// structured output and enforces it at the provider; pass nil for
// outputs the caller repairs itself.
func (g *Gateway) Invoke(ctx context.Context, action, system, prompt string, schema *Schema) (map[string]any, error) {
	ctx = WithPurpose(ctx, action)
	ctx = WithRequestID(ctx, uuid.NewString())

	req := Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		Model:     g.resolveTier(ctx),
		Schema:    schema,
		MaxTokens: 8192,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	obj, err := ParseObject(string(resp.Content))
	if err != nil {
		g.log.Warn("unusable completion",
			zap.String("action", action), zap.Error(err))
		return nil, err
	}
	return obj, nil
}

// resolveTier picks the model for this call: the user's configured
// tier if one is set, else the global tier, else production. Lookup
// failures are non-fatal.
func (g *Gateway) resolveTier(ctx context.Context) string {
	tier := "production"

	if g.tiers != nil {
		if cached, ok := g.cache.Get("tier"); ok {
			tier = cached.(string)
		} else {
			resolved, err := g.tiers.ModelTier(ctx, g.userID)
			if err != nil {
				g.log.Debug("model tier lookup failed, using default", zap.Error(err))
			} else if resolved != "" {
				tier = resolved
			}
			g.cache.SetDefault("tier", tier)
		}
	}

	return g.models.Resolve(tier)
}

// StoreTierSource reads the model tier from intervention documents:
// the user's own document first, then the global one.
type StoreTierSource struct {
	Store store.DocumentStore
}

func (s *StoreTierSource) ModelTier(ctx context.Context, userID string) (string, error) {
	for _, key := range []string{store.InterventionsKey(userID), store.InterventionsKey("global")} {
		doc, err := s.Store.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		if tier, ok := doc["model_override"].(string); ok && tier != "" {
			return tier, nil
		}
	}
	return "", nil
}
