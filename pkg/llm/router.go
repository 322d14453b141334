package llm

import (
	"context"
	"sync"

	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/types"
)

// Router maps provider identifiers to their cached adapters.
//
// A provider moves from uninitialized to ready on InitAPI, which builds a
// new adapter through the factory and replaces any cached one. SendMessage
// never initializes implicitly.
type Router struct {
	factory  Factory
	logger   *logging.Logger
	mu       sync.RWMutex
	adapters map[types.ProviderID]Adapter
}

// NewRouter creates an empty router that builds adapters with factory.
func NewRouter(factory Factory, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Router{
		factory:  factory,
		logger:   logger,
		adapters: make(map[types.ProviderID]Adapter),
	}
}

// InitAPI builds the adapter for provider from cfg and caches it,
// replacing any previous adapter for that provider. On error the
// previously cached adapter, if any, is kept.
func (r *Router) InitAPI(provider types.ProviderID, cfg Config) error {
	if !provider.Known() || !Implemented(provider) {
		return &UnsupportedProviderError{Provider: provider}
	}

	adapter, err := r.factory(provider, cfg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	_, replaced := r.adapters[provider]
	r.adapters[provider] = adapter
	r.mu.Unlock()

	if replaced {
		r.logger.Infof("re-initialized %s adapter (key %s)", provider, logging.MaskKey(cfg.APIKey))
	} else {
		r.logger.Infof("initialized %s adapter (key %s)", provider, logging.MaskKey(cfg.APIKey))
	}
	return nil
}

// SendMessage routes one turn to provider's adapter.
//
// The adapter is captured before the request is sent, so a concurrent
// InitAPI for the same provider affects only later calls.
func (r *Router) SendMessage(ctx context.Context, provider types.ProviderID, content string, history []types.Message, chatCtx ChatContext, opts Options) (*Response, error) {
	adapter, err := r.adapter(provider)
	if err != nil {
		return nil, err
	}

	r.logger.Debugf("sending to %s: %d history messages, page context %t", provider, len(history), chatCtx.HasPage())

	resp, err := adapter.Send(ctx, content, history, chatCtx, opts)
	if err != nil {
		r.logger.Errorf("%s request failed: %v", provider, err)
		return nil, err
	}
	return resp, nil
}

// Initialized reports whether an adapter is cached for provider.
func (r *Router) Initialized(provider types.ProviderID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[provider]
	return ok
}

// Reset drops the cached adapter for provider.
func (r *Router) Reset(provider types.ProviderID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adapters, provider)
}

func (r *Router) adapter(provider types.ProviderID) (Adapter, error) {
	if !provider.Known() || !Implemented(provider) {
		return nil, &UnsupportedProviderError{Provider: provider}
	}

	r.mu.RLock()
	adapter, ok := r.adapters[provider]
	r.mu.RUnlock()

	if !ok {
		return nil, &NotInitializedError{Provider: provider}
	}
	return adapter, nil
}
