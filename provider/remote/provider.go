// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package remote

import (
	"log/slog"

	"github.com/poiesic/retrievit/provider"
)

// Provider implements provider.Provider using network services.
// It manages embedder and web searcher instances.
type Provider struct {
	config   *provider.Config
	embedder *Embedder
	searcher *WebSearcher
	logger   *slog.Logger
}

// NewProvider creates a new retrieval provider backed by remote services.
// The config is validated and normalized before use.
//
// Returns provider.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to service-specific implementation details.
func NewProvider(config *provider.Config) (provider.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	searcher, err := newWebSearcher(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		searcher: searcher,
		logger:   slog.Default().With("component", "remote-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() provider.Embedder {
	return p.embedder
}

// WebSearcher returns the web search service.
func (p *Provider) WebSearcher() provider.WebSearcher {
	return p.searcher
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing remote provider")
	return nil
}
