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


package mock

import "github.com/poiesic/retrievit/provider"

// MockProvider is a test double for provider.Provider.
// It aggregates mock embedder and web searcher instances.
type MockProvider struct {
	embedder *MockEmbedder
	searcher *MockWebSearcher
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns provider.Provider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockWebSearcher() to access concrete types for test assertions.
func NewMockProvider() provider.Provider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		searcher: NewMockWebSearcher(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, searcher *MockWebSearcher) provider.Provider {
	return &MockProvider{
		embedder: embedder,
		searcher: searcher,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() provider.Embedder {
	return p.embedder
}

// WebSearcher returns the mock web searcher.
func (p *MockProvider) WebSearcher() provider.WebSearcher {
	return p.searcher
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockWebSearcher returns the underlying mock web searcher for test assertions.
func (p *MockProvider) GetMockWebSearcher() *MockWebSearcher {
	return p.searcher
}
