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


package provider

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for retrieval service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// SearchHost is the base URL for the web search service API.
	// Example: "http://localhost:8888" for a local SearxNG instance
	SearchHost string

	// SearchTimeout bounds a single web search request.
	// Default: 15s
	SearchTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithSearchHost sets the web search service host URL.
func WithSearchHost(host string) ConfigOption {
	return func(c *Config) {
		c.SearchHost = host
	}
}

// WithSearchTimeout sets the per-request web search timeout.
func WithSearchTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.SearchTimeout = timeout
	}
}

// DefaultConfig returns a Config with sensible defaults for locally hosted
// OpenAI-compatible embedding and SearxNG-style search services.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "embeddinggemma",
		SearchHost:     "http://localhost:8888",
		SearchTimeout:  15 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the embedding host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc), and strips a
// trailing slash from the search host.
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	c.SearchHost = strings.TrimSuffix(c.SearchHost, "/")
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 15 * time.Second
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("provider config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("provider config: EmbeddingModel is required")
	}
	if c.SearchHost == "" {
		return errors.New("provider config: SearchHost is required")
	}
	return nil
}
