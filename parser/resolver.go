// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docvault/core"
)

// Availability describes one registered backend and its probe result.
type Availability struct {
	Name      string
	Available bool
}

// Resolver walks an ordered backend chain until one produces content.
// Backends are probed exactly once at construction; an unavailable backend
// is never retried, an available one is assumed available for the process
// lifetime.
type Resolver struct {
	backends  []Backend
	available map[string]bool
	logger    *slog.Logger
}

// NewResolver probes the given backends in order and returns a resolver
// over them. Order matters: earlier backends are preferred.
func NewResolver(logger *slog.Logger, backends ...Backend) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		backends:  backends,
		available: make(map[string]bool, len(backends)),
		logger:    logger.With("component", "parser"),
	}
	for _, b := range backends {
		ok := b.Probe()
		r.available[b.Name()] = ok
		if !ok {
			r.logger.Warn("parser backend unavailable", "backend", b.Name())
		}
	}
	return r
}

// NewDefaultResolver returns a resolver over the standard backend chain:
// native extraction first, then MinerU, Tesseract and Whisper for the
// formats that need external tooling.
func NewDefaultResolver(logger *slog.Logger) *Resolver {
	return NewResolver(logger,
		NewNativeBackend(),
		NewMinerUBackend(),
		NewTesseractBackend(),
		NewWhisperBackend(),
	)
}

// Availability reports every registered backend with its cached probe result,
// in registration order.
func (r *Resolver) Availability() []Availability {
	out := make([]Availability, 0, len(r.backends))
	for _, b := range r.backends {
		out = append(out, Availability{Name: b.Name(), Available: r.available[b.Name()]})
	}
	return out
}

// Parse extracts content blocks from the file at path. Backends are tried
// in order; a failing backend is logged and absorbed, and the next candidate
// is consulted. Every returned block is tagged with the backend that produced
// it and a monotonically increasing sequence index.
func (r *Resolver) Parse(ctx context.Context, path string) ([]core.ContentBlock, error) {
	fileType, err := core.FileTypeForPath(path)
	if err != nil {
		return nil, err
	}

	tried := 0
	var lastErr error
	for _, b := range r.backends {
		if !r.available[b.Name()] || !b.Supports(fileType) {
			continue
		}
		tried++

		blocks, err := b.Parse(ctx, path)
		if err != nil {
			lastErr = err
			r.logger.Warn("parser backend failed, trying next",
				"backend", b.Name(), "path", path, "error", err)
			continue
		}
		if len(blocks) == 0 {
			lastErr = ErrNoContent
			r.logger.Warn("parser backend produced no content, trying next",
				"backend", b.Name(), "path", path)
			continue
		}

		for i := range blocks {
			blocks[i].Source = b.Name()
			blocks[i].Index = i
		}
		r.logger.Debug("parsed document",
			"backend", b.Name(), "path", path, "blocks", len(blocks))
		return blocks, nil
	}

	if tried == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBackendAvailable, fileType)
	}
	return nil, fmt.Errorf("%w: %s: last error: %v", ErrAllBackendsFailed, path, lastErr)
}
