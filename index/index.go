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

package index

import (
	"context"

	"github.com/poiesic/docvault/core"
)

// Filter restricts a similarity query by vector record metadata. Zero value
// matches everything.
type Filter struct {
	DocID        string
	ContentTypes []core.BlockType
	FileTypes    []core.FileType
}

// Matches reports whether metadata satisfies the filter.
func (f Filter) Matches(metadata map[string]string) bool {
	if f.DocID != "" && metadata[core.MetaDocID] != f.DocID {
		return false
	}
	if len(f.ContentTypes) > 0 {
		if !containsString(f.ContentTypes, metadata[core.MetaContentType]) {
			return false
		}
	}
	if len(f.FileTypes) > 0 {
		if !containsString(f.FileTypes, metadata[core.MetaFileType]) {
			return false
		}
	}
	return true
}

func containsString[T ~string](values []T, s string) bool {
	for _, v := range values {
		if string(v) == s {
			return true
		}
	}
	return false
}

// Match is one similarity query hit, highest score first.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// Index is the vector index service boundary. Upsert is idempotent by
// record id and carries no cross-record transaction guarantee: a batch may
// partially land even on an observed failure, so retries are always safe.
// DeleteMatching matches on the stored records themselves, which makes it
// the cleanup path for vectors whose chunk metadata never landed.
type Index interface {
	Upsert(ctx context.Context, records []core.VectorRecord) error
	Query(ctx context.Context, vector []float32, topK int, filter Filter) ([]Match, error)
	Delete(ctx context.Context, ids ...string) error
	DeleteMatching(ctx context.Context, filter Filter) (int, error)
	Close() error
}
