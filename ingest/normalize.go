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

package ingest

import (
	"fmt"
	"strings"

	"github.com/poiesic/docvault/core"
)

// MaxDisplayChars caps the normalized text stored alongside a vector record.
// Independent of the embedding client's own input truncation.
const MaxDisplayChars = 1000

var blockMarkers = map[core.BlockType]string{
	core.BlockTypeTable:    "[Table]",
	core.BlockTypeEquation: "[Equation]",
	core.BlockTypeImage:    "[Image]",
	core.BlockTypeSlide:    "[Slide]",
	core.BlockTypeVideo:    "[Video]",
	core.BlockTypeAudio:    "[Audio]",
}

// BuildEmbeddingText flattens a content block into one embedding-ready
// string. Concatenation order is fixed: type marker (plain text has none),
// page or slide locator, primary text, then labeled secondary texts in the
// order description, OCR, transcript. Interior whitespace collapses to
// single spaces and the result is capped at MaxDisplayChars.
//
// An empty result means the block carries nothing worth indexing; callers
// drop such blocks entirely, on every path.
func BuildEmbeddingText(block core.ContentBlock) string {
	var parts []string

	if marker, ok := blockMarkers[block.Type]; ok {
		parts = append(parts, marker)
	}
	switch {
	case block.Slide > 0:
		parts = append(parts, fmt.Sprintf("[Slide %d]", block.Slide))
	case block.Page > 0:
		parts = append(parts, fmt.Sprintf("[Page %d]", block.Page))
	}

	if t := strings.TrimSpace(block.Text); t != "" {
		parts = append(parts, t)
	}
	if d := strings.TrimSpace(block.Description); d != "" {
		parts = append(parts, "Description: "+d)
	}
	if o := strings.TrimSpace(block.OCRText); o != "" {
		parts = append(parts, "OCR: "+o)
	}
	if tr := strings.TrimSpace(block.Transcript); tr != "" {
		parts = append(parts, "Transcript: "+tr)
	}

	// A block reduced to marker and locator alone carries no content.
	if len(parts) == 0 || onlyStructural(block, parts) {
		return ""
	}

	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	return capRunes(text, MaxDisplayChars)
}

// onlyStructural reports whether parts holds nothing beyond the type marker
// and locator.
func onlyStructural(block core.ContentBlock, parts []string) bool {
	structural := 0
	if _, ok := blockMarkers[block.Type]; ok {
		structural++
	}
	if block.Slide > 0 || block.Page > 0 {
		structural++
	}
	return len(parts) <= structural
}

func capRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
