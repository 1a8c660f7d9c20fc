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


package core

import "fmt"

// validBlockTypes enumerates the accepted block type tags.
var validBlockTypes = map[BlockType]bool{
	BlockTypeText:     true,
	BlockTypeTable:    true,
	BlockTypeEquation: true,
	BlockTypeImage:    true,
	BlockTypeSlide:    true,
	BlockTypeVideo:    true,
	BlockTypeAudio:    true,
}

// ValidateBlockType checks that a block type tag is one of the known variants.
func ValidateBlockType(t BlockType) error {
	if !validBlockTypes[t] {
		return fmt.Errorf("%w: %q", ErrInvalidBlockType, t)
	}
	return nil
}

// ValidateStatus checks that a document status is one of the known states.
func ValidateStatus(s DocumentStatus) error {
	switch s {
	case StatusProcessing, StatusCompleted, StatusFailed:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// ValidateTransition checks a status transition against the lifecycle rules.
//
// Allowed:
//   - processing -> completed
//   - processing -> failed
//
// Terminal states accept no further transitions.
func ValidateTransition(from, to DocumentStatus) error {
	if err := ValidateStatus(from); err != nil {
		return err
	}
	if err := ValidateStatus(to); err != nil {
		return err
	}
	if from != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrStatusFinal, from, to)
	}
	if to == StatusProcessing {
		return fmt.Errorf("%w: cannot transition back to %s", ErrInvalidStatus, to)
	}
	return nil
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Filename must not be empty
//   - Status must be a known state
//
// NOT validated (populated by the pipeline):
//   - Checksum (0 until the file is read)
//   - ChunkCount/AttemptedCount/StoredCount (0 until ingestion completes)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}
	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - ID and DocID must not be empty
//   - Text must not be empty (empty blocks are dropped before chunking)
//   - Type must be a known block type
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.ID == "" || chunk.DocID == "" {
		return fmt.Errorf("%w: missing identity", ErrInvalidChunk)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}
	if err := ValidateBlockType(chunk.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}
	return nil
}
