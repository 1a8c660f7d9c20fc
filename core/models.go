package core

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// BlockType discriminates the variants of a ContentBlock.
// Each extracted unit carries exactly one type tag; the variant fields
// (Description, OCRText, Transcript) are only meaningful for the
// multimedia variants.
type BlockType string

const (
	BlockTypeText     BlockType = "text"
	BlockTypeTable    BlockType = "table"
	BlockTypeEquation BlockType = "equation"
	BlockTypeImage    BlockType = "image"
	BlockTypeSlide    BlockType = "slide"
	BlockTypeVideo    BlockType = "video"
	BlockTypeAudio    BlockType = "audio"
)

// ContentBlock is one atomic unit extracted from a source file: a paragraph,
// a table, a slide, a keyframe description, or a transcript segment.
// Blocks are produced by parser backends, consumed once by the ingestion
// pipeline, and never persisted standalone.
type ContentBlock struct {
	Type  BlockType
	Text  string // Primary extracted text
	Page  int    // 1-based page number, 0 if unknown
	Slide int    // 1-based slide number, 0 if unknown
	BBox  []float64

	// Secondary text carried by multimedia variants.
	Description string // Generated description (image, video frame)
	OCRText     string // Text recognized inside an image or slide
	Transcript  string // Speech-to-text output (audio, video)

	Source string // Name of the backend that produced this block
	Index  int    // Sequence index within the document, monotonic
}

// DocumentStatus tracks the lifecycle of an ingested source file.
// A document transitions at most once: processing -> completed or failed.
type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// FileType classifies a source file by its media family.
type FileType string

const (
	FileTypeDocument FileType = "document"
	FileTypePPT      FileType = "ppt"
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeAudio    FileType = "audio"
)

// supportedExtensions maps file types to the extensions they cover.
var supportedExtensions = map[FileType][]string{
	FileTypeDocument: {
		".pdf", ".doc", ".docx", ".xls", ".xlsx",
		".md", ".markdown", ".txt", ".html", ".htm", ".epub", ".rtf", ".odt",
		".ods", ".odp", ".csv", ".tsv",
	},
	FileTypePPT:   {".ppt", ".pptx"},
	FileTypeImage: {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff"},
	FileTypeVideo: {".mp4", ".avi", ".mov", ".wmv", ".flv", ".mkv"},
	FileTypeAudio: {".mp3", ".wav", ".flac", ".aac", ".ogg"},
}

// FileTypeForPath classifies a file path by extension.
// Returns an error for unsupported extensions.
func FileTypeForPath(path string) (FileType, error) {
	ext := strings.ToLower(filepath.Ext(path))
	// Presentations share no extensions with the generic document set, but
	// check them first so the ordering is explicit.
	for _, e := range supportedExtensions[FileTypePPT] {
		if ext == e {
			return FileTypePPT, nil
		}
	}
	for _, fileType := range []FileType{FileTypeDocument, FileTypeImage, FileTypeVideo, FileTypeAudio} {
		for _, e := range supportedExtensions[fileType] {
			if ext == e {
				return fileType, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
}

// SupportedExtensions returns the extension list for a file type.
// The returned slice must not be modified.
func SupportedExtensions(t FileType) []string {
	return supportedExtensions[t]
}

// Document represents one ingested source file.
// Created with StatusProcessing before parsing; mutated exactly once at the
// terminal transition. AttemptedCount and StoredCount may differ after a
// partial-success ingestion; the discrepancy is deliberately kept visible.
type Document struct {
	ID          string
	Filename    string
	FileType    FileType
	Checksum    uint64 // BLAKE2b content hash of the source file
	Status      DocumentStatus
	Error       string // Human-readable failure reason, set on StatusFailed
	CreatedAt   time.Time
	ProcessedAt time.Time // Zero until the terminal transition

	ChunkCount     int // Chunks written to the metadata store
	AttemptedCount int // Vector records attempted against the index
	StoredCount    int // Vector records confirmed stored
}

// Chunk is a ContentBlock assigned a storage identity. Chunks are immutable
// after creation and live in the metadata store; non-empty chunks are
// mirrored as vector records in the index.
type Chunk struct {
	ID        string // DocID + "_" + Index, deterministic and unique per document
	DocID     string
	Index     int
	Text      string // Normalized embedding text
	Type      BlockType
	Page      int
	Source    string // Backend that produced the originating block
	CreatedAt time.Time
}

// ChunkID builds a deterministic chunk identifier from a document id and a
// monotonic sequence index.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_%d", docID, index)
}

// VectorRecord is the projection of a Chunk stored in the vector index.
// Upserting the same ID overwrites the previous record.
type VectorRecord struct {
	ID       string // Chunk ID
	Vector   []float32
	Metadata map[string]string
}

// Metadata keys used on vector records.
const (
	MetaDocID       = "doc_id"
	MetaFilename    = "filename"
	MetaFileType    = "file_type"
	MetaContentType = "content_type"
	MetaPage        = "page"
	MetaText        = "text"
)
