// Package parser extracts structured content blocks from source files.
//
// A Resolver walks an ordered chain of Backend implementations until one
// succeeds. Backends wrap either native extraction (plain text, Markdown,
// HTML) or external CLI tools (MinerU for layout analysis, Tesseract for
// OCR, Whisper for transcription). Availability is probed once at resolver
// construction; a failing backend is logged and the next candidate takes
// over, so losing an external tool degrades coverage rather than breaking
// ingestion outright.
//
// Every block carries the name of the backend that produced it and its
// position in the extraction sequence, which downstream chunk identities
// are derived from.
package parser
