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
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/poiesic/docvault/core"
)

// MinerUBackend shells out to the MinerU document analysis CLI for layout-aware
// extraction of PDFs, office documents and slide decks. MinerU writes a
// content list JSON per document; each entry maps to one content block.
type MinerUBackend struct {
	binary string
}

func NewMinerUBackend() *MinerUBackend {
	return &MinerUBackend{binary: "mineru"}
}

func (b *MinerUBackend) Name() string { return "mineru" }

func (b *MinerUBackend) Probe() bool {
	_, err := exec.LookPath(b.binary)
	return err == nil
}

func (b *MinerUBackend) Supports(fileType core.FileType) bool {
	return fileType == core.FileTypeDocument || fileType == core.FileTypePPT
}

// contentEntry is one element of MinerU's content_list.json output.
type contentEntry struct {
	Type         string   `json:"type"`
	Text         string   `json:"text"`
	TableBody    string   `json:"table_body"`
	TableCaption []string `json:"table_caption"`
	ImgCaption   []string `json:"img_caption"`
	PageIdx      int      `json:"page_idx"`
}

func (b *MinerUBackend) Parse(ctx context.Context, path string) ([]core.ContentBlock, error) {
	outDir, err := os.MkdirTemp("", "docvault-mineru-*")
	if err != nil {
		return nil, fmt.Errorf("creating mineru output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	cmd := exec.CommandContext(ctx, b.binary, "-p", path, "-o", outDir, "-m", "auto")
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("mineru failed on %s: %w: %s", path, err, firstLine(out))
	}

	listPath, err := findContentList(outDir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("reading mineru output: %w", err)
	}

	var entries []contentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding mineru content list: %w", err)
	}

	fileType, _ := core.FileTypeForPath(path)
	return entriesToBlocks(entries, fileType), nil
}

// entriesToBlocks maps MinerU content entries onto tagged blocks.
// MinerU pages are zero-indexed; blocks carry one-indexed page numbers.
// Slide decks report the page index as a slide number instead.
func entriesToBlocks(entries []contentEntry, fileType core.FileType) []core.ContentBlock {
	var blocks []core.ContentBlock
	for _, e := range entries {
		block := core.ContentBlock{Page: e.PageIdx + 1}
		if fileType == core.FileTypePPT {
			block.Page = 0
			block.Slide = e.PageIdx + 1
			block.Type = core.BlockTypeSlide
		}

		switch e.Type {
		case "text":
			if fileType != core.FileTypePPT {
				block.Type = core.BlockTypeText
			}
			block.Text = strings.TrimSpace(e.Text)
		case "table":
			block.Type = core.BlockTypeTable
			block.Text = strings.TrimSpace(e.TableBody)
			if block.Text == "" {
				block.Text = strings.TrimSpace(e.Text)
			}
			if caption := strings.TrimSpace(strings.Join(e.TableCaption, " ")); caption != "" {
				block.Description = caption
			}
		case "equation":
			block.Type = core.BlockTypeEquation
			block.Text = strings.TrimSpace(e.Text)
		case "image":
			block.Type = core.BlockTypeImage
			block.Description = strings.TrimSpace(strings.Join(e.ImgCaption, " "))
		default:
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// findContentList locates the content_list.json MinerU nests under
// per-document subdirectories.
func findContentList(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), "content_list.json") {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scanning mineru output: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("mineru produced no content list under %s", root)
	}
	return found, nil
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
