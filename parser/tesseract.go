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
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/poiesic/docvault/core"
)

// TesseractBackend runs the tesseract OCR CLI against standalone image files.
// It emits a single image block carrying the recognized text.
type TesseractBackend struct {
	binary string
}

func NewTesseractBackend() *TesseractBackend {
	return &TesseractBackend{binary: "tesseract"}
}

func (b *TesseractBackend) Name() string { return "tesseract" }

func (b *TesseractBackend) Probe() bool {
	_, err := exec.LookPath(b.binary)
	return err == nil
}

func (b *TesseractBackend) Supports(fileType core.FileType) bool {
	return fileType == core.FileTypeImage
}

func (b *TesseractBackend) Parse(ctx context.Context, path string) ([]core.ContentBlock, error) {
	cmd := exec.CommandContext(ctx, b.binary, path, "stdout")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("tesseract failed on %s: %w", path, err)
	}

	ocr := strings.TrimSpace(string(out))
	if ocr == "" {
		return nil, ErrNoContent
	}
	return []core.ContentBlock{{
		Type:        core.BlockTypeImage,
		Description: fmt.Sprintf("Image file %s", filepath.Base(path)),
		OCRText:     ocr,
	}}, nil
}
