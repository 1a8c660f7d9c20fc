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
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/poiesic/docvault/core"
)

// WhisperBackend transcribes audio and video files through the whisper CLI.
// Each transcription segment becomes its own block so long recordings chunk
// along natural speech boundaries.
type WhisperBackend struct {
	binary string
	model  string
}

func NewWhisperBackend() *WhisperBackend {
	return &WhisperBackend{binary: "whisper", model: "base"}
}

func (b *WhisperBackend) Name() string { return "whisper" }

func (b *WhisperBackend) Probe() bool {
	_, err := exec.LookPath(b.binary)
	return err == nil
}

func (b *WhisperBackend) Supports(fileType core.FileType) bool {
	return fileType == core.FileTypeAudio || fileType == core.FileTypeVideo
}

// whisperOutput is the shape of whisper's JSON transcription file.
type whisperOutput struct {
	Text     string `json:"text"`
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
}

func (b *WhisperBackend) Parse(ctx context.Context, path string) ([]core.ContentBlock, error) {
	outDir, err := os.MkdirTemp("", "docvault-whisper-*")
	if err != nil {
		return nil, fmt.Errorf("creating whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	cmd := exec.CommandContext(ctx, b.binary, path,
		"--model", b.model,
		"--output_format", "json",
		"--output_dir", outDir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("whisper failed on %s: %w: %s", path, err, firstLine(out))
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data, err := os.ReadFile(filepath.Join(outDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("reading whisper output: %w", err)
	}

	var result whisperOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding whisper output: %w", err)
	}

	fileType, _ := core.FileTypeForPath(path)
	blockType := core.BlockTypeAudio
	if fileType == core.FileTypeVideo {
		blockType = core.BlockTypeVideo
	}

	var blocks []core.ContentBlock
	for _, seg := range result.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			blocks = append(blocks, core.ContentBlock{Type: blockType, Transcript: t})
		}
	}
	if len(blocks) == 0 {
		if t := strings.TrimSpace(result.Text); t != "" {
			blocks = append(blocks, core.ContentBlock{Type: blockType, Transcript: t})
		}
	}
	return blocks, nil
}
