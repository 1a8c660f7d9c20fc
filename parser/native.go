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
	"os"
	"path/filepath"
	"regexp"
	"strings"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/poiesic/docvault/core"
)

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// NativeBackend extracts content from plain text, Markdown and HTML without
// external tooling. It is always available and sits first in the default
// chain so cheap formats never shell out.
type NativeBackend struct {
	md goldmark.Markdown
}

func NewNativeBackend() *NativeBackend {
	return &NativeBackend{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (b *NativeBackend) Name() string { return "native" }

func (b *NativeBackend) Probe() bool { return true }

func (b *NativeBackend) Supports(fileType core.FileType) bool {
	return fileType == core.FileTypeDocument
}

func (b *NativeBackend) Parse(ctx context.Context, path string) ([]core.ContentBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		return b.parseText(content), nil
	case ".md", ".markdown":
		return b.parseMarkdown(content)
	case ".html", ".htm":
		return b.parseHTML(content)
	case ".csv", ".tsv":
		return b.parseDelimited(content), nil
	default:
		return nil, fmt.Errorf("native backend cannot parse %s files", ext)
	}
}

// parseText splits plain text on blank lines, one block per paragraph.
// Paragraph position stands in for a page number.
func (b *NativeBackend) parseText(content string) []core.ContentBlock {
	var blocks []core.ContentBlock
	for _, para := range paragraphSplit.Split(content, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		blocks = append(blocks, core.ContentBlock{
			Type: core.BlockTypeText,
			Text: para,
			Page: len(blocks) + 1,
		})
	}
	return blocks
}

// parseMarkdown walks the goldmark AST and emits one block per top-level
// element. GFM tables become table blocks, everything else flattens to text.
func (b *NativeBackend) parseMarkdown(content string) ([]core.ContentBlock, error) {
	src := []byte(content)
	root := b.md.Parser().Parse(text.NewReader(src))

	var blocks []core.ContentBlock
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		switch node.Kind() {
		case east.KindTable:
			if t := tableText(node, src); t != "" {
				blocks = append(blocks, core.ContentBlock{Type: core.BlockTypeTable, Text: t})
			}
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			if t := strings.TrimSpace(rawLines(node, src)); t != "" {
				blocks = append(blocks, core.ContentBlock{Type: core.BlockTypeText, Text: t})
			}
		default:
			if t := strings.TrimSpace(inlineText(node, src)); t != "" {
				blocks = append(blocks, core.ContentBlock{Type: core.BlockTypeText, Text: t})
			}
		}
	}
	return blocks, nil
}

// parseHTML strips markup down to Markdown and reuses the Markdown path.
// The document title, when present, leads as its own block.
func (b *NativeBackend) parseHTML(content string) ([]core.ContentBlock, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body = content
	}

	converter := htmltomd.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(body)
	if err != nil {
		return nil, fmt.Errorf("converting html: %w", err)
	}

	blocks, err := b.parseMarkdown(markdown)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		blocks = append([]core.ContentBlock{{Type: core.BlockTypeText, Text: title}}, blocks...)
	}
	return blocks, nil
}

// parseDelimited keeps tabular files whole as a single table block.
func (b *NativeBackend) parseDelimited(content string) []core.ContentBlock {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	return []core.ContentBlock{{Type: core.BlockTypeTable, Text: content}}
}

// inlineText flattens every inline text node under n, preserving line breaks.
func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.AutoLink:
			sb.Write(t.URL(src))
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// rawLines returns the raw source lines spanned by a code block node.
func rawLines(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return sb.String()
}

// tableText renders a GFM table row by row with pipe separators.
func tableText(n ast.Node, src []byte) string {
	var rows []string
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(inlineText(cell, src)))
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	}
	return strings.Join(rows, "\n")
}
