package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docvault/core"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNativeParseTextParagraphs(t *testing.T) {
	path := writeTemp(t, "notes.txt", "First paragraph\nstill first.\n\nSecond paragraph.\n\n\n\nThird.")

	b := NewNativeBackend()
	blocks, err := b.Parse(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, "First paragraph\nstill first.", blocks[0].Text)
	assert.Equal(t, "Second paragraph.", blocks[1].Text)
	assert.Equal(t, "Third.", blocks[2].Text)
	for i, blk := range blocks {
		assert.Equal(t, core.BlockTypeText, blk.Type)
		assert.Equal(t, i+1, blk.Page)
	}
}

func TestNativeParseMarkdown(t *testing.T) {
	content := `# Quarterly Report

Revenue grew in all regions.

| Region | Revenue |
|--------|---------|
| EMEA   | 40      |
| APAC   | 60      |
`
	path := writeTemp(t, "report.md", content)

	b := NewNativeBackend()
	blocks, err := b.Parse(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, core.BlockTypeText, blocks[0].Type)
	assert.Equal(t, "Quarterly Report", blocks[0].Text)
	assert.Equal(t, core.BlockTypeText, blocks[1].Type)
	assert.Equal(t, "Revenue grew in all regions.", blocks[1].Text)

	require.Equal(t, core.BlockTypeTable, blocks[2].Type)
	assert.Contains(t, blocks[2].Text, "Region | Revenue")
	assert.Contains(t, blocks[2].Text, "EMEA | 40")
}

func TestNativeParseMarkdownCodeBlock(t *testing.T) {
	path := writeTemp(t, "snippet.md", "Intro.\n\n```\nfunc main() {}\n```\n")

	b := NewNativeBackend()
	blocks, err := b.Parse(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "func main() {}", blocks[1].Text)
}

func TestNativeParseHTML(t *testing.T) {
	content := `<html>
<head><title>Release Notes</title><style>p { color: red }</style></head>
<body>
<script>alert("ignored")</script>
<h1>Version 2.0</h1>
<p>Faster indexing.</p>
</body>
</html>`
	path := writeTemp(t, "notes.html", content)

	b := NewNativeBackend()
	blocks, err := b.Parse(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, blocks)

	assert.Equal(t, "Release Notes", blocks[0].Text, "title leads")

	var texts []string
	for _, blk := range blocks {
		texts = append(texts, blk.Text)
		assert.NotContains(t, blk.Text, "alert", "scripts are stripped")
		assert.NotContains(t, blk.Text, "color: red", "styles are stripped")
	}
	assert.Contains(t, texts, "Version 2.0")
	assert.Contains(t, texts, "Faster indexing.")
}

func TestNativeParseCSVIsSingleTable(t *testing.T) {
	path := writeTemp(t, "data.csv", "name,count\nalpha,1\nbeta,2\n")

	b := NewNativeBackend()
	blocks, err := b.Parse(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, core.BlockTypeTable, blocks[0].Type)
	assert.Contains(t, blocks[0].Text, "alpha,1")
}

func TestNativeRejectsBinaryFormats(t *testing.T) {
	path := writeTemp(t, "paper.pdf", "%PDF-1.4")

	b := NewNativeBackend()
	_, err := b.Parse(context.Background(), path)
	require.Error(t, err, "binary document formats defer to mineru")
}

func TestMinerUEntriesToBlocks(t *testing.T) {
	entries := []contentEntry{
		{Type: "text", Text: "Body text.", PageIdx: 0},
		{Type: "table", TableBody: "<table><tr><td>1</td></tr></table>", TableCaption: []string{"Totals"}, PageIdx: 1},
		{Type: "equation", Text: "E = mc^2", PageIdx: 1},
		{Type: "image", ImgCaption: []string{"Figure 3"}, PageIdx: 2},
		{Type: "unknown-kind", Text: "dropped", PageIdx: 2},
	}

	blocks := entriesToBlocks(entries, core.FileTypeDocument)
	require.Len(t, blocks, 4)

	assert.Equal(t, core.BlockTypeText, blocks[0].Type)
	assert.Equal(t, 1, blocks[0].Page, "page numbers are one-indexed")

	assert.Equal(t, core.BlockTypeTable, blocks[1].Type)
	assert.Equal(t, "Totals", blocks[1].Description)
	assert.Equal(t, 2, blocks[1].Page)

	assert.Equal(t, core.BlockTypeEquation, blocks[2].Type)
	assert.Equal(t, core.BlockTypeImage, blocks[3].Type)
	assert.Equal(t, "Figure 3", blocks[3].Description)
}

func TestMinerUEntriesToBlocksSlides(t *testing.T) {
	entries := []contentEntry{
		{Type: "text", Text: "Agenda", PageIdx: 0},
	}

	blocks := entriesToBlocks(entries, core.FileTypePPT)
	require.Len(t, blocks, 1)
	assert.Equal(t, core.BlockTypeSlide, blocks[0].Type)
	assert.Equal(t, 1, blocks[0].Slide)
	assert.Zero(t, blocks[0].Page)
}
