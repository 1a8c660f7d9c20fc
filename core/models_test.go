package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTypeForPath(t *testing.T) {
	tests := []struct {
		path     string
		expected FileType
	}{
		{"report.pdf", FileTypeDocument},
		{"notes.TXT", FileTypeDocument},
		{"readme.md", FileTypeDocument},
		{"index.html", FileTypeDocument},
		{"deck.pptx", FileTypePPT},
		{"deck.ppt", FileTypePPT},
		{"photo.jpg", FileTypeImage},
		{"scan.PNG", FileTypeImage},
		{"clip.mp4", FileTypeVideo},
		{"talk.wav", FileTypeAudio},
		{"/some/dir/song.mp3", FileTypeAudio},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ft, err := FileTypeForPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ft)
		})
	}
}

func TestFileTypeForPath_Unsupported(t *testing.T) {
	_, err := FileTypeForPath("binary.exe")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = FileTypeForPath("noextension")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "doc-1_0", ChunkID("doc-1", 0))
	assert.Equal(t, "doc-1_42", ChunkID("doc-1", 42))

	// IDs are namespaced by document, so equal indices never collide
	// across documents.
	assert.NotEqual(t, ChunkID("doc-1", 3), ChunkID("doc-2", 3))
}

func TestChunkID_MonotonicUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := ChunkID("doc", i)
		assert.False(t, seen[id], "duplicate chunk id %s", id)
		seen[id] = true
	}
}

func TestChecksumBytes_Deterministic(t *testing.T) {
	a := ChecksumBytes([]byte("hello world"))
	b := ChecksumBytes([]byte("hello world"))
	c := ChecksumBytes([]byte("hello world!"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
