package core

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/go-crypt/x/blake2b"
)

// ChecksumBytes computes a 64-bit BLAKE2b hash of the given content.
// Identical content always produces the identical checksum, which lets the
// pipeline detect re-uploads of a file it has already ingested.
func ChecksumBytes(data []byte) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// ChecksumFile computes the BLAKE2b checksum of a file's contents.
func ChecksumFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h, _ := blake2b.New(8, nil)
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum), nil
}
