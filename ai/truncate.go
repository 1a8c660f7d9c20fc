package ai

// TruncateInput head-truncates text to at most limit characters (runes).
// Truncation is deterministic: the same input and limit always produce the
// same prefix. A limit <= 0 leaves the text untouched.
//
// Every Embedder implementation applies this before the remote call so that
// the request payload never exceeds the provider's safe limit.
func TruncateInput(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
