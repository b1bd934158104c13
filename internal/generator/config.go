package generator

// Config holds generation settings.
type Config struct {
	MaxTokens         int
	DocumentMaxTokens int
	Temperature       float64

	// MaxHistory bounds how many transcript entries accompany a request.
	// The opening entry is always kept. Zero sends the whole transcript.
	MaxHistory int
}

// DefaultConfig returns sensible defaults for content generation.
func DefaultConfig() Config {
	return Config{
		MaxTokens:         1000,
		DocumentMaxTokens: 4000,
		Temperature:       0.7,
	}
}
