package session

// Config holds session parameters.
type Config struct {
	// ThreadID pins the conversation thread. Empty generates a new one per
	// session, so memory only survives restarts when it is set.
	ThreadID string `json:"thread_id,omitempty" yaml:"thread_id,omitempty"`
}

func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.ThreadID != "" {
		c.ThreadID = source.ThreadID
	}
}
