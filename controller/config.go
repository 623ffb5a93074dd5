package controller

const defaultEditField = "query"

// Config holds controller parameters.
type Config struct {
	// EditField is the argument an edit decision replaces.
	EditField string `json:"edit_field,omitempty" yaml:"edit_field,omitempty"`
	// MaxInterrupts caps the interrupts handled in one turn; 0 means no cap.
	// When the cap is hit the turn ends and the thread stays suspended.
	MaxInterrupts int `json:"max_interrupts,omitempty" yaml:"max_interrupts,omitempty"`
}

func DefaultConfig() Config {
	return Config{EditField: defaultEditField}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.EditField != "" {
		c.EditField = source.EditField
	}
	if source.MaxInterrupts > 0 {
		c.MaxInterrupts = source.MaxInterrupts
	}
}
