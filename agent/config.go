package agent

import "maps"

const (
	defaultMaxIterations     = 10
	defaultDescriptionPrefix = "Tool execution pending approval"
	defaultSystemPrompt      = "You are a helpful assistant that can use tools to help the user. Use the tools first when they can help answer the user's question."
)

// StreamMode selects what each snapshot carries.
type StreamMode string

const (
	// StreamValues yields the full message list after every step.
	StreamValues StreamMode = "values"
	// StreamMessages yields each new message, with assistant content
	// streamed in chunks when the model supports it.
	StreamMessages StreamMode = "messages"
)

// Config holds runner parameters.
type Config struct {
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	// MaxIterations bounds model calls per run; 0 means no bound.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	// InterruptOn lists the tools that require human approval.
	InterruptOn       map[string]bool `json:"interrupt_on,omitempty" yaml:"interrupt_on,omitempty"`
	DescriptionPrefix string          `json:"description_prefix,omitempty" yaml:"description_prefix,omitempty"`
	StreamMode        StreamMode      `json:"stream_mode,omitempty" yaml:"stream_mode,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		SystemPrompt:      defaultSystemPrompt,
		MaxIterations:     defaultMaxIterations,
		InterruptOn:       map[string]bool{},
		DescriptionPrefix: defaultDescriptionPrefix,
		StreamMode:        StreamValues,
	}
}

// Merge applies non-zero values from source into c. InterruptOn entries are
// merged key by key, so a source can switch a default guard off.
func (c *Config) Merge(source *Config) {
	if source.SystemPrompt != "" {
		c.SystemPrompt = source.SystemPrompt
	}
	if source.MaxIterations > 0 {
		c.MaxIterations = source.MaxIterations
	}
	if len(source.InterruptOn) > 0 {
		if c.InterruptOn == nil {
			c.InterruptOn = make(map[string]bool, len(source.InterruptOn))
		}
		maps.Copy(c.InterruptOn, source.InterruptOn)
	}
	if source.DescriptionPrefix != "" {
		c.DescriptionPrefix = source.DescriptionPrefix
	}
	if source.StreamMode != "" {
		c.StreamMode = source.StreamMode
	}
}
