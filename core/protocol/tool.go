package protocol

// Tool describes a capability the model may request. Parameters is a JSON
// Schema object describing the arguments.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
