package app

// Options selects the config file and per-invocation overrides.
type Options struct {
	ConfigPath string
	// Model overrides llm.model from the config file.
	Model string
	// DisableTranscripts skips transcript recording even when the config enables it.
	DisableTranscripts bool
}

const DefaultConfigPath = "dcl.yaml"
