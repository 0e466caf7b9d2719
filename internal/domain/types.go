package domain

// TransportKind selects how the catalog reaches an MCP server.
type TransportKind string

const (
	TransportStdio          TransportKind = "stdio"
	TransportStreamableHTTP TransportKind = "streamable_http"
	TransportBuiltin        TransportKind = "builtin"
)

// BriefsMode selects how tool briefs and server summaries are produced.
type BriefsMode string

const (
	BriefsModeLLM      BriefsMode = "llm"
	BriefsModeTruncate BriefsMode = "truncate"
)

type ServerSpec struct {
	Name            string                `json:"name"`
	Description     string                `json:"description,omitempty"`
	Transport       TransportKind         `json:"transport"`
	Cmd             []string              `json:"cmd,omitempty"`
	Env             map[string]string     `json:"env,omitempty"`
	Cwd             string                `json:"cwd,omitempty"`
	HTTP            *StreamableHTTPConfig `json:"http,omitempty"`
	Builtin         string                `json:"builtin,omitempty"`
	Disabled        bool                  `json:"disabled,omitempty"`
	ProtocolVersion string                `json:"protocolVersion"`
}

type StreamableHTTPConfig struct {
	Endpoint   string            `json:"endpoint"`
	Headers    map[string]string `json:"headers,omitempty"`
	MaxRetries int               `json:"maxRetries"`
}

// LLMConfig selects the chat model used for conversations and brief generation.
type LLMConfig struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	BaseURL      string `json:"baseURL,omitempty"`
	APIKey       string `json:"-"`
	APIKeyEnvVar string `json:"apiKeyEnvVar,omitempty"`
}

type BriefsConfig struct {
	Mode           BriefsMode `json:"mode"`
	MaxBriefLength int        `json:"maxBriefLength"`
}

type ConversationConfig struct {
	MaxTurns              int                   `json:"maxTurns"`
	ToolNamespaceStrategy ToolNamespaceStrategy `json:"toolNamespaceStrategy"`
	SystemPrompt          string                `json:"systemPrompt,omitempty"`
}

type ObservabilityConfig struct {
	ListenAddress string `json:"listenAddress,omitempty"`
}

// TranscriptConfig enables recording. A non-empty Path implies Enabled; an
// enabled config without a path records to the per-user data directory.
type TranscriptConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Config is the normalized configuration of one process.
type Config struct {
	LLM                   LLMConfig           `json:"llm"`
	Briefs                BriefsConfig        `json:"briefs"`
	Conversation          ConversationConfig  `json:"conversation"`
	Observability         ObservabilityConfig `json:"observability"`
	Transcript            TranscriptConfig    `json:"transcript"`
	ConnectTimeoutSeconds int                 `json:"connectTimeoutSeconds"`
	Servers               []ServerSpec        `json:"servers"`
}

// EnabledServers returns servers that are not disabled, in config order.
func (c Config) EnabledServers() []ServerSpec {
	out := make([]ServerSpec, 0, len(c.Servers))
	for _, spec := range c.Servers {
		if spec.Disabled {
			continue
		}
		out = append(out, spec)
	}
	return out
}
