package domain

const (
	DefaultLLMProvider              = "openai"
	DefaultLLMAPIKeyEnvVar          = EnvAPIKey
	DefaultBriefsMode               = BriefsModeLLM
	DefaultMaxBriefLength           = 100
	DefaultMaxTurns                 = 10
	DefaultToolNamespaceStrategy    = NamespaceFlat
	DefaultStreamableHTTPMaxRetries = 5
	DefaultConnectTimeoutSeconds    = 30
)

const (
	// EnvModel and EnvAPIBase fill llm.model and llm.baseURL when the config omits them.
	EnvModel   = "MODEL"
	EnvAPIBase = "API_BASE"
	// EnvAPIKey is the default llm.apiKeyEnvVar.
	EnvAPIKey  = "API_KEY"
)
