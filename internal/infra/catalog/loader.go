// Package catalog loads and validates the dcl configuration file.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"dcl/internal/domain"
	"dcl/internal/infra/builtin"
)

var protocolVersionPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("catalog")}
}

type rawConfig struct {
	LLM                   rawLLMConfig           `mapstructure:"llm"`
	Briefs                rawBriefsConfig        `mapstructure:"briefs"`
	Conversation          rawConversationConfig  `mapstructure:"conversation"`
	Observability         rawObservabilityConfig `mapstructure:"observability"`
	Transcript            rawTranscriptConfig    `mapstructure:"transcript"`
	ConnectTimeoutSeconds int                    `mapstructure:"connectTimeoutSeconds"`
}

// serverList is decoded with yaml directly: viper lowercases map keys and
// environment variable names are case sensitive.
type serverList struct {
	Servers []rawServerSpec `yaml:"servers"`
}

type rawLLMConfig struct {
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	BaseURL      string `mapstructure:"baseURL"`
	APIKey       string `mapstructure:"apiKey"`
	APIKeyEnvVar string `mapstructure:"apiKeyEnvVar"`
}

type rawBriefsConfig struct {
	Mode           string `mapstructure:"mode"`
	MaxBriefLength int    `mapstructure:"maxBriefLength"`
}

type rawConversationConfig struct {
	MaxTurns              int    `mapstructure:"maxTurns"`
	ToolNamespaceStrategy string `mapstructure:"toolNamespaceStrategy"`
	SystemPrompt          string `mapstructure:"systemPrompt"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
}

type rawTranscriptConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type rawServerSpec struct {
	Name            string                  `yaml:"name"`
	Description     string                  `yaml:"description"`
	Transport       string                  `yaml:"transport"`
	Cmd             []string                `yaml:"cmd"`
	Env             map[string]string       `yaml:"env"`
	Cwd             string                  `yaml:"cwd"`
	Builtin         string                  `yaml:"builtin"`
	Disabled        bool                    `yaml:"disabled"`
	ProtocolVersion string                  `yaml:"protocolVersion"`
	HTTP            rawStreamableHTTPConfig `yaml:"http"`
}

type rawStreamableHTTPConfig struct {
	Endpoint   string            `yaml:"endpoint"`
	Headers    map[string]string `yaml:"headers"`
	MaxRetries *int              `yaml:"maxRetries"`
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("llm.provider", domain.DefaultLLMProvider)
	v.SetDefault("llm.apiKeyEnvVar", domain.DefaultLLMAPIKeyEnvVar)
	v.SetDefault("briefs.mode", string(domain.DefaultBriefsMode))
	v.SetDefault("briefs.maxBriefLength", domain.DefaultMaxBriefLength)
	v.SetDefault("conversation.maxTurns", domain.DefaultMaxTurns)
	v.SetDefault("conversation.toolNamespaceStrategy", string(domain.DefaultToolNamespaceStrategy))
	v.SetDefault("connectTimeoutSeconds", domain.DefaultConnectTimeoutSeconds)
	_ = v.BindEnv("llm.model", domain.EnvModel)
	_ = v.BindEnv("llm.baseURL", domain.EnvAPIBase)
	return v
}

// Load reads, expands and validates the config at path. Every problem found
// is reported in one error.
func (l *Loader) Load(ctx context.Context, path string) (domain.Config, error) {
	if strings.TrimSpace(path) == "" {
		return domain.Config{}, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}
	return l.Parse(ctx, data)
}

// Parse is Load for config bytes already in memory.
func (l *Loader) Parse(ctx context.Context, data []byte) (domain.Config, error) {
	doc, err := parseConfigDocument(data, os.LookupEnv)
	if err != nil {
		return domain.Config{}, err
	}
	if unset := doc.unsetRefs(); len(unset) > 0 {
		l.logger.Warn("missing environment variables in config", zap.Strings("missing", unset))
	}
	expanded, err := doc.encode()
	if err != nil {
		return domain.Config{}, err
	}

	v := newConfigViper()
	if err := v.ReadConfig(bytes.NewReader(expanded)); err != nil {
		return domain.Config{}, fmt.Errorf("parse config: %w", err)
	}
	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}
	var list serverList
	if err := doc.decode(&list); err != nil {
		return domain.Config{}, fmt.Errorf("decode servers: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}

	cfg, errs := normalizeConfig(raw)
	seen := make(map[string]struct{}, len(list.Servers))
	for i, rawSpec := range list.Servers {
		spec, implicitHTTP := normalizeServerSpec(rawSpec)
		if implicitHTTP {
			l.logger.Warn("server transport inferred from http config; consider setting transport explicitly",
				zap.String("server", spec.Name),
				zap.Int("index", i),
			)
		}
		if _, exists := seen[spec.Name]; exists {
			errs = append(errs, fmt.Sprintf("servers[%d]: duplicate name %q", i, spec.Name))
		} else if spec.Name != "" {
			seen[spec.Name] = struct{}{}
		}
		if specErrs := validateServerSpec(spec, i); len(specErrs) > 0 {
			errs = append(errs, specErrs...)
			continue
		}
		cfg.Servers = append(cfg.Servers, spec)
	}
	if len(cfg.EnabledServers()) == 0 && len(errs) == 0 {
		errs = append(errs, "servers: at least one enabled server is required")
	}
	if len(errs) > 0 {
		return domain.Config{}, errors.New(strings.Join(errs, "; "))
	}
	return cfg, nil
}

// configDocument is the config as a yaml tree with environment references
// resolved in place. Viper reads its encoding; servers decode from the tree.
type configDocument struct {
	root  yaml.Node
	unset []envRef
}

// envRef is a ${NAME} reference with no value and no default.
type envRef struct {
	name string
	at   string
}

func parseConfigDocument(data []byte, lookup func(string) (string, bool)) (*configDocument, error) {
	doc := &configDocument{}
	if err := yaml.Unmarshal(data, &doc.root); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	doc.resolve(&doc.root, "", lookup)
	return doc, nil
}

func (d *configDocument) resolve(node *yaml.Node, at string, lookup func(string) (string, bool)) {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			d.resolve(child, at, lookup)
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			d.resolve(child, fmt.Sprintf("%s[%d]", at, i), lookup)
		}
	case yaml.MappingNode:
		// Keys are never expanded.
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if at != "" {
				key = at + "." + key
			}
			d.resolve(node.Content[i+1], key, lookup)
		}
	case yaml.ScalarNode:
		d.resolveScalar(node, at, lookup)
	}
	// Aliases share their anchor's node, which is resolved where it is defined.
}

// resolveScalar expands $NAME, ${NAME} and ${NAME:-default} in a string
// scalar. The default applies when NAME is unset or empty.
func (d *configDocument) resolveScalar(node *yaml.Node, at string, lookup func(string) (string, bool)) {
	if node.Tag != "" && node.Tag != "!!str" {
		return
	}
	if !strings.Contains(node.Value, "$") {
		return
	}
	expanded := os.Expand(node.Value, func(ref string) string {
		name, fallback, hasDefault := strings.Cut(ref, ":-")
		if val, ok := lookup(name); ok && (val != "" || !hasDefault) {
			return val
		}
		if hasDefault {
			return fallback
		}
		d.unset = append(d.unset, envRef{name: name, at: at})
		return ""
	})
	if expanded == node.Value {
		return
	}
	node.Value = expanded
	if node.Style != 0 {
		node.Tag = "!!str"
		return
	}
	node.Tag = plainScalarTag(expanded)
}

// plainScalarTag is the tag yaml gives value written unquoted. Values that
// do not parse as a single scalar stay strings.
func plainScalarTag(value string) string {
	if strings.TrimSpace(value) == "" {
		return "!!str"
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(value), &doc); err != nil || len(doc.Content) != 1 {
		return "!!str"
	}
	scalar := doc.Content[0]
	if scalar.Kind != yaml.ScalarNode {
		return "!!str"
	}
	switch scalar.Tag {
	case "!!bool", "!!int", "!!float", "!!null":
		return scalar.Tag
	default:
		return "!!str"
	}
}

// unsetRefs lists unresolved references as "NAME at path", sorted.
func (d *configDocument) unsetRefs() []string {
	if len(d.unset) == 0 {
		return nil
	}
	out := make([]string, 0, len(d.unset))
	for _, ref := range d.unset {
		out = append(out, ref.name+" at "+ref.at)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (d *configDocument) encode() ([]byte, error) {
	if d.root.Kind == 0 {
		return nil, nil
	}
	out, err := yaml.Marshal(&d.root)
	if err != nil {
		return nil, fmt.Errorf("encode expanded config: %w", err)
	}
	return out, nil
}

func (d *configDocument) decode(out any) error {
	if d.root.Kind == 0 {
		return nil
	}
	return d.root.Decode(out)
}

func normalizeConfig(raw rawConfig) (domain.Config, []string) {
	var errs []string

	llm := domain.LLMConfig{
		Provider:     strings.ToLower(strings.TrimSpace(raw.LLM.Provider)),
		Model:        strings.TrimSpace(raw.LLM.Model),
		BaseURL:      strings.TrimSpace(raw.LLM.BaseURL),
		APIKey:       strings.TrimSpace(raw.LLM.APIKey),
		APIKeyEnvVar: strings.TrimSpace(raw.LLM.APIKeyEnvVar),
	}
	if llm.Provider != domain.DefaultLLMProvider {
		errs = append(errs, fmt.Sprintf("llm.provider must be %s", domain.DefaultLLMProvider))
	}
	if llm.APIKey == "" && llm.APIKeyEnvVar != "" {
		llm.APIKey = strings.TrimSpace(os.Getenv(llm.APIKeyEnvVar))
	}
	if llm.BaseURL != "" {
		if parsed, err := url.ParseRequestURI(llm.BaseURL); err != nil || parsed.Host == "" {
			errs = append(errs, "llm.baseURL must be a valid URL")
		}
	}

	mode := domain.BriefsMode(strings.ToLower(strings.TrimSpace(raw.Briefs.Mode)))
	if mode != domain.BriefsModeLLM && mode != domain.BriefsModeTruncate {
		errs = append(errs, "briefs.mode must be llm or truncate")
	}
	if raw.Briefs.MaxBriefLength <= 0 {
		errs = append(errs, "briefs.maxBriefLength must be > 0")
	}

	if raw.Conversation.MaxTurns <= 0 {
		errs = append(errs, "conversation.maxTurns must be > 0")
	}
	namespace, ok := domain.ParseNamespaceStrategy(strings.ToLower(strings.TrimSpace(raw.Conversation.ToolNamespaceStrategy)))
	if !ok {
		errs = append(errs, "conversation.toolNamespaceStrategy must be flat or prefix")
	}

	if raw.ConnectTimeoutSeconds <= 0 {
		errs = append(errs, "connectTimeoutSeconds must be > 0")
	}

	transcriptPath := strings.TrimSpace(raw.Transcript.Path)
	return domain.Config{
		LLM: llm,
		Briefs: domain.BriefsConfig{
			Mode:           mode,
			MaxBriefLength: raw.Briefs.MaxBriefLength,
		},
		Conversation: domain.ConversationConfig{
			MaxTurns:              raw.Conversation.MaxTurns,
			ToolNamespaceStrategy: namespace,
			SystemPrompt:          raw.Conversation.SystemPrompt,
		},
		Observability: domain.ObservabilityConfig{ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress)},
		Transcript: domain.TranscriptConfig{
			Enabled: raw.Transcript.Enabled || transcriptPath != "",
			Path:    transcriptPath,
		},
		ConnectTimeoutSeconds: raw.ConnectTimeoutSeconds,
	}, errs
}

func normalizeServerSpec(raw rawServerSpec) (domain.ServerSpec, bool) {
	transport := domain.TransportKind(strings.ToLower(strings.TrimSpace(raw.Transport)))
	implicitHTTP := false
	if transport == "" {
		transport = domain.TransportStdio
		if strings.TrimSpace(raw.HTTP.Endpoint) != "" || len(raw.HTTP.Headers) > 0 || raw.HTTP.MaxRetries != nil {
			transport = domain.TransportStreamableHTTP
			implicitHTTP = true
		}
	}
	spec := domain.ServerSpec{
		Name:            strings.TrimSpace(raw.Name),
		Description:     strings.TrimSpace(raw.Description),
		Transport:       transport,
		Cmd:             raw.Cmd,
		Env:             raw.Env,
		Cwd:             strings.TrimSpace(raw.Cwd),
		Builtin:         strings.TrimSpace(raw.Builtin),
		Disabled:        raw.Disabled,
		ProtocolVersion: strings.TrimSpace(raw.ProtocolVersion),
	}
	if transport == domain.TransportBuiltin && spec.Builtin == "" {
		spec.Builtin = spec.Name
	}
	if transport == domain.TransportStreamableHTTP {
		maxRetries := domain.DefaultStreamableHTTPMaxRetries
		if raw.HTTP.MaxRetries != nil {
			maxRetries = *raw.HTTP.MaxRetries
		}
		spec.HTTP = &domain.StreamableHTTPConfig{
			Endpoint:   strings.TrimSpace(raw.HTTP.Endpoint),
			Headers:    normalizeHTTPHeaders(raw.HTTP.Headers),
			MaxRetries: maxRetries,
		}
	}
	return spec, implicitHTTP
}

func normalizeHTTPHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	normalized := make(map[string]string, len(headers))
	for _, key := range keys {
		trimmed := strings.TrimSpace(key)
		value := strings.TrimSpace(headers[key])
		if trimmed == "" {
			normalized[""] = value
			continue
		}
		normalized[http.CanonicalHeaderKey(trimmed)] = value
	}
	return normalized
}

func validateServerSpec(spec domain.ServerSpec, index int) []string {
	var errs []string

	if spec.Name == "" {
		errs = append(errs, fmt.Sprintf("servers[%d]: name is required", index))
	} else if strings.ContainsAny(spec.Name, " \t\n") {
		errs = append(errs, fmt.Sprintf("servers[%d]: name must not contain whitespace", index))
	}

	switch spec.Transport {
	case domain.TransportStdio:
		if len(spec.Cmd) == 0 {
			errs = append(errs, fmt.Sprintf("servers[%d]: cmd is required", index))
		}
	case domain.TransportStreamableHTTP:
		if len(spec.Cmd) > 0 {
			errs = append(errs, fmt.Sprintf("servers[%d]: cmd must be empty for streamable_http transport (external connection)", index))
		}
		if spec.Cwd != "" {
			errs = append(errs, fmt.Sprintf("servers[%d]: cwd must be empty for streamable_http transport (external connection)", index))
		}
		if len(spec.Env) > 0 {
			errs = append(errs, fmt.Sprintf("servers[%d]: env must be empty for streamable_http transport (external connection)", index))
		}
		errs = append(errs, validateStreamableHTTPSpec(spec, index)...)
	case domain.TransportBuiltin:
		if !slices.Contains(builtin.Names(), spec.Builtin) {
			errs = append(errs, fmt.Sprintf("servers[%d]: builtin must be one of: %s", index, strings.Join(builtin.Names(), ", ")))
		}
	default:
		errs = append(errs, fmt.Sprintf("servers[%d]: transport must be stdio, streamable_http or builtin", index))
	}

	if spec.ProtocolVersion != "" && !protocolVersionPattern.MatchString(spec.ProtocolVersion) {
		errs = append(errs, fmt.Sprintf("servers[%d]: protocolVersion must match YYYY-MM-DD", index))
	}
	return errs
}

func validateStreamableHTTPSpec(spec domain.ServerSpec, index int) []string {
	var errs []string

	if spec.HTTP == nil {
		return append(errs, fmt.Sprintf("servers[%d]: http config is required for streamable_http transport", index))
	}
	endpoint := spec.HTTP.Endpoint
	if endpoint == "" {
		errs = append(errs, fmt.Sprintf("servers[%d]: http.endpoint is required for streamable_http transport", index))
	} else if parsed, err := url.ParseRequestURI(endpoint); err != nil || strings.Contains(endpoint, " ") ||
		parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		errs = append(errs, fmt.Sprintf("servers[%d]: http.endpoint must be a valid http(s) URL", index))
	}

	if spec.HTTP.MaxRetries < -1 {
		errs = append(errs, fmt.Sprintf("servers[%d]: http.maxRetries must be >= -1 (-1 disables retries)", index))
	}

	for key, value := range spec.HTTP.Headers {
		if key == "" {
			errs = append(errs, fmt.Sprintf("servers[%d]: http.headers contains empty header name", index))
			continue
		}
		if isReservedHTTPHeader(key) {
			errs = append(errs, fmt.Sprintf("servers[%d]: http.headers.%s is reserved and managed by transport", index, key))
		}
		if value == "" {
			errs = append(errs, fmt.Sprintf("servers[%d]: http.headers.%s must not be empty", index, key))
		}
	}
	return errs
}

func isReservedHTTPHeader(header string) bool {
	switch strings.ToLower(header) {
	case "content-type", "accept", "mcp-protocol-version", "mcp-session-id", "last-event-id",
		"host", "content-length", "transfer-encoding", "connection":
		return true
	default:
		return false
	}
}
