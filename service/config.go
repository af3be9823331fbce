package service

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/scy/cred/secret"
	"gopkg.in/yaml.v3"

	"github.com/viant/embedflow/schema"
)

const opConfig = "config"

// Embedding providers.
const (
	ProviderAzure    = "azure"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
	ProviderVertexAI = "vertexai"
	ProviderHashing  = "hashing"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig            = "EMBEDFLOW_CONFIG"
	EnvAzureEndpoint     = "AZURE_OPENAI_ENDPOINT"
	EnvAzureAPIKey       = "AZURE_OPENAI_API_KEY"
	EnvAzureAPIVersion   = "AZURE_OPENAI_API_VERSION"
	EnvAzureDeployment   = "AZURE_OPENAI_DEPLOYMENT"
	EnvProvider          = "EMBEDDING_PROVIDER"
	EnvModel             = "EMBEDDING_MODEL"
	EnvDimension         = "EMBEDDING_DIMENSION"
	EnvEmbeddingSecret   = "EMBEDDING_SECRET"
	EnvVertexProject     = "VERTEXAI_PROJECT"
	EnvVertexLocation    = "VERTEXAI_LOCATION"
	EnvStoreURL          = "QDRANT_URL"
	EnvStoreAPIKey       = "QDRANT_API_KEY"
	EnvCollection        = "QDRANT_COLLECTION"
	EnvDistance          = "VECTOR_DISTANCE"
	defaultCollection    = "demo_collection"
	defaultDimension     = 1536
	defaultAPIVersion    = "2024-02-01"
	defaultTimeout       = 30 * time.Second
	defaultTopK          = 3
	defaultConfigVersion = 1
)

// LookupEnv resolves an environment variable, like os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Config is built once at startup and passed to the factories.
type Config struct {
	Version    int              `yaml:"version"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Store      StoreConfig      `yaml:"store"`
	Collection CollectionConfig `yaml:"collection"`
	Search     SearchConfig     `yaml:"search"`
	BatchSize  int              `yaml:"batchSize"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"`
	Endpoint   string        `yaml:"endpoint"`
	APIKey     string        `yaml:"apiKey"`
	APIVersion string        `yaml:"apiVersion"`
	Deployment string        `yaml:"deployment"`
	Model      string        `yaml:"model"`
	Dimensions int           `yaml:"dimensions,omitempty"`
	Project    string        `yaml:"project,omitempty"`
	Location   string        `yaml:"location,omitempty"`
	Secret     string        `yaml:"secret,omitempty"`
	Timeout    time.Duration `yaml:"timeout"`
}

// StoreConfig defines vector store settings.
type StoreConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"apiKey,omitempty"`
	Secret  string        `yaml:"secret,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// CollectionConfig describes the target collection.
type CollectionConfig struct {
	Name      string `yaml:"name"`
	Dimension int    `yaml:"dimension"`
	Distance  string `yaml:"distance"`
}

// SearchConfig sets the demo query.
type SearchConfig struct {
	Query string `yaml:"query"`
	TopK  int    `yaml:"topK"`
}

// DefaultConfig returns a config with every optional field defaulted.
func DefaultConfig() *Config {
	return &Config{
		Version: defaultConfigVersion,
		Embedding: EmbeddingConfig{
			Provider:   ProviderAzure,
			APIVersion: defaultAPIVersion,
			Timeout:    defaultTimeout,
		},
		Store: StoreConfig{Timeout: defaultTimeout},
		Collection: CollectionConfig{
			Name:      defaultCollection,
			Dimension: defaultDimension,
			Distance:  string(schema.Cosine),
		},
		Search:    SearchConfig{Query: DemoQuery, TopK: defaultTopK},
		BatchSize: defaultBatchSize,
	}
}

// LoadConfig reads a YAML config over the defaults. URL may be a local path
// or any scheme registered with afs.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	location, err := expandUserPath(URL)
	if err != nil {
		return nil, configError(opConfig, EnvConfig, "%v", err)
	}
	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return nil, configError(opConfig, EnvConfig, "load %s: %v", location, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, configError(opConfig, EnvConfig, "decode %s: %v", location, err)
	}
	if cfg.Version != defaultConfigVersion {
		return nil, configError(opConfig, "version", "unsupported config version %d in %s, expected %d", cfg.Version, location, defaultConfigVersion)
	}
	return cfg, nil
}

// ConfigFromEnv loads the optional config file named by EMBEDFLOW_CONFIG,
// overlays environment variables and validates the result.
func ConfigFromEnv(ctx context.Context, lookup LookupEnv) (*Config, error) {
	cfg := DefaultConfig()
	if location, ok := lookup(EnvConfig); ok && strings.TrimSpace(location) != "" {
		var err error
		if cfg, err = LoadConfig(ctx, strings.TrimSpace(location)); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields with the environment variables that are set.
func (c *Config) ApplyEnv(lookup LookupEnv) error {
	set := func(key string, target *string) {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
	set(EnvProvider, &c.Embedding.Provider)
	set(EnvAzureEndpoint, &c.Embedding.Endpoint)
	set(EnvAzureAPIKey, &c.Embedding.APIKey)
	set(EnvAzureAPIVersion, &c.Embedding.APIVersion)
	set(EnvAzureDeployment, &c.Embedding.Deployment)
	set(EnvModel, &c.Embedding.Model)
	set(EnvEmbeddingSecret, &c.Embedding.Secret)
	set(EnvVertexProject, &c.Embedding.Project)
	set(EnvVertexLocation, &c.Embedding.Location)
	set(EnvStoreURL, &c.Store.URL)
	set(EnvStoreAPIKey, &c.Store.APIKey)
	set(EnvCollection, &c.Collection.Name)
	set(EnvDistance, &c.Collection.Distance)
	if value, ok := lookup(EnvDimension); ok && strings.TrimSpace(value) != "" {
		dim, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return configError(opConfig, EnvDimension, "invalid integer %q", value)
		}
		c.Collection.Dimension = dim
	}
	return nil
}

// Validate checks every setting needed before the first network call and
// names the offending field.
func (c *Config) Validate() error {
	e := &c.Embedding
	e.Provider = strings.ToLower(strings.TrimSpace(e.Provider))
	required := func(field, value string) error {
		if strings.TrimSpace(value) == "" {
			return configError(opConfig, field, "is required")
		}
		return nil
	}
	switch e.Provider {
	case ProviderAzure:
		for _, check := range []struct{ field, value string }{
			{"embedding.endpoint", e.Endpoint},
			{"embedding.apiKey", e.APIKey},
			{"embedding.apiVersion", e.APIVersion},
			{"embedding.deployment", e.Deployment},
		} {
			if err := required(check.field, check.value); err != nil {
				return err
			}
		}
		if err := checkHTTPURL("embedding.endpoint", e.Endpoint); err != nil {
			return err
		}
	case ProviderOpenAI:
		if err := required("embedding.apiKey", e.APIKey); err != nil {
			return err
		}
	case ProviderOllama:
		if err := required("embedding.model", e.Model); err != nil {
			return err
		}
	case ProviderVertexAI:
		if err := required("embedding.project", e.Project); err != nil {
			return err
		}
	case ProviderHashing:
	default:
		return configError(opConfig, "embedding.provider", "unsupported provider %q", e.Provider)
	}
	if err := required("store.url", c.Store.URL); err != nil {
		return err
	}
	if _, err := storeKind(c.Store.URL); err != nil {
		return configError(opConfig, "store.url", "%v", err)
	}
	if _, err := c.Descriptor(); err != nil {
		return err
	}
	if c.Search.TopK <= 0 {
		return configError(opConfig, "search.topK", "must be positive, got %d", c.Search.TopK)
	}
	if c.BatchSize <= 0 {
		return configError(opConfig, "batchSize", "must be positive, got %d", c.BatchSize)
	}
	return nil
}

// Descriptor returns the configured collection descriptor.
func (c *Config) Descriptor() (schema.Descriptor, error) {
	distance, err := schema.ParseDistance(c.Collection.Distance)
	if err != nil {
		return schema.Descriptor{}, configError(opConfig, "collection.distance", "%v", err)
	}
	desc := schema.Descriptor{Name: strings.TrimSpace(c.Collection.Name), Dimension: c.Collection.Dimension, Distance: distance}
	if err := checkDescriptor(opConfig, desc); err != nil {
		return schema.Descriptor{}, err
	}
	return desc, nil
}

// ResolveSecrets expands scy secrets into the API keys. It runs after
// Validate since secret lookups may reach a secret manager.
func (c *Config) ResolveSecrets(ctx context.Context) error {
	var err error
	if c.Embedding.APIKey, err = ExpandWithSecret(ctx, c.Embedding.APIKey, c.Embedding.Secret); err != nil {
		return configError(opConfig, "embedding.secret", "%v", err)
	}
	if c.Store.APIKey, err = ExpandWithSecret(ctx, c.Store.APIKey, c.Store.Secret); err != nil {
		return configError(opConfig, "store.secret", "%v", err)
	}
	return nil
}

// ExpandWithSecret loads a secret and expands its placeholders in text.
func ExpandWithSecret(ctx context.Context, text, secretRef string) (string, error) {
	secretRef = strings.TrimSpace(secretRef)
	if secretRef == "" {
		return text, nil
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("secret %q provided but value template is empty", secretRef)
	}
	svc := secret.New()
	sec, err := svc.Lookup(ctx, secret.Resource(secretRef))
	if err != nil {
		return "", err
	}
	return sec.Expand(text), nil
}

func checkHTTPURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return configError(opConfig, field, "invalid url %q", value)
	}
	return nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("unsupported ~user path: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	return filepath.Join(home, trimmed[2:]), nil
}
