package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources    Sources    `yaml:"sources"`
	Taxonomy   Taxonomy   `yaml:"taxonomy"`
	Vendors    []Vendor   `yaml:"vendors"`
	Patterns   Patterns   `yaml:"patterns"`
	Selection  Selection  `yaml:"selection"`
	Confidence Confidence `yaml:"confidence"`
	Prompt     Prompt     `yaml:"prompt"`
	LLM        LLM        `yaml:"llm"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

type Sources struct {
	Forums      []Forum      `yaml:"forums"`
	SearchFeeds []SearchFeed `yaml:"search_feeds"`
}

type Forum struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type SearchFeed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Taxonomy is the keyword taxonomy the relevance scorer runs against.
// It is data, not code: categories and phrases come from config.
type Taxonomy struct {
	Categories          []Category   `yaml:"categories"`
	Urgency             UrgencyTiers `yaml:"urgency"`
	VendorMentionWeight float64      `yaml:"vendor_mention_weight"`
	VendorMentionCap    int          `yaml:"vendor_mention_cap"`
}

type Category struct {
	Name    string   `yaml:"name"`
	Weight  float64  `yaml:"weight"`
	Phrases []string `yaml:"phrases"`
}

type UrgencyTiers struct {
	High   UrgencyTier `yaml:"high"`
	Medium UrgencyTier `yaml:"medium"`
}

type UrgencyTier struct {
	Weight  float64  `yaml:"weight"`
	Phrases []string `yaml:"phrases"`
}

// Vendor is a named vendor with a confidence tier (1 = highest).
type Vendor struct {
	Name    string   `yaml:"name"`
	Tier    int      `yaml:"tier"`
	Aliases []string `yaml:"aliases"`
}

// Patterns holds the named phrase/pattern lists used for classification.
type Patterns struct {
	BusinessCritical []string `yaml:"business_critical"`
	CriticalRegex    []string `yaml:"critical_regex"`
	VendorExperience []string `yaml:"vendor_experience"`
	Operational      []string `yaml:"operational"`
	Security         []string `yaml:"security"`
	HighValue        []string `yaml:"high_value"`
}

type Selection struct {
	Budget              int      `yaml:"budget"`
	EngagementThreshold int      `yaml:"engagement_threshold"`
	CommentThreshold    int      `yaml:"comment_threshold"`
	HighRelevance       float64  `yaml:"high_relevance"`
	VendorRelevance     float64  `yaml:"vendor_relevance"`
	TierCaps            TierCaps `yaml:"tier_caps"`
	Hybrid              Hybrid   `yaml:"hybrid"`
	Gate                Gate     `yaml:"gate"`
	CriticalBonus       float64  `yaml:"critical_bonus"`
	PurgeFloor          float64  `yaml:"purge_floor"`
	// VendorBoosts is indexed by vendor tier minus one; tiers beyond the
	// list get no boost.
	VendorBoosts   []float64 `yaml:"vendor_boosts"`
	HighValueBoost float64   `yaml:"high_value_boost"`
	BoostCap       float64   `yaml:"boost_cap"`
}

type TierCaps struct {
	Engagement int `yaml:"engagement"`
	Critical   int `yaml:"critical"`
	Relevance  int `yaml:"relevance"`
	Vendor     int `yaml:"vendor"`
}

type Hybrid struct {
	RelevanceWeight  float64 `yaml:"relevance_weight"`
	EngagementWeight float64 `yaml:"engagement_weight"`
	EngagementNorm   float64 `yaml:"engagement_norm"`
	EngagementCap    float64 `yaml:"engagement_cap"`
}

// Gate holds the tiered relevance floors applied before hybrid ranking.
type Gate struct {
	Full      float64 `yaml:"full"`
	Secondary float64 `yaml:"secondary"`
}

type Confidence struct {
	Base            float64   `yaml:"base"`
	TierBoosts      []float64 `yaml:"tier_boosts"`
	DiversityMulti  float64   `yaml:"diversity_multi"`
	DiversitySingle float64   `yaml:"diversity_single"`
	DiversityCross  float64   `yaml:"diversity_cross"`
	QuantifiedMany  float64   `yaml:"quantified_many"`
	QuantifiedSome  float64   `yaml:"quantified_some"`
	CriticalMulti   float64   `yaml:"critical_multi"`
	CriticalSingle  float64   `yaml:"critical_single"`
	HighThreshold   float64   `yaml:"high_threshold"`
	MediumThreshold float64   `yaml:"medium_threshold"`
	RepairFloor     float64   `yaml:"repair_floor"`
}

type Prompt struct {
	MaxChars     int `yaml:"max_chars"`
	ExcerptChars int `yaml:"excerpt_chars"`
}

type LLM struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	OllamaURL       string `yaml:"ollama_url"`
	OpenAIModel     string `yaml:"openai_model"`
	APIKeyEnv       string `yaml:"api_key_env"`
	AnthropicModel  string `yaml:"anthropic_model"`
	AnthropicKeyEnv string `yaml:"anthropic_key_env"`
	MaxTokens       int    `yaml:"max_tokens"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for channelwatch.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "channelwatch")
}

// DataDir returns the XDG data directory for channelwatch.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "channelwatch")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/channelwatch/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'channelwatch init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	return parse(nil)
}

// parse parses YAML bytes into a Config. The embedded defaults are applied
// first, then the user's YAML is unmarshaled over them: values the user
// sets replace the defaults, everything else keeps them.
func parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(DefaultConfigYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if cfg.Selection.Budget <= 0 {
		return nil, fmt.Errorf("selection.budget must be positive, got %d", cfg.Selection.Budget)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
