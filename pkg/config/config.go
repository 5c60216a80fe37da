package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/wildbranch/wbl-catalog/pkg/password"
	"github.com/wildbranch/wbl-catalog/pkg/token"
)

const (
	DefaultConfigPath = "/etc/wbl/config"
	ConfigFileName    = "wbl.yml"

	envPrefix = "WBL_"

	// MinSigningKeyLength is the shortest accepted HMAC secret, in bytes
	MinSigningKeyLength = 32

	// MinPasswordHashCost and MaxPasswordHashCost bound the bcrypt cost
	MinPasswordHashCost = 4
	MaxPasswordHashCost = 31
)

// Source values reported for each attribute
const (
	SourceDefault     = "default"
	SourceFile        = "file"
	SourceEnvironment = "environment"
)

// CatalogConfig holds the catalog server settings. It is read once at
// startup and not modified afterwards.
type CatalogConfig struct {
	// SigningKey is the HMAC secret used to sign access tokens
	SigningKey string `yaml:"signing_key" json:"signing_key"`

	// SigningAlgorithm is one of HS256, HS384, HS512
	SigningAlgorithm string `yaml:"signing_algorithm" json:"signing_algorithm"`

	// AccessTokenTTL is how long an issued access token stays valid
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" json:"access_token_ttl"`

	// PasswordHashCost is the bcrypt cost for new password hashes
	PasswordHashCost int `yaml:"password_hash_cost" json:"password_hash_cost"`

	// RegistrationEnabled allows self-service sign-up
	RegistrationEnabled bool `yaml:"registration_enabled" json:"registration_enabled"`

	// APIListLimitMax caps the limit parameter of list requests
	APIListLimitMax int `yaml:"api_list_limit_max" json:"api_list_limit_max"`

	// APIListLimitDefault is used when a list request has no limit
	APIListLimitDefault int `yaml:"api_list_limit_default" json:"api_list_limit_default"`

	// OpenLibraryURL is the base URL of the book metadata service
	OpenLibraryURL string `yaml:"openlibrary_url" json:"openlibrary_url"`

	// CORSAllowedOrigins lists browser origins allowed to call the API
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" json:"cors_allowed_origins"`

	sources        map[string]string
	configFilePath string
}

// fileConfig mirrors CatalogConfig with pointers so that an explicit false
// or zero in the file can be told apart from an absent key.
type fileConfig struct {
	SigningKey          *string  `yaml:"signing_key"`
	SigningAlgorithm    *string  `yaml:"signing_algorithm"`
	AccessTokenTTL      *string  `yaml:"access_token_ttl"`
	PasswordHashCost    *int     `yaml:"password_hash_cost"`
	RegistrationEnabled *bool    `yaml:"registration_enabled"`
	APIListLimitMax     *int     `yaml:"api_list_limit_max"`
	APIListLimitDefault *int     `yaml:"api_list_limit_default"`
	OpenLibraryURL      *string  `yaml:"openlibrary_url"`
	CORSAllowedOrigins  []string `yaml:"cors_allowed_origins"`
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// newDefault returns a config with default values
func newDefault() *CatalogConfig {
	return &CatalogConfig{
		SigningAlgorithm:    token.DefaultAlgorithm,
		AccessTokenTTL:      token.DefaultValidity,
		PasswordHashCost:    password.DefaultCost,
		RegistrationEnabled: true,
		APIListLimitMax:     1000,
		APIListLimitDefault: 100,
		OpenLibraryURL:      "https://openlibrary.org",
		CORSAllowedOrigins:  []string{},
		sources:             make(map[string]string),
	}
}

// Load reads $WBL_CONFIG_PATH/wbl.yml, if present, then applies WBL_*
// environment variables on top. The result is not validated.
func Load() (*CatalogConfig, error) {
	configPath := os.Getenv("WBL_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	return LoadFile(filepath.Join(configPath, ConfigFileName))
}

// LoadFile is Load with an explicit file path. A missing file is not an error.
func LoadFile(path string) (*CatalogConfig, error) {
	config := newDefault()
	for _, name := range attributeNames() {
		config.sources[name] = SourceDefault
	}
	config.configFilePath = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := config.applyFileConfig(&file); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := config.applyEnvConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

func attributeNames() []string {
	return []string{
		"signing_key", "signing_algorithm", "access_token_ttl",
		"password_hash_cost", "registration_enabled",
		"api_list_limit_max", "api_list_limit_default",
		"openlibrary_url", "cors_allowed_origins",
	}
}

func (c *CatalogConfig) applyFileConfig(file *fileConfig) error {
	if file.SigningKey != nil {
		c.SigningKey = *file.SigningKey
		c.sources["signing_key"] = SourceFile
	}
	if file.SigningAlgorithm != nil {
		c.SigningAlgorithm = *file.SigningAlgorithm
		c.sources["signing_algorithm"] = SourceFile
	}
	if file.AccessTokenTTL != nil {
		d, err := time.ParseDuration(*file.AccessTokenTTL)
		if err != nil {
			return fmt.Errorf("access_token_ttl: %w", err)
		}
		c.AccessTokenTTL = d
		c.sources["access_token_ttl"] = SourceFile
	}
	if file.PasswordHashCost != nil {
		c.PasswordHashCost = *file.PasswordHashCost
		c.sources["password_hash_cost"] = SourceFile
	}
	if file.RegistrationEnabled != nil {
		c.RegistrationEnabled = *file.RegistrationEnabled
		c.sources["registration_enabled"] = SourceFile
	}
	if file.APIListLimitMax != nil {
		c.APIListLimitMax = *file.APIListLimitMax
		c.sources["api_list_limit_max"] = SourceFile
	}
	if file.APIListLimitDefault != nil {
		c.APIListLimitDefault = *file.APIListLimitDefault
		c.sources["api_list_limit_default"] = SourceFile
	}
	if file.OpenLibraryURL != nil {
		c.OpenLibraryURL = *file.OpenLibraryURL
		c.sources["openlibrary_url"] = SourceFile
	}
	if len(file.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = file.CORSAllowedOrigins
		c.sources["cors_allowed_origins"] = SourceFile
	}
	return nil
}

// envConfig is the WBL_* environment overlay. Unset or empty variables
// leave their pointer nil.
type envConfig struct {
	SigningKey          *string        `env:"SIGNING_KEY"`
	SigningAlgorithm    *string        `env:"SIGNING_ALGORITHM"`
	AccessTokenTTL      *time.Duration `env:"ACCESS_TOKEN_TTL"`
	PasswordHashCost    *int           `env:"PASSWORD_HASH_COST"`
	RegistrationEnabled *bool          `env:"REGISTRATION_ENABLED"`
	APIListLimitMax     *int           `env:"API_LIST_LIMIT_MAX"`
	APIListLimitDefault *int           `env:"API_LIST_LIMIT_DEFAULT"`
	OpenLibraryURL      *string        `env:"OPENLIBRARY_URL"`
	CORSAllowedOrigins  *string        `env:"CORS_ALLOWED_ORIGINS"`
}

func (c *CatalogConfig) applyEnvConfig() error {
	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}

	if e.SigningKey != nil {
		c.SigningKey = *e.SigningKey
		c.sources["signing_key"] = SourceEnvironment
	}
	if e.SigningAlgorithm != nil {
		c.SigningAlgorithm = *e.SigningAlgorithm
		c.sources["signing_algorithm"] = SourceEnvironment
	}
	if e.AccessTokenTTL != nil {
		c.AccessTokenTTL = *e.AccessTokenTTL
		c.sources["access_token_ttl"] = SourceEnvironment
	}
	if e.PasswordHashCost != nil {
		c.PasswordHashCost = *e.PasswordHashCost
		c.sources["password_hash_cost"] = SourceEnvironment
	}
	if e.RegistrationEnabled != nil {
		c.RegistrationEnabled = *e.RegistrationEnabled
		c.sources["registration_enabled"] = SourceEnvironment
	}
	if e.APIListLimitMax != nil {
		c.APIListLimitMax = *e.APIListLimitMax
		c.sources["api_list_limit_max"] = SourceEnvironment
	}
	if e.APIListLimitDefault != nil {
		c.APIListLimitDefault = *e.APIListLimitDefault
		c.sources["api_list_limit_default"] = SourceEnvironment
	}
	if e.OpenLibraryURL != nil {
		c.OpenLibraryURL = *e.OpenLibraryURL
		c.sources["openlibrary_url"] = SourceEnvironment
	}
	if e.CORSAllowedOrigins != nil {
		c.CORSAllowedOrigins = splitAndTrim(*e.CORSAllowedOrigins)
		c.sources["cors_allowed_origins"] = SourceEnvironment
	}
	return nil
}

// ConfigFilePath returns the path to the config file
func (c *CatalogConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *CatalogConfig) Source(name string) string {
	if c.sources == nil {
		return SourceDefault
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return SourceDefault
}

// ClampLimit returns the page size for a list request. Zero or negative
// requests get the default; anything above the maximum is cut down to it.
func (c *CatalogConfig) ClampLimit(requested int) int {
	if requested <= 0 {
		requested = c.APIListLimitDefault
	}
	if requested > c.APIListLimitMax {
		return c.APIListLimitMax
	}
	return requested
}

// Validate validates the configuration
func (c *CatalogConfig) Validate() error {
	if c.SigningKey == "" {
		return fmt.Errorf("signing_key is required (set WBL_SIGNING_KEY)")
	}
	if len(c.SigningKey) < MinSigningKeyLength {
		return fmt.Errorf("signing_key must be at least %d bytes", MinSigningKeyLength)
	}

	supported := false
	for _, alg := range token.SupportedAlgorithms() {
		if alg == c.SigningAlgorithm {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("invalid signing_algorithm: %s (supported: %s)",
			c.SigningAlgorithm, strings.Join(token.SupportedAlgorithms(), ", "))
	}

	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("access_token_ttl must be positive, got %s", c.AccessTokenTTL)
	}
	if c.PasswordHashCost < MinPasswordHashCost || c.PasswordHashCost > MaxPasswordHashCost {
		return fmt.Errorf("password_hash_cost must be between %d and %d, got %d",
			MinPasswordHashCost, MaxPasswordHashCost, c.PasswordHashCost)
	}
	if c.APIListLimitMax <= 0 {
		return fmt.Errorf("api_list_limit_max must be positive, got %d", c.APIListLimitMax)
	}
	if c.APIListLimitDefault <= 0 {
		return fmt.Errorf("api_list_limit_default must be positive, got %d", c.APIListLimitDefault)
	}

	if _, err := url.ParseRequestURI(c.OpenLibraryURL); err != nil {
		return fmt.Errorf("invalid openlibrary_url: %w", err)
	}

	return nil
}

// Attributes returns all configuration attributes with their values and
// sources. The signing key is masked.
func (c *CatalogConfig) Attributes() []Attribute {
	signingKey := ""
	if c.SigningKey != "" {
		signingKey = "********"
	}
	return []Attribute{
		{Name: "signing_key", Value: signingKey, Source: c.Source("signing_key")},
		{Name: "signing_algorithm", Value: c.SigningAlgorithm, Source: c.Source("signing_algorithm")},
		{Name: "access_token_ttl", Value: c.AccessTokenTTL.String(), Source: c.Source("access_token_ttl")},
		{Name: "password_hash_cost", Value: strconv.Itoa(c.PasswordHashCost), Source: c.Source("password_hash_cost")},
		{Name: "registration_enabled", Value: strconv.FormatBool(c.RegistrationEnabled), Source: c.Source("registration_enabled")},
		{Name: "api_list_limit_max", Value: strconv.Itoa(c.APIListLimitMax), Source: c.Source("api_list_limit_max")},
		{Name: "api_list_limit_default", Value: strconv.Itoa(c.APIListLimitDefault), Source: c.Source("api_list_limit_default")},
		{Name: "openlibrary_url", Value: c.OpenLibraryURL, Source: c.Source("openlibrary_url")},
		{Name: "cors_allowed_origins", Value: strings.Join(c.CORSAllowedOrigins, ","), Source: c.Source("cors_allowed_origins")},
	}
}

// FormatText returns a text representation of the configuration
func (c *CatalogConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *CatalogConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
