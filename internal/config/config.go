package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/ecomenu/internal/ai"
	"github.com/KaramelBytes/ecomenu/internal/assistant"
	"github.com/KaramelBytes/ecomenu/internal/dataset"
	"github.com/KaramelBytes/ecomenu/internal/utils"
)

// DirName is the per-user configuration directory under $HOME.
const DirName = ".ecomenu"

// Global configuration structure.
type Global struct {
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	Model       string  `mapstructure:"model" yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`

	// Dataset
	DataPath         string            `mapstructure:"data_path" yaml:"data_path"`
	Delimiter        string            `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator string            `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	SheetName        string            `mapstructure:"sheet_name" yaml:"sheet_name"`
	Columns          map[string]string `mapstructure:"columns" yaml:"columns,omitempty"`

	// Analysis and assistant
	TopN         int      `mapstructure:"top_n" yaml:"top_n"`
	SnippetLimit int      `mapstructure:"snippet_limit" yaml:"snippet_limit"`
	Keywords     []string `mapstructure:"keywords" yaml:"keywords,omitempty"`

	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

// Dir returns ~/.ecomenu.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Save writes the configuration atomically to cfgFile, or to
// ~/.ecomenu/config.yaml when cfgFile is empty.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from env, config file and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
// The API key is read from ECOMENU_API_KEY, then OPENAI_API_KEY.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("ECOMENU")
	v.AutomaticEnv()
	_ = v.BindEnv("api_key", "ECOMENU_API_KEY", "OPENAI_API_KEY")

	v.SetDefault("api_key", "")
	v.SetDefault("base_url", ai.DefaultBaseURL)
	v.SetDefault("model", ai.DefaultModel)
	v.SetDefault("temperature", assistant.DefaultTemperature)
	v.SetDefault("max_tokens", assistant.DefaultMaxTokens)
	v.SetDefault("data_path", "")
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("sheet_name", "")
	v.SetDefault("top_n", 10)
	v.SetDefault("snippet_limit", assistant.DefaultSnippetLimit)
	v.SetDefault("keywords", []string{})
	v.SetDefault("server_addr", "127.0.0.1:8501")
	// Retry is opt-in: one attempt and no client timeout unless configured.
	v.SetDefault("http_timeout_sec", 0)
	v.SetDefault("retry_max_attempts", 1)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks ranges and known column keys.
func (c *Global) Validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be >= 0, got %d", c.MaxTokens)
	}
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		return err
	}
	if _, err := ParseDecimal(c.DecimalSeparator); err != nil {
		return err
	}
	for k := range c.Columns {
		if _, ok := dataset.ColumnByKey(k); !ok {
			return fmt.Errorf("columns: unknown column key %q (known: %s)", k, strings.Join(columnKeys(), ", "))
		}
	}
	return nil
}

func columnKeys() []string {
	out := make([]string, 0, len(dataset.AllColumns))
	for _, c := range dataset.AllColumns {
		out = append(out, c.Key())
	}
	return out
}

// ParseDelimiter accepts "", ",", ";", "tab" or "\t". Empty means sniff.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	}
	return 0, fmt.Errorf("invalid delimiter %q (use ',', ';' or 'tab')", s)
}

// ParseDecimal accepts "", ".", ",", "dot" or "comma". Empty means detect
// per value.
func ParseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case ".", "dot":
		return '.', nil
	case ",", "comma":
		return ',', nil
	}
	return 0, fmt.Errorf("invalid decimal_separator %q (use '.' or ',')", s)
}

// DatasetOptions converts the dataset settings for dataset.Load.
func (c *Global) DatasetOptions() dataset.Options {
	opt := dataset.DefaultOptions()
	opt.Delimiter, _ = ParseDelimiter(c.Delimiter)
	opt.DecimalSeparator, _ = ParseDecimal(c.DecimalSeparator)
	opt.SheetName = c.SheetName
	if len(c.Columns) > 0 {
		opt.Headers = make(map[dataset.Column]string, len(c.Columns))
		for k, h := range c.Columns {
			if col, ok := dataset.ColumnByKey(k); ok {
				opt.Headers[col] = h
			}
		}
	}
	return opt
}

// AssistantOptions converts the chat settings for assistant.New.
func (c *Global) AssistantOptions() assistant.Options {
	temp := c.Temperature
	return assistant.Options{
		APIKey:           c.APIKey,
		BaseURL:          c.BaseURL,
		Model:            c.Model,
		Temperature:      &temp,
		MaxTokens:        c.MaxTokens,
		HTTPTimeout:      time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMaxAttempts: c.RetryMaxAttempts,
		RetryBaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		RetryMaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		SnippetLimit:     c.SnippetLimit,
		Keywords:         c.Keywords,
	}
}

// Set assigns a value by key, validating it. Column overrides use
// "columns.<key>".
func (c *Global) Set(key, val string) error {
	atoi := func(min int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < min {
			return 0, fmt.Errorf("invalid int for %s: %q", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "api_key":
		c.APIKey = strings.TrimSpace(val)
	case "base_url":
		c.BaseURL = strings.TrimRight(val, "/")
	case "model":
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("model cannot be empty")
		}
		c.Model = val
	case "temperature":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid float for temperature: %q (0 to 2)", val)
		}
		c.Temperature = f
	case "max_tokens":
		c.MaxTokens, err = atoi(1)
	case "data_path":
		c.DataPath = val
	case "delimiter":
		if _, err := ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "decimal_separator":
		if _, err := ParseDecimal(val); err != nil {
			return err
		}
		c.DecimalSeparator = val
	case "sheet_name":
		c.SheetName = val
	case "top_n":
		c.TopN, err = atoi(1)
	case "snippet_limit":
		c.SnippetLimit, err = atoi(1)
	case "keywords":
		var kws []string
		for _, k := range strings.Split(val, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kws = append(kws, k)
			}
		}
		c.Keywords = kws
	case "server_addr":
		c.ServerAddr = val
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi(0)
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi(1)
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi(0)
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi(0)
	default:
		if col, ok := strings.CutPrefix(key, "columns."); ok {
			if _, known := dataset.ColumnByKey(col); !known {
				return fmt.Errorf("unknown column key %q (known: %s)", col, strings.Join(columnKeys(), ", "))
			}
			if c.Columns == nil {
				c.Columns = map[string]string{}
			}
			if val == "" {
				delete(c.Columns, col)
			} else {
				c.Columns[col] = val
			}
			return nil
		}
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

// Keys lists the settable keys, sorted.
func Keys() []string {
	keys := []string{
		"api_key", "base_url", "model", "temperature", "max_tokens",
		"data_path", "delimiter", "decimal_separator", "sheet_name", "top_n", "snippet_limit",
		"keywords", "server_addr", "http_timeout_sec", "retry_max_attempts",
		"retry_base_delay_ms", "retry_max_delay_ms",
	}
	for _, k := range columnKeys() {
		keys = append(keys, "columns."+k)
	}
	sort.Strings(keys)
	return keys
}
