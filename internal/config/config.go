package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	DefaultInputPath  = "2025(教職員事務局).csv"
	DefaultOutputPath = "teachers_data.js"
	DefaultEncoding   = "utf-8-sig"
	DefaultConstName  = "ALL_TEACHERS"
	DefaultIndent     = 4

	DeptColumn = "所属"
	NameColumn = "氏名"

	ExclusionMarker = "事務局"

	envPrefix      = "ROSTERGEN"
	configFileName = "rostergen"
)

type Replacement struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// DefaultReplacements is applied in order to surviving department values.
var DefaultReplacements = []Replacement{
	{From: "コース", To: ""},
	{From: "一般科目", To: "一般"},
}

type InputConfig struct {
	Path       string `mapstructure:"path"`
	Encoding   string `mapstructure:"encoding"`
	Format     string `mapstructure:"format"`
	Sheet      string `mapstructure:"sheet"`
	DeptColumn string `mapstructure:"dept_column"`
	NameColumn string `mapstructure:"name_column"`
}

type OutputConfig struct {
	Path      string `mapstructure:"path"`
	ConstName string `mapstructure:"const_name"`
	Indent    int    `mapstructure:"indent"`
}

type NormalizeConfig struct {
	Exclude      []string      `mapstructure:"exclude"`
	Replacements []Replacement `mapstructure:"replacements"`
}

type LookupConfig struct {
	Threshold      float64 `mapstructure:"threshold"`
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
	SearchLimit    int     `mapstructure:"search_limit"`
}

type HistoryConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is "json" or "console".
	Format string `mapstructure:"format"`
}

type Config struct {
	Input     InputConfig     `mapstructure:"input"`
	Output    OutputConfig    `mapstructure:"output"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Lookup    LookupConfig    `mapstructure:"lookup"`
	History   HistoryConfig   `mapstructure:"history"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"input":    "input.path",
	"output":   "output.path",
	"encoding": "input.encoding",
	"format":   "input.format",
	"sheet":    "input.sheet",
	"history":  "history.db_path",
}

// Load reads .env, then an optional YAML file, then ROSTERGEN_* variables,
// then any changed flags in fs. path may be empty, in which case
// ./rostergen.yaml is used when present. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	if fs != nil {
		for name, key := range FlagKeys {
			if flag := fs.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.Input.Encoding = CanonicalEncoding(cfg.Input.Encoding)
	cfg.Input.Format = strings.ToLower(strings.TrimSpace(cfg.Input.Format))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.path", DefaultInputPath)
	v.SetDefault("input.encoding", DefaultEncoding)
	v.SetDefault("input.format", "auto")
	v.SetDefault("input.sheet", "")
	v.SetDefault("input.dept_column", DeptColumn)
	v.SetDefault("input.name_column", NameColumn)

	v.SetDefault("output.path", DefaultOutputPath)
	v.SetDefault("output.const_name", DefaultConstName)
	v.SetDefault("output.indent", DefaultIndent)

	v.SetDefault("normalize.exclude", []string{ExclusionMarker})
	v.SetDefault("normalize.replacements", DefaultReplacements)

	v.SetDefault("lookup.threshold", 0.75)
	v.SetDefault("lookup.fuzzy_threshold", 0.8)
	v.SetDefault("lookup.search_limit", 10)

	v.SetDefault("history.db_path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Validate reports every violation at once.
func (c Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Input.Path) == "" {
		errs = append(errs, "input.path must not be empty")
	}
	if !ValidEncoding(c.Input.Encoding) {
		errs = append(errs, fmt.Sprintf("input.encoding %q is not a known encoding", c.Input.Encoding))
	}
	validFormats := map[string]bool{"auto": true, "csv": true, "xlsx": true, "html": true}
	if !validFormats[c.Input.Format] {
		errs = append(errs, fmt.Sprintf("input.format must be one of [auto, csv, xlsx, html], got %q", c.Input.Format))
	}
	if c.Input.DeptColumn == "" || c.Input.NameColumn == "" {
		errs = append(errs, "input.dept_column and input.name_column must not be empty")
	}

	if strings.TrimSpace(c.Output.Path) == "" {
		errs = append(errs, "output.path must not be empty")
	}
	if !identPattern.MatchString(c.Output.ConstName) {
		errs = append(errs, fmt.Sprintf("output.const_name %q is not a JavaScript identifier", c.Output.ConstName))
	}
	if c.Output.Indent < 0 || c.Output.Indent > 16 {
		errs = append(errs, fmt.Sprintf("output.indent must be 0-16, got %d", c.Output.Indent))
	}

	for i, r := range c.Normalize.Replacements {
		if r.From == "" {
			errs = append(errs, fmt.Sprintf("normalize.replacements[%d].from must not be empty", i))
		}
		if r.To != "" && strings.Contains(r.To, r.From) {
			errs = append(errs, fmt.Sprintf("normalize.replacements[%d].to must not contain from", i))
		}
	}
	for i, m := range c.Normalize.Exclude {
		if m == "" {
			errs = append(errs, fmt.Sprintf("normalize.exclude[%d] must not be empty", i))
		}
	}

	if c.Lookup.Threshold <= 0 || c.Lookup.Threshold > 1 {
		errs = append(errs, fmt.Sprintf("lookup.threshold must be in (0, 1], got %g", c.Lookup.Threshold))
	}
	if c.Lookup.FuzzyThreshold <= 0 || c.Lookup.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Sprintf("lookup.fuzzy_threshold must be in (0, 1], got %g", c.Lookup.FuzzyThreshold))
	}
	if c.Lookup.SearchLimit < 1 {
		errs = append(errs, fmt.Sprintf("lookup.search_limit must be >= 1, got %d", c.Lookup.SearchLimit))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}
	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[c.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

var encodingAliases = map[string]string{
	"utf8-sig":  "utf-8-sig",
	"utf_8_sig": "utf-8-sig",
	"utf8":      "utf-8",
	"utf_8":     "utf-8",
	"cp932":     "windows-31j",
	"ms932":     "windows-31j",
	"sjis":      "shift_jis",
	"eucjp":     "euc-jp",
	"euc_jp":    "euc-jp",
}

// CanonicalEncoding lower-cases name and resolves the aliases that are not
// WHATWG labels.
func CanonicalEncoding(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := encodingAliases[name]; ok {
		return alias
	}
	return name
}

// ValidEncoding accepts utf-8-sig, auto and any WHATWG encoding label.
func ValidEncoding(name string) bool {
	switch name = CanonicalEncoding(name); name {
	case "utf-8-sig", "auto":
		return true
	case "":
		return false
	}
	_, err := htmlindex.Get(name)
	return err == nil
}
