package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/porticus-lab/url2pdf/internal/provision"
)

// envPrefix namespaces environment overrides, e.g. URL2PDF_OUTPUT_DIR.
const envPrefix = "URL2PDF_"

// Config is the CLI configuration, loaded from url2pdf.yaml, the
// environment, and flags, in increasing order of precedence.
type Config struct {
	OutputDir   string           `koanf:"output_dir"`
	Concurrency int              `koanf:"concurrency"`
	Timeout     string           `koanf:"timeout"`
	Verify      bool             `koanf:"verify"`
	Chrome      string           `koanf:"chrome"`
	Provision   provision.Config `koanf:"provision"`
}

// defaultConfig mirrors the original agent's defaults.
func defaultConfig() *Config {
	return &Config{
		OutputDir:   "pdf_output",
		Concurrency: 1,
		Timeout:     "60s",
		Provision:   provision.DefaultConfig(),
	}
}

// findConfigFile returns the config file to use.
// Priority: explicit path > url2pdf.yaml > url2pdf.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"url2pdf.yaml", "url2pdf.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// loadConfig layers file, environment, and flag values over defaults.
// Flag names map to config keys by replacing dashes with underscores.
func loadConfig(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	explicit, _ := flags.GetString("config")
	if path := findConfigFile(explicit); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		// Nested provision keys: URL2PDF_PROVISION_MANIFEST -> provision.manifest
		if rest, ok := strings.CutPrefix(key, "provision_"); ok {
			return "provision." + rest
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed {
			return "", nil
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		return key, posflag.FlagVal(flags, f)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading flags: %w", err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}
