package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree the project
// root search goes.
const maxUpwardSearchLevels = 10

// configExistsIn checks whether an importguard config file exists in dir.
func configExistsIn(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// FindProjectRoot searches upward from startDir for an importguard config
// file. Returns the empty string if none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load reads configuration with precedence flags > env > file > defaults.
// cfgFile may be empty, in which case importguard.yaml is searched upward
// from the working directory. The flags set may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"source_dir": DefaultSourceDir,
		"cache.dir":  DefaultCacheDir,
		"output":     DefaultOutput,
		"verbose":    false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file.
	projectRoot := ""
	if cfgFile == "" {
		cwd, err := os.Getwd()
		if err == nil {
			if root := FindProjectRoot(cwd); root != "" {
				projectRoot = root
				cfgFile = configExistsIn(root)
			}
		}
	} else {
		abs, err := filepath.Abs(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		cfgFile = abs
		projectRoot = filepath.Dir(abs)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}
	if projectRoot == "" {
		projectRoot, _ = os.Getwd()
		if projectRoot == "" {
			projectRoot = "."
		}
	}

	// 3. Environment variables: IMPORTGUARD_OUTPUT -> output.
	if err := k.Load(env.Provider("IMPORTGUARD_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "IMPORTGUARD_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, highest priority. Only explicitly set flags are loaded.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch key {
			case "no_cache":
				return "cache.disabled", posflag.FlagVal(flags, f)
			case "cache_dir":
				return "cache.dir", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	if !filepath.IsAbs(cfg.SourceDir) {
		cfg.SourceDir = filepath.Join(projectRoot, cfg.SourceDir)
	}
	if !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(projectRoot, cfg.Cache.Dir)
	}
	return &cfg, nil
}
