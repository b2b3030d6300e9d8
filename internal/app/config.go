package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tapoptz/tapoptz/pkg/shell"
	"github.com/tapoptz/tapoptz/pkg/yaml"
)

// LoadConfig apply all configs in order, later configs override earlier
func LoadConfig(v any) {
	for _, data := range configs {
		if err := yaml.Unmarshal(data, v); err != nil {
			Logger.Warn().Err(err).Msg("[app] read config")
		}
	}
}

type flagConfig []string

func (c *flagConfig) String() string {
	return strings.Join(*c, " ")
}

func (c *flagConfig) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var configs [][]byte

// initConfig support:
// - path to YAML file (first file is the main config)
// - raw YAML or JSON: {cameras: {door: {host: 192.168.1.10}}}
// - key=value: log.level=trace
func initConfig(confs []string) {
	if confs == nil {
		confs = []string{DefaultConfig}
	}

	for _, conf := range confs {
		if len(conf) == 0 {
			continue
		}
		if conf[0] == '{' {
			configs = append(configs, []byte(conf))
		} else if data := parseConfString(conf); data != nil {
			configs = append(configs, data)
		} else {
			if ConfigPath == "" {
				ConfigPath = conf
			}

			data, _ = os.ReadFile(conf)
			if data == nil {
				continue
			}

			configs = append(configs, shell.ReplaceEnvVars(data))
		}
	}

	if ConfigPath != "" {
		if !filepath.IsAbs(ConfigPath) {
			if cwd, err := os.Getwd(); err == nil {
				ConfigPath = filepath.Join(cwd, ConfigPath)
			}
		}
		Info["config_path"] = ConfigPath
	}
}

// parseConfString `log.level=trace` => `{log: {level: trace}}`
func parseConfString(s string) []byte {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return nil
	}

	items := strings.Split(s[:i], ".")
	if len(items) < 2 {
		return nil
	}

	var pre string
	var suf = s[i+1:]
	for _, item := range items {
		pre += "{" + item + ": "
		suf += "}"
	}

	return []byte(pre + suf)
}
