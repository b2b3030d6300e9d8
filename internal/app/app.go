package app

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"
)

var Version = "0.3.0"
var UserAgent = "tapoptz/" + Version

var ConfigPath string
var Info = map[string]any{
	"version": Version,
}

const DefaultConfig = "tapoptz.yaml"

func Init() {
	var confs flagConfig
	var version bool

	flag.Var(&confs, "config", "tapoptz config (path to file, raw YAML or key=value), support multiple")
	flag.BoolVar(&version, "version", false, "Print the version of the application and exit")
	flag.Parse()

	if version {
		fmt.Println(VersionString())
		os.Exit(0)
	}

	Load(confs)

	platform := fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	Logger.Info().Str("version", Version).Str("platform", platform).Msg("tapoptz")
	Logger.Debug().Str("version", runtime.Version()).Msg("build")

	if ConfigPath != "" {
		Logger.Info().Str("path", ConfigPath).Msg("config")
	}
}

// Load read configs and init logger. Used by daemon and CLI.
func Load(confs []string) {
	configs = nil
	ConfigPath = ""
	delete(Info, "config_path")

	initConfig(confs)
	initLogger()
}

func VersionString() string {
	var revision string
	vcsTime := time.Now().Local()

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
				if len(revision) > 7 {
					revision = revision[:7]
				}
				revision = " (" + revision + ")"
			case "vcs.time":
				if ts, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					vcsTime = ts.Local()
				}
			}
		}
	}

	return fmt.Sprintf("tapoptz version %s%s: %s %s/%s",
		Version, revision, vcsTime.Format(time.DateTime), runtime.GOOS, runtime.GOARCH)
}
