package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tapoptz/tapoptz/internal/app"
	"github.com/tapoptz/tapoptz/internal/camera"
	"github.com/tapoptz/tapoptz/pkg/shell"
)

func main() {
	// Ctrl+C cancels command context, so continuous moves send Stop before exit
	ctx, cancel := shell.SignalContext(context.Background())

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}

// options - global flags shared by all commands
type options struct {
	cfg     camera.Config
	name    string
	configs []string
	level   string

	// wait - pause between demo steps
	wait time.Duration
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "ptzctl",
		Short: "Control Tapo PTZ cameras over ONVIF",
		Long: `Control Tapo PTZ cameras over ONVIF Profile S.

Camera can be set with flags or taken from config:
  ptzctl --host 192.168.1.100 --user admin --password secret status
  ptzctl --config tapoptz.yaml --camera door position`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			o.load()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.cfg.Host, "host", "", "camera IP address or hostname")
	pf.IntVar(&o.cfg.Port, "port", camera.DefaultPort, "camera ONVIF port")
	pf.StringVarP(&o.cfg.Username, "user", "u", "", "camera account from Tapo app")
	pf.StringVarP(&o.cfg.Password, "password", "p", "", "camera password, TAPO_PASSWORD env by default")
	pf.StringVar(&o.cfg.Profile, "profile", "", "media profile token or index")
	pf.StringVar(&o.name, "camera", "", "camera name from config")
	pf.StringArrayVarP(&o.configs, "config", "c", nil, "config file, raw YAML or key=value, support multiple")
	pf.StringVar(&o.level, "log-level", "warn", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newInfoCmd(o),
		newCapabilitiesCmd(o),
		newNodesCmd(o),
		newStreamCmd(o),
		newStatusCmd(o),
		newPositionCmd(o),
		newMoveCmd(o),
		newDirectionCmd(o, "pan", "left", "right"),
		newDirectionCmd(o, "tilt", "up", "down"),
		newStopCmd(o),
		newPresetCmd(o),
		newHomeCmd(o),
		newDiscoverCmd(),
		newDemoCmd(o),
		newSimulateCmd(o),
	)

	return root
}

func (o *options) load() {
	confs := o.configs
	if len(confs) == 0 {
		confs = []string{app.DefaultConfig}
	}
	app.Load(append(confs, "log.level="+o.level))

	if o.cfg.Password == "" {
		o.cfg.Password = os.Getenv("TAPO_PASSWORD")
	}
}

// cameraConfig - camera from config with flags on top
func (o *options) cameraConfig(cmd *cobra.Command) (camera.Config, error) {
	var cfg struct {
		Cameras map[string]camera.Config `yaml:"cameras"`
	}
	app.LoadConfig(&cfg)

	var conf camera.Config

	switch {
	case o.name != "":
		var ok bool
		if conf, ok = cfg.Cameras[o.name]; !ok {
			return conf, fmt.Errorf("camera not found in config: %s", o.name)
		}
	case o.cfg.Host == "" && len(cfg.Cameras) == 1:
		for _, c := range cfg.Cameras {
			conf = c
		}
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		conf.Host = o.cfg.Host
	}
	if flags.Changed("port") || conf.Port == 0 {
		conf.Port = o.cfg.Port
	}
	if flags.Changed("user") {
		conf.Username = o.cfg.Username
	}
	if o.cfg.Password != "" {
		conf.Password = o.cfg.Password
	}
	if flags.Changed("profile") {
		conf.Profile = o.cfg.Profile
	}

	if conf.Host == "" {
		return conf, errors.New("camera host is required: use --host or --camera")
	}

	return conf, nil
}

func (o *options) connect(cmd *cobra.Command) (*camera.Controller, error) {
	conf, err := o.cameraConfig(cmd)
	if err != nil {
		return nil, err
	}

	c := camera.NewController(conf, app.GetLogger("camera"))
	if err = c.Connect(); err != nil {
		return nil, err
	}

	return c, nil
}

// run - connect to camera and run command function
func (o *options) run(f func(cmd *cobra.Command, c *camera.Controller, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := o.connect(cmd)
		if err != nil {
			return err
		}
		return f(cmd, c, args)
	}
}

func ok(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "✓ "+format+"\n", args...)
}

func fail(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "✗ "+format+"\n", args...)
}
