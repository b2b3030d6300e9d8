package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/tapoptz/tapoptz/internal/app"
	"github.com/tapoptz/tapoptz/internal/camera"
	"github.com/tapoptz/tapoptz/internal/simulator"
	"github.com/tapoptz/tapoptz/pkg/onvif"
	"github.com/tapoptz/tapoptz/pkg/shell"
)

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Find ONVIF cameras in local network with WS-Discovery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := onvif.DiscoveryStreamingURLs()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(urls) == 0 {
				fail(w, "no cameras found")
				return nil
			}
			for _, rawURL := range urls {
				ok(w, "%s", rawURL)
			}
			return nil
		},
	}
}

const demoLine = "============================================================"

func newDemoCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run demo sequence: streams, status, moves, presets and home",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			fmt.Fprintln(w, demoLine)
			fmt.Fprintln(w, "Tapo ONVIF PTZ demo")
			fmt.Fprintln(w, demoLine)

			c, err := o.connect(cmd)
			if err != nil {
				return err
			}

			ok(w, "connected: %s", c.Config().Host)

			return runDemo(cmd.Context(), w, c, o.wait)
		},
	}
	cmd.Flags().DurationVar(&o.wait, "wait", 3*time.Second, "pause after each move")
	return cmd
}

// runDemo - demo steps don't stop on camera errors, like a user would continue
func runDemo(ctx context.Context, w io.Writer, c *camera.Controller, wait time.Duration) error {
	step := func(format string, args ...any) {
		fmt.Fprintf(w, "\n"+format+"\n", args...)
	}
	check := func(err error) {
		if err != nil {
			fail(w, "%v", err)
		}
	}
	pause := func() error {
		select {
		case <-time.After(wait):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	step("1. RTSP streams:")
	fmt.Fprintf(w, "  Main stream: %s\n", c.RTSPURL(1))
	fmt.Fprintf(w, "  Sub stream:  %s\n", c.RTSPURL(2))

	step("2. PTZ status:")
	if status, err := c.Status(); err == nil {
		printStatus(w, status)
	} else {
		check(err)
	}

	step("3. Current position:")
	check(printPosition(w, c))

	step("4. Absolute move to center:")
	if err := c.MoveToPosition(0, 0, 1); err == nil {
		ok(w, "absolute move: Pan=0, Tilt=0")
	} else {
		check(err)
	}
	if err := pause(); err != nil {
		return err
	}

	step("5. Position after move:")
	check(printPosition(w, c))

	step("6. Presets:")
	check(printPresets(w, c))

	step("7. Save new preset:")
	check(c.MoveToPosition(0.5, 0.3, 1))
	if err := pause(); err != nil {
		return err
	}
	token, err := c.SetPreset("demo", "")
	if err == nil {
		ok(w, "preset saved: demo (token: %s)", token)
	} else {
		check(err)
	}

	step("8. Go to home:")
	if err = c.GotoHome(1); err == nil {
		ok(w, "moving to home position")
	} else {
		check(err)
	}
	if err = pause(); err != nil {
		return err
	}

	if token != "" {
		step("9. Back to preset:")
		if err = c.GotoPreset(token, 1); err == nil {
			ok(w, "moving to preset: %s", token)
		} else {
			check(err)
		}
		if err = pause(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, demoLine)
	fmt.Fprintln(w, "Demo done")
	fmt.Fprintln(w, demoLine)
	return nil
}

func newSimulateCmd(o *options) *cobra.Command {
	var listen string
	var cfg simulator.Config

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Serve virtual ONVIF PTZ camera for testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Username = o.cfg.Username
			cfg.Password = o.cfg.Password

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}

			cam := simulator.NewCamera(cfg, app.GetLogger("simulator"))
			srv := &http.Server{Handler: cam, ReadHeaderTimeout: 5 * time.Second}

			ctx, cancel := shell.SignalContext(cmd.Context())
			defer cancel()

			go func() {
				<-ctx.Done()
				_ = srv.Close()
			}()

			ok(cmd.OutOrStdout(), "virtual camera %s listen on %s", cfg.Model, ln.Addr())

			if err = srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":"+fmt.Sprint(camera.DefaultPort), "listen address")
	cmd.Flags().StringVar(&cfg.Model, "model", "Tapo C200", "device model")
	cmd.Flags().BoolVar(&cfg.Zoom, "zoom", false, "add zoom axis")
	cmd.Flags().Float64Var(&cfg.Speed, "speed", 0.5, "position units per second at velocity 1")

	return cmd
}
