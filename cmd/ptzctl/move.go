package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/tapoptz/tapoptz/internal/camera"
	"github.com/tapoptz/tapoptz/pkg/core"
)

type moveFlags struct {
	pan, tilt, zoom float64
	speed           float64
	duration        time.Duration
}

func newMoveCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move camera with absolute, relative or continuous move",
	}

	var abs moveFlags
	absCmd := &cobra.Command{
		Use:   "abs",
		Short: "Move to absolute position, missing axes keep current position",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			var pan, tilt, zoom *float64
			if cmd.Flags().Changed("pan") {
				pan = &abs.pan
			}
			if cmd.Flags().Changed("tilt") {
				tilt = &abs.tilt
			}
			if cmd.Flags().Changed("zoom") {
				zoom = &abs.zoom
			}
			if err := c.AbsoluteMove(pan, tilt, zoom, abs.speed); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "absolute move: Pan=%s, Tilt=%s, Zoom=%s", axis(pan), axis(tilt), axis(zoom))
			return nil
		}),
	}
	absCmd.Flags().Float64Var(&abs.pan, "pan", 0, "pan position")
	absCmd.Flags().Float64Var(&abs.tilt, "tilt", 0, "tilt position")
	absCmd.Flags().Float64Var(&abs.zoom, "zoom", 0, "zoom position")
	absCmd.Flags().Float64Var(&abs.speed, "speed", 1, "move speed 0..1")

	var rel moveFlags
	relCmd := &cobra.Command{
		Use:   "rel",
		Short: "Move by delta from current position",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			if err := c.RelativeMove(rel.pan, rel.tilt, rel.zoom, rel.speed); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "relative move: Pan Δ=%s, Tilt Δ=%s", core.FormatFloat(rel.pan), core.FormatFloat(rel.tilt))
			return nil
		}),
	}
	relCmd.Flags().Float64Var(&rel.pan, "pan", 0, "pan delta")
	relCmd.Flags().Float64Var(&rel.tilt, "tilt", 0, "tilt delta")
	relCmd.Flags().Float64Var(&rel.zoom, "zoom", 0, "zoom delta")
	relCmd.Flags().Float64Var(&rel.speed, "speed", 1, "move speed 0..1")

	var cont moveFlags
	contCmd := &cobra.Command{
		Use:   "cont",
		Short: "Move with velocity and stop after duration",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			w := cmd.OutOrStdout()
			ok(w, "continuous move: Pan=%s, Tilt=%s", core.FormatFloat(cont.pan), core.FormatFloat(cont.tilt))
			if err := c.ContinuousMove(cmd.Context(), cont.pan, cont.tilt, cont.zoom, cont.duration); err != nil {
				return err
			}
			if cont.duration > 0 {
				ok(w, "move stopped")
			}
			return nil
		}),
	}
	contCmd.Flags().Float64Var(&cont.pan, "pan", 0, "pan velocity -1..1")
	contCmd.Flags().Float64Var(&cont.tilt, "tilt", 0, "tilt velocity -1..1")
	contCmd.Flags().Float64Var(&cont.zoom, "zoom", 0, "zoom velocity -1..1")
	contCmd.Flags().DurationVar(&cont.duration, "duration", time.Second, "stop after duration, 0 - don't stop")

	cmd.AddCommand(absCmd, relCmd, contCmd)
	return cmd
}

func axis(v *float64) string {
	if v == nil {
		return "-"
	}
	return core.FormatFloat(*v)
}

// newDirectionCmd - "pan left|right" or "tilt up|down"
func newDirectionCmd(o *options, name, negative, positive string) *cobra.Command {
	var f moveFlags

	cmd := &cobra.Command{
		Use:       name + " " + negative + "|" + positive,
		Short:     "Continuous " + name + " for duration",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{negative, positive},
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			ctx := cmd.Context()

			var err error
			switch args[0] {
			case "left":
				err = c.PanLeft(ctx, f.speed, f.duration)
			case "right":
				err = c.PanRight(ctx, f.speed, f.duration)
			case "up":
				err = c.TiltUp(ctx, f.speed, f.duration)
			case "down":
				err = c.TiltDown(ctx, f.speed, f.duration)
			}
			if err != nil {
				return err
			}

			ok(cmd.OutOrStdout(), "%s %s: speed=%s, duration=%s", name, args[0], core.FormatFloat(f.speed), f.duration)
			return nil
		}),
	}
	cmd.Flags().Float64Var(&f.speed, "speed", camera.DefaultDirectionSpeed, "move speed 0..1")
	cmd.Flags().DurationVar(&f.duration, "duration", camera.DefaultDirectionDuration, "move duration")
	return cmd
}

func newStopCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop any move",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			if err := c.Stop(); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "move stopped")
			return nil
		}),
	}
}
