package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tapoptz/tapoptz/internal/camera"
)

func newPresetCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage PTZ presets",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List presets",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			return printPresets(cmd.OutOrStdout(), c)
		}),
	}

	var speed float64
	gotoCmd := &cobra.Command{
		Use:   "goto TOKEN",
		Short: "Move to preset",
		Args:  cobra.ExactArgs(1),
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			if err := c.GotoPreset(args[0], speed); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "moving to preset: %s", args[0])
			return nil
		}),
	}
	gotoCmd.Flags().Float64Var(&speed, "speed", 1, "move speed 0..1")

	var token string
	setCmd := &cobra.Command{
		Use:   "set NAME",
		Short: "Save current position as preset",
		Args:  cobra.ExactArgs(1),
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			saved, err := c.SetPreset(args[0], token)
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "preset saved: %s (token: %s)", args[0], saved)
			return nil
		}),
	}
	setCmd.Flags().StringVar(&token, "token", "", "overwrite existing preset")

	removeCmd := &cobra.Command{
		Use:   "remove TOKEN",
		Short: "Remove preset",
		Args:  cobra.ExactArgs(1),
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			if err := c.RemovePreset(args[0]); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "preset removed: %s", args[0])
			return nil
		}),
	}

	cmd.AddCommand(listCmd, gotoCmd, setCmd, removeCmd)
	return cmd
}

func printPresets(w io.Writer, c *camera.Controller) error {
	presets, err := c.Presets()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Presets (%d):\n", len(presets))
	for _, preset := range presets {
		if v := preset.PTZPosition; v != nil && v.PanTilt != nil {
			fmt.Fprintf(w, "  Token %s: %s (Pan=%.4f, Tilt=%.4f)\n", preset.Token, preset.Name, v.PanTilt.X, v.PanTilt.Y)
		} else {
			fmt.Fprintf(w, "  Token %s: %s\n", preset.Token, preset.Name)
		}
	}
	return nil
}

func newHomeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "home",
		Short: "Home position",
	}

	var speed float64
	gotoCmd := &cobra.Command{
		Use:   "goto",
		Short: "Move to home position",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			if err := c.GotoHome(speed); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "moving to home position")
			return nil
		}),
	}
	gotoCmd.Flags().Float64Var(&speed, "speed", 1, "move speed 0..1")

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Save current position as home",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			if err := c.SetHome(); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "current position saved as home")
			return nil
		}),
	}

	cmd.AddCommand(gotoCmd, setCmd)
	return cmd
}
