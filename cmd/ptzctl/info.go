package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tapoptz/tapoptz/internal/camera"
	"github.com/tapoptz/tapoptz/pkg/onvif"
	"github.com/tapoptz/tapoptz/pkg/yaml"
)

func newInfoCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show device information, media profile and PTZ ranges",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			info, err := c.DeviceInfo()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Manufacturer: %s\n", info.Manufacturer)
			fmt.Fprintf(w, "Model:        %s\n", info.Model)
			fmt.Fprintf(w, "Firmware:     %s\n", info.FirmwareVersion)
			fmt.Fprintf(w, "Serial:       %s\n", info.SerialNumber)

			if p := c.Profile(); p != nil {
				fmt.Fprintf(w, "Profile:      %s (token: %s)\n", p.Name, p.Token)
			}

			printRanges(w, c.Ranges())
			return nil
		}),
	}
}

func printRanges(w io.Writer, r camera.Ranges) {
	fmt.Fprintln(w, "Absolute ranges:")
	fmt.Fprintf(w, "  Pan:  %g ~ %g\n", r.Pan.Min, r.Pan.Max)
	fmt.Fprintf(w, "  Tilt: %g ~ %g\n", r.Tilt.Min, r.Tilt.Max)
	if r.HasZoom {
		fmt.Fprintf(w, "  Zoom: %g ~ %g\n", r.Zoom.Min, r.Zoom.Max)
	} else {
		fmt.Fprintln(w, "  Zoom: not supported")
	}
}

func newCapabilitiesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Show device services as YAML",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			caps, err := c.Capabilities()
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), caps)
		}),
	}
}

func newNodesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "Show PTZ nodes with supported spaces as YAML",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			nodes, err := c.Nodes()
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), nodes)
		}),
	}
}

func printYAML(w io.Writer, v any) error {
	b, err := yaml.Encode(v, 2)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func newStreamCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stream",
		Short: "Show RTSP stream URLs",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Main stream: %s\n", c.RTSPURL(1))
			fmt.Fprintf(w, "Sub stream:  %s\n", c.RTSPURL(2))

			uri, err := c.StreamURI()
			if err != nil {
				fail(w, "can't get stream URI: %v", err)
				return nil
			}
			fmt.Fprintf(w, "Profile URI: %s\n", uri)
			return nil
		}),
	}
}

func newStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show PTZ position and move status",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			status, err := c.Status()
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		}),
	}
}

func printStatus(w io.Writer, status *onvif.PTZStatus) {
	fmt.Fprintln(w, "PTZ status:")
	if v := status.Position.PanTilt; v != nil {
		fmt.Fprintf(w, "  Pan:  %.4f\n", v.X)
		fmt.Fprintf(w, "  Tilt: %.4f\n", v.Y)
	}
	if v := status.Position.Zoom; v != nil {
		fmt.Fprintf(w, "  Zoom: %.4f\n", v.X)
	}
	if ms := status.MoveStatus; ms != nil {
		fmt.Fprintf(w, "  Move: PanTilt=%s, Zoom=%s\n", orNA(ms.PanTilt), orNA(ms.Zoom))
	}
	if status.Error != "" && status.Error != "NO error" {
		fmt.Fprintf(w, "  Error: %s\n", status.Error)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func newPositionCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "position",
		Short: "Show current pan, tilt and zoom",
		Args:  cobra.NoArgs,
		RunE: o.run(func(cmd *cobra.Command, c *camera.Controller, args []string) error {
			return printPosition(cmd.OutOrStdout(), c)
		}),
	}
}

func printPosition(w io.Writer, c *camera.Controller) error {
	pan, tilt, zoom, err := c.CurrentPosition()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Pan=%.4f, Tilt=%.4f, Zoom=%.4f\n", pan, tilt, zoom)
	return nil
}
