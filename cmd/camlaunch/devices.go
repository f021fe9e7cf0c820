package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dhavalsavalia/camlaunch/internal/detect"
	"github.com/spf13/cobra"
)

const commandTimeout = 10 * time.Second

func newDevicesCmd() *cobra.Command {
	var flagVerbose bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List attached USB devices and mark cameras",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			provider, err := newProvider(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			devices, err := provider.ListDevices(ctx)
			if err != nil {
				return fmt.Errorf("list devices: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(devices) == 0 {
				fmt.Fprintln(out, "no USB devices found")
				return nil
			}
			for _, d := range devices {
				marker := " "
				reason := detect.Explain(d)
				if reason != detect.ReasonNone {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, d)
				if flagVerbose {
					fmt.Fprintf(out, "    key=%s rule=%s interfaces=[%s]\n", d.Key(), reason, d.InterfaceSummary())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "show key, matching rule and interfaces")
	return cmd
}
