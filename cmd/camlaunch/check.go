package main

import (
	"context"
	"fmt"

	"github.com/dhavalsavalia/camlaunch/internal/launch"
	"github.com/dhavalsavalia/camlaunch/internal/service"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var flagLaunch bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one detection pass from empty state",
		Long: `check enumerates USB devices once, as if monitoring had just started,
and prints the cameras that would count as arrivals. With --launch the
configured application is activated for them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(!flagLaunch)
			if err != nil {
				return err
			}
			provider, err := newProvider(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var activator launch.Activator = launch.ActivatorFunc(func(_ context.Context, req launch.Request) error {
				fmt.Fprintf(out, "would launch: source=%s devices=%v\n", req.Source, req.Devices)
				return nil
			})
			if flagLaunch {
				var session *dbus.Conn
				if conn, err := dbus.ConnectSessionBus(); err == nil {
					session = conn
					defer conn.Close()
				}
				if activator, err = newActivator(cfg, session); err != nil {
					return err
				}
			}

			lc := service.New(provider, activator, lifecycleOptions(cfg))

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			res, err := lc.TriggerOnce(ctx)
			if err != nil {
				return fmt.Errorf("detection failed: %w", err)
			}

			fmt.Fprintf(out, "%d device(s), %d camera(s)\n", len(res.Devices), len(res.Cameras))
			for _, k := range res.Arrived.Keys() {
				fmt.Fprintf(out, "arrived %s\n", k)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagLaunch, "launch", false, "activate the configured application for detected cameras")
	return cmd
}
