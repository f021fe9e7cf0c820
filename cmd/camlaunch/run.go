package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dhavalsavalia/camlaunch/internal/config"
	"github.com/dhavalsavalia/camlaunch/internal/desktop"
	"github.com/dhavalsavalia/camlaunch/internal/device"
	"github.com/dhavalsavalia/camlaunch/internal/hotplug"
	"github.com/dhavalsavalia/camlaunch/internal/logging"
	"github.com/dhavalsavalia/camlaunch/internal/service"
	"github.com/dhavalsavalia/camlaunch/internal/ui"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var flagNoTUI bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Monitor USB cameras and launch the application on arrival",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}

			closer, err := logging.Setup(logging.Options{
				Level:   cfg.Log.Level,
				Format:  cfg.Log.Format,
				File:    cfg.Log.File,
				Discard: !flagNoTUI,
			}, os.Stderr)
			if err != nil {
				return err
			}
			defer closer.Close()

			return runService(cmd.Context(), cfg, !flagNoTUI)
		},
	}
	cmd.Flags().BoolVar(&flagNoTUI, "no-tui", false, "run headless, logging to stderr")
	return cmd
}

func runService(parent context.Context, cfg *config.Config, withTUI bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	session, err := dbus.ConnectSessionBus()
	if err != nil {
		log.Warn().Err(err).Msg("session bus unavailable")
		session = nil
	} else {
		defer session.Close()
	}

	activator, err := newActivator(cfg, session)
	if err != nil {
		return err
	}

	opts := lifecycleOptions(cfg)
	if cfg.Notify.IsEnabled() && session != nil {
		opts.Notifier = desktop.NewDBusNotifier(session)
	}
	lc := service.New(provider, activator, opts)
	defer lc.StopService()

	lc.HandleTrigger(ctx, service.Trigger{Source: service.SourceBoot})
	startTriggers(ctx, cfg, provider, lc)
	go handleSignals(ctx, lc)

	if !withTUI {
		log.Info().Str("version", version).Msg("camlaunch running")
		<-ctx.Done()
		log.Info().Msg("shutting down")
		return nil
	}

	model := ui.NewModel(lc, ui.Options{
		PollInterval: cfg.Detection.PollInterval.Std(),
		LaunchTarget: launchTarget(cfg),
		Version:      version,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// startTriggers wires the optional external event sources. Each one that
// fails to start is logged and skipped; polling keeps working without them.
func startTriggers(ctx context.Context, cfg *config.Config, provider device.Provider, lc *service.Lifecycle) {
	if cfg.Triggers.HotplugEnabled() {
		w, err := hotplug.NewWatcher(cfg.Triggers.HotplugDir, provider, lc.HandleTrigger)
		if err == nil {
			err = w.Start(ctx)
		}
		if err != nil {
			log.Warn().Err(err).Msg("usb hotplug watcher disabled")
		} else {
			go func() {
				<-ctx.Done()
				_ = w.Close()
			}()
		}
	}

	if cfg.Triggers.UeventsEnabled() {
		mapper := hotplug.NewMapper()
		go func() {
			err := hotplug.ListenUevents(ctx, func(u hotplug.Uevent) {
				if src, ok := mapper.Map(u); ok {
					lc.HandleTrigger(ctx, service.Trigger{Source: src})
				}
			})
			if err != nil {
				log.Warn().Err(err).Msg("kernel uevent listener stopped")
			}
		}()
	}

	if cfg.Triggers.ResumeEnabled() {
		system, err := dbus.ConnectSystemBus()
		if err != nil {
			log.Warn().Err(err).Msg("system bus unavailable, resume trigger disabled")
			return
		}
		err = desktop.WatchResume(ctx, system, func() {
			lc.HandleTrigger(ctx, service.Trigger{Source: service.SourceUserPresent})
		})
		if err != nil {
			log.Warn().Err(err).Msg("resume trigger disabled")
			system.Close()
			return
		}
		go func() {
			<-ctx.Done()
			system.Close()
		}()
	}
}

// handleSignals maps SIGUSR1 to a manual detection pass and SIGHUP to a
// loop restart.
func handleSignals(ctx context.Context, lc *service.Lifecycle) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGHUP)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			switch sig {
			case syscall.SIGUSR1:
				lc.HandleTrigger(ctx, service.Trigger{Source: service.SourceManual})
				if _, err := lc.TriggerOnce(ctx); err != nil {
					log.Error().Err(err).Msg("manual detection failed")
				}
			case syscall.SIGHUP:
				log.Info().Msg("restarting detection loop")
				lc.StopService()
				lc.StartService()
			}
		}
	}
}
