package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dhavalsavalia/camlaunch/internal/config"
	"github.com/dhavalsavalia/camlaunch/internal/desktop"
	"github.com/dhavalsavalia/camlaunch/internal/detect"
	"github.com/dhavalsavalia/camlaunch/internal/device"
	"github.com/dhavalsavalia/camlaunch/internal/launch"
	"github.com/dhavalsavalia/camlaunch/internal/service"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

// loadConfig reads the config file. With allowMissing, an absent file
// yields the defaults so read-only commands work before init.
func loadConfig(allowMissing bool) (*config.Config, error) {
	cfg, err := config.Load(rootConfigPath)
	if err == nil {
		return cfg, nil
	}
	if allowMissing && errors.Is(err, os.ErrNotExist) {
		log.Debug().Msg("no config file, using defaults")
		return config.Default(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w (run `camlaunch init` to create one)", err)
	}
	return nil, err
}

func newProvider(cfg *config.Config) (device.Provider, error) {
	return device.New(cfg.Detection.Backend, cfg.Detection.SysfsRoot)
}

// newActivator builds the configured launch backend. session may be nil
// when no session bus is reachable.
func newActivator(cfg *config.Config, session *dbus.Conn) (launch.Activator, error) {
	switch cfg.Launch.Method {
	case config.MethodDBus:
		if session == nil {
			return nil, errors.New("launch.method is dbus but no session bus is available")
		}
		return desktop.NewDBusActivator(session, cfg.Launch.DBusName, cfg.Launch.DBusPath), nil
	default:
		if cfg.Launch.Command == "" {
			return nil, errors.New("launch.command is not set")
		}
		return launch.NewExecActivator(cfg.Launch.Command, cfg.Launch.Args, cfg.Launch.WorkingDir), nil
	}
}

func launchTarget(cfg *config.Config) string {
	if cfg.Launch.Method == config.MethodDBus {
		return cfg.Launch.DBusName
	}
	return cfg.Launch.Command
}

func lifecycleOptions(cfg *config.Config) service.Options {
	return service.Options{
		Loop: detect.Config{
			Interval: cfg.Detection.PollInterval.Std(),
			Timeout:  cfg.Detection.EnumerateTimeout.Std(),
		},
		Source:           cfg.Launch.Source,
		PowerSettleDelay: cfg.Triggers.PowerSettleDelay.Std(),
		NotifyTitle:      cfg.Notify.Title,
		NotifyBody:       cfg.Notify.Body,
	}
}
