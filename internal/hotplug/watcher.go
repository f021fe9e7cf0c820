// Package hotplug turns kernel and filesystem notifications into service
// triggers.
package hotplug

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dhavalsavalia/camlaunch/internal/device"
	"github.com/dhavalsavalia/camlaunch/internal/service"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultDir holds one directory per USB bus with one node per device.
const DefaultDir = "/dev/bus/usb"

const (
	lookupAttempts = 5
	lookupBackoff  = 200 * time.Millisecond
)

// Dispatch receives triggers produced by a watcher.
type Dispatch func(ctx context.Context, t service.Trigger)

// Watcher reports USB device nodes appearing and disappearing under Dir.
type Watcher struct {
	dir      string
	provider device.Provider
	dispatch Dispatch
	backoff  time.Duration

	fs *fsnotify.Watcher

	mu    sync.Mutex
	known map[string]device.Descriptor

	wg sync.WaitGroup
}

// NewWatcher creates a watcher for dir. Newly created nodes are resolved
// to descriptors through provider.
func NewWatcher(dir string, provider device.Provider, dispatch Dispatch) (*Watcher, error) {
	if dir == "" {
		dir = DefaultDir
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	return &Watcher{
		dir:      dir,
		provider: provider,
		dispatch: dispatch,
		backoff:  lookupBackoff,
		fs:       fs,
		known:    make(map[string]device.Descriptor),
	}, nil
}

// Start watches dir and each bus directory below it, then processes events
// until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fs.Add(w.dir); err != nil {
		return errors.Wrapf(err, "watch %s", w.dir)
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return errors.Wrapf(err, "read %s", w.dir)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			w.addBus(filepath.Join(w.dir, entry.Name()))
		}
	}

	if devices, err := w.provider.ListDevices(ctx); err == nil {
		w.mu.Lock()
		for _, d := range devices {
			w.known[d.Name] = d
		}
		w.mu.Unlock()
	}

	w.wg.Add(1)
	go w.eventLoop(ctx)
	return nil
}

// Close stops watching and waits for in-flight lookups to finish.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) addBus(path string) {
	if err := w.fs.Add(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cannot watch usb bus")
	}
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("hotplug watcher error")
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.addBus(event.Name)
			return
		}
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.attached(ctx, event.Name)
		}()

	case event.Has(fsnotify.Remove):
		w.mu.Lock()
		d, ok := w.known[event.Name]
		delete(w.known, event.Name)
		w.mu.Unlock()
		if !ok {
			d = device.Descriptor{Name: event.Name}
		}
		w.dispatch(ctx, service.DetachTrigger(d))
	}
}

// attached resolves a new node to its descriptor. sysfs can lag behind the
// device node, so the lookup is retried briefly.
func (w *Watcher) attached(ctx context.Context, name string) {
	for attempt := 0; attempt < lookupAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.backoff):
			}
		}

		devices, err := w.provider.ListDevices(ctx)
		if err != nil {
			log.Debug().Err(err).Str("node", name).Msg("attach lookup failed")
			continue
		}
		if d, ok := device.Find(devices, name); ok {
			w.mu.Lock()
			w.known[name] = d
			w.mu.Unlock()
			w.dispatch(ctx, service.AttachTrigger(d))
			return
		}
	}
	log.Debug().Str("node", name).Msg("attached node never appeared in enumeration")
}
