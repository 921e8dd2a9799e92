// Command vault runs the gesture vault: it records gyro gestures from the
// serial bridge, enrolls the first as the key and checks every later one
// against it.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/banshee-data/gesture.vault/internal/api"
	"github.com/banshee-data/gesture.vault/internal/config"
	"github.com/banshee-data/gesture.vault/internal/db"
	"github.com/banshee-data/gesture.vault/internal/display"
	"github.com/banshee-data/gesture.vault/internal/gesture"
	"github.com/banshee-data/gesture.vault/internal/gyro"
	"github.com/banshee-data/gesture.vault/internal/monitoring"
	"github.com/banshee-data/gesture.vault/internal/recorder"
	"github.com/banshee-data/gesture.vault/internal/serialmux"
	"github.com/banshee-data/gesture.vault/internal/timeutil"
	"github.com/banshee-data/gesture.vault/internal/vault"
	"github.com/banshee-data/gesture.vault/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address")
	port        = flag.String("port", "/dev/ttyUSB0", "Serial port of the gyro bridge (\"none\" disables it)")
	baud        = flag.Int("baud", serialmux.DefaultBaudRate, "Serial baud rate")
	devTrace    = flag.String("dev", "", "Replay this trace file instead of reading the serial port")
	configPath  = flag.String("config", config.DefaultConfigPath, "Path to the tuning config JSON")
	watchConfig = flag.Bool("watch-config", true, "Reload the tuning config when it changes")
	dbPath      = flag.String("db", "vault.db", "SQLite database path")
	verbose     = flag.Bool("verbose", false, "Log every dropped line and skipped sample")
	noDisplay   = flag.Bool("no-display", false, "Do not draw status screens on stdout")
	listPorts   = flag.Bool("list-ports", false, "List serial ports and exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// tuning holds the active config; the watcher swaps it on change.
type tuning struct {
	cur atomic.Pointer[config.TuningConfig]
}

func (t *tuning) Params() gesture.Params { return t.cur.Load().Params() }

// apply installs cfg unless it changes something that only takes effect at
// startup, in which case the change is logged and the live parts applied.
func (t *tuning) apply(cfg *config.TuningConfig) {
	old := t.cur.Load()
	if old != nil && old.GetCanonicalOrder() != cfg.GetCanonicalOrder() {
		log.Printf("config: canonical_order change to %s needs a restart and re-enrollment; keeping %s",
			cfg.GetCanonicalOrder(), old.GetCanonicalOrder())
	}
	t.cur.Store(cfg)
	log.Printf("config: applied %s", cfg.Params())
}

func loadConfig(path string) (*config.TuningConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == config.DefaultConfigPath {
		log.Printf("config: %s not found, using built-in defaults", path)
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

// openSource builds the raw sample source and the serial mux backing it.
func openSource(cfg *config.TuningConfig) (gyro.Source, serialmux.SerialMuxInterface, error) {
	if *devTrace != "" {
		samples, err := gyro.LoadTraceFile(*devTrace)
		if err != nil {
			return nil, nil, err
		}
		src := gyro.NewReplaySource(samples, timeutil.RealClock{}, cfg.GetSamplePeriod())
		src.Loop = true
		log.Printf("dev mode: replaying %d samples from %s", src.Len(), *devTrace)
		return src, serialmux.NewDisabledSerialMux(), nil
	}
	if *port == "" || *port == "none" {
		return nil, nil, errors.New("a serial port or -dev trace is required")
	}

	m, err := serialmux.NewRealSerialMux(*port, serialmux.PortOptions{BaudRate: *baud})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open gyro bridge: %w", err)
	}
	return gyro.NewSerialSource(m, timeutil.RealClock{}, cfg.GetSampleTimeout()), m, nil
}

// readEnter toggles recording on every line read from stdin, standing in
// for the hardware button in dev mode.
func readEnter(ctx context.Context, t *recorder.Toggle) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		t.Set(!t.Requested())
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listPorts {
		ports, err := serialmux.ListPorts()
		if err != nil {
			log.Fatalf("failed to list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	monitoring.SetVerbose(*verbose)
	log.Printf("gesture vault %s", version.String())

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	var tune tuning
	tune.apply(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	v := vault.New(cfg.GetCanonicalOrder(),
		vault.WithStore(store),
		vault.WithRejectEmpty(cfg.GetRejectEmptyKey()),
	)
	if err := v.Load(); errors.Is(err, vault.ErrOrderingMismatch) {
		log.Printf("vault: %v; enroll a new key", err)
		if err := store.ClearKey(); err != nil {
			log.Printf("vault: failed to clear stale key: %v", err)
		}
	} else if err != nil {
		log.Fatalf("failed to load key: %v", err)
	}

	raw, m, err := openSource(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	var wg sync.WaitGroup

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := m.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor serial port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	if err := m.Initialize(); err != nil {
		log.Fatalf("failed to initialize gyro: %v", err)
	}

	toggle := recorder.NewToggle(timeutil.RealClock{}, cfg.GetDebounceInterval())
	device := &serialmux.DeviceState{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		serialmux.Dispatch(ctx, m, serialmux.Handlers{
			OnButton: func() { toggle.Press() },
			State:    device,
		})
		log.Print("dispatch routine terminated")
	}()
	if *devTrace != "" {
		go readEnter(ctx, toggle)
	}

	var bias gyro.Reading
	if n := cfg.GetCalibrationSamples(); n > 0 {
		log.Printf("calibrating over %d samples, keep the device still", n)
		bias, err = gyro.Calibrate(ctx, raw, n)
		if err != nil {
			log.Fatalf("calibration failed: %v", err)
		}
		log.Printf("gyro bias: %s", bias)
	}
	source := &gyro.Conditioned{
		Source: raw,
		Bias:   bias,
		Filter: gyro.NewLowPass(cfg.GetFilterCoefficient()),
	}

	notifiers := vault.Notifiers{vault.NotifierFunc(func(n vault.Notification) {
		log.Printf("stage %s %q", n.Stage, n.Payload)
	})}
	if !*noDisplay {
		notifiers = append(notifiers, display.NewTerminal(os.Stdout))
	}

	ctrl := vault.NewController(vault.ControllerConfig{
		Vault: v,
		Recorder: &recorder.Recorder{
			Source:   source,
			Toggle:   toggle,
			Capacity: cfg.GetBufferCapacity(),
		},
		Params:   tune.Params,
		Notifier: notifiers,
		Attempts: store,
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ctrl.Run(ctx); err != nil {
			log.Printf("controller stopped: %v", err)
			stop()
		}
		log.Print("controller routine terminated")
	}()

	if *watchConfig {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := config.Watch(ctx, *configPath, tune.apply); err != nil {
				log.Printf("config watcher stopped: %v", err)
			}
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		srv := api.NewServer(ctrl, v, toggle, api.Options{
			Attempts: store,
			Serial:   m,
			Device:   device,
		})
		mux := srv.ServeMux()

		// mount the admin debugging routes (accessible only over localhost or Tailscale)
		if err := store.AttachAdminRoutes(mux); err != nil {
			log.Printf("failed to attach db admin routes: %v", err)
		}
		m.AttachAdminRoutes(mux)
		srv.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
