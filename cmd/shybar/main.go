package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/1broseidon/shybar/internal/config"
	"github.com/1broseidon/shybar/internal/engine"
	"github.com/1broseidon/shybar/internal/foreground"
	"github.com/1broseidon/shybar/internal/ipc"
	"github.com/1broseidon/shybar/internal/keymon"
	"github.com/1broseidon/shybar/internal/panel"
	"github.com/1broseidon/shybar/internal/tray"
	"github.com/1broseidon/shybar/internal/tui"
	"github.com/1broseidon/shybar/internal/x11"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: shybar daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: shybar daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "quit":
		os.Exit(runQuit(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: shybar <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the shybar daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  quit                Stop a running daemon")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open the live status dashboard")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'shybar <command> --help' for command-specific options.")
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: shybar status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("panel_window:   0x%08x\n", status.PanelWindow)
	if status.PanelClass != "" {
		fmt.Printf("panel_class:    %s\n", status.PanelClass)
	}
	fmt.Printf("visible:        %v\n", status.Visible)
	fmt.Printf("held:           %v\n", status.Held)
	fmt.Printf("overlay_active: %v\n", status.OverlayActive)
	fmt.Printf("within_grace:   %v\n", status.WithinGrace)
	fmt.Printf("dropped_events: %d\n", status.DroppedEvents)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runQuit(args []string) int {
	fs := flag.NewFlagSet("quit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: shybar quit")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask a running daemon to shut down and restore the panel.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "quit takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if err := client.Quit(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("daemon stopping")
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  shybar config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  shybar config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/shybar/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.Load()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/shybar/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			var err error
			if *path == "" {
				cfg, err = config.Load()
			} else {
				cfg, err = config.LoadFromPath(*path)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return 2
	}
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: shybar tui")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open the live status dashboard.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keys:")
		fmt.Fprintln(os.Stderr, "  r         Refresh now")
		fmt.Fprintln(os.Stderr, "  q, Esc    Quit")
		fmt.Fprintln(os.Stderr, "  Ctrl+C    Quit")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "tui takes no arguments")
		fs.Usage()
		return 2
	}

	if err := tui.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runDaemon() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Failed to apply display environment: %v", err)
	}

	// A second daemon would fight the first over the same panel and snapshot
	// struts the first already removed.
	if err := ipc.NewClient().Ping(); err == nil {
		log.Fatalf("A shybar daemon is already running; stop it with 'shybar quit' first")
	}

	panelClass := cfg.PanelClass
	if panelClass == "" {
		panelClass = "any dock"
	}
	log.Printf("Configuration loaded (panel_class: %s, log_level: %s)", panelClass, cfg.LogLevel)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	// Connect to the X server. The sampler is a second connection so the
	// keymap poller never contends with the event loop.
	conn, err := x11.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer conn.Close()

	sampler, err := x11.NewSampler()
	if err != nil {
		log.Fatalf("Failed to open sampler connection: %v", err)
	}
	defer sampler.Close()

	// Find the panel to manage.
	window, err := panel.Locate(conn, cfg.PanelClass)
	if err != nil {
		log.Fatalf("Failed to locate panel: %v", err)
	}
	sink := panel.NewSink(conn, window, logger)
	log.Printf("Managing panel window 0x%08x", window)

	// Claim the panel's reserved screen space and start hidden.
	sink.SetAutoHideMode(true)
	sink.Hide()

	// Engine state snapshots feed the IPC status surface.
	holder := &statusHolder{}

	eng := engine.New(sink, logger, engine.Options{
		OnPanelRestart: func() {
			// A replacement panel maps visible with fresh struts.
			sink.SetAutoHideMode(true)
			sink.Hide()
		},
		Notify: holder.set,
	})

	monitor, err := keymon.New(sampler, eng, logger)
	if err != nil {
		log.Fatalf("Failed to resolve trigger keys: %v", err)
	}

	fgWatcher, err := foreground.NewWatcher(conn, eng, logger)
	if err != nil {
		log.Fatalf("Failed to create foreground watcher: %v", err)
	}
	if err := fgWatcher.Register(); err != nil {
		log.Fatalf("Failed to register foreground watcher: %v", err)
	}

	restartWatcher, err := panel.NewWatcher(conn, sink, eng, cfg.PanelClass, logger)
	if err != nil {
		log.Fatalf("Failed to create restart watcher: %v", err)
	}
	if err := restartWatcher.Register(); err != nil {
		log.Fatalf("Failed to register restart watcher: %v", err)
	}

	// Start IPC server
	ipcServer, err := ipc.NewServer(func() ipc.StatusData {
		st := holder.get()
		return ipc.StatusData{
			PanelWindow:   uint32(sink.Window()),
			PanelClass:    cfg.PanelClass,
			Visible:       st.Visible,
			Held:          st.Held,
			OverlayActive: st.OverlayActive,
			WithinGrace:   st.WithinGrace,
			DroppedEvents: eng.Dropped(),
		}
	}, func() {
		eng.Post(engine.Event{Type: engine.QuitRequested})
	})
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	// Tray is best-effort; desktops without a tray host just miss the menu.
	trayCtrl := tray.Start(tray.Options{
		Tooltip: "shybar: hold Super to show the panel",
		OnQuit: func() {
			eng.Post(engine.Event{Type: engine.QuitRequested})
		},
	})
	defer trayCtrl.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go monitor.Run(ctx)

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		eng.Run(ctx)
	}()

	// Stop the key monitor and the X event loop once the engine stops.
	go func() {
		<-engineDone
		cancel()
		conn.Quit()
	}()

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received %s, shutting down...", sig)
		eng.Post(engine.Event{Type: engine.QuitRequested})
		sig = <-sigCh
		log.Printf("Received %s during shutdown, exiting now", sig)
		os.Exit(1)
	}()

	log.Println("shybar daemon started, entering event loop")
	conn.EventLoop()

	// The loop also ends if the X connection drops; stop the engine before
	// touching the panel. On the quit path it is already gone and the post
	// lands in a buffer nothing reads.
	eng.Post(engine.Event{Type: engine.QuitRequested})
	<-engineDone
	cancel()

	// Leave the panel usable: map it and give its reserved space back.
	sink.Show()
	sink.SetAutoHideMode(false)
	log.Println("shybar daemon stopped")
}

// statusHolder keeps the engine's latest snapshot for the IPC status
// surface. The engine publishes from its own goroutine; IPC handlers read
// from theirs.
type statusHolder struct {
	mu     sync.Mutex
	status engine.Status
}

func (h *statusHolder) set(s engine.Status) {
	h.mu.Lock()
	h.status = s
	h.mu.Unlock()
}

func (h *statusHolder) get() engine.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}
