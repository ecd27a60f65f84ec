package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"warrior_go/internal/app"
	"warrior_go/internal/bus"
	"warrior_go/internal/domain"
	"warrior_go/internal/engine"
	"warrior_go/internal/event"
	"warrior_go/internal/execution"
	"warrior_go/internal/infra"
	"warrior_go/internal/infra/bitmex"
	"warrior_go/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"

	_ "net/http/pprof" // For pprof profiling
)

const (
	NAME    = "warrior"
	VERSION = "v0.1.0"
)

func main() {
	cliApp := cli.NewApp()
	cliApp.Name = NAME
	cliApp.Usage = "keyboard trading terminal for BitMEX"
	cliApp.Version = VERSION
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "configs/config.yaml",
			Usage: "path to the YAML config file",
		},
	}
	cliApp.Action = run

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "warrior:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap(c.String("config"))
	if err := bootstrap.Initialize(); err != nil {
		return fmt.Errorf("bootstrapping failed: %w", err)
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config
	metrics := bootstrap.Metrics

	// 2. Pprof + metrics server
	if cfg.Debug.Listen != "" {
		startDebugServer(cfg.Debug.Listen, metrics)
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The loop must outlive the signal context: a signal becomes a Shutdown event.
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	queue := bus.NewQueue()
	state := bootstrap.NewTradingState()
	transport := bootstrap.Transport()
	dispatcher := engine.NewDispatcher(transport, queue, cfg.CommandTimeout(), metrics)

	// 4. Terminal
	keys := ui.DefaultKeyMap()
	header := keys.Header(fmt.Sprintf("BitMEX warrior %s [%s, %s]", VERSION, cfg.API.Bitmex.Symbol, cfg.App.Mode))
	model := ui.NewModel(ui.NewInputSource(keys, queue, cfg.RepeatWindow()))

	opts := []tea.ProgramOption{tea.WithoutSignalHandler()}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, opts...)

	// 5. Sequencer (the only owner of the trading state)
	seq := engine.NewSequencer(engine.SequencerConfig{
		Queue:        queue,
		State:        state,
		Orchestrator: engine.NewOrchestrator(),
		Commands:     dispatcher,
		Metrics:      metrics,
		OnRender: func(st *domain.TradingState) {
			program.Send(ui.FrameMsg(ui.Render(header, st)))
		},
		DumpPath: filepath.Join(cfg.Logging.Dir, "state_dump.json"),
	})

	seqDone := make(chan error, 1)
	go func() {
		seqDone <- seq.Run(runCtx)
		program.Quit()
	}()

	go func() {
		<-ctx.Done()
		if err := queue.Publish(&event.Shutdown{}); err == nil {
			slog.Info("Signal received, shutting down")
		}
	}()

	// 6. Market data + order feed
	var feed domain.ExchangeWorker
	if cfg.API.Bitmex.WSURL != "" {
		event.Warmup()
		feed = bitmex.NewFeedWorker(cfg, queue, metrics)
		if err := feed.Connect(runCtx); err != nil {
			slog.Error("Failed to connect BitMEX feed", slog.Any("error", err))
		}
	} else {
		slog.Warn("No websocket url configured, prices will not update")
	}

	// 7. Run the terminal until the sequencer stops it
	if _, err := program.Run(); err != nil {
		slog.Error("Terminal program failed", slog.Any("error", err))
	}

	// The program may also end on its own (terminal error); make sure the loop follows.
	_ = queue.Publish(&event.Shutdown{})
	runErr := <-seqDone

	queue.Close()
	if feed != nil {
		feed.Disconnect()
	}
	dispatcher.Wait()
	bootstrap.SavePreferences(seq.State())

	snap := metrics.Snapshot()
	slog.Info("Shut down",
		slog.Uint64("events", snap.EventsProcessed),
		slog.Uint64("commands", snap.CommandsIssued),
		slog.Uint64("stale_acks", snap.StaleAcks))

	if paper, ok := transport.(*execution.PaperVenue); ok {
		logPaperSummary(paper)
	}

	if runErr != nil {
		return fmt.Errorf("sequencer halted: %w", runErr)
	}
	return nil
}

func logPaperSummary(paper *execution.PaperVenue) {
	fills := paper.GetFills()
	for _, f := range fills {
		slog.Info("Paper fill",
			slog.String("clOrdID", f.OrderID),
			slog.String("side", f.Side.String()),
			slog.String("qty", f.Qty.String()),
			slog.String("price", f.Price.String()))
	}
	slog.Info("Paper session",
		slog.Int("fills", len(fills)),
		slog.Int("working_orders", paper.WorkingOrders()))
}

func startDebugServer(addr string, metrics *infra.Metrics) {
	prometheus.MustRegister(metrics)
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		slog.Info("Debug server started", slog.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			slog.Error("Debug server failed", slog.Any("error", err))
		}
	}()
}
