package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ivlev/democam/internal/api"
	"github.com/ivlev/democam/internal/config"
	"github.com/ivlev/democam/internal/director"
	"github.com/ivlev/democam/internal/engine"
	"github.com/ivlev/democam/internal/events"
	"github.com/ivlev/democam/internal/intent"
	"github.com/ivlev/democam/internal/logging"
	"github.com/ivlev/democam/internal/prefstore"
	"github.com/ivlev/democam/internal/renderer"
)

var version = "dev"

func main() {
	inputPtr := flag.String("input", "", "Recording file or directory (default: latest file in the source directory)")
	outputPtr := flag.String("output", "", "Scenario path (default: timestamped file in the output directory)")
	configPtr := flag.String("config", "", "YAML config file")
	profilePtr := flag.String("profile", "", "Preference profile used for bias and learning")
	prefsPtr := flag.String("prefs", "", "Preference database path; \"none\" disables the store")
	fpsPtr := flag.Int("fps", 0, "Planning FPS")
	widthPtr := flag.Int("width", 0, "Viewport width for recordings without one")
	heightPtr := flag.Int("height", 0, "Viewport height for recordings without one")
	workersPtr := flag.Int("workers", 0, "Recordings planned in parallel")
	filterPtr := flag.Bool("filter", false, "Print the ffmpeg filter chain for each track")
	scenarioPtr := flag.String("scenario", "", "Print filters for an existing scenario instead of planning (\"latest\" picks the newest)")
	learnPtr := flag.Bool("learn", false, "Fold the planned sessions into the profile's preferences")
	servePtr := flag.Bool("serve", false, "Run the HTTP API")
	addrPtr := flag.String("addr", "", "HTTP listen address")
	levelPtr := flag.String("log-level", "", "Log level: debug, info, warn, error")
	formatPtr := flag.String("log-format", "", "Log format: text, json")
	versionPtr := flag.Bool("version", false, "Print the version and exit")

	flag.Parse()

	if *versionPtr {
		fmt.Println("democam", version)
		return
	}

	cfg := config.Default()
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Config error: %v", err)
		}
		cfg = loaded
	}
	cfg.BuildVersion = version

	// Flags override the file only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fps":
			cfg.Render.FPS = *fpsPtr
		case "width":
			cfg.Render.Width = *widthPtr
		case "height":
			cfg.Render.Height = *heightPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "profile":
			cfg.Store.Profile = *profilePtr
		case "prefs":
			cfg.Store.Path = *prefsPtr
		case "addr":
			cfg.Server.Addr = *addrPtr
		case "log-level":
			cfg.Logging.Level = *levelPtr
		case "log-format":
			cfg.Logging.Format = *formatPtr
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Invalid configuration: %v", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		log.Fatalf("[-] Logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *scenarioPtr != "" {
		if err := printScenario(*scenarioPtr, cfg.Output); err != nil {
			log.Fatalf("[-] %v", err)
		}
		return
	}

	var store *prefstore.Store
	if cfg.Store.Path != "" && cfg.Store.Path != "none" {
		store, err = prefstore.Open(cfg.Store.Path, prefstore.WithMkdirAll())
		if err != nil {
			log.Fatalf("[-] Preference store: %v", err)
		}
		defer store.Close()
	}

	project := engine.NewProject(&cfg, logger)

	if *servePtr {
		if err := serve(ctx, &cfg, project, store, logger); err != nil {
			log.Fatalf("[-] Server: %v", err)
		}
		return
	}

	if err := run(ctx, &cfg, project, store, *inputPtr, *outputPtr, *filterPtr, *learnPtr); err != nil {
		log.Fatalf("[-] %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, project *engine.Project, store *prefstore.Store, input, output string, filter, learn bool) error {
	startTime := time.Now()

	paths, err := resolveInputs(input, cfg.Source)
	if err != nil {
		return err
	}

	recs := make([]*events.Recording, 0, len(paths))
	for _, p := range paths {
		rec, dropped, err := events.Load(p)
		if err != nil {
			return err
		}
		if !dropped.Empty() {
			log.Printf("[!] %s: dropped %d clicks, %d moves, %d effects", p, dropped.Clicks, dropped.Moves, dropped.Effects)
		}
		recs = append(recs, rec)
	}

	learner := intent.NewLearner()
	profile := cfg.Store.Profile
	if store != nil && profile != "" {
		learner, err = store.LoadLearner(ctx, profile)
		if err != nil {
			return err
		}
	}
	bias := learner.Biases()

	fmt.Println("--- [DEMOCAM PLANNER] ---")
	fmt.Printf("[*] Recordings: %d | Profile: %s | Sessions learned: %d\n", len(recs), profile, learner.Sessions)
	fmt.Printf("[*] Planning @ %d FPS | Bias: stiffness %.2f damping %.2f zoom %.2f\n",
		cfg.Render.FPS, bias.Stiffness, bias.Damping, bias.Zoom)
	fmt.Println("-------------------------")

	results, err := project.PlanAll(ctx, recs, bias)
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Printf("[*] %s: %.1fs, %d episodes, %d keyframes\n",
			r.Track.Name, r.Track.Duration, r.Track.Episodes, len(r.Track.Keyframes))
		if filter {
			fmt.Println(renderer.GenerateFilterChain(r.Track.Keyframes, r.Track.FPS, r.Track.Width, r.Track.Height))
		}
	}

	if output == "" {
		output = director.ScenarioPath(cfg.Output, recs[0].Name, time.Now())
	}
	if err := director.WriteScenario(engine.Scenario(results), output); err != nil {
		return err
	}

	if learn {
		if store == nil || profile == "" {
			log.Printf("[!] -learn needs a preference store and a profile; skipped")
		} else {
			engine.Learn(learner, results)
			if err := store.SaveLearner(ctx, profile, learner); err != nil {
				return err
			}
			b := learner.Biases()
			fmt.Printf("[*] Preferences updated: stiffness %.2f damping %.2f zoom %.2f\n", b.Stiffness, b.Damping, b.Zoom)
		}
	}

	fmt.Printf("[+++] Done! Scenario saved: %s (%v)\n", output, time.Since(startTime).Round(time.Millisecond))
	return nil
}

func resolveInputs(input, sourceDir string) ([]string, error) {
	if input == "" {
		latest, err := events.FindLatest(sourceDir)
		if err != nil {
			return nil, fmt.Errorf("%w. Put recordings into %s/", err, sourceDir)
		}
		fmt.Printf("[*] Selected recording: %s\n", latest)
		return []string{latest}, nil
	}
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return events.FindAll(input)
	}
	return []string{input}, nil
}

func printScenario(path, outputDir string) error {
	if path == "latest" {
		latest, err := director.FindLatestScenario(outputDir)
		if err != nil {
			return err
		}
		path = latest
	}
	sc, err := director.ReadScenario(path)
	if err != nil {
		return err
	}
	fmt.Printf("[*] Scenario %s (version %s, %d tracks)\n", path, sc.Version, len(sc.Tracks))
	for _, tr := range sc.Tracks {
		fmt.Printf("# %s\n%s\n", tr.Name, renderer.GenerateFilterChain(tr.Keyframes, tr.FPS, tr.Width, tr.Height))
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, project *engine.Project, store *prefstore.Store, logger *slog.Logger) error {
	var prefs api.Preferences
	if store != nil {
		prefs = store
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.New(project, prefs, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("listening", slog.String("addr", cfg.Server.Addr), slog.String("version", cfg.BuildVersion))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
