package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"httparity/internal/adapters/logcollect"
	"httparity/internal/adapters/logsource"
	"httparity/internal/adapters/runner"
	"httparity/internal/adapters/storage/artifactfs"
	cfgpkg "httparity/internal/infrastructure/config"
	obs "httparity/internal/infrastructure/observability"
	"httparity/internal/usecase"
)

func main() {
	cfg := cfgpkg.FromEnv()
	logger := obs.NewLogger(cfg.LogLevel)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: parity-gate <suite.yaml> [suite.yaml ...]")
		os.Exit(2)
	}
	logger.Info().Str("version", obs.Version).Strs("suites", os.Args[1:]).Msg("starting parity-gate")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gate := usecase.NewGateService(runner.New(), artifactfs.NewStore(cfg.ArtifactsDir), logger)
	if cfg.CollectLogs {
		gate.SetDebugCollector(logcollect.New(cfg.DebugLogDir, map[string]string{
			"observe_http": cfg.ObserveLogFile,
			"proxy":        cfg.ProxyLogFile,
			"ws_handshake": cfg.WSHandshakeLogFile,
		}, logger))
	}

	failed := 0
	total := 0
	for _, path := range os.Args[1:] {
		sf, err := cfgpkg.LoadSuite(path)
		if err != nil {
			logger.Error().Err(err).Str("file", path).Msg("suite not loaded")
			os.Exit(2)
		}
		for _, def := range sf.Cases {
			total++
			res, err := gate.RunCase(ctx, gateCase(sf.Suite, def))
			if err != nil {
				logger.Error().Err(err).Str("suite", sf.Suite).Str("case", def.Name).Msg("case aborted")
				failed++
				continue
			}
			if res.OK {
				fmt.Printf("PASS %s/%s\n", sf.Suite, def.Name)
				continue
			}
			failed++
			fmt.Printf("FAIL %s/%s (%d diffs)\n", sf.Suite, def.Name, len(res.Diffs))
			for _, d := range res.Diffs {
				fmt.Printf("  %s\n", d)
			}
			fmt.Printf("  baseline:  %s\n  candidate: %s\n", res.BaselinePath, res.CandidatePath)
		}
	}

	fmt.Printf("%d/%d cases passed\n", total-failed, total)
	if failed > 0 {
		os.Exit(1)
	}
}

func gateCase(suite string, def cfgpkg.CaseDef) usecase.GateCase {
	return usecase.GateCase{
		Suite:                suite,
		Name:                 def.Name,
		URL:                  def.URL,
		Pattern:              usecase.Pattern(def.Pattern),
		ExpectedCount:        def.ExpectedCount,
		SelectRange:          def.SelectRange,
		Source:               logsource.File{Path: def.Log.Path, Format: logsource.Format(def.Log.Format)},
		Baseline:             command(def.Baseline),
		Candidate:            command(def.Candidate),
		SummarizeConnections: def.SummarizeConnections,
		Timeout:              time.Duration(def.TimeoutMs) * time.Millisecond,
	}
}

func command(def cfgpkg.CommandDef) usecase.CommandTemplate {
	return usecase.CommandTemplate{
		Argv:          def.Argv,
		Env:           def.Env,
		Dir:           def.Dir,
		DownloadPath:  def.Download,
		EventsPath:    def.EventsOut,
		PausePath:     def.PauseOut,
		CookieJarPath: def.CookieJarOut,
		ProgressPath:  def.ProgressOut,
		ErrorPath:     def.ErrorOut,
	}
}
