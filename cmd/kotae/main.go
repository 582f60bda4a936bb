// Package main is the Kotae CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kotae-dev/kotae/internal/answer"
	"github.com/kotae-dev/kotae/internal/audit"
	"github.com/kotae-dev/kotae/internal/auth"
	"github.com/kotae-dev/kotae/internal/chunker"
	"github.com/kotae-dev/kotae/internal/config"
	"github.com/kotae-dev/kotae/internal/llm"
	"github.com/kotae-dev/kotae/internal/loader"
	"github.com/kotae-dev/kotae/internal/models"
	"github.com/kotae-dev/kotae/internal/retriever"
	"github.com/kotae-dev/kotae/internal/server"
	"github.com/kotae-dev/kotae/internal/service"
	"github.com/kotae-dev/kotae/internal/vectorstore"
	"github.com/kotae-dev/kotae/internal/watcher"
	"github.com/kotae-dev/kotae/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "kotae server" from the project dir uses the project's
// config (including debug).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// A missing .env is fine; the environment may carry the key already.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "clear":
		runClear()
	case "audit":
		runAudit()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// components bundles everything a command needs, so each command builds the
// pipeline the same way.
type components struct {
	Service  *service.Service
	Sink     *audit.Sink
	Users    *auth.UserStore
	Sessions *auth.SessionManager
}

func (c *components) Close() {
	if c.Sink != nil {
		_ = c.Sink.Close()
	}
	if c.Users != nil {
		_ = c.Users.Close()
	}
}

// initializeComponents wires the pipeline from config. A missing LLM API key
// is not fatal: ingestion, stats, and audit work without it, and Ask reports
// the missing key as its answer.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	store, err := vectorstore.New(&cfg.Vector)
	if err != nil {
		return nil, err
	}

	var client llm.Client
	groq, err := llm.NewGroqClient(llm.GroqConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      os.Getenv(cfg.LLM.APIKeyEnv),
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err == llm.ErrNoAPIKey {
		logger.Warn("LLM API key not set; answers will be unavailable",
			zap.String("env", cfg.LLM.APIKeyEnv))
	} else if err != nil {
		return nil, err
	} else {
		client = groq
	}

	sink, err := audit.NewSink(cfg.Audit.DatabasePath, cfg.Audit.IndexPath, cfg.Audit.ResponseMaxChars)
	if err != nil {
		return nil, err
	}
	users, err := auth.NewUserStore(cfg.Auth.DatabasePath)
	if err != nil {
		_ = sink.Close()
		return nil, err
	}

	svc := service.New(
		loader.NewLoader(""),
		chunker.NewSplitter(cfg.Ingest.MaxChunkSize, cfg.Ingest.ChunkOverlap),
		store,
		retriever.NewRetriever(store, retriever.WithLogger(logger)),
		answer.NewComposer(client, answer.WithLogger(logger)),
		sink,
		cfg,
		logger,
	)
	return &components{
		Service:  svc,
		Sink:     sink,
		Users:    users,
		Sessions: auth.NewSessionManager(time.Duration(cfg.Auth.SessionTimeoutSecs) * time.Second),
	}, nil
}

func mustSetup(configPath string, debugFlag bool) (*config.Config, *zap.Logger, *components) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))
	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, comps
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, comps := mustSetup(*configPath, *debug)
	defer logger.Sync()
	defer comps.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Directory != "" {
		svc := comps.Service
		watchOpts := []watcher.WatcherOption{}
		if cfg.Debug || *debug {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(cfg.Watch.Directory, cfg.Watch.Extensions, func(paths []string) {
			files, err := readUploadFiles(paths)
			if err != nil {
				logger.Warn("drop directory read failed", zap.Error(err))
				return
			}
			if len(files) == 0 {
				return
			}
			if _, err := svc.IngestFiles(context.Background(), files); err != nil {
				logger.Warn("drop directory ingest failed", zap.Error(err))
			}
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(comps.Service, comps.Users, comps.Sessions, comps.Sink, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func readUploadFiles(paths []string) ([]service.UploadFile, error) {
	var files []service.UploadFile
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, service.UploadFile{Name: filepath.Base(path), Data: data})
	}
	return files, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: kotae ingest [flags] <file> [file ...]")
		os.Exit(1)
	}

	_, logger, comps := mustSetup(*configPath, false)
	defer logger.Sync()
	defer comps.Close()

	files, err := readUploadFiles(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	report, err := comps.Service.IngestFiles(context.Background(), files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d document(s) as %d chunk(s)\n", report.Documents, report.Chunks)
	for _, f := range report.Failures {
		fmt.Printf("  skipped %s: %s\n", f.Name, f.Reason)
	}
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	k := fs.Int("k", 0, "number of passages to retrieve (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	question := buildQuestion(fs.Args())
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: kotae ask [flags] <question>")
		os.Exit(1)
	}

	_, logger, comps := mustSetup(*configPath, false)
	defer logger.Sync()
	defer comps.Close()

	resp, err := comps.Service.Ask(context.Background(),
		models.AskRequest{Question: question, K: *k},
		&service.Identity{Actor: "cli", Department: "local"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		_ = json.NewEncoder(os.Stdout).Encode(resp)
		return
	}
	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(resp.Sources, ", "))
	}
	fmt.Printf("(%d ms)\n", resp.QueryTime)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	_, logger, comps := mustSetup(*configPath, false)
	defer logger.Sync()
	defer comps.Close()

	stats, err := comps.Service.Stats(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if *outputFormat == "json" {
		_ = json.NewEncoder(os.Stdout).Encode(stats)
		return
	}
	if stats.Collection == "" {
		fmt.Println("Collection: (not created)")
		return
	}
	fmt.Printf("Collection: %s\nChunks: %d\n", stats.Collection, stats.TotalChunks)
}

func runClear() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	yes := fs.Bool("yes", false, "skip confirmation")
	_ = fs.Parse(os.Args[2:])

	if !*yes {
		fmt.Print("This deletes the entire indexed collection. Continue? [y/N] ")
		var reply string
		_, _ = fmt.Scanln(&reply)
		if reply != "y" && reply != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	_, logger, comps := mustSetup(*configPath, false)
	defer logger.Sync()
	defer comps.Close()

	if err := comps.Service.ClearCollection(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Clear failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Collection cleared.")
}

func runAudit() {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of entries to show")
	search := fs.String("search", "", "full-text search over the trail instead of listing")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	_, logger, comps := mustSetup(*configPath, false)
	defer logger.Sync()
	defer comps.Close()

	var entries []audit.Entry
	var err error
	if *search != "" {
		entries, err = comps.Sink.Search(context.Background(), *search, *limit)
	} else {
		entries, err = comps.Sink.List(context.Background(), *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Audit failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		_ = json.NewEncoder(os.Stdout).Encode(entries)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No audit entries.")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %s (%s)\n  Q: %s\n  A: %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Actor, e.Department, e.Query, e.Response)
		if len(e.Sources) > 0 {
			fmt.Printf("  Sources: %s\n", strings.Join(e.Sources, ", "))
		}
	}
}

func printUsage() {
	fmt.Println(`kotae - Document question answering over your company knowledge base

Usage:
  kotae server [flags]              Start the HTTP server
  kotae ingest [flags] <file> ...   Load files into the knowledge base (replaces it)
  kotae ask [flags] <question>      Ask a question
  kotae status [flags]              Show collection status
  kotae clear [flags]               Delete the indexed collection
  kotae audit [flags]               List or search the audit trail
  kotae version                     Show version
  kotae help                        Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml)

Ask Flags:
  --k int            Number of passages to retrieve (0 = configured default)
  --output string    text or json

Audit Flags:
  --limit int        Number of entries to show (default 20)
  --search string    Full-text search over the trail
  --output string    text or json

Environment:
  GROQ_API_KEY       Chat-completions API key (or the key named by llm.api_key_env);
                     also read from a .env file in the working directory`)
}
