// Package main is the gyojeong CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/gyojeong/internal/cli"
	"github.com/hyperjump/gyojeong/internal/config"
	"github.com/hyperjump/gyojeong/internal/corpus"
	"github.com/hyperjump/gyojeong/internal/models"
	"github.com/hyperjump/gyojeong/internal/rag"
	"github.com/hyperjump/gyojeong/internal/server"
	"github.com/hyperjump/gyojeong/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/gyojeong/config.yaml"

// smokeQuery is searched after an index build to show the index works.
const smokeQuery = "한국어 공부가 어려워요"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory is preferred if it exists; when neither file exists the config comes from the
// environment alone. Returns the config and the path actually loaded ("" for environment).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if utils.Exists(fallback) {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg, err := config.FromEnv()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads .env and config and creates the logger.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger, string) {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if debug {
		cfg.Debug = true
	}
	logger, err := utils.NewLoggerWithFile(cfg.Debug, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger, resolved
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "build-index":
		runBuildIndex()
	case "search":
		runSearch()
	case "chat":
		runChat()
	case "history":
		runHistory()
	case "version", "--version", "-v":
		fmt.Printf("gyojeong version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	watchCorpus := fs.Bool("watch-corpus", false, "rebuild and reload the index when the corpus file changes")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, resolved := setup(*configPath, *debug)
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolved), zap.Bool("debug", cfg.Debug))

	ctx, stop := signalContext()
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if err := components.Retriever.Ready(); err != nil {
		logger.Warn("RAG index not found; run 'gyojeong build-index' to create it",
			zap.String("index_dir", cfg.RAG.IndexDir))
	} else {
		logger.Info("RAG index found", zap.String("index_dir", cfg.RAG.IndexDir))
	}

	if *watchCorpus {
		builder := corpus.NewBuilder(components.Embedder, indexType(cfg, logger), corpus.WithLogger(logger))
		w := corpus.NewWatcher(cfg.RAG.CorpusPath, func() {
			if _, err := builder.BuildFile(ctx, cfg.RAG.CorpusPath, components.Artifacts); err != nil {
				logger.Error("corpus rebuild failed", zap.Error(err))
				return
			}
			if err := components.Retriever.Reload(ctx); err != nil {
				logger.Error("index reload failed", zap.Error(err))
			}
		}, corpus.WithWatchLogger(logger))
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("corpus watcher stopped", zap.Error(err))
			}
		}()
	}

	srv := server.NewServer(components.Chat, components.Retriever, &cfg.Server, logger,
		server.WithDataPaths(cfg.RAG.IndexDir, cfg.History.DatabasePath))
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runBuildIndex() {
	fs := flag.NewFlagSet("build-index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	corpusPath := fs.String("corpus", "", "corpus file (.csv or .xlsx); default from config")
	watch := fs.Bool("watch", false, "rebuild whenever the corpus file changes")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, _ := setup(*configPath, false)
	defer logger.Sync()
	if *corpusPath != "" {
		abs, err := filepath.Abs(*corpusPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid corpus path: %v\n", err)
			os.Exit(1)
		}
		cfg.RAG.CorpusPath = abs
	}

	ctx, stop := signalContext()
	defer stop()

	components := initializeRetrieval(cfg, logger)
	defer components.Close()
	builder := corpus.NewBuilder(components.Embedder, indexType(cfg, logger), corpus.WithLogger(logger))

	build := func() error {
		fmt.Println("=== RAG 인덱스 빌드 시작 ===")
		fmt.Printf("코퍼스 파일 읽는 중: %s\n", cfg.RAG.CorpusPath)
		res, err := builder.BuildFile(ctx, cfg.RAG.CorpusPath, components.Artifacts)
		if err != nil {
			return err
		}
		cli.WriteBuildResult(os.Stdout, res, cfg.RAG.IndexDir)
		if err := components.Retriever.Reload(ctx); err != nil {
			return err
		}
		fmt.Println("\n=== 인덱스 테스트 ===")
		examples, err := components.Retriever.Search(ctx, smokeQuery, cfg.RAG.TopK)
		if err != nil {
			fmt.Printf("테스트 실패: %v\n", err)
			return nil
		}
		return cli.WriteExamples(os.Stdout, smokeQuery, examples, cli.OutputText)
	}

	if err := build(); err != nil {
		fmt.Fprintf(os.Stderr, "Build failed: %v\n", err)
		if !*watch {
			os.Exit(1)
		}
	}
	if !*watch {
		return
	}
	w := corpus.NewWatcher(cfg.RAG.CorpusPath, func() {
		if err := build(); err != nil {
			logger.Error("rebuild failed", zap.Error(err))
		}
	}, corpus.WithWatchLogger(logger))
	if err := w.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Watch failed: %v\n", err)
		os.Exit(1)
	}
}

// argsReorder moves flags (and their values) that appear after positional arguments to the
// front, since flag.Parse stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins positional args so multi-word input works with or without quotes.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	k := fs.Int("k", 0, "number of examples (default from config)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	query := joinArgs(fs.Args())
	if query == "" {
		fmt.Fprintln(os.Stderr, "Usage: gyojeong search [flags] <sentence>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, logger, _ := setup(*configPath, false)
	defer logger.Sync()
	if *k <= 0 {
		*k = cfg.RAG.TopK
	}
	components := initializeRetrieval(cfg, logger)
	defer components.Close()

	examples, err := components.Retriever.Search(context.Background(), query, *k)
	if errors.Is(err, rag.ErrIndexUnavailable) {
		fmt.Fprintf(os.Stderr, "RAG index not found in %s; run 'gyojeong build-index' first\n", cfg.RAG.IndexDir)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteExamples(os.Stdout, query, examples, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = run the turn locally)")
	style := fs.String("style", "formal", "formal or casual")
	session := fs.String("session", "", "session id to continue")
	stream := fs.Bool("stream", false, "stream the reply")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	message := joinArgs(fs.Args())
	if message == "" {
		fmt.Fprintln(os.Stderr, "Usage: gyojeong chat [flags] <message>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	req := models.TurnRequest{Message: message, Style: *style}
	if *session != "" {
		req.SessionID = session
	}
	if err := req.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid request: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signalContext()
	defer stop()

	if *serverURL != "" {
		if *stream {
			err = streamViaWebSocket(ctx, *serverURL, req, os.Stdout)
		} else {
			var resp *models.TurnResponse
			if resp, err = chatViaHTTP(ctx, *serverURL, req); err == nil {
				err = cli.WriteTurn(os.Stdout, resp, format)
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, logger, _ := setup(*configPath, false)
	defer logger.Sync()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	if *stream {
		err = components.Chat.StreamTurn(ctx, req, func(ev models.StreamEvent) error {
			return writeEvent(os.Stdout, ev)
		})
	} else {
		var resp *models.TurnResponse
		if resp, err = components.Chat.Turn(ctx, req); err == nil {
			err = cli.WriteTurn(os.Stdout, resp, format)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
		os.Exit(1)
	}
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read the history store directly)")
	limit := fs.Int("limit", 0, "number of entries (default: history.max_entries)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: gyojeong history [flags] <session_id>")
		os.Exit(1)
	}
	sessionID := fs.Arg(0)
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var entries []*models.HistoryEntry
	if *serverURL != "" {
		entries, err = historyViaHTTP(context.Background(), *serverURL, sessionID, *limit)
	} else {
		entries, err = historyDirect(*configPath, sessionID, *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "History failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteHistory(os.Stdout, sessionID, entries, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func historyDirect(configPath, sessionID string, limit int) ([]*models.HistoryEntry, error) {
	cfg, logger, _ := setup(configPath, false)
	defer logger.Sync()
	ctx := context.Background()
	store, err := historyStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if limit <= 0 {
		limit = cfg.History.MaxEntries
	}
	return store.Recent(ctx, sessionID, limit)
}

func printUsage() {
	fmt.Println(`gyojeong - Korean sentence correction chat server

Usage:
  gyojeong server [flags]                 Start the HTTP/WebSocket server
  gyojeong build-index [flags]            Build the RAG index from the corpus
  gyojeong search [flags] <sentence>      Show the nearest correction examples
  gyojeong chat [flags] <message>         Run one chat turn
  gyojeong history [flags] <session_id>   Show a session's history
  gyojeong version                        Show version
  gyojeong help                           Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/gyojeong/config.yaml,
                     or ./config.yaml when present; environment only when neither exists)

Server Flags:
  --debug            Enable debug logging
  --watch-corpus     Rebuild and reload the index when the corpus file changes

Build-index Flags:
  --corpus string    Corpus file, .csv or .xlsx with original_text,refined_text columns
  --watch            Keep running and rebuild when the corpus file changes

Search Flags:
  --k int            Number of examples (default: rag.top_k)
  --output string    Output format: text or json

Chat Flags:
  --server string    Server URL; empty runs the turn locally
  --style string     formal or casual (default: formal)
  --session string   Session id to continue
  --stream           Stream the reply (WebSocket when --server is set)
  --output string    Output format: text or json

History Flags:
  --server string    Server URL; empty reads the store directly
  --limit int        Number of entries
  --output string    Output format: text or json

Examples:
  gyojeong build-index --corpus ./data/fortraining.csv
  gyojeong server
  gyojeong chat --style casual 학교에 가고싶어요
  gyojeong chat --server http://localhost:8000 --stream 오늘 날씨가 좋네요
  gyojeong history --server http://localhost:8000 3f2a...`)
}
