// Package main is the tansaku CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/cli"
	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/corpus"
	"github.com/hyperjump/tansaku/internal/expansion"
	"github.com/hyperjump/tansaku/internal/extract"
	"github.com/hyperjump/tansaku/internal/indexer"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/search"
	"github.com/hyperjump/tansaku/internal/server"
	"github.com/hyperjump/tansaku/internal/storage"
	"github.com/hyperjump/tansaku/internal/terms"
	"github.com/hyperjump/tansaku/internal/watcher"
	"github.com/hyperjump/tansaku/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tansaku/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if it exists; when neither exists the built-in defaults are used.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			local := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(local); err == nil {
				cfg, err := config.Load(local)
				if err != nil {
					return nil, "", err
				}
				return cfg, local, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
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
	case "search":
		runSearch()
	case "expand":
		runExpand()
	case "compare":
		runCompare()
	case "index":
		runIndex()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "demo":
		runDemo()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("tansaku version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (expansions, file indexing, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idx := components.Indexer
	exts := cfg.Watch.Extensions
	watchSvc := watcher.NewWatcher(
		cfg.Watch.Directories,
		exts,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			if _, err := idx.IndexFile(ctx, path, exts); err != nil && !errors.Is(err, indexer.ErrEmptyContent) {
				logger.Warn("watch index file failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := idx.DeleteFile(ctx, path); err != nil {
				logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(logger),
	)
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer watchSvc.Stop()
	watchSvc.SyncExistingFiles()

	if cfg.Expansion.WatchRules && cfg.Expansion.RulesPath != "" {
		rw := watcher.NewRuleWatcher(cfg.Expansion.RulesPath, func(path string) error {
			if err := components.Rules.Reload(path); err != nil {
				return err
			}
			logger.Info("expansion rules reloaded",
				zap.String("path", path),
				zap.Int("rules", components.Rules.Table().Len()))
			return nil
		}, watcher.WithLogger(logger))
		if err := rw.Start(ctx); err != nil {
			logger.Fatal("Failed to watch rules file", zap.Error(err))
		}
		defer rw.Stop()
	}

	srv := server.NewServer(components.Engine, components.Indexer, cfg, logger,
		server.WithRules(components.Rules),
		server.WithWatch(watchSvc),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// argsReorder moves any flags (and their values) that appear after the query to the front
// so that flag.Parse sees them. The flag package stops at the first non-flag argument, so
// `tansaku search 機械学習 -limit 5` would otherwise leave -limit unparsed.
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

// buildQuery joins positional args with spaces so queries work with or without quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// parseStrategy resolves a strategy flag; the empty string selects def.
func parseStrategy(name string, def models.Strategy) (models.Strategy, error) {
	if strings.TrimSpace(name) == "" {
		return def, nil
	}
	return models.ParseStrategy(name)
}

// queryCommand holds the flags shared by search, expand and compare.
type queryCommand struct {
	fs         *flag.FlagSet
	configPath *string
	strategy   *string
	output     *string
	debug      *bool
}

func newQueryCommand(name string) *queryCommand {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &queryCommand{
		fs:         fs,
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		strategy:   fs.String("strategy", "", "expansion strategy: basic, comprehensive or progressive (default from config)"),
		output:     fs.String("output", "text", "output format: text, compact or json"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
}

// parse parses args and returns the query, config, logger and output format, exiting on
// invalid input.
func (c *queryCommand) parse(args []string) (string, *config.Config, *zap.Logger, cli.OutputFormat) {
	_ = c.fs.Parse(argsReorder(args))
	query := buildQuery(c.fs.Args())
	if query == "" {
		fmt.Fprintf(os.Stderr, "Usage: tansaku %s [flags] <query>\n\n", c.fs.Name())
		c.fs.PrintDefaults()
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*c.output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*c.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || *c.debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return query, cfg, logger, format
}

func runSearch() {
	c := newQueryCommand("search")
	serverURL := c.fs.String("server", "", "server URL; when empty the index is opened directly")
	limit := c.fs.Int("limit", 0, "number of results (default from config)")
	column := c.fs.String("column", "", "restrict matching to title or content")
	query, cfg, logger, format := c.parse(os.Args[2:])
	defer logger.Sync()

	req := &models.SearchRequest{Query: query, Limit: *limit, Column: *column}
	if *c.strategy != "" {
		s, err := models.ParseStrategy(*c.strategy)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		req.Strategy = &s
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		// The HTTP API avoids the bleve index lock held by a running server.
		var err error
		response, err = searchViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		response, err = components.Engine.Run(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, req *models.SearchRequest) (*models.SearchResponse, error) {
	var response models.SearchResponse
	if err := postJSON(serverURL+"/api/v1/search", req, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func postJSON(url string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func runExpand() {
	c := newQueryCommand("expand")
	query, cfg, logger, format := c.parse(os.Args[2:])
	defer logger.Sync()

	rules, err := loadRules(cfg.Expansion)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load rules: %v\n", err)
		os.Exit(1)
	}
	// Expansion never touches the backend, so none is opened.
	engine := newEngine(cfg, nil, rules, logger)
	strategy, err := parseStrategy(*c.strategy, engine.DefaultStrategy())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cli.WriteExpansion(os.Stdout, engine.Expand(query, strategy), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runCompare() {
	c := newQueryCommand("compare")
	strategies := c.fs.Bool("strategies", false, "also run the query once per strategy")
	limit := c.fs.Int("limit", 0, "results per strategy with -strategies (default from config)")
	query, cfg, logger, format := c.parse(os.Args[2:])
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	if err := cli.WriteComparison(os.Stdout, components.Engine.Compare(ctx, query), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if *strategies {
		resps, err := components.Engine.CompareStrategies(ctx, query, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Strategy comparison failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteStrategyComparison(os.Stdout, query, resps, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	}
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Documents        int64    `json:"documents"`
	Backend          string   `json:"backend"`
	Tokenizer        string   `json:"tokenizer,omitempty"`
	DefaultStrategy  string   `json:"default_strategy"`
	Rules            int      `json:"rules"`
	WatchDirectories []string `json:"watch_directories,omitempty"`
	DiskUsageBytes   *int64   `json:"disk_usage_bytes,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL; when empty the index is opened directly")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewCLILogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		status, err = localStatus(context.Background(), cfg, components)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func localStatus(ctx context.Context, cfg *config.Config, c *Components) (statusResponse, error) {
	docCount, err := c.Backend.DocCount(ctx)
	if err != nil {
		return statusResponse{}, fmt.Errorf("count documents: %w", err)
	}
	status := statusResponse{
		Documents:        docCount,
		Backend:          c.Backend.Name(),
		DefaultStrategy:  c.Engine.DefaultStrategy().String(),
		Rules:            c.Rules.Table().Len(),
		WatchDirectories: cfg.Watch.Directories,
	}
	if t, ok := c.Backend.(interface{ Tokenizer() string }); ok {
		status.Tokenizer = t.Tokenizer()
	}
	if diskBytes, err := storage.DiskUsage(cfg.Storage); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

func writeStatusText(w io.Writer, status statusResponse) {
	fmt.Fprintf(w, "documents:          %d   # count of indexed documents\n", status.Documents)
	fmt.Fprintf(w, "backend:            %s\n", status.Backend)
	if status.Tokenizer != "" {
		fmt.Fprintf(w, "tokenizer:          %s\n", status.Tokenizer)
	}
	fmt.Fprintf(w, "default_strategy:   %s\n", status.DefaultStrategy)
	fmt.Fprintf(w, "rules:              %d   # expansion rules loaded\n", status.Rules)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # index on disk\n", *status.DiskUsageBytes)
	}
	for _, d := range status.WatchDirectories {
		fmt.Fprintf(w, "watching:           %s\n", d)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	recursive := fs.Bool("recursive", true, "descend into subdirectories")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: tansaku index [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := components.Indexer.IndexDirectory(ctx, path, cfg.Watch.Extensions, *recursive)
		if err != nil {
			fmt.Printf("Indexing directory failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d file(s) from %s\n", n, path)
		return
	}
	// Single file: no extension filter
	skipped, err := components.Indexer.IndexFile(ctx, path, nil)
	if err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
	absPath, _ := filepath.Abs(path)
	if skipped {
		fmt.Printf("Document unchanged: %s\n", indexer.FileDocID(absPath))
		return
	}
	fmt.Printf("Document indexed successfully: %s\n", indexer.FileDocID(absPath))
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: tansaku delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	if err := components.Indexer.DeleteDocument(context.Background(), docID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

func runDemo() {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	backendName := fs.String("backend", "bleve", "bleve or sqlite (in memory), or config to use the configured index")
	limit := fs.Int("limit", 5, "results per strategy")
	output := fs.String("output", "text", "output format: text, compact or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	switch *backendName {
	case "config":
	case storage.BleveBackendName:
		cfg.Storage.Backend = storage.BleveBackendName
		cfg.Storage.BleveIndexPath = ""
	case storage.SQLiteBackendName:
		cfg.Storage.Backend = storage.SQLiteBackendName
		cfg.Storage.DatabasePath = ":memory:"
	default:
		fmt.Fprintf(os.Stderr, "Unknown demo backend %q; use bleve, sqlite or config\n", *backendName)
		os.Exit(1)
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	if err := corpus.Seed(ctx, components.Backend); err != nil {
		fmt.Fprintf(os.Stderr, "Seeding sample documents failed: %v\n", err)
		os.Exit(1)
	}
	if err := writeDemo(ctx, os.Stdout, components.Engine, *limit, format); err != nil {
		fmt.Fprintf(os.Stderr, "Demo failed: %v\n", err)
		os.Exit(1)
	}
}

// writeDemo runs every strategy over the sample scenarios, then the hit-count comparison
// over queries of increasing length.
func writeDemo(ctx context.Context, w io.Writer, engine *search.Engine, limit int, format cli.OutputFormat) error {
	for _, q := range corpus.Scenarios {
		resps, err := engine.CompareStrategies(ctx, q, limit)
		if err != nil {
			return err
		}
		if err := cli.WriteStrategyComparison(w, q, resps, format); err != nil {
			return err
		}
	}
	if format == cli.OutputText {
		fmt.Fprintln(w, "\n=== Query length ===")
	}
	for _, c := range corpus.LengthCases {
		if format == cli.OutputText {
			fmt.Fprintf(w, "\n[%s]\n", c.Label)
		}
		if err := cli.WriteComparison(w, engine.Compare(ctx, c.Query), format); err != nil {
			return err
		}
	}
	return nil
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	path := "config.yaml"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if err := writeDefaultConfig(path, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", path)
}

// writeDefaultConfig saves the built-in defaults to path. An existing file is kept unless
// force is set.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use -force to overwrite)", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return config.Save(path, config.Default())
}

// Components holds initialized services.
type Components struct {
	Backend storage.Backend
	Rules   *expansion.RuleSet
	Engine  *search.Engine
	Indexer *indexer.Indexer
}

func (c *Components) Close() {
	if c.Backend != nil {
		_ = c.Backend.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	backend, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	rules, err := loadRules(cfg.Expansion)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to load expansion rules: %w", err)
	}
	logger.Debug("components initialized",
		zap.String("backend", backend.Name()),
		zap.Int("rules", rules.Table().Len()))

	return &Components{
		Backend: backend,
		Rules:   rules,
		Engine:  newEngine(cfg, backend, rules, logger),
		Indexer: indexer.NewIndexer(backend, extract.NewExtractor(), indexer.WithLogger(logger)),
	}, nil
}

// loadRules returns the rule table from cfg.RulesPath, or the built-in table.
func loadRules(cfg config.ExpansionConfig) (*expansion.RuleSet, error) {
	if cfg.RulesPath == "" {
		return expansion.NewRuleSet(expansion.DefaultRules()), nil
	}
	table, err := expansion.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	return expansion.NewRuleSet(table), nil
}

func newEngine(cfg *config.Config, backend storage.Backend, rules *expansion.RuleSet, logger *zap.Logger) *search.Engine {
	opts := []terms.ExtractorOption{terms.WithNormalization(cfg.Expansion.NormalizeNFKC)}
	if cfg.Expansion.ParticleBreaksOrDefault() {
		opts = append(opts, terms.WithParticleBreaks(cfg.Expansion.Particles))
	}
	engineOpts := []search.Option{search.WithLogger(logger)}
	// Validate has already rejected unknown names.
	if s, err := models.ParseStrategy(cfg.Expansion.DefaultStrategy); err == nil {
		engineOpts = append(engineOpts, search.WithDefaultStrategy(s))
	}
	return search.NewEngine(backend, terms.NewExtractor(opts...), expansion.NewEngine(rules), &cfg.Search, engineOpts...)
}

func printUsage() {
	fmt.Println(`tansaku - Query expansion search for mixed Japanese/English text

Usage:
  tansaku server [flags]            Start the HTTP server
  tansaku search [flags] <query>    Search documents with query expansion
  tansaku expand [flags] <query>    Show extracted terms and the built query
  tansaku compare [flags] <query>   Compare hits with and without expansion
  tansaku index [flags] <path>      Index a file or directory
  tansaku delete [flags] <id>       Delete a document
  tansaku status [flags]            Show backend/index status
  tansaku demo [flags]              Run the strategies over the sample documents
  tansaku init [-force] [path]      Write the default config (default: ./config.yaml)
  tansaku version                   Show version
  tansaku help                      Show this help

Common Flags:
  --config string    Config file path (default: ./config.yaml, then /usr/local/etc/tansaku/config.yaml)
  --debug            Enable debug logging

Search / Expand / Compare Flags:
  --strategy string  basic, comprehensive or progressive (default from config)
  --output string    text, compact or json (default: text)
  --limit int        Number of results (search, compare -strategies)
  --column string    Restrict matching to title or content (search)
  --server string    Query a running server instead of opening the index (search)
  --strategies       Also run the query once per strategy (compare)

Demo Flags:
  --backend string   bleve or sqlite (in memory), or config (default: bleve)

Examples:
  tansaku server
  tansaku expand データベース設計と機械学習の統合システム開発
  tansaku search --strategy progressive 機械学習
  tansaku search --output json "Pythonを使った自然言語処理"
  tansaku compare --strategies 機械学習
  tansaku index ~/Documents/notes
  tansaku demo --backend sqlite`)
}
