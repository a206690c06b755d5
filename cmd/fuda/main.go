// Package main is the Fuda CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/fuda/internal/builder"
	"github.com/hyperjump/fuda/internal/catalog"
	"github.com/hyperjump/fuda/internal/cli"
	"github.com/hyperjump/fuda/internal/config"
	"github.com/hyperjump/fuda/internal/embedding"
	"github.com/hyperjump/fuda/internal/matcher"
	"github.com/hyperjump/fuda/internal/models"
	"github.com/hyperjump/fuda/internal/server"
	"github.com/hyperjump/fuda/internal/watcher"
	"github.com/hyperjump/fuda/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/fuda/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
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
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "resolve":
		runResolve()
	case "lookup":
		runLookup()
	case "build":
		runBuild()
	case "reload":
		runReload()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("fuda version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// newEmbedder returns the ONNX embedder, or the deterministic mock when the
// model cannot be loaded (missing model file, or a build without cgo).
func newEmbedder(cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		logger.Warn("ONNX model unavailable, using mock embedder",
			zap.String("model_path", cfg.Embedding.ModelPath), zap.Error(err))
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	return onnxEmbedder
}

// initializeEngine builds the matcher engine and loads the configured dataset.
func initializeEngine(cfg *config.Config, logger *zap.Logger) (*matcher.Engine, error) {
	embedder := newEmbedder(cfg, logger)
	engine := matcher.NewEngine(cfg, embedder, logger)
	if err := engine.Load(cfg.Data.CatalogPath, cfg.Data.IndexPath); err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return engine, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
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

	engine, err := initializeEngine(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize engine", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Enabled {
		watchSvc := watcher.NewWatcher(
			cfg.Data.CatalogPath,
			cfg.Data.IndexPath,
			func() {
				if _, err := engine.Reload(context.Background(), &models.ReloadRequest{}); err != nil {
					logger.Warn("watch reload failed", zap.Error(err))
				}
			},
			logger,
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMillis)*time.Millisecond),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(engine, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
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

func printResolveUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: fuda resolve [flags] <query> [query...]\n\n")
	fmt.Fprintf(fs.Output(), "One query resolves on its own; several queries resolve as a batch.\n")
	fmt.Fprintf(fs.Output(), "Queries with spaces need quoting: fuda resolve \"blue eyes\" smile\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  fuda resolve "blue eyes"
  fuda resolve --output compact "girl with sword" smile "long hair"
  fuda resolve --mode all --output json "blue eyes"
  fuda resolve --server "" "heart pupils"    # direct mode, no server needed
`)
}

// splitQueries expands comma-separated args into individual queries, so
// "1girl, blue eyes, smile" pasted as one argument works the same as three.
func splitQueries(args []string) []string {
	var queries []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if q := strings.TrimSpace(part); q != "" {
				queries = append(queries, q)
			}
		}
	}
	return queries
}

// resolveArgsReorder moves flags that appear after the queries to the front
// so flag.Parse() sees them; the flag package stops at the first non-flag arg.
func resolveArgsReorder(args []string) []string {
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

func runResolve() {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load the dataset directly)")
	mode := fs.String("mode", models.ModeSingleBest, "batch mode: single (one tag per query) or all (every candidate)")
	limit := fs.Int("limit", 0, "cap the number of candidates shown (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() { printResolveUsage(fs) }
	_ = fs.Parse(resolveArgsReorder(os.Args[2:]))

	queries := splitQueries(fs.Args())
	if len(queries) == 0 {
		printResolveUsage(fs)
		os.Exit(1)
	}

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serverURL != "" {
		if len(queries) == 1 {
			response, err := resolveViaHTTP(*serverURL, queries[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Resolve failed: %v\n", err)
				os.Exit(1)
			}
			response.Candidates = capCandidates(response.Candidates, *limit)
			if err := cli.WriteResolveResponse(os.Stdout, response, format); err != nil {
				fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
				os.Exit(1)
			}
			return
		}
		response, err := resolveBatchViaHTTP(*serverURL, queries, *mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Resolve failed: %v\n", err)
			os.Exit(1)
		}
		response.Candidates = capCandidates(response.Candidates, *limit)
		if err := cli.WriteBatchResponse(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct mode: load the dataset in-process.
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	engine, err := initializeEngine(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}

	if len(queries) == 1 {
		response, err := engine.Resolve(context.Background(), queries[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Resolve failed: %v\n", err)
			os.Exit(1)
		}
		response.Candidates = capCandidates(response.Candidates, *limit)
		if err := cli.WriteResolveResponse(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	response, err := engine.ResolveBatch(context.Background(), &models.ResolveBatchRequest{
		Queries: queries,
		Mode:    *mode,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Resolve failed: %v\n", err)
		os.Exit(1)
	}
	response.Candidates = capCandidates(response.Candidates, *limit)
	if err := cli.WriteBatchResponse(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func capCandidates(candidates []*models.MatchCandidate, limit int) []*models.MatchCandidate {
	if limit > 0 && len(candidates) > limit {
		return candidates[:limit]
	}
	return candidates
}

func resolveViaHTTP(serverURL, query string) (*models.ResolveResponse, error) {
	body, err := json.Marshal(models.ResolveRequest{Query: query})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/resolve", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.ResolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func resolveBatchViaHTTP(serverURL string, queries []string, mode string) (*models.ResolveBatchResponse, error) {
	body, err := json.Marshal(models.ResolveBatchRequest{Queries: queries, Mode: mode})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/resolve/batch", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.ResolveBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runLookup() {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load the dataset directly)")
	kind := fs.String("type", "exact", "lookup type: exact, alias, or prefix")
	limit := fs.Int("limit", 10, "result limit for prefix lookups")
	_ = fs.Parse(resolveArgsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: fuda lookup [flags] <query>")
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))

	if *serverURL != "" {
		result, err := lookupViaHTTP(*serverURL, *kind, query, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(result)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	engine, err := initializeEngine(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}

	switch *kind {
	case "exact":
		result := engine.Exact(query)
		if result == nil {
			fmt.Println("not found")
			os.Exit(1)
		}
		printLookupResult(result)
	case "alias":
		result := engine.Alias(query)
		if result == nil {
			fmt.Println("not found")
			os.Exit(1)
		}
		printLookupResult(result)
	case "prefix":
		results := engine.Prefix(query, *limit)
		if len(results) == 0 {
			fmt.Println("no matches")
			return
		}
		for _, r := range results {
			printLookupResult(r)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown lookup type %q; use exact, alias, or prefix\n", *kind)
		os.Exit(1)
	}
}

func printLookupResult(r *models.LookupResult) {
	fmt.Printf("%-40s %-9s count=%d\n", r.Tag, models.CategoryName(r.Category), r.Count)
}

func lookupViaHTTP(serverURL, kind, query string, limit int) (string, error) {
	var endpoint string
	params := url.Values{"q": {query}}
	switch kind {
	case "exact":
		endpoint = "/api/v1/tags/exact"
	case "alias":
		endpoint = "/api/v1/tags/alias"
	case "prefix":
		endpoint = "/api/v1/tags/search"
		params.Set("limit", fmt.Sprintf("%d", limit))
	default:
		return "", fmt.Errorf("unknown lookup type %q; use exact, alias, or prefix", kind)
	}
	resp, err := http.Get(serverURL + endpoint + "?" + params.Encode())
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return strings.TrimSpace(string(b)), nil
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	catalogPath := fs.String("catalog", "", "catalog path (default: from config)")
	outPath := fs.String("out", "", "output index path (default: from config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	srcPath := *catalogPath
	if srcPath == "" {
		srcPath = cfg.Data.CatalogPath
	}
	dstPath := *outPath
	if dstPath == "" {
		dstPath = cfg.Data.IndexPath
	}

	entries, err := catalog.Load(srcPath)
	if err != nil {
		fmt.Printf("Failed to load catalog: %v\n", err)
		os.Exit(1)
	}

	embedder := newEmbedder(cfg, logger)
	defer embedder.Close()

	start := time.Now()
	b := builder.NewBuilder(embedder, logger)
	index, err := b.Build(context.Background(), entries, dstPath)
	if err != nil {
		fmt.Printf("Build failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Built index with %d entries from %d catalog tags in %s\n",
		index.Size(), len(entries), time.Since(start).Round(time.Millisecond))
	fmt.Printf("Written to %s\n", dstPath)
}

func runReload() {
	fs := flag.NewFlagSet("reload", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	catalogPath := fs.String("catalog", "", "catalog path (default: server's configured path)")
	indexPath := fs.String("index", "", "index path (default: server's configured path)")
	_ = fs.Parse(os.Args[2:])

	body, err := json.Marshal(models.ReloadRequest{
		CatalogPath: *catalogPath,
		IndexPath:   *indexPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reload failed: %v\n", err)
		os.Exit(1)
	}
	resp, err := http.Post(*serverURL+"/api/v1/reload", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reload failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Reload failed: server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out models.ReloadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Reload failed: decode response: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reloaded %d tags (%d embedded) in %dms [%s]\n",
		out.TagCount, out.IndexSize, out.ReloadTime, out.OperationID)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	TagCount    int                    `json:"tag_count"`
	IndexSize   int                    `json:"index_size"`
	IndexLoaded bool                   `json:"index_loaded"`
	Config      map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load the dataset directly)")
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
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		engine, err := initializeEngine(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		stats := engine.Stats()
		status = statusResponse{
			TagCount:    stats.TagCount,
			IndexSize:   stats.IndexSize,
			IndexLoaded: stats.IndexLoaded,
			Config: map[string]interface{}{
				"catalog_path": cfg.Data.CatalogPath,
				"index_path":   cfg.Data.IndexPath,
			},
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
		fmt.Printf("tag_count:     %d   # canonical tags in the vocabulary\n", status.TagCount)
		fmt.Printf("index_size:    %d   # tags in the semantic index\n", status.IndexSize)
		fmt.Printf("index_loaded:  %t\n", status.IndexLoaded)
		if len(status.Config) > 0 {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"catalog_path", "index_path", "max_results", "min_similarity", "count_weight", "fuzzy_threshold"} {
				if v, ok := status.Config[key]; ok {
					fmt.Printf("%-16s %v\n", key+":", v)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
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

func printUsage() {
	fmt.Println(`fuda - Tag vocabulary resolution engine

Usage:
  fuda server [flags]               Start the HTTP server
  fuda resolve [flags] <query>...   Resolve free-form strings to canonical tags
  fuda lookup [flags] <query>       Exact, alias, or prefix vocabulary lookup
  fuda build [flags]                Build the semantic index from a catalog
  fuda reload [flags]               Ask a running server to reload its dataset
  fuda status [flags]               Show dataset and index status
  fuda version                      Show version
  fuda help                         Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/fuda/config.yaml)
  --debug            Enable debug logging

Resolve Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct mode.
  --mode string      Batch mode: single or all (default: single)
  --output string    Output format: text, compact, or json (default: text)
  --limit int        Cap the number of candidates shown (0 = server default)

Lookup Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct mode.
  --type string      Lookup type: exact, alias, or prefix (default: exact)
  --limit int        Result limit for prefix lookups (default: 10)

Build Flags:
  --config string    Config file path
  --catalog string   Catalog path (default: from config)
  --out string       Output index path (default: from config)

Reload Flags:
  --server string    Server URL (default: http://localhost:8080)
  --catalog string   Catalog path (default: server's configured path)
  --index string     Index path (default: server's configured path)

Status Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct mode.
  --output string    Output format: text or json (default: text)

Examples:
  fuda server
  fuda resolve "blue eyes"
  fuda resolve --output compact "girl with sword" smile "long hair"
  fuda lookup --type prefix blue
  fuda build --catalog tags.json --out tags.vec
  fuda reload
  fuda status`)
}
