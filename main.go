// agenthub is the command-line entrypoint for the multi-tenant knowledge
// base: ingest documents, query them, and manage tenant data.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"agenthub/llm/agent"
	"agenthub/llm/blob"
	"agenthub/llm/cache"
	"agenthub/llm/parser"
	"agenthub/llm/providers"
	"agenthub/llm/retrieval"
	"agenthub/llm/store"
	"agenthub/llm/vector"
	"agenthub/pubsub"
)

const usage = `agenthub - multi-tenant knowledge base

Usage:
  agenthub ingest <tenant> <file>        Parse and ingest a file
  agenthub query  <tenant> <question>    Answer a question from the knowledge base
  agenthub list   <tenant>               List stored documents
  agenthub delete <tenant> <doc-id>      Delete one document and its chunks
  agenthub clear  <tenant>               Delete everything the tenant owns
  agenthub stats  <tenant>               Show knowledge base statistics
  agenthub chat   <tenant>               Talk to the knowledge assistant

Flags:
  -agent <id>       Scope ingest/query to one agent (default: tenant-wide)
  -top-k <n>        Maximum results per query (default: 5)
  -threshold <f>    Minimum similarity score (default: 0.7)

Environment:
  OPENAI_API_KEY    Required. API key for embeddings and answer generation
  OPENAI_BASE_URL   Optional OpenAI-compatible endpoint
  REDIS_ADDR        Redis cache address (default: localhost:6379)
  DATA_DIR          Durable storage directory (default: ./data)
`

func main() {
	// Missing .env is fine, the environment may be set directly
	_ = godotenv.Load()

	agentID := flag.Int("agent", 0, "agent scope (0 = tenant-wide)")
	topK := flag.Int("top-k", 0, "maximum results per query")
	threshold := flag.Float64("threshold", 0, "minimum similarity score")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		flag.Usage()
		os.Exit(2)
	}
	command, tenantID := args[0], args[1]

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	app, err := buildApp(ctx, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()

	switch command {
	case "ingest":
		if len(args) < 3 {
			flag.Usage()
			os.Exit(2)
		}
		err = runIngest(ctx, app, tenantID, args[2], *agentID)
	case "query":
		if len(args) < 3 {
			flag.Usage()
			os.Exit(2)
		}
		err = runQuery(ctx, app, tenantID, args[2], retrieval.QueryOptions{
			AgentID:             *agentID,
			MaxResults:          *topK,
			ConfidenceThreshold: float32(*threshold),
		})
	case "list":
		err = runList(ctx, app, tenantID)
	case "delete":
		if len(args) < 3 {
			flag.Usage()
			os.Exit(2)
		}
		err = runDelete(ctx, app, tenantID, args[2])
	case "clear":
		err = runClear(ctx, app, tenantID)
	case "stats":
		err = runStats(ctx, app, tenantID)
	case "chat":
		err = runChat(ctx, app, tenantID, *agentID)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", command)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Fatal("command failed", zap.String("command", command), zap.Error(err))
	}
}

// app holds the wired service and the handles that need closing.
type app struct {
	service *retrieval.Service
	parsers *parser.Registry
	broker  *pubsub.Broker[pubsub.KnowledgeEvent]
	cache   cache.Cache
	logger  *zap.Logger
}

// buildApp wires storage, cache, models, and the retrieval service.
func buildApp(ctx context.Context, logger *zap.Logger) (*app, error) {
	embedder, err := providers.CreateEmbeddingModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding model: %w", err)
	}

	chatModel, err := providers.CreateChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	blobs, err := blob.NewFSStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}

	var kv cache.Cache
	kv, err = cache.NewRedisCache(ctx, cache.DefaultRedisConfig())
	if err != nil {
		logger.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		kv = cache.NewMemoryCache()
	}

	chunks := store.NewChunkStore(blobs, kv, logger)
	documents := store.NewDocumentStore(blobs, kv, chunks, logger)

	embeddings := vector.NewEmbeddingService(
		embedder, kv, providers.EmbeddingModelName(), vector.GetEmbeddingDimFromEnv())

	broker := pubsub.NewBroker[pubsub.KnowledgeEvent]()

	service, err := retrieval.New(retrieval.Config{
		Documents:  documents,
		Chunks:     chunks,
		Embeddings: embeddings,
		Searcher:   vector.NewSearcher(chunks),
		ChatModel:  chatModel,
		Cache:      kv,
		Events:     broker,
		ChunkCfg:   vector.DefaultChunkConfig(),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		service: service,
		parsers: parser.DefaultRegistry(),
		broker:  broker,
		cache:   kv,
		logger:  logger,
	}, nil
}

func (a *app) Close() {
	a.broker.Shutdown()
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close cache", zap.Error(err))
	}
}

func runIngest(ctx context.Context, a *app, tenantID, filePath string, agentID int) error {
	doc, err := a.parsers.ParseFile(ctx, filePath)
	if err != nil {
		return err
	}

	docID, err := a.service.Ingest(ctx, tenantID, filepath.Base(filePath), doc.Content, agentID)
	if err != nil {
		return err
	}

	stored, _, err := a.service.GetDocument(ctx, tenantID, docID)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %s: document %s, %d chunks\n", filePath, docID, len(stored.ChunkIDs))
	return nil
}

func runQuery(ctx context.Context, a *app, tenantID, question string, opts retrieval.QueryOptions) error {
	result, err := a.service.Query(ctx, tenantID, question, opts)
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range result.Sources {
			fmt.Printf("  - %s (confidence: %.2f)\n", src.Source, src.Confidence)
		}
	}
	return nil
}

func runList(ctx context.Context, a *app, tenantID string) error {
	docs, err := a.service.ListDocuments(ctx, tenantID)
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%s  %s  %d chunks  %d bytes\n",
			doc.ID, doc.Filename, len(doc.ChunkIDs), doc.Metadata.Size)
	}
	return nil
}

func runDelete(ctx context.Context, a *app, tenantID, docID string) error {
	deleted, err := a.service.DeleteDocument(ctx, tenantID, docID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("no document with id %s", docID)
	}
	fmt.Printf("Deleted document %s\n", docID)
	return nil
}

func runClear(ctx context.Context, a *app, tenantID string) error {
	cleared, err := a.service.DeleteAllForTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if !cleared {
		fmt.Println("Nothing to clear.")
		return nil
	}
	fmt.Printf("Cleared all data for tenant %s\n", tenantID)
	return nil
}

func runChat(ctx context.Context, a *app, tenantID string, agentID int) error {
	runtime, err := agent.SetupRuntime(ctx, a.service, tenantID, agentID)
	if err != nil {
		return err
	}
	defer runtime.Close()

	events := runtime.Broker().Subscribe(ctx)
	go func() {
		for event := range events {
			msg := event.Payload
			switch {
			case msg.Role == schema.Assistant && msg.Content != "":
				fmt.Printf("\n%s\n\n", msg.Content)
			case event.Type == pubsub.MessageUpdatedEvent:
				fmt.Printf("  [%s]\n", msg.Content)
			}
		}
	}()

	fmt.Println("Knowledge assistant ready. Empty line exits.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		if err := runtime.Run(line); err != nil {
			a.logger.Error("assistant turn failed", zap.Error(err))
		}
	}
	return scanner.Err()
}

func runStats(ctx context.Context, a *app, tenantID string) error {
	stats, err := a.service.Stats(ctx, tenantID)
	if err != nil {
		return err
	}
	fmt.Printf("Documents: %d\nChunks:    %d\nContent:   %d bytes\n",
		stats.DocumentCount, stats.ChunkCount, stats.TotalContentSize)
	return nil
}
