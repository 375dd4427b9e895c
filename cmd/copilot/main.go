package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/TryMightyAI/rampart/pkg/attack"
	"github.com/TryMightyAI/rampart/pkg/config"
	"github.com/TryMightyAI/rampart/pkg/correlate"
	"github.com/TryMightyAI/rampart/pkg/export"
	"github.com/TryMightyAI/rampart/pkg/intent"
	"github.com/TryMightyAI/rampart/pkg/patterns"
	"github.com/TryMightyAI/rampart/pkg/planner"
	"github.com/TryMightyAI/rampart/pkg/store"
)

const Version = "0.1.0"

// Core bundles the three reasoning components plus optional backends.
// All backends are optional and gracefully degrade if unavailable.
type Core struct {
	classifier *intent.Classifier
	correlator *correlate.Correlator
	worker     *correlate.Worker
	planner    *planner.Planner

	exporter *export.JSONLExporter
	archive  *store.PostgresStore

	cfg *config.Config
}

func NewCore(cfg *config.Config) *Core {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	cfg.MustValidate()

	core := &Core{cfg: cfg}
	ctx := context.Background()

	core.classifier = intent.NewClassifier(intent.LoadRuleSetOrDefault(cfg.IntentRulesPath))
	log.Printf("✓ Intent classifier ready (%d safety patterns loaded)", patterns.Get().TotalPatterns())

	// Chain registry: Redis when configured, else in-process.
	var repo correlate.ChainRepository
	if cfg.RedisURL != "" {
		redisRepo, err := correlate.NewRedisChainRepository(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("○ Redis chain registry disabled (%v), using in-memory registry", err)
		} else {
			repo = redisRepo
			log.Println("✓ Redis chain registry enabled")
		}
	} else {
		log.Println("○ Redis chain registry disabled (RAMPART_REDIS_URL not set)")
	}

	core.correlator = correlate.NewCorrelator(correlate.Config{
		CorrelationWindow: cfg.CorrelationWindow,
		ChainTimeout:      cfg.ChainTimeout,
	}, repo, nil)

	// Training-data export - optional
	if cfg.ExportPath != "" {
		exporter, err := export.NewJSONLExporter(cfg.ExportPath)
		if err != nil {
			log.Printf("○ Training export disabled (%v)", err)
		} else {
			core.exporter = exporter
			core.correlator.OnComplete(func(chain *attack.Chain) {
				if err := exporter.Export(chain); err != nil {
					log.Printf("[WARN] training export failed for %s: %v", chain.ID, err)
				}
			})
			log.Printf("✓ Training export enabled (%s)", cfg.ExportPath)
		}
	} else {
		log.Println("○ Training export disabled (RAMPART_EXPORT_PATH not set)")
	}

	// Postgres archive - optional
	if cfg.PostgresDSN != "" {
		archive, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Printf("○ Postgres archive disabled (%v)", err)
		} else {
			core.archive = archive
			core.correlator.OnComplete(func(chain *attack.Chain) {
				if err := archive.SaveChain(context.Background(), chain); err != nil {
					log.Printf("[WARN] chain archive failed for %s: %v", chain.ID, err)
				}
			})
			log.Println("✓ Postgres archive enabled")
		}
	} else {
		log.Println("○ Postgres archive disabled (RAMPART_POSTGRES_DSN not set)")
	}

	core.worker = correlate.NewWorker(core.correlator, cfg.IngestQueueSize)
	core.planner = planner.NewPlanner(cfg.KnownTools)

	return core
}

func (c *Core) Close() {
	c.worker.Close()
	if c.exporter != nil {
		c.exporter.Close()
	}
	if c.archive != nil {
		c.archive.Close()
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cfg := config.NewDefaultConfig()
		if len(os.Args) > 2 {
			cfg.ListenAddr = ":" + strings.TrimPrefix(os.Args[2], ":")
		}
		runHTTPServer(cfg)
	case "classify":
		if len(os.Args) < 3 {
			fmt.Println("Usage: rampart classify <text>")
			os.Exit(1)
		}
		runCLIClassify(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Printf("Rampart v%s\n", Version)
		fmt.Println("SOC Copilot Reasoning Core")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Rampart v%s - SOC Copilot Reasoning Core\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  rampart serve [port]     Start HTTP server (default: 8080)")
	fmt.Println("  rampart classify <text>  Classify an operator query")
	fmt.Println("  rampart version          Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  RAMPART_INTENT_RULES     Path to intent rule YAML (default: configs/intents.yaml)")
	fmt.Println("  RAMPART_REDIS_URL        Redis URL for a shared chain registry")
	fmt.Println("  RAMPART_POSTGRES_DSN     Postgres DSN for chain/decision archive")
	fmt.Println("  RAMPART_EXPORT_PATH      JSONL training-data export path")
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

func runHTTPServer(cfg *config.Config) {
	core := NewCore(cfg)
	defer core.Close()

	app := fiber.New(fiber.Config{
		AppName: "Rampart",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	// Classify an operator query.
	app.Post("/classify", func(c fiber.Ctx) error {
		var req struct {
			Query   string         `json:"query"`
			Context map[string]any `json:"context"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Query == "" {
			return c.Status(400).JSON(fiber.Map{"error": "query field is required"})
		}
		return c.JSON(core.classifier.Classify(req.Query, req.Context))
	})

	// Ingest a raw telemetry event. Returns the completed chain when
	// this event closed one, 202 otherwise.
	app.Post("/ingest", func(c fiber.Ctx) error {
		var raw map[string]any
		if err := c.Bind().Body(&raw); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		chain, err := core.correlator.Ingest(c.Context(), raw)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if chain != nil {
			return c.JSON(fiber.Map{"completed_chain": chain})
		}
		return c.Status(202).JSON(fiber.Map{"status": "correlated"})
	})

	// Async ingest for high-volume producers: enqueue and return.
	app.Post("/ingest/async", func(c fiber.Ctx) error {
		var raw map[string]any
		if err := c.Bind().Body(&raw); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if !core.worker.TryEnqueue(raw) {
			return c.Status(503).JSON(fiber.Map{"error": "ingest queue full"})
		}
		return c.Status(202).JSON(fiber.Map{"status": "queued"})
	})

	// Review a draft response against its triggering event.
	app.Post("/plan", func(c fiber.Ctx) error {
		var req struct {
			Event map[string]any `json:"event"`
			Draft map[string]any `json:"draft_response"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		artifact, decision := core.planner.Plan(req.Event, req.Draft)
		if core.archive != nil {
			if err := core.archive.SaveDecision(c.Context(), artifact, decision); err != nil {
				log.Printf("[WARN] decision archive failed for %s: %v", decision.ID, err)
			}
		}
		return c.JSON(fiber.Map{"artifact": artifact, "decision": decision})
	})

	// Active chains and ingest counters.
	app.Get("/stats", func(c fiber.Ctx) error {
		chains, err := core.correlator.ActiveChains(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"ingest":        core.correlator.Stats(),
			"active_chains": len(chains),
		})
	})

	// Force the idle sweep; returns chains it completed.
	app.Post("/sweep", func(c fiber.Ctx) error {
		completed, err := core.correlator.Sweep(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"completed": completed})
	})

	log.Printf("Rampart HTTP server starting on %s", cfg.ListenAddr)
	log.Printf("Endpoints:")
	log.Printf("  GET  /health        - Health check")
	log.Printf("  POST /classify      - Intent classification")
	log.Printf("  POST /ingest        - Synchronous event correlation")
	log.Printf("  POST /ingest/async  - Queued event correlation")
	log.Printf("  POST /plan          - Draft response safety review")
	log.Printf("  GET  /stats         - Ingest counters and active chains")
	log.Printf("  POST /sweep         - Force idle-chain sweep")

	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}

// ============================================================================
// CLI Mode
// ============================================================================

func runCLIClassify(text string) {
	cfg := config.NewDefaultConfig()
	classifier := intent.NewClassifier(intent.LoadRuleSetOrDefault(cfg.IntentRulesPath))

	start := time.Now()
	result := classifier.Classify(text, nil)
	elapsed := time.Since(start)

	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
	fmt.Printf("// classified in %s\n", elapsed)
}
