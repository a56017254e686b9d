package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/ads-console/internal/agent"
	"github.com/ignite/ads-console/internal/api"
	"github.com/ignite/ads-console/internal/auth"
	"github.com/ignite/ads-console/internal/config"
	"github.com/ignite/ads-console/internal/dataforseo"
	"github.com/ignite/ads-console/internal/googleads"
	"github.com/ignite/ads-console/internal/keywords"
	"github.com/ignite/ads-console/internal/landing"
	"github.com/ignite/ads-console/internal/metrics"
	"github.com/ignite/ads-console/internal/moz"
	"github.com/ignite/ads-console/internal/pkg/distlock"
	"github.com/ignite/ads-console/internal/rules"
	"github.com/ignite/ads-console/internal/serp"
	"github.com/ignite/ads-console/internal/storage"
	"github.com/ignite/ads-console/internal/worker"
)

func main() {
	log.Println("[server] ads-console starting")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("[server] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[server] invalid config: %v", err)
	}

	store, err := storage.Open(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		log.Fatalf("[server] connect postgres: %v", err)
	}
	defer store.Close()
	log.Println("[server] connected to postgres")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("[server] redis unavailable, continuing without cache: %v", err)
			redisClient = nil
		} else {
			log.Printf("[server] connected to redis at %s", cfg.Redis.Addr)
		}
	}

	adsClient := googleads.NewClient(cfg.GoogleAds)

	metricsSvc := metrics.NewService(store, adsClient, redisClient,
		time.Duration(cfg.Metrics.FreshnessHours)*time.Hour,
		time.Duration(cfg.Metrics.RedisTTLSeconds)*time.Second)

	handlers := api.NewHandlers(store, adsClient, metricsSvc)

	// SERP difficulty needs both vendors; each degrades gracefully when
	// unconfigured.
	mozClient := moz.NewClient(cfg.Moz)
	serpClient := dataforseo.NewClient(cfg.DataForSEO)
	serpAnalyzer := serp.NewAnalyzer(serpClient, mozClient)
	handlers.SetSERPAnalyzer(serpAnalyzer)
	handlers.SetKeywordFactory(keywords.NewFactory(adsClient, serpAnalyzer))
	handlers.SetLandingAnalyzer(landing.NewAnalyzer())

	assistant, err := buildAssistant(ctx, cfg, store)
	if err != nil {
		log.Fatalf("[server] assistant: %v", err)
	}
	handlers.SetAssistant(assistant)

	ruleEngine := rules.NewEngine(store, adsClient,
		distlock.NewLock(redisClient, store.DB(), "ads-console:rules", 2*time.Minute),
		time.Duration(cfg.Rules.TickIntervalSeconds)*time.Second)
	handlers.SetRuleEngine(ruleEngine)
	if cfg.Rules.Enabled {
		ruleEngine.Start(ctx)
		defer ruleEngine.Stop()
	}

	if cfg.Sync.Enabled {
		scheduler := worker.NewScheduler(store,
			distlock.NewLock(redisClient, store.DB(), "ads-console:scheduler", 2*time.Minute),
			cfg.Sync)
		scheduler.Start(ctx)
		defer scheduler.Stop()

		syncWorker := worker.NewSyncWorker(store, adsClient, cfg.Sync)
		syncWorker.Start(ctx)
		defer syncWorker.Stop()
	}

	var authManager *auth.Manager
	if cfg.Auth.Enabled || cfg.Auth.GoogleClientID != "" {
		authManager = auth.NewManager(cfg.Auth, cfg.Auth.BaseURL)
	}

	server := api.NewServer(cfg.Server, handlers, authManager)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", addr)
		errCh <- server.ListenAndServe(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("[server] received %s, shutting down", sig)
	case err := <-errCh:
		log.Printf("[server] server stopped: %v", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
	log.Println("[server] goodbye")
}

// buildAssistant picks the chat provider from config. The heuristic
// provider keeps the assistant usable with no model credentials at all.
func buildAssistant(ctx context.Context, cfg *config.Config, store *storage.Store) (*agent.Assistant, error) {
	var provider agent.Provider
	switch cfg.Assistant.Provider {
	case "anthropic":
		if cfg.Assistant.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("assistant provider anthropic needs an API key")
		}
		provider = agent.NewAnthropicProvider(cfg.Assistant.AnthropicAPIKey,
			cfg.Assistant.AnthropicModel, cfg.Assistant.MaxTokens)
	case "bedrock":
		p, err := agent.NewBedrockProvider(ctx, cfg.Assistant.BedrockRegion,
			cfg.Assistant.BedrockModelID, cfg.Assistant.MaxTokens)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		provider = agent.NewHeuristicProvider()
	}
	log.Printf("[server] assistant provider: %s", provider.Name())

	var knowledge *agent.KnowledgeStore
	if cfg.Assistant.KnowledgeBucket != "" {
		ks, err := agent.NewKnowledgeStore(ctx, cfg.Assistant.BedrockRegion,
			cfg.Assistant.KnowledgeBucket, cfg.Assistant.KnowledgePrefix)
		if err != nil {
			return nil, err
		}
		knowledge = ks
	}
	return agent.NewAssistant(store, provider, knowledge, cfg.Assistant.MaxToolRounds), nil
}
