package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Roll1ngo/Last-item-bot/internal/auth"
	"github.com/Roll1ngo/Last-item-bot/internal/config"
	"github.com/Roll1ngo/Last-item-bot/internal/logger"
	"github.com/Roll1ngo/Last-item-bot/internal/marketplace"
	"github.com/Roll1ngo/Last-item-bot/internal/models"
	"github.com/Roll1ngo/Last-item-bot/internal/pricing"
	"github.com/Roll1ngo/Last-item-bot/internal/storage"
	"github.com/Roll1ngo/Last-item-bot/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	// Credentials live in .env during development; a missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	engine, err := buildEngine(cfg.Pricing)
	if err != nil {
		logger.Fatalf("Failed to build pricing engine: %v", err)
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		logger.Fatalf("Failed to open parameter cache: %v", err)
	}
	defer store.Close()

	tokens := auth.NewTokenManager(cfg.Auth, cfg.Marketplace)
	client := marketplace.NewClient(cfg.Marketplace, tokens)

	var notifier *telegram.Client
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, 3, time.Second)
		if err != nil {
			logger.Fatalf("Failed to initialize Telegram client: %v", err)
		}
		logger.Infof("Telegram notifications enabled")
	}

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Infof("Shutdown signal received, finishing current cycle")
		cancel()
	}()

	go tokens.StartRefreshLoop(ctx, cfg.Auth.RefreshInterval)

	bot := &bot{
		cfg:      cfg,
		engine:   engine,
		store:    store,
		client:   client,
		notifier: notifier,
	}

	logger.Infof("Starting repricing service (interval: %v, workers: %d, seller: %s)",
		cfg.Run.Interval, cfg.Run.Workers, cfg.Marketplace.SellerID)

	ticker := time.NewTicker(cfg.Run.Interval)
	defer ticker.Stop()

	bot.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Infof("Service stopped")
			return
		case <-ticker.C:
			bot.runCycle(ctx)
		}
	}
}

// buildEngine converts the file-level pricing configuration into the
// decimal-based engine configuration.
func buildEngine(cfg config.PricingConfig) (*pricing.Engine, error) {
	categories := make([]models.PricingCategory, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		categories = append(categories, models.PricingCategory{
			Name:   c.Name,
			Symbol: c.Symbol,
			Floor:  decimal.NewFromFloat(c.Floor),
		})
	}
	set, err := models.NewCategorySet(categories)
	if err != nil {
		return nil, err
	}

	return pricing.NewEngine(pricing.Config{
		OwnerUsername:          cfg.OwnerUsername,
		Categories:             set,
		IgnoreWords:            cfg.IgnoreWords,
		IgnoreCompetitorsTop:   cfg.IgnoreCompetitorsTop,
		IgnoreCompetitorsOther: cfg.IgnoreCompetitorsOther,
		ThresholdPrice:         decimal.NewFromFloat(cfg.ThresholdPrice),
		UndercutBelowPct:       decimal.NewFromFloat(cfg.UndercutBelowPercent),
		UndercutAbovePct:       decimal.NewFromFloat(cfg.UndercutAbovePercent),
		PullCeiling:            decimal.NewFromFloat(cfg.PullCeiling),
		PullMarginPct:          decimal.NewFromFloat(cfg.PullMarginPercent),
		PullMinGapPct:          decimal.NewFromFloat(cfg.PullMinGapPercent),
		PullMaxGapPct:          decimal.NewFromFloat(cfg.PullMaxGapPercent),
		OverLimitPosition:      cfg.OverLimitPosition,
		UnderLimitPosition:     cfg.UnderLimitPosition,
		NonPopularDiscountPct:  decimal.NewFromFloat(cfg.NonPopularDiscountPercent),
		MinOrderValue:          decimal.NewFromFloat(cfg.MinOrderValue),
	})
}

type bot struct {
	cfg      *config.Config
	engine   *pricing.Engine
	store    *storage.Store
	client   *marketplace.Client
	notifier *telegram.Client
}

type cycleCounters struct {
	mu        sync.Mutex
	repriced  int
	escalated int
	noChange  int
	errors    int
}

// runCycle reprices every listing of the seller once, fanning the work out
// to a bounded worker pool.
func (b *bot) runCycle(ctx context.Context) {
	runID := uuid.NewString()[:8]
	started := time.Now()
	logger.Infof("[run %s] starting repricing cycle", runID)

	offers, err := b.client.ListSellerOffers(ctx, b.cfg.Marketplace.SellerID)
	if err != nil {
		logger.Errorf("[run %s] failed to list seller offers: %v", runID, err)
		if b.notifier != nil {
			if nerr := b.notifier.SendError("Listing seller offers failed", err); nerr != nil {
				logger.Errorf("[run %s] failed to send error notification: %v", runID, nerr)
			}
		}
		return
	}

	counters := &cycleCounters{}
	jobs := make(chan models.OwnerOffer)
	var wg sync.WaitGroup
	for i := 0; i < b.cfg.Run.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for offer := range jobs {
				b.processOffer(ctx, runID, offer, counters)
			}
		}()
	}

feed:
	for _, offer := range offers {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- offer:
		}
	}
	close(jobs)
	wg.Wait()

	report := models.CycleReport{
		RunID:       runID,
		StartedAt:   started,
		Duration:    time.Since(started),
		TotalOffers: len(offers),
		Repriced:    counters.repriced,
		Escalated:   counters.escalated,
		NoChange:    counters.noChange,
		Errors:      counters.errors,
	}
	logger.Infof("[run %s] cycle finished in %v: %d offers, %d repriced, %d escalated, %d unchanged, %d errors",
		runID, report.Duration.Round(time.Millisecond), report.TotalOffers,
		report.Repriced, report.Escalated, report.NoChange, report.Errors)

	if b.notifier != nil {
		if err := b.notifier.SendReport(report); err != nil {
			logger.Errorf("[run %s] failed to send cycle report: %v", runID, err)
		}
	}
}

// processOffer runs the full per-offer pipeline: search parameters from
// cache or API, competitor search with staleness recovery, the pricing
// decision, and the listing update.
func (b *bot) processOffer(ctx context.Context, runID string, offer models.OwnerOffer, counters *cycleCounters) {
	info, err := b.engine.ParseTitle(offer.Title)
	if err != nil {
		logger.Warnf("[run %s][%s] skipping offer: %v", runID, offer.OfferID, err)
		counters.add(func(c *cycleCounters) { c.errors++ })
		return
	}

	results, err := b.searchWithFreshParams(ctx, offer.OfferID, info.ShortTitle)
	if err != nil {
		logger.Errorf("[run %s][%s] competitor lookup failed: %v", runID, offer.OfferID, err)
		counters.add(func(c *cycleCounters) { c.errors++ })
		return
	}

	out, err := b.engine.Reprice(offer, results)
	if err != nil {
		logger.Warnf("[run %s][%s] no decision: %v", runID, offer.OfferID, err)
		counters.add(func(c *cycleCounters) { c.errors++ })
		return
	}

	update := marketplace.UpdateRequest{}
	if out.NewTitle != "" {
		update.Title = out.NewTitle
		counters.add(func(c *cycleCounters) { c.escalated++ })
	}
	switch out.Decision.Kind {
	case models.DecisionNewPrice:
		price := out.Decision.Price
		update.UnitPrice = &price
		update.MinPurchaseQty = out.NewMinPurchaseQty
		counters.add(func(c *cycleCounters) { c.repriced++ })
	case models.DecisionNoChange:
		logger.Debugf("[run %s][%s] %s", runID, offer.OfferID, out.Decision.Reason)
		counters.add(func(c *cycleCounters) { c.noChange++ })
	case models.DecisionError:
		logger.Errorf("[run %s][%s] %s", runID, offer.OfferID, out.Decision.Reason)
		counters.add(func(c *cycleCounters) { c.errors++ })
		return
	}

	if update.Title == "" && update.UnitPrice == nil {
		return
	}
	if err := b.client.UpdateOffer(ctx, offer.OfferID, update); err != nil {
		logger.Errorf("[run %s][%s] failed to push update: %v", runID, offer.OfferID, err)
		counters.add(func(c *cycleCounters) { c.errors++ })
		return
	}
	logger.Infof("[run %s][%s] updated: price=%v title=%q min_qty=%d",
		runID, offer.OfferID, update.UnitPrice, update.Title, update.MinPurchaseQty)
}

// searchWithFreshParams resolves search parameters cache-first and falls
// back to the API. When the owner's offer is absent from the results the
// cached parameters are considered stale: they are refetched and the search
// repeated once.
func (b *bot) searchWithFreshParams(ctx context.Context, offerID, shortTitle string) ([]models.SearchResult, error) {
	params, cached, err := b.store.GetParams(ctx, offerID)
	if err != nil {
		logger.Warnf("[%s] parameter cache read failed: %v", offerID, err)
		cached = false
	}
	if !cached {
		if params, err = b.refetchParams(ctx, offerID); err != nil {
			return nil, err
		}
	}

	results, err := b.client.SearchCompetitors(ctx, params, shortTitle)
	if err != nil {
		return nil, err
	}
	if !cached || containsOffer(results, offerID) {
		return results, nil
	}

	logger.Warnf("[%s] cached search parameters look stale, refetching", offerID)
	if params, err = b.refetchParams(ctx, offerID); err != nil {
		return nil, err
	}
	return b.client.SearchCompetitors(ctx, params, shortTitle)
}

func (b *bot) refetchParams(ctx context.Context, offerID string) (models.OfferParams, error) {
	params, err := b.client.FetchOfferParams(ctx, offerID)
	if err != nil {
		return models.OfferParams{}, err
	}
	if err := b.store.PutParams(ctx, params); err != nil {
		logger.Warnf("[%s] failed to cache search parameters: %v", offerID, err)
	}
	return params, nil
}

func containsOffer(results []models.SearchResult, offerID string) bool {
	for _, r := range results {
		if r.OfferID == offerID {
			return true
		}
	}
	return false
}

func (c *cycleCounters) add(mutate func(*cycleCounters)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mutate(c)
}
