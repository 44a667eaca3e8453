package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/ssafy/baperang/backend/internal/aggregate"
	"github.com/ssafy/baperang/backend/internal/api"
	"github.com/ssafy/baperang/backend/internal/api/handlers"
	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/inventory"
	"github.com/ssafy/baperang/backend/internal/leftover"
	"github.com/ssafy/baperang/backend/internal/menu"
	"github.com/ssafy/baperang/backend/internal/query"
	"github.com/ssafy/baperang/backend/internal/roster"
	"github.com/ssafy/baperang/backend/internal/satisfaction"
	"github.com/ssafy/baperang/backend/internal/scheduler"
	"github.com/ssafy/baperang/backend/internal/scheduler/jobs"
	"github.com/ssafy/baperang/backend/internal/schoolconfig"
	"github.com/ssafy/baperang/backend/internal/tagging"
	"github.com/ssafy/baperang/backend/pkg/config"
	"github.com/ssafy/baperang/backend/pkg/database"
	"github.com/ssafy/baperang/backend/pkg/httputil"
	"github.com/ssafy/baperang/backend/pkg/logger"
	"github.com/ssafy/baperang/backend/pkg/redis"
)

// menuPageLimit keeps the menu importer polite toward the school meal page
var menuPageLimit = redis.RateLimitConfig{Key: "menu_import", Limit: 30, Window: time.Minute}

// app holds every wired component
// ⭐ SSOT: 컴포넌트 조립은 여기서만
type app struct {
	cfg *config.Config
	log *logger.Logger

	db      *database.DB          // nil with memory storage
	redis   *redis.Client         // no-op client when Redis is disabled
	profile *schoolconfig.Profile // nil without SCHOOL_PROFILE

	roster       *roster.Service
	ledger       *tagging.Ledger
	store        *leftover.Store
	catalog      *menu.Catalog
	importer     *menu.Importer // nil without MENU_IMPORT_URL
	engine       *aggregate.Engine
	facade       *query.Facade
	memCache     *query.MemoryCache // nil when Redis serves the cache
	hub          *satisfaction.Hub
	satisfaction *satisfaction.Service
	inventory    *inventory.Service
}

type repositories struct {
	roster       contracts.RosterRepository
	tags         contracts.TagRepository
	leftover     contracts.LeftoverRepository
	menus        contracts.MenuRepository
	satisfaction contracts.SatisfactionRepository
	inventory    contracts.InventoryRepository
}

// loadConfig loads config and applies global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp connects storage and wires the components together
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if err := a.loadProfile(); err != nil {
		return nil, err
	}

	repos, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a.roster = roster.NewService(repos.roster, log)
	a.ledger = tagging.NewLedger(repos.tags, repos.roster, cfg.School.MealSlots, log)
	a.store = leftover.NewStore(repos.leftover, log)
	a.catalog = menu.NewCatalog(repos.menus, log)
	a.engine = aggregate.NewEngine(a.roster, a.ledger, a.store, a.catalog, log)

	opts := query.Options{TTL: cfg.CacheTTL, SchoolName: cfg.School.Name, MealSlots: a.ledger.MealSlots()}
	if a.redis.Enabled() {
		cache := redis.NewCache(a.redis, "baperang")
		opts.Cache = cache
		opts.Versions = query.NewRedisVersions(cache)
	} else {
		a.memCache = query.NewMemoryCache()
		opts.Cache = a.memCache
	}
	a.facade = query.NewFacade(a.engine, a.roster, a.ledger, a.catalog, opts, log)

	// every write path invalidates the façade
	a.roster.Subscribe(a.facade)
	a.ledger.Subscribe(a.facade)
	a.store.Subscribe(a.facade)
	a.catalog.Subscribe(a.facade)

	if cfg.MenuImport.BaseURL != "" {
		client := httputil.New(log).
			WithRateLimiter(redis.NewRateLimiter(a.redis, "baperang"), menuPageLimit)
		a.importer = menu.NewImporter(client, a.catalog, cfg.MenuImport.BaseURL, log)
	}

	a.hub = satisfaction.NewHub(log)
	a.satisfaction = satisfaction.NewService(repos.satisfaction, a.catalog, a.hub, log)
	a.inventory = inventory.NewService(repos.inventory, log)

	log.WithFields(map[string]interface{}{
		"storage":     cfg.StorageDriver,
		"redis":       a.redis.Enabled(),
		"meal_slots":  cfg.School.MealSlots,
		"menu_import": a.importer != nil,
	}).Info("Components wired")

	return a, nil
}

// loadProfile applies school.yaml over the environment's school settings
func (a *app) loadProfile() error {
	if a.cfg.School.Profile == "" {
		return nil
	}

	profile, err := schoolconfig.Load(a.cfg.School.Profile)
	if err != nil {
		return fmt.Errorf("load school profile: %w", err)
	}
	a.profile = profile

	a.cfg.School.MealSlots = profile.SlotNames()
	if profile.School.Name != "" {
		a.cfg.School.Name = profile.School.Name
	}
	if profile.School.Timezone != "" {
		a.cfg.School.Timezone = profile.School.Timezone
	}

	hash, _ := schoolconfig.Hash(profile)
	a.log.WithFields(map[string]interface{}{
		"path": a.cfg.School.Profile,
		"hash": hash,
	}).Info("School profile loaded")
	return nil
}

func (a *app) openStorage(ctx context.Context) (*repositories, error) {
	if a.cfg.StorageDriver == config.StorageMemory {
		a.log.Warn("Using in-memory storage; data is lost on exit")
		return &repositories{
			roster:       roster.NewMemoryRepository(),
			tags:         tagging.NewMemoryRepository(),
			leftover:     leftover.NewMemoryRepository(),
			menus:        menu.NewMemoryRepository(),
			satisfaction: satisfaction.NewMemoryRepository(),
			inventory:    inventory.NewMemoryRepository(),
		}, nil
	}

	db, err := database.New(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.db = db
	a.log.Info("Connected to database")

	return &repositories{
		roster:       roster.NewRepository(db.Pool),
		tags:         tagging.NewRepository(db.Pool),
		leftover:     leftover.NewRepository(db),
		menus:        menu.NewRepository(db.Pool),
		satisfaction: satisfaction.NewRepository(db.Pool),
		inventory:    inventory.NewRepository(db.Pool),
	}, nil
}

// httpHandlers builds the endpoint handlers
func (a *app) httpHandlers() api.Handlers {
	clock := handlers.Clock{Location: a.cfg.School.Location()}

	nfc := handlers.NewNFCHandler(a.ledger, a.facade, clock, a.cfg.NFCReaderRPS, a.cfg.NFCReaderBurst, a.log)
	if a.profile != nil {
		nfc.WithSlotResolver(a.profile)
	}

	return api.Handlers{
		Students:     handlers.NewStudentHandler(a.roster, a.facade, clock, a.log),
		Menu:         handlers.NewMenuHandler(a.catalog, a.facade, clock, a.log),
		NFC:          nfc,
		Leftover:     handlers.NewLeftoverHandler(a.store, a.facade, clock, a.log),
		Satisfaction: handlers.NewSatisfactionHandler(a.satisfaction, a.hub, a.log),
		Inventory:    handlers.NewInventoryHandler(a.inventory, clock, a.log),
	}
}

// scheduler registers the background jobs
func (a *app) scheduler() (*scheduler.Scheduler, error) {
	loc := a.cfg.School.Location()
	sched := scheduler.New(a.log, scheduler.WithLocation(loc))

	if err := sched.AddJob(jobs.NewAggregateWarmupJob(a.facade, loc, a.log)); err != nil {
		return nil, err
	}
	if a.memCache != nil {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(a.memCache, a.log)); err != nil {
			return nil, err
		}
	}
	if a.cfg.MenuImport.Enabled && a.importer != nil {
		if err := sched.AddJob(jobs.NewMenuImportJob(a.importer, a.cfg.MenuImport.Schedule, loc, a.log)); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

// Close releases storage connections
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
