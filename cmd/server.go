package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"intern-hub/internal/api"
	"intern-hub/internal/apply"
	"intern-hub/internal/follow"
	"intern-hub/internal/importer"
	"intern-hub/internal/notifier"
	"intern-hub/internal/recommend"
	"intern-hub/internal/scheduler"
	"intern-hub/internal/search"
	"intern-hub/internal/storage"
	"intern-hub/internal/tagger"
)

// AppConfig 应用配置。
type AppConfig struct {
	Server    ServerConfig         `yaml:"server"`
	Database  DatabaseConfig       `yaml:"database"`
	Search    search.Config        `yaml:"search"`
	Importer  importer.Config      `yaml:"importer"`
	Tagger    tagger.Config        `yaml:"tagger"`
	Recommend recommend.Config     `yaml:"recommend"`
	Email     notifier.EmailConfig `yaml:"email"`
	Scheduler scheduler.Config     `yaml:"scheduler"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// schedulerRunner 抽象调度器，便于 -once 路径测试替换。
type schedulerRunner interface {
	RunOnce(ctx context.Context) (int, error)
	Start(ctx context.Context) error
}

// appDeps 汇总运行期依赖。
type appDeps struct {
	store   *storage.Store
	sched   schedulerRunner
	handler http.Handler
}

func main() {
	once := flag.Bool("once", false, "run one import cycle and exit")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Printf("load config error: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		created, err := runOnceManual(ctx, cfg, buildDeps)
		if err != nil {
			log.Printf("manual run error: %v", err)
			return
		}
		log.Printf("manual run done, %d internships published", created)
		return
	}

	deps, cleanup, err := buildDeps(cfg)
	if err != nil {
		log.Printf("init error: %v", err)
		return
	}
	defer cleanup()

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{Addr: addr, Handler: deps.handler}

	if deps.sched != nil {
		go func() {
			if err := deps.sched.Start(ctx); err != nil && err != context.Canceled {
				log.Printf("scheduler stopped: %v", err)
			}
		}()
	}

	log.Printf("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// buildDeps 按配置装配存储、服务与调度器。
func buildDeps(cfg AppConfig) (appDeps, func(), error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = "internhub.db"
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return appDeps{}, func() {}, fmt.Errorf("init store: %w", err)
	}
	cleanup := func() {
		_ = store.Close()
	}

	searchSvc := search.NewService(store, cfg.Search, nil)
	followSvc := follow.NewService(store)
	applySvc := apply.NewService(store)

	llmEnabled := strings.TrimSpace(cfg.Tagger.Chat.APIKey) != ""
	var recommender api.Recommender
	if llmEnabled {
		chat := tagger.NewChatClient(cfg.Tagger.Chat, nil)
		recommender = recommend.NewService(store, chat, cfg.Recommend)
	} else {
		log.Printf("recommendations disabled: missing chat api key")
	}

	var sched schedulerRunner
	if strings.TrimSpace(cfg.Importer.BaseURL) != "" && llmEnabled {
		client := &http.Client{Timeout: 15 * time.Second}
		fetch := importer.NewBoardImporter(cfg.Importer, client)
		chat := tagger.NewChatClient(cfg.Tagger.Chat, nil)
		tag := tagger.New(cfg.Tagger, chat)
		notif := buildNotifier(cfg.Email, store)
		sched = scheduler.NewScheduler(fetch, store, tag, notif, cfg.Scheduler)
	} else {
		log.Printf("import disabled: missing importer base_url or chat api key")
	}

	deps := appDeps{
		store: store,
		sched: sched,
		handler: api.NewHandler(api.Deps{
			Search:    searchSvc,
			Follows:   followSvc,
			Apps:      applySvc,
			Recommend: recommender,
			Topics:    store,
			Refresh:   refresherOrNil(sched),
			Identity:  store,
		}),
	}
	return deps, cleanup, nil
}

// runOnceManual 构建依赖并执行一次导入，供 -once 与测试使用。
func runOnceManual(ctx context.Context, cfg AppConfig, build func(AppConfig) (appDeps, func(), error)) (int, error) {
	deps, cleanup, err := build(cfg)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	if deps.sched == nil {
		return 0, fmt.Errorf("import disabled: scheduler not configured")
	}
	return deps.sched.RunOnce(ctx)
}

func loadConfig() (AppConfig, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func buildNotifier(cfg notifier.EmailConfig, store *storage.Store) scheduler.Notifier {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		log.Printf("email notifier disabled: missing host/port/from, falling back to log")
		return notifier.NewLogNotifier(nil)
	}
	return notifier.NewFollowerNotifier(store, cfg, nil, notifier.NewLogNotifier(nil))
}

// refresherOrNil 避免把带类型的 nil 塞进接口字段。
func refresherOrNil(sched schedulerRunner) api.Refresher {
	if sched == nil {
		return nil
	}
	return sched
}
