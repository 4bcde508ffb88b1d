package main

import (
	"context"
	"fmt"

	"ucode/ucode_content_query_service/cache"
	"ucode/ucode_content_query_service/config"
	"ucode/ucode_content_query_service/pkg/logger"
	"ucode/ucode_content_query_service/pkg/metaquery"
	"ucode/ucode_content_query_service/pkg/taxquery"
	"ucode/ucode_content_query_service/query"
	"ucode/ucode_content_query_service/storage/postgres"
)

func main() {
	cfg := config.Load()

	var loggerLevel string
	switch cfg.Environment {
	case config.DebugMode:
		loggerLevel = logger.LevelDebug
	case config.TestMode:
		loggerLevel = logger.LevelDebug
	default:
		loggerLevel = logger.LevelInfo
	}

	log := logger.NewLogger(cfg.ServiceName, loggerLevel)
	defer func() {
		if err := logger.Cleanup(log); err != nil {
			return
		}
	}()

	if err := postgres.RunMigrations(cfg); err != nil {
		log.Panic("error while running migrations", logger.Error(err))
	}

	ctx := context.Background()

	store, err := postgres.NewPostgres(ctx, cfg, log)
	if err != nil {
		log.Panic("error while connecting to postgres", logger.Error(err))
	}
	defer store.CloseDB()

	objectCache := cache.NewMemory(cfg.ObjectCacheSize)

	q := query.New(query.Deps{
		Storage:             store,
		Cache:               objectCache,
		Site:                &query.StaticSite{},
		Tax:                 taxquery.NewBuilder(store.Pool()),
		Meta:                metaquery.NewBuilder(),
		Log:                 log,
		ExternalObjectCache: cfg.ExternalObjectCache,
	})

	if _, err := q.Run(ctx, query.Request{
		"post_type":      "post",
		"posts_per_page": 10,
	}); err != nil {
		log.Panic("error while running query", logger.Error(err))
	}

	log.Info("query resolved",
		logger.Int("post_count", q.PostCount),
		logger.Int64("found_posts", q.FoundPosts),
		logger.Int64("max_num_pages", q.MaxNumPages),
	)

	for q.HavePosts() {
		pc := q.ThePost(ctx)
		fmt.Printf("%d\t%s\t%s\n", pc.Post.ID, pc.Post.PostDate, pc.Post.PostTitle)
	}
}
