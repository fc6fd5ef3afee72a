package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AzielCF/az-gym/core/config"
	domainCache "github.com/AzielCF/az-gym/domains/cache"
	domainImage "github.com/AzielCF/az-gym/domains/imagecache"
	domainKV "github.com/AzielCF/az-gym/domains/kvstore"
	domainSession "github.com/AzielCF/az-gym/domains/session"
	"github.com/AzielCF/az-gym/infrastructure/fetcher"
	"github.com/AzielCF/az-gym/infrastructure/filestore"
	"github.com/AzielCF/az-gym/infrastructure/kvstore"
	"github.com/AzielCF/az-gym/pkg/crypto"
	"github.com/AzielCF/az-gym/pkg/utils"
	"github.com/AzielCF/az-gym/usecase"
)

const drainTimeout = 5 * time.Second

// application wires the stores and services for one process.
type application struct {
	cfg        *config.Config
	store      domainKV.IKeyValueStore
	closeStore func() error

	cache  domainCache.ICacheUsecase
	images domainImage.IImageCacheUsecase
	auth   domainSession.IAuthStorage
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := utils.CreateFolder(cfg.Paths.Storages, cfg.Paths.Images); err != nil {
		return nil, err
	}

	store, closeStore, err := kvstore.NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	files, err := filestore.NewLocal(cfg.Paths.Images)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	download := fetcher.New(fetcher.Config{
		Timeout:     cfg.Images.DownloadTimeout,
		MaxBodySize: cfg.Images.MaxDownloadSize,
	})

	cipher, err := crypto.NewCipher(cfg.Auth.EncryptionKey)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	if cipher == nil {
		logrus.Warn("[APP] AUTH_ENCRYPTION_KEY is empty, auth tokens are stored in plain text")
	}

	identity := domainSession.StaticIdentity{
		TenantSlug: cfg.Identity.TenantSlug,
		UserID:     cfg.Identity.UserID,
	}

	return &application{
		cfg:        cfg,
		store:      store,
		closeStore: closeStore,
		cache:      usecase.NewCacheService(store, cfg.Cache, usecase.WithIdentity(identity)),
		images:     usecase.NewImageCacheService(store, files, download, cfg.Images),
		auth:       usecase.NewAuthStorage(store, cipher),
	}, nil
}

func (a *application) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := a.cache.Drain(ctx); err != nil {
		logrus.WithError(err).Warn("[APP] Background cache refreshes did not finish")
	}
	a.images.Stop()
	if err := a.closeStore(); err != nil {
		logrus.WithError(err).Error("[APP] Failed to close store")
	}
}
