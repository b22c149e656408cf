package database

import (
	"context"
	"fmt"
	"time"

	"pisos_storefront/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Connections groups the clients the server keeps for its lifetime.
type Connections struct {
	Redis *redis.Client
	MinIO *minio.Client
}

// Connect opens Redis (required) and MinIO (optional: without an endpoint
// image uploads are disabled).
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("redis connected", zap.String("addr", cfg.RedisAddr))

	conns := &Connections{Redis: rdb}

	if cfg.MinioEndpoint == "" {
		log.Warn("MINIO_ENDPOINT not set, product image uploads disabled")
		return conns, nil
	}
	mc, err := connectMinIO(ctx, cfg)
	if err != nil {
		rdb.Close()
		return nil, err
	}
	conns.MinIO = mc
	log.Info("minio connected", zap.String("endpoint", cfg.MinioEndpoint), zap.String("bucket", cfg.MinioBucket))

	return conns, nil
}

func (c *Connections) Close() error {
	if c.Redis != nil {
		return c.Redis.Close()
	}
	return nil
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return rdb, nil
}

func connectMinIO(ctx context.Context, cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket %s: %w", cfg.MinioBucket, err)
		}
	}
	return client, nil
}
