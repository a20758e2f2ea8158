package internal

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/rhizo"
	"go.uber.org/zap"
)

// OpenPostgresPool connects to the sink database. With UseIAMAuth the DSN
// password is replaced by a DSQL auth token generated from the default AWS
// credential chain.
func OpenPostgresPool(ctx context.Context, cfg rhizo.PostgresConfig) (*pgxpool.Pool, error) {
	if err := ValidatePostgresConfig(cfg); err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	if cfg.UseIAMAuth {
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		endpoint := net.JoinHostPort(poolCfg.ConnConfig.Host, strconv.Itoa(int(poolCfg.ConnConfig.Port)))
		token, err := auth.GenerateDbConnectAuthToken(ctx, endpoint, cfg.Region, awsCfg.Credentials)
		if err != nil {
			return nil, fmt.Errorf("generate dsql auth token: %w", err)
		}
		poolCfg.ConnConfig.Password = token
		zap.S().Infow("generated IAM auth token for postgres connection (dsql)", "endpoint", endpoint)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	if err := PostgresHealthCheck(ctx, pool, 10*time.Second); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
