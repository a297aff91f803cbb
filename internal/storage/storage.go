package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/hot-promos/internal/domain"
)

// Package storage provides the append-only log of promos already seen.

// Store is the persistence gateway used by the pipeline. Implementations must be safe for
// concurrent use; Put never overwrites an existing record.
type Store interface {
	ScanAll(ctx context.Context) ([]domain.Promo, error)
	Put(ctx context.Context, p domain.Promo) error
	Close() error
}

// Supported backend types.
const (
	TypeMemory   = "memory"
	TypeBBolt    = "bbolt"
	TypeDynamoDB = "dynamodb"
	TypePostgres = "postgres"
	TypeRedis    = "redis"
)

// ErrIncompleteRecord is returned when a promo without id or link reaches Put.
var ErrIncompleteRecord = errors.New("promo record requires id and link")

// Options carries backend specific settings.
type Options struct {
	Table string

	BBoltPath string

	AWSRegion          string
	DynamoDBEndpoint   string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

const defaultTable = "promo_bot_mx_promos"

// NewStore creates the configured storage backend.
func NewStore(ctx context.Context, typ string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	if strings.TrimSpace(opts.Table) == "" {
		opts.Table = defaultTable
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch typ {
	case "":
		return nil, fmt.Errorf("storage type is required")
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypeBBolt:
		if strings.TrimSpace(opts.BBoltPath) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(opts.BBoltPath, opts.Table)
	case TypeDynamoDB:
		return openDynamo(ctx, opts)
	case TypePostgres:
		if strings.TrimSpace(opts.PostgresDSN) == "" {
			return nil, fmt.Errorf("postgres storage requires a dsn")
		}
		return openPostgres(ctx, opts.PostgresDSN, opts.Table)
	case TypeRedis:
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, fmt.Errorf("redis storage requires an address")
		}
		return openRedis(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func checkPutable(p domain.Promo) error {
	if strings.TrimSpace(p.ID) == "" || !p.Complete() {
		return fmt.Errorf("%w (id=%q)", ErrIncompleteRecord, p.ID)
	}
	return nil
}
