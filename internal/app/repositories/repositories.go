package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/alumnet/internal/db"
)

// baseRepository resolves the connection for every query, so repositories
// join a transaction opened by db.TxManager when the context carries one.
type baseRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

func newBase(pool *pgxpool.Pool) baseRepository {
	return baseRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (b baseRepository) conn(ctx context.Context) db.DBTX {
	return db.Conn(ctx, b.pool)
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	VisitRepository        *VisitRepository
	PostRepository         *PostRepository
	NotificationRepository *NotificationRepository
	PointsConfigRepository *PointsConfigRepository
	RolloverRepository     *RolloverRepository
	TokenRepository        *TokenRepository
	OTPRepository          *OTPRepository
	EventRepository        *EventRepository
}

// NewRepositories initializes all repositories
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(pool),
		VisitRepository:        NewVisitRepository(pool),
		PostRepository:         NewPostRepository(pool),
		NotificationRepository: NewNotificationRepository(pool),
		PointsConfigRepository: NewPointsConfigRepository(pool),
		RolloverRepository:     NewRolloverRepository(pool),
		TokenRepository:        NewTokenRepository(pool),
		OTPRepository:          NewOTPRepository(pool),
		EventRepository:        NewEventRepository(pool),
	}
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
