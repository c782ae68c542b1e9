package services

import (
	"context"
	"errors"
	"time"

	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/domain/content"
	"github.com/yigit/alumnet/internal/domain/points"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/metrics"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher pushes realtime events to connected clients.
type Publisher interface {
	SendToUser(userID int64, event string, data interface{})
	Broadcast(event string, data interface{})
}

// UserStore is the persistence surface for users.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetMainAdmin(ctx context.Context) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id int64) error
	Find(ctx context.Context, q models.UserQuery) ([]*models.User, error)
	ListIDs(ctx context.Context, q models.UserQuery) ([]int64, error)
}

// VisitStore remembers each visitor's last profile view.
type VisitStore interface {
	LastVisit(ctx context.Context, profileID, visitorID int64) (*time.Time, error)
	Touch(ctx context.Context, profileID, visitorID int64, at time.Time) error
}

// PostStore is the persistence surface for post aggregates.
type PostStore interface {
	Create(ctx context.Context, p *content.Post) error
	GetByID(ctx context.Context, id int64) (*content.Post, error)
	Update(ctx context.Context, p *content.Post) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	List(ctx context.Context, authorID int64, offset uint64, limit int) ([]*content.Post, int64, error)
	ListAllByUser(ctx context.Context, userID int64) ([]*content.Post, error)
	ListInvolving(ctx context.Context, userID int64) ([]*content.Post, error)
}

// NotificationStore persists notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	ListForReceiver(ctx context.Context, receiverID int64, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, receiverID int64) (int64, error)
}

// PointsConfigStore holds the points configuration singleton.
type PointsConfigStore interface {
	Get(ctx context.Context) (*models.PointsConfig, error)
	Save(ctx context.Context, c *models.PointsConfig) error
	CreateIfMissing(ctx context.Context, c *models.PointsConfig) error
}

// RolloverStore holds the per-year rollover windows.
type RolloverStore interface {
	GetByYear(ctx context.Context, year int) (*points.RolloverWindow, error)
	Upsert(ctx context.Context, w *points.RolloverWindow) error
	MarkExecuted(ctx context.Context, year int, at time.Time) (bool, error)
}

// TokenStore keeps refresh tokens.
type TokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetUserIDByToken(ctx context.Context, token string, now time.Time) (int64, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
	CleanupExpiredTokens(ctx context.Context, now time.Time, retention time.Duration) (int64, error)
}

// OTPStore keeps hashed password reset codes.
type OTPStore interface {
	Create(ctx context.Context, otp *models.PasswordResetOTP) error
	GetLatestActive(ctx context.Context, userID int64, now time.Time) (*models.PasswordResetOTP, error)
	MarkUsed(ctx context.Context, id int64) error
}

// EventStore persists alumni events.
type EventStore interface {
	Create(ctx context.Context, e *models.Event) error
	List(ctx context.Context, from *time.Time) ([]*models.Event, error)
}

// MediaRemover deletes stored media objects.
type MediaRemover interface {
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) string
}

// maxWriteAttempts bounds the optimistic read-modify-write retries.
const maxWriteAttempts = 3

// withRetry runs fn in a transaction, retrying the whole read-modify-write
// when a versioned write lost a race.
func withRetry(ctx context.Context, tx Transactor, m *metrics.Metrics, entity string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err = tx.WithinTransaction(ctx, fn)
		if !errors.Is(err, apperrors.ErrVersionConflict) {
			return err
		}
		m.Retry(entity)
	}
	return err
}

func goAsync(fn func()) {
	go fn()
}

// authorSummaries loads display identities for the given user ids.
func authorSummaries(ctx context.Context, users UserStore, ids []int64) (map[int64]dto.UserSummary, error) {
	out := make(map[int64]dto.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := users.Find(ctx, models.UserQuery{IDs: ids})
	if err != nil {
		return nil, err
	}
	for _, u := range list {
		out[u.ID] = dto.NewUserSummary(u)
	}
	return out, nil
}
