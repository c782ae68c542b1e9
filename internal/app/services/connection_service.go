package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/domain/graph"
	"github.com/yigit/alumnet/internal/domain/points"
	"github.com/yigit/alumnet/internal/pkg/metrics"
)

const (
	// SuggestionGroupSize caps each suggestion group.
	SuggestionGroupSize = 6
	// SearchLimit caps user search results.
	SearchLimit = 50
)

// ConnectionService defines the interface for social graph operations
type ConnectionService interface {
	SendRequest(ctx context.Context, fromID, toID int64) error
	Accept(ctx context.Context, fromID, toID int64) error
	Reject(ctx context.Context, fromID, toID int64) error
	Cancel(ctx context.Context, fromID, toID int64) error
	ListConnections(ctx context.Context, userID, viewerID int64) ([]dto.ConnectionUser, error)
	Pending(ctx context.Context, userID int64) ([]dto.ConnectionUser, error)
	Sent(ctx context.Context, userID int64) ([]dto.ConnectionUser, error)
	Suggestions(ctx context.Context, userID int64) (*dto.SuggestionsResponse, error)
	Search(ctx context.Context, userID int64, query string) ([]dto.ConnectionUser, error)
}

type connectionServiceImpl struct {
	users         UserStore
	tx            Transactor
	points        PointsService
	notifications NotificationService
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// NewConnectionService creates a new ConnectionService
func NewConnectionService(
	users UserStore,
	tx Transactor,
	pointsSvc PointsService,
	notifications NotificationService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) ConnectionService {
	return &connectionServiceImpl{
		users:         users,
		tx:            tx,
		points:        pointsSvc,
		notifications: notifications,
		metrics:       m,
		logger:        logger,
	}
}

// transition loads both users, applies fn to their relations and writes
// both records in one transaction.
func (s *connectionServiceImpl) transition(ctx context.Context, fromID, toID int64, fn func(from, to *models.User) error) (from, to *models.User, err error) {
	err = withRetry(ctx, s.tx, s.metrics, "user", func(ctx context.Context) error {
		var err error
		if from, err = s.users.GetByID(ctx, fromID); err != nil {
			return err
		}
		if to, err = s.users.GetByID(ctx, toID); err != nil {
			return err
		}
		if err := fn(from, to); err != nil {
			return err
		}
		if err := s.users.Update(ctx, from); err != nil {
			return err
		}
		return s.users.Update(ctx, to)
	})
	return from, to, err
}

// SendRequest records a pending request from fromID to toID and notifies the target.
func (s *connectionServiceImpl) SendRequest(ctx context.Context, fromID, toID int64) error {
	from, _, err := s.transition(ctx, fromID, toID, func(from, to *models.User) error {
		return graph.Request(&from.Relations, from.ID, &to.Relations, to.ID)
	})
	if err != nil {
		return err
	}

	s.notifications.Notify(ctx, NotificationInput{
		SenderID:   fromID,
		ReceiverID: toID,
		Type:       models.NotificationConnectRequest,
		Message:    fmt.Sprintf("%s sent you a connection request", from.Name),
	})
	s.logger.Info().Int64("from", fromID).Int64("to", toID).Msg("Connection request sent")
	return nil
}

// Accept is toID accepting the request fromID sent. Each alumni side earns
// the connection reward.
func (s *connectionServiceImpl) Accept(ctx context.Context, fromID, toID int64) error {
	cfg, err := s.points.GetConfig(ctx)
	if err != nil {
		return err
	}
	rules := cfg.Rules()

	var changed bool
	var granted map[int64]int
	_, to, err := s.transition(ctx, fromID, toID, func(from, to *models.User) error {
		granted = map[int64]int{}
		ok, err := graph.Accept(&from.Relations, from.ID, &to.Relations, to.ID)
		if err != nil {
			return err
		}
		changed = ok
		if !ok {
			return nil
		}
		for _, u := range []*models.User{from, to} {
			if !u.IsAlumni() {
				continue
			}
			l := u.Ledger()
			granted[u.ID] = l.AwardConnection(rules)
			u.SetLedger(l)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	for userID, amount := range granted {
		s.metrics.PointsGranted(string(points.AlumniParticipation), amount)
		s.logger.Debug().Int64("userID", userID).Int("points", amount).Msg("Connection points awarded")
	}
	s.notifications.Notify(ctx, NotificationInput{
		SenderID:   toID,
		ReceiverID: fromID,
		Type:       models.NotificationConnectAccept,
		Message:    fmt.Sprintf("%s accepted your connection request", to.Name),
	})
	s.logger.Info().Int64("from", fromID).Int64("to", toID).Msg("Connection request accepted")
	return nil
}

// Reject is toID declining the request fromID sent.
func (s *connectionServiceImpl) Reject(ctx context.Context, fromID, toID int64) error {
	_, _, err := s.transition(ctx, fromID, toID, func(from, to *models.User) error {
		return graph.Reject(&from.Relations, from.ID, &to.Relations, to.ID)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("from", fromID).Int64("to", toID).Msg("Connection request rejected")
	return nil
}

// Cancel is fromID withdrawing the request they sent to toID.
func (s *connectionServiceImpl) Cancel(ctx context.Context, fromID, toID int64) error {
	_, _, err := s.transition(ctx, fromID, toID, func(from, to *models.User) error {
		return graph.Cancel(&from.Relations, from.ID, &to.Relations, to.ID)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("from", fromID).Int64("to", toID).Msg("Connection request cancelled")
	return nil
}

func (s *connectionServiceImpl) cards(ctx context.Context, ids []int64, viewer *models.User) ([]dto.ConnectionUser, error) {
	users, err := s.users.Find(ctx, models.UserQuery{IDs: nonNilIDs(ids)})
	if err != nil {
		return nil, err
	}
	var connected func(int64) bool
	if viewer != nil {
		connected = viewer.IsConnected
	}
	return dto.NewConnectionUsers(users, connected), nil
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// ListConnections lists userID's connections as seen by viewerID.
func (s *connectionServiceImpl) ListConnections(ctx context.Context, userID, viewerID int64) ([]dto.ConnectionUser, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	viewer := u
	if viewerID != userID {
		if viewer, err = s.users.GetByID(ctx, viewerID); err != nil {
			return nil, err
		}
	}
	return s.cards(ctx, u.Connections, viewer)
}

// Pending lists users who sent userID a request.
func (s *connectionServiceImpl) Pending(ctx context.Context, userID int64) ([]dto.ConnectionUser, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.cards(ctx, u.PendingRequests, nil)
}

// Sent lists users userID has a request out to.
func (s *connectionServiceImpl) Sent(ctx context.Context, userID int64) ([]dto.ConnectionUser, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.cards(ctx, u.SentRequests, nil)
}

func idsOf(users []*models.User) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

// Suggestions proposes approved alumni the user does not relate to yet:
// recent signups, the best connected, and people sharing a course or industry.
// No user appears in more than one group.
func (s *connectionServiceImpl) Suggestions(ctx context.Context, userID int64) (*dto.SuggestionsResponse, error) {
	me, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude := me.Excluded(me.ID)
	base := models.UserQuery{
		Roles:    []models.Role{models.RoleAlumni},
		Approved: models.Bool(true),
		Limit:    SuggestionGroupSize,
	}

	q := base
	q.ExcludeIDs, q.SortBy = exclude, models.SortByNewest
	newAlumni, err := s.users.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	exclude = append(exclude, idsOf(newAlumni)...)

	q = base
	q.ExcludeIDs, q.SortBy = exclude, models.SortByConnectionCount
	top, err := s.users.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	exclude = append(exclude, idsOf(top)...)

	var related []*models.User
	for _, filter := range []models.UserQuery{
		{Course: me.Profile.Course},
		{Industry: me.Profile.WorkProfile.Industry},
	} {
		if filter.Course == "" && filter.Industry == "" {
			continue
		}
		if len(related) >= SuggestionGroupSize {
			break
		}
		q = base
		q.Course, q.Industry = filter.Course, filter.Industry
		q.ExcludeIDs = exclude
		q.Limit = SuggestionGroupSize - len(related)
		found, err := s.users.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		related = append(related, found...)
		exclude = append(exclude, idsOf(found)...)
	}

	return &dto.SuggestionsResponse{
		NewAlumni:      dto.NewConnectionUsers(newAlumni, nil),
		TopConnections: dto.NewConnectionUsers(top, nil),
		RelatedPeople:  dto.NewConnectionUsers(related, nil),
	}, nil
}

// Search matches users by name, email, enrollment number or course and
// flags the ones the caller is connected to.
func (s *connectionServiceImpl) Search(ctx context.Context, userID int64, query string) ([]dto.ConnectionUser, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []dto.ConnectionUser{}, nil
	}
	me, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.Find(ctx, models.UserQuery{
		Search:     query,
		ExcludeIDs: []int64{userID},
		Limit:      SearchLimit,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewConnectionUsers(users, me.IsConnected), nil
}
