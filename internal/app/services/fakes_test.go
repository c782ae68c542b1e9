package services

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/auth"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/domain/content"
	"github.com/yigit/alumnet/internal/domain/points"
	pkgauth "github.com/yigit/alumnet/internal/pkg/auth"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

var testNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func syncAsync(fn func()) { fn() }

type fakeTx struct{ calls int }

func (t *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// fakeUsers stores copies so services only see their writes after Update.
type fakeUsers struct {
	mu     sync.Mutex
	rows   map[int64]*models.User
	nextID int64
	// conflicts makes the next n Update calls lose the version race.
	conflicts int
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{rows: map[int64]*models.User{}}
	for _, u := range users {
		f.put(u)
	}
	return f
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Connections = slices.Clone(u.Connections)
	c.PendingRequests = slices.Clone(u.PendingRequests)
	c.SentRequests = slices.Clone(u.SentRequests)
	c.PostPointLog = slices.Clone(u.PostPointLog)
	c.Profile.Education = slices.Clone(u.Profile.Education)
	c.Profile.Experience = slices.Clone(u.Profile.Experience)
	c.Profile.Skills = slices.Clone(u.Profile.Skills)
	if u.LastYearPoints != nil {
		snap := *u.LastYearPoints
		c.LastYearPoints = &snap
	}
	return &c
}

func (f *fakeUsers) put(u *models.User) {
	if u.ID == 0 {
		f.nextID++
		u.ID = f.nextID
	}
	if u.ID > f.nextID {
		f.nextID = u.ID
	}
	if u.Version == 0 {
		u.Version = 1
	}
	f.rows[u.ID] = cloneUser(u)
}

func (f *fakeUsers) get(id int64) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.rows[id]; ok {
		return cloneUser(u)
	}
	return nil
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.Email == u.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	u.ID = 0
	f.put(u)
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if u := f.get(id); u != nil {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) GetMainAdmin(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.IsMainAdmin {
			return cloneUser(u), nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) Update(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.rows[u.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if f.conflicts > 0 {
		f.conflicts--
		stored.Version++
	}
	if stored.Version != u.Version {
		return apperrors.ErrVersionConflict
	}
	u.Version++
	f.rows[u.ID] = cloneUser(u)
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(f.rows, id)
	return nil
}

func matches(u *models.User, q models.UserQuery) bool {
	contains := func(field, term string) bool {
		return strings.Contains(strings.ToLower(field), strings.ToLower(strings.TrimSpace(term)))
	}
	switch {
	case len(q.Roles) > 0 && !slices.Contains(q.Roles, u.Role):
		return false
	case q.Approved != nil && u.Approved != *q.Approved:
		return false
	case q.IsMainAdmin != nil && u.IsMainAdmin != *q.IsMainAdmin:
		return false
	case q.IDs != nil && !slices.Contains(q.IDs, u.ID):
		return false
	case slices.Contains(q.ExcludeIDs, u.ID):
		return false
	case q.MinTotal != nil && u.Points.Total < *q.MinTotal:
		return false
	case q.HasLastYear && u.LastYearPoints == nil:
		return false
	case q.Course != "" && !contains(u.Profile.Course, q.Course):
		return false
	case q.Year != "" && u.Profile.Year != q.Year:
		return false
	case q.Industry != "" && !contains(u.Profile.WorkProfile.Industry, q.Industry):
		return false
	}
	if q.Exact != "" && !strings.EqualFold(u.Name, q.Exact) && !strings.EqualFold(u.EnrollmentNumber, q.Exact) {
		return false
	}
	if q.Search != "" && !contains(u.Name, q.Search) && !contains(u.Email, q.Search) &&
		!contains(u.EnrollmentNumber, q.Search) && !contains(u.Profile.Course, q.Search) {
		return false
	}
	return true
}

func (f *fakeUsers) Find(ctx context.Context, q models.UserQuery) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.User{}
	for _, u := range f.rows {
		if matches(u, q) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch q.SortBy {
		case models.SortByNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		case models.SortByTotalPoints:
			if a.Points.Total != b.Points.Total {
				return a.Points.Total > b.Points.Total
			}
		case models.SortByLastYearPoints:
			if lastYearTotal(a) != lastYearTotal(b) {
				return lastYearTotal(a) > lastYearTotal(b)
			}
		case models.SortByConnectionCount:
			if len(a.Connections) != len(b.Connections) {
				return len(a.Connections) > len(b.Connections)
			}
		}
		return a.Name < b.Name
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeUsers) ListIDs(ctx context.Context, q models.UserQuery) ([]int64, error) {
	users, _ := f.Find(ctx, q)
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

type fakeVisits struct {
	last map[[2]int64]time.Time
}

func (f *fakeVisits) LastVisit(ctx context.Context, profileID, visitorID int64) (*time.Time, error) {
	if at, ok := f.last[[2]int64{profileID, visitorID}]; ok {
		return &at, nil
	}
	return nil, nil
}

func (f *fakeVisits) Touch(ctx context.Context, profileID, visitorID int64, at time.Time) error {
	if f.last == nil {
		f.last = map[[2]int64]time.Time{}
	}
	f.last[[2]int64{profileID, visitorID}] = at
	return nil
}

type fakePosts struct {
	rows   map[int64]*content.Post
	nextID int64
}

func newFakePosts() *fakePosts {
	return &fakePosts{rows: map[int64]*content.Post{}}
}

func clonePost(p *content.Post) *content.Post {
	data, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	c := &content.Post{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}
	c.Version = p.Version
	return c
}

func (f *fakePosts) Create(ctx context.Context, p *content.Post) error {
	f.nextID++
	p.ID = f.nextID
	p.Version = 1
	f.rows[p.ID] = clonePost(p)
	return nil
}

func (f *fakePosts) GetByID(ctx context.Context, id int64) (*content.Post, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrPostNotFound
	}
	return clonePost(p), nil
}

func (f *fakePosts) Update(ctx context.Context, p *content.Post) error {
	stored, ok := f.rows[p.ID]
	if !ok {
		return apperrors.ErrPostNotFound
	}
	if stored.Version != p.Version {
		return apperrors.ErrVersionConflict
	}
	p.Version++
	f.rows[p.ID] = clonePost(p)
	return nil
}

func (f *fakePosts) Delete(ctx context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return apperrors.ErrPostNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakePosts) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for id, p := range f.rows {
		if p.UserID == userID {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func (f *fakePosts) sorted(keep func(*content.Post) bool) []*content.Post {
	out := []*content.Post{}
	for _, p := range f.rows {
		if keep(p) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakePosts) List(ctx context.Context, authorID int64, offset uint64, limit int) ([]*content.Post, int64, error) {
	all := f.sorted(func(p *content.Post) bool { return authorID == 0 || p.UserID == authorID })
	total := int64(len(all))
	if int(offset) >= len(all) {
		return []*content.Post{}, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (f *fakePosts) ListAllByUser(ctx context.Context, userID int64) ([]*content.Post, error) {
	return f.sorted(func(p *content.Post) bool { return p.UserID == userID }), nil
}

func (f *fakePosts) ListInvolving(ctx context.Context, userID int64) ([]*content.Post, error) {
	return f.sorted(func(p *content.Post) bool {
		return len(content.CollectActivity([]*content.Post{p}, userID)) > 0
	}), nil
}

type fakeNotifications struct {
	rows   []*models.Notification
	nextID int64
}

func (f *fakeNotifications) Create(ctx context.Context, n *models.Notification) error {
	f.nextID++
	n.ID = f.nextID
	c := *n
	f.rows = append(f.rows, &c)
	return nil
}

func (f *fakeNotifications) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	for _, n := range f.rows {
		if n.ID == id {
			c := *n
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotificationNotFound
}

func (f *fakeNotifications) ListForReceiver(ctx context.Context, receiverID int64, limit int) ([]*models.Notification, error) {
	out := []*models.Notification{}
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].ReceiverID == receiverID {
			c := *f.rows[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(ctx context.Context, id int64) error {
	for _, n := range f.rows {
		if n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotifications) MarkAllRead(ctx context.Context, receiverID int64) (int64, error) {
	var changed int64
	for _, n := range f.rows {
		if n.ReceiverID == receiverID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (f *fakeNotifications) ofType(t models.NotificationType) []*models.Notification {
	var out []*models.Notification
	for _, n := range f.rows {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type pushed struct {
	userID int64
	event  string
	data   interface{}
}

type fakePublisher struct {
	sent []pushed
}

func (f *fakePublisher) SendToUser(userID int64, event string, data interface{}) {
	f.sent = append(f.sent, pushed{userID: userID, event: event, data: data})
}

func (f *fakePublisher) Broadcast(event string, data interface{}) {
	f.sent = append(f.sent, pushed{event: event, data: data})
}

func (f *fakePublisher) events() []string {
	out := make([]string, 0, len(f.sent))
	for _, p := range f.sent {
		out = append(out, p.event)
	}
	return out
}

type fakeConfigs struct {
	cfg *models.PointsConfig
}

func (f *fakeConfigs) Get(ctx context.Context) (*models.PointsConfig, error) {
	if f.cfg == nil {
		return nil, apperrors.ErrResourceNotFound
	}
	c := *f.cfg
	return &c, nil
}

func (f *fakeConfigs) Save(ctx context.Context, c *models.PointsConfig) error {
	saved := *c
	f.cfg = &saved
	return nil
}

func (f *fakeConfigs) CreateIfMissing(ctx context.Context, c *models.PointsConfig) error {
	if f.cfg == nil {
		return f.Save(ctx, c)
	}
	return nil
}

type fakeWindows struct {
	rows map[int]*points.RolloverWindow
}

func (f *fakeWindows) GetByYear(ctx context.Context, year int) (*points.RolloverWindow, error) {
	w, ok := f.rows[year]
	if !ok {
		return nil, nil
	}
	c := *w
	return &c, nil
}

func (f *fakeWindows) Upsert(ctx context.Context, w *points.RolloverWindow) error {
	if f.rows == nil {
		f.rows = map[int]*points.RolloverWindow{}
	}
	c := *w
	c.HasExecuted, c.ExecutedAt = false, nil
	f.rows[w.Year] = &c
	return nil
}

func (f *fakeWindows) MarkExecuted(ctx context.Context, year int, at time.Time) (bool, error) {
	w, ok := f.rows[year]
	if !ok || w.HasExecuted {
		return false, nil
	}
	w.HasExecuted, w.ExecutedAt = true, &at
	return true, nil
}

type fakeToken struct {
	userID  int64
	expiry  time.Time
	revoked bool
}

type fakeTokens struct {
	rows map[string]*fakeToken
}

func newFakeTokens() *fakeTokens { return &fakeTokens{rows: map[string]*fakeToken{}} }

func (f *fakeTokens) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	f.rows[token] = &fakeToken{userID: userID, expiry: expiryDate}
	return nil
}

func (f *fakeTokens) GetUserIDByToken(ctx context.Context, token string, now time.Time) (int64, error) {
	t, ok := f.rows[token]
	switch {
	case !ok:
		return 0, apperrors.ErrTokenNotFound
	case t.revoked:
		return 0, apperrors.ErrTokenRevoked
	case now.After(t.expiry):
		return 0, apperrors.ErrTokenExpired
	}
	return t.userID, nil
}

func (f *fakeTokens) RevokeToken(ctx context.Context, token string) error {
	if t, ok := f.rows[token]; ok {
		t.revoked = true
	}
	return nil
}

func (f *fakeTokens) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	for _, t := range f.rows {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

func (f *fakeTokens) CleanupExpiredTokens(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	var n int64
	for k, t := range f.rows {
		if t.revoked || now.Sub(t.expiry) > retention {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

type fakeOTPs struct {
	rows []*models.PasswordResetOTP
}

func (f *fakeOTPs) Create(ctx context.Context, otp *models.PasswordResetOTP) error {
	for _, o := range f.rows {
		if o.UserID == otp.UserID {
			o.Used = true
		}
	}
	otp.ID = int64(len(f.rows) + 1)
	c := *otp
	f.rows = append(f.rows, &c)
	return nil
}

func (f *fakeOTPs) GetLatestActive(ctx context.Context, userID int64, now time.Time) (*models.PasswordResetOTP, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		o := f.rows[i]
		if o.UserID == userID && !o.Used && now.Before(o.ExpiresAt) {
			c := *o
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeOTPs) MarkUsed(ctx context.Context, id int64) error {
	for _, o := range f.rows {
		if o.ID == id {
			o.Used = true
		}
	}
	return nil
}

type fakeEvents struct {
	rows []*models.Event
}

func (f *fakeEvents) Create(ctx context.Context, e *models.Event) error {
	e.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, e)
	return nil
}

func (f *fakeEvents) List(ctx context.Context, from *time.Time) ([]*models.Event, error) {
	out := []*models.Event{}
	for _, e := range f.rows {
		if from == nil || !e.Date.Before(*from) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeMedia struct {
	deleted []string
	fail    map[string]bool
}

func (f *fakeMedia) Delete(ctx context.Context, key string) error {
	if f.fail[key] {
		return errors.New("storage unavailable")
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeMedia) KeyFromURL(url string) string {
	const prefix = "https://cdn.test/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

type sentMail struct {
	kind, to, otp string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) record(kind, to, otp string) error {
	f.sent = append(f.sent, sentMail{kind: kind, to: to, otp: otp})
	return f.err
}

func (f *fakeMailer) SendApprovalEmail(toEmail, toName string) error {
	return f.record("approval", toEmail, "")
}

func (f *fakeMailer) SendRejectionEmail(toEmail, toName string) error {
	return f.record("rejection", toEmail, "")
}

func (f *fakeMailer) SendDeletionEmail(toEmail, toName string) error {
	return f.record("deletion", toEmail, "")
}

func (f *fakeMailer) SendOTPEmail(toEmail, toName, otp string) error {
	return f.record("otp", toEmail, otp)
}

type fakeIssuer struct{ issued int }

func (f *fakeIssuer) GenerateTokenPair(id pkgauth.Identity) (*pkgauth.TokenPair, error) {
	f.issued++
	return &pkgauth.TokenPair{
		AccessToken:      "access-" + strings.Repeat("x", f.issued),
		RefreshToken:     "refresh-" + strings.Repeat("x", f.issued),
		ExpiresIn:        900,
		RefreshExpiresIn: 3600,
		RefreshExpiry:    testNow.Add(time.Hour),
	}, nil
}

// env wires every service against the same in-memory stores.
type env struct {
	users         *fakeUsers
	posts         *fakePosts
	visits        *fakeVisits
	notes         *fakeNotifications
	publisher     *fakePublisher
	configs       *fakeConfigs
	windows       *fakeWindows
	tokens        *fakeTokens
	otps          *fakeOTPs
	media         *fakeMedia
	mailer        *fakeMailer
	tx            *fakeTx
	notifications NotificationService
	points        PointsService
}

var testDefaults = PointsDefaults{
	ProfileCompletionPoints: 50,
	ConnectionPoints:        10,
	PostPoints:              5,
	PostLimitCount:          2,
	PostLimitDays:           1,
}

func newEnv(users ...*models.User) *env {
	e := &env{
		users:     newFakeUsers(users...),
		posts:     newFakePosts(),
		visits:    &fakeVisits{},
		notes:     &fakeNotifications{},
		publisher: &fakePublisher{},
		configs:   &fakeConfigs{},
		windows:   &fakeWindows{},
		tokens:    newFakeTokens(),
		otps:      &fakeOTPs{},
		media:     &fakeMedia{},
		mailer:    &fakeMailer{},
		tx:        &fakeTx{},
	}
	ns := NewNotificationService(e.notes, e.users, e.publisher, nil, zerolog.Nop()).(*notificationServiceImpl)
	ns.now = fixedNow
	e.notifications = ns
	ps := NewPointsService(e.users, e.configs, e.tx, e.notifications, testDefaults, nil, zerolog.Nop()).(*pointsServiceImpl)
	ps.now = fixedNow
	e.points = ps
	return e
}

func (e *env) postService() PostService {
	s := NewPostService(e.posts, e.users, e.tx, auth.NewAuthorizationService(), e.points, e.notifications,
		e.publisher, e.media, nil, zerolog.Nop()).(*postServiceImpl)
	s.now = fixedNow
	return s
}

func (e *env) connectionService() ConnectionService {
	return NewConnectionService(e.users, e.tx, e.points, e.notifications, nil, zerolog.Nop())
}

func (e *env) userService() UserService {
	s := NewUserService(e.users, e.visits, e.posts, e.media, e.points, e.tx, nil, zerolog.Nop()).(*userServiceImpl)
	s.now = fixedNow
	return s
}

func (e *env) adminService() AdminService {
	s := NewAdminService(e.users, e.posts, e.tx, auth.NewAuthorizationService(), e.media, e.mailer, nil, zerolog.Nop()).(*adminServiceImpl)
	s.now = fixedNow
	s.runAsync = syncAsync
	return s
}

func (e *env) authService() (*authServiceImpl, *fakeIssuer) {
	issuer := &fakeIssuer{}
	s := NewAuthService(e.users, e.tokens, e.otps, e.tx, issuer, e.mailer, nil, zerolog.Nop()).(*authServiceImpl)
	s.now = fixedNow
	s.runAsync = syncAsync
	return s, issuer
}

func (e *env) rolloverService(now time.Time) *rolloverServiceImpl {
	s := NewRolloverService(e.users, e.windows, e.configs, e.points, e.tx, nil, zerolog.Nop()).(*rolloverServiceImpl)
	s.now = func() time.Time { return now }
	return s
}

func alumnus(id int64, name string) *models.User {
	return &models.User{ID: id, Name: name, Email: strings.ToLower(name) + "@example.com", Role: models.RoleAlumni, Approved: true, CreatedAt: testNow}
}

func faculty(id int64, name string) *models.User {
	return &models.User{ID: id, Name: name, Email: strings.ToLower(name) + "@example.com", Role: models.RoleFaculty, Approved: true, CreatedAt: testNow}
}

func mainAdmin(id int64) *models.User {
	return &models.User{ID: id, Name: "Root", Email: "root@example.com", Role: models.RoleAdmin, IsAdmin: true, IsMainAdmin: true, Approved: true, CreatedAt: testNow}
}

func idsOfCards(cards []dto.ConnectionUser) []int64 {
	ids := make([]int64, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return ids
}
