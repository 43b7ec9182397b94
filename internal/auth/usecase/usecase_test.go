package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/goroutine"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/rate"
	"github.com/otpgate/otpgate/internal/pkg/rolecache"
	"github.com/otpgate/otpgate/internal/pkg/validator"
)

// ---------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------

type stubClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

type stubNumberID struct {
	mu   sync.Mutex
	next int64
}

func (g *stubNumberID) Generate() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next
}

type stubCodes struct {
	mu    sync.Mutex
	queue []string
}

func (g *stubCodes) Code() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) == 0 {
		return "123456", nil
	}
	code := g.queue[0]
	g.queue = g.queue[1:]
	return code, nil
}

func (g *stubCodes) Salt() (string, error) {
	return "static-salt", nil
}

type stubJWT struct {
	mu     sync.Mutex
	tokens int
	last   jwt.Payload
}

func (j *stubJWT) Generate(p jwt.Payload) (string, string, time.Time, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tokens++
	j.last = p
	id := fmt.Sprintf("jti-%d", j.tokens)
	return "token-" + id, id, time.Now().Add(7 * 24 * time.Hour), nil
}

func (j *stubJWT) Verify(string) (jwt.Claims, error) {
	return jwt.Claims{}, errors.New("not implemented")
}

type stubHMAC struct{}

func (stubHMAC) Hash(str string) ([]byte, error) { return []byte("hmac:" + str), nil }
func (stubHMAC) Verify(hashed, str string) bool  { return hashed == "hmac:"+str }

var errSenderDown = errors.New("provider down")

type delivery struct {
	Destination string
	Code        string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []delivery
	err  error
}

func (s *fakeSender) Deliver(_ context.Context, destination, code string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, delivery{Destination: destination, Code: code})
	return nil
}

func (s *fakeSender) deliveries() []delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]delivery(nil), s.sent...)
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []UserVerifiedEvent
}

func (m *fakeMessaging) PublishUserVerified(_ context.Context, msg UserVerifiedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, msg)
	return nil
}

func (m *fakeMessaging) published() []UserVerifiedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UserVerifiedEvent(nil), m.events...)
}

// fakeRepo is an in-memory repoDB. Consumption is a mutex-guarded
// conditional update so concurrent verifications behave like the real store.
type fakeRepo struct {
	mu         sync.Mutex
	identities map[int64]entity.Identity
	challenges []*entity.Challenge
	sessions   map[string]entity.Session
	allowlist  map[string]entity.AllowlistEntry

	conflictOnCreate  int // CreateIdentity failures left to simulate a lost race
	racedIdentity     *entity.Identity
	createSessionErr  error
	getIdentityErr    error
	allowlistErr      error
	markVerifiedCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		identities: make(map[int64]entity.Identity),
		sessions:   make(map[string]entity.Session),
		allowlist:  make(map[string]entity.AllowlistEntry),
	}
}

func (r *fakeRepo) GetIdentityByPhone(_ context.Context, phone string) (entity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getIdentityErr != nil {
		return entity.Identity{}, r.getIdentityErr
	}
	for _, id := range r.identities {
		if id.Phone == phone {
			return id, nil
		}
	}
	return entity.Identity{}, goerror.ErrNotFound
}

func (r *fakeRepo) GetIdentityByID(_ context.Context, id int64) (entity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.identities[id]
	if !ok {
		return entity.Identity{}, goerror.ErrNotFound
	}
	return ident, nil
}

func (r *fakeRepo) CreateIdentity(_ context.Context, user entity.NewIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictOnCreate > 0 {
		r.conflictOnCreate--
		if r.racedIdentity != nil {
			r.identities[r.racedIdentity.ID] = *r.racedIdentity
			r.racedIdentity = nil
		}
		return goerror.ErrConflict
	}
	for _, id := range r.identities {
		if id.Phone == user.Phone {
			return goerror.ErrConflict
		}
	}
	r.identities[user.ID] = entity.Identity{
		ID:    user.ID,
		Name:  user.Name,
		Phone: user.Phone,
		Email: user.Email,
	}
	return nil
}

func (r *fakeRepo) EnrichIdentity(_ context.Context, enrich entity.EnrichIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.identities[enrich.ID]
	if !ok {
		return goerror.ErrNotFound
	}
	if ident.Name == "" && enrich.Name != "" {
		ident.Name = enrich.Name
	}
	if ident.Email == "" && enrich.Email != "" {
		ident.Email = enrich.Email
	}
	r.identities[enrich.ID] = ident
	return nil
}

func (r *fakeRepo) MarkIdentityVerified(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.identities[id]
	if !ok {
		return goerror.ErrNotFound
	}
	ident.IsVerified = true
	r.identities[id] = ident
	r.markVerifiedCalls++
	return nil
}

func (r *fakeRepo) CreateChallenge(_ context.Context, chal entity.NewChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges = append(r.challenges, &entity.Challenge{
		ID:          chal.ID,
		UserID:      chal.UserID,
		Channel:     chal.Channel,
		Destination: chal.Destination,
		CodeHash:    chal.CodeHash,
		Salt:        chal.Salt,
		ExpiresAt:   chal.ExpiresAt,
		Metadata:    chal.Metadata,
	})
	return nil
}

func (r *fakeRepo) GetLatestChallenge(_ context.Context, userID int64, ch entity.Channel) (entity.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.challenges) - 1; i >= 0; i-- {
		c := r.challenges[i]
		if c.UserID == userID && c.Channel == ch {
			return *c, nil
		}
	}
	return entity.Challenge{}, goerror.ErrNotFound
}

func (r *fakeRepo) ConsumeChallenge(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consumeLocked(id, at)
}

func (r *fakeRepo) ConsumeChallengePair(_ context.Context, firstID, secondID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.consumeLocked(firstID, at); err != nil {
		return err
	}
	if err := r.consumeLocked(secondID, at); err != nil {
		// roll the first one back, the real store runs both in one tx
		for _, c := range r.challenges {
			if c.ID == firstID {
				c.ConsumedAt = nil
			}
		}
		return err
	}
	return nil
}

func (r *fakeRepo) consumeLocked(id int64, at time.Time) error {
	for _, c := range r.challenges {
		if c.ID == id {
			if c.ConsumedAt != nil {
				return goerror.ErrConflict
			}
			ts := at
			c.ConsumedAt = &ts
			return nil
		}
	}
	return goerror.ErrConflict
}

func (r *fakeRepo) IncrementChallengeAttempts(_ context.Context, id int64) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.challenges {
		if c.ID == id {
			c.Attempts++
			return c.Attempts, nil
		}
	}
	return 0, goerror.ErrNotFound
}

func (r *fakeRepo) CreateSession(_ context.Context, sess entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createSessionErr != nil {
		return r.createSessionErr
	}
	r.sessions[sess.TokenID] = sess
	return nil
}

func (r *fakeRepo) GetSessionByTokenID(_ context.Context, tokenID string) (entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[tokenID]
	if !ok {
		return entity.Session{}, goerror.ErrNotFound
	}
	return sess, nil
}

func (r *fakeRepo) RevokeSession(_ context.Context, tokenID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[tokenID]
	if ok && sess.RevokedAt == nil {
		ts := at
		sess.RevokedAt = &ts
		r.sessions[tokenID] = sess
	}
	return nil
}

func (r *fakeRepo) GetAllowlistEntry(_ context.Context, email string) (entity.AllowlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.allowlistErr != nil {
		return entity.AllowlistEntry{}, r.allowlistErr
	}
	entry, ok := r.allowlist[email]
	if !ok {
		return entity.AllowlistEntry{}, goerror.ErrNotFound
	}
	return entry, nil
}

func (r *fakeRepo) UpsertAllowlistEntry(_ context.Context, entry entity.AllowlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowlist[entry.Email] = entry
	return nil
}

func (r *fakeRepo) challengeByID(id int64) *entity.Challenge {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.challenges {
		if c.ID == id {
			cp := *c
			return &cp
		}
	}
	return nil
}

func (r *fakeRepo) latest(userID int64, ch entity.Channel) *entity.Challenge {
	chal, err := r.GetLatestChallenge(context.Background(), userID, ch)
	if err != nil {
		return nil
	}
	return &chal
}

// stubConfig backs the config interface with plain maps.
type stubConfig struct {
	strs  map[string]string
	ints  map[string]int
	secs  map[string]time.Duration
	arrs  map[string][]string
	bools map[string]bool
}

func (c *stubConfig) Close() error                      { return nil }
func (c *stubConfig) GetSecond(k string) time.Duration  { return c.secs[k] }
func (c *stubConfig) GetMinute(k string) time.Duration  { return c.secs[k] }
func (c *stubConfig) GetHour(k string) time.Duration    { return c.secs[k] }
func (c *stubConfig) GetDay(k string) time.Duration     { return c.secs[k] }
func (c *stubConfig) GetInt(k string) int               { return c.ints[k] }
func (c *stubConfig) GetInt32(k string) int32           { return int32(c.ints[k]) }
func (c *stubConfig) GetInt64(k string) int64           { return int64(c.ints[k]) }
func (c *stubConfig) GetUint(k string) uint             { return uint(c.ints[k]) }
func (c *stubConfig) GetUint16(k string) uint16         { return uint16(c.ints[k]) }
func (c *stubConfig) GetUint32(k string) uint32         { return uint32(c.ints[k]) }
func (c *stubConfig) GetUint64(k string) uint64         { return uint64(c.ints[k]) }
func (c *stubConfig) GetFloat32(k string) float32       { return 0 }
func (c *stubConfig) GetFloat64(k string) float64       { return 0 }
func (c *stubConfig) GetBool(k string) bool             { return c.bools[k] }
func (c *stubConfig) GetString(k string) string         { return c.strs[k] }
func (c *stubConfig) GetBinary(k string) []byte         { return nil }
func (c *stubConfig) GetArray(k string) []string        { return c.arrs[k] }
func (c *stubConfig) GetMap(k string) map[string]string { return nil }

// ---------------------------------------------------------------------
// fixture
// ---------------------------------------------------------------------

type fixture struct {
	uc    *Usecase
	repo  *fakeRepo
	sms   *fakeSender
	email *fakeSender
	msgs  *fakeMessaging
	clock *stubClock
	codes *stubCodes
	jwt   *stubJWT
	cfg   *stubConfig
	roles *rolecache.Cache[entity.Role]
	mgr   *goroutine.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	f := &fixture{
		repo:  newFakeRepo(),
		sms:   &fakeSender{},
		email: &fakeSender{},
		msgs:  &fakeMessaging{},
		clock: &stubClock{at: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		codes: &stubCodes{},
		jwt:   &stubJWT{},
		roles: rolecache.New[entity.Role](64, time.Minute),
		mgr:   goroutine.NewManager(8),
		cfg: &stubConfig{
			strs: map[string]string{},
			ints: map[string]int{
				"modules.auth.max_attempts": 5,
			},
			secs: map[string]time.Duration{
				"modules.auth.otp_ttl_seconds": 5 * time.Minute,
			},
			arrs:  map[string][]string{},
			bools: map[string]bool{},
		},
	}

	f.uc = New(Dependency{
		RepoDB:        f.repo,
		RepoMessaging: f.msgs,
		Validator:     v10,
		Config:        f.cfg,
		SMSSender:     f.sms,
		EmailSender:   f.email,
		Limiter:       rate.NewMemory(rate.Config{Max: 1000, Window: time.Minute}, nil),
		RoleCache:     f.roles,
		Codes:         f.codes,
		Digest:        hash.NewSaltedSHA256(),
		HMAC:          stubHMAC{},
		UID:           &stubNumberID{},
		Clock:         f.clock,
		JWT:           f.jwt,
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.mgr,
	})

	return f
}

func (f *fixture) withLimiter(max int) {
	f.uc.limiter = rate.NewMemory(rate.Config{Max: max, Window: time.Minute}, nil)
}

func (f *fixture) seedIdentity(ident entity.Identity) {
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	f.repo.identities[ident.ID] = ident
}

func (f *fixture) seedChallenge(id, userID int64, ch entity.Channel, code string, expiresAt time.Time) {
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	f.repo.challenges = append(f.repo.challenges, &entity.Challenge{
		ID:        id,
		UserID:    userID,
		Channel:   ch,
		CodeHash:  f.uc.digest.Digest(code, "static-salt"),
		Salt:      "static-salt",
		ExpiresAt: expiresAt,
	})
}

func assertCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected goerror, got %T: %v", err, err)
	}
	if gerr.Code() != code {
		t.Fatalf("expected code %v, got %v (%v)", code, gerr.Code(), err)
	}
}
