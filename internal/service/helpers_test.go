package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tasklists/internal/db/dbtest"
	"github.com/Skotchmaster/tasklists/internal/events"
	"github.com/Skotchmaster/tasklists/internal/hash"
	"github.com/Skotchmaster/tasklists/internal/models"
	"github.com/Skotchmaster/tasklists/internal/repo"
	"github.com/Skotchmaster/tasklists/internal/tokens"
)

type sentOTP struct {
	To, Username, Code string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (m *fakeMailer) SendOTP(_ context.Context, to, username, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentOTP{To: to, Username: username, Code: code})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentOTP {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no otp mail queued")
	return m.sent[len(m.sent)-1]
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fakeImages struct {
	key  string
	data []byte
	err  error
}

func (f *fakeImages) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key = key
	f.data, _ = io.ReadAll(body)
	return "https://img.example.com/" + key, nil
}

type fakeIndex struct {
	indexed map[uuid.UUID]models.List
	deleted []uuid.UUID
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[uuid.UUID]models.List{}}
}

func (f *fakeIndex) IndexList(_ context.Context, item *models.List) error {
	if f.err != nil {
		return f.err
	}
	f.indexed[item.ID] = *item
	return nil
}

func (f *fakeIndex) DeleteList(_ context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	delete(f.indexed, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) SearchLists(_ context.Context, owner uuid.UUID, _ string, from, size int) (int64, []models.List, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	var items []models.List
	for _, it := range f.indexed {
		if it.UserID == owner {
			items = append(items, it)
		}
	}
	total := int64(len(items))
	if from >= len(items) {
		return total, nil, nil
	}
	end := min(from+size, len(items))
	return total, items[from:end], nil
}

type env struct {
	repo   *repo.GormRepo
	auth   *AuthService
	users  *UserService
	lists  *ListService
	mail   *fakeMailer
	pub    *fakePublisher
	images *fakeImages
	index  *fakeIndex
}

func newEnv(t *testing.T) *env {
	t.Helper()

	r := repo.New(dbtest.Open(t))
	e := &env{
		repo:   r,
		mail:   &fakeMailer{},
		pub:    &fakePublisher{},
		images: &fakeImages{},
		index:  newFakeIndex(),
	}
	e.auth = &AuthService{
		Repo:   r,
		Tokens: tokens.NewService([]byte("test-jwt-secret")),
		Mailer: e.mail,
		Events: e.pub,
	}
	e.users = &UserService{Repo: r, Images: e.images}
	e.lists = &ListService{Repo: r, Events: e.pub, Index: e.index}
	return e
}

// verifiedUser registers and verifies an account with password "secret".
func (e *env) verifiedUser(t *testing.T, email string) *models.User {
	t.Helper()
	ctx := context.Background()

	_, err := e.auth.Register(ctx, "user-"+email, email, "secret")
	require.NoError(t, err)
	require.NoError(t, e.auth.VerifyEmail(ctx, email, e.mail.last(t).Code))

	u, err := e.repo.FindUserByEmail(ctx, email)
	require.NoError(t, err)
	return u
}

func seedRawUser(t *testing.T, r *repo.GormRepo, email, password string, verified bool) *models.User {
	t.Helper()

	pw, err := hash.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Username: "raw", Email: email, PasswordHash: pw, EmailVerified: &verified}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

var errBoom = errors.New("boom")
