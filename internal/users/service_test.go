package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/shared"
	"github.com/vetstock-erp/vetstock/internal/users"
)

type fakeRepo struct {
	nextID int64
	byID   map[int64]users.User
	hashes map[int64]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, byID: map[int64]users.User{}, hashes: map[int64]string{}}
}

func (f *fakeRepo) List(ctx context.Context) ([]users.User, error) {
	out := make([]users.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (users.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return users.User{}, httpx.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) Create(ctx context.Context, input users.CreateUserInput, hash string) (users.User, error) {
	for _, u := range f.byID {
		if u.Email == input.Email {
			return users.User{}, httpx.ErrDuplicate
		}
	}
	u := users.User{
		ID:        f.nextID,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      input.Role,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.byID[u.ID] = u
	f.hashes[u.ID] = hash
	f.nextID++
	return u, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, input users.UpdateUserInput) (users.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return users.User{}, httpx.ErrNotFound
	}
	u.FirstName = input.FirstName
	u.LastName = input.LastName
	u.Role = input.Role
	f.byID[id] = u
	return u, nil
}

func (f *fakeRepo) SetActive(ctx context.Context, id int64, active bool) (users.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return users.User{}, httpx.ErrNotFound
	}
	u.Active = active
	f.byID[id] = u
	return u, nil
}

func (f *fakeRepo) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	if _, ok := f.byID[id]; !ok {
		return httpx.ErrNotFound
	}
	f.hashes[id] = hash
	return nil
}

type fakeAudit struct {
	entries []shared.AuditLog
}

func (f *fakeAudit) Record(ctx context.Context, entry shared.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newFakeRepo()
	audit := &fakeAudit{}
	service := users.NewService(repo, audit)

	user, err := service.Create(context.Background(), users.CreateUserInput{
		Email:     "admin@vetstock.local",
		FirstName: "Budi",
		Role:      "admin",
		Password:  "supersecret",
	})
	require.NoError(t, err)
	require.True(t, user.Active)

	hash := repo.hashes[user.ID]
	require.NotEqual(t, "supersecret", hash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("supersecret")))
	require.Len(t, audit.entries, 1)
	require.Equal(t, "user.create", audit.entries[0].Action)
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	service := users.NewService(newFakeRepo(), &fakeAudit{})

	_, err := service.Create(context.Background(), users.CreateUserInput{
		Email:     "x@vetstock.local",
		FirstName: "X",
		Role:      "manager",
		Password:  "supersecret",
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeactivateOwnAccountRejected(t *testing.T) {
	repo := newFakeRepo()
	service := users.NewService(repo, &fakeAudit{})

	user, err := service.Create(context.Background(), users.CreateUserInput{
		Email:     "admin@vetstock.local",
		FirstName: "Budi",
		Role:      "admin",
		Password:  "supersecret",
	})
	require.NoError(t, err)

	ctx := shared.ContextWithActor(context.Background(), &shared.Actor{UserID: user.ID, Role: "admin"})
	_, err = service.Deactivate(ctx, user.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)

	other := shared.ContextWithActor(context.Background(), &shared.Actor{UserID: 999, Role: "superadmin"})
	updated, err := service.Deactivate(other, user.ID)
	require.NoError(t, err)
	require.False(t, updated.Active)
}

func TestSetPasswordRehashes(t *testing.T) {
	repo := newFakeRepo()
	service := users.NewService(repo, &fakeAudit{})

	user, err := service.Create(context.Background(), users.CreateUserInput{
		Email:     "staff@vetstock.local",
		FirstName: "Dewi",
		Role:      "staff",
		Password:  "oldpassword",
	})
	require.NoError(t, err)
	old := repo.hashes[user.ID]

	require.NoError(t, service.SetPassword(context.Background(), user.ID, users.SetPasswordInput{Password: "newpassword"}))
	require.NotEqual(t, old, repo.hashes[user.ID])
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[user.ID]), []byte("newpassword")))
}
