package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apidex-io/apidex/internal/domain/entity"
	"github.com/apidex-io/apidex/internal/domain/repository"
	"github.com/apidex-io/apidex/pkg/helpers"
)

// memUserRepo is an in-memory UserRepository with the same uniqueness
// semantics as the Postgres implementation.
type memUserRepo struct {
	seq   int
	users map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}}
}

func (m *memUserRepo) Create(ctx context.Context, u *entity.User) error {
	for _, ex := range m.users {
		if ex.Username == u.Username || ex.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	m.seq++
	u.ID = fmt.Sprintf("u%d", m.seq)
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) UsernameTaken(ctx context.Context, username, excludingID string) (bool, error) {
	for id, u := range m.users {
		if u.Username == username && id != excludingID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) EmailTaken(ctx context.Context, email, excludingID string) (bool, error) {
	for id, u := range m.users {
		if u.Email == email && id != excludingID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) UpdateFields(ctx context.Context, id string, patch repository.UserPatch) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.Username != nil {
		if taken, _ := m.UsernameTaken(ctx, *patch.Username, id); taken {
			return repository.ErrDuplicate
		}
		u.Username = *patch.Username
	}
	if patch.Email != nil {
		if taken, _ := m.EmailTaken(ctx, *patch.Email, id); taken {
			return repository.ErrDuplicate
		}
		u.Email = *patch.Email
	}
	if patch.Password != nil {
		u.Password = *patch.Password
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = *patch.AvatarURL
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func newTestService() (*Service, *memUserRepo) {
	repo := newMemUserRepo()
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	return NewService(repo, jwt, nil, "", nil, nil, ""), repo
}

func register(t *testing.T, s *Service, username, email, password string) *entity.User {
	t.Helper()
	u, pair, err := s.Register(context.Background(), username, email, password)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return u
}

func TestRegister_Success(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	u, pair, err := s.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "a@x.com", u.Email)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Password)
	assert.True(t, helpers.CheckPassword(stored.Password, "secret1"))
	assert.False(t, stored.CreatedAt.IsZero())
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestRegister_Validation(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name                      string
		username, email, password string
		want                      error
	}{
		{"missing username", "", "a@x.com", "secret1", ErrMissingFields},
		{"missing email", "alice", "", "secret1", ErrMissingFields},
		{"missing password", "alice", "a@x.com", "", ErrMissingFields},
		{"bad email", "alice", "not-an-email", "secret1", ErrInvalidEmail},
		{"short password", "alice", "a@x.com", "short", ErrPasswordTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := s.Register(ctx, tc.username, tc.email, tc.password)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRegister_Conflicts(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	register(t, s, "alice", "a@x.com", "secret1")

	// same email, different username
	_, _, err := s.Register(ctx, "bob", "a@x.com", "secret1")
	assert.ErrorIs(t, err, ErrUserExists)

	// same username, different email
	_, _, err = s.Register(ctx, "alice", "b@x.com", "secret1")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegister_StoreLevelDuplicate(t *testing.T) {
	// Even if the pre-checks pass, a duplicate from the store's unique
	// index surfaces as a conflict.
	s, repo := newTestService()
	ctx := context.Background()
	register(t, s, "alice", "a@x.com", "secret1")

	// Bypass the service to simulate the race: the record exists by the
	// time Create runs.
	err := repo.Create(ctx, &entity.User{Username: "alice", Email: "other@x.com", Password: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestLogin_DoesNotLeakExistence(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	register(t, s, "alice", "a@x.com", "secret1")

	_, _, errWrongPassword := s.Login(ctx, "a@x.com", "wrong")
	_, _, errNoSuchUser := s.Login(ctx, "nobody@x.com", "secret1")

	require.Error(t, errWrongPassword)
	require.Error(t, errNoSuchUser)
	assert.Equal(t, errWrongPassword.Error(), errNoSuchUser.Error())
	assert.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, errNoSuchUser, ErrInvalidCredentials)
}

func TestLogin_Success(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	created := register(t, s, "alice", "a@x.com", "secret1")

	u, pair, err := s.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := s.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
}

func TestRefresh(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	u := register(t, s, "alice", "a@x.com", "secret1")

	_, pair, err := s.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	access, exp, err := s.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.True(t, exp.After(time.Now()))

	claims, err := s.JWT.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	// An access token is the wrong kind.
	_, _, err = s.Refresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Garbage is rejected too.
	_, _, err = s.Refresh("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_Expired(t *testing.T) {
	repo := newMemUserRepo()
	jwt := helpers.NewJWTManager("a", "r", time.Minute, -1*time.Second)
	s := NewService(repo, jwt, nil, "", nil, nil, "")

	refresh, _, err := jwt.GenerateRefreshToken("u1")
	require.NoError(t, err)

	_, _, err = s.Refresh(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetProfile(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	u := register(t, s, "alice", "a@x.com", "secret1")

	got, err := s.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = s.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile_TrimsUsername(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	u := register(t, s, "alice", "a@x.com", "secret1")

	got, err := s.UpdateProfile(ctx, u.ID, UpdateProfileInput{Username: "  bob  "})
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.True(t, got.UpdatedAt.After(u.UpdatedAt) || got.UpdatedAt.Equal(u.UpdatedAt))
}

func TestUpdateProfile_Conflicts(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	register(t, s, "bob", "b@x.com", "secret1")
	u := register(t, s, "alice", "a@x.com", "secret1")

	_, err := s.UpdateProfile(ctx, u.ID, UpdateProfileInput{Username: "  bob  "})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = s.UpdateProfile(ctx, u.ID, UpdateProfileInput{Email: "b@x.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	// Setting fields back to their own values is not a conflict.
	got, err := s.UpdateProfile(ctx, u.ID, UpdateProfileInput{Username: "alice", Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestUpdateProfile_Validation(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	u := register(t, s, "alice", "a@x.com", "secret1")

	_, err := s.UpdateProfile(ctx, u.ID, UpdateProfileInput{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	// Whitespace-only fields count as absent.
	_, err = s.UpdateProfile(ctx, u.ID, UpdateProfileInput{Username: "   "})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	_, err = s.UpdateProfile(ctx, u.ID, UpdateProfileInput{Email: "nope"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = s.UpdateProfile(ctx, u.ID, UpdateProfileInput{Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = s.UpdateProfile(ctx, "missing", UpdateProfileInput{Username: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile_PasswordChange(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	u := register(t, s, "alice", "a@x.com", "secret1")

	_, err := s.UpdateProfile(ctx, u.ID, UpdateProfileInput{Password: "secret2"})
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "a@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = s.Login(ctx, "a@x.com", "secret2")
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	u := register(t, s, "alice", "a@x.com", "secret1")

	err := s.ChangePassword(ctx, u.ID, "", "secret2")
	assert.ErrorIs(t, err, ErrMissingFields)

	err = s.ChangePassword(ctx, u.ID, "wrong", "secret2")
	assert.ErrorIs(t, err, ErrWrongPassword)

	// Five characters is one short of the minimum.
	err = s.ChangePassword(ctx, u.ID, "secret1", "five5")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	err = s.ChangePassword(ctx, "missing", "secret1", "secret2")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Six characters is exactly enough.
	err = s.ChangePassword(ctx, u.ID, "secret1", "sixsix")
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "a@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = s.Login(ctx, "a@x.com", "sixsix")
	assert.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	u := register(t, s, "alice", "a@x.com", "secret1")

	err := s.ResetPassword(ctx, u.ID, "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	err = s.ResetPassword(ctx, "missing", "secret2")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = s.ResetPassword(ctx, u.ID, "secret2")
	require.NoError(t, err)
	_, _, err = s.Login(ctx, "a@x.com", "secret2")
	assert.NoError(t, err)
}
