package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/apidex-io/apidex/internal/domain/entity"
	repo "github.com/apidex-io/apidex/internal/domain/repository"
	"github.com/apidex-io/apidex/pkg/helpers"
)

const minPasswordLen = 6

// Service orchestrates account operations: registration, login, token
// refresh, profile reads and updates, and password changes.
type Service struct {
	Repo         repo.UserRepository
	JWT          *helpers.JWTManager
	GCS          *storage.Client
	GCSBucket    string
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string

	validate *validator.Validate
}

func NewService(repo repo.UserRepository, jwt *helpers.JWTManager, gcs *storage.Client, gcsBucket string, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string) *Service {
	return &Service{
		Repo:         repo,
		JWT:          jwt,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		validate:     validator.New(),
	}
}

func (s *Service) validEmail(email string) bool {
	return s.validate.Var(email, "required,email") == nil
}

// Register creates a new account and issues its first token pair.
// Uniqueness is pre-checked for friendly messages, but the store's unique
// index is what actually guarantees it under concurrent registrations.
func (s *Service) Register(ctx context.Context, username, email, password string) (*entity.User, helpers.TokenPair, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, helpers.TokenPair{}, ErrMissingFields
	}
	if !s.validEmail(email) {
		return nil, helpers.TokenPair{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, helpers.TokenPair{}, ErrPasswordTooShort
	}

	if taken, err := s.Repo.UsernameTaken(ctx, username, ""); err != nil {
		return nil, helpers.TokenPair{}, err
	} else if taken {
		return nil, helpers.TokenPair{}, ErrUserExists
	}
	if taken, err := s.Repo.EmailTaken(ctx, email, ""); err != nil {
		return nil, helpers.TokenPair{}, err
	} else if taken {
		return nil, helpers.TokenPair{}, ErrUserExists
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, helpers.TokenPair{}, err
	}

	u := &entity.User{Username: username, Email: email, Password: hash}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, helpers.TokenPair{}, ErrUserExists
		}
		return nil, helpers.TokenPair{}, err
	}

	pair, err := s.JWT.GeneratePair(u.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token pair failed")
		}
		return nil, helpers.TokenPair{}, err
	}

	_ = s.indexUser(ctx, u)
	return u, pair, nil
}

// Login validates email/password and issues a fresh token pair. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, helpers.TokenPair, error) {
	if email == "" || password == "" {
		return nil, helpers.TokenPair{}, ErrMissingFields
	}
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, helpers.TokenPair{}, ErrInvalidCredentials
	}
	if !helpers.CheckPassword(u.Password, password) {
		return nil, helpers.TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.JWT.GeneratePair(u.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token pair failed")
		}
		return nil, helpers.TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token is neither rotated nor stored; validity is signature plus expiry.
func (s *Service) Refresh(refreshToken string) (string, time.Time, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}
	return s.JWT.GenerateAccessToken(claims.UserID)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfileInput carries optional profile changes; empty strings mean
// "leave as is".
type UpdateProfileInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfile applies the provided fields in one write. Username and email
// conflicts are each checked against all other users independently.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}

	patch := repo.UserPatch{}

	if username := strings.TrimSpace(in.Username); username != "" {
		taken, err := s.Repo.UsernameTaken(ctx, username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
		patch.Username = &username
	}

	if email := strings.TrimSpace(in.Email); email != "" {
		if !s.validEmail(email) {
			return nil, ErrInvalidEmail
		}
		taken, err := s.Repo.EmailTaken(ctx, email, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
		patch.Email = &email
	}

	if in.Password != "" {
		if len(in.Password) < minPasswordLen {
			return nil, ErrPasswordTooShort
		}
		hash, err := helpers.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		patch.Password = &hash
	}

	if patch.Username == nil && patch.Email == nil && patch.Password == nil {
		return nil, ErrNoFieldsToUpdate
	}

	if err := s.Repo.UpdateFields(ctx, userID, patch); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUserExists
		}
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	updated, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	_ = s.indexUser(ctx, updated)
	return updated, nil
}

// ChangePassword verifies the current password before storing a new hash.
// No new tokens are issued.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return ErrUserNotFound
	}
	if !helpers.CheckPassword(u.Password, currentPassword) {
		return ErrWrongPassword
	}
	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Repo.UpdateFields(ctx, userID, repo.UserPatch{Password: &hash})
}

// ResetPassword stores a new hash for a user identified out-of-band (the
// reset-token flow resolves the user before calling this).
func (s *Service) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdateFields(ctx, userID, repo.UserPatch{Password: &hash}); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// UploadAvatar stores the image in GCS and saves the public URL on the user.
func (s *Service) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return "", ErrUserNotFound
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	if err := s.Repo.UpdateFields(ctx, userID, repo.UserPatch{AvatarURL: &url}); err != nil {
		return "", err
	}
	if updated, err := s.Repo.GetByID(ctx, userID); err == nil {
		_ = s.indexUser(ctx, updated)
	}
	return url, nil
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	// Password hash never goes near the index.
	doc := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// SearchUsers performs a simple multi_match search on username and email.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "email"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
