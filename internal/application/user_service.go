package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haitrvn/gutcare/internal/domain/entity"
	repo "github.com/haitrvn/gutcare/internal/domain/repository"
	"github.com/haitrvn/gutcare/internal/infrastructure/gemini"
	"github.com/haitrvn/gutcare/pkg/helpers"
	"github.com/haitrvn/gutcare/pkg/secrets"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoAPIKey           = errors.New("no api key configured")
)

// Generator is the one capability the proxy endpoints need from the AI side.
type Generator interface {
	GenerateContent(ctx context.Context, parts []gemini.Part, schema *gemini.Schema) (string, error)
}

// Service owns every mutation of the user record: registration, credential
// checks, profile and symptom writes, and the encrypted Gemini key. Plaintext
// keys exist only inside AIClientFor and the client it returns.
type Service struct {
	Users    repo.UserRepository
	Symptoms repo.SymptomRepository
	JWT      *helpers.JWTManager
	Cipher   *secrets.Cipher
	Logger   *logrus.Logger

	// NewAI builds the AI client for a decrypted key; tests swap it out.
	NewAI func(apiKey string) Generator
}

func NewService(users repo.UserRepository, symptoms repo.SymptomRepository, jwt *helpers.JWTManager, cphr *secrets.Cipher, logger *logrus.Logger, model string) *Service {
	return &Service{
		Users:    users,
		Symptoms: symptoms,
		JWT:      jwt,
		Cipher:   cphr,
		Logger:   logger,
		NewAI: func(apiKey string) Generator {
			return gemini.NewClient(apiKey, model)
		},
	}
}

// Register creates a user with a bcrypt-hashed password. Registration is
// strict: a password is always required, and login never auto-provisions a
// record. Duplicate emails surface ErrEmailTaken straight from the storage
// uniqueness constraint, so concurrent registrations cannot both win.
func (s *Service) Register(ctx context.Context, email, password string) error {
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return err
	}
	u := &entity.User{Email: email, PasswordHash: &hash}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		s.logError("register", email, err)
		return err
	}
	return nil
}

// LoginResult is what a successful authentication hands back: a bearer token
// plus the user summary the frontend boots from. Key material never appears
// here, only the HasAPIKey flag.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Email     string
	Profile   json.RawMessage
	HasAPIKey bool
	Symptoms  []json.RawMessage
}

// Login verifies the password and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logError("login", email, err)
		return nil, err
	}
	if u.PasswordHash == nil || !helpers.CompareHashAndPassword(*u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.JWT.GenerateToken(u.Email)
	if err != nil {
		s.logError("login", email, err)
		return nil, err
	}

	symptoms, err := s.Symptoms.ListByUser(ctx, u.Email)
	if err != nil {
		s.logError("login", email, err)
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: exp,
		Email:     u.Email,
		Profile:   u.Profile,
		HasAPIKey: u.HasAPIKey(),
		Symptoms:  symptoms,
	}, nil
}

// SetAPIKey encrypts the plaintext Gemini key and overwrites the stored blob.
func (s *Service) SetAPIKey(ctx context.Context, email, apiKey string) error {
	blob, err := s.Cipher.Encrypt(apiKey)
	if err != nil {
		s.logError("set_api_key", email, err)
		return err
	}
	if err := s.Users.UpdateEncryptedKey(ctx, email, blob); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		s.logError("set_api_key", email, err)
		return err
	}
	return nil
}

// AIClientFor decrypts the user's stored key and returns a ready AI client.
// The plaintext key lives only inside the returned client, for the one
// downstream call the caller is about to make. A decryption failure comes
// back as secrets.ErrDecrypt: the stored blob is unusable and the user must
// re-enter the key.
func (s *Service) AIClientFor(ctx context.Context, email string) (Generator, error) {
	u, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoAPIKey
		}
		s.logError("ai_client", email, err)
		return nil, err
	}
	if !u.HasAPIKey() {
		return nil, ErrNoAPIKey
	}
	apiKey, err := s.Cipher.Decrypt(*u.EncryptedGeminiKey)
	if err != nil {
		s.logError("ai_client", email, err)
		return nil, err
	}
	return s.NewAI(apiKey), nil
}

// UpdateProfile stores the opaque profile document and echoes the persisted
// value.
func (s *Service) UpdateProfile(ctx context.Context, email string, profile json.RawMessage) (json.RawMessage, error) {
	stored, err := s.Users.UpdateProfile(ctx, email, profile)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logError("update_profile", email, err)
		return nil, err
	}
	return stored, nil
}

// AddSymptom appends one diary entry and returns the full ordered history.
func (s *Service) AddSymptom(ctx context.Context, email string, id string, logData json.RawMessage) ([]json.RawMessage, error) {
	entry := &entity.Symptom{ID: id, UserEmail: email, LogData: logData}
	if err := s.Symptoms.Add(ctx, entry); err != nil {
		s.logError("add_symptom", email, err)
		return nil, err
	}
	history, err := s.Symptoms.ListByUser(ctx, email)
	if err != nil {
		s.logError("add_symptom", email, err)
		return nil, err
	}
	return history, nil
}

// logError records identity and operation only. Payloads, passwords, and key
// material must never reach the log.
func (s *Service) logError(op, email string, err error) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(logrus.Fields{"op": op, "email": email}).Error("operation failed")
}
