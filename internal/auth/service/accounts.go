package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/domain"
	"github.com/sendhello/auth-service/internal/auth/session"
	"github.com/sendhello/auth-service/internal/auth/store"
	"github.com/sendhello/auth-service/pkg/cryptox"
	"github.com/sendhello/auth-service/pkg/idx"
	"github.com/sendhello/auth-service/pkg/slogx"
)

const (
	minPasswordLength = 8
	maxUserAgent      = 255
	maxPageSize       = 100
)

// AccountService owns credentials, profile data and sign-in history.
type AccountService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
}

type SignupInput struct {
	Email          string
	Login          string
	Password       string
	RepeatPassword string
	FirstName      string
	LastName       string
	Phone          string
}

// ProfileUpdate carries the fields to change; nil leaves a field untouched.
// CurrentPassword is always required.
type ProfileUpdate struct {
	Login           *string
	FirstName       *string
	LastName        *string
	Phone           *string
	CurrentPassword string
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email is not a valid address")
	}
	return email, nil
}

// validatePhone accepts local numbers: a leading 0 and 10 to 15 characters.
func validatePhone(phone string) error {
	if !strings.HasPrefix(phone, "0") {
		return invalid("phone number must start with 0")
	}
	if n := utf8.RuneCountInString(phone); n < 10 || n > 15 {
		return invalid("phone number must be between 10 and 15 characters long")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

// Signup registers a new active user without any memberships.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (domain.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return domain.User{}, err
	}
	if in.Password != in.RepeatPassword {
		return domain.User{}, invalid("passwords do not match")
	}
	if err := validatePassword(in.Password); err != nil {
		return domain.User{}, err
	}
	if err := validatePhone(in.Phone); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.New(),
		Email:        email,
		Login:        strings.TrimSpace(in.Login),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        in.Phone,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Authenticate checks email and password and returns the user with current
// memberships. Unknown email and wrong password are indistinguishable.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		// Spend the same hashing time as a real check.
		_ = s.Hasher.Verify(password, dummyHash)
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}

	if err := s.Hasher.Verify(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrMismatchedPassword) {
			slogx.FromContext(ctx).Error("stored password hash unusable",
				slog.String("user_id", user.ID.String()), slog.Any("err", err))
		}
		return domain.User{}, ErrInvalidCredentials
	}
	if user.Status != domain.UserStatusActive {
		return domain.User{}, session.ErrAccountInactive
	}

	if s.Hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user.ID, password)
	}

	return s.withMemberships(ctx, s.Store, user)
}

// dummyHash is verified against when the email is unknown.
const dummyHash = "$argon2id$v=19$m=19456,t=2,p=1$c29tZXNhbHRzb21lc2FsdA$mG4YDHHvXlbGs2Y6X1HaEtrLCa6yqfCgS/FgxAmKOaM"

func (s *AccountService) rehash(ctx context.Context, userID uuid.UUID, password string) {
	hash, err := s.Hasher.Hash(password)
	if err == nil {
		err = s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		slogx.FromContext(ctx).Warn("password rehash failed", slog.String("user_id", userID.String()), slog.Any("err", err))
	}
}

// UserWithMemberships loads the user and every membership they hold.
func (s *AccountService) UserWithMemberships(ctx context.Context, id uuid.UUID) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// keep store.ErrNotFound visible to session rotation
		return domain.User{}, fmt.Errorf("%w: %w", ErrUserNotFound, err)
	}
	if err != nil {
		return domain.User{}, err
	}
	return s.withMemberships(ctx, s.Store, user)
}

func (s *AccountService) withMemberships(ctx context.Context, st store.Store, user domain.User) (domain.User, error) {
	ms, err := st.Memberships().ListUserMemberships(ctx, user.ID)
	if err != nil {
		return domain.User{}, err
	}
	user.Memberships = ms
	return user, nil
}

// RecordLogin appends a sign-in history entry.
func (s *AccountService) RecordLogin(ctx context.Context, userID uuid.UUID, userAgent string) error {
	if len(userAgent) > maxUserAgent {
		userAgent = strings.ToValidUTF8(userAgent[:maxUserAgent], "")
	}
	return s.Store.History().RecordLogin(ctx, domain.LoginEvent{
		ID:        idx.New().String(),
		UserID:    userID,
		UserAgent: userAgent,
	})
}

// History returns one page (1-based) of the user's sign-ins, newest first.
func (s *AccountService) History(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.LoginEvent, error) {
	offset, err := pageOffset(page, pageSize)
	if err != nil {
		return nil, err
	}
	events, err := s.Store.History().ListLogins(ctx, userID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.LoginEvent{}
	}
	return events, nil
}

// pageOffset validates a 1-based page and its size and returns the row offset.
func pageOffset(page, pageSize int) (int, error) {
	if page < 1 {
		return 0, invalid("page must be at least 1")
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return 0, invalid(fmt.Sprintf("page_size must be between 1 and %d", maxPageSize))
	}
	return (page - 1) * pageSize, nil
}

// ListUsers returns one page (1-based) of all accounts, oldest first.
func (s *AccountService) ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, error) {
	offset, err := pageOffset(page, pageSize)
	if err != nil {
		return nil, err
	}
	users, err := s.Store.Users().ListUsers(ctx, pageSize, offset)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// GetUser loads any account by id.
func (s *AccountService) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return user, err
}

// DeleteUser removes the account id together with its memberships and
// sign-in history. actorID may not delete itself. Outstanding refresh tokens
// stop working at once; access tokens run out on their own.
func (s *AccountService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return invalid("cannot delete your own account")
	}
	err := s.Store.Users().DeleteUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("user deleted",
		slog.String("user_id", id.String()),
		slog.String("deleted_by", actorID.String()),
	)
	return nil
}

// UpdateProfile changes personal data after re-checking the password.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (domain.User, error) {
	user, err := s.checkPassword(ctx, userID, upd.CurrentPassword)
	if err != nil {
		return domain.User{}, err
	}

	if upd.Login != nil {
		user.Login = strings.TrimSpace(*upd.Login)
	}
	if upd.FirstName != nil {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Phone != nil {
		if err := validatePhone(*upd.Phone); err != nil {
			return domain.User{}, err
		}
		user.Phone = *upd.Phone
	}

	if err := s.Store.Users().UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, err
	}
	return user, nil
}

// ChangePassword replaces the password after re-checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if _, err := s.checkPassword(ctx, userID, current); err != nil {
		return err
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := s.Hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password changed", slog.String("user_id", userID.String()))
	return nil
}

func (s *AccountService) checkPassword(ctx context.Context, userID uuid.UUID, password string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Hasher.Verify(password, user.PasswordHash); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}
