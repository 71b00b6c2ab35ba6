package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront-api/internal/core/errx"
	"storefront-api/internal/models"
	"storefront-api/internal/simulate"
	"storefront-api/internal/storage"
)

const demoAvatar = "https://images.pexels.com/photos/1043471/pexels-photo-1043471.jpeg?auto=compress&cs=tinysrgb&w=150"

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotSignedIn          = errors.New("not signed in")
)

// AuthService is a mock sign-in backed by one JSON user record per session.
type AuthService struct {
	slots       storage.Store
	ttl         time.Duration
	loginDelay  time.Duration
	updateDelay time.Duration
	now         func() time.Time
}

func NewAuthService(slots storage.Store, ttl, loginDelay, updateDelay time.Duration) *AuthService {
	return &AuthService{
		slots:       slots,
		ttl:         ttl,
		loginDelay:  loginDelay,
		updateDelay: updateDelay,
		now:         time.Now,
	}
}

func userKey(sessionID string) string {
	return fmt.Sprintf("session:%s:user", sessionID)
}

// Current returns the signed-in user, or nil when the session is anonymous.
func (s *AuthService) Current(ctx context.Context, sessionID string) (*models.User, error) {
	raw, err := s.slots.Get(ctx, userKey(sessionID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		// An unreadable record is treated as signed out.
		_ = s.slots.Delete(ctx, userKey(sessionID))
		return nil, nil
	}
	return &user, nil
}

func (s *AuthService) State(ctx context.Context, sessionID string) (models.AuthState, error) {
	user, err := s.Current(ctx, sessionID)
	if err != nil {
		return models.AuthState{}, err
	}
	return models.AuthState{Authenticated: user != nil, User: user}, nil
}

func (s *AuthService) save(ctx context.Context, sessionID string, user *models.User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return s.slots.Set(ctx, userKey(sessionID), b, s.ttl)
}

func validCredentials(email, password string) bool {
	if strings.TrimSpace(password) == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == strings.TrimSpace(email)
}

func authFailed() error {
	return errx.Unauthorized(ErrAuthenticationFailed, ErrAuthenticationFailed.Error())
}

// Login signs the session in as the demo user after a simulated round trip.
// The user record is written only once the round trip has succeeded.
func (s *AuthService) Login(ctx context.Context, sessionID string, req models.LoginRequest) (*models.User, error) {
	user, err := simulate.Do(ctx, s.loginDelay, func() (*models.User, error) {
		if !validCredentials(req.Email, req.Password) {
			return nil, authFailed()
		}
		user := &models.User{
			ID:        "1",
			Email:     strings.TrimSpace(req.Email),
			FirstName: "John",
			LastName:  "Doe",
			Avatar:    demoAvatar,
			Addresses: []models.Address{},
			Orders:    []models.Order{},
			Wishlist:  []string{},
			CreatedAt: s.now().UTC(),
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Register(ctx context.Context, sessionID string, req models.RegisterRequest) (*models.User, error) {
	user, err := simulate.Do(ctx, s.loginDelay, func() (*models.User, error) {
		if !validCredentials(req.Email, req.Password) ||
			strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
			return nil, authFailed()
		}
		now := s.now().UTC()
		user := &models.User{
			ID:        strconv.FormatInt(now.UnixMilli(), 10),
			Email:     strings.TrimSpace(req.Email),
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Addresses: []models.Address{},
			Orders:    []models.Order{},
			Wishlist:  []string{},
			CreatedAt: now,
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.slots.Delete(ctx, userKey(sessionID))
}

// mutate loads the signed-in user, applies fn and writes the record back.
func (s *AuthService) mutate(ctx context.Context, sessionID string, fn func(*models.User) error) (*models.User, error) {
	user, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errx.Unauthorized(ErrNotSignedIn, "sign in required")
	}
	if err := fn(user); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile merges the non-empty fields of patch into the user once the
// simulated round trip has finished.
func (s *AuthService) UpdateProfile(ctx context.Context, sessionID string, patch models.ProfilePatch) (*models.User, error) {
	if _, err := simulate.Do(ctx, s.updateDelay, func() (struct{}, error) { return struct{}{}, nil }); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(u *models.User) error {
		if patch.Email != "" {
			if _, err := mail.ParseAddress(patch.Email); err != nil {
				return errx.Validation("profile update rejected", map[string]string{"email": "Email is invalid"})
			}
			u.Email = patch.Email
		}
		if patch.FirstName != "" {
			u.FirstName = patch.FirstName
		}
		if patch.LastName != "" {
			u.LastName = patch.LastName
		}
		if patch.Avatar != "" {
			u.Avatar = patch.Avatar
		}
		if patch.Addresses != nil {
			addrs := make([]models.Address, len(patch.Addresses))
			copy(addrs, patch.Addresses)
			for i := range addrs {
				if addrs[i].ID == "" {
					addrs[i].ID = uuid.NewString()
				}
			}
			u.Addresses = addrs
		}
		return nil
	})
}

func (s *AuthService) AddToWishlist(ctx context.Context, sessionID, productID string) (*models.User, error) {
	return s.mutate(ctx, sessionID, func(u *models.User) error {
		if !slices.Contains(u.Wishlist, productID) {
			u.Wishlist = append(u.Wishlist, productID)
		}
		return nil
	})
}

func (s *AuthService) RemoveFromWishlist(ctx context.Context, sessionID, productID string) (*models.User, error) {
	return s.mutate(ctx, sessionID, func(u *models.User) error {
		u.Wishlist = slices.DeleteFunc(u.Wishlist, func(id string) bool { return id == productID })
		if u.Wishlist == nil {
			u.Wishlist = []string{}
		}
		return nil
	})
}

// AppendOrder records a placed order, newest first.
func (s *AuthService) AppendOrder(ctx context.Context, sessionID string, order models.Order) error {
	_, err := s.mutate(ctx, sessionID, func(u *models.User) error {
		u.Orders = append([]models.Order{order}, u.Orders...)
		return nil
	})
	return err
}

func (s *AuthService) Orders(ctx context.Context, sessionID string) ([]models.Order, error) {
	user, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errx.Unauthorized(ErrNotSignedIn, "sign in required")
	}
	if user.Orders == nil {
		return []models.Order{}, nil
	}
	return user.Orders, nil
}
