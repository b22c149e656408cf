package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pisos_storefront/internal/models"

	"go.uber.org/zap"
)

// UserStore holds the logged-in user of one session. It is created when the
// session starts, refreshed by storage events and cleared on logout.
type UserStore struct {
	storage *SessionStorage
	log     *zap.Logger

	mu   sync.RWMutex
	user *models.User
}

func NewUserStore(storage *SessionStorage, log *zap.Logger) *UserStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserStore{storage: storage, log: log}
}

// Load reads the user from storage. A missing or unreadable record leaves
// the store logged out.
func (u *UserStore) Load(ctx context.Context) error {
	var user models.User
	err := u.storage.GetJSON(ctx, KeyUser, &user)
	switch {
	case errors.Is(err, ErrNotFound):
		u.set(nil)
		return nil
	case errors.Is(err, ErrDecode):
		u.log.Warn("stored user unreadable, treating session as logged out",
			zap.String("session_id", u.storage.ID()), zap.Error(err))
		u.set(nil)
		return nil
	case err != nil:
		return err
	}
	u.set(&user)
	return nil
}

func (u *UserStore) set(user *models.User) {
	u.mu.Lock()
	u.user = user
	u.mu.Unlock()
}

// Current returns a copy of the user, or nil when logged out.
func (u *UserStore) Current() *models.User {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.user == nil {
		return nil
	}
	cp := *u.user
	return &cp
}

// Token returns the backend bearer token, "" when logged out.
func (u *UserStore) Token(ctx context.Context) (string, error) {
	tok, err := u.storage.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return tok, err
}

func (u *UserStore) UserID(ctx context.Context) (string, error) {
	id, err := u.storage.Get(ctx, KeyUserID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return id, err
}

func (u *UserStore) Login(ctx context.Context, res models.AuthResult) error {
	if res.Token == "" {
		return errors.New("login without token")
	}
	if err := u.storage.Set(ctx, KeyToken, res.Token); err != nil {
		return err
	}
	if err := u.storage.Set(ctx, KeyUserID, res.UserID); err != nil {
		return err
	}
	if err := u.storage.SetJSON(ctx, KeyUser, res.User); err != nil {
		return err
	}
	user := res.User
	u.set(&user)
	return nil
}

func (u *UserStore) Logout(ctx context.Context) error {
	if err := u.storage.Delete(ctx, KeyToken, KeyUser, KeyUserID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	u.set(nil)
	return nil
}

// Apply reloads the user when ev touches the session identity and reports
// whether it did.
func (u *UserStore) Apply(ctx context.Context, ev Event) (bool, error) {
	if ev.Key != KeyUser && ev.Key != KeyToken {
		return false, nil
	}
	return true, u.Load(ctx)
}

// Watch blocks until ctx is done, calling onChange after every identity
// change seen on the session channel.
func (u *UserStore) Watch(ctx context.Context, onChange func(*models.User)) error {
	sub, err := u.storage.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			changed, err := u.Apply(ctx, ev)
			if err != nil {
				u.log.Warn("user refresh failed", zap.Error(err))
				continue
			}
			if changed {
				onChange(u.Current())
			}
		}
	}
}
