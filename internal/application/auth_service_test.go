package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type credentialStoreStub struct {
	creds    UserCredentials
	credsErr error

	user    User
	userErr error
}

func (c *credentialStoreStub) GetUserByUsername(ctx context.Context, username string) (UserCredentials, error) {
	if c.credsErr != nil {
		return UserCredentials{}, c.credsErr
	}
	return c.creds, nil
}

func (c *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	if c.userErr != nil {
		return User{}, c.userErr
	}
	return c.user, nil
}

type sessionRepoStub struct {
	created   Session
	createErr error

	session Session
	getErr  error

	revoked   Session
	revokeErr error

	pruned   bool
	pruneErr error
}

func (r *sessionRepoStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if r.createErr != nil {
		return Session{}, r.createErr
	}
	r.created = session
	return session, nil
}

func (r *sessionRepoStub) GetSession(ctx context.Context, token string) (Session, error) {
	if r.getErr != nil {
		return Session{}, r.getErr
	}
	return r.session, nil
}

func (r *sessionRepoStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	if r.revokeErr != nil {
		return Session{}, r.revokeErr
	}
	r.revoked = Session{Token: token, RevokedAt: &revokedAt}
	return r.revoked, nil
}

func (r *sessionRepoStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if r.pruneErr != nil {
		return r.pruneErr
	}
	r.pruned = true
	return nil
}

func verifyAlways(hashedPassword, password string) error { return nil }

func activeCredentials() UserCredentials {
	return UserCredentials{
		User:         User{ID: "user-1", Username: "ana.lima", Role: RoleMaintainer, Status: UserStatusActive},
		PasswordHash: "stored-hash",
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

	t.Run("rejects empty credentials", func(t *testing.T) {
		svc := NewAuthService(&credentialStoreStub{}, &sessionRepoStub{}, verifyAlways, nil, nil, 0)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Username: "", Password: ""})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("masks unknown usernames as invalid credentials", func(t *testing.T) {
		store := &credentialStoreStub{credsErr: ErrNotFound}
		svc := NewAuthService(store, &sessionRepoStub{}, verifyAlways, nil, nil, 0)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Username: "ghost", Password: "pass"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects inactive accounts", func(t *testing.T) {
		creds := activeCredentials()
		creds.User.Status = UserStatusInactive
		svc := NewAuthService(&credentialStoreStub{creds: creds}, &sessionRepoStub{}, verifyAlways, nil, nil, 0)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Username: "ana.lima", Password: "pass"})
		if !errors.Is(err, ErrAccountInactive) {
			t.Fatalf("expected ErrAccountInactive, got %v", err)
		}
	})

	t.Run("rejects failed verification", func(t *testing.T) {
		verify := func(hashedPassword, password string) error { return ErrInvalidCredentials }
		svc := NewAuthService(&credentialStoreStub{creds: activeCredentials()}, &sessionRepoStub{}, verify, nil, nil, 0)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Username: "ana.lima", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("issues a session with the configured TTL", func(t *testing.T) {
		sessions := &sessionRepoStub{}
		seq := 0
		tokenGen := func() string {
			seq++
			if seq == 1 {
				return "session-1"
			}
			return "token-1"
		}
		svc := NewAuthService(&credentialStoreStub{creds: activeCredentials()}, sessions, verifyAlways, tokenGen, func() time.Time { return now }, 2*time.Hour)

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Username: "  Ana.Lima ", Password: "pass"})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if result.Session.ID != "session-1" || result.Session.Token != "token-1" {
			t.Fatalf("expected generated identifiers, got %+v", result.Session)
		}
		if !result.Session.ExpiresAt.Equal(now.Add(2 * time.Hour)) {
			t.Fatalf("expected TTL applied, got %v", result.Session.ExpiresAt)
		}
		if !sessions.pruned {
			t.Fatalf("expected expired sessions to be pruned")
		}
		if result.User.ID != "user-1" {
			t.Fatalf("expected authenticated user, got %+v", result.User)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	activeUser := User{ID: "user-1", Role: RoleAdmin, Status: UserStatusActive}

	t.Run("rejects empty tokens", func(t *testing.T) {
		svc := NewAuthService(&credentialStoreStub{}, &sessionRepoStub{}, verifyAlways, nil, nil, 0)

		_, err := svc.ValidateSession(context.Background(), "   ")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("maps unknown tokens to ErrUnauthorized", func(t *testing.T) {
		sessions := &sessionRepoStub{getErr: ErrNotFound}
		svc := NewAuthService(&credentialStoreStub{user: activeUser}, sessions, verifyAlways, nil, nil, 0)

		_, err := svc.ValidateSession(context.Background(), "token-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects revoked sessions", func(t *testing.T) {
		revokedAt := now.Add(-time.Hour)
		sessions := &sessionRepoStub{session: Session{ID: "session-1", UserID: "user-1", Token: "token-1", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}}
		svc := NewAuthService(&credentialStoreStub{user: activeUser}, sessions, verifyAlways, nil, func() time.Time { return now }, 0)

		_, err := svc.ValidateSession(context.Background(), "token-1")
		if !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("rejects expired sessions", func(t *testing.T) {
		sessions := &sessionRepoStub{session: Session{ID: "session-1", UserID: "user-1", Token: "token-1", ExpiresAt: now.Add(-time.Minute)}}
		svc := NewAuthService(&credentialStoreStub{user: activeUser}, sessions, verifyAlways, nil, func() time.Time { return now }, 0)

		_, err := svc.ValidateSession(context.Background(), "token-1")
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("rejects sessions of inactive accounts", func(t *testing.T) {
		inactive := activeUser
		inactive.Status = UserStatusInactive
		sessions := &sessionRepoStub{session: Session{ID: "session-1", UserID: "user-1", Token: "token-1", ExpiresAt: now.Add(time.Hour)}}
		svc := NewAuthService(&credentialStoreStub{user: inactive}, sessions, verifyAlways, nil, func() time.Time { return now }, 0)

		_, err := svc.ValidateSession(context.Background(), "token-1")
		if !errors.Is(err, ErrAccountInactive) {
			t.Fatalf("expected ErrAccountInactive, got %v", err)
		}
	})

	t.Run("returns the principal for active sessions", func(t *testing.T) {
		sessions := &sessionRepoStub{session: Session{ID: "session-1", UserID: "user-1", Token: "token-1", ExpiresAt: now.Add(time.Hour)}}
		svc := NewAuthService(&credentialStoreStub{user: activeUser}, sessions, verifyAlways, nil, func() time.Time { return now }, 0)

		principal, err := svc.ValidateSession(context.Background(), "token-1")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if principal.UserID != "user-1" || principal.Role != RoleAdmin {
			t.Fatalf("unexpected principal: %+v", principal)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Run("maps unknown tokens to invalid credentials", func(t *testing.T) {
		sessions := &sessionRepoStub{revokeErr: ErrNotFound}
		svc := NewAuthService(&credentialStoreStub{}, sessions, verifyAlways, nil, nil, 0)

		err := svc.RevokeSession(context.Background(), "token-1")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("revokes and prunes", func(t *testing.T) {
		sessions := &sessionRepoStub{}
		svc := NewAuthService(&credentialStoreStub{}, sessions, verifyAlways, nil, nil, 0)

		if err := svc.RevokeSession(context.Background(), " token-1 "); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if sessions.revoked.Token != "token-1" {
			t.Fatalf("expected trimmed token, got %q", sessions.revoked.Token)
		}
		if !sessions.pruned {
			t.Fatalf("expected expired sessions to be pruned")
		}
	})
}
