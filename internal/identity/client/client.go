// Package client adapts the auth service to the session-provider interface
// the auth state machine consumes. It caches the issued session, refreshes
// it when the access token nears expiry, and fans session transitions out to
// subscribers.
package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tella/app/internal/authstate"
	"tella/app/internal/identity/service"
)

// Client is an in-process session provider backed by the auth service.
type Client struct {
	auth *service.AuthService
	log  *slog.Logger

	mu        sync.Mutex
	session   *authstate.Session
	listeners map[int]func(*authstate.Session)
	nextID    int
}

func New(auth *service.AuthService, log *slog.Logger) *Client {
	return &Client{
		auth:      auth,
		log:       log,
		listeners: make(map[int]func(*authstate.Session)),
	}
}

// SignUp creates an identity without establishing a session.
func (c *Client) SignUp(ctx context.Context, email, password string) (authstate.UserIdentity, error) {
	res, err := c.auth.Register(ctx, email, password)
	if err != nil {
		return authstate.UserIdentity{}, err
	}
	return authstate.UserIdentity{ID: res.UserID, Email: res.Email}, nil
}

// SignInWithPassword authenticates, caches the new session, and notifies
// subscribers. Notification is asynchronous; callers observe the new state
// through their subscription, not the return value.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*authstate.Session, error) {
	res, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	sess := sessionFromResult(res)
	c.setSession(sess)
	return sess, nil
}

// SignOut revokes the cached session at the service and notifies subscribers
// with nil. Without a cached session it is a no-op.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return nil
	}
	if err := c.auth.Logout(ctx, sess.RefreshToken, ""); err != nil {
		return err
	}
	c.setSession(nil)
	return nil
}

// CurrentSession returns the cached session, refreshing it first when the
// access token has expired. A failed refresh clears the cache and yields
// nil, the same as no session.
func (c *Client) CurrentSession(ctx context.Context) (*authstate.Session, error) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return nil, nil
	}
	if sess.ExpiresAt.After(time.Now().UTC()) {
		return sess, nil
	}
	res, err := c.auth.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		c.log.Warn("session refresh failed, dropping session", "user_id", sess.User.ID, "error", err)
		c.setSession(nil)
		return nil, nil
	}
	fresh := sessionFromResult(res)
	c.setSession(fresh)
	return fresh, nil
}

// OnSessionChange registers fn for session transitions. The returned
// function unsubscribes.
func (c *Client) OnSessionChange(fn func(*authstate.Session)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// DeleteIdentity removes the identity. Used to roll back a registration
// whose profile creation failed.
func (c *Client) DeleteIdentity(ctx context.Context, id string) error {
	return c.auth.DeleteUser(ctx, id)
}

func (c *Client) setSession(sess *authstate.Session) {
	c.mu.Lock()
	c.session = sess
	listeners := make([]func(*authstate.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()
	// Deliver off the caller's goroutine: a sign-in returns before its
	// session change lands, and subscribers resolve the state afterwards.
	go func() {
		for _, fn := range listeners {
			fn(sess)
		}
	}()
}

func sessionFromResult(res *service.AuthResult) *authstate.Session {
	return &authstate.Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		User:         authstate.UserIdentity{ID: res.UserID, Email: res.Email},
	}
}
