package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// PersistentJar is a cookie jar whose cookies for one API origin survive
// between CLI invocations. Every change the server makes to those cookies is
// written through to the SessionStore.
type PersistentJar struct {
	mu        sync.Mutex
	inner     *cookiejar.Jar
	store     SessionStore
	serverURL string
	origin    *url.URL
	cookies   map[string]StoredCookie
	logger    zerolog.Logger
	now       func() time.Time
}

// NewPersistentJar restores the stored session for serverURL into a fresh jar.
// A keychain that cannot be read yields an empty jar rather than an error.
func NewPersistentJar(serverURL string, store SessionStore, logger zerolog.Logger) (*PersistentJar, error) {
	origin, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}

	inner, err := newCookieJar()
	if err != nil {
		return nil, err
	}

	j := &PersistentJar{
		inner:     inner,
		store:     store,
		serverURL: serverURL,
		origin:    origin,
		cookies:   make(map[string]StoredCookie),
		logger:    logger,
		now:       time.Now,
	}

	stored, err := store.LoadCookies(serverURL)
	switch {
	case errors.Is(err, ErrNotAuthenticated):
	case err != nil:
		logger.Warn().Err(err).Str("server", serverURL).Msg("Could not restore session cookies")
	default:
		j.restore(stored)
	}

	return j, nil
}

func newCookieJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return jar, nil
}

func (j *PersistentJar) restore(stored []StoredCookie) {
	now := j.now()
	restored := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		if c.Expired(now) {
			continue
		}
		j.cookies[c.Name] = c
		restored = append(restored, &http.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    "/",
			Expires: c.Expires,
		})
	}
	j.inner.SetCookies(j.origin, restored)
}

// SetCookies implements http.CookieJar
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)

	if u.Hostname() != j.origin.Hostname() || len(cookies) == 0 {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	for _, c := range cookies {
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		entry := StoredCookie{Name: c.Name, Value: c.Value, Expires: expires}
		if c.MaxAge < 0 || entry.Expired(now) {
			delete(j.cookies, c.Name)
			continue
		}
		j.cookies[c.Name] = entry
	}

	if err := j.persist(); err != nil {
		j.logger.Warn().Err(err).Str("server", j.serverURL).Msg("Could not persist session cookies")
	}
}

// Cookies implements http.CookieJar
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

// Clear forgets every cookie of the API origin, in memory and in the store
func (j *PersistentJar) Clear() error {
	current := j.inner.Cookies(j.origin)
	expired := make([]*http.Cookie, 0, len(current))
	for _, c := range current {
		expired = append(expired, &http.Cookie{Name: c.Name, Path: "/", MaxAge: -1})
	}
	j.inner.SetCookies(j.origin, expired)

	j.mu.Lock()
	defer j.mu.Unlock()

	j.cookies = make(map[string]StoredCookie)
	return j.store.DeleteCookies(j.serverURL)
}

// persist must be called with mu held
func (j *PersistentJar) persist() error {
	if len(j.cookies) == 0 {
		return j.store.DeleteCookies(j.serverURL)
	}

	stored := make([]StoredCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		stored = append(stored, c)
	}
	return j.store.SaveCookies(j.serverURL, stored)
}
