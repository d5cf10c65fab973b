package backendtest

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

const (
	accessLifetime  = 5 * time.Minute
	refreshLifetime = 7 * 24 * time.Hour
)

type account struct {
	user     domain.User
	password string
}

// AddUser registers an account directly, bypassing the HTTP API.
func (b *Backend) AddUser(email, password, firstName, lastName string) domain.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUser(domain.RegisterRequest{
		Username:  email,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Password:  password,
	})
}

func (b *Backend) addUser(req domain.RegisterRequest) domain.User {
	id := len(b.users) + 1
	u := domain.User{
		ID:         id,
		Username:   req.Username,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Profile:    &domain.UserProfile{Phone: req.Phone},
		DateJoined: time.Now().UTC(),
	}
	b.users[id] = &account{user: u, password: req.Password}
	b.emails[req.Email] = id
	return u
}

// IssueTokens mints a fresh token pair for a user as a login would.
func (b *Backend) IssueTokens(userID int) domain.TokenPair {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issue(userID)
}

// ExpireAccessTokens invalidates every access token issued so far.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.access)
}

// RevokeRefreshTokens invalidates every refresh token issued so far.
func (b *Backend) RevokeRefreshTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.refresh)
}

func (b *Backend) issue(userID int) domain.TokenPair {
	pair := domain.TokenPair{
		Access:  b.sign(userID, "access", accessLifetime),
		Refresh: b.sign(userID, "refresh", refreshLifetime),
	}
	b.access[pair.Access] = userID
	b.refresh[pair.Refresh] = userID
	return pair
}

func (b *Backend) sign(userID int, tokenType string, ttl time.Duration) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"token_type": tokenType,
		"user_id":    userID,
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	})
	s, err := token.SignedString(b.secret)
	if err != nil {
		panic(err)
	}
	return s
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	errs := make(map[string]string)
	required(errs, "username", req.Username)
	required(errs, "email", req.Email)
	required(errs, "password", req.Password)
	required(errs, "password2", req.Password2)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	if req.Password != req.Password2 {
		respondFieldErrors(w, map[string]string{"password": "Passwords do not match."})
		return
	}

	b.mu.Lock()
	if _, taken := b.emails[req.Email]; taken {
		b.mu.Unlock()
		respondFieldErrors(w, map[string]string{"email": "Email already registered."})
		return
	}
	u := b.addUser(req)
	tokens := b.issue(u.ID)
	b.mu.Unlock()

	respondJSON(w, http.StatusCreated, domain.AuthResponse{User: u, Tokens: tokens})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}

	b.mu.Lock()
	id, ok := b.emails[creds.Email]
	acct := b.users[id]
	if !ok || acct.password != creds.Password {
		b.mu.Unlock()
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	tokens := b.issue(id)
	if c, err := r.Cookie(sessionCookie); err == nil {
		b.mergeGuestCart(c.Value, id)
	}
	b.mu.Unlock()

	respondJSON(w, http.StatusOK, domain.AuthResponse{User: acct.user, Tokens: tokens})
}

func (b *Backend) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Refresh == "" {
		respondFieldErrors(w, map[string]string{"refresh": "This field is required."})
		return
	}
	if b.refreshDelay > 0 {
		time.Sleep(b.refreshDelay)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	userID, ok := b.refresh[req.Refresh]
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}

	out := map[string]string{"access": b.sign(userID, "access", accessLifetime)}
	b.access[out["access"]] = userID
	if b.rotateRefresh {
		out["refresh"] = b.sign(userID, "refresh", refreshLifetime)
		b.refresh[out["refresh"]] = userID
		delete(b.refresh, req.Refresh)
	}
	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) profile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	u := b.users[getUserID(r.Context())].user
	b.mu.Unlock()
	respondJSON(w, http.StatusOK, u)
}

func (b *Backend) updateProfile(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProfileUpdate
	if !decodeBody(w, r, &patch) {
		return
	}

	b.mu.Lock()
	acct := b.users[getUserID(r.Context())]
	u := &acct.user
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.FirstName, patch.FirstName)
	set(&u.LastName, patch.LastName)
	set(&u.Email, patch.Email)
	if u.Profile == nil {
		u.Profile = &domain.UserProfile{}
	}
	set(&u.Profile.Phone, patch.Phone)
	set(&u.Profile.Address, patch.Address)
	set(&u.Profile.City, patch.City)
	set(&u.Profile.County, patch.County)
	out := *u
	b.mu.Unlock()

	respondJSON(w, http.StatusOK, out)
}
