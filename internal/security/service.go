package security

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nexuscore/nexus/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

// EventPublisher is the minimal surface the security core needs from the
// event bus, accepted as an interface so this package never imports
// eventbus directly.
type EventPublisher interface {
	Publish(eventType, source string, payload map[string]any) error
}

// Logger is the minimal surface the security core needs from the logging
// facility.
type Logger interface {
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type noopLogger struct{}

func (noopLogger) Info(string, map[string]any)  {}
func (noopLogger) Warn(string, map[string]any)  {}
func (noopLogger) Error(string, map[string]any) {}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, map[string]any) error { return nil }

// Persistence is the minimal surface the security core needs from the
// persisted-state adapter (internal/store), accepted as an interface so
// this package never imports store directly. When set, it makes user and
// permission state survive a restart and records an audit trail of
// security-relevant actions; when nil the core behaves exactly as before,
// holding everything only in process memory.
type Persistence interface {
	SaveUser(ctx context.Context, u User) error
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
	SavePermission(ctx context.Context, p Permission) error
	AppendAudit(ctx context.Context, action, actorID, target string) error
}

type noopPersistence struct{}

func (noopPersistence) SaveUser(context.Context, User) error             { return nil }
func (noopPersistence) ListUsers(context.Context) ([]User, error)        { return nil, nil }
func (noopPersistence) DeleteUser(context.Context, string) error         { return nil }
func (noopPersistence) SavePermission(context.Context, Permission) error { return nil }
func (noopPersistence) AppendAudit(context.Context, string, string, string) error {
	return nil
}

// Options configures a Service.
type Options struct {
	JWTSecret                string
	JWTAlgorithm              string
	AccessTokenExpireMinutes  int
	RefreshTokenExpireDays    int
	PasswordPolicy            PasswordPolicy
	Blacklist                 Blacklist
	EventBus                  EventPublisher
	Logger                    Logger
	Store                     Persistence
	BcryptCost                int
	SkipDefaultAdmin          bool
}

// Service is the security core (C6): user accounts, RBAC permissions, JWT
// issuance/verification, and token revocation.
//
// Matching the original's in-memory default storage, users and permissions
// live in process memory; the persisted-state adapter is wired in by the
// application core when a database is configured.
type Service struct {
	mu             sync.RWMutex
	users          map[string]*User
	usernameToID   map[string]string
	emailToID      map[string]string
	permissions    map[string]*Permission
	activeTokens   map[string][]AuthToken
	activeTokensMu sync.Mutex

	jwtSecret    string
	jwtAlgorithm string
	accessTTL    time.Duration
	refreshTTL   time.Duration
	policy       PasswordPolicy
	bcryptCost   int

	blacklist Blacklist
	events    EventPublisher
	log       Logger
	store     Persistence
}

// New builds a Service and seeds the default permission set. Unless
// SkipDefaultAdmin is set, a default "admin" account with a fixed, well-known
// password is created when no users exist yet — intended for first-run bootstrap only; the caller is
// expected to force a password change immediately.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.EventBus == nil {
		opts.EventBus = noopPublisher{}
	}
	if opts.Blacklist == nil {
		opts.Blacklist = newMemoryBlacklist()
	}
	if opts.Store == nil {
		opts.Store = noopPersistence{}
	}
	if opts.JWTAlgorithm == "" {
		opts.JWTAlgorithm = "HS256"
	}
	if opts.AccessTokenExpireMinutes == 0 {
		opts.AccessTokenExpireMinutes = 30
	}
	if opts.RefreshTokenExpireDays == 0 {
		opts.RefreshTokenExpireDays = 7
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost + 2 // >= 12
	}
	policy := opts.PasswordPolicy
	if policy == (PasswordPolicy{}) {
		policy = DefaultPasswordPolicy()
	}

	s := &Service{
		users:        make(map[string]*User),
		usernameToID: make(map[string]string),
		emailToID:    make(map[string]string),
		permissions:  make(map[string]*Permission),
		activeTokens: make(map[string][]AuthToken),
		jwtSecret:    opts.JWTSecret,
		jwtAlgorithm: opts.JWTAlgorithm,
		accessTTL:    time.Duration(opts.AccessTokenExpireMinutes) * time.Minute,
		refreshTTL:   time.Duration(opts.RefreshTokenExpireDays) * 24 * time.Hour,
		policy:       policy,
		bcryptCost:   opts.BcryptCost,
		blacklist:    opts.Blacklist,
		events:       opts.EventBus,
		log:          opts.Logger,
		store:        opts.Store,
	}

	s.seedDefaultPermissions()
	restored := s.loadFromStore()
	if !restored && !opts.SkipDefaultAdmin {
		s.seedDefaultAdmin()
	}

	return s
}

// loadFromStore restores users persisted by a prior run, reporting whether
// any were found. Called once at construction, before the default-admin
// bootstrap decides whether it still needs to run.
func (s *Service) loadFromStore() bool {
	users, err := s.store.ListUsers(context.Background())
	if err != nil {
		s.log.Error("failed to load persisted users", map[string]any{"error": err.Error()})
		return false
	}
	if len(users) == 0 {
		return false
	}
	for i := range users {
		u := users[i]
		s.users[u.ID] = &u
		s.usernameToID[strings.ToLower(u.Username)] = u.ID
		s.emailToID[strings.ToLower(u.Email)] = u.ID
	}
	s.log.Info("restored users from persistent store", map[string]any{"count": len(users)})
	return true
}

func (s *Service) seedDefaultPermissions() {
	add := func(name, description, resource, action string, roles ...Role) {
		p := &Permission{
			ID:          permissionID(resource, action),
			Name:        name,
			Description: description,
			Resource:    resource,
			Action:      action,
			Roles:       roles,
		}
		s.permissions[p.ID] = p
	}

	add("system.view", "View system information and status", "system", "view", RoleAdmin, RoleOperator, RoleUser)
	add("system.manage", "Manage system configuration and settings", "system", "manage", RoleAdmin)
	add("users.view", "View user information", "users", "view", RoleAdmin, RoleOperator)
	add("users.manage", "Create, update, and delete users", "users", "manage", RoleAdmin)
	add("plugins.view", "View plugin information", "plugins", "view", RoleAdmin, RoleOperator, RoleUser)
	add("plugins.manage", "Install, update, and remove plugins", "plugins", "manage", RoleAdmin)
	add("files.view", "View files and directories", "files", "view", RoleAdmin, RoleOperator, RoleUser, RoleViewer)
	add("files.manage", "Create, update, and delete files", "files", "manage", RoleAdmin, RoleOperator, RoleUser)
}

func (s *Service) seedDefaultAdmin() {
	if len(s.users) > 0 {
		return
	}
	if _, err := s.CreateUser(CreateUserInput{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "Admin123!",
		Roles:    []Role{RoleAdmin},
		Metadata: map[string]any{"default_user": true},
	}); err != nil {
		s.log.Error("failed to create default admin user", map[string]any{"error": err.Error()})
		return
	}
	s.log.Warn("created default admin user with username 'admin' and password 'Admin123!' — change this immediately", nil)
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Roles    []Role
	Metadata map[string]any
}

// CreateUser validates and stores a new account, returning its ID.
func (s *Service) CreateUser(in CreateUserInput) (string, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return "", apperr.New(apperr.KindSecurity, "username, email, and password are required")
	}
	if !isValidUsername(in.Username) {
		return "", apperr.New(apperr.KindSecurity, "invalid username: must be 3-32 characters of letters, numbers, dots, hyphens, underscores")
	}
	if !isValidEmail(in.Email) {
		return "", apperr.New(apperr.KindSecurity, "invalid email address")
	}
	if err := validatePassword(in.Password, s.policy); err != nil {
		return "", apperr.Wrap(apperr.KindSecurity, err, "invalid password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lowerUser := strings.ToLower(in.Username)
	lowerEmail := strings.ToLower(in.Email)
	if _, exists := s.usernameToID[lowerUser]; exists {
		return "", apperr.Newf(apperr.KindSecurity, "username %q already exists", in.Username)
	}
	if _, exists := s.emailToID[lowerEmail]; exists {
		return "", apperr.Newf(apperr.KindSecurity, "email %q already exists", in.Email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return "", apperr.Wrap(apperr.KindSecurity, err, "hash password")
	}

	id := uuid.NewString()
	user := &User{
		ID:             id,
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: string(hashed),
		Roles:          in.Roles,
		Active:         true,
		CreatedAt:      time.Now(),
		Metadata:       in.Metadata,
	}
	if user.Metadata == nil {
		user.Metadata = map[string]any{}
	}

	s.users[id] = user
	s.usernameToID[lowerUser] = id
	s.emailToID[lowerEmail] = id

	if err := s.store.SaveUser(context.Background(), *user); err != nil {
		s.log.Error("failed to persist new user", map[string]any{"error": err.Error(), "user_id": id})
	}
	s.audit(context.Background(), "user.created", id, in.Username)

	s.log.Info("created user", map[string]any{"user_id": id, "username": in.Username})
	roleNames := make([]string, len(in.Roles))
	for i, r := range in.Roles {
		roleNames[i] = string(r)
	}
	_ = s.events.Publish("security/user_created", "security", map[string]any{
		"user_id": id, "username": in.Username, "email": in.Email, "roles": roleNames,
	})

	return id, nil
}

// Authenticate verifies credentials and, on success, issues an access and
// refresh token pair.
func (s *Service) Authenticate(ctx context.Context, usernameOrEmail, password string) (*AuthResult, error) {
	s.mu.RLock()
	user := s.lookupUser(usernameOrEmail)
	s.mu.RUnlock()

	if user == nil {
		s.log.Warn("authentication failed: user not found", map[string]any{"username_or_email": usernameOrEmail})
		return nil, apperr.New(apperr.KindSecurity, "invalid credentials")
	}
	if !user.Active {
		s.log.Warn("authentication failed: user inactive", map[string]any{"user_id": user.ID})
		return nil, apperr.New(apperr.KindSecurity, "invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		s.log.Warn("authentication failed: bad password", map[string]any{"user_id": user.ID})
		return nil, apperr.New(apperr.KindSecurity, "invalid credentials")
	}

	access, err := s.createToken(user.ID, TokenAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.createToken(user.ID, TokenRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.mu.Lock()
	user.LastLogin = &now
	s.mu.Unlock()

	_ = s.events.Publish("security/user_login", "security", map[string]any{
		"user_id": user.ID, "username": user.Username, "timestamp": now,
	})
	s.audit(ctx, "user.login", user.ID, user.Username)
	if err := s.store.SaveUser(ctx, *user); err != nil {
		s.log.Error("failed to persist last_login", map[string]any{"error": err.Error(), "user_id": user.ID})
	}

	roles := append([]Role(nil), user.Roles...)
	return &AuthResult{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Roles:        roles,
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
		LastLogin:    &now,
	}, nil
}

func (s *Service) lookupUser(usernameOrEmail string) *User {
	key := strings.ToLower(usernameOrEmail)
	if id, ok := s.usernameToID[key]; ok {
		return s.users[id]
	}
	if id, ok := s.emailToID[key]; ok {
		return s.users[id]
	}
	return nil
}

// audit records a security-relevant action. Failures are logged, not
// propagated — a broken audit sink must never block an auth decision.
func (s *Service) audit(ctx context.Context, action, actorID, target string) {
	if err := s.store.AppendAudit(ctx, action, actorID, target); err != nil {
		s.log.Error("failed to append audit entry", map[string]any{"error": err.Error(), "action": action})
	}
}

func (s *Service) userByID(id string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id]
}

type tokenClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}

func (s *Service) createToken(userID string, tokenType TokenType, ttl time.Duration) (AuthToken, error) {
	if s.jwtSecret == "" {
		return AuthToken{}, apperr.New(apperr.KindSecurity, "JWT secret not configured")
	}

	now := time.Now()
	jti := uuid.NewString()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		TokenType: string(tokenType),
	}

	method, err := signingMethod(s.jwtAlgorithm)
	if err != nil {
		return AuthToken{}, err
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return AuthToken{}, apperr.Wrap(apperr.KindSecurity, err, "sign token")
	}

	auth := AuthToken{
		Token:     signed,
		Type:      tokenType,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		JTI:       jti,
	}

	s.activeTokensMu.Lock()
	s.activeTokens[userID] = append(s.activeTokens[userID], auth)
	s.activeTokensMu.Unlock()

	return auth, nil
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case "HS256", "":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, apperr.Newf(apperr.KindSecurity, "unsupported JWT algorithm %q", alg)
	}
}

// VerifyToken parses and validates a token, checking the blacklist, and
// returns its claims.
func (s *Service) VerifyToken(ctx context.Context, token string) (*tokenClaims, error) {
	return s.verifyToken(ctx, token, true)
}

func (s *Service) verifyToken(ctx context.Context, token string, verifyExp bool) (*tokenClaims, error) {
	if s.jwtSecret == "" {
		return nil, apperr.New(apperr.KindSecurity, "JWT secret not configured")
	}

	claims := &tokenClaims{}
	opts := []jwt.ParserOption{}
	if !verifyExp {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.jwtSecret), nil
	}, opts...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindSecurity, err, "invalid token")
	}

	if claims.ID != "" {
		revoked, err := s.blacklist.Contains(ctx, claims.ID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindSecurity, err, "check token blacklist")
		}
		if revoked {
			return nil, apperr.New(apperr.KindSecurity, "token has been revoked")
		}
	}

	return claims, nil
}

// RefreshAccessToken exchanges a valid, non-blacklisted refresh token for a
// new access token.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.verifyToken(ctx, refreshToken, true)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != string(TokenRefresh) {
		return nil, apperr.New(apperr.KindSecurity, "token is not a refresh token")
	}

	user := s.userByID(claims.Subject)
	if user == nil || !user.Active {
		return nil, apperr.New(apperr.KindSecurity, "user not found or inactive")
	}

	access, err := s.createToken(user.ID, TokenAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		UserID:      user.ID,
		AccessToken: access.Token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.accessTTL.Seconds()),
	}, nil
}

// RevokeToken blacklists a single token by its jti, ignoring expiration so
// an already-expired token can still be explicitly revoked for audit.
func (s *Service) RevokeToken(ctx context.Context, token string) error {
	claims, err := s.verifyToken(ctx, token, false)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return apperr.New(apperr.KindSecurity, "token has no jti")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.Add(ctx, claims.ID, ttl); err != nil {
		return apperr.Wrap(apperr.KindSecurity, err, "add token to blacklist")
	}

	_ = s.events.Publish("security/token_revoked", "security", map[string]any{
		"jti": claims.ID, "user_id": claims.Subject,
	})
	s.audit(ctx, "token.revoked", claims.Subject, claims.ID)
	return nil
}

// revokeUserTokens blacklists every currently-tracked active token for a
// user — used on password change, deactivation, and JWT secret/algorithm
// rotation.
func (s *Service) revokeUserTokens(ctx context.Context, userID string) {
	s.activeTokensMu.Lock()
	tokens := s.activeTokens[userID]
	delete(s.activeTokens, userID)
	s.activeTokensMu.Unlock()

	for _, t := range tokens {
		_ = s.blacklist.Add(ctx, t.JTI, time.Until(t.ExpiresAt))
	}
	if len(tokens) > 0 {
		s.log.Info("revoked all tokens for user", map[string]any{"user_id": userID, "count": len(tokens)})
	}
}

// HasPermission reports whether the user holds a role granting
// resource.action.
func (s *Service) HasPermission(userID, resource, action string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok || !user.Active {
		return false
	}
	perm, ok := s.permissions[permissionID(resource, action)]
	if !ok {
		return false
	}
	for _, role := range user.Roles {
		for _, granted := range perm.Roles {
			if role == granted {
				return true
			}
		}
	}
	return false
}

// HasRole reports whether the user has the given role.
func (s *Service) HasRole(userID string, role Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	return ok && user.Active && user.hasRole(role)
}

// GetUser returns a copy of the user's record.
func (s *Service) GetUser(userID string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, false
	}
	cp := *u
	return &cp, true
}

// ListUsers returns a copy of every known account, for the /users listing
// endpoint.
func (s *Service) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out
}

// UpdateUserInput describes a partial update; nil fields are left
// unchanged.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Roles    []Role
	Active   *bool
	Metadata map[string]any
}

// UpdateUser applies a partial update, revoking all of a user's active
// tokens whenever the password changes or the account is deactivated.
func (s *Service) UpdateUser(ctx context.Context, userID string, in UpdateUserInput) error {
	s.mu.Lock()
	user, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return apperr.Newf(apperr.KindSecurity, "user %q not found", userID)
	}

	if in.Username != nil && *in.Username != user.Username {
		if !isValidUsername(*in.Username) {
			s.mu.Unlock()
			return apperr.New(apperr.KindSecurity, "invalid username format")
		}
		lower := strings.ToLower(*in.Username)
		if existing, exists := s.usernameToID[lower]; exists && existing != userID {
			s.mu.Unlock()
			return apperr.Newf(apperr.KindSecurity, "username %q already exists", *in.Username)
		}
		delete(s.usernameToID, strings.ToLower(user.Username))
		user.Username = *in.Username
		s.usernameToID[lower] = userID
	}

	if in.Email != nil && *in.Email != user.Email {
		if !isValidEmail(*in.Email) {
			s.mu.Unlock()
			return apperr.New(apperr.KindSecurity, "invalid email format")
		}
		lower := strings.ToLower(*in.Email)
		if existing, exists := s.emailToID[lower]; exists && existing != userID {
			s.mu.Unlock()
			return apperr.Newf(apperr.KindSecurity, "email %q already exists", *in.Email)
		}
		delete(s.emailToID, strings.ToLower(user.Email))
		user.Email = *in.Email
		s.emailToID[lower] = userID
	}

	revokeTokens := false

	if in.Password != nil {
		if err := validatePassword(*in.Password, s.policy); err != nil {
			s.mu.Unlock()
			return apperr.Wrap(apperr.KindSecurity, err, "invalid password")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			s.mu.Unlock()
			return apperr.Wrap(apperr.KindSecurity, err, "hash password")
		}
		user.HashedPassword = string(hashed)
		revokeTokens = true
	}

	if in.Roles != nil {
		user.Roles = in.Roles
	}

	if in.Active != nil {
		user.Active = *in.Active
		if !*in.Active {
			revokeTokens = true
		}
	}

	if in.Metadata != nil {
		if user.Metadata == nil {
			user.Metadata = map[string]any{}
		}
		for k, v := range in.Metadata {
			user.Metadata[k] = v
		}
	}

	updated := *user
	s.mu.Unlock()

	if revokeTokens {
		s.revokeUserTokens(ctx, userID)
	}

	if err := s.store.SaveUser(ctx, updated); err != nil {
		s.log.Error("failed to persist updated user", map[string]any{"error": err.Error(), "user_id": userID})
	}
	s.audit(ctx, "user.updated", userID, updated.Username)

	_ = s.events.Publish("security/user_updated", "security", map[string]any{"user_id": userID})
	return nil
}

// DeleteUser removes a user and revokes any tokens it still holds.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	user, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return apperr.Newf(apperr.KindSecurity, "user %q not found", userID)
	}
	delete(s.users, userID)
	delete(s.usernameToID, strings.ToLower(user.Username))
	delete(s.emailToID, strings.ToLower(user.Email))
	username := user.Username
	s.mu.Unlock()

	s.revokeUserTokens(ctx, userID)
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		s.log.Error("failed to delete persisted user", map[string]any{"error": err.Error(), "user_id": userID})
	}
	s.audit(ctx, "user.deleted", userID, username)
	_ = s.events.Publish("security/user_deleted", "security", map[string]any{"user_id": userID})
	return nil
}

// OnConfigChanged reacts to security.* configuration mutations — wired by
// the application core as a config.ChangeListener. A secret or algorithm
// rotation invalidates every outstanding token, matching the documented
// "secret/algorithm change triggers mass revocation" invariant.
func (s *Service) OnConfigChanged(ctx context.Context, key string, value any) {
	switch {
	case key == "security.jwt.secret":
		s.mu.Lock()
		s.jwtSecret, _ = value.(string)
		s.mu.Unlock()
		s.revokeAllTokens(ctx)
	case key == "security.jwt.algorithm":
		s.mu.Lock()
		s.jwtAlgorithm, _ = value.(string)
		s.mu.Unlock()
		s.revokeAllTokens(ctx)
	case key == "security.jwt.access_token_expire_minutes":
		if minutes, ok := toInt(value); ok {
			s.mu.Lock()
			s.accessTTL = time.Duration(minutes) * time.Minute
			s.mu.Unlock()
		}
	case key == "security.jwt.refresh_token_expire_days":
		if days, ok := toInt(value); ok {
			s.mu.Lock()
			s.refreshTTL = time.Duration(days) * 24 * time.Hour
			s.mu.Unlock()
		}
	case strings.HasPrefix(key, "security.password_policy."):
		s.updatePasswordPolicyField(strings.TrimPrefix(key, "security.password_policy."), value)
	}
}

func (s *Service) revokeAllTokens(ctx context.Context) {
	s.activeTokensMu.Lock()
	userIDs := make([]string, 0, len(s.activeTokens))
	for id := range s.activeTokens {
		userIDs = append(userIDs, id)
	}
	s.activeTokensMu.Unlock()

	for _, id := range userIDs {
		s.revokeUserTokens(ctx, id)
	}
}

func (s *Service) updatePasswordPolicyField(field string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch field {
	case "min_length":
		if n, ok := toInt(value); ok {
			s.policy.MinLength = n
		}
	case "require_uppercase":
		if b, ok := value.(bool); ok {
			s.policy.RequireUppercase = b
		}
	case "require_lowercase":
		if b, ok := value.(bool); ok {
			s.policy.RequireLowercase = b
		}
	case "require_digit":
		if b, ok := value.(bool); ok {
			s.policy.RequireDigit = b
		}
	case "require_special":
		if b, ok := value.(bool); ok {
			s.policy.RequireSpecial = b
		}
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
