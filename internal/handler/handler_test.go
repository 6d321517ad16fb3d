package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/handler/middleware"
	"github.com/andressep95/rbac-auth/internal/repository/memory"
	"github.com/andressep95/rbac-auth/internal/service"
	"github.com/andressep95/rbac-auth/pkg/hash"
	"github.com/andressep95/rbac-auth/pkg/jwt"
	"github.com/andressep95/rbac-auth/pkg/loginguard"
	"github.com/andressep95/rbac-auth/pkg/validator"
)

const testSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

var fastHash = hash.Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type envelope struct {
	Error    bool            `json:"error"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response"`
}

type testServer struct {
	app    *fiber.App
	store  *memory.Store
	tokens *service.TokenService
	audit  *service.AuditService
}

func newTestServer(t *testing.T, database Pinger) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	codec, err := jwt.NewCodec(testSecret, "rbac-auth-test")
	require.NoError(t, err)

	store := memory.NewStore()
	guard := loginguard.New(nil, 0, 0)
	v := validator.NewValidator()

	audit := service.NewAuditService(store.AuditLogs(), logger)
	tokens := service.NewTokenService(codec, store.RefreshTokens(), nil)
	hasher := hash.NewHasher(fastHash)
	auth := service.NewAuthService(store.Users(), store.Roles(), store.Permissions(), tokens, hasher, guard, audit, nil, logger, time.Hour)
	users := service.NewUserService(store.Users(), store.Roles(), hasher, guard, audit)
	roles := service.NewRoleService(store.Roles(), store.Permissions(), store.Users(), audit)
	permissions := service.NewPermissionService(store.Permissions(), store.Users(), audit)

	app := fiber.New(fiber.Config{CaseSensitive: true, ErrorHandler: NewErrorHandler(logger)})
	app.Use(middleware.Recovery(logger))
	app.Use(middleware.RequestLogger(logger))
	app.Use(middleware.AuthFilter(tokens, store.Users(), store.Roles(), nil))
	app.Use(middleware.Authorize(
		middleware.AccessRule{Prefix: "/api/permissions", Roles: []string{"SUPER_ADMIN"}},
		middleware.AccessRule{Prefix: "/api/audit", Roles: []string{"SUPER_ADMIN"}},
	))

	SetupRoutes(app,
		NewAuthHandler(auth, users, tokens, v),
		NewUserHandler(users, tokens, v),
		NewRoleHandler(roles, tokens, v),
		NewPermissionHandler(permissions, tokens, v),
		NewAuditHandler(audit),
		NewHealthHandler(database, guard),
	)

	ctx := context.Background()
	for _, name := range []string{"SUPER_ADMIN", "ADMIN"} {
		require.NoError(t, store.Roles().Create(ctx, &domain.Role{Name: name, IsActive: true}))
	}

	return &testServer{app: app, store: store, tokens: tokens, audit: audit}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (s *testServer) signup(t *testing.T, username string, roles ...string) string {
	t.Helper()
	status, _ := s.do(t, http.MethodPost, "/auth/self-register", "", fiber.Map{
		"username": username, "password": "secret123", "roles": roles,
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := s.do(t, http.MethodPost, "/auth/login", "", fiber.Map{
		"username": username, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)

	var resp domain.TokenResponse
	require.NoError(t, json.Unmarshal(env.Response, &resp))
	return resp.Token
}

func TestLoginAndAuthenticateToken(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup(t, "root", "SUPER_ADMIN")

	status, env := s.do(t, http.MethodPost, "/authenticate/token", token, nil)
	require.Equal(t, http.StatusOK, status)

	var user domain.UserDetails
	require.NoError(t, json.Unmarshal(env.Response, &user))
	assert.Equal(t, "root", user.Username)
	assert.Equal(t, "root", user.CreatedBy)
	assert.Equal(t, []string{"SUPER_ADMIN"}, user.Roles)

	var grants struct {
		TokenRoles       []string `json:"token_roles"`
		TokenPermissions []string `json:"token_permissions"`
	}
	require.NoError(t, json.Unmarshal(env.Response, &grants))
	assert.Equal(t, []string{"SUPER_ADMIN"}, grants.TokenRoles)
	assert.Empty(t, grants.TokenPermissions)

	status, env = s.do(t, http.MethodPost, "/auth/login", "", fiber.Map{"username": "root", "password": "wrong123"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.True(t, env.Error)

	status, _ = s.do(t, http.MethodPost, "/authenticate/token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSelfRegisterValidation(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := s.do(t, http.MethodPost, "/auth/self-register", "", fiber.Map{"username": "weak", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "password")

	s.signup(t, "taken")
	status, _ = s.do(t, http.MethodPost, "/auth/self-register", "", fiber.Map{"username": "taken", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRegisterRequiresBearer(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup(t, "admin", "ADMIN")

	body := fiber.Map{"username": "bob", "password": "secret123", "roles": []string{"ADMIN"}}

	status, _ := s.do(t, http.MethodPost, "/auth/register", "", body)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := s.do(t, http.MethodPost, "/auth/register", token, body)
	require.Equal(t, http.StatusCreated, status)

	var user domain.UserDetails
	require.NoError(t, json.Unmarshal(env.Response, &user))
	assert.Equal(t, "admin", user.CreatedBy)
	assert.Equal(t, []string{"ADMIN"}, user.Roles)
}

func TestExpiredTokenCannotAct(t *testing.T) {
	s := newTestServer(t, nil)
	s.signup(t, "root", "SUPER_ADMIN")
	target := s.signup(t, "bob")

	ctx := context.Background()
	root, err := s.store.Users().FindByUsernameEnabled(ctx, "root")
	require.NoError(t, err)
	id := root.ID
	expired, err := s.tokens.Issue(ctx, domain.ClaimSet{
		Username:    root.Username,
		UserID:      &id,
		Roles:       []string{"SUPER_ADMIN"},
		Permissions: []string{},
	}, root, -time.Hour)
	require.NoError(t, err)
	require.True(t, s.tokens.IsExpired(expired))

	status, _ := s.do(t, http.MethodPost, "/auth/register", expired,
		fiber.Map{"username": "mallory", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/authenticate/token", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/roles", expired, fiber.Map{"name": "EDITOR"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPut, "/auth/reset-password", expired,
		fiber.Map{"username": "bob", "password": "newpass123"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/permissions/add", expired, fiber.Map{"permission": "X"})
	assert.Equal(t, http.StatusForbidden, status)

	_, err = s.store.Users().FindByUsernameEnabled(ctx, "mallory")
	assert.Error(t, err)

	// Tokens of other users stay usable.
	status, _ = s.do(t, http.MethodPost, "/authenticate/token", target, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestMalformedTokenIsBadRequest(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := s.do(t, http.MethodGet, "/api/roles", "garbage", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, env.Error)
}

func TestPermissionsAreSuperAdminOnly(t *testing.T) {
	s := newTestServer(t, nil)
	root := s.signup(t, "root", "SUPER_ADMIN")
	admin := s.signup(t, "admin", "ADMIN")
	body := fiber.Map{"permission": "REPORT_READ", "description": "reports"}

	status, _ := s.do(t, http.MethodPost, "/api/permissions/add", admin, body)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/permissions/add", "", body)
	assert.Equal(t, http.StatusForbidden, status)

	for _, path := range []string{"/API/permissions/add", "/api/Permissions/add"} {
		status, _ = s.do(t, http.MethodPost, path, admin, body)
		assert.Equal(t, http.StatusForbidden, status, path)
	}
	status, _ = s.do(t, http.MethodGet, "/api/Audit", "", nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Routing is case sensitive, so the super admin reaches no handler either.
	status, _ = s.do(t, http.MethodPost, "/API/permissions/add", root, body)
	assert.Equal(t, http.StatusNotFound, status)

	status, env := s.do(t, http.MethodPost, "/api/permissions/add", root, body)
	require.Equal(t, http.StatusCreated, status)
	var perm domain.PermissionView
	require.NoError(t, json.Unmarshal(env.Response, &perm))
	assert.Equal(t, "REPORT_READ", perm.Permission)

	status, _ = s.do(t, http.MethodPost, "/api/permissions/add", root, body)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPut, "/api/permissions/999/status", root, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.do(t, http.MethodGet, "/api/permissions/permissions?offset=0&limit=5", root, nil)
	require.Equal(t, http.StatusOK, status)
	var page domain.Page[domain.PermissionView]
	require.NoError(t, json.Unmarshal(env.Response, &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 5, page.Limit)
}

func TestRoleEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	root := s.signup(t, "root", "SUPER_ADMIN")

	status, _ := s.do(t, http.MethodPost, "/api/permissions/add", root, fiber.Map{"permission": "WRITE"})
	require.Equal(t, http.StatusCreated, status)

	status, env := s.do(t, http.MethodPost, "/api/roles", root, fiber.Map{"name": "EDITOR", "permissions": []string{"WRITE"}})
	require.Equal(t, http.StatusCreated, status)
	var role domain.RoleView
	require.NoError(t, json.Unmarshal(env.Response, &role))
	assert.Equal(t, "EDITOR", role.Name)
	require.Len(t, role.Permissions, 1)

	status, _ = s.do(t, http.MethodGet, "/api/roles/permissions", root, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodGet, "/api/roles/permissions?names=WRITE", root, nil)
	require.Equal(t, http.StatusOK, status)
	var page domain.Page[domain.RoleView]
	require.NoError(t, json.Unmarshal(env.Response, &page))
	assert.Equal(t, 1, page.Total)

	status, _ = s.do(t, http.MethodGet, "/api/roles/filter?ids=abc", root, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodPut, "/api/roles/EDITOR/status", root, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Response, &role))
	assert.False(t, role.Active)

	status, _ = s.do(t, http.MethodPut, "/api/roles/NOPE/permissions", root, fiber.Map{"permissions": []string{"WRITE"}})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeactivatedUserLosesAccess(t *testing.T) {
	s := newTestServer(t, nil)
	root := s.signup(t, "root", "SUPER_ADMIN")
	bob := s.signup(t, "bob")

	status, env := s.do(t, http.MethodPost, "/authenticate/token", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var details domain.UserDetails
	require.NoError(t, json.Unmarshal(env.Response, &details))

	status, _ = s.do(t, http.MethodPut, "/api/admin/deactivate/"+itoa(details.ID), root, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/authenticate/token", bob, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPut, "/api/admin/activate/"+itoa(details.ID), root, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/authenticate/token", bob, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuditEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	root := s.signup(t, "root", "SUPER_ADMIN")
	s.audit.Wait()

	status, env := s.do(t, http.MethodGet, "/api/audit?action=login", root, nil)
	require.Equal(t, http.StatusOK, status)

	var page domain.Page[domain.AuditLog]
	require.NoError(t, json.Unmarshal(env.Response, &page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "root", page.Content[0].Username)
}

func TestReadiness(t *testing.T) {
	s := newTestServer(t, PingFunc(func(context.Context) error { return nil }))
	status, _ := s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)

	s = newTestServer(t, PingFunc(func(context.Context) error { return errors.New("connection refused") }))
	status, _ = s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrInvalidHeader, http.StatusUnauthorized},
		{service.ErrAccountLocked, http.StatusUnauthorized},
		{jwt.ErrSignature, http.StatusBadRequest},
		{service.ErrEntityExists, http.StatusBadRequest},
		{service.ErrEmptyFilters, http.StatusBadRequest},
		{service.ErrPermissionNotFound, http.StatusNotFound},
		{&validator.ValidationError{Message: "bad"}, http.StatusBadRequest},
		{fiber.NewError(http.StatusTeapot, "tea"), http.StatusTeapot},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, _ := classify(tc.err)
		assert.Equal(t, tc.code, code, "%v", tc.err)
	}

	_, message := classify(errors.New("pq: connection reset"))
	assert.Equal(t, "Internal server error", message)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
