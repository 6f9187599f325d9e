package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldsales-console/internal/common/auth"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/models"
	"fieldsales-console/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthAPI struct {
	mock.Mock
	session.AuthAPI
}

func (m *mockAuthAPI) Token(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *mockAuthAPI) CurrentAdmin(ctx context.Context, token string) (*auth.AdminProfile, error) {
	args := m.Called(ctx, token)
	if p, ok := args.Get(0).(*auth.AdminProfile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthAPI) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type stubValidator struct {
	err   error
	calls int
}

func (v *stubValidator) Validate(context.Context, string) error {
	v.calls++
	return v.err
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return token
}

func newShell(t *testing.T, api session.AuthAPI, v auth.TokenValidator) (*Shell, *session.MemoryStorage) {
	storage := session.NewMemoryStorage()
	store := session.NewStore(api, storage, logger.NewTestLogger(t))
	return New(store, v, logger.NewTestLogger(t)), storage
}

// ==========================
// Boot Tests
// ==========================

func TestBoot(t *testing.T) {
	ctx := context.Background()

	t.Run("empty storage stays logged out", func(t *testing.T) {
		sh, _ := newShell(t, &mockAuthAPI{}, nil)
		require.NoError(t, sh.Boot(ctx))
		assert.True(t, sh.View().Login)
	})

	t.Run("trust adopts stored token and team", func(t *testing.T) {
		sh, storage := newShell(t, &mockAuthAPI{}, nil)
		require.NoError(t, storage.SaveToken(ctx, "opaque"))
		require.NoError(t, storage.SaveTeamID(ctx, 8))

		require.NoError(t, sh.Boot(ctx))
		view := sh.View()
		assert.False(t, view.Login)
		require.NotNil(t, view.User)
		assert.Equal(t, int64(8), view.User.TeamID)
	})

	t.Run("rejected token is cleared", func(t *testing.T) {
		v := &stubValidator{err: errors.New("expired")}
		sh, storage := newShell(t, &mockAuthAPI{}, v)
		require.NoError(t, storage.SaveToken(ctx, "stale"))

		require.NoError(t, sh.Boot(ctx))
		assert.True(t, sh.View().Login)
		assert.Equal(t, 1, v.calls)

		persisted, _ := storage.Load(ctx)
		assert.Empty(t, persisted.Token)
	})

	t.Run("expired jwt with expiry validator", func(t *testing.T) {
		now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
		sh, storage := newShell(t, &mockAuthAPI{}, auth.ExpiryValidator{Now: func() time.Time { return now }})
		require.NoError(t, storage.SaveToken(ctx, signedToken(t, jwt.MapClaims{"sub": "asha", "exp": now.Add(-time.Minute).Unix()})))

		require.NoError(t, sh.Boot(ctx))
		assert.True(t, sh.View().Login)
	})

	t.Run("already authenticated skips storage", func(t *testing.T) {
		v := &stubValidator{}
		sh, storage := newShell(t, &mockAuthAPI{}, v)
		sh.store.Adopt("live", 0)
		require.NoError(t, storage.SaveToken(ctx, "other"))

		require.NoError(t, sh.Boot(ctx))
		assert.Equal(t, "live", sh.store.Token())
		assert.Zero(t, v.calls)
	})
}

// ==========================
// Navigation Tests
// ==========================

func TestNavFor(t *testing.T) {
	adminOnly := func(entries []NavEntry) []Page {
		var pages []Page
		for _, e := range entries {
			if e.AdminOnly {
				pages = append(pages, e.Page)
			}
		}
		return pages
	}

	assert.Equal(t, []Page{PageAttendance, PageSalary, PageTeams}, adminOnly(NavFor(models.RoleAdmin)))
	assert.Len(t, NavFor(models.RoleAdmin), len(DefaultNav))

	for _, role := range []models.Role{models.RoleManager, models.RoleOfficeManager, models.RoleFieldOfficer, ""} {
		t.Run(string(role), func(t *testing.T) {
			nav := NavFor(role)
			assert.Empty(t, adminOnly(nav))
			assert.Len(t, nav, len(DefaultNav)-3)
		})
	}
}

func TestView_AfterLogin(t *testing.T) {
	api := &mockAuthAPI{}
	api.On("Token", mock.Anything, "root", "pw").Return("tok", nil)
	api.On("CurrentAdmin", mock.Anything, "tok").Return(&auth.AdminProfile{
		Username:    "root",
		Authorities: []auth.Authority{{Authority: "ROLE_ADMIN"}},
	}, nil)
	api.On("Logout", mock.Anything, "tok").Return(nil)

	sh, _ := newShell(t, api, nil)

	view, err := sh.Login(context.Background(), "root", "pw")
	require.NoError(t, err)
	assert.False(t, view.Login)
	assert.Equal(t, "root", view.User.Username)
	assert.True(t, view.User.IsAdmin)
	assert.Len(t, view.Nav, len(DefaultNav))

	view, err = sh.Logout(context.Background())
	require.NoError(t, err)
	assert.True(t, view.Login)
	assert.Nil(t, view.User)
}

func TestView_FailedLoginShowsError(t *testing.T) {
	api := &mockAuthAPI{}
	api.On("Token", mock.Anything, "root", "bad").Return("", errors.New("Bad credentials"))

	sh, _ := newShell(t, api, nil)
	view, err := sh.Login(context.Background(), "root", "bad")
	require.Error(t, err)
	assert.True(t, view.Login)
	assert.Equal(t, "Bad credentials", view.Error)
}

// ==========================
// Routing Tests
// ==========================

func TestResolve(t *testing.T) {
	sh, _ := newShell(t, &mockAuthAPI{}, nil)

	assert.Equal(t, Route{Page: PageLogin}, sh.Resolve("/stores/12"))

	sh.store.Adopt("tok", 0)
	tests := []struct {
		path string
		want Route
	}{
		{"/", Route{Page: PageDashboard}},
		{"/stores", Route{Page: PageStores}},
		{"/stores/12", Route{Page: PageStoreDetail, ID: "12"}},
		{"/visits/abc-9", Route{Page: PageVisitDetail, ID: "abc-9"}},
		{"/employees/3", Route{Page: PageEmployeeDetail, ID: "3"}},
		{"/settings/salary", Route{Page: PageSalary}},
		{"/teams", Route{Page: PageTeams}},
		{"/nowhere", Route{Page: PageNotFound}},
		{"/stores/12/notes", Route{Page: PageNotFound}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, sh.Resolve(tt.path))
		})
	}
}

func TestPathFor(t *testing.T) {
	path, err := PathFor(PageVisitDetail, "41")
	require.NoError(t, err)
	assert.Equal(t, "/visits/41", path)

	path, err = PathFor(PageAttendance, "")
	require.NoError(t, err)
	assert.Equal(t, "/attendance", path)

	_, err = PathFor(Page("missing"), "")
	assert.Error(t, err)
}
