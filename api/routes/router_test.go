package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	rentalsvc "github.com/stockplace/stockplace-backend/internal/rentals"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	pkgauth "github.com/stockplace/stockplace-backend/pkg/auth"
	"github.com/stockplace/stockplace-backend/pkg/config"
	"github.com/stockplace/stockplace-backend/pkg/enums"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

type stubRentalService struct {
	listed int
}

func (s *stubRentalService) FulfillSession(ctx context.Context, input rentalsvc.FulfillSessionInput) error {
	return nil
}

func (s *stubRentalService) Get(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	return nil, nil
}

func (s *stubRentalService) ListByRenter(ctx context.Context, renterID uuid.UUID) ([]models.Rental, error) {
	s.listed++
	return []models.Rental{}, nil
}

func (s *stubRentalService) ListByStorageSpace(ctx context.Context, storageSpaceID uuid.UUID) ([]models.Rental, error) {
	return []models.Rental{}, nil
}

func (s *stubRentalService) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRentalService) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func newTestRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:  "test",
			Port: "8080",
		},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "stockplace-test",
			ExpirationMinutes: 15,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginEmailLimit:    5,
			LoginIPLimit:       20,
			RegisterWindow:     5 * time.Minute,
			RegisterEmailLimit: 3,
			RegisterIPLimit:    20,
		},
	}
}

func newTestRouter(t *testing.T, rentals rentalsvc.Service) http.Handler {
	t.Helper()

	cfg := newTestRouterConfig()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})

	return NewRouter(RouterParams{
		Config:  cfg,
		Logger:  logg,
		Rentals: rentals,
	})
}

func mintTestToken(t *testing.T, role enums.UserRole) string {
	t.Helper()

	cfg := newTestRouterConfig()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "router-test@example.com",
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return token
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter(t, &stubRentalService{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
}

func TestRouterRejectsMissingToken(t *testing.T) {
	router := newTestRouter(t, &stubRentalService{})

	paths := []string{
		"/api/v1/rentals/mine",
		"/api/v1/payouts/mine",
		"/api/admin/v1/dashboard",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s but got %d", path, w.Code)
		}
	}
}

func TestRouterServesAuthedRentalList(t *testing.T) {
	stub := &stubRentalService{}
	router := newTestRouter(t, stub)
	token := mintTestToken(t, enums.UserRoleRenter)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rentals/mine", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d: %s", w.Code, w.Body.String())
	}
	if stub.listed != 1 {
		t.Fatalf("expected one list call but got %d", stub.listed)
	}
}

func TestRouterEnforcesRoles(t *testing.T) {
	router := newTestRouter(t, &stubRentalService{})
	renterToken := mintTestToken(t, enums.UserRoleRenter)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/storage-spaces"},
		{http.MethodPost, "/api/v1/products"},
		{http.MethodGet, "/api/admin/v1/dashboard"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+renterToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for %s %s but got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestRouterWebhookSkipsAuth(t *testing.T) {
	router := newTestRouter(t, &stubRentalService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// The route answers with a signature failure, not an auth failure,
	// so the provider is never asked for bearer credentials.
	if w.Code == http.StatusUnauthorized || w.Code == http.StatusNotFound {
		t.Fatalf("webhook route must not sit behind auth, got %d", w.Code)
	}
}
