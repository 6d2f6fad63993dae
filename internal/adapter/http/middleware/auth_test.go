package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/auth"
)

func captureHandler(got *domain.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := domain.PrincipalFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		*got = p
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)
	alice := domain.Principal{UserID: "alice", Role: domain.RoleCustomer}
	token, err := manager.Generate(alice)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.Principal
			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			Authenticate(manager)(captureHandler(&got)).ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			if tt.status == http.StatusOK && got != alice {
				t.Fatalf("expected %+v in context, got %+v", alice, got)
			}
		})
	}
}

func TestAuthenticate_Disabled(t *testing.T) {
	var got domain.Principal
	rr := httptest.NewRecorder()
	Authenticate(nil)(captureHandler(&got)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK || got != domain.SystemPrincipal {
		t.Fatalf("expected system principal, got %d %+v", rr.Code, got)
	}
}

func TestRequireEmployee(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		p      *domain.Principal
		status int
	}{
		{"employee", &domain.Principal{UserID: "e", Role: domain.RoleEmployee}, http.StatusOK},
		{"customer", &domain.Principal{UserID: "c", Role: domain.RoleCustomer}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/employee/customers", nil)
			if tt.p != nil {
				req = req.WithContext(domain.WithPrincipal(req.Context(), *tt.p))
			}
			rr := httptest.NewRecorder()
			RequireEmployee(next).ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
		})
	}
}
