package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/greenleaf/storefront/internal/core/domain"
)

func TestRBAC(t *testing.T) {
	tests := []struct {
		name    string
		allowed []domain.Role
		role    any // nil leaves "role" unset
		want    int
	}{
		{"admin on admin route", []domain.Role{domain.RoleAdmin}, string(domain.RoleAdmin), http.StatusOK},
		{"customer on admin route", []domain.Role{domain.RoleAdmin}, string(domain.RoleCustomer), http.StatusForbidden},
		{"either role allowed", []domain.Role{domain.RoleAdmin, domain.RoleCustomer}, string(domain.RoleCustomer), http.StatusOK},
		{"no session role", []domain.Role{domain.RoleAdmin}, nil, http.StatusForbidden},
		{"role of wrong type", []domain.Role{domain.RoleAdmin}, domain.RoleAdmin, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/v1/admin/profiles/x", nil), rec)
			if tt.role != nil {
				c.Set("role", tt.role)
			}

			reached := false
			err := RBAC(tt.allowed...)(func(c echo.Context) error {
				reached = true
				return c.NoContent(http.StatusOK)
			})(c)
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if reached != (tt.want == http.StatusOK) {
				t.Fatalf("next reached = %v", reached)
			}
		})
	}
}
