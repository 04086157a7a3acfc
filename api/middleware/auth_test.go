package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/furnhaus/furnhaus-backend/pkg/auth"
	"github.com/furnhaus/furnhaus-backend/pkg/config"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "furnhaus-test"}

func signToken(t *testing.T, userID uuid.UUID, role auth.Role, vendorID *uuid.UUID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid":  userID.String(),
		"role": string(role),
		"iss":  testJWT.Issuer,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	if vendorID != nil {
		claims["vendor_id"] = vendorID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWT.Secret))
	require.NoError(t, err)
	return signed
}

func TestAuthSeedsContext(t *testing.T) {
	userID := uuid.New()
	vendorID := uuid.New()

	var gotUser, gotVendor uuid.UUID
	var gotRole auth.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserIDFromContext(r.Context())
		gotRole, _ = RoleFromContext(r.Context())
		gotVendor, _ = VendorIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, auth.RoleVendor, &vendorID))
	rec := httptest.NewRecorder()
	Auth(testJWT, nil)(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, userID, gotUser)
	require.Equal(t, auth.RoleVendor, gotRole)
	require.Equal(t, vendorID, gotVendor)
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})
	handler := Auth(testJWT, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsWrongSigner(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  uuid.NewString(),
		"role": "customer",
		"iss":  testJWT.Issuer,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	Auth(testJWT, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	})).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	handler := RequireRole(nil, auth.RoleVendor, auth.RoleAdmin)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), auth.RoleAdmin))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)

	called = false
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), auth.RoleCustomer))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.False(t, called)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
