package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fnh-backend/internal/models"
	"fnh-backend/internal/services"
	"fnh-backend/pkg/utils"
)

type AuthHandler struct {
	Users *services.UserService
	TOTP  *services.TOTPService
	Audit *services.AuditService
}

func NewAuthHandler(users *services.UserService, totp *services.TOTPService, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{Users: users, TOTP: totp, Audit: audit}
}

// Login handles the first authentication step. Users with 2FA enabled
// get a short-lived temp token instead of a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	authResp, step1, err := h.Users.Login(r.Context(), &req)
	if err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if step1 != nil {
		utils.JSON(w, http.StatusOK, step1)
		return
	}

	ip := getIPAddress(r)
	h.Audit.Record(&models.AuditLog{
		UserID:      authResp.User.ID,
		UserName:    authResp.User.Name,
		ActionType:  "login",
		TargetType:  "user",
		TargetID:    &authResp.User.ID,
		Description: "Login",
		IPAddress:   &ip,
	})
	utils.JSON(w, http.StatusOK, authResp)
}

// Verify2FA finishes a 2FA login. The temp token from the first step
// plus a valid authenticator code yields the real session token.
func (h *AuthHandler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	claims, err := h.Users.JWTManager.ValidateTempToken(req.TempToken)
	if err != nil {
		http.Error(w, "Invalid or expired login session", http.StatusUnauthorized)
		return
	}

	ok, err := h.TOTP.Verify(r.Context(), claims.UserID, req.Code, getIPAddress(r))
	if err != nil || !ok {
		var totpErr *services.TOTPError
		if errors.As(err, &totpErr) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		http.Error(w, "Invalid authenticator code", http.StatusUnauthorized)
		return
	}

	authResp, err := h.Users.CompleteLogin(r.Context(), claims.UserID)
	if err != nil {
		utils.Error(w, err)
		return
	}

	ip := getIPAddress(r)
	h.Audit.Record(&models.AuditLog{
		UserID:      authResp.User.ID,
		UserName:    authResp.User.Name,
		ActionType:  "login",
		TargetType:  "user",
		TargetID:    &authResp.User.ID,
		Description: "Login (2FA)",
		IPAddress:   &ip,
	})
	utils.JSON(w, http.StatusOK, authResp)
}

// getIPAddress extracts the real IP address from the request
func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first (for proxies/load balancers)
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	realIP := r.Header.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	// Fall back to RemoteAddr
	return r.RemoteAddr
}
