package inbound

import (
	"github.com/otpgate/otpgate/internal/auth/usecase"
	"github.com/otpgate/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the passcode authentication flows.
type HTTPEndpoint struct {
	uc uc
}

// RequestOTP issues a one-time passcode over SMS.
// @Summary Request passcode
// @Description Resolves or creates the identity for the phone number and sends a one-time passcode over SMS.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RequestOTPRequest true "Passcode request payload"
// @Success 200 {object} router.successResponse{data=RequestOTPResponse} "Passcode dispatched"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Rate limited"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/otp/request [post]
func (h *HTTPEndpoint) RequestOTP(r *router.Request) (any, error) {
	var req RequestOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestOTP(r.Context(), usecase.RequestOTPInput{
		Phone: req.Phone,
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		return nil, err
	}

	return RequestOTPResponse{
		ExpiresAt: resp.ExpiresAt,
		DebugCode: resp.DebugCode,
	}, nil
}

// VerifyOTP checks a passcode and issues a session token.
// @Summary Verify passcode
// @Description Validates the latest SMS passcode for the phone number and returns a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Passcode verification payload"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "Session token"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid or expired passcode"
// @Failure 404 {object} router.errorResponse "No passcode requested"
// @Failure 409 {object} router.errorResponse "Passcode already used"
// @Failure 429 {object} router.errorResponse "Rate limited or attempts exceeded"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/otp/verify [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Phone: req.Phone,
		Code:  req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		Token:     resp.Token,
		TokenType: "Bearer",
	}, nil
}

// RequestBothOTP issues independent passcodes over SMS and email.
// @Summary Request dual-channel passcodes
// @Description Issues one passcode per channel for the same identity and dispatches both concurrently.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RequestBothOTPRequest true "Dual passcode request payload"
// @Success 200 {object} router.successResponse{data=RequestBothOTPResponse} "Dispatch report"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Rate limited"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/otp/request-both [post]
func (h *HTTPEndpoint) RequestBothOTP(r *router.Request) (any, error) {
	var req RequestBothOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestBothOTP(r.Context(), usecase.RequestBothOTPInput{
		Phone: req.Phone,
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		return nil, err
	}

	return RequestBothOTPResponse{
		ExpiresAt:      resp.ExpiresAt,
		SMSSent:        resp.SMSSent,
		EmailSent:      resp.EmailSent,
		DebugSMSCode:   resp.DebugSMSCode,
		DebugEmailCode: resp.DebugEmailCode,
	}, nil
}

// VerifyBothOTP checks both passcodes and issues a session token.
// @Summary Verify dual-channel passcodes
// @Description Validates the SMS and email passcodes together; both must pass for a session to be issued.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyBothOTPRequest true "Dual passcode verification payload"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "Session token"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid or expired passcode"
// @Failure 404 {object} router.errorResponse "No passcode requested"
// @Failure 409 {object} router.errorResponse "Passcode already used"
// @Failure 429 {object} router.errorResponse "Rate limited or attempts exceeded"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/otp/verify-both [post]
func (h *HTTPEndpoint) VerifyBothOTP(r *router.Request) (any, error) {
	var req VerifyBothOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyBothOTP(r.Context(), usecase.VerifyBothOTPInput{
		Phone:     req.Phone,
		SMSCode:   req.SMSCode,
		EmailCode: req.EmailCode,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		Token:     resp.Token,
		TokenType: "Bearer",
	}, nil
}

// Logout revokes the current session.
// @Summary Logout
// @Description Revokes the session behind the presented token and drops its cached role.
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} router.successResponse{data=LogoutResponse} "Logout result"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/logout [post]
// @Security BearerAuth
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context()); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}
