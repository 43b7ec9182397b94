package inbound

import (
	"context"

	"github.com/otpgate/otpgate/internal/auth/usecase"
	"github.com/otpgate/otpgate/internal/pkg/router"
)

type uc interface {
	RequestOTP(ctx context.Context, in usecase.RequestOTPInput) (*usecase.RequestOTPOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)

	RequestBothOTP(ctx context.Context, in usecase.RequestBothOTPInput) (*usecase.RequestBothOTPOutput, error)
	VerifyBothOTP(ctx context.Context, in usecase.VerifyBothOTPInput) (*usecase.VerifyBothOTPOutput, error)

	Logout(ctx context.Context) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Single-channel flow
	r.POST("/api/v1/auth/otp/request", end.RequestOTP)
	r.POST("/api/v1/auth/otp/verify", end.VerifyOTP)

	// Dual-channel flow
	r.POST("/api/v1/auth/otp/request-both", end.RequestBothOTP)
	r.POST("/api/v1/auth/otp/verify-both", end.VerifyBothOTP)

	r.POST("/api/v1/auth/logout", end.Logout) // need authenticated
}
