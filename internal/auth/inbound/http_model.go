package inbound

import "time"

type RequestOTPRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type RequestOTPResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
	DebugCode string    `json:"debug_code,omitempty"`
}

func (RequestOTPResponse) Message() string {
	return "Verification code sent."
}

type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type VerifyOTPResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

type RequestBothOTPRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type RequestBothOTPResponse struct {
	ExpiresAt      time.Time `json:"expires_at"`
	SMSSent        bool      `json:"sms_sent"`
	EmailSent      bool      `json:"email_sent"`
	DebugSMSCode   string    `json:"debug_sms_code,omitempty"`
	DebugEmailCode string    `json:"debug_email_code,omitempty"`
}

func (RequestBothOTPResponse) Message() string {
	return "Verification codes sent."
}

type VerifyBothOTPRequest struct {
	Phone     string `json:"phone"`
	SMSCode   string `json:"sms_code"`
	EmailCode string `json:"email_code"`
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Logged out."
}
