package event

// UserVerifiedDestination is the topic for successful verification events.
const UserVerifiedDestination = "auth.user.verified"

// UserVerifiedMessage is published after an identity completes OTP
// verification and a session is issued.
type UserVerifiedMessage struct {
	UserID    int64  `json:"user_id"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Channel   string `json:"channel"`
	Role      string `json:"role"`
	SessionID int64  `json:"session_id,omitempty"`
}
