package entity

// Channel identifies the delivery channel a challenge was issued on.
type Channel int16

const (
	ChannelUnknown Channel = 0

	// ChannelSMS delivers the code to a phone number.
	ChannelSMS Channel = 1

	// ChannelEmail delivers the code to an email address.
	ChannelEmail Channel = 2
)

func (c Channel) String() string {
	switch c {
	case ChannelSMS:
		return "sms"
	case ChannelEmail:
		return "email"
	default:
		return "unknown"
	}
}

func ChannelFromString(s string) Channel {
	switch s {
	case "sms":
		return ChannelSMS
	case "email":
		return ChannelEmail
	default:
		return ChannelUnknown
	}
}

// Role is the coarse authorization level carried in the session token.
type Role int16

const (
	RoleClient Role = 0
	RoleAdmin  Role = 1
)

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "client"
}

func RoleFromString(s string) Role {
	if s == "admin" {
		return RoleAdmin
	}
	return RoleClient
}
