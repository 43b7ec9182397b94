// Package otpcode generates short-lived numeric one-time passcodes and the
// per-challenge salts they are stored with.
//
// Codes are single-use random secrets, not time-based (TOTP) values: each one
// exists only as a salted digest in the challenge ledger until consumed.
package otpcode
