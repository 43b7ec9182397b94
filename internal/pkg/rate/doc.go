// Package rate provides fixed-window request limiting.
//
// The limiter is independent of business logic: callers pick a client key
// (phone number, IP, or both) and spend one unit of budget per request. The
// redis implementation is the production one; the in-memory implementation
// serves single-instance setups and tests.
package rate
