// Package hash provides helpers for hashing and verifying secrets.
//
// Two flavors live here behind small types: a keyed HMAC for opaque tokens
// (store only the hash, compare on lookup) and a salted digest for one-time
// passcodes where the salt is stored beside the digest. Comparisons are
// constant-time in both cases.
package hash
