package payzen

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// FieldPrefix is the reserved prefix of gateway fields included in the
// signature computation.
const FieldPrefix = "vads_"

// SignatureField is the name of the field carrying the signature itself; it is
// never part of the signed payload.
const SignatureField = "signature"

type SignatureAlgorithm string

const (
	// AlgorithmSHA1 is the gateway's legacy scheme: hex(sha1(payload)).
	AlgorithmSHA1 SignatureAlgorithm = "SHA-1"
	// AlgorithmHMACSHA256 is the current scheme: base64(hmac-sha256(payload)).
	AlgorithmHMACSHA256 SignatureAlgorithm = "HMAC-SHA-256"
)

// SignatureCodec computes and verifies the digital signature PayZen uses to
// authenticate outbound form submissions and inbound callbacks.
type SignatureCodec struct {
	Algorithm SignatureAlgorithm
}

// Sign builds the signature over the vads_ fields of the payload: keys sorted
// in byte order, values joined by '+', the certificate appended as the final
// segment, then digested with the configured algorithm.
func (c SignatureCodec) Sign(fields url.Values, certificate string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if strings.HasPrefix(key, FieldPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		parts = append(parts, fields.Get(key))
	}
	parts = append(parts, certificate)
	payload := strings.Join(parts, "+")

	switch c.Algorithm {
	case AlgorithmHMACSHA256:
		mac := hmac.New(sha256.New, []byte(certificate))
		mac.Write([]byte(payload))
		return base64.StdEncoding.EncodeToString(mac.Sum(nil))
	default:
		sum := sha1.Sum([]byte(payload))
		return hex.EncodeToString(sum[:])
	}
}

// Verify recomputes the signature and compares it in constant time. A mismatch
// returns ErrSignatureMismatch and must block any state mutation upstream.
func (c SignatureCodec) Verify(fields url.Values, signature, certificate string) error {
	expected := c.Sign(fields, certificate)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}
