package middleware

import (
	"bytes"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/nacl/sign"
)

const (
	headerSignature = "X-Signature-Ed25519"
	headerTimestamp = "X-Signature-Timestamp"
)

// VerifySignature authenticates inbound interaction requests with the
// application's Ed25519 public key. The signed message is the timestamp
// header concatenated with the raw body; anything that fails to verify is
// rejected with 401 before it reaches the dispatcher. The body is re-wrapped
// so downstream handlers can read it again.
func VerifySignature(publicKeyHex string) func(http.Handler) http.Handler {
	var key [32]byte
	decoded, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(decoded) != 32 {
		// A bad key rejects everything rather than letting forged
		// requests through. Config validation catches this at startup.
		log.Error().Msg("invalid ed25519 public key, all interaction requests will be rejected")
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "invalid request signature", http.StatusUnauthorized)
			})
		}
	}
	copy(key[:], decoded)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sig, err := hex.DecodeString(r.Header.Get(headerSignature))
			if err != nil || len(sig) != sign.Overhead {
				http.Error(w, "invalid request signature", http.StatusUnauthorized)
				return
			}

			timestamp := r.Header.Get(headerTimestamp)
			if timestamp == "" {
				http.Error(w, "invalid request signature", http.StatusUnauthorized)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "cannot read body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			// nacl/sign verifies a signature-prefixed message.
			signed := make([]byte, 0, len(sig)+len(timestamp)+len(body))
			signed = append(signed, sig...)
			signed = append(signed, timestamp...)
			signed = append(signed, body...)

			if _, ok := sign.Open(nil, signed, &key); !ok {
				http.Error(w, "invalid request signature", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
