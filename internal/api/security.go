package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/oakmart/promotions/internal/domain/auth"
	"github.com/oakmart/promotions/pkg/httpmiddleware"
)

const apiKeyHeader = "X-API-Key"

// HashAPIKey computes the peppered HMAC-SHA256 hash of a raw API key. The
// same function is used at seed time and at request time, so stored hashes
// are only valid for the pepper they were created with.
func HashAPIKey(key string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// RequireAPIKey authenticates requests by hashing the presented API key,
// looking it up in the repository, and performing a constant-time comparison
// to prevent timing attacks.
func RequireAPIKey(apikeys auth.Repository, pepper []byte) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			hash := HashAPIKey(key, pepper)
			info, err := apikeys.FindByHash(r.Context(), hash)
			if err != nil {
				zctx.From(r.Context()).Debug("API key lookup failed", zap.Error(err))
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			// Compare against the stored hash even though the lookup already
			// succeeded. The repository could return a stale or wrong row.
			if subtle.ConstantTimeCompare([]byte(hash), []byte(info.KeyHash)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
