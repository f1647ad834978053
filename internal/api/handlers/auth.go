package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/sha3"

	"github.com/breezechat/backend/internal/config"
)

const noncePrefix = "siwe:nonce:"

// IssueNonce hands out a single-use alphanumeric nonce for the wallet
// sign-in flow. The nonce lives in Redis with a TTL so the client cannot
// tamper with or replay it.
func IssueNonce(rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce := strings.ReplaceAll(uuid.NewString(), "-", "")

		ttl := time.Duration(cfg.NonceTTLSeconds) * time.Second
		if err := rdb.Set(c.Request.Context(), noncePrefix+nonce, "1", ttl).Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store nonce"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"nonce": nonce})
	}
}

type siwePayload struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

type siweRequest struct {
	Nonce   string      `json:"nonce"`
	Payload siwePayload `json:"payload"`
}

// CompleteSIWE consumes the nonce and sanity-checks the wallet address.
// Signature verification itself is delegated to the upstream verifier; the
// chat core only ever trusts the display name the client submits later.
func CompleteSIWE(rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req siweRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Nonce == "" {
			c.JSON(http.StatusOK, gin.H{
				"status":  "error",
				"isValid": false,
				"message": "Invalid request",
			})
			return
		}

		// GetDel makes the nonce single use.
		stored, err := rdb.GetDel(c.Request.Context(), noncePrefix+req.Nonce).Result()
		if err != nil || stored == "" {
			c.JSON(http.StatusOK, gin.H{
				"status":  "error",
				"isValid": false,
				"message": "Invalid nonce",
			})
			return
		}

		if !validChecksumAddress(req.Payload.Address) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "error",
				"isValid": false,
				"message": "Invalid wallet address",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":        "success",
			"isValid":       true,
			"walletAddress": req.Payload.Address,
		})
	}
}

// validChecksumAddress checks the 0x-hex shape and, for mixed-case input,
// the EIP-55 checksum.
func validChecksumAddress(address string) bool {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return false
	}
	hexPart := address[2:]
	for _, r := range hexPart {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}

	lower := strings.ToLower(hexPart)
	if hexPart == lower || hexPart == strings.ToUpper(hexPart) {
		return true // not checksummed
	}

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	sum := h.Sum(nil)

	for i := 0; i < len(hexPart); i++ {
		ch := hexPart[i]
		if ch >= '0' && ch <= '9' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			if ch < 'A' || ch > 'F' {
				return false
			}
		} else {
			if ch < 'a' || ch > 'f' {
				return false
			}
		}
	}
	return true
}
