package marketo

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"

	"go.uber.org/zap"
)

// timestampLayout is ISO-8601 with a numeric offset, never "Z"
const timestampLayout = "2006-01-02T15:04:05-07:00"

// Sign returns the hex HMAC-SHA1 of timestamp+userID keyed by secret
func Sign(secret, timestamp, userID string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(timestamp + userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// authenticate builds a fresh header for one call. Timestamps are not reused:
// the server rejects stale signatures.
func (m *Marketo) authenticate() AuthenticationHeader {
	timestamp := m.now().Format(timestampLayout)

	m.logger.Debug("Signing request",
		zap.String("user_id", m.config.UserID),
		zap.String("timestamp", timestamp))

	return AuthenticationHeader{
		NS:        Namespace,
		UserID:    m.config.UserID,
		Signature: Sign(m.config.EncryptionKey, timestamp, m.config.UserID),
		Timestamp: timestamp,
	}
}
