package shared

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	tokenAddressLen = common.AddressLength
	tokenExpiryLen  = 8
	tokenMACLen     = sha256.Size
)

// CallerTokens issues and verifies bearer tokens bound to a caller address.
// A token is address | expiry | HMAC-SHA256(secret, address | expiry).
type CallerTokens struct {
	secret []byte
	now    func() time.Time
}

// NewCallerTokens returns a CallerTokens using the provided secret key.
func NewCallerTokens(secret string) *CallerTokens {
	return &CallerTokens{secret: []byte(secret), now: time.Now}
}

// Issue mints a token for caller valid for ttl.
func (m *CallerTokens) Issue(caller common.Address, ttl time.Duration) (string, error) {
	if m == nil || len(m.secret) == 0 {
		return "", errors.New("caller tokens: secret not configured")
	}
	if ttl <= 0 {
		return "", errors.New("caller tokens: ttl must be positive")
	}
	buf := make([]byte, tokenAddressLen+tokenExpiryLen, tokenAddressLen+tokenExpiryLen+tokenMACLen)
	copy(buf, caller.Bytes())
	binary.BigEndian.PutUint64(buf[tokenAddressLen:], uint64(m.now().Add(ttl).Unix()))
	buf = append(buf, m.sign(buf)...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify checks the token MAC and expiry and returns the bound caller.
func (m *CallerTokens) Verify(token string) (common.Address, error) {
	if token == "" {
		return common.Address{}, ErrCallerTokenMissing
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != tokenAddressLen+tokenExpiryLen+tokenMACLen {
		return common.Address{}, ErrCallerTokenInvalid
	}
	payload, mac := raw[:tokenAddressLen+tokenExpiryLen], raw[tokenAddressLen+tokenExpiryLen:]
	if !hmac.Equal(mac, m.sign(payload)) {
		return common.Address{}, ErrCallerTokenInvalid
	}
	expiry := int64(binary.BigEndian.Uint64(payload[tokenAddressLen:]))
	if m.now().Unix() >= expiry {
		return common.Address{}, ErrCallerTokenExpired
	}
	return common.BytesToAddress(payload[:tokenAddressLen]), nil
}

func (m *CallerTokens) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write(payload)
	return mac.Sum(nil)
}
