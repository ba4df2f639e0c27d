package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// URLBuilder produces public and HMAC-signed URLs for stored objects. Signed
// URLs gate access to user-prefixed assets without a session.
type URLBuilder struct {
	baseURL string
	secret  []byte
}

func NewURLBuilder(baseURL, secret string) *URLBuilder {
	return &URLBuilder{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
	}
}

// PublicURL returns the stable, unauthenticated URL for a key.
func (b *URLBuilder) PublicURL(key string) string {
	return b.baseURL + "/" + strings.TrimLeft(key, "/")
}

// SignedURL returns a URL that expires after ttl.
func (b *URLBuilder) SignedURL(key string, ttl time.Duration) string {
	expires := time.Now().Add(ttl).Unix()
	sig := b.sign(key, expires)
	return fmt.Sprintf("%s/%s?expires=%d&sig=%s", b.baseURL, strings.TrimLeft(key, "/"), expires, sig)
}

// VerifySignature checks a signed URL's signature and expiry.
func (b *URLBuilder) VerifySignature(key, sig string, expires int64) error {
	if time.Now().Unix() > expires {
		return errors.New("storage: signed url expired")
	}
	expected := b.sign(key, expires)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return errors.New("storage: invalid signature")
	}
	return nil
}

func (b *URLBuilder) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, b.secret)
	mac.Write([]byte(strings.TrimLeft(key, "/")))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
