package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// Key builders. Anonymous assets live under the shared public prefix until an
// ownership claim moves them into the owner's private prefix; authenticated
// assets go straight to the user prefix.

func PublicUploadKey() string {
	return fmt.Sprintf("public/uploads/%s.jpg", uuid.NewString())
}

func UserUploadKey(userID string) string {
	return fmt.Sprintf("users/%s/uploads/%s.jpg", userID, uuid.NewString())
}

// ClaimedKey rewrites a public upload key into the claiming user's prefix,
// keeping the original object name.
func ClaimedKey(userID, publicKey string) string {
	name := publicKey
	if idx := lastSlash(publicKey); idx >= 0 {
		name = publicKey[idx+1:]
	}
	return fmt.Sprintf("users/%s/uploads/%s", userID, name)
}

func PageKey(ownerID *string, pageID string) string {
	if ownerID != nil && *ownerID != "" {
		return fmt.Sprintf("users/%s/pages/%s.png", *ownerID, pageID)
	}
	return fmt.Sprintf("public/pages/%s.png", pageID)
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
