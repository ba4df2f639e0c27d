// Package uploads manages source-photo ingestion and the anonymous ownership
// model: anonymous uploads land under the shared public prefix with a random
// nonce, and a later authenticated claim must present that nonce exactly once
// before the file is moved into the user's private prefix.
package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
	"server/internal/storage"
)

// Result describes a registered upload. Nonce is only set for anonymous
// uploads; it is the caller's proof of authorship for a later claim.
type Result struct {
	ID         string
	StorageKey string
	Nonce      string
}

type Service struct {
	sql   infra.SQLExecutor
	store storage.Store
}

func NewService(sql infra.SQLExecutor, store storage.Store) *Service {
	return &Service{sql: sql, store: store}
}

// Register stores the uploaded photo bytes. Authenticated uploads go directly
// to the user prefix; anonymous uploads go to the public prefix and receive
// an ownership nonce.
func (s *Service) Register(ctx context.Context, data []byte, userID *string) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: upload body is empty", domain.ErrValidation)
	}

	key := storage.PublicUploadKey()
	if userID != nil && *userID != "" {
		key = storage.UserUploadKey(*userID)
	}
	storedKey, err := s.store.Write(ctx, key, data)
	if err != nil {
		return nil, fmt.Errorf("%w: store upload: %v", domain.ErrStorage, err)
	}

	result := &Result{
		ID:         uuid.NewString(),
		StorageKey: storedKey,
		Nonce:      uuid.NewString(),
	}
	row := s.sql.QueryRow(ctx, sqlinline.QInsertUploadClaim, result.ID, result.StorageKey, result.Nonce, userID)
	var createdAt time.Time
	if err := row.Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("%w: record upload: %v", domain.ErrPersistence, err)
	}
	if userID != nil && *userID != "" {
		// Owned from the start; no claim needed, no nonce exposed.
		result.Nonce = ""
	}
	return result, nil
}

// Claim associates an anonymous upload with the authenticated user. The nonce
// must match and must not have been used before; the DB claim is a single
// conditional update, so a racing second claim loses and gets
// ErrOwnershipConflict.
func (s *Service) Claim(ctx context.Context, nonce, userID string) (string, error) {
	if nonce == "" || userID == "" {
		return "", fmt.Errorf("%w: nonce and user id are required", domain.ErrValidation)
	}

	var (
		id         string
		storageKey string
		ownerID    *string
		claimedAt  *time.Time
		createdAt  time.Time
	)
	row := s.sql.QueryRow(ctx, sqlinline.QGetUploadByNonce, nonce)
	if err := row.Scan(&id, &storageKey, &ownerID, &claimedAt, &createdAt); err != nil {
		if infra.IsNoRows(err) {
			return "", fmt.Errorf("%w: unknown upload nonce", domain.ErrOwnershipConflict)
		}
		return "", fmt.Errorf("%w: look up upload claim: %v", domain.ErrPersistence, err)
	}
	if claimedAt != nil {
		return "", fmt.Errorf("%w: upload already claimed", domain.ErrOwnershipConflict)
	}

	newKey := storage.ClaimedKey(userID, storageKey)
	var claimedID string
	row = s.sql.QueryRow(ctx, sqlinline.QMarkUploadClaimed, id, userID, newKey)
	if err := row.Scan(&claimedID); err != nil {
		if infra.IsNoRows(err) {
			// Lost the race to a concurrent claim with the same nonce.
			return "", fmt.Errorf("%w: upload already claimed", domain.ErrOwnershipConflict)
		}
		return "", fmt.Errorf("%w: claim upload: %v", domain.ErrPersistence, err)
	}

	movedKey, err := s.store.Move(ctx, storageKey, newKey)
	if err != nil {
		// Put the row back so the nonce stays usable; the bytes never left
		// the public prefix.
		if _, revertErr := s.sql.Exec(ctx, sqlinline.QRevertUploadClaim, id, storageKey); revertErr != nil {
			return "", fmt.Errorf("%w: move claimed upload: %v (revert failed: %v)", domain.ErrStorage, err, revertErr)
		}
		return "", fmt.Errorf("%w: move claimed upload: %v", domain.ErrStorage, err)
	}
	return movedKey, nil
}
