package repo

import (
	"context"
	"fmt"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// PageRepository persists the user-facing page records.
type PageRepository struct {
	sql infra.SQLExecutor
}

func NewPageRepository(sql infra.SQLExecutor) *PageRepository {
	return &PageRepository{sql: sql}
}

// Create inserts a new queued page record.
func (r *PageRepository) Create(ctx context.Context, page *domain.Page) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertPage,
		page.ID,
		page.UserID,
		page.SceneText,
		page.Style,
		page.Difficulty,
		page.SourceKey,
	)
	if err := row.Scan(&page.CreatedAt); err != nil {
		return fmt.Errorf("%w: create page: %v", domain.ErrPersistence, err)
	}
	page.Status = domain.PageStatusQueued
	page.UpdatedAt = page.CreatedAt
	return nil
}

// UpdateStatus writes the status and, when non-nil, a human-readable error
// message suitable for direct display.
func (r *PageRepository) UpdateStatus(ctx context.Context, pageID string, status domain.PageStatus, errorMessage *string) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QUpdatePageStatus, pageID, status, errorMessage); err != nil {
		return fmt.Errorf("%w: update page %s status: %v", domain.ErrPersistence, pageID, err)
	}
	return nil
}

// Complete records the finished artifact on the page.
func (r *PageRepository) Complete(ctx context.Context, pageID, prompt, storageKey, outputURL string, analysisJSON []byte) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QCompletePage, pageID, prompt, storageKey, outputURL, nullableBytes(analysisJSON)); err != nil {
		return fmt.Errorf("%w: complete page %s: %v", domain.ErrPersistence, pageID, err)
	}
	return nil
}

// GetByID fetches a page by its identifier.
func (r *PageRepository) GetByID(ctx context.Context, pageID string) (*domain.Page, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QGetPage, pageID)
	var page domain.Page
	if err := row.Scan(
		&page.ID,
		&page.UserID,
		&page.SceneText,
		&page.Prompt,
		&page.Style,
		&page.Difficulty,
		&page.SourceKey,
		&page.StorageKey,
		&page.OutputURL,
		&page.Status,
		&page.ErrorMessage,
		&page.AnalysisJSON,
		&page.CreatedAt,
		&page.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get page %s: %v", domain.ErrPersistence, pageID, err)
	}
	return &page, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
