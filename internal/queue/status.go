package queue

import (
	"context"
	"errors"
	"fmt"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// StatusProvider answers "what state is this page's generation in" for one
// backing store. Implementations return domain.ErrNotFound when they hold no
// answer, which lets providers be composed into a fallback chain.
type StatusProvider interface {
	Status(ctx context.Context, pageID string) (string, error)
}

// QueueStatusProvider reads the live queue row for a page. Queue rows are
// transient (terminal rows get purged), so a miss here is expected for older
// pages.
type QueueStatusProvider struct {
	sql infra.SQLExecutor
}

func NewQueueStatusProvider(sql infra.SQLExecutor) *QueueStatusProvider {
	return &QueueStatusProvider{sql: sql}
}

func (p *QueueStatusProvider) Status(ctx context.Context, pageID string) (string, error) {
	var status string
	row := p.sql.QueryRow(ctx, sqlinline.QQueueStatusByPage, pageID)
	if err := row.Scan(&status); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("%w: queue status for page %s: %v", domain.ErrPersistence, pageID, err)
	}
	return status, nil
}

// PageStatusProvider reads the permanent page record.
type PageStatusProvider struct {
	sql infra.SQLExecutor
}

func NewPageStatusProvider(sql infra.SQLExecutor) *PageStatusProvider {
	return &PageStatusProvider{sql: sql}
}

func (p *PageStatusProvider) Status(ctx context.Context, pageID string) (string, error) {
	var status string
	row := p.sql.QueryRow(ctx, sqlinline.QPageStatus, pageID)
	if err := row.Scan(&status); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("%w: page status for %s: %v", domain.ErrPersistence, pageID, err)
	}
	return status, nil
}

// StatusChain consults providers in order and returns the first answer. The
// precedence rule lives here and nowhere else: a live queue row always wins
// over the page record it mirrors.
type StatusChain []StatusProvider

func NewStatusChain(sql infra.SQLExecutor) StatusChain {
	return StatusChain{
		NewQueueStatusProvider(sql),
		NewPageStatusProvider(sql),
	}
}

func (c StatusChain) Status(ctx context.Context, pageID string) (string, error) {
	for _, provider := range c {
		status, err := provider.Status(ctx, pageID)
		if err == nil {
			return status, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
	}
	return "", domain.ErrNotFound
}
