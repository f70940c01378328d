package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunArchiveRepository implements ArchiveRepository on a Bun database with
// optional read caching.
type BunArchiveRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Document]
	cacheService cache.CacheService
	cachePrefix  string
}

const documentNamespace = "document"

var errArchiveDatabaseRequired = errors.New("posts: archive repository requires a database")

// NewBunArchiveRepository creates an archive repository without caching.
func NewBunArchiveRepository(db *bun.DB) *BunArchiveRepository {
	return NewBunArchiveRepositoryWithCache(db, nil, nil)
}

// NewBunArchiveRepositoryWithCache creates an archive repository with caching services.
func NewBunArchiveRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunArchiveRepository {
	base := NewDocumentRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = cachePrefix(documentNamespace)
	}
	return &BunArchiveRepository{
		db:           db,
		repo:         base,
		cacheService: svc,
		cachePrefix:  prefix,
	}
}

// EnsureSchema creates the documents table when it does not exist yet.
func (r *BunArchiveRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return errArchiveDatabaseRequired
	}
	_, err := r.db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Upsert inserts or replaces the archive row keyed by identifier. The first
// load timestamp survives subsequent upserts.
func (r *BunArchiveRepository) Upsert(ctx context.Context, record *Document) (*Document, error) {
	if r.db == nil {
		return nil, errArchiveDatabaseRequired
	}
	if record == nil {
		return nil, ErrDocumentRequired
	}
	if record.Identifier == "" {
		return nil, ErrIdentifierRequired
	}

	var existing Document
	err := r.db.NewSelect().Model(&existing).Where("identifier = ?", record.Identifier).Scan(ctx)
	created := false
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			created = true
		} else {
			return nil, err
		}
	}

	model := record.Clone()
	now := time.Now().UTC()
	model.UpdatedAt = now
	if created {
		if model.ID == uuid.Nil {
			model.ID = uuid.New()
		}
		if model.LoadedAt.IsZero() {
			model.LoadedAt = now
		}
		if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
			return nil, err
		}
	} else {
		model.ID = existing.ID
		model.LoadedAt = existing.LoadedAt
		if _, err := r.db.NewUpdate().
			Model(model).
			Column("slug", "title", "layout", "summary", "status", "published_at",
				"categories", "body", "body_html", "source_path", "checksum",
				"metadata", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return nil, err
		}
	}

	if err := r.InvalidateCache(ctx); err != nil {
		return nil, err
	}

	var stored Document
	if err := r.db.NewSelect().Model(&stored).Where("identifier = ?", record.Identifier).Scan(ctx); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetByIdentifier fetches an archived row by identifier.
func (r *BunArchiveRepository) GetByIdentifier(ctx context.Context, identifier string) (*Document, error) {
	record, err := r.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, mapRepositoryError(err, "document", identifier)
	}
	return record, nil
}

// List returns every archived row ordered by publication time ascending.
func (r *BunArchiveRepository) List(ctx context.Context) ([]*Document, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.published_at ASC").
				OrderExpr("?TableAlias.identifier ASC")
		}),
	)
	return records, err
}

// DeleteStale removes archive rows whose identifier is not in keep. An empty
// keep list clears the archive.
func (r *BunArchiveRepository) DeleteStale(ctx context.Context, keep []string) (int, error) {
	if r.db == nil {
		return 0, errArchiveDatabaseRequired
	}

	q := r.db.NewDelete().Model((*Document)(nil))
	if len(keep) > 0 {
		q = q.Where("?TableAlias.identifier NOT IN (?)", bun.In(keep))
	} else {
		q = q.Where("1 = 1")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	if affected > 0 {
		if err := r.InvalidateCache(ctx); err != nil {
			return int(affected), err
		}
	}
	return int(affected), nil
}

// InvalidateCache drops cached document reads after a write.
func (r *BunArchiveRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func cachePrefix(namespace string) string {
	if namespace == "" {
		return ""
	}
	return namespace + cache.KeySeparator
}
