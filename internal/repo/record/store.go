package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/infra/logging"
	"github.com/apiarian/village/internal/repo/blob"
)

// Entity is implemented by pointers to the domain types kept in a Store.
type Entity[T any] interface {
	*T

	// Identity returns the key naming the entity's record file.
	Identity() string
	// Validate reports whether the entity may be persisted.
	Validate() error
	// Clone returns a deep copy.
	Clone() *T
}

// StoreConfig describes one entity type.
type StoreConfig struct {
	// Name labels the entity type in logs, e.g. "user".
	Name string
	// ValidateID rejects malformed identities before touching storage.
	ValidateID func(id string) error
	// NotFound and AlreadyExists are the entity-specific sentinels to report.
	NotFound      error
	AlreadyExists error
}

// Store keeps hybrid records of one entity type in a blob area and caches
// the entities it reads and writes.
type Store[T any, P Entity[T]] struct {
	blobs blob.Repository
	cache *Cache[P]
	cfg   StoreConfig
	log   logging.Logger
}

// NewStore creates a Store over the given blob area.
func NewStore[T any, P Entity[T]](blobs blob.Repository, cfg StoreConfig) *Store[T, P] {
	if cfg.ValidateID == nil {
		cfg.ValidateID = func(string) error { return nil }
	}

	if cfg.NotFound == nil {
		cfg.NotFound = domain.ErrNotFound
	}

	if cfg.AlreadyExists == nil {
		cfg.AlreadyExists = domain.ErrAlreadyExists
	}

	return &Store[T, P]{
		blobs: blobs,
		cache: NewCache[P](),
		cfg:   cfg,
		log:   logging.GetLogger("repo.record.store").With("entity", cfg.Name),
	}
}

// Cache exposes the store's identity cache.
func (s *Store[T, P]) Cache() *Cache[P] {
	return s.cache
}

// Exists reports whether a record for id is stored.
func (s *Store[T, P]) Exists(ctx context.Context, id string) bool {
	if s.cfg.ValidateID(id) != nil {
		return false
	}

	return s.blobs.Exists(ctx, domain.BlobID(id))
}

// Create stores a new record. It fails with the AlreadyExists sentinel if id is taken.
func (s *Store[T, P]) Create(ctx context.Context, entity P, content string) (err error) {
	log := s.log.With(logging.Group("record", "id", entity.Identity()))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "record create failed", "error", err)
		} else {
			log.DebugContext(ctx, "record created")
		}
	}()

	if err := s.validate(entity); err != nil {
		return err
	}

	id := entity.Identity()

	if s.blobs.Exists(ctx, domain.BlobID(id)) {
		return fmt.Errorf("%w: %q", s.cfg.AlreadyExists, id)
	}

	return s.write(ctx, id, entity, content)
}

// Load reads the entity from storage and refreshes the cache.
func (s *Store[T, P]) Load(ctx context.Context, id string) (P, error) {
	entity, _, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}

	return entity.Clone(), nil
}

// Get returns the cached entity for id, loading it on a miss.
func (s *Store[T, P]) Get(ctx context.Context, id string) (P, error) {
	if entity, ok := s.cache.Get(id); ok {
		return entity.Clone(), nil
	}

	return s.Load(ctx, id)
}

// LoadContent reads the free-text half of the record.
func (s *Store[T, P]) LoadContent(ctx context.Context, id string) (string, error) {
	_, content, err := s.read(ctx, id)
	if err != nil {
		return "", err
	}

	return content, nil
}

// Update rewrites the record for id, replacing only the supplied halves.
// A nil entity or content keeps the stored one; if nothing is stored the
// call fails with domain.ErrDataMissing.
func (s *Store[T, P]) Update(ctx context.Context, id string, entity P, content *string) (err error) {
	log := s.log.With(logging.Group("record",
		"id", id,
		"entity", entity != nil,
		"content", content != nil,
	))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "record update failed", "error", err)
		} else {
			log.DebugContext(ctx, "record updated")
		}
	}()

	if entity != nil {
		if err := s.validate(entity); err != nil {
			return err
		}

		if entity.Identity() != id {
			return fmt.Errorf("%w: cannot store %q as %q", domain.ErrValidation, entity.Identity(), id)
		}
	}

	current, currentContent, err := s.read(ctx, id)

	exists := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("read current: %w", err)
	}

	if entity == nil {
		if !exists {
			return fmt.Errorf("%w: no %s record %q to keep", domain.ErrDataMissing, s.cfg.Name, id)
		}

		entity = current
	}

	if content == nil {
		if !exists {
			return fmt.Errorf("%w: no %s content %q to keep", domain.ErrDataMissing, s.cfg.Name, id)
		}

		content = &currentContent
	}

	return s.write(ctx, id, entity, *content)
}

// List loads every record in the area, ordered by identity.
func (s *Store[T, P]) List(ctx context.Context) ([]P, error) {
	ids, err := s.blobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", s.cfg.Name, err)
	}

	entities := make([]P, 0, len(ids))

	for _, id := range ids {
		if err := s.cfg.ValidateID(string(id)); err != nil {
			s.log.WarnContext(ctx, "skipping foreign record", logging.Group("record", "id", id), "error", err)

			continue
		}

		entity, err := s.Load(ctx, string(id))
		if err != nil {
			return nil, fmt.Errorf("load %s %q: %w", s.cfg.Name, id, err)
		}

		entities = append(entities, entity)
	}

	return entities, nil
}

func (s *Store[T, P]) validate(entity P) error {
	if entity == nil {
		return fmt.Errorf("%w: nil %s", domain.ErrValidation, s.cfg.Name)
	}

	if err := entity.Validate(); err != nil {
		return fmt.Errorf("validate %s: %w", s.cfg.Name, err)
	}

	return nil
}

// read loads the full record and caches the entity. The returned entity
// is the cached instance and must not be handed to callers.
func (s *Store[T, P]) read(ctx context.Context, id string) (entity P, content string, err error) {
	log := s.log.With(logging.Group("record", "id", id))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "record read failed", "error", err)
		} else {
			log.DebugContext(ctx, "record read")
		}
	}()

	if err := s.cfg.ValidateID(id); err != nil {
		return nil, "", fmt.Errorf("validate %s id: %w", s.cfg.Name, err)
	}

	data, err := s.blobs.Fetch(ctx, domain.BlobID(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.cache.Forget(id)

			err = errors.Join(s.cfg.NotFound, err)
		}

		return nil, "", fmt.Errorf("fetch %s: %w", s.cfg.Name, err)
	}

	entity = P(new(T))

	content, err = Decode(data.Bytes(), entity)
	if err != nil {
		return nil, "", errors.Join(domain.ErrValidation, fmt.Errorf("decode %s %q: %w", s.cfg.Name, id, err))
	}

	if err := entity.Validate(); err != nil {
		return nil, "", fmt.Errorf("stored %s %q: %w", s.cfg.Name, id, err)
	}

	if entity.Identity() != id {
		return nil, "", fmt.Errorf("%w: record %q holds %s %q",
			domain.ErrStorageIntegrity, id, s.cfg.Name, entity.Identity())
	}

	s.cache.Put(id, entity)

	return entity, content, nil
}

func (s *Store[T, P]) write(ctx context.Context, id string, entity P, content string) error {
	data, err := Encode(entity, content)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.cfg.Name, err)
	}

	if err := s.blobs.Store(ctx, domain.NewBlob(domain.BlobID(id), data)); err != nil {
		return fmt.Errorf("store %s: %w", s.cfg.Name, err)
	}

	s.cache.Put(id, entity.Clone())

	return nil
}
