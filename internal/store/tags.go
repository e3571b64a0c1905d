package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/events"
	"github.com/keepstackapp/keepstack-server/internal/id"
	"github.com/keepstackapp/keepstack-server/internal/normalize"
)

// Key prefixes for tag storage. Tags belong to a user, so the slug index is
// scoped per user.
const (
	tagPrefix       = "tag:"           // tag:{id} → Tag JSON
	tagBySlugPrefix = "idx:tags:slug:" // idx:tags:slug:{userID}:{slug} → tagID
	tagByUserPrefix = "idx:tags:user:" // idx:tags:user:{userID}:{tagID} → tagID
)

// Tag errors.
var (
	ErrTagNotFound = errors.New("tag not found")
	ErrTagExists   = errors.New("tag already exists")
)

// CreateTag creates a new tag for a user. The tag name is slugged for the
// uniqueness check, so "Deep Work" and "deep-work" are the same tag.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	slug := normalize.TagSlug(t.Name)
	if slug == "" {
		return fmt.Errorf("%w: tag name produces empty slug", ErrInvalidInput)
	}

	if t.ID == "" {
		generated, err := id.Generate(id.PrefixTag)
		if err != nil {
			return fmt.Errorf("generate tag id: %w", err)
		}
		t.ID = generated
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		// Check if slug already exists for this user.
		slugKey := []byte(tagBySlugPrefix + t.UserID + ":" + slug)
		if _, err := txn.Get(slugKey); err == nil {
			return ErrTagExists
		}

		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(tagPrefix+t.ID), data); err != nil {
			return err
		}

		if err := txn.Set(slugKey, []byte(t.ID)); err != nil {
			return err
		}
		userKey := []byte(tagByUserPrefix + t.UserID + ":" + t.ID)
		return txn.Set(userKey, []byte(t.ID))
	})
	if err != nil {
		return err
	}

	s.emit(events.NewTagCreatedEvent(t))
	return nil
}

// GetTagByID retrieves a tag by ID.
func (s *Store) GetTagByID(ctx context.Context, tagID string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	key := []byte(tagPrefix + tagID)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		})
	})
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// GetTagBySlug retrieves a user's tag by name or slug.
func (s *Store) GetTagBySlug(ctx context.Context, userID, nameOrSlug string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slug := normalize.TagSlug(nameOrSlug)

	var tagID string
	slugKey := []byte(tagBySlugPrefix + userID + ":" + slug)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(slugKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tagID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetTagByID(ctx, tagID)
}

// ListTags returns all of a user's tags, ordered by name.
func (s *Store) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tags []*domain.Tag
	prefix := []byte(tagByUserPrefix + userID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var tagID string
			if err := it.Item().Value(func(val []byte) error {
				tagID = string(val)
				return nil
			}); err != nil {
				return err
			}

			item, err := txn.Get([]byte(tagPrefix + tagID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			var t domain.Tag
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			}); err != nil {
				return err
			}
			tags = append(tags, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})
	return tags, nil
}

// DeleteTag removes a tag and its indexes. Idempotent.
// Articles keep their tag strings; the tag record only carries color and
// metadata.
func (s *Store) DeleteTag(ctx context.Context, tagID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t, err := s.GetTagByID(ctx, tagID)
	if errors.Is(err, ErrTagNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	slug := normalize.TagSlug(t.Name)

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(tagPrefix + tagID)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(tagBySlugPrefix + t.UserID + ":" + slug)); err != nil {
			return err
		}
		return txn.Delete([]byte(tagByUserPrefix + t.UserID + ":" + tagID))
	})
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	s.emit(events.NewTagDeletedEvent(t))
	return nil
}
