package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"ambient-reader/internal/domain"
)

const (
	bookPrefix   = "book:"
	recentPrefix = "idx:books:recent:"
)

// BadgerLibrary keeps library entries in badger with a recency index.
//
// Keys:
//
//	book:{id}                              -> JSON LibraryEntry
//	idx:books:recent:{timestamp}:{id}      -> empty
type BadgerLibrary struct {
	db  *badger.DB
	log *zap.Logger
}

// OpenBadgerLibrary opens or creates the library database at path.
func OpenBadgerLibrary(path string, log *zap.Logger) (*BadgerLibrary, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	return openBadgerLibrary(opts, log)
}

// OpenInMemoryLibrary opens a throwaway badger instance.
func OpenInMemoryLibrary(log *zap.Logger) (*BadgerLibrary, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadgerLibrary(opts, log)
}

func openBadgerLibrary(opts badger.Options, log *zap.Logger) (*BadgerLibrary, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open library db: %w", err)
	}
	return &BadgerLibrary{db: db, log: log}, nil
}

// Close closes the database.
func (l *BadgerLibrary) Close() error {
	return l.db.Close()
}

// ListRecentBooks walks the recency index newest first.
func (l *BadgerLibrary) ListRecentBooks(ctx context.Context, limit int) ([]domain.LibraryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	out := make([]domain.LibraryEntry, 0, limit)
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		opts.Prefix = []byte(recentPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append([]byte(recentPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix) && len(out) < limit; it.Next() {
			id, err := idFromRecentKey(it.Item().KeyCopy(nil))
			if err != nil {
				l.log.Warn("skip malformed recency key", zap.Error(err))
				continue
			}
			entry, err := getEntry(txn, id)
			if err != nil {
				l.log.Warn("recency index points at missing entry", zap.String("id", id), zap.Error(err))
				continue
			}
			out = append(out, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list recent books: %w", err)
	}
	return out, nil
}

// AddBook inserts the entry or touches the existing one with the same id.
func (l *BadgerLibrary) AddBook(ctx context.Context, entry domain.LibraryEntry) (domain.LibraryEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.LibraryEntry{}, err
	}
	if entry.ID == "" {
		return domain.LibraryEntry{}, errors.New("library entry id is required")
	}

	var stored domain.LibraryEntry
	err := l.db.Update(func(txn *badger.Txn) error {
		existing, err := getEntry(txn, entry.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			stored = entry
			return putEntry(txn, stored, time.Time{})
		case err != nil:
			return err
		}

		stored = mergeTouched(existing, entry)
		return putEntry(txn, stored, existing.LastOpened)
	})
	if err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("add book: %w", err)
	}
	return stored, nil
}

// GetBook returns one entry.
func (l *BadgerLibrary) GetBook(ctx context.Context, id string) (domain.LibraryEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.LibraryEntry{}, err
	}
	var entry domain.LibraryEntry
	err := l.db.View(func(txn *badger.Txn) error {
		var err error
		entry, err = getEntry(txn, id)
		return err
	})
	return entry, err
}

// UpdateProgress stores the position and fraction and bumps recency.
func (l *BadgerLibrary) UpdateProgress(ctx context.Context, update ProgressUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.db.Update(func(txn *badger.Txn) error {
		entry, err := getEntry(txn, update.ID)
		if err != nil {
			return err
		}
		previous := entry.LastOpened
		entry.Progress = domain.ClampUnit(update.Fraction)
		entry.LastLocation = update.Token
		if !update.At.IsZero() {
			entry.LastOpened = update.At
		}
		return putEntry(txn, entry, previous)
	})
}

// GetProgress returns the stored resume token, empty when none was recorded.
func (l *BadgerLibrary) GetProgress(ctx context.Context, id string) (string, error) {
	entry, err := l.GetBook(ctx, id)
	if err != nil {
		return "", err
	}
	return entry.LastLocation, nil
}

// RemoveBook deletes the entry and its index key. Missing entries are ignored.
func (l *BadgerLibrary) RemoveBook(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.db.Update(func(txn *badger.Txn) error {
		entry, err := getEntry(txn, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txn.Delete(recentKey(entry.LastOpened, id)); err != nil {
			return err
		}
		return txn.Delete(bookKey(id))
	})
}

// mergeTouched refreshes recency on an existing entry and fills metadata it
// does not have yet. Progress is never reset by a re-open.
func mergeTouched(existing, incoming domain.LibraryEntry) domain.LibraryEntry {
	merged := existing
	merged.LastOpened = incoming.LastOpened
	if merged.Title == "" {
		merged.Title = incoming.Title
	}
	if merged.Author == "" {
		merged.Author = incoming.Author
	}
	if merged.CoverRef == "" {
		merged.CoverRef = incoming.CoverRef
		merged.CoverBlurHash = incoming.CoverBlurHash
	}
	if incoming.FilePath != "" {
		merged.FilePath = incoming.FilePath
	}
	return merged
}

func getEntry(txn *badger.Txn, id string) (domain.LibraryEntry, error) {
	item, err := txn.Get(bookKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.LibraryEntry{}, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.LibraryEntry{}, err
	}

	var entry domain.LibraryEntry
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entry)
	})
	return entry, err
}

// putEntry writes the entry and moves its recency key from previous.
func putEntry(txn *badger.Txn, entry domain.LibraryEntry, previous time.Time) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if !previous.IsZero() && !previous.Equal(entry.LastOpened) {
		if err := txn.Delete(recentKey(previous, entry.ID)); err != nil {
			return err
		}
	}
	if err := txn.Set(bookKey(entry.ID), data); err != nil {
		return err
	}
	return txn.Set(recentKey(entry.LastOpened, entry.ID), nil)
}

func bookKey(id string) []byte {
	return []byte(bookPrefix + id)
}

// recentKey sorts lexicographically by time. Nanoseconds are zero padded.
func recentKey(at time.Time, id string) []byte {
	ts := at.UTC().Format("2006-01-02T15:04:05") + fmt.Sprintf(".%09d", at.Nanosecond()) + "Z"
	return fmt.Appendf(nil, "%s%s:%s", recentPrefix, ts, id)
}

func idFromRecentKey(key []byte) (string, error) {
	const timestampLen = 30
	rest := key[len(recentPrefix):]
	if len(rest) < timestampLen+2 || rest[timestampLen] != ':' {
		return "", fmt.Errorf("invalid recency key %q", key)
	}
	return string(rest[timestampLen+1:]), nil
}
