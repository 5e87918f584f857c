package storage

import (
	"chat-sync/domain"
	"chat-sync/errors"
	goerrors "errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BlobRepository keeps protected images fetched during the session.
// Badger runs in memory only: nothing survives the process.
//
// Keys:
//
//	blob:{handle} -> raw bytes
//	mime:{handle} -> detected content type
//	ref:{imageID} -> handle
type BlobRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBlobRepository(db *badger.DB, log *slog.Logger) *BlobRepository {
	return &BlobRepository{db: db, log: log}
}

func OpenInMemory() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
}

func (r *BlobRepository) Store(imageID string, data []byte, mimeType string) (domain.Blob, error) {
	blob := domain.Blob{
		Handle:   uuid.NewString(),
		ImageID:  imageID,
		MimeType: mimeType,
		Size:     len(data),
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(blobKey(blob.Handle), data); err != nil {
			return err
		}
		if err := txn.Set(mimeKey(blob.Handle), []byte(mimeType)); err != nil {
			return err
		}
		return txn.Set(refKey(imageID), []byte(blob.Handle))
	})
	if err != nil {
		return domain.Blob{}, fmt.Errorf("storing image %s: %w", imageID, err)
	}
	return blob, nil
}

// Lookup finds the blob previously stored for imageID.
func (r *BlobRepository) Lookup(imageID string) (domain.Blob, bool, error) {
	var handle string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(refKey(imageID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			handle = string(val)
			return nil
		})
	})
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Blob{}, false, nil
	}
	if err != nil {
		return domain.Blob{}, false, err
	}
	_, blob, err := r.Get(handle)
	if err != nil {
		return domain.Blob{}, false, err
	}
	blob.ImageID = imageID
	return blob, true, nil
}

// Get returns the bytes behind a handle.
func (r *BlobRepository) Get(handle string) ([]byte, domain.Blob, error) {
	var data []byte
	blob := domain.Blob{Handle: handle}
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(handle))
		if err != nil {
			return err
		}
		if data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get(mimeKey(handle))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			blob.MimeType = string(val)
			return nil
		})
	})
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.Blob{}, fmt.Errorf("%w: %s", errors.ErrBlobNotFound, handle)
	}
	if err != nil {
		return nil, domain.Blob{}, err
	}
	blob.Size = len(data)
	return data, blob, nil
}

func blobKey(handle string) []byte  { return []byte("blob:" + handle) }
func mimeKey(handle string) []byte  { return []byte("mime:" + handle) }
func refKey(imageID string) []byte { return []byte("ref:" + imageID) }
