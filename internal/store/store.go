// Package store is the persistence snapshot manager: two JSON documents
// (channel histories and the social graph) overwritten wholesale in a
// pebble database. Saves are fire-and-forget from the caller's point of
// view but serialized per document by a single-slot writer, so the
// persisted state always matches the most recent completed save.
package store

import (
	"encoding/json"
	"errors"

	"github.com/cockroachdb/pebble"

	"github.com/campfire-chat/campfire/internal/logger"
	"github.com/campfire-chat/campfire/internal/model"
)

var (
	keyChannels = []byte("snapshot:channels")
	keySocial   = []byte("snapshot:social")
)

type Store struct {
	db       *pebble.DB
	channels *writer
	social   *writer
}

// Open opens (or creates) the pebble database at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	logger.Info("store_opened", "path", path)
	return &Store{
		db:       db,
		channels: newWriter(db, keyChannels),
		social:   newWriter(db, keySocial),
	}, nil
}

// Load reads both snapshot documents. A missing or corrupt document
// falls back to an empty initialized state; corruption is logged, never
// fatal.
func (s *Store) Load() (model.ChannelsDoc, model.SocialDoc) {
	channels := model.ChannelsDoc{}
	if data, ok := s.get(keyChannels); ok {
		if err := json.Unmarshal(data, &channels); err != nil {
			logger.Warn("snapshot_corrupt", "doc", "channels", "error", err)
			channels = model.ChannelsDoc{}
		}
	}
	social := model.NewSocialDoc()
	if data, ok := s.get(keySocial); ok {
		if err := json.Unmarshal(data, &social); err != nil {
			logger.Warn("snapshot_corrupt", "doc", "social", "error", err)
			social = model.NewSocialDoc()
		}
	}
	social.Init()
	return channels, social
}

func (s *Store) get(key []byte) ([]byte, bool) {
	data, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		logger.Warn("snapshot_read_failed", "key", string(key), "error", err)
		return nil, false
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	_ = closer.Close()
	return cp, true
}

// SaveChannels serializes the channel histories on the calling
// goroutine and hands the bytes to the async writer.
func (s *Store) SaveChannels(doc model.ChannelsDoc) {
	data, err := json.Marshal(doc)
	if err != nil {
		logger.Error("snapshot_marshal_failed", "doc", "channels", "error", err)
		return
	}
	s.channels.enqueue(data)
}

// SaveSocial serializes the social document and hands the bytes to the
// async writer.
func (s *Store) SaveSocial(doc model.SocialDoc) {
	data, err := json.Marshal(doc)
	if err != nil {
		logger.Error("snapshot_marshal_failed", "doc", "social", "error", err)
		return
	}
	s.social.enqueue(data)
}

// Flush blocks until every enqueued write has completed.
func (s *Store) Flush() {
	s.channels.wait()
	s.social.wait()
}

func (s *Store) Close() error {
	s.Flush()
	err := s.db.Close()
	if err == nil {
		logger.Info("store_closed")
	}
	return err
}
