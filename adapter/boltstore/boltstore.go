// Package boltstore is a storage-kind adapter.Adapter backed by
// go.etcd.io/bbolt, standing in for the Postgres/LevelDB/IndexedDB storage
// adapters spec §6 treats as informational alternatives. It implements
// the key-layout contract of spec §6 (save/load/remove and prefix-scoped
// loadRange/removeRange) on top of one bucket, grounded on the pack's own
// bbolt usage style (prysm's beacon-chain/db/kv: tx.Bucket(...).Put/Get,
// driven from inside db.Update/db.View).
//
// Storage channels skip the identity handshake entirely (spec §4.3): this
// adapter reports a single pending channel at Open and never reports
// establish/receive events of its own; it is driven purely through Send,
// which here means "persist", and the companion Load/LoadRange/Remove
// methods the façade (or cmd/syncctl) calls directly rather than through
// the adapter.Adapter event stream.
package boltstore

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/jabolina/go-sync/adapter"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/wire"
)

var rootBucket = []byte("gosync")

// Adapter persists every message sent to it in a durable log keyed by
// insertion order (the fixed ["log", sequence] path). Caller-chosen
// ordered path segments (spec §6, e.g. ["doc", docId, "snapshot"]) are
// used only by Save/Load/Remove/LoadRange/RemoveRange, not by Send.
type Adapter struct {
	id string
	db *bolt.DB

	mu        sync.Mutex
	channelId model.ChannelId
	bound     bool
	seq       uint64

	events chan adapter.Event
	once   sync.Once
}

// Open creates (or reuses) a bbolt database at path and wraps it as a
// storage-kind adapter identified by id.
func Open(id string, path string) (*Adapter, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "boltstore: opening %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "boltstore: creating root bucket")
	}

	a := &Adapter{
		id:     id,
		db:     db,
		events: make(chan adapter.Event, 8),
	}
	a.events <- adapter.Event{
		Kind: adapter.EventChannelAdded,
		Pending: model.Channel{
			AdapterId: id,
			Kind:      model.ChannelStorage,
			Status:    model.ChannelPending,
		},
	}
	return a, nil
}

func (a *Adapter) Id() string { return a.id }

func (a *Adapter) Bind(channelId model.ChannelId, _ model.Channel) {
	a.mu.Lock()
	a.channelId = channelId
	a.bound = true
	a.mu.Unlock()
}

// Send persists envelope.Message as the next entry in the durable log,
// encoded with internal/wire the same way a network adapter would encode
// it for the socket (spec §6's "storage channels encode the same wire
// frames").
func (a *Adapter) Send(envelope adapter.Envelope) error {
	frame, err := wire.Encode(envelope.Message)
	if err != nil {
		return errors.Wrap(err, "boltstore: encoding outgoing frame")
	}
	a.mu.Lock()
	a.seq++
	key := logKey(a.seq)
	a.mu.Unlock()

	return a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Put(key, frame)
	})
}

// Save writes data under an explicit ordered key (spec §6's save(key,
// data)), independent of the sequential log Send appends to.
func (a *Adapter) Save(keyPath []string, data []byte) error {
	return a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Put(encodeKey(keyPath), data)
	})
}

// Load reads back the value stored at keyPath, reporting found=false if
// nothing is stored there.
func (a *Adapter) Load(keyPath []string) (data []byte, found bool, err error) {
	err = a.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(rootBucket).Get(encodeKey(keyPath))
		if v == nil {
			return nil
		}
		found = true
		data = append([]byte(nil), v...)
		return nil
	})
	return data, found, err
}

// Remove deletes the value stored at keyPath, a no-op if absent.
func (a *Adapter) Remove(keyPath []string) error {
	return a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Delete(encodeKey(keyPath))
	})
}

// LoadRange returns every value whose key has prefixPath as a leading
// sequence of path segments, in key order (spec §6's loadRange(prefix)).
func (a *Adapter) LoadRange(prefixPath []string) ([][]byte, error) {
	prefix := encodeKey(prefixPath)
	var out [][]byte
	err := a.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(rootBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			out = append(out, append([]byte(nil), v...))
		}
		return nil
	})
	return out, err
}

// RemoveRange deletes every key with prefixPath as a leading sequence of
// path segments (spec §6's removeRange(prefix)).
func (a *Adapter) RemoveRange(prefixPath []string) error {
	prefix := encodeKey(prefixPath)
	return a.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootBucket)
		c := b.Cursor()
		var keys [][]byte
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *Adapter) Events() <-chan adapter.Event { return a.events }

func (a *Adapter) Stop() {
	a.once.Do(func() {
		close(a.events)
		if err := a.db.Close(); err != nil {
			_ = err // best-effort close, nothing further to do on shutdown
		}
	})
}

// encodeKey joins ordered path segments into one bbolt key, NUL-separated
// so a longer segment can never be mistaken for a prefix match boundary
// of a shorter one (spec §6's "ordered path segments").
func encodeKey(segments []string) []byte {
	var buf bytes.Buffer
	for i, s := range segments {
		if i > 0 {
			buf.WriteByte(0)
		}
		buf.WriteString(s)
	}
	buf.WriteByte(0)
	return buf.Bytes()
}

// logKey zero-pads the sequence number so lexicographic bbolt key order
// matches insertion order.
func logKey(seq uint64) []byte {
	return encodeKey([]string{"log", fmt.Sprintf("%020d", seq)})
}
