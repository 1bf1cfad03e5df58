package persistence

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/clamm-engine/internal/domain"
	"github.com/hxuan190/clamm-engine/internal/metrics"
	"github.com/hxuan190/clamm-engine/internal/storage"
)

const (
	MetaBucket      = "meta"
	PoolKeysBucket  = "pool_keys"
	PoolsBucket     = "pools"
	TicksBucket     = "ticks"
	PositionsBucket = "positions"

	DefaultDBPath = "./data/clamm-engine.db"
)

var (
	configKey   = []byte("config")
	feeTiersKey = []byte("fee_tiers")
	savedAtKey  = []byte("saved_at")

	dataBuckets = []string{PoolKeysBucket, PoolsBucket, TicksBucket, PositionsBucket}
)

type StoredPosition struct {
	Owner    domain.Address  `json:"owner"`
	Position domain.Position `json:"position"`
}

// Storage keeps the latest snapshot of the engine in a bolt file. Every
// save replaces the previous one in a single transaction.
type Storage struct {
	db     *bolt.DB
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create directory for %s", dbPath)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open database at %s", dbPath)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range append([]string{MetaBucket}, dataBuckets...) {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create buckets")
	}

	log.Info().Str("path", dbPath).Msg("[persistence] opened database")
	return &Storage{db: db, dbPath: dbPath}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// tickKey orders ticks by pool, then by index.
func tickKey(pool domain.PoolKey, index int32) []byte {
	id := pool.ID()
	k := make([]byte, 0, len(id)+4)
	k = append(k, id[:]...)
	return binary.BigEndian.AppendUint32(k, uint32(index)^(1<<31))
}

func positionKey(owner domain.Address, index int) []byte {
	k := make([]byte, 0, len(owner)+4)
	k = append(k, owner[:]...)
	return binary.BigEndian.AppendUint32(k, uint32(index))
}

func put(b *bolt.Bucket, key []byte, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %x", key)
	}
	return b.Put(key, data)
}

// SaveSnapshot writes snap over whatever is stored.
func (s *Storage) SaveSnapshot(snap storage.Snapshot) error {
	start := time.Now()
	err := s.db.Update(func(tx *bolt.Tx) error {
		buckets := make(map[string]*bolt.Bucket, len(dataBuckets))
		for _, name := range dataBuckets {
			if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			b, err := tx.CreateBucket([]byte(name))
			if err != nil {
				return err
			}
			buckets[name] = b
		}

		meta := tx.Bucket([]byte(MetaBucket))
		if err := put(meta, configKey, snap.Config); err != nil {
			return err
		}
		if err := put(meta, feeTiersKey, snap.FeeTiers); err != nil {
			return err
		}
		if err := put(meta, savedAtKey, start.UnixMilli()); err != nil {
			return err
		}

		for i, key := range snap.PoolKeys {
			if err := put(buckets[PoolKeysBucket], binary.BigEndian.AppendUint32(nil, uint32(i)), key); err != nil {
				return err
			}
		}
		for _, r := range snap.Pools {
			id := r.Key.ID()
			if err := put(buckets[PoolsBucket], id[:], r); err != nil {
				return err
			}
		}
		for _, r := range snap.Ticks {
			if err := put(buckets[TicksBucket], tickKey(r.Pool, r.Tick.Index), r); err != nil {
				return err
			}
		}
		for _, l := range snap.Positions {
			for i, p := range l.Positions {
				stored := StoredPosition{Owner: l.Owner, Position: p}
				if err := put(buckets[PositionsBucket], positionKey(l.Owner, i), stored); err != nil {
					return err
				}
			}
		}
		return nil
	})
	metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SnapshotFailures.Inc()
		log.Error().Err(err).Msg("[persistence] FAILED to save snapshot")
		return errors.Wrap(err, "save snapshot")
	}

	log.Debug().
		Int("pools", len(snap.Pools)).
		Int("ticks", len(snap.Ticks)).
		Int("owners", len(snap.Positions)).
		Dur("took", time.Since(start)).
		Msg("[persistence] saved snapshot")
	return nil
}

// LoadSnapshot reads the stored snapshot. ok is false when nothing has been
// saved yet.
func (s *Storage) LoadSnapshot() (snap storage.Snapshot, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(MetaBucket))
		raw := meta.Get(configKey)
		if raw == nil {
			return nil
		}
		ok = true
		if err := sonic.Unmarshal(raw, &snap.Config); err != nil {
			return errors.Wrap(err, "config")
		}
		if raw := meta.Get(feeTiersKey); raw != nil {
			if err := sonic.Unmarshal(raw, &snap.FeeTiers); err != nil {
				return errors.Wrap(err, "fee tiers")
			}
		}

		err := tx.Bucket([]byte(PoolKeysBucket)).ForEach(func(_, v []byte) error {
			var key domain.PoolKey
			if err := sonic.Unmarshal(v, &key); err != nil {
				return errors.Wrap(err, "pool key")
			}
			snap.PoolKeys = append(snap.PoolKeys, key)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket([]byte(PoolsBucket)).ForEach(func(k, v []byte) error {
			var r storage.PoolRecord
			if err := sonic.Unmarshal(v, &r); err != nil {
				return errors.Wrapf(err, "pool %x", k)
			}
			snap.Pools = append(snap.Pools, r)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket([]byte(TicksBucket)).ForEach(func(k, v []byte) error {
			var r storage.TickRecord
			if err := sonic.Unmarshal(v, &r); err != nil {
				return errors.Wrapf(err, "tick %x", k)
			}
			snap.Ticks = append(snap.Ticks, r)
			return nil
		})
		if err != nil {
			return err
		}

		// keys sort by owner then index, so each owner's list is contiguous
		return tx.Bucket([]byte(PositionsBucket)).ForEach(func(k, v []byte) error {
			var stored StoredPosition
			if err := sonic.Unmarshal(v, &stored); err != nil {
				return errors.Wrapf(err, "position %x", k)
			}
			n := len(snap.Positions)
			if n == 0 || snap.Positions[n-1].Owner != stored.Owner {
				snap.Positions = append(snap.Positions, storage.PositionList{Owner: stored.Owner})
				n++
			}
			snap.Positions[n-1].Positions = append(snap.Positions[n-1].Positions, stored.Position)
			return nil
		})
	})
	if err != nil {
		return storage.Snapshot{}, false, errors.Wrap(err, "load snapshot")
	}

	if ok {
		log.Info().
			Int("pools", len(snap.Pools)).
			Int("ticks", len(snap.Ticks)).
			Int("owners", len(snap.Positions)).
			Msg("[persistence] snapshot loading completed successfully")
	}
	return snap, ok, nil
}

// LoadState rebuilds the engine state from the stored snapshot, or returns a
// fresh state from fallback when nothing is stored.
func (s *Storage) LoadState(fallback domain.Config) (*storage.State, error) {
	snap, ok, err := s.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info().Str("path", s.dbPath).Msg("[persistence] no snapshot, starting empty")
		return storage.New(fallback), nil
	}
	return storage.Restore(snap)
}
