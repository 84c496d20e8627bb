package state

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/errors"
	bolt "go.etcd.io/bbolt"
)

const (
	dbFile = "observed.db"
)

// Stores in the same directory share one bolt database. It is closed when
// its last store is closed.
var (
	dbs     = map[string]*sharedDB{}
	dbslock = sync.Mutex{}
)

type sharedDB struct {
	db   *bolt.DB
	refs int
}

func acquireBoltDB(path string) (*bolt.DB, error) {
	dbslock.Lock()
	defer dbslock.Unlock()

	if shared, exists := dbs[path]; exists {
		shared.refs++
		return shared.db, nil
	}

	db, err := openBoltDB(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	dbs[path] = &sharedDB{db: db, refs: 1}
	return db, nil
}

func releaseBoltDB(path string) error {
	dbslock.Lock()
	defer dbslock.Unlock()

	shared, exists := dbs[path]
	if !exists {
		return nil
	}
	shared.refs--
	if shared.refs > 0 {
		return nil
	}
	delete(dbs, path)
	return errors.Annotatef(shared.db.Close(), "close bolt db %s", path)
}

func openBoltDB(path string) (*bolt.DB, error) {
	bopts := &bolt.Options{}
	bopts.Timeout = time.Second

	db, err := bolt.Open(path, 0600, bopts)
	return db, errors.Annotatef(err, "open bolt db %s", path)
}

func newBoltDBKeyValueStore[K, V any](c *config[K, V]) (KeyValueStore[K, V], error) {
	if c.bucket == "" {
		return nil, errors.NotValidf("empty bucket name")
	}
	if c.dir == "" {
		return nil, errors.NotValidf("empty bolt db dir")
	}
	dbPath := filepath.Join(c.dir, dbFile)
	if err := os.MkdirAll(c.dir, os.ModePerm); err != nil {
		return nil, errors.Annotatef(err, "create dir for %s", dbPath)
	}
	db, err := acquireBoltDB(dbPath)
	if err != nil {
		return nil, errors.Trace(err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(c.bucket))
		return err
	})
	if err != nil {
		_ = releaseBoltDB(dbPath)
		return nil, errors.Annotatef(err, "create bucket %s", c.bucket)
	}

	return &boltDBKeyValueStore[K, V]{
		db:       db,
		path:     dbPath,
		bucket:   []byte(c.bucket),
		keySerde: c.keySerde,
		valSerde: c.valueSerde,
	}, nil
}

type boltDBKeyValueStore[K, V any] struct {
	db       *bolt.DB
	path     string
	bucket   []byte
	keySerde Serde[K]
	valSerde Serde[V]
	closed   sync.Once
}

var _ KeyValueStore[any, any] = &boltDBKeyValueStore[any, any]{}

func (kvs *boltDBKeyValueStore[K, V]) Get(key K) (V, error) {
	var v V
	keySer, err := kvs.keySerde.Serialize(key)
	if err != nil {
		return v, errors.Trace(err)
	}

	var raw []byte
	err = kvs.db.View(func(tx *bolt.Tx) error {
		bv := tx.Bucket(kvs.bucket).Get(keySer)
		if bv == nil {
			return errors.NotFoundf("key %v", key)
		}
		// bv is only valid inside the transaction.
		raw = append([]byte(nil), bv...)
		return nil
	})
	if err != nil {
		return v, errors.Trace(err)
	}
	v, err = kvs.valSerde.Deserialize(raw)
	return v, errors.Trace(err)
}

func (kvs *boltDBKeyValueStore[K, V]) Put(key K, value V) error {
	keySer, err := kvs.keySerde.Serialize(key)
	if err != nil {
		return errors.Trace(err)
	}
	valSer, err := kvs.valSerde.Serialize(value)
	if err != nil {
		return errors.Trace(err)
	}
	err = kvs.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvs.bucket).Put(keySer, valSer)
	})
	return errors.Annotatef(err, "put into bucket %s", kvs.bucket)
}

func (kvs *boltDBKeyValueStore[K, V]) Delete(key K) error {
	keySer, err := kvs.keySerde.Serialize(key)
	if err != nil {
		return errors.Trace(err)
	}
	err = kvs.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvs.bucket).Delete(keySer)
	})
	return errors.Annotatef(err, "delete from bucket %s", kvs.bucket)
}

func (kvs *boltDBKeyValueStore[K, V]) Close() (err error) {
	kvs.closed.Do(func() {
		err = releaseBoltDB(kvs.path)
	})
	return
}
