package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
)

var collectionsBucket = []byte("collections")

// Collection keys within the bucket
var (
	keyMCPs     = []byte("mcps")
	keyProfiles = []byte("profiles")
	keySettings = []byte("settings")
	keyBackups  = []byte("backups")
)

// BoltAdapter persists collections as JSON values in a single-file
// bbolt database, one key per logical collection.
type BoltAdapter struct {
	db   *bbolt.DB
	path string
}

// OpenBolt opens (creating if needed) the database at path
func OpenBolt(path string) (*BoltAdapter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("storage: create data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(collectionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: initialize database: %w", err)
	}

	return &BoltAdapter{db: db, path: path}, nil
}

func (a *BoltAdapter) get(key []byte, v any) error {
	return a.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(collectionsBucket).Get(key)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("storage: decode %s: %w", key, err)
		}
		return nil
	})
}

func (a *BoltAdapter) put(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	return a.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(collectionsBucket).Put(key, data)
	})
}

func (a *BoltAdapter) GetMCPs() ([]*mcp.Record, error) {
	var records []*mcp.Record
	if err := a.get(keyMCPs, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (a *BoltAdapter) SaveMCPs(records []*mcp.Record) error {
	return a.put(keyMCPs, records)
}

func (a *BoltAdapter) GetProfiles() ([]*mcp.Profile, error) {
	var profiles []*mcp.Profile
	if err := a.get(keyProfiles, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (a *BoltAdapter) SaveProfiles(profiles []*mcp.Profile) error {
	return a.put(keyProfiles, profiles)
}

func (a *BoltAdapter) GetSettings() (*mcp.Settings, error) {
	var settings *mcp.Settings
	if err := a.get(keySettings, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (a *BoltAdapter) SaveSettings(settings *mcp.Settings) error {
	return a.put(keySettings, settings)
}

func (a *BoltAdapter) GetBackups() ([]*mcp.Backup, error) {
	var backups []*mcp.Backup
	if err := a.get(keyBackups, &backups); err != nil {
		return nil, err
	}
	return backups, nil
}

func (a *BoltAdapter) SaveBackups(backups []*mcp.Backup) error {
	return a.put(keyBackups, backups)
}

func (a *BoltAdapter) ClearAll() error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(collectionsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(collectionsBucket)
		return err
	})
}

func (a *BoltAdapter) Info() (Info, error) {
	fi, err := os.Stat(a.path)
	if err != nil {
		return Info{}, fmt.Errorf("storage: stat database: %w", err)
	}
	return Info{Used: fi.Size(), Available: -1}, nil
}

func (a *BoltAdapter) Close() error {
	return a.db.Close()
}
