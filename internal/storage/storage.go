package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"minichess/internal/models"
	"minichess/internal/records"
)

const recordPrefix = "record/"

// Storage keeps game records in a local BadgerDB, for play without a server.
type Storage struct {
	db *badger.DB
}

var _ records.Store = (*Storage)(nil)

// Open opens (or creates) the database in dir.
func Open(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// DefaultDir returns the per-user database directory.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "minichess", "db"), nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func recordKey(id primitive.ObjectID) []byte {
	return []byte(recordPrefix + id.Hex())
}

func (s *Storage) put(txn *badger.Txn, rec *models.GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return txn.Set(recordKey(rec.ID), data)
}

func (s *Storage) Create(_ context.Context, rec *models.GameRecord) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.ID = primitive.NewObjectID()
	models.StampHistory(rec.History, now)

	return s.db.Update(func(txn *badger.Txn) error {
		return s.put(txn, rec)
	})
}

func (s *Storage) List(_ context.Context) ([]models.GameRecord, error) {
	return s.scan(func(*models.GameRecord) bool { return true })
}

func (s *Storage) ListByUser(_ context.Context, userID string) ([]models.GameRecord, error) {
	return s.scan(func(rec *models.GameRecord) bool { return rec.UserID == userID })
}

// scan returns the matching records, newest first.
func (s *Storage) scan(match func(*models.GameRecord) bool) ([]models.GameRecord, error) {
	recs := []models.GameRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(recordPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec models.GameRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			if match(&rec) {
				recs = append(recs, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

func (s *Storage) get(txn *badger.Txn, id primitive.ObjectID) (*models.GameRecord, error) {
	item, err := txn.Get(recordKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec models.GameRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Storage) Get(_ context.Context, id primitive.ObjectID) (*models.GameRecord, error) {
	var rec *models.GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = s.get(txn, id)
		return err
	})
	return rec, err
}

func (s *Storage) Update(_ context.Context, id primitive.ObjectID, patch models.RecordPatch) (*models.GameRecord, error) {
	var rec *models.GameRecord
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		rec, err = s.get(txn, id)
		if err != nil {
			return err
		}
		if patch.Result != nil {
			rec.Result = *patch.Result
		}
		rec.UpdatedAt = time.Now()
		if patch.History != nil {
			rec.History = *patch.History
			models.StampHistory(rec.History, rec.UpdatedAt)
		}
		return s.put(txn, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Storage) Delete(_ context.Context, id primitive.ObjectID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(recordKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return records.ErrNotFound
			}
			return err
		}
		return txn.Delete(recordKey(id))
	})
}

// GameStats summarizes a user's finished games.
type GameStats struct {
	GamesPlayed   int `json:"games_played"`
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	Draws         int `json:"draws"`
	CurrentStreak int `json:"current_streak"`
}

// Stats tallies the records of userID.
func (s *Storage) Stats(ctx context.Context, userID string) (*GameStats, error) {
	recs, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &GameStats{GamesPlayed: len(recs)}
	streakOpen := true
	for _, rec := range recs { // newest first
		switch rec.Result {
		case models.ResultWin:
			stats.Wins++
			if streakOpen {
				stats.CurrentStreak++
			}
		case models.ResultLose:
			stats.Losses++
			streakOpen = false
		case models.ResultDraw:
			stats.Draws++
			streakOpen = false
		}
	}
	return stats, nil
}

// WinRate returns the win rate as a percentage (0-100)
func (s *GameStats) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}
