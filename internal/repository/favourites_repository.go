package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jengzang/trafficcams/internal/models"
)

// FavouritesKey is the storage slot holding the favourite camera IDs
const FavouritesKey = "lvni:favs"

// FavouritesRepository persists the favourites set as a JSON array in one key/value slot
type FavouritesRepository struct {
	db  *sql.DB
	key string
}

// NewFavouritesRepository creates a favourites repository using FavouritesKey
func NewFavouritesRepository(db *sql.DB) *FavouritesRepository {
	return &FavouritesRepository{db: db, key: FavouritesKey}
}

// Get returns the stored favourites. A missing, unreadable or malformed
// slot yields an empty set.
func (r *FavouritesRepository) Get() models.FavouriteSet {
	raw, err := r.load()
	if err != nil {
		log.Printf("favourites: read failed, treating as empty: %v", err)
		return models.NewFavouriteSet()
	}
	return decodeFavourites(raw)
}

// Set overwrites the stored favourites
func (r *FavouritesRepository) Set(favs models.FavouriteSet) error {
	data, err := json.Marshal(favs.IDs())
	if err != nil {
		return fmt.Errorf("failed to encode favourites: %w", err)
	}

	query := `INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.Exec(query, r.key, string(data)); err != nil {
		return fmt.Errorf("failed to save favourites: %w", err)
	}
	return nil
}

// Toggle adds id if absent or removes it if present, and reports whether
// id is a favourite afterwards. Concurrent writers: last one wins.
func (r *FavouritesRepository) Toggle(id string) (bool, error) {
	favs := r.Get()
	isFav := favs.Toggle(id)
	if err := r.Set(favs); err != nil {
		return !isFav, err
	}
	return isFav, nil
}

func (r *FavouritesRepository) load() (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", r.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// decodeFavourites parses a JSON array of IDs. Numeric IDs written by older
// clients are accepted; anything else decodes to an empty set.
func decodeFavourites(raw string) models.FavouriteSet {
	if raw == "" {
		return models.NewFavouriteSet()
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return models.NewFavouriteSet()
	}

	favs := models.NewFavouriteSet()
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			favs[s] = struct{}{}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err == nil {
			favs[n.String()] = struct{}{}
			continue
		}
		return models.NewFavouriteSet()
	}
	return favs
}
