package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Clip is a stored animation clip. Data holds the clip JSON as uploaded.
type Clip struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Duration  float64         `json:"duration"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ClipRepository provides CRUD operations for clips.
type ClipRepository struct {
	db *sql.DB
}

// Clips returns the clip repository for this store.
func (s *Store) Clips() *ClipRepository {
	return &ClipRepository{db: s.db}
}

// Create inserts a clip. An empty ID is filled with a new UUID.
func (r *ClipRepository) Create(c *Clip) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO clips (id, name, duration, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Duration, string(c.Data), c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// GetByID retrieves a clip by its ID.
func (r *ClipRepository) GetByID(id string) (*Clip, error) {
	return r.get(`SELECT id, name, duration, data, created_at, updated_at FROM clips WHERE id = ?`, id)
}

// GetByName retrieves a clip by its name.
func (r *ClipRepository) GetByName(name string) (*Clip, error) {
	return r.get(`SELECT id, name, duration, data, created_at, updated_at FROM clips WHERE name = ?`, name)
}

func (r *ClipRepository) get(query, arg string) (*Clip, error) {
	c := &Clip{}
	var data string
	err := r.db.QueryRow(query, arg).Scan(&c.ID, &c.Name, &c.Duration, &data, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Data = json.RawMessage(data)
	return c, nil
}

// List returns every clip in insertion order. The position
// in this list is the clip's playback index.
func (r *ClipRepository) List() ([]*Clip, error) {
	rows, err := r.db.Query(
		`SELECT id, name, duration, data, created_at, updated_at
		 FROM clips ORDER BY rowid ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		c := &Clip{}
		var data string
		if err := rows.Scan(&c.ID, &c.Name, &c.Duration, &data, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Data = json.RawMessage(data)
		clips = append(clips, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return clips, nil
}

// Update replaces a clip's name, duration and data.
func (r *ClipRepository) Update(c *Clip) error {
	c.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE clips SET name = ?, duration = ?, data = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Duration, string(c.Data), c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	return affected(result)
}

// Delete removes a clip by its ID.
func (r *ClipRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM clips WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(result)
}
