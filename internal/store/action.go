package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/control"
)

// BindableGestures are the tracking events an action can be bound to.
var BindableGestures = []string{
	control.EventPress,
	control.EventRelease,
	control.GestureSpread,
	control.GesturePinch,
	control.GestureLost,
}

// ErrInvalidGesture is returned for an action bound to an unknown event.
var ErrInvalidGesture = errors.New("invalid gesture")

// IsBindableGesture reports whether name is in BindableGestures.
func IsBindableGesture(name string) bool {
	for _, g := range BindableGestures {
		if g == name {
			return true
		}
	}
	return false
}

// Action binds a tracking event to a plugin action.
type Action struct {
	ID         string
	Gesture    string
	PluginName string
	ActionName string
	Config     json.RawMessage
	Enabled    bool
	CreatedAt  time.Time
}

// ActionRepository provides CRUD operations for actions.
type ActionRepository struct {
	db *sql.DB
}

// Actions returns the action repository for this store.
func (s *Store) Actions() *ActionRepository {
	return &ActionRepository{db: s.db}
}

const actionColumns = `id, gesture, plugin_name, action_name, config, enabled, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAction(row rowScanner) (*Action, error) {
	a := &Action{}
	var config string
	var enabled int
	if err := row.Scan(&a.ID, &a.Gesture, &a.PluginName, &a.ActionName, &config, &enabled, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Config = json.RawMessage(config)
	a.Enabled = enabled != 0
	return a, nil
}

func configOrEmpty(c json.RawMessage) string {
	if len(c) == 0 {
		return "{}"
	}
	return string(c)
}

// Create inserts a new action. An empty ID is filled with a new UUID.
func (r *ActionRepository) Create(a *Action) error {
	if !IsBindableGesture(a.Gesture) {
		return fmt.Errorf("%w: %q", ErrInvalidGesture, a.Gesture)
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO actions (`+actionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Gesture, a.PluginName, a.ActionName, configOrEmpty(a.Config), a.Enabled, a.CreatedAt,
	)
	return err
}

// GetByID retrieves an action by its ID.
func (r *ActionRepository) GetByID(id string) (*Action, error) {
	a, err := scanAction(r.db.QueryRow(`SELECT `+actionColumns+` FROM actions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List retrieves all actions, newest first.
func (r *ActionRepository) List() ([]*Action, error) {
	return r.query(`SELECT ` + actionColumns + ` FROM actions ORDER BY created_at DESC`)
}

// ListByGesture returns the enabled actions bound to gesture, oldest first.
func (r *ActionRepository) ListByGesture(gesture string) ([]*Action, error) {
	return r.query(
		`SELECT `+actionColumns+` FROM actions WHERE gesture = ? AND enabled = 1 ORDER BY created_at ASC`,
		gesture,
	)
}

func (r *ActionRepository) query(q string, args ...any) ([]*Action, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return actions, nil
}

// Update replaces an existing action.
func (r *ActionRepository) Update(a *Action) error {
	if !IsBindableGesture(a.Gesture) {
		return fmt.Errorf("%w: %q", ErrInvalidGesture, a.Gesture)
	}

	result, err := r.db.Exec(
		`UPDATE actions SET gesture = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		a.Gesture, a.PluginName, a.ActionName, configOrEmpty(a.Config), a.Enabled, a.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Delete removes an action by its ID.
func (r *ActionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM actions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Bindings returns the enabled bindings for a tracking event.
func (r *ActionRepository) Bindings(event string) ([]control.Binding, error) {
	actions, err := r.ListByGesture(event)
	if err != nil {
		return nil, err
	}
	out := make([]control.Binding, 0, len(actions))
	for _, a := range actions {
		out = append(out, control.Binding{
			PluginName: a.PluginName,
			ActionName: a.ActionName,
			Config:     a.Config,
		})
	}
	return out, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
