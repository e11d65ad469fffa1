package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/gesture"
)

// Setting keys.
const (
	KeyHandLiftZDistance = "tracking.hand_lift_z_distance"
	KeyHandUpYDistance   = "tracking.hand_up_y_distance"
	KeyLeftHandOffsetX   = "tracking.left_hand_offset_x"
	KeyLeftHandOffsetY   = "tracking.left_hand_offset_y"
	KeyRightHandOffsetX  = "tracking.right_hand_offset_x"
	KeyRightHandOffsetY  = "tracking.right_hand_offset_y"
	KeyHandsDownTimeout  = "tracking.hands_down_timeout"
	KeyLossTolerance     = "tracking.loss_tolerance"

	KeyControlMode  = "control.mode"
	KeySensitivity  = "control.sensitivity"
	KeyScreenWidth  = "control.screen_width"
	KeyScreenHeight = "control.screen_height"
	KeyZoomStep     = "control.zoom_step"
	KeyEnabled      = "app.enabled"
)

// SettingsRepository reads and writes key/value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	return err
}

// SetMany stores all values in one transaction.
func (r *SettingsRepository) SetMany(values map[string]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for k, v := range values {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now,
		); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// All returns every stored setting.
func (r *SettingsRepository) All() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Delete removes key.
func (r *SettingsRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadTrackingConfig overlays stored tracking settings on defaults.
// Missing keys keep their default value.
func (r *SettingsRepository) LoadTrackingConfig(defaults gesture.Config) (gesture.Config, error) {
	all, err := r.All()
	if err != nil {
		return defaults, err
	}

	cfg := defaults
	floats := map[string]*float64{
		KeyHandLiftZDistance: &cfg.HandLiftZDistance,
		KeyHandUpYDistance:   &cfg.HandUpYDistance,
		KeyLeftHandOffsetX:   &cfg.LeftHandOffset.X,
		KeyLeftHandOffsetY:   &cfg.LeftHandOffset.Y,
		KeyRightHandOffsetX:  &cfg.RightHandOffset.X,
		KeyRightHandOffsetY:  &cfg.RightHandOffset.Y,
	}
	ints := map[string]*int{
		KeyHandsDownTimeout: &cfg.HandsDownTimeout,
		KeyLossTolerance:    &cfg.LossTolerance,
	}
	if err := parseInto(all, floats, ints); err != nil {
		return defaults, err
	}
	if err := cfg.Validate(); err != nil {
		return defaults, err
	}
	return cfg, nil
}

// SaveTrackingConfig stores every tracking setting.
func (r *SettingsRepository) SaveTrackingConfig(cfg gesture.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return r.SetMany(map[string]string{
		KeyHandLiftZDistance: formatFloat(cfg.HandLiftZDistance),
		KeyHandUpYDistance:   formatFloat(cfg.HandUpYDistance),
		KeyLeftHandOffsetX:   formatFloat(cfg.LeftHandOffset.X),
		KeyLeftHandOffsetY:   formatFloat(cfg.LeftHandOffset.Y),
		KeyRightHandOffsetX:  formatFloat(cfg.RightHandOffset.X),
		KeyRightHandOffsetY:  formatFloat(cfg.RightHandOffset.Y),
		KeyHandsDownTimeout:  strconv.Itoa(cfg.HandsDownTimeout),
		KeyLossTolerance:     strconv.Itoa(cfg.LossTolerance),
	})
}

// LoadControlSettings overlays stored control settings on defaults.
func (r *SettingsRepository) LoadControlSettings(defaults control.Settings) (control.Settings, error) {
	all, err := r.All()
	if err != nil {
		return defaults, err
	}

	s := defaults
	if v, ok := all[KeyControlMode]; ok {
		mode, err := control.ParseMode(v)
		if err != nil {
			return defaults, fmt.Errorf("setting %s: %w", KeyControlMode, err)
		}
		s.Mode = mode
	}
	floats := map[string]*float64{
		KeySensitivity: &s.Sensitivity,
		KeyZoomStep:    &s.ZoomStep,
	}
	ints := map[string]*int{
		KeyScreenWidth:  &s.ScreenWidth,
		KeyScreenHeight: &s.ScreenHeight,
	}
	if err := parseInto(all, floats, ints); err != nil {
		return defaults, err
	}
	if err := s.Validate(); err != nil {
		return defaults, err
	}
	return s, nil
}

// SaveControlSettings stores every control setting.
func (r *SettingsRepository) SaveControlSettings(s control.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return r.SetMany(map[string]string{
		KeyControlMode:  s.Mode.String(),
		KeySensitivity:  formatFloat(s.Sensitivity),
		KeyScreenWidth:  strconv.Itoa(s.ScreenWidth),
		KeyScreenHeight: strconv.Itoa(s.ScreenHeight),
		KeyZoomStep:     formatFloat(s.ZoomStep),
	})
}

// Enabled returns the stored app enabled flag, or def when unset.
func (r *SettingsRepository) Enabled(def bool) (bool, error) {
	v, err := r.Get(KeyEnabled)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("setting %s: %w", KeyEnabled, err)
	}
	return b, nil
}

// SetEnabled stores the app enabled flag.
func (r *SettingsRepository) SetEnabled(enabled bool) error {
	return r.Set(KeyEnabled, strconv.FormatBool(enabled))
}

func parseInto(all map[string]string, floats map[string]*float64, ints map[string]*int) error {
	for key, dst := range floats {
		v, ok := all[key]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
		*dst = f
	}
	for key, dst := range ints {
		v, ok := all[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
