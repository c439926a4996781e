// Package settings provides key/value storage for runtime state such as the
// inbox watcher status and the fingerprints of already imported files.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	value, ok, err := repo.GetValue(entities.SettingKeyInboxLastStatus)
package settings

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/manuscripts/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// GetValue returns the value stored under key and whether it exists.
func (r *Repository) GetValue(key string) (string, bool, error) {
	setting, err := r.GetSetting(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// SetSetting creates or updates a setting.
func (r *Repository) SetSetting(key, value string) error {
	var setting entities.Setting
	result := r.db.Where("key = ?", key).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = entities.Setting{
			Key:   key,
			Value: value,
		}
		return r.db.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return r.db.Save(&setting).Error
}

// ListByPrefix returns all settings whose key starts with prefix, keyed by the
// remainder of the key.
func (r *Repository) ListByPrefix(prefix string) (map[string]string, error) {
	var rows []entities.Setting
	err := r.db.Where("key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[strings.TrimPrefix(row.Key, prefix)] = row.Value
	}
	return values, nil
}

// DeleteSetting removes a setting by key.
func (r *Repository) DeleteSetting(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
