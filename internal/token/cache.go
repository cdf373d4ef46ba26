package token

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cache is the device-local token store: deviceID+eventID -> capability
// token. It is the sole artifact granting organizer access on a device,
// has no expiry and no teardown; losing it means losing organizer
// capability unless the organizer link is re-opened.
type Cache interface {
	Put(ctx context.Context, deviceID, eventID, tok string) error
	Get(ctx context.Context, deviceID, eventID string) (string, bool, error)
}

// MemoryCache is a process-local Cache, used in tests and as a fallback.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: map[string]string{}}
}

func (c *MemoryCache) Put(_ context.Context, deviceID, eventID, tok string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[deviceID+"/"+eventID] = tok
	return nil
}

func (c *MemoryCache) Get(_ context.Context, deviceID, eventID string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tok, ok := c.m[deviceID+"/"+eventID]
	return tok, ok, nil
}

// DeviceToken persists one cached capability per (device, event) so a
// browser profile keeps organizer access across sessions.
type DeviceToken struct {
	DeviceID  string    `gorm:"primaryKey"`
	EventID   string    `gorm:"primaryKey"`
	Token     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// GormCache stores device tokens in the relational store.
type GormCache struct {
	DB *gorm.DB
}

func (c *GormCache) Put(ctx context.Context, deviceID, eventID, tok string) error {
	// last writer wins
	return c.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&DeviceToken{
		DeviceID:  deviceID,
		EventID:   eventID,
		Token:     tok,
		UpdatedAt: time.Now(),
	}).Error
}

func (c *GormCache) Get(ctx context.Context, deviceID, eventID string) (string, bool, error) {
	var dt DeviceToken
	err := c.DB.WithContext(ctx).
		Where("device_id = ? AND event_id = ?", deviceID, eventID).
		First(&dt).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return dt.Token, true, nil
}
