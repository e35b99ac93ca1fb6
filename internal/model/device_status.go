package model

import "time"

// DeviceStatusID is the primary key of the single device status row. There
// is exactly one physical LED, so there is exactly one record.
const DeviceStatusID int64 = 1

// DeviceStatus is the authoritative last known LED state. The row is seeded
// at database initialization and only ever replaced as a whole, never
// patched field by field.
type DeviceStatus struct {
	ID        int64     `gorm:"primaryKey"`
	LedOn     bool      `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// LedStatusCode returns the wire representation used by the dashboard
// API (0 = off, 1 = on).
func (s DeviceStatus) LedStatusCode() int {
	if s.LedOn {
		return 1
	}
	return 0
}
