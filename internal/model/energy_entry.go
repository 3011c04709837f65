package model

import "time"

// EnergyEntry 能量记录，只追加不修改
// swagger:model EnergyEntry
type EnergyEntry struct {
	UUIDBase
	UserID      uint      `gorm:"index:idx_energy_user_logged;not null" json:"userId"`
	EnergyLevel int       `gorm:"not null" json:"energyLevel"` // 0-100
	Mood        *int      `json:"mood,omitempty"`
	Stress      *int      `json:"stress,omitempty"`
	Note        string    `gorm:"size:255" json:"note,omitempty"`
	LoggedAt    time.Time `gorm:"index:idx_energy_user_logged;not null" json:"loggedAt"`
}

func (EnergyEntry) TableName() string {
	return "energy_entries"
}
