package domain

import (
	"errors"
	"time"
)

// Condition restricts matches by building state.
type Condition string

const (
	ConditionAny            Condition = "any"
	ConditionNew            Condition = "new"
	ConditionRenovated      Condition = "renovated"
	ConditionNewOrRenovated Condition = "newOrRenovated"
)

// Frequency is how often a user wants to be alerted.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// ParseFrequency accepts "daily" or "weekly".
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case FrequencyDaily, FrequencyWeekly:
		return Frequency(s), nil
	}
	return "", errors.New("frequency must be daily or weekly")
}

// SavedSearch is a user's standing query. The core only reads it.
type SavedSearch struct {
	ID          int64
	UserID      string
	Name        string
	Location    string
	Anchor      *GeoPoint
	RadiusKm    *float64
	MaxPrice    *int
	MinRooms    *float64
	MinArea     *int
	NearBus     bool
	NearTrain   bool
	Condition   Condition
	PriorityHLM bool
	IsActive    bool
	CreatedAt   time.Time
}

// AlertSetting is a user's notification preference.
type AlertSetting struct {
	UserID     string
	Email      string
	Frequency  Frequency
	IsActive   bool
	LastSentAt *time.Time
}
