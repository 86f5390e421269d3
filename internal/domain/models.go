package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ==================== ENUMS ====================

type KioskStatus string

const (
	KioskStatusRegistered  KioskStatus = "REGISTERED"
	KioskStatusActive      KioskStatus = "ACTIVE"
	KioskStatusMaintenance KioskStatus = "MAINTENANCE"
)

type PaymentType string

const (
	PaymentTypeCash PaymentType = "CASH"
	PaymentTypeRFID PaymentType = "RFID"
)

type EventStatus string

const (
	EventStatusPending EventStatus = "pending"
	EventStatusSuccess EventStatus = "success"
	EventStatusFailed  EventStatus = "failed"
)

// ==================== JSONB TYPES ====================

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan JSONB: invalid type")
	}
	return json.Unmarshal(bytes, j)
}

// MoneyScale is the number of fractional digits the money columns keep.
const MoneyScale = 2

var maxMoney = decimal.New(1, 16)

// ValidAmount reports whether d is a positive amount that numeric(18,2)
// holds without rounding.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThan(maxMoney) && d.Equal(d.Truncate(MoneyScale))
}

// ==================== ENTITIES ====================

// Kiosk is the single authoritative record of a physical device. Its
// KioskID doubles as the controller id used by heartbeats and commands.
type Kiosk struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	KioskID      string          `gorm:"size:64;uniqueIndex;not null" json:"kiosk_id"`
	MacID        string          `gorm:"size:32;uniqueIndex:idx_kiosks_mac_id,where:mac_id <> ''" json:"mac_id"`
	Name         string          `gorm:"size:255;not null" json:"name"`
	Status       KioskStatus     `gorm:"size:20;not null;default:'REGISTERED'" json:"status"`
	OrgID        string          `gorm:"size:64;index" json:"org_id,omitempty"`
	BranchID     string          `gorm:"size:64;index" json:"branch_id,omitempty"`
	Balance      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"balance"`
	RegisteredAt time.Time       `json:"registered_at"`
	Archived     bool            `gorm:"default:false;index" json:"archived"`
}

// NormalizeMacID upper-cases and trims a MAC address the way devices report it.
func NormalizeMacID(mac string) string {
	return strings.ToUpper(strings.TrimSpace(mac))
}

// Program is a catalog service with the actuation parameters a kiosk needs
// to run it.
type Program struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrgID           string `gorm:"size:64;index" json:"org_id,omitempty"`
	BranchID        string `gorm:"size:64;index" json:"branch_id,omitempty"`
	Name            string `gorm:"size:255;not null" json:"name"`
	Description     string `gorm:"type:text" json:"description,omitempty"`
	Category        string `gorm:"size:100" json:"category,omitempty"`
	PricePerMinute  int    `gorm:"default:0" json:"price_per_minute"`
	DurationMinutes int    `gorm:"default:0" json:"duration_minutes"`
	RelayBits       string `gorm:"size:64" json:"relay_bits"`
	MotorFrequency  int    `json:"motor_frequency"`
	Pump1Power      int    `json:"pump1_power"`
	Pump2Power      int    `json:"pump2_power"`
	Pump3Power      int    `json:"pump3_power"`
	Pump4Power      int    `json:"pump4_power"`
	MotorFlag       string `gorm:"size:16" json:"motor_flag"`
	Command         string `gorm:"size:255" json:"command"`
	Active          bool   `gorm:"default:true" json:"active"`
	Archived        bool   `gorm:"default:false" json:"archived"`
}

// ToPayload projects the program onto the wire shape used in session_started.
func (p Program) ToPayload() ProgramPayload {
	return ProgramPayload{
		ID:              p.ID,
		Name:            p.Name,
		RelayBits:       p.RelayBits,
		MotorFrequency:  p.MotorFrequency,
		Pump1Power:      p.Pump1Power,
		Pump2Power:      p.Pump2Power,
		Pump3Power:      p.Pump3Power,
		Pump4Power:      p.Pump4Power,
		MotorFlag:       p.MotorFlag,
		Command:         p.Command,
		DurationMinutes: p.DurationMinutes,
		PricePerMinute:  p.PricePerMinute,
	}
}

// ControllerLiveness records when a controller last polled. Active is set on
// every heartbeat and never cleared.
type ControllerLiveness struct {
	ControllerID string    `gorm:"primaryKey;size:64" json:"controller_id"`
	Name         string    `gorm:"size:255" json:"name"`
	LastPing     time.Time `gorm:"not null" json:"last_ping"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ControllerLiveness) TableName() string {
	return "controllers"
}

// PaymentTransaction is a payment the kiosk itself accepted (cash or RFID).
type PaymentTransaction struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	KioskID     string          `gorm:"size:64;index" json:"kiosk_id"`
	MacID       string          `gorm:"size:32" json:"mac_id"`
	OrgID       string          `gorm:"size:64" json:"org_id,omitempty"`
	BranchID    string          `gorm:"size:64" json:"branch_id,omitempty"`
	PaymentType PaymentType     `gorm:"size:16;not null" json:"payment_type"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Currency    string          `gorm:"size:8;default:'UZS'" json:"currency"`
	RFIDCardID  string          `gorm:"size:64" json:"rfid_card_id,omitempty"`
	Description string          `gorm:"type:text" json:"description"`
	Status      string          `gorm:"size:20" json:"status"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

type TimelineEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Type         string      `gorm:"size:100;not null;index" json:"type"`
	Status       EventStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Message      string      `gorm:"type:text" json:"message"`
	Meta         JSONB       `gorm:"type:jsonb" json:"meta"`
	ResourceID   string      `gorm:"size:64;index" json:"resource_id,omitempty"`
	ResourceType string      `gorm:"size:100;index" json:"resource_type"`
}
