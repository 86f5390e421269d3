// Package seed loads kiosks and their branch programs from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type File struct {
	Kiosks   []Kiosk   `yaml:"kiosks"`
	Programs []Program `yaml:"programs"`
}

type Kiosk struct {
	KioskID  string `yaml:"kiosk_id"`
	MacID    string `yaml:"mac_id"`
	Name     string `yaml:"name"`
	Status   string `yaml:"status"`
	OrgID    string `yaml:"org_id"`
	BranchID string `yaml:"branch_id"`
	Balance  string `yaml:"balance"`
}

type Program struct {
	ID              string `yaml:"id"`
	OrgID           string `yaml:"org_id"`
	BranchID        string `yaml:"branch_id"`
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	Category        string `yaml:"category"`
	PricePerMinute  int    `yaml:"price_per_minute"`
	DurationMinutes int    `yaml:"duration_minutes"`
	RelayBits       string `yaml:"relay_bits"`
	MotorFrequency  int    `yaml:"motor_frequency"`
	Pump1Power      int    `yaml:"pump1_power"`
	Pump2Power      int    `yaml:"pump2_power"`
	Pump3Power      int    `yaml:"pump3_power"`
	Pump4Power      int    `yaml:"pump4_power"`
	MotorFlag       string `yaml:"motor_flag"`
	Command         string `yaml:"command"`
	Inactive        bool   `yaml:"inactive"`
}

type Result struct {
	Kiosks   int
	Programs int
	Skipped  int
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	for i, k := range f.Kiosks {
		if strings.TrimSpace(k.KioskID) == "" {
			return nil, fmt.Errorf("seed: kiosks[%d]: kiosk_id is required", i)
		}
	}
	for i, p := range f.Programs {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.BranchID) == "" {
			return nil, fmt.Errorf("seed: programs[%d]: name and branch_id are required", i)
		}
	}
	return &f, nil
}

// Apply inserts every record that does not exist yet. Existing kiosks and
// programs are left untouched, so a seed file can be applied repeatedly.
func Apply(ctx context.Context, kiosks ports.KioskRepository, programs ports.ProgramRepository, f *File) (Result, error) {
	var res Result
	now := time.Now().UTC()

	for _, k := range f.Kiosks {
		balance := decimal.Zero
		if k.Balance != "" {
			b, err := decimal.NewFromString(k.Balance)
			if err != nil || (!b.IsZero() && !domain.ValidAmount(b)) {
				return res, fmt.Errorf("seed: kiosk %s: invalid balance %q", k.KioskID, k.Balance)
			}
			balance = b
		}
		status := domain.KioskStatus(strings.ToUpper(k.Status))
		if status == "" {
			status = domain.KioskStatusRegistered
		}
		name := k.Name
		if name == "" {
			name = "Kiosk " + k.KioskID
		}
		err := kiosks.Create(ctx, &domain.Kiosk{
			KioskID:      k.KioskID,
			MacID:        domain.NormalizeMacID(k.MacID),
			Name:         name,
			Status:       status,
			OrgID:        k.OrgID,
			BranchID:     k.BranchID,
			Balance:      balance,
			RegisteredAt: now,
		})
		switch {
		case errors.Is(err, ports.ErrDuplicate):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("seed: kiosk %s: %w", k.KioskID, err)
		default:
			res.Kiosks++
		}
	}

	for _, p := range f.Programs {
		err := programs.Create(ctx, &domain.Program{
			ID:              p.ID,
			OrgID:           p.OrgID,
			BranchID:        p.BranchID,
			Name:            p.Name,
			Description:     p.Description,
			Category:        p.Category,
			PricePerMinute:  p.PricePerMinute,
			DurationMinutes: p.DurationMinutes,
			RelayBits:       p.RelayBits,
			MotorFrequency:  p.MotorFrequency,
			Pump1Power:      p.Pump1Power,
			Pump2Power:      p.Pump2Power,
			Pump3Power:      p.Pump3Power,
			Pump4Power:      p.Pump4Power,
			MotorFlag:       p.MotorFlag,
			Command:         p.Command,
			Active:          !p.Inactive,
		})
		switch {
		case errors.Is(err, ports.ErrDuplicate):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("seed: program %s: %w", p.Name, err)
		default:
			res.Programs++
		}
	}
	return res, nil
}
