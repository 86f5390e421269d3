package db

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"gorm.io/gorm"
)

func TestTranslateErr(t *testing.T) {
	other := errors.New("connection reset")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"not found", gorm.ErrRecordNotFound, ports.ErrRecordNotFound},
		{"duplicate key", gorm.ErrDuplicatedKey, ports.ErrDuplicate},
		{"wrapped duplicate", fmt.Errorf("insert wash session: %w", gorm.ErrDuplicatedKey), ports.ErrDuplicate},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateErr(tt.in)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestOccupyingIndexMatchesDomain(t *testing.T) {
	statuses := []domain.SessionStatus{
		domain.SessionStatusPending,
		domain.SessionStatusActive,
		domain.SessionStatusPaused,
		domain.SessionStatusFinished,
		domain.SessionStatusFailed,
	}
	for _, s := range statuses {
		inIndex := strings.Contains(occupyingSessionIndexSQL, "'"+string(s)+"'")
		if inIndex != s.Occupying() {
			t.Errorf("status %s: in index=%v, occupying=%v", s, inIndex, s.Occupying())
		}
	}
}
