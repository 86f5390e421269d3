package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/shopspring/decimal"
)

type commandRepository struct{ s *Store }

func (r *commandRepository) Create(ctx context.Context, cmd *domain.Command) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.commands[cmd.ID]; ok {
		return ports.ErrDuplicate
	}
	r.s.data.commands[cmd.ID] = *cmd
	return nil
}

func (r *commandRepository) GetByID(ctx context.Context, id string) (*domain.Command, error) {
	defer r.s.lock(ctx)()
	cmd, ok := r.s.data.commands[id]
	if !ok {
		return nil, ports.ErrRecordNotFound
	}
	return &cmd, nil
}

func (r *commandRepository) ListByController(ctx context.Context, controllerID string, status domain.CommandStatus) ([]domain.Command, error) {
	defer r.s.lock(ctx)()
	out := make([]domain.Command, 0)
	for _, cmd := range r.s.data.commands {
		if cmd.ControllerID != controllerID {
			continue
		}
		if status != "" && cmd.Status != status {
			continue
		}
		out = append(out, cmd)
	}
	domain.SortNewestFirst(out)
	return out, nil
}

func (r *commandRepository) Complete(ctx context.Context, id string, status domain.CommandStatus, result string, at time.Time) (bool, error) {
	defer r.s.lock(ctx)()
	cmd, ok := r.s.data.commands[id]
	if !ok {
		return false, ports.ErrRecordNotFound
	}
	if cmd.Status != domain.CommandStatusPending {
		return false, nil
	}
	cmd.Status = status
	cmd.Result = result
	cmd.ExecutedAt = &at
	r.s.data.commands[id] = cmd
	return true, nil
}

func (r *commandRepository) CompleteAllPending(ctx context.Context, controllerID string, status domain.CommandStatus, result string, at time.Time) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for id, cmd := range r.s.data.commands {
		if cmd.ControllerID != controllerID || cmd.Status != domain.CommandStatusPending {
			continue
		}
		executedAt := at
		cmd.Status = status
		cmd.Result = result
		cmd.ExecutedAt = &executedAt
		r.s.data.commands[id] = cmd
		n++
	}
	return n, nil
}

type controllerRepository struct{ s *Store }

func (r *controllerRepository) Touch(ctx context.Context, controllerID, name string, at time.Time) (*domain.ControllerLiveness, error) {
	defer r.s.lock(ctx)()
	node, ok := r.s.data.controllers[controllerID]
	if !ok {
		node = domain.ControllerLiveness{ControllerID: controllerID, Name: name, CreatedAt: at}
	}
	node.LastPing = at
	node.Active = true
	r.s.data.controllers[controllerID] = node
	return &node, nil
}

func (r *controllerRepository) GetByID(ctx context.Context, controllerID string) (*domain.ControllerLiveness, error) {
	defer r.s.lock(ctx)()
	node, ok := r.s.data.controllers[controllerID]
	if !ok {
		return nil, ports.ErrRecordNotFound
	}
	return &node, nil
}

func (r *controllerRepository) GetAll(ctx context.Context) ([]domain.ControllerLiveness, error) {
	defer r.s.lock(ctx)()
	out := make([]domain.ControllerLiveness, 0, len(r.s.data.controllers))
	for _, node := range r.s.data.controllers {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ControllerID < out[j].ControllerID })
	return out, nil
}

type kioskRepository struct{ s *Store }

func (r *kioskRepository) Create(ctx context.Context, kiosk *domain.Kiosk) error {
	defer r.s.lock(ctx)()
	kiosk.MacID = domain.NormalizeMacID(kiosk.MacID)
	if _, ok := r.s.data.kiosks[kiosk.KioskID]; ok {
		return ports.ErrDuplicate
	}
	if kiosk.MacID != "" {
		for _, other := range r.s.data.kiosks {
			if other.MacID == kiosk.MacID {
				return ports.ErrDuplicate
			}
		}
	}
	r.s.data.nextKioskID++
	kiosk.ID = r.s.data.nextKioskID
	now := time.Now().UTC()
	kiosk.CreatedAt, kiosk.UpdatedAt = now, now
	if kiosk.RegisteredAt.IsZero() {
		kiosk.RegisteredAt = now
	}
	r.s.data.kiosks[kiosk.KioskID] = *kiosk
	return nil
}

func (r *kioskRepository) GetByKioskID(ctx context.Context, kioskID string) (*domain.Kiosk, error) {
	defer r.s.lock(ctx)()
	kiosk, ok := r.s.data.kiosks[kioskID]
	if !ok {
		return nil, ports.ErrRecordNotFound
	}
	return &kiosk, nil
}

func (r *kioskRepository) GetByMacID(ctx context.Context, macID string) (*domain.Kiosk, error) {
	defer r.s.lock(ctx)()
	macID = domain.NormalizeMacID(macID)
	if macID == "" {
		return nil, ports.ErrRecordNotFound
	}
	for _, kiosk := range r.s.data.kiosks {
		if kiosk.MacID == macID {
			return &kiosk, nil
		}
	}
	return nil, ports.ErrRecordNotFound
}

func (r *kioskRepository) GetAll(ctx context.Context) ([]domain.Kiosk, error) {
	defer r.s.lock(ctx)()
	out := make([]domain.Kiosk, 0, len(r.s.data.kiosks))
	for _, kiosk := range r.s.data.kiosks {
		out = append(out, kiosk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KioskID < out[j].KioskID })
	return out, nil
}

func (r *kioskRepository) AddBalance(ctx context.Context, kioskID string, amount decimal.Decimal) (decimal.Decimal, error) {
	defer r.s.lock(ctx)()
	kiosk, ok := r.s.data.kiosks[kioskID]
	if !ok {
		return decimal.Zero, ports.ErrRecordNotFound
	}
	kiosk.Balance = kiosk.Balance.Add(amount)
	kiosk.UpdatedAt = time.Now().UTC()
	r.s.data.kiosks[kioskID] = kiosk
	return kiosk.Balance, nil
}

type programRepository struct{ s *Store }

func (r *programRepository) Create(ctx context.Context, program *domain.Program) error {
	defer r.s.lock(ctx)()
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	if _, ok := r.s.data.programs[program.ID]; ok {
		return ports.ErrDuplicate
	}
	r.s.data.programs[program.ID] = *program
	return nil
}

func (r *programRepository) GetByBranchID(ctx context.Context, branchID string) ([]domain.Program, error) {
	defer r.s.lock(ctx)()
	out := make([]domain.Program, 0)
	for _, p := range r.s.data.programs {
		if p.BranchID == branchID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type washSessionRepository struct{ s *Store }

// occupiedBy returns the id of the session holding kioskID, skipping except.
func (r *washSessionRepository) occupiedBy(kioskID, except string) string {
	for id, session := range r.s.data.sessions {
		if id != except && session.KioskID == kioskID && session.Status.Occupying() {
			return id
		}
	}
	return ""
}

func (r *washSessionRepository) Create(ctx context.Context, session *domain.WashSession) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.sessions[session.ID]; ok {
		return ports.ErrDuplicate
	}
	if session.Status.Occupying() && r.occupiedBy(session.KioskID, "") != "" {
		return ports.ErrDuplicate
	}
	r.s.data.sessions[session.ID] = *session
	return nil
}

func (r *washSessionRepository) GetByID(ctx context.Context, id string) (*domain.WashSession, error) {
	defer r.s.lock(ctx)()
	session, ok := r.s.data.sessions[id]
	if !ok {
		return nil, ports.ErrRecordNotFound
	}
	return &session, nil
}

func (r *washSessionRepository) findOccupying(match func(domain.WashSession) bool) (*domain.WashSession, error) {
	var found *domain.WashSession
	for _, session := range r.s.data.sessions {
		if !session.Status.Occupying() || !match(session) {
			continue
		}
		if found == nil || session.StartedAt.After(found.StartedAt) {
			s := session
			found = &s
		}
	}
	if found == nil {
		return nil, ports.ErrRecordNotFound
	}
	return found, nil
}

func (r *washSessionRepository) GetOccupying(ctx context.Context, kioskID string) (*domain.WashSession, error) {
	defer r.s.lock(ctx)()
	return r.findOccupying(func(s domain.WashSession) bool { return s.KioskID == kioskID })
}

func (r *washSessionRepository) GetOccupyingByUser(ctx context.Context, userID string) (*domain.WashSession, error) {
	defer r.s.lock(ctx)()
	return r.findOccupying(func(s domain.WashSession) bool { return s.UserID == userID })
}

func (r *washSessionRepository) List(ctx context.Context, filter domain.SessionFilter) ([]domain.WashSession, error) {
	defer r.s.lock(ctx)()
	out := make([]domain.WashSession, 0)
	for _, session := range r.s.data.sessions {
		if filter.KioskID != "" && session.KioskID != filter.KioskID {
			continue
		}
		if filter.UserID != "" && session.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && session.Status != filter.Status {
			continue
		}
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *washSessionRepository) Update(ctx context.Context, session *domain.WashSession) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.sessions[session.ID]; !ok {
		return ports.ErrRecordNotFound
	}
	if session.Status.Occupying() && r.occupiedBy(session.KioskID, session.ID) != "" {
		return ports.ErrDuplicate
	}
	r.s.data.sessions[session.ID] = *session
	return nil
}

type paymentRepository struct{ s *Store }

func (r *paymentRepository) Create(ctx context.Context, tx *domain.PaymentTransaction) error {
	defer r.s.lock(ctx)()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if _, ok := r.s.data.payments[tx.ID]; ok {
		return ports.ErrDuplicate
	}
	r.s.data.payments[tx.ID] = *tx
	return nil
}

func (r *paymentRepository) ListByKiosk(ctx context.Context, kioskID string, limit int) ([]domain.PaymentTransaction, error) {
	defer r.s.lock(ctx)()
	out := make([]domain.PaymentTransaction, 0)
	for _, tx := range r.s.data.payments {
		if tx.KioskID == kioskID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type timelineRepository struct{ s *Store }

func (r *timelineRepository) Create(ctx context.Context, event *domain.TimelineEvent) error {
	defer r.s.lock(ctx)()
	r.s.data.nextEventID++
	event.ID = r.s.data.nextEventID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	r.s.data.timeline = append(r.s.data.timeline, *event)
	return nil
}

// newestFirst walks the append-only log backwards.
func (r *timelineRepository) newestFirst(limit int, match func(domain.TimelineEvent) bool) []domain.TimelineEvent {
	out := make([]domain.TimelineEvent, 0)
	for i := len(r.s.data.timeline) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if match(r.s.data.timeline[i]) {
			out = append(out, r.s.data.timeline[i])
		}
	}
	return out
}

func (r *timelineRepository) GetByResource(ctx context.Context, resourceType, resourceID string) ([]domain.TimelineEvent, error) {
	defer r.s.lock(ctx)()
	return r.newestFirst(50, func(e domain.TimelineEvent) bool {
		return e.ResourceType == resourceType && e.ResourceID == resourceID
	}), nil
}

func (r *timelineRepository) GetAll(ctx context.Context, limit int) ([]domain.TimelineEvent, error) {
	defer r.s.lock(ctx)()
	return r.newestFirst(limit, func(domain.TimelineEvent) bool { return true }), nil
}
