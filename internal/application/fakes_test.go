package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/domain/catalog"
	"github.com/slotwise/service-scheduling/internal/domain/schedule"
	"github.com/slotwise/service-scheduling/internal/platform/kafka"
)

// --- catalog ---

type fakeServiceRepo struct {
	mu       sync.Mutex
	services map[uuid.UUID]*catalog.Service
}

func newFakeServiceRepo(services ...*catalog.Service) *fakeServiceRepo {
	r := &fakeServiceRepo{services: make(map[uuid.UUID]*catalog.Service)}
	for _, s := range services {
		r.services[s.ID()] = s
	}
	return r
}

func (r *fakeServiceRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[id]
	if !ok {
		return nil, domain.NewNotFoundError("Service", id.String())
	}
	return s, nil
}

func (r *fakeServiceRepo) ListActive(_ context.Context) ([]*catalog.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*catalog.Service
	for _, s := range r.services {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeServiceRepo) Save(_ context.Context, svc *catalog.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[svc.ID()] = svc
	return nil
}

func (r *fakeServiceRepo) Update(_ context.Context, svc *catalog.Service) error {
	return r.Save(context.Background(), svc)
}

// --- schedule ---

type fakeRuleRepo struct {
	mu    sync.Mutex
	rules []schedule.Rule
}

func (r *fakeRuleRepo) FindByID(_ context.Context, id uuid.UUID) (*schedule.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rules {
		if r.rules[i].ID == id {
			rule := r.rules[i]
			return &rule, nil
		}
	}
	return nil, domain.NewNotFoundError("ScheduleRule", id.String())
}

func (r *fakeRuleRepo) FindForDate(_ context.Context, _ domain.ResourceKey, date time.Time) ([]schedule.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := date.UTC().Truncate(24 * time.Hour)
	weekday := schedule.ISOWeekday(day.Weekday())

	var out []schedule.Rule
	for _, rule := range r.rules {
		if !rule.Active {
			continue
		}
		switch rule.Kind {
		case schedule.RuleKindEvent:
			if rule.EventDate != nil && rule.EventDate.Equal(day) {
				out = append(out, rule)
			}
		case schedule.RuleKindRecurring:
			for _, d := range rule.Weekdays {
				if d == weekday {
					out = append(out, rule)
					break
				}
			}
		}
	}
	return out, nil
}

func (r *fakeRuleRepo) ListAll(_ context.Context, _, _ int) ([]schedule.Rule, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]schedule.Rule(nil), r.rules...), int64(len(r.rules)), nil
}

func (r *fakeRuleRepo) Save(_ context.Context, rule *schedule.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *fakeRuleRepo) Update(_ context.Context, rule *schedule.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rules {
		if r.rules[i].ID == rule.ID {
			r.rules[i] = *rule
			return nil
		}
	}
	return domain.NewNotFoundError("ScheduleRule", rule.ID.String())
}

func (r *fakeRuleRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rules {
		if r.rules[i].ID == id {
			r.rules[i].Active = false
			return nil
		}
	}
	return domain.NewNotFoundError("ScheduleRule", id.String())
}

type fakeBlackoutRepo struct {
	mu     sync.Mutex
	ranges []schedule.BlackoutRange
}

func (r *fakeBlackoutRepo) FindByID(_ context.Context, id uuid.UUID) (*schedule.BlackoutRange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.ranges {
		if r.ranges[i].ID == id {
			b := r.ranges[i]
			return &b, nil
		}
	}
	return nil, domain.NewNotFoundError("BlackoutRange", id.String())
}

func (r *fakeBlackoutRepo) FindCovering(_ context.Context, date time.Time) ([]schedule.BlackoutRange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []schedule.BlackoutRange
	for _, b := range r.ranges {
		if b.Active && b.Contains(date) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBlackoutRepo) ListAll(_ context.Context, _, _ int) ([]schedule.BlackoutRange, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]schedule.BlackoutRange(nil), r.ranges...), int64(len(r.ranges)), nil
}

func (r *fakeBlackoutRepo) Save(_ context.Context, blackout *schedule.BlackoutRange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranges = append(r.ranges, *blackout)
	return nil
}

func (r *fakeBlackoutRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.ranges {
		if r.ranges[i].ID == id {
			r.ranges[i].Active = false
			return nil
		}
	}
	return domain.NewNotFoundError("BlackoutRange", id.String())
}

// --- reservations ---

// fakeReservationRepo serializes transactions with a coarse lock and stages
// in-transaction saves so a failed transaction leaves no trace, mirroring
// database rollback semantics closely enough for admission tests.
type fakeReservationRepo struct {
	mu   sync.Mutex
	txMu sync.Mutex
	rows map[uuid.UUID]*booking.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{rows: make(map[uuid.UUID]*booking.Reservation)}
}

func (r *fakeReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("Reservation", id.String())
	}
	return res, nil
}

func (r *fakeReservationRepo) FindByToken(_ context.Context, token string) (*booking.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.rows {
		if res.ConfirmationToken() == token {
			return res, nil
		}
	}
	return nil, domain.NewNotFoundError("Reservation", token)
}

func (r *fakeReservationRepo) FindOverlapping(_ context.Context, key domain.ResourceKey, date time.Time, bufferBefore, bufferAfter int) ([]booking.BookedInterval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return overlapping(r.rows, key, date, bufferBefore, bufferAfter), nil
}

func overlapping(rows map[uuid.UUID]*booking.Reservation, key domain.ResourceKey, date time.Time, bufferBefore, bufferAfter int) []booking.BookedInterval {
	day := date.UTC().Truncate(24 * time.Hour)
	before := time.Duration(bufferBefore) * time.Minute
	after := time.Duration(bufferAfter) * time.Minute

	var out []booking.BookedInterval
	for _, res := range rows {
		if !res.Status().CountsAgainstCapacity() {
			continue
		}
		if !res.BookingDate().Equal(day) || res.Resource().ServiceID != key.ServiceID {
			continue
		}
		if (res.Resource().EmployeeID == nil) != (key.EmployeeID == nil) {
			continue
		}
		if key.EmployeeID != nil && *res.Resource().EmployeeID != *key.EmployeeID {
			continue
		}
		out = append(out, booking.BookedInterval{
			StartAt:  res.StartAt().Add(-before),
			EndAt:    res.EndAt().Add(after),
			Quantity: res.Quantity(),
		})
	}
	return out
}

func (r *fakeReservationRepo) ListAll(_ context.Context, _, _ int) ([]*booking.Reservation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Reservation
	for _, res := range r.rows {
		out = append(out, res)
	}
	return out, int64(len(out)), nil
}

func (r *fakeReservationRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, res := range r.rows {
		counts[string(res.Status())]++
	}
	return counts, nil
}

func (r *fakeReservationRepo) Save(_ context.Context, res *booking.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if sameLiveSlot(existing, res) {
			return domain.NewConflictError("slot was booked by a concurrent request")
		}
	}
	r.rows[res.ID()] = res
	return nil
}

func sameLiveSlot(a, b *booking.Reservation) bool {
	return a.Status().CountsAgainstCapacity() &&
		a.BookingDate().Equal(b.BookingDate()) &&
		a.StartAt().Equal(b.StartAt()) &&
		a.Resource().ServiceID == b.Resource().ServiceID &&
		a.Customer().Email == b.Customer().Email
}

func (r *fakeReservationRepo) Update(_ context.Context, res *booking.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[res.ID()]; !ok {
		return domain.NewNotFoundError("Reservation", res.ID().String())
	}
	r.rows[res.ID()] = res
	return nil
}

func (r *fakeReservationRepo) InTransaction(ctx context.Context, fn func(booking.ReservationRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := &fakeTxRepo{parent: r, staged: make(map[uuid.UUID]*booking.Reservation)}
	if err := fn(tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, res := range tx.staged {
		r.rows[id] = res
	}
	return nil
}

// fakeTxRepo stages writes until the enclosing transaction commits.
type fakeTxRepo struct {
	parent *fakeReservationRepo
	staged map[uuid.UUID]*booking.Reservation
}

func (t *fakeTxRepo) FindByID(ctx context.Context, id uuid.UUID) (*booking.Reservation, error) {
	if res, ok := t.staged[id]; ok {
		return res, nil
	}
	return t.parent.FindByID(ctx, id)
}

func (t *fakeTxRepo) FindByToken(ctx context.Context, token string) (*booking.Reservation, error) {
	return t.parent.FindByToken(ctx, token)
}

func (t *fakeTxRepo) FindOverlapping(_ context.Context, key domain.ResourceKey, date time.Time, bufferBefore, bufferAfter int) ([]booking.BookedInterval, error) {
	t.parent.mu.Lock()
	committed := overlapping(t.parent.rows, key, date, bufferBefore, bufferAfter)
	t.parent.mu.Unlock()
	return append(committed, overlapping(t.staged, key, date, bufferBefore, bufferAfter)...), nil
}

func (t *fakeTxRepo) ListAll(ctx context.Context, page, limit int) ([]*booking.Reservation, int64, error) {
	return t.parent.ListAll(ctx, page, limit)
}

func (t *fakeTxRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return t.parent.CountByStatus(ctx)
}

func (t *fakeTxRepo) Save(_ context.Context, res *booking.Reservation) error {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	for _, existing := range t.parent.rows {
		if sameLiveSlot(existing, res) {
			return domain.NewConflictError("slot was booked by a concurrent request")
		}
	}
	for _, existing := range t.staged {
		if sameLiveSlot(existing, res) {
			return domain.NewConflictError("slot was booked by a concurrent request")
		}
	}
	t.staged[res.ID()] = res
	return nil
}

func (t *fakeTxRepo) Update(ctx context.Context, res *booking.Reservation) error {
	return t.parent.Update(ctx, res)
}

func (t *fakeTxRepo) InTransaction(ctx context.Context, fn func(booking.ReservationRepository) error) error {
	return fn(t)
}

// --- soft locks ---

type fakeSoftLockRepo struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*booking.SoftLock
}

func newFakeSoftLockRepo() *fakeSoftLockRepo {
	return &fakeSoftLockRepo{locks: make(map[uuid.UUID]*booking.SoftLock)}
}

func (r *fakeSoftLockRepo) FindBySlotKey(_ context.Context, slotKey string) (*booking.SoftLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.locks {
		if l.SlotKey == slotKey {
			return l, nil
		}
	}
	return nil, nil
}

func (r *fakeSoftLockRepo) FindByToken(_ context.Context, token uuid.UUID) (*booking.SoftLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[token]
	if !ok {
		return nil, domain.NewNotFoundError("SoftLock", token.String())
	}
	return l, nil
}

func (r *fakeSoftLockRepo) Save(_ context.Context, lock *booking.SoftLock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.locks {
		if l.SlotKey == lock.SlotKey {
			return domain.NewConflictError("slot is already held by another checkout")
		}
	}
	r.locks[lock.Token] = lock
	return nil
}

func (r *fakeSoftLockRepo) DeleteByToken(_ context.Context, token uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locks[token]; !ok {
		return false, nil
	}
	delete(r.locks, token)
	return true, nil
}

func (r *fakeSoftLockRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for token, l := range r.locks {
		if l.Expired(now) {
			delete(r.locks, token)
			n++
		}
	}
	return n, nil
}

// --- events ---

type capturedEvent struct {
	topic string
	key   string
	event kafka.CloudEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{topic: topic, key: key, event: event})
	return nil
}

func (p *fakePublisher) published() []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]capturedEvent(nil), p.events...)
}
