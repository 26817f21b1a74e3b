package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slotwise/service-scheduling/internal/cache"
	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/domain/availability"
	"github.com/slotwise/service-scheduling/internal/domain/schedule"
	"github.com/slotwise/service-scheduling/internal/platform/clock"
)

func newScheduleFixture() (*ScheduleService, *cache.AvailabilityCache) {
	clk := &clock.Fixed{Instant: time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)}
	availCache := cache.New(time.Hour, 64, clk.Now)
	svc := NewScheduleService(&fakeRuleRepo{}, &fakeBlackoutRepo{}, availCache, zap.NewNop())
	return svc, availCache
}

func seedCacheEntry(c *cache.AvailabilityCache, date time.Time, employeePart string) string {
	key := cache.Key(date, employeePart, "svc-1")
	c.Set(key, []availability.Slot{}, []string{
		cache.DateTag(date),
		cache.EmployeeTag(employeePart),
		cache.ServiceTag("svc-1"),
	})
	return key
}

func TestCreateRule_ValidatesAndAssignsIdentity(t *testing.T) {
	svc, _ := newScheduleFixture()

	created, err := svc.CreateRule(context.Background(), schedule.Rule{
		Kind:        schedule.RuleKindRecurring,
		Weekdays:    []schedule.Weekday{1, 2},
		StartMinute: 9 * 60,
		EndMinute:   17 * 60,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.Active)

	_, err = svc.CreateRule(context.Background(), schedule.Rule{
		Kind:        schedule.RuleKindRecurring,
		StartMinute: 9 * 60,
		EndMinute:   8 * 60,
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestCreateRule_InvalidatesEmployeeEntries(t *testing.T) {
	svc, availCache := newScheduleFixture()
	date := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)

	empID := uuid.New()
	affected := seedCacheEntry(availCache, date, empID.String())
	unaffected := seedCacheEntry(availCache, date, uuid.NewString())

	_, err := svc.CreateRule(context.Background(), schedule.Rule{
		Kind:        schedule.RuleKindRecurring,
		Weekdays:    []schedule.Weekday{4},
		StartMinute: 9 * 60,
		EndMinute:   12 * 60,
		EmployeeID:  &empID,
	})
	require.NoError(t, err)

	_, ok := availCache.Get(affected)
	assert.False(t, ok)
	_, ok = availCache.Get(unaffected)
	assert.True(t, ok)
}

func TestCreateRule_UnscopedRuleInvalidatesEveryEntry(t *testing.T) {
	svc, availCache := newScheduleFixture()
	date := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)

	// Entries cached under concrete employees and under the unscoped key all
	// reflect the old rule set once an unscoped rule lands.
	perEmployee := seedCacheEntry(availCache, date, uuid.NewString())
	unscoped := seedCacheEntry(availCache, date, "*")
	otherDay := seedCacheEntry(availCache, date.AddDate(0, 0, 3), uuid.NewString())

	_, err := svc.CreateRule(context.Background(), schedule.Rule{
		Kind:        schedule.RuleKindRecurring,
		Weekdays:    []schedule.Weekday{1, 2, 3, 4, 5, 6, 7},
		StartMinute: 9 * 60,
		EndMinute:   17 * 60,
	})
	require.NoError(t, err)

	_, ok := availCache.Get(perEmployee)
	assert.False(t, ok)
	_, ok = availCache.Get(unscoped)
	assert.False(t, ok)
	_, ok = availCache.Get(otherDay)
	assert.False(t, ok)
}

func TestDeactivateRule_UnscopedRuleInvalidatesEveryEntry(t *testing.T) {
	svc, availCache := newScheduleFixture()
	ctx := context.Background()

	created, err := svc.CreateRule(ctx, schedule.Rule{
		Kind:        schedule.RuleKindRecurring,
		Weekdays:    []schedule.Weekday{1, 2, 3, 4, 5, 6, 7},
		StartMinute: 9 * 60,
		EndMinute:   17 * 60,
	})
	require.NoError(t, err)

	date := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	perEmployee := seedCacheEntry(availCache, date, uuid.NewString())

	require.NoError(t, svc.DeactivateRule(ctx, created.ID))

	_, ok := availCache.Get(perEmployee)
	assert.False(t, ok)
}

func TestCreateBlackout_InvalidatesCoveredDates(t *testing.T) {
	svc, availCache := newScheduleFixture()

	dayIn := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	dayOut := time.Date(2026, 12, 28, 0, 0, 0, 0, time.UTC)
	covered := seedCacheEntry(availCache, dayIn, "*")
	outside := seedCacheEntry(availCache, dayOut, "*")

	_, err := svc.CreateBlackout(context.Background(), schedule.BlackoutRange{
		StartDate: time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 26, 0, 0, 0, 0, time.UTC),
		Reason:    "holidays",
	})
	require.NoError(t, err)

	_, ok := availCache.Get(covered)
	assert.False(t, ok)
	_, ok = availCache.Get(outside)
	assert.True(t, ok)
}

func TestCreateBlackout_RejectsInvertedAndOverlongRanges(t *testing.T) {
	svc, _ := newScheduleFixture()
	ctx := context.Background()

	_, err := svc.CreateBlackout(ctx, schedule.BlackoutRange{
		StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = svc.CreateBlackout(ctx, schedule.BlackoutRange{
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestDeactivateRule(t *testing.T) {
	svc, _ := newScheduleFixture()
	ctx := context.Background()

	created, err := svc.CreateRule(ctx, schedule.Rule{
		Kind:        schedule.RuleKindRecurring,
		Weekdays:    []schedule.Weekday{1},
		StartMinute: 9 * 60,
		EndMinute:   10 * 60,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateRule(ctx, created.ID))

	rules, total, err := svc.ListRules(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.False(t, rules[0].Active)

	err = svc.DeactivateRule(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}
