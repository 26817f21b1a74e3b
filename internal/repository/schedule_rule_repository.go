package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/domain/schedule"
)

// ScheduleRuleModel is the GORM model for the schedule_rules table. Weekdays
// are stored as a comma-joined list of ISO numbers ("1,2,3"); weekday
// filtering happens in memory since the active rule set is small.
type ScheduleRuleModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind        string     `gorm:"not null;size:20;index"`
	Weekdays    string     `gorm:"size:20"`
	EventDate   *time.Time `gorm:"index"`
	StartMinute int        `gorm:"not null"`
	EndMinute   int        `gorm:"not null"`
	EmployeeID  *uuid.UUID `gorm:"type:uuid;index"`
	LocationID  *uuid.UUID `gorm:"type:uuid"`
	ServiceID   *uuid.UUID `gorm:"type:uuid;index"`
	Active      bool       `gorm:"not null;default:true;index"`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ScheduleRuleModel) TableName() string {
	return "schedule_rules"
}

// GormRuleRepository is the GORM-based implementation of RuleRepository.
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository.
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// FindByID retrieves a rule by its unique identifier.
func (r *GormRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*schedule.Rule, error) {
	var model ScheduleRuleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("ScheduleRule", id.String())
		}
		return nil, domain.NewInternalError("failed to find schedule rule by ID", err)
	}
	rule := toDomainRule(&model)
	return &rule, nil
}

// FindForDate retrieves the active rules that could apply to the resource on
// the date: recurring rules for its weekday plus event rules for the date.
func (r *GormRuleRepository) FindForDate(ctx context.Context, key domain.ResourceKey, date time.Time) ([]schedule.Rule, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	var models []ScheduleRuleModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("kind = ? OR (kind = ? AND event_date = ?)",
			string(schedule.RuleKindRecurring), string(schedule.RuleKindEvent), day).
		Find(&models).Error; err != nil {
		return nil, domain.NewInternalError("failed to query schedule rules", err)
	}

	weekday := schedule.ISOWeekday(day.Weekday())
	rules := make([]schedule.Rule, 0, len(models))
	for _, m := range models {
		rule := toDomainRule(&m)
		if rule.Kind == schedule.RuleKindRecurring && !containsWeekday(rule.Weekdays, weekday) {
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// ListAll retrieves all rules with pagination (admin).
func (r *GormRuleRepository) ListAll(ctx context.Context, page, limit int) ([]schedule.Rule, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ScheduleRuleModel{}).Count(&total).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to count schedule rules", err)
	}

	var models []ScheduleRuleModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to list schedule rules", err)
	}

	rules := make([]schedule.Rule, len(models))
	for i, m := range models {
		rules[i] = toDomainRule(&m)
	}
	return rules, total, nil
}

// Save persists a new rule.
func (r *GormRuleRepository) Save(ctx context.Context, rule *schedule.Rule) error {
	model := toRuleModel(rule)
	now := time.Now().UTC()
	model.CreatedAt = now
	model.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domain.NewInternalError("failed to save schedule rule", err)
	}
	return nil
}

// Update persists changes to an existing rule.
func (r *GormRuleRepository) Update(ctx context.Context, rule *schedule.Rule) error {
	model := toRuleModel(rule)
	model.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&ScheduleRuleModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"kind":         model.Kind,
			"weekdays":     model.Weekdays,
			"event_date":   model.EventDate,
			"start_minute": model.StartMinute,
			"end_minute":   model.EndMinute,
			"employee_id":  model.EmployeeID,
			"location_id":  model.LocationID,
			"service_id":   model.ServiceID,
			"active":       model.Active,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return domain.NewInternalError("failed to update schedule rule", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("ScheduleRule", model.ID.String())
	}
	return nil
}

// Deactivate soft-disables a rule so it no longer contributes windows.
func (r *GormRuleRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&ScheduleRuleModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return domain.NewInternalError("failed to deactivate schedule rule", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("ScheduleRule", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toRuleModel(rule *schedule.Rule) *ScheduleRuleModel {
	return &ScheduleRuleModel{
		ID:          rule.ID,
		Kind:        string(rule.Kind),
		Weekdays:    encodeWeekdays(rule.Weekdays),
		EventDate:   rule.EventDate,
		StartMinute: rule.StartMinute,
		EndMinute:   rule.EndMinute,
		EmployeeID:  rule.EmployeeID,
		LocationID:  rule.LocationID,
		ServiceID:   rule.ServiceID,
		Active:      rule.Active,
	}
}

func toDomainRule(m *ScheduleRuleModel) schedule.Rule {
	return schedule.Rule{
		ID:          m.ID,
		Kind:        schedule.RuleKind(m.Kind),
		Weekdays:    decodeWeekdays(m.Weekdays),
		EventDate:   m.EventDate,
		StartMinute: m.StartMinute,
		EndMinute:   m.EndMinute,
		EmployeeID:  m.EmployeeID,
		LocationID:  m.LocationID,
		ServiceID:   m.ServiceID,
		Active:      m.Active,
	}
}

func encodeWeekdays(days []schedule.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(s string) []schedule.Weekday {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	days := make([]schedule.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		days = append(days, schedule.Weekday(n))
	}
	return days
}

func containsWeekday(days []schedule.Weekday, d schedule.Weekday) bool {
	for _, wd := range days {
		if wd == d {
			return true
		}
	}
	return false
}
