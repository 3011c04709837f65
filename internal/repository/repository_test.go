package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"stride_backend/internal/config"
	"stride_backend/internal/goalstate"
	"stride_backend/internal/model"
	"stride_backend/internal/util"
	"stride_backend/pkg/database"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.InitDB(&config.DatabaseConfig{
		Driver:     util.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newGoal(userID uint, title string, status goalstate.Status) *model.Goal {
	return &model.Goal{
		UserID:       userID,
		Title:        title,
		TargetAmount: decimal.NewFromInt(500),
		StartDate:    day(2025, 9, 1),
		Deadline:     day(2025, 10, 26),
		Status:       status,
	}
}

func activeCount(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.Goal{}).Where("user_id = ? AND status = ?", userID, goalstate.Active).Count(&n).Error; err != nil {
		t.Fatalf("count active: %v", err)
	}
	return n
}

func TestGoalRepository_CreateActivePausesPrevious(t *testing.T) {
	db := newTestDB(t)
	repo := NewGoalRepository(db)

	first := newGoal(1, "laptop", goalstate.Active)
	if _, err := repo.CreateActive(first); err != nil {
		t.Fatalf("CreateActive(first) error = %v", err)
	}
	second := newGoal(1, "trip", goalstate.Active)
	paused, err := repo.CreateActive(second)
	if err != nil {
		t.Fatalf("CreateActive(second) error = %v", err)
	}
	if len(paused) != 1 || paused[0] != first.ID {
		t.Errorf("paused = %v, want [%d]", paused, first.ID)
	}
	if n := activeCount(t, db, 1); n != 1 {
		t.Errorf("active goals = %d, want 1", n)
	}

	got, err := repo.FindByIDAndUserID(first.ID, 1)
	if err != nil {
		t.Fatalf("FindByIDAndUserID() error = %v", err)
	}
	if got.Status != goalstate.Paused || got.ActiveOwnerID != nil {
		t.Errorf("first goal = status %s owner %v, want paused with no owner", got.Status, got.ActiveOwnerID)
	}
}

func TestGoalRepository_ActivateKeepsSingleActive(t *testing.T) {
	db := newTestDB(t)
	repo := NewGoalRepository(db)

	a := newGoal(7, "a", goalstate.Waiting)
	b := newGoal(7, "b", goalstate.Waiting)
	other := newGoal(8, "other user", goalstate.Active)
	for _, g := range []*model.Goal{a, b, other} {
		if err := repo.Create(g); err != nil {
			t.Fatalf("Create(%s) error = %v", g.Title, err)
		}
	}

	steps := []struct {
		id         uint
		wantPaused []uint
	}{
		{id: a.ID},
		{id: b.ID, wantPaused: []uint{a.ID}},
		{id: a.ID, wantPaused: []uint{b.ID}},
		{id: a.ID},
	}
	for i, s := range steps {
		g, paused, err := repo.Activate(7, s.id)
		if err != nil {
			t.Fatalf("step %d: Activate(%d) error = %v", i, s.id, err)
		}
		if g.Status != goalstate.Active {
			t.Errorf("step %d: status = %s, want active", i, g.Status)
		}
		if fmt.Sprint(paused) != fmt.Sprint(s.wantPaused) {
			t.Errorf("step %d: paused = %v, want %v", i, paused, s.wantPaused)
		}
		if n := activeCount(t, db, 7); n != 1 {
			t.Errorf("step %d: active goals = %d, want 1", i, n)
		}
	}
	if n := activeCount(t, db, 8); n != 1 {
		t.Errorf("other user's active goal was touched, active = %d", n)
	}
}

func TestGoalRepository_ActivateErrors(t *testing.T) {
	db := newTestDB(t)
	repo := NewGoalRepository(db)

	g := newGoal(3, "g", goalstate.Active)
	if _, err := repo.CreateActive(g); err != nil {
		t.Fatalf("CreateActive() error = %v", err)
	}

	if _, _, err := repo.Activate(4, g.ID); !errors.Is(err, util.ErrGoalNotFound) {
		t.Errorf("foreign owner: err = %v, want ErrGoalNotFound", err)
	}
	if _, err := repo.Transition(3, g.ID, goalstate.Completed); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := repo.Transition(3, g.ID, goalstate.Paused); !errors.Is(err, goalstate.ErrInvalidTransition) {
		t.Errorf("completed -> paused: err = %v, want ErrInvalidTransition", err)
	}
	if _, _, err := repo.Activate(3, g.ID); err != nil {
		t.Errorf("completed goals can be reactivated explicitly, err = %v", err)
	}
}

func TestGoalRepository_StaleVersionConflicts(t *testing.T) {
	db := newTestDB(t)
	repo := NewGoalRepository(db)

	g := newGoal(5, "g", goalstate.Waiting)
	if err := repo.Create(g); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	stale := *g
	if _, _, err := repo.Activate(5, g.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return changeStatus(tx, &stale, goalstate.Active)
	})
	if !errors.Is(err, util.ErrStateConflict) {
		t.Errorf("stale write: err = %v, want ErrStateConflict", err)
	}
}

func TestGoalRepository_UniqueActiveOwnerIndex(t *testing.T) {
	db := newTestDB(t)
	owner := uint(9)

	first := newGoal(owner, "first", goalstate.Active)
	first.ActiveOwnerID = &owner
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("insert first: %v", err)
	}
	second := newGoal(owner, "second", goalstate.Active)
	second.ActiveOwnerID = &owner
	err := db.Create(second).Error
	if !errors.Is(translate(err), util.ErrStateConflict) {
		t.Errorf("second active goal for same owner: err = %v, want duplicate key", err)
	}
}

func TestGoalRepository_AddProgressAutoCompletes(t *testing.T) {
	db := newTestDB(t)
	repo := NewGoalRepository(db)
	progress := NewProgressRepository(db)

	g := newGoal(2, "g", goalstate.Active)
	if _, err := repo.CreateActive(g); err != nil {
		t.Fatalf("CreateActive() error = %v", err)
	}

	got, err := repo.AddProgress(2, g.ID, &model.GoalProgress{Amount: decimal.NewFromInt(200), LoggedAt: day(2025, 9, 5)})
	if err != nil {
		t.Fatalf("AddProgress() error = %v", err)
	}
	if got.Status != goalstate.Active || !got.CurrentAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("after 200: status %s current %s", got.Status, got.CurrentAmount)
	}

	got, err = repo.AddProgress(2, g.ID, &model.GoalProgress{Amount: decimal.NewFromInt(300), LoggedAt: day(2025, 9, 12)})
	if err != nil {
		t.Fatalf("AddProgress() error = %v", err)
	}
	if got.Status != goalstate.Completed {
		t.Errorf("status = %s, want completed once target reached", got.Status)
	}
	if n := activeCount(t, db, 2); n != 0 {
		t.Errorf("active goals = %d, want 0", n)
	}

	if _, err := repo.AddProgress(2, g.ID, &model.GoalProgress{Amount: decimal.NewFromInt(1), LoggedAt: day(2025, 9, 13)}); !errors.Is(err, goalstate.ErrInvalidTransition) {
		t.Errorf("progress on completed goal: err = %v", err)
	}

	logs, err := progress.FindByGoalID(2, g.ID, 0)
	if err != nil {
		t.Fatalf("FindByGoalID() error = %v", err)
	}
	if len(logs) != 2 || !logs[0].Amount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("progress log = %+v, want newest first", logs)
	}
}

func TestGoalRepository_FindStartable(t *testing.T) {
	db := newTestDB(t)
	repo := NewGoalRepository(db)

	due := newGoal(1, "due", goalstate.Waiting)
	later := newGoal(1, "later", goalstate.Waiting)
	later.StartDate = day(2025, 12, 1)
	later.Deadline = day(2026, 2, 1)
	for _, g := range []*model.Goal{due, later} {
		if err := repo.Create(g); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := repo.FindStartable(day(2025, 9, 1))
	if err != nil {
		t.Fatalf("FindStartable() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != due.ID {
		t.Errorf("FindStartable() = %+v, want only %q", got, due.Title)
	}
}

func TestGoalRepository_StartIfIdle(t *testing.T) {
	db := newTestDB(t)
	repo := NewGoalRepository(db)

	due := newGoal(5, "due", goalstate.Waiting)
	manual := newGoal(5, "manual", goalstate.Waiting)
	for _, g := range []*model.Goal{due, manual} {
		if err := repo.Create(g); err != nil {
			t.Fatalf("Create(%s) error = %v", g.Title, err)
		}
	}

	// 定时任务查出 due 之后，用户先手动激活了另一个目标
	if _, _, err := repo.Activate(5, manual.ID); err != nil {
		t.Fatalf("Activate(manual) error = %v", err)
	}
	g, started, err := repo.StartIfIdle(5, due.ID)
	if err != nil || started || g != nil {
		t.Fatalf("StartIfIdle() with an active goal = %v, %v, %v; want nil, false, nil", g, started, err)
	}
	got, _ := repo.FindByIDAndUserID(manual.ID, 5)
	if got.Status != goalstate.Active {
		t.Errorf("manually activated goal = %s, want still active", got.Status)
	}

	if _, err := repo.Transition(5, manual.ID, goalstate.Paused); err != nil {
		t.Fatalf("Transition(paused) error = %v", err)
	}
	g, started, err = repo.StartIfIdle(5, due.ID)
	if err != nil || !started {
		t.Fatalf("StartIfIdle() = %v, %v; want started", started, err)
	}
	if g.Status != goalstate.Active || g.ActiveOwnerID == nil || *g.ActiveOwnerID != 5 {
		t.Errorf("started goal = status %s owner %v, want active owned by 5", g.Status, g.ActiveOwnerID)
	}
	if n := activeCount(t, db, 5); n != 1 {
		t.Errorf("active goals = %d, want 1", n)
	}

	if _, err := repo.Transition(5, due.ID, goalstate.Paused); err != nil {
		t.Fatalf("Transition(paused) error = %v", err)
	}
	if _, started, err := repo.StartIfIdle(5, due.ID); err != nil || started {
		t.Errorf("StartIfIdle() on a paused goal = %v, %v; want not started", started, err)
	}
	if _, _, err := repo.StartIfIdle(5, 9999); !errors.Is(err, util.ErrGoalNotFound) {
		t.Errorf("unknown goal: err = %v, want ErrGoalNotFound", err)
	}
}

func TestCalendarRepositories(t *testing.T) {
	db := newTestDB(t)
	events := NewAcademicEventRepository(db)
	commitments := NewCommitmentRepository(db)

	exam := &model.AcademicEvent{UserID: 1, Name: "finals", Type: model.EventExamPeriod, StartDate: day(2025, 12, 8), EndDate: day(2025, 12, 19), CapacityImpact: 0.2}
	if err := events.Create(exam); err != nil {
		t.Fatalf("Create(event) error = %v", err)
	}

	overlap, err := events.FindOverlapping(1, day(2025, 12, 15), day(2025, 12, 21))
	if err != nil || len(overlap) != 1 {
		t.Errorf("FindOverlapping() = %v, %v; want the exam", overlap, err)
	}
	none, _ := events.FindOverlapping(1, day(2025, 12, 20), day(2025, 12, 31))
	if len(none) != 0 {
		t.Errorf("FindOverlapping() after the exam = %v, want none", none)
	}
	if err := events.Delete(2, exam.ID); !errors.Is(err, util.ErrEventNotFound) {
		t.Errorf("delete foreign event: err = %v", err)
	}
	if err := events.Delete(1, exam.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}

	job := &model.Commitment{UserID: 1, Name: "cafe", Type: "job", HoursPerWeek: 12}
	if err := commitments.Create(job); err != nil {
		t.Fatalf("Create(commitment) error = %v", err)
	}
	updated, err := commitments.UpdateHours(1, job.ID, 8)
	if err != nil || updated.HoursPerWeek != 8 {
		t.Errorf("UpdateHours() = %+v, %v", updated, err)
	}
	if _, err := commitments.UpdateHours(1, 999, 8); !errors.Is(err, util.ErrCommitmentNotFound) {
		t.Errorf("UpdateHours(missing) err = %v", err)
	}
}

func TestEnergyRepository_FindRecentIsChronological(t *testing.T) {
	db := newTestDB(t)
	repo := NewEnergyRepository(db)

	for i, level := range []int{50, 40, 30, 20} {
		e := &model.EnergyEntry{UserID: 1, EnergyLevel: level, LoggedAt: day(2025, 1, 6).AddDate(0, 0, 7*i)}
		if err := repo.Create(e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if e.ID == "" {
			t.Fatal("uuid primary key not assigned")
		}
	}

	got, err := repo.FindRecent(1, 3)
	if err != nil {
		t.Fatalf("FindRecent() error = %v", err)
	}
	levels := make([]int, len(got))
	for i, e := range got {
		levels[i] = e.EnergyLevel
	}
	if fmt.Sprint(levels) != "[40 30 20]" {
		t.Errorf("FindRecent() levels = %v, want [40 30 20]", levels)
	}
}

func TestProfileRepository_Upsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)

	if _, err := repo.FindByUserID(1); !errors.Is(err, util.ErrProfileMissing) {
		t.Fatalf("missing profile: err = %v", err)
	}
	p := &model.Profile{UserID: 1, MaxWorkHoursWeekly: 10, MinHourlyRate: decimal.NewFromInt(12)}
	if err := repo.Upsert(p); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := repo.Upsert(&model.Profile{UserID: 1, MaxWorkHoursWeekly: 15, MinHourlyRate: decimal.NewFromInt(12)}); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, err := repo.FindByUserID(1)
	if err != nil {
		t.Fatalf("FindByUserID() error = %v", err)
	}
	if !got.MaxSafeWeeklyAmount().Equal(decimal.NewFromInt(180)) {
		t.Errorf("MaxSafeWeeklyAmount() = %s, want 180", got.MaxSafeWeeklyAmount())
	}
}
