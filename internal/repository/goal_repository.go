package repository

import (
	"errors"
	"time"

	"stride_backend/internal/goalstate"
	"stride_backend/internal/model"
	"stride_backend/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GoalRepository 处理储蓄目标的数据访问。
// 所有状态变更都走 changeStatus：带版本号条件更新 + active_owner_id 唯一索引，
// 任何一个失败都意味着并发写入，统一返回 util.ErrStateConflict
type GoalRepository struct {
	DB *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{DB: db}
}

// Create 创建非 active 状态的目标
func (r *GoalRepository) Create(goal *model.Goal) error {
	if goal.Status == goalstate.Active {
		_, err := r.CreateActive(goal)
		return err
	}
	goal.ActiveOwnerID = nil
	return r.DB.Create(goal).Error
}

// CreateActive 在一个事务里暂停该用户原有的进行中目标并创建新的 active 目标，返回被暂停的目标ID
func (r *GoalRepository) CreateActive(goal *model.Goal) ([]uint, error) {
	var paused []uint
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		owned, err := lockOwned(tx, goal.UserID)
		if err != nil {
			return err
		}
		for i := range owned {
			if owned[i].Status != goalstate.Active {
				continue
			}
			if err := changeStatus(tx, &owned[i], goalstate.Paused); err != nil {
				return err
			}
			paused = append(paused, owned[i].ID)
		}

		goal.Status = goalstate.Active
		goal.ActiveOwnerID = &goal.UserID
		goal.Version = 1
		if err := tx.Create(goal).Error; err != nil {
			return translate(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paused, nil
}

// FindByIDAndUserID 目标不存在或不属于该用户时返回 ErrGoalNotFound
func (r *GoalRepository) FindByIDAndUserID(id, userID uint) (*model.Goal, error) {
	var goal model.Goal
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// FindByUserID 获取用户的目标，status 为空时返回全部
func (r *GoalRepository) FindByUserID(userID uint, status goalstate.Status) ([]model.Goal, error) {
	var goals []model.Goal
	q := r.DB.Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("deadline, id").Find(&goals).Error
	return goals, err
}

// FindActiveByUserID 没有进行中目标时返回 ErrGoalNotFound
func (r *GoalRepository) FindActiveByUserID(userID uint) (*model.Goal, error) {
	var goal model.Goal
	err := r.DB.Where("user_id = ? AND status = ?", userID, goalstate.Active).First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// FindAllActive 所有进行中目标，供定时任务扫描
func (r *GoalRepository) FindAllActive() ([]model.Goal, error) {
	var goals []model.Goal
	err := r.DB.Where("status = ?", goalstate.Active).Order("user_id").Find(&goals).Error
	return goals, err
}

// FindStartable 开始日期已到的等待中目标，同一用户按开始日期先后排列
func (r *GoalRepository) FindStartable(asOf time.Time) ([]model.Goal, error) {
	var goals []model.Goal
	err := r.DB.Where("status = ? AND start_date <= ?", goalstate.Waiting, model.DateOnly(asOf)).
		Order("user_id, start_date, id").
		Find(&goals).Error
	return goals, err
}

// Activate 激活目标并暂停该用户其他进行中目标，全部在一个事务里完成
func (r *GoalRepository) Activate(userID, goalID uint) (*model.Goal, []uint, error) {
	var (
		target *model.Goal
		paused []uint
	)
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		owned, err := lockOwned(tx, userID)
		if err != nil {
			return err
		}

		states := make([]goalstate.Goal, len(owned))
		byID := make(map[uint]*model.Goal, len(owned))
		for i := range owned {
			states[i] = goalstate.Goal{ID: owned[i].ID, Status: owned[i].Status}
			byID[owned[i].ID] = &owned[i]
		}
		target = byID[goalID]
		if target == nil {
			return util.ErrGoalNotFound
		}

		act, err := goalstate.PlanActivation(goalstate.Goal{ID: target.ID, Status: target.Status}, states)
		if err != nil {
			return err
		}
		if act.Noop() {
			return nil
		}

		// 先释放旧的 active_owner_id 再占用，唯一索引才不会误报
		for _, id := range act.Pause {
			if err := changeStatus(tx, byID[id], goalstate.Paused); err != nil {
				return err
			}
			paused = append(paused, id)
		}
		if target.Status != goalstate.Active {
			return changeStatus(tx, target, goalstate.Active)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return target, paused, nil
}

// StartIfIdle 用户没有进行中目标时把等待中的 goalID 激活。
// 检查和激活在同一个事务里完成；已有进行中目标或目标不再等待时返回 started=false
func (r *GoalRepository) StartIfIdle(userID, goalID uint) (*model.Goal, bool, error) {
	var target *model.Goal
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		owned, err := lockOwned(tx, userID)
		if err != nil {
			return err
		}
		var found *model.Goal
		for i := range owned {
			if owned[i].Status == goalstate.Active {
				return nil
			}
			if owned[i].ID == goalID {
				found = &owned[i]
			}
		}
		if found == nil {
			return util.ErrGoalNotFound
		}
		if found.Status != goalstate.Waiting {
			return nil
		}
		if err := changeStatus(tx, found, goalstate.Active); err != nil {
			return err
		}
		target = found
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return target, target != nil, nil
}

// Transition 暂停或完成目标
func (r *GoalRepository) Transition(userID, goalID uint, to goalstate.Status) (*model.Goal, error) {
	if to == goalstate.Active {
		g, _, err := r.Activate(userID, goalID)
		return g, err
	}

	var goal model.Goal
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", goalID, userID).
			First(&goal).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrGoalNotFound
		}
		if err != nil {
			return err
		}
		if _, err := goalstate.Transition(goal.Status, to); err != nil {
			return err
		}
		return changeStatus(tx, &goal, to)
	})
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// AddProgress 追加一条进度并累加已存金额；active 目标达到金额后自动完成
func (r *GoalRepository) AddProgress(userID, goalID uint, entry *model.GoalProgress) (*model.Goal, error) {
	var goal model.Goal
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", goalID, userID).
			First(&goal).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrGoalNotFound
		}
		if err != nil {
			return err
		}
		if goal.Status == goalstate.Completed {
			return goalstate.ErrInvalidTransition
		}

		entry.GoalID = goal.ID
		entry.UserID = userID
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		goal.CurrentAmount = nonNegative(goal.CurrentAmount.Add(entry.Amount))
		current := goal.CurrentAmount
		updates := map[string]interface{}{
			"current_amount": current,
			"version":        goal.Version + 1,
		}
		next := goal.Status
		if goal.Status == goalstate.Active && goal.Reached() {
			next = goalstate.Completed
			updates["status"] = next
			updates["active_owner_id"] = nil
		}

		res := tx.Model(&model.Goal{}).Where("id = ? AND version = ?", goal.ID, goal.Version).Updates(updates)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return util.ErrStateConflict
		}
		goal.Status = next
		goal.Version++
		if next != goalstate.Active {
			goal.ActiveOwnerID = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// UpdatePlanSummary 保存最近一次计划的周目标和可行性
func (r *GoalRepository) UpdatePlanSummary(goalID uint, weeklyTarget decimal.Decimal, feasibility float64) error {
	return r.DB.Model(&model.Goal{}).
		Where("id = ?", goalID).
		Updates(map[string]interface{}{
			"weekly_target":     weeklyTarget,
			"feasibility_score": feasibility,
		}).Error
}

// lockOwned 锁住该用户的全部目标行（SQLite 会忽略 FOR UPDATE，依靠单写者保证）
func lockOwned(tx *gorm.DB, userID uint) ([]model.Goal, error) {
	var owned []model.Goal
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("id").
		Find(&owned).Error
	return owned, err
}

// changeStatus 带版本号的状态写入，成功后同步内存中的 goal
func changeStatus(tx *gorm.DB, goal *model.Goal, to goalstate.Status) error {
	var owner *uint
	if to == goalstate.Active {
		id := goal.UserID
		owner = &id
	}

	res := tx.Model(&model.Goal{}).
		Where("id = ? AND version = ?", goal.ID, goal.Version).
		Updates(map[string]interface{}{
			"status":          to,
			"active_owner_id": owner,
			"version":         goal.Version + 1,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return util.ErrStateConflict
	}

	goal.Status = to
	goal.ActiveOwnerID = owner
	goal.Version++
	return nil
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrStateConflict
	}
	return err
}
