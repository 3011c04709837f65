// Package goalstate 定义储蓄目标的生命周期与"每个用户最多一个进行中目标"的激活规则。
// 这里只描述状态迁移，真正的原子写入由持久层在一个事务里完成。
package goalstate

import (
	"errors"
	"fmt"
)

type Status string

const (
	Waiting   Status = "waiting"
	Active    Status = "active"
	Paused    Status = "paused"
	Completed Status = "completed"
)

var ErrInvalidTransition = errors.New("invalid goal status transition")

var transitions = map[Status][]Status{
	Waiting:   {Active},
	Active:    {Paused, Completed},
	Paused:    {Active},
	Completed: {Active},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition 判断 from -> to 是否允许
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition 校验迁移，不允许时返回包装了 ErrInvalidTransition 的错误
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// Goal 参与激活计算的最小信息
type Goal struct {
	ID     uint
	Status Status
}

// Activation 一次激活需要写入的全部变更
type Activation struct {
	TargetID uint
	From     Status
	Pause    []uint
}

// PlanActivation 计算激活 target 时需要暂停的其他进行中目标。
// target 已经是 active 时返回空的 Pause，调用方可以直接跳过写入
func PlanActivation(target Goal, owned []Goal) (Activation, error) {
	act := Activation{TargetID: target.ID, From: target.Status}
	if target.Status != Active {
		if _, err := Transition(target.Status, Active); err != nil {
			return act, err
		}
	}
	for _, g := range owned {
		if g.ID != target.ID && g.Status == Active {
			act.Pause = append(act.Pause, g.ID)
		}
	}
	return act, nil
}

// Noop 目标已经是唯一的进行中目标
func (a Activation) Noop() bool {
	return a.From == Active && len(a.Pause) == 0
}
