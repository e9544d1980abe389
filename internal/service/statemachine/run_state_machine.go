package statemachine

import (
	"fmt"

	"k8s.io/klog/v2"
)

// RunStatus 生成运行的所有可能状态
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"   // 已创建，等待调度
	RunStatusRunning   RunStatus = "running"   // 正在逐行生成
	RunStatusSucceeded RunStatus = "succeeded" // 全部行已处理
	RunStatusFailed    RunStatus = "failed"    // 整体失败
	RunStatusCanceled  RunStatus = "canceled"  // 被取消，已生成的副本保留
)

// RunTransition 状态迁移
type RunTransition struct {
	From RunStatus
	To   RunStatus
}

// RunStateMachine 生成运行状态机
type RunStateMachine struct {
	allowedTransitions map[RunTransition]bool
}

// NewRunStateMachine 创建运行状态机
func NewRunStateMachine() *RunStateMachine {
	sm := &RunStateMachine{
		allowedTransitions: make(map[RunTransition]bool),
	}

	// pending -> running -> succeeded/failed/canceled
	// pending -> failed（调度失败）/ canceled（尚未开始即被取消）
	transitions := []RunTransition{
		{RunStatusPending, RunStatusRunning},
		{RunStatusRunning, RunStatusSucceeded},
		{RunStatusRunning, RunStatusFailed},
		{RunStatusRunning, RunStatusCanceled},

		{RunStatusPending, RunStatusFailed},
		{RunStatusPending, RunStatusCanceled},
	}

	for _, t := range transitions {
		sm.allowedTransitions[t] = true
	}

	return sm
}

// CanTransition 检查状态迁移是否合法
func (sm *RunStateMachine) CanTransition(from, to RunStatus) bool {
	if from == to {
		return false
	}
	return sm.allowedTransitions[RunTransition{From: from, To: to}]
}

// ValidateTransition 验证状态迁移并返回错误
func (sm *RunStateMachine) ValidateTransition(from, to RunStatus) error {
	if !sm.CanTransition(from, to) {
		return &InvalidStateTransitionError{
			From: string(from),
			To:   string(to),
		}
	}
	return nil
}

// Transition 执行状态迁移（带日志）
func (sm *RunStateMachine) Transition(from, to RunStatus, runID uint) error {
	if err := sm.ValidateTransition(from, to); err != nil {
		klog.V(6).Infof("运行状态迁移被拒绝: runID=%d, %s -> %s, error=%v", runID, from, to, err)
		return err
	}

	klog.V(6).Infof("运行状态迁移成功: runID=%d, %s -> %s", runID, from, to)
	return nil
}

// InvalidStateTransitionError 无效的状态迁移错误
type InvalidStateTransitionError struct {
	From string
	To   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid run state transition: %s -> %s", e.From, e.To)
}

// IsTerminal 判断状态是否为终止态
func IsTerminal(status RunStatus) bool {
	return status == RunStatusSucceeded || status == RunStatusFailed || status == RunStatusCanceled
}
