package subscriber

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"k8s.io/klog/v2"

	"github.com/jalonsogo/figma-conveyor/internal/eventbus"
	"github.com/jalonsogo/figma-conveyor/internal/model"
	"github.com/jalonsogo/figma-conveyor/internal/service/statemachine"
)

// RunEventSubscriber 将运行生命周期事件写入运行记录
type RunEventSubscriber struct {
	runs runStore
	sm   *statemachine.RunStateMachine
}

type runStore interface {
	Get(id uint) (*model.GenerationRun, error)
	Save(run *model.GenerationRun) error
}

func NewRunEventSubscriber(runs runStore) *RunEventSubscriber {
	return &RunEventSubscriber{runs: runs, sm: statemachine.NewRunStateMachine()}
}

func (s *RunEventSubscriber) Register(bus *eventbus.RunEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.RunEventStarted, s.handleStarted)
	bus.Subscribe(eventbus.RunEventSucceeded, s.handleFinished)
	bus.Subscribe(eventbus.RunEventFailed, s.handleFinished)
	bus.Subscribe(eventbus.RunEventCanceled, s.handleFinished)
}

func (s *RunEventSubscriber) handleStarted(ctx context.Context, event eventbus.RunEvent) error {
	run, err := s.load(event)
	if err != nil {
		return err
	}
	if err := s.sm.Transition(statemachine.RunStatus(run.Status), statemachine.RunStatusRunning, run.ID); err != nil {
		return err
	}
	now := time.Now()
	run.Status = string(statemachine.RunStatusRunning)
	run.StartedAt = &now
	return s.save(event, run)
}

func (s *RunEventSubscriber) handleFinished(ctx context.Context, event eventbus.RunEvent) error {
	run, err := s.load(event)
	if err != nil {
		return err
	}
	to := finalStatus(event.Type)
	if err := s.sm.Transition(statemachine.RunStatus(run.Status), to, run.ID); err != nil {
		return err
	}

	now := time.Now()
	run.Status = string(to)
	run.CompletedAt = &now
	run.CopyCount = event.CopyCount
	run.PropertiesSet = event.PropertiesSet
	run.TextFieldsSet = event.TextFieldsSet
	run.FailureCount = event.FailureCount
	if event.DocumentVersion > 0 {
		run.DocumentVersion = event.DocumentVersion
	}
	if event.Err != nil {
		run.ErrorMsg = truncate(event.Err.Error(), 1000)
	}
	return s.save(event, run)
}

func (s *RunEventSubscriber) load(event eventbus.RunEvent) (*model.GenerationRun, error) {
	if event.RunID == 0 {
		return nil, fmt.Errorf("运行ID为空")
	}
	run, err := s.runs.Get(event.RunID)
	if err != nil {
		klog.Errorf("运行事件处理失败: type=%s, runID=%d, error=%v", event.Type, event.RunID, err)
		return nil, err
	}
	return run, nil
}

func (s *RunEventSubscriber) save(event eventbus.RunEvent, run *model.GenerationRun) error {
	if err := s.runs.Save(run); err != nil {
		klog.Errorf("运行事件处理失败: type=%s, runID=%d, error=%v", event.Type, event.RunID, err)
		return err
	}
	klog.V(6).Infof("运行事件处理成功: type=%s, runID=%d, status=%s", event.Type, run.ID, run.Status)
	return nil
}

func finalStatus(t eventbus.RunEventType) statemachine.RunStatus {
	switch t {
	case eventbus.RunEventSucceeded:
		return statemachine.RunStatusSucceeded
	case eventbus.RunEventCanceled:
		return statemachine.RunStatusCanceled
	default:
		return statemachine.RunStatusFailed
	}
}

// truncate 截断到不超过 n 字节，不拆分多字节字符
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
