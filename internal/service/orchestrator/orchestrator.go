package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

// -----------------------------
// Job 定义
// -----------------------------
type Job struct {
	Key        string // 会话ID，同一 key 同时只允许一个运行
	RunID      uint
	EnqueuedAt time.Time
	Timeout    time.Duration
	Fn         func(ctx context.Context) error
}

// NewRunJob 创建一次生成运行对应的任务
func NewRunJob(key string, runID uint, timeout time.Duration, fn func(ctx context.Context) error) *Job {
	return &Job{
		Key:        key,
		RunID:      runID,
		EnqueuedAt: time.Now(),
		Timeout:    timeout,
		Fn:         fn,
	}
}

// -----------------------------
// Orchestrator
// -----------------------------
type Orchestrator struct {
	pool *ants.Pool

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	activeCancellations map[string]context.CancelFunc
	cancelMutex         sync.Mutex
}

// -----------------------------
// 错误定义
// -----------------------------
var (
	ErrOrchestratorStopped = errors.New("orchestrator is stopped")
	ErrKeyBusy             = errors.New("a run is already active for this session")
	ErrEmptyJob            = errors.New("job has no function")
)

// -----------------------------
// 构造函数
// -----------------------------
func NewOrchestrator(maxWorkers int) (*Orchestrator, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	pool, err := ants.NewPool(maxWorkers,
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(1000),
		ants.WithExpiryDuration(5*time.Minute),
	)
	if err != nil {
		cancel()
		klog.Errorf("ants pool initialization failed: %v", err)
		return nil, err
	}

	return &Orchestrator{
		pool:                pool,
		activeCancellations: make(map[string]context.CancelFunc),
		ctx:                 ctx,
		cancel:              cancel,
	}, nil
}

// -----------------------------
// 停止
// -----------------------------
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		klog.V(6).Infof("Orchestrator stopping...")

		// 取消所有运行中的任务，生成在行与行之间检查取消
		o.cancel()

		if running := o.pool.Running(); running > 0 {
			klog.V(6).Infof("Waiting for %d running jobs to exit", running)
		}
		timeout := time.Minute
		if err := o.pool.ReleaseTimeout(timeout); err != nil {
			klog.Warningf("Timeout after %v: some running jobs may be forced to stop", timeout)
		}

		klog.V(6).Infof("Orchestrator stopped completely")
	})
}

// -----------------------------
// 执行
// -----------------------------

// Run 提交任务到协程池并阻塞等待其结束
// 池满时排队等待空闲 worker；任务内的 panic 会被恢复并作为错误返回。
// 调用方 ctx 结束、CancelRun 或 Stop 都会取消任务的 ctx。
func (o *Orchestrator) Run(ctx context.Context, job *Job) error {
	if job == nil || job.Fn == nil {
		return ErrEmptyJob
	}
	select {
	case <-o.ctx.Done():
		return ErrOrchestratorStopped
	default:
	}

	runCtx, manualCancel := context.WithCancel(o.ctx)
	defer manualCancel()
	if job.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		runCtx, timeoutCancel = context.WithTimeout(runCtx, job.Timeout)
		defer timeoutCancel()
	}
	stop := context.AfterFunc(ctx, manualCancel)
	defer stop()

	if !o.registerCancel(job.Key, manualCancel) {
		klog.Warningf("会话已有运行中的任务: key=%s", job.Key)
		return ErrKeyBusy
	}
	defer o.unregisterCancel(job.Key)

	done := make(chan error, 1)
	if err := o.pool.Submit(func() {
		done <- o.executeJob(runCtx, job)
	}); err != nil {
		klog.Errorf("提交任务到协程池失败: key=%s, runID=%d, err=%v", job.Key, job.RunID, err)
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrOrchestratorStopped
		}
		return err
	}
	klog.V(6).Infof("Job submitted: key=%s, runID=%d, waited=%v", job.Key, job.RunID, time.Since(job.EnqueuedAt))

	return <-done
}

func (o *Orchestrator) executeJob(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("Job panic recovered: key=%s, runID=%d, err=%v", job.Key, job.RunID, r)
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()

	start := time.Now()
	err = job.Fn(ctx)
	if err != nil {
		klog.Warningf("任务执行失败: key=%s, runID=%d, err=%v", job.Key, job.RunID, err)
		return err
	}
	klog.V(6).Infof("Job completed: key=%s, runID=%d, took=%v", job.Key, job.RunID, time.Since(start))
	return nil
}

// -----------------------------
// 取消任务
// -----------------------------
func (o *Orchestrator) registerCancel(key string, cancel context.CancelFunc) bool {
	o.cancelMutex.Lock()
	defer o.cancelMutex.Unlock()
	if _, busy := o.activeCancellations[key]; busy {
		return false
	}
	o.activeCancellations[key] = cancel
	return true
}

func (o *Orchestrator) unregisterCancel(key string) {
	o.cancelMutex.Lock()
	defer o.cancelMutex.Unlock()
	delete(o.activeCancellations, key)
}

// CancelRun 取消 key 对应的运行，返回是否存在运行中的任务
func (o *Orchestrator) CancelRun(key string) bool {
	o.cancelMutex.Lock()
	cancel, ok := o.activeCancellations[key]
	o.cancelMutex.Unlock()
	if !ok {
		return false
	}

	klog.V(6).Infof("Cancelling run: key=%s", key)
	cancel()
	return true
}

// IsActive key 是否有运行中的任务
func (o *Orchestrator) IsActive(key string) bool {
	o.cancelMutex.Lock()
	defer o.cancelMutex.Unlock()
	_, ok := o.activeCancellations[key]
	return ok
}

// -----------------------------
// Queue Status
// -----------------------------
type QueueStatus struct {
	ActiveRuns    int `json:"active_runs"`
	ActiveWorkers int `json:"active_workers"`
	Waiting       int `json:"waiting"`
}

func (o *Orchestrator) GetQueueStatus() *QueueStatus {
	o.cancelMutex.Lock()
	active := len(o.activeCancellations)
	o.cancelMutex.Unlock()
	return &QueueStatus{
		ActiveRuns:    active,
		ActiveWorkers: o.pool.Running(),
		Waiting:       o.pool.Waiting(),
	}
}

// -------------------- Global Orchestrator --------------------
var (
	globalOrchestrator *Orchestrator
	orchestratorOnce   sync.Once
)

func InitGlobalOrchestrator(maxWorkers int) error {
	var initErr error
	orchestratorOnce.Do(func() {
		orch, err := NewOrchestrator(maxWorkers)
		if err != nil {
			initErr = err
			return
		}
		globalOrchestrator = orch
		klog.V(6).Infof("Global orchestrator initialized: maxWorkers=%d", maxWorkers)
	})
	return initErr
}

func GetGlobalOrchestrator() *Orchestrator {
	return globalOrchestrator
}

func ShutdownGlobalOrchestrator() {
	if globalOrchestrator != nil {
		globalOrchestrator.Stop()
		klog.V(6).Infof("Global orchestrator shutdown")
	}
}
