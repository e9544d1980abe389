package eventbus

type RunEventType string

const (
	RunEventStarted   RunEventType = "RunStarted"
	RunEventSucceeded RunEventType = "RunSucceeded"
	RunEventFailed    RunEventType = "RunFailed"
	RunEventCanceled  RunEventType = "RunCanceled"
)

// RunEvent 生成运行的生命周期事件
type RunEvent struct {
	Type            RunEventType
	RunID           uint
	SessionID       string
	DocumentKey     string
	DocumentVersion int
	CopyCount       int
	PropertiesSet   int
	TextFieldsSet   int
	FailureCount    int
	Err             error
}

func (e RunEvent) EventType() RunEventType {
	return e.Type
}

type RunEventHandler = Handler[RunEvent]
type RunEventBus = Bus[RunEventType, RunEvent]

func NewRunEventBus() *RunEventBus {
	return NewBus[RunEventType, RunEvent]()
}
