package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/jalonsogo/figma-conveyor/config"
	"github.com/jalonsogo/figma-conveyor/internal/binding"
	"github.com/jalonsogo/figma-conveyor/internal/design"
	"github.com/jalonsogo/figma-conveyor/internal/eventbus"
	"github.com/jalonsogo/figma-conveyor/internal/model"
	"github.com/jalonsogo/figma-conveyor/internal/repository"
	"github.com/jalonsogo/figma-conveyor/internal/service/generator"
	"github.com/jalonsogo/figma-conveyor/internal/service/orchestrator"
	"github.com/jalonsogo/figma-conveyor/internal/service/statemachine"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrTemplateVanished   = errors.New("selected template no longer exists")
)

// MessageType 消息边界上的消息类型
type MessageType string

const (
	MsgSelectComponent    MessageType = "select-component"
	MsgGenerateInstances  MessageType = "generate-instances"
	MsgCancel             MessageType = "cancel"
	MsgComponentSelected  MessageType = "component-selected"
	MsgComponentError     MessageType = "component-error"
	MsgGenerationComplete MessageType = "generation-complete"
	MsgGenerationError    MessageType = "generation-error"
	MsgSessionClosed      MessageType = "session-closed"
)

// Message 请求与响应共用的消息信封
type Message struct {
	Type    MessageType     `json:"type"`
	CSVData [][]string      `json:"csvData,omitempty"`
	Name    string          `json:"name,omitempty"`
	Message string          `json:"message,omitempty"`
	Count   *int            `json:"count,omitempty"`
	RunID   uint            `json:"run_id,omitempty"`
	Report  *binding.Report `json:"report,omitempty"`
}

// TemplateSelection 会话当前选中的模板
type TemplateSelection struct {
	TemplateID   string    `json:"template_id"`
	TemplateName string    `json:"template_name"`
	SelectedAt   time.Time `json:"selected_at"`
}

// Session 一个客户端与某个文档之间的交互上下文
// 选择模板时写入 Selection，重新选择时整体替换，生成时读取一次
type Session struct {
	ID          string             `json:"id"`
	DocumentKey string             `json:"document_key"`
	Selection   *TemplateSelection `json:"selection,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

type runDispatcher interface {
	Run(ctx context.Context, job *orchestrator.Job) error
	CancelRun(key string) bool
}

type SessionService struct {
	cfg       *config.Config
	docs      *DocumentService
	runRepo   repository.RunRepository
	runner    runDispatcher
	bus       *eventbus.RunEventBus
	generator *generator.Generator

	mutex    sync.Mutex
	sessions map[string]*Session
}

func NewSessionService(cfg *config.Config, docs *DocumentService, runRepo repository.RunRepository, runner runDispatcher, bus *eventbus.RunEventBus) *SessionService {
	return &SessionService{
		cfg:     cfg,
		docs:    docs,
		runRepo: runRepo,
		runner:  runner,
		bus:     bus,
		generator: generator.New(generator.Options{
			StartX:  cfg.Generation.StartX,
			StartY:  cfg.Generation.StartY,
			Spacing: cfg.Generation.Spacing,
		}),
		sessions: make(map[string]*Session),
	}
}

// Create 为已存在的文档打开会话
func (s *SessionService) Create(documentKey string) (*Session, error) {
	if _, err := s.docs.Get(documentKey); err != nil {
		return nil, err
	}
	session := &Session{
		ID:          uuid.NewString(),
		DocumentKey: documentKey,
		CreatedAt:   time.Now(),
	}
	s.mutex.Lock()
	s.sessions[session.ID] = session
	s.mutex.Unlock()
	klog.V(6).Infof("会话已创建: session=%s, document=%s", session.ID, documentKey)
	return session, nil
}

func (s *SessionService) Get(id string) (*Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

// Handle 处理一条消息并返回响应消息
// 只有会话不存在或消息类型未知时返回 error，其余失败都以错误类型的响应消息返回
func (s *SessionService) Handle(ctx context.Context, id string, msg Message) (Message, error) {
	session, err := s.Get(id)
	if err != nil {
		return Message{}, err
	}
	switch msg.Type {
	case MsgSelectComponent:
		return s.selectComponent(session), nil
	case MsgGenerateInstances:
		return s.generate(ctx, session, msg.CSVData), nil
	case MsgCancel:
		return s.Close(id)
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}
}

// Close 取消运行中的生成并关闭会话
func (s *SessionService) Close(id string) (Message, error) {
	s.mutex.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mutex.Unlock()
	if !ok {
		return Message{}, ErrSessionNotFound
	}
	if s.runner.CancelRun(id) {
		klog.V(6).Infof("会话关闭时取消了运行中的生成: session=%s", id)
	}
	klog.V(6).Infof("会话已关闭: session=%s", id)
	return Message{Type: MsgSessionClosed}, nil
}

// Runs 会话的生成运行历史
func (s *SessionService) Runs(id string) ([]model.GenerationRun, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	return s.runRepo.ListBySession(id)
}

// DocumentRuns 文档的全部生成运行记录，跨会话
func (s *SessionService) DocumentRuns(key string) ([]model.GenerationRun, error) {
	if _, err := s.docs.Get(key); err != nil {
		return nil, err
	}
	return s.runRepo.ListByDocument(key)
}

func (s *SessionService) selectComponent(session *Session) Message {
	tree, _, err := s.docs.LoadTree(session.DocumentKey)
	if err != nil {
		klog.Errorf("读取文档失败: session=%s, err=%v", session.ID, err)
		return componentError(err.Error())
	}
	selected := tree.SelectedNodes()
	if len(selected) == 0 {
		return componentError("Please select a component first")
	}

	node := selected[0]
	var template *design.Node
	switch node.Kind {
	case design.KindTemplate, design.KindTemplateSet:
		template = node
	case design.KindInstance:
		template = tree.MainComponent(node)
		if template == nil {
			return componentError("Could not find the main component")
		}
	default:
		return componentError("Please select a component, component set, or instance")
	}

	s.mutex.Lock()
	if live, ok := s.sessions[session.ID]; ok {
		live.Selection = &TemplateSelection{
			TemplateID:   template.ID,
			TemplateName: template.Name,
			SelectedAt:   time.Now(),
		}
	}
	s.mutex.Unlock()

	klog.V(6).Infof("已选择模板: session=%s, template=%s", session.ID, template.Name)
	return Message{Type: MsgComponentSelected, Name: template.Name}
}

func (s *SessionService) generate(ctx context.Context, session *Session, csvData [][]string) Message {
	if session.Selection == nil {
		return generationError("No component selected", 0)
	}

	run := &model.GenerationRun{
		SessionID:    session.ID,
		DocumentKey:  session.DocumentKey,
		TemplateID:   session.Selection.TemplateID,
		TemplateName: session.Selection.TemplateName,
		Status:       string(statemachine.RunStatusPending),
		RowCount:     max(len(csvData)-1, 0),
	}
	if err := s.runRepo.Create(run); err != nil {
		klog.Errorf("创建运行记录失败: session=%s, err=%v", session.ID, err)
		return generationError(err.Error(), 0)
	}

	var (
		result  *generator.Result
		version int
	)
	job := orchestrator.NewRunJob(session.ID, run.ID, s.cfg.Generation.Timeout, func(ctx context.Context) error {
		s.publish(ctx, eventbus.RunEvent{Type: eventbus.RunEventStarted, RunID: run.ID, SessionID: session.ID, DocumentKey: session.DocumentKey})

		tree, _, err := s.docs.LoadTree(session.DocumentKey)
		if err != nil {
			return err
		}
		template := tree.NodeByID(session.Selection.TemplateID)
		if template == nil {
			return fmt.Errorf("%w: %s", ErrTemplateVanished, session.Selection.TemplateName)
		}

		var genErr error
		result, genErr = s.generator.Generate(ctx, tree, template, binding.TableFromStrings(csvData))
		// 成功时保存新版本（包括清空选区的空表格）；取消或失败前已生成的副本同样保留
		if genErr == nil || result.Count() > 0 {
			record, err := s.docs.SaveTree(session.DocumentKey, tree)
			if err != nil {
				return errors.Join(genErr, err)
			}
			version = record.Version
		}
		return genErr
	})
	err := s.runner.Run(ctx, job)

	event := eventbus.RunEvent{
		RunID:           run.ID,
		SessionID:       session.ID,
		DocumentKey:     session.DocumentKey,
		DocumentVersion: version,
		Err:             err,
	}
	if result != nil {
		event.CopyCount = result.Count()
		event.PropertiesSet = result.Report.PropertiesSet
		event.TextFieldsSet = result.Report.TextFieldsSet
		event.FailureCount = len(result.Report.Failures)
	}

	switch {
	case err == nil:
		event.Type = eventbus.RunEventSucceeded
	case errors.Is(err, context.Canceled):
		event.Type = eventbus.RunEventCanceled
	default:
		event.Type = eventbus.RunEventFailed
	}
	// 运行上下文可能已被取消，事件使用独立的上下文
	s.publish(context.WithoutCancel(ctx), event)

	if err != nil {
		klog.Errorf("生成失败: session=%s, runID=%d, err=%v", session.ID, run.ID, err)
		if errors.Is(err, context.Canceled) {
			return generationError("generation canceled", run.ID)
		}
		return generationError(err.Error(), run.ID)
	}

	count := len(csvData) - 1
	return Message{
		Type:   MsgGenerationComplete,
		Count:  &count,
		RunID:  run.ID,
		Report: &result.Report,
	}
}

func (s *SessionService) publish(ctx context.Context, event eventbus.RunEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		klog.Warningf("运行事件发布失败: type=%s, runID=%d, err=%v", event.Type, event.RunID, err)
	}
}

func componentError(message string) Message {
	return Message{Type: MsgComponentError, Message: message}
}

func generationError(message string, runID uint) Message {
	return Message{Type: MsgGenerationError, Message: message, RunID: runID}
}
