// Package chat implements the conversation held in the side panel: the
// message history, the page it is about and the active API setting.
//
// Example usage:
//
//	session := chat.New(chat.Deps{
//	    Router:    router,
//	    Settings:  repo,
//	    Extractor: extractor,
//	    Store:     store,
//	    Logger:    logger,
//	})
//	if err := session.Load(ctx); err != nil {
//	    return err
//	}
//	session.RefreshPageContent(ctx, tab)
//	reply, err := session.SendMessage(ctx, "Summarize this page")
package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/entrhq/pagechat/pkg/extract"
	"github.com/entrhq/pagechat/pkg/llm"
	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/settings"
	"github.com/entrhq/pagechat/pkg/storage"
	"github.com/entrhq/pagechat/pkg/types"
)

// Notification texts.
const (
	MsgContentUpdated = "Content updated successfully"
	MsgContentFailed  = "Failed to get page content. Please try again."
)

const defaultEventBuffer = 64

// Router sends messages to initialized provider adapters.
type Router interface {
	InitAPI(provider types.ProviderID, cfg llm.Config) error
	SendMessage(ctx context.Context, provider types.ProviderID, content string, history []types.Message, chatCtx llm.ChatContext, opts llm.Options) (*llm.Response, error)
}

// Extractor reads page content from a tab.
type Extractor interface {
	Extract(ctx context.Context, tab extract.Tab, opts extract.Options) extract.Result
}

// Deps are the collaborators of a Session.
type Deps struct {
	Router    Router
	Settings  *settings.Repository
	Extractor Extractor
	Store     storage.Store
	Logger    *logging.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithHistoryWindow sets how many prior messages are sent with a request.
func WithHistoryWindow(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithEventBuffer sets the capacity of the events channel.
func WithEventBuffer(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.events = make(chan *types.Event, n)
		}
	}
}

// WithRequestOptions sets the sampling options sent with every request.
func WithRequestOptions(opts llm.Options) Option {
	return func(s *Session) {
		s.requestOpts = opts
	}
}

// WithExtractOptions sets the options used by RefreshPageContent.
func WithExtractOptions(opts extract.Options) Option {
	return func(s *Session) {
		s.extractOpts = opts
	}
}

// Session is one side-panel conversation.
//
// Sends are single-flight: while a request is outstanding further
// SendMessage calls are ignored. A reply that arrives after the history
// was cleared or the provider switched is still appended.
type Session struct {
	router    Router
	settings  *settings.Repository
	extractor Extractor
	store     storage.Store
	logger    *logging.Logger

	window      int
	requestOpts llm.Options
	extractOpts extract.Options
	events      chan *types.Event

	mu      sync.Mutex
	history []types.Message
	sending bool
	page    *extract.PageContent
	active  *settings.APISetting

	persistMu sync.Mutex
}

// New creates a session. Call Load to restore persisted state.
func New(deps Deps, opts ...Option) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Session{
		router:    deps.Router,
		settings:  deps.Settings,
		extractor: deps.Extractor,
		store:     deps.Store,
		logger:    logger,
		window:    DefaultHistoryWindow,
		events:    make(chan *types.Event, defaultEventBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the notification channel. Events are dropped when the
// channel is full.
func (s *Session) Events() <-chan *types.Event {
	return s.events
}

func (s *Session) emit(event *types.Event) {
	select {
	case s.events <- event:
	default:
		s.logger.Debugf("dropped %s event: buffer full", event.Type)
	}
}

func (s *Session) emitError(err error) {
	s.emit(types.NewErrorEvent(err))
}

// Load restores the persisted history and activates the selected setting.
func (s *Session) Load(ctx context.Context) error {
	history, err := s.loadHistory(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.history = history
	s.mu.Unlock()

	s.logger.Infof("restored %d messages", len(history))
	return s.ReloadSettings(ctx)
}

// ReloadSettings re-resolves the selected setting and re-initializes its
// adapter, typically after the settings were edited.
func (s *Session) ReloadSettings(ctx context.Context) error {
	selected, err := s.settings.SelectedSetting(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.active = selected
	s.mu.Unlock()

	if selected == nil {
		s.logger.Infof("no API setting configured")
		return nil
	}

	if err := s.router.InitAPI(selected.Provider, configFor(*selected)); err != nil {
		s.logger.Warnf("failed to initialize %s for setting %q: %v", selected.Provider, selected.Name, err)
		s.emitError(err)
	}
	return nil
}

// SendMessage sends text with the current page as context and returns the
// assistant reply. Blank text, or a send already in flight, is ignored and
// yields (nil, nil). On failure the user message stays in the history.
func (s *Session) SendMessage(ctx context.Context, text string) (*types.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, nil
	}
	if s.active == nil {
		s.mu.Unlock()
		err := &NoActiveSettingError{}
		s.emitError(err)
		return nil, err
	}

	provider := s.active.Provider
	window := Window(s.history, s.window)
	chatCtx := llm.ChatContext{}
	if s.page != nil {
		chatCtx = llm.ChatContext{PageTitle: s.page.Title, PageContent: s.page.Content}
	}

	userMsg := types.NewUserMessage(text)
	s.history = append(s.history, userMsg)
	s.sending = true
	s.mu.Unlock()

	s.emit(types.NewMessageAddedEvent(userMsg))
	s.emit(types.NewSendingChangeEvent(true))
	s.persist(ctx)

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
		s.emit(types.NewSendingChangeEvent(false))
	}()

	resp, err := s.router.SendMessage(ctx, provider, text, window, chatCtx, s.requestOpts)
	if err != nil {
		s.logger.Errorf("failed to send message: %v", err)
		s.emitError(err)
		return nil, err
	}

	reply := resp.Message
	s.mu.Lock()
	s.history = append(s.history, reply)
	s.mu.Unlock()

	s.emit(types.NewMessageAddedEvent(reply))
	s.persist(ctx)
	return &reply, nil
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.CloneMessages(s.history)
}

// IsSending reports whether a request is outstanding.
func (s *Session) IsSending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// PageContent returns the page the conversation is about, or nil.
func (s *Session) PageContent() *extract.PageContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return nil
	}
	page := *s.page
	return &page
}

// Active returns the selected API setting, or nil.
func (s *Session) Active() *settings.APISetting {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	active := *s.active
	return &active
}

// ClearMessages empties the history and removes its persisted copy.
func (s *Session) ClearMessages(ctx context.Context) {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()

	s.persist(ctx)
	s.emit(types.NewHistoryClearEvent())
}

// SwitchProvider activates the setting called name. The history is kept.
func (s *Session) SwitchProvider(ctx context.Context, name string) error {
	all, err := s.settings.APISettings(ctx)
	if err != nil {
		return err
	}
	setting, ok := all.Find(name)
	if !ok {
		err := &SettingNotFoundError{Name: name}
		s.emitError(err)
		return err
	}

	if err := s.router.InitAPI(setting.Provider, configFor(setting)); err != nil {
		s.emitError(err)
		return err
	}
	if err := s.settings.SetSelectedSetting(ctx, setting); err != nil {
		s.emitError(err)
		return err
	}

	s.mu.Lock()
	s.active = &setting
	s.mu.Unlock()

	s.logger.Infof("switched to %q (%s)", setting.Name, setting.Provider)
	s.emit(types.NewProviderSwitchEvent(setting.Name))
	return nil
}

// RefreshPageContent re-reads the page shown in tab. On failure the
// previous page content and the history are left untouched.
func (s *Session) RefreshPageContent(ctx context.Context, tab extract.Tab) extract.Result {
	result := s.extractor.Extract(ctx, tab, s.extractOpts)
	if !result.Success || result.Content == nil {
		msg := result.Error
		if msg == "" {
			msg = MsgContentFailed
		}
		s.logger.Warnf("page refresh failed for %s: %s", tab.URL, msg)
		s.emit(types.NewErrorMessageEvent(msg))
		return result
	}

	page := *result.Content
	s.mu.Lock()
	s.page = &page
	s.mu.Unlock()

	s.emit(types.NewPageContentEvent(page.Title))
	s.emit(types.NewSuccessEvent(MsgContentUpdated))
	return result
}

func configFor(s settings.APISetting) llm.Config {
	return llm.Config{
		APIKey:       s.APIKey,
		Model:        s.Model,
		Organization: s.Organization,
		Project:      s.Project,
	}
}
