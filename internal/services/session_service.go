// internal/services/session_service.go
package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Corphon/StoryFlowMCP/internal/flow"
	"github.com/Corphon/StoryFlowMCP/internal/models"
	"github.com/Corphon/StoryFlowMCP/internal/utils"
)

// 会话状态
const (
	SessionCreated  = "created"
	SessionPlaying  = "playing"
	SessionFinished = "finished"
	SessionErrored  = "errored"
)

// Session 一次播放会话：一个故事实例加它的播放抄本
type Session struct {
	ID        string
	ScriptID  string
	CreatedAt time.Time

	mu      sync.Mutex
	status  string
	story   *flow.Story
	entries []models.TranscriptEntry
}

// SetStory 绑定运行中的故事实例
func (s *Session) SetStory(story *flow.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.story = story
}

// Story 返回绑定的故事实例，播放开始前为 nil
func (s *Session) Story() *flow.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.story
}

// SetStatus 更新会话状态
func (s *Session) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Status 返回会话状态
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Append 追加一条抄本条目，自动编号和打时间戳
func (s *Session) Append(entry models.TranscriptEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Seq = len(s.entries) + 1
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	s.entries = append(s.entries, entry)
}

// Transcript 返回抄本的副本
func (s *Session) Transcript() []models.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.TranscriptEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Summary 返回会话摘要
func (s *Session) Summary() models.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var visits int64
	if s.story != nil {
		visits = s.story.Visits()
	}

	return models.SessionSummary{
		ID:         s.ID,
		ScriptID:   s.ScriptID,
		Status:     s.status,
		CreatedAt:  s.CreatedAt,
		Visits:     visits,
		EntryCount: len(s.entries),
	}
}

// SessionService 管理全部播放会话
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	metrics  *utils.MetricsCollector
}

// NewSessionService 创建会话服务
func NewSessionService() *SessionService {
	return &SessionService{
		sessions: make(map[string]*Session),
		metrics:  utils.GetMetricsCollector(),
	}
}

// CreateSession 为指定脚本创建一个新会话
func (s *SessionService) CreateSession(scriptID string) *Session {
	session := &Session{
		ID:        uuid.NewString(),
		ScriptID:  scriptID,
		CreatedAt: time.Now(),
		status:    SessionCreated,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.metrics.Counter(utils.MetricSessionsStarted).Inc()
	s.metrics.Gauge(utils.MetricSessionsActive).Add(1)

	return session
}

// GetSession 按标识查找会话
func (s *SessionService) GetSession(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok
}

// ListSessions 返回全部会话摘要，按创建时间排序
func (s *SessionService) ListSessions() []models.SessionSummary {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	summaries := make([]models.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, session.Summary())
	}
	return summaries
}

// FinishSession 标记会话结束并更新指标
func (s *SessionService) FinishSession(session *Session, status string) {
	session.SetStatus(status)
	s.metrics.Gauge(utils.MetricSessionsActive).Add(-1)
	if status == SessionFinished {
		s.metrics.Counter(utils.MetricSessionsFinished).Inc()
	}
}
