// internal/api/websocket.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Corphon/StoryFlowMCP/internal/flow"
	"github.com/Corphon/StoryFlowMCP/internal/models"
	"github.com/Corphon/StoryFlowMCP/internal/render"
	"github.com/Corphon/StoryFlowMCP/internal/services"
	"github.com/Corphon/StoryFlowMCP/internal/utils"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该进行更严格的检查
		return true
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendQueueSize  = 64
	maxMessageSize = 4096
)

// playClient 表示一个播放端 WebSocket 连接
type playClient struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	done      chan struct{} // 读泵退出时关闭
	closed    int32
	createdAt time.Time
}

func newPlayClient(conn *websocket.Conn, sessionID string) *playClient {
	return &playClient{
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, sendQueueSize),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
}

// Close 安全关闭客户端连接
func (client *playClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		client.conn.Close()
	}
}

// IsClosed 检查连接是否已关闭
func (client *playClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

// SendFrame 序列化并投递一帧，队列满时丢弃以免阻塞播放
func (client *playClient) SendFrame(frame models.PlayFrame) error {
	if client.IsClosed() {
		return nil
	}

	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	select {
	case client.send <- data:
		return nil
	default:
		log.Printf("警告: 会话 %s 的消息队列已满，帧被丢弃", client.sessionID)
		return nil
	}
}

// writePump 把队列里的帧写到连接上，并维持心跳
func (client *playClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.done:
			return
		}
	}
}

// readPump 读取客户端发来的选择帧，交给渲染器解析挂起的菜单
func (client *playClient) readPump(renderer *wsRenderer) {
	defer func() {
		close(client.done)
		client.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var choice models.ChoiceFrame
		if err := json.Unmarshal(data, &choice); err != nil {
			log.Printf("警告: 会话 %s 收到无法解析的帧: %v", client.sessionID, err)
			continue
		}
		if choice.Type != models.FrameChoice {
			continue
		}

		renderer.deliver(choice.MenuID, choice.Label)
	}
}

// ------------------------------------------------
// wsRenderer: 把 WebSocket 连接适配成故事渲染器
// ------------------------------------------------

// wsRenderer 通过播放帧驱动远端客户端，菜单在收到选择帧前保持阻塞
type wsRenderer struct {
	render.Nop

	client              *playClient
	session             *services.Session
	narratorAsCharacter bool
	metrics             *utils.MetricsCollector

	mu      sync.Mutex
	pending map[string]chan string // menuID -> 等待选择的通道
}

func newWSRenderer(client *playClient, session *services.Session, narratorAsCharacter bool) *wsRenderer {
	return &wsRenderer{
		client:              client,
		session:             session,
		narratorAsCharacter: narratorAsCharacter,
		metrics:             utils.GetMetricsCollector(),
		pending:             make(map[string]chan string),
	}
}

// OnMessage 把一句台词推给客户端并记入抄本
func (r *wsRenderer) OnMessage(ctx context.Context, ch render.Character, text string) (interface{}, error) {
	isNarrator := ch.ID() == flow.NarratorID
	frame := models.PlayFrame{
		Type:          models.FrameMessage,
		CharacterID:   ch.ID(),
		CharacterName: ch.DisplayName(),
		Narrator:      isNarrator,
		Italic:        isNarrator && !r.narratorAsCharacter,
		Text:          text,
	}

	if err := r.client.SendFrame(frame); err != nil {
		return nil, fmt.Errorf("推送消息帧失败: %w", err)
	}

	r.session.Append(models.TranscriptEntry{
		Type:          models.EntryMessage,
		CharacterID:   ch.ID(),
		CharacterName: ch.DisplayName(),
		Narrator:      isNarrator,
		Text:          text,
	})
	r.metrics.Counter(utils.MetricMessagesRendered).Inc()

	return nil, nil
}

// OnMenu 把选择菜单推给客户端并阻塞等待选择帧
//
// 客户端断开或上下文取消视为渲染器故障；
// 空标签的选择帧表示玩家收起了菜单。
func (r *wsRenderer) OnMenu(ctx context.Context, choices []render.Choice) (string, error) {
	menuID := uuid.NewString()
	labels := make([]string, 0, len(choices))
	for _, choice := range choices {
		labels = append(labels, choice.Label)
	}

	answer := make(chan string, 1)
	r.mu.Lock()
	r.pending[menuID] = answer
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, menuID)
		r.mu.Unlock()
	}()

	frame := models.PlayFrame{
		Type:    models.FrameMenu,
		MenuID:  menuID,
		Options: labels,
	}
	if err := r.client.SendFrame(frame); err != nil {
		return "", fmt.Errorf("推送菜单帧失败: %w", err)
	}

	r.session.Append(models.TranscriptEntry{
		Type:    models.EntryMenu,
		Options: labels,
	})

	select {
	case label := <-answer:
		if label != "" {
			r.session.Append(models.TranscriptEntry{
				Type:   models.EntryChoice,
				Choice: label,
			})
		}
		r.metrics.Counter(utils.MetricMenusResolved).Inc()
		return label, nil

	case <-r.client.done:
		return "", fmt.Errorf("客户端已断开，菜单无法解析")

	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// deliver 把收到的选择帧路由给挂起的菜单
func (r *wsRenderer) deliver(menuID, label string) {
	r.mu.Lock()
	answer, ok := r.pending[menuID]
	r.mu.Unlock()

	if !ok {
		log.Printf("警告: 会话 %s 收到过期菜单 %s 的选择，忽略", r.client.sessionID, menuID)
		return
	}

	select {
	case answer <- label:
	default:
		// 同一菜单的重复选择，忽略
	}
}

// ------------------------------------------------
// playManager: 追踪活跃播放连接
// ------------------------------------------------

// playManagerState 管理全部活跃的播放连接
type playManagerState struct {
	mu      sync.RWMutex
	clients map[string]*playClient // sessionID -> client
}

var playManager = &playManagerState{
	clients: make(map[string]*playClient),
}

// Add 登记一个播放连接，同一会话只允许一个活跃连接
func (m *playManagerState) Add(client *playClient) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.clients[client.sessionID]; ok && !existing.IsClosed() {
		return fmt.Errorf("会话 %s 已有活跃的播放连接", client.sessionID)
	}
	m.clients[client.sessionID] = client
	return nil
}

// Remove 注销一个播放连接
func (m *playManagerState) Remove(client *playClient) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.clients[client.sessionID]; ok && current == client {
		delete(m.clients, client.sessionID)
	}
}

// Status 返回活跃连接概况
func (m *playManagerState) Status() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]map[string]interface{}, 0, len(m.clients))
	for _, client := range m.clients {
		if client.IsClosed() {
			continue
		}
		sessions = append(sessions, map[string]interface{}{
			"session_id":   client.sessionID,
			"connected_at": client.createdAt.Format(time.RFC3339),
		})
	}

	return map[string]interface{}{
		"active_connections": len(sessions),
		"sessions":           sessions,
	}
}

// Shutdown 关闭全部播放连接
func (m *playManagerState) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		client.Close()
	}
	m.clients = make(map[string]*playClient)
}
