// Package live はWebSocketによるライブ接続の管理とイベント配信を提供する。
//
// Hub は接続中のクライアントをインメモリで保持するレジストリであり、
// 全接続または送信元を除いた接続への一斉配信を行う。
// 接続状態は永続化せず、プロセス再起動で全接続が失われる。
package live

import (
	"log/slog"
	"sync"
)

// Hub は接続中のクライアントを管理し、メッセージの一斉配信を行う。
// すべての操作はスレッドセーフ。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
}

// NewHub は空のHubを生成する。
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// register はクライアントをレジストリに追加する。
// 同じ接続IDの既存クライアントがいる場合は置き換え、旧接続を閉じる。
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	old := h.clients[c.id]
	h.clients[c.id] = c
	closed := h.closed
	h.mu.Unlock()

	if old != nil {
		old.close()
	}
	if closed {
		c.close()
		return
	}

	slog.Info("live connection registered",
		slog.String("connection_id", c.id),
		slog.Int("connections", h.Count()),
	)
}

// unregister はクライアントをレジストリから取り除く。
// 既に置き換え済みの接続IDは対象にしない。
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()

	slog.Info("live connection unregistered",
		slog.String("connection_id", c.id),
		slog.Int("connections", h.Count()),
	)
}

// Count は現在の接続数を返す。メトリクス用。
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast は全接続にメッセージを送信する。
// 送信はベストエフォートで、バッファが満杯のクライアントへの配信は破棄される。
func (h *Hub) Broadcast(message []byte) {
	h.BroadcastExcept(message, "")
}

// BroadcastExcept は指定した接続IDを除く全接続にメッセージを送信する。
// excludeIDが空文字列の場合は全接続が対象となる。
// 送信はベストエフォートで、切断済みやバッファ満杯のクライアントへの配信は破棄される。
func (h *Hub) BroadcastExcept(message []byte, excludeID string) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		if excludeID != "" && id == excludeID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.trySend(message)
	}
}

// CloseAll は全接続を閉じ、以降の登録を拒否する。シャットダウン時に呼ぶ。
func (h *Hub) CloseAll() {
	h.mu.Lock()
	h.closed = true
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range targets {
		c.close()
	}

	slog.Info("all live connections closed", slog.Int("closed", len(targets)))
}
