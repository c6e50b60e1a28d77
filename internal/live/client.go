package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// 書き込みのタイムアウト
	writeWait = 10 * time.Second
	// pongを待つ最大時間。これを超えた接続は切断とみなす
	pongWait = 60 * time.Second
	// pingの送信間隔。pongWaitより短くする必要がある
	pingPeriod = (pongWait * 9) / 10
	// 受信メッセージの最大サイズ
	maxMessageSize = 1024
	// 送信バッファのサイズ。満杯時の配信は破棄される
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// オリジン検証はCORSミドルウェアと同様にフロントエンドに委ねる。
	// トークンを要求しない公開エンドポイントであり、受信データも処理しない。
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client は1本のWebSocket接続を表す。
// sendは閉じない。切断はdoneチャネルで伝え、以降の配信は破棄される。
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

// connectedFrame は接続確立時にクライアントへ返す最初のフレーム。
type connectedFrame struct {
	Event string        `json:"event"`
	Data  connectedData `json:"data"`
}

type connectedData struct {
	ConnectionID string `json:"connectionId"`
}

// ServeWS はHTTPリクエストをWebSocketにアップグレードし、接続をHubに登録する。
// 接続IDはクエリパラメータidで指定でき、未指定の場合は新規に採番する。
// 確立直後にconnectedフレームで接続IDをクライアントへ通知する。
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgradeが失敗した場合はレスポンス済み
		slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		id = uuid.NewString()
	}

	client := &Client{
		id:   id,
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	h.register(client)

	go client.writePump()
	go client.readPump()

	frame, err := json.Marshal(connectedFrame{
		Event: "connected",
		Data:  connectedData{ConnectionID: id},
	})
	if err == nil {
		client.trySend(frame)
	}
}

// trySend はメッセージを送信バッファに積む。
// 切断済みの接続への配信とバッファ満杯時の配信は黙って破棄する。
// 一斉配信のスナップショットと切断が競合してもパニックしない。
func (c *Client) trySend(message []byte) {
	select {
	case <-c.done:
		// 切断済み。破棄する
		return
	default:
	}
	select {
	case c.send <- message:
	default:
		slog.Warn("live send buffer full, message dropped",
			slog.String("connection_id", c.id),
		)
	}
}

// close はwritePumpと配信側に接続の終了を伝える。
// sendチャネル自体は閉じない（配信側からの送信が残っていても安全にするため）。
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump は受信ループを回し、切断を検出する。
// 受信したデータは読み捨てる（クライアントからのメッセージは処理しない）。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("live connection read error",
					slog.String("connection_id", c.id),
					slog.String("error", err.Error()),
				)
			}
			return
		}
	}
}

// writePump は送信バッファのメッセージをソケットへ書き出し、定期的にpingを送る。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			// closeが呼ばれた
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
