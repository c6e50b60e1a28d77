// Package event はライブ接続へのドメインイベント配信を提供する。
//
// 配信はベストエフォート（最大1回）であり、失敗してもAPI処理の成否には影響しない。
// 送信元の接続IDが分かっている場合は送信元自身を配信対象から除外する。
package event

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hitoshi/lostfound/internal/model"
)

// Broadcaster はイベントフレームの配信先インターフェース。
// live.Hubの部分集合として定義する。
type Broadcaster interface {
	BroadcastExcept(message []byte, excludeID string)
}

// BroadcastRecorder はイベント配信のメトリクス記録先。
// metrics.Collectorの部分集合として定義する。
type BroadcastRecorder interface {
	RecordEventBroadcast(event string)
}

// Notifier はドメインイベントをライブ接続に通知する。
type Notifier struct {
	broadcaster Broadcaster
	recorder    BroadcastRecorder
}

// NewNotifier はNotifierを生成する。recorderはnilでもよい。
func NewNotifier(broadcaster Broadcaster, recorder BroadcastRecorder) *Notifier {
	return &Notifier{broadcaster: broadcaster, recorder: recorder}
}

// frame はライブ接続に流すイベントフレームの共通形式。
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// newPostData は新規アイテム投稿イベントのペイロード。
type newPostData struct {
	Message string   `json:"message"`
	Post    postData `json:"post"`
}

// postData は通知に含める届け出の表現。APIレスポンスと同じフィールド名を使う。
type postData struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	Phone       string    `json:"phone,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// newCommentData は新規コメントイベントのペイロード。
type newCommentData struct {
	ItemID string `json:"itemId"`
	Text   string `json:"text"`
	UserID string `json:"userId"`
}

// NotifyNewPost は新規アイテム投稿を全接続（送信元を除く）に通知する。
// エラーは呼び出し元に返さず、ログにのみ記録する。
func (n *Notifier) NotifyNewPost(item *model.Item, excludeConnectionID string) {
	n.broadcast("newPost", newPostData{
		Message: "新しい投稿があります",
		Post: postData{
			ID:          item.ID,
			UserID:      item.UserID,
			Name:        item.Name,
			Location:    item.Location,
			Description: item.Description,
			Type:        string(item.Type),
			Date:        item.Date,
			Phone:       item.Phone,
			ImageURL:    item.ImageURL,
			CreatedAt:   item.CreatedAt,
		},
	}, excludeConnectionID)
}

// NotifyNewComment は新規コメントを全接続（送信元を除く）に通知する。
// エラーは呼び出し元に返さず、ログにのみ記録する。
func (n *Notifier) NotifyNewComment(comment *model.Comment, excludeConnectionID string) {
	n.broadcast("newComment", newCommentData{
		ItemID: comment.ItemID,
		Text:   comment.Text,
		UserID: comment.UserID,
	}, excludeConnectionID)
}

// broadcast はフレームをJSONにエンコードして配信する。
func (n *Notifier) broadcast(event string, data any, excludeConnectionID string) {
	message, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		slog.Error("failed to encode event frame",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}

	n.broadcaster.BroadcastExcept(message, excludeConnectionID)
	if n.recorder != nil {
		n.recorder.RecordEventBroadcast(event)
	}

	slog.Debug("event broadcast",
		slog.String("event", event),
		slog.String("exclude_connection_id", excludeConnectionID),
	)
}
