package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hitoshi/lostfound/internal/model"
)

// mockBroadcaster はBroadcasterのモック実装。
type mockBroadcaster struct {
	messages   [][]byte
	excludeIDs []string
}

func (m *mockBroadcaster) BroadcastExcept(message []byte, excludeID string) {
	m.messages = append(m.messages, message)
	m.excludeIDs = append(m.excludeIDs, excludeID)
}

// mockBroadcastRecorder はBroadcastRecorderのモック実装。
type mockBroadcastRecorder struct {
	events []string
}

func (m *mockBroadcastRecorder) RecordEventBroadcast(event string) {
	m.events = append(m.events, event)
}

// 新規投稿イベントがmessageとpostを含むフレームで配信されることを検証
func TestNotifier_NotifyNewPost(t *testing.T) {
	b := &mockBroadcaster{}
	n := NewNotifier(b, nil)

	item := &model.Item{
		ID:       "item-1",
		UserID:   "u1",
		Name:     "黒い財布",
		Location: "渋谷駅",
		Type:     model.ItemTypeLost,
		Date:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	n.NotifyNewPost(item, "sender-conn")

	if len(b.messages) != 1 {
		t.Fatalf("broadcast count = %d, want 1", len(b.messages))
	}
	if b.excludeIDs[0] != "sender-conn" {
		t.Errorf("excludeID = %q, want sender-conn", b.excludeIDs[0])
	}

	var got struct {
		Event string `json:"event"`
		Data  struct {
			Message string `json:"message"`
			Post    struct {
				ID     string `json:"id"`
				UserID string `json:"userId"`
				Type   string `json:"type"`
			} `json:"post"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b.messages[0], &got); err != nil {
		t.Fatalf("failed to unmarshal frame: %v", err)
	}
	if got.Event != "newPost" {
		t.Errorf("event = %q, want newPost", got.Event)
	}
	if got.Data.Message == "" {
		t.Error("message should not be empty")
	}
	if got.Data.Post.ID != "item-1" {
		t.Errorf("post.id = %q, want item-1", got.Data.Post.ID)
	}
	if got.Data.Post.UserID != "u1" {
		t.Errorf("post.userId = %q, want u1", got.Data.Post.UserID)
	}
	if got.Data.Post.Type != "lost" {
		t.Errorf("post.type = %q, want lost", got.Data.Post.Type)
	}
}

// 新規コメントイベントがitemId/text/userIdのみを含むフレームで配信されることを検証
func TestNotifier_NotifyNewComment(t *testing.T) {
	b := &mockBroadcaster{}
	n := NewNotifier(b, nil)

	comment := &model.Comment{
		ID:     "comment-1",
		ItemID: "item-1",
		UserID: "u2",
		Text:   "駅前の交番に届けました",
	}

	n.NotifyNewComment(comment, "")

	if len(b.messages) != 1 {
		t.Fatalf("broadcast count = %d, want 1", len(b.messages))
	}
	if b.excludeIDs[0] != "" {
		t.Errorf("excludeID = %q, want empty", b.excludeIDs[0])
	}

	var got struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b.messages[0], &got); err != nil {
		t.Fatalf("failed to unmarshal frame: %v", err)
	}
	if got.Event != "newComment" {
		t.Errorf("event = %q, want newComment", got.Event)
	}

	var data map[string]string
	if err := json.Unmarshal(got.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal data: %v", err)
	}
	want := map[string]string{
		"itemId": "item-1",
		"text":   "駅前の交番に届けました",
		"userId": "u2",
	}
	for k, v := range want {
		if data[k] != v {
			t.Errorf("data[%q] = %q, want %q", k, data[k], v)
		}
	}
	if len(data) != len(want) {
		t.Errorf("data has extra fields: %v", data)
	}
}

// 配信ごとにイベント名付きでメトリクスが記録されることを検証
func TestNotifier_RecordsBroadcastMetrics(t *testing.T) {
	b := &mockBroadcaster{}
	rec := &mockBroadcastRecorder{}
	n := NewNotifier(b, rec)

	n.NotifyNewPost(&model.Item{ID: "item-1", Type: model.ItemTypeLost}, "")
	n.NotifyNewComment(&model.Comment{ID: "c1", ItemID: "item-1"}, "")

	if len(rec.events) != 2 {
		t.Fatalf("recorded events = %d, want 2", len(rec.events))
	}
	if rec.events[0] != "newPost" || rec.events[1] != "newComment" {
		t.Errorf("events = %v, want [newPost newComment]", rec.events)
	}
}
