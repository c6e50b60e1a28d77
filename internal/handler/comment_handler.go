package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lostfound/internal/comment"
	"github.com/hitoshi/lostfound/internal/middleware"
	"github.com/hitoshi/lostfound/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, userID string, input comment.CreateInput) (*model.Comment, error)
	// ListByItem は指定届け出のコメント一覧を新しい順で返す。
	ListByItem(ctx context.Context, itemID string) ([]model.CommentWithOwner, error)
	// Delete はコメントを削除する。
	Delete(ctx context.Context, userID, commentID string) error
}

// CommentHandler はコメント管理のHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// commentCreateRequest はコメント作成リクエストのボディ。
// 対象の届け出IDはURLパスで指定する。
type commentCreateRequest struct {
	Text string `json:"text"`
}

// commentResponse はコメントのレスポンス。
type commentResponse struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// commentWithOwnerResponse は投稿者情報付きのコメントレスポンス（一覧用）。
type commentWithOwnerResponse struct {
	commentResponse
	OwnerName  string `json:"ownerName"`
	OwnerEmail string `json:"ownerEmail"`
}

func toCommentResponse(m *model.Comment) commentResponse {
	return commentResponse{
		ID:        m.ID,
		ItemID:    m.ItemID,
		UserID:    m.UserID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

// Create はコメントを作成する。
// POST /api/comments/item/{itemId}
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req commentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	created, err := h.service.Create(r.Context(), identity.UserID, comment.CreateInput{
		ItemID:       chi.URLParam(r, "itemId"),
		Text:         req.Text,
		ConnectionID: r.Header.Get(connectionIDHeader),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCommentResponse(created))
}

// ListByItem は指定届け出のコメント一覧を新しい順で取得する（認証不要）。
// GET /api/comments/item/{itemId}
func (h *CommentHandler) ListByItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	comments, err := h.service.ListByItem(r.Context(), itemID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]commentWithOwnerResponse, len(comments))
	for i, c := range comments {
		responses[i] = commentWithOwnerResponse{
			commentResponse: toCommentResponse(&c.Comment),
			OwnerName:       c.OwnerName,
			OwnerEmail:      c.OwnerEmail,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Delete はコメントを削除する。
// DELETE /api/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	commentID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), identity.UserID, commentID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessageResponse(w, "コメントを削除しました")
}
