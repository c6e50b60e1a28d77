package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lostfound/internal/item"
	"github.com/hitoshi/lostfound/internal/middleware"
	"github.com/hitoshi/lostfound/internal/model"
	"github.com/hitoshi/lostfound/internal/suggest"
)

// connectionIDHeader は投稿元クライアントのライブ接続IDを運ぶヘッダー。
// イベント通知の送信元除外に使う。
const connectionIDHeader = "X-Connection-ID"

// ItemServiceInterface は届け出ハンドラーが必要とするサービスインターフェース。
type ItemServiceInterface interface {
	// Create は届け出を作成する。
	Create(ctx context.Context, userID string, input item.CreateInput) (*model.Item, error)
	// ListMine は指定ユーザーの届け出一覧を返す。
	ListMine(ctx context.Context, userID string) ([]*model.Item, error)
	// ListAll は全届け出を所有者の表示名付きで返す。
	ListAll(ctx context.Context) ([]model.ItemWithOwner, error)
	// Get は指定IDの届け出を返す。
	Get(ctx context.Context, itemID string) (*model.Item, error)
	// Update は届け出を部分更新する。
	Update(ctx context.Context, userID, itemID string, input item.UpdateInput) (*model.Item, error)
	// Delete は届け出を削除する。
	Delete(ctx context.Context, userID, itemID string) error
	// Contact は届け出所有者への連絡先情報を返す。
	Contact(ctx context.Context, itemID string) (*model.ContactInfo, error)
}

// SuggestServiceInterface は説明文サジェストのサービスインターフェース。
type SuggestServiceInterface interface {
	Suggest(ctx context.Context, input suggest.Input) (string, error)
}

// ItemHandler は届け出管理のHTTPハンドラー。
type ItemHandler struct {
	service       ItemServiceInterface
	suggester     SuggestServiceInterface
	maxUploadSize int64
}

// NewItemHandler はItemHandlerを生成する。
func NewItemHandler(service ItemServiceInterface, suggester SuggestServiceInterface, maxUploadSize int64) *ItemHandler {
	return &ItemHandler{
		service:       service,
		suggester:     suggester,
		maxUploadSize: maxUploadSize,
	}
}

// --- リクエスト・レスポンス型 ---

// itemResponse は届け出のレスポンス。
type itemResponse struct {
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
	UpdatedAt   time.Time `json:"updatedAt"`
}

// itemWithOwnerResponse は所有者の表示名付きの届け出レスポンス（公開一覧用）。
type itemWithOwnerResponse struct {
	itemResponse
	OwnerName string `json:"ownerName"`
}

// itemUpdateRequest は届け出の部分更新リクエストのボディ。
// 空のフィールドは変更されない。
type itemUpdateRequest struct {
	Name        string `json:"name,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Date        string `json:"date,omitempty"`
	Phone       string `json:"phone,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// contactResponse は届け出所有者の連絡先レスポンス。
type contactResponse struct {
	OwnerName string `json:"ownerName"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email"`
}

// suggestRequest は説明文サジェストリクエストのボディ。
type suggestRequest struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Type     string `json:"type"`
}

// suggestResponse は説明文サジェストのレスポンス。
type suggestResponse struct {
	Description string `json:"description"`
}

func toItemResponse(m *model.Item) itemResponse {
	return itemResponse{
		ID:          m.ID,
		UserID:      m.UserID,
		Name:        m.Name,
		Location:    m.Location,
		Description: m.Description,
		Type:        string(m.Type),
		Date:        m.Date,
		Phone:       m.Phone,
		ImageURL:    m.ImageURL,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// parseDate は日付文字列をパースする。RFC3339と日付のみの両形式を受け付ける。
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create は届け出をmultipart/form-dataで作成する。画像ファイルは任意。
// POST /api/items
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("multipart/form-dataの解析に失敗しました"))
		return
	}

	date, err := parseDate(r.FormValue("date"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("日付の形式が不正です"))
		return
	}

	input := item.CreateInput{
		Name:         r.FormValue("name"),
		Location:     r.FormValue("location"),
		Description:  r.FormValue("description"),
		Type:         r.FormValue("type"),
		Date:         date,
		Phone:        r.FormValue("phone"),
		ConnectionID: r.Header.Get(connectionIDHeader),
	}

	file, fileHeader, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		input.Image = file
		input.ImageMimeType = fileHeader.Header.Get("Content-Type")
	}

	created, err := h.service.Create(r.Context(), identity.UserID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toItemResponse(created))
}

// ListMine は自分の届け出一覧を取得する。
// GET /api/items
func (h *ItemHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	items, err := h.service.ListMine(r.Context(), identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]itemResponse, len(items))
	for i, m := range items {
		responses[i] = toItemResponse(m)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// ListAll は全ユーザーの届け出一覧を所有者の表示名付きで取得する（認証不要）。
// GET /api/items/all
func (h *ItemHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]itemWithOwnerResponse, len(items))
	for i, m := range items {
		responses[i] = itemWithOwnerResponse{
			itemResponse: toItemResponse(&m.Item),
			OwnerName:    m.OwnerName,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Get は届け出の詳細を取得する（認証不要）。
// GET /api/items/{id}
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), itemID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toItemResponse(found))
}

// Update は届け出を部分更新する。空のフィールドは変更しない。
// PUT /api/items/{id}
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	itemID := chi.URLParam(r, "id")

	var req itemUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("日付の形式が不正です"))
		return
	}

	updated, err := h.service.Update(r.Context(), identity.UserID, itemID, item.UpdateInput{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		Type:        req.Type,
		Date:        date,
		Phone:       req.Phone,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toItemResponse(updated))
}

// Delete は届け出を削除する。
// DELETE /api/items/{id}
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	itemID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), identity.UserID, itemID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessageResponse(w, "届け出を削除しました")
}

// Contact は届け出所有者への連絡先情報を取得する。
// GET /api/items/contact/{id}
func (h *ItemHandler) Contact(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.IdentityFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	itemID := chi.URLParam(r, "id")

	contact, err := h.service.Contact(r.Context(), itemID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contactResponse{
		OwnerName: contact.OwnerName,
		Phone:     contact.Phone,
		Email:     contact.Email,
	})
}

// Suggest は届け出の説明文の下書きを生成する。
// POST /api/items/suggest
func (h *ItemHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.IdentityFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	description, err := h.suggester.Suggest(r.Context(), suggest.Input{
		Name:     req.Name,
		Location: req.Location,
		Type:     model.ItemType(req.Type),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(suggestResponse{Description: description})
}
