// Package suggest はLLMによる届け出説明文の作成支援を提供する。
package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/hitoshi/lostfound/internal/model"
)

// messagesClient はAnthropic APIクライアントの部分集合。テストで差し替える。
type messagesClient interface {
	CreateMessages(ctx context.Context, request anthropic.MessagesRequest) (anthropic.MessagesResponse, error)
}

// Suggester はアイテムの名称・場所・種別から説明文の下書きを生成する。
// APIキーが未設定の場合は無効状態となり、呼び出しは専用エラーを返す。
type Suggester struct {
	client messagesClient
	model  string
}

// NewSuggester はSuggesterを生成する。apiKeyが空の場合は無効なSuggesterを返す。
func NewSuggester(apiKey, modelName string) *Suggester {
	if apiKey == "" {
		return &Suggester{}
	}
	return &Suggester{
		client: anthropic.NewClient(apiKey),
		model:  modelName,
	}
}

// Enabled は説明文生成が利用可能かを返す。
func (s *Suggester) Enabled() bool {
	return s.client != nil
}

// Input は説明文生成の入力。
type Input struct {
	Name     string
	Location string
	Type     model.ItemType
}

// Suggest は説明文の下書きを生成して返す。
func (s *Suggester) Suggest(ctx context.Context, input Input) (string, error) {
	if !s.Enabled() {
		return "", model.NewSuggestUnavailableError()
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", model.NewValidationError("アイテム名は必須です")
	}
	if !input.Type.Valid() {
		return "", model.NewValidationError("種別はlostまたはfoundを指定してください")
	}

	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(s.model),
		MaxTokens: 512,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(buildPrompt(name, strings.TrimSpace(input.Location), input.Type)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create suggestion: %w", err)
	}

	text := strings.TrimSpace(resp.GetFirstContentText())
	if text == "" {
		return "", fmt.Errorf("empty suggestion response")
	}

	return text, nil
}

// buildPrompt は説明文生成のプロンプトを組み立てる。
func buildPrompt(name, location string, itemType model.ItemType) string {
	kind := "紛失物"
	if itemType == model.ItemTypeFound {
		kind = "拾得物"
	}

	var b strings.Builder
	b.WriteString("あなたは落とし物掲示板の投稿を手伝うアシスタントです。\n")
	fmt.Fprintf(&b, "以下の%sについて、掲示板に載せる説明文の下書きを日本語で2〜3文で書いてください。\n", kind)
	fmt.Fprintf(&b, "アイテム名: %s\n", name)
	if location != "" {
		fmt.Fprintf(&b, "場所: %s\n", location)
	}
	b.WriteString("説明文のみを出力し、前置きは不要です。")
	return b.String()
}
