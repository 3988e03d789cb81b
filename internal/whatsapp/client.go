// Package whatsapp はWhatsAppゲートウェイAPIのクライアントを提供する。
// OTPコードの即時配信と、ディスパッチワーカー経由の通知配信に使用する。
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Client はWhatsAppゲートウェイAPIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
	token      string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, endpoint, token string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
		token:      token,
	}
}

// messageRequest はゲートウェイへの送信ペイロード。
type messageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendMessage は電話番号にテキストメッセージを送信し、ゲートウェイ応答を返す。
// 応答は通知のmetaに記録するため、構造を仮定せずそのまま返す。
func (c *Client) SendMessage(ctx context.Context, phone, message string) (map[string]any, error) {
	payload, err := json.Marshal(messageRequest{Phone: phone, Message: message})
	if err != nil {
		return nil, fmt.Errorf("送信ペイロードのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("WhatsAppゲートウェイの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("WhatsAppゲートウェイがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("WhatsAppゲートウェイがステータス %d を返しました", resp.StatusCode)
	}

	var result map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			// 応答がJSONでなくても送信自体は成功として扱う
			c.logger.Warn("WhatsAppゲートウェイの応答がJSONではありません",
				slog.String("error", err.Error()),
			)
			result = map[string]any{"raw": string(body)}
		}
	}
	return result, nil
}

// SendOTP は電話番号にOTPコードを送信する。auth.OTPSenderを実装する。
func (c *Client) SendOTP(ctx context.Context, phone, code string) error {
	message := fmt.Sprintf("Votre code de vérification Photizon est: %s", code)
	_, err := c.SendMessage(ctx, phone, message)
	return err
}
