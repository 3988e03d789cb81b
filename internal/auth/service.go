// Package auth はWhatsApp OTPによる電話番号認証とJWTの発行を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/repository"
)

// OTPSender はOTPコードの配信手段を抽象化する。
// 本番ではWhatsAppゲートウェイクライアントが実装する。
type OTPSender interface {
	// SendOTP は電話番号にOTPコードを送信する。
	SendOTP(ctx context.Context, phone, code string) error
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	OTPCooldown   time.Duration // OTP再送の最短間隔
	OTPExpiration time.Duration // OTPの有効期間
	OTPLength     int           // OTPコードの桁数
}

// Service は電話番号認証のビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	otpRepo   repository.OTPRepository
	notifRepo repository.NotificationRepository
	tokens    *TokenManager
	sender    OTPSender
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	otpRepo repository.OTPRepository,
	notifRepo repository.NotificationRepository,
	tokens *TokenManager,
	sender OTPSender,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:  userRepo,
		otpRepo:   otpRepo,
		notifRepo: notifRepo,
		tokens:    tokens,
		sender:    sender,
		config:    config,
	}
}

// VerifyResult はOTP検証成功時の結果を表す。
type VerifyResult struct {
	User      *model.User
	IsNewUser bool
	Tokens    *TokenPair
}

// SendOTP は電話番号にOTPを発行・送信する。
// クールダウン期間内の再送はOTP_COOLDOWNとして拒否する。
// 電話番号につきOTPは1行のみで、再発行時は同じ行を上書きする。
func (s *Service) SendOTP(ctx context.Context, phone string) (string, error) {
	if phone == "" {
		return "", model.NewMissingFieldError("phone_number")
	}

	now := time.Now()

	existing, err := s.otpRepo.FindByPhone(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("OTPの取得に失敗しました: %w", err)
	}
	if existing != nil && !existing.CanResend(s.config.OTPCooldown, now) {
		return "", model.NewOTPCooldownError()
	}

	code, err := generateCode(s.config.OTPLength)
	if err != nil {
		return "", fmt.Errorf("OTPコードの生成に失敗しました: %w", err)
	}

	otp := &model.OTP{
		Phone:      phone,
		Code:       code,
		SessionID:  uuid.New().String(),
		LastSentAt: now,
	}
	if err := s.otpRepo.Upsert(ctx, otp); err != nil {
		return "", fmt.Errorf("OTPの保存に失敗しました: %w", err)
	}

	if err := s.sender.SendOTP(ctx, phone, code); err != nil {
		return "", fmt.Errorf("OTPの送信に失敗しました: %w", err)
	}

	slog.Info("otp sent", slog.String("session_id", otp.SessionID))
	return otp.SessionID, nil
}

// VerifyOTP はOTPコードを検証し、ユーザーの取得または初回作成とJWTの発行を行う。
// 新規ユーザーにはUSERロールを付与し、ウェルカム通知を作成する。
// 検証済みのOTP行は使い捨てで、成功時に削除する。
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (*VerifyResult, error) {
	if phone == "" {
		return nil, model.NewMissingFieldError("phone_number")
	}
	if code == "" {
		return nil, model.NewMissingFieldError("otp")
	}

	now := time.Now()

	otp, err := s.otpRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("OTPの取得に失敗しました: %w", err)
	}
	if otp == nil || otp.Code != code {
		return nil, model.NewOTPIncorrectError()
	}
	if otp.IsExpired(s.config.OTPExpiration, now) {
		return nil, model.NewOTPExpiredError()
	}

	if err := s.otpRepo.DeleteByPhone(ctx, phone); err != nil {
		return nil, fmt.Errorf("OTPの削除に失敗しました: %w", err)
	}

	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}

	isNew := user == nil
	if isNew {
		user = &model.User{
			PhoneNumber: phone,
			Role:        model.RoleUser,
			IsActive:    true,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
		}
		s.createWelcomeNotification(ctx, user)
		slog.Info("new user registered", slog.Int64("user_id", user.ID))
	}

	tokens, err := s.tokens.GeneratePair(user, otp.SessionID)
	if err != nil {
		return nil, err
	}

	slog.Info("user authenticated",
		slog.Int64("user_id", user.ID),
		slog.Bool("is_new_user", isNew),
	)
	return &VerifyResult{User: user, IsNewUser: isNew, Tokens: tokens}, nil
}

// Refresh はリフレッシュトークンから新しいトークンの組を発行する。
// ユーザーが削除済みまたは無効化されている場合は発行しない。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, model.NewUnauthorizedError()
	}

	return s.tokens.GeneratePair(user, claims.SessionID)
}

// createWelcomeNotification は新規ユーザーにウェルカム通知（仏語/英語）を作成する。
// 通知の作成失敗は認証フローを妨げない。
func (s *Service) createWelcomeNotification(ctx context.Context, user *model.User) {
	n := &model.Notification{
		UserID:     user.ID,
		Title:      "Bienvenue sur Photizon",
		Message:    "Votre compte a été créé avec succès.",
		EngTitle:   "Welcome to Photizon",
		EngMessage: "Your account has been created successfully.",
		Type:       model.NotifSuccess,
		Channel:    model.ChannelInApp,
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		slog.Warn("failed to create welcome notification",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}

// generateCode は指定桁数の数字OTPコードを生成する。
// 各桁は棄却サンプリングで0〜9から一様に選ぶ
// （バイト値をそのままmod 10すると0〜5がわずかに出やすくなる）。
func generateCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	code := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(code) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			code = append(code, '0'+b%10)
			if len(code) == length {
				break
			}
		}
	}
	return string(code), nil
}
