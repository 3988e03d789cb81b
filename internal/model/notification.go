package model

import "time"

// NotificationType は通知の種別を表す。
type NotificationType string

const (
	NotifOTP             NotificationType = "OTP"
	NotifAccountApproved NotificationType = "ACCOUNT_APPROVED"
	NotifInfo            NotificationType = "INFO"
	NotifWarning         NotificationType = "WARNING"
	NotifError           NotificationType = "ERROR"
	NotifSuccess         NotificationType = "SUCCESS"
)

// NotificationChannel は通知の配信チャネルを表す。
type NotificationChannel string

const (
	ChannelInApp    NotificationChannel = "IN_APP"
	ChannelWhatsApp NotificationChannel = "WHATSAPP"
	ChannelEmail    NotificationChannel = "EMAIL"
)

// Notification はユーザー向け通知を表す。
// タイトルと本文は仏語（既定）と英語の両方を保持する。
// WHATSAPPチャネルの未送信通知はディスパッチワーカーが拾って配信し、
// 送信後にSent/SentAt/Meta（ゲートウェイ応答）を更新する。
type Notification struct {
	ID         int64
	UserID     int64
	Title      string
	Message    string
	EngTitle   string
	EngMessage string
	Type       NotificationType
	Channel    NotificationChannel
	IsRead     bool
	Sent       bool
	SentAt     *time.Time
	Meta       map[string]any
	CreatedAt  time.Time
}
