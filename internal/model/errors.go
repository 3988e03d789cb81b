package model

import "fmt"

// APIError はサービス層が返す業務エラーの統一フォーマットを表す。
// Fieldが空でない場合、レスポンスはそのフィールド名をキーにしたメッセージリスト
// （例: {"slots": ["..."]}）になり、空の場合は{"detail": "..."}になる。
type APIError struct {
	Code    string // エラーコード（HTTPステータスへのマッピングに使用）
	Field   string // エラーの対象フィールド名（バリデーションエラーのみ）
	Message string // クライアント向けメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	// スケジュールコア
	ErrCodeMissingSlotField      = "MISSING_SLOT_FIELD"
	ErrCodeInvalidSlotDay        = "INVALID_SLOT_DAY"
	ErrCodeInvalidSlotTime       = "INVALID_SLOT_TIME"
	ErrCodeInvalidSlotsShape     = "INVALID_SLOTS_SHAPE"
	ErrCodeDuplicateSlotDay      = "DUPLICATE_SLOT_DAY"
	ErrCodeFrequencyMismatch     = "FREQUENCY_MISMATCH"
	ErrCodeInvalidFilterDay      = "INVALID_FILTER_DAY"
	ErrCodeInvalidFilterTime     = "INVALID_FILTER_TIME"
	ErrCodeSubscriptionNotFound  = "SUBSCRIPTION_NOT_FOUND"
	ErrCodeScheduleNotFound      = "SCHEDULE_NOT_FOUND"
	ErrCodeScheduleAlreadyExists = "SCHEDULE_ALREADY_EXISTS"
	ErrCodeForbidden             = "FORBIDDEN"

	// 認証 / OTP
	ErrCodeOTPCooldown          = "OTP_COOLDOWN"
	ErrCodeOTPIncorrect         = "OTP_INCORRECT"
	ErrCodeOTPExpired           = "OTP_EXPIRED"
	ErrCodeMissingField         = "MISSING_FIELD"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeInvalidField         = "INVALID_FIELD"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeNoSubscription       = "NO_SUBSCRIPTION"
	ErrCodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
)

// NewMissingSlotFieldError はスロットのフィールド欠落エラーを生成する。
// positionは0始まりのスロット位置。
func NewMissingSlotFieldError(position int, field string) *APIError {
	return &APIError{
		Code:    ErrCodeMissingSlotField,
		Field:   "slots",
		Message: fmt.Sprintf("slot %d: missing required field %q", position, field),
	}
}

// NewInvalidSlotDayError は曜日表現が解釈できない場合のエラーを生成する。
func NewInvalidSlotDayError(position int, day any) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidSlotDay,
		Field:   "slots",
		Message: fmt.Sprintf("slot %d: invalid day value %v", position, day),
	}
}

// NewInvalidSlotTimeError は時刻がHH:MM形式でない場合のエラーを生成する。
func NewInvalidSlotTimeError(position int, value string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidSlotTime,
		Field:   "slots",
		Message: fmt.Sprintf("slot %d: invalid time %q, expected 24-hour HH:MM", position, value),
	}
}

// NewInvalidSlotsShapeError はslotsが配列でない場合のエラーを生成する。
func NewInvalidSlotsShapeError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidSlotsShape,
		Field:   "slots",
		Message: "slots must be a list of {day, time} objects",
	}
}

// NewDuplicateSlotDayError は同一曜日の重複エラーを生成する。
func NewDuplicateSlotDayError(day Weekday) *APIError {
	return &APIError{
		Code:    ErrCodeDuplicateSlotDay,
		Field:   "slots",
		Message: fmt.Sprintf("duplicate slot day: %s", day),
	}
}

// NewFrequencyMismatchError はスロット数と購読の収集頻度の不一致エラーを生成する。
func NewFrequencyMismatchError(expected, actual int) *APIError {
	return &APIError{
		Code:    ErrCodeFrequencyMismatch,
		Field:   "slots",
		Message: fmt.Sprintf("expected %d slot(s) for the current plan, got %d", expected, actual),
	}
}

// NewInvalidFilterDayError は曜日フィルタが解釈できない場合のエラーを生成する。
func NewInvalidFilterDayError(value string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidFilterDay,
		Field:   "day",
		Message: fmt.Sprintf("invalid day filter %q", value),
	}
}

// NewInvalidFilterTimeError は時刻フィルタの形式エラーを生成する。
// fieldは"time_from"または"time_to"。
func NewInvalidFilterTimeError(field, value string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidFilterTime,
		Field:   field,
		Message: fmt.Sprintf("invalid time %q, expected 24-hour HH:MM", value),
	}
}

// NewSubscriptionNotFoundError は購読未検出エラーを生成する。
func NewSubscriptionNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeSubscriptionNotFound,
		Message: "subscription not found",
	}
}

// NewScheduleNotFoundError はスケジュール未検出エラーを生成する。
func NewScheduleNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeScheduleNotFound,
		Message: "schedule not found",
	}
}

// NewScheduleAlreadyExistsError はスケジュールの重複作成エラーを生成する。
func NewScheduleAlreadyExistsError() *APIError {
	return &APIError{
		Code:    ErrCodeScheduleAlreadyExists,
		Message: "a schedule already exists for this subscription",
	}
}

// NewForbiddenError は認可エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: "forbidden",
	}
}

// NewOTPCooldownError はOTP再送クールダウン中のエラーを生成する。
func NewOTPCooldownError() *APIError {
	return &APIError{
		Code:    ErrCodeOTPCooldown,
		Message: "an OTP was sent recently, please wait before requesting another",
	}
}

// NewOTPIncorrectError はOTP不一致エラーを生成する。
func NewOTPIncorrectError() *APIError {
	return &APIError{
		Code:    ErrCodeOTPIncorrect,
		Message: "incorrect OTP",
	}
}

// NewOTPExpiredError はOTP期限切れエラーを生成する。
func NewOTPExpiredError() *APIError {
	return &APIError{
		Code:    ErrCodeOTPExpired,
		Message: "OTP has expired",
	}
}

// NewMissingFieldError は必須フィールド欠落エラーを生成する。
func NewMissingFieldError(field string) *APIError {
	return &APIError{
		Code:    ErrCodeMissingField,
		Field:   field,
		Message: "this field is required",
	}
}

// NewInvalidFieldError はフィールド値の不正エラーを生成する。
func NewInvalidFieldError(field, message string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidField,
		Field:   field,
		Message: message,
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeUserNotFound,
		Message: "user not found",
	}
}

// NewNotFoundError は汎用の未検出エラーを生成する。
func NewNotFoundError(what string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: what + " not found",
	}
}

// NewNoSubscriptionError はクライアントが購読を持たない場合のエラーを生成する。
func NewNoSubscriptionError() *APIError {
	return &APIError{
		Code:    ErrCodeNoSubscription,
		Message: "client does not have an active subscription",
	}
}

// NewSubscriptionRequiredError は操作の前提となる購読をクライアントが
// 持たない場合のエラーを生成する。参照系のNO_SUBSCRIPTION（404）と異なり、
// リクエスト自体の不備として400で扱う。
func NewSubscriptionRequiredError() *APIError {
	return &APIError{
		Code:    ErrCodeSubscriptionRequired,
		Message: "client does not have a subscription",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: "authentication required",
	}
}
