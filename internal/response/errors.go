package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrSubjectUnknown  ErrCode = "SUBJECT_UNKNOWN"
	ErrQuestionUnknown ErrCode = "QUESTION_UNKNOWN"

	// ─── Session ───────────────────────────────────────────────────────
	ErrBankUnavailable ErrCode = "BANK_UNAVAILABLE"
	ErrStorageFailed   ErrCode = "STORAGE_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "请求参数校验失败，请检查输入。"
	case ErrInvalidPayload:
		return "请求内容格式不正确。"

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "资源不存在。"
	case ErrSubjectUnknown:
		return "科目不存在。"
	case ErrQuestionUnknown:
		return "题目不存在。"

	// ─── Session ───────────────────────────────────────────────────────
	case ErrBankUnavailable:
		return "题库文件加载失败。"
	case ErrStorageFailed:
		return "进度保存失败，请重试。"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "请求过于频繁，请稍后再试。"

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "服务器内部错误。"
	default:
		return "发生未知错误。"
	}
}
