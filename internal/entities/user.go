package entities

// UserQuota tracks the per-user daily send allowance. Records are keyed by the
// string form of the numeric user ID and are never deleted once created.
type UserQuota struct {
	IsBanned      bool   `json:"is_banned"`
	IsPremium     bool   `json:"is_premium"`
	MessagesToday int    `json:"messages_today"`
	LastResetDay  string `json:"last_reset_day"` // YYYY-MM-DD
}
