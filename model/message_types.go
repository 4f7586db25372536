package model

// Message は利用者間の社内メッセージです。
type Message struct {
	ID          int64  `db:"id" json:"id"`
	SenderID    int64  `db:"sender_id" json:"senderId"`
	SenderName  string `db:"sender_name" json:"senderName"`
	RecipientID int64  `db:"recipient_id" json:"recipientId"`
	Body        string `db:"body" json:"body"`
	IsRead      int    `db:"is_read" json:"isRead"`
	CreatedAt   string `db:"created_at" json:"createdAt"`
}

// ActivityLog は操作履歴です。
type ActivityLog struct {
	ID        int64  `db:"id" json:"id"`
	UserID    int64  `db:"user_id" json:"userId"`
	Username  string `db:"username" json:"username"`
	Action    string `db:"action" json:"action"`
	Detail    string `db:"detail" json:"detail"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

// Setting は全体設定 (キー・バリュー) です。
type Setting struct {
	Key   string `db:"setting_key" json:"key"`
	Value string `db:"setting_value" json:"value"`
}

// UserSetting は利用者ごとの個人設定です。
type UserSetting struct {
	UserID int64  `db:"user_id" json:"userId"`
	Key    string `db:"setting_key" json:"key"`
	Value  string `db:"setting_value" json:"value"`
}
