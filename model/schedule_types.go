package model

// ScheduleStatus の値
const (
	StatusReceived  = "received"  // 受付済
	StatusTesting   = "testing"   // 検査中
	StatusCompleted = "completed" // 検査完了
	StatusIssued    = "issued"    // 成績書発行済
)

// Schedule は検査予定(受付1件)です。TestItems は検査項目名のカンマ区切りです。
type Schedule struct {
	ID           int64  `db:"id" json:"id"`
	ClientID     int64  `db:"client_id" json:"clientId"`
	FoodName     string `db:"food_name" json:"foodName"`
	FoodTypeID   int64  `db:"food_type_id" json:"foodTypeId"`
	TestItems    string `db:"test_items" json:"testItems"`
	Status       string `db:"status" json:"status"`
	ReceivedDate string `db:"received_date" json:"receivedDate"`
	DueDate      string `db:"due_date" json:"dueDate"`
	Memo         string `db:"memo" json:"memo"`
	CreatedAt    string `db:"created_at" json:"createdAt"`
	UpdatedAt    string `db:"updated_at" json:"updatedAt"`
}

// ScheduleAttachment は検査予定に紐づく添付ファイルです。
// Content は一覧取得時には載せず、ダウンロード時のみ取得します。
type ScheduleAttachment struct {
	ID         int64  `db:"id" json:"id"`
	ScheduleID int64  `db:"schedule_id" json:"scheduleId"`
	FileName   string `db:"file_name" json:"fileName"`
	StoredName string `db:"stored_name" json:"storedName"`
	FileSize   int64  `db:"file_size" json:"fileSize"`
	Content    []byte `db:"content" json:"-"`
	CreatedAt  string `db:"created_at" json:"createdAt"`
}

// Quotation は見積書のヘッダ情報です。金額計算・帳票出力は対象外です。
type Quotation struct {
	ID         int64  `db:"id" json:"id"`
	ClientID   int64  `db:"client_id" json:"clientId"`
	QuoteNo    string `db:"quote_no" json:"quoteNo"`
	TotalPrice int64  `db:"total_price" json:"totalPrice"`
	IssuedDate string `db:"issued_date" json:"issuedDate"`
	Memo       string `db:"memo" json:"memo"`
	CreatedAt  string `db:"created_at" json:"createdAt"`
}
