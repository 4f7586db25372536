package model

// User は検査室の利用者アカウントです。PasswordHash は API 応答には含めません。
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	Name         string `db:"name" json:"name"`
	Role         string `db:"role" json:"role"` // "admin" / "staff"
	Email        string `db:"email" json:"email"`
	Phone        string `db:"phone" json:"phone"`
	IsActive     int    `db:"is_active" json:"isActive"`
	CreatedAt    string `db:"created_at" json:"createdAt"`
}

// Client は検査依頼元の事業者です。
type Client struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	BusinessNo   string `db:"business_no" json:"businessNo"`
	CeoName      string `db:"ceo_name" json:"ceoName"`
	Address      string `db:"address" json:"address"`
	Phone        string `db:"phone" json:"phone"`
	Email        string `db:"email" json:"email"`
	ManagerName  string `db:"manager_name" json:"managerName"`
	ManagerPhone string `db:"manager_phone" json:"managerPhone"`
	Memo         string `db:"memo" json:"memo"`
	CreatedAt    string `db:"created_at" json:"createdAt"`
}

// FoodType は食品類型の定義です。TestItems は検査項目名のカンマ区切りです。
type FoodType struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Category  string `db:"category" json:"category"`
	TestItems string `db:"test_items" json:"testItems"`
	Standards string `db:"standards" json:"standards"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

// Fee は検査項目ごとの料金マスタです。
type Fee struct {
	ID           int64  `db:"id" json:"id"`
	TestItem     string `db:"test_item" json:"testItem"`
	Category     string `db:"category" json:"category"`
	Price        int64  `db:"price" json:"price"`
	StandardDays int    `db:"standard_days" json:"standardDays"`
	Memo         string `db:"memo" json:"memo"`
}

// StorageUnit は検体保管庫(冷蔵庫・冷凍庫など)です。
type StorageUnit struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Temperature string `db:"temperature" json:"temperature"`
	Location    string `db:"location" json:"location"`
	Memo        string `db:"memo" json:"memo"`
}
