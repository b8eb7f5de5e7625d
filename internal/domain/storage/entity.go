package storage

import "time"

// StoragePlan is a priced capacity tier. Size is in gigabytes, prices are whole
// currency units.
type StoragePlan struct {
	ID                 int64     `json:"id" db:"id"`
	Size               int64     `json:"size" db:"size"`
	PriceAdminAnnual   int64     `json:"price_admin_annual" db:"price_admin_annual"`
	PriceAdminMonthly  int64     `json:"price_admin_monthly" db:"price_admin_monthly"`
	PriceMemberAnnual  int64     `json:"price_member_annual" db:"price_member_annual"`
	PriceMemberMonthly int64     `json:"price_member_monthly" db:"price_member_monthly"`
	AccountID          *int64    `json:"account_id" db:"account_id"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

type Stats struct {
	Total   int64 `json:"total"`
	MinSize int64 `json:"min_size"`
	MaxSize int64 `json:"max_size"`
}
