package storage

import (
	"panel-service/internal/domain/listquery"
	"panel-service/internal/pkg/validation"
)

type StorageRequest struct {
	Size               validation.Int `json:"size"`
	PriceAdminAnnual   validation.Int `json:"price_admin_annual"`
	PriceAdminMonthly  validation.Int `json:"price_admin_monthly"`
	PriceMemberAnnual  validation.Int `json:"price_member_annual"`
	PriceMemberMonthly validation.Int `json:"price_member_monthly"`
}

type ListResponse struct {
	Storages listquery.Page[StoragePlan] `json:"storages"`
	Filters  listquery.Query             `json:"filters"`
	Stats    Stats                       `json:"stats"`
}
