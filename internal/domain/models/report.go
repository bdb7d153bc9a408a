package models

import "time"

// ExpiryReport is the outcome of one expiring-soon sweep.
type ExpiryReport struct {
	GeneratedAt   time.Time         `bson:"generated_at" json:"generatedAt"`
	ThresholdDays int               `bson:"threshold_days" json:"thresholdDays"`
	TotalBatches  int               `bson:"total_batches" json:"totalBatches"`
	ExpiredCount  int               `bson:"expired_count" json:"expiredCount"`
	ExpiringCount int               `bson:"expiring_count" json:"expiringCount"`
	TotalQuantity int               `bson:"total_quantity" json:"totalQuantity"`
	Warehouses    []WarehouseExpiry `bson:"warehouses" json:"warehouses"`
}

// WarehouseExpiry lists the swept batches of one warehouse.
type WarehouseExpiry struct {
	WarehouseID   int64        `bson:"warehouse_id" json:"warehouseId"`
	WarehouseName string       `bson:"warehouse_name" json:"warehouseName"`
	Lines         []ExpiryLine `bson:"lines" json:"lines"`
}

// ExpiryLine is a single batch as it appears in a report.
type ExpiryLine struct {
	BatchID       int64       `bson:"batch_id" json:"batchId"`
	BatchNumber   string      `bson:"batch_number" json:"batchNumber"`
	ProductName   string      `bson:"product_name" json:"productName"`
	VariantName   string      `bson:"variant_name,omitempty" json:"variantName,omitempty"`
	ExpiryDate    string      `bson:"expiry_date" json:"expiryDate"`
	Quantity      int         `bson:"quantity" json:"quantity"`
	DisplayStatus BatchStatus `bson:"display_status" json:"displayStatus"`
}
