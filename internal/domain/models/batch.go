package models

// BatchStatus is the lifecycle state the inventory backend stores for a batch.
type BatchStatus string

const (
	BatchStatusActive   BatchStatus = "ACTIVE"
	BatchStatusExpired  BatchStatus = "EXPIRED"
	BatchStatusEmpty    BatchStatus = "EMPTY"
	BatchStatusRecalled BatchStatus = "RECALLED"
)

// StockBatch is a received lot contributing quantity to one stock row.
// Dates are kept exactly as the backend sent them; see ParseBatchTimestamp.
type StockBatch struct {
	ID                  int64       `json:"id" bson:"id"`
	StockID             int64       `json:"stockId" bson:"stock_id"`
	BatchNumber         string      `json:"batchNumber" bson:"batch_number"`
	ManufactureDate     *string     `json:"manufactureDate,omitempty" bson:"manufacture_date,omitempty"`
	ExpiryDate          *string     `json:"expiryDate,omitempty" bson:"expiry_date,omitempty"`
	Quantity            int         `json:"quantity" bson:"quantity"`
	Status              BatchStatus `json:"status" bson:"status"`
	SupplierName        string      `json:"supplierName,omitempty" bson:"supplier_name,omitempty"`
	SupplierBatchNumber string      `json:"supplierBatchNumber,omitempty" bson:"supplier_batch_number,omitempty"`

	// Computed by the backend at its last write. Read-only hints.
	IsExpired      bool `json:"isExpired" bson:"is_expired"`
	IsExpiringSoon bool `json:"isExpiringSoon" bson:"is_expiring_soon"`
	IsEmpty        bool `json:"isEmpty" bson:"is_empty"`
	IsRecalled     bool `json:"isRecalled" bson:"is_recalled"`
	IsAvailable    bool `json:"isAvailable" bson:"is_available"`

	ProductID     int64  `json:"productId,omitempty" bson:"product_id,omitempty"`
	ProductName   string `json:"productName,omitempty" bson:"product_name,omitempty"`
	VariantID     *int64 `json:"variantId,omitempty" bson:"variant_id,omitempty"`
	VariantName   string `json:"variantName,omitempty" bson:"variant_name,omitempty"`
	WarehouseID   int64  `json:"warehouseId,omitempty" bson:"warehouse_id,omitempty"`
	WarehouseName string `json:"warehouseName,omitempty" bson:"warehouse_name,omitempty"`
}

// BatchFields carries the editable fields as a dashboard form submits them: dates and
// times of day arrive separately and are composed by ComposeTimestamp before sending.
type BatchFields struct {
	BatchNumber         string `json:"batchNumber"`
	Quantity            int    `json:"quantity"`
	ManufactureDate     string `json:"manufactureDate,omitempty"`
	ManufactureTime     string `json:"manufactureTime,omitempty"`
	ExpiryDate          string `json:"expiryDate,omitempty"`
	ExpiryTime          string `json:"expiryTime,omitempty"`
	SupplierName        string `json:"supplierName,omitempty"`
	SupplierBatchNumber string `json:"supplierBatchNumber,omitempty"`
}

// CreateBatchInput is the form for creating a batch against a known stock row.
type CreateBatchInput struct {
	StockID int64 `json:"stockId"`
	BatchFields
}

// CreateStockBatchRequest is the wire body of POST /stock-batches and of the
// variant-scoped create, where StockID is left zero and resolved by the backend.
type CreateStockBatchRequest struct {
	StockID             int64  `json:"stockId,omitempty"`
	BatchNumber         string `json:"batchNumber"`
	ManufactureDate     string `json:"manufactureDate,omitempty"`
	ExpiryDate          string `json:"expiryDate,omitempty"`
	Quantity            int    `json:"quantity"`
	SupplierName        string `json:"supplierName,omitempty"`
	SupplierBatchNumber string `json:"supplierBatchNumber,omitempty"`
}

// UpdateStockBatchRequest is the wire body of PUT /stock-batches/{id}. It replaces every
// editable field; stockId and id cannot change.
type UpdateStockBatchRequest struct {
	BatchNumber         string `json:"batchNumber"`
	ManufactureDate     string `json:"manufactureDate,omitempty"`
	ExpiryDate          string `json:"expiryDate,omitempty"`
	Quantity            int    `json:"quantity"`
	SupplierName        string `json:"supplierName,omitempty"`
	SupplierBatchNumber string `json:"supplierBatchNumber,omitempty"`
}
