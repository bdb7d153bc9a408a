package models

import "time"

// BatchView is a batch decorated with what the dashboard renders.
type BatchView struct {
	StockBatch
	DisplayStatus BatchStatus `json:"displayStatus"`
	StatusColor   string      `json:"statusColor"`
}

// NewBatchView decorates b as of now.
func NewBatchView(b StockBatch, now time.Time) BatchView {
	status := b.DisplayStatusAt(now)
	return BatchView{StockBatch: b, DisplayStatus: status, StatusColor: StatusColor(status)}
}

// WarehouseGroup holds the batches of one warehouse in their original order.
type WarehouseGroup struct {
	WarehouseID   int64       `json:"warehouseId"`
	WarehouseName string      `json:"warehouseName"`
	Batches       []BatchView `json:"batches"`
	// ActiveCount counts batches whose displayed status is ACTIVE.
	ActiveCount int `json:"activeCount"`
}

// GroupByWarehouse groups batches by warehouse. Groups come out in order of each
// warehouse's first appearance and keep the relative order of their batches.
func GroupByWarehouse(batches []StockBatch, now time.Time) []WarehouseGroup {
	groups := make([]WarehouseGroup, 0)
	index := make(map[int64]int)

	for _, b := range batches {
		pos, ok := index[b.WarehouseID]
		if !ok {
			pos = len(groups)
			index[b.WarehouseID] = pos
			groups = append(groups, WarehouseGroup{
				WarehouseID:   b.WarehouseID,
				WarehouseName: b.WarehouseName,
				Batches:       []BatchView{},
			})
		}

		view := NewBatchView(b, now)
		groups[pos].Batches = append(groups[pos].Batches, view)
		if view.DisplayStatus == BatchStatusActive {
			groups[pos].ActiveCount++
		}
		if groups[pos].WarehouseName == "" {
			groups[pos].WarehouseName = b.WarehouseName
		}
	}

	return groups
}
