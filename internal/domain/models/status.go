package models

import "time"

// Display colors for each status.
const (
	ColorGreen  = "green"
	ColorRed    = "red"
	ColorGray   = "gray"
	ColorOrange = "orange"
)

// DeriveDisplayStatus returns the status to show for a batch at now. The stored status can
// be stale, so an expiry strictly before now forces EXPIRED unless the batch is RECALLED.
//
// An unparseable expiry never forces EXPIRED; the parse error is returned for the caller to
// log and the stored status is used.
func DeriveDisplayStatus(status BatchStatus, expiryDate *string, now time.Time) (BatchStatus, error) {
	if status == BatchStatusRecalled || expiryDate == nil || *expiryDate == "" {
		return status, nil
	}

	expiry, _, err := ParseBatchTimestamp(*expiryDate, now.Location())
	if err != nil {
		return status, err
	}
	if expiry.Before(now) {
		return BatchStatusExpired, nil
	}
	return status, nil
}

// DisplayStatusAt is DeriveDisplayStatus for b, ignoring parse errors.
func (b StockBatch) DisplayStatusAt(now time.Time) BatchStatus {
	status, _ := DeriveDisplayStatus(b.Status, b.ExpiryDate, now)
	return status
}

// StatusColor maps a status to its display color. Unknown statuses render gray.
func StatusColor(status BatchStatus) string {
	switch status {
	case BatchStatusActive:
		return ColorGreen
	case BatchStatusExpired:
		return ColorRed
	case BatchStatusRecalled:
		return ColorOrange
	default:
		return ColorGray
	}
}
