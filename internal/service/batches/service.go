package batches

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/batchdesk/internal/apperrors"
	"github.com/mamadbah2/batchdesk/internal/cache"
	"github.com/mamadbah2/batchdesk/internal/domain/models"
	"github.com/mamadbah2/batchdesk/pkg/clients/inventory"
)

// DefaultExpiryThresholdDays is used by ListExpiringSoon when no positive threshold is given.
const DefaultExpiryThresholdDays = 30

// Gateway mediates every interaction with the backend batch endpoints. It validates and
// shapes requests, keeps an explicit read cache and cancels superseded list fetches.
// It never retries and never updates local state optimistically.
type Gateway struct {
	client inventory.Client
	cache  cache.Store
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	caching bool

	mu       sync.Mutex
	inflight map[string]*inflightFetch
	// generations counts invalidations per cache key.
	generations map[string]uint64
	// listed maps a batch id to the list keys it was cached under.
	listed map[int64]map[string]struct{}
}

type inflightFetch struct {
	cancel context.CancelFunc
}

// NewGateway wires a gateway. A nil store disables caching.
func NewGateway(client inventory.Client, store cache.Store, ttl time.Duration, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = cache.NopStore{}
	}
	_, nop := store.(cache.NopStore)
	return &Gateway{
		client:      client,
		cache:       store,
		ttl:         ttl,
		logger:      logger,
		now:         time.Now,
		caching:     !nop,
		inflight:    make(map[string]*inflightFetch),
		generations: make(map[string]uint64),
		listed:      make(map[int64]map[string]struct{}),
	}
}

// ListByStock returns the batches of one stock row in backend order.
func (g *Gateway) ListByStock(ctx context.Context, stockID int64) ([]models.StockBatch, error) {
	return g.list(ctx, cache.ResourceStock, stockID, g.client.ListByStock)
}

// ListByProduct returns the batches of every stock row of a product.
func (g *Gateway) ListByProduct(ctx context.Context, productID int64) ([]models.StockBatch, error) {
	return g.list(ctx, cache.ResourceProduct, productID, g.client.ListByProduct)
}

// ListByVariant returns the batches of every stock row of a variant.
func (g *Gateway) ListByVariant(ctx context.Context, variantID int64) ([]models.StockBatch, error) {
	return g.list(ctx, cache.ResourceVariant, variantID, g.client.ListByVariant)
}

// GetByID fetches one batch.
func (g *Gateway) GetByID(ctx context.Context, batchID int64) (*models.StockBatch, error) {
	if batchID <= 0 {
		return nil, apperrors.Validation("batch id is required")
	}

	key := cache.Key(cache.ResourceBatch, batchID)
	var cached models.StockBatch
	if g.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	gen := g.generation(key)
	batch, err := g.client.Get(ctx, batchID)
	if err != nil {
		return nil, apperrors.Normalize(err)
	}
	g.writeCacheAt(ctx, key, gen, batch)
	return batch, nil
}

// Create creates a batch for an existing stock row.
func (g *Gateway) Create(ctx context.Context, in models.CreateBatchInput) (*models.StockBatch, error) {
	if in.StockID <= 0 {
		return nil, apperrors.Validation("stock id is required")
	}
	req, err := buildCreateRequest(in.BatchFields)
	if err != nil {
		return nil, err
	}
	req.StockID = in.StockID

	batch, err := g.client.Create(ctx, req)
	if err != nil {
		return nil, apperrors.Normalize(err)
	}

	g.logger.Info("stock batch created",
		zap.Int64("batch_id", batch.ID),
		zap.Int64("stock_id", in.StockID),
		zap.String("batch_number", batch.BatchNumber))
	g.invalidate(ctx, append(listKeys(batch), cache.Key(cache.ResourceStock, in.StockID))...)
	return batch, nil
}

// CreateForVariant creates a batch for the stock row the backend resolves from
// (variantID, warehouseID).
func (g *Gateway) CreateForVariant(ctx context.Context, variantID, warehouseID int64, fields models.BatchFields) (*models.StockBatch, error) {
	if variantID <= 0 {
		return nil, apperrors.Validation("variant id is required")
	}
	if warehouseID <= 0 {
		return nil, apperrors.Validation("warehouse id is required")
	}
	req, err := buildCreateRequest(fields)
	if err != nil {
		return nil, err
	}

	batch, err := g.client.CreateForVariant(ctx, variantID, warehouseID, req)
	if err != nil {
		return nil, apperrors.Normalize(err)
	}

	g.logger.Info("variant stock batch created",
		zap.Int64("batch_id", batch.ID),
		zap.Int64("variant_id", variantID),
		zap.Int64("warehouse_id", warehouseID))
	g.invalidate(ctx, append(listKeys(batch), cache.Key(cache.ResourceVariant, variantID))...)
	return batch, nil
}

// Update replaces every editable field of a batch. Partial updates are not supported.
func (g *Gateway) Update(ctx context.Context, batchID int64, fields models.BatchFields) (*models.StockBatch, error) {
	if batchID <= 0 {
		return nil, apperrors.Validation("batch id is required")
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	req := models.UpdateStockBatchRequest{
		BatchNumber:         strings.TrimSpace(fields.BatchNumber),
		ManufactureDate:     models.ComposeTimestamp(fields.ManufactureDate, fields.ManufactureTime),
		ExpiryDate:          models.ComposeTimestamp(fields.ExpiryDate, fields.ExpiryTime),
		Quantity:            fields.Quantity,
		SupplierName:        strings.TrimSpace(fields.SupplierName),
		SupplierBatchNumber: strings.TrimSpace(fields.SupplierBatchNumber),
	}

	batch, err := g.client.Update(ctx, batchID, req)
	if err != nil {
		return nil, apperrors.Normalize(err)
	}

	g.logger.Info("stock batch updated", zap.Int64("batch_id", batchID))
	keys := append(listKeys(batch), cache.Key(cache.ResourceBatch, batchID))
	g.invalidate(ctx, append(keys, g.indexedKeys(batchID)...)...)
	return batch, nil
}

// Delete removes a batch. Deleting it again fails with a not-found error.
func (g *Gateway) Delete(ctx context.Context, batchID int64) error {
	if batchID <= 0 {
		return apperrors.Validation("batch id is required")
	}

	keys := g.affectedKeys(ctx, batchID)

	if err := g.client.Delete(ctx, batchID); err != nil {
		return apperrors.Normalize(err)
	}

	g.logger.Info("stock batch deleted", zap.Int64("batch_id", batchID))
	g.invalidate(ctx, keys...)
	g.forget(batchID)
	return nil
}

// Recall asks the backend to move a batch to RECALLED. Whether that transition is
// allowed is decided by the backend.
func (g *Gateway) Recall(ctx context.Context, batchID int64, reason string) (*models.StockBatch, error) {
	if batchID <= 0 {
		return nil, apperrors.Validation("batch id is required")
	}

	keys := g.affectedKeys(ctx, batchID)

	batch, err := g.client.Recall(ctx, batchID, strings.TrimSpace(reason))
	if err != nil {
		return nil, apperrors.Normalize(err)
	}

	g.logger.Info("stock batch recalled", zap.Int64("batch_id", batchID), zap.String("reason", reason))
	g.invalidate(ctx, append(keys, listKeys(batch)...)...)
	return batch, nil
}

// ListExpiringSoon returns the batches the backend considers within daysThreshold of
// expiry. A non-positive threshold means DefaultExpiryThresholdDays. Never cached.
func (g *Gateway) ListExpiringSoon(ctx context.Context, daysThreshold int) ([]models.StockBatch, error) {
	if daysThreshold <= 0 {
		daysThreshold = DefaultExpiryThresholdDays
	}
	batches, err := g.client.ExpiringSoon(ctx, daysThreshold)
	if err != nil {
		return nil, apperrors.Normalize(err)
	}
	return batches, nil
}

// Views decorates batches with their displayed status as of now. Unparseable expiry
// dates are logged and do not affect the status.
func (g *Gateway) Views(batches []models.StockBatch) []models.BatchView {
	now := g.now()
	views := make([]models.BatchView, 0, len(batches))
	for _, b := range batches {
		g.checkExpiry(b, now)
		views = append(views, models.NewBatchView(b, now))
	}
	return views
}

// Group groups batches by warehouse as of now.
func (g *Gateway) Group(batches []models.StockBatch) []models.WarehouseGroup {
	now := g.now()
	for _, b := range batches {
		g.checkExpiry(b, now)
	}
	return models.GroupByWarehouse(batches, now)
}

func (g *Gateway) checkExpiry(b models.StockBatch, now time.Time) {
	if b.ExpiryDate == nil || *b.ExpiryDate == "" {
		return
	}
	_, repaired, err := models.ParseBatchTimestamp(*b.ExpiryDate, now.Location())
	if err != nil {
		g.logger.Warn("ignoring unparseable batch expiry date",
			zap.Int64("batch_id", b.ID),
			zap.String("expiry_date", *b.ExpiryDate),
			zap.Error(err))
		return
	}
	if repaired {
		g.logger.Debug("repaired malformed batch expiry date",
			zap.Int64("batch_id", b.ID),
			zap.String("expiry_date", *b.ExpiryDate))
	}
}

type listFunc func(ctx context.Context, id int64) ([]models.StockBatch, error)

func (g *Gateway) list(ctx context.Context, resource string, id int64, fetch listFunc) ([]models.StockBatch, error) {
	if id <= 0 {
		return nil, apperrors.Validation(resource + " id is required")
	}

	key := cache.Key(resource, id)
	var cached []models.StockBatch
	if g.readCache(ctx, key, &cached) {
		g.index(key, cached)
		return cached, nil
	}

	gen := g.generation(key)
	fetchCtx, done := g.supersede(ctx, key)
	defer done()

	batches, err := fetch(fetchCtx, id)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.Canceled) && ctx.Err() == nil {
			g.logger.Debug("list fetch superseded", zap.String("key", key))
		}
		return nil, apperrors.Normalize(err)
	}

	if g.writeCacheAt(ctx, key, gen, batches) {
		g.index(key, batches)
	}
	return batches, nil
}

// supersede registers a fetch for key and cancels any fetch still running for it, so
// that only the latest trigger can deliver a list.
func (g *Gateway) supersede(ctx context.Context, key string) (context.Context, func()) {
	fetchCtx, cancel := context.WithCancel(ctx)
	current := &inflightFetch{cancel: cancel}

	g.mu.Lock()
	if prev, ok := g.inflight[key]; ok {
		prev.cancel()
	}
	g.inflight[key] = current
	g.mu.Unlock()

	return fetchCtx, func() {
		g.mu.Lock()
		if g.inflight[key] == current {
			delete(g.inflight, key)
		}
		g.mu.Unlock()
		cancel()
	}
}

func (g *Gateway) readCache(ctx context.Context, key string, dst any) bool {
	raw, err := g.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			g.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		g.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		g.invalidate(ctx, key)
		return false
	}
	return true
}

func (g *Gateway) writeCache(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		g.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := g.cache.Set(ctx, key, string(raw), g.ttl); err != nil {
		g.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// writeCacheAt stores value under key unless key was invalidated after gen was read.
// An invalidation landing while the value is written removes it again.
func (g *Gateway) writeCacheAt(ctx context.Context, key string, gen uint64, value any) bool {
	if g.generation(key) != gen {
		g.logger.Debug("skipping cache write of invalidated key", zap.String("key", key))
		return false
	}
	g.writeCache(ctx, key, value)
	if g.generation(key) != gen {
		if err := g.cache.Delete(ctx, key); err != nil {
			g.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

func (g *Gateway) generation(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generations[key]
}

// invalidate bumps the generation of keys before deleting them, so fetches still in
// flight for those keys do not write what they read back.
func (g *Gateway) invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	keys = dedupe(keys)

	g.mu.Lock()
	for _, k := range keys {
		g.generations[k]++
	}
	g.mu.Unlock()

	if err := g.cache.Delete(ctx, keys...); err != nil {
		g.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// affectedKeys returns the cache keys that may hold batchID: its own entry, the lists it
// was cached in and the lists its cached copy belongs to. When no list is known the batch
// is looked up, since another instance may have cached a list holding it.
func (g *Gateway) affectedKeys(ctx context.Context, batchID int64) []string {
	own := cache.Key(cache.ResourceBatch, batchID)
	keys := []string{own}
	if !g.caching {
		return keys
	}

	keys = append(keys, g.indexedKeys(batchID)...)
	var cached models.StockBatch
	if g.readCache(ctx, own, &cached) {
		keys = append(keys, listKeys(&cached)...)
	}
	if len(dedupe(keys)) > 1 {
		return keys
	}

	batch, err := g.client.Get(ctx, batchID)
	if err != nil {
		g.logger.Debug("could not resolve lists of batch", zap.Int64("batch_id", batchID), zap.Error(err))
		return keys
	}
	return append(keys, listKeys(batch)...)
}

func (g *Gateway) index(listKey string, batches []models.StockBatch) {
	if !g.caching {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, b := range batches {
		keys, ok := g.listed[b.ID]
		if !ok {
			keys = make(map[string]struct{})
			g.listed[b.ID] = keys
		}
		keys[listKey] = struct{}{}
	}
}

func (g *Gateway) indexedKeys(batchID int64) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := make([]string, 0, len(g.listed[batchID]))
	for k := range g.listed[batchID] {
		keys = append(keys, k)
	}
	return keys
}

func (g *Gateway) forget(batchID int64) {
	g.mu.Lock()
	delete(g.listed, batchID)
	g.mu.Unlock()
}

// listKeys returns the cache keys of every list b appears in, plus its own key.
func listKeys(b *models.StockBatch) []string {
	if b == nil {
		return nil
	}
	var keys []string
	if b.ID > 0 {
		keys = append(keys, cache.Key(cache.ResourceBatch, b.ID))
	}
	if b.StockID > 0 {
		keys = append(keys, cache.Key(cache.ResourceStock, b.StockID))
	}
	if b.ProductID > 0 {
		keys = append(keys, cache.Key(cache.ResourceProduct, b.ProductID))
	}
	if b.VariantID != nil && *b.VariantID > 0 {
		keys = append(keys, cache.Key(cache.ResourceVariant, *b.VariantID))
	}
	return keys
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func validateFields(fields models.BatchFields) error {
	if strings.TrimSpace(fields.BatchNumber) == "" {
		return apperrors.Validation("batch number is required")
	}
	if fields.Quantity <= 0 {
		return apperrors.Validation(fmt.Sprintf("quantity must be greater than zero, got %d", fields.Quantity))
	}
	return nil
}

func buildCreateRequest(fields models.BatchFields) (models.CreateStockBatchRequest, error) {
	if err := validateFields(fields); err != nil {
		return models.CreateStockBatchRequest{}, err
	}
	return models.CreateStockBatchRequest{
		BatchNumber:         strings.TrimSpace(fields.BatchNumber),
		ManufactureDate:     models.ComposeTimestamp(fields.ManufactureDate, fields.ManufactureTime),
		ExpiryDate:          models.ComposeTimestamp(fields.ExpiryDate, fields.ExpiryTime),
		Quantity:            fields.Quantity,
		SupplierName:        strings.TrimSpace(fields.SupplierName),
		SupplierBatchNumber: strings.TrimSpace(fields.SupplierBatchNumber),
	}, nil
}
