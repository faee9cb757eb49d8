package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "github.com/tluanga-dev/rental-manager-sub001/internal/core/context"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
)

// CompressionAlgo specifies the compression algorithm used for audit payloads.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// auditRecord is the persisted shape of one audited stock operation.
type auditRecord struct {
	ID             id.ID           `db:"id"`
	Operation      string          `db:"operation"`
	ItemID         id.ID           `db:"item_id"`
	LocationID     id.ID           `db:"location_id"`
	UserID         string          `db:"user_id"`
	Meta           json.RawMessage `db:"meta"`
	MetaCompressed []byte          `db:"meta_compressed"`
	Compression    CompressionAlgo `db:"compression_algo"`
	CreatedAt      time.Time       `db:"created_at"`
}

// AuditService writes the stock operation audit trail, compressing large
// payloads with zstd. It implements inventory.AuditPort.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

var _ inventory.AuditPort = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record persists one audited stock operation. The actor comes from the
// request context.
func (s *AuditService) Record(ctx context.Context, entry inventory.AuditEntry) error {
	meta, err := json.Marshal(entry.Meta)
	if err != nil {
		return fmt.Errorf("marshal audit meta: %w", err)
	}

	rec := auditRecord{
		ID:          id.New(),
		Operation:   entry.Operation,
		ItemID:      entry.ItemID,
		LocationID:  entry.LocationID,
		UserID:      appctx.ActorID(ctx),
		Meta:        meta,
		Compression: CompressionNone,
		CreatedAt:   time.Now().UTC(),
	}
	if len(rec.Meta) > s.compressThreshold {
		rec.MetaCompressed = s.encoder.EncodeAll(rec.Meta, nil)
		rec.Meta = nil
		rec.Compression = CompressionZstd
	}

	sql := `
		INSERT INTO stock_audit (
			id, operation, item_id, location_id, user_id,
			meta, meta_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		rec.ID, rec.Operation, rec.ItemID, rec.LocationID, rec.UserID,
		rec.Meta, rec.MetaCompressed, rec.Compression, rec.CreatedAt,
	)
	return err
}

// AuditHistoryEntry is one decoded audit row.
type AuditHistoryEntry struct {
	ID         id.ID
	Operation  string
	ItemID     id.ID
	LocationID id.ID
	UserID     string
	Meta       map[string]any
	CreatedAt  time.Time
}

// GetItemHistory retrieves audit history for an item, newest first,
// transparently decompressing zstd payloads.
func (s *AuditService) GetItemHistory(ctx context.Context, itemID id.ID, limit int) ([]AuditHistoryEntry, error) {
	sql := `
		SELECT id, operation, item_id, location_id, user_id,
		       meta, meta_compressed, compression_algo, created_at
		FROM stock_audit
		WHERE item_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var entries []AuditHistoryEntry
	for rows.Next() {
		var rec auditRecord
		err := rows.Scan(
			&rec.ID, &rec.Operation, &rec.ItemID, &rec.LocationID, &rec.UserID,
			&rec.Meta, &rec.MetaCompressed, &rec.Compression, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}

		meta := rec.Meta
		if rec.Compression == CompressionZstd && len(rec.MetaCompressed) > 0 {
			meta, err = s.decoder.DecodeAll(rec.MetaCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit meta: %w", err)
			}
		}

		entry := AuditHistoryEntry{
			ID:         rec.ID,
			Operation:  rec.Operation,
			ItemID:     rec.ItemID,
			LocationID: rec.LocationID,
			UserID:     rec.UserID,
			CreatedAt:  rec.CreatedAt,
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &entry.Meta); err != nil {
				return nil, fmt.Errorf("decode audit meta: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
