// Package assets manages the image library used for proposal covers.
package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"github.com/cubo-casa/orcamentos/internal/blob"
	"github.com/cubo-casa/orcamentos/internal/metrics"
	"github.com/cubo-casa/orcamentos/internal/slug"
	"github.com/cubo-casa/orcamentos/internal/store"
)

// DefaultMaxBytes is the upload limit when none is configured.
const DefaultMaxBytes = 5 << 20

var (
	ErrInvalidInput    = errors.New("dados inválidos")
	ErrEmpty           = errors.New("arquivo vazio")
	ErrTooLarge        = errors.New("arquivo excede o tamanho máximo")
	ErrUnsupportedType = errors.New("tipo de arquivo não suportado, use PNG, JPEG ou WEBP")
)

var allowedTypes = []string{"image/png", "image/jpeg", "image/webp"}

// Upload results counted in metrics.
const (
	resultCreated   = "created"
	resultDuplicate = "duplicate"
	resultRejected  = "rejected"
)

// Service owns the asset library.
type Service struct {
	db       *sql.DB
	blobs    blob.Store
	maxBytes int64
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewService returns a Service. maxBytes below one selects DefaultMaxBytes;
// m may be nil.
func NewService(db *sql.DB, blobs blob.Store, maxBytes int64, logger *slog.Logger, m *metrics.Metrics) *Service {
	if maxBytes < 1 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{db: db, blobs: blobs, maxBytes: maxBytes, logger: logger, metrics: m}
}

// MaxBytes is the largest accepted upload.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// UploadInput is one file to add to the library.
type UploadInput struct {
	Filename   string
	Data       []byte
	Categories []string
	Tags       []string
	Copyright  string
}

// UploadResult is the stored asset. Duplicate is set when an asset with the
// same content already existed and nothing new was stored.
type UploadResult struct {
	Asset     store.Asset `json:"asset"`
	Duplicate bool        `json:"duplicate"`
}

// Upload validates, deduplicates and stores an image.
func (s *Service) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	res, err := s.upload(ctx, in)
	switch {
	case err != nil:
		if errors.Is(err, ErrEmpty) || errors.Is(err, ErrTooLarge) || errors.Is(err, ErrUnsupportedType) {
			s.metrics.CountUpload(resultRejected)
		}
	case res.Duplicate:
		s.metrics.CountUpload(resultDuplicate)
	default:
		s.metrics.CountUpload(resultCreated)
	}
	return res, err
}

func (s *Service) upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	if len(in.Data) == 0 {
		return UploadResult{}, ErrEmpty
	}
	if int64(len(in.Data)) > s.maxBytes {
		return UploadResult{}, fmt.Errorf("%w (%d MB)", ErrTooLarge, s.maxBytes>>20)
	}

	mtype := mimetype.Detect(in.Data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return UploadResult{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	sum := sha256.Sum256(in.Data)
	checksum := hex.EncodeToString(sum[:])

	existing, err := store.GetAssetByChecksum(ctx, s.db, checksum)
	if err == nil {
		s.logger.Info("duplicate asset upload", "asset_id", existing.ID, "checksum", checksum)
		return UploadResult{Asset: existing, Duplicate: true}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return UploadResult{}, err
	}

	a := store.Asset{
		ID:            store.NewID(),
		MimeType:      mtype.String(),
		Checksum:      checksum,
		SizeBytes:     int64(len(in.Data)),
		Categories:    cleanList(in.Categories),
		Tags:          cleanList(in.Tags),
		CopyrightInfo: strings.TrimSpace(in.Copyright),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Data)); err == nil {
		a.Width, a.Height = cfg.Width, cfg.Height
	} else {
		s.logger.Warn("decode image dimensions", "filename", in.Filename, "error", err)
	}

	a.StorageKey = storageKey(a.ID, in.Filename, mtype.Extension())
	url, err := s.blobs.Put(ctx, a.StorageKey, a.MimeType, in.Data)
	if err != nil {
		return UploadResult{}, fmt.Errorf("store asset blob: %w", err)
	}
	a.URL = url

	err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := store.InsertAsset(ctx, tx, a); err != nil {
			return err
		}
		return store.InsertChangeLog(ctx, tx, store.EntityAsset, a.ID, store.ActionCreate, map[string]any{
			"url":        a.URL,
			"mime_type":  a.MimeType,
			"size_bytes": a.SizeBytes,
		})
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, a.StorageKey); delErr != nil {
			s.logger.Error("remove orphan blob", "key", a.StorageKey, "error", delErr)
		}
		// A concurrent upload of the same content won the unique checksum.
		if existing, lookupErr := store.GetAssetByChecksum(ctx, s.db, checksum); lookupErr == nil {
			return UploadResult{Asset: existing, Duplicate: true}, nil
		}
		return UploadResult{}, err
	}

	stored, err := store.GetAsset(ctx, s.db, a.ID)
	if err != nil {
		return UploadResult{}, err
	}
	s.logger.Info("asset uploaded", "asset_id", stored.ID, "mime_type", stored.MimeType, "size_bytes", stored.SizeBytes)
	return UploadResult{Asset: stored}, nil
}

func storageKey(id, filename, ext string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := slug.Make(base)
	if name == "" {
		name = "imagem"
	}
	return id + "-" + name + ext
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// List returns the assets matching f, newest first.
func (s *Service) List(ctx context.Context, f store.AssetFilter) ([]store.Asset, error) {
	return store.ListAssets(ctx, s.db, f)
}

// Get loads one asset.
func (s *Service) Get(ctx context.Context, id string) (store.Asset, error) {
	return store.GetAsset(ctx, s.db, id)
}

// Metadata holds the editable fields of an asset.
type Metadata struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	Copyright  string   `json:"copyright_info"`
}

// Update replaces the metadata of an asset.
func (s *Service) Update(ctx context.Context, id string, m Metadata) (store.Asset, error) {
	m.Categories = cleanList(m.Categories)
	m.Tags = cleanList(m.Tags)
	m.Copyright = strings.TrimSpace(m.Copyright)

	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := store.UpdateAssetMetadata(ctx, tx, id, m.Categories, m.Tags, m.Copyright); err != nil {
			return err
		}
		return store.InsertChangeLog(ctx, tx, store.EntityAsset, id, store.ActionUpdate, m)
	})
	if err != nil {
		return store.Asset{}, err
	}
	return store.GetAsset(ctx, s.db, id)
}

// Delete removes an asset row and its blob.
func (s *Service) Delete(ctx context.Context, id string) error {
	var a store.Asset
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		a, err = store.GetAsset(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := store.DeleteAsset(ctx, tx, id); err != nil {
			return err
		}
		return store.InsertChangeLog(ctx, tx, store.EntityAsset, id, store.ActionDelete, map[string]string{"url": a.URL})
	})
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, a.StorageKey); err != nil {
		s.logger.Error("remove asset blob", "asset_id", id, "key", a.StorageKey, "error", err)
	}
	s.logger.Info("asset deleted", "asset_id", id)
	return nil
}

// ChangeLogs returns the history of one library entity.
func (s *Service) ChangeLogs(ctx context.Context, entityType, id string) ([]store.ChangeLog, error) {
	return store.ListChangeLogs(ctx, s.db, entityType, id)
}
