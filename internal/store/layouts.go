package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PageLayout holds the editable texts of the proposal pages.
type PageLayout struct {
	CoverTitle         string    `json:"cover_title"`
	ServiceScope       string    `json:"service_scope"`
	WarrantyText       string    `json:"warranty_text"`
	PaymentMethods     string    `json:"payment_methods"`
	ClosingText        string    `json:"closing_text"`
	CoverBackground    bool      `json:"cover_background"`
	WarrantyBackground bool      `json:"warranty_background"`
	ClosingBackground  bool      `json:"closing_background"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultPageLayout is used when the singleton row is missing.
func DefaultPageLayout() PageLayout {
	return PageLayout{
		CoverTitle:     "Proposta Comercial",
		ServiceScope:   "Fornecimento, instalação e configuração dos equipamentos de automação listados nesta proposta, incluindo testes e treinamento de uso.",
		WarrantyText:   "Garantia de 12 meses para equipamentos e 90 dias para serviços de instalação, contados a partir da entrega.",
		PaymentMethods: "PIX, transferência bancária ou cartão de crédito.",
		ClosingText:    "Agradecemos a oportunidade e ficamos à disposição para qualquer esclarecimento.",
	}
}

// GetPageLayout reads the page layout singleton, falling back to defaults.
func GetPageLayout(ctx context.Context, q Querier) (PageLayout, error) {
	var l PageLayout
	var updated timestamp
	err := q.QueryRowContext(ctx, `
		SELECT cover_title, service_scope, warranty_text, payment_methods, closing_text,
			cover_background, warranty_background, closing_background, updated_at
		FROM page_layouts
		WHERE id = 1
	`).Scan(
		&l.CoverTitle,
		&l.ServiceScope,
		&l.WarrantyText,
		&l.PaymentMethods,
		&l.ClosingText,
		&l.CoverBackground,
		&l.WarrantyBackground,
		&l.ClosingBackground,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultPageLayout(), nil
	}
	if err != nil {
		return PageLayout{}, fmt.Errorf("query page layout: %w", err)
	}
	l.UpdatedAt = updated.Time
	return l, nil
}

// SavePageLayout upserts the page layout singleton.
func SavePageLayout(ctx context.Context, q Querier, l PageLayout) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO page_layouts (
			id, cover_title, service_scope, warranty_text, payment_methods, closing_text,
			cover_background, warranty_background, closing_background
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cover_title = excluded.cover_title,
			service_scope = excluded.service_scope,
			warranty_text = excluded.warranty_text,
			payment_methods = excluded.payment_methods,
			closing_text = excluded.closing_text,
			cover_background = excluded.cover_background,
			warranty_background = excluded.warranty_background,
			closing_background = excluded.closing_background,
			updated_at = CURRENT_TIMESTAMP
	`,
		l.CoverTitle,
		l.ServiceScope,
		l.WarrantyText,
		l.PaymentMethods,
		l.ClosingText,
		l.CoverBackground,
		l.WarrantyBackground,
		l.ClosingBackground,
	)
	if err != nil {
		return fmt.Errorf("upsert page layout: %w", err)
	}
	return nil
}

// TemplateSettings selects the library assets used by the proposal.
type TemplateSettings struct {
	MainCoverAssetID          string    `json:"main_cover_asset_id,omitempty"`
	DefaultEnvironmentAssetID string    `json:"default_environment_asset_id,omitempty"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// GetTemplateSettings reads the template settings singleton. A missing row
// yields empty settings.
func GetTemplateSettings(ctx context.Context, q Querier) (TemplateSettings, error) {
	var s TemplateSettings
	var mainCover, defaultEnv sql.NullString
	var updated timestamp
	err := q.QueryRowContext(ctx, `
		SELECT main_cover_asset_id, default_environment_asset_id, updated_at
		FROM proposal_template_settings
		WHERE id = 1
	`).Scan(&mainCover, &defaultEnv, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return TemplateSettings{}, nil
	}
	if err != nil {
		return TemplateSettings{}, fmt.Errorf("query template settings: %w", err)
	}
	s.MainCoverAssetID = mainCover.String
	s.DefaultEnvironmentAssetID = defaultEnv.String
	s.UpdatedAt = updated.Time
	return s, nil
}

// SaveTemplateSettings upserts the template settings singleton. Empty ids
// are stored as NULL.
func SaveTemplateSettings(ctx context.Context, q Querier, s TemplateSettings) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO proposal_template_settings (id, main_cover_asset_id, default_environment_asset_id)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			main_cover_asset_id = excluded.main_cover_asset_id,
			default_environment_asset_id = excluded.default_environment_asset_id,
			updated_at = CURRENT_TIMESTAMP
	`, nullString(s.MainCoverAssetID), nullString(s.DefaultEnvironmentAssetID))
	if err != nil {
		return fmt.Errorf("upsert template settings: %w", err)
	}
	return nil
}
