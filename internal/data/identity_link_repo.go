package data

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/trizly/lumi-link/internal/data/pgxutil"
	"github.com/trizly/lumi-link/internal/domain/model"
	apperrors "github.com/trizly/lumi-link/internal/errors"
)

const identityLinkColumns = `
  subject_id,
  external_id,
  external_handle,
  linked_at,
  discord_access_token,
  discord_refresh_token,
  discord_token_expiry,
  created_at,
  updated_at
`

// IdentityLinkRepo stores one identity_links row per Discord user.
type IdentityLinkRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewIdentityLinkRepo creates an IdentityLinkRepo. A nil tp uses the system clock.
func NewIdentityLinkRepo(db *sql.DB, tp TimeProvider) *IdentityLinkRepo {
	if tp == nil {
		tp = RealTimeProvider{}
	}
	return &IdentityLinkRepo{DB: db, timeProvider: tp}
}

// Upsert writes the link for req.SubjectID, replacing any previous account.
// Stored OAuth tokens are only overwritten when req.Tokens is set.
func (r *IdentityLinkRepo) Upsert(
	ctx context.Context,
	req model.UpsertIdentityLinkRequest,
) (*model.IdentityLink, error) {
	if strings.TrimSpace(req.SubjectID) == "" {
		return nil, apperrors.ValidationField("discordId", ErrSubjectRequired.Error())
	}

	now := r.timeProvider.Now().UTC()
	linkedAt := req.LinkedAt
	if linkedAt.IsZero() {
		linkedAt = now
	}

	var access, refresh *string
	var expiry any
	if req.Tokens != nil {
		access = nullIfEmpty(req.Tokens.AccessToken)
		refresh = nullIfEmpty(req.Tokens.RefreshToken)
		if !req.Tokens.Expiry.IsZero() {
			expiry = req.Tokens.Expiry.UTC()
		}
	}

	query := `
		INSERT INTO identity_links (
			subject_id, external_id, external_handle, linked_at,
			discord_access_token, discord_refresh_token, discord_token_expiry,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (subject_id) DO UPDATE SET
			external_id = EXCLUDED.external_id,
			external_handle = EXCLUDED.external_handle,
			linked_at = EXCLUDED.linked_at,
			discord_access_token = COALESCE(EXCLUDED.discord_access_token, identity_links.discord_access_token),
			discord_refresh_token = COALESCE(EXCLUDED.discord_refresh_token, identity_links.discord_refresh_token),
			discord_token_expiry = COALESCE(EXCLUDED.discord_token_expiry, identity_links.discord_token_expiry),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + identityLinkColumns

	return r.queryOne(ctx, query,
		req.SubjectID, req.ExternalID, req.ExternalHandle, linkedAt.UTC(),
		access, refresh, expiry, now,
	)
}

// GetBySubject returns the link for a Discord user.
func (r *IdentityLinkRepo) GetBySubject(ctx context.Context, subjectID string) (*model.IdentityLink, error) {
	return r.queryOne(ctx, `SELECT `+identityLinkColumns+` FROM identity_links WHERE subject_id = $1`, subjectID)
}

// GetByExternalID returns the most recently linked row for a Roblox user.
func (r *IdentityLinkRepo) GetByExternalID(ctx context.Context, externalID string) (*model.IdentityLink, error) {
	return r.queryOne(ctx, `
		SELECT `+identityLinkColumns+`
		FROM identity_links
		WHERE external_id = $1
		ORDER BY linked_at DESC
		LIMIT 1`, externalID)
}

// DeleteBySubject removes the link and returns the row as it was.
func (r *IdentityLinkRepo) DeleteBySubject(ctx context.Context, subjectID string) (*model.IdentityLink, error) {
	return r.queryOne(ctx, `DELETE FROM identity_links WHERE subject_id = $1 RETURNING `+identityLinkColumns, subjectID)
}

// UpdateTokens replaces the stored OAuth tokens. Returns false when no link exists.
func (r *IdentityLinkRepo) UpdateTokens(ctx context.Context, subjectID string, tokens model.LinkTokens) (bool, error) {
	var expiry any
	if !tokens.Expiry.IsZero() {
		expiry = tokens.Expiry.UTC()
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE identity_links
		SET discord_access_token = $2,
		    discord_refresh_token = COALESCE($3, discord_refresh_token),
		    discord_token_expiry = $4,
		    updated_at = $5
		WHERE subject_id = $1
	`, subjectID, tokens.AccessToken, nullIfEmpty(tokens.RefreshToken), expiry, r.timeProvider.Now().UTC())
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return n > 0, nil
}

func (r *IdentityLinkRepo) queryOne(ctx context.Context, query string, args ...any) (*model.IdentityLink, error) {
	var link *model.IdentityLink
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		link, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.IdentityLink])
		return err
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, apperrors.NotFound("identity link not found")
		}
		return nil, mapped
	}
	return link, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
