package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const leadColumns = `id, user_id, name, email, phone, company, status, score, potential_value,
		lead_type, urgency, notes, tags, next_followup_at, last_contacted, created_at, updated_at`

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB wires any pgx-compatible executor.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	if db == nil {
		panic("leads: db required")
	}
	return &PostgresRepository{db: db}
}

// Ping checks database connectivity for readiness probes.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("leads: ping failed: %w", err)
	}
	return nil
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	query := `
		INSERT INTO leads (id, user_id, name, email, phone, company, status, score, potential_value,
			lead_type, urgency, notes, tags, next_followup_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.UserID,
		req.Name,
		req.Email,
		req.Phone,
		req.Company,
		req.Status,
		req.Score,
		req.PotentialValue,
		req.LeadType,
		req.Urgency,
		req.Notes,
		tags,
		req.NextFollowupAt.Ptr(),
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:             id,
		UserID:         req.UserID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Status:         req.Status,
		Score:          req.Score,
		PotentialValue: req.PotentialValue,
		LeadType:       req.LeadType,
		Urgency:        req.Urgency,
		Notes:          req.Notes,
		Tags:           tags,
		NextFollowupAt: req.NextFollowupAt,
		CreatedAt:      NewTimestamp(createdAt),
		UpdatedAt:      NewTimestamp(updatedAt),
	}, nil
}

// GetByID fetches a lead scoped to the owner.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND user_id = $2`
	lead, err := scanLead(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// ListByUser returns the owner's leads, oldest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, filter ListLeadsFilter) ([]*Lead, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args := []any{userID}
	where := "user_id = $1"
	if status := NormalizeStatus(filter.Status); status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()
	return scanLeads(rows)
}

// ListAll returns every lead, oldest first. Used by the mission dispatcher.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*Lead, error) {
	rows, err := r.db.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("leads: list all failed: %w", err)
	}
	defer rows.Close()
	return scanLeads(rows)
}

// Update applies a partial update inside a read-modify-write.
func (r *PostgresRepository) Update(ctx context.Context, userID, id string, req *UpdateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead, err := r.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	req.Apply(lead, time.Now().UTC())

	tags := lead.Tags
	if tags == nil {
		tags = []string{}
	}
	query := `
		UPDATE leads SET name = $3, email = $4, phone = $5, company = $6, status = $7, score = $8,
			potential_value = $9, lead_type = $10, urgency = $11, notes = $12, tags = $13,
			next_followup_at = $14, last_contacted = $15, updated_at = $16
		WHERE id = $1 AND user_id = $2
	`
	ct, err := r.db.Exec(ctx, query,
		lead.ID,
		lead.UserID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.Status,
		lead.Score,
		lead.PotentialValue,
		lead.LeadType,
		lead.Urgency,
		lead.Notes,
		tags,
		lead.NextFollowupAt.Ptr(),
		lead.LastContacted.Ptr(),
		lead.UpdatedAt.Time(),
	)
	if err != nil {
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

// Delete removes a lead.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("leads: delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func scanLeads(rows pgx.Rows) ([]*Lead, error) {
	out := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: iterate failed: %w", err)
	}
	return out, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead                        Lead
		nextFollowup, lastContacted *time.Time
		createdAt, updatedAt        time.Time
	)
	if err := row.Scan(
		&lead.ID,
		&lead.UserID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Company,
		&lead.Status,
		&lead.Score,
		&lead.PotentialValue,
		&lead.LeadType,
		&lead.Urgency,
		&lead.Notes,
		&lead.Tags,
		&nextFollowup,
		&lastContacted,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	lead.Status = strings.TrimSpace(lead.Status)
	lead.NextFollowupAt = TimestampFromPtr(nextFollowup)
	lead.LastContacted = TimestampFromPtr(lastContacted)
	lead.CreatedAt = NewTimestamp(createdAt)
	lead.UpdatedAt = NewTimestamp(updatedAt)
	return &lead, nil
}
