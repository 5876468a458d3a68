package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"studycards/internal/domain"
)

type FlashcardRepository interface {
	Create(ctx context.Context, card *domain.Flashcard) error
	GetByID(ctx context.Context, id int64) (domain.Flashcard, error)
	ListByUser(ctx context.Context, userID int64, opts ListOptions) ([]domain.Flashcard, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	Update(ctx context.Context, card domain.Flashcard) error
	Delete(ctx context.Context, id int64) error
}

// ListOptions filtra y ordena el listado. Category vacio no filtra.
type ListOptions struct {
	Category string
	Sort     domain.SortKey
}

type PgFlashcardRepository struct {
	pool *pgxpool.Pool
}

func NewPgFlashcardRepository(pool *pgxpool.Pool) *PgFlashcardRepository {
	return &PgFlashcardRepository{pool: pool}
}

const flashcardColumns = `id, question, answer, user_id, category, mastery_level, created_at`

func (r *PgFlashcardRepository) Create(ctx context.Context, card *domain.Flashcard) error {
	const query = `
		INSERT INTO flashcards (question, answer, user_id, category, mastery_level)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		card.Question,
		card.Answer,
		card.UserID,
		card.Category,
		card.MasteryLevel,
	).Scan(&card.ID, &card.CreatedAt)
	return mapError(err)
}

func (r *PgFlashcardRepository) GetByID(ctx context.Context, id int64) (domain.Flashcard, error) {
	const query = `
		SELECT ` + flashcardColumns + `
		FROM flashcards
		WHERE id = $1
	`
	var c domain.Flashcard
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Question,
		&c.Answer,
		&c.UserID,
		&c.Category,
		&c.MasteryLevel,
		&c.CreatedAt,
	)
	if err != nil {
		return domain.Flashcard{}, mapError(err)
	}
	return c, nil
}

func (r *PgFlashcardRepository) ListByUser(ctx context.Context, userID int64, opts ListOptions) ([]domain.Flashcard, error) {
	query, args := buildListQuery(userID, opts)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	cards := make([]domain.Flashcard, 0)
	for rows.Next() {
		var c domain.Flashcard
		if err := rows.Scan(
			&c.ID,
			&c.Question,
			&c.Answer,
			&c.UserID,
			&c.Category,
			&c.MasteryLevel,
			&c.CreatedAt,
		); err != nil {
			return nil, mapError(err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return cards, nil
}

func (r *PgFlashcardRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM flashcards WHERE user_id = $1`
	var n int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *PgFlashcardRepository) Update(ctx context.Context, card domain.Flashcard) error {
	const query = `
		UPDATE flashcards
		SET question = $1, answer = $2, category = $3, mastery_level = $4
		WHERE id = $5
	`
	tag, err := r.pool.Exec(ctx, query,
		card.Question,
		card.Answer,
		card.Category,
		card.MasteryLevel,
		card.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgFlashcardRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM flashcards WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func buildListQuery(userID int64, opts ListOptions) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT " + flashcardColumns + " FROM flashcards WHERE user_id = $1")
	args := []any{userID}

	if category := strings.TrimSpace(opts.Category); category != "" {
		args = append(args, category)
		b.WriteString(" AND category = $" + strconv.Itoa(len(args)))
	}
	if order := orderClause(opts.Sort); order != "" {
		b.WriteString(" ORDER BY " + order)
	}
	return b.String(), args
}

func orderClause(sort domain.SortKey) string {
	switch sort {
	case domain.SortNewest:
		return "id DESC"
	case domain.SortOldest:
		return "id ASC"
	case domain.SortMastery:
		return "mastery_level ASC"
	default:
		return ""
	}
}
