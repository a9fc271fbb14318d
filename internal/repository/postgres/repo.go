package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/agrilink/negotiation-service/internal/config"
	"github.com/agrilink/negotiation-service/internal/model"
	"github.com/agrilink/negotiation-service/internal/negotiation"
)

type key string

const keySqlxTx = key("sqlx_tx")

var negotiationColumns = []string{
	"id",
	"listing_id",
	"buyer_id",
	"farmer_id",
	"requested_quantity",
	"current_offer",
	"status",
	"version",
	"created_at",
	"updated_at",
}

var messageColumns = []string{
	"id",
	"chat_id",
	"sender_id",
	"type",
	"text",
	"offer_value",
	"offer_status",
	"created_at",
}

type Repository struct {
	connection *sqlx.DB
}

type querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func New(cfg *config.Config) *Repository {
	conStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.Host, cfg.Postgres.Port)

	repo, err := Connect(conStr)
	if err != nil {
		log.Fatal("error connect: ", err)
	}

	return repo
}

func Connect(dsn string) (*Repository, error) {
	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}

	return &Repository{
		connection: conn,
	}, nil
}

func (r *Repository) Close() {
	_ = r.connection.Close()
}

// Chk returns the transaction bound to ctx, or the pool when there is none.
func (r *Repository) Chk(ctx context.Context) querier {
	if tx, ok := ctx.Value(keySqlxTx).(*sqlx.Tx); ok {
		return tx
	}
	return r.connection
}

func (r *Repository) WithTx(ctx context.Context, cb func(ctx context.Context) error) error {
	if _, ok := ctx.Value(keySqlxTx).(*sqlx.Tx); ok {
		return cb(ctx)
	}

	tx, err := r.connection.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	if err := cb(context.WithValue(ctx, keySqlxTx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *Repository) CreateNegotiation(ctx context.Context, chat *model.Negotiation) error {
	query, args, err := sq.Insert("negotiations").
		Columns("id", "listing_id", "buyer_id", "farmer_id", "requested_quantity", "current_offer", "status", "created_at", "updated_at").
		Values(chat.ID, chat.ListingID, chat.BuyerID, chat.FarmerID, chat.RequestedQuantity, chat.CurrentOffer, chat.Status, chat.CreatedAt, chat.UpdatedAt).
		Suffix("RETURNING version").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	if err := r.Chk(ctx).GetContext(ctx, &chat.Version, query, args...); err != nil {
		return fmt.Errorf("failed to create negotiation: %v", err)
	}

	return nil
}

// GetNegotiation loads one negotiation. With forUpdate the row stays locked
// until the surrounding transaction ends. An id that is not a UUID cannot name
// a row and is reported as not found.
func (r *Repository) GetNegotiation(ctx context.Context, id string, forUpdate bool) (*model.Negotiation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", negotiation.ErrNotFound, id)
	}

	builder := sq.Select(negotiationColumns...).
		From("negotiations").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar)

	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var chat model.Negotiation
	err = r.Chk(ctx).GetContext(ctx, &chat, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", negotiation.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get negotiation: %v", err)
	}

	return &chat, nil
}

// UpdateNegotiation writes status, offer and timestamp if nobody else changed
// the row since it was read, and bumps the version.
func (r *Repository) UpdateNegotiation(ctx context.Context, chat *model.Negotiation) error {
	query, args, err := sq.Update("negotiations").
		Set("current_offer", chat.CurrentOffer).
		Set("status", chat.Status).
		Set("updated_at", chat.UpdatedAt).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": chat.ID, "version": chat.Version}).
		Suffix("RETURNING version").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	var version int64
	err = r.Chk(ctx).GetContext(ctx, &version, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: negotiation %s changed concurrently", negotiation.ErrConflict, chat.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update negotiation: %v", err)
	}

	chat.Version = version
	return nil
}

func (r *Repository) GetUserNegotiations(ctx context.Context, userID string, status model.NegotiationStatus, limit uint64) (*model.NegotiationList, error) {
	builder := sq.Select(negotiationColumns...).
		From("negotiations").
		Where(sq.Or{
			sq.Eq{"buyer_id": userID},
			sq.Eq{"farmer_id": userID},
		}).
		OrderBy("updated_at DESC").
		PlaceholderFormat(sq.Dollar)

	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}

	if limit > 0 {
		builder = builder.Limit(limit)
	} else {
		builder = builder.Limit(50)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	negotiations := model.NegotiationList{}
	if err := r.Chk(ctx).SelectContext(ctx, &negotiations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get negotiations: %v", err)
	}

	return &negotiations, nil
}

func (r *Repository) GetNegotiationMessages(ctx context.Context, chatID string) (*model.MessageList, error) {
	query, args, err := sq.Select(messageColumns...).
		From("negotiation_messages").
		Where(sq.Eq{"chat_id": chatID}).
		OrderBy("created_at ASC", "seq ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	messages := model.MessageList{}
	if err := r.Chk(ctx).SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get messages: %v", err)
	}

	return &messages, nil
}

func (r *Repository) SaveMessage(ctx context.Context, message *model.NegotiationMessage) error {
	query, args, err := sq.Insert("negotiation_messages").
		Columns(messageColumns...).
		Values(message.ID, message.ChatID, message.SenderID, message.Type, message.Text, message.OfferValue, message.OfferStatus, message.CreatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	if _, err := r.Chk(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save message: %v", err)
	}

	return nil
}

func (r *Repository) UpdateOfferStatuses(ctx context.Context, messages model.MessageList) error {
	for _, msg := range messages {
		query, args, err := sq.Update("negotiation_messages").
			Set("offer_status", msg.OfferStatus).
			Where(sq.Eq{"id": msg.ID, "chat_id": msg.ChatID}).
			PlaceholderFormat(sq.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build sql query: %v", err)
		}

		if _, err := r.Chk(ctx).ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update offer status of %s: %v", msg.ID, err)
		}
	}

	return nil
}

// ApplyUpdate persists a transition. Status changes are written before the
// appended message so the single-pending index never sees two pending offers.
func (r *Repository) ApplyUpdate(ctx context.Context, chat *model.Negotiation, upd negotiation.Update) error {
	if err := r.UpdateOfferStatuses(ctx, upd.Changed); err != nil {
		return err
	}

	if upd.Appended != nil {
		if err := r.SaveMessage(ctx, upd.Appended); err != nil {
			return err
		}
	}

	return r.UpdateNegotiation(ctx, chat)
}
