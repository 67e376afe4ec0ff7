package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/quietline/chat-service/internal/config"
	"github.com/quietline/chat-service/internal/model"
)

type ctxKey string

const keyQuerier = ctxKey("querier")

// querier is satisfied by both *sqlx.DB and *sqlx.Tx, so every method works
// inside and outside a WithTx callback.
type querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type Repository struct {
	connection *sqlx.DB
}

func New(cfg *config.Config) *Repository {
	conStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.Host, cfg.Postgres.Port)

	conn, err := sqlx.Connect("postgres", conStr)
	if err != nil {
		log.Fatal("error connect: ", err)
	}

	return &Repository{
		connection: conn,
	}
}

func (r *Repository) Close() {
	_ = r.connection.Close()
}

func (r *Repository) WithTx(ctx context.Context, cb func(ctx context.Context) error) error {
	transaction, err := r.connection.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	ctx = context.WithValue(ctx, keyQuerier, transaction)

	if err := cb(ctx); err != nil {
		_ = transaction.Rollback()
		return err
	}

	return transaction.Commit()
}

func (r *Repository) Chk(ctx context.Context) querier {
	if transaction, ok := ctx.Value(keyQuerier).(*sqlx.Tx); ok {
		return transaction
	}
	return r.connection
}

// ----------------------------- profiles -----------------------------

func (r *Repository) UpsertProfile(ctx context.Context, params *model.ProfileParams) error {
	query, args, err := sq.Insert("profiles").
		Columns("id", "username", "user_type", "is_therapist", "bio").
		Values(params.ID, params.Username, params.UserType, params.IsTherapist, params.Bio).
		Suffix("ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, user_type = EXCLUDED.user_type, is_therapist = EXCLUDED.is_therapist, bio = EXCLUDED.bio, updated_at = now()").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.Chk(ctx).ExecContext(ctx, query, args...)

	return err
}

func (r *Repository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query, args, err := sq.Select(
		"id",
		"username",
		"user_type",
		"is_therapist",
		"bio",
		"is_online",
		"is_available",
		"created_at",
		"updated_at",
	).
		From("profiles").
		Where(sq.Eq{"id": userID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var profile model.Profile
	err = r.Chk(ctx).GetContext(ctx, &profile, query, args...)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// SetPresence writes the online flag and, when provided, the available flag.
// Last write wins; concurrent sessions of the same user may overwrite each
// other.
func (r *Repository) SetPresence(ctx context.Context, userID string, online bool, available *bool) error {
	queryBuilder := sq.Update("profiles").
		Set("is_online", online).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": userID})

	if available != nil {
		queryBuilder = queryBuilder.Set("is_available", *available)
	}

	query, args, err := queryBuilder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.Chk(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAvailableProfiles(ctx context.Context, excludingUserID string) (model.ProfileList, error) {
	builder := sq.Select(
		"id",
		"username",
		"user_type",
		"is_therapist",
		"bio",
		"is_online",
		"is_available",
		"created_at",
		"updated_at",
	).
		From("profiles").
		Where(sq.Eq{"is_available": true}).
		OrderBy("updated_at DESC").
		PlaceholderFormat(sq.Dollar)

	// id is a uuid column; comparing it against an empty string fails the
	// cast, so the exclusion only applies when a user id is given.
	if excludingUserID != "" {
		builder = builder.Where(sq.NotEq{"id": excludingUserID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var profiles model.ProfileList
	err = r.Chk(ctx).SelectContext(ctx, &profiles, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get available profiles: %v", err)
	}

	return profiles, nil
}

// ----------------------------- conversations -----------------------------

func (r *Repository) CreateConversation(ctx context.Context) (string, error) {
	query, args, err := sq.Insert("conversations").
		Columns("is_active").
		Values(true).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build sql query: %v", err)
	}

	var conversationID string
	err = r.Chk(ctx).GetContext(ctx, &conversationID, query, args...)
	if err != nil {
		return "", err
	}

	return conversationID, nil
}

func (r *Repository) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	query, args, err := sq.Select(
		"id",
		"created_at",
		"updated_at",
		"last_message_at",
		"is_active",
	).
		From("conversations").
		Where(sq.Eq{"id": conversationID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var conversation model.Conversation
	err = r.Chk(ctx).GetContext(ctx, &conversation, query, args...)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *Repository) GetUserConversationIDs(ctx context.Context, userID string) ([]string, error) {
	query, args, err := sq.Select("conversation_id").
		From("conversation_participants").
		Where(sq.Eq{"user_id": userID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var conversationIDs []string
	err = r.Chk(ctx).SelectContext(ctx, &conversationIDs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user conversations: %v", err)
	}

	return conversationIDs, nil
}

func (r *Repository) AddParticipants(ctx context.Context, conversationID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	queryBuilder := sq.Insert("conversation_participants").
		Columns("conversation_id", "user_id").
		PlaceholderFormat(sq.Dollar)

	for _, userID := range userIDs {
		queryBuilder = queryBuilder.Values(conversationID, userID)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.Chk(ctx).ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) GetParticipants(ctx context.Context, conversationID string) ([]model.ConversationParticipant, error) {
	query, args, err := sq.Select(
		"cp.id",
		"cp.conversation_id",
		"cp.user_id",
		"cp.joined_at",
		"p.username",
		"p.is_therapist",
		"p.user_type",
	).
		From("conversation_participants cp").
		Join("profiles p ON p.id = cp.user_id").
		Where(sq.Eq{"cp.conversation_id": conversationID}).
		OrderBy("cp.joined_at ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var participants []model.ConversationParticipant
	err = r.Chk(ctx).SelectContext(ctx, &participants, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %v", err)
	}

	return participants, nil
}

func (r *Repository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	query, args, err := sq.
		Select("COUNT(*) > 0").
		From("conversation_participants").
		Where(sq.And{
			sq.Eq{"conversation_id": conversationID},
			sq.Eq{"user_id": userID},
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build sql query: %v", err)
	}

	var isParticipant bool
	err = r.Chk(ctx).GetContext(ctx, &isParticipant, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to check conversation membership: %v", err)
	}

	return isParticipant, nil
}

// GetUserConversations returns the inbox: every conversation the user is a
// member of, newest activity first, each with both participant rows attached.
func (r *Repository) GetUserConversations(ctx context.Context, userID string) (model.ConversationList, error) {
	query, args, err := sq.Select(
		"c.id",
		"c.created_at",
		"c.updated_at",
		"c.last_message_at",
		"c.is_active",
	).
		From("conversations c").
		Join("conversation_participants cp ON cp.conversation_id = c.id").
		Where(sq.Eq{"cp.user_id": userID}).
		OrderBy("c.last_message_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var conversations model.ConversationList
	err = r.Chk(ctx).SelectContext(ctx, &conversations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversations: %v", err)
	}

	for i := range conversations {
		participants, err := r.GetParticipants(ctx, conversations[i].ID)
		if err != nil {
			return nil, err
		}
		conversations[i].Participants = participants
	}

	return conversations, nil
}

// ----------------------------- messages -----------------------------

func (r *Repository) GetConversationMessages(ctx context.Context, conversationID string) (*model.MessageList, error) {
	query, args, err := sq.Select(
		"id",
		"conversation_id",
		"sender_id",
		"content",
		"created_at",
		"read_at",
	).
		From("messages").
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var messages model.MessageList
	err = r.Chk(ctx).SelectContext(ctx, &messages, query, args...)
	if err != nil {
		return nil, err
	}

	return &messages, nil
}

// SaveMessage inserts the message and fills in the store-assigned timestamp.
func (r *Repository) SaveMessage(ctx context.Context, message *model.Message) error {
	query, args, err := sq.Insert("messages").
		Columns("id", "conversation_id", "sender_id", "content").
		Values(message.ID, message.ConversationID, message.SenderID, message.Content).
		Suffix("RETURNING created_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	err = r.Chk(ctx).GetContext(ctx, &message.CreatedAt, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save message: %v", err)
	}

	return nil
}

// TouchLastMessage advances last_message_at. GREATEST keeps the column
// non-decreasing when writers race.
func (r *Repository) TouchLastMessage(ctx context.Context, conversationID string, ts time.Time) error {
	query, args, err := sq.Update("conversations").
		Set("last_message_at", sq.Expr("GREATEST(last_message_at, ?)", ts)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": conversationID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.Chk(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return nil
}

// MarkMessagesRead sets read_at on every unread message addressed to the
// reader. The read_at IS NULL guard keeps the column set-once.
func (r *Repository) MarkMessagesRead(ctx context.Context, conversationID, readerID string, ts time.Time) error {
	query, args, err := sq.Update("messages").
		Set("read_at", ts).
		Where(sq.And{
			sq.Eq{"conversation_id": conversationID},
			sq.NotEq{"sender_id": readerID},
			sq.Eq{"read_at": nil},
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.Chk(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return nil
}
