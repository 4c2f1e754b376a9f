package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/shakwa/internal/domain"
)

type Store struct {
	pool        *pgxpool.Pool
	complaints  *ComplaintRepo
	attachments *AttachmentRepo
	audits      *AuditRecordRepo
	notes       *NoteRepo
	users       *UserRepo
	entities    *EntityRepo
	actionLogs  *ActionLogRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:        pool,
		complaints:  NewComplaintRepo(pool),
		attachments: NewAttachmentRepo(pool),
		audits:      NewAuditRecordRepo(pool),
		notes:       NewNoteRepo(pool),
		users:       NewUserRepo(pool),
		entities:    NewEntityRepo(pool),
		actionLogs:  NewActionLogRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Complaints() domain.ComplaintRepository     { return s.complaints }
func (s *Store) Attachments() domain.AttachmentRepository   { return s.attachments }
func (s *Store) AuditRecords() domain.AuditRecordRepository { return s.audits }
func (s *Store) Notes() domain.NoteRepository               { return s.notes }
func (s *Store) Users() domain.UserRepository               { return s.users }
func (s *Store) Entities() domain.EntityRepository          { return s.entities }
func (s *Store) ActionLogs() domain.ActionLogRepository     { return s.actionLogs }
