package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/usecase"
)

const actorSelect = `
	SELECT a.id, a.username, a.first_name, a.last_name, a.role, g.id, g.name
	FROM actors a
	LEFT JOIN groups g ON g.id = a.group_id
`

// ActorRepository implements usecase.ActorRepository.
type ActorRepository struct {
	db    dbtx
	idGen usecase.IDGenerator
}

// NewActorRepository creates a new actor repository. idGen names groups
// created on demand by EnsureGroup.
func NewActorRepository(pool *pgxpool.Pool, idGen usecase.IDGenerator) *ActorRepository {
	return newActorRepositoryWithDB(pool, idGen)
}

func newActorRepositoryWithDB(db dbtx, idGen usecase.IDGenerator) *ActorRepository {
	return &ActorRepository{db: db, idGen: idGen}
}

// Create inserts a new actor.
func (r *ActorRepository) Create(ctx context.Context, tx usecase.Transaction, actor *domain.Actor) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO actors (id, username, first_name, last_name, role, group_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var groupID *string
	if actor.Group != nil {
		groupID = &actor.Group.ID
	}

	_, err = ptx.Exec(ctx, query,
		actor.ID,
		actor.Username,
		actor.FirstName,
		actor.LastName,
		string(actor.Role),
		groupID,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateUsername
	}

	return wrap("insert actor", err)
}

// GetByID retrieves an actor by ID.
func (r *ActorRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	return scanActor(r.db.QueryRow(ctx, actorSelect+` WHERE a.id = $1`, id))
}

// GetByUsername retrieves an actor by username.
func (r *ActorRepository) GetByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	return scanActor(r.db.QueryRow(ctx, actorSelect+` WHERE a.username = $1`, username))
}

// EnsureGroup upserts the group by name. The no-op update makes RETURNING
// yield the existing row on conflict.
func (r *ActorRepository) EnsureGroup(ctx context.Context, tx usecase.Transaction, name string) (*domain.Group, error) {
	ptx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO groups (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`

	var g domain.Group
	if err := ptx.QueryRow(ctx, query, r.idGen.Generate(), name).Scan(&g.ID, &g.Name); err != nil {
		return nil, wrap("ensure group", err)
	}

	return &g, nil
}

func scanActor(row pgx.Row) (*domain.Actor, error) {
	var (
		a                domain.Actor
		role             string
		groupID, groupNm *string
	)

	err := row.Scan(&a.ID, &a.Username, &a.FirstName, &a.LastName, &role, &groupID, &groupNm)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrActorNotFound
	}
	if err != nil {
		return nil, wrap("scan actor", err)
	}

	a.Role = domain.Role(role)
	if groupID != nil {
		a.Group = &domain.Group{ID: *groupID, Name: deref(groupNm)}
	}

	return &a, nil
}
