package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/berauto/backend/internal/domain"
)

// UserRepo defines the persistence operations for Users.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type UserRepo interface {
	// Create inserts a new user and returns the persisted record.
	// Returns domain.ErrConflict if the email is already registered.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	// GetByID retrieves a single user by its UUID primary key.
	// Returns domain.ErrNotFound if no user with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// GetByEmail retrieves a user by exact email match.
	// Returns domain.ErrNotFound if no user with that email exists.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// List returns all users ordered by created_at ascending.
	List(ctx context.Context) ([]domain.User, error)

	// UpdateRole sets the role of an existing user and returns the updated
	// record. Returns domain.ErrNotFound if the user does not exist.
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) (domain.User, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `id, email, password_hash, name, address, phone, role, created_at`

func (r *pgUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (email, password_hash, name, address, phone, role)
		VALUES (@email, @password_hash, @name, @address, @phone, @role)
		RETURNING ` + userColumns

	args := pgx.NamedArgs{
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"name":          user.Name,
		"address":       user.Address,
		"phone":         user.Phone,
		"role":          user.Role,
	}

	result, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, fmt.Errorf("repo.UserRepo.Create: email taken: %w", domain.ErrConflict)
		}
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = @id`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = @email`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) List(ctx context.Context) ([]domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.UserRepo.List: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.UserRepo.List: scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.UserRepo.List: rows: %w", err)
	}
	return users, nil
}

func (r *pgUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) (domain.User, error) {
	const q = `
		UPDATE users
		SET role = @role
		WHERE id = @id
		RETURNING ` + userColumns

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "role": role}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.UpdateRole: %w", err)
	}
	return result, nil
}

// scanUser maps a single database row into a domain.User.
// It handles the UUID conversion through pgtype.
func scanUser(s scanner) (domain.User, error) {
	var (
		u  domain.User
		id pgtype.UUID
	)
	err := s.Scan(&id, &u.Email, &u.PasswordHash, &u.Name, &u.Address, &u.Phone, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	u.ID = uuid.UUID(id.Bytes)
	return u, nil
}
