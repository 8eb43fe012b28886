package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-accounts/internal/domain"
)

// AccountRepository defines persistence access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]domain.Account, error)
}

const accountColumns = `id, username, email, secondary_email, password_hash, first_name, last_name,
        is_supporter, is_staff, is_active, verified, archived,
        phone_number, state, city, address, zip_code, date_joined, last_login`

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (username, email, secondary_email, password_hash, first_name, last_name,
            is_supporter, is_staff, is_active, verified, archived,
            phone_number, state, city, address, zip_code)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, date_joined`

	return conn(ctx, r.pool).QueryRow(ctx, query,
		account.Username,
		strings.ToLower(account.Email),
		account.SecondaryEmail,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.IsSupporter,
		account.IsStaff,
		account.IsActive,
		account.Verified,
		account.Archived,
		account.PhoneNumber,
		account.State,
		account.City,
		account.Address,
		account.ZipCode,
	).Scan(&account.ID, &account.DateJoined)
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts SET username=$1, email=$2, secondary_email=$3, password_hash=$4,
            first_name=$5, last_name=$6, is_supporter=$7, is_staff=$8, is_active=$9,
            verified=$10, archived=$11, phone_number=$12, state=$13, city=$14,
            address=$15, zip_code=$16, last_login=$17
        WHERE id=$18`

	cmd, err := conn(ctx, r.pool).Exec(ctx, query,
		account.Username,
		strings.ToLower(account.Email),
		account.SecondaryEmail,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.IsSupporter,
		account.IsStaff,
		account.IsActive,
		account.Verified,
		account.Archived,
		account.PhoneNumber,
		account.State,
		account.City,
		account.Address,
		account.ZipCode,
		account.LastLogin,
		account.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the account; tickets and their answers go with it via ON DELETE CASCADE.
func (r *accountRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.fetchSingle(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.fetchSingle(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email=$1`, strings.ToLower(email))
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.fetchSingle(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username=$1`, username)
}

func (r *accountRepository) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return r.fetchSingle(ctx, `SELECT `+accountColumns+` FROM accounts WHERE phone_number=$1`, phone)
}

func (r *accountRepository) EmailInUse(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE email=$1 OR secondary_email=$1)`
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx, query, strings.ToLower(email)).Scan(&exists)
	return exists, err
}

func (r *accountRepository) List(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *account)
	}
	return result, rows.Err()
}

func (r *accountRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Account, error) {
	account, err := scanAccount(conn(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		return nil, notFound(err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.SecondaryEmail,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&account.IsSupporter,
		&account.IsStaff,
		&account.IsActive,
		&account.Verified,
		&account.Archived,
		&account.PhoneNumber,
		&account.State,
		&account.City,
		&account.Address,
		&account.ZipCode,
		&account.DateJoined,
		&account.LastLogin,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
