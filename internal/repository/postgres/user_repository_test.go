package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"gatehouse/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userColumns = "id, email, password_hash, first_name, last_name, created_at"

func TestUserRepository_Create(t *testing.T) {
	t.Run("successful_creation", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewUserRepository(db)

		createdAt := time.Now()
		mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO users (email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`)).
			WithArgs("a@x.com", "hashed", "Ada", "Lovelace").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow("user-1", createdAt))

		user := &domain.User{
			Email:        "a@x.com",
			PasswordHash: "hashed",
			FirstName:    "Ada",
			LastName:     "Lovelace",
		}

		err = repo.Create(context.Background(), user)
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
		assert.Equal(t, createdAt, user.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO users (email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		user := &domain.User{Email: "a@x.com", PasswordHash: "hashed"}

		err = repo.Create(context.Background(), user)
		assert.ErrorIs(t, err, domain.ErrEmailExists)
	})

	t.Run("database_error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO users (email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`)).
			WillReturnError(errors.New("connection lost"))

		user := &domain.User{Email: "a@x.com", PasswordHash: "hashed"}

		err = repo.Create(context.Background(), user)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrEmailExists)
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`)).
			WithArgs("a@x.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "first_name", "last_name", "created_at"}).
				AddRow("user-1", "a@x.com", "hashed", "Ada", "Lovelace", time.Now()))

		user, err := repo.GetByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
		assert.Equal(t, "hashed", user.PasswordHash)
	})

	t.Run("not_found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`)).
			WithArgs("nobody@x.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "first_name", "last_name", "created_at"}))

		user, err := repo.GetByEmail(context.Background(), "nobody@x.com")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`)).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "first_name", "last_name", "created_at"}).
				AddRow("user-1", "a@x.com", "hashed", "", "", time.Now()))

		user, err := repo.GetByID(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", user.Email)
	})

	t.Run("not_found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`)).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "first_name", "last_name", "created_at"}))

		user, err := repo.GetByID(context.Background(), "missing")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
