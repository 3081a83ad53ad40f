package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type User struct {
	Username string
	Password string
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, password)
VALUES (?, ?)
RETURNING username, password
`

const getUserByName = `-- name: GetUserByName :one
SELECT username, password
FROM users
WHERE username = ?
LIMIT 1
`

const countUsers = `-- name: CountUsers :one
SELECT count(*)
FROM users
`

type Queries struct {
	db                DBTX
	tx                *sql.Tx
	createUserStmt    *sql.Stmt
	getUserByNameStmt *sql.Stmt
	countUsersStmt    *sql.Stmt
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Prepare returns Queries backed by statements prepared on db.
func Prepare(ctx context.Context, db DBTX) (*Queries, error) {
	q := Queries{db: db}
	var err error
	if q.createUserStmt, err = db.PrepareContext(ctx, createUser); err != nil {
		return nil, fmt.Errorf("error preparing query CreateUser: %w", err)
	}
	if q.getUserByNameStmt, err = db.PrepareContext(ctx, getUserByName); err != nil {
		return nil, errors.Join(fmt.Errorf("error preparing query GetUserByName: %w", err), q.Close())
	}
	if q.countUsersStmt, err = db.PrepareContext(ctx, countUsers); err != nil {
		return nil, errors.Join(fmt.Errorf("error preparing query CountUsers: %w", err), q.Close())
	}
	return &q, nil
}

func (q *Queries) Close() error {
	var errs []error
	for _, stmt := range []*sql.Stmt{q.createUserStmt, q.getUserByNameStmt, q.countUsersStmt} {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db:                tx,
		tx:                tx,
		createUserStmt:    q.createUserStmt,
		getUserByNameStmt: q.getUserByNameStmt,
		countUsersStmt:    q.countUsersStmt,
	}
}

func (q *Queries) queryRow(ctx context.Context, stmt *sql.Stmt, query string, args ...any) *sql.Row {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).QueryRowContext(ctx, args...)
	case stmt != nil:
		return stmt.QueryRowContext(ctx, args...)
	default:
		return q.db.QueryRowContext(ctx, query, args...)
	}
}

type CreateUserParams struct {
	Username string
	Password string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.queryRow(ctx, q.createUserStmt, createUser, arg.Username, arg.Password)
	var i User
	err := row.Scan(&i.Username, &i.Password)
	return i, err
}

func (q *Queries) GetUserByName(ctx context.Context, username string) (User, error) {
	row := q.queryRow(ctx, q.getUserByNameStmt, getUserByName, username)
	var i User
	err := row.Scan(&i.Username, &i.Password)
	return i, err
}

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	row := q.queryRow(ctx, q.countUsersStmt, countUsers)
	var count int64
	err := row.Scan(&count)
	return count, err
}
