package user

import (
	"database/sql"

	"github.com/matthew-r-clark/crm-donor-duplicates/internal/db"
)

type PostgresRepository struct {
	store *db.Store
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	listUsersQuery = `
		SELECT id, first_name, last_name, email, password, active, admin
		FROM users
		ORDER BY last_name, first_name
	`
	getUserByIDQuery = `
		SELECT id, first_name, last_name, email, password, active, admin
		FROM users
		WHERE id = $1
	`
	getUserByEmailQuery = `
		SELECT id, first_name, last_name, email, password, active, admin
		FROM users
		WHERE email = $1
	`
	insertUserQuery = `
		INSERT INTO users (first_name, last_name, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	updateUserQuery = `
		UPDATE users
		SET first_name = $1,
			last_name = $2,
			email = $3,
			active = $4,
			admin = $5
		WHERE id = $6
	`
	updatePasswordQuery = `UPDATE users SET password = $1 WHERE id = $2`
	deleteUserQuery     = `DELETE FROM users WHERE id = $1`
)

func NewPostgresRepository(store *db.Store) *PostgresRepository {
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) List() ([]User, error) {
	rows, err := r.store.Query(listUsersQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *PostgresRepository) GetByID(id int) (User, error) {
	u, err := scanUser(r.store.QueryRow(getUserByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(email string) (User, error) {
	u, err := scanUser(r.store.QueryRow(getUserByEmailQuery, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(u User) (User, error) {
	var id int
	err := r.store.QueryRow(insertUserQuery, u.FirstName, u.LastName, u.Email, u.Password).Scan(&id)
	if err != nil {
		return User{}, err
	}

	u.ID = id
	u.Active = true
	return u, nil
}

func (r *PostgresRepository) Update(u User) error {
	result, err := r.store.Exec(updateUserQuery, u.FirstName, u.LastName, u.Email, u.Active, u.Admin, u.ID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *PostgresRepository) UpdatePassword(id int, password string) error {
	result, err := r.store.Exec(updatePasswordQuery, password, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *PostgresRepository) Delete(id int) error {
	result, err := r.store.Exec(deleteUserQuery, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(scanner rowScanner) (User, error) {
	u := User{}
	if err := scanner.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Active, &u.Admin); err != nil {
		return User{}, err
	}
	return u, nil
}
