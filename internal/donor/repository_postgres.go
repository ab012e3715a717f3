package donor

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/db"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/names"
)

type PostgresRepository struct {
	store *db.Store
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	listDonorsForUserQuery = `
		SELECT d.id, d.first_name, d.last_name, d.other_last_name, d.alt_names, du.relation
		FROM donors d
		INNER JOIN donors_users du ON du.donor_id = d.id
		WHERE du.user_id = $1
		ORDER BY du.relation, d.last_name, d.first_name
	`
	listDonorsQuery = `
		SELECT id, first_name, last_name, other_last_name, alt_names
		FROM donors
		ORDER BY last_name, first_name
	`
	// ORDER BY id keeps match results in insertion order so the matcher is
	// deterministic.
	listDonorsByLastNameQuery = `
		SELECT id, first_name, last_name, other_last_name, alt_names
		FROM donors
		WHERE last_name = $1
		ORDER BY id
	`
	getDonorByIDQuery = `
		SELECT id, first_name, last_name, other_last_name, alt_names
		FROM donors
		WHERE id = $1
	`
	insertDonorQuery = `
		INSERT INTO donors (first_name, last_name, alt_names)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	updateDonorQuery = `
		UPDATE donors
		SET first_name = $1,
			last_name = $2,
			alt_names = $3
		WHERE id = $4
	`
	deleteDonorQuery = `DELETE FROM donors WHERE id = $1`

	// Re-tracking a donor already on the user's list refreshes the relation
	// instead of duplicating the link row.
	insertLinkQuery = `
		INSERT INTO donors_users (donor_id, user_id, relation)
		VALUES ($1, $2, $3)
		ON CONFLICT (donor_id, user_id) DO UPDATE SET relation = EXCLUDED.relation
	`
	updateLinkQuery = `
		UPDATE donors_users
		SET relation = $1
		WHERE donor_id = $2 AND user_id = $3
	`
	deleteLinkQuery = `DELETE FROM donors_users WHERE donor_id = $1 AND user_id = $2`

	// Serial user ids start at 1, so excluding id 0 excludes nobody.
	trackingUsersQuery = `
		SELECT coalesce(array_agg(u.first_name || ' ' || left(u.last_name, 1) ORDER BY u.last_name, u.first_name), '{}')
		FROM users u
		INNER JOIN donors_users du ON du.user_id = u.id
		WHERE du.donor_id = $1 AND u.id <> $2
	`
)

func NewPostgresRepository(store *db.Store) *PostgresRepository {
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) ListForUser(userID int) ([]Donor, error) {
	rows, err := r.store.Query(listDonorsForUserQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donors := make([]Donor, 0)
	for rows.Next() {
		d, err := scanDonorWithRelation(rows)
		if err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}

	return donors, rows.Err()
}

func (r *PostgresRepository) List() ([]Donor, error) {
	return r.queryDonors(listDonorsQuery)
}

func (r *PostgresRepository) ListByLastName(lastName string) ([]Donor, error) {
	return r.queryDonors(listDonorsByLastNameQuery, lastName)
}

func (r *PostgresRepository) queryDonors(query string, args ...any) ([]Donor, error) {
	rows, err := r.store.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donors := make([]Donor, 0)
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}

	return donors, rows.Err()
}

func (r *PostgresRepository) GetByID(id int) (Donor, error) {
	d, err := scanDonor(r.store.QueryRow(getDonorByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Donor{}, ErrNotFound
		}
		return Donor{}, err
	}
	return d, nil
}

// CreateForUser inserts the donor and its first user link in one
// transaction, so a crash can never leave an orphaned donor.
func (r *PostgresRepository) CreateForUser(d Donor, userID int, relation string) (Donor, error) {
	tx, err := r.store.Begin()
	if err != nil {
		return Donor{}, err
	}

	var id int
	err = tx.QueryRow(insertDonorQuery, d.FirstName, d.LastName, names.FormatStoredAltNames(d.AltNames)).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		return Donor{}, err
	}

	if _, err := tx.Exec(insertLinkQuery, id, userID, relation); err != nil {
		_ = tx.Rollback()
		return Donor{}, err
	}

	if err := tx.Commit(); err != nil {
		return Donor{}, err
	}

	d.ID = id
	return d, nil
}

func (r *PostgresRepository) Update(d Donor) error {
	result, err := r.store.Exec(updateDonorQuery, d.FirstName, d.LastName, names.FormatStoredAltNames(d.AltNames), d.ID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *PostgresRepository) Delete(id int) error {
	result, err := r.store.Exec(deleteDonorQuery, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *PostgresRepository) Link(donorID, userID int, relation string) error {
	_, err := r.store.Exec(insertLinkQuery, donorID, userID, relation)
	return err
}

func (r *PostgresRepository) UpdateLink(donorID, userID int, relation string) error {
	result, err := r.store.Exec(updateLinkQuery, relation, donorID, userID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *PostgresRepository) Unlink(donorID, userID int) error {
	result, err := r.store.Exec(deleteLinkQuery, donorID, userID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *PostgresRepository) OtherTrackingUsers(donorID, excludeUserID int) ([]string, error) {
	var users pq.StringArray
	if err := r.store.QueryRow(trackingUsersQuery, donorID, excludeUserID).Scan(&users); err != nil {
		return nil, err
	}
	return []string(users), nil
}

func (r *PostgresRepository) TrackingUsers(donorID int) ([]string, error) {
	return r.OtherTrackingUsers(donorID, 0)
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

func scanDonor(scanner rowScanner) (Donor, error) {
	d := Donor{}
	var otherLastName sql.NullString
	var altNames sql.NullString

	if err := scanner.Scan(&d.ID, &d.FirstName, &d.LastName, &otherLastName, &altNames); err != nil {
		return Donor{}, err
	}

	if otherLastName.Valid {
		d.OtherLastName = otherLastName.String
	}
	d.AltNames = names.ParseStoredAltNames(altNames.String)

	return d, nil
}

func scanDonorWithRelation(scanner rowScanner) (Donor, error) {
	d := Donor{}
	var otherLastName sql.NullString
	var altNames sql.NullString
	var relation sql.NullString

	if err := scanner.Scan(&d.ID, &d.FirstName, &d.LastName, &otherLastName, &altNames, &relation); err != nil {
		return Donor{}, err
	}

	if otherLastName.Valid {
		d.OtherLastName = otherLastName.String
	}
	d.AltNames = names.ParseStoredAltNames(altNames.String)
	d.Relation = relation.String

	return d, nil
}
