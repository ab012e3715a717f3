package donor

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("donor not found")

// Repository provides access to donors and their user links.
type Repository interface {
	ListForUser(userID int) ([]Donor, error)
	List() ([]Donor, error)
	ListByLastName(lastName string) ([]Donor, error)
	GetByID(id int) (Donor, error)
	CreateForUser(d Donor, userID int, relation string) (Donor, error)
	Update(d Donor) error
	Delete(id int) error
	Link(donorID, userID int, relation string) error
	UpdateLink(donorID, userID int, relation string) error
	Unlink(donorID, userID int) error
	OtherTrackingUsers(donorID, excludeUserID int) ([]string, error)
	TrackingUsers(donorID int) ([]string, error)
}

type link struct {
	donorID  int
	userID   int
	relation string
}

// InMemoryRepository is used for tests and the local dev server. UserNames
// maps user ids to display names for the tracking-users queries, which join
// against users in the Postgres implementation.
type InMemoryRepository struct {
	mu        sync.RWMutex
	donors    []Donor
	links     []link
	userNames map[int]string
	nextID    int
}

func NewInMemoryRepository(seed []Donor, userNames map[int]string) *InMemoryRepository {
	repo := &InMemoryRepository{
		donors:    make([]Donor, 0, len(seed)),
		userNames: userNames,
		nextID:    1,
	}

	maxID := 0
	for _, d := range seed {
		repo.donors = append(repo.donors, d)
		if d.ID > maxID {
			maxID = d.ID
		}
	}
	repo.nextID = maxID + 1

	return repo
}

func (r *InMemoryRepository) ListForUser(userID int) ([]Donor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	donors := make([]Donor, 0)
	for _, l := range r.links {
		if l.userID != userID {
			continue
		}
		for _, d := range r.donors {
			if d.ID == l.donorID {
				d.Relation = l.relation
				donors = append(donors, d)
				break
			}
		}
	}

	sort.SliceStable(donors, func(i, j int) bool {
		if donors[i].Relation != donors[j].Relation {
			return donors[i].Relation < donors[j].Relation
		}
		if donors[i].LastName != donors[j].LastName {
			return donors[i].LastName < donors[j].LastName
		}
		return donors[i].FirstName < donors[j].FirstName
	})

	return donors, nil
}

func (r *InMemoryRepository) List() ([]Donor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	donors := make([]Donor, len(r.donors))
	copy(donors, r.donors)

	sort.SliceStable(donors, func(i, j int) bool {
		if donors[i].LastName != donors[j].LastName {
			return donors[i].LastName < donors[j].LastName
		}
		return donors[i].FirstName < donors[j].FirstName
	})

	return donors, nil
}

// ListByLastName keeps insertion order, mirroring the Postgres query's
// ORDER BY id.
func (r *InMemoryRepository) ListByLastName(lastName string) ([]Donor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	donors := make([]Donor, 0)
	for _, d := range r.donors {
		if d.LastName == lastName {
			donors = append(donors, d)
		}
	}

	sort.SliceStable(donors, func(i, j int) bool { return donors[i].ID < donors[j].ID })
	return donors, nil
}

func (r *InMemoryRepository) GetByID(id int) (Donor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.donors {
		if d.ID == id {
			return d, nil
		}
	}
	return Donor{}, ErrNotFound
}

func (r *InMemoryRepository) CreateForUser(d Donor, userID int, relation string) (Donor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.ID == 0 {
		d.ID = r.nextID
		r.nextID++
	}
	r.donors = append(r.donors, d)
	r.links = append(r.links, link{donorID: d.ID, userID: userID, relation: relation})

	return d, nil
}

func (r *InMemoryRepository) Update(update Donor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, d := range r.donors {
		if d.ID == update.ID {
			d.FirstName = update.FirstName
			d.LastName = update.LastName
			d.AltNames = update.AltNames
			r.donors[i] = d
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, d := range r.donors {
		if d.ID == id {
			r.donors = append(r.donors[:i], r.donors[i+1:]...)
			remaining := r.links[:0]
			for _, l := range r.links {
				if l.donorID != id {
					remaining = append(remaining, l)
				}
			}
			r.links = remaining
			return nil
		}
	}
	return ErrNotFound
}

// Link upserts: re-tracking a donor already on the user's list refreshes the
// relation instead of duplicating the link.
func (r *InMemoryRepository) Link(donorID, userID int, relation string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, l := range r.links {
		if l.donorID == donorID && l.userID == userID {
			r.links[i].relation = relation
			return nil
		}
	}

	r.links = append(r.links, link{donorID: donorID, userID: userID, relation: relation})
	return nil
}

func (r *InMemoryRepository) UpdateLink(donorID, userID int, relation string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, l := range r.links {
		if l.donorID == donorID && l.userID == userID {
			r.links[i].relation = relation
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) Unlink(donorID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, l := range r.links {
		if l.donorID == donorID && l.userID == userID {
			r.links = append(r.links[:i], r.links[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) OtherTrackingUsers(donorID, excludeUserID int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0)
	for _, l := range r.links {
		if l.donorID != donorID || l.userID == excludeUserID {
			continue
		}
		users = append(users, r.displayName(l.userID))
	}
	sort.Strings(users)
	return users, nil
}

func (r *InMemoryRepository) TrackingUsers(donorID int) ([]string, error) {
	return r.OtherTrackingUsers(donorID, 0)
}

func (r *InMemoryRepository) displayName(userID int) string {
	if name, ok := r.userNames[userID]; ok {
		return name
	}
	return fmt.Sprintf("User %d", userID)
}
