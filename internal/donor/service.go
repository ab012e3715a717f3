package donor

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AddResult describes how an add request was resolved.
type AddResult struct {
	Created bool
	Donor   Donor
	// Matches is set when the candidate is ambiguous and a human has to
	// pick the duplicate before anything is persisted.
	Matches []Donor
}

// FindMatches returns existing donors that likely refer to the same person
// as the candidate: exact last-name matches narrowed by first-name and
// alias overlap. Results keep the repository's insertion order.
func (s *Service) FindMatches(q Query) ([]Donor, error) {
	sameLastName, err := s.repo.ListByLastName(q.LastName)
	if err != nil {
		return nil, err
	}

	matches := make([]Donor, 0, len(sameLastName))
	for _, d := range sameLastName {
		if d.Matches(q) {
			matches = append(matches, d)
		}
	}

	return matches, nil
}

// Add resolves a candidate against the existing roster. No match creates
// and links a new donor, a single match merges the candidate into it, and
// several matches are returned unresolved.
func (s *Service) Add(q Query, userID int) (AddResult, error) {
	matches, err := s.FindMatches(q)
	if err != nil {
		return AddResult{}, err
	}

	switch len(matches) {
	case 0:
		created, err := s.CreateNew(q, userID)
		if err != nil {
			return AddResult{}, err
		}
		return AddResult{Created: true, Donor: created}, nil
	case 1:
		merged, err := s.mergeInto(matches[0], q, userID)
		if err != nil {
			return AddResult{}, err
		}
		return AddResult{Donor: merged}, nil
	default:
		return AddResult{Matches: matches}, nil
	}
}

// CreateNew adds the candidate as a brand-new donor linked to the user,
// used when no match exists or the user rejected every suggestion.
func (s *Service) CreateNew(q Query, userID int) (Donor, error) {
	return s.repo.CreateForUser(Donor{
		FirstName: q.FirstName,
		LastName:  q.LastName,
		AltNames:  q.AltNames,
	}, userID, q.Relation)
}

// Confirm re-enters the merge path against a donor the user picked off the
// disambiguation page.
func (s *Service) Confirm(donorID int, q Query, userID int) (Donor, error) {
	target, err := s.repo.GetByID(donorID)
	if err != nil {
		return Donor{}, err
	}
	return s.mergeInto(target, q, userID)
}

func (s *Service) mergeInto(target Donor, q Query, userID int) (Donor, error) {
	target.MergeAltNames(q)
	if err := s.repo.Update(target); err != nil {
		return Donor{}, err
	}
	if err := s.repo.Link(target.ID, userID, q.Relation); err != nil {
		return Donor{}, err
	}
	return target, nil
}

func (s *Service) ListForUser(userID int) ([]Donor, error) {
	return s.repo.ListForUser(userID)
}

func (s *Service) List() ([]Donor, error) {
	return s.repo.List()
}

func (s *Service) GetByID(id int) (Donor, error) {
	return s.repo.GetByID(id)
}

// EditForUser updates the donor record and the editing user's relation
// label in the same request.
func (s *Service) EditForUser(d Donor, userID int, relation string) error {
	if err := s.repo.Update(d); err != nil {
		return err
	}
	return s.repo.UpdateLink(d.ID, userID, relation)
}

// Edit updates the donor record only, for the admin roster.
func (s *Service) Edit(d Donor) error {
	return s.repo.Update(d)
}

// Remove drops the donor from a user's personal list. The donor record
// itself survives; other users may still track it.
func (s *Service) Remove(donorID, userID int) error {
	return s.repo.Unlink(donorID, userID)
}

// Delete removes a donor from the global roster unconditionally.
func (s *Service) Delete(id int) error {
	return s.repo.Delete(id)
}

func (s *Service) OtherTrackingUsers(donorID, excludeUserID int) ([]string, error) {
	return s.repo.OtherTrackingUsers(donorID, excludeUserID)
}

func (s *Service) TrackingUsers(donorID int) ([]string, error) {
	return s.repo.TrackingUsers(donorID)
}
