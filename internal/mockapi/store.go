package mockapi

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// account is a registered user with its password hash.
type account struct {
	user domain.User
	hash []byte
}

// accessToken is an issued personal access token. Only the hash of the
// secret part is kept.
type accessToken struct {
	id         int
	userID     domain.ID
	deviceName string
	hash       string
	createdAt  time.Time
}

// reservation is a stored reservation and its owner.
type reservation struct {
	domain.Reservation
	userID domain.ID
}

// review is a stored review and its property.
type review struct {
	domain.Review
	propertyID domain.ID
}

// Store holds the backend state in memory. All methods are safe for
// concurrent use.
type Store struct {
	mu sync.RWMutex

	bcryptCost int
	now        func() time.Time

	nextUser        int
	nextToken       int
	nextReservation int
	nextReview      int

	accounts     map[domain.ID]*account
	byEmail      map[string]domain.ID
	tokens       map[int]*accessToken
	properties   []domain.Property
	locations    map[domain.ID][2]string
	reservations map[domain.ID]*reservation
	reviews      []*review

	resetRequests map[string]int
}

// NewStore creates an empty store. cost is the bcrypt cost; values below
// bcrypt.MinCost use bcrypt.DefaultCost.
func NewStore(cost int) *Store {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Store{
		bcryptCost:    cost,
		now:           time.Now,
		accounts:      make(map[domain.ID]*account),
		byEmail:       make(map[string]domain.ID),
		tokens:        make(map[int]*accessToken),
		locations:     make(map[domain.ID][2]string),
		reservations:  make(map[domain.ID]*reservation),
		resetRequests: make(map[string]int),
	}
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers an account. The email must be unused.
func (s *Store) CreateUser(name, email, password string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := normEmail(email)
	if _, ok := s.byEmail[key]; ok {
		return domain.User{}, errEmailTaken
	}
	s.nextUser++
	u := domain.User{
		ID:    domain.ID(strconv.Itoa(s.nextUser)),
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
	}
	s.accounts[u.ID] = &account{user: u, hash: hash}
	s.byEmail[key] = u.ID
	return u, nil
}

// Authenticate checks an email and password.
func (s *Store) Authenticate(email, password string) (domain.User, bool) {
	s.mu.RLock()
	id, ok := s.byEmail[normEmail(email)]
	var acc account
	if ok {
		acc = *s.accounts[id]
	}
	s.mu.RUnlock()

	if !ok {
		return domain.User{}, false
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return domain.User{}, false
	}
	return acc.user, true
}

// User returns the account with the given id.
func (s *Store) User(id domain.ID) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.User{}, false
	}
	return acc.user, true
}

// EmailExists reports whether an account uses email.
func (s *Store) EmailExists(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[normEmail(email)]
	return ok
}

// UpdateUser changes name and email. The email must not belong to another
// account.
func (s *Store) UpdateUser(id domain.ID, name, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return domain.User{}, errNotFound
	}
	key := normEmail(email)
	if owner, taken := s.byEmail[key]; taken && owner != id {
		return domain.User{}, errEmailTaken
	}
	delete(s.byEmail, normEmail(acc.user.Email))
	acc.user.Name = strings.TrimSpace(name)
	acc.user.Email = strings.TrimSpace(email)
	s.byEmail[key] = id
	return acc.user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Store) ChangePassword(id domain.ID, current, next string) error {
	s.mu.RLock()
	acc, ok := s.accounts[id]
	var hash []byte
	if ok {
		hash = acc.hash
	}
	s.mu.RUnlock()
	if !ok {
		return errNotFound
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(current)) != nil {
		return errWrongPassword
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	acc.hash = newHash
	s.mu.Unlock()
	return nil
}

// RequestReset records a password reset request.
func (s *Store) RequestReset(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normEmail(email)
	if _, ok := s.byEmail[key]; !ok {
		return false
	}
	s.resetRequests[key]++
	return true
}

// ResetRequests returns how many resets were requested for email.
func (s *Store) ResetRequests(email string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resetRequests[normEmail(email)]
}

// IssueToken creates a personal access token in the "<id>|<secret>" form.
func (s *Store) IssueToken(userID domain.ID, deviceName string) string {
	secret := strings.ToLower(ulid.Make().String()) + strings.ToLower(ulid.Make().String())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextToken++
	s.tokens[s.nextToken] = &accessToken{
		id:         s.nextToken,
		userID:     userID,
		deviceName: deviceName,
		hash:       hashSecret(secret),
		createdAt:  s.now(),
	}
	return strconv.Itoa(s.nextToken) + "|" + secret
}

// Resolve returns the token id and user for a bearer token.
func (s *Store) Resolve(token string) (int, domain.User, bool) {
	idPart, secret, ok := strings.Cut(token, "|")
	if !ok || secret == "" {
		return 0, domain.User{}, false
	}
	id, err := strconv.Atoi(idPart)
	if err != nil {
		return 0, domain.User{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[id]
	if !ok || t.hash != hashSecret(secret) {
		return 0, domain.User{}, false
	}
	acc, ok := s.accounts[t.userID]
	if !ok {
		return 0, domain.User{}, false
	}
	return id, acc.user, true
}

// RevokeToken deletes a token.
func (s *Store) RevokeToken(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
}

// TokenCount returns the number of live tokens of a user.
func (s *Store) TokenCount(userID domain.ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tokens {
		if t.userID == userID {
			n++
		}
	}
	return n
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// AddProperty stores a listing and its map position. The id is assigned
// when empty.
func (s *Store) AddProperty(p domain.Property, lat, long string) domain.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = domain.ID(strconv.Itoa(len(s.properties) + 1))
	}
	s.properties = append(s.properties, p)
	if lat != "" || long != "" {
		s.locations[p.ID] = [2]string{lat, long}
	}
	return p
}

// Properties returns every listing.
func (s *Store) Properties() []domain.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Property(nil), s.properties...)
}

// Property returns one listing.
func (s *Store) Property(id domain.ID) (domain.Property, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.propertyLocked(id)
}

func (s *Store) propertyLocked(id domain.ID) (domain.Property, bool) {
	for _, p := range s.properties {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Property{}, false
}

// Location returns the stored latitude and longitude strings.
func (s *Store) Location(id domain.ID) (lat, long string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[id]
	return loc[0], loc[1], ok
}

// CreateReservation stores a reservation for userID.
func (s *Store) CreateReservation(userID domain.ID, r domain.NewReservation) (domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prop, ok := s.propertyLocked(r.PropertyID)
	if !ok {
		return domain.Reservation{}, errNotFound
	}
	s.nextReservation++
	res := domain.Reservation{
		ID:           domain.ID(strconv.Itoa(s.nextReservation)),
		PropertyID:   r.PropertyID,
		Description:  r.Description,
		DateReserved: r.DateReserved,
		Status:       r.Status,
		Property:     &prop,
	}
	if res.Status == "" {
		res.Status = domain.ReservationPending
	}
	s.reservations[res.ID] = &reservation{Reservation: res, userID: userID}
	return res, nil
}

// Reservations returns the reservations of userID, oldest first.
func (s *Store) Reservations(userID domain.ID) []domain.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Reservation
	for _, r := range s.reservations {
		if r.userID == userID {
			out = append(out, r.Reservation)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].ID.String())
		b, _ := strconv.Atoi(out[j].ID.String())
		return a < b
	})
	return out
}

// SetReservationStatus changes the status of a reservation, as the owner
// of the property would.
func (s *Store) SetReservationStatus(id domain.ID, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if ok {
		r.Status = status
	}
	return ok
}

// CancelReservation deletes a pending reservation owned by userID.
func (s *Store) CancelReservation(userID, id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || r.userID != userID {
		return errNotFound
	}
	if !r.Cancellable() {
		return errNotCancellable
	}
	delete(s.reservations, id)
	return nil
}

// AddReview stores a review on a property.
func (s *Store) AddReview(propertyID domain.ID, user domain.User, rating int, comment string) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.propertyLocked(propertyID); !ok {
		return domain.Review{}, errNotFound
	}
	s.nextReview++
	u := user
	rv := domain.Review{
		ID:        domain.ID(strconv.Itoa(s.nextReview)),
		Rating:    domain.Decimal(strconv.Itoa(rating)),
		Comment:   comment,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		User:      &u,
	}
	s.reviews = append(s.reviews, &review{Review: rv, propertyID: propertyID})
	return rv, nil
}

// Reviews returns the reviews of a property, oldest first.
func (s *Store) Reviews(propertyID domain.ID) ([]domain.Review, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.propertyLocked(propertyID); !ok {
		return nil, false
	}
	out := make([]domain.Review, 0)
	for _, r := range s.reviews {
		if r.propertyID == propertyID {
			out = append(out, r.Review)
		}
	}
	return out, true
}
