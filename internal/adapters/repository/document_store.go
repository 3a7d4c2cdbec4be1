package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/restoreview/core/internal/domain/entities"
	"github.com/restoreview/core/internal/ports"
)

// SaveObserver is called after every attempt to flush the document.
type SaveObserver func(op string, duration time.Duration, err error)

// Option configures a DocumentStore.
type Option func(*DocumentStore)

// WithAtomicWrite makes Save write a temp file and rename it over the target.
func WithAtomicWrite(enabled bool) Option {
	return func(s *DocumentStore) {
		s.atomicWrite = enabled
	}
}

// WithSaveObserver registers a callback invoked after each save.
func WithSaveObserver(observer SaveObserver) Option {
	return func(s *DocumentStore) {
		s.observer = observer
	}
}

// DocumentStore keeps every collection in memory and mirrors it to one JSON file.
// The file is read once by NewDocumentStore and rewritten in full after each mutation.
type DocumentStore struct {
	path        string
	atomicWrite bool
	observer    SaveObserver

	mu  sync.RWMutex
	doc *entities.Document
}

var _ ports.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore creates the store and loads the backing file.
func NewDocumentStore(path string, opts ...Option) (*DocumentStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	s := &DocumentStore{path: path}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Load replaces the in-memory document with the file contents. A missing file
// yields four empty collections.
func (s *DocumentStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.doc = entities.NewDocument()
			return nil
		}
		return fmt.Errorf("failed to read document %s: %w", s.path, err)
	}

	doc := entities.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse document %s: %w", s.path, err)
	}
	normalize(doc)

	s.doc = doc
	return nil
}

// Save writes the whole document back to disk.
func (s *DocumentStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save("save")
}

// save expects s.mu to be held.
func (s *DocumentStore) save(op string) error {
	start := time.Now()
	err := s.write()
	if s.observer != nil {
		s.observer(op, time.Since(start), err)
	}
	return err
}

func (s *DocumentStore) write() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(s.doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if !s.atomicWrite {
		if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write document %s: %w", s.path, err)
		}
		return nil
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write temp document %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace document %s: %w", s.path, err)
	}
	return nil
}

// Path returns the backing file location.
func (s *DocumentStore) Path() string {
	return s.path
}

// Stats returns collection sizes.
func (s *DocumentStore) Stats() ports.DocumentStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ports.DocumentStats{
		Users:       len(s.doc.Users),
		Restaurants: len(s.doc.Restaurants),
		Reviews:     len(s.doc.Reviews),
		Images:      len(s.doc.Images),
	}
}

// Snapshot returns a deep enough copy of the document for comparison and export.
func (s *DocumentStore) Snapshot() entities.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entities.Document{
		Users:       clone(s.doc.Users),
		Restaurants: clone(s.doc.Restaurants),
		Reviews:     clone(s.doc.Reviews),
		Images:      clone(s.doc.Images),
		Extra:       s.doc.Extra,
	}
}

// ListRestaurants returns restaurants in insertion order.
func (s *DocumentStore) ListRestaurants() []entities.Restaurant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.doc.Restaurants)
}

// FindRestaurantByID returns the restaurant with the given id.
func (s *DocumentStore) FindRestaurantByID(id int) (entities.Restaurant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.doc.Restaurants {
		if r.ID == id {
			return r, true
		}
	}
	return entities.Restaurant{}, false
}

// FindRestaurantByName returns the first restaurant with an exactly matching name.
func (s *DocumentStore) FindRestaurantByName(name string) (entities.Restaurant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.doc.Restaurants {
		if r.Name == name {
			return r, true
		}
	}
	return entities.Restaurant{}, false
}

// AddRestaurant assigns the next id, appends and persists.
func (s *DocumentStore) AddRestaurant(name, address, description string) (entities.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := entities.Restaurant{
		ID:          nextID(s.doc.Restaurants, func(r entities.Restaurant) int { return r.ID }),
		Name:        name,
		Address:     address,
		Description: description,
	}
	s.doc.Restaurants = append(s.doc.Restaurants, r)

	// The append stays in memory even when the write fails.
	if err := s.save("add_restaurant"); err != nil {
		return r, err
	}
	return r, nil
}

// ListReviews returns reviews in insertion order.
func (s *DocumentStore) ListReviews() []entities.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.doc.Reviews)
}

// ListReviewsFor returns the reviews of one restaurant in insertion order.
func (s *DocumentStore) ListReviewsFor(restaurantID int) []entities.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reviews := []entities.Review{}
	for _, r := range s.doc.Reviews {
		if r.RestaurantID == restaurantID {
			reviews = append(reviews, r)
		}
	}
	return reviews
}

// AddReview assigns the next id, appends and persists. Neither userID nor
// restaurantID is checked against existing records.
func (s *DocumentStore) AddReview(userID, restaurantID int, rating json.RawMessage, comment string) (entities.Review, error) {
	rating, err := entities.CompactRating(rating)
	if err != nil {
		return entities.Review{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := entities.Review{
		ID:           nextID(s.doc.Reviews, func(r entities.Review) int { return r.ID }),
		UserID:       userID,
		RestaurantID: restaurantID,
		Rating:       rating,
		Comment:      comment,
	}
	s.doc.Reviews = append(s.doc.Reviews, r)

	if err := s.save("add_review"); err != nil {
		return r, err
	}
	return r, nil
}

// ListUsers returns users in insertion order.
func (s *DocumentStore) ListUsers() []entities.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.doc.Users)
}

// FindUserByUsername returns the first user whose name matches case-insensitively.
func (s *DocumentStore) FindUserByUsername(username string) (entities.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findUser(username)
}

func (s *DocumentStore) findUser(username string) (entities.User, bool) {
	for _, u := range s.doc.Users {
		if strings.EqualFold(u.Username, username) {
			return u, true
		}
	}
	return entities.User{}, false
}

// AddUser appends the record and persists. A zero id is replaced with the next one.
func (s *DocumentStore) AddUser(user entities.User) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(user)
}

// AddUniqueUser is AddUser that fails with entities.ErrUserExists when the
// username is already taken. The check and the append happen under one lock.
func (s *DocumentStore) AddUniqueUser(user entities.User) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.findUser(user.Username); taken {
		return entities.User{}, fmt.Errorf("%w: %s", entities.ErrUserExists, user.Username)
	}
	return s.addUser(user)
}

func (s *DocumentStore) addUser(user entities.User) (entities.User, error) {
	if user.ID == 0 {
		user.ID = nextID(s.doc.Users, func(u entities.User) int { return u.ID })
	}
	s.doc.Users = append(s.doc.Users, user)

	if err := s.save("add_user"); err != nil {
		return user, err
	}
	return user, nil
}

// ListImages returns images in insertion order.
func (s *DocumentStore) ListImages() []entities.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.doc.Images)
}

// ListImagesFor returns the images of one restaurant in insertion order.
func (s *DocumentStore) ListImagesFor(restaurantID int) []entities.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	images := []entities.Image{}
	for _, img := range s.doc.Images {
		if img.RestaurantID == restaurantID {
			images = append(images, img)
		}
	}
	return images
}

// AddImage appends the record and persists. A zero id is replaced with the next one.
func (s *DocumentStore) AddImage(image entities.Image) (entities.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if image.ID == 0 {
		image.ID = nextID(s.doc.Images, func(i entities.Image) int { return i.ID })
	}
	s.doc.Images = append(s.doc.Images, image)

	if err := s.save("add_image"); err != nil {
		return image, err
	}
	return image, nil
}

// nextID returns max(existing ids, default 0) + 1.
func nextID[T any](items []T, id func(T) int) int {
	maxID := 0
	for _, item := range items {
		if v := id(item); v > maxID {
			maxID = v
		}
	}
	return maxID + 1
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// normalize turns collections absent from the file into empty ones.
func normalize(doc *entities.Document) {
	if doc.Users == nil {
		doc.Users = []entities.User{}
	}
	if doc.Restaurants == nil {
		doc.Restaurants = []entities.Restaurant{}
	}
	if doc.Reviews == nil {
		doc.Reviews = []entities.Review{}
	}
	if doc.Images == nil {
		doc.Images = []entities.Image{}
	}
}
