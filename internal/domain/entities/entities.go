package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors
var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidImage       = errors.New("invalid image")
	ErrImageTooLarge      = errors.New("image too large")
)

// ValidationError lists the submitted fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Fields, ", "))
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Document is the whole persisted JSON object.
type Document struct {
	Users       []User       `json:"users"`
	Restaurants []Restaurant `json:"restaurants"`
	Reviews     []Review     `json:"reviews"`
	Images      []Image      `json:"images"`

	Extra map[string]json.RawMessage `json:"-"`
}

type documentFields Document

// UnmarshalJSON keeps top-level keys other than the four collections in Extra.
func (d *Document) UnmarshalJSON(data []byte) error {
	extra, err := decodeWithExtra(data, (*documentFields)(d))
	if err != nil {
		return err
	}
	d.Extra = extra
	return nil
}

// MarshalJSON writes Extra back after the collections.
func (d Document) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(documentFields(d), d.Extra)
}

// NewDocument returns a document with four empty collections.
func NewDocument() *Document {
	return &Document{
		Users:       []User{},
		Restaurants: []Restaurant{},
		Reviews:     []Review{},
		Images:      []Image{},
	}
}

// User represents a visitor who can leave reviews
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	Extra map[string]json.RawMessage `json:"-"`
}

type userFields User

// UnmarshalJSON keeps keys the struct does not know in Extra.
func (u *User) UnmarshalJSON(data []byte) error {
	extra, err := decodeWithExtra(data, (*userFields)(u))
	if err != nil {
		return err
	}
	u.Extra = extra
	return nil
}

// MarshalJSON writes Extra back and leaves out an unset created_at.
func (u User) MarshalJSON() ([]byte, error) {
	out := struct {
		userFields
		CreatedAt *time.Time `json:"created_at,omitempty"`
	}{userFields: userFields(u)}
	if !u.CreatedAt.IsZero() {
		out.CreatedAt = &u.CreatedAt
	}
	return encodeWithExtra(out, u.Extra)
}

// Restaurant represents a listed restaurant
type Restaurant struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description"`

	Extra map[string]json.RawMessage `json:"-"`
}

type restaurantFields Restaurant

// UnmarshalJSON keeps keys the struct does not know in Extra.
func (r *Restaurant) UnmarshalJSON(data []byte) error {
	extra, err := decodeWithExtra(data, (*restaurantFields)(r))
	if err != nil {
		return err
	}
	r.Extra = extra
	return nil
}

// MarshalJSON writes Extra back.
func (r Restaurant) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(restaurantFields(r), r.Extra)
}

// Review is a rating and comment attached to a restaurant.
// Rating keeps the submitted JSON value as-is; it is never validated as a number.
type Review struct {
	ID           int             `json:"id"`
	UserID       int             `json:"user_id"`
	RestaurantID int             `json:"restaurant_id"`
	Rating       json.RawMessage `json:"rating"`
	Comment      string          `json:"comment"`

	Extra map[string]json.RawMessage `json:"-"`
}

type reviewFields Review

// UnmarshalJSON keeps keys the struct does not know in Extra and compacts
// the rating so it compares equal after a reload.
func (r *Review) UnmarshalJSON(data []byte) error {
	extra, err := decodeWithExtra(data, (*reviewFields)(r))
	if err != nil {
		return err
	}
	r.Extra = extra
	if len(r.Rating) > 0 {
		if r.Rating, err = compactJSON(r.Rating); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON writes Extra back.
func (r Review) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(reviewFields(r), r.Extra)
}

// RatingText renders the rating for display, unquoting string values.
func (r Review) RatingText() string {
	if len(r.Rating) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Rating, &s); err == nil {
		return s
	}
	return string(r.Rating)
}

// RatingValue encodes an arbitrary submitted value as a compact review rating.
func RatingValue(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return CompactRating(raw)
	}
	b, err := encodeJSON(v)
	if err != nil {
		return nil, fmt.Errorf("encode rating: %w", err)
	}
	return json.RawMessage(b), nil
}

// CompactRating strips insignificant whitespace from a raw rating.
func CompactRating(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	compact, err := compactJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("encode rating: %w", err)
	}
	return compact, nil
}

// Image is an uploaded picture of a restaurant
type Image struct {
	ID           int       `json:"id"`
	RestaurantID int       `json:"restaurant_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`

	Extra map[string]json.RawMessage `json:"-"`
}

type imageFields Image

// UnmarshalJSON keeps keys the struct does not know in Extra.
func (i *Image) UnmarshalJSON(data []byte) error {
	extra, err := decodeWithExtra(data, (*imageFields)(i))
	if err != nil {
		return err
	}
	i.Extra = extra
	return nil
}

// MarshalJSON writes Extra back and leaves out an unset uploaded_at.
func (i Image) MarshalJSON() ([]byte, error) {
	out := struct {
		imageFields
		UploadedAt *time.Time `json:"uploaded_at,omitempty"`
	}{imageFields: imageFields(i)}
	if !i.UploadedAt.IsZero() {
		out.UploadedAt = &i.UploadedAt
	}
	return encodeWithExtra(out, i.Extra)
}

// ReviewWithRestaurant is a review joined with its restaurant's name.
type ReviewWithRestaurant struct {
	Review
	Restaurant string `json:"restaurant"`
}

// MarshalJSON adds the restaurant name to the review's own keys. Without it
// the promoted Review.MarshalJSON would drop the name.
func (r ReviewWithRestaurant) MarshalJSON() ([]byte, error) {
	name, err := encodeJSON(r.Restaurant)
	if err != nil {
		return nil, err
	}
	extra := make(map[string]json.RawMessage, len(r.Extra)+1)
	for k, v := range r.Extra {
		extra[k] = v
	}
	extra["restaurant"] = name
	return encodeWithExtra(reviewFields(r.Review), extra)
}

// UnmarshalJSON takes the restaurant name back out of the review's extra keys.
func (r *ReviewWithRestaurant) UnmarshalJSON(data []byte) error {
	if err := r.Review.UnmarshalJSON(data); err != nil {
		return err
	}
	name, ok := r.Extra["restaurant"]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(name, &r.Restaurant); err != nil {
		return err
	}
	delete(r.Extra, "restaurant")
	if len(r.Extra) == 0 {
		r.Extra = nil
	}
	return nil
}

// RestaurantDetail is a restaurant together with its reviews and images.
type RestaurantDetail struct {
	Restaurant Restaurant `json:"restaurant"`
	Reviews    []Review   `json:"reviews"`
	Images     []Image    `json:"images"`
}
