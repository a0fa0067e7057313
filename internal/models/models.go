package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Settings is the global site configuration (singleton, one row)
type Settings struct {
	BaseModel
	// Auto-generated on first boot (64 hex chars)
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"`

	SiteName string `json:"site_name" gorm:"not null;default:'Makao Homes'"`

	// Exchange-rate refresh (cron expression, empty = no auto refresh)
	RatesRefreshSchedule string     `json:"rates_refresh_schedule"`
	LastRatesRefreshAt   *time.Time `json:"last_rates_refresh_at"`
	NextRatesRefreshAt   *time.Time `json:"next_rates_refresh_at"`
}

// User represents a local account (email + password credentials)
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Role values for Profile.Role
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Profile carries the authorization attributes for a user.
// Dashboard access requires role admin or super_admin AND is_active.
type Profile struct {
	BaseModel
	UserID   string `json:"user_id" gorm:"unique;not null"`
	Role     string `json:"role" gorm:"not null;default:'user'"`
	IsActive bool   `json:"is_active" gorm:"not null;default:true"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// IsAdminRole reports whether role grants dashboard access
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// Property types
const (
	PropertyHouse      = "house"
	PropertyApartment  = "apartment"
	PropertyLand       = "land"
	PropertyCommercial = "commercial"
)

// Property represents a real-estate listing. Prices are stored in KES;
// display conversion happens in the currency layer.
type Property struct {
	BaseModel
	Title       string    `json:"title" gorm:"not null"`
	Slug        string    `json:"slug" gorm:"unique;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Location    string    `json:"location" gorm:"not null;index"`
	Type        string    `json:"type" gorm:"not null;index"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	AreaSqm     float64   `json:"area_sqm"`
	PriceKES    float64   `json:"price_kes" gorm:"not null"`
	Featured    bool      `json:"featured" gorm:"not null;default:false"`
	Published   bool      `json:"published" gorm:"not null;default:false;index"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BlogPost is an article on the marketing site
type BlogPost struct {
	BaseModel
	Title       string     `json:"title" gorm:"not null"`
	Slug        string     `json:"slug" gorm:"unique;not null"`
	Excerpt     string     `json:"excerpt"`
	Body        string     `json:"body" gorm:"type:text"`
	Author      string     `json:"author"`
	Published   bool       `json:"published" gorm:"not null;default:false;index"`
	PublishedAt *time.Time `json:"published_at"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// Review is a visitor-submitted testimonial. Reviews are moderated:
// created unapproved, shown publicly only once approved.
type Review struct {
	BaseModel
	AuthorName string `json:"author_name" gorm:"not null"`
	Rating     int    `json:"rating" gorm:"not null"`
	Comment    string `json:"comment" gorm:"type:text"`
	Approved   bool   `json:"approved" gorm:"not null;default:false;index"`
}

// TravelGuide is destination content for the travel section
type TravelGuide struct {
	BaseModel
	Title     string    `json:"title" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"unique;not null"`
	Region    string    `json:"region" gorm:"index"`
	Summary   string    `json:"summary"`
	Body      string    `json:"body" gorm:"type:text"`
	Published bool      `json:"published" gorm:"not null;default:true;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// ContactInquiry is an inbound message from the public contact form
type ContactInquiry struct {
	BaseModel
	Name       string     `json:"name" gorm:"not null"`
	Email      string     `json:"email" gorm:"not null"`
	Phone      string     `json:"phone"`
	Subject    string     `json:"subject"`
	Message    string     `json:"message" gorm:"type:text;not null"`
	PropertyID *string    `json:"property_id" gorm:"index"`
	Handled    bool       `json:"handled" gorm:"not null;default:false;index"`
	NotifiedAt *time.Time `json:"notified_at"`

	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:SET NULL"`
}

// ExchangeRate is one row of the cached rate table, relative to base KES.
// The worker refreshes these; the currency layer reads one snapshot per
// page load.
type ExchangeRate struct {
	BaseModel
	Currency  string    `json:"currency" gorm:"unique;not null"`
	Rate      float64   `json:"rate" gorm:"not null"`
	FetchedAt time.Time `json:"fetched_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Settings{}, &User{}, &Profile{},
		&Property{}, &BlogPost{}, &Review{}, &TravelGuide{},
		&ContactInquiry{}, &ExchangeRate{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
