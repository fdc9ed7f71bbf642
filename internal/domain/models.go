// Package domain defines the persistence models for users, the geographic
// hierarchy, subscriptions, outages, and sent-notification records. These
// types are mapped with GORM and form the core data layer of the outage
// notifier.
package domain

import "time"

// User represents a messaging end-user identified by their external chat ID.
// Inactive users are excluded from matching; the flag is cleared by the
// dispatcher when the gateway reports a permanent delivery failure.
//
// Fields:
//   - ChatID: stable external identifier assigned by the messaging platform.
//   - Username: display name, may be empty.
//   - Language: two-letter preferred language code.
//   - Active: delivery eligibility flag.
type User struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	ChatID    int64     `json:"chat_id"    gorm:"not null;uniqueIndex"`
	Username  string    `json:"username"   gorm:"type:varchar(255)"`
	Language  string    `json:"language"   gorm:"type:varchar(2);not null;default:'fr'"`
	Active    bool      `json:"active"     gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// District is the top level of the geographic hierarchy. Identity is the
// unique name; rows are created lazily by the normalizer on first reference.
type District struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for District.
func (District) TableName() string { return "districts" }

// Locality belongs to exactly one district. Identity is the (name, district)
// pair, enforced by a composite unique index so concurrent lookup-or-create
// races collapse onto a single row.
type Locality struct {
	ID         int64     `json:"id"          gorm:"primaryKey;autoIncrement"`
	Name       string    `json:"name"        gorm:"type:varchar(255);not null;uniqueIndex:ux_locality_district,priority:1"`
	DistrictID int64     `json:"district_id" gorm:"not null;index;uniqueIndex:ux_locality_district,priority:2"`
	CreatedAt  time.Time `json:"created_at"`

	District District `json:"-" gorm:"foreignKey:DistrictID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Locality.
func (Locality) TableName() string { return "localities" }

// Subscription registers a user's interest in a single locality. The
// (user, locality) pair is unique. Rows are written only by the external
// subscription-management surface; the engine consumes them read-only.
type Subscription struct {
	ID         int64     `json:"id"          gorm:"primaryKey;autoIncrement"`
	UserID     int64     `json:"user_id"     gorm:"not null;index;uniqueIndex:ux_user_locality,priority:1"`
	LocalityID int64     `json:"locality_id" gorm:"not null;index;uniqueIndex:ux_user_locality,priority:2"`
	CreatedAt  time.Time `json:"created_at"`

	User     User     `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Locality Locality `json:"-" gorm:"foreignKey:LocalityID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Subscription.
func (Subscription) TableName() string { return "subscriptions" }

// Outage is a scheduled utility interruption. The primary key is the
// externally assigned identifier; it is never synthesized locally. FirstSeen
// is immutable after insert, LastChecked is touched on every reconciliation
// pass that observes the same external id.
type Outage struct {
	ID              string    `json:"id"               gorm:"type:varchar(255);primaryKey"`
	LocalityID      int64     `json:"locality_id"      gorm:"not null;index"`
	DistrictID      int64     `json:"district_id"      gorm:"not null;index"`
	Streets         string    `json:"streets"          gorm:"type:text"`
	DateDescription string    `json:"date_description" gorm:"type:text"`
	FromTime        time.Time `json:"from_time"        gorm:"not null"`
	ToTime          time.Time `json:"to_time"          gorm:"not null"`
	FirstSeen       time.Time `json:"first_seen"       gorm:"not null"`
	LastChecked     time.Time `json:"last_checked"     gorm:"not null"`

	Locality Locality `json:"-" gorm:"foreignKey:LocalityID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	District District `json:"-" gorm:"foreignKey:DistrictID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Outage.
func (Outage) TableName() string { return "outages" }

// Expired reports whether the outage validity window has fully passed.
// Staleness is derived at read time; outage rows are never deleted by the
// reconciler so notification history keeps its referential integrity.
func (o Outage) Expired(now time.Time) bool {
	return !now.Before(o.ToTime)
}

// NotificationSent is the durable claim recording a delivery for a
// (user, outage) pair. The composite unique index is the sole source of
// truth for "already notified": inserting the row IS the claim, and a
// unique-constraint rejection means another worker or an earlier cycle
// already delivered.
type NotificationSent struct {
	ID       int64     `json:"id"        gorm:"primaryKey;autoIncrement"`
	UserID   int64     `json:"user_id"   gorm:"not null;uniqueIndex:ux_user_outage,priority:1"`
	OutageID string    `json:"outage_id" gorm:"type:varchar(255);not null;uniqueIndex:ux_user_outage,priority:2"`
	SentAt   time.Time `json:"sent_at"   gorm:"not null"`

	User   User   `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Outage Outage `json:"-" gorm:"foreignKey:OutageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for NotificationSent.
func (NotificationSent) TableName() string { return "notifications_sent" }
