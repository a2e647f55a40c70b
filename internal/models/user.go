package models

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusDeleted   UserStatus = "deleted"
)

type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `json:"name"`
	Role         UserRole   `gorm:"default:'user'" json:"role"`
	Status       UserStatus `gorm:"default:'active'" json:"status"`
	Phone        string     `json:"phone,omitempty"`
	DeviceToken  string     `json:"-"` // push provider registration token
	Locale       string     `gorm:"default:'en'" json:"locale"`
	Timezone     string     `gorm:"default:'UTC'" json:"timezone"`

	// Owned rows are removed together with the user.
	Notifications []Notification        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Settings      *NotificationSettings `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
