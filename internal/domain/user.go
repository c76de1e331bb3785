package domain

// User Model
type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`                                    // Primary key
	Email        string  `gorm:"unique;not null" json:"email"`                            // Unique login email
	PasswordHash string  `gorm:"not null" json:"-"`                                       // Bcrypt hash, never serialized
	FullName     string  `gorm:"not null" json:"full_name"`                               // Display name
	AvatarURL    string  `json:"avatar_url"`                                              // Optional profile picture
	Balance      float64 `gorm:"type:decimal(10,2);not null;default:0" json:"balance"`    // Available (spendable) wallet balance
	RatingAvg    float64 `gorm:"type:decimal(3,2);not null;default:0" json:"rating_avg"`  // Mean of all review ratings targeting this user
	RatingCount  int64   `gorm:"not null;default:0" json:"rating_count"`                  // Number of reviews received
	CreatedAt    int64   `gorm:"autoCreateTime:milli" json:"created_at"`                  // Timestamp of creation in milliseconds
}
