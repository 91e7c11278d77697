package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultStatus is assigned to every user at signup.
const DefaultStatus = "I am new!"

// User is the owner of posts. Posts mirrors the ids of every post whose
// creator is this user, oldest first.
type User struct {
	ID          string    `json:"_id" bson:"_id" gorm:"primaryKey;size:36"`
	Email       string    `json:"email" bson:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password    string    `json:"-" bson:"password"`                     // Store hashed password, ignore for JSON serialization
	Name        string    `json:"name" bson:"name"`
	Status      string    `json:"status" bson:"status"`
	FirebaseUID string    `json:"firebase_uid,omitempty" bson:"firebase_uid,omitempty" gorm:"index"` // Link to Firebase User UID
	Posts       []string  `json:"posts" bson:"posts" gorm:"-"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// UserCompact is the public projection of a user embedded in post payloads.
type UserCompact struct {
	ID   string `json:"_id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

// ToCompact returns the public projection of the user.
func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Name: u.Name}
}

// HasPost reports whether postID is in the user's post list.
func (u *User) HasPost(postID string) bool {
	for _, id := range u.Posts {
		if id == postID {
			return true
		}
	}
	return false
}

// UserPost is the postgres row backing User.Posts. Rows are ordered by ID.
type UserPost struct {
	ID     uint   `gorm:"primaryKey"`
	UserID string `gorm:"size:36;uniqueIndex:idx_user_post"`
	PostID string `gorm:"size:36;uniqueIndex:idx_user_post;index"`
}

type SignupRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=5"`
	Name     string `json:"name" form:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type StatusRequest struct {
	Status string `json:"status" form:"status" validate:"max=280"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
