package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a channel owner / viewer account stored in MongoDB
type User struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username    string             `json:"username" bson:"username"`
	Email       string             `json:"email" bson:"email"`
	FullName    string             `json:"fullName" bson:"fullName"`
	Avatar      string             `json:"avatar,omitempty" bson:"avatar,omitempty"`
	CoverImage  string             `json:"coverImage,omitempty" bson:"coverImage,omitempty"`
	Password    string             `json:"-" bson:"password,omitempty"`                        // bcrypt hash
	FirebaseUID string             `json:"firebaseUid,omitempty" bson:"firebaseUid,omitempty"` // Link to Firebase User UID
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// UserCompact is the public summary embedded in notifications and listings
type UserCompact struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar,omitempty"`
}

// ToCompact returns the public summary of the user
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:       u.ID.Hex(),
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}

// DisplayName prefers the full name and falls back to the username
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

type CreateLocalUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required,min=2,max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	FullName   string `json:"fullName,omitempty" validate:"omitempty,min=2,max=50"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Avatar     string `json:"avatar,omitempty" validate:"omitempty,url"`
	CoverImage string `json:"coverImage,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
