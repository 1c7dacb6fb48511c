package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID                   primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Name                 string               `json:"name" bson:"name"`
	Email                string               `json:"email" bson:"email"`
	Password             string               `json:"-" bson:"password"`
	Role                 string               `json:"role" bson:"role"`
	Provider             string               `json:"provider,omitempty" bson:"provider,omitempty"`
	GoogleID             string               `json:"-" bson:"googleId,omitempty"`
	Avatar               string               `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Wishlist             []primitive.ObjectID `json:"wishlist" bson:"wishlist"`
	ResetPasswordToken   string               `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time           `json:"-" bson:"resetPasswordExpires,omitempty"`
	CreatedAt            time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// PublicUser is the shape returned by auth endpoints and admin listings.
type PublicUser struct {
	ID        primitive.ObjectID `json:"_id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Role      string             `json:"role"`
	Avatar    string             `json:"avatar,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50,personname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128,strongpassword"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	GuestID  string `json:"guestId"`
}

type GoogleAuthRequest struct {
	TokenID string `json:"tokenId" binding:"required"`
	GuestID string `json:"guestId"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=128,strongpassword"`
}

type WishlistRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type AuthResponse struct {
	User  PublicUser `json:"user"`
	Token string     `json:"token"`
}

type AdminCreateUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Role     string `json:"role" binding:"omitempty,oneof=customer admin"`
}

type AdminUpdateUserRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=2,max=50"`
	Email *string `json:"email" binding:"omitempty,email"`
	Role  *string `json:"role" binding:"omitempty,oneof=customer admin"`
}
