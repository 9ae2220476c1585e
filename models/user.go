package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username    string             `bson:"username" json:"username"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"`
	IsSuperuser bool               `bson:"is_superuser" json:"isSuperuser"`
	IsStaff     bool               `bson:"is_staff" json:"isStaff"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}

const (
	UserTypeAdmin    = "admin"
	UserTypeEmployee = "employee"
)

// Profile always exists for a user. It is created in the same operation as
// the user itself, admin when the user carries a superuser or staff flag.
type Profile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	UserType    string             `bson:"user_type" json:"userType"`
	PhoneNumber string             `bson:"phone_number,omitempty" json:"phoneNumber,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
