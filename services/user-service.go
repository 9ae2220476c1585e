package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mohammedsw45/blue-basks/apperrors"
	"github.com/mohammedsw45/blue-basks/auth"
	"github.com/mohammedsw45/blue-basks/logging"
	"github.com/mohammedsw45/blue-basks/models"
	"github.com/mohammedsw45/blue-basks/utils"
)

type UserService struct {
	Client             *mongo.Client
	UsersCollection    *mongo.Collection
	ProfilesCollection *mongo.Collection
	Auth               *AuthService
}

func NewUserService(client *mongo.Client, usersCollection, profilesCollection *mongo.Collection, authService *AuthService) *UserService {
	return &UserService{
		Client:             client,
		UsersCollection:    usersCollection,
		ProfilesCollection: profilesCollection,
		Auth:               authService,
	}
}

type RegisterUserInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	IsSuperuser bool   `json:"isSuperuser"`
	IsStaff     bool   `json:"isStaff"`
}

// RegisterUser creates a user together with its profile in one transaction.
// A user always ends up with exactly one profile, typed admin when the user
// carries a superuser or staff flag.
func (s *UserService) RegisterUser(ctx context.Context, input RegisterUserInput) (*models.Profile, error) {
	count, err := s.UsersCollection.CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to check existing users: %v", err)
	}
	if count > 0 {
		return nil, apperrors.New(apperrors.ValidationFailed, "This Email already exists!")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	now := time.Now()
	user := models.User{
		ID:          primitive.NewObjectID(),
		Username:    html.EscapeString(input.Username),
		Email:       html.EscapeString(input.Email),
		Password:    hashedPassword,
		IsSuperuser: input.IsSuperuser,
		IsStaff:     input.IsStaff,
		CreatedAt:   now,
	}

	userType := models.UserTypeEmployee
	if user.IsSuperuser || user.IsStaff {
		userType = models.UserTypeAdmin
	}
	profile := models.Profile{
		ID:          primitive.NewObjectID(),
		UserID:      user.ID,
		UserType:    userType,
		PhoneNumber: input.PhoneNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	session, err := s.Client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := s.UsersCollection.InsertOne(sessCtx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %v", err)
		}
		if _, err := s.ProfilesCollection.InsertOne(sessCtx, profile); err != nil {
			return nil, fmt.Errorf("failed to create profile: %v", err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: Registered user %s with %s profile", user.Email, profile.UserType)
	return &profile, nil
}

// Authenticate checks credentials and returns the user for token issuance.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.UsersCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.Unauthenticated, "invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %v", err)
	}

	if !utils.CheckPassword(user.Password, password) {
		return nil, apperrors.New(apperrors.Unauthenticated, "invalid email or password")
	}
	return &user, nil
}

func (s *UserService) GetAllUsers(ctx context.Context, actor auth.Actor) ([]models.User, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	cursor, err := s.UsersCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, nil
}

// GetProfile returns the actor's own profile; admins may read any profile.
func (s *UserService) GetProfile(ctx context.Context, actor auth.Actor, userID primitive.ObjectID) (*models.Profile, error) {
	if userID != actor.ID && !auth.IsAdmin(actor) {
		return nil, apperrors.New(apperrors.Forbidden, "You do not have permission to access this profile.")
	}

	var profile models.Profile
	err := s.ProfilesCollection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.NotFound, "profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %v", err)
	}
	return &profile, nil
}
