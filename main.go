package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mohammedsw45/blue-basks/clients"
	"github.com/mohammedsw45/blue-basks/handlers"
	"github.com/mohammedsw45/blue-basks/logging"
	"github.com/mohammedsw45/blue-basks/middleware"
	"github.com/mohammedsw45/blue-basks/services"
)

func main() {
	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting blue-basks backend...")

	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "blue_basks"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	usersCollection := db.Collection("users")
	profilesCollection := db.Collection("profiles")
	projectsCollection := db.Collection("projects")
	teamsCollection := db.Collection("teams")
	groupsCollection := db.Collection("groups")
	membersCollection := db.Collection("members")
	tasksCollection := db.Collection("tasks")
	stepsCollection := db.Collection("steps")

	notifications := clients.NewNotificationClient(os.Getenv("NOTIFICATIONS_URL"))

	authService := services.NewAuthService(membersCollection)
	userService := services.NewUserService(client, usersCollection, profilesCollection, authService)
	memberService := services.NewMemberService(membersCollection, teamsCollection, usersCollection, authService, notifications)
	projectService := services.NewProjectService(client, projectsCollection, teamsCollection, membersCollection, tasksCollection, stepsCollection, authService, notifications)
	teamService := services.NewTeamService(client, teamsCollection, groupsCollection, projectsCollection, membersCollection, tasksCollection, stepsCollection, memberService, authService)
	taskService := services.NewTaskService(client, tasksCollection, stepsCollection, teamsCollection, membersCollection, projectsCollection, authService, notifications)
	stepService := services.NewStepService(client, stepsCollection, tasksCollection, teamsCollection, projectsCollection, authService)

	userHandler := handlers.NewUserHandler(userService)
	loginHandler := handlers.NewLoginHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService)
	teamHandler := handlers.NewTeamHandler(teamService)
	memberHandler := handlers.NewMemberHandler(memberService)
	taskHandler := handlers.NewTaskHandler(taskService)
	stepHandler := handlers.NewStepHandler(stepService)

	r := mux.NewRouter()

	// Public: registration and login.
	r.HandleFunc("/api/register", userHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/login", loginHandler.Login).Methods(http.MethodPost)

	// Everything else requires a valid token.
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuthMiddleware)

	api.HandleFunc("/users", userHandler.GetAllUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/profile", userHandler.GetProfile).Methods(http.MethodGet)

	api.HandleFunc("/projects", projectHandler.CreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects", projectHandler.GetAllProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects/{projectID}", projectHandler.GetProjectByID).Methods(http.MethodGet)
	api.HandleFunc("/projects/{projectID}", projectHandler.UpdateProject).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{projectID}", projectHandler.DeleteProject).Methods(http.MethodDelete)

	api.HandleFunc("/teams", teamHandler.CreateTeam).Methods(http.MethodPost)
	api.HandleFunc("/teams", teamHandler.GetAllTeams).Methods(http.MethodGet)
	api.HandleFunc("/teams/my-teams", teamHandler.GetMyTeams).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamID}", teamHandler.GetTeamByID).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamID}", teamHandler.UpdateTeam).Methods(http.MethodPatch)
	api.HandleFunc("/teams/{teamID}", teamHandler.DeleteTeam).Methods(http.MethodDelete)
	api.HandleFunc("/teams/{teamID}/tasks", taskHandler.GetTasksByTeam).Methods(http.MethodGet)

	api.HandleFunc("/members", memberHandler.AddMember).Methods(http.MethodPost)
	api.HandleFunc("/members", memberHandler.GetAllMembers).Methods(http.MethodGet)
	api.HandleFunc("/members/{memberID}", memberHandler.GetMemberByID).Methods(http.MethodGet)
	api.HandleFunc("/members/{memberID}", memberHandler.UpdateMember).Methods(http.MethodPatch)
	api.HandleFunc("/members/{memberID}", memberHandler.RemoveMember).Methods(http.MethodDelete)

	api.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks", taskHandler.GetAllTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{taskID}", taskHandler.GetTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{taskID}", taskHandler.UpdateTask).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{taskID}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{taskID}/steps", stepHandler.GetStepsByTask).Methods(http.MethodGet)

	api.HandleFunc("/steps", stepHandler.CreateStep).Methods(http.MethodPost)
	api.HandleFunc("/steps/{stepID}", stepHandler.GetStep).Methods(http.MethodGet)
	api.HandleFunc("/steps/{stepID}", stepHandler.UpdateStep).Methods(http.MethodPatch)
	api.HandleFunc("/steps/{stepID}", stepHandler.DeleteStep).Methods(http.MethodDelete)

	corsRouter := middleware.EnableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
