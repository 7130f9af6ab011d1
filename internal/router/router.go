package router

import (
	"nsreddit/internal/handlers"
	"nsreddit/internal/identity"
	"nsreddit/internal/middleware"
	"nsreddit/internal/utils"
	"nsreddit/internal/votes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps carries everything the handlers need. Nil interface fields mark
// features that are not configured; their routes answer 500.
type Deps struct {
	Forum      handlers.ForumStore
	Moderation handlers.ModerationStore
	Profiles   handlers.ProfileStore

	// SessionAuth resolves cookie sessions; APIAuth resolves bearer tokens
	// of the JSON API.
	SessionAuth identity.Authenticator
	APIAuth     identity.Authenticator
	Deleter     handlers.AccountDeleter
	Tokens      handlers.TokenForgetter
	AuthClient  handlers.AuthClientConfig

	Uploader       handlers.Uploader
	MaxUploadBytes int64

	Registry *votes.Registry
	Cache    *utils.Cache
	Log      *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	threadHandler := handlers.NewThreadHandler(d.Forum, d.Uploader, d.Registry, d.Cache, d.MaxUploadBytes, d.Log)
	voteHandler := handlers.NewVoteHandler(d.Forum, d.Registry, d.Cache, d.Log)
	authHandler := handlers.NewAuthHandler(d.SessionAuth, d.Profiles, d.Tokens, d.Registry, d.AuthClient, d.Log)
	profileHandler := handlers.NewProfileHandler(d.Profiles, d.Log)
	adminHandler := handlers.NewAdminHandler(d.APIAuth, d.Moderation, d.Log)
	accountHandler := handlers.NewAccountHandler(d.APIAuth, d.Deleter, d.Tokens, d.Registry, d.Log)
	uploadHandler := handlers.NewUploadHandler(d.Uploader, d.MaxUploadBytes, d.Log)

	r.NoRoute(handlers.NotFound)

	// Public routes
	r.GET("/", threadHandler.List)                            // thread list
	r.GET("/thread/:id", threadHandler.Detail)                // thread with comments
	r.GET("/u/:id", profileHandler.Public)                    // public profile
	r.GET("/guidelines", handlers.Guidelines)                 // community guidelines
	r.GET("/comments-guidelines", handlers.CommentGuidelines) // commenting guidelines
	r.GET("/robots.txt", handlers.RobotsTxt)                  // crawler policy
	r.POST("/vote/:type/:id/:dir", voteHandler.Vote)          // answers signed-out callers with a redirect

	r.GET("/auth", authHandler.ShowAuth)               // sign-in page
	r.POST("/auth/session", authHandler.CreateSession) // exchange provider token for a session
	r.POST("/auth/signout", authHandler.SignOut)       // end the session

	// Protected routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/new", threadHandler.ShowCreate)                     // new thread form
		authorized.POST("/new", threadHandler.Create)                        // submit new thread
		authorized.POST("/thread/:id/comments", threadHandler.CreateComment) // comment or reply
		authorized.POST("/thread/:id/delete", threadHandler.Delete)          // author soft delete
		authorized.POST("/comments/:id/delete", threadHandler.DeleteComment) // author soft delete
		authorized.GET("/profile", profileHandler.Show)                      // own profile form
		authorized.POST("/profile", profileHandler.Update)                   // save own profile
		authorized.GET("/mod", adminHandler.Mod)                             // moderation dashboard
	}

	// JSON API, authenticated by bearer token
	api := r.Group("/api")
	{
		api.POST("/delete-account", accountHandler.DeleteAccount)
		api.POST("/admin/threads/remove", adminHandler.RemoveThread)
		api.POST("/admin/comments/remove", adminHandler.RemoveComment)
		api.POST("/upload", uploadHandler.Upload)
	}
}
