package server

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hakobgh/socialmedia/auth"
	"github.com/hakobgh/socialmedia/model"
	"github.com/hakobgh/socialmedia/server/middlewares"
	"github.com/hakobgh/socialmedia/storage"
	"github.com/hakobgh/socialmedia/store"
	"github.com/hakobgh/socialmedia/utils"
	Logger "github.com/hakobgh/socialmedia/utils/log"
	"github.com/pkg/errors"
)

// Server bundles the external collaborators every handler needs. Sessions may
// be nil, handlers then fall back to the profile store.
type Server struct {
	Auth          auth.Provider
	Users         store.UserStore
	Posts         store.PostStore
	Bus           store.ChangeBus
	PostImages    storage.ImageStore
	ProfileImages storage.ImageStore
	Sessions      *utils.RedisSessionStore
}

// RegisterRoutes attaches all handlers to the router. authenticated is the
// group already carrying the JWT middleware.
func (s *Server) RegisterRoutes(router *gin.Engine, authenticated *gin.RouterGroup) {
	router.POST("/register", s.Register)
	router.POST("/login", s.Login)
	router.POST("/reset-password", s.ResetPassword)

	authenticated.POST("/logout", s.Logout)
	authenticated.DELETE("/account", s.DeleteAccount)
	authenticated.GET("/users", s.SearchUsers)
	authenticated.GET("/users/:uid", s.GetUser)
	authenticated.POST("/posts", s.CreatePost)
	authenticated.DELETE("/posts/:id", s.DeletePost)
	authenticated.POST("/posts/:id/like", s.LikePost)
	authenticated.POST("/posts/:id/dislike", s.DislikePost)
	authenticated.GET("/feed", s.Feed)
}

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Username     string `json:"username"`
	UserBio      string `json:"user_bio"`
	UserBioLink  string `json:"user_bio_link"`
	ProfileImage string `json:"profile_image"`
}

func (s *Server) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		badRequest(c, "email, password and username are required")
		return
	}

	ctx := c.Request.Context()
	uid, err := s.Auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": utils.ErrorAuthFailure, "msg": err.Error()})
		return
	}

	profileUrl := ""
	if req.ProfileImage != "" {
		data, err := base64.StdEncoding.DecodeString(req.ProfileImage)
		if err != nil {
			badRequest(c, "profile_image is not valid base64")
			return
		}
		profileUrl, err = s.ProfileImages.Upload(storage.ProfileImageKey(uid), data)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorStorageFailure, "msg": err.Error()})
			return
		}
	}

	user := &model.User{
		Id:             uid,
		Username:       req.Username,
		UserBio:        req.UserBio,
		UserBioLink:    req.UserBioLink,
		UserEmail:      req.Email,
		UserProfileUrl: profileUrl,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorDocumentFailure, "msg": err.Error()})
		return
	}

	token, _, err := s.Auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": utils.ErrorAuthFailure, "msg": err.Error()})
		return
	}
	s.cacheSession(user)

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	token, uid, err := s.Auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": utils.ErrorAuthFailure, "msg": err.Error()})
		return
	}

	user, err := s.Users.GetUser(ctx, uid)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorDocumentFailure, "msg": err.Error()})
		return
	}
	s.cacheSession(user)

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Server) Logout(c *gin.Context) {
	uid := c.GetString(middlewares.ContextUID)
	token := c.GetString(middlewares.ContextToken)

	if err := s.Auth.SignOut(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorAuthFailure, "msg": err.Error()})
		return
	}
	s.dropSession(uid)
	c.JSON(http.StatusOK, gin.H{"msg": "signed out"})
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Server) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		badRequest(c, "email is required")
		return
	}
	if err := s.Auth.ResetPassword(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorAuthFailure, "msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "password reset started"})
}

func (s *Server) DeleteAccount(c *gin.Context) {
	uid := c.GetString(middlewares.ContextUID)
	token := c.GetString(middlewares.ContextToken)
	ctx := c.Request.Context()

	user, err := s.Users.GetUser(ctx, uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": utils.ErrorNotFound, "msg": err.Error()})
		return
	}
	if user.UserProfileUrl != "" {
		if err := s.ProfileImages.Delete(storage.ProfileImageKey(uid)); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorStorageFailure, "msg": err.Error()})
			return
		}
	}
	if err := s.Users.DeleteUser(ctx, uid); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorDocumentFailure, "msg": err.Error()})
		return
	}
	if err := s.Auth.DeleteAccount(ctx, token); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorAuthFailure, "msg": err.Error()})
		return
	}
	s.dropSession(uid)
	c.JSON(http.StatusOK, gin.H{"msg": "account deleted"})
}

func (s *Server) SearchUsers(c *gin.Context) {
	prefix := c.Query("q")
	if prefix == "" {
		c.JSON(http.StatusOK, gin.H{"users": []*model.User{}})
		return
	}
	users, err := s.Users.SearchUsers(c.Request.Context(), prefix)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorDocumentFailure, "msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) GetUser(c *gin.Context) {
	user, err := s.Users.GetUser(c.Request.Context(), c.Param("uid"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": utils.ErrorNotFound, "msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type createPostRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

func (s *Server) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Text == "" {
		badRequest(c, "post text must not be empty")
		return
	}

	uid := c.GetString(middlewares.ContextUID)
	ctx := c.Request.Context()
	session := s.lookupSession(ctx, uid)
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": utils.ErrorNotFound, "msg": "unknown author profile"})
		return
	}

	post := &model.Post{
		Text:           req.Text,
		UserName:       session.Username,
		UserUID:        uid,
		UserProfileUrl: session.ProfileUrl,
	}
	if req.Image != "" {
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			badRequest(c, "image is not valid base64")
			return
		}
		// The key is generated before the upload so the row can reference it.
		key := storage.NewPostImageKey(uid)
		url, err := s.PostImages.Upload(key, data)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorStorageFailure, "msg": err.Error()})
			return
		}
		post.ImageUrl = url
		post.ImageReferenceId = key
	}

	if err := s.Posts.CreatePost(ctx, post); err != nil {
		// The uploaded image is orphaned here, accepted and not rolled back.
		Logger.Log.Warn("post create failed after image upload, key: ", post.ImageReferenceId, " err: ", err)
		c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorDocumentFailure, "msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (s *Server) DeletePost(c *gin.Context) {
	uid := c.GetString(middlewares.ContextUID)
	ctx := c.Request.Context()

	post, err := s.Posts.GetPost(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": utils.ErrorNotFound, "msg": err.Error()})
		return
	}
	if post.UserUID != uid {
		c.JSON(http.StatusForbidden, gin.H{"code": utils.ErrorNotPostOwner, "msg": "only the author can delete a post"})
		return
	}

	// Empty reference id is the "no image" sentinel, nothing to delete then.
	if post.ImageReferenceId != "" {
		if err := s.PostImages.Delete(post.ImageReferenceId); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorStorageFailure, "msg": err.Error()})
			return
		}
	}
	if err := s.Posts.DeletePost(ctx, post.Id); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorDocumentFailure, "msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "post deleted"})
}

func (s *Server) LikePost(c *gin.Context) {
	s.toggleReaction(c, s.Posts.ToggleLike)
}

func (s *Server) DislikePost(c *gin.Context) {
	s.toggleReaction(c, s.Posts.ToggleDislike)
}

func (s *Server) toggleReaction(c *gin.Context, toggle func(ctx context.Context, postId string, userUID string) (*model.Post, error)) {
	uid := c.GetString(middlewares.ContextUID)
	post, err := toggle(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": utils.ErrorNotFound, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorDocumentFailure, "msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post_id":      post.Id,
		"liked_ids":    post.LikedIDs,
		"disliked_ids": post.DislikedIDs,
	})
}

// lookupSession reads the cached session for uid, falling back to the
// profile store on a miss.
func (s *Server) lookupSession(ctx context.Context, uid string) *utils.CachedSession {
	if s.Sessions != nil {
		session, err := s.Sessions.GetSession(uid)
		if err == nil && session != nil {
			return session
		}
	}
	user, err := s.Users.GetUser(ctx, uid)
	if err != nil {
		return nil
	}
	session := &utils.CachedSession{UserUID: user.Id, Username: user.Username, ProfileUrl: user.UserProfileUrl}
	s.cacheSession(user)
	return session
}

func (s *Server) cacheSession(user *model.User) {
	if s.Sessions == nil {
		return
	}
	err := s.Sessions.PutSession(&utils.CachedSession{
		UserUID:    user.Id,
		Username:   user.Username,
		ProfileUrl: user.UserProfileUrl,
	})
	if err != nil {
		Logger.Log.Warn("fail to cache session for uid: ", user.Id, " err: ", err)
	}
}

func (s *Server) dropSession(uid string) {
	if s.Sessions == nil {
		return
	}
	if err := s.Sessions.DeleteSession(uid); err != nil {
		Logger.Log.Warn("fail to drop session for uid: ", uid, " err: ", err)
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidRequest, "msg": msg})
}
