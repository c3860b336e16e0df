package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sampleapi/users-service/internal/auth"
	"github.com/sampleapi/users-service/internal/model"
	"github.com/sampleapi/users-service/internal/pagination"
	"github.com/sampleapi/users-service/internal/service"
	"github.com/sampleapi/users-service/pkg/response"
)

const msgUserCreated = "User was created successfully!"

type UserHandler struct {
	svc     service.UserService
	bounds  pagination.Bounds
	timeout time.Duration
}

func NewUserHandler(svc service.UserService, bounds pagination.Bounds, timeout time.Duration) *UserHandler {
	return &UserHandler{svc: svc, bounds: bounds, timeout: timeout}
}

// Register mounts /users behind authn; each route then checks its own permission.
func (h *UserHandler) Register(r *gin.RouterGroup, authn gin.HandlerFunc) {
	g := r.Group(UsersPath, authn)
	{
		g.GET("", auth.Require(auth.PermReadUser), pagination.Headers(), h.list)
		g.GET("/:id", auth.Require(auth.PermReadUser), h.getByID)
		g.POST("", auth.Require(auth.PermCreateUser), h.create)
		g.PATCH("/:id", auth.Require(auth.PermUpdateUser), h.update)
		g.DELETE("/:id", auth.Require(auth.PermDeleteUser), h.delete)
	}
}

func (h *UserHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// userID parses the path id. A malformed id can never name a stored user, so it is a 404.
func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.WriteError(c, service.ErrUserNotFound)
		return 0, false
	}
	return id, true
}

func (h *UserHandler) list(c *gin.Context) {
	p := pagination.Parse(c.Query("page"), c.Query("limit"), h.bounds)
	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.svc.ListUsers(ctx, p)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	p.Total = res.Total
	pagination.Attach(c, p)
	response.WriteData(c, http.StatusOK, res.Items)
}

func (h *UserHandler) getByID(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.svc.GetUser(ctx, id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, u)
}

func (h *UserHandler) create(c *gin.Context) {
	var vm model.UserViewModel
	if err := c.ShouldBindJSON(&vm); err != nil {
		response.WriteError(c, bindingError(err))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.svc.CreateUser(ctx, vm)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.Header("Location", APIV1Prefix+UsersPath+"/"+strconv.FormatInt(u.ID, 10))
	response.WriteMessage(c, http.StatusCreated, msgUserCreated)
}

func (h *UserHandler) update(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var patch model.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.WriteError(c, bindingError(err))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if _, err := h.svc.UpdateUser(ctx, id, patch); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) delete(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.svc.DeleteUser(ctx, id); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
