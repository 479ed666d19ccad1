package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuaoi107/yuyi/pkg/model"
)

func (h handler) createUser(c *gin.Context) {
	req := &model.UserCreate{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h handler) getUser(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h handler) listUsers(c *gin.Context) {
	offset, limit := paging(c)

	users, err := h.users.List(c.Request.Context(), offset, limit)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h handler) updateUser(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	req := &model.UserUpdate{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Update(c.Request.Context(), login(c), id, req)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h handler) deleteUser(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), login(c), id); err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "user deleted"})
}

func (h handler) getAvatar(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	file, err := h.users.Avatar(c.Request.Context(), id)
	if err != nil {
		h.error(c, err)
		return
	}

	h.serveFile(c, file, "")
}

func (h handler) putAvatar(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	filename, _, file, ok := upload(c)
	if !ok {
		return
	}
	defer file.Close()

	if err := h.users.UpdateAvatar(c.Request.Context(), login(c), id, filename, file); err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "avatar changed"})
}
