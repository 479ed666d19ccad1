package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yuaoi107/yuyi/pkg/model"
)

func (h handler) createPodcast(c *gin.Context) {
	req := &model.PodcastCreate{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	podcast, err := h.podcasts.Create(c.Request.Context(), login(c), req)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusCreated, podcast)
}

func (h handler) getPodcast(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	podcast, err := h.podcasts.Get(c.Request.Context(), id)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, podcast)
}

func (h handler) listPodcasts(c *gin.Context) {
	offset, limit := paging(c)
	authorID, _ := strconv.ParseInt(c.Query("author_id"), 10, 64)

	podcasts, err := h.podcasts.List(c.Request.Context(), authorID, offset, limit)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, podcasts)
}

func (h handler) updatePodcast(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	req := &model.PodcastUpdate{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	podcast, err := h.podcasts.Update(c.Request.Context(), login(c), id, req)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, podcast)
}

func (h handler) deletePodcast(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	if err := h.podcasts.Delete(c.Request.Context(), login(c), id); err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "podcast deleted"})
}

func (h handler) getPodcastCover(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	file, err := h.podcasts.Cover(c.Request.Context(), id)
	if err != nil {
		h.error(c, err)
		return
	}

	h.serveFile(c, file, "")
}

func (h handler) putPodcastCover(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	filename, _, file, ok := upload(c)
	if !ok {
		return
	}
	defer file.Close()

	if err := h.podcasts.UpdateCover(c.Request.Context(), login(c), id, filename, file); err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "cover changed"})
}

func (h handler) getPodcastFeed(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	file, err := h.podcasts.Feed(c.Request.Context(), id)
	if err != nil {
		h.error(c, err)
		return
	}

	h.serveFile(c, file, "application/rss+xml; charset=utf-8")
}
