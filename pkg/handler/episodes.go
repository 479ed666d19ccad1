package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuaoi107/yuyi/pkg/model"
)

func (h handler) createEpisode(c *gin.Context) {
	podcastID, ok := param(c, "id")
	if !ok {
		return
	}

	req := &model.EpisodeCreate{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	episode, err := h.episodes.Create(c.Request.Context(), login(c), podcastID, req)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusCreated, episode)
}

func (h handler) getEpisode(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	episode, err := h.episodes.Get(c.Request.Context(), id)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, episode)
}

func (h handler) listEpisodes(c *gin.Context) {
	podcastID, ok := param(c, "id")
	if !ok {
		return
	}

	offset, limit := paging(c)

	episodes, err := h.episodes.List(c.Request.Context(), podcastID, offset, limit)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, episodes)
}

func (h handler) updateEpisode(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	req := &model.EpisodeUpdate{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	episode, err := h.episodes.Update(c.Request.Context(), login(c), id, req)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, episode)
}

func (h handler) deleteEpisode(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	if err := h.episodes.Delete(c.Request.Context(), login(c), id); err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "episode deleted"})
}

func (h handler) getEpisodeCover(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	file, err := h.episodes.Cover(c.Request.Context(), id)
	if err != nil {
		h.error(c, err)
		return
	}

	h.serveFile(c, file, "")
}

func (h handler) putEpisodeCover(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	filename, _, file, ok := upload(c)
	if !ok {
		return
	}
	defer file.Close()

	if err := h.episodes.UpdateCover(c.Request.Context(), login(c), id, filename, file); err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "cover changed"})
}

func (h handler) getEpisodeAudio(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	file, err := h.episodes.Audio(c.Request.Context(), id)
	if err != nil {
		h.error(c, err)
		return
	}

	h.serveFile(c, file, "")
}

func (h handler) putEpisodeAudio(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}

	filename, contentType, file, ok := upload(c)
	if !ok {
		return
	}
	defer file.Close()

	if err := h.episodes.UpdateAudio(c.Request.Context(), login(c), id, filename, contentType, file); err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "audio changed"})
}
