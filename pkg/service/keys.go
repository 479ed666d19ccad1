package service

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Asset store keys are namespaced by owner so that all objects of a user
// or podcast live under one prefix.

func avatarKey(userID int64, filename string) string {
	return fmt.Sprintf("users/%d/avatar/%s", userID, uniqueName(filename))
}

func podcastCoverKey(authorID, podcastID int64, filename string) string {
	return fmt.Sprintf("users/%d/podcasts/%d/cover/%s", authorID, podcastID, uniqueName(filename))
}

func episodeCoverKey(authorID, podcastID, episodeID int64, filename string) string {
	return fmt.Sprintf("users/%d/podcasts/%d/episodes/%d/cover/%s", authorID, podcastID, episodeID, uniqueName(filename))
}

func episodeAudioKey(authorID, podcastID, episodeID int64, filename string) string {
	return fmt.Sprintf("users/%d/podcasts/%d/episodes/%d/enclosure/%s", authorID, podcastID, episodeID, uniqueName(filename))
}

// uniqueName keeps the original extension but replaces the name with a
// random identifier, so uploads can never collide or traverse paths.
func uniqueName(filename string) string {
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	return name + path.Ext(filename)
}
