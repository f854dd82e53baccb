// Package commenttree rewrites nested comment trees without mutating them.
//
// Every update returns a new slice for each level on the path from the root
// to the matched node. Subtrees off that path are shared with the input, so
// callers that compare by identity only see the changed branch.
package commenttree

import (
	"slices"

	"leetclone/internal/models"
)

// InsertReply appends reply to the replies of the comment with targetID,
// wherever it sits in the tree. The bool reports whether the target was
// found; when it is false the input tree is returned as is.
func InsertReply(tree []models.Comment, targetID string, reply models.Comment) ([]models.Comment, bool) {
	return rewrite(tree, targetID, func(c models.Comment) models.Comment {
		replies := make([]models.Comment, len(c.Replies), len(c.Replies)+1)
		copy(replies, c.Replies)
		c.Replies = append(replies, reply)
		return c
	})
}

// ToggleLike adds userID to the likes of the comment with targetID, or
// removes it when already present.
func ToggleLike(tree []models.Comment, targetID, userID string) ([]models.Comment, bool) {
	return rewrite(tree, targetID, func(c models.Comment) models.Comment {
		c.Likes = toggle(c.Likes, userID)
		return c
	})
}

// RemoveComment drops the comment with targetID from the immediate
// container only. Nested replies are not searched.
func RemoveComment(container []models.Comment, targetID string) ([]models.Comment, bool) {
	idx := slices.IndexFunc(container, func(c models.Comment) bool { return c.ID == targetID })
	if idx < 0 {
		return container, false
	}
	out := make([]models.Comment, 0, len(container)-1)
	out = append(out, container[:idx]...)
	out = append(out, container[idx+1:]...)
	return out, true
}

// Find returns the comment with id anywhere in the tree.
func Find(tree []models.Comment, id string) (models.Comment, bool) {
	for _, c := range tree {
		if c.ID == id {
			return c, true
		}
		if found, ok := Find(c.Replies, id); ok {
			return found, true
		}
	}
	return models.Comment{}, false
}

// IDs lists every comment id in the tree, depth first.
func IDs(tree []models.Comment) []string {
	var ids []string
	var walk func([]models.Comment)
	walk = func(level []models.Comment) {
		for _, c := range level {
			ids = append(ids, c.ID)
			walk(c.Replies)
		}
	}
	walk(tree)
	return ids
}

// ToggleMember flips membership of id in likes and returns a new slice.
func ToggleMember(likes []string, id string) []string {
	return toggle(likes, id)
}

func rewrite(tree []models.Comment, targetID string, fn func(models.Comment) models.Comment) ([]models.Comment, bool) {
	for i, c := range tree {
		if c.ID == targetID {
			out := slices.Clone(tree)
			out[i] = fn(c)
			return out, true
		}
		if len(c.Replies) == 0 {
			continue
		}
		if replies, ok := rewrite(c.Replies, targetID, fn); ok {
			out := slices.Clone(tree)
			c.Replies = replies
			out[i] = c
			return out, true
		}
	}
	return tree, false
}

func toggle(likes []string, id string) []string {
	if slices.Contains(likes, id) {
		out := make([]string, 0, len(likes))
		for _, l := range likes {
			if l != id {
				out = append(out, l)
			}
		}
		return out
	}
	out := make([]string, len(likes), len(likes)+1)
	copy(out, likes)
	return append(out, id)
}
