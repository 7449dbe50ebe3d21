package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hakobgh/socialmedia/model"
	Logger "github.com/hakobgh/socialmedia/utils/log"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrEmptyPost    = errors.New("post text must not be empty")
)

// GormPostStore is the Postgres backed PostStore. Reaction toggles are issued
// as single UPDATE statements over the text[] reaction columns so concurrent
// toggles from different users never lose updates to each other.
type GormPostStore struct {
	db  *gorm.DB
	bus ChangeBus
}

func NewGormPostStore(db *gorm.DB, bus ChangeBus) *GormPostStore {
	return &GormPostStore{db: db, bus: bus}
}

func (s *GormPostStore) CreatePost(ctx context.Context, post *model.Post) error {
	if post.Text == "" {
		return ErrEmptyPost
	}
	post.Id = uuid.New().String()
	post.PublishedAt = time.Now().UTC()
	if post.LikedIDs == nil {
		post.LikedIDs = pq.StringArray{}
	}
	if post.DislikedIDs == nil {
		post.DislikedIDs = pq.StringArray{}
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return errors.Wrap(err, "fail to create post")
	}
	return nil
}

func (s *GormPostStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	queryResult := s.db.WithContext(ctx).Where("id = ?", id).First(&post)
	if queryResult.RowsAffected != 1 {
		return nil, ErrPostNotFound
	}
	return &post, nil
}

func (s *GormPostStore) ListPosts(ctx context.Context, query PostQuery) ([]*model.Post, error) {
	var posts []*model.Post

	tx := s.db.WithContext(ctx).Model(&model.Post{})
	if query.AuthorUID != "" {
		// Single author feeds combine the author filter with the cursor
		// ordering, served by the compound (user_uid, cursor) index.
		tx = tx.Where("user_uid = ?", query.AuthorUID)
	}
	if query.After != nil {
		tx = tx.Where("posts.cursor < ?", query.After.Cursor)
	}
	// Sort key and page bound are both the cursor. Sorting by publish time
	// instead could skip a row whose timestamp and cursor commit out of order
	// under concurrent creates.
	queryResult := tx.
		Order("posts.cursor desc").
		Limit(query.Limit).
		Find(&posts)
	if queryResult.Error != nil {
		return nil, errors.Wrap(queryResult.Error, "fail to list posts")
	}
	return posts, nil
}

func (s *GormPostStore) DeletePost(ctx context.Context, id string) error {
	queryResult := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Post{})
	if queryResult.Error != nil {
		return errors.Wrap(queryResult.Error, "fail to delete post")
	}
	if queryResult.RowsAffected != 1 {
		return ErrPostNotFound
	}
	s.publish(&model.PostChange{PostId: id, Type: model.PostChangeTypeDeleted})
	return nil
}

func (s *GormPostStore) ToggleLike(ctx context.Context, postId string, userUID string) (*model.Post, error) {
	// From liked drop the like, otherwise add it and clear any dislike. One
	// statement, so two users toggling the same post cannot lose each other's
	// reaction.
	return s.toggleReaction(ctx, postId, userUID, `
		UPDATE posts SET
			liked_ids = CASE WHEN ? = ANY(liked_ids)
				THEN array_remove(liked_ids, ?)
				ELSE array_append(liked_ids, ?) END,
			disliked_ids = array_remove(disliked_ids, ?)
		WHERE id = ? AND deleted_at IS NULL
		RETURNING liked_ids, disliked_ids`)
}

func (s *GormPostStore) ToggleDislike(ctx context.Context, postId string, userUID string) (*model.Post, error) {
	return s.toggleReaction(ctx, postId, userUID, `
		UPDATE posts SET
			disliked_ids = CASE WHEN ? = ANY(disliked_ids)
				THEN array_remove(disliked_ids, ?)
				ELSE array_append(disliked_ids, ?) END,
			liked_ids = array_remove(liked_ids, ?)
		WHERE id = ? AND deleted_at IS NULL
		RETURNING liked_ids, disliked_ids`)
}

func (s *GormPostStore) toggleReaction(ctx context.Context, postId string, userUID string, stmt string) (*model.Post, error) {
	var row struct {
		LikedIDs    pq.StringArray `gorm:"type:text[]"`
		DislikedIDs pq.StringArray `gorm:"type:text[]"`
	}
	queryResult := s.db.WithContext(ctx).
		Raw(stmt, userUID, userUID, userUID, userUID, postId).
		Scan(&row)
	if queryResult.Error != nil {
		return nil, errors.Wrap(queryResult.Error, "fail to update post reactions")
	}
	if queryResult.RowsAffected != 1 {
		return nil, ErrPostNotFound
	}

	post := &model.Post{Id: postId, LikedIDs: row.LikedIDs, DislikedIDs: row.DislikedIDs}
	s.publish(&model.PostChange{
		PostId:      postId,
		Type:        model.PostChangeTypeUpdated,
		LikedIDs:    row.LikedIDs,
		DislikedIDs: row.DislikedIDs,
	})
	return post, nil
}

// publish pushes the change to live watchers. A failed push is logged and
// dropped, watchers converge on the next successful event.
func (s *GormPostStore) publish(change *model.PostChange) {
	if err := s.bus.Publish(change); err != nil {
		Logger.Log.Warn("fail to publish post change for post: ", change.PostId, " err: ", err)
	}
}
