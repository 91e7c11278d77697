package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// postRow is a post joined with its creator's name.
type postRow struct {
	models.Post `gorm:"embedded"`
	CreatorName string
}

func (p postRow) view() models.PostView {
	return models.PostView{
		Post:    p.Post,
		Creator: models.UserCompact{ID: p.CreatorID, Name: p.CreatorName},
	}
}

func (r *PostgresPostRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("posts").
		Select("posts.*, users.name AS creator_name").
		Joins("LEFT JOIN users ON users.id = posts.creator_id")
}

func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = uuid.NewString()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *PostgresPostRepository) GetPostWithCreator(ctx context.Context, id string) (*models.PostView, error) {
	var rows []postRow
	if err := r.joined(ctx).Where("posts.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	v := rows[0].view()
	return &v, nil
}

func (r *PostgresPostRepository) ListPosts(ctx context.Context, skip, limit int64) ([]models.PostView, error) {
	var rows []postRow
	err := r.joined(ctx).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Offset(int(skip)).
		Limit(int(limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, len(rows))
	for i, row := range rows {
		views[i] = row.view()
	}
	return views, nil
}

func (r *PostgresPostRepository) CountPosts(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error
	return total, err
}

func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]any{
		"title":      post.Title,
		"content":    post.Content,
		"image_url":  post.ImageURL,
		"updated_at": post.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPostRepository) DeletePost(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
