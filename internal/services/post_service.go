package services

import (
	"context"
	"errors"

	"github.com/anonto42/nano-feed/backend/internal/apperror"
	"github.com/anonto42/nano-feed/backend/internal/assets"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/rs/zerolog"
)

// DefaultPageSize is the number of posts per feed page.
const DefaultPageSize = 2

// Broadcaster publishes change events to connected clients.
type Broadcaster interface {
	Emit(name string, payload any) error
}

// PostService owns the post lifecycle: it is the only writer of the link
// between a post and its creator's post list, and it keeps image assets in
// step with the posts that reference them.
type PostService struct {
	store    repositories.Store
	assets   assets.Store
	events   Broadcaster
	log      zerolog.Logger
	pageSize int64
}

func NewPostService(store repositories.Store, assetStore assets.Store, events Broadcaster, log zerolog.Logger, pageSize int64) *PostService {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &PostService{
		store:    store,
		assets:   assetStore,
		events:   events,
		log:      log,
		pageSize: pageSize,
	}
}

// PageSize returns the configured number of posts per page.
func (s *PostService) PageSize() int64 { return s.pageSize }

type CreatePostInput struct {
	Title   string
	Content string
	Image   *assets.Upload
}

// UpdatePostInput carries either a new upload or the reference of the image
// to keep. An accepted upload wins over ImageRef.
type UpdatePostInput struct {
	Title    string
	Content  string
	Image    *assets.Upload
	ImageRef string
}

// ListPosts returns page (1-based) of the feed, newest first, and the total
// number of posts.
func (s *PostService) ListPosts(ctx context.Context, page int64) (*models.PostPage, error) {
	if page < 1 {
		page = 1
	}

	posts := s.store.Posts()
	total, err := posts.CountPosts(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "Could not count posts.", err)
	}
	views, err := posts.ListPosts(ctx, (page-1)*s.pageSize, s.pageSize)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "Could not fetch posts.", err)
	}
	if views == nil {
		views = []models.PostView{}
	}
	return &models.PostPage{Posts: views, TotalItems: total}, nil
}

func (s *PostService) GetPost(ctx context.Context, postID string) (*models.PostView, error) {
	view, err := s.store.Posts().GetPostWithCreator(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.New(apperror.NotFound, "Post not found!")
		}
		return nil, apperror.Wrap(apperror.Internal, "Could not fetch post.", err)
	}
	return view, nil
}

// CreatePost stores the image, then persists the post and appends it to the
// creator's post list in one transaction. If the transaction fails the
// stored image is removed again.
func (s *PostService) CreatePost(ctx context.Context, userID string, in CreatePostInput) (*models.PostView, error) {
	if in.Image == nil {
		return nil, apperror.New(apperror.UploadRejected, "No image provided.")
	}
	ref, err := s.assets.Save(ctx, *in.Image)
	if err != nil {
		if errors.Is(err, assets.ErrRejected) {
			return nil, apperror.New(apperror.UploadRejected, "No image provided.")
		}
		return nil, apperror.Wrap(apperror.Internal, "Error saving image.", err)
	}

	var (
		view    models.PostView
		created string
	)
	err = s.store.RunInTx(ctx, func(ctx context.Context, users repositories.UserRepository, posts repositories.PostRepository) error {
		post := &models.Post{
			Title:     in.Title,
			Content:   in.Content,
			ImageURL:  ref,
			CreatorID: userID,
		}
		if err := posts.CreatePost(ctx, post); err != nil {
			return apperror.Wrap(apperror.Internal, "Error saving Post during creation!", err)
		}
		created = post.ID

		user, err := users.GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperror.New(apperror.NotFound, "Cannot add post to non-existent user!")
			}
			return apperror.Wrap(apperror.Internal, "Error loading creator.", err)
		}
		if err := users.AppendPost(ctx, user.ID, post.ID); err != nil {
			return apperror.Wrap(apperror.Internal, "Error adding post to User during creation!", err)
		}

		view = models.PostView{Post: *post, Creator: user.ToCompact()}
		return nil
	})
	if err != nil {
		if created != "" {
			s.dropPost(ctx, created)
		}
		s.discard(ctx, ref)
		return nil, classify(err)
	}

	s.emit(models.PostEvent{Action: models.ActionCreate, Post: &view})
	return &view, nil
}

// UpdatePost edits title, content and image of a post owned by userID. The
// previous image is removed only after the edit is committed, and only when
// the reference actually changed.
func (s *PostService) UpdatePost(ctx context.Context, userID, postID string, in UpdatePostInput) (*models.PostView, error) {
	if in.Image == nil && in.ImageRef == "" {
		return nil, apperror.New(apperror.UploadRejected, "No file picked.")
	}

	current, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := authorize(&current.Post, userID); err != nil {
		return nil, err
	}
	if in.Image == nil {
		if err := keepsImage(&current.Post, in.ImageRef); err != nil {
			return nil, err
		}
	}

	newRef, uploaded := in.ImageRef, ""
	if in.Image != nil {
		ref, err := s.assets.Save(ctx, *in.Image)
		switch {
		case err == nil:
			newRef, uploaded = ref, ref
		case errors.Is(err, assets.ErrRejected):
			// Falls back to the image reference field, as if no file was sent.
			if in.ImageRef == "" {
				break
			}
			if err := keepsImage(&current.Post, in.ImageRef); err != nil {
				return nil, err
			}
		default:
			return nil, apperror.Wrap(apperror.Internal, "Error saving image.", err)
		}
	}
	if newRef == "" {
		return nil, apperror.New(apperror.UploadRejected, "No file picked.")
	}

	var (
		updated models.Post
		oldRef  string
	)
	err = s.store.RunInTx(ctx, func(ctx context.Context, _ repositories.UserRepository, posts repositories.PostRepository) error {
		post, err := posts.GetPostByID(ctx, postID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperror.New(apperror.NotFound, "Post not found!")
			}
			return apperror.Wrap(apperror.Internal, "Could not fetch post.", err)
		}
		if err := authorize(post, userID); err != nil {
			return err
		}
		if uploaded == "" {
			if err := keepsImage(post, newRef); err != nil {
				return err
			}
			newRef = post.ImageURL
		}

		oldRef = post.ImageURL
		post.Title = in.Title
		post.Content = in.Content
		post.ImageURL = newRef
		if err := posts.UpdatePost(ctx, post); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperror.New(apperror.NotFound, "Post not found!")
			}
			return apperror.Wrap(apperror.Internal, "Error saving edited Post!", err)
		}
		updated = *post
		return nil
	})
	if err != nil {
		if uploaded != "" {
			s.discard(ctx, uploaded)
		}
		return nil, classify(err)
	}

	if oldRef != newRef {
		s.removeAsset(ctx, oldRef, postID)
	}

	view := models.PostView{Post: updated, Creator: current.Creator}
	s.emit(models.PostEvent{Action: models.ActionUpdate, Post: &view})
	return &view, nil
}

// DeletePost removes the post and pulls it from the creator's post list in
// one transaction, then removes its image.
func (s *PostService) DeletePost(ctx context.Context, userID, postID string) error {
	var imageRef string
	err := s.store.RunInTx(ctx, func(ctx context.Context, users repositories.UserRepository, posts repositories.PostRepository) error {
		post, err := posts.GetPostByID(ctx, postID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperror.New(apperror.NotFound, "Post not found!")
			}
			return apperror.Wrap(apperror.Internal, "Could not fetch post.", err)
		}
		if err := authorize(post, userID); err != nil {
			return err
		}
		imageRef = post.ImageURL

		if err := posts.DeletePost(ctx, postID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperror.New(apperror.NotFound, "Post not found!")
			}
			return apperror.Wrap(apperror.Internal, "Error deleting post!", err)
		}
		if err := users.PullPost(ctx, userID, postID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperror.New(apperror.NotFound, "Error finding User during post deletion!")
			}
			return apperror.Wrap(apperror.Internal, "Error saving User after post deletion!", err)
		}
		return nil
	})
	if err != nil {
		return classify(err)
	}

	s.removeAsset(ctx, imageRef, postID)
	s.emit(models.PostEvent{Action: models.ActionDelete, PostID: postID})
	return nil
}

// authorize compares the post's stored creator id with the requester. Edit
// and delete both go through here.
func authorize(post *models.Post, userID string) error {
	if post.CreatorID != userID {
		return apperror.New(apperror.Forbidden, "Current user cannot access this post!")
	}
	return nil
}

// keepsImage checks that a reference sent without a new upload names the
// image the post already has. A post never takes over another asset.
func keepsImage(post *models.Post, ref string) error {
	want, err := assets.NameFromRef(post.ImageURL)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "Stored image reference is invalid.", err)
	}
	got, err := assets.NameFromRef(ref)
	if err != nil || got != want {
		return apperror.New(apperror.ValidationFailed, "Image reference does not belong to this post.")
	}
	return nil
}

// dropPost deletes a post left behind by a create whose unit did not commit.
// Atomic stores already rolled it back and report ErrNotFound.
func (s *PostService) dropPost(ctx context.Context, postID string) {
	err := s.store.Posts().DeletePost(context.WithoutCancel(ctx), postID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		s.log.Error().Err(err).Str("post_id", postID).Msg("could not remove post of failed create")
	}
}

// removeAsset deletes an image that no committed post references any more.
// The records are already consistent at this point, so a failure leaves at
// most an unreferenced file and does not fail the mutation.
func (s *PostService) removeAsset(ctx context.Context, ref, postID string) {
	if ref == "" {
		return
	}
	if err := s.assets.Remove(ctx, ref); err != nil {
		s.log.Warn().Err(err).Str("asset", ref).Str("post_id", postID).Msg("could not remove image")
	}
}

// discard removes an image stored for a mutation that did not commit.
func (s *PostService) discard(ctx context.Context, ref string) {
	if err := s.assets.Remove(context.WithoutCancel(ctx), ref); err != nil {
		s.log.Warn().Err(err).Str("asset", ref).Msg("could not discard uploaded image")
	}
}

func (s *PostService) emit(ev models.PostEvent) {
	if err := s.events.Emit(models.PostsChannel, ev); err != nil {
		s.log.Error().Err(err).Str("action", ev.Action).Msg("could not broadcast post event")
	}
}

// classify makes sure every error leaving the service carries a kind.
func classify(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Wrap(apperror.Internal, "An internal error occurred.", err)
}
