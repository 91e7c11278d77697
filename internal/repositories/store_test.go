package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
)

// runStoreContract exercises the behaviour every Store backend must share.
func runStoreContract(t *testing.T, store repositories.Store) {
	t.Helper()
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	t.Run("users", func(t *testing.T) {
		user := &models.User{Email: "users@test.com", Password: "hash", Name: "Tester", Status: "New"}
		if err := store.Users().CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if user.ID == "" {
			t.Fatal("expected CreateUser to assign an id")
		}

		dup := &models.User{Email: "users@test.com", Password: "hash", Name: "Other"}
		if err := store.Users().CreateUser(ctx, dup); !errors.Is(err, repositories.ErrDuplicate) {
			t.Fatalf("duplicate email: expected ErrDuplicate, got %v", err)
		}

		got, err := store.Users().GetUserByEmail(ctx, "users@test.com")
		if err != nil {
			t.Fatalf("GetUserByEmail: %v", err)
		}
		if got.ID != user.ID || got.Status != "New" {
			t.Fatalf("GetUserByEmail: got %+v", got)
		}

		got.Status = "Away"
		if err := store.Users().UpdateUser(ctx, got); err != nil {
			t.Fatalf("UpdateUser: %v", err)
		}
		got, err = store.Users().GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID: %v", err)
		}
		if got.Status != "Away" {
			t.Errorf("status: expected Away, got %q", got.Status)
		}

		if _, err := store.Users().GetUserByID(ctx, "missing-user"); !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("missing user: expected ErrNotFound, got %v", err)
		}
		if err := store.Users().AppendPost(ctx, "missing-user", "p"); !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("AppendPost on missing user: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("posts", func(t *testing.T) {
		owner := &models.User{Email: "posts@test.com", Password: "hash", Name: "Owner"}
		if err := store.Users().CreateUser(ctx, owner); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		var ids []string
		for _, title := range []string{"first", "second", "third"} {
			post := &models.Post{Title: title, Content: "content", ImageURL: "images/" + title + ".png", CreatorID: owner.ID}
			if err := store.Posts().CreatePost(ctx, post); err != nil {
				t.Fatalf("CreatePost %s: %v", title, err)
			}
			if err := store.Users().AppendPost(ctx, owner.ID, post.ID); err != nil {
				t.Fatalf("AppendPost: %v", err)
			}
			ids = append(ids, post.ID)
			time.Sleep(5 * time.Millisecond)
		}

		total, err := store.Posts().CountPosts(ctx)
		if err != nil {
			t.Fatalf("CountPosts: %v", err)
		}
		if total != 3 {
			t.Fatalf("CountPosts: expected 3, got %d", total)
		}

		page1, err := store.Posts().ListPosts(ctx, 0, 2)
		if err != nil {
			t.Fatalf("ListPosts page 1: %v", err)
		}
		if len(page1) != 2 || page1[0].ID != ids[2] || page1[1].ID != ids[1] {
			t.Fatalf("ListPosts page 1: expected [%s %s], got %+v", ids[2], ids[1], page1)
		}
		if page1[0].Creator.ID != owner.ID || page1[0].Creator.Name != "Owner" {
			t.Errorf("ListPosts creator: got %+v", page1[0].Creator)
		}

		page2, err := store.Posts().ListPosts(ctx, 2, 2)
		if err != nil {
			t.Fatalf("ListPosts page 2: %v", err)
		}
		if len(page2) != 1 || page2[0].ID != ids[0] {
			t.Fatalf("ListPosts page 2: expected [%s], got %+v", ids[0], page2)
		}

		view, err := store.Posts().GetPostWithCreator(ctx, ids[0])
		if err != nil {
			t.Fatalf("GetPostWithCreator: %v", err)
		}
		if view.Creator.Name != "Owner" || view.Title != "first" {
			t.Errorf("GetPostWithCreator: got %+v", view)
		}

		post, err := store.Posts().GetPostByID(ctx, ids[1])
		if err != nil {
			t.Fatalf("GetPostByID: %v", err)
		}
		post.Title = "second edited"
		if err := store.Posts().UpdatePost(ctx, post); err != nil {
			t.Fatalf("UpdatePost: %v", err)
		}
		post, _ = store.Posts().GetPostByID(ctx, ids[1])
		if post.Title != "second edited" {
			t.Errorf("UpdatePost: title not saved, got %q", post.Title)
		}

		if err := store.Users().PullPost(ctx, owner.ID, ids[1]); err != nil {
			t.Fatalf("PullPost: %v", err)
		}
		if err := store.Posts().DeletePost(ctx, ids[1]); err != nil {
			t.Fatalf("DeletePost: %v", err)
		}
		if _, err := store.Posts().GetPostByID(ctx, ids[1]); !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("deleted post: expected ErrNotFound, got %v", err)
		}
		if err := store.Posts().DeletePost(ctx, ids[1]); !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("second delete: expected ErrNotFound, got %v", err)
		}

		got, err := store.Users().GetUserByID(ctx, owner.ID)
		if err != nil {
			t.Fatalf("GetUserByID: %v", err)
		}
		if len(got.Posts) != 2 || got.Posts[0] != ids[0] || got.Posts[1] != ids[2] {
			t.Errorf("post list after pull: expected [%s %s], got %v", ids[0], ids[2], got.Posts)
		}
	})

	t.Run("firebase uid lookup", func(t *testing.T) {
		local := &models.User{Email: "local@test.com", Password: "hash", Name: "Local"}
		if err := store.Users().CreateUser(ctx, local); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		linked := &models.User{Email: "linked@test.com", Name: "Linked", FirebaseUID: "fb-linked"}
		if err := store.Users().CreateUser(ctx, linked); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		if _, err := store.Users().GetUserByFirebaseUID(ctx, ""); !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("empty uid: expected ErrNotFound, got %v", err)
		}
		got, err := store.Users().GetUserByFirebaseUID(ctx, "fb-linked")
		if err != nil || got.ID != linked.ID {
			t.Errorf("linked uid: expected %s, got %+v (%v)", linked.ID, got, err)
		}
	})

	t.Run("repeated append inside transaction", func(t *testing.T) {
		owner := &models.User{Email: "append@test.com", Password: "hash", Name: "Append"}
		if err := store.Users().CreateUser(ctx, owner); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		var postID string
		err := store.RunInTx(ctx, func(ctx context.Context, users repositories.UserRepository, posts repositories.PostRepository) error {
			post := &models.Post{Title: "twice", Content: "content", ImageURL: "images/twice.png", CreatorID: owner.ID}
			if err := posts.CreatePost(ctx, post); err != nil {
				return err
			}
			postID = post.ID
			if err := users.AppendPost(ctx, owner.ID, post.ID); err != nil {
				return err
			}
			if err := users.AppendPost(ctx, owner.ID, post.ID); err != nil {
				return err
			}
			// The unit must still be usable after the repeated append.
			_, err := users.GetUserByID(ctx, owner.ID)
			return err
		})
		if err != nil {
			t.Fatalf("RunInTx: %v", err)
		}

		got, _ := store.Users().GetUserByID(ctx, owner.ID)
		if len(got.Posts) != 1 || got.Posts[0] != postID {
			t.Errorf("expected post listed once, got %v", got.Posts)
		}
	})

	t.Run("transaction rollback", func(t *testing.T) {
		owner := &models.User{Email: "tx@test.com", Password: "hash", Name: "Tx"}
		if err := store.Users().CreateUser(ctx, owner); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		before, _ := store.Posts().CountPosts(ctx)
		boom := errors.New("boom")
		var postID string
		err := store.RunInTx(ctx, func(ctx context.Context, users repositories.UserRepository, posts repositories.PostRepository) error {
			post := &models.Post{Title: "doomed", Content: "content", ImageURL: "images/x.png", CreatorID: owner.ID}
			if err := posts.CreatePost(ctx, post); err != nil {
				return err
			}
			postID = post.ID
			if err := users.AppendPost(ctx, owner.ID, post.ID); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("RunInTx: expected boom, got %v", err)
		}

		after, _ := store.Posts().CountPosts(ctx)
		if after != before {
			t.Errorf("post count changed after rollback: %d -> %d", before, after)
		}
		if _, err := store.Posts().GetPostByID(ctx, postID); !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("rolled back post: expected ErrNotFound, got %v", err)
		}
		got, _ := store.Users().GetUserByID(ctx, owner.ID)
		if got.HasPost(postID) {
			t.Errorf("rolled back post still listed on user: %v", got.Posts)
		}
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, repositories.NewMemoryStore())
}

func TestMemoryStore_ListPostsTieBreaksOnInsertionOrder(t *testing.T) {
	store := repositories.NewMemoryStore()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return fixed })
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		post := &models.Post{Title: "same time", CreatorID: "u"}
		if err := store.Posts().CreatePost(ctx, post); err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		ids = append(ids, post.ID)
	}

	posts, err := store.Posts().ListPosts(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 3 || posts[0].ID != ids[2] || posts[2].ID != ids[0] {
		t.Fatalf("expected newest insertion first, got %+v", posts)
	}
}

func TestMemoryStore_ReturnedUsersAreCopies(t *testing.T) {
	store := repositories.NewMemoryStore()
	ctx := context.Background()

	user := &models.User{Email: "copy@test.com", Name: "Copy"}
	if err := store.Users().CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := store.Users().AppendPost(ctx, user.ID, "p1"); err != nil {
		t.Fatalf("AppendPost: %v", err)
	}

	got, _ := store.Users().GetUserByID(ctx, user.ID)
	got.Posts[0] = "tampered"

	again, _ := store.Users().GetUserByID(ctx, user.ID)
	if again.Posts[0] != "p1" {
		t.Fatalf("stored post list was mutated through a returned user: %v", again.Posts)
	}
}
