package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is a process-local Store for development and tests. A single
// mutex serialises every call; RunInTx holds it for the whole unit and
// restores a snapshot when the unit fails.
type MemoryStore struct {
	mu   sync.Mutex
	data memoryData
	now  func() time.Time
}

type memoryData struct {
	users map[string]models.User
	posts map[string]memoryPost
	seq   int64
}

type memoryPost struct {
	post models.Post
	seq  int64 // insertion order, breaks created_at ties
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: memoryData{
			users: make(map[string]models.User),
			posts: make(map[string]memoryPost),
		},
		now: time.Now,
	}
}

// SetClock replaces the time source used for created/updated timestamps.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Users() UserRepository { return memoryUsers{s: s} }
func (s *MemoryStore) Posts() PostRepository { return memoryPosts{s: s} }

func (s *MemoryStore) RunInTx(ctx context.Context, fn TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, memoryUsers{s: s, locked: true}, memoryPosts{s: s, locked: true}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) with(locked bool, fn func(d *memoryData) error) error {
	if !locked {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(&s.data)
}

func (d memoryData) clone() memoryData {
	c := memoryData{
		users: make(map[string]models.User, len(d.users)),
		posts: make(map[string]memoryPost, len(d.posts)),
		seq:   d.seq,
	}
	for id, u := range d.users {
		c.users[id] = copyUser(u)
	}
	for id, p := range d.posts {
		c.posts[id] = p
	}
	return c
}

func copyUser(u models.User) models.User {
	u.Posts = append([]string{}, u.Posts...)
	return u
}

func (d *memoryData) view(p models.Post) models.PostView {
	v := models.PostView{Post: p, Creator: models.UserCompact{ID: p.CreatorID}}
	if u, ok := d.users[p.CreatorID]; ok {
		v.Creator = u.ToCompact()
	}
	return v
}

type memoryUsers struct {
	s      *MemoryStore
	locked bool
}

func (r memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	return r.s.with(r.locked, func(d *memoryData) error {
		for _, u := range d.users {
			if u.Email == user.Email {
				return ErrDuplicate
			}
		}
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		if _, ok := d.users[user.ID]; ok {
			return ErrDuplicate
		}
		now := r.s.now()
		user.CreatedAt = now
		user.UpdatedAt = now
		user.Posts = []string{}
		d.users[user.ID] = copyUser(*user)
		return nil
	})
}

func (r memoryUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r memoryUsers) GetUserByFirebaseUID(_ context.Context, firebaseUID string) (*models.User, error) {
	return r.find(func(u models.User) bool { return firebaseUID != "" && u.FirebaseUID == firebaseUID })
}

func (r memoryUsers) find(match func(models.User) bool) (*models.User, error) {
	var found *models.User
	err := r.s.with(r.locked, func(d *memoryData) error {
		for _, u := range d.users {
			if match(u) {
				c := copyUser(u)
				found = &c
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (r memoryUsers) UpdateUser(_ context.Context, user *models.User) error {
	return r.s.with(r.locked, func(d *memoryData) error {
		stored, ok := d.users[user.ID]
		if !ok {
			return ErrNotFound
		}
		for _, u := range d.users {
			if u.ID != user.ID && u.Email == user.Email {
				return ErrDuplicate
			}
		}
		user.UpdatedAt = r.s.now()
		stored.Email = user.Email
		stored.Password = user.Password
		stored.Name = user.Name
		stored.Status = user.Status
		stored.FirebaseUID = user.FirebaseUID
		stored.UpdatedAt = user.UpdatedAt
		d.users[user.ID] = stored
		return nil
	})
}

func (r memoryUsers) AppendPost(_ context.Context, userID, postID string) error {
	return r.s.with(r.locked, func(d *memoryData) error {
		u, ok := d.users[userID]
		if !ok {
			return ErrNotFound
		}
		if u.HasPost(postID) {
			return nil
		}
		u.Posts = append(append([]string{}, u.Posts...), postID)
		d.users[userID] = u
		return nil
	})
}

func (r memoryUsers) PullPost(_ context.Context, userID, postID string) error {
	return r.s.with(r.locked, func(d *memoryData) error {
		u, ok := d.users[userID]
		if !ok {
			return ErrNotFound
		}
		kept := make([]string, 0, len(u.Posts))
		for _, id := range u.Posts {
			if id != postID {
				kept = append(kept, id)
			}
		}
		u.Posts = kept
		d.users[userID] = u
		return nil
	})
}

type memoryPosts struct {
	s      *MemoryStore
	locked bool
}

func (r memoryPosts) CreatePost(_ context.Context, post *models.Post) error {
	return r.s.with(r.locked, func(d *memoryData) error {
		post.ID = uuid.NewString()
		post.CreatedAt = r.s.now()
		post.UpdatedAt = post.CreatedAt
		d.seq++
		d.posts[post.ID] = memoryPost{post: *post, seq: d.seq}
		return nil
	})
}

func (r memoryPosts) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	var post *models.Post
	err := r.s.with(r.locked, func(d *memoryData) error {
		p, ok := d.posts[id]
		if !ok {
			return ErrNotFound
		}
		c := p.post
		post = &c
		return nil
	})
	return post, err
}

func (r memoryPosts) GetPostWithCreator(_ context.Context, id string) (*models.PostView, error) {
	var view *models.PostView
	err := r.s.with(r.locked, func(d *memoryData) error {
		p, ok := d.posts[id]
		if !ok {
			return ErrNotFound
		}
		v := d.view(p.post)
		view = &v
		return nil
	})
	return view, err
}

func (r memoryPosts) ListPosts(_ context.Context, skip, limit int64) ([]models.PostView, error) {
	views := []models.PostView{}
	err := r.s.with(r.locked, func(d *memoryData) error {
		all := make([]memoryPost, 0, len(d.posts))
		for _, p := range d.posts {
			all = append(all, p)
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].post.CreatedAt.Equal(all[j].post.CreatedAt) {
				return all[i].post.CreatedAt.After(all[j].post.CreatedAt)
			}
			return all[i].seq > all[j].seq
		})

		if skip < 0 {
			skip = 0
		}
		for i := skip; i < int64(len(all)) && int64(len(views)) < limit; i++ {
			views = append(views, d.view(all[i].post))
		}
		return nil
	})
	return views, err
}

func (r memoryPosts) CountPosts(context.Context) (int64, error) {
	var n int64
	err := r.s.with(r.locked, func(d *memoryData) error {
		n = int64(len(d.posts))
		return nil
	})
	return n, err
}

func (r memoryPosts) UpdatePost(_ context.Context, post *models.Post) error {
	return r.s.with(r.locked, func(d *memoryData) error {
		stored, ok := d.posts[post.ID]
		if !ok {
			return ErrNotFound
		}
		post.UpdatedAt = r.s.now()
		stored.post.Title = post.Title
		stored.post.Content = post.Content
		stored.post.ImageURL = post.ImageURL
		stored.post.UpdatedAt = post.UpdatedAt
		d.posts[post.ID] = stored
		return nil
	})
}

func (r memoryPosts) DeletePost(_ context.Context, id string) error {
	return r.s.with(r.locked, func(d *memoryData) error {
		if _, ok := d.posts[id]; !ok {
			return ErrNotFound
		}
		delete(d.posts, id)
		return nil
	})
}
