package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
)

// memStore backs both repository stubs so user and post state stay consistent
// the way two collections of one database would.
type memStore struct {
	mu        sync.Mutex
	seq       int
	users     map[string]*domain.User
	posts     map[string]*domain.Post
	postOrder []string // insertion order, oldest first

	// failures maps an operation name (see failOp) to the error it returns.
	failures map[string]error

	// afterRemove, when set, runs after each successful RemoveFromSet,
	// outside the store lock.
	afterRemove func(userID string, set domain.UserSet, value string)
}

const opDeletePost = "delete:post"

func addOp(set domain.UserSet) string    { return "add:" + string(set) }
func removeOp(set domain.UserSet) string { return "remove:" + string(set) }

// failOn makes every later op fail with err.
func (s *memStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// failOp returns the injected error for op. Callers hold mu.
func (s *memStore) failOp(op string) error {
	return s.failures[op]
}

func (s *memStore) postCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*domain.User),
		posts:    make(map[string]*domain.Post),
		failures: make(map[string]error),
	}
}

func (s *memStore) userRepo() *memUsers { return &memUsers{s} }
func (s *memStore) postRepo() *memPosts { return &memPosts{s} }

// addUser seeds a user directly, skipping registration.
func (s *memStore) addUser(id, username, name string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		Name:      name,
		Age:       30,
		Posts:     []string{},
		Followers: []string{},
		Following: []string{},
	}
	s.users[id] = u
	return cloneUser(u)
}

func (s *memStore) user(id string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.users[id])
}

func (s *memStore) post(id string) *domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePost(s.posts[id])
}

func (s *memStore) deleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Posts = append([]string{}, u.Posts...)
	c.Followers = append([]string{}, u.Followers...)
	c.Following = append([]string{}, u.Following...)
	return &c
}

func clonePost(p *domain.Post) *domain.Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Likes = append([]string{}, p.Likes...)
	return &c
}

func setOf(u *domain.User, set domain.UserSet) *[]string {
	switch set {
	case domain.SetPosts:
		return &u.Posts
	case domain.SetFollowers:
		return &u.Followers
	default:
		return &u.Following
	}
}

func without(set []string, value string) []string {
	out := make([]string, 0, len(set))
	for _, v := range set {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

type memUsers struct{ s *memStore }

var _ ports.UserRepository = (*memUsers)(nil)

func (r *memUsers) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	c := cloneUser(user)
	c.ID = r.s.nextID("user")
	r.s.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUsers) FindByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *memUsers) SearchIDsByName(_ context.Context, term string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	term = strings.ToLower(term)
	var ids []string
	for _, u := range r.s.users {
		if strings.Contains(strings.ToLower(u.Name), term) {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (r *memUsers) AddToSet(_ context.Context, userID string, set domain.UserSet, value string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failOp(addOp(set)); err != nil {
		return nil, err
	}
	u, ok := r.s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	members := setOf(u, set)
	if !slices.Contains(*members, value) {
		*members = append(*members, value)
	}
	return cloneUser(u), nil
}

func (r *memUsers) RemoveFromSet(_ context.Context, userID string, set domain.UserSet, value string) (*domain.User, error) {
	r.s.mu.Lock()
	if err := r.s.failOp(removeOp(set)); err != nil {
		r.s.mu.Unlock()
		return nil, err
	}
	u, ok := r.s.users[userID]
	if !ok {
		r.s.mu.Unlock()
		return nil, domain.ErrUserNotFound
	}
	members := setOf(u, set)
	*members = without(*members, value)
	out := cloneUser(u)
	hook := r.s.afterRemove
	r.s.mu.Unlock()

	if hook != nil {
		hook(userID, set, value)
	}
	return out, nil
}

func (r *memUsers) ForEach(ctx context.Context, fn func(*domain.User) error) error {
	r.s.mu.Lock()
	snapshot := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		snapshot = append(snapshot, cloneUser(u))
	}
	r.s.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })
	for _, u := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
	}
	return nil
}

type memPosts struct{ s *memStore }

var _ ports.PostRepository = (*memPosts)(nil)

func (r *memPosts) Create(_ context.Context, post *domain.Post) (*domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := clonePost(post)
	c.ID = r.s.nextID("post")
	r.s.posts[c.ID] = c
	r.s.postOrder = append(r.s.postOrder, c.ID)
	return clonePost(c), nil
}

func (r *memPosts) FindByID(_ context.Context, id string) (*domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return clonePost(p), nil
}

// newestFirst returns live posts accepted by keep, newest first. Callers hold mu.
func (r *memPosts) newestFirst(keep func(*domain.Post) bool) []*domain.Post {
	var out []*domain.Post
	for i := len(r.s.postOrder) - 1; i >= 0; i-- {
		p, ok := r.s.posts[r.s.postOrder[i]]
		if ok && keep(p) {
			out = append(out, clonePost(p))
		}
	}
	return out
}

func (r *memPosts) FindByOwner(_ context.Context, userID string) ([]*domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.newestFirst(func(p *domain.Post) bool { return p.UserID == userID }), nil
}

func (r *memPosts) UpdateContent(_ context.Context, id, content string) (*domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	p.Content = content
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

func (r *memPosts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failOp(opDeletePost); err != nil {
		return err
	}
	if _, ok := r.s.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(r.s.posts, id)
	return nil
}

func (r *memPosts) List(_ context.Context, f ports.ListPostsFilter) ([]*domain.Post, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	term := strings.ToLower(f.Search)
	matched := r.newestFirst(func(p *domain.Post) bool {
		if term == "" && len(f.AuthorIDs) == 0 {
			return true
		}
		return (term != "" && strings.Contains(strings.ToLower(p.Content), term)) ||
			slices.Contains(f.AuthorIDs, p.UserID)
	})

	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return []*domain.Post{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memPosts) ExistingIDs(_ context.Context, ids []string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []string
	for _, id := range ids {
		if _, ok := r.s.posts[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *memPosts) AddLike(_ context.Context, postID, userID string) (*domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[postID]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	if !slices.Contains(p.Likes, userID) {
		p.Likes = append(p.Likes, userID)
	}
	return clonePost(p), nil
}

func (r *memPosts) RemoveLike(_ context.Context, postID, userID string) (*domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[postID]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	p.Likes = without(p.Likes, userID)
	return clonePost(p), nil
}

// keyLocker is an in-process PairLocker.
type keyLocker struct {
	mu     sync.Mutex
	keys   map[string]*sync.Mutex
	onLock func(key string) // runs before each acquisition attempt
}

func (l *keyLocker) setOnLock(fn func(key string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLock = fn
}

func newKeyLocker() *keyLocker {
	return &keyLocker{keys: make(map[string]*sync.Mutex)}
}

func (l *keyLocker) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	m, ok := l.keys[key]
	if !ok {
		m = &sync.Mutex{}
		l.keys[key] = m
	}
	hook := l.onLock
	l.mu.Unlock()

	if hook != nil {
		hook(key)
	}

	m.Lock()
	return m.Unlock, nil
}

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newMemRevoker() *memRevoker {
	return &memRevoker{revoked: make(map[string]time.Time)}
}

func (r *memRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.revoked[tokenID] = until
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[tokenID]
	return ok, nil
}

type memRecorder struct {
	mu    sync.Mutex
	items []domain.Activity
}

func (r *memRecorder) Record(a domain.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, a)
}

func (r *memRecorder) kinds() []domain.ActivityKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ActivityKind, 0, len(r.items))
	for _, a := range r.items {
		out = append(out, a.Kind)
	}
	return out
}

type memActivities struct {
	items     []*domain.Activity
	lastLimit int
}

func (r *memActivities) Insert(_ context.Context, a *domain.Activity) error {
	r.items = append(r.items, a)
	return nil
}

func (r *memActivities) ListByActor(_ context.Context, actorID string, limit int) ([]*domain.Activity, error) {
	r.lastLimit = limit
	var out []*domain.Activity
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		if r.items[i].ActorID == actorID {
			out = append(out, r.items[i])
		}
	}
	return out, nil
}

// busyLocker never grants a lock.
type busyLocker struct{}

func (busyLocker) Lock(context.Context, string) (func(), error) {
	return nil, fmt.Errorf("%w: lock wait timed out", domain.ErrBusy)
}

// deadlineUsers records how much time each FindByID call had left.
type deadlineUsers struct {
	*memUsers
	mu        sync.Mutex
	remaining []time.Duration // negative when the call had no deadline
}

func (d *deadlineUsers) FindByID(ctx context.Context, id string) (*domain.User, error) {
	left := time.Duration(-1)
	if dl, ok := ctx.Deadline(); ok {
		left = time.Until(dl)
	}
	d.mu.Lock()
	d.remaining = append(d.remaining, left)
	d.mu.Unlock()
	return d.memUsers.FindByID(ctx, id)
}
