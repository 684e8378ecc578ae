// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"stockroom/internal/models"
	"stockroom/internal/repository"

	"github.com/google/uuid"
)

type memState struct {
	users         map[uuid.UUID]models.User
	products      map[uuid.UUID]models.Product
	images        map[uuid.UUID]models.Image
	verifications map[int64]models.EmailVerification
	nextVerifyID  int64
}

func (s *memState) clone() *memState {
	c := &memState{
		users:         make(map[uuid.UUID]models.User, len(s.users)),
		products:      make(map[uuid.UUID]models.Product, len(s.products)),
		images:        make(map[uuid.UUID]models.Image, len(s.images)),
		verifications: make(map[int64]models.EmailVerification, len(s.verifications)),
		nextVerifyID:  s.nextVerifyID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.images {
		c.images[k] = v
	}
	for k, v := range s.verifications {
		c.verifications[k] = v
	}
	return c
}

// MemStore is an in-memory repository.Store. Transactions are serialized and
// roll back to a snapshot when fn fails or panics. Unique constraints match
// the SQL schema.
type MemStore struct {
	txMu  sync.Mutex
	mu    sync.Mutex
	state *memState
	fail  map[string]error
}

var _ repository.Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		state: &memState{
			users:         map[uuid.UUID]models.User{},
			products:      map[uuid.UUID]models.Product{},
			images:        map[uuid.UUID]models.Image{},
			verifications: map[int64]models.EmailVerification{},
		},
		fail: map[string]error{},
	}
}

// FailOn makes the named operation (e.g. "images.create") return err until cleared with nil.
func (m *MemStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

func (m *MemStore) injected(op string) error {
	if err, ok := m.fail[op]; ok {
		return models.NewInternalError(err)
	}
	return nil
}

func (m *MemStore) Users() repository.UserRepository                 { return memUsers{m} }
func (m *MemStore) Products() repository.ProductRepository           { return memProducts{m} }
func (m *MemStore) Images() repository.ImageRepository               { return memImages{m} }
func (m *MemStore) Verifications() repository.VerificationRepository { return memVerifications{m} }

func (m *MemStore) WithTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	rollback := func() {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
	}
	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err = fn(m); err != nil {
		rollback()
		return err
	}
	return ctx.Err()
}

// UserCount returns the number of stored users.
func (m *MemStore) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.users)
}

// ImageCount returns the number of stored image rows.
func (m *MemStore) ImageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.images)
}

// VerificationFor returns the newest token issued for email.
func (m *MemStore) VerificationFor(email string) (models.EmailVerification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found models.EmailVerification
	ok := false
	for _, v := range m.state.verifications {
		if v.Email == email && (!ok || v.ID > found.ID) {
			found, ok = v, true
		}
	}
	return found, ok
}

// ExpireVerification moves a token's expiry into the past.
func (m *MemStore) ExpireVerification(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range m.state.verifications {
		if v.Token == token {
			v.ExpiresAt = time.Now().Add(-time.Second)
			m.state.verifications[id] = v
		}
	}
}

type memUsers struct{ m *MemStore }

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("users.get"); err != nil {
		return nil, err
	}
	u, ok := r.m.state.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	return &u, nil
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("users.get"); err != nil {
		return nil, err
	}
	for _, u := range r.m.state.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, models.NewNotFoundError("User", nil)
}

func (r memUsers) Create(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("users.create"); err != nil {
		return err
	}
	for _, u := range r.m.state.users {
		if u.Username == user.Username {
			return models.NewConflictError("username already exists", errors.New("duplicate key"))
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.AccountCreated, user.AccountUpdated = now, now
	r.m.state.users[user.ID] = *user
	return nil
}

func (r memUsers) Update(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("users.update"); err != nil {
		return err
	}
	existing, ok := r.m.state.users[user.ID]
	if !ok {
		return models.NewNotFoundError("User", user.ID)
	}
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.PasswordHash = user.PasswordHash
	existing.AccountUpdated = user.AccountUpdated
	r.m.state.users[user.ID] = existing
	return nil
}

func (r memUsers) MarkEmailVerified(_ context.Context, username string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("users.verify"); err != nil {
		return err
	}
	for id, u := range r.m.state.users {
		if u.Username == username {
			u.EmailVerified = true
			u.AccountUpdated = time.Now().UTC()
			r.m.state.users[id] = u
			return nil
		}
	}
	return models.NewNotFoundError("User", nil)
}

type memProducts struct{ m *MemStore }

func (r memProducts) skuTaken(p *models.Product) bool {
	for _, other := range r.m.state.products {
		if other.ID != p.ID && other.OwnerUserID == p.OwnerUserID && other.SKU == p.SKU {
			return true
		}
	}
	return false
}

func (r memProducts) Create(_ context.Context, p *models.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("products.create"); err != nil {
		return err
	}
	if r.skuTaken(p) {
		return models.NewConflictError("duplicate sku for owner", errors.New("duplicate key"))
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.DateAdded, p.DateLastUpdated = now, now
	r.m.state.products[p.ID] = *p
	return nil
}

func (r memProducts) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("products.get"); err != nil {
		return nil, err
	}
	p, ok := r.m.state.products[id]
	if !ok {
		return nil, models.NewNotFoundError("Product", id)
	}
	return &p, nil
}

func (r memProducts) Update(_ context.Context, p *models.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("products.update"); err != nil {
		return err
	}
	existing, ok := r.m.state.products[p.ID]
	if !ok {
		return models.NewNotFoundError("Product", p.ID)
	}
	if r.skuTaken(p) {
		return models.NewConflictError("duplicate sku for owner", errors.New("duplicate key"))
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.SKU = p.SKU
	existing.Manufacturer = p.Manufacturer
	existing.Quantity = p.Quantity
	existing.DateLastUpdated = p.DateLastUpdated
	r.m.state.products[p.ID] = existing
	return nil
}

func (r memProducts) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("products.delete"); err != nil {
		return err
	}
	if _, ok := r.m.state.products[id]; !ok {
		return models.NewNotFoundError("Product", id)
	}
	for _, img := range r.m.state.images {
		if img.ProductID == id {
			return models.NewInternalError(errors.New("images_product_id_fkey violation"))
		}
	}
	delete(r.m.state.products, id)
	return nil
}

type memImages struct{ m *MemStore }

func (r memImages) Create(_ context.Context, img *models.Image) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("images.create"); err != nil {
		return err
	}
	if _, ok := r.m.state.products[img.ProductID]; !ok {
		return models.NewInternalError(errors.New("images_product_id_fkey violation"))
	}
	for _, other := range r.m.state.images {
		if other.S3BucketPath == img.S3BucketPath {
			return models.NewConflictError("image key already exists", errors.New("duplicate key"))
		}
	}
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	img.DateCreated = time.Now().UTC()
	r.m.state.images[img.ID] = *img
	return nil
}

func (r memImages) GetByID(_ context.Context, productID, imageID uuid.UUID) (*models.Image, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	img, ok := r.m.state.images[imageID]
	if !ok || img.ProductID != productID {
		return nil, models.NewNotFoundError("Image", imageID)
	}
	return &img, nil
}

func (r memImages) ListByProduct(_ context.Context, productID uuid.UUID) ([]models.Image, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("images.list"); err != nil {
		return nil, err
	}
	images := []models.Image{}
	for _, img := range r.m.state.images {
		if img.ProductID == productID {
			images = append(images, img)
		}
	}
	sort.Slice(images, func(i, j int) bool {
		return images[i].DateCreated.After(images[j].DateCreated)
	})
	return images, nil
}

func (r memImages) Delete(_ context.Context, imageID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("images.delete"); err != nil {
		return err
	}
	if _, ok := r.m.state.images[imageID]; !ok {
		return models.NewNotFoundError("Image", imageID)
	}
	delete(r.m.state.images, imageID)
	return nil
}

func (r memImages) DeleteByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("images.delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, img := range r.m.state.images {
		if img.ProductID == productID {
			delete(r.m.state.images, id)
			n++
		}
	}
	return n, nil
}

type memVerifications struct{ m *MemStore }

func (r memVerifications) Create(_ context.Context, v *models.EmailVerification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("verifications.create"); err != nil {
		return err
	}
	r.m.state.nextVerifyID++
	v.ID = r.m.state.nextVerifyID
	v.CreatedAt = time.Now().UTC()
	r.m.state.verifications[v.ID] = *v
	return nil
}

func (r memVerifications) GetByTokenForUpdate(_ context.Context, token string) (*models.EmailVerification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, v := range r.m.state.verifications {
		if v.Token == token {
			return &v, nil
		}
	}
	return nil, models.NewNotFoundError("Verification token", nil)
}

func (r memVerifications) MarkConsumed(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("verifications.consume"); err != nil {
		return err
	}
	v, ok := r.m.state.verifications[id]
	if !ok || v.Consumed {
		return repository.ErrTokenConsumed
	}
	v.Consumed = true
	r.m.state.verifications[id] = v
	return nil
}
