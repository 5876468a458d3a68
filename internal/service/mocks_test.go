package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"studycards/internal/authprovider"
	"studycards/internal/domain"
	"studycards/internal/repository"
)

type memUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]domain.User
	lookErr error
	saveErr error
	// beforeInsert corre antes del insert, sin lock, para simular registros concurrentes.
	beforeInsert func()
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[int64]domain.User)}
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookErr != nil {
		return domain.User{}, fmt.Errorf("%w: %w", repository.ErrBackendUnavailable, m.lookErr)
	}
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (m *memUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookErr != nil {
		return domain.User{}, fmt.Errorf("%w: %w", repository.ErrBackendUnavailable, m.lookErr)
	}
	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUserRepo) Save(_ context.Context, user *domain.User) error {
	if user.ID == 0 && m.beforeInsert != nil {
		hook := m.beforeInsert
		m.beforeInsert = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return fmt.Errorf("%w: %w", repository.ErrBackendUnavailable, m.saveErr)
	}
	for id, u := range m.byID {
		if u.Email == user.Email && id != user.ID {
			return fmt.Errorf("%w: users_email_key", repository.ErrDuplicate)
		}
	}
	if user.ID == 0 {
		m.nextID++
		user.ID = m.nextID
		user.CreatedAt = time.Now().UTC()
	} else if _, ok := m.byID[user.ID]; !ok {
		return repository.ErrNotFound
	}
	m.byID[user.ID] = *user
	return nil
}

func (m *memUserRepo) insert(user domain.User) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	m.byID[user.ID] = user
	return user
}

type memFlashcardRepo struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]domain.Flashcard
	listErr error
	lastOpt repository.ListOptions
}

func newMemFlashcardRepo() *memFlashcardRepo {
	return &memFlashcardRepo{byID: make(map[int64]domain.Flashcard)}
}

func (m *memFlashcardRepo) Create(_ context.Context, card *domain.Flashcard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	card.ID = m.nextID
	card.CreatedAt = time.Now().UTC()
	m.byID[card.ID] = *card
	return nil
}

func (m *memFlashcardRepo) GetByID(_ context.Context, id int64) (domain.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.byID[id]
	if !ok {
		return domain.Flashcard{}, repository.ErrNotFound
	}
	return card, nil
}

func (m *memFlashcardRepo) ListByUser(_ context.Context, userID int64, opts repository.ListOptions) ([]domain.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOpt = opts
	if m.listErr != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrBackendUnavailable, m.listErr)
	}
	var out []domain.Flashcard
	for _, c := range m.byID {
		if c.UserID != userID {
			continue
		}
		if opts.Category != "" && c.Category != opts.Category {
			continue
		}
		out = append(out, c)
	}
	switch opts.Sort {
	case domain.SortNewest:
		sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	case domain.SortMastery:
		sort.SliceStable(out, func(i, j int) bool { return out[i].MasteryLevel < out[j].MasteryLevel })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	return out, nil
}

func (m *memFlashcardRepo) CountByUser(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.byID {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memFlashcardRepo) Update(_ context.Context, card domain.Flashcard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[card.ID]; !ok {
		return repository.ErrNotFound
	}
	m.byID[card.ID] = card
	return nil
}

func (m *memFlashcardRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

type captureSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (c *captureSender) Send(_ context.Context, to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func (c *captureSender) last() sentEmail {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return sentEmail{}
	}
	return c.sent[len(c.sent)-1]
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// tokenFromLink extrae el token que sigue a path en el href del email.
func tokenFromLink(body, path string) string {
	idx := strings.Index(body, path)
	if idx == -1 {
		return ""
	}
	rest := body[idx+len(path):]
	if end := strings.IndexByte(rest, '"'); end != -1 {
		rest = rest[:end]
	}
	return rest
}

type fakeProvider struct {
	mu          sync.Mutex
	passwords   map[string]string
	tokens      map[string]string
	signUps     []string
	signOuts    []string
	resetEmails []string
	updated     map[string]string
	signInErr   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		passwords: make(map[string]string),
		tokens:    make(map[string]string),
		updated:   make(map[string]string),
	}
}

func (f *fakeProvider) SignIn(_ context.Context, email, password string) (authprovider.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return authprovider.Session{}, f.signInErr
	}
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return authprovider.Session{}, authprovider.ErrInvalidCredentials
	}
	token := "provider-token-" + email
	f.tokens[token] = email
	return authprovider.Session{
		AccessToken: token,
		User:        authprovider.User{ID: "p-" + email, Email: email},
	}, nil
}

func (f *fakeProvider) SignUp(_ context.Context, email, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUps = append(f.signUps, email)
	return nil
}

func (f *fakeProvider) SignOut(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts = append(f.signOuts, accessToken)
	delete(f.tokens, accessToken)
	return nil
}

func (f *fakeProvider) GetUser(_ context.Context, accessToken string) (authprovider.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.tokens[accessToken]
	if !ok {
		return authprovider.User{}, authprovider.ErrUnauthorized
	}
	return authprovider.User{ID: "p-" + email, Email: email}, nil
}

func (f *fakeProvider) ResetPasswordEmail(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetEmails = append(f.resetEmails, email)
	return nil
}

func (f *fakeProvider) UpdatePassword(_ context.Context, accessToken, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[accessToken]; !ok {
		return authprovider.ErrUnauthorized
	}
	f.updated[accessToken] = password
	return nil
}
