package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"

	"supermercado/domain"
)

// Users is the JSON file-backed credential store behind domain.Users.
type Users struct {
	mu    sync.RWMutex
	fs    afero.Fs
	path  string
	users map[string]domain.User
}

var _ domain.Users = (*Users)(nil)

// NewUsers loads the user file at path, seeding the default administrator
// when the file is missing or unreadable.
func NewUsers(fs afero.Fs, path string) (*Users, error) {
	s := &Users{
		fs:    fs,
		path:  path,
		users: make(map[string]domain.User),
	}
	s.load()
	return s, nil
}

func (s *Users) load() {
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not read user file, seeding default admin",
				"path", s.path, "error", err)
		} else {
			slog.Info("no user file found, seeding default admin", "path", s.path)
		}
		s.seed()
		return
	}
	var list []domain.User
	if err := json.Unmarshal(b, &list); err != nil {
		slog.Warn("malformed user file, seeding default admin",
			"path", s.path, "error", err)
		s.seed()
		return
	}
	for _, u := range list {
		if u.Role == "" {
			u.Role = domain.RoleBuyer
		}
		s.users[u.Username] = u
	}
	slog.Info("users loaded", "count", len(s.users))
}

func (s *Users) seed() {
	admin := SeedAdmin()
	s.users = map[string]domain.User{admin.Username: admin}
	if err := s.save(); err != nil {
		slog.Error("could not persist user file", "path", s.path, "error", err)
	}
}

func (s *Users) save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	list := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0o644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, s.path)
}

func (s *Users) Register(ctx context.Context, username, password, role string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domain.ValidateUsername(username); err != nil {
		return err
	}
	if role == "" {
		role = domain.RoleBuyer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return domain.NewDuplicateUserError(username)
	}
	s.users[username] = domain.User{Username: username, Password: password, Role: role}
	return s.save()
}

func (s *Users) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok || u.Password != password {
		return domain.User{}, domain.NewInvalidCredentialsError(username)
	}
	return u, nil
}

func (s *Users) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok || u.Password != oldPassword {
		return domain.NewInvalidCredentialsError(username)
	}
	u.Password = newPassword
	s.users[username] = u
	return s.save()
}

func (s *Users) All(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
