// Package project implements the in-memory project store: named projects
// with an owner/member permission model and an append-only, monotonically
// numbered version ledger.
package project

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/docvault/internal/identity"
)

// Archiver persists a full snapshot of the store. Saves are best-effort:
// the store logs failures and keeps the in-memory mutation.
type Archiver interface {
	Save(ctx context.Context, projects []*Project) error
}

// Store owns all project and version records. A single mutex serializes
// mutations; reads copy data out so callers never see shared state.
type Store struct {
	mu       sync.RWMutex
	projects map[string]*Project
	order    []string
	archive  Archiver
	logger   *slog.Logger
	now      func() time.Time
}

// NewStore creates an empty store. archive may be nil, in which case
// mutations are not persisted (used in tests).
func NewStore(archive Archiver, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		projects: make(map[string]*Project),
		archive:  archive,
		logger:   logger,
		now:      time.Now,
	}
}

// Seed loads projects into the store, replacing its contents. Intended for
// startup, after the persistence gateway has decoded a snapshot.
func (s *Store) Seed(projects []*Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = make(map[string]*Project, len(projects))
	s.order = s.order[:0]
	for _, p := range projects {
		if p == nil {
			continue
		}
		s.projects[p.ID] = p.Clone()
		s.order = append(s.order, p.ID)
	}
}

// FindForMember resolves a project by case-insensitive name, scoped to
// projects the actor belongs to. Non-members get ErrNotFound even when the
// name exists, so existence is not leaked. First-inserted wins when an
// actor somehow has two projects sharing a name.
func (s *Store) FindForMember(name string, actor identity.ID) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		p := s.projects[id]
		if strings.EqualFold(p.Name, name) && p.IsMember(actor) {
			return p.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// FindForOwner resolves a project by case-insensitive name among the
// projects owned by ownerID.
func (s *Store) FindForOwner(name string, ownerID identity.ID) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		p := s.projects[id]
		if strings.EqualFold(p.Name, name) && p.OwnerID == ownerID {
			return p.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// FindByID resolves a project by id, scoped to the actor's memberships.
// Used by the button path, where the project was already enumerated.
func (s *Store) FindByID(projectID string, actor identity.ID) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	if !ok || !p.IsMember(actor) {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// Empty reports whether the store holds no projects at all.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order) == 0
}

// Create allocates a new project with version 1 seeded from the pending
// upload. The name must be unique among the owner's projects.
func (s *Store) Create(ctx context.Context, name string, owner identity.ID, seed Seed) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		p := s.projects[id]
		if strings.EqualFold(p.Name, name) && p.OwnerID == owner {
			return nil, ErrDuplicateName
		}
	}

	p := &Project{
		ID:      uuid.NewString(),
		Name:    name,
		OwnerID: owner,
		Members: []identity.ID{owner},
		Versions: []Version{{
			FileRef:      seed.FileRef,
			Timestamp:    s.now(),
			UploaderID:   seed.UploaderID,
			UploaderName: seed.UploaderName,
			VersionNum:   1,
			Caption:      seed.Caption,
			FileName:     seed.FileName,
		}},
		NextVersionNum: 2,
	}
	s.projects[p.ID] = p
	s.order = append(s.order, p.ID)

	s.persistLocked(ctx)
	s.logger.Info("project created", "project_id", p.ID, "name", p.Name, "owner", owner)
	return p.Clone(), nil
}

// Commit appends a new version to the project's ledger and returns the
// assigned version number. Non-members get ErrNotFound.
func (s *Store) Commit(ctx context.Context, projectID string, actor identity.ID, seed Seed) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok || !p.IsMember(actor) {
		return 0, ErrNotFound
	}

	num := p.NextVersionNum
	p.Versions = append(p.Versions, Version{
		FileRef:      seed.FileRef,
		Timestamp:    s.now(),
		UploaderID:   seed.UploaderID,
		UploaderName: seed.UploaderName,
		VersionNum:   num,
		Caption:      seed.Caption,
		FileName:     seed.FileName,
	})
	p.NextVersionNum = num + 1

	s.persistLocked(ctx)
	s.logger.Info("version committed", "project_id", projectID, "version", num, "uploader", actor)
	return num, nil
}

// ListForMember returns all projects the actor belongs to, in insertion
// order.
func (s *Store) ListForMember(actor identity.ID) []*Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Project
	for _, id := range s.order {
		p := s.projects[id]
		if p.IsMember(actor) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// ListVersions returns the project's ledger, ordered by version number
// ascending. Callers must have verified membership already.
func (s *Store) ListVersions(projectID string) ([]Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]Version(nil), p.Versions...), nil
}

// GetVersion returns the version with the given number, or the most recent
// one when num is nil.
func (s *Store) GetVersion(projectID string, num *int) (*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, ErrNotFound
	}
	if num == nil {
		v := p.LatestVersion()
		if v == nil {
			return nil, ErrNoVersions
		}
		return v, nil
	}
	for _, v := range p.Versions {
		if v.VersionNum == *num {
			v := v
			return &v, nil
		}
	}
	return nil, ErrNoVersions
}

// AddMember inserts target into the member set. Only the owner may call it.
func (s *Store) AddMember(ctx context.Context, projectID string, caller, target identity.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return ErrNotFound
	}
	if p.OwnerID != caller {
		return ErrNotOwner
	}
	if target == caller {
		return ErrAlreadySelf
	}
	if p.IsMember(target) {
		return ErrAlreadyMember
	}
	p.Members = append(p.Members, target)

	s.persistLocked(ctx)
	s.logger.Info("member added", "project_id", projectID, "member", target)
	return nil
}

// RemoveMember removes target from the member set. The owner can never be
// removed.
func (s *Store) RemoveMember(ctx context.Context, projectID string, caller, target identity.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return ErrNotFound
	}
	if p.OwnerID != caller {
		return ErrNotOwner
	}
	if target == p.OwnerID {
		return ErrCannotRemoveOwner
	}
	idx := -1
	for i, m := range p.Members {
		if m == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotAMember
	}
	p.Members = append(p.Members[:idx], p.Members[idx+1:]...)

	s.persistLocked(ctx)
	s.logger.Info("member removed", "project_id", projectID, "member", target)
	return nil
}

// ListMembers returns the member set with display names recovered from the
// version ledger where possible, sorted for stable output.
func (s *Store) ListMembers(projectID string) ([]MemberInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]MemberInfo, 0, len(p.Members))
	for _, m := range p.Members {
		info := MemberInfo{ID: m, DisplayName: m.String(), IsOwner: m == p.OwnerID}
		for _, v := range p.Versions {
			if v.UploaderID == m {
				info.DisplayName = v.UploaderName
				break
			}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Snapshot returns a deep copy of every project in insertion order.
func (s *Store) Snapshot() []*Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []*Project {
	out := make([]*Project, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.projects[id].Clone())
	}
	return out
}

// persistLocked writes a full snapshot through the archiver. Failures are
// logged and swallowed: the in-memory mutation already stands, and the next
// successful save reconciles state.
func (s *Store) persistLocked(ctx context.Context) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(ctx, s.snapshotLocked()); err != nil {
		s.logger.Error("snapshot save failed", "error", err)
	}
}
