package project

import (
	"time"

	"github.com/rpggio/docvault/internal/identity"
)

// Project is a named, owned, shared container for a linear version history.
// Name uniqueness is enforced per owner, case-insensitively. The owner is
// always a member and cannot be removed.
type Project struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	OwnerID        identity.ID   `json:"owner_id"`
	Members        []identity.ID `json:"members"`
	Versions       []Version     `json:"versions"`
	NextVersionNum int           `json:"next_version_num"`
}

// Version is one immutable, numbered snapshot of an uploaded artifact.
// Version numbers are assigned at commit time and never reused.
type Version struct {
	FileRef      string      `json:"file_ref"`
	Timestamp    time.Time   `json:"timestamp"`
	UploaderID   identity.ID `json:"uploader_id"`
	UploaderName string      `json:"uploader_display_name"`
	VersionNum   int         `json:"version_num"`
	Caption      string      `json:"caption"`
	FileName     string      `json:"file_name"`
}

// Seed carries the artifact and attribution for a new version. The store
// assigns the version number and timestamp.
type Seed struct {
	FileRef      string
	FileName     string
	Caption      string
	UploaderID   identity.ID
	UploaderName string
}

// MemberInfo describes one project member for listing. DisplayName falls
// back to the numeric id when the member never uploaded a version.
type MemberInfo struct {
	ID          identity.ID
	DisplayName string
	IsOwner     bool
}

// IsMember reports whether id belongs to the project's member set.
func (p *Project) IsMember(id identity.ID) bool {
	for _, m := range p.Members {
		if m == id {
			return true
		}
	}
	return false
}

// LatestVersion returns the most recently appended version, or nil when the
// ledger is empty.
func (p *Project) LatestVersion() *Version {
	if len(p.Versions) == 0 {
		return nil
	}
	v := p.Versions[len(p.Versions)-1]
	return &v
}

// Clone returns a deep copy safe to hand outside the store.
func (p *Project) Clone() *Project {
	cp := *p
	cp.Members = append([]identity.ID(nil), p.Members...)
	cp.Versions = append([]Version(nil), p.Versions...)
	return &cp
}
