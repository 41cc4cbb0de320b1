// Package snapshot persists the project store as a single JSON document:
// a mapping from project id to the project's fields. Every save overwrites
// the whole document; loads tolerate malformed or partially-written data by
// falling back to an empty store.
package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rpggio/docvault/internal/domain/project"
	"github.com/rpggio/docvault/internal/identity"
)

// Gateway saves and loads full store snapshots.
type Gateway interface {
	Save(ctx context.Context, projects []*project.Project) error
	Load(ctx context.Context) ([]*project.Project, error)
}

// legacyTimeLayout is the timestamp format older snapshots were written in.
const legacyTimeLayout = "2006-01-02 15:04:05"

// docTime marshals as RFC 3339 but also accepts the legacy layout. An
// unparseable timestamp decodes to the zero time rather than failing the
// whole document.
type docTime time.Time

func (t docTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Format(time.RFC3339Nano))
}

func (t *docTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*t = docTime(time.Time{})
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		*t = docTime(parsed)
		return nil
	}
	if parsed, err := time.Parse(legacyTimeLayout, raw); err == nil {
		*t = docTime(parsed)
		return nil
	}
	*t = docTime(time.Time{})
	return nil
}

type versionDoc struct {
	FileRef      string      `json:"file_ref"`
	Timestamp    docTime     `json:"timestamp"`
	UploaderID   identity.ID `json:"uploader_id"`
	UploaderName string      `json:"uploader_display_name"`
	VersionNum   int         `json:"version_num"`
	Caption      string      `json:"caption"`
	FileName     string      `json:"file_name"`
}

type projectDoc struct {
	Name           string        `json:"name"`
	OwnerID        identity.ID   `json:"owner_id"`
	Members        []identity.ID `json:"members"`
	Versions       []versionDoc  `json:"versions"`
	NextVersionNum int           `json:"next_version_num"`
}

func encodeDocument(projects []*project.Project) ([]byte, error) {
	doc := make(map[string]projectDoc, len(projects))
	for _, p := range projects {
		versions := make([]versionDoc, 0, len(p.Versions))
		for _, v := range p.Versions {
			versions = append(versions, versionDoc{
				FileRef:      v.FileRef,
				Timestamp:    docTime(v.Timestamp),
				UploaderID:   v.UploaderID,
				UploaderName: v.UploaderName,
				VersionNum:   v.VersionNum,
				Caption:      v.Caption,
				FileName:     v.FileName,
			})
		}
		doc[p.ID] = projectDoc{
			Name:           p.Name,
			OwnerID:        p.OwnerID,
			Members:        append([]identity.ID(nil), p.Members...),
			Versions:       versions,
			NextVersionNum: p.NextVersionNum,
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// decodeDocument parses a snapshot document. A structural parse error yields
// an empty store; per-project oddities (duplicate members, missing owner
// membership, stale counters, legacy id encodings) are normalized in place.
func decodeDocument(data []byte, logger *slog.Logger) []*project.Project {
	var doc map[string]projectDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn("snapshot unreadable, starting empty", "error", err)
		return nil
	}

	ids := make([]string, 0, len(doc))
	for id := range doc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	projects := make([]*project.Project, 0, len(doc))
	for _, id := range ids {
		pd := doc[id]
		if strings.TrimSpace(pd.Name) == "" {
			logger.Warn("dropping snapshot entry without a name", "project_id", id)
			continue
		}
		p := &project.Project{
			ID:             id,
			Name:           pd.Name,
			OwnerID:        pd.OwnerID,
			NextVersionNum: pd.NextVersionNum,
		}
		for _, v := range pd.Versions {
			p.Versions = append(p.Versions, project.Version{
				FileRef:      v.FileRef,
				Timestamp:    time.Time(v.Timestamp),
				UploaderID:   v.UploaderID,
				UploaderName: v.UploaderName,
				VersionNum:   v.VersionNum,
				Caption:      v.Caption,
				FileName:     v.FileName,
			})
		}
		sort.SliceStable(p.Versions, func(i, j int) bool {
			return p.Versions[i].VersionNum < p.Versions[j].VersionNum
		})
		p.Members = normalizeMembers(pd.Members, pd.OwnerID)
		if max := maxVersionNum(p.Versions); p.NextVersionNum <= max {
			logger.Warn("repairing stale version counter",
				"project_id", id, "stored", p.NextVersionNum, "repaired", max+1)
			p.NextVersionNum = max + 1
		}
		if p.NextVersionNum < 1 {
			p.NextVersionNum = 1
		}
		projects = append(projects, p)
	}
	return projects
}

// normalizeMembers dedupes the stored sequence and guarantees the owner is
// present.
func normalizeMembers(members []identity.ID, owner identity.ID) []identity.ID {
	out := []identity.ID{owner}
	seen := map[identity.ID]bool{owner: true}
	for _, m := range members {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func maxVersionNum(versions []project.Version) int {
	max := 0
	for _, v := range versions {
		if v.VersionNum > max {
			max = v.VersionNum
		}
	}
	return max
}
