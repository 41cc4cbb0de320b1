package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/docvault/internal/domain/project"
	"github.com/rpggio/docvault/internal/identity"
	"github.com/rpggio/docvault/internal/snapshot"
	"github.com/stretchr/testify/require"
)

func sampleProjects() []*project.Project {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return []*project.Project{
		{
			ID:      "aaaa-1111",
			Name:    "Specs",
			OwnerID: 100,
			Members: []identity.ID{100, 200},
			Versions: []project.Version{
				{FileRef: "f1", Timestamp: ts, UploaderID: 100, UploaderName: "Alice", VersionNum: 1, Caption: "init", FileName: "specs.docx"},
				{FileRef: "f2", Timestamp: ts.Add(time.Hour), UploaderID: 200, UploaderName: "Bob", VersionNum: 2, Caption: "fix", FileName: "specs.docx"},
			},
			NextVersionNum: 3,
		},
		{
			ID:             "bbbb-2222",
			Name:           "Notes",
			OwnerID:        200,
			Members:        []identity.ID{200},
			Versions:       []project.Version{{FileRef: "f3", Timestamp: ts, UploaderID: 200, UploaderName: "Bob", VersionNum: 1, Caption: "init", FileName: "notes.md"}},
			NextVersionNum: 2,
		},
	}
}

func TestFileGateway_RoundTrip(t *testing.T) {
	ctx := context.Background()
	gw := snapshot.NewFileGateway(filepath.Join(t.TempDir(), "vault.json"), nil)

	require.NoError(t, gw.Save(ctx, sampleProjects()))

	loaded, err := gw.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byID := map[string]*project.Project{}
	for _, p := range loaded {
		byID[p.ID] = p
	}
	for _, want := range sampleProjects() {
		got := byID[want.ID]
		require.NotNil(t, got, "project %s missing after reload", want.ID)
		require.Equal(t, want.Name, got.Name)
		require.Equal(t, want.OwnerID, got.OwnerID)
		// Member sets compare order-irrelevantly.
		require.ElementsMatch(t, want.Members, got.Members)
		require.Equal(t, want.NextVersionNum, got.NextVersionNum)
		require.Len(t, got.Versions, len(want.Versions))
		for i, v := range want.Versions {
			require.Equal(t, v.VersionNum, got.Versions[i].VersionNum)
			require.Equal(t, v.FileRef, got.Versions[i].FileRef)
			require.Equal(t, v.UploaderID, got.Versions[i].UploaderID)
			require.True(t, v.Timestamp.Equal(got.Versions[i].Timestamp))
		}
	}
}

func TestFileGateway_MissingFileLoadsEmpty(t *testing.T) {
	gw := snapshot.NewFileGateway(filepath.Join(t.TempDir(), "absent.json"), nil)
	loaded, err := gw.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestFileGateway_CorruptDocumentLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"truncated":`), 0o644))

	gw := snapshot.NewFileGateway(path, nil)
	loaded, err := gw.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestFileGateway_NormalizesLegacyEncodings(t *testing.T) {
	// Owner stored as text, duplicated members missing the owner, legacy
	// timestamp layout, and a stale version counter.
	legacy := `{
		"cccc-3333": {
			"name": "Legacy",
			"owner_id": "100",
			"members": ["200", 200, "300"],
			"versions": [
				{"file_ref": "f1", "timestamp": "2024-05-01 10:00:00", "uploader_id": "100",
				 "uploader_display_name": "Alice", "version_num": 1, "caption": "init", "file_name": "a.docx"},
				{"file_ref": "f2", "timestamp": "2024-05-02 10:00:00", "uploader_id": 200,
				 "uploader_display_name": "Bob", "version_num": 2, "caption": "fix", "file_name": "a.docx"}
			],
			"next_version_num": 1
		}
	}`
	path := filepath.Join(t.TempDir(), "vault.json")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	gw := snapshot.NewFileGateway(path, nil)
	loaded, err := gw.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	p := loaded[0]
	require.Equal(t, identity.ID(100), p.OwnerID)
	require.ElementsMatch(t, []identity.ID{100, 200, 300}, p.Members)
	require.Equal(t, 3, p.NextVersionNum, "counter repaired to max version + 1")
	require.Equal(t, identity.ID(100), p.Versions[0].UploaderID)
	require.Equal(t, 2024, p.Versions[0].Timestamp.Year())
}

func TestFileGateway_DropsNamelessEntries(t *testing.T) {
	doc := `{"dddd-4444": {"owner_id": 1, "members": [1], "versions": [], "next_version_num": 1}}`
	path := filepath.Join(t.TempDir(), "vault.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	gw := snapshot.NewFileGateway(path, nil)
	loaded, err := gw.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestFileGateway_SaveOverwritesPrevious(t *testing.T) {
	ctx := context.Background()
	gw := snapshot.NewFileGateway(filepath.Join(t.TempDir(), "vault.json"), nil)

	require.NoError(t, gw.Save(ctx, sampleProjects()))
	require.NoError(t, gw.Save(ctx, sampleProjects()[:1]))

	loaded, err := gw.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "aaaa-1111", loaded[0].ID)
}
