package project_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/docvault/internal/domain/project"
	"github.com/rpggio/docvault/internal/identity"
	"github.com/stretchr/testify/require"
)

const (
	alice = identity.ID(100)
	bob   = identity.ID(200)
	carol = identity.ID(300)
)

func seed(uploader identity.ID, name string) project.Seed {
	return project.Seed{
		FileRef:      "file-" + name,
		FileName:     name + ".docx",
		Caption:      "initial",
		UploaderID:   uploader,
		UploaderName: "User " + uploader.String(),
	}
}

func TestStore_CreateSeedsFirstVersion(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)

	p, err := store.Create(ctx, "Specs", alice, seed(alice, "specs"))
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, "Specs", p.Name)
	require.Equal(t, alice, p.OwnerID)
	require.Equal(t, []identity.ID{alice}, p.Members)
	require.Len(t, p.Versions, 1)
	require.Equal(t, 1, p.Versions[0].VersionNum)
	require.Equal(t, 2, p.NextVersionNum)

	found, err := store.FindForOwner("specs", alice)
	require.NoError(t, err)
	require.Equal(t, p.ID, found.ID)
}

func TestStore_CreateRejectsDuplicatePerOwner(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)

	_, err := store.Create(ctx, "Specs", alice, seed(alice, "specs"))
	require.NoError(t, err)

	_, err = store.Create(ctx, "SPECS", alice, seed(alice, "specs2"))
	require.ErrorIs(t, err, project.ErrDuplicateName)

	// A different owner may reuse the name.
	_, err = store.Create(ctx, "Specs", bob, seed(bob, "specs"))
	require.NoError(t, err)
}

func TestStore_CreateRejectsBlankName(t *testing.T) {
	store := project.NewStore(nil, nil)
	_, err := store.Create(context.Background(), "   ", alice, seed(alice, "x"))
	require.ErrorIs(t, err, project.ErrInvalidName)
}

func TestStore_CommitNumbersMonotonically(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)

	p, err := store.Create(ctx, "Specs", alice, seed(alice, "v1"))
	require.NoError(t, err)

	for want := 2; want <= 6; want++ {
		num, err := store.Commit(ctx, p.ID, alice, seed(alice, "next"))
		require.NoError(t, err)
		require.Equal(t, want, num)
	}

	versions, err := store.ListVersions(p.ID)
	require.NoError(t, err)
	require.Len(t, versions, 6)
	for i, v := range versions {
		require.Equal(t, i+1, v.VersionNum)
	}

	got, err := store.FindByID(p.ID, alice)
	require.NoError(t, err)
	require.Equal(t, 7, got.NextVersionNum)
}

func TestStore_CommitByNonMemberReportsNotFound(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)

	p, err := store.Create(ctx, "Specs", alice, seed(alice, "v1"))
	require.NoError(t, err)

	_, err = store.Commit(ctx, p.ID, bob, seed(bob, "v2"))
	require.ErrorIs(t, err, project.ErrNotFound)
}

func TestStore_FindForMemberHidesExistence(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)

	_, err := store.Create(ctx, "Secret", alice, seed(alice, "v1"))
	require.NoError(t, err)

	_, err = store.FindForMember("Secret", bob)
	require.ErrorIs(t, err, project.ErrNotFound)

	found, err := store.FindForMember("secret", alice)
	require.NoError(t, err)
	require.Equal(t, "Secret", found.Name)
}

func TestStore_FindForMemberFirstInsertedWins(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)

	first, err := store.Create(ctx, "Shared", alice, seed(alice, "a"))
	require.NoError(t, err)
	second, err := store.Create(ctx, "Shared", bob, seed(bob, "b"))
	require.NoError(t, err)
	require.NoError(t, store.AddMember(ctx, second.ID, bob, alice))

	found, err := store.FindForMember("shared", alice)
	require.NoError(t, err)
	require.Equal(t, first.ID, found.ID)
}

func TestStore_MembershipInvariants(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)

	p, err := store.Create(ctx, "Specs", alice, seed(alice, "v1"))
	require.NoError(t, err)

	require.ErrorIs(t, store.AddMember(ctx, p.ID, bob, carol), project.ErrNotOwner)
	require.ErrorIs(t, store.AddMember(ctx, p.ID, alice, alice), project.ErrAlreadySelf)

	require.NoError(t, store.AddMember(ctx, p.ID, alice, bob))
	require.ErrorIs(t, store.AddMember(ctx, p.ID, alice, bob), project.ErrAlreadyMember)

	got, err := store.FindByID(p.ID, alice)
	require.NoError(t, err)
	require.Equal(t, []identity.ID{alice, bob}, got.Members)

	require.ErrorIs(t, store.RemoveMember(ctx, p.ID, alice, alice), project.ErrCannotRemoveOwner)
	require.ErrorIs(t, store.RemoveMember(ctx, p.ID, alice, carol), project.ErrNotAMember)
	require.ErrorIs(t, store.RemoveMember(ctx, p.ID, bob, alice), project.ErrNotOwner)

	require.NoError(t, store.RemoveMember(ctx, p.ID, alice, bob))
	got, err = store.FindByID(p.ID, alice)
	require.NoError(t, err)
	require.Equal(t, []identity.ID{alice}, got.Members)
}

func TestStore_GetVersion(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)

	p, err := store.Create(ctx, "Specs", alice, seed(alice, "v1"))
	require.NoError(t, err)
	_, err = store.Commit(ctx, p.ID, alice, seed(alice, "v2"))
	require.NoError(t, err)

	latest, err := store.GetVersion(p.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 2, latest.VersionNum)

	one := 1
	v, err := store.GetVersion(p.ID, &one)
	require.NoError(t, err)
	require.Equal(t, "file-v1", v.FileRef)

	missing := 9
	_, err = store.GetVersion(p.ID, &missing)
	require.ErrorIs(t, err, project.ErrNoVersions)
}

func TestStore_ListMembersRecoversDisplayNames(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)

	p, err := store.Create(ctx, "Specs", alice, project.Seed{
		FileRef: "f1", FileName: "a.docx", Caption: "init",
		UploaderID: alice, UploaderName: "Alice",
	})
	require.NoError(t, err)
	require.NoError(t, store.AddMember(ctx, p.ID, alice, bob))

	members, err := store.ListMembers(p.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	byID := map[identity.ID]project.MemberInfo{}
	for _, m := range members {
		byID[m.ID] = m
	}
	require.Equal(t, "Alice", byID[alice].DisplayName)
	require.True(t, byID[alice].IsOwner)
	// Bob never uploaded anything, so only the raw id is known.
	require.Equal(t, bob.String(), byID[bob].DisplayName)
	require.False(t, byID[bob].IsOwner)
}

type failingArchiver struct{ calls int }

func (a *failingArchiver) Save(ctx context.Context, projects []*project.Project) error {
	a.calls++
	return errors.New("disk full")
}

func TestStore_PersistFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	archive := &failingArchiver{}
	store := project.NewStore(archive, nil)

	p, err := store.Create(ctx, "Specs", alice, seed(alice, "v1"))
	require.NoError(t, err)
	require.Equal(t, 1, archive.calls)

	// The mutation stands even though the save failed.
	found, err := store.FindForOwner("Specs", alice)
	require.NoError(t, err)
	require.Equal(t, p.ID, found.ID)
}

func TestStore_CloneIsolation(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)

	p, err := store.Create(ctx, "Specs", alice, seed(alice, "v1"))
	require.NoError(t, err)

	p.Name = "Tampered"
	p.Members = append(p.Members, carol)

	got, err := store.FindForOwner("Specs", alice)
	require.NoError(t, err)
	require.Equal(t, "Specs", got.Name)
	require.Equal(t, []identity.ID{alice}, got.Members)
}
