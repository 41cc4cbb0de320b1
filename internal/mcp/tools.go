package mcp

import (
	"context"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/docvault/internal/domain/project"
	"github.com/rpggio/docvault/internal/identity"
)

type listProjectsInput struct {
	UserID int64 `json:"user_id"`
}

type projectSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Owner        bool   `json:"owner"`
	MemberCount  int    `json:"member_count"`
	VersionCount int    `json:"version_count"`
}

type listProjectsOutput struct {
	Projects []projectSummary `json:"projects"`
}

type listVersionsInput struct {
	UserID  int64  `json:"user_id"`
	Project string `json:"project"`
}

type versionInfo struct {
	VersionNum   int       `json:"version_num"`
	FileName     string    `json:"file_name"`
	Caption      string    `json:"caption"`
	UploaderName string    `json:"uploader_display_name"`
	Timestamp    time.Time `json:"timestamp"`
}

type listVersionsOutput struct {
	Project  string        `json:"project"`
	Versions []versionInfo `json:"versions"`
}

type getVersionInput struct {
	UserID  int64  `json:"user_id"`
	Project string `json:"project"`
	Version *int   `json:"version,omitempty"`
}

type getVersionOutput struct {
	Project string      `json:"project"`
	Version versionInfo `json:"version"`
	FileRef string      `json:"file_ref"`
}

func registerTools(server *sdkmcp.Server, store *project.Store) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List the projects the given user owns or is a member of",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in listProjectsInput) (*sdkmcp.CallToolResult, listProjectsOutput, error) {
		actor := identity.ID(in.UserID)
		var out listProjectsOutput
		for _, p := range store.ListForMember(actor) {
			out.Projects = append(out.Projects, projectSummary{
				ID:           p.ID,
				Name:         p.Name,
				Owner:        p.OwnerID == actor,
				MemberCount:  len(p.Members),
				VersionCount: len(p.Versions),
			})
		}
		return nil, out, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_versions",
		Description: "List every version in a project the user is a member of, oldest first",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in listVersionsInput) (*sdkmcp.CallToolResult, listVersionsOutput, error) {
		actor := identity.ID(in.UserID)
		p, err := store.FindForMember(in.Project, actor)
		if err != nil {
			return nil, listVersionsOutput{}, err
		}
		out := listVersionsOutput{Project: p.Name}
		for _, v := range p.Versions {
			out.Versions = append(out.Versions, toVersionInfo(v))
		}
		return nil, out, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_version",
		Description: "Get one version's metadata and artifact handle (latest when version is omitted)",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in getVersionInput) (*sdkmcp.CallToolResult, getVersionOutput, error) {
		actor := identity.ID(in.UserID)
		p, err := store.FindForMember(in.Project, actor)
		if err != nil {
			return nil, getVersionOutput{}, err
		}
		v, err := store.GetVersion(p.ID, in.Version)
		if err != nil {
			return nil, getVersionOutput{}, err
		}
		return nil, getVersionOutput{
			Project: p.Name,
			Version: toVersionInfo(*v),
			FileRef: v.FileRef,
		}, nil
	})
}

func toVersionInfo(v project.Version) versionInfo {
	return versionInfo{
		VersionNum:   v.VersionNum,
		FileName:     v.FileName,
		Caption:      v.Caption,
		UploaderName: v.UploaderName,
		Timestamp:    v.Timestamp,
	}
}
