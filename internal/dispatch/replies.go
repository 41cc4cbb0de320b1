package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/docvault/internal/domain/project"
	"github.com/rpggio/docvault/internal/identity"
)

// Every operation outcome, success or failure, maps to exactly one
// human-readable message. This mapping is the dispatcher's only observable
// contract toward the messaging endpoint.

const instructions = "Send me a document first. Then use these commands:\n" +
	"/newproject <project name> - Create a new project from the last document you sent.\n" +
	"/commit <project name> [message] - Save the last document as a new version of an existing project.\n" +
	"/listprojects - Show your projects and projects you are a member of.\n" +
	"/versions <project name> - Show every version in a project.\n" +
	"/get <project name> [version] - Fetch a specific version (latest when omitted).\n" +
	"/addmember <project name> <user id or @handle> - Add a user to a project (owner only).\n" +
	"/removemember <project name> <user id or @handle> - Remove a user from a project (owner only).\n" +
	"/members <project name> - Show project members.\n\n" +
	"Important: /newproject and /commit need a document sent beforehand; I remember the last one.\n\n" +
	"Use /help at any time to see these instructions again."

func replyWelcome(name string) string {
	return fmt.Sprintf("Hi, %s! I am your document versioning bot.\n\nHere is how to use me:\n\n%s", name, instructions)
}

func replyFileReceived(fileName string) string {
	return fmt.Sprintf("File %q received. You can now:\n"+
		"- Create a new project: /newproject <project name>\n"+
		"- Update an existing one: /commit <project name> [message]", fileName)
}

const (
	replyNeedUploadCreate   = "Send me the document you want to start the new project with first."
	replyNeedUploadCommit   = "Send me the document you want to commit first."
	replyUsageNewProject    = "Please give the project a name: /newproject <project name>"
	replyUsageCommit        = "Name the project: /commit <project name> [message]"
	replyUsageVersions      = "Name the project: /versions <project name>"
	replyUsageGet           = "Name the project: /get <project name> [version]"
	replyUsageAddMember     = "Usage: /addmember <project name> <user id or @handle>"
	replyUsageRemoveMember  = "Usage: /removemember <project name> <user id or @handle>"
	replyUsageMembers       = "Name the project: /members <project name>"
	replyAskProjectName     = "Send the name for the new project."
	replyInvalidVersionNum  = "The version number must be a number."
	replyInvalidUserRef     = "Invalid user reference. Give a numeric user id or an @handle."
	replyAlreadyOwner       = "You are already the owner and a member of this project."
	replyCannotRemoveOwner  = "The owner cannot be removed from their own project. Ownership transfer and project deletion are separate operations that do not exist yet."
	replyNoProjects         = "There are no projects yet."
	replyNotInAnyProject    = "You are not a member of any project."
	replyDeliveryFailed     = "Could not deliver the document. It may have been removed from the chat history, or I have lost access to the file."
	replyUnknownCommand     = "Unknown command. Use /help to see what I can do."
	replyUnknownButton      = "That action is no longer available."
)

func replyProjectCreated(name, id string) string {
	return fmt.Sprintf("Project %q (ID: %s) created. The first document version has been added.", name, shortID(id))
}

func replyDuplicateName(name string) string {
	return fmt.Sprintf("You already have a project named %q.", name)
}

func replyCommitted(num int, name string) string {
	return fmt.Sprintf("New version (%d) added to project %q.", num, name)
}

func replyNotFound(name string) string {
	return fmt.Sprintf("Project %q was not found, or you have no access to it.", name)
}

func replyNotOwner(name string) string {
	return fmt.Sprintf("Project %q was not found, or you are not its owner.", name)
}

func replyNoVersions(name string) string {
	return fmt.Sprintf("Project %q has no versions yet.", name)
}

func replyVersionMissing(num *int, name string) string {
	if num == nil {
		return fmt.Sprintf("No matching version was found in project %q.", name)
	}
	return fmt.Sprintf("Version %d was not found in project %q.", *num, name)
}

func replyUnresolvableHandle(ref string) string {
	return fmt.Sprintf("I cannot resolve %s: that user has never talked to me. "+
		"Ask them to message me first, or use their numeric user id.", ref)
}

func replyMemberAdded(target identity.ID, name string) string {
	return fmt.Sprintf("User %s added to project %q.", target, name)
}

func replyMemberRemoved(target identity.ID, name string) string {
	return fmt.Sprintf("User %s removed from project %q.", target, name)
}

func replyAlreadyMember(target identity.ID, name string) string {
	return fmt.Sprintf("User %s is already a member of project %q.", target, name)
}

func replyNotAMember(target identity.ID, name string) string {
	return fmt.Sprintf("User %s is not a member of project %q.", target, name)
}

func noticeAdded(name, ownerName string) string {
	return fmt.Sprintf("You have been added to project %q (owner: %s).\nUse /listprojects to see it.", name, ownerName)
}

func noticeRemoved(name string) string {
	return fmt.Sprintf("You have been removed from project %q.", name)
}

func formatProjectList(projects []*project.Project, viewer identity.ID) string {
	var b strings.Builder
	b.WriteString("Your projects and projects you are a member of:\n")
	for _, p := range projects {
		role := "(member)"
		if p.OwnerID == viewer {
			role = "(owner)"
		}
		fmt.Fprintf(&b, "- %s %s (ID: %s)\n", p.Name, role, shortID(p.ID))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatVersionList renders the ledger newest-first, with a /get hint per
// entry.
func formatVersionList(projectName string, versions []project.Version) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document versions in project %q:\n", projectName)
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		fmt.Fprintf(&b, "  Version %d (%s) from %s\n", v.VersionNum, v.FileName, v.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "    Uploaded by: %s\n", v.UploaderName)
		fmt.Fprintf(&b, "    Message: %s\n", v.Caption)
		fmt.Fprintf(&b, "    [/get %s %d]\n\n", projectName, v.VersionNum)
	}
	return b.String()
}

func formatMemberList(projectName string, members []project.MemberInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Members of project %q:\n", projectName)
	for _, m := range members {
		prefix := ""
		if m.IsOwner {
			prefix = "(owner) "
		}
		if m.DisplayName != m.ID.String() {
			fmt.Fprintf(&b, "- %s%s (ID: %s)\n", prefix, m.DisplayName, m.ID)
		} else {
			fmt.Fprintf(&b, "- %sID: %s\n", prefix, m.ID)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDocumentCaption(projectName string, v project.Version) string {
	return fmt.Sprintf("Project: %s\nVersion: %d\nFile: %s\nMessage: %s\nFrom: %s",
		projectName, v.VersionNum, v.FileName, v.Caption, v.Timestamp.Format("2006-01-02 15:04:05"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// chunkMessage splits long replies so each chunk stays under the
// transport's message size cap.
const maxMessageLen = 4000

func chunkMessage(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}
	var chunks []string
	for len(text) > maxMessageLen {
		chunks = append(chunks, text[:maxMessageLen])
		text = text[maxMessageLen:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// storeErrorReply maps membership-management errors to their replies.
// Lookup errors are handled at call sites because their wording depends on
// which lookup policy failed.
func storeErrorReply(err error, target identity.ID, projectName string) (string, bool) {
	switch {
	case errors.Is(err, project.ErrAlreadySelf):
		return replyAlreadyOwner, true
	case errors.Is(err, project.ErrAlreadyMember):
		return replyAlreadyMember(target, projectName), true
	case errors.Is(err, project.ErrNotAMember):
		return replyNotAMember(target, projectName), true
	case errors.Is(err, project.ErrCannotRemoveOwner):
		return replyCannotRemoveOwner, true
	case errors.Is(err, project.ErrNotOwner), errors.Is(err, project.ErrNotFound):
		return replyNotOwner(projectName), true
	}
	return "", false
}
