// Package dispatch turns decoded endpoint events into project store
// operations, enforcing permissions and per-identity state, and converts
// every outcome into a reply for the messaging endpoint.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rpggio/docvault/internal/domain/project"
	"github.com/rpggio/docvault/internal/domain/session"
	"github.com/rpggio/docvault/internal/endpoint"
	"github.com/rpggio/docvault/internal/identity"
)

// Dispatcher routes inbound events to store operations.
type Dispatcher struct {
	store    *project.Store
	sessions *session.Table
	resolver *identity.Resolver
	ep       endpoint.Endpoint
	logger   *slog.Logger
}

// New creates a dispatcher bound to a store, session table and endpoint.
func New(store *project.Store, sessions *session.Table, resolver *identity.Resolver, ep endpoint.Endpoint, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:    store,
		sessions: sessions,
		resolver: resolver,
		ep:       ep,
		logger:   logger,
	}
}

// Dispatch handles one event to completion. Domain failures become replies;
// the returned error only reports reply delivery problems.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case KindUpload:
		return d.handleUpload(ctx, ev)
	case KindCommand:
		return d.handleCommand(ctx, ev)
	case KindButton:
		return d.handleButton(ctx, ev)
	case KindText:
		return d.handleText(ctx, ev)
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}
}

func (d *Dispatcher) handleUpload(ctx context.Context, ev Event) error {
	d.sessions.PutUpload(ev.From, session.Upload{
		FileRef:  ev.FileRef,
		FileName: ev.FileName,
		Caption:  ev.Caption,
	})
	d.logger.Info("upload received", "user", ev.From, "file", ev.FileName, "file_ref", ev.FileRef)

	buttons := []endpoint.Button{{Label: "New project", Token: tokenNewProject}}
	for _, p := range d.store.ListForMember(ev.From) {
		buttons = append(buttons, endpoint.Button{
			Label: fmt.Sprintf("Commit to %s", p.Name),
			Token: commitToken(p.ID),
		})
	}
	return d.ep.SendMessage(ctx, ev.From, replyFileReceived(ev.FileName), buttons...)
}

func (d *Dispatcher) handleCommand(ctx context.Context, ev Event) error {
	// A typed command always abandons any awaiting-input state.
	d.sessions.SetState(ev.From, session.StateIdle)

	switch ev.Command {
	case "start":
		return d.ep.SendMessage(ctx, ev.From, replyWelcome(ev.FromName))
	case "help":
		return d.ep.SendMessage(ctx, ev.From, instructions)
	case "newproject":
		if d.sessions.Pending(ev.From) == nil {
			return d.ep.SendMessage(ctx, ev.From, replyNeedUploadCreate)
		}
		if len(ev.Args) == 0 {
			return d.ep.SendMessage(ctx, ev.From, replyUsageNewProject)
		}
		return d.createProject(ctx, ev.From, ev.FromName, strings.Join(ev.Args, " "))
	case "commit":
		if d.sessions.Pending(ev.From) == nil {
			return d.ep.SendMessage(ctx, ev.From, replyNeedUploadCommit)
		}
		if len(ev.Args) == 0 {
			return d.ep.SendMessage(ctx, ev.From, replyUsageCommit)
		}
		name := ev.Args[0]
		message := strings.Join(ev.Args[1:], " ")
		p, err := d.store.FindForMember(name, ev.From)
		if err != nil {
			return d.ep.SendMessage(ctx, ev.From, replyNotFound(name))
		}
		return d.commit(ctx, ev.From, ev.FromName, p, message)
	case "listprojects":
		return d.listProjects(ctx, ev.From)
	case "versions":
		if len(ev.Args) == 0 {
			return d.ep.SendMessage(ctx, ev.From, replyUsageVersions)
		}
		return d.listVersions(ctx, ev.From, strings.Join(ev.Args, " "))
	case "get":
		if len(ev.Args) == 0 {
			return d.ep.SendMessage(ctx, ev.From, replyUsageGet)
		}
		return d.getVersion(ctx, ev)
	case "addmember":
		if len(ev.Args) < 2 {
			return d.ep.SendMessage(ctx, ev.From, replyUsageAddMember)
		}
		return d.addMember(ctx, ev, ev.Args[0], ev.Args[1])
	case "removemember":
		if len(ev.Args) < 2 {
			return d.ep.SendMessage(ctx, ev.From, replyUsageRemoveMember)
		}
		return d.removeMember(ctx, ev, ev.Args[0], ev.Args[1])
	case "members":
		if len(ev.Args) == 0 {
			return d.ep.SendMessage(ctx, ev.From, replyUsageMembers)
		}
		return d.listMembers(ctx, ev.From, strings.Join(ev.Args, " "))
	default:
		return d.ep.SendMessage(ctx, ev.From, replyUnknownCommand)
	}
}

func (d *Dispatcher) handleButton(ctx context.Context, ev Event) error {
	if ev.Token == tokenNewProject {
		if d.sessions.Pending(ev.From) == nil {
			return d.ep.SendMessage(ctx, ev.From, replyNeedUploadCreate)
		}
		d.sessions.SetState(ev.From, session.StateAwaitingProjectName)
		return d.ep.SendMessage(ctx, ev.From, replyAskProjectName)
	}
	if projectID, ok := parseCommitToken(ev.Token); ok {
		if d.sessions.Pending(ev.From) == nil {
			return d.ep.SendMessage(ctx, ev.From, replyNeedUploadCommit)
		}
		p, err := d.store.FindByID(projectID, ev.From)
		if err != nil {
			return d.ep.SendMessage(ctx, ev.From, replyUnknownButton)
		}
		return d.commit(ctx, ev.From, ev.FromName, p, "")
	}
	d.logger.Warn("unknown button token", "user", ev.From, "token", ev.Token)
	return d.ep.SendMessage(ctx, ev.From, replyUnknownButton)
}

func (d *Dispatcher) handleText(ctx context.Context, ev Event) error {
	if d.sessions.State(ev.From) != session.StateAwaitingProjectName {
		// Free text outside a prompt carries no operation.
		d.logger.Debug("ignoring free text", "user", ev.From)
		return nil
	}
	d.sessions.SetState(ev.From, session.StateIdle)
	return d.createProject(ctx, ev.From, ev.FromName, ev.Text)
}

// createProject creates a project from the pending upload. The upload is
// consumed only on success, so a rejected name keeps it available for a
// retry.
func (d *Dispatcher) createProject(ctx context.Context, from identity.ID, fromName, name string) error {
	up := d.sessions.Pending(from)
	if up == nil {
		return d.ep.SendMessage(ctx, from, replyNeedUploadCreate)
	}

	caption := up.Caption
	if caption == "" {
		caption = fmt.Sprintf("Initial version by %s", fromName)
	}
	p, err := d.store.Create(ctx, name, from, project.Seed{
		FileRef:      up.FileRef,
		FileName:     up.FileName,
		Caption:      caption,
		UploaderID:   from,
		UploaderName: fromName,
	})
	switch {
	case errors.Is(err, project.ErrDuplicateName):
		return d.ep.SendMessage(ctx, from, replyDuplicateName(name))
	case errors.Is(err, project.ErrInvalidName):
		return d.ep.SendMessage(ctx, from, replyUsageNewProject)
	case err != nil:
		return fmt.Errorf("creating project: %w", err)
	}

	d.sessions.TakeUpload(from)
	return d.ep.SendMessage(ctx, from, replyProjectCreated(p.Name, p.ID))
}

// commit appends the pending upload as a new version of p. The message
// falls back to the upload caption, then to a generic attribution line.
func (d *Dispatcher) commit(ctx context.Context, from identity.ID, fromName string, p *project.Project, message string) error {
	up := d.sessions.Pending(from)
	if up == nil {
		return d.ep.SendMessage(ctx, from, replyNeedUploadCommit)
	}

	if message == "" {
		message = up.Caption
	}
	if message == "" {
		message = fmt.Sprintf("Update by %s", fromName)
	}
	num, err := d.store.Commit(ctx, p.ID, from, project.Seed{
		FileRef:      up.FileRef,
		FileName:     up.FileName,
		Caption:      message,
		UploaderID:   from,
		UploaderName: fromName,
	})
	if errors.Is(err, project.ErrNotFound) {
		return d.ep.SendMessage(ctx, from, replyNotFound(p.Name))
	}
	if err != nil {
		return fmt.Errorf("committing version: %w", err)
	}

	d.sessions.TakeUpload(from)
	return d.ep.SendMessage(ctx, from, replyCommitted(num, p.Name))
}

func (d *Dispatcher) listProjects(ctx context.Context, from identity.ID) error {
	projects := d.store.ListForMember(from)
	if len(projects) == 0 {
		if d.store.Empty() {
			return d.ep.SendMessage(ctx, from, replyNoProjects)
		}
		return d.ep.SendMessage(ctx, from, replyNotInAnyProject)
	}
	return d.ep.SendMessage(ctx, from, formatProjectList(projects, from))
}

func (d *Dispatcher) listVersions(ctx context.Context, from identity.ID, name string) error {
	p, err := d.store.FindForMember(name, from)
	if err != nil {
		return d.ep.SendMessage(ctx, from, replyNotFound(name))
	}
	if len(p.Versions) == 0 {
		return d.ep.SendMessage(ctx, from, replyNoVersions(p.Name))
	}
	for _, chunk := range chunkMessage(formatVersionList(p.Name, p.Versions)) {
		if err := d.ep.SendMessage(ctx, from, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) getVersion(ctx context.Context, ev Event) error {
	name := ev.Args[0]
	var num *int
	if len(ev.Args) > 1 {
		parsed, err := strconv.Atoi(ev.Args[1])
		if err != nil {
			return d.ep.SendMessage(ctx, ev.From, replyInvalidVersionNum)
		}
		num = &parsed
	}

	p, err := d.store.FindForMember(name, ev.From)
	if err != nil {
		return d.ep.SendMessage(ctx, ev.From, replyNotFound(name))
	}
	if len(p.Versions) == 0 {
		return d.ep.SendMessage(ctx, ev.From, replyNoVersions(p.Name))
	}
	v, err := d.store.GetVersion(p.ID, num)
	if err != nil {
		return d.ep.SendMessage(ctx, ev.From, replyVersionMissing(num, p.Name))
	}

	if err := d.ep.SendDocument(ctx, ev.From, v.FileRef, formatDocumentCaption(p.Name, *v)); err != nil {
		// Delivery failure only: the version record stands. Report it, do
		// not roll anything back.
		d.logger.Error("document delivery failed",
			"project_id", p.ID, "version", v.VersionNum, "error", err)
		return d.ep.SendMessage(ctx, ev.From, replyDeliveryFailed)
	}
	d.logger.Info("version delivered", "project_id", p.ID, "version", v.VersionNum, "user", ev.From)
	return nil
}

func (d *Dispatcher) addMember(ctx context.Context, ev Event, name, targetRef string) error {
	p, err := d.store.FindForOwner(name, ev.From)
	if err != nil {
		return d.ep.SendMessage(ctx, ev.From, replyNotOwner(name))
	}

	target, ok, err := d.resolveTarget(ctx, ev.From, targetRef)
	if !ok {
		return err
	}

	if err := d.store.AddMember(ctx, p.ID, ev.From, target); err != nil {
		if reply, ok := storeErrorReply(err, target, p.Name); ok {
			return d.ep.SendMessage(ctx, ev.From, reply)
		}
		return fmt.Errorf("adding member: %w", err)
	}

	if err := d.ep.SendMessage(ctx, target, noticeAdded(p.Name, ev.FromName)); err != nil {
		d.logger.Warn("could not notify new member", "member", target, "project_id", p.ID, "error", err)
	}
	return d.ep.SendMessage(ctx, ev.From, replyMemberAdded(target, p.Name))
}

func (d *Dispatcher) removeMember(ctx context.Context, ev Event, name, targetRef string) error {
	p, err := d.store.FindForOwner(name, ev.From)
	if err != nil {
		return d.ep.SendMessage(ctx, ev.From, replyNotOwner(name))
	}

	target, ok, err := d.resolveTarget(ctx, ev.From, targetRef)
	if !ok {
		return err
	}

	if err := d.store.RemoveMember(ctx, p.ID, ev.From, target); err != nil {
		if reply, ok := storeErrorReply(err, target, p.Name); ok {
			return d.ep.SendMessage(ctx, ev.From, reply)
		}
		return fmt.Errorf("removing member: %w", err)
	}

	if err := d.ep.SendMessage(ctx, target, noticeRemoved(p.Name)); err != nil {
		d.logger.Warn("could not notify removed member", "member", target, "project_id", p.ID, "error", err)
	}
	return d.ep.SendMessage(ctx, ev.From, replyMemberRemoved(target, p.Name))
}

// resolveTarget resolves a member reference. When ok is false the caller
// stops: a guidance reply was already sent (or delivery failed with err).
func (d *Dispatcher) resolveTarget(ctx context.Context, from identity.ID, ref string) (identity.ID, bool, error) {
	target, err := d.resolver.Resolve(ctx, ref)
	switch {
	case errors.Is(err, identity.ErrUnresolvableHandle):
		return 0, false, d.ep.SendMessage(ctx, from, replyUnresolvableHandle(ref))
	case errors.Is(err, identity.ErrInvalidReference):
		return 0, false, d.ep.SendMessage(ctx, from, replyInvalidUserRef)
	case err != nil:
		return 0, false, fmt.Errorf("resolving %q: %w", ref, err)
	}
	return target, true, nil
}

func (d *Dispatcher) listMembers(ctx context.Context, from identity.ID, name string) error {
	p, err := d.store.FindForMember(name, from)
	if err != nil {
		return d.ep.SendMessage(ctx, from, replyNotFound(name))
	}
	members, err := d.store.ListMembers(p.ID)
	if err != nil {
		return d.ep.SendMessage(ctx, from, replyNotFound(name))
	}
	return d.ep.SendMessage(ctx, from, formatMemberList(p.Name, members))
}
