package approval

import (
	"context"
	"errors"
	"strings"
	"time"

	domainApproval "intranet-approval/internal/domain/approval"
	"intranet-approval/internal/domain/directory"
	"intranet-approval/internal/domain/notify"
	"intranet-approval/internal/domain/uow"
	"intranet-approval/internal/infrastructure/metrics"
	"intranet-approval/internal/usecase/authz"
	"intranet-approval/pkg/id"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var errNoUoW = errors.New("unit of work not configured")

type Usecase struct {
	repos   uow.Repos
	uow     uow.UnitOfWork
	dir     directory.Directory
	gate    authz.Gate
	events  notify.Emitter
	metrics *metrics.Workflow
	log     zerolog.Logger
	now     func() time.Time
}

type Option func(*Usecase)

func WithMetrics(m *metrics.Workflow) Option { return func(u *Usecase) { u.metrics = m } }
func WithLogger(l zerolog.Logger) Option     { return func(u *Usecase) { u.log = l } }
func WithClock(now func() time.Time) Option  { return func(u *Usecase) { u.now = now } }

// NewUsecase: plain repos serve reads, the UoW serves every write.
func NewUsecase(repos uow.Repos, tx uow.UnitOfWork, dir directory.Directory, events notify.Emitter, opts ...Option) *Usecase {
	u := &Usecase{
		repos:  repos,
		uow:    tx,
		dir:    dir,
		gate:   authz.New(),
		events: events,
		log:    zerolog.Nop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.events == nil {
		u.events = noopEmitter{}
	}
	return u
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, ...notify.Event) {}

// Submit creates a pending request and its whole chain in one commit.
func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*RequestDTO, error) {
	if u.uow == nil {
		return nil, domainApproval.Persistence(errNoUoW)
	}
	requester, err := u.resolve(ctx, in.Requester)
	if err != nil {
		return nil, u.fail("submit", err)
	}
	if u.gate.Decide(requester, authz.Resource{Owner: requester.ID}, authz.ActionSubmit) == authz.Deny {
		return nil, u.fail("submit", domainApproval.Forbidden("actor %s may not submit", requester.ID))
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		return nil, u.fail("submit", domainApproval.Validation("category is required"))
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, u.fail("submit", domainApproval.Validation("content is required"))
	}
	lines, err := u.buildChain(ctx, in.Approvers)
	if err != nil {
		return nil, u.fail("submit", err)
	}

	req := &domainApproval.Request{
		RequestID: id.NewID32(),
		Requester: requester.ID,
		Category:  category,
		Content:   in.Content,
		Status:    domainApproval.RequestPending,
		Version:   1,
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Requests.Create(ctx, req); err != nil {
			return err
		}
		for _, l := range lines {
			l.RequestID = req.ID
		}
		if err := r.Lines.Create(ctx, lines); err != nil {
			return err
		}
		return r.Audit.Append(ctx, &domainApproval.AuditEntry{
			AuditID:      id.NewID32(),
			RequestID:    req.ID,
			Actor:        requester.ID,
			Action:       domainApproval.AuditSubmitted,
			StatusBefore: domainApproval.RequestPending,
			StatusAfter:  domainApproval.RequestPending,
		})
	})
	if err != nil {
		return nil, u.fail("submit", domainApproval.Persistence(err))
	}

	chain := make([]domainApproval.Line, 0, len(lines))
	for _, l := range lines {
		chain = append(chain, *l)
	}
	view := toView(req, chain)

	u.metrics.Submitted(category)
	u.log.Info().
		Str("request_id", req.RequestID).
		Str("requester", req.Requester).
		Str("category", category).
		Int("lines", len(chain)).
		Msg("approval request submitted")

	if active := view.ActiveLine(); active != nil {
		u.events.Emit(ctx, notify.Event{
			Type:       notify.EventRequested,
			Targets:    []string{active.Approver},
			RequestID:  req.RequestID,
			LineID:     active.LineID,
			OccurredAt: u.now(),
			Payload: map[string]any{
				"requester": req.Requester,
				"category":  category,
				"order":     active.Order,
			},
		})
	}
	return view, nil
}

// buildChain resolves every approver and assigns orders: the 1-based position
// unless the caller supplied one explicitly.
func (u *Usecase) buildChain(ctx context.Context, approvers []ApproverInput) ([]*domainApproval.Line, error) {
	if len(approvers) == 0 {
		return nil, domainApproval.Validation("approver sequence is empty")
	}
	seen := make(map[int]struct{}, len(approvers))
	lines := make([]*domainApproval.Line, 0, len(approvers))
	for i, a := range approvers {
		order := a.Order
		if order == 0 {
			order = i + 1
		}
		if order < 0 {
			return nil, domainApproval.Validation("approver %d: order must be positive", i+1)
		}
		if _, dup := seen[order]; dup {
			return nil, domainApproval.Validation("approver %d: order %d used twice", i+1, order)
		}
		seen[order] = struct{}{}

		actor, err := u.resolve(ctx, a.ID)
		if err != nil {
			if errors.Is(err, domainApproval.ErrNotFound) {
				return nil, domainApproval.Validation("approver %d: unknown identity %q", i+1, a.ID)
			}
			return nil, err
		}
		lines = append(lines, &domainApproval.Line{
			LineID:   id.NewID32(),
			Approver: actor.ID,
			Order:    order,
			Status:   domainApproval.LineWaiting,
		})
	}
	return lines, nil
}

// AppendLine adds a waiting line behind the existing chain. Administrators only.
func (u *Usecase) AppendLine(ctx context.Context, in AppendLineInput) (*LineDTO, error) {
	if u.uow == nil {
		return nil, domainApproval.Persistence(errNoUoW)
	}
	actor, err := u.resolve(ctx, in.Actor)
	if err != nil {
		return nil, u.fail("append_line", err)
	}
	if u.gate.Decide(actor, authz.Resource{}, authz.ActionAppendLine) == authz.Deny {
		return nil, u.fail("append_line", domainApproval.Forbidden("administrator role required"))
	}
	if in.Order <= 0 {
		return nil, u.fail("append_line", domainApproval.Validation("order must be positive"))
	}
	approver, err := u.resolve(ctx, in.Approver)
	if err != nil {
		if errors.Is(err, domainApproval.ErrNotFound) {
			err = domainApproval.Validation("unknown approver %q", in.Approver)
		}
		return nil, u.fail("append_line", err)
	}

	var line *domainApproval.Line
	err = u.uow.WithinRequestTx(ctx, in.RequestID, func(r uow.Repos, req *domainApproval.Request) error {
		if req.Status != domainApproval.RequestPending {
			return domainApproval.Conflict(domainApproval.CodeRequestNotPending, "request is %s", req.Status)
		}
		lines, err := r.Lines.ListByRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if l.Order == in.Order {
				return domainApproval.Conflict(domainApproval.CodeDuplicateOrder, "order %d already used", in.Order)
			}
		}
		if last := domainApproval.MaxOrder(lines); in.Order <= last {
			return domainApproval.Conflict(domainApproval.CodeDuplicateOrder, "order must be greater than %d", last)
		}

		line = &domainApproval.Line{
			LineID:    id.NewID32(),
			RequestID: req.ID,
			Approver:  approver.ID,
			Order:     in.Order,
			Status:    domainApproval.LineWaiting,
		}
		if err := r.Lines.Create(ctx, []*domainApproval.Line{line}); err != nil {
			return err
		}
		return r.Audit.Append(ctx, &domainApproval.AuditEntry{
			AuditID:      id.NewID32(),
			RequestID:    req.ID,
			LineID:       &line.ID,
			Actor:        actor.ID,
			Action:       domainApproval.AuditLineAppended,
			StatusBefore: req.Status,
			StatusAfter:  req.Status,
		})
	})
	if err != nil {
		return nil, u.fail("append_line", notFoundOr(err, "request %s not found", in.RequestID))
	}

	u.metrics.Appended()
	u.log.Info().
		Str("request_id", in.RequestID).
		Str("line_id", line.LineID).
		Str("approver", line.Approver).
		Int("order", line.Order).
		Str("actor", actor.ID).
		Msg("approval line appended")

	// the chain before it still has a waiting line, so the new line is never active here
	return toLineDTO(line, false), nil
}

// Decide applies one decision to the active line. The line and request are
// moved with compare-and-swap updates under the request row lock; events go
// out only after the commit.
func (u *Usecase) Decide(ctx context.Context, in DecideInput) (*RequestDTO, error) {
	if u.uow == nil {
		return nil, domainApproval.Persistence(errNoUoW)
	}
	outcome, ok := in.Decision.LineStatus()
	if !ok {
		return nil, u.fail("decide", domainApproval.Validation("unknown decision %q", in.Decision))
	}
	decider, err := u.resolve(ctx, in.Decider)
	if err != nil {
		return nil, u.fail("decide", err)
	}

	target, err := u.repos.Lines.GetByLineID(ctx, in.LineID)
	if err != nil {
		return nil, u.fail("decide", notFoundOr(err, "line %s not found", in.LineID))
	}
	parent, err := u.repos.Requests.GetByID(ctx, target.RequestID)
	if err != nil {
		return nil, u.fail("decide", notFoundOr(err, "request of line %s not found", in.LineID))
	}

	var (
		view    *RequestDTO
		decided domainApproval.Line
		final   domainApproval.RequestStatus
	)
	err = u.uow.WithinRequestTx(ctx, parent.RequestID, func(r uow.Repos, req *domainApproval.Request) error {
		lines, err := r.Lines.ListByRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		idx := -1
		for i := range lines {
			if lines[i].LineID == in.LineID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return domainApproval.NotFound("line %s not found", in.LineID)
		}
		line := lines[idx]

		res := authz.Resource{
			Owner:        req.Requester,
			Approvers:    domainApproval.ChainApprovers(lines),
			LineApprover: line.Approver,
		}
		if u.gate.Decide(decider, res, authz.ActionDecide) == authz.Deny {
			return domainApproval.Forbidden("actor %s is not the approver of line %s", decider.ID, line.LineID)
		}
		if line.Status != domainApproval.LineWaiting {
			return domainApproval.Conflict(domainApproval.CodeAlreadyDecided, "line %s is already %s", line.LineID, line.Status)
		}
		if req.Status.Terminal() {
			return domainApproval.Conflict(domainApproval.CodeRequestNotPending, "request is %s", req.Status)
		}
		active := domainApproval.ActiveLine(req.Status, lines)
		if active == nil || active.LineID != line.LineID {
			return domainApproval.Conflict(domainApproval.CodeOutOfSequence, "line %s is not the active line", line.LineID)
		}

		now := u.now()
		var comment *string
		if c := strings.TrimSpace(in.Comment); c != "" {
			comment = &c
		}
		swapped, err := r.Lines.Transition(ctx, line.ID, outcome, comment, now)
		if err != nil {
			return err
		}
		if !swapped {
			return domainApproval.Conflict(domainApproval.CodeAlreadyDecided, "line %s was decided concurrently", line.LineID)
		}
		lines[idx].Status = outcome
		lines[idx].DecisionComment = comment
		lines[idx].DecidedAt = &now

		before := req.Status
		next := domainApproval.Outcome(lines)
		if next.Terminal() {
			swapped, err := r.Requests.TransitionStatus(ctx, req.ID, req.Version, next, now)
			if err != nil {
				return err
			}
			if !swapped {
				return domainApproval.Conflict(domainApproval.CodeRequestNotPending, "request %s changed concurrently", req.RequestID)
			}
			req.Status = next
			req.Version++
			req.DecidedAt = &now
			final = next
		}

		action := domainApproval.AuditApproved
		if outcome == domainApproval.LineRejected {
			action = domainApproval.AuditRejected
		}
		if err := r.Audit.Append(ctx, &domainApproval.AuditEntry{
			AuditID:      id.NewID32(),
			RequestID:    req.ID,
			LineID:       &lines[idx].ID,
			Actor:        decider.ID,
			Action:       action,
			StatusBefore: before,
			StatusAfter:  req.Status,
			Comment:      comment,
		}); err != nil {
			return err
		}

		decided = lines[idx]
		view = toView(req, lines)
		return nil
	})
	if err != nil {
		return nil, u.fail("decide", notFoundOr(err, "request of line %s not found", in.LineID))
	}

	u.metrics.Decided(string(in.Decision), string(final))
	u.log.Info().
		Str("request_id", view.RequestID).
		Str("line_id", decided.LineID).
		Str("decider", decider.ID).
		Str("outcome", string(decided.Status)).
		Str("request_status", view.Status).
		Msg("approval line decided")

	u.events.Emit(ctx, u.decisionEvents(view, decided)...)
	return view, nil
}

// decisionEvents builds exactly one line event plus one outcome event when the
// request just became terminal.
func (u *Usecase) decisionEvents(view *RequestDTO, decided domainApproval.Line) []notify.Event {
	now := u.now()
	targets := []string{view.Requester}
	payload := map[string]any{
		"approver":       decided.Approver,
		"order":          decided.Order,
		"outcome":        string(decided.Status),
		"request_status": view.Status,
	}
	if decided.DecisionComment != nil {
		payload["comment"] = *decided.DecisionComment
	}
	if next := view.ActiveLine(); next != nil {
		payload["next_line_id"] = next.LineID
		payload["next_approver"] = next.Approver
		if next.Approver != view.Requester {
			targets = append(targets, next.Approver)
		}
	}
	events := []notify.Event{{
		Type:       notify.EventLineDecided,
		Targets:    targets,
		RequestID:  view.RequestID,
		LineID:     decided.LineID,
		Payload:    payload,
		OccurredAt: now,
	}}

	var final notify.EventType
	switch domainApproval.RequestStatus(view.Status) {
	case domainApproval.RequestApproved:
		final = notify.EventApproved
	case domainApproval.RequestRejected:
		final = notify.EventRejected
	default:
		return events
	}
	return append(events, notify.Event{
		Type:       final,
		Targets:    []string{view.Requester},
		RequestID:  view.RequestID,
		LineID:     decided.LineID,
		Payload:    map[string]any{"category": view.Category, "decided_by": decided.Approver},
		OccurredAt: now,
	})
}

// GetStatus returns the request with its ordered chain and active line.
func (u *Usecase) GetStatus(ctx context.Context, requestID, actorID string) (*RequestDTO, error) {
	req, lines, err := u.readable(ctx, "get_status", requestID, actorID, authz.ActionGetStatus)
	if err != nil {
		return nil, err
	}
	return toView(req, lines), nil
}

// History returns the audit trail of a request, oldest first.
func (u *Usecase) History(ctx context.Context, requestID, actorID string) ([]AuditDTO, error) {
	req, lines, err := u.readable(ctx, "history", requestID, actorID, authz.ActionHistory)
	if err != nil {
		return nil, err
	}
	entries, err := u.repos.Audit.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, u.fail("history", domainApproval.Persistence(err))
	}

	publicLine := make(map[uint64]string, len(lines))
	for _, l := range lines {
		publicLine[l.ID] = l.LineID
	}
	out := make([]AuditDTO, 0, len(entries))
	for _, e := range entries {
		dto := AuditDTO{
			Action:       string(e.Action),
			Actor:        e.Actor,
			StatusBefore: string(e.StatusBefore),
			StatusAfter:  string(e.StatusAfter),
			Comment:      e.Comment,
			At:           e.CreatedAt,
		}
		if e.LineID != nil {
			dto.LineID = publicLine[*e.LineID]
		}
		out = append(out, dto)
	}
	return out, nil
}

// Inbox lists the lines currently waiting on the actor's decision.
func (u *Usecase) Inbox(ctx context.Context, actorID string) ([]InboxItemDTO, error) {
	actor, err := u.resolve(ctx, actorID)
	if err != nil {
		return nil, u.fail("inbox", err)
	}
	waiting, err := u.repos.Lines.ListWaitingByApprover(ctx, actor.ID)
	if err != nil {
		return nil, u.fail("inbox", domainApproval.Persistence(err))
	}

	out := make([]InboxItemDTO, 0, len(waiting))
	checked := make(map[uint64]bool)
	for _, w := range waiting {
		if checked[w.RequestID] {
			continue
		}
		checked[w.RequestID] = true

		req, err := u.repos.Requests.GetByID(ctx, w.RequestID)
		if err != nil {
			return nil, u.fail("inbox", domainApproval.Persistence(err))
		}
		lines, err := u.repos.Lines.ListByRequest(ctx, req.ID)
		if err != nil {
			return nil, u.fail("inbox", domainApproval.Persistence(err))
		}
		active := domainApproval.ActiveLine(req.Status, lines)
		if active == nil || active.Approver != actor.ID {
			continue
		}
		out = append(out, InboxItemDTO{
			RequestID: req.RequestID,
			LineID:    active.LineID,
			Order:     active.Order,
			Requester: req.Requester,
			Category:  req.Category,
			CreatedAt: req.CreatedAt,
		})
	}
	return out, nil
}

func (u *Usecase) readable(ctx context.Context, op, requestID, actorID string, action authz.Action) (*domainApproval.Request, []domainApproval.Line, error) {
	actor, err := u.resolve(ctx, actorID)
	if err != nil {
		return nil, nil, u.fail(op, err)
	}
	req, err := u.repos.Requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, nil, u.fail(op, notFoundOr(err, "request %s not found", requestID))
	}
	lines, err := u.repos.Lines.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, nil, u.fail(op, domainApproval.Persistence(err))
	}
	res := authz.Resource{Owner: req.Requester, Approvers: domainApproval.ChainApprovers(lines)}
	if u.gate.Decide(actor, res, action) == authz.Deny {
		return nil, nil, u.fail(op, domainApproval.Forbidden("actor %s may not read request %s", actor.ID, requestID))
	}
	return req, lines, nil
}

func (u *Usecase) resolve(ctx context.Context, actorID string) (directory.Actor, error) {
	if strings.TrimSpace(actorID) == "" {
		return directory.Actor{}, domainApproval.NotFound("actor id is empty")
	}
	a, err := u.dir.Resolve(ctx, actorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return directory.Actor{}, domainApproval.NotFound("actor %s not found", actorID)
		}
		return directory.Actor{}, domainApproval.Persistence(err)
	}
	return a, nil
}

// fail records the refusal and hands the error back unchanged.
func (u *Usecase) fail(op string, err error) error {
	kind := domainApproval.KindOf(err)
	u.metrics.Refused(op, kind.String())
	if kind == domainApproval.KindPersistence {
		u.log.Error().Err(err).Str("operation", op).Msg("approval store failure")
	} else {
		u.log.Debug().Err(err).Str("operation", op).Msg("approval operation refused")
	}
	return err
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainApproval.NotFound(format, args...)
	}
	return domainApproval.Persistence(err)
}
