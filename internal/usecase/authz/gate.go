// Package authz is the authorization gate for the approval workflow. It is a
// pure function of the actor's role claim and static facts about the resource.
package authz

import "intranet-approval/internal/domain/directory"

type Action string

const (
	ActionSubmit     Action = "submit"
	ActionAppendLine Action = "append_line"
	ActionDecide     Action = "decide"
	ActionGetStatus  Action = "get_status"
	ActionHistory    Action = "history"
)

type Effect bool

const (
	Deny  Effect = false
	Allow Effect = true
)

func (e Effect) String() string {
	if e {
		return "allow"
	}
	return "deny"
}

// Resource carries the facts the gate needs. LineApprover is only set for
// line-scoped actions.
type Resource struct {
	Owner        string
	Approvers    []string
	LineApprover string
}

// Gate holds no state; the zero value is ready to use.
type Gate struct{}

func New() Gate { return Gate{} }

func (Gate) Decide(actor directory.Actor, res Resource, action Action) Effect {
	if actor.ID == "" {
		return Deny
	}
	switch action {
	case ActionSubmit:
		return Allow
	case ActionAppendLine:
		return Effect(actor.IsAdmin())
	case ActionDecide:
		// approval authority is per line; admins get no bypass
		return Effect(res.LineApprover != "" && actor.ID == res.LineApprover)
	case ActionGetStatus, ActionHistory:
		if actor.IsAdmin() || actor.ID == res.Owner {
			return Allow
		}
		for _, a := range res.Approvers {
			if a == actor.ID {
				return Allow
			}
		}
		return Deny
	}
	return Deny
}
