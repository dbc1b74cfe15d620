package services

import "github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"

// Event is a request to move a tenancy through its lifecycle.
type Event string

const (
	EventMoveIn   Event = "move_in"
	EventRenew    Event = "renew"
	EventTransfer Event = "transfer"
	EventCheckout Event = "checkout"
	EventReassign Event = "reassign"
	EventRemove   Event = "remove"
)

// statusNone is the state of a tenancy that does not exist (before move-in, after removal).
const statusNone models.TenancyStatus = ""

type transition struct {
	From  models.TenancyStatus
	Event Event
	To    models.TenancyStatus
}

// Cancelled has no incoming edge; it only comes from seed or admin data.
var transitions = []transition{
	{From: statusNone, Event: EventMoveIn, To: models.TenancyActive},

	{From: models.TenancyActive, Event: EventRenew, To: models.TenancyActive},
	{From: models.TenancyActive, Event: EventTransfer, To: models.TenancyActive},
	{From: models.TenancyActive, Event: EventCheckout, To: models.TenancyInactive},

	{From: models.TenancyInactive, Event: EventReassign, To: models.TenancyActive},
	{From: models.TenancyCancelled, Event: EventReassign, To: models.TenancyActive},

	{From: models.TenancyInactive, Event: EventRemove, To: statusNone},
	{From: models.TenancyCancelled, Event: EventRemove, To: statusNone},
}

// rejections holds the error returned when (state, event) has no edge.
var rejections = map[Event]map[models.TenancyStatus]*Error{
	EventRenew: {
		models.TenancyInactive:  ErrPaymentInactive,
		models.TenancyCancelled: ErrPaymentInactive,
	},
	EventTransfer: {
		models.TenancyInactive:  ErrTransferInactive,
		models.TenancyCancelled: ErrTransferInactive,
	},
	EventCheckout: {
		models.TenancyInactive:  ErrAlreadyInactive,
		models.TenancyCancelled: ErrTenantCancelled,
	},
	EventReassign: {
		models.TenancyActive: ErrTenantStillActive,
	},
	EventRemove: {
		models.TenancyActive: ErrMustCheckoutFirst,
	},
}

// nextStatus returns the state a tenancy reaches from `from` on ev, or the
// rejection for that pair.
func nextStatus(from models.TenancyStatus, ev Event) (models.TenancyStatus, error) {
	for _, tr := range transitions {
		if tr.From == from && tr.Event == ev {
			return tr.To, nil
		}
	}
	if byState, ok := rejections[ev]; ok {
		if err, ok := byState[from]; ok {
			return from, err
		}
	}
	return from, newError(KindState, "transition "+string(ev)+" not allowed from status "+statusLabel(from))
}

func statusLabel(s models.TenancyStatus) string {
	if s == statusNone {
		return "none"
	}
	return string(s)
}
