// Package graph implements the connection handshake between two users. Each
// user carries mirrored id lists that must stay symmetric across both records.
package graph

import (
	"slices"

	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

// Relations is one user's side of the social graph.
type Relations struct {
	Connections     []int64 `json:"connections"`
	PendingRequests []int64 `json:"pendingRequests"`
	SentRequests    []int64 `json:"sentRequests"`
}

// IsConnected reports whether id is an accepted connection.
func (r *Relations) IsConnected(id int64) bool {
	return slices.Contains(r.Connections, id)
}

// HasPendingFrom reports whether id has sent this user a request.
func (r *Relations) HasPendingFrom(id int64) bool {
	return slices.Contains(r.PendingRequests, id)
}

// HasSentTo reports whether this user has a request out to id.
func (r *Relations) HasSentTo(id int64) bool {
	return slices.Contains(r.SentRequests, id)
}

func without(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func withOnce(ids []int64, id int64) []int64 {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// Request records a request from fromID to toID on both sides.
func Request(from *Relations, fromID int64, to *Relations, toID int64) error {
	if fromID == toID {
		return apperrors.NewBadRequestError("you cannot send a connection request to yourself")
	}
	switch {
	case from.IsConnected(toID) || to.IsConnected(fromID):
		return apperrors.NewConflictError("you are already connected")
	case from.HasSentTo(toID) || to.HasPendingFrom(fromID):
		return apperrors.NewConflictError("connection request already sent")
	case from.HasPendingFrom(toID) || to.HasSentTo(fromID):
		return apperrors.NewConflictError("this user has already sent you a request")
	}
	from.SentRequests = withOnce(from.SentRequests, toID)
	to.PendingRequests = withOnce(to.PendingRequests, fromID)
	return nil
}

// Accept completes the handshake: toID accepts the request sent by fromID.
// It reports false when the two users were already connected and nothing changed.
func Accept(from *Relations, fromID int64, to *Relations, toID int64) (bool, error) {
	pending := to.HasPendingFrom(fromID) || from.HasSentTo(toID)
	if !pending {
		if from.IsConnected(toID) && to.IsConnected(fromID) {
			return false, nil
		}
		return false, apperrors.NewResourceNotFoundError("no pending connection request from this user")
	}

	to.PendingRequests = without(to.PendingRequests, fromID)
	from.SentRequests = without(from.SentRequests, toID)
	from.Connections = withOnce(from.Connections, toID)
	to.Connections = withOnce(to.Connections, fromID)
	return true, nil
}

func dropPending(from *Relations, fromID int64, to *Relations, toID int64) error {
	if !to.HasPendingFrom(fromID) && !from.HasSentTo(toID) {
		return apperrors.NewResourceNotFoundError("no pending connection request between these users")
	}
	to.PendingRequests = without(to.PendingRequests, fromID)
	from.SentRequests = without(from.SentRequests, toID)
	return nil
}

// Reject is toID declining the request sent by fromID.
func Reject(from *Relations, fromID int64, to *Relations, toID int64) error {
	return dropPending(from, fromID, to, toID)
}

// Cancel is fromID withdrawing the request they sent to toID.
func Cancel(from *Relations, fromID int64, to *Relations, toID int64) error {
	return dropPending(from, fromID, to, toID)
}

// Excluded returns every id the user already relates to, plus self.
func (r *Relations) Excluded(selfID int64) []int64 {
	out := []int64{selfID}
	out = append(out, r.Connections...)
	out = append(out, r.PendingRequests...)
	out = append(out, r.SentRequests...)
	return out
}

// Detach drops every reference to id from r.
func (r *Relations) Detach(id int64) {
	r.Connections = without(r.Connections, id)
	r.PendingRequests = without(r.PendingRequests, id)
	r.SentRequests = without(r.SentRequests, id)
}
