package seen

import (
	"context"
	"fmt"

	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/internal/metrics"
	"github.com/prabidush11/Web-Development/pkg/types"
)

// Store is the subset of the message store the reconciler needs.
type Store interface {
	FetchHistory(ctx context.Context, a, b string) ([]types.Message, error)
	BulkMarkSeen(ctx context.Context, senderID, receiverID string) (int64, error)
	MarkSeenByID(ctx context.Context, id, receiverID string) (bool, error)
	CountUnseen(ctx context.Context, receiverID string) (map[string]int64, error)
}

// Reconciler owns the two server-side paths that move a message from unseen
// to seen: opening a conversation's history, and marking a single message
// that arrived live while the conversation was open. Both are idempotent and
// only ever set seen, so they commute.
type Reconciler struct {
	store Store
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// History marks every unseen message from peer to viewer as seen and returns
// the whole conversation, oldest first.
//
// The bulk update runs before the read, so the returned flags match the
// store exactly.
func (r *Reconciler) History(ctx context.Context, viewerID, peerID string) ([]types.Message, error) {
	n, err := r.store.BulkMarkSeen(ctx, peerID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("mark conversation seen: %w", err)
	}
	if n > 0 {
		metrics.SeenTransitions.WithLabelValues("history").Add(float64(n))
		logger.Debugf("[seen] %s opened conversation with %s; %d message(s) now seen", viewerID, peerID, n)
	}

	messages, err := r.store.FetchHistory(ctx, viewerID, peerID)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return messages, nil
}

// MarkSeen marks one message received by viewerID as seen. It reports false
// without error when the message was already seen. store.ErrNotFound is
// returned when the message does not exist or was not sent to viewerID.
func (r *Reconciler) MarkSeen(ctx context.Context, viewerID, messageID string) (bool, error) {
	changed, err := r.store.MarkSeenByID(ctx, messageID, viewerID)
	if err != nil {
		return false, err
	}
	if changed {
		metrics.SeenTransitions.WithLabelValues("live").Inc()
	}
	return changed, nil
}

// UnseenCounts returns, per sender, how many messages viewerID has not seen.
// Senders with nothing unseen are omitted.
func (r *Reconciler) UnseenCounts(ctx context.Context, viewerID string) (map[string]int64, error) {
	counts, err := r.store.CountUnseen(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("count unseen: %w", err)
	}
	return counts, nil
}
