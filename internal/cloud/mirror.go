package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	firestore "google.golang.org/api/firestore/v1"

	"github.com/erazemk/zaloga/internal/model"
)

var (
	// ErrNotAuthenticated is returned when no user id is available.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPushInProgress is returned when a push is already running; the
	// call is ignored.
	ErrPushInProgress = errors.New("push already in progress")
	// ErrBatchTooLarge is returned when the items do not fit one commit.
	ErrBatchTooLarge = fmt.Errorf("push exceeds %d writes per commit", MaxBatchWrites)
)

// MaxBatchWrites is the number of writes Firestore accepts in one commit.
const MaxBatchWrites = 500

// BatchError reports that a push failed as a whole. None of the writes were applied.
type BatchError struct {
	Writes int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("pushing %d items: %v", e.Writes, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Committer applies a batch of writes atomically.
type Committer interface {
	Database() string
	Commit(ctx context.Context, writes []*firestore.Write) error
}

// Result counts the outcome of a push.
type Result struct {
	Pushed  int `json:"pushed"`
	Skipped int `json:"skipped"`
}

// Mirror pushes local items to the cloud. One push runs at a time.
type Mirror struct {
	committer Committer
	inFlight  atomic.Bool
}

// NewMirror creates a mirror writing through c.
func NewMirror(c Committer) *Mirror {
	return &Mirror{committer: c}
}

// InFlight reports whether a push is running.
func (m *Mirror) InFlight() bool {
	return m.inFlight.Load()
}

// Push upserts every item with an id into users/{userID}/items/{id} in a
// single atomic commit, with updatedAt stamped by the server. Items without
// an id are skipped. A push started while another is running returns
// ErrPushInProgress without writing. More than MaxBatchWrites items with an
// id cannot be committed atomically; Push then returns ErrBatchTooLarge
// without sending anything.
func (m *Mirror) Push(ctx context.Context, userID string, items []model.Item) (Result, error) {
	if strings.TrimSpace(userID) == "" {
		return Result{}, ErrNotAuthenticated
	}
	if strings.Contains(userID, "/") {
		return Result{}, fmt.Errorf("invalid user id %q", userID)
	}

	withID := 0
	for _, item := range items {
		if item.ID != nil {
			withID++
		}
	}
	if withID > MaxBatchWrites {
		return Result{}, fmt.Errorf("%w: %d items", ErrBatchTooLarge, withID)
	}

	if !m.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrPushInProgress
	}
	defer m.inFlight.Store(false)

	var res Result
	writes := make([]*firestore.Write, 0, len(items))
	for _, item := range items {
		if item.ID == nil {
			res.Skipped++
			continue
		}
		name := DocumentName(m.committer.Database(), userID, *item.ID)
		w, err := upsert(name, item.ToCloudDocument(true))
		if err != nil {
			return Result{Skipped: res.Skipped}, fmt.Errorf("item %d: %w", *item.ID, err)
		}
		writes = append(writes, w)
	}

	if len(writes) == 0 {
		return res, nil
	}

	if err := m.committer.Commit(ctx, writes); err != nil {
		return Result{Skipped: res.Skipped}, &BatchError{Writes: len(writes), Err: err}
	}

	res.Pushed = len(writes)
	return res, nil
}
