package store

import (
	"sync"
	"time"

	"pdf-assistant-be/internal/entity"
)

const (
	// Merge sub-workflow states
	MergeIdle             = "IDLE"
	MergeAwaitingDocument = "AWAITING_DOCUMENT"
)

// PendingMergeRequest marks an in-progress two-step merge: the document
// revision that originated the request. It exists only while the session is in
// MergeAwaitingDocument.
type PendingMergeRequest struct {
	OriginDocument entity.DocumentHandle `json:"origin_document"`
	RequestedAt    time.Time             `json:"requested_at"`
}

// Session is the single source of truth for one active chat session: the
// current document revision and the ordered transcript. The store itself does
// no concurrency control beyond exposing the embedded mutex; callers serialize
// all mutation through it (one logical writer per session).
type Session struct {
	sync.Mutex

	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	current      *entity.DocumentHandle
	transcript   []entity.Turn
	nextSeq      uint64
	mergeState   string
	pendingMerge *PendingMergeRequest
	busy         bool
}

func NewSession(id string) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		transcript: make([]entity.Turn, 0),
		nextSeq:    1,
		mergeState: MergeIdle,
	}
}

// SetCurrentDocument replaces the current document revision. The superseded
// handle is simply dropped; past turns may still mention it.
func (s *Session) SetCurrentDocument(h entity.DocumentHandle) {
	s.current = &h
}

// CurrentDocument returns a copy of the current handle, or nil before the
// first upload.
func (s *Session) CurrentDocument() *entity.DocumentHandle {
	if s.current == nil {
		return nil
	}
	h := *s.current
	return &h
}

// AppendTurn appends one transcript entry with a freshly allocated sequence
// id. Sequence ids are strictly increasing for the lifetime of the session.
func (s *Session) AppendTurn(role, content string) entity.Turn {
	turn := entity.Turn{
		Seq:       s.nextSeq,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.nextSeq++
	s.transcript = append(s.transcript, turn)
	return turn
}

// Transcript returns a copy of the ordered transcript.
func (s *Session) Transcript() []entity.Turn {
	out := make([]entity.Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Reset clears the transcript and current document. Used at session start
// only; never exposed mid-session.
func (s *Session) Reset() {
	s.current = nil
	s.transcript = s.transcript[:0]
	s.nextSeq = 1
	s.mergeState = MergeIdle
	s.pendingMerge = nil
	s.busy = false
}

func (s *Session) MergeState() string {
	return s.mergeState
}

func (s *Session) PendingMerge() *PendingMergeRequest {
	return s.pendingMerge
}

// EnterMergeWait transitions IDLE -> AWAITING_DOCUMENT, anchoring the request
// to the given document revision.
func (s *Session) EnterMergeWait(origin entity.DocumentHandle) {
	s.mergeState = MergeAwaitingDocument
	s.pendingMerge = &PendingMergeRequest{
		OriginDocument: origin,
		RequestedAt:    time.Now(),
	}
}

// LeaveMergeWait transitions back to IDLE and discards the pending request.
// Safe to call when already idle.
func (s *Session) LeaveMergeWait() {
	s.mergeState = MergeIdle
	s.pendingMerge = nil
}

// Busy reports whether a remote call is outstanding for this session.
func (s *Session) Busy() bool {
	return s.busy
}

func (s *Session) SetBusy(v bool) {
	s.busy = v
}
